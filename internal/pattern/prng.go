package pattern

// seedFor derives a deterministic 64-bit seed from a cycle number and an
// event index, per the design note: "RNG is per-combinator, seeded from
// (cycle_number, event_index)" — never a process-global RNG, so two
// queries of the same span always return identical events.
func seedFor(cycle int64, eventIndex int) uint64 {
	x := uint64(cycle)*0x9E3779B97F4A7C15 + uint64(uint32(eventIndex))*0xBF58476D1CE4E5B9
	x ^= x >> 30
	x *= 0xBF58476D1CE4E5B9
	x ^= x >> 27
	x *= 0x94D049BB133111EB
	x ^= x >> 31
	return x
}

// splitmix64 is a small, fast, deterministic PRNG step. Returns the next
// state and a derived value in [0,1).
func splitmix64(state uint64) (next uint64, value float64) {
	state += 0x9E3779B97F4A7C15
	z := state
	z = (z ^ (z >> 30)) * 0xBFF58476D1CE4E5B
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	z = z ^ (z >> 31)
	return state, float64(z>>11) / float64(1<<53)
}

// randFloat01 returns a deterministic pseudo-random float in [0,1) for the
// given cycle/event-index pair.
func randFloat01(cycle int64, eventIndex int) float64 {
	_, v := splitmix64(seedFor(cycle, eventIndex))
	return v
}
