package pattern

// Bjorklund distributes k hits as evenly as possible among n steps,
// returning a boolean mask of length n. k<=0 yields no hits; k>=n yields
// all hits.
func Bjorklund(k, n int) []bool {
	if n <= 0 {
		return nil
	}
	if k <= 0 {
		return make([]bool, n)
	}
	if k >= n {
		mask := make([]bool, n)
		for i := range mask {
			mask[i] = true
		}
		return mask
	}

	// Standard Bjorklund construction via repeated bucket merging.
	groups := make([][]bool, k)
	for i := range groups {
		groups[i] = []bool{true}
	}
	remainder := make([][]bool, n-k)
	for i := range remainder {
		remainder[i] = []bool{false}
	}
	for len(remainder) > 1 {
		m := len(groups)
		if len(remainder) < m {
			m = len(remainder)
		}
		var newGroups [][]bool
		for i := 0; i < m; i++ {
			newGroups = append(newGroups, append(append([]bool{}, groups[i]...), remainder[i]...))
		}
		var newRemainder [][]bool
		if len(groups) > m {
			newRemainder = append(newRemainder, groups[m:]...)
		}
		if len(remainder) > m {
			newRemainder = append(newRemainder, remainder[m:]...)
		}
		groups = newGroups
		remainder = newRemainder
	}
	var out []bool
	for _, g := range groups {
		out = append(out, g...)
	}
	for _, g := range remainder {
		out = append(out, g...)
	}
	return out
}

// Rotate rotates mask left by r steps (so index 0 becomes what was at
// index r), wrapping; r may be negative.
func Rotate(mask []bool, r int) []bool {
	n := len(mask)
	if n == 0 {
		return mask
	}
	r = ((r % n) + n) % n
	out := make([]bool, n)
	for i := range mask {
		out[i] = mask[(i+r)%n]
	}
	return out
}

// Euclid builds a boolean pattern: k hits distributed over n steps per
// cycle, rotated by rot.
func Euclid(k, n, rot int) Pattern[bool] {
	mask := Rotate(Bjorklund(k, n), rot)
	if len(mask) == 0 {
		return Silence[bool]()
	}
	ps := make([]Pattern[bool], len(mask))
	for i, v := range mask {
		ps[i] = Pure(v)
	}
	return Cat(ps...)
}

// EuclidGate applies a euclidean rhythm to p: p plays only on steps where
// the euclidean mask is true, distributing n steps per cycle.
func EuclidGate[T any](k, n, rot int, p Pattern[T]) Pattern[T] {
	mask := Euclid(k, n, rot)
	return gateBy(mask, p)
}

// gateBy takes its structure from the "true" haps of gate: each true step
// yields p's events clipped to that step, with the step as their Whole.
func gateBy[T any](gate Pattern[bool], p Pattern[T]) Pattern[T] {
	onSteps := Filter(gate, func(g Hap[bool]) bool { return g.Value })
	return CombineStructLeft(onSteps, p, func(_ bool, v T) T { return v })
}
