package pattern

import (
	"sort"

	"github.com/cbegin/phonon/internal/rational"
)

// eventSeedIndex assigns each hap in a cycle a stable index based on the
// sorted order of its onset time within that cycle. Computing the index
// from the canonical full-cycle query (rather than from position in
// whatever sub-span was actually requested) is what makes degrade/sometimes
// satisfy the block-splitting law: querying a sub-span must return exactly
// the events the whole-cycle query would have produced there, with the
// same keep/drop decisions.
func eventSeedIndex[T any](p Pattern[T], cycle int64) map[rational.Time]int {
	all := p.Query(rational.CycleSpan(cycle))
	onsets := make(map[rational.Time]bool)
	for _, h := range all {
		begin := h.Part.Begin
		if h.Whole != nil {
			begin = h.Whole.Begin
		}
		onsets[begin] = true
	}
	keys := make([]rational.Time, 0, len(onsets))
	for k := range onsets {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
	idx := make(map[rational.Time]int, len(keys))
	for i, k := range keys {
		idx[k] = i
	}
	return idx
}

// filterSeeded keeps haps of p for which keep(randFloat01(cycle, index))
// is true, where index is the hap's stable per-cycle seed index.
func filterSeeded[T any](p Pattern[T], keep func(rnd float64) bool) Pattern[T] {
	return New(func(s rational.Span) []Hap[T] {
		in := p.Query(s)
		if len(in) == 0 {
			return nil
		}
		cache := make(map[int64]map[rational.Time]int)
		out := make([]Hap[T], 0, len(in))
		for _, h := range in {
			begin := h.Part.Begin
			if h.Whole != nil {
				begin = h.Whole.Begin
			}
			cycle := begin.Cycle()
			idx, ok := cache[cycle]
			if !ok {
				idx = eventSeedIndex(p, cycle)
				cache[cycle] = idx
			}
			i := idx[begin]
			if keep(randFloat01(cycle, i)) {
				out = append(out, h)
			}
		}
		return out
	})
}

// DegradeBy drops each event of p independently with probability prob
// (seeded by cycle number, per §4.B).
func DegradeBy[T any](prob float64, p Pattern[T]) Pattern[T] {
	return filterSeeded(p, func(rnd float64) bool { return rnd >= prob })
}

// Degrade drops events with probability 0.5.
func Degrade[T any](p Pattern[T]) Pattern[T] { return DegradeBy(0.5, p) }

// unDegradeBy is the complement of DegradeBy: it keeps exactly the events
// DegradeBy would drop.
func unDegradeBy[T any](prob float64, p Pattern[T]) Pattern[T] {
	return filterSeeded(p, func(rnd float64) bool { return rnd < prob })
}

// SometimesBy applies f to a seeded prob-fraction of events and leaves the
// rest unchanged.
func SometimesBy[T any](prob float64, f func(Pattern[T]) Pattern[T], p Pattern[T]) Pattern[T] {
	return Stack(DegradeBy(prob, p), f(unDegradeBy(prob, p)))
}

// Sometimes applies f with probability 0.5.
func Sometimes[T any](f func(Pattern[T]) Pattern[T], p Pattern[T]) Pattern[T] {
	return SometimesBy(0.5, f, p)
}

// Often applies f with probability 0.75.
func Often[T any](f func(Pattern[T]) Pattern[T], p Pattern[T]) Pattern[T] {
	return SometimesBy(0.75, f, p)
}

// Rarely applies f with probability 0.25.
func Rarely[T any](f func(Pattern[T]) Pattern[T], p Pattern[T]) Pattern[T] {
	return SometimesBy(0.25, f, p)
}

// Shuffle randomly reorders the n chopped slices of p each cycle, seeded
// per cycle like DegradeBy (supplemented from original_source's
// test_loop_chop_shuffle.rs).
func Shuffle[T any](n int, p Pattern[T]) Pattern[T] {
	if n <= 0 {
		return p
	}
	return New(func(s rational.Span) []Hap[T] {
		var out []Hap[T]
		for _, cyc := range s.Cycles() {
			cycleNum := cyc.Begin.Cycle()
			perm := make([]int, n)
			for i := range perm {
				perm[i] = i
			}
			for i := n - 1; i > 0; i-- {
				j := int(randFloat01(cycleNum, i) * float64(i+1))
				if j > i {
					j = i
				}
				perm[i], perm[j] = perm[j], perm[i]
			}
			step := rational.NewTime(1, int64(n))
			for i := 0; i < n; i++ {
				src := perm[i]
				slotStart := rational.FromInt(cycleNum).Add(step.Mul(rational.FromInt(int64(i))))
				slotEnd := slotStart.Add(step)
				slotSpan := rational.Span{Begin: slotStart, End: slotEnd}
				part, ok := rational.Intersect(slotSpan, cyc)
				if !ok {
					continue
				}
				srcStart := rational.FromInt(cycleNum).Add(step.Mul(rational.FromInt(int64(src))))
				shift := slotStart.Sub(srcStart)
				shifted := Early(shift.Neg(), p)
				out = append(out, shifted.Query(part)...)
			}
		}
		return out
	})
}
