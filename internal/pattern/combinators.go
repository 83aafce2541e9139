package pattern

import "github.com/cbegin/phonon/internal/rational"

// Cat concatenates patterns in time: n patterns each occupy 1/n of a cycle,
// repeating every cycle.
func Cat[T any](ps ...Pattern[T]) Pattern[T] {
	if len(ps) == 0 {
		return Silence[T]()
	}
	n := int64(len(ps))
	return New(func(s rational.Span) []Hap[T] {
		var out []Hap[T]
		for _, cyc := range s.Cycles() {
			cycleNum := cyc.Begin.Cycle()
			step := rational.NewTime(1, n)
			for i := int64(0); i < n; i++ {
				stepStart := rational.FromInt(cycleNum).Add(step.Mul(rational.FromInt(i)))
				stepEnd := stepStart.Add(step)
				stepSpan := rational.Span{Begin: stepStart, End: stepEnd}
				part, ok := rational.Intersect(stepSpan, cyc)
				if !ok {
					continue
				}
				// Query the i-th pattern compressed into this step, by
				// mapping the step-local query back into its own cycle
				// time, then mapping results forward again.
				inner := compressIntoStep(ps[i], cycleNum, step, i)
				out = append(out, inner.Query(part)...)
			}
		}
		return out
	})
}

// compressIntoStep maps pattern p's natural cycle [0,1) onto the step
// [cycleNum + i*step, cycleNum + (i+1)*step).
func compressIntoStep[T any](p Pattern[T], cycleNum int64, step rational.Time, i int64) Pattern[T] {
	stepStart := rational.FromInt(cycleNum).Add(step.Mul(rational.FromInt(i)))
	toInner := func(s rational.Span) rational.Span {
		return rational.Span{
			Begin: s.Begin.Sub(stepStart).Div(step).Add(rational.FromInt(cycleNum)),
			End:   s.End.Sub(stepStart).Div(step).Add(rational.FromInt(cycleNum)),
		}
	}
	toOuter := func(s rational.Span) rational.Span {
		return rational.Span{
			Begin: s.Begin.Sub(rational.FromInt(cycleNum)).Mul(step).Add(stepStart),
			End:   s.End.Sub(rational.FromInt(cycleNum)).Mul(step).Add(stepStart),
		}
	}
	return WithHapSpans(WithQuerySpan(p, toInner), toOuter)
}

// CatWeighted concatenates patterns with per-pattern weights: pattern i
// occupies weights[i]/sum(weights) of the cycle. Used by the mini-notation
// "@w" weight syntax.
func CatWeighted[T any](ps []Pattern[T], weights []rational.Time) Pattern[T] {
	if len(ps) == 0 {
		return Silence[T]()
	}
	total := rational.Zero
	for _, w := range weights {
		total = total.Add(w)
	}
	return New(func(s rational.Span) []Hap[T] {
		var out []Hap[T]
		for _, cyc := range s.Cycles() {
			cycleNum := cyc.Begin.Cycle()
			offset := rational.Zero
			for i, p := range ps {
				w := weights[i]
				frac := w.Div(total)
				stepStart := rational.FromInt(cycleNum).Add(offset)
				stepEnd := stepStart.Add(frac)
				stepSpan := rational.Span{Begin: stepStart, End: stepEnd}
				offset = offset.Add(frac)
				part, ok := rational.Intersect(stepSpan, cyc)
				if !ok {
					continue
				}
				inner := compressIntoWeightedStep(p, cycleNum, stepStart, frac)
				out = append(out, inner.Query(part)...)
			}
		}
		return out
	})
}

func compressIntoWeightedStep[T any](p Pattern[T], cycleNum int64, stepStart, step rational.Time) Pattern[T] {
	toInner := func(s rational.Span) rational.Span {
		return rational.Span{
			Begin: s.Begin.Sub(stepStart).Div(step).Add(rational.FromInt(cycleNum)),
			End:   s.End.Sub(stepStart).Div(step).Add(rational.FromInt(cycleNum)),
		}
	}
	toOuter := func(s rational.Span) rational.Span {
		return rational.Span{
			Begin: s.Begin.Sub(rational.FromInt(cycleNum)).Mul(step).Add(stepStart),
			End:   s.End.Sub(rational.FromInt(cycleNum)).Mul(step).Add(stepStart),
		}
	}
	return WithHapSpans(WithQuerySpan(p, toInner), toOuter)
}

// SlowCat plays one whole pattern per cycle, alternating through ps.
func SlowCat[T any](ps ...Pattern[T]) Pattern[T] {
	if len(ps) == 0 {
		return Silence[T]()
	}
	n := int64(len(ps))
	return New(func(s rational.Span) []Hap[T] {
		var out []Hap[T]
		for _, cyc := range s.Cycles() {
			cycleNum := cyc.Begin.Cycle()
			idx := cycleNum % n
			if idx < 0 {
				idx += n
			}
			p := ps[idx]
			// The selected pattern is queried as if it were always at this
			// cycle (so it sees a continuous timeline of its own, matching
			// Tidal's slowcat semantics: each appearance advances the
			// inner pattern's own cycle count by 1, not by n).
			innerCycle := cycleNum / n
			if cycleNum < 0 && cycleNum%n != 0 {
				innerCycle--
			}
			offset := rational.FromInt(cycleNum - innerCycle)
			shifted := WithHapSpans(WithQuerySpan(p, func(s2 rational.Span) rational.Span {
				return s2.Shift(offset.Neg())
			}), func(s2 rational.Span) rational.Span {
				return s2.Shift(offset)
			})
			out = append(out, shifted.Query(cyc)...)
		}
		return out
	})
}

// Fast time-scales p by k: k>1 speeds up (the pattern repeats k times per
// cycle).
func Fast[T any](k rational.Time, p Pattern[T]) Pattern[T] {
	if k.Num == 0 {
		return Silence[T]()
	}
	if k.Num < 0 {
		return Fast(k.Neg(), Rev(p))
	}
	return WithHapSpans(WithQuerySpan(p, func(s rational.Span) rational.Span {
		return s.Scale(k)
	}), func(s rational.Span) rational.Span {
		return s.Scale(rational.One.Div(k))
	})
}

// Slow time-scales p by 1/k.
func Slow[T any](k rational.Time, p Pattern[T]) Pattern[T] {
	return Fast(rational.One.Div(k), p)
}

// Rev mirrors events within each cycle.
func Rev[T any](p Pattern[T]) Pattern[T] {
	reflect := func(s rational.Span) rational.Span {
		cyc := s.Begin.Cycle()
		// Reflection must happen around the start of the containing
		// cycle; this is only exact for spans within one cycle, which is
		// guaranteed by Query's per-cycle splitting below.
		base := rational.FromInt(cyc)
		next := rational.FromInt(cyc + 1)
		return rational.Span{
			Begin: base.Add(next).Sub(s.End),
			End:   base.Add(next).Sub(s.Begin),
		}
	}
	return New(func(s rational.Span) []Hap[T] {
		var out []Hap[T]
		for _, cyc := range s.Cycles() {
			out = append(out, WithHapSpans(WithQuerySpan(p, reflect), reflect).Query(cyc)...)
		}
		return out
	})
}

// Early shifts p earlier in time by offset (modulo the cycle, i.e. events
// wrap around the cycle boundary).
func Early[T any](offset rational.Time, p Pattern[T]) Pattern[T] {
	return WithHapSpans(WithQuerySpan(p, func(s rational.Span) rational.Span {
		return s.Shift(offset)
	}), func(s rational.Span) rational.Span {
		return s.Shift(offset.Neg())
	})
}

// Late shifts p later in time by offset.
func Late[T any](offset rational.Time, p Pattern[T]) Pattern[T] {
	return Early(offset.Neg(), p)
}

// Every applies f to p on every nth cycle (cycle_number mod n == 0),
// passing other cycles through unchanged.
func Every[T any](n int64, f func(Pattern[T]) Pattern[T], p Pattern[T]) Pattern[T] {
	return WhenMod(n, 0, f, p)
}

// WhenMod applies f to p on cycles where cycle mod n == k.
func WhenMod[T any](n, k int64, f func(Pattern[T]) Pattern[T], p Pattern[T]) Pattern[T] {
	if n <= 0 {
		return p
	}
	transformed := f(p)
	return New(func(s rational.Span) []Hap[T] {
		var out []Hap[T]
		for _, cyc := range s.Cycles() {
			m := cyc.Begin.Cycle() % n
			if m < 0 {
				m += n
			}
			if m == k {
				out = append(out, transformed.Query(cyc)...)
			} else {
				out = append(out, p.Query(cyc)...)
			}
		}
		return out
	})
}

// Within applies f only to the part of each cycle within [a,b), leaving
// the rest of the cycle as p.
func Within[T any](a, b rational.Time, f func(Pattern[T]) Pattern[T], p Pattern[T]) Pattern[T] {
	transformed := f(p)
	inWindow := func(t rational.Time) bool {
		pos := t.CyclePos()
		return a.LessEq(pos) && pos.Less(b)
	}
	return New(func(s rational.Span) []Hap[T] {
		var out []Hap[T]
		for _, h := range transformed.Query(s) {
			if inWindow(h.Part.Begin) {
				out = append(out, h)
			}
		}
		for _, h := range p.Query(s) {
			if !inWindow(h.Part.Begin) {
				out = append(out, h)
			}
		}
		return out
	})
}

// Zoom plays the portion of p within [a,b) of each cycle, stretched to
// fill the whole cycle.
func Zoom[T any](a, b rational.Time, p Pattern[T]) Pattern[T] {
	width := b.Sub(a)
	if width.Num <= 0 {
		return Silence[T]()
	}
	toInner := func(s rational.Span) rational.Span {
		return rational.Span{Begin: s.Begin.Mul(width).Add(a), End: s.End.Mul(width).Add(a)}
	}
	toOuter := func(s rational.Span) rational.Span {
		return rational.Span{Begin: s.Begin.Sub(a).Div(width), End: s.End.Sub(a).Div(width)}
	}
	return WithHapSpans(WithQuerySpan(p, toInner), toOuter)
}

// Focus is like Zoom but does not compress the cycle outside the window;
// it repeats the windowed slice across the whole timeline without
// restarting each cycle's zoom independently.
func Focus[T any](a, b rational.Time, p Pattern[T]) Pattern[T] {
	width := b.Sub(a)
	if width.Num <= 0 {
		return Silence[T]()
	}
	return Fast(rational.One.Div(width), Early(a, p))
}
