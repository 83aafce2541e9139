package pattern

import "github.com/cbegin/phonon/internal/rational"

// mergeContext returns a new context map holding every key of a overwritten
// by b's keys where they collide.
func mergeContext(a, b map[string]string) map[string]string {
	if len(a) == 0 && len(b) == 0 {
		return nil
	}
	out := make(map[string]string, len(a)+len(b))
	for k, v := range a {
		out[k] = v
	}
	for k, v := range b {
		out[k] = v
	}
	return out
}

// combineWhole picks the surviving Whole for a struct-left/struct-right
// combine: the side providing structure keeps its Whole.
func combineWhole(keep *rational.Span) *rational.Span { return keep }

// CombineStructLeft combines pa and pb with op, taking its event structure
// (onsets/durations) from pa and sampling pb's value wherever it overlaps.
// This is the "|op" family (struct from the left).
func CombineStructLeft[A, B, C any](pa Pattern[A], pb Pattern[B], op func(A, B) C) Pattern[C] {
	return New(func(s rational.Span) []Hap[C] {
		var out []Hap[C]
		for _, ha := range pa.Query(s) {
			for _, hb := range pb.Query(ha.Part) {
				part, ok := rational.Intersect(ha.Part, hb.Part)
				if !ok {
					continue
				}
				out = append(out, Hap[C]{
					Whole:   combineWhole(ha.Whole),
					Part:    part,
					Value:   op(ha.Value, hb.Value),
					Context: mergeContext(ha.Context, hb.Context),
				})
			}
		}
		return out
	})
}

// CombineStructRight is CombineStructLeft with structure taken from pb (the
// "op|" family).
func CombineStructRight[A, B, C any](pa Pattern[A], pb Pattern[B], op func(A, B) C) Pattern[C] {
	return CombineStructLeft(pb, pa, func(b B, a A) C { return op(a, b) })
}

// CombineStructBoth takes structure from both sides (the bare "op" family,
// "|op|"): an event fires wherever pa and pb's parts overlap, keeping
// whichever side's Whole is present (preferring pa's).
func CombineStructBoth[A, B, C any](pa Pattern[A], pb Pattern[B], op func(A, B) C) Pattern[C] {
	return New(func(s rational.Span) []Hap[C] {
		var out []Hap[C]
		for _, ha := range pa.Query(s) {
			for _, hb := range pb.Query(ha.Part) {
				part, ok := rational.Intersect(ha.Part, hb.Part)
				if !ok {
					continue
				}
				whole := ha.Whole
				if whole == nil {
					whole = hb.Whole
				}
				out = append(out, Hap[C]{
					Whole:   whole,
					Part:    part,
					Value:   op(ha.Value, hb.Value),
					Context: mergeContext(ha.Context, hb.Context),
				})
			}
		}
		return out
	})
}

// The following are the float64-valued instantiations of the structure
// operators actually exposed to the source language (§6): "|+ +|", "|- -|",
// "|* *|", "|/ /|" combine numeric parameter patterns (gain, pan, cutoff,
// ...), and "|> <|" pick one side's value outright while taking the other
// side's structure.

func AddStructLeft(a, b Pattern[float64]) Pattern[float64] {
	return CombineStructLeft(a, b, func(x, y float64) float64 { return x + y })
}
func AddStructRight(a, b Pattern[float64]) Pattern[float64] {
	return CombineStructRight(a, b, func(x, y float64) float64 { return x + y })
}
func AddStructBoth(a, b Pattern[float64]) Pattern[float64] {
	return CombineStructBoth(a, b, func(x, y float64) float64 { return x + y })
}

func SubStructLeft(a, b Pattern[float64]) Pattern[float64] {
	return CombineStructLeft(a, b, func(x, y float64) float64 { return x - y })
}
func SubStructRight(a, b Pattern[float64]) Pattern[float64] {
	return CombineStructRight(a, b, func(x, y float64) float64 { return x - y })
}
func SubStructBoth(a, b Pattern[float64]) Pattern[float64] {
	return CombineStructBoth(a, b, func(x, y float64) float64 { return x - y })
}

func MulStructLeft(a, b Pattern[float64]) Pattern[float64] {
	return CombineStructLeft(a, b, func(x, y float64) float64 { return x * y })
}
func MulStructRight(a, b Pattern[float64]) Pattern[float64] {
	return CombineStructRight(a, b, func(x, y float64) float64 { return x * y })
}
func MulStructBoth(a, b Pattern[float64]) Pattern[float64] {
	return CombineStructBoth(a, b, func(x, y float64) float64 { return x * y })
}

func DivStructLeft(a, b Pattern[float64]) Pattern[float64] {
	return CombineStructLeft(a, b, func(x, y float64) float64 {
		if y == 0 {
			return 0
		}
		return x / y
	})
}
func DivStructRight(a, b Pattern[float64]) Pattern[float64] {
	return CombineStructRight(a, b, func(x, y float64) float64 {
		if y == 0 {
			return 0
		}
		return x / y
	})
}
func DivStructBoth(a, b Pattern[float64]) Pattern[float64] {
	return CombineStructBoth(a, b, func(x, y float64) float64 {
		if y == 0 {
			return 0
		}
		return x / y
	})
}

// TakeRightStructLeft implements "|>": take pb's value, pa's structure.
func TakeRightStructLeft[A, B any](a Pattern[A], b Pattern[B]) Pattern[B] {
	return CombineStructLeft(a, b, func(_ A, y B) B { return y })
}

// TakeLeftStructRight implements "<|": take pa's value, pb's structure.
func TakeLeftStructRight[A, B any](a Pattern[A], b Pattern[B]) Pattern[A] {
	return CombineStructRight(a, b, func(x A, _ B) A { return x })
}
