package pattern

import (
	"strconv"

	"github.com/cbegin/phonon/internal/rational"
)

// Chop slices each event of p into n equal contiguous pieces, tagging each
// piece with "begin"/"end" context fractions (in [0,1) of the original
// event) so a sample-playback node can play the corresponding slice of the
// underlying PCM data. This is how sample-slicing composes with the rest
// of the pattern algebra without needing a dedicated sample-slice value
// type.
func Chop[T any](n int, p Pattern[T]) Pattern[T] {
	if n <= 1 {
		return p
	}
	return New(func(s rational.Span) []Hap[T] {
		var out []Hap[T]
		for _, h := range p.Query(s) {
			if h.Whole == nil {
				out = append(out, h)
				continue
			}
			w := *h.Whole
			step := w.Duration().Div(rational.FromInt(int64(n)))
			base0, base1 := sliceBounds(h.Context)
			span := base1 - base0
			for i := 0; i < n; i++ {
				subStart := w.Begin.Add(step.Mul(rational.FromInt(int64(i))))
				subEnd := subStart.Add(step)
				sub := rational.Span{Begin: subStart, End: subEnd}
				part, ok := rational.Intersect(sub, h.Part)
				if !ok {
					continue
				}
				b := base0 + span*float64(i)/float64(n)
				e := base0 + span*float64(i+1)/float64(n)
				hap := Hap[T]{Whole: &sub, Part: part, Value: h.Value, Context: h.Context}
				hap = hap.WithContext("begin", formatFrac(b))
				hap = hap.WithContext("end", formatFrac(e))
				out = append(out, hap)
			}
		}
		return out
	})
}

func sliceBounds(ctx map[string]string) (float64, float64) {
	b, e := 0.0, 1.0
	if v, ok := ctx["begin"]; ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			b = f
		}
	}
	if v, ok := ctx["end"]; ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			e = f
		}
	}
	return b, e
}

func formatFrac(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// Segment samples p's value at n equally spaced onsets per cycle, turning a
// continuous/sparse pattern into a discrete one with n evenly spaced events.
func Segment[T any](n rational.Time, p Pattern[T]) Pattern[T] {
	structure := Fast(n, Pure(struct{}{}))
	return New(func(s rational.Span) []Hap[T] {
		var out []Hap[T]
		for _, sh := range structure.Query(s) {
			for _, v := range p.Query(sh.Part) {
				if !v.Part.ContainsTime(sh.Part.Begin) && !v.Part.Begin.Equal(sh.Part.Begin) {
					continue
				}
				out = append(out, Hap[T]{Whole: sh.Whole, Part: sh.Part, Value: v.Value, Context: v.Context})
				break
			}
		}
		return out
	})
}

// Gap is like Segment but silences every other of the n slots per cycle,
// producing a sparser gated rhythm (supplemented from original_source's
// gap combinator, used for rest-heavy drum patterns).
func Gap[T any](n int64, p Pattern[T]) Pattern[T] {
	if n <= 0 {
		return Silence[T]()
	}
	segmented := Segment(rational.FromInt(n), p)
	step := rational.NewTime(1, n)
	return New(func(s rational.Span) []Hap[T] {
		var out []Hap[T]
		for _, h := range segmented.Query(s) {
			if h.Whole == nil {
				continue
			}
			pos := h.Whole.Begin.CyclePos()
			idxFloat := pos.Div(step)
			idx := idxFloat.Cycle()
			if idx%2 == 0 {
				out = append(out, h)
			}
		}
		return out
	})
}

// Stutter re-triggers each event of p n times in quick succession,
// subdividing the event's own whole span rather than the cycle.
func Stutter[T any](n int, p Pattern[T]) Pattern[T] {
	if n <= 1 {
		return p
	}
	return New(func(s rational.Span) []Hap[T] {
		var out []Hap[T]
		for _, h := range p.Query(s) {
			if h.Whole == nil {
				out = append(out, h)
				continue
			}
			w := *h.Whole
			step := w.Duration().Div(rational.FromInt(int64(n)))
			for i := 0; i < n; i++ {
				subStart := w.Begin.Add(step.Mul(rational.FromInt(int64(i))))
				subEnd := subStart.Add(step)
				sub := rational.Span{Begin: subStart, End: subEnd}
				part, ok := rational.Intersect(sub, h.Part)
				if !ok {
					continue
				}
				out = append(out, Hap[T]{Whole: &sub, Part: part, Value: h.Value, Context: h.Context})
			}
		}
		return out
	})
}

// Ply behaves like Stutter; it exists as a distinct name because
// sample-triggering contexts traditionally call the "retrigger n times"
// operation ply rather than stutter.
func Ply[T any](n int, p Pattern[T]) Pattern[T] {
	return Stutter(n, p)
}

// Echo layers n delayed, decaying copies of p: copy i is delayed by i*t and
// has its "gain" context multiplied by feedback^i.
func Echo[T any](n int, t rational.Time, feedback float64, p Pattern[T]) Pattern[T] {
	if n <= 1 {
		return p
	}
	layers := make([]Pattern[T], n)
	for i := 0; i < n; i++ {
		mult := pow(feedback, i)
		delayed := Late(t.Mul(rational.FromInt(int64(i))), p)
		layers[i] = MapHap(delayed, func(h Hap[T]) Hap[T] {
			cur := 1.0
			if v, ok := h.Context["gain"]; ok {
				if f, err := strconv.ParseFloat(v, 64); err == nil {
					cur = f
				}
			}
			return h.WithContext("gain", formatFrac(cur*mult))
		})
	}
	return Stack(layers...)
}

func pow(base float64, n int) float64 {
	out := 1.0
	for i := 0; i < n; i++ {
		out *= base
	}
	return out
}
