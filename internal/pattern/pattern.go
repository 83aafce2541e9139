// Package pattern implements the pattern algebra: lazy, queryable event
// streams over rational time, and the combinators used to build them.
//
// A Pattern is a pure function from a query Span to the Haps whose Part
// intersects it; patterns never mutate and are freely composable. This is
// represented as a boxed closure over immutable captured state (see
// SPEC_FULL.md §4.B design note), the same "hold a function, call it
// later" shape the teacher uses for PlayerOption/eventWrapper callbacks.
package pattern

import "github.com/cbegin/phonon/internal/rational"

// Hap is one pattern event ("a hap"): an intrinsic Whole span (may extend
// outside the query window), a clipped Part inside the query, a Value, and
// a Context of small per-event string parameters (gain, pan, speed, ...).
//
// Whole is nil for values with no intrinsic span of their own (e.g. an
// analog/continuous source sampled at a point); every Hap produced by the
// combinators in this package sets Whole.
type Hap[T any] struct {
	Whole   *rational.Span
	Part    rational.Span
	Value   T
	Context map[string]string
}

// WithContext returns a copy of h with key set to value in its Context.
func (h Hap[T]) WithContext(key, value string) Hap[T] {
	ctx := make(map[string]string, len(h.Context)+1)
	for k, v := range h.Context {
		ctx[k] = v
	}
	ctx[key] = value
	h.Context = ctx
	return h
}

// HasOnset reports whether h's Part begins where its Whole begins, i.e.
// this is the query window in which the event actually triggers (as
// opposed to a fragment of an event whose onset lies outside the query).
func (h Hap[T]) HasOnset() bool {
	return h.Whole != nil && h.Whole.Begin.Equal(h.Part.Begin)
}

// Pattern is a pure query function over rational spans.
type Pattern[T any] struct {
	query func(rational.Span) []Hap[T]
}

// New wraps a raw query function as a Pattern.
func New[T any](query func(rational.Span) []Hap[T]) Pattern[T] {
	return Pattern[T]{query: query}
}

// Query returns every Hap whose Part intersects s.
func (p Pattern[T]) Query(s rational.Span) []Hap[T] {
	if p.query == nil {
		return nil
	}
	return p.query(s)
}

// Silence is the pattern that never produces an event.
func Silence[T any]() Pattern[T] {
	return New(func(rational.Span) []Hap[T] { return nil })
}

// Pure produces one whole-cycle event per cycle, each spanning [c, c+1),
// clipped to the query window.
func Pure[T any](v T) Pattern[T] {
	return New(func(s rational.Span) []Hap[T] {
		var out []Hap[T]
		for _, cyc := range s.Cycles() {
			whole := rational.CycleSpan(cyc.Begin.Cycle())
			part, ok := rational.Intersect(whole, cyc)
			if !ok {
				continue
			}
			out = append(out, Hap[T]{Whole: &whole, Part: part, Value: v})
		}
		return out
	})
}

// MapHap transforms each Hap produced by p via f.
func MapHap[T, U any](p Pattern[T], f func(Hap[T]) Hap[U]) Pattern[U] {
	return New(func(s rational.Span) []Hap[U] {
		in := p.Query(s)
		out := make([]Hap[U], len(in))
		for i, h := range in {
			out[i] = f(h)
		}
		return out
	})
}

// Map transforms each event's Value via f, leaving timing and context
// untouched.
func Map[T, U any](p Pattern[T], f func(T) U) Pattern[U] {
	return MapHap(p, func(h Hap[T]) Hap[U] {
		return Hap[U]{Whole: h.Whole, Part: h.Part, Value: f(h.Value), Context: h.Context}
	})
}

// Filter keeps only Haps for which keep returns true.
func Filter[T any](p Pattern[T], keep func(Hap[T]) bool) Pattern[T] {
	return New(func(s rational.Span) []Hap[T] {
		in := p.Query(s)
		out := make([]Hap[T], 0, len(in))
		for _, h := range in {
			if keep(h) {
				out = append(out, h)
			}
		}
		return out
	})
}

// FilterOnsets keeps only Haps whose onset falls within the query (drops
// fragments of events that started before the query window).
func FilterOnsets[T any](p Pattern[T]) Pattern[T] {
	return Filter(p, Hap[T].HasOnset)
}

// WithContext applies a context key/value to every hap produced by p.
func WithContext[T any](p Pattern[T], key, value string) Pattern[T] {
	return MapHap(p, func(h Hap[T]) Hap[T] { return h.WithContext(key, value) })
}

// WithQuerySpan transforms the span p is queried with (the inverse of
// WithEventSpan), used to build time-warping combinators like Fast/Slow.
func WithQuerySpan[T any](p Pattern[T], f func(rational.Span) rational.Span) Pattern[T] {
	return New(func(s rational.Span) []Hap[T] {
		return p.Query(f(s))
	})
}

// WithHapSpans transforms both Part and Whole of every hap p produces via f.
func WithHapSpans[T any](p Pattern[T], f func(rational.Span) rational.Span) Pattern[T] {
	return MapHap(p, func(h Hap[T]) Hap[T] {
		part := f(h.Part)
		var whole *rational.Span
		if h.Whole != nil {
			w := f(*h.Whole)
			whole = &w
		}
		return Hap[T]{Whole: whole, Part: part, Value: h.Value, Context: h.Context}
	})
}

// Stack produces the union of every pattern's events, timings unchanged.
func Stack[T any](ps ...Pattern[T]) Pattern[T] {
	return New(func(s rational.Span) []Hap[T] {
		var out []Hap[T]
		for _, p := range ps {
			out = append(out, p.Query(s)...)
		}
		return out
	})
}
