package rational

// Span is a half-open time interval [Begin, End). A Span is never empty:
// Begin is always strictly less than End.
type Span struct {
	Begin, End Time
}

// NewSpan constructs a Span, returning ErrInvalidSpan when end <= begin.
func NewSpan(begin, end Time) (Span, error) {
	if !begin.Less(end) {
		return Span{}, ErrInvalidSpan
	}
	return Span{Begin: begin, End: end}, nil
}

// MustSpan is NewSpan but panics on an invalid span; useful for literals
// known at compile time (e.g. in tests) where an error return is noise.
func MustSpan(begin, end Time) Span {
	s, err := NewSpan(begin, end)
	if err != nil {
		panic(err)
	}
	return s
}

// Duration returns End - Begin.
func (s Span) Duration() Time { return s.End.Sub(s.Begin) }

// WithTime returns a copy of s with both bounds mapped through f. f must
// be monotonic increasing or the result won't be a valid Span.
func (s Span) WithTime(f func(Time) Time) Span {
	return Span{Begin: f(s.Begin), End: f(s.End)}
}

// Intersect returns the overlap of a and b, or false if they don't overlap
// (including the boundary case where they merely touch).
func Intersect(a, b Span) (Span, bool) {
	begin := Max(a.Begin, b.Begin)
	end := Min(a.End, b.End)
	if !begin.Less(end) {
		return Span{}, false
	}
	return Span{Begin: begin, End: end}, true
}

// Contains reports whether s fully contains o (o ⊆ s).
func (s Span) Contains(o Span) bool {
	return s.Begin.LessEq(o.Begin) && o.End.LessEq(s.End)
}

// ContainsTime reports whether t falls within [Begin, End).
func (s Span) ContainsTime(t Time) bool {
	return s.Begin.LessEq(t) && t.Less(s.End)
}

// Cycles splits s at every integer cycle boundary it crosses, returning
// spans that each lie within a single cycle.
func (s Span) Cycles() []Span {
	var out []Span
	cur := s.Begin
	for cur.Less(s.End) {
		nextBoundary := FromInt(cur.Cycle() + 1)
		end := Min(nextBoundary, s.End)
		if cur.Less(end) {
			out = append(out, Span{Begin: cur, End: end})
		}
		cur = end
	}
	if len(out) == 0 {
		out = append(out, s)
	}
	return out
}

// CycleSpan returns the whole-cycle span [c, c+1) for cycle number c.
func CycleSpan(c int64) Span {
	return Span{Begin: FromInt(c), End: FromInt(c + 1)}
}

// Shift translates s by offset.
func (s Span) Shift(offset Time) Span {
	return Span{Begin: s.Begin.Add(offset), End: s.End.Add(offset)}
}

// Scale multiplies both bounds of s by factor (used by Fast/Slow).
func (s Span) Scale(factor Time) Span {
	return Span{Begin: s.Begin.Mul(factor), End: s.End.Mul(factor)}
}
