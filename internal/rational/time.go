// Package rational implements exact cycle-position arithmetic for the
// pattern engine. Every pattern timing computation goes through Time and
// Span; sample-rate conversion happens only at the graph boundary.
package rational

import (
	"errors"
	"fmt"
)

// ErrInvalidSpan is returned when a Span is constructed with end <= begin.
var ErrInvalidSpan = errors.New("rational: invalid span")

// Time is an exact rational cycle position, normalized to lowest terms
// with a strictly positive denominator.
type Time struct {
	Num, Den int64
}

// Zero is the rational 0/1.
var Zero = Time{Num: 0, Den: 1}

// One is the rational 1/1.
var One = Time{Num: 1, Den: 1}

func gcd(a, b int64) int64 {
	if a < 0 {
		a = -a
	}
	if b < 0 {
		b = -b
	}
	for b != 0 {
		a, b = b, a%b
	}
	if a == 0 {
		return 1
	}
	return a
}

// NewTime constructs a normalized Time. den must be nonzero; the
// arithmetic methods pass products of normalized (positive) denominators,
// so a zero denominator here is a programmer error (such as arithmetic on
// the zero value Time{}), not a runtime condition.
func NewTime(num, den int64) Time {
	if den == 0 {
		panic("rational: zero denominator")
	}
	if den < 0 {
		num, den = -num, -den
	}
	g := gcd(num, den)
	return Time{Num: num / g, Den: den / g}
}

// FromInt makes an integer cycle position.
func FromInt(n int64) Time { return Time{Num: n, Den: 1} }

// FromFloat rationalizes f via a bounded continued-fraction search,
// capping the denominator to keep downstream arithmetic cheap.
func FromFloat(f float64) Time {
	const maxDen = 1_000_000
	if f == 0 {
		return Zero
	}
	neg := f < 0
	if neg {
		f = -f
	}
	// Continued fraction expansion with a denominator cap.
	var h0, h1 int64 = 0, 1
	var k0, k1 int64 = 1, 0
	x := f
	for i := 0; i < 40; i++ {
		a := int64(x)
		h2 := a*h1 + h0
		k2 := a*k1 + k0
		if k2 > maxDen {
			break
		}
		h0, h1 = h1, h2
		k0, k1 = k1, k2
		frac := x - float64(a)
		if frac < 1e-12 {
			break
		}
		x = 1 / frac
	}
	if k1 == 0 {
		k1 = 1
	}
	t := NewTime(h1, k1)
	if neg {
		t.Num = -t.Num
	}
	return t
}

// Float returns the closest float64 approximation.
func (t Time) Float() float64 { return float64(t.Num) / float64(t.Den) }

func (t Time) Add(o Time) Time {
	return NewTime(t.Num*o.Den+o.Num*t.Den, t.Den*o.Den)
}

func (t Time) Sub(o Time) Time {
	return NewTime(t.Num*o.Den-o.Num*t.Den, t.Den*o.Den)
}

func (t Time) Mul(o Time) Time {
	return NewTime(t.Num*o.Num, t.Den*o.Den)
}

func (t Time) Div(o Time) Time {
	if o.Num == 0 {
		panic("rational: division by zero")
	}
	return NewTime(t.Num*o.Den, t.Den*o.Num)
}

func (t Time) Neg() Time { return Time{Num: -t.Num, Den: t.Den} }

// Compare returns -1, 0, or 1 as t is less than, equal to, or greater than o.
func (t Time) Compare(o Time) int {
	l := t.Num * o.Den
	r := o.Num * t.Den
	switch {
	case l < r:
		return -1
	case l > r:
		return 1
	default:
		return 0
	}
}

func (t Time) Less(o Time) bool      { return t.Compare(o) < 0 }
func (t Time) LessEq(o Time) bool    { return t.Compare(o) <= 0 }
func (t Time) Greater(o Time) bool   { return t.Compare(o) > 0 }
func (t Time) GreaterEq(o Time) bool { return t.Compare(o) >= 0 }
func (t Time) Equal(o Time) bool     { return t.Compare(o) == 0 }

// Cycle returns the integer cycle number containing t (floor division).
func (t Time) Cycle() int64 {
	q := t.Num / t.Den
	if t.Num%t.Den != 0 && (t.Num < 0) != (t.Den < 0) {
		q--
	}
	return q
}

// CyclePos returns the fractional position of t within its cycle, in [0,1).
func (t Time) CyclePos() Time {
	return t.Sub(FromInt(t.Cycle()))
}

// Floor returns the start-of-cycle Time for t's cycle.
func (t Time) Floor() Time { return FromInt(t.Cycle()) }

func (t Time) String() string { return fmt.Sprintf("%d/%d", t.Num, t.Den) }

// Min returns the lesser of a, b.
func Min(a, b Time) Time {
	if a.Less(b) {
		return a
	}
	return b
}

// Max returns the greater of a, b.
func Max(a, b Time) Time {
	if a.Greater(b) {
		return a
	}
	return b
}
