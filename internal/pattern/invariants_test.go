package pattern

import (
	"testing"

	"pgregory.net/rapid"

	"github.com/cbegin/phonon/internal/rational"
)

// buildSamplePattern constructs a pattern from the combinators under test,
// shaped by a handful of small generated integers, so the invariants below
// exercise Cat/Fast/Rev/Euclid/DegradeBy rather than just Pure.
func buildSamplePattern(t *rapid.T) Pattern[int] {
	n := rapid.IntRange(1, 4).Draw(t, "n")
	ps := make([]Pattern[int], n)
	for i := range ps {
		ps[i] = Pure(i)
	}
	p := Cat(ps...)
	if rapid.Bool().Draw(t, "rev") {
		p = Rev(p)
	}
	k := rapid.IntRange(1, 4).Draw(t, "fastK")
	p = Fast(rational.FromInt(int64(k)), p)
	if rapid.Bool().Draw(t, "euclid") {
		hits := rapid.IntRange(1, 8).Draw(t, "hits")
		steps := rapid.IntRange(hits, 8).Draw(t, "steps")
		p = EuclidGate[int](hits, steps, 0, p)
	}
	return p
}

// TestInvariantContainment checks invariant 1: every hap's Part lies within
// the query span it was produced by.
func TestInvariantContainment(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		p := buildSamplePattern(t)
		beginNum := rapid.Int64Range(-8, 8).Draw(t, "beginNum")
		lenNum := rapid.Int64Range(1, 8).Draw(t, "lenNum")
		begin := rational.NewTime(beginNum, 1)
		end := rational.NewTime(beginNum+lenNum, 1)
		s := rational.MustSpan(begin, end)
		for _, h := range p.Query(s) {
			if !s.Contains(h.Part) {
				t.Fatalf("hap part %v not contained in query span %v", h.Part, s)
			}
			if h.Whole != nil && !h.Whole.Contains(h.Part) {
				t.Fatalf("hap part %v not contained in its own whole %v", h.Part, *h.Whole)
			}
		}
	})
}

// TestInvariantBlockSplitting checks invariant 2: querying a span as one
// piece must produce the same haps as querying it split into two adjacent
// sub-spans and concatenating the results.
func TestInvariantBlockSplitting(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		p := buildSamplePattern(t)
		beginNum := rapid.Int64Range(-8, 8).Draw(t, "beginNum")
		totalLen := rapid.Int64Range(2, 8).Draw(t, "totalLen")
		splitOffset := rapid.Int64Range(1, totalLen-1).Draw(t, "splitOffset")

		begin := rational.NewTime(beginNum, 1)
		mid := rational.NewTime(beginNum+splitOffset, 1)
		end := rational.NewTime(beginNum+totalLen, 1)

		whole := rational.MustSpan(begin, end)
		first := rational.MustSpan(begin, mid)
		second := rational.MustSpan(mid, end)

		wantAll := p.Query(whole)
		gotSplit := append(p.Query(first), p.Query(second)...)

		if len(wantAll) != len(gotSplit) {
			t.Fatalf("whole query produced %d haps, split queries produced %d", len(wantAll), len(gotSplit))
		}
		for i := range wantAll {
			if wantAll[i].Part != gotSplit[i].Part || wantAll[i].Value != gotSplit[i].Value {
				t.Fatalf("hap %d differs: whole=%+v split=%+v", i, wantAll[i], gotSplit[i])
			}
		}
	})
}

// TestInvariantRevInvolution checks that Rev(Rev(p)) == p over arbitrary
// spans.
func TestInvariantRevInvolution(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		p := buildSamplePattern(t)
		beginNum := rapid.Int64Range(-8, 8).Draw(t, "beginNum")
		lenNum := rapid.Int64Range(1, 6).Draw(t, "lenNum")
		s := rational.MustSpan(rational.NewTime(beginNum, 1), rational.NewTime(beginNum+lenNum, 1))

		want := p.Query(s)
		got := Rev(Rev(p)).Query(s)
		if len(want) != len(got) {
			t.Fatalf("rev(rev(p)) produced %d haps, p produced %d", len(got), len(want))
		}
		for i := range want {
			if want[i].Part != got[i].Part || want[i].Value != got[i].Value {
				t.Fatalf("hap %d differs: want=%+v got=%+v", i, want[i], got[i])
			}
		}
	})
}

// TestInvariantFastSlowRoundTrip checks fast(k, slow(k, p)) == p.
func TestInvariantFastSlowRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		p := buildSamplePattern(t)
		k := rapid.IntRange(1, 6).Draw(t, "k")
		beginNum := rapid.Int64Range(-8, 8).Draw(t, "beginNum")
		lenNum := rapid.Int64Range(1, 6).Draw(t, "lenNum")
		s := rational.MustSpan(rational.NewTime(beginNum, 1), rational.NewTime(beginNum+lenNum, 1))

		kt := rational.FromInt(int64(k))
		rt := Fast(kt, Slow(kt, p))

		want := p.Query(s)
		got := rt.Query(s)
		if len(want) != len(got) {
			t.Fatalf("round trip produced %d haps, p produced %d", len(got), len(want))
		}
		for i := range want {
			if want[i].Part != got[i].Part || want[i].Value != got[i].Value {
				t.Fatalf("hap %d differs: want=%+v got=%+v", i, want[i], got[i])
			}
		}
	})
}
