// Package dsp implements the per-node signal processing kinds that
// internal/graph arenas hold as payloads: oscillators, filters,
// delay/comb/reverb, envelopes, convolution and the arithmetic glue
// nodes the compiler wires between them.
package dsp

import "github.com/cbegin/phonon/internal/transport"

// Clock is a plain-value snapshot of a transport's cycle position and
// rate, captured by ClockFrom. Node Process methods take the
// *transport.Transport itself, not a Clock.
type Clock struct {
	CyclePosition float64
	CPS           float64
}

// ClockFrom captures the fields a dsp node needs from a live transport.
func ClockFrom(t *transport.Transport) Clock {
	return Clock{CyclePosition: t.CyclePosition().Float(), CPS: t.CPS()}
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampFloat32(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
