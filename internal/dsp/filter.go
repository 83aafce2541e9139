package dsp

import (
	"math"

	"github.com/cbegin/phonon/internal/graph"
	"github.com/cbegin/phonon/internal/transport"
)

// BiquadKind selects a Filter node's response.
type BiquadKind int

const (
	FilterLowpass BiquadKind = iota
	FilterHighpass
	FilterBandpass
)

// Filter is a Robert Bristow-Johnson cookbook biquad. inputs[0] is the
// signal, inputs[1] cutoff Hz, inputs[2] Q. Coefficients are recomputed
// only when cutoff/Q change since the last sample, to avoid the cost (and
// zipper noise) of rederiving them every sample for a steady parameter.
type Filter struct {
	Kind BiquadKind

	lastCutoff float32
	lastQ      float32
	coeffsSet  bool

	b0, b1, b2, a1, a2 float64
	x1, x2, y1, y2     float64
}

func (f *Filter) Process(inputs []float32, t *transport.Transport, sampleRate int) float32 {
	var in, cutoff, q float32 = 0, 1000, 0.707
	if len(inputs) > 0 {
		in = inputs[0]
	}
	if len(inputs) > 1 {
		cutoff = inputs[1]
	}
	if len(inputs) > 2 {
		q = inputs[2]
	}
	if q <= 0 {
		q = 0.707
	}
	if !f.coeffsSet || cutoff != f.lastCutoff || q != f.lastQ {
		f.recompute(cutoff, q, sampleRate)
		f.lastCutoff, f.lastQ, f.coeffsSet = cutoff, q, true
	}

	x0 := float64(in)
	y0 := f.b0*x0 + f.b1*f.x1 + f.b2*f.x2 - f.a1*f.y1 - f.a2*f.y2
	f.x2, f.x1 = f.x1, x0
	f.y2, f.y1 = f.y1, y0
	return float32(y0)
}

func (f *Filter) recompute(cutoff, q float32, sampleRate int) {
	if sampleRate <= 0 {
		sampleRate = 44100
	}
	fc := float64(cutoff)
	if fc <= 0 {
		fc = 1
	}
	nyquist := float64(sampleRate) / 2
	if fc > nyquist*0.999 {
		fc = nyquist * 0.999
	}
	w0 := 2 * math.Pi * fc / float64(sampleRate)
	alpha := math.Sin(w0) / (2 * float64(q))
	cosw0 := math.Cos(w0)

	var b0, b1, b2, a0, a1, a2 float64
	switch f.Kind {
	case FilterHighpass:
		b0 = (1 + cosw0) / 2
		b1 = -(1 + cosw0)
		b2 = (1 + cosw0) / 2
		a0 = 1 + alpha
		a1 = -2 * cosw0
		a2 = 1 - alpha
	case FilterBandpass:
		b0 = alpha
		b1 = 0
		b2 = -alpha
		a0 = 1 + alpha
		a1 = -2 * cosw0
		a2 = 1 - alpha
	default: // FilterLowpass
		b0 = (1 - cosw0) / 2
		b1 = 1 - cosw0
		b2 = (1 - cosw0) / 2
		a0 = 1 + alpha
		a1 = -2 * cosw0
		a2 = 1 - alpha
	}
	f.b0, f.b1, f.b2 = b0/a0, b1/a0, b2/a0
	f.a1, f.a2 = a1/a0, a2/a0
}

func (f *Filter) Reset() {
	f.x1, f.x2, f.y1, f.y2 = 0, 0, 0, 0
}

func (f *Filter) TransferFrom(prev graph.Payload) {
	if p, ok := prev.(*Filter); ok && p.Kind == f.Kind {
		f.x1, f.x2, f.y1, f.y2 = p.x1, p.x2, p.y1, p.y2
		f.b0, f.b1, f.b2, f.a1, f.a2 = p.b0, p.b1, p.b2, p.a1, p.a2
		f.lastCutoff, f.lastQ, f.coeffsSet = p.lastCutoff, p.lastQ, p.coeffsSet
	}
}

// Lag is a one-pole smoother (inputs[0] target, inputs[1] time-constant in
// seconds), grounded on the teacher's fm.Engine lpfAlpha/lpfL one-pole
// state.
type Lag struct {
	state float64
}

func (l *Lag) Process(inputs []float32, t *transport.Transport, sampleRate int) float32 {
	var target, tc float32
	if len(inputs) > 0 {
		target = inputs[0]
	}
	if len(inputs) > 1 {
		tc = inputs[1]
	}
	if sampleRate <= 0 {
		sampleRate = 44100
	}
	alpha := 1.0
	if tc > 0 {
		alpha = 1 - math.Exp(-1.0/(float64(tc)*float64(sampleRate)))
	}
	l.state += alpha * (float64(target) - l.state)
	return float32(l.state)
}

func (l *Lag) Reset() { l.state = 0 }

func (l *Lag) TransferFrom(prev graph.Payload) {
	if p, ok := prev.(*Lag); ok {
		l.state = p.state
	}
}
