package dsp

import (
	"github.com/cbegin/phonon/internal/graph"
	"github.com/cbegin/phonon/internal/transport"
)

// Reverb is a Schroeder-style comb+allpass bank, adapted directly from
// the teacher's effects.Reverb: the same four-comb/two-allpass topology,
// scaled from a fixed stereo effect to a single mono graph node (the
// compiler's reverb_stereo builtin is an alias of reverb and builds this
// same single mono node). inputs[0] signal, inputs[1] wet mix.
type Reverb struct {
	combs   [4]reverbComb
	allpass [2]reverbAllpass
}

type reverbComb struct {
	buf []float32
	pos int
	fb  float32
}

type reverbAllpass struct {
	buf []float32
	pos int
	fb  float32
}

// NewReverb allocates comb/allpass delay lines sized from roomSize (0..1)
// at sampleRate, with decay controlled by feedback (0..1).
func NewReverb(sampleRate int, roomSize, feedback float32) *Reverb {
	base := int(float32(sampleRate) * clampFloat32(roomSize, 0, 1) * 0.05)
	if base < 10 {
		base = 10
	}
	fb := clampFloat32(feedback, 0, 0.95)
	r := &Reverb{}
	combLens := [4]int{base, base * 1117 / 1000, base * 1271 / 1000, base * 1437 / 1000}
	for i := range r.combs {
		r.combs[i] = reverbComb{buf: make([]float32, combLens[i]), fb: fb}
	}
	apLens := [2]int{base * 347 / 1000, base * 213 / 1000}
	for i := range r.allpass {
		n := apLens[i]
		if n < 1 {
			n = 1
		}
		r.allpass[i] = reverbAllpass{buf: make([]float32, n), fb: 0.5}
	}
	return r
}

func (r *Reverb) Process(inputs []float32, t *transport.Transport, sampleRate int) float32 {
	var in, wet float32 = 0, 0.3
	if len(inputs) > 0 {
		in = inputs[0]
	}
	if len(inputs) > 1 {
		wet = inputs[1]
	}
	var out float32
	for i := range r.combs {
		out += r.combs[i].process(in)
	}
	out *= 0.25
	for i := range r.allpass {
		out = r.allpass[i].process(out)
	}
	return in*(1-wet) + out*wet
}

func (r *Reverb) Reset() {
	for i := range r.combs {
		for j := range r.combs[i].buf {
			r.combs[i].buf[j] = 0
		}
		r.combs[i].pos = 0
	}
	for i := range r.allpass {
		for j := range r.allpass[i].buf {
			r.allpass[i].buf[j] = 0
		}
		r.allpass[i].pos = 0
	}
}

func (r *Reverb) TransferFrom(prev graph.Payload) {
	p, ok := prev.(*Reverb)
	if !ok {
		return
	}
	for i := range r.combs {
		if i < len(p.combs) && len(p.combs[i].buf) == len(r.combs[i].buf) {
			copy(r.combs[i].buf, p.combs[i].buf)
			r.combs[i].pos = p.combs[i].pos
		}
	}
	for i := range r.allpass {
		if i < len(p.allpass) && len(p.allpass[i].buf) == len(r.allpass[i].buf) {
			copy(r.allpass[i].buf, p.allpass[i].buf)
			r.allpass[i].pos = p.allpass[i].pos
		}
	}
}

func (c *reverbComb) process(in float32) float32 {
	out := c.buf[c.pos]
	c.buf[c.pos] = in + out*c.fb
	c.pos++
	if c.pos >= len(c.buf) {
		c.pos = 0
	}
	return out
}

func (a *reverbAllpass) process(in float32) float32 {
	bufOut := a.buf[a.pos]
	out := -in + bufOut
	a.buf[a.pos] = in + bufOut*a.fb
	a.pos++
	if a.pos >= len(a.buf) {
		a.pos = 0
	}
	return out
}
