package dsp

import (
	"github.com/cbegin/phonon/internal/graph"
	"github.com/cbegin/phonon/internal/transport"
)

// Comb is a fixed-length feedback comb filter, adapted from the teacher's
// effects.combFilter to the graph's mono per-node signal path. inputs[0]
// signal, inputs[1] feedback gain.
type Comb struct {
	buf []float32
	pos int
}

// NewComb allocates a comb with delayLen samples.
func NewComb(delayLen int) *Comb {
	if delayLen < 1 {
		delayLen = 1
	}
	return &Comb{buf: make([]float32, delayLen)}
}

func (c *Comb) Process(inputs []float32, t *transport.Transport, sampleRate int) float32 {
	var in, feedback float32
	if len(inputs) > 0 {
		in = inputs[0]
	}
	if len(inputs) > 1 {
		feedback = inputs[1]
	}
	out := c.buf[c.pos]
	c.buf[c.pos] = in + out*clampFloat32(feedback, 0, 0.98)
	c.pos++
	if c.pos >= len(c.buf) {
		c.pos = 0
	}
	return out
}

func (c *Comb) Reset() {
	for i := range c.buf {
		c.buf[i] = 0
	}
	c.pos = 0
}

func (c *Comb) TransferFrom(prev graph.Payload) {
	if p, ok := prev.(*Comb); ok && len(p.buf) == len(c.buf) {
		copy(c.buf, p.buf)
		c.pos = p.pos
	}
}
