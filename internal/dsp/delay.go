package dsp

import (
	"github.com/cbegin/phonon/internal/graph"
	"github.com/cbegin/phonon/internal/transport"
)

// Delay is a ring-buffer delay line with an explicit feedback input slot,
// generalized from the teacher's fixed stereo effects.Delay to the
// graph's mono per-node signal path. inputs[0] signal, inputs[1] delay
// time in seconds, inputs[2] feedback gain (the delayed output is fed back
// into the node's own ring buffer internally; no graph edge points back at
// this node).
type Delay struct {
	buf        []float32
	pos        int
	sampleRate int
}

// NewDelay allocates a ring buffer sized to maxSeconds at sampleRate.
func NewDelay(maxSeconds float64, sampleRate int) *Delay {
	n := int(maxSeconds*float64(sampleRate)) + 2
	if n < 2 {
		n = 2
	}
	return &Delay{buf: make([]float32, n), sampleRate: sampleRate}
}

func (d *Delay) Process(inputs []float32, t *transport.Transport, sampleRate int) float32 {
	var in, delaySec, feedback float32
	if len(inputs) > 0 {
		in = inputs[0]
	}
	if len(inputs) > 1 {
		delaySec = inputs[1]
	}
	if len(inputs) > 2 {
		feedback = inputs[2]
	}
	out := d.readInterpolated(delaySec)
	d.buf[d.pos] = in + out*clampFloat32(feedback, 0, 0.98)
	d.pos++
	if d.pos >= len(d.buf) {
		d.pos = 0
	}
	return out
}

func (d *Delay) readInterpolated(delaySec float32) float32 {
	delaySamples := float64(delaySec) * float64(d.sampleRate)
	if delaySamples < 0 {
		delaySamples = 0
	}
	maxDelay := float64(len(d.buf) - 1)
	if delaySamples > maxDelay {
		delaySamples = maxDelay
	}
	readPos := float64(d.pos) - delaySamples
	for readPos < 0 {
		readPos += float64(len(d.buf))
	}
	i0 := int(readPos)
	frac := float32(readPos - float64(i0))
	i1 := i0 + 1
	if i1 >= len(d.buf) {
		i1 = 0
	}
	return d.buf[i0]*(1-frac) + d.buf[i1]*frac
}

func (d *Delay) Reset() {
	for i := range d.buf {
		d.buf[i] = 0
	}
	d.pos = 0
}

func (d *Delay) TransferFrom(prev graph.Payload) {
	if p, ok := prev.(*Delay); ok && len(p.buf) == len(d.buf) {
		copy(d.buf, p.buf)
		d.pos = p.pos
	}
}
