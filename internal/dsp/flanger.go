package dsp

import (
	"math"

	"github.com/cbegin/phonon/internal/graph"
	"github.com/cbegin/phonon/internal/transport"
)

// Flanger is a short modulated delay, built the way the teacher's
// effects.Chorus is built but tuned to flanger-range delay/depth (a few
// ms) rather than chorus range, and scaled to the graph's mono signal
// path. inputs[0] signal, inputs[1] rate Hz, inputs[2] depth (0..1 of the
// buffer), inputs[3] feedback, inputs[4] wet mix.
type Flanger struct {
	buf   []float32
	pos   int
	phase float64
}

// NewFlanger allocates a buffer sized for up to maxDelayMs of delay at
// sampleRate.
func NewFlanger(maxDelayMs float64, sampleRate int) *Flanger {
	n := int(maxDelayMs*float64(sampleRate)/1000.0) + 4
	if n < 4 {
		n = 4
	}
	return &Flanger{buf: make([]float32, n)}
}

func (fl *Flanger) Process(inputs []float32, t *transport.Transport, sampleRate int) float32 {
	var in float32
	var rate float32 = 0.2
	var depth float32 = 0.5
	var feedback float32
	var wet float32 = 0.5
	if len(inputs) > 0 {
		in = inputs[0]
	}
	if len(inputs) > 1 {
		rate = inputs[1]
	}
	if len(inputs) > 2 {
		depth = inputs[2]
	}
	if len(inputs) > 3 {
		feedback = inputs[3]
	}
	if len(inputs) > 4 {
		wet = inputs[4]
	}
	if sampleRate <= 0 {
		sampleRate = 44100
	}
	size := len(fl.buf)
	modDepth := clampFloat32(depth, 0, 1) * float32(size-2) / 2
	mod := float32(math.Sin(fl.phase)) * modDepth
	fl.phase += 2 * math.Pi * float64(rate) / float64(sampleRate)
	for fl.phase > 2*math.Pi {
		fl.phase -= 2 * math.Pi
	}

	delay := float32(size)/2 + mod
	readPos := float32(fl.pos) - delay
	for readPos < 0 {
		readPos += float32(size)
	}
	i0 := int(readPos)
	frac := readPos - float32(i0)
	i1 := i0 + 1
	if i1 >= size {
		i1 = 0
	}
	delayed := fl.buf[i0]*(1-frac) + fl.buf[i1]*frac

	fl.buf[fl.pos] = in + delayed*clampFloat32(feedback, 0, 0.9)
	fl.pos++
	if fl.pos >= size {
		fl.pos = 0
	}
	return in*(1-wet) + delayed*wet
}

func (fl *Flanger) Reset() {
	for i := range fl.buf {
		fl.buf[i] = 0
	}
	fl.pos, fl.phase = 0, 0
}

func (fl *Flanger) TransferFrom(prev graph.Payload) {
	if p, ok := prev.(*Flanger); ok && len(p.buf) == len(fl.buf) {
		copy(fl.buf, p.buf)
		fl.pos, fl.phase = p.pos, p.phase
	}
}
