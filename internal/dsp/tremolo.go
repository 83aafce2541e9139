package dsp

import (
	"math"

	"github.com/cbegin/phonon/internal/graph"
	"github.com/cbegin/phonon/internal/transport"
)

// Tremolo amplitude-modulates its input with a sine LFO, built the way
// the teacher's effects.Compressor wraps a simple per-sample envelope
// follower: small, stateful, no allocation in Process. inputs[0] signal,
// inputs[1] rate Hz, inputs[2] depth (0..1).
type Tremolo struct {
	phase float64
}

func (tr *Tremolo) Process(inputs []float32, t *transport.Transport, sampleRate int) float32 {
	var in float32
	var rate float32 = 5
	var depth float32 = 0.5
	if len(inputs) > 0 {
		in = inputs[0]
	}
	if len(inputs) > 1 {
		rate = inputs[1]
	}
	if len(inputs) > 2 {
		depth = inputs[2]
	}
	if sampleRate <= 0 {
		sampleRate = 44100
	}
	mod := 1 - clampFloat32(depth, 0, 1)*float32(0.5+0.5*math.Sin(tr.phase))
	tr.phase += 2 * math.Pi * float64(rate) / float64(sampleRate)
	for tr.phase > 2*math.Pi {
		tr.phase -= 2 * math.Pi
	}
	return in * mod
}

func (tr *Tremolo) Reset() { tr.phase = 0 }

func (tr *Tremolo) TransferFrom(prev graph.Payload) {
	if p, ok := prev.(*Tremolo); ok {
		tr.phase = p.phase
	}
}
