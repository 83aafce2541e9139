package dsp

import (
	"math"

	"github.com/cbegin/phonon/internal/transport"
)

// Xfade mixes a and b with an equal-power law at position pos in [0,1]
// (0 = all a, 1 = all b). pos is clamped outside that range.
func Xfade(a, b, pos float32) float32 {
	pos = clampFloat32(pos, 0, 1)
	ga := float32(math.Cos(float64(pos) * math.Pi / 2))
	gb := float32(math.Sin(float64(pos) * math.Pi / 2))
	return a*ga + b*gb
}

// Crossfade is the graph node form of Xfade: inputs[0] a, inputs[1] b,
// inputs[2] position.
type Crossfade struct{}

func (c *Crossfade) Process(inputs []float32, t *transport.Transport, sampleRate int) float32 {
	var a, b, pos float32
	if len(inputs) > 0 {
		a = inputs[0]
	}
	if len(inputs) > 1 {
		b = inputs[1]
	}
	if len(inputs) > 2 {
		pos = inputs[2]
	}
	return Xfade(a, b, pos)
}
