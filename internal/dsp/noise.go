package dsp

import (
	"github.com/cbegin/phonon/internal/graph"
	"github.com/cbegin/phonon/internal/transport"
)

// Noise is a white-noise source seeded deterministically at construction
// from a per-node splitmix64 generator, never from math/rand's global
// state, so two renders of the same graph always agree (§4.F determinism
// requirement).
type Noise struct {
	state uint64
}

// NewNoise seeds a Noise node. Callers pick seed (e.g. node ordinal) so
// distinct noise nodes in one graph never correlate.
func NewNoise(seed uint64) *Noise {
	return &Noise{state: seed ^ 0x9E3779B97F4A7C15}
}

func (n *Noise) Process(inputs []float32, t *transport.Transport, sampleRate int) float32 {
	n.state += 0x9E3779B97F4A7C15
	z := n.state
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	z = z ^ (z >> 31)
	// top 24 bits to a float in [-1,1]
	return float32(int32(z>>40)) / float32(1<<23)
}

func (n *Noise) Reset() {}

func (n *Noise) TransferFrom(prev graph.Payload) {
	if p, ok := prev.(*Noise); ok {
		n.state = p.state
	}
}
