package dsp

import (
	fft "github.com/MeKo-Christian/algo-fft"
	"github.com/cbegin/phonon/internal/graph"
	"github.com/cbegin/phonon/internal/transport"
)

// Convolution is a partitioned overlap-add convolver against a fixed
// impulse response, using algo-fft for the forward/inverse transforms.
// The FFT plan and impulse spectrum are allocated once at construction to
// the impulse's length (§4.G: "must be allocated to max impulse length at
// construction") so Process never allocates on the hot path.
type Convolution struct {
	fftSize   int
	plan      *fft.Plan64
	irSpec    []complex128
	inputTail []float32 // ring of the last fftSize/2 input samples
	overlap   []float32 // pending overlap-add tail
	pos       int
	block     []float32
	blockLen  int
}

// NewConvolution builds a convolver for the given impulse response at
// sampleRate. fftSize is chosen as the next power of two at least twice
// the impulse length, per the partitioned overlap-add constraint.
func NewConvolution(impulse []float32, sampleRate int) *Convolution {
	irLen := len(impulse)
	if irLen == 0 {
		irLen = 1
	}
	fftSize := nextPow2(irLen * 2)
	plan := fft.NewPlan64(fftSize)

	irTime := make([]complex128, fftSize)
	for i, s := range impulse {
		irTime[i] = complex(float64(s), 0)
	}
	irSpec := plan.Forward(irTime)

	blockLen := fftSize - irLen + 1
	if blockLen < 1 {
		blockLen = 1
	}
	return &Convolution{
		fftSize:   fftSize,
		plan:      plan,
		irSpec:    irSpec,
		overlap:   make([]float32, fftSize),
		block:     make([]float32, blockLen),
		blockLen:  blockLen,
	}
}

func nextPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

func (c *Convolution) Process(inputs []float32, t *transport.Transport, sampleRate int) float32 {
	var in float32
	if len(inputs) > 0 {
		in = inputs[0]
	}
	c.block[c.pos] = in
	c.pos++

	out := c.overlap[0]
	copy(c.overlap, c.overlap[1:])
	c.overlap[len(c.overlap)-1] = 0

	if c.pos >= c.blockLen {
		c.flushBlock()
		c.pos = 0
	}
	return out
}

func (c *Convolution) flushBlock() {
	freqDomain := make([]complex128, c.fftSize)
	for i, s := range c.block {
		freqDomain[i] = complex(float64(s), 0)
	}
	spec := c.plan.Forward(freqDomain)
	for i := range spec {
		spec[i] *= c.irSpec[i]
	}
	timeDomain := c.plan.Inverse(spec)
	for i := 0; i < c.fftSize && i < len(c.overlap); i++ {
		c.overlap[i] += float32(real(timeDomain[i])) / float32(c.fftSize)
	}
	for i := range c.block {
		c.block[i] = 0
	}
}

func (c *Convolution) Reset() {
	for i := range c.overlap {
		c.overlap[i] = 0
	}
	for i := range c.block {
		c.block[i] = 0
	}
	c.pos = 0
}

func (c *Convolution) TransferFrom(prev graph.Payload) {
	p, ok := prev.(*Convolution)
	if !ok || p.fftSize != c.fftSize {
		return
	}
	copy(c.overlap, p.overlap)
	copy(c.block, p.block)
	c.pos = p.pos
}
