package dsp

import (
	"math"

	"github.com/cbegin/phonon/internal/transport"
)

// ArithOp selects which binary operation an Arith node performs.
type ArithOp int

const (
	OpAdd ArithOp = iota
	OpSub
	OpMul
	OpDiv
)

// Arith is a stateless two-input binary node (inputs[0] op inputs[1]).
type Arith struct {
	Op ArithOp
}

func (a *Arith) Process(inputs []float32, t *transport.Transport, sampleRate int) float32 {
	var x, y float32
	if len(inputs) > 0 {
		x = inputs[0]
	}
	if len(inputs) > 1 {
		y = inputs[1]
	}
	switch a.Op {
	case OpAdd:
		return x + y
	case OpSub:
		return x - y
	case OpMul:
		return x * y
	case OpDiv:
		if y == 0 {
			return 0
		}
		return x / y
	}
	return 0
}

// Sum mixes any number of inputs by addition, used for the graph's default
// output bus and multi-voice mixdown.
type Sum struct{}

func (s *Sum) Process(inputs []float32, t *transport.Transport, sampleRate int) float32 {
	var out float32
	for _, v := range inputs {
		out += v
	}
	return out
}

// Min is a binary node returning the smaller of its two inputs
// (supplemented node kind, per §4.G).
type Min struct{}

func (m *Min) Process(inputs []float32, t *transport.Transport, sampleRate int) float32 {
	if len(inputs) < 2 {
		if len(inputs) == 1 {
			return inputs[0]
		}
		return 0
	}
	if inputs[0] < inputs[1] {
		return inputs[0]
	}
	return inputs[1]
}

// Abs is a unary node returning the absolute value of its single input.
type Abs struct{}

func (ab *Abs) Process(inputs []float32, t *transport.Transport, sampleRate int) float32 {
	if len(inputs) == 0 {
		return 0
	}
	return float32(math.Abs(float64(inputs[0])))
}

// Neg is a unary node returning the negation of its single input.
type Neg struct{}

func (n *Neg) Process(inputs []float32, t *transport.Transport, sampleRate int) float32 {
	if len(inputs) == 0 {
		return 0
	}
	return -inputs[0]
}
