// Package graph implements the signal graph: a dense arena of nodes
// evaluated once per sample in cached topological order.
package graph

import (
	"errors"
	"fmt"

	"github.com/cbegin/phonon/internal/transport"
)

// NodeId indexes into a Graph's node arena.
type NodeId uint32

// Value is either a constant or a reference to another node's output.
type Value struct {
	IsNode bool
	Const  float32
	Node   NodeId
}

// Const wraps a literal as a Value.
func Const(v float32) Value { return Value{Const: v} }

// FromNode wraps a node reference as a Value.
func FromNode(id NodeId) Value { return Value{IsNode: true, Node: id} }

// Kind tags which DSP role a node plays. Step evaluates every node through
// its Payload's Process method; Kind is what TransferState matches on
// (kind plus ordinal within kind) when carrying state across a hot-swap.
type Kind int

const (
	KindOscillator Kind = iota
	KindNoise
	KindArith
	KindFilter
	KindLag
	KindDelay
	KindComb
	KindEnvelope
	KindReverb
	KindConvolution
	KindFlanger
	KindTremolo
	KindCrossfade
	KindSampleEvent
	KindPatternValue
	KindSum
	KindConst
)

// Payload is the per-node stateful DSP implementation. Process receives
// this node's already-resolved input samples (in Node.Inputs order) and
// the current transport clock, and returns this node's output sample.
type Payload interface {
	Process(inputs []float32, t *transport.Transport, sampleRate int) float32
}

// Resettable is implemented by payloads holding state that Panic() should
// clear (delay/comb/reverb/convolution tails).
type Resettable interface {
	Reset()
}

// Node is one arena entry: its upstream Inputs (resolved before Process is
// called) and its Payload.
type Node struct {
	Kind    Kind
	Inputs  []Value
	Payload Payload
}

// ErrCycle is returned by Compile when the graph contains a dependency
// cycle not broken by an explicit feedback tap (every stateful node reads
// its own previous sample rather than depending on its current one, so a
// true cycle here is always a compiler bug, not a valid patch).
var ErrCycle = errors.New("graph: dependency cycle detected")

// Graph is an arena of nodes plus a cached topological evaluation order.
type Graph struct {
	nodes   []Node
	order   []NodeId
	outputs []NodeId
	samples []float32 // scratch: one slot per node, reused every Step
	sampleRate int
}

// New returns an empty graph targeting sampleRate.
func New(sampleRate int) *Graph {
	return &Graph{sampleRate: sampleRate}
}

// Add appends a node and returns its id. Valid only before Compile, or
// followed by another Compile call.
func (g *Graph) Add(n Node) NodeId {
	g.nodes = append(g.nodes, n)
	return NodeId(len(g.nodes) - 1)
}

// SetOutputs marks which node ids are read out by Step, in channel order.
func (g *Graph) SetOutputs(ids ...NodeId) {
	g.outputs = append([]NodeId(nil), ids...)
}

// SampleRate reports the rate this graph was built for.
func (g *Graph) SampleRate() int { return g.sampleRate }

// NodeCount reports how many nodes are in the arena.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// NodeAt returns the node at id (used by hot-swap state transfer).
func (g *Graph) NodeAt(id NodeId) *Node { return &g.nodes[id] }

// Compile computes and caches the topological order via a depth-first
// post-order walk, detecting cycles. Must be called once after all Add
// calls and before the first Step.
func (g *Graph) Compile() error {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make([]byte, len(g.nodes))
	order := make([]NodeId, 0, len(g.nodes))

	var visit func(id NodeId) error
	visit = func(id NodeId) error {
		switch color[id] {
		case black:
			return nil
		case gray:
			return fmt.Errorf("%w: at node %d", ErrCycle, id)
		}
		color[id] = gray
		for _, in := range g.nodes[id].Inputs {
			if in.IsNode {
				if err := visit(in.Node); err != nil {
					return err
				}
			}
		}
		color[id] = black
		order = append(order, id)
		return nil
	}

	for id := range g.nodes {
		if err := visit(NodeId(id)); err != nil {
			return err
		}
	}
	g.order = order
	if len(g.samples) != len(g.nodes) {
		g.samples = make([]float32, len(g.nodes))
	}
	return nil
}

// Step evaluates every node once in topological order and returns the
// values at the configured output nodes.
func (g *Graph) Step(t *transport.Transport) []float32 {
	var scratch [8]float32
	for _, id := range g.order {
		n := &g.nodes[id]
		ins := scratch[:0]
		if len(n.Inputs) > len(scratch) {
			ins = make([]float32, 0, len(n.Inputs))
		}
		for _, v := range n.Inputs {
			if v.IsNode {
				ins = append(ins, g.samples[v.Node])
			} else {
				ins = append(ins, v.Const)
			}
		}
		g.samples[id] = n.Payload.Process(ins, t, g.sampleRate)
	}
	out := make([]float32, len(g.outputs))
	for i, id := range g.outputs {
		out[i] = g.samples[id]
	}
	return out
}

// Reset calls Reset on every stateful node that implements Resettable
// (Panic's granularity, per §4.I: reset every node that has one).
func (g *Graph) Reset() {
	for i := range g.nodes {
		if r, ok := g.nodes[i].Payload.(Resettable); ok {
			r.Reset()
		}
	}
	for i := range g.samples {
		g.samples[i] = 0
	}
}

// TransferState walks old and g's node lists and moves state for nodes at
// matching (Kind, ordinal-within-kind) position, per §5's hot-swap
// contract. Surplus state in old (more nodes of some kind than g has) is
// dropped, matching the documented Open Question decision.
type statefulTransfer interface {
	TransferFrom(prev Payload)
}

func (g *Graph) TransferState(old *Graph) {
	if old == nil {
		return
	}
	oldByKind := make(map[Kind][]Payload)
	for _, n := range old.nodes {
		oldByKind[n.Kind] = append(oldByKind[n.Kind], n.Payload)
	}
	seen := make(map[Kind]int)
	for i := range g.nodes {
		k := g.nodes[i].Kind
		ordinal := seen[k]
		seen[k] = ordinal + 1
		prevList := oldByKind[k]
		if ordinal >= len(prevList) {
			continue
		}
		if st, ok := g.nodes[i].Payload.(statefulTransfer); ok {
			st.TransferFrom(prevList[ordinal])
		}
	}
}
