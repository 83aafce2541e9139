package graph

import (
	"errors"
	"testing"

	"github.com/cbegin/phonon/internal/transport"
)

// testCounter is a minimal stateful payload: it counts how many times it
// has been stepped, used to exercise Reset and TransferState without
// pulling in any real dsp node.
type testCounter struct{ n int }

func (c *testCounter) Process(inputs []float32, t *transport.Transport, sampleRate int) float32 {
	c.n++
	return float32(c.n)
}
func (c *testCounter) Reset() { c.n = 0 }
func (c *testCounter) TransferFrom(prev Payload) {
	if p, ok := prev.(*testCounter); ok {
		c.n = p.n
	}
}

type constTestPayload struct{ v float32 }

func (c constTestPayload) Process(inputs []float32, t *transport.Transport, sampleRate int) float32 {
	return c.v
}

func TestAddAndStepEvaluatesInOrder(t *testing.T) {
	g := New(44100)
	a := g.Add(Node{Kind: KindConst, Payload: constTestPayload{v: 2}})
	b := g.Add(Node{Kind: KindConst, Payload: constTestPayload{v: 3}})
	sum := g.Add(Node{Kind: KindArith, Inputs: []Value{FromNode(a), FromNode(b)}, Payload: addPayload{}})
	g.SetOutputs(sum)
	if err := g.Compile(); err != nil {
		t.Fatalf("Compile: %v", err)
	}
	out := g.Step(transport.New(1))
	if len(out) != 1 || out[0] != 5 {
		t.Fatalf("expected [5], got %v", out)
	}
}

type addPayload struct{}

func (addPayload) Process(inputs []float32, t *transport.Transport, sampleRate int) float32 {
	var sum float32
	for _, v := range inputs {
		sum += v
	}
	return sum
}

func TestConstValueInputNeedsNoNode(t *testing.T) {
	g := New(44100)
	id := g.Add(Node{Kind: KindArith, Inputs: []Value{Const(4), Const(5)}, Payload: addPayload{}})
	g.SetOutputs(id)
	if err := g.Compile(); err != nil {
		t.Fatalf("Compile: %v", err)
	}
	out := g.Step(transport.New(1))
	if out[0] != 9 {
		t.Fatalf("expected 9, got %v", out[0])
	}
}

func TestCompileDetectsCycle(t *testing.T) {
	g := New(44100)
	a := g.Add(Node{Kind: KindConst, Payload: constTestPayload{}})
	b := g.Add(Node{Kind: KindConst, Payload: constTestPayload{}})
	g.nodes[a].Inputs = []Value{FromNode(b)}
	g.nodes[b].Inputs = []Value{FromNode(a)}
	g.SetOutputs(a)
	err := g.Compile()
	if !errors.Is(err, ErrCycle) {
		t.Fatalf("expected ErrCycle, got %v", err)
	}
}

func TestResetClearsResettablePayloadsAndScratch(t *testing.T) {
	g := New(44100)
	id := g.Add(Node{Kind: KindDelay, Payload: &testCounter{}})
	g.SetOutputs(id)
	if err := g.Compile(); err != nil {
		t.Fatalf("Compile: %v", err)
	}
	g.Step(transport.New(1))
	g.Step(transport.New(1))
	if g.nodes[id].Payload.(*testCounter).n != 2 {
		t.Fatalf("expected counter at 2 before Reset")
	}
	g.Reset()
	if g.nodes[id].Payload.(*testCounter).n != 0 {
		t.Fatalf("expected Reset to zero the counter")
	}
	for _, s := range g.samples {
		if s != 0 {
			t.Fatalf("expected scratch samples cleared, got %v", g.samples)
		}
	}
}

func TestTransferStateMatchesByKindAndOrdinal(t *testing.T) {
	old := New(44100)
	oldID := old.Add(Node{Kind: KindDelay, Payload: &testCounter{n: 7}})
	old.SetOutputs(oldID)
	if err := old.Compile(); err != nil {
		t.Fatalf("Compile: %v", err)
	}

	fresh := New(44100)
	freshID := fresh.Add(Node{Kind: KindDelay, Payload: &testCounter{}})
	fresh.SetOutputs(freshID)
	if err := fresh.Compile(); err != nil {
		t.Fatalf("Compile: %v", err)
	}

	fresh.TransferState(old)
	if got := fresh.nodes[freshID].Payload.(*testCounter).n; got != 7 {
		t.Fatalf("expected transferred counter 7, got %d", got)
	}
}

func TestTransferStateDropsSurplusWhenNewGraphHasFewerOfAKind(t *testing.T) {
	old := New(44100)
	a := old.Add(Node{Kind: KindDelay, Payload: &testCounter{n: 1}})
	b := old.Add(Node{Kind: KindDelay, Payload: &testCounter{n: 2}})
	old.SetOutputs(a, b)
	if err := old.Compile(); err != nil {
		t.Fatalf("Compile: %v", err)
	}

	fresh := New(44100)
	onlyID := fresh.Add(Node{Kind: KindDelay, Payload: &testCounter{}})
	fresh.SetOutputs(onlyID)
	if err := fresh.Compile(); err != nil {
		t.Fatalf("Compile: %v", err)
	}

	fresh.TransferState(old) // must not panic despite old having 2 of this Kind
	if got := fresh.nodes[onlyID].Payload.(*testCounter).n; got != 1 {
		t.Fatalf("expected ordinal-0 transfer (1), got %d", got)
	}
}
