// Package phonon is the root of the engine: a hot-swappable signal graph
// driven by a pattern algebra, fed program text through internal/sourcelang
// and internal/compiler.
package phonon

import (
	"sync"
	"sync/atomic"

	"github.com/cbegin/phonon/internal/compiler"
	"github.com/cbegin/phonon/internal/graph"
	"github.com/cbegin/phonon/internal/transport"
	"github.com/cbegin/phonon/internal/voice"
)

// EventKind tags what happened, delivered through Watch().
type EventKind int

const (
	EventCompiled EventKind = iota
	EventCompileError
	EventHush
	EventPanic
)

// Event reports a control-channel transition. Err is set only for
// EventCompileError.
type Event struct {
	Kind EventKind
	Err  error
}

// compiledGraph bundles one compile generation's graph, transport and
// voice pool. Engine swaps this whole tuple atomically so Hush/Panic
// always see a consistent trio, never a graph paired with a stale pool.
type compiledGraph struct {
	g      *graph.Graph
	tr     *transport.Transport
	voices *voice.Pool
}

// Engine holds the single active compiledGraph behind an atomic pointer,
// per §5's hot-swap contract: the audio thread always reads a complete,
// internally-consistent generation, never a half-swapped one, and never
// blocks behind a compile in progress.
type Engine struct {
	current    atomic.Pointer[compiledGraph]
	compiler   *compiler.Compiler
	sampleRate int

	mu      sync.Mutex // serializes concurrent Compile calls; never held by the audio thread
	done    chan struct{}
	eventCh chan Event

	eventChMu sync.Mutex
}

// New returns an Engine seeded with silence, ready for its first Compile.
func New(c *compiler.Compiler, sampleRate int) *Engine {
	e := &Engine{compiler: c, sampleRate: sampleRate, done: make(chan struct{})}
	e.current.Store(silentGraph(sampleRate))
	return e
}

func silentGraph(sampleRate int) *compiledGraph {
	g := graph.New(sampleRate)
	g.SetOutputs()
	_ = g.Compile()
	return &compiledGraph{g: g, tr: transport.New(1), voices: voice.NewPool(1, sampleRate)}
}

// Compile builds a new graph off the statement list and, on success, swaps
// it in: stateful nodes (delay/comb/reverb/convolution tails, sample-event
// cursors, held pattern values) are transferred from the outgoing graph by
// matching (Kind, ordinal-within-kind), and the transport's cycle position
// carries over so a live-coding edit keeps playing from where the music
// already was. On error, the previous graph keeps running untouched (§7's
// recovery policy) and Compile returns the error without swapping anything.
func (e *Engine) Compile(stmts []compiler.Statement) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	compiled, err := e.compiler.Compile(stmts)
	if err != nil {
		e.sendEvent(Event{Kind: EventCompileError, Err: err})
		return err
	}

	prev := e.current.Load()
	compiled.Graph.TransferState(prev.g)
	compiled.Transport.CarryFrom(prev.tr)
	e.current.Store(&compiledGraph{g: compiled.Graph, tr: compiled.Transport, voices: compiled.Voices})
	e.sendEvent(Event{Kind: EventCompiled})
	return nil
}

// stepStereo evaluates one sample of the active generation: the graph's
// own output channels (routed "out:"/"o2:"/... signal buses), plus the
// voice pool's sample-playback mix, which is always audible regardless of
// graph routing since a SampleEventNode's own per-sample output is always
// 0 (§4.H).
func (e *Engine) stepStereo() (float32, float32) {
	cg := e.current.Load()
	out := cg.g.Step(cg.tr)
	cg.tr.Advance(e.sampleRate)

	var l, r float32
	switch len(out) {
	case 0:
	case 1:
		l, r = out[0], out[0]
	default:
		l, r = out[0], out[1]
	}
	vl, vr := cg.voices.ProcessStereo()
	return l + vl, r + vr
}

// ProcessBuffer fills buf with interleaved stereo samples, matching the
// audioio.SampleSource signature so an Engine can be played directly.
func (e *Engine) ProcessBuffer(buf []float32) {
	for i := 0; i+1 < len(buf); i += 2 {
		buf[i], buf[i+1] = e.stepStereo()
	}
}

// RenderStereo renders n samples into two separate channel buffers, the
// shape offline rendering and the test scenarios in §8 want.
func (e *Engine) RenderStereo(n int) ([]float32, []float32) {
	l := make([]float32, n)
	r := make([]float32, n)
	for i := 0; i < n; i++ {
		l[i], r[i] = e.stepStereo()
	}
	return l, r
}

// Hush silences the voice pool immediately (next buffer): every live
// sample-playback voice is cut. It does not silence the graph: its output
// channels (oscillators, signal buses) keep sounding and DSP node tails
// (delay/reverb/...) are left alone — a softer stop than Panic.
func (e *Engine) Hush() {
	cg := e.current.Load()
	cg.voices.Reset()
	e.sendEvent(Event{Kind: EventHush})
}

// Panic is Hush plus Reset() on every stateful graph node (delay, comb,
// reverb, convolution) and the transport's cycle position, dropping every
// audio tail and rewinding to cycle zero — the hard stop.
func (e *Engine) Panic() {
	cg := e.current.Load()
	cg.voices.Reset()
	cg.g.Reset()
	cg.tr.Reset()
	e.sendEvent(Event{Kind: EventPanic})
}

func (e *Engine) sendEvent(ev Event) {
	e.eventChMu.Lock()
	ch := e.eventCh
	e.eventChMu.Unlock()
	if ch != nil {
		select {
		case ch <- ev:
		default:
			// Channel full; drop rather than block the control thread.
		}
	}
}

// Watch returns a channel receiving Compile/Hush/Panic events. Buffered
// (cap 8); receive in a goroutine so a slow consumer never blocks control
// calls. Only the most recently Watch()-ed channel receives events.
func (e *Engine) Watch() <-chan Event {
	ch := make(chan Event, 8)
	e.eventChMu.Lock()
	e.eventCh = ch
	e.eventChMu.Unlock()
	return ch
}

// Wait blocks until done is closed. Nothing in Engine closes done today —
// there is no "playback ended" state, since §6 requires the engine run
// until Hush/Panic, never to completion on its own — but it is kept so a
// host embedding Engine the way the teacher's Player is embedded has a
// symmetrical shutdown hook to close against.
func (e *Engine) Wait() {
	<-e.done
}

// Close signals Wait and releases the engine. Safe to call once.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	select {
	case <-e.done:
	default:
		close(e.done)
	}
}

// SampleRate returns the rate the engine renders at.
func (e *Engine) SampleRate() int { return e.sampleRate }
