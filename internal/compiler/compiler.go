// Package compiler turns a statement list into a compiled signal graph.
// It has no knowledge of surface syntax: internal/sourcelang (or any other
// front end) is responsible for turning program text into []Statement.
package compiler

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cbegin/phonon/internal/bank"
	"github.com/cbegin/phonon/internal/bridge"
	"github.com/cbegin/phonon/internal/dsp"
	"github.com/cbegin/phonon/internal/graph"
	"github.com/cbegin/phonon/internal/mininotation"
	"github.com/cbegin/phonon/internal/pattern"
	"github.com/cbegin/phonon/internal/rational"
	"github.com/cbegin/phonon/internal/transport"
	"github.com/cbegin/phonon/internal/voice"
)

// Option configures a Compiler.
type Option func(*Compiler)

// WithSampleRate sets the sample rate new graphs are built for. Defaults
// to 44100.
func WithSampleRate(sr int) Option {
	return func(c *Compiler) { c.sampleRate = sr }
}

// WithVoicePolyphony sets the shared voice.Pool's fixed size. Defaults to 32.
func WithVoicePolyphony(n int) Option {
	return func(c *Compiler) { c.polyphony = n }
}

// WithMissingSampleRecorder installs a sink for non-fatal SampleMissing
// warnings (§7): a bank lookup for a name:index that was never loaded
// degrades to silence for that event, and is additionally reported here.
func WithMissingSampleRecorder(r bridge.MissingSampleRecorder) Option {
	return func(c *Compiler) { c.recorder = r }
}

// Compiler turns a parsed statement list into a *graph.Graph and
// *transport.Transport, binding named buses as it walks the statements in
// order (single pass, per §4.I).
type Compiler struct {
	funcs    map[string]BuiltinFunc
	bank     *bank.Bank
	recorder bridge.MissingSampleRecorder

	sampleRate int
	polyphony  int
}

// BuiltinFunc compiles a Call's arguments into a graph.Value, given the
// in-progress compile context.
type BuiltinFunc func(cc *compileCtx, args []Expr) (graph.Value, error)

// New returns a Compiler reading samples from bank, with any Options applied.
func New(b *bank.Bank, opts ...Option) *Compiler {
	c := &Compiler{bank: b, sampleRate: 44100, polyphony: 32}
	for _, o := range opts {
		o(c)
	}
	c.funcs = signalBuiltins()
	return c
}

// compileCtx is per-Compile working state: the graph under construction,
// the bus environments, and everything a builtin needs to add nodes.
type compileCtx struct {
	c               *Compiler
	g               *graph.Graph
	tr              *transport.Transport
	voices          *voice.Pool
	busNodes        map[string]graph.NodeId
	busPatterns     map[string]pattern.Pattern[string]
	effectTemplates map[string]Expr
	outputs         []graph.NodeId
	pendingBuses    []string // d1,d2,... bound; summed into the default output when no out: is given
}

// Compiled bundles the outputs of a single Compile call: the signal graph,
// its transport, and the voice pool every SampleEventNode in the graph
// shares. Engine keeps all three together behind its atomic pointer so
// Hush/Panic can reach the pool without walking the graph for it.
type Compiled struct {
	Graph     *graph.Graph
	Transport *transport.Transport
	Voices    *voice.Pool
}

// Compile walks stmts once, in order, and returns the resulting Compiled.
// On error, the caller must not install the returned graph — Engine.Compile's
// recovery policy (§7) is to leave the previous graph running untouched.
func (c *Compiler) Compile(stmts []Statement) (*Compiled, error) {
	g := graph.New(c.sampleRate)
	tr := transport.New(1)
	voices := voice.NewPool(c.polyphony, c.sampleRate)
	cc := &compileCtx{
		c:               c,
		g:               g,
		tr:              tr,
		voices:          voices,
		busNodes:        make(map[string]graph.NodeId),
		busPatterns:     make(map[string]pattern.Pattern[string]),
		effectTemplates: make(map[string]Expr),
	}

	for _, st := range stmts {
		switch st.Kind {
		case StmtTempo, StmtBPM:
			v, err := cc.numberLiteral(st.Expr)
			if err != nil {
				return nil, err
			}
			tr.SetBPM(v)
		case StmtCPS:
			v, err := cc.numberLiteral(st.Expr)
			if err != nil {
				return nil, err
			}
			tr.SetCPS(v)
		case StmtEffectTemplate:
			cc.effectTemplates[st.Name] = st.Expr
		case StmtBus:
			if err := cc.bindBus(st.Name, st.Expr); err != nil {
				return nil, err
			}
		case StmtOutput:
			id, err := cc.compileValueOrPattern(st.Expr)
			if err != nil {
				return nil, err
			}
			cc.outputs = append(cc.outputs, id)
		}
	}

	// Auto-route the d<N>/out<N> buses (§4.I auto-routing rule): when no
	// out: statement was given, they are summed into one default output.
	if len(cc.outputs) == 0 {
		var inputs []graph.Value
		for _, name := range cc.pendingBuses {
			if id, ok := cc.busNodes[name]; ok {
				inputs = append(inputs, graph.FromNode(id))
			}
		}
		if len(inputs) > 0 {
			cc.outputs = append(cc.outputs, g.Add(graph.Node{Kind: graph.KindSum, Inputs: inputs, Payload: &dsp.Sum{}}))
		}
	}

	if len(cc.outputs) == 0 {
		g.SetOutputs()
	} else {
		g.SetOutputs(cc.outputs...)
	}
	if err := g.Compile(); err != nil {
		return nil, err
	}
	return &Compiled{Graph: g, Transport: tr, Voices: voices}, nil
}

// bindBus compiles e and binds it to name. A bus whose expression is a
// trigger pattern is kept in both environments — busPatterns so a later
// statement can keep composing it with pattern transforms (jux, fast,
// ...), and busNodes so it can also be used directly as an output.
func (cc *compileCtx) bindBus(name string, e Expr) error {
	if chain, ok := e.(Chain); ok {
		if ref, isHole := chain.Left.(BusRef); isHole && ref.Name == name {
			cc.effectTemplates[name] = chain.Right
			return nil
		}
	}
	if pat, err := cc.compilePattern(e); err == nil {
		cc.busPatterns[name] = pat
		cc.busNodes[name] = cc.addSampleEventNode(pat, nil)
		if isAutoRouteName(name) {
			cc.pendingBuses = append(cc.pendingBuses, name)
		}
		return nil
	}

	id, err := cc.compileValueOrPattern(e)
	if err != nil {
		return err
	}
	cc.busNodes[name] = id
	if isAutoRouteName(name) {
		cc.pendingBuses = append(cc.pendingBuses, name)
	}
	return nil
}

func isAutoRouteName(name string) bool {
	rest := ""
	switch {
	case strings.HasPrefix(name, "d"):
		rest = name[1:]
	case strings.HasPrefix(name, "out"):
		rest = name[3:]
	default:
		return false
	}
	if rest == "" {
		return false
	}
	for _, r := range rest {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// compileValueOrPattern compiles e to a graph node id, routing a bare
// trigger pattern through a SampleEventNode automatically so "~d1: s
// \"bd sn\"" and a raw "out:" target both work the same way.
func (cc *compileCtx) compileValueOrPattern(e Expr) (graph.NodeId, error) {
	v, err := cc.compileValue(e)
	if err != nil {
		return 0, err
	}
	if v.IsNode {
		return v.Node, nil
	}
	return cc.g.Add(graph.Node{Kind: graph.KindConst, Payload: constNode(v.Const)}), nil
}

func (cc *compileCtx) numberLiteral(e Expr) (float64, error) {
	n, ok := e.(NumberExpr)
	if !ok {
		return 0, fmt.Errorf("compiler: expected a number literal, got %T", e)
	}
	return n.Value, nil
}

func (cc *compileCtx) resolveBus(name string) (graph.Value, bool) {
	if id, ok := cc.busNodes[name]; ok {
		return graph.FromNode(id), true
	}
	return graph.Value{}, false
}

func (cc *compileCtx) resolveBusPattern(name string) (pattern.Pattern[string], bool) {
	p, ok := cc.busPatterns[name]
	return p, ok
}

// parseNumericPattern turns a mini-notation source string into a
// Pattern[float64], used for audio-rate arguments given as a string.
func parseNumericPattern(src string) (pattern.Pattern[float64], error) {
	tok, err := mininotation.Parse(src)
	if err != nil {
		return pattern.Pattern[float64]{}, err
	}
	return pattern.Map(tok, parseFloatOrZero), nil
}

func parseFloatOrZero(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}

// mergeParam folds a param pattern's onset-aligned value into base's
// Context under key, keeping base's own structure (Tidal's "#" struct-left
// semantics): for each of base's haps, the covering value of src over the
// hap's own Whole span is read and stashed.
func mergeParam(base pattern.Pattern[string], key string, src pattern.Pattern[string]) pattern.Pattern[string] {
	return pattern.New(func(span rational.Span) []pattern.Hap[string] {
		haps := base.Query(span)
		out := make([]pattern.Hap[string], 0, len(haps))
		for _, h := range haps {
			queryAt := h.Part
			if h.Whole != nil {
				queryAt = *h.Whole
			}
			val := ""
			if vs := src.Query(queryAt); len(vs) > 0 {
				val = vs[0].Value
			}
			out = append(out, h.WithContext(key, val))
		}
		return out
	})
}
