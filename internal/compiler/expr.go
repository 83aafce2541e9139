package compiler

import (
	"github.com/cbegin/phonon/internal/bridge"
	"github.com/cbegin/phonon/internal/dsp"
	"github.com/cbegin/phonon/internal/graph"
	"github.com/cbegin/phonon/internal/mininotation"
	"github.com/cbegin/phonon/internal/pattern"
	"github.com/cbegin/phonon/internal/transport"
)

// constPayload is a stateless node that always returns a fixed value,
// used to give a bare numeric literal bound to "~name" its own NodeId so
// every bus resolves to a graph.NodeId uniformly.
type constPayload struct{ v float32 }

func (c constPayload) Process(inputs []float32, t *transport.Transport, sampleRate int) float32 {
	return c.v
}

func constNode(v float32) graph.Payload { return constPayload{v: v} }

// compileValue compiles e as an audio-rate signal, producing a graph
// Value (either a literal constant or a node reference). Trigger-rate
// expressions (a bare pattern Call like "s") are compiled through their
// own node, whose own output is always 0 per §4.H; that is what a bare
// "out:" statement over a sample pattern ends up routing, matching a
// typical Tidal program's default-output idiom.
func (cc *compileCtx) compileValue(e Expr) (graph.Value, error) {
	switch v := e.(type) {
	case exprValue:
		return v.v, nil
	case NumberExpr:
		return graph.Const(float32(v.Value)), nil
	case StringExpr:
		pat, err := parseNumericPattern(v.Source)
		if err != nil {
			return graph.Value{}, err
		}
		id := cc.g.Add(graph.Node{Kind: graph.KindPatternValue, Payload: &bridge.PatternValueNode{Pat: pat}})
		return graph.FromNode(id), nil
	case BusRef:
		if val, ok := cc.resolveBus(v.Name); ok {
			return val, nil
		}
		if pat, ok := cc.resolveBusPattern(v.Name); ok {
			id := cc.addSampleEventNode(pat, nil)
			return graph.FromNode(id), nil
		}
		return graph.Value{}, &UnknownIdentifierError{Name: v.Name}
	case BinOp:
		return cc.compileBinOp(v)
	case Call:
		return cc.compileCall(v)
	case Chain:
		return cc.compileChain(v)
	case Apply:
		// "$" is pure syntax sugar for nesting: f $ x === f(x). Rewrite
		// Transform as a Call whose final argument is Pattern and
		// recompile, so "jux rev $ s \"bd*2\"" and "jux rev (s \"bd*2\")"
		// compile identically.
		call, ok := v.Transform.(Call)
		if !ok {
			return graph.Value{}, &ParseError{Msg: "left of $ must be a function call"}
		}
		call.Args = append(append([]Expr{}, call.Args...), v.Pattern)
		return cc.compileCall(call)
	}
	return graph.Value{}, &ParseError{Msg: "unrecognized expression"}
}

func (cc *compileCtx) compileBinOp(b BinOp) (graph.Value, error) {
	l, err := cc.compileValue(b.L)
	if err != nil {
		return graph.Value{}, err
	}
	r, err := cc.compileValue(b.R)
	if err != nil {
		return graph.Value{}, err
	}
	var op dsp.ArithOp
	switch b.Op {
	case '+':
		op = dsp.OpAdd
	case '-':
		op = dsp.OpSub
	case '*':
		op = dsp.OpMul
	case '/':
		op = dsp.OpDiv
	default:
		return graph.Value{}, &ParseError{Msg: "unknown operator"}
	}
	id := cc.g.Add(graph.Node{Kind: graph.KindArith, Inputs: []graph.Value{l, r}, Payload: &dsp.Arith{Op: op}})
	return graph.FromNode(id), nil
}

// compileChain handles "left # right": left is the base (usually a
// trigger pattern built via "s", or a recorded effect-template bus
// reference), right either sets a pattern param (n/gain/pan/...) or
// applies a signal effect. Effect-template holes ("~name # chain" defined
// earlier, re-applied here as "expr # ~name") are expanded inline.
func (cc *compileCtx) compileChain(ch Chain) (graph.Value, error) {
	if ref, ok := ch.Right.(BusRef); ok {
		if tmpl, ok := cc.effectTemplates[ref.Name]; ok {
			return cc.compileChain(Chain{Left: ch.Left, Right: tmpl})
		}
	}
	if call, ok := ch.Right.(Call); ok {
		if fn, ok := patternParamSetters[call.Fn]; ok {
			basePat, err := cc.compilePattern(ch.Left)
			if err != nil {
				return graph.Value{}, err
			}
			merged, err := fn(cc, basePat, call.Args)
			if err != nil {
				return graph.Value{}, err
			}
			return cc.patternAsValue(merged), nil
		}
	}
	// Otherwise right is a signal-rate effect applied to left's output:
	// left becomes the effect's first input, right's own args follow.
	leftVal, err := cc.compileValue(ch.Left)
	if err != nil {
		return graph.Value{}, err
	}
	call, ok := ch.Right.(Call)
	if !ok {
		return graph.Value{}, &ParseError{Msg: "right of # must be a call or param setter"}
	}
	return cc.compileEffectCall(call, leftVal)
}

func (cc *compileCtx) compileEffectCall(call Call, first graph.Value) (graph.Value, error) {
	fn, ok := cc.c.funcs[call.Fn]
	if !ok {
		return graph.Value{}, &UnknownFunctionError{Name: call.Fn}
	}
	args := append([]Expr{exprValue{first}}, call.Args...)
	return fn(cc, args)
}

// exprValue lets an already-compiled graph.Value re-enter compileValue's
// dispatch (used when a chain's left side was compiled once and is then
// spliced in as a builtin's first argument).
type exprValue struct{ v graph.Value }

func (exprValue) isExpr() {}

func (cc *compileCtx) compileCall(call Call) (graph.Value, error) {
	if fn, ok := cc.c.funcs[call.Fn]; ok {
		return fn(cc, call.Args)
	}
	if _, ok := patternBuiltins[call.Fn]; ok {
		pat, err := cc.compilePatternCall(call)
		if err != nil {
			return graph.Value{}, err
		}
		return cc.patternAsValue(pat), nil
	}
	return graph.Value{}, &UnknownFunctionError{Name: call.Fn}
}

// patternAsValue wraps a fully-merged trigger pattern in a
// SampleEventNode, the point where the pattern layer re-enters the
// signal graph as a (silent) node.
func (cc *compileCtx) patternAsValue(pat pattern.Pattern[string]) graph.Value {
	return graph.FromNode(cc.addSampleEventNode(pat, nil))
}

func (cc *compileCtx) addSampleEventNode(pat pattern.Pattern[string], inputs []graph.Value) graph.NodeId {
	return cc.g.Add(graph.Node{
		Kind:   graph.KindSampleEvent,
		Inputs: inputs,
		Payload: &bridge.SampleEventNode{
			Pat:      pat,
			Bank:     cc.c.bank,
			Voices:   cc.voices,
			Recorder: cc.c.recorder,
		},
	})
}

// compilePattern compiles e as a trigger-rate Pattern[string] tree:
// mini-notation strings, bus references to a previously bound pattern,
// and the structural/probabilistic pattern builtins (jux, rev, fast,
// slow, every, sometimes, often, rarely, degrade, chop, segment, euclid).
func (cc *compileCtx) compilePattern(e Expr) (pattern.Pattern[string], error) {
	switch v := e.(type) {
	case patternLiteral:
		return v.p, nil
	case StringExpr:
		return mininotation.Parse(v.Source)
	case BusRef:
		if p, ok := cc.resolveBusPattern(v.Name); ok {
			return p, nil
		}
		return pattern.Pattern[string]{}, &UnknownIdentifierError{Name: v.Name}
	case Call:
		return cc.compilePatternCall(v)
	case Apply:
		call, ok := v.Transform.(Call)
		if !ok {
			return pattern.Pattern[string]{}, &ParseError{Msg: "left of $ must be a function call"}
		}
		call.Args = append(append([]Expr{}, call.Args...), v.Pattern)
		return cc.compilePatternCall(call)
	}
	return pattern.Pattern[string]{}, &ParseError{Msg: "expected a pattern expression"}
}

func (cc *compileCtx) compilePatternCall(call Call) (pattern.Pattern[string], error) {
	fn, ok := patternBuiltins[call.Fn]
	if !ok {
		return pattern.Pattern[string]{}, &UnknownFunctionError{Name: call.Fn}
	}
	return fn(cc, call.Args)
}
