package compiler

import (
	"fmt"
	"strconv"

	"github.com/cbegin/phonon/internal/dsp"
	"github.com/cbegin/phonon/internal/graph"
	"github.com/cbegin/phonon/internal/mininotation"
	"github.com/cbegin/phonon/internal/pattern"
	"github.com/cbegin/phonon/internal/rational"
)

// signalBuiltins returns the table of audio-rate graph constructors, one
// entry per builtin named in §4.G/§4.I's builtin list.
func signalBuiltins() map[string]BuiltinFunc {
	return map[string]BuiltinFunc{
		"sine":          oscBuiltin(dsp.WaveSine),
		"saw":           oscBuiltin(dsp.WavePolyBlepSaw),
		"square":        oscBuiltin(dsp.WavePolyBlepSquare),
		"tri":           oscBuiltin(dsp.WaveTriangle),
		"noise":         noiseBuiltin,
		"lpf":           filterBuiltin(dsp.FilterLowpass),
		"hpf":           filterBuiltin(dsp.FilterHighpass),
		"bpf":           filterBuiltin(dsp.FilterBandpass),
		"lag":           lagBuiltin,
		"delay":         delayBuiltin,
		"comb":          combBuiltin,
		"reverb":        reverbBuiltin,
		"reverb_stereo": reverbBuiltin, // see DESIGN.md: stereo split left to two explicit reverb calls
		"convolve":      convolveBuiltin,
		"ad":            adBuiltin,
		"adsr":          adsrBuiltin,
		"perc":          percBuiltin,
		"xfade":         xfadeBuiltin,
		"min":           minBuiltin,
		"abs":           absBuiltin,
	}
}

func (cc *compileCtx) arg(args []Expr, i int) (graph.Value, error) {
	if i >= len(args) {
		return graph.Const(0), nil
	}
	return cc.compileValue(args[i])
}

func oscBuiltin(wave dsp.Waveform) BuiltinFunc {
	return func(cc *compileCtx, args []Expr) (graph.Value, error) {
		freq, err := cc.arg(args, 0)
		if err != nil {
			return graph.Value{}, err
		}
		id := cc.g.Add(graph.Node{Kind: graph.KindOscillator, Inputs: []graph.Value{freq}, Payload: &dsp.Oscillator{Wave: wave}})
		return graph.FromNode(id), nil
	}
}

func noiseBuiltin(cc *compileCtx, args []Expr) (graph.Value, error) {
	id := cc.g.Add(graph.Node{Kind: graph.KindNoise, Payload: dsp.NewNoise(uint64(cc.g.NodeCount()))})
	return graph.FromNode(id), nil
}

func filterBuiltin(kind dsp.BiquadKind) BuiltinFunc {
	return func(cc *compileCtx, args []Expr) (graph.Value, error) {
		sig, err := cc.arg(args, 0)
		if err != nil {
			return graph.Value{}, err
		}
		cutoff, err := cc.arg(args, 1)
		if err != nil {
			return graph.Value{}, err
		}
		q, err := cc.arg(args, 2)
		if err != nil {
			return graph.Value{}, err
		}
		id := cc.g.Add(graph.Node{
			Kind:    graph.KindFilter,
			Inputs:  []graph.Value{sig, cutoff, q},
			Payload: &dsp.Filter{Kind: kind},
		})
		return graph.FromNode(id), nil
	}
}

func lagBuiltin(cc *compileCtx, args []Expr) (graph.Value, error) {
	sig, err := cc.arg(args, 0)
	if err != nil {
		return graph.Value{}, err
	}
	tc, err := cc.arg(args, 1)
	if err != nil {
		return graph.Value{}, err
	}
	id := cc.g.Add(graph.Node{Kind: graph.KindLag, Inputs: []graph.Value{sig, tc}, Payload: &dsp.Lag{}})
	return graph.FromNode(id), nil
}

func delayBuiltin(cc *compileCtx, args []Expr) (graph.Value, error) {
	sig, err := cc.arg(args, 0)
	if err != nil {
		return graph.Value{}, err
	}
	maxSeconds, err := cc.literalOr(args, 1, 1.0)
	if err != nil {
		return graph.Value{}, err
	}
	feedback, err := cc.arg(args, 2)
	if err != nil {
		return graph.Value{}, err
	}
	timeVal, err := cc.arg(args, 1)
	if err != nil {
		return graph.Value{}, err
	}
	id := cc.g.Add(graph.Node{
		Kind:    graph.KindDelay,
		Inputs:  []graph.Value{sig, timeVal, feedback},
		Payload: dsp.NewDelay(maxSeconds, cc.c.sampleRate),
	})
	return graph.FromNode(id), nil
}

func combBuiltin(cc *compileCtx, args []Expr) (graph.Value, error) {
	sig, err := cc.arg(args, 0)
	if err != nil {
		return graph.Value{}, err
	}
	delaySeconds, err := cc.literalOr(args, 1, 0.03)
	if err != nil {
		return graph.Value{}, err
	}
	feedback, err := cc.arg(args, 2)
	if err != nil {
		return graph.Value{}, err
	}
	delayLen := int(delaySeconds * float64(cc.c.sampleRate))
	id := cc.g.Add(graph.Node{
		Kind:    graph.KindComb,
		Inputs:  []graph.Value{sig, feedback},
		Payload: dsp.NewComb(delayLen),
	})
	return graph.FromNode(id), nil
}

func reverbBuiltin(cc *compileCtx, args []Expr) (graph.Value, error) {
	sig, err := cc.arg(args, 0)
	if err != nil {
		return graph.Value{}, err
	}
	roomSize, err := cc.literalOr(args, 1, 0.5)
	if err != nil {
		return graph.Value{}, err
	}
	feedback, err := cc.literalOr(args, 2, 0.7)
	if err != nil {
		return graph.Value{}, err
	}
	wet := graph.Const(0.3)
	if len(args) > 3 {
		wet, err = cc.arg(args, 3)
		if err != nil {
			return graph.Value{}, err
		}
	}
	id := cc.g.Add(graph.Node{
		Kind:    graph.KindReverb,
		Inputs:  []graph.Value{sig, wet},
		Payload: dsp.NewReverb(cc.c.sampleRate, float32(roomSize), float32(feedback)),
	})
	return graph.FromNode(id), nil
}

func convolveBuiltin(cc *compileCtx, args []Expr) (graph.Value, error) {
	sig, err := cc.arg(args, 0)
	if err != nil {
		return graph.Value{}, err
	}
	if len(args) < 2 {
		return graph.Value{}, &BadArityError{Fn: "convolve", Want: 2, Got: len(args)}
	}
	name, ok := args[1].(StringExpr)
	if !ok {
		return graph.Value{}, &BadTypeError{Fn: "convolve", Arg: 1, Expected: "sample name", Got: fmt.Sprintf("%T", args[1])}
	}
	pcm, ok := cc.c.bank.Lookup(name.Source, 0)
	if !ok {
		return graph.Value{}, &BadTypeError{Fn: "convolve", Arg: 1, Expected: "loaded impulse sample", Got: name.Source}
	}
	id := cc.g.Add(graph.Node{
		Kind:    graph.KindConvolution,
		Inputs:  []graph.Value{sig},
		Payload: dsp.NewConvolution(pcm.Data, cc.c.sampleRate),
	})
	return graph.FromNode(id), nil
}

func adBuiltin(cc *compileCtx, args []Expr) (graph.Value, error) {
	attack, err := cc.literalOr(args, 0, 0.01)
	if err != nil {
		return graph.Value{}, err
	}
	decay, err := cc.literalOr(args, 1, 0.3)
	if err != nil {
		return graph.Value{}, err
	}
	gate, err := cc.arg(args, 2)
	if err != nil {
		return graph.Value{}, err
	}
	id := cc.g.Add(graph.Node{Kind: graph.KindEnvelope, Inputs: []graph.Value{gate}, Payload: dsp.NewAD(attack, decay)})
	return graph.FromNode(id), nil
}

func adsrBuiltin(cc *compileCtx, args []Expr) (graph.Value, error) {
	attack, err := cc.literalOr(args, 0, 0.01)
	if err != nil {
		return graph.Value{}, err
	}
	decay, err := cc.literalOr(args, 1, 0.1)
	if err != nil {
		return graph.Value{}, err
	}
	sustain, err := cc.literalOr(args, 2, 0.7)
	if err != nil {
		return graph.Value{}, err
	}
	release, err := cc.literalOr(args, 3, 0.2)
	if err != nil {
		return graph.Value{}, err
	}
	gate, err := cc.arg(args, 4)
	if err != nil {
		return graph.Value{}, err
	}
	id := cc.g.Add(graph.Node{Kind: graph.KindEnvelope, Inputs: []graph.Value{gate}, Payload: dsp.NewADSR(attack, decay, sustain, release)})
	return graph.FromNode(id), nil
}

func percBuiltin(cc *compileCtx, args []Expr) (graph.Value, error) {
	decay, err := cc.literalOr(args, 0, 0.2)
	if err != nil {
		return graph.Value{}, err
	}
	gate, err := cc.arg(args, 1)
	if err != nil {
		return graph.Value{}, err
	}
	id := cc.g.Add(graph.Node{Kind: graph.KindEnvelope, Inputs: []graph.Value{gate}, Payload: dsp.NewPerc(decay)})
	return graph.FromNode(id), nil
}

func xfadeBuiltin(cc *compileCtx, args []Expr) (graph.Value, error) {
	a, err := cc.arg(args, 0)
	if err != nil {
		return graph.Value{}, err
	}
	b, err := cc.arg(args, 1)
	if err != nil {
		return graph.Value{}, err
	}
	pos, err := cc.arg(args, 2)
	if err != nil {
		return graph.Value{}, err
	}
	id := cc.g.Add(graph.Node{Kind: graph.KindCrossfade, Inputs: []graph.Value{a, b, pos}, Payload: &dsp.Crossfade{}})
	return graph.FromNode(id), nil
}

func minBuiltin(cc *compileCtx, args []Expr) (graph.Value, error) {
	a, err := cc.arg(args, 0)
	if err != nil {
		return graph.Value{}, err
	}
	b, err := cc.arg(args, 1)
	if err != nil {
		return graph.Value{}, err
	}
	id := cc.g.Add(graph.Node{Kind: graph.KindArith, Inputs: []graph.Value{a, b}, Payload: &dsp.Min{}})
	return graph.FromNode(id), nil
}

func absBuiltin(cc *compileCtx, args []Expr) (graph.Value, error) {
	a, err := cc.arg(args, 0)
	if err != nil {
		return graph.Value{}, err
	}
	id := cc.g.Add(graph.Node{Kind: graph.KindArith, Inputs: []graph.Value{a}, Payload: &dsp.Abs{}})
	return graph.FromNode(id), nil
}

// literalOr reads a construction-time numeric literal at args[i],
// defaulting when absent. Used for parameters (buffer sizes, FFT
// allocation) that must be fixed at node-construction time rather than
// wired as a live audio-rate input.
func (cc *compileCtx) literalOr(args []Expr, i int, def float64) (float64, error) {
	if i >= len(args) {
		return def, nil
	}
	n, ok := args[i].(NumberExpr)
	if !ok {
		return 0, &BadTypeError{Fn: "builtin", Arg: i, Expected: "number literal", Got: fmt.Sprintf("%T", args[i])}
	}
	return n.Value, nil
}

// patternBuiltins are the trigger-rate pattern transforms: each takes the
// builtin's own parameters followed by the target pattern as its final
// argument, Tidal-style ("fast 2 $ s \"bd sn\"").
var patternBuiltins = map[string]func(cc *compileCtx, args []Expr) (pattern.Pattern[string], error){
	"s":        sBuiltin,
	"jux":      juxBuiltin,
	"rev":      unaryPatternBuiltin(pattern.Rev[string]),
	"fast":     rateePatternBuiltin(pattern.Fast[string]),
	"slow":     rateePatternBuiltin(pattern.Slow[string]),
	"every":    everyBuiltin,
	"sometimes": probPatternBuiltin(pattern.Sometimes[string]),
	"often":     probPatternBuiltin(pattern.Often[string]),
	"rarely":    probPatternBuiltin(pattern.Rarely[string]),
	"degrade":  unaryPatternBuiltin(pattern.Degrade[string]),
	"chop":     chopBuiltin,
	"segment":  segmentBuiltin,
	"euclid":   euclidBuiltin,
}

func sBuiltin(cc *compileCtx, args []Expr) (pattern.Pattern[string], error) {
	if len(args) != 1 {
		return pattern.Pattern[string]{}, &BadArityError{Fn: "s", Want: 1, Got: len(args)}
	}
	return cc.compilePattern(args[0])
}

func lastArgPattern(cc *compileCtx, args []Expr, fn string, want int) (pattern.Pattern[string], []Expr, error) {
	if len(args) != want {
		return pattern.Pattern[string]{}, nil, &BadArityError{Fn: fn, Want: want, Got: len(args)}
	}
	p, err := cc.compilePattern(args[want-1])
	return p, args[:want-1], err
}

func unaryPatternBuiltin(f func(pattern.Pattern[string]) pattern.Pattern[string]) func(*compileCtx, []Expr) (pattern.Pattern[string], error) {
	return func(cc *compileCtx, args []Expr) (pattern.Pattern[string], error) {
		p, _, err := lastArgPattern(cc, args, "pattern transform", 1)
		if err != nil {
			return pattern.Pattern[string]{}, err
		}
		return f(p), nil
	}
}

func probPatternBuiltin(f func(func(pattern.Pattern[string]) pattern.Pattern[string], pattern.Pattern[string]) pattern.Pattern[string]) func(*compileCtx, []Expr) (pattern.Pattern[string], error) {
	return func(cc *compileCtx, args []Expr) (pattern.Pattern[string], error) {
		p, rest, err := lastArgPattern(cc, args, "probability transform", 2)
		if err != nil {
			return pattern.Pattern[string]{}, err
		}
		transform, ok := rest[0].(Call)
		if !ok {
			return pattern.Pattern[string]{}, &BadTypeError{Fn: "probability transform", Arg: 0, Expected: "a pattern transform", Got: fmt.Sprintf("%T", rest[0])}
		}
		applyTransform := func(q pattern.Pattern[string]) pattern.Pattern[string] {
			inner, _ := cc.compilePatternCall(Call{Fn: transform.Fn, Args: append(append([]Expr{}, transform.Args...), patternLiteral{q})})
			return inner
		}
		return f(applyTransform, p), nil
	}
}

func rateePatternBuiltin(f func(rational.Time, pattern.Pattern[string]) pattern.Pattern[string]) func(*compileCtx, []Expr) (pattern.Pattern[string], error) {
	return func(cc *compileCtx, args []Expr) (pattern.Pattern[string], error) {
		p, rest, err := lastArgPattern(cc, args, "rate transform", 2)
		if err != nil {
			return pattern.Pattern[string]{}, err
		}
		rate, err := cc.numberLiteral(rest[0])
		if err != nil {
			return pattern.Pattern[string]{}, err
		}
		return f(rational.FromFloat(rate), p), nil
	}
}

func everyBuiltin(cc *compileCtx, args []Expr) (pattern.Pattern[string], error) {
	p, rest, err := lastArgPattern(cc, args, "every", 3)
	if err != nil {
		return pattern.Pattern[string]{}, err
	}
	n, err := cc.numberLiteral(rest[0])
	if err != nil {
		return pattern.Pattern[string]{}, err
	}
	transform, ok := rest[1].(Call)
	if !ok {
		return pattern.Pattern[string]{}, &BadTypeError{Fn: "every", Arg: 1, Expected: "a pattern transform", Got: fmt.Sprintf("%T", rest[1])}
	}
	applyTransform := func(q pattern.Pattern[string]) pattern.Pattern[string] {
		inner, _ := cc.compilePatternCall(Call{Fn: transform.Fn, Args: append(append([]Expr{}, transform.Args...), patternLiteral{q})})
		return inner
	}
	return pattern.Every(int64(n), applyTransform, p), nil
}

func chopBuiltin(cc *compileCtx, args []Expr) (pattern.Pattern[string], error) {
	p, rest, err := lastArgPattern(cc, args, "chop", 2)
	if err != nil {
		return pattern.Pattern[string]{}, err
	}
	n, err := cc.numberLiteral(rest[0])
	if err != nil {
		return pattern.Pattern[string]{}, err
	}
	return pattern.Chop(int(n), p), nil
}

func segmentBuiltin(cc *compileCtx, args []Expr) (pattern.Pattern[string], error) {
	p, rest, err := lastArgPattern(cc, args, "segment", 2)
	if err != nil {
		return pattern.Pattern[string]{}, err
	}
	n, err := cc.numberLiteral(rest[0])
	if err != nil {
		return pattern.Pattern[string]{}, err
	}
	return pattern.Segment(rational.FromFloat(n), p), nil
}

func euclidBuiltin(cc *compileCtx, args []Expr) (pattern.Pattern[string], error) {
	p, rest, err := lastArgPattern(cc, args, "euclid", 4)
	if err != nil {
		return pattern.Pattern[string]{}, err
	}
	k, err := cc.numberLiteral(rest[0])
	if err != nil {
		return pattern.Pattern[string]{}, err
	}
	n, err := cc.numberLiteral(rest[1])
	if err != nil {
		return pattern.Pattern[string]{}, err
	}
	rot, err := cc.numberLiteral(rest[2])
	if err != nil {
		return pattern.Pattern[string]{}, err
	}
	return pattern.EuclidGate(int(k), int(n), int(rot), p), nil
}

func juxBuiltin(cc *compileCtx, args []Expr) (pattern.Pattern[string], error) {
	if len(args) != 2 {
		return pattern.Pattern[string]{}, &BadArityError{Fn: "jux", Want: 2, Got: len(args)}
	}
	transformName, ok := args[0].(Call)
	if !ok {
		return pattern.Pattern[string]{}, &BadTypeError{Fn: "jux", Arg: 0, Expected: "a pattern transform", Got: fmt.Sprintf("%T", args[0])}
	}
	p, err := cc.compilePattern(args[1])
	if err != nil {
		return pattern.Pattern[string]{}, err
	}
	f := func(q pattern.Pattern[string]) pattern.Pattern[string] {
		inner, _ := cc.compilePatternCall(Call{Fn: transformName.Fn, Args: append(append([]Expr{}, transformName.Args...), patternLiteral{q})})
		return inner
	}
	return pattern.Jux(f, p), nil
}

// patternLiteral lets an already-built Pattern[string] re-enter
// compilePattern's dispatch, mirroring exprValue on the signal side.
type patternLiteral struct{ p pattern.Pattern[string] }

func (patternLiteral) isExpr() {}

// patternParamSetters are the context-setting combinators ("n", "gain",
// "pan", ...) applied via "#", each folding a value pattern into the
// base's Context under its own key using struct-left semantics.
var patternParamSetters = map[string]func(cc *compileCtx, base pattern.Pattern[string], args []Expr) (pattern.Pattern[string], error){
	"n":     paramSetter("n"),
	"speed": paramSetter("speed"),
	"gain":  paramSetter("gain"),
	"pan":   paramSetter("pan"),
	"begin": paramSetter("begin"),
	"end":   paramSetter("end"),
	"note":  paramSetter("note"),
}

func paramSetter(key string) func(cc *compileCtx, base pattern.Pattern[string], args []Expr) (pattern.Pattern[string], error) {
	return func(cc *compileCtx, base pattern.Pattern[string], args []Expr) (pattern.Pattern[string], error) {
		if len(args) != 1 {
			return pattern.Pattern[string]{}, &BadArityError{Fn: key, Want: 1, Got: len(args)}
		}
		src, err := paramPatternFromExpr(args[0])
		if err != nil {
			return pattern.Pattern[string]{}, err
		}
		return mergeParam(base, key, src), nil
	}
}

func paramPatternFromExpr(e Expr) (pattern.Pattern[string], error) {
	switch v := e.(type) {
	case NumberExpr:
		return pattern.Pure(strconv.FormatFloat(v.Value, 'g', -1, 64)), nil
	case StringExpr:
		return mininotation.Parse(v.Source)
	}
	return pattern.Pattern[string]{}, &BadTypeError{Fn: "param", Arg: 0, Expected: "number or mini-notation string", Got: fmt.Sprintf("%T", e)}
}
