// Package bridge implements the pattern↔signal bridge: the two graph node
// kinds that let a query-function Pattern drive the sample-rate signal
// graph, sampling pattern time against the transport's cycle position.
package bridge

import (
	"strconv"

	"github.com/cbegin/phonon/internal/bank"
	"github.com/cbegin/phonon/internal/graph"
	"github.com/cbegin/phonon/internal/pattern"
	"github.com/cbegin/phonon/internal/rational"
	"github.com/cbegin/phonon/internal/transport"
	"github.com/cbegin/phonon/internal/voice"
)

// MissingSampleRecorder receives a non-fatal bank.SampleMissingError each
// time a SampleEventNode's hap resolves to a name:index the bank never
// loaded. nil is a valid recorder (errors are simply dropped).
type MissingSampleRecorder interface {
	RecordMissingSample(err *bank.SampleMissingError)
}

// SampleEventNode triggers voice.Pool playback from a string-valued
// pattern of sample tokens. Per-event gain/pan/speed/begin/end/n/note are read
// from each hap's Context (the common case: a "# gain 0.8"-style chained
// pattern parameter, already resolved to a concrete string per hap by the
// pattern algebra). Its optional audio-rate Inputs (in order: gain, pan,
// speed, begin, end, note) let an upstream signal additionally modulate those
// same parameters (e.g. an LFO feeding gain); Inputs are resolved by the
// graph evaluator like any other node's and are frozen into the triggered
// voice at the instant of triggering — the "trigger parameters sampled
// once, never again for that voice" half of the three-way binding
// contract (§4.H). Its own per-sample output is always 0; the audible
// signal is the shared voice pool, which Engine mixes into its output
// outside the graph.
type SampleEventNode struct {
	Pat      pattern.Pattern[string]
	Bank     *bank.Bank
	Voices   *voice.Pool
	Recorder MissingSampleRecorder

	lastQuery rational.Time
	started   bool
}

func (n *SampleEventNode) Process(inputs []float32, t *transport.Transport, sampleRate int) float32 {
	now := t.CyclePosition()
	if !n.started {
		n.lastQuery = now
		n.started = true
		return 0
	}
	if !n.lastQuery.Less(now) {
		return 0
	}
	span, err := rational.NewSpan(n.lastQuery, now)
	n.lastQuery = now
	if err != nil {
		return 0
	}

	gainMod, panMod, speedMod := paramOr(inputs, 0, 1), paramOr(inputs, 1, 0), paramOr(inputs, 2, 1)
	beginMod, endMod := paramOr(inputs, 3, 0), paramOr(inputs, 4, 1)
	noteMod := paramOr(inputs, 5, 0)

	for _, h := range n.Pat.Query(span) {
		if !h.HasOnset() {
			continue
		}
		name, index := tokenAndIndex(h.Value, h.Context)
		pcm, ok := n.Bank.Lookup(name, index)
		if !ok {
			if n.Recorder != nil {
				n.Recorder.RecordMissingSample(&bank.SampleMissingError{Name: name, Index: index})
			}
			continue
		}
		gain := ctxFloat(h.Context, "gain", 1) * float64(gainMod)
		pan := ctxFloat(h.Context, "pan", 0) + float64(panMod) // additive modulation around 0
		speed := ctxFloat(h.Context, "speed", 1) * float64(speedMod)
		begin := ctxFloat(h.Context, "begin", 0) + float64(beginMod)
		end := ctxFloat(h.Context, "end", 1) * float64(endMod)
		note := ctxFloat(h.Context, "note", 0) + float64(noteMod)
		n.Voices.Trigger(pcm, gain, pan, speed, begin, end, note)
	}
	return 0
}

func paramOr(inputs []float32, i int, def float32) float32 {
	if i < len(inputs) {
		return inputs[i]
	}
	return def
}

// ctxFloat reads a float-valued context parameter (gain, pan, speed, ...),
// falling back to def when the key is absent or unparseable.
func ctxFloat(ctx map[string]string, key string, def float64) float64 {
	s, ok := ctx[key]
	if !ok {
		return def
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return def
	}
	return v
}

// tokenAndIndex resolves a sample's bank index, preferring the "n" context
// key set by the n combinator over the mini-notation token's own "x:n"
// bankIndex context (set by the mininotation parser), falling back to
// index 0 when neither is present.
func tokenAndIndex(value string, ctx map[string]string) (string, int) {
	if s, ok := ctx["n"]; ok {
		if v, err := strconv.Atoi(s); err == nil {
			return value, v
		}
	}
	if s, ok := ctx["bankIndex"]; ok {
		if v, err := strconv.Atoi(s); err == nil {
			return value, v
		}
	}
	return value, 0
}

// Reset is a no-op: a SampleEventNode holds no audio-tail state of its
// own, only the lastQuery cursor, which resuming playback should keep.
func (n *SampleEventNode) Reset() {}

func (n *SampleEventNode) TransferFrom(prev graph.Payload) {
	if p, ok := prev.(*SampleEventNode); ok {
		n.lastQuery, n.started = p.lastQuery, p.started
	}
}

// PatternValueNode samples a float64-valued pattern with sample-and-hold:
// it re-queries only when the transport's cycle position crosses the
// cached hap's Whole.End, otherwise it emits the same held value every
// sample (§4.H/§8 S4). Smoothing is never automatic; an explicit dsp.Lag
// node downstream is the only way to remove the step discontinuity.
type PatternValueNode struct {
	Pat pattern.Pattern[float64]

	held       float64
	validUntil rational.Time
	haveHap    bool
}

func (n *PatternValueNode) Process(inputs []float32, t *transport.Transport, sampleRate int) float32 {
	now := t.CyclePosition()
	if !n.haveHap || !now.Less(n.validUntil) {
		span, err := rational.NewSpan(now, now.Add(rational.Time{Num: 1, Den: 1_000_000}))
		if err != nil {
			return float32(n.held)
		}
		haps := n.Pat.Query(span)
		if len(haps) > 0 {
			h := haps[0]
			n.held = h.Value
			if h.Whole != nil {
				n.validUntil = h.Whole.End
			} else {
				n.validUntil = h.Part.End
			}
			n.haveHap = true
		}
	}
	return float32(n.held)
}

func (n *PatternValueNode) Reset() {}

func (n *PatternValueNode) TransferFrom(prev graph.Payload) {
	if p, ok := prev.(*PatternValueNode); ok {
		n.held, n.validUntil, n.haveHap = p.held, p.validUntil, p.haveHap
	}
}
