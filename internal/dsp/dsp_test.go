package dsp

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cbegin/phonon/internal/transport"
)

const sr = 44100

func TestOscillatorSineStaysInRange(t *testing.T) {
	o := &Oscillator{Wave: WaveSine}
	tr := transport.New(1)
	for i := 0; i < sr; i++ {
		out := o.Process([]float32{440}, tr, sr)
		assert.LessOrEqual(t, out, float32(1.0001))
		assert.GreaterOrEqual(t, out, float32(-1.0001))
	}
}

func TestOscillatorFrequencyMatchesPeriod(t *testing.T) {
	o := &Oscillator{Wave: WaveSine}
	tr := transport.New(1)
	const freq = 100.0
	// A full cycle at 100Hz and 44100Hz sample rate takes 441 samples;
	// the waveform should cross zero (rising) once in that span.
	period := sr / freq
	var prev float32
	crossings := 0
	for i := 0; i < int(period)+1; i++ {
		out := o.Process([]float32{freq}, tr, sr)
		if prev < 0 && out >= 0 {
			crossings++
		}
		prev = out
	}
	assert.Equal(t, 1, crossings, "expected exactly one rising zero-crossing per period")
}

func TestOscillatorResetZeroesPhase(t *testing.T) {
	o := &Oscillator{Wave: WaveSaw}
	tr := transport.New(1)
	for i := 0; i < 100; i++ {
		o.Process([]float32{220}, tr, sr)
	}
	require.NotZero(t, o.Phase)
	o.Reset()
	assert.Zero(t, o.Phase)
}

func TestOscillatorTransferFromCarriesPhase(t *testing.T) {
	old := &Oscillator{Wave: WaveSine, Phase: 0.42}
	fresh := &Oscillator{Wave: WaveSine}
	fresh.TransferFrom(old)
	assert.Equal(t, 0.42, fresh.Phase)
}

func TestFilterLowpassAttenuatesHighFrequency(t *testing.T) {
	f := &Filter{Kind: FilterLowpass}
	tr := transport.New(1)
	osc := &Oscillator{Wave: WaveSine}

	rmsAt := func(freq float32) float64 {
		f.Reset()
		osc.Reset()
		var sum float64
		const n = 2000
		for i := 0; i < n; i++ {
			x := osc.Process([]float32{freq}, tr, sr)
			y := f.Process([]float32{x, 500, 0.707}, tr, sr)
			sum += float64(y) * float64(y)
		}
		return math.Sqrt(sum / n)
	}

	low := rmsAt(100)
	high := rmsAt(8000)
	assert.Greater(t, low, high, "a 500Hz lowpass should pass 100Hz more than 8kHz")
}

func TestFilterResetClearsHistory(t *testing.T) {
	f := &Filter{Kind: FilterLowpass}
	tr := transport.New(1)
	for i := 0; i < 50; i++ {
		f.Process([]float32{1, 500, 0.707}, tr, sr)
	}
	f.Reset()
	out := f.Process([]float32{0, 500, 0.707}, tr, sr)
	assert.Zero(t, out, "a silent input right after Reset should produce silence")
}

func TestLagSmoothsStepInput(t *testing.T) {
	l := &Lag{}
	tr := transport.New(1)
	var last float32
	for i := 0; i < sr/10; i++ {
		last = l.Process([]float32{1, 0.05}, tr, sr)
	}
	assert.Greater(t, last, float32(0.5), "lag should have risen substantially toward its target after 2 time constants")
	assert.Less(t, last, float32(1.0), "a one-pole lag never fully reaches its target in finite time")
}

func TestADEnvelopeRisesThenDecaysToZero(t *testing.T) {
	env := NewAD(0.01, 0.05)
	env.Trigger()
	peak := 0.0
	for i := 0; i < sr; i++ {
		v := env.Step(sr)
		if v > peak {
			peak = v
		}
	}
	assert.InDelta(t, 1.0, peak, 0.01)
	assert.Zero(t, env.Step(sr), "AD envelope should have fully decayed by 1 second")
}

func TestADSRHoldsSustainWhileGated(t *testing.T) {
	env := NewADSR(0.01, 0.05, 0.5, 0.1)
	env.Trigger()
	for i := 0; i < sr/2; i++ {
		env.Step(sr)
	}
	assert.InDelta(t, 0.5, env.Step(sr), 0.01, "should be holding sustain level well past attack+decay")

	env.Release()
	for i := 0; i < sr; i++ {
		env.Step(sr)
	}
	assert.Zero(t, env.Step(sr), "should be fully released after 1s given a 0.1s release")
}

func TestPercRetriggersInstantlyRegardlessOfStage(t *testing.T) {
	p := NewPerc(0.05)
	p.Trigger()
	for i := 0; i < sr/10; i++ {
		p.Step(sr)
	}
	assert.Zero(t, p.Step(sr), "expect fully decayed by 100ms given a 50ms decay")
	p.Trigger()
	assert.InDelta(t, 1.0, p.Step(sr), 0.01, "retrigger should jump straight back to peak")
}

func TestEnvelopeNodeTriggersOnRisingGateEdge(t *testing.T) {
	env := NewAD(0.001, 1.0)
	tr := transport.New(1)
	out := env.Process([]float32{1}, tr, sr) // rising edge: trigger
	assert.Greater(t, out, float32(0))
}

func TestCombFeedbackProducesDelayedEcho(t *testing.T) {
	const delayLen = 10
	c := NewComb(delayLen)
	tr := transport.New(1)
	first := c.Process([]float32{1, 0.5}, tr, sr)
	assert.Zero(t, first, "comb output lags input by its full delay length")

	// The impulse written at buf[0] during the call above is read back once
	// pos has cycled all the way around: delayLen-1 further calls with
	// silent input, then one more to land back on position 0.
	for i := 0; i < delayLen-1; i++ {
		c.Process([]float32{0, 0.5}, tr, sr)
	}
	delayed := c.Process([]float32{0, 0.5}, tr, sr)
	assert.InDelta(t, 1.0, delayed, 1e-6, "the impulse should reappear exactly delayLen samples later")
}

func TestCombResetClearsBuffer(t *testing.T) {
	c := NewComb(4)
	tr := transport.New(1)
	c.Process([]float32{1, 0.9}, tr, sr)
	c.Reset()
	for _, v := range c.buf {
		assert.Zero(t, v)
	}
}

func TestReverbProducesEnergyAfterImpulse(t *testing.T) {
	r := NewReverb(sr, 1.0, 0.7)
	tr := transport.New(1)
	var sum float64
	r.Process([]float32{1, 0.3}, tr, sr)
	for i := 0; i < sr/2; i++ {
		out := r.Process([]float32{0, 0.3}, tr, sr)
		sum += float64(out) * float64(out)
	}
	assert.Greater(t, sum, 0.0, "an impulse into a reverb should leave audible energy in its tail")
}

func TestArithOps(t *testing.T) {
	tr := transport.New(1)
	cases := []struct {
		op   ArithOp
		a, b float32
		want float32
	}{
		{OpAdd, 2, 3, 5},
		{OpSub, 5, 3, 2},
		{OpMul, 4, 3, 12},
		{OpDiv, 9, 3, 3},
		{OpDiv, 9, 0, 0},
	}
	for _, c := range cases {
		n := &Arith{Op: c.op}
		got := n.Process([]float32{c.a, c.b}, tr, sr)
		assert.Equal(t, c.want, got)
	}
}
