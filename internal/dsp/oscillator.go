package dsp

import (
	"math"

	"github.com/cbegin/phonon/internal/graph"
	"github.com/cbegin/phonon/internal/transport"
)

// Waveform selects an Oscillator's shape.
type Waveform int

const (
	WaveSine Waveform = iota
	WaveSaw
	WaveSquare
	WaveTriangle
	WavePolyBlepSaw
	WavePolyBlepSquare
)

// Oscillator is a phase-accumulator source node. inputs[0] is frequency in
// Hz (audio-rate, resolved once per sample like every other input).
// Phase accumulation is grounded on the teacher's lfo.LFO.Sample shape.
type Oscillator struct {
	Wave  Waveform
	Phase float64
}

func (o *Oscillator) Process(inputs []float32, t *transport.Transport, sampleRate int) float32 {
	freq := 0.0
	if len(inputs) > 0 {
		freq = float64(inputs[0])
	}
	if sampleRate <= 0 {
		return 0
	}
	inc := freq / float64(sampleRate)
	phase := o.Phase
	var out float64
	switch o.Wave {
	case WaveSine:
		out = math.Sin(2 * math.Pi * phase)
	case WaveSaw:
		out = 2*phase - 1
	case WavePolyBlepSaw:
		out = 2*phase - 1
		out -= polyBlep(phase, inc)
	case WaveSquare:
		if phase < 0.5 {
			out = 1
		} else {
			out = -1
		}
	case WavePolyBlepSquare:
		if phase < 0.5 {
			out = 1
		} else {
			out = -1
		}
		out += polyBlep(phase, inc)
		out -= polyBlep(math.Mod(phase+0.5, 1.0), inc)
	case WaveTriangle:
		if phase < 0.5 {
			out = 4*phase - 1
		} else {
			out = 3 - 4*phase
		}
	}
	o.Phase += inc
	for o.Phase >= 1 {
		o.Phase -= 1
	}
	for o.Phase < 0 {
		o.Phase += 1
	}
	return float32(out)
}

// polyBlep applies a polynomial band-limited step correction at phase t
// with phase increment dt, suppressing aliasing at saw/square discontinuities.
func polyBlep(t, dt float64) float64 {
	if dt <= 0 {
		return 0
	}
	if t < dt {
		t /= dt
		return t + t - t*t - 1
	}
	if t > 1-dt {
		t = (t - 1) / dt
		return t*t + t + t + 1
	}
	return 0
}

func (o *Oscillator) Reset() { o.Phase = 0 }

func (o *Oscillator) TransferFrom(prev graph.Payload) {
	if p, ok := prev.(*Oscillator); ok {
		o.Phase = p.Phase
	}
}
