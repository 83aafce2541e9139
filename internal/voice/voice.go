// Package voice implements the fixed-capacity polyphonic sample-playback
// voice pool that the signal graph's sample-event nodes trigger into.
package voice

import (
	"math"
	"sync/atomic"

	"github.com/cbegin/phonon/internal/bank"
)

const (
	attackFrames  = 64  // ~1ms at 44.1kHz, matches the teacher's fast FM attack default
	releaseFrames = 256 // ~5ms release to avoid clicks on voice steal/cutoff
)

type envState int

const (
	envAttack envState = iota
	envSustain
	envRelease
	envOff
)

// Voice is one playback slot: a cursor into a PCM buffer plus a short
// attack/release envelope to avoid clicks, mirroring the teacher's
// per-operator envelope state machine (fm.operator/advanceOpEnv) scaled
// down to a single linear ramp since sample playback has no sustain
// segment of its own.
type Voice struct {
	pcm         *bank.PCM
	live        bool
	cursor      float64
	begin       float64
	end         float64
	increment   float64
	gainL       float32
	gainR       float32
	env         float64
	state       envState
	triggeredAt int64
}

// Pool is a fixed-size voice pool with oldest-voice stealing, grounded on
// the teacher's fixed fm.Engine.voices slice (sized by Polyphony) and its
// atomic master gain.
type Pool struct {
	voices     []Voice
	sampleRate int
	clock      int64
	masterGain uint64
}

// NewPool allocates size voices for playback at sampleRate. No further
// allocation happens in Trigger or ProcessStereo.
func NewPool(size, sampleRate int) *Pool {
	if size <= 0 {
		size = 1
	}
	return &Pool{
		voices:     make([]Voice, size),
		sampleRate: sampleRate,
		masterGain: math.Float64bits(1.0),
	}
}

// SetMasterGain sets the pool-wide output gain, safe to call from the
// control thread while ProcessStereo runs on the audio thread.
func (p *Pool) SetMasterGain(gain float64) {
	atomic.StoreUint64(&p.masterGain, math.Float64bits(gain))
}

func (p *Pool) masterGainValue() float64 {
	return math.Float64frombits(atomic.LoadUint64(&p.masterGain))
}

// Trigger starts pcm playing in the first idle voice, or steals the oldest
// live voice if the pool is full. pan is in [-1,1] (equal-power law);
// speed is a playback-rate multiplier (1 = native pitch); semitones
// transposes playback by 2^(semitones/12) on top of speed; begin/end are
// fractional offsets into pcm.Data in [0,1]. Must not be called
// concurrently with ProcessStereo.
func (p *Pool) Trigger(pcm *bank.PCM, gain, pan, speed, begin, end, semitones float64) {
	if pcm == nil || len(pcm.Data) == 0 {
		return
	}
	p.clock++
	slot := p.stealOldestOrIdle()
	v := &p.voices[slot]

	begin = clamp01(begin)
	end = clamp01(end)
	if end <= begin {
		end = 1
		begin = 0
	}
	n := float64(len(pcm.Data))
	angle := (clamp(pan, -1, 1) + 1) * (math.Pi / 4)
	gl := float32(gain * math.Cos(angle))
	gr := float32(gain * math.Sin(angle))

	srRatio := 1.0
	if pcm.SampleRate > 0 && p.sampleRate > 0 {
		srRatio = float64(pcm.SampleRate) / float64(p.sampleRate)
	}

	*v = Voice{
		pcm:         pcm,
		live:        true,
		cursor:      begin * n,
		begin:       begin * n,
		end:         end * n,
		increment:   speed * math.Pow(2, semitones/12) * srRatio,
		gainL:       gl,
		gainR:       gr,
		env:         0,
		state:       envAttack,
		triggeredAt: p.clock,
	}
}

func (p *Pool) stealOldestOrIdle() int {
	for i := range p.voices {
		if !p.voices[i].live {
			return i
		}
	}
	oldest := 0
	oldestAt := p.voices[0].triggeredAt
	for i := 1; i < len(p.voices); i++ {
		if p.voices[i].triggeredAt < oldestAt {
			oldestAt = p.voices[i].triggeredAt
			oldest = i
		}
	}
	return oldest
}

// ProcessStereo advances every live voice by one sample and returns the
// mixed stereo output. Never allocates.
func (p *Pool) ProcessStereo() (float32, float32) {
	var l, r float64
	mg := p.masterGainValue()
	for i := range p.voices {
		v := &p.voices[i]
		if !v.live {
			continue
		}
		switch v.state {
		case envAttack:
			v.env += 1.0 / attackFrames
			if v.env >= 1 {
				v.env = 1
				v.state = envSustain
			}
		case envRelease:
			v.env -= 1.0 / releaseFrames
			if v.env <= 0 {
				v.env = 0
				v.live = false
				continue
			}
		}
		s := sampleLinear(v.pcm.Data, v.cursor) * v.env
		l += s * float64(v.gainL) * mg
		r += s * float64(v.gainR) * mg

		v.cursor += v.increment
		if v.cursor >= v.end {
			if v.state != envRelease {
				v.state = envRelease
			}
		}
		if v.cursor >= float64(len(v.pcm.Data)) {
			v.live = false
		}
	}
	return float32(clamp(l, -1, 1)), float32(clamp(r, -1, 1))
}

// Reset silences every voice immediately (used by panic/hush).
func (p *Pool) Reset() {
	for i := range p.voices {
		p.voices[i].live = false
	}
}

// ActiveCount reports how many voices are currently live.
func (p *Pool) ActiveCount() int {
	n := 0
	for i := range p.voices {
		if p.voices[i].live {
			n++
		}
	}
	return n
}

func sampleLinear(data []float32, pos float64) float64 {
	i0 := int(pos)
	if i0 < 0 {
		i0 = 0
	}
	if i0 >= len(data) {
		return 0
	}
	frac := pos - float64(i0)
	s0 := float64(data[i0])
	if i0+1 >= len(data) {
		return s0
	}
	s1 := float64(data[i0+1])
	return s0 + (s1-s0)*frac
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clamp01(v float64) float64 { return clamp(v, 0, 1) }
