package dsp

import (
	"github.com/cbegin/phonon/internal/graph"
	"github.com/cbegin/phonon/internal/transport"
)

// Envelope is the shared shape for the graph's envelope-generator node
// kinds, grounded on the teacher's envState/filterEnvelope.step()
// attack/decay/sustain/release state machine.
type Envelope interface {
	Step(sampleRate int) float64
	Trigger()
	Release()
}

// envStage mirrors fm.envState's stage enum.
type envStage int

const (
	stageIdle envStage = iota
	stageAttack
	stageDecay
	stageSustain
	stageRelease
)

// envelopeNode wraps an Envelope as a graph node: inputs[0] is a gate
// signal, nonzero while held; a rising edge calls Trigger, a falling edge
// calls Release. This is the adapter all of AD/ADSR/Perc/Lag share so
// each only has to implement the Envelope interface.
type envelopeNode struct {
	env       Envelope
	lastGate  bool
}

func (e *envelopeNode) Process(inputs []float32, t *transport.Transport, sampleRate int) float32 {
	gate := len(inputs) > 0 && inputs[0] != 0
	if gate && !e.lastGate {
		e.env.Trigger()
	} else if !gate && e.lastGate {
		e.env.Release()
	}
	e.lastGate = gate
	return float32(e.env.Step(sampleRate))
}

// AD is an attack/decay envelope with no sustain stage: it rises to 1
// over attackSeconds, then decays to 0 over decaySeconds and stays there
// regardless of gate release, the classic percussive shape.
type AD struct {
	envelopeNode
	attackSeconds, decaySeconds float64
	stage                       envStage
	level                       float64
}

// NewAD returns an AD node wrapping an AD envelope with the given stage
// times in seconds.
func NewAD(attackSeconds, decaySeconds float64) *AD {
	a := &AD{attackSeconds: attackSeconds, decaySeconds: decaySeconds}
	a.envelopeNode.env = a
	return a
}

func (a *AD) Trigger() { a.stage = stageAttack }
func (a *AD) Release() {}

func (a *AD) Step(sampleRate int) float64 {
	if sampleRate <= 0 {
		sampleRate = 44100
	}
	switch a.stage {
	case stageAttack:
		if a.attackSeconds <= 0 {
			a.level = 1
		} else {
			a.level += 1.0 / (a.attackSeconds * float64(sampleRate))
		}
		if a.level >= 1 {
			a.level = 1
			a.stage = stageDecay
		}
	case stageDecay:
		if a.decaySeconds <= 0 {
			a.level = 0
		} else {
			a.level -= 1.0 / (a.decaySeconds * float64(sampleRate))
		}
		if a.level <= 0 {
			a.level = 0
			a.stage = stageIdle
		}
	}
	return clampFloat(a.level, 0, 1)
}

func (a *AD) Reset() { a.stage, a.level = stageIdle, 0 }

func (a *AD) TransferFrom(prev graph.Payload) {
	if p, ok := prev.(*AD); ok {
		a.stage, a.level = p.stage, p.level
	}
}

// ADSR is a full attack/decay/sustain/release envelope: rises to 1 over
// attackSeconds, decays to sustainLevel over decaySeconds, holds while
// gated, then releases to 0 over releaseSeconds.
type ADSR struct {
	envelopeNode
	attackSeconds, decaySeconds, releaseSeconds float64
	sustainLevel                                float64
	stage                                       envStage
	level                                       float64
}

// NewADSR returns an ADSR node with the given stage times (seconds) and
// sustain level in [0,1].
func NewADSR(attackSeconds, decaySeconds, sustainLevel, releaseSeconds float64) *ADSR {
	e := &ADSR{
		attackSeconds:  attackSeconds,
		decaySeconds:   decaySeconds,
		sustainLevel:   clampFloat(sustainLevel, 0, 1),
		releaseSeconds: releaseSeconds,
	}
	e.envelopeNode.env = e
	return e
}

func (e *ADSR) Trigger() { e.stage = stageAttack }
func (e *ADSR) Release() {
	if e.stage != stageIdle {
		e.stage = stageRelease
	}
}

func (e *ADSR) Step(sampleRate int) float64 {
	if sampleRate <= 0 {
		sampleRate = 44100
	}
	switch e.stage {
	case stageAttack:
		if e.attackSeconds <= 0 {
			e.level = 1
		} else {
			e.level += 1.0 / (e.attackSeconds * float64(sampleRate))
		}
		if e.level >= 1 {
			e.level = 1
			e.stage = stageDecay
		}
	case stageDecay:
		if e.decaySeconds <= 0 {
			e.level = e.sustainLevel
		} else {
			e.level -= (1 - e.sustainLevel) / (e.decaySeconds * float64(sampleRate))
		}
		if e.level <= e.sustainLevel {
			e.level = e.sustainLevel
			e.stage = stageSustain
		}
	case stageSustain:
		e.level = e.sustainLevel
	case stageRelease:
		if e.releaseSeconds <= 0 {
			e.level = 0
		} else {
			e.level -= e.sustainLevel / (e.releaseSeconds * float64(sampleRate))
		}
		if e.level <= 0 {
			e.level = 0
			e.stage = stageIdle
		}
	}
	return clampFloat(e.level, 0, 1)
}

func (e *ADSR) Reset() { e.stage, e.level = stageIdle, 0 }

func (e *ADSR) TransferFrom(prev graph.Payload) {
	if p, ok := prev.(*ADSR); ok {
		e.stage, e.level = p.stage, p.level
	}
}

// Perc is a one-shot percussive envelope: the same shape as AD but
// re-triggerable instantly and always retriggered regardless of current
// stage, matching the teacher's drum-voice-style envelopes.
type Perc struct {
	envelopeNode
	decaySeconds float64
	active       bool
	level        float64
}

// NewPerc returns a Perc node decaying to 0 over decaySeconds once triggered.
func NewPerc(decaySeconds float64) *Perc {
	p := &Perc{decaySeconds: decaySeconds}
	p.envelopeNode.env = p
	return p
}

func (p *Perc) Trigger() { p.active, p.level = true, 1 }
func (p *Perc) Release() {}

func (p *Perc) Step(sampleRate int) float64 {
	if !p.active {
		return 0
	}
	if sampleRate <= 0 {
		sampleRate = 44100
	}
	if p.decaySeconds <= 0 {
		p.level = 0
	} else {
		p.level -= 1.0 / (p.decaySeconds * float64(sampleRate))
	}
	if p.level <= 0 {
		p.level, p.active = 0, false
	}
	return clampFloat(p.level, 0, 1)
}

func (p *Perc) Reset() { p.active, p.level = false, 0 }

func (p *Perc) TransferFrom(prev graph.Payload) {
	if pr, ok := prev.(*Perc); ok {
		p.active, p.level = pr.active, pr.level
	}
}
