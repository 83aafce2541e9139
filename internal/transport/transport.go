// Package transport implements the cps/cycle-position clock the rest of
// the engine reads to know "where" in pattern time the current sample is.
package transport

import (
	"time"

	"github.com/cbegin/phonon/internal/rational"
)

// Transport tracks cycle position either by counting samples (offline
// rendering) or against a wall-clock epoch (live playback).
type Transport struct {
	cps           float64
	cyclePosition rational.Time
	useWallClock  bool
	epoch         time.Time
}

// New returns a Transport at cycle position zero with the given cycles
// per second.
func New(cps float64) *Transport {
	if cps <= 0 {
		cps = 0.5
	}
	return &Transport{cps: cps, cyclePosition: rational.Zero}
}

// CyclePosition returns the current position in cycles.
func (t *Transport) CyclePosition() rational.Time { return t.cyclePosition }

// CPS returns the current cycles-per-second rate.
func (t *Transport) CPS() float64 { return t.cps }

// SetCPS sets the cycles-per-second rate directly.
func (t *Transport) SetCPS(cps float64) {
	if cps <= 0 {
		return
	}
	t.cps = cps
}

// SetBPM sets the rate via beats-per-minute, at 4 beats per cycle (the
// mini-notation's implicit time signature): cps = bpm/240.
func (t *Transport) SetBPM(bpm float64) {
	if bpm <= 0 {
		return
	}
	t.SetCPS(bpm / 240.0)
}

// Advance moves cyclePosition forward by one sample's worth of time at
// sampleRate, for offline rendering where there is no wall clock.
func (t *Transport) Advance(sampleRate int) {
	if sampleRate <= 0 {
		return
	}
	dt := rational.FromFloat(1.0 / (t.cps * float64(sampleRate)))
	t.cyclePosition = t.cyclePosition.Add(dt)
}

// UseWallClock switches the transport into live mode, anchored at now.
func (t *Transport) UseWallClock(now time.Time) {
	t.useWallClock = true
	t.epoch = now
}

// Sync recomputes cyclePosition from elapsed wall-clock time since the
// epoch set by UseWallClock; a no-op if the transport is not in wall-clock
// mode.
func (t *Transport) Sync(now time.Time) {
	if !t.useWallClock {
		return
	}
	elapsed := now.Sub(t.epoch).Seconds()
	t.cyclePosition = rational.FromFloat(elapsed * t.cps)
}

// Reset returns cyclePosition to zero (used by Hush/Panic).
func (t *Transport) Reset() {
	t.cyclePosition = rational.Zero
}

// CarryFrom copies cyclePosition and wall-clock anchoring from old into t,
// leaving t's own cps (as set by the program that just compiled it)
// untouched. Used across a hot-swap so a live-coding edit keeps playing
// from where the music already was, rather than resetting cycle position
// to zero on every recompile.
func (t *Transport) CarryFrom(old *Transport) {
	if old == nil {
		return
	}
	t.cyclePosition = old.cyclePosition
	t.useWallClock = old.useWallClock
	t.epoch = old.epoch
}
