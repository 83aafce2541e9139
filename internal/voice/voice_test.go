package voice

import (
	"testing"

	"github.com/cbegin/phonon/internal/bank"
)

func sine(n int) *bank.PCM {
	data := make([]float32, n)
	for i := range data {
		data[i] = 1
	}
	return &bank.PCM{Data: data, SampleRate: 44100}
}

func TestTriggerActivatesVoice(t *testing.T) {
	p := NewPool(4, 44100)
	p.Trigger(sine(1000), 1, 0, 1, 0, 1, 0)
	if p.ActiveCount() != 1 {
		t.Fatalf("expected 1 active voice, got %d", p.ActiveCount())
	}
}

func TestProcessStereoProducesOutput(t *testing.T) {
	p := NewPool(4, 44100)
	p.Trigger(sine(10000), 1, 0, 1, 0, 1, 0)
	var sawNonZero bool
	for i := 0; i < 200; i++ {
		l, r := p.ProcessStereo()
		if l != 0 || r != 0 {
			sawNonZero = true
		}
	}
	if !sawNonZero {
		t.Fatal("expected nonzero output from a triggered voice")
	}
}

func TestStealsOldestWhenFull(t *testing.T) {
	p := NewPool(2, 44100)
	p.Trigger(sine(1000), 1, 0, 1, 0, 1, 0)
	p.Trigger(sine(1000), 1, 0, 1, 0, 1, 0)
	if p.ActiveCount() != 2 {
		t.Fatalf("expected pool full with 2 active, got %d", p.ActiveCount())
	}
	p.Trigger(sine(1000), 1, 0, 1, 0, 1, 0)
	if p.ActiveCount() != 2 {
		t.Fatalf("expected steal to keep count at 2, got %d", p.ActiveCount())
	}
	if p.voices[0].triggeredAt != 3 {
		t.Fatalf("expected oldest voice (slot 0) to be stolen, got triggeredAt=%d", p.voices[0].triggeredAt)
	}
}

func TestResetSilencesAllVoices(t *testing.T) {
	p := NewPool(4, 44100)
	p.Trigger(sine(1000), 1, 0, 1, 0, 1, 0)
	p.Trigger(sine(1000), 1, 0, 1, 0, 1, 0)
	p.Reset()
	if p.ActiveCount() != 0 {
		t.Fatalf("expected 0 active after Reset, got %d", p.ActiveCount())
	}
}

func TestSemitonesTransposePlaybackRate(t *testing.T) {
	p := NewPool(2, 44100)
	p.Trigger(sine(1000), 1, 0, 1, 0, 1, 0)
	base := p.voices[0].increment

	p2 := NewPool(2, 44100)
	p2.Trigger(sine(1000), 1, 0, 1, 0, 1, 12)
	up := p2.voices[0].increment

	if diff := up - base*2; diff > 1e-6 || diff < -1e-6 {
		t.Fatalf("expected +12 semitones to double the playback increment, got base=%v up=%v", base, up)
	}
}

func TestPanEqualPower(t *testing.T) {
	p := NewPool(2, 44100)
	p.Trigger(sine(1000), 1, -1, 1, 0, 1, 0)
	if p.voices[0].gainR > 0.01 {
		t.Fatalf("pan=-1 should produce ~0 right gain, got %v", p.voices[0].gainR)
	}
	p2 := NewPool(2, 44100)
	p2.Trigger(sine(1000), 1, 1, 1, 0, 1, 0)
	if p2.voices[0].gainL > 0.01 {
		t.Fatalf("pan=1 should produce ~0 left gain, got %v", p2.voices[0].gainL)
	}
}
