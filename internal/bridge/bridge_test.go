package bridge

import (
	"testing"

	"github.com/cbegin/phonon/internal/bank"
	"github.com/cbegin/phonon/internal/pattern"
	"github.com/cbegin/phonon/internal/transport"
	"github.com/cbegin/phonon/internal/voice"
)

func TestSampleEventNodeTriggersOnOnset(t *testing.T) {
	b := bank.NewBank()
	b.Load("bd", &bank.PCM{Data: []float32{1, 1, 1, 1}, SampleRate: 44100})
	pool := voice.NewPool(4, 44100)
	node := &SampleEventNode{
		Pat:    pattern.Pure("bd"),
		Bank:   b,
		Voices: pool,
	}
	tr := transport.New(1)
	node.Process(nil, tr, 44100) // primes lastQuery at cycle 0

	tr.Advance(44100) // small nudge forward within cycle 0
	node.Process(nil, tr, 44100)
	if pool.ActiveCount() != 1 {
		t.Fatalf("expected onset at cycle start to trigger a voice, got %d active", pool.ActiveCount())
	}
}

func TestSampleEventNodeRecordsMissingSample(t *testing.T) {
	b := bank.NewBank()
	pool := voice.NewPool(2, 44100)
	rec := &captureRecorder{}
	node := &SampleEventNode{Pat: pattern.Pure("missing"), Bank: b, Voices: pool, Recorder: rec}
	tr := transport.New(1)
	node.Process(nil, tr, 44100)
	tr.Advance(44100)
	node.Process(nil, tr, 44100)
	if len(rec.errs) != 1 {
		t.Fatalf("expected 1 missing-sample error, got %d", len(rec.errs))
	}
	if rec.errs[0].Name != "missing" {
		t.Fatalf("unexpected error name %q", rec.errs[0].Name)
	}
}

type captureRecorder struct {
	errs []*bank.SampleMissingError
}

func (c *captureRecorder) RecordMissingSample(err *bank.SampleMissingError) {
	c.errs = append(c.errs, err)
}

func TestSampleEventNodeHonorsNContextForBankIndex(t *testing.T) {
	b := bank.NewBank()
	b.Load("bd", &bank.PCM{Data: []float32{0, 0, 0, 0}, SampleRate: 44100})
	b.Load("bd", &bank.PCM{Data: []float32{9, 9, 9, 9}, SampleRate: 44100})
	pool := voice.NewPool(4, 44100)
	pat := pattern.WithContext(pattern.Pure("bd"), "n", "1")
	node := &SampleEventNode{Pat: pat, Bank: b, Voices: pool}
	tr := transport.New(1)
	node.Process(nil, tr, 44100)
	tr.Advance(44100)
	node.Process(nil, tr, 44100)

	l, _ := pool.ProcessStereo()
	if l == 0 {
		t.Fatal("expected n:1 variant (nonzero PCM) to have been triggered")
	}
}

func TestSampleEventNodeAppliesNoteSemitones(t *testing.T) {
	// A long sample played back at +12 semitones (2x speed) should exhaust
	// its data, and so fall silent, in about half as many ProcessStereo
	// calls as the same sample played at note 0.
	data := make([]float32, 20000)
	for i := range data {
		data[i] = 1
	}

	runUntilSilent := func(pat pattern.Pattern[string]) int {
		b := bank.NewBank()
		b.Load("bd", &bank.PCM{Data: data, SampleRate: 44100})
		pool := voice.NewPool(4, 44100)
		node := &SampleEventNode{Pat: pat, Bank: b, Voices: pool}
		tr := transport.New(1)
		node.Process(nil, tr, 44100)
		tr.Advance(44100)
		node.Process(nil, tr, 44100)

		calls := 0
		for pool.ActiveCount() > 0 && calls < len(data) {
			pool.ProcessStereo()
			calls++
		}
		return calls
	}

	baseCalls := runUntilSilent(pattern.Pure("bd"))
	transposedCalls := runUntilSilent(pattern.WithContext(pattern.Pure("bd"), "note", "12"))

	if transposedCalls >= baseCalls {
		t.Fatalf("expected note=12 to finish playback faster than note=0, got base=%d transposed=%d", baseCalls, transposedCalls)
	}
	ratio := float64(baseCalls) / float64(transposedCalls)
	if ratio < 1.7 || ratio > 2.3 {
		t.Fatalf("expected note=12 to roughly double playback speed, got ratio=%v (base=%d transposed=%d)", ratio, baseCalls, transposedCalls)
	}
}

func TestPatternValueNodeHoldsBetweenBoundaries(t *testing.T) {
	seq := pattern.Cat(pattern.Pure(1.0), pattern.Pure(2.0))
	node := &PatternValueNode{Pat: seq}
	tr := transport.New(1)

	first := node.Process(nil, tr, 44100)
	if first != 1.0 {
		t.Fatalf("expected held value 1.0 in first half-cycle, got %v", first)
	}

	// Advance to just short of the half-cycle boundary; value must still hold.
	for i := 0; i < int(float64(44100)*0.4); i++ {
		tr.Advance(44100)
	}
	mid := node.Process(nil, tr, 44100)
	if mid != 1.0 {
		t.Fatalf("expected held value to persist before boundary, got %v", mid)
	}
}
