// Package bank holds sample banks: named, indexed collections of PCM audio
// used by sample-playback graph nodes.
package bank

import (
	"fmt"
	"sync"
)

// SampleMissingError reports a bridge lookup for a name:index the bank
// never loaded. Non-fatal: the triggering hap is simply skipped.
type SampleMissingError struct {
	Name  string
	Index int
}

func (e *SampleMissingError) Error() string {
	return fmt.Sprintf("bank: no sample loaded for %q:%d", e.Name, e.Index)
}

// PCM is a single loaded sample: interleaved-free mono float32 data at its
// own native sample rate (the voice pool resamples on playback).
type PCM struct {
	Data       []float32
	SampleRate int
}

// Bank maps a sample name (e.g. "bd") to an ordered list of PCM variants,
// selected by index (e.g. "bd:3").
type Bank struct {
	mu      sync.RWMutex
	samples map[string][]*PCM
}

// NewBank returns an empty Bank.
func NewBank() *Bank {
	return &Bank{samples: make(map[string][]*PCM)}
}

// Load appends pcm to name's variant list. Safe to call concurrently with
// Lookup; only the control thread is expected to call it.
func (b *Bank) Load(name string, pcm *PCM) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.samples[name] = append(b.samples[name], pcm)
}

// Lookup returns the PCM at name:index, wrapping index modulo the variant
// count (negative indices wrap positively). Reports false if name is
// unknown or has no variants.
func (b *Bank) Lookup(name string, index int) (*PCM, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	variants, ok := b.samples[name]
	if !ok || len(variants) == 0 {
		return nil, false
	}
	n := len(variants)
	idx := ((index % n) + n) % n
	return variants[idx], true
}

// Count returns how many variants name has loaded.
func (b *Bank) Count(name string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.samples[name])
}
