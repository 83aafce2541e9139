package audioio

import (
	"encoding/binary"
	"math"
	"testing"
)

func TestEncodeDecodeFloat32RoundTrip(t *testing.T) {
	samples := []float32{0, 0.5, -0.5, 1, -1, 0.25}
	wav := EncodeWAVFloat32LE(samples, 44100, 1)

	got, rate, err := DecodeWAVMono(wav)
	if err != nil {
		t.Fatalf("DecodeWAVMono: %v", err)
	}
	if rate != 44100 {
		t.Fatalf("expected sample rate 44100, got %d", rate)
	}
	if len(got) != len(samples) {
		t.Fatalf("expected %d samples, got %d", len(samples), len(got))
	}
	for i := range samples {
		if math.Abs(float64(got[i]-samples[i])) > 1e-6 {
			t.Fatalf("sample %d: want %v got %v", i, samples[i], got[i])
		}
	}
}

// buildPCM16WAV hand-assembles a minimal mono 16-bit PCM WAV file, the
// format most real sample packs actually ship in.
func buildPCM16WAV(samples []int16, sampleRate int) []byte {
	dataSize := len(samples) * 2
	out := make([]byte, 44+dataSize)
	copy(out[0:], "RIFF")
	binary.LittleEndian.PutUint32(out[4:], uint32(36+dataSize))
	copy(out[8:], "WAVE")
	copy(out[12:], "fmt ")
	binary.LittleEndian.PutUint32(out[16:], 16)
	binary.LittleEndian.PutUint16(out[20:], 1) // PCM
	binary.LittleEndian.PutUint16(out[22:], 1) // mono
	binary.LittleEndian.PutUint32(out[24:], uint32(sampleRate))
	binary.LittleEndian.PutUint32(out[28:], uint32(sampleRate*2))
	binary.LittleEndian.PutUint16(out[32:], 2)
	binary.LittleEndian.PutUint16(out[34:], 16)
	copy(out[36:], "data")
	binary.LittleEndian.PutUint32(out[40:], uint32(dataSize))
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[44+i*2:], uint16(s))
	}
	return out
}

func TestDecodePCM16Mono(t *testing.T) {
	raw := buildPCM16WAV([]int16{0, 16384, -16384, 32767, -32768}, 48000)
	got, rate, err := DecodeWAVMono(raw)
	if err != nil {
		t.Fatalf("DecodeWAVMono: %v", err)
	}
	if rate != 48000 {
		t.Fatalf("expected 48000, got %d", rate)
	}
	want := []float32{0, 0.5, -0.5, 32767.0 / 32768, -1}
	if len(got) != len(want) {
		t.Fatalf("expected %d samples, got %d", len(want), len(got))
	}
	for i := range want {
		if math.Abs(float64(got[i]-want[i])) > 1e-4 {
			t.Fatalf("sample %d: want %v got %v", i, want[i], got[i])
		}
	}
}

func TestDecodeRejectsNonRIFF(t *testing.T) {
	if _, _, err := DecodeWAVMono([]byte("not a wav file at all")); err == nil {
		t.Fatal("expected an error for a non-RIFF payload")
	}
}

func TestDecodeStereoDownmixesToMono(t *testing.T) {
	// Two interleaved stereo frames, left=1.0/-1.0, right=-1.0/1.0: each
	// frame should average to 0.
	wav := EncodeWAVFloat32LE([]float32{1, -1, -1, 1}, 44100, 2)
	got, _, err := DecodeWAVMono(wav)
	if err != nil {
		t.Fatalf("DecodeWAVMono: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 mono frames, got %d", len(got))
	}
	for i, v := range got {
		if math.Abs(float64(v)) > 1e-6 {
			t.Fatalf("frame %d: expected ~0 after downmix, got %v", i, v)
		}
	}
}
