package audio_test

import (
	"testing"

	"github.com/gurbani-transcribe/core/pkg/audio"
)

func TestResampleMono16_SameRate(t *testing.T) {
	samples := []int16{100, 200, 300}
	out := audio.ResampleMono16(samples, 48000, 48000)
	if len(out) != len(samples) {
		t.Fatalf("length mismatch: got %d, want %d", len(out), len(samples))
	}
}

func TestResampleMono16_Upsample(t *testing.T) {
	// 2 samples at 16kHz → 6 samples at 48kHz (3x)
	samples := []int16{1000, 2000}
	got := audio.ResampleMono16(samples, 16000, 48000)
	if len(got) != 6 {
		t.Fatalf("expected 6 samples, got %d", len(got))
	}
	if got[0] != 1000 {
		t.Errorf("first sample: got %d, want 1000", got[0])
	}
	last := got[len(got)-1]
	if last < 1800 || last > 2200 {
		t.Errorf("last sample: got %d, want close to 2000", last)
	}
}

func TestResampleMono16_Downsample(t *testing.T) {
	// 6 samples at 48kHz → 2 samples at 16kHz (1/3x)
	samples := []int16{100, 200, 300, 400, 500, 600}
	got := audio.ResampleMono16(samples, 48000, 16000)
	if len(got) != 2 {
		t.Fatalf("expected 2 samples, got %d", len(got))
	}
}

func TestResampleMono16_ZeroRate(t *testing.T) {
	samples := []int16{100, 200}
	out := audio.ResampleMono16(samples, 0, 48000)
	if len(out) != len(samples) {
		t.Errorf("expected unchanged output for zero srcRate, got len %d", len(out))
	}
	out = audio.ResampleMono16(samples, 48000, 0)
	if len(out) != len(samples) {
		t.Errorf("expected unchanged output for zero dstRate, got len %d", len(out))
	}
	out = audio.ResampleMono16(samples, -1, 48000)
	if len(out) != len(samples) {
		t.Errorf("expected unchanged output for negative srcRate, got len %d", len(out))
	}
}
