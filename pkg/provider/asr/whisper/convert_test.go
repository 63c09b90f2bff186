package whisper

import "testing"

func TestPcmToFloat32Range(t *testing.T) {
	pcm := []int16{0, 32767, -32768}
	out := pcmToFloat32(pcm)
	if out[0] != 0 {
		t.Fatalf("expected 0 for silence, got %v", out[0])
	}
	if out[1] <= 0.99 || out[1] > 1.0 {
		t.Fatalf("expected ~1.0 for max sample, got %v", out[1])
	}
	if out[2] != -1.0 {
		t.Fatalf("expected -1.0 for min sample, got %v", out[2])
	}
}
