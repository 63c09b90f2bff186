package file

import (
	"context"
	"testing"
)

func TestToMonoPassthrough(t *testing.T) {
	got := toMono([]int{100, -200, 300}, 1)
	want := []int16{100, -200, 300}
	if len(got) != len(want) {
		t.Fatalf("length mismatch: got %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sample %d: got %d, want %d", i, got[i], want[i])
		}
	}
}

func TestToMonoAveragesStereo(t *testing.T) {
	// Two stereo frames: L=100,R=200 and L=-100,R=-200
	got := toMono([]int{100, 200, -100, -200}, 2)
	want := []int16{150, -150}
	if len(got) != len(want) {
		t.Fatalf("length mismatch: got %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sample %d: got %d, want %d", i, got[i], want[i])
		}
	}
}

func TestClampInt16(t *testing.T) {
	cases := []struct {
		in   int
		want int16
	}{
		{40000, 32767},
		{-40000, -32768},
		{0, 0},
	}
	for _, c := range cases {
		if got := clampInt16(c.in); got != c.want {
			t.Errorf("clampInt16(%d): got %d, want %d", c.in, got, c.want)
		}
	}
}

func TestDecodeMissingFile(t *testing.T) {
	d := New("/nonexistent/path/does-not-exist.wav")
	if _, err := d.Decode(context.Background(), 16000); err == nil {
		t.Error("expected error for missing file, got nil")
	}
}
