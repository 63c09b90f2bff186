package types

import (
	"errors"
	"testing"
)

func TestAudioChunkDuration(t *testing.T) {
	c := AudioChunk{StartSec: 1.5, EndSec: 4.0}
	if got, want := c.Duration().Seconds(), 2.5; got != want {
		t.Fatalf("Duration() = %v, want %v", got, want)
	}
}

func TestPipelineErrorUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := NewChunkError(ErrKindASREngine, "job-1", 3, cause)

	if !errors.Is(err, cause) {
		t.Fatalf("expected errors.Is to find the wrapped cause")
	}
	if got := err.Error(); got == "" {
		t.Fatalf("Error() returned empty string")
	}

	fatal := NewPipelineError(ErrKindConfig, "job-1", cause)
	if fatal.ChunkIndex != -1 {
		t.Fatalf("job-scoped error should have ChunkIndex -1, got %d", fatal.ChunkIndex)
	}
}
