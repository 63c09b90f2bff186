package orchestrator

import (
	"fmt"

	"github.com/gurbani-transcribe/core/internal/chunker"
	"github.com/gurbani-transcribe/core/pkg/types"
)

// ChunkerAdapter drives an internal/chunker.Chunker for a whole batch job
// in one shot: feed every decoded sample through a single Session, then
// Flush the trailing partial chunk, closing the VAD session either way.
// Live mode drives chunker.Session directly instead (see live.go), since
// it needs incremental Process calls as audio arrives.
type ChunkerAdapter struct {
	chunker *chunker.Chunker
}

// NewChunkerAdapter wraps c for batch use.
func NewChunkerAdapter(c *chunker.Chunker) *ChunkerAdapter {
	return &ChunkerAdapter{chunker: c}
}

// ChunkAll runs a full batch job's samples through a fresh session and
// returns every chunk the VAD-driven split produces, including the final
// flushed remainder.
func (a *ChunkerAdapter) ChunkAll(jobID string, samples []int16) ([]types.AudioChunk, error) {
	session, err := a.chunker.NewSession(jobID, types.SourceBatch)
	if err != nil {
		return nil, fmt.Errorf("new session: %w", err)
	}
	defer session.Close()

	chunks, err := session.Process(samples)
	if err != nil {
		return nil, fmt.Errorf("process: %w", err)
	}
	if tail, ok := session.Flush(); ok {
		chunks = append(chunks, tail)
	}
	return chunks, nil
}
