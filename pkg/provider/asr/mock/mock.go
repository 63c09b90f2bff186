// Package mock provides a deterministic [asr.Engine] for tests: it returns a
// canned Hypothesis (or a scripted sequence of them) without running any
// real inference.
package mock

import (
	"context"
	"sync"

	"github.com/gurbani-transcribe/core/pkg/provider/asr"
	"github.com/gurbani-transcribe/core/pkg/types"
)

var _ asr.Engine = (*Engine)(nil)

// Engine is a scripted ASR engine. Responses are consumed in order, one per
// Transcribe call; once exhausted, the last response is repeated.
type Engine struct {
	id string

	mu        sync.Mutex
	responses []types.Hypothesis
	errs      []error
	call      int
}

// New creates a mock Engine with the given stable engine ID.
func New(engineID string) *Engine {
	return &Engine{id: engineID}
}

// WithResponse appends a scripted Hypothesis (text will have EngineID
// overwritten to this engine's ID if unset).
func (e *Engine) WithResponse(h types.Hypothesis, err error) *Engine {
	e.mu.Lock()
	defer e.mu.Unlock()
	if h.EngineID == "" {
		h.EngineID = e.id
	}
	e.responses = append(e.responses, h)
	e.errs = append(e.errs, err)
	return e
}

// EngineID implements asr.Engine.
func (e *Engine) EngineID() string { return e.id }

// Transcribe implements asr.Engine.
func (e *Engine) Transcribe(_ context.Context, _ types.AudioChunk, _ string) (types.Hypothesis, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.responses) == 0 {
		return asr.EmptyHypothesis(e.id, "no scripted response"), nil
	}
	idx := e.call
	if idx >= len(e.responses) {
		idx = len(e.responses) - 1
	} else {
		e.call++
	}
	return e.responses[idx], e.errs[idx]
}
