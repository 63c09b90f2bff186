package resilience

import (
	"context"

	"github.com/gurbani-transcribe/core/pkg/provider/asr"
	"github.com/gurbani-transcribe/core/pkg/types"
)

// ASRFallback implements [asr.Engine] with automatic failover across
// multiple engines filling the same role. Each backend has its own circuit
// breaker, so a transiently failing engine doesn't take down the role —
// spec §4.4 treats an ASR engine crash/timeout as recoverable, producing an
// empty-text hypothesis rather than a fatal error.
type ASRFallback struct {
	id    string
	group *FallbackGroup[asr.Engine]
}

var _ asr.Engine = (*ASRFallback)(nil)

// NewASRFallback creates an ASRFallback identified by engineID, with primary
// as the preferred backend.
func NewASRFallback(engineID string, primary asr.Engine, primaryName string, cfg FallbackConfig) *ASRFallback {
	return &ASRFallback{
		id:    engineID,
		group: NewFallbackGroup(primary, primaryName, cfg),
	}
}

// AddFallback registers an additional engine as a fallback for this role.
func (f *ASRFallback) AddFallback(name string, engine asr.Engine) {
	f.group.AddFallback(name, engine)
}

// EngineID implements asr.Engine. It returns the fallback group's own
// stable ID rather than delegating to whichever backend served the last
// call, so fusion's engine-priority tie-break sees one consistent identity
// per role regardless of which backend handled a given chunk.
func (f *ASRFallback) EngineID() string { return f.id }

// Transcribe tries the primary engine, falling through registered
// fallbacks on failure, per the circuit-breaker policy each holds.
func (f *ASRFallback) Transcribe(ctx context.Context, chunk types.AudioChunk, languageHint string) (types.Hypothesis, error) {
	h, err := ExecuteWithResult(f.group, func(e asr.Engine) (types.Hypothesis, error) {
		return e.Transcribe(ctx, chunk, languageHint)
	})
	if err != nil {
		return asr.EmptyHypothesis(f.id, err.Error()), err
	}
	h.EngineID = f.id
	return h, nil
}
