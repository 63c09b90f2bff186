// Package asr defines the uniform speech-to-text contract shared by all
// three ASR engine roles (general, indic-tuned, english-tuned). Each role
// is a concrete [Engine] implementation registered at startup; the
// orchestrator fans a chunk out to whichever roles the route warrants.
//
// Unlike a streaming session API, the contract here is intentionally
// synchronous and one-shot per chunk: engines receive a complete,
// already-bounded [types.AudioChunk] and return a single [types.Hypothesis].
// This matches the chunk-level granularity the rest of the pipeline
// operates at — there is no interim/partial result concept above the ASR
// layer.
package asr

import (
	"context"

	"github.com/gurbani-transcribe/core/pkg/types"
)

// Engine produces a Hypothesis for a given AudioChunk. languageHint is a
// BCP-47-ish code (e.g. "pa", "en") the router derived from the chunk's
// Route; engines may ignore it only if they perform equally well without.
//
// Implementations must be deterministic given the same inputs and model
// state, and must never panic on bad input — on internal failure they
// return an error, letting the caller construct the empty/engine_error
// Hypothesis that EmptyHypothesis builds.
type Engine interface {
	// Transcribe runs inference on chunk and returns a Hypothesis. The
	// returned Hypothesis.EngineID must be stable across calls so that
	// fusion's engine-priority tie-break can identify it.
	Transcribe(ctx context.Context, chunk types.AudioChunk, languageHint string) (types.Hypothesis, error)

	// EngineID returns the stable identifier this engine tags its
	// hypotheses with (e.g. "whisper-general", "sherpa-indic").
	EngineID() string
}

// EmptyHypothesis builds the "engine failed" Hypothesis the contract
// requires on error: empty text, zero confidence, and an engine_error
// reason sufficient for fusion to ignore it (spec §4.4).
func EmptyHypothesis(engineID, reason string) types.Hypothesis {
	return types.Hypothesis{
		EngineID:    engineID,
		Text:        "",
		Confidence:  0,
		EngineError: reason,
	}
}
