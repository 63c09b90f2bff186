package fusion

import "github.com/gurbani-transcribe/core/pkg/types"

// RedecodePlan describes how the orchestrator should re-run ASR for a chunk
// whose fused confidence fell below the redecode floor, per §4.5 step 5.
type RedecodePlan struct {
	// HigherBeamWidth requests rerunning engine A with a wider beam.
	HigherBeamWidth bool
	// AlternateLanguageHint, if non-empty, requests a second pass with a
	// different language hint because the original appeared ambiguous.
	AlternateLanguageHint string
}

// PlanRedecode builds the redecode plan for a fusion result that already
// triggered NeedsRedecode. alreadyRedecoded must be true if this chunk has
// already been through one re-decode pass — §4.5 only allows a single
// retry, so the caller gets a zero-value (no-op) plan to signal "use the
// better of old vs new and stop."
//
// ambiguousLanguage is the route's secondary language guess, if the router
// flagged the chunk as mixed/uncertain; empty when not applicable.
func PlanRedecode(result types.FusionResult, alreadyRedecoded bool, ambiguousLanguage string) (RedecodePlan, bool) {
	if !result.NeedsRedecode || alreadyRedecoded {
		return RedecodePlan{}, false
	}
	return RedecodePlan{
		HigherBeamWidth:       true,
		AlternateLanguageHint: ambiguousLanguage,
	}, true
}

// Better returns whichever of old and candidate has the higher fused
// confidence, implementing §4.5's "use the better of old vs new" rule.
func Better(old, candidate types.FusionResult) types.FusionResult {
	if candidate.FusedConfidence > old.FusedConfidence {
		return candidate
	}
	return old
}
