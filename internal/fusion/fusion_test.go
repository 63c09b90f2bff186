package fusion

import (
	"testing"

	"github.com/gurbani-transcribe/core/internal/config"
	"github.com/gurbani-transcribe/core/pkg/types"
)

func testFusionConfig() config.FusionConfig {
	return config.FusionConfig{
		RedecodeFloor:  0.6,
		ReviewFloor:    0.5,
		AgreementFloor: 0.6,
		EnginePriority: []string{"general", "indic", "english"},
	}
}

func TestFuseSingleHypothesisPassesThroughUnchanged(t *testing.T) {
	f := New(testFusionConfig())
	result := f.Fuse([]types.Hypothesis{
		{EngineID: "general", Text: "ik oankar satnam", Confidence: 0.7},
	})
	if result.FusedText != "ik oankar satnam" {
		t.Errorf("got %q", result.FusedText)
	}
	if result.AgreementScore != 1.0 {
		t.Errorf("expected agreement 1.0, got %v", result.AgreementScore)
	}
}

func TestFuseIdenticalHypothesesAgreeFully(t *testing.T) {
	f := New(testFusionConfig())
	result := f.Fuse([]types.Hypothesis{
		{EngineID: "general", Text: "satnam karta purakh", Confidence: 0.8},
		{EngineID: "indic", Text: "satnam karta purakh", Confidence: 0.85},
	})
	if result.FusedText != "satnam karta purakh" {
		t.Errorf("got %q", result.FusedText)
	}
	if result.AgreementScore < 0.99 {
		t.Errorf("expected near-1.0 agreement, got %v", result.AgreementScore)
	}
}

func TestFuseEngineTieBreaksByPriority(t *testing.T) {
	f := New(testFusionConfig())
	// Two hypotheses with no token overlap at a given position: "general"
	// should win the tie per EnginePriority ordering.
	result := f.Fuse([]types.Hypothesis{
		{EngineID: "english", Text: "word", Confidence: 0.5},
		{EngineID: "general", Text: "term", Confidence: 0.5},
	})
	if result.FusedText != "term" {
		t.Errorf("expected general engine's token to win tie, got %q", result.FusedText)
	}
}

func TestFuseEngineErrorHypothesisIgnored(t *testing.T) {
	f := New(testFusionConfig())
	result := f.Fuse([]types.Hypothesis{
		{EngineID: "general", Text: "", Confidence: 0, EngineError: "timeout"},
		{EngineID: "indic", Text: "ang da paath", Confidence: 0.9},
	})
	if result.FusedText != "ang da paath" {
		t.Errorf("got %q", result.FusedText)
	}
	if result.AgreementScore != 1.0 {
		t.Errorf("expected single surviving hypothesis to have agreement 1.0, got %v", result.AgreementScore)
	}
}

func TestFuseAllEnginesFailedRequestsRedecode(t *testing.T) {
	f := New(testFusionConfig())
	result := f.Fuse([]types.Hypothesis{
		{EngineID: "general", EngineError: "crash"},
		{EngineID: "indic", EngineError: "crash"},
	})
	if !result.NeedsRedecode {
		t.Error("expected redecode to be requested when all engines failed")
	}
}

func TestFuseLowAgreementTriggersNeedsReview(t *testing.T) {
	f := New(testFusionConfig())
	result := f.Fuse([]types.Hypothesis{
		{EngineID: "general", Text: "completely different text here", Confidence: 0.9},
		{EngineID: "indic", Text: "totally unrelated words entirely", Confidence: 0.9},
	})
	if !f.NeedsReview(result) {
		t.Error("expected low-agreement fusion result to need review")
	}
}

func TestPlanRedecodeSkippedWhenAlreadyRedecoded(t *testing.T) {
	result := types.FusionResult{NeedsRedecode: true, FusedConfidence: 0.3}
	_, ok := PlanRedecode(result, true, "")
	if ok {
		t.Error("expected no redecode plan once already redecoded once")
	}
}

func TestPlanRedecodeRequestsHigherBeamWidth(t *testing.T) {
	result := types.FusionResult{NeedsRedecode: true, FusedConfidence: 0.3}
	plan, ok := PlanRedecode(result, false, "en")
	if !ok {
		t.Fatal("expected a redecode plan")
	}
	if !plan.HigherBeamWidth {
		t.Error("expected higher beam width requested")
	}
	if plan.AlternateLanguageHint != "en" {
		t.Errorf("got %q", plan.AlternateLanguageHint)
	}
}

func TestBetterPicksHigherConfidence(t *testing.T) {
	old := types.FusionResult{FusedText: "old", FusedConfidence: 0.5}
	candidate := types.FusionResult{FusedText: "new", FusedConfidence: 0.7}
	got := Better(old, candidate)
	if got.FusedText != "new" {
		t.Errorf("got %q", got.FusedText)
	}
}
