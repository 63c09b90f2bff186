package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gurbani-transcribe/core/pkg/provider/asr/mock"
	"github.com/gurbani-transcribe/core/pkg/types"
)

func TestASRFallbackUsesFallbackOnPrimaryFailure(t *testing.T) {
	primary := mock.New("primary").WithResponse(types.Hypothesis{}, errors.New("boom"))
	secondary := mock.New("secondary").WithResponse(types.Hypothesis{Text: "sat sri akal"}, nil)

	cfg := FallbackConfig{CircuitBreaker: CircuitBreakerConfig{MaxFailures: 1, ResetTimeout: time.Minute}}
	fb := NewASRFallback("role-general", primary, "primary", cfg)
	fb.AddFallback("secondary", secondary)

	got, err := fb.Transcribe(context.Background(), types.AudioChunk{}, "pa")
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if got.Text != "sat sri akal" {
		t.Fatalf("expected fallback text, got %q", got.Text)
	}
	if got.EngineID != "role-general" {
		t.Fatalf("expected EngineID to be the fallback group's own id, got %q", got.EngineID)
	}
}

func TestASRFallbackReturnsEmptyHypothesisWhenAllFail(t *testing.T) {
	primary := mock.New("primary").WithResponse(types.Hypothesis{}, errors.New("boom"))

	cfg := FallbackConfig{CircuitBreaker: CircuitBreakerConfig{MaxFailures: 1, ResetTimeout: time.Minute}}
	fb := NewASRFallback("role-general", primary, "primary", cfg)

	got, err := fb.Transcribe(context.Background(), types.AudioChunk{}, "pa")
	if err == nil {
		t.Fatal("expected error when all engines fail")
	}
	if got.Text != "" || got.EngineError == "" {
		t.Fatalf("expected empty hypothesis with EngineError set, got %+v", got)
	}
}
