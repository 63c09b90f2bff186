package script

import (
	"context"
	"testing"

	"github.com/gurbani-transcribe/core/internal/config"
	"github.com/gurbani-transcribe/core/internal/script/romanize"
	"github.com/gurbani-transcribe/core/pkg/types"
)

// stubRomanizer returns the input with a fixed suffix, letting tests
// assert the Converter called it without depending on the real
// aksharamukha/practical implementations.
type stubRomanizer struct{}

func (stubRomanizer) Romanize(_ context.Context, gurmukhi string, _ types.RomanizationScheme) (string, error) {
	return "ROMAN:" + gurmukhi, nil
}

func testScriptConfig() config.ScriptConfig {
	return config.ScriptConfig{
		RomanizationScheme: "practical",
		ScriptMixDelta:     0.15,
		ScriptReviewFloor:  0.6,
		ScriptPurityFloor:  0.8,
	}
}

func TestConvertEmptyInputYieldsConfidenceOne(t *testing.T) {
	c := New(testScriptConfig(), stubRomanizer{})
	got, err := c.Convert(context.Background(), "")
	if err != nil {
		t.Fatal(err)
	}
	if got.ConversionConfidence != 1.0 || got.OriginalScript != types.ScriptEmpty {
		t.Errorf("got %+v", got)
	}
}

func TestConvertEnglishPassesThroughUnchanged(t *testing.T) {
	c := New(testScriptConfig(), stubRomanizer{})
	got, err := c.Convert(context.Background(), "hello world")
	if err != nil {
		t.Fatal(err)
	}
	if got.Gurmukhi != "hello world" {
		t.Errorf("expected Gurmukhi field to pass through unchanged, got %q", got.Gurmukhi)
	}
	if got.Roman != "hello world" {
		t.Errorf("expected Roman to equal the text itself, got %q", got.Roman)
	}
}

func TestConvertGurmukhiRomanizesViaRomanizer(t *testing.T) {
	c := New(testScriptConfig(), stubRomanizer{})
	got, err := c.Convert(context.Background(), "ਸਤਿਨਾਮ")
	if err != nil {
		t.Fatal(err)
	}
	if got.OriginalScript != types.ScriptGurmukhi {
		t.Errorf("got script %v", got.OriginalScript)
	}
	if got.Roman != "ROMAN:"+got.Gurmukhi {
		t.Errorf("expected romanizer to be invoked, got %q", got.Roman)
	}
}

func TestConvertShahmukhiDictionaryWordConvertsToGurmukhi(t *testing.T) {
	c := New(testScriptConfig(), stubRomanizer{})
	got, err := c.Convert(context.Background(), "گرو")
	if err != nil {
		t.Fatal(err)
	}
	if got.Gurmukhi != "ਗੁਰੂ" {
		t.Errorf("got %q", got.Gurmukhi)
	}
	if got.ConversionConfidence <= 0 {
		t.Errorf("expected positive confidence, got %v", got.ConversionConfidence)
	}
}

func TestConvertLowConfidenceSetsNeedsReview(t *testing.T) {
	cfg := testScriptConfig()
	cfg.ScriptReviewFloor = 1.01 // force the review floor to exceed any real score
	c := New(cfg, stubRomanizer{})
	got, err := c.Convert(context.Background(), "ਸਤਿਨਾਮ")
	if err != nil {
		t.Fatal(err)
	}
	if !got.NeedsReview {
		t.Error("expected needs_review to be set")
	}
}

var _ romanize.Romanizer = stubRomanizer{}
