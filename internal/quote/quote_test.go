package quote

import (
	"context"
	"testing"

	"github.com/gurbani-transcribe/core/internal/config"
	"github.com/gurbani-transcribe/core/pkg/scripture"
	"github.com/gurbani-transcribe/core/pkg/types"
)

func testQuoteConfig() config.QuoteConfig {
	return config.QuoteConfig{
		DomainMode:       "generic",
		VocabRatioFloor:  0.4,
		QuoteLenWindowLo: 2,
		QuoteLenWindowHi: 10,
		FuzzyWeight:      0.6,
		SemanticWeight:   0.4,
		VerifierFloor:    0.5,
		LenRatioLo:       0.5,
		LenRatioHi:       2.0,
		AutoReplaceFloor: 0.90,
		ReviewFloor:      0.55,
		CuePhrases:       []string{"gurbani fermaya hai"},
		Stoplist:         []string{"hai", "de"},
	}
}

func TestDetectFiresOnRoute(t *testing.T) {
	d := NewDetector(testQuoteConfig(), nil)
	c, ok := d.Detect(types.RouteScriptureQuoteLikely, "ik oankar satnam")
	if !ok {
		t.Fatal("expected candidate")
	}
	if c.DetectionConfidence != signalRouteLikely {
		t.Errorf("got confidence %v, want %v", c.DetectionConfidence, signalRouteLikely)
	}
}

func TestDetectFiresOnCuePhrase(t *testing.T) {
	d := NewDetector(testQuoteConfig(), nil)
	c, ok := d.Detect(types.RouteUnknown, "as the gurbani fermaya hai in the shabad")
	if !ok {
		t.Fatal("expected candidate")
	}
	if c.DetectionConfidence != signalCuePhrase {
		t.Errorf("got confidence %v, want %v", c.DetectionConfidence, signalCuePhrase)
	}
}

func TestDetectNoSignalFires(t *testing.T) {
	d := NewDetector(testQuoteConfig(), nil)
	_, ok := d.Detect(types.RouteEnglish, "today we discuss the history of the gurdwara building fund")
	if ok {
		t.Error("expected no candidate")
	}
}

func TestDedupeCandidates(t *testing.T) {
	in := []types.QuoteCandidate{
		{Text: "a"}, {Text: "b"}, {Text: "a"},
	}
	out := DedupeCandidates(in)
	if len(out) != 2 {
		t.Fatalf("expected 2, got %d", len(out))
	}
}

func TestMatcherAcceptsStrongMatch(t *testing.T) {
	idx := scripture.NewFromLines([]types.ScriptureLine{
		{LineID: "sggs-1-1", Source: types.SourceSGGS, Gurmukhi: "ik oankar satnam karta purakh"},
	})
	m := NewMatcher(idx, testQuoteConfig())
	match, ok, err := m.Match(context.Background(), []string{"ik oankar satnam karta purakh"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatal("expected a match")
	}
	if match.Line.LineID != "sggs-1-1" {
		t.Errorf("got line %s", match.Line.LineID)
	}
	if match.MatchConfidence < testQuoteConfig().VerifierFloor {
		t.Errorf("expected confidence >= verifier floor, got %v", match.MatchConfidence)
	}
}

func TestMatcherRejectsUnrelatedText(t *testing.T) {
	idx := scripture.NewFromLines([]types.ScriptureLine{
		{LineID: "sggs-1-1", Source: types.SourceSGGS, Gurmukhi: "ik oankar satnam karta purakh"},
	})
	m := NewMatcher(idx, testQuoteConfig())
	_, ok, err := m.Match(context.Background(), []string{"totally unrelated everyday speech text"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("expected no match for unrelated text")
	}
}

func TestDecideAutoReplace(t *testing.T) {
	match := &types.QuoteMatch{Line: types.ScriptureLine{Gurmukhi: "canonical text"}, MatchConfidence: 0.95}
	d := Decide(match, 0.9, 0.55)
	if !d.Replace {
		t.Error("expected replace")
	}
}

func TestDecideNeedsReview(t *testing.T) {
	match := &types.QuoteMatch{Line: types.ScriptureLine{Gurmukhi: "canonical text"}, MatchConfidence: 0.7}
	d := Decide(match, 0.9, 0.55)
	if d.Replace {
		t.Error("expected no replace")
	}
	if !d.NeedsReview {
		t.Error("expected needs review")
	}
}

func TestDecideDiscard(t *testing.T) {
	match := &types.QuoteMatch{Line: types.ScriptureLine{Gurmukhi: "canonical text"}, MatchConfidence: 0.2}
	d := Decide(match, 0.9, 0.55)
	if d.Replace || d.NeedsReview || d.Match != nil {
		t.Error("expected discard")
	}
}

func TestApplyReplace(t *testing.T) {
	segment := &types.ProcessedSegment{Gurmukhi: "spoken approx", Kind: types.KindSpeech}
	match := &types.QuoteMatch{Line: types.ScriptureLine{Gurmukhi: "canonical", Roman: "canonical-roman"}, MatchConfidence: 0.95}
	d := Decide(match, 0.9, 0.55)
	Apply(segment, d, nil)
	if segment.Gurmukhi != "canonical" {
		t.Errorf("got %q", segment.Gurmukhi)
	}
	if segment.Roman != "canonical-roman" {
		t.Errorf("got %q", segment.Roman)
	}
	if segment.Kind != types.KindScriptureQuote {
		t.Errorf("got kind %q", segment.Kind)
	}
}
