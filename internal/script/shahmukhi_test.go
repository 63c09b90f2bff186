package script

import "testing"

func TestConvertShahmukhiDictionaryHit(t *testing.T) {
	got, frac := convertShahmukhi("دا")
	if got != "ਦਾ" {
		t.Errorf("got %q", got)
	}
	if frac != 1.0 {
		t.Errorf("expected full dictionary fraction, got %v", frac)
	}
}

func TestConvertShahmukhiPreservesNonWordRuns(t *testing.T) {
	got, _ := convertShahmukhi("دا، دی")
	if got != "ਦਾ، ਦੀ" {
		t.Errorf("got %q", got)
	}
}

func TestConvertShahmukhiRuleLayerFallback(t *testing.T) {
	// A word absent from the dictionary falls to the per-character rule
	// layer; the fraction should drop below 1.0.
	_, frac := convertShahmukhi("دا ککہ")
	if frac >= 1.0 {
		t.Errorf("expected a rule-layer hit to lower the dictionary fraction, got %v", frac)
	}
}

func TestConvertShahmukhiNoShahmukhiWordsHasFullFraction(t *testing.T) {
	got, frac := convertShahmukhi("123")
	if got != "123" {
		t.Errorf("got %q", got)
	}
	if frac != 1.0 {
		t.Errorf("got %v", frac)
	}
}
