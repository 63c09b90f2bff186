// Package quote implements the Quote Engine (spec.md §4.7): candidate
// detection, three-stage assisted matching against the scripture index,
// and the canonical-replacement decision.
package quote

import (
	"regexp"
	"strings"

	"github.com/gurbani-transcribe/core/internal/config"
	"github.com/gurbani-transcribe/core/pkg/types"
)

const (
	signalRouteLikely    = 0.6
	signalCuePhrase      = 0.7
	signalVocabDensity   = 0.5
	signalArchaicLine    = 0.4
)

// shabadFinalMarkers are punctuation/tokens that commonly close a shabad
// line (archaic-structure signal, spec.md §4.7.1).
var shabadFinalMarkers = []string{"॥", "||", "।।"}

// Detector finds QuoteCandidates in a converted segment draft. Stateless
// and safe for concurrent use once built.
type Detector struct {
	cuePatterns     []*regexp.Regexp
	vocabRatioFloor float64
	lenWindowLo     int
	lenWindowHi     int
	vocabulary      map[string]struct{}
}

// NewDetector compiles cfg's cue phrases as case-insensitive substring
// patterns and builds a scripture vocabulary set from vocabWords (every
// distinct Gurmukhi token observed across the scripture corpus) for the
// vocabulary-density signal.
func NewDetector(cfg config.QuoteConfig, vocabWords map[string]struct{}) *Detector {
	patterns := make([]*regexp.Regexp, 0, len(cfg.CuePhrases))
	for _, phrase := range cfg.CuePhrases {
		patterns = append(patterns, regexp.MustCompile("(?i)"+regexp.QuoteMeta(phrase)))
	}
	return &Detector{
		cuePatterns:     patterns,
		vocabRatioFloor: cfg.VocabRatioFloor,
		lenWindowLo:     cfg.QuoteLenWindowLo,
		lenWindowHi:     cfg.QuoteLenWindowHi,
		vocabulary:      vocabWords,
	}
}

// Detect runs every signal in spec.md §4.7.1's table against a converted
// segment draft and returns zero or one QuoteCandidate (the draft's whole
// text is the candidate unit — this repo treats one ProcessedSegment as
// one candidate span, since chunking already bounds segments to
// utterance-sized windows).
func (d *Detector) Detect(route types.RouteKind, gurmukhiText string) (types.QuoteCandidate, bool) {
	tokens := strings.Fields(gurmukhiText)
	if len(tokens) == 0 {
		return types.QuoteCandidate{}, false
	}

	var reasons []string
	confidence := 0.0
	fire := func(signal float64, reason string) {
		reasons = append(reasons, reason)
		if signal > confidence {
			confidence = signal
		}
	}

	if route == types.RouteScriptureQuoteLikely {
		fire(signalRouteLikely, "route_scripture_quote_likely")
	}
	if d.matchesCuePhrase(gurmukhiText) {
		fire(signalCuePhrase, "cue_phrase_matched")
	}
	if ratio := d.vocabDensity(tokens); ratio >= d.vocabRatioFloor {
		fire(signalVocabDensity, "vocab_density")
	}
	if d.isArchaicLine(tokens, gurmukhiText) {
		fire(signalArchaicLine, "archaic_structure")
	}

	if len(reasons) == 0 {
		return types.QuoteCandidate{}, false
	}
	return types.QuoteCandidate{
		Text:                gurmukhiText,
		DetectionConfidence: confidence,
		Reasons:             reasons,
	}, true
}

func (d *Detector) matchesCuePhrase(text string) bool {
	for _, p := range d.cuePatterns {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}

func (d *Detector) vocabDensity(tokens []string) float64 {
	if len(d.vocabulary) == 0 || len(tokens) == 0 {
		return 0
	}
	hits := 0
	for _, tok := range tokens {
		if _, ok := d.vocabulary[strings.ToLower(tok)]; ok {
			hits++
		}
	}
	return float64(hits) / float64(len(tokens))
}

func (d *Detector) isArchaicLine(tokens []string, text string) bool {
	if len(tokens) < d.lenWindowLo || len(tokens) > d.lenWindowHi {
		return false
	}
	trimmed := strings.TrimSpace(text)
	for _, marker := range shabadFinalMarkers {
		if strings.HasSuffix(trimmed, marker) {
			return true
		}
	}
	return false
}

// DedupeCandidates removes candidates sharing identical text, keeping the
// first occurrence (spec.md §4.7.1: "Deduplicate candidates that share the
// same text").
func DedupeCandidates(candidates []types.QuoteCandidate) []types.QuoteCandidate {
	seen := make(map[string]struct{}, len(candidates))
	out := make([]types.QuoteCandidate, 0, len(candidates))
	for _, c := range candidates {
		if _, ok := seen[c.Text]; ok {
			continue
		}
		seen[c.Text] = struct{}{}
		out = append(out, c)
	}
	return out
}
