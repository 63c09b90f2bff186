package quote

import (
	"context"
	"strings"

	"github.com/antzucaro/matchr"

	"github.com/gurbani-transcribe/core/internal/config"
	"github.com/gurbani-transcribe/core/pkg/scripture"
	"github.com/gurbani-transcribe/core/pkg/types"
)

const defaultTopK = 8

// Matcher runs spec.md §4.7.2's three assisted-matching stages for a
// single candidate against the scripture index.
type Matcher struct {
	index       scripture.Index
	fuzzyWeight float64
	semWeight   float64
	verifierFloor float64
	lenRatioLo  float64
	lenRatioHi  float64
	stoplist    map[string]struct{}
	topK        int
}

// NewMatcher builds a Matcher backed by index, configured from cfg.
func NewMatcher(index scripture.Index, cfg config.QuoteConfig) *Matcher {
	stop := make(map[string]struct{}, len(cfg.Stoplist))
	for _, w := range cfg.Stoplist {
		stop[strings.ToLower(w)] = struct{}{}
	}
	return &Matcher{
		index:         index,
		fuzzyWeight:   cfg.FuzzyWeight,
		semWeight:     cfg.SemanticWeight,
		verifierFloor: cfg.VerifierFloor,
		lenRatioLo:    cfg.LenRatioLo,
		lenRatioHi:    cfg.LenRatioHi,
		stoplist:      stop,
		topK:          defaultTopK,
	}
}

// scoredCandidate tracks, per retrieved scripture line, the per-stage
// scores needed to compute Stage C's verifier gate.
type scoredCandidate struct {
	line       types.ScriptureLine
	fuzzyScore float64
	semScore   float64
	combined   float64
}

// Match runs Stages A-C against every text variant (the fused Gurmukhi
// text plus each per-engine hypothesis' Gurmukhi rendition, when
// provided) and returns the single best QuoteMatch, or false if no
// candidate/line pair passes Stage C's verifier gate.
//
// A matcher failure (index unavailable) is returned as an error; callers
// must apply spec.md §4.7.2's error semantics (demote to plain speech,
// needs_review = true) themselves rather than have this method swallow it,
// since only the orchestrator knows how to attach that to a segment.
func (m *Matcher) Match(ctx context.Context, variants []string) (types.QuoteMatch, bool, error) {
	byLine := make(map[string]*scoredCandidate)

	for _, variant := range variants {
		variant = strings.TrimSpace(variant)
		if variant == "" {
			continue
		}
		results, err := m.index.SearchText(ctx, variant, m.topK)
		if err != nil {
			return types.QuoteMatch{}, false, err
		}
		for _, r := range results {
			fuzzy := normalizedEditSimilarity(variant, r.Line.Gurmukhi)
			sc, ok := byLine[r.Line.LineID]
			if !ok {
				sc = &scoredCandidate{line: r.Line}
				byLine[r.Line.LineID] = sc
			}
			if fuzzy > sc.fuzzyScore {
				sc.fuzzyScore = fuzzy
			}
		}
	}

	if len(byLine) == 0 {
		return types.QuoteMatch{}, false, nil
	}

	// Stage B: semantic verification (word-level content-token overlap).
	// variants[0] is treated as the representative spoken text for overlap
	// scoring — callers pass the fused text first by convention.
	spoken := ""
	if len(variants) > 0 {
		spoken = variants[0]
	}
	spokenContent := m.contentTokens(spoken)

	var best *scoredCandidate
	for _, sc := range byLine {
		sc.semScore = tokenOverlap(spokenContent, m.contentTokens(sc.line.Gurmukhi))
		sc.combined = m.fuzzyWeight*sc.fuzzyScore + m.semWeight*sc.semScore

		if !m.passesVerifier(spoken, sc) {
			continue
		}
		if best == nil || sc.combined > best.combined {
			best = sc
		}
	}

	if best == nil {
		return types.QuoteMatch{}, false, nil
	}
	return types.QuoteMatch{
		Line:            best.line,
		MatchConfidence: best.combined,
		FuzzyScore:      best.fuzzyScore,
		SemanticScore:   best.semScore,
		VerifierPassed:  true,
	}, true, nil
}

// passesVerifier implements Stage C: token-count ratio within bounds, at
// least one shared distinctive (stoplist-filtered) content token, and
// combined score above the verifier floor.
func (m *Matcher) passesVerifier(spoken string, sc *scoredCandidate) bool {
	spokenTokens := strings.Fields(spoken)
	lineTokens := strings.Fields(sc.line.Gurmukhi)
	if len(spokenTokens) == 0 || len(lineTokens) == 0 {
		return false
	}

	ratio := float64(len(spokenTokens)) / float64(len(lineTokens))
	if ratio < m.lenRatioLo || ratio > m.lenRatioHi {
		return false
	}

	if tokenOverlap(m.contentTokens(spoken), m.contentTokens(sc.line.Gurmukhi)) <= 0 {
		return false
	}

	return sc.combined >= m.verifierFloor
}

// contentTokens lowercases and tokenizes text, stripping stoplisted
// function words.
func (m *Matcher) contentTokens(text string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, tok := range strings.Fields(strings.ToLower(text)) {
		if _, stop := m.stoplist[tok]; stop {
			continue
		}
		out[tok] = struct{}{}
	}
	return out
}

// tokenOverlap returns the fraction of tokens in a that also appear in b,
// relative to the smaller set — a simple, symmetric-ish overlap measure
// used as Stage B's fallback when no embedding index is configured.
func tokenOverlap(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	small, large := a, b
	if len(b) < len(a) {
		small, large = b, a
	}
	hits := 0
	for tok := range small {
		if _, ok := large[tok]; ok {
			hits++
		}
	}
	return float64(hits) / float64(len(small))
}

// normalizedEditSimilarity computes 1 - (Levenshtein distance / max
// length), i.e. spec.md §4.7.2's "best_normalized_edit_similarity".
func normalizedEditSimilarity(a, b string) float64 {
	if a == "" && b == "" {
		return 1
	}
	dist := matchr.Levenshtein(a, b)
	maxLen := len([]rune(a))
	if bl := len([]rune(b)); bl > maxLen {
		maxLen = bl
	}
	if maxLen == 0 {
		return 1
	}
	sim := 1 - float64(dist)/float64(maxLen)
	if sim < 0 {
		sim = 0
	}
	return sim
}
