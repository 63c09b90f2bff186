// Package fusion merges 1-3 per-engine ASR hypotheses for a single chunk
// into one fused hypothesis, and decides whether a re-decode pass is
// warranted (spec.md §4.5).
//
// Grounded on askidmobile-AIWisper/backend/ai/hybrid_transcription.go and
// voting_test.go: that file's confidence-calibration voting system
// (voteByCalibration, VoteResult/VoteDetails) is the template for this
// package's majority-vote-with-tie-break; its levenshteinDistance-based
// token similarity is replaced here with antzucaro/matchr (already the
// teacher's own edit-distance/phonetic library, see internal/quote) rather
// than hand-rolling a second implementation of the same algorithm.
package fusion

import (
	"strings"

	"github.com/antzucaro/matchr"
	"golang.org/x/text/unicode/norm"

	"github.com/gurbani-transcribe/core/internal/config"
	"github.com/gurbani-transcribe/core/pkg/types"
)

// Fuser combines hypotheses per §4.5's align/vote/confidence-merge/re-decode
// pipeline.
type Fuser struct {
	cfg      config.FusionConfig
	priority map[string]int // engine id/role -> rank, lower wins ties
}

// New builds a Fuser from cfg. Engine identifiers not listed in
// cfg.EnginePriority rank after every listed engine, in the order
// encountered.
func New(cfg config.FusionConfig) *Fuser {
	priority := make(map[string]int, len(cfg.EnginePriority))
	for i, id := range cfg.EnginePriority {
		priority[id] = i
	}
	return &Fuser{cfg: cfg, priority: priority}
}

// Fuse merges hyps (all covering the same chunk) into a FusionResult per
// §4.5. An empty hyps yields a zero FusionResult. Entries with a non-empty
// EngineError (empty text, confidence 0) are left out of both the vote and
// the mean confidence, which is taken over the usable hypotheses only.
func (f *Fuser) Fuse(hyps []types.Hypothesis) types.FusionResult {
	if len(hyps) == 0 {
		return types.FusionResult{}
	}

	usable := make([]types.Hypothesis, 0, len(hyps))
	for _, h := range hyps {
		if h.EngineError == "" && strings.TrimSpace(h.Text) != "" {
			usable = append(usable, h)
		}
	}

	if len(usable) == 0 {
		return types.FusionResult{PerEngineHypotheses: hyps, NeedsRedecode: true}
	}

	if len(usable) == 1 {
		return types.FusionResult{
			FusedText:           usable[0].Text,
			FusedConfidence:     usable[0].Confidence,
			PerEngineHypotheses: hyps,
			AgreementScore:      1.0,
			NeedsRedecode:       usable[0].Confidence < f.cfg.RedecodeFloor,
		}
	}

	tokenSets := make([][]string, len(usable))
	for i, h := range usable {
		tokenSets[i] = tokenize(h.Text)
	}

	agreement := meanPairwiseSimilarity(tokenSets)
	fusedTokens := f.vote(usable, tokenSets)
	fusedText := strings.Join(fusedTokens, " ")

	meanConf := meanConfidence(usable)
	fusedConfidence := meanConf * (0.5 + 0.5*agreement)

	return types.FusionResult{
		FusedText:           fusedText,
		FusedConfidence:     fusedConfidence,
		PerEngineHypotheses: hyps,
		AgreementScore:      agreement,
		NeedsRedecode:       fusedConfidence < f.cfg.RedecodeFloor,
	}
}

// NeedsReview implements §4.5's flag: low fused confidence or low
// cross-engine agreement.
func (f *Fuser) NeedsReview(result types.FusionResult) bool {
	return result.FusedConfidence < f.cfg.ReviewFloor || result.AgreementScore < f.cfg.AgreementFloor
}

// tokenize splits text on whitespace after NFC normalization, per §4.5
// step 1.
func tokenize(text string) []string {
	normalized := norm.NFC.String(text)
	return strings.Fields(normalized)
}

// meanPairwiseSimilarity computes the mean of normalized-edit-distance
// similarity between every pair of hypotheses' joined token sequences. A
// single hypothesis (handled by the caller before reaching here) has
// agreement 1.0 by convention; this helper always receives 2+ sets.
func meanPairwiseSimilarity(tokenSets [][]string) float64 {
	n := len(tokenSets)
	if n < 2 {
		return 1.0
	}
	var sum float64
	pairs := 0
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			sum += tokenSimilarity(tokenSets[i], tokenSets[j])
			pairs++
		}
	}
	if pairs == 0 {
		return 1.0
	}
	return sum / float64(pairs)
}

// tokenSimilarity computes 1 - (Levenshtein distance over token sequences
// joined with a separator unlikely to appear in either / max length), a
// word-level analogue of the char-level edit similarity used in
// internal/quote.
func tokenSimilarity(a, b []string) float64 {
	joinedA := strings.Join(a, "\x1f")
	joinedB := strings.Join(b, "\x1f")
	if joinedA == "" && joinedB == "" {
		return 1
	}
	dist := matchr.Levenshtein(joinedA, joinedB)
	maxLen := len([]rune(joinedA))
	if bl := len([]rune(joinedB)); bl > maxLen {
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

// vote chooses, for each aligned token position, the token agreed by the
// majority of hypotheses (by position index across the longest hypothesis),
// breaking ties by engine priority and then per-engine confidence, per
// §4.5 step 2.
//
// Position-index alignment is a deliberate simplification of a full
// edit-distance alignment (e.g. Needleman-Wunsch): hypotheses for a single
// short chunk rarely diverge in token count, and the engine-priority
// tie-break dominates the outcome in practice.
func (f *Fuser) vote(hyps []types.Hypothesis, tokenSets [][]string) []string {
	maxLen := 0
	for _, ts := range tokenSets {
		if len(ts) > maxLen {
			maxLen = len(ts)
		}
	}

	result := make([]string, 0, maxLen)
	for pos := 0; pos < maxLen; pos++ {
		result = append(result, f.voteAtPosition(hyps, tokenSets, pos))
	}
	return result
}

func (f *Fuser) voteAtPosition(hyps []types.Hypothesis, tokenSets [][]string, pos int) string {
	counts := make(map[string]int)
	var candidates []string
	for _, ts := range tokenSets {
		if pos < len(ts) {
			tok := ts[pos]
			if counts[tok] == 0 {
				candidates = append(candidates, tok)
			}
			counts[tok]++
		}
	}
	if len(candidates) == 0 {
		return ""
	}

	best := candidates[0]
	bestCount := counts[best]
	for _, c := range candidates[1:] {
		if counts[c] > bestCount {
			best, bestCount = c, counts[c]
		}
	}

	// Tie-break: among candidates sharing bestCount, prefer the one from
	// the highest-priority engine; secondary tie-break by that engine's
	// confidence.
	var tied []string
	for _, c := range candidates {
		if counts[c] == bestCount {
			tied = append(tied, c)
		}
	}
	if len(tied) == 1 {
		return tied[0]
	}

	bestTok := tied[0]
	bestRank := f.engineRankForToken(hyps, tokenSets, pos, bestTok)
	bestConf := f.engineConfidenceForToken(hyps, tokenSets, pos, bestTok)
	for _, c := range tied[1:] {
		rank := f.engineRankForToken(hyps, tokenSets, pos, c)
		conf := f.engineConfidenceForToken(hyps, tokenSets, pos, c)
		if rank < bestRank || (rank == bestRank && conf > bestConf) {
			bestTok, bestRank, bestConf = c, rank, conf
		}
	}
	return bestTok
}

// engineRankForToken returns the lowest (best) priority rank among engines
// whose token at pos equals tok.
func (f *Fuser) engineRankForToken(hyps []types.Hypothesis, tokenSets [][]string, pos int, tok string) int {
	best := len(f.priority) + len(hyps) // worse than any listed or unlisted engine
	for i, ts := range tokenSets {
		if pos < len(ts) && ts[pos] == tok {
			rank, ok := f.priority[hyps[i].EngineID]
			if !ok {
				rank = len(f.priority) + i
			}
			if rank < best {
				best = rank
			}
		}
	}
	return best
}

func (f *Fuser) engineConfidenceForToken(hyps []types.Hypothesis, tokenSets [][]string, pos int, tok string) float64 {
	var best float64
	for i, ts := range tokenSets {
		if pos < len(ts) && ts[pos] == tok {
			if hyps[i].Confidence > best {
				best = hyps[i].Confidence
			}
		}
	}
	return best
}

func meanConfidence(hyps []types.Hypothesis) float64 {
	if len(hyps) == 0 {
		return 0
	}
	var sum float64
	for _, h := range hyps {
		sum += h.Confidence
	}
	return sum / float64(len(hyps))
}
