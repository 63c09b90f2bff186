// Package router assigns each AudioChunk a Route to guide ASR fan-out
// (spec.md §4.3).
//
// Grounded on MrWong99-glyphoxa/internal/mcp/tier/selector.go's heuristic
// Selector: an ordered priority list of keyword/state checks, functional
// defaults, and a result that always carries an explanatory reason string.
// That shape maps directly onto §4.3's ordered rule table, which likewise
// terminates in a mandatory "reason" field for audit.
package router

import (
	"strconv"
	"strings"

	"github.com/gurbani-transcribe/core/internal/config"
	"github.com/gurbani-transcribe/core/pkg/types"
)

// LangScore is one language's classifier confidence, as produced by an
// optional on-audio language-ID signal (spec.md §4.3's "fast on-audio
// language classifier, if available"). Top-level language codes are
// caller-defined (e.g. "pa", "en"); the Router only compares magnitudes.
type LangScore struct {
	Lang       string
	Confidence float64
}

// Input bundles every signal §4.3 names for a single chunk's decision.
type Input struct {
	// PrevRoute is the route assigned to the previous chunk in the same
	// job, or nil for the first chunk. Used as a tie-break when the
	// classifier is inconclusive.
	PrevRoute *types.RouteKind

	// LangScores holds the on-audio classifier's per-language confidences,
	// sorted by the caller in no particular order. Nil/empty means no
	// classifier is wired for this deployment, in which case the Router
	// falls through to the remaining signals.
	LangScores []LangScore

	// PreviewText is a cheap, possibly low-accuracy text rendition of the
	// chunk's speech used only to test cue-phrase and archaic-vocabulary
	// signals — never used as the final transcript. Callers with no
	// inexpensive preview pass available may leave this empty, in which
	// case those two signals simply never fire.
	PreviewText string

	// DurationSec is the chunk's length, used for the scripture_short_sec
	// rule.
	DurationSec float64
}

// Router classifies chunks into Routes using §4.3's ordered rule table.
type Router struct {
	cfg            config.RouterConfig
	archaicMarkers []string
}

// New builds a Router from cfg.
func New(cfg config.RouterConfig) *Router {
	return &Router{
		cfg:            cfg,
		archaicMarkers: append([]string(nil), cfg.ArchaicMarkers...),
	}
}

// Classify applies §4.3's rules in priority order and returns the
// resulting Route, whose Reason names the rule that fired.
func (r *Router) Classify(in Input) types.Route {
	lower := strings.ToLower(in.PreviewText)

	// Rule 1: scripture cue phrase + short chunk.
	if in.DurationSec > 0 && in.DurationSec < r.cfg.ScriptureShortSec {
		if phrase, ok := matchesAny(lower, r.cfg.CuePhrases); ok {
			return types.Route{
				Kind:   types.RouteScriptureQuoteLikely,
				Reason: "scripture cue phrase \"" + phrase + "\" in short chunk (" + floatStr(in.DurationSec) + "s)",
			}
		}
	}

	// Rule 2: confident single-language classifier result.
	if best, second, ok := topTwo(in.LangScores); ok {
		if best.Confidence >= r.cfg.LangIDFloor {
			if best.Confidence-second.Confidence < r.cfg.LangIDTieDelta && second.Confidence >= r.cfg.LangIDFloor-r.cfg.LangIDTieDelta {
				return types.Route{Kind: types.RouteMixed, Reason: "langid tie between " + best.Lang + " and " + second.Lang}
			}
			return types.Route{Kind: langRouteKind(best.Lang), Reason: "langid confidence " + floatStr(best.Confidence) + " for " + best.Lang}
		}

		// Rule 3: classifier below floor but top two within tie delta.
		if best.Confidence-second.Confidence < r.cfg.LangIDTieDelta {
			return types.Route{Kind: types.RouteMixed, Reason: "langid below floor, tied between " + best.Lang + " and " + second.Lang}
		}
	}

	// Archaic-vocabulary marker signal, when a preview text is available:
	// treated as a scripture-likely hint per §4.3's listed signal set.
	if in.PreviewText != "" {
		if marker, ok := matchesAny(lower, r.archaicMarkers); ok {
			return types.Route{Kind: types.RouteScriptureQuoteLikely, Reason: "archaic-vocabulary marker \"" + marker + "\""}
		}
	}

	// Fall back to the previous chunk's route when nothing else fired, to
	// avoid flapping within one continuous utterance.
	if in.PrevRoute != nil {
		return types.Route{Kind: *in.PrevRoute, Reason: "carried over from previous chunk"}
	}

	return types.Route{Kind: types.RouteUnknown, Reason: "no signal fired"}
}

func langRouteKind(lang string) types.RouteKind {
	switch strings.ToLower(lang) {
	case "pa", "punjabi", "pan":
		return types.RoutePunjabi
	case "en", "english", "eng":
		return types.RouteEnglish
	default:
		return types.RouteUnknown
	}
}

func matchesAny(lower string, phrases []string) (string, bool) {
	for _, p := range phrases {
		if p == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(p)) {
			return p, true
		}
	}
	return "", false
}

func floatStr(f float64) string {
	return strconv.FormatFloat(f, 'f', 2, 64)
}

func topTwo(scores []LangScore) (best, second LangScore, ok bool) {
	if len(scores) == 0 {
		return LangScore{}, LangScore{}, false
	}
	best = scores[0]
	for _, s := range scores[1:] {
		if s.Confidence > best.Confidence {
			second = best
			best = s
		} else if s.Confidence > second.Confidence {
			second = s
		}
	}
	return best, second, true
}
