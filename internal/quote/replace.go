package quote

import "github.com/gurbani-transcribe/core/pkg/types"

// Decision is the outcome of applying spec.md §4.7.3's replacement table to
// a QuoteMatch.
type Decision struct {
	Replace     bool
	NeedsReview bool
	Match       *types.QuoteMatch
}

// Decide evaluates spec.md §4.7.3's decision table in order. match is nil
// when Matcher.Match found no surviving pair, in which case the segment
// remains plain speech.
func Decide(match *types.QuoteMatch, autoReplaceFloor, reviewFloor float64) Decision {
	if match == nil {
		return Decision{}
	}

	switch {
	case match.MatchConfidence >= autoReplaceFloor:
		return Decision{Replace: true, NeedsReview: false, Match: match}
	case match.MatchConfidence >= reviewFloor:
		return Decision{Replace: false, NeedsReview: true, Match: match}
	default:
		return Decision{}
	}
}

// Apply mutates segment in place per a Decision: on Replace, the Gurmukhi
// (and Roman, if romanizeFallback is nil-safe to skip) text is swapped for
// the canonical scripture line; spoken_text is preserved unchanged per
// spec.md's invariant that replacement never discards the original ASR
// output.
func Apply(segment *types.ProcessedSegment, d Decision, romanizeFallback func(gurmukhi string) string) {
	if d.Match == nil {
		return
	}

	if d.Replace {
		segment.Gurmukhi = d.Match.Line.Gurmukhi
		if d.Match.Line.Roman != "" {
			segment.Roman = d.Match.Line.Roman
		} else if romanizeFallback != nil {
			segment.Roman = romanizeFallback(d.Match.Line.Gurmukhi)
		}
		segment.Kind = types.KindScriptureQuote
		segment.NeedsReview = false
	} else {
		segment.NeedsReview = d.NeedsReview
	}
	segment.QuoteMatch = d.Match
}
