package script

import "github.com/gurbani-transcribe/core/pkg/types"

// Unicode block boundaries named by spec.md §4.6 step 2.
const (
	gurmukhiLo   = 0x0A00
	gurmukhiHi   = 0x0A7F
	arabicLo     = 0x0600 // Shahmukhi is written with the Arabic block.
	arabicHi     = 0x06FF
	devanagariLo = 0x0900
	devanagariHi = 0x097F
)

// detectScript counts codepoints per §4.6 step 2 and reports the dominant
// script, or mixed when the top two scripts' shares are within mixDelta of
// each other. Confidence is the dominant script's share of classified
// codepoints (1.0 for mixed ties isn't meaningful, so mixed reports the
// top share too, reflecting how close the call was).
func detectScript(text string, mixDelta float64) (types.Script, float64) {
	counts := map[types.Script]int{}
	total := 0

	for _, r := range text {
		switch {
		case r >= gurmukhiLo && r <= gurmukhiHi:
			counts[types.ScriptGurmukhi]++
			total++
		case r >= arabicLo && r <= arabicHi:
			counts[types.ScriptShahmukhi]++
			total++
		case r >= devanagariLo && r <= devanagariHi:
			counts[types.ScriptDevanagari]++
			total++
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
			counts[types.ScriptLatin]++
			total++
		}
	}

	if total == 0 {
		return types.ScriptEmpty, 1.0
	}

	type share struct {
		script types.Script
		frac   float64
	}
	shares := make([]share, 0, len(counts))
	for s, c := range counts {
		shares = append(shares, share{s, float64(c) / float64(total)})
	}

	best := shares[0]
	for _, s := range shares[1:] {
		if s.frac > best.frac {
			best = s
		}
	}

	secondFrac := 0.0
	for _, s := range shares {
		if s.script == best.script {
			continue
		}
		if s.frac > secondFrac {
			secondFrac = s.frac
		}
	}

	if best.frac-secondFrac < mixDelta {
		return types.ScriptMixed, best.frac
	}
	return best.script, best.frac
}
