package romanize

import (
	"context"
	"strings"
	"unicode"

	"github.com/gurbani-transcribe/core/pkg/types"
)

// consonants maps a Gurmukhi consonant codepoint (including the five
// nukta-bearing letters, which are their own codepoints) to its base
// Roman sound, without the inherent "a".
var consonants = map[rune]string{
	0x0A15: "k", 0x0A16: "kh", 0x0A17: "g", 0x0A18: "gh", 0x0A19: "ng",
	0x0A1A: "ch", 0x0A1B: "chh", 0x0A1C: "j", 0x0A1D: "jh", 0x0A1E: "ny",
	0x0A1F: "tt", 0x0A20: "tth", 0x0A21: "dd", 0x0A22: "ddh", 0x0A23: "nn",
	0x0A24: "t", 0x0A25: "th", 0x0A26: "d", 0x0A27: "dh", 0x0A28: "n",
	0x0A2A: "p", 0x0A2B: "ph", 0x0A2C: "b", 0x0A2D: "bh", 0x0A2E: "m",
	0x0A2F: "y", 0x0A30: "r", 0x0A32: "l", 0x0A33: "ll", 0x0A35: "v",
	0x0A36: "sh", 0x0A38: "s", 0x0A39: "h", 0x0A5C: "rr",
	0x0A59: "khh", 0x0A5A: "ghh", 0x0A5B: "z", 0x0A5E: "f",
}

// independentVowels maps a Gurmukhi independent vowel codepoint (one that
// stands alone, not attached to a preceding consonant) to its sound.
var independentVowels = map[rune]string{
	0x0A05: "a", 0x0A06: "aa", 0x0A07: "i", 0x0A08: "ii",
	0x0A09: "u", 0x0A0A: "uu", 0x0A0F: "e", 0x0A10: "ai",
	0x0A13: "o", 0x0A14: "au",
}

// vowelSigns maps a dependent vowel sign (matra) to the sound it gives the
// preceding consonant, overriding that consonant's inherent "a".
var vowelSigns = map[rune]string{
	0x0A3E: "aa", 0x0A3F: "i", 0x0A40: "ii", 0x0A41: "u", 0x0A42: "uu",
	0x0A47: "e", 0x0A48: "ai", 0x0A4B: "o", 0x0A4C: "au",
}

var digits = map[rune]string{
	0x0A66: "0", 0x0A67: "1", 0x0A68: "2", 0x0A69: "3", 0x0A6A: "4",
	0x0A6B: "5", 0x0A6C: "6", 0x0A6D: "7", 0x0A6E: "8", 0x0A6F: "9",
}

const (
	halant  = 0x0A4D // virama: suppresses the inherent vowel, no sound of its own
	adhak   = 0x0A71 // gemination mark preceding the consonant it doubles
	bindi   = 0x0A02
	tippi   = 0x0A70
	visarga = 0x0A03
)

// Practical implements the "practical" scheme from spec.md §4.6 step 5: a
// simplified, ASCII-only rendition with each consonant's inherent vowel
// spelled out and no diacritics, plus optional word-initial
// capitalization. There is no third-party "simplified Indic
// romanization" library in the example corpus or ecosystem tuned to this
// exact convention — every romanizer the pack references (aksharamukha)
// targets the academic schemes instead — so this scheme is a small,
// self-contained lookup table; see DESIGN.md.
type Practical struct {
	CapitalizeWords bool
}

// NewPractical returns a Practical romanizer. capitalizeWords enables
// spec.md §4.6 step 5's "optional word-initial capitalization".
func NewPractical(capitalizeWords bool) *Practical {
	return &Practical{CapitalizeWords: capitalizeWords}
}

// Romanize implements Romanizer for types.SchemePractical. scheme must be
// types.SchemePractical; any other value is an error, since this type
// only knows one convention.
func (p *Practical) Romanize(_ context.Context, gurmukhi string, scheme types.RomanizationScheme) (string, error) {
	if scheme != types.SchemePractical {
		return "", errUnsupportedScheme(scheme)
	}
	if gurmukhi == "" {
		return "", nil
	}

	runes := []rune(gurmukhi)
	var b strings.Builder
	geminate := false
	wordStart := true

	for i := 0; i < len(runes); i++ {
		r := runes[i]

		switch {
		case r == adhak:
			geminate = true
			continue

		case r == bindi || r == tippi:
			b.WriteString("n")

		case r == visarga:
			b.WriteString("h")

		case r == halant:
			// Suppresses the inherent vowel of the consonant just written;
			// nothing further to emit.

		case isSound(consonants, r):
			sound := consonants[r]
			if geminate {
				sound = string(sound[0]) + sound
				geminate = false
			}
			if p.CapitalizeWords && wordStart {
				sound = capitalizeFirst(sound)
			}
			b.WriteString(sound)
			wordStart = false

			// A following vowel sign overrides the inherent "a"; a
			// following halant suppresses it entirely; otherwise the
			// consonant carries its inherent "a".
			if i+1 < len(runes) {
				next := runes[i+1]
				if sound, ok := vowelSigns[next]; ok {
					b.WriteString(sound)
					i++
					continue
				}
				if next == halant {
					continue
				}
			}
			b.WriteString("a")

		case isSound(independentVowels, r):
			sound := independentVowels[r]
			if p.CapitalizeWords && wordStart {
				sound = capitalizeFirst(sound)
			}
			b.WriteString(sound)
			wordStart = false

		case isSound(digits, r):
			b.WriteString(digits[r])
			wordStart = false

		case unicode.IsSpace(r):
			b.WriteRune(r)
			wordStart = true

		default:
			// Unknown codepoints pass through unchanged per §4.6's guarantee.
			b.WriteRune(r)
			wordStart = false
		}
	}

	return b.String(), nil
}

func isSound(table map[rune]string, r rune) bool {
	_, ok := table[r]
	return ok
}

func capitalizeFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

type errUnsupportedScheme types.RomanizationScheme

func (e errUnsupportedScheme) Error() string {
	return "romanize: practical scheme invoked for unsupported scheme " + string(e)
}
