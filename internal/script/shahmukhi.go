package script

import (
	"strings"
	"unicode"

	"github.com/antzucaro/matchr"
)

// shahmukhiDict is the frozen Shahmukhi→Gurmukhi whole-word lexicon from
// spec.md §4.6 step 3's dictionary layer. It covers the function words and
// common vocabulary that dominate spoken katha — the long tail falls
// through to the rule layer below. Frozen: never mutated at runtime.
var shahmukhiDict = map[string]string{
	"تے":   "ਤੇ",
	"اتے":  "ਅਤੇ",
	"دا":   "ਦਾ",
	"دی":   "ਦੀ",
	"دے":   "ਦੇ",
	"وچ":   "ਵਿਚ",
	"نوں":  "ਨੂੰ",
	"اچ":   "ਇਚ",
	"ہے":   "ਹੈ",
	"ہیں":  "ਹਨ",
	"سی":   "ਸੀ",
	"نال":  "ਨਾਲ",
	"توں":  "ਤੋਂ",
	"اس":   "ਇਸ",
	"ایہ":  "ਇਹ",
	"اوہ":  "ਉਹ",
	"جو":   "ਜੋ",
	"کہ":   "ਕਿ",
	"کوئی": "ਕੋਈ",
	"سب":   "ਸਭ",
	"ہر":   "ਹਰ",
	"گرو":   "ਗੁਰੂ",
	"واہگرو": "ਵਾਹਿਗੁਰੂ",
	"ستنام":  "ਸਤਿਨਾਮ",
}

// dictFuzzyFloor is the minimum Jaro-Winkler similarity (matchr.JaroWinkler,
// reusing the same library internal/quote and internal/fusion already
// depend on — see phonetic.go's phonetic+fuzzy pattern) against a
// dictionary key for a near-miss spelling to still count as a dictionary
// hit rather than falling to the rule layer.
const dictFuzzyFloor = 0.92

// consonantRules maps a Shahmukhi (Perso-Arabic) consonant letter to its
// deterministic Gurmukhi consonant, per spec.md §4.6 step 3's rule layer.
// Several Arabic letters that are phonemically merged in Punjabi collapse
// onto the same Gurmukhi target; this is expected and matches how
// Shahmukhi orthography itself over-specifies Arabic/Persian loan
// consonants no longer phonemically distinct in Punjabi.
var consonantRules = map[rune]string{
	'ب': "ਬ", 'پ': "ਪ", 'ت': "ਤ", 'ٹ': "ਟ", 'ث': "ਸ",
	'ج': "ਜ", 'چ': "ਚ", 'ح': "ਹ", 'خ': "ਖ", 'د': "ਦ",
	'ڈ': "ਡ", 'ذ': "ਜ਼", 'ر': "ਰ", 'ڑ': "ੜ", 'ز': "ਜ਼",
	'ژ': "ਜ਼", 'س': "ਸ", 'ش': "ਸ਼", 'ص': "ਸ", 'ض': "ਜ਼",
	'ط': "ਤ", 'ظ': "ਜ਼", 'غ': "ਗ਼", 'ف': "ਫ਼", 'ق': "ਕ",
	'ک': "ਕ", 'گ': "ਗ", 'ل': "ਲ", 'م': "ਮ", 'ن': "ਨ",
	'ء': "ਅ",
}

// aspirationPairs maps a base Gurmukhi consonant to its aspirated form, for
// when ھ (do-chashmi he) follows a consonant to mark aspiration rather
// than standing alone as a vowel carrier.
var aspirationPairs = map[string]string{
	"ਕ": "ਖ", "ਗ": "ਘ", "ਚ": "ਛ", "ਜ": "ਝ", "ਟ": "ਠ",
	"ਡ": "ਢ", "ਤ": "ਥ", "ਦ": "ਧ", "ਪ": "ਫ", "ਬ": "ਭ",
}

const (
	nunGhunna   = 'ں' // nasalization glyph: spec.md §4.6 step 3
	doChashmiHe = 'ھ'
	alif        = 'ا'
	waw         = 'و'
	choTiYe     = 'ی'
	badiYe      = 'ے'
	golHe       = 'ہ'
)

// convertShahmukhi implements spec.md §4.6 step 3: whole-word dictionary
// lookup first, per-character rule mapping as fallback. Non-Shahmukhi runs
// (whitespace, punctuation, digits, already-Gurmukhi text the detector
// scored below the mixed threshold) pass through unchanged, preserving
// §4.6's "never discards content" guarantee.
//
// Returns the converted Gurmukhi text and the fraction of words resolved
// via the dictionary layer (including fuzzy near-misses), used by
// Convert to compute conversion_confidence per step 6. Fraction is 1.0 if
// the text contained no Shahmukhi words.
func convertShahmukhi(text string) (string, float64) {
	var b strings.Builder
	dictHits, ruleHits := 0, 0

	runes := []rune(text)
	i := 0
	for i < len(runes) {
		if !isShahmukhiRune(runes[i]) {
			b.WriteRune(runes[i])
			i++
			continue
		}
		j := i
		for j < len(runes) && isShahmukhiRune(runes[j]) {
			j++
		}
		word := string(runes[i:j])
		if g, ok := lookupDict(word); ok {
			b.WriteString(g)
			dictHits++
		} else {
			b.WriteString(convertShahmukhiWord(word))
			ruleHits++
		}
		i = j
	}

	total := dictHits + ruleHits
	if total == 0 {
		return b.String(), 1.0
	}
	return b.String(), float64(dictHits) / float64(total)
}

func isShahmukhiRune(r rune) bool {
	return r >= arabicLo && r <= arabicHi
}

// lookupDict tries an exact match first, then a fuzzy match against every
// dictionary key, accepting the closest one above dictFuzzyFloor.
func lookupDict(word string) (string, bool) {
	if g, ok := shahmukhiDict[word]; ok {
		return g, true
	}
	bestScore := 0.0
	bestGurmukhi := ""
	for k, g := range shahmukhiDict {
		score := matchr.JaroWinkler(word, k, false)
		if score > bestScore {
			bestScore = score
			bestGurmukhi = g
		}
	}
	if bestScore >= dictFuzzyFloor {
		return bestGurmukhi, true
	}
	return "", false
}

// convertShahmukhiWord applies the per-character rule layer to a single
// Shahmukhi word not resolved by the dictionary.
func convertShahmukhiWord(word string) string {
	runes := []rune(word)
	var b strings.Builder

	for idx, r := range runes {
		atStart := idx == 0
		atEnd := idx == len(runes)-1

		switch r {
		case nunGhunna:
			b.WriteRune('ੰ') // tippi: nasalization glyph maps to the nasal mark

		case doChashmiHe:
			cur := b.String()
			if cur != "" {
				lastConsonant := lastRuneString(cur)
				if aspirated, ok := aspirationPairs[lastConsonant]; ok {
					b2 := trimLastRuneString(cur)
					b.Reset()
					b.WriteString(b2)
					b.WriteString(aspirated)
					continue
				}
			}
			b.WriteString("ਹ")

		case alif:
			if atStart {
				b.WriteString("ਅ")
			} else {
				b.WriteString("ਾ")
			}

		case waw:
			if atStart {
				b.WriteString("ਉ")
			} else {
				b.WriteString("ਵ")
			}

		case choTiYe:
			if atStart {
				b.WriteString("ਇ")
			} else {
				b.WriteString("ੀ")
			}

		case badiYe:
			if atEnd {
				b.WriteString("ੇ")
			} else {
				b.WriteString("ਏ")
			}

		case golHe:
			// Word-final he is usually a silent vowel-length marker in
			// Shahmukhi; medially it's a consonant. Gurmukhi has no silent
			// counterpart, so both map to ਹ and rely on the dictionary
			// layer for the common words where this matters.
			b.WriteString("ਹ")

		default:
			if g, ok := consonantRules[r]; ok {
				b.WriteString(g)
			} else if !unicode.Is(unicode.Mn, r) {
				// Unmapped, non-combining codepoint: pass through rather
				// than silently drop it.
				b.WriteRune(r)
			}
		}
	}

	return b.String()
}

// lastRuneString returns s's last rune as a single-rune string.
func lastRuneString(s string) string {
	r := []rune(s)
	if len(r) == 0 {
		return ""
	}
	return string(r[len(r)-1])
}

// trimLastRuneString returns s with its last rune removed.
func trimLastRuneString(s string) string {
	r := []rune(s)
	if len(r) == 0 {
		return s
	}
	return string(r[:len(r)-1])
}
