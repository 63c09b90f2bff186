package script

import "sort"

// markClass orders the combining-mark categories into the canonical
// sequence from spec.md §4.6 step 4: base consonant → nukta → vowel sign
// → nasalization → adhak.
type markClass int

const (
	classBase markClass = iota
	classNukta
	classVowelSign
	classNasalization
	classAdhak
)

const nuktaMark = 0x0A3C

// vowelSignRunes lists the dependent vowel signs (matras) that belong to
// classVowelSign.
var vowelSignRunes = map[rune]struct{}{
	0x0A3E: {}, 0x0A3F: {}, 0x0A40: {}, 0x0A41: {}, 0x0A42: {},
	0x0A47: {}, 0x0A48: {}, 0x0A4B: {}, 0x0A4C: {},
}

// nasalizationRunes lists tippi and bindi, the two nasalization marks
// step 4 chooses between.
var nasalizationRunes = map[rune]struct{}{
	0x0A70: {}, // tippi ੰ
	0x0A02: {}, // bindi ਂ
}

const adhakMark = 0x0A71

// tippiBeforeConsonant lists the consonants of the five stop classes
// (gutturals, palatals, retroflexes, dentals, labials, each with its own
// nasal) on which a nasal mark is written as tippi rather than bindi when
// no vowel sign follows.
var tippiBeforeConsonant = map[rune]struct{}{
	0x0A15: {}, 0x0A16: {}, 0x0A17: {}, 0x0A18: {}, 0x0A19: {}, // ka..nga
	0x0A1A: {}, 0x0A1B: {}, 0x0A1C: {}, 0x0A1D: {}, 0x0A1E: {}, // cha..nya
	0x0A1F: {}, 0x0A20: {}, 0x0A21: {}, 0x0A22: {}, 0x0A23: {}, // tta..nna
	0x0A24: {}, 0x0A25: {}, 0x0A26: {}, 0x0A27: {}, 0x0A28: {}, // ta..na
	0x0A2A: {}, 0x0A2B: {}, 0x0A2C: {}, 0x0A2D: {}, 0x0A2E: {}, // pa..ma
}

func classOf(r rune) markClass {
	if r == nuktaMark {
		return classNukta
	}
	if _, ok := vowelSignRunes[r]; ok {
		return classVowelSign
	}
	if _, ok := nasalizationRunes[r]; ok {
		return classNasalization
	}
	if r == adhakMark {
		return classAdhak
	}
	return classBase
}

// normalizeDiacritics implements spec.md §4.6 step 4 over Gurmukhi text:
// choosing tippi vs bindi, reordering combining marks into canonical
// order, and deduplicating stacked identical marks. Operates cluster by
// cluster, where a cluster is a base consonant (or independent vowel)
// followed by a maximal run of combining marks.
func normalizeDiacritics(text string) string {
	runes := []rune(text)
	var out []rune

	i := 0
	for i < len(runes) {
		out = append(out, runes[i])
		isBase := classOf(runes[i]) == classBase
		i++
		if !isBase {
			continue
		}

		clusterStart := i
		for i < len(runes) && classOf(runes[i]) != classBase {
			i++
		}
		marks := runes[clusterStart:i]
		if len(marks) == 0 {
			continue
		}

		marks = chooseNasalization(out[len(out)-1], marks)
		marks = dedupStacked(marks)
		sort.SliceStable(marks, func(a, b int) bool {
			return classOf(marks[a]) < classOf(marks[b])
		})
		out = append(out, marks...)
	}

	return string(out)
}

// chooseNasalization replaces any nasalization mark in marks with the one
// appropriate for base, per step 4's tippi/bindi rule: bindi whenever the
// cluster carries a vowel sign, otherwise tippi on a base listed in
// tippiBeforeConsonant and bindi on any other base.
func chooseNasalization(base rune, marks []rune) []rune {
	hasNasal := false
	for _, m := range marks {
		if _, ok := nasalizationRunes[m]; ok {
			hasNasal = true
			break
		}
	}
	if !hasNasal {
		return marks
	}

	hasVowelSign := false
	for _, m := range marks {
		if classOf(m) == classVowelSign {
			hasVowelSign = true
			break
		}
	}

	want := rune(0x0A02) // bindi by default
	if _, ok := tippiBeforeConsonant[base]; ok && !hasVowelSign {
		want = 0x0A70 // tippi
	}

	out := make([]rune, 0, len(marks))
	for _, m := range marks {
		if _, ok := nasalizationRunes[m]; ok {
			out = append(out, want)
			continue
		}
		out = append(out, m)
	}
	return out
}

// dedupStacked removes a mark that immediately repeats an identical mark
// already seen in this cluster.
func dedupStacked(marks []rune) []rune {
	seen := make(map[rune]struct{}, len(marks))
	out := make([]rune, 0, len(marks))
	for _, m := range marks {
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		out = append(out, m)
	}
	return out
}
