// Package romanize implements spec.md §4.6 step 5: turning normalized
// Gurmukhi text into a Roman transliteration under one of three schemes.
package romanize

import (
	"context"

	"github.com/gurbani-transcribe/core/pkg/types"
)

// Romanizer converts Gurmukhi text to a Roman rendition under scheme.
// Implementations must handle independent vs dependent vowels, gemination
// via adhak (ੱ), nasalization (ੰ, ਂ), nukta consonants (ਖ਼ ਗ਼ ਜ਼ ਫ਼ ਸ਼), and
// half-letter subjoined forms, per spec.md §4.6 step 5.
type Romanizer interface {
	Romanize(ctx context.Context, gurmukhi string, scheme types.RomanizationScheme) (string, error)
}
