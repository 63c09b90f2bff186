package romanize

import (
	"context"
	"fmt"

	"github.com/gurbani-transcribe/core/pkg/types"
)

// Multi dispatches to Aksharamukha for the academic schemes and to
// Practical for the simplified scheme, so callers configure one
// Romanizer regardless of which scheme a given text needs.
type Multi struct {
	akshara   *Aksharamukha
	practical *Practical
}

// NewMulti builds a Romanizer that routes iso15919/iast to akshara and
// practical to practical.
func NewMulti(akshara *Aksharamukha, practical *Practical) *Multi {
	return &Multi{akshara: akshara, practical: practical}
}

func (m *Multi) Romanize(ctx context.Context, gurmukhi string, scheme types.RomanizationScheme) (string, error) {
	switch scheme {
	case types.SchemeISO15919, types.SchemeIAST:
		return m.akshara.Romanize(ctx, gurmukhi, scheme)
	case types.SchemePractical:
		return m.practical.Romanize(ctx, gurmukhi, scheme)
	default:
		return "", fmt.Errorf("romanize: unknown scheme %q", scheme)
	}
}
