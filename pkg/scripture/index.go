// Package scripture defines the canonical scripture corpus lookup used by
// the Quote Engine's match stage (spec.md §4.1/§6): an immutable index of
// types.ScriptureLine records, looked up exactly by line ID and searchable
// by approximate (fuzzy/tokenized) text for candidates the ASR may have
// mis-transcribed.
package scripture

import (
	"context"

	"github.com/gurbani-transcribe/core/pkg/types"
)

// Index is the scripture corpus lookup contract. Implementations are
// read-only for the lifetime of a pipeline run — the corpus is immutable
// per spec.md's scripture-corpus invariant.
type Index interface {
	// Lookup returns the types.ScriptureLine with the exact LineID, or false if
	// no such line exists.
	Lookup(ctx context.Context, lineID string) (types.ScriptureLine, bool, error)

	// SearchText returns up to topK types.ScriptureLine candidates whose
	// Gurmukhi text approximately matches text, ranked by descending
	// similarity. Used by the Quote Engine's Stage A/B candidate search
	// when a spoken phrase is suspected to be a scripture quotation.
	SearchText(ctx context.Context, text string, topK int) ([]ScoredLine, error)

	// Len returns the number of lines in the corpus.
	Len() int
}

// ScoredLine pairs a types.ScriptureLine with the similarity score SearchText
// ranked it by; higher is more similar. The scoring method (token overlap,
// fuzzy string distance, or cosine similarity over embeddings) is
// implementation-defined — callers should treat Score as ordinal within a
// single SearchText call, not comparable across implementations.
type ScoredLine struct {
	Line  types.ScriptureLine
	Score float64
}
