// Package postgres implements pkg/scripture.Index against a Postgres table
// with a pgvector column, for deployments that enable semantic (embedding)
// candidate search in the Quote Engine's Stage B (spec.md §12). Grounded on
// the teacher's pkg/memory/postgres semantic index: same pgxpool +
// pgvector-go + pgx.CollectRows shape, repurposed from conversational
// memory chunks to immutable scripture lines.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"

	"github.com/gurbani-transcribe/core/pkg/provider/embeddings"
	"github.com/gurbani-transcribe/core/pkg/scripture"
	"github.com/gurbani-transcribe/core/pkg/types"
)

// ScriptureIndex is a Postgres + pgvector backed scripture.Index. Unlike
// scripture.MemoryIndex, SearchText ranks candidates by cosine distance
// between an embedding of the query text and each line's pre-computed
// embedding column, rather than token overlap.
//
// The scripture corpus is immutable at runtime (spec.md's corpus
// invariant) — this type exposes no write methods beyond the one-time
// Seed used to load the corpus.
type ScriptureIndex struct {
	pool     *pgxpool.Pool
	embedder embeddings.Provider
}

var _ scripture.Index = (*ScriptureIndex)(nil)

// New wraps an existing pgxpool.Pool. The scripture_lines table must
// already exist with a pgvector embedding column sized to embedder's
// Dimensions().
func New(pool *pgxpool.Pool, embedder embeddings.Provider) *ScriptureIndex {
	return &ScriptureIndex{pool: pool, embedder: embedder}
}

// Seed upserts lines into scripture_lines, embedding each line's Gurmukhi
// text via the configured embedder. Intended for one-time corpus loading,
// not the hot path.
func (s *ScriptureIndex) Seed(ctx context.Context, lines []types.ScriptureLine) error {
	for _, line := range lines {
		vec, err := s.embedder.Embed(ctx, line.Gurmukhi)
		if err != nil {
			return fmt.Errorf("scripture/postgres: embed %s: %w", line.LineID, err)
		}

		const q = `
			INSERT INTO scripture_lines
			    (line_id, source, gurmukhi, roman, ang, raag, author, shabad_id, line_position, embedding)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			ON CONFLICT (line_id) DO UPDATE SET
			    source        = EXCLUDED.source,
			    gurmukhi      = EXCLUDED.gurmukhi,
			    roman         = EXCLUDED.roman,
			    ang           = EXCLUDED.ang,
			    raag          = EXCLUDED.raag,
			    author        = EXCLUDED.author,
			    shabad_id     = EXCLUDED.shabad_id,
			    line_position = EXCLUDED.line_position,
			    embedding     = EXCLUDED.embedding`

		_, err = s.pool.Exec(ctx, q,
			line.LineID, line.Source, line.Gurmukhi, line.Roman, line.Ang,
			line.Raag, line.Author, line.ShabadID, line.LinePosition,
			pgvector.NewVector(vec),
		)
		if err != nil {
			return fmt.Errorf("scripture/postgres: seed %s: %w", line.LineID, err)
		}
	}
	return nil
}

func (s *ScriptureIndex) Lookup(ctx context.Context, lineID string) (types.ScriptureLine, bool, error) {
	const q = `
		SELECT line_id, source, gurmukhi, roman, ang, raag, author, shabad_id, line_position
		FROM   scripture_lines
		WHERE  line_id = $1`

	row := s.pool.QueryRow(ctx, q, lineID)
	var line types.ScriptureLine
	err := row.Scan(
		&line.LineID, &line.Source, &line.Gurmukhi, &line.Roman, &line.Ang,
		&line.Raag, &line.Author, &line.ShabadID, &line.LinePosition,
	)
	if err == pgx.ErrNoRows {
		return types.ScriptureLine{}, false, nil
	}
	if err != nil {
		return types.ScriptureLine{}, false, fmt.Errorf("scripture/postgres: lookup %s: %w", lineID, err)
	}
	return line, true, nil
}

// SearchText embeds text and returns the topK scripture lines by ascending
// cosine distance (converted to a similarity score: 1 - distance).
func (s *ScriptureIndex) SearchText(ctx context.Context, text string, topK int) ([]scripture.ScoredLine, error) {
	if topK <= 0 {
		topK = 1
	}

	queryVec, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("scripture/postgres: embed query: %w", err)
	}

	const q = `
		SELECT line_id, source, gurmukhi, roman, ang, raag, author, shabad_id, line_position,
		       embedding <=> $1 AS distance
		FROM   scripture_lines
		ORDER  BY distance
		LIMIT  $2`

	rows, err := s.pool.Query(ctx, q, pgvector.NewVector(queryVec), topK)
	if err != nil {
		return nil, fmt.Errorf("scripture/postgres: search: %w", err)
	}

	results, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (scripture.ScoredLine, error) {
		var (
			sl       scripture.ScoredLine
			distance float64
		)
		if err := row.Scan(
			&sl.Line.LineID, &sl.Line.Source, &sl.Line.Gurmukhi, &sl.Line.Roman, &sl.Line.Ang,
			&sl.Line.Raag, &sl.Line.Author, &sl.Line.ShabadID, &sl.Line.LinePosition,
			&distance,
		); err != nil {
			return scripture.ScoredLine{}, err
		}
		sl.Score = 1 - distance
		return sl, nil
	})
	if err != nil {
		return nil, fmt.Errorf("scripture/postgres: scan rows: %w", err)
	}
	if results == nil {
		results = []scripture.ScoredLine{}
	}
	return results, nil
}

// Len returns the number of rows in scripture_lines.
func (s *ScriptureIndex) Len() int {
	var n int
	if err := s.pool.QueryRow(context.Background(), `SELECT count(*) FROM scripture_lines`).Scan(&n); err != nil {
		return 0
	}
	return n
}
