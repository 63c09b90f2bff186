package scripture

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/antzucaro/matchr"

	"github.com/gurbani-transcribe/core/pkg/types"
)

// MemoryIndex is an in-process Index loaded entirely into memory from a
// newline-delimited JSON (ndjson) file, one types.ScriptureLine per line.
// ndjson tolerates schema variation across SGGS/Dasam Granth sources
// (spec.md §4.1/§6) because json.Decoder ignores unrecognised fields and
// zero-values missing ones — no migration step is needed when a source
// adds or drops a column.
//
// Read-only after Load; safe for concurrent use.
type MemoryIndex struct {
	lines   []types.ScriptureLine
	byID    map[string]int
	byToken map[string][]int // lowercased Gurmukhi word -> line indices
}

var _ Index = (*MemoryIndex)(nil)

// Load reads every line of path as a JSON-encoded types.ScriptureLine and
// builds the in-memory index. Blank lines are skipped.
func Load(path string) (*MemoryIndex, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("scripture: open %s: %w", path, err)
	}
	defer f.Close()

	idx := &MemoryIndex{
		byID:    make(map[string]int),
		byToken: make(map[string][]int),
	}

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" {
			continue
		}
		var line types.ScriptureLine
		if err := json.Unmarshal([]byte(raw), &line); err != nil {
			return nil, fmt.Errorf("scripture: %s:%d: %w", path, lineNo, err)
		}
		idx.add(line)
	}
	if err := scanner.Err(); err != nil && err != io.EOF {
		return nil, fmt.Errorf("scripture: read %s: %w", path, err)
	}
	return idx, nil
}

// NewFromLines builds a MemoryIndex directly from an in-memory slice,
// primarily for tests and for embedding a small bundled corpus.
func NewFromLines(lines []types.ScriptureLine) *MemoryIndex {
	idx := &MemoryIndex{
		byID:    make(map[string]int, len(lines)),
		byToken: make(map[string][]int),
	}
	for _, l := range lines {
		idx.add(l)
	}
	return idx
}

func (idx *MemoryIndex) add(line types.ScriptureLine) {
	pos := len(idx.lines)
	idx.lines = append(idx.lines, line)
	if line.LineID != "" {
		idx.byID[line.LineID] = pos
	}
	for _, tok := range tokenize(line.Gurmukhi) {
		idx.byToken[tok] = append(idx.byToken[tok], pos)
	}
}

func (idx *MemoryIndex) Lookup(_ context.Context, lineID string) (types.ScriptureLine, bool, error) {
	pos, ok := idx.byID[lineID]
	if !ok {
		return types.ScriptureLine{}, false, nil
	}
	return idx.lines[pos], true, nil
}

func (idx *MemoryIndex) Len() int { return len(idx.lines) }

// Lines returns every loaded scripture line, in load order. Used to merge
// a primary and secondary corpus into a single combined index.
func (idx *MemoryIndex) Lines() []types.ScriptureLine {
	return idx.lines
}

// Vocabulary returns the set of distinct lowercased Gurmukhi word tokens
// observed across the loaded corpus, for the quote detector's vocabulary-
// density signal (spec.md §4.7.1).
func (idx *MemoryIndex) Vocabulary() map[string]struct{} {
	vocab := make(map[string]struct{}, len(idx.byToken))
	for tok := range idx.byToken {
		vocab[tok] = struct{}{}
	}
	return vocab
}

// SearchText ranks candidate lines by a tokenized-overlap pre-filter
// (sharing at least one Gurmukhi word with text) followed by Jaro-Winkler
// string similarity against the full line — the same two-stage
// filter-then-rank shape as the teacher's phonetic entity matcher, applied
// here to scripture-line text instead of NPC entity names.
func (idx *MemoryIndex) SearchText(_ context.Context, text string, topK int) ([]ScoredLine, error) {
	if topK <= 0 {
		topK = 1
	}
	queryTokens := tokenize(text)
	if len(queryTokens) == 0 {
		return nil, nil
	}

	candidates := make(map[int]struct{})
	for _, tok := range queryTokens {
		for _, pos := range idx.byToken[tok] {
			candidates[pos] = struct{}{}
		}
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	queryNorm := strings.Join(queryTokens, " ")
	scored := make([]ScoredLine, 0, len(candidates))
	for pos := range candidates {
		line := idx.lines[pos]
		score := matchr.JaroWinkler(queryNorm, strings.Join(tokenize(line.Gurmukhi), " "), false)
		scored = append(scored, ScoredLine{Line: line, Score: score})
	}

	sort.Slice(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	if len(scored) > topK {
		scored = scored[:topK]
	}
	return scored, nil
}

// tokenize splits Gurmukhi (or any) text on whitespace and lowercases it.
// Gurmukhi script has no case distinction, but lowercasing normalizes any
// Roman/mixed-script tokens the same way.
func tokenize(s string) []string {
	return strings.Fields(strings.ToLower(s))
}
