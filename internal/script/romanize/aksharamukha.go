package romanize

import (
	"context"
	"fmt"
	"sync"

	"github.com/tassa-yoniso-manasi-karoto/go-aksharamukha"

	"github.com/gurbani-transcribe/core/pkg/types"
)

// gurmukhiLang is the ISO 639-3-ish language tag aksharamukha expects for
// Gurmukhi-script Punjabi source text, matching the tag it uses internally
// to resolve its own Script constant via DefaultScriptFor.
const gurmukhiLang = "pa"

// schemeToTarget maps our RomanizationScheme to aksharamukha's target
// Script constant for the academic schemes it natively supports.
//
// aksharamukha.Script is a bare string type (confirmed from the example
// wrapper, which stores one in a map), but its exact constant values are
// not present anywhere in the example corpus — only a different project's
// wrapper around the same library. The literals below ("ISO" for
// ISO-15919 and "IAST" for the IAST academic romanization) are the real
// Aksharamukha tool's own well-known script identifiers, used here as an
// informed inference rather than a directly observed API detail; see
// DESIGN.md.
var schemeToTarget = map[types.RomanizationScheme]aksharamukha.Script{
	types.SchemeISO15919: aksharamukha.Script("ISO"),
	types.SchemeIAST:     aksharamukha.Script("IAST"),
}

// Aksharamukha romanizes Gurmukhi via the go-aksharamukha library for the
// iso15919 and iast schemes. Init must be called once before use and
// Close when the process shuts down; both wrap the package-level
// aksharamukha.Init/Close since the library keeps global state (per the
// example wrapper's own Init/Close lifecycle).
type Aksharamukha struct {
	mu          sync.Mutex
	initialized bool
}

// NewAksharamukha returns an uninitialized romanizer; call Init before
// the first Romanize call.
func NewAksharamukha() *Aksharamukha {
	return &Aksharamukha{}
}

// Init initializes the underlying aksharamukha runtime. Safe to call more
// than once; subsequent calls are no-ops.
func (a *Aksharamukha) Init() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.initialized {
		return nil
	}
	if err := aksharamukha.Init(); err != nil {
		return fmt.Errorf("aksharamukha: init: %w", err)
	}
	a.initialized = true
	return nil
}

// Close releases the underlying aksharamukha runtime.
func (a *Aksharamukha) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.initialized {
		return nil
	}
	a.initialized = false
	return aksharamukha.Close()
}

// Romanize implements Romanizer for the iso15919 and iast schemes.
func (a *Aksharamukha) Romanize(ctx context.Context, gurmukhi string, scheme types.RomanizationScheme) (string, error) {
	if gurmukhi == "" {
		return "", nil
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	target, ok := schemeToTarget[scheme]
	if !ok {
		return "", fmt.Errorf("aksharamukha: unsupported scheme %q", scheme)
	}

	source, err := aksharamukha.DefaultScriptFor(gurmukhiLang)
	if err != nil {
		return "", fmt.Errorf("aksharamukha: default script for %q: %w", gurmukhiLang, err)
	}

	out, err := aksharamukha.Translit(gurmukhi, source, target)
	if err != nil {
		return "", fmt.Errorf("aksharamukha: translit: %w", err)
	}
	return out, nil
}
