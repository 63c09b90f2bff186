// Package denoise resolves a configured denoise.backend name (spec.md §6)
// to a concrete audio.Denoiser. Kept separate from pkg/audio itself so that
// pkg/audio/spectral can depend on the audio.Denoiser interface without an
// import cycle.
package denoise

import (
	"fmt"

	"github.com/gurbani-transcribe/core/pkg/audio"
	"github.com/gurbani-transcribe/core/pkg/audio/spectral"
)

// New resolves backend (one of "spectral", "learned1", "learned2" per
// internal/config's validDenoiseBackends) to a concrete Denoiser.
// learned1/learned2 are registered as no-op passthroughs: they document the
// extension point for a learned-model backend without implementing model
// internals, which are out of scope (spec.md §1).
func New(backend string) (audio.Denoiser, error) {
	switch backend {
	case "spectral":
		return spectral.New(0), nil
	case "learned1", "learned2":
		return audio.NewPassthrough(backend), nil
	default:
		return nil, fmt.Errorf("denoise: unknown backend %q", backend)
	}
}
