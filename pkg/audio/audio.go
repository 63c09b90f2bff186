package audio

import "context"

// Decoder produces mono 16 kHz PCM16 samples from an audio source, whether
// a pre-recorded file (pkg/audio/file) or a live microphone device
// (pkg/audio/mic). Implementations resample to the target rate internally
// via ResampleMono16 so callers never see the source's native rate.
type Decoder interface {
	// Decode reads the full source and returns its samples at
	// targetSampleRate. Batch decoders (file) read to EOF; live decoders
	// block until the capture stream ends or ctx is cancelled.
	Decode(ctx context.Context, targetSampleRate int) ([]int16, error)
}

// Denoiser is a pluggable pre-chunker filter applied to raw PCM16 samples
// before they reach the VAD (spec.md §6 denoise.backend). Implementations
// must be safe for reuse across chunks within a single job but need not be
// safe for concurrent use.
type Denoiser interface {
	// Backend returns the strategy name, matching one of
	// denoise.backend's configured values.
	Backend() string
	// Denoise returns a filtered copy of samples. Implementations must not
	// mutate the input slice.
	Denoise(samples []int16) []int16
}

// passthroughDenoiser implements Denoiser as a no-op, used for backends
// that name a strategy without shipping a concrete filter.
type passthroughDenoiser struct {
	backend string
}

// NewPassthrough returns a Denoiser that returns samples unmodified under
// the given backend name. Used to register learned1/learned2 as documented
// stub extension points (SPEC_FULL.md §12) without implementing model
// internals, which are out of scope per spec.md §1.
func NewPassthrough(backend string) Denoiser {
	return passthroughDenoiser{backend: backend}
}

func (p passthroughDenoiser) Backend() string { return p.backend }

func (p passthroughDenoiser) Denoise(samples []int16) []int16 { return samples }
