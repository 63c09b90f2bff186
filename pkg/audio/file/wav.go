// Package file decodes pre-recorded WAV files into mono PCM16 samples for
// spec.md's batch transcription mode.
package file

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/go-audio/wav"

	"github.com/gurbani-transcribe/core/pkg/audio"
)

// Decoder decodes a single WAV file, resampling and down-mixing to mono as
// needed. Grounded on the WAV dependency used by the `Jeff-Barlow-Spady-ramble`
// and `AshBuk-speak-to-ai` repos in the example corpus.
type Decoder struct {
	path string
}

var _ audio.Decoder = (*Decoder)(nil)

// New returns a Decoder for the WAV file at path.
func New(path string) *Decoder {
	return &Decoder{path: path}
}

// Decode reads the whole file, down-mixes to mono if recorded in stereo,
// and resamples to targetSampleRate. ctx cancellation is checked once
// before the (synchronous) decode begins; file decode is not itself
// interruptible mid-read.
func (d *Decoder) Decode(ctx context.Context, targetSampleRate int) ([]int16, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(d.path)
	if err != nil {
		return nil, fmt.Errorf("file: open %s: %w", d.path, err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("file: %s contains no audio data", d.path)
		}
		return nil, fmt.Errorf("file: decode %s: %w", d.path, err)
	}
	if buf.Format == nil {
		return nil, fmt.Errorf("file: %s: missing format chunk", d.path)
	}

	samples := toMono(buf.Data, buf.Format.NumChannels)
	return audio.ResampleMono16(samples, buf.Format.SampleRate, targetSampleRate), nil
}

// toMono converts interleaved int PCM samples (as decoded by go-audio/wav,
// already widened to int) to mono int16 by averaging channels.
func toMono(data []int, channels int) []int16 {
	if channels <= 1 {
		out := make([]int16, len(data))
		for i, v := range data {
			out[i] = clampInt16(v)
		}
		return out
	}

	frames := len(data) / channels
	out := make([]int16, frames)
	for i := range frames {
		sum := 0
		for ch := range channels {
			sum += data[i*channels+ch]
		}
		out[i] = clampInt16(sum / channels)
	}
	return out
}

func clampInt16(v int) int16 {
	if v > 32767 {
		return 32767
	}
	if v < -32768 {
		return -32768
	}
	return int16(v)
}
