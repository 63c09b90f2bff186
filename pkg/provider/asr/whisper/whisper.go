// Package whisper implements [asr.Engine] using the whisper.cpp Go bindings
// (CGO). The model is loaded once at construction and shared across all
// Transcribe calls; each call opens its own whisper.cpp context, since a
// context is not safe for concurrent use but the underlying model is.
//
// This backs ASR engine role A (general) always, and role C (english) when
// constructed with an English-pinned language hint and a smaller model —
// the spec names three logical roles sharing one interface (§4.4), and
// whisper.cpp's general multilingual model serves both ends of that
// spectrum depending on configuration.
package whisper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	whisperlib "github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"
	"github.com/gurbani-transcribe/core/pkg/provider/asr"
	"github.com/gurbani-transcribe/core/pkg/types"
)

var _ asr.Engine = (*Engine)(nil)

// Option is a functional option for configuring an Engine.
type Option func(*Engine)

// WithForcedLanguage pins the language hint passed to every Transcribe call,
// ignoring the caller-supplied hint. Used to construct the english-tuned
// role C instance from the same binding as role A.
func WithForcedLanguage(lang string) Option {
	return func(e *Engine) { e.forcedLanguage = lang }
}

// WithDefaultLanguage sets the language hint used when the caller passes an
// empty string and no forced language is configured. Defaults to "en".
func WithDefaultLanguage(lang string) Option {
	return func(e *Engine) { e.defaultLanguage = lang }
}

// Engine is a whisper.cpp-backed ASR engine.
type Engine struct {
	id              string
	model           whisperlib.Model
	defaultLanguage string
	forcedLanguage  string
}

// New loads the whisper.cpp model at modelPath and returns an Engine
// identified by engineID (e.g. "whisper-general", "whisper-english"). The
// caller must call Close when the engine is no longer needed.
func New(engineID, modelPath string, opts ...Option) (*Engine, error) {
	if modelPath == "" {
		return nil, errors.New("whisper: modelPath must not be empty")
	}
	model, err := whisperlib.New(modelPath)
	if err != nil {
		return nil, fmt.Errorf("whisper: load model %q: %w", modelPath, err)
	}

	e := &Engine{
		id:              engineID,
		model:           model,
		defaultLanguage: "en",
	}
	for _, o := range opts {
		o(e)
	}
	return e, nil
}

// Close releases the whisper.cpp model.
func (e *Engine) Close() error {
	if e.model != nil {
		return e.model.Close()
	}
	return nil
}

// EngineID implements asr.Engine.
func (e *Engine) EngineID() string { return e.id }

// Transcribe implements asr.Engine. Each call creates a fresh whisper.cpp
// context (contexts are not goroutine-safe; the model is) so concurrent
// calls into the same Engine instance from different chunks are safe.
func (e *Engine) Transcribe(ctx context.Context, chunk types.AudioChunk, languageHint string) (types.Hypothesis, error) {
	if err := ctx.Err(); err != nil {
		return types.Hypothesis{}, fmt.Errorf("whisper: context already cancelled: %w", err)
	}

	lang := languageHint
	if e.forcedLanguage != "" {
		lang = e.forcedLanguage
	} else if lang == "" {
		lang = e.defaultLanguage
	}

	samples := pcmToFloat32(chunk.Samples)

	wctx, err := e.model.NewContext()
	if err != nil {
		return types.Hypothesis{}, fmt.Errorf("whisper: create context: %w", err)
	}
	if err := wctx.SetLanguage(lang); err != nil {
		// Non-fatal: whisper.cpp falls back to auto-detection.
		lang = ""
	}

	if err := wctx.Process(samples, nil, nil, nil); err != nil {
		return types.Hypothesis{}, fmt.Errorf("whisper: process audio: %w", err)
	}

	var parts []string
	for {
		segment, err := wctx.NextSegment()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return types.Hypothesis{}, fmt.Errorf("whisper: read segment: %w", err)
		}
		text := strings.TrimSpace(segment.Text)
		if text == "" {
			continue
		}
		parts = append(parts, text)
	}

	text := strings.Join(parts, " ")

	confidence := 0.0
	var timings []types.WordTiming
	if text != "" {
		// whisper.cpp's Go bindings do not surface a per-segment confidence
		// score; a successful, non-empty transcription gets a neutral mid
		// confidence rather than 0 so fusion doesn't treat it as failed.
		confidence = 0.75
		timings = []types.WordTiming{{Word: text, StartSec: chunk.StartSec, EndSec: chunk.EndSec}}
	}

	return types.Hypothesis{
		EngineID:     e.id,
		Text:         text,
		LanguageCode: lang,
		Confidence:   confidence,
		WordTimings:  timings,
	}, nil
}

// pcmToFloat32 converts 16-bit signed PCM samples to float32 samples
// normalised to [-1.0, 1.0], the format whisper.cpp expects.
func pcmToFloat32(pcm []int16) []float32 {
	samples := make([]float32, len(pcm))
	for i, s := range pcm {
		samples[i] = float32(s) / 32768.0
	}
	return samples
}
