// Package sherpa implements [asr.Engine] using k2-fsa/sherpa-onnx-go's
// offline (non-streaming) recognizer, backed by the onnxruntime_go runtime.
// It fills ASR engine role B, the Indic-tuned engine the router favors for
// Punjabi and scripture-quote-likely chunks (spec §4.3-4.4).
package sherpa

import (
	"context"
	"errors"
	"fmt"

	sherpaonnx "github.com/k2-fsa/sherpa-onnx-go/sherpa_onnx"

	"github.com/gurbani-transcribe/core/pkg/provider/asr"
	"github.com/gurbani-transcribe/core/pkg/types"
)

var _ asr.Engine = (*Engine)(nil)

// ModelConfig locates the transducer model triple sherpa-onnx expects.
type ModelConfig struct {
	Encoder    string
	Decoder    string
	Joiner     string
	Tokens     string
	NumThreads int
}

// Engine is a sherpa-onnx-backed ASR engine, used as the Indic-tuned role.
type Engine struct {
	id         string
	recognizer *sherpaonnx.OfflineRecognizer
	sampleRate int
}

// New builds a sherpa-onnx offline recognizer from cfg. sampleRate must
// match the sample rate the chunker produces (spec default 16 kHz).
func New(engineID string, cfg ModelConfig, sampleRate int) (*Engine, error) {
	if cfg.Encoder == "" || cfg.Decoder == "" || cfg.Joiner == "" || cfg.Tokens == "" {
		return nil, errors.New("sherpa: encoder, decoder, joiner, and tokens paths are required")
	}
	threads := cfg.NumThreads
	if threads <= 0 {
		threads = 4
	}

	recConfig := sherpaonnx.OfflineRecognizerConfig{
		FeatConfig: sherpaonnx.FeatureConfig{
			SampleRate: sampleRate,
			FeatureDim: 80,
		},
		ModelConfig: sherpaonnx.OfflineModelConfig{
			Transducer: sherpaonnx.OfflineTransducerModelConfig{
				Encoder: cfg.Encoder,
				Decoder: cfg.Decoder,
				Joiner:  cfg.Joiner,
			},
			Tokens:     cfg.Tokens,
			NumThreads: threads,
			Debug:      0,
		},
		DecodingMethod: "greedy_search",
	}

	recognizer := sherpaonnx.NewOfflineRecognizer(&recConfig)
	if recognizer == nil {
		return nil, fmt.Errorf("sherpa: failed to create recognizer from model dir of %q", cfg.Encoder)
	}

	return &Engine{id: engineID, recognizer: recognizer, sampleRate: sampleRate}, nil
}

// Close releases the sherpa-onnx recognizer.
func (e *Engine) Close() error {
	if e.recognizer != nil {
		sherpaonnx.DeleteOfflineRecognizer(e.recognizer)
	}
	return nil
}

// EngineID implements asr.Engine.
func (e *Engine) EngineID() string { return e.id }

// Transcribe implements asr.Engine. languageHint is accepted for interface
// conformance but ignored: the underlying transducer model is trained for
// a single (Indic) language and does not support runtime language switching.
func (e *Engine) Transcribe(ctx context.Context, chunk types.AudioChunk, _ string) (types.Hypothesis, error) {
	if err := ctx.Err(); err != nil {
		return types.Hypothesis{}, fmt.Errorf("sherpa: context already cancelled: %w", err)
	}

	samples := pcmToFloat32(chunk.Samples)

	stream := sherpaonnx.NewOfflineStream(e.recognizer)
	defer sherpaonnx.DeleteOfflineStream(stream)

	stream.AcceptWaveform(e.sampleRate, samples)
	e.recognizer.Decode(stream)

	result := stream.GetResult()

	var timings []types.WordTiming
	if result.Text != "" {
		timings = []types.WordTiming{{Word: result.Text, StartSec: chunk.StartSec, EndSec: chunk.EndSec}}
	}

	confidence := 0.0
	if result.Text != "" {
		// sherpa-onnx's offline recognizer result does not carry an overall
		// confidence score; treat any non-empty decode as a confident hit,
		// consistent with the whisper.cpp engine's placeholder.
		confidence = 0.75
	}

	return types.Hypothesis{
		EngineID:    e.id,
		Text:        result.Text,
		Confidence:  confidence,
		WordTimings: timings,
	}, nil
}

// pcmToFloat32 converts 16-bit signed PCM samples to float32 samples
// normalised to [-1.0, 1.0], the format sherpa-onnx expects.
func pcmToFloat32(pcm []int16) []float32 {
	samples := make([]float32, len(pcm))
	for i, s := range pcm {
		samples[i] = float32(s) / 32768.0
	}
	return samples
}
