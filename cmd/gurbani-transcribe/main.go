// Command gurbani-transcribe converts pre-recorded or live-microphone Sikh
// discourse audio into a Gurmukhi/Roman transcript with canonical scripture
// quotations restored, per spec.md's batch and live run contracts (§4.8).
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gurbani-transcribe/core/internal/chunker"
	"github.com/gurbani-transcribe/core/internal/config"
	"github.com/gurbani-transcribe/core/internal/fusion"
	"github.com/gurbani-transcribe/core/internal/observe"
	"github.com/gurbani-transcribe/core/internal/orchestrator"
	"github.com/gurbani-transcribe/core/internal/quote"
	"github.com/gurbani-transcribe/core/internal/resilience"
	"github.com/gurbani-transcribe/core/internal/router"
	"github.com/gurbani-transcribe/core/internal/script"
	"github.com/gurbani-transcribe/core/internal/script/romanize"
	"github.com/gurbani-transcribe/core/pkg/audio"
	"github.com/gurbani-transcribe/core/pkg/audio/denoise"
	"github.com/gurbani-transcribe/core/pkg/audio/file"
	"github.com/gurbani-transcribe/core/pkg/audio/mic"
	"github.com/gurbani-transcribe/core/pkg/provider/asr/sherpa"
	"github.com/gurbani-transcribe/core/pkg/provider/asr/whisper"
	"github.com/gurbani-transcribe/core/pkg/provider/embeddings"
	embeddingsollama "github.com/gurbani-transcribe/core/pkg/provider/embeddings/ollama"
	embeddingsopenai "github.com/gurbani-transcribe/core/pkg/provider/embeddings/openai"
	"github.com/gurbani-transcribe/core/pkg/provider/vad/energy"
	"github.com/gurbani-transcribe/core/pkg/scripture"
	scripturepg "github.com/gurbani-transcribe/core/pkg/scripture/postgres"
	"github.com/gurbani-transcribe/core/pkg/types"
)

func main() {
	os.Exit(run())
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	mode := flag.String("mode", "batch", "run mode: \"batch\" (transcribe a file) or \"listen\" (live microphone)")
	input := flag.String("input", "", "path to a WAV file to transcribe (batch mode)")
	output := flag.String("output", "", "path to write the JSON transcript (batch mode; stdout if empty)")
	device := flag.String("device", "", "microphone device name substring (listen mode; default system default)")
	flag.Parse()

	// ── Load configuration ────────────────────────────────────────────────────
	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "gurbani-transcribe: config file %q not found — copy configs/example.yaml to get started\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "gurbani-transcribe: %v\n", err)
		}
		return 1
	}

	// ── Logger ────────────────────────────────────────────────────────────────
	logger := newLogger(cfg.Server.LogLevel)
	slog.SetDefault(logger)

	shutdownObserve, err := observe.InitProvider(context.Background(), observe.ProviderConfig{
		ServiceName: "gurbani-transcribe",
	})
	if err != nil {
		slog.Error("failed to init observability providers", "err", err)
		return 1
	}
	defer func() { _ = shutdownObserve(context.Background()) }()

	slog.Info("gurbani-transcribe starting", "config", *configPath, "mode", *mode)

	orch, err := buildOrchestrator(context.Background(), cfg)
	if err != nil {
		slog.Error("failed to build pipeline", "err", err)
		return 1
	}

	switch *mode {
	case "batch":
		if *input == "" {
			fmt.Fprintln(os.Stderr, "gurbani-transcribe: -input is required in batch mode")
			return 1
		}
		return runBatch(orch, cfg, *input, *output)
	case "listen":
		return runListen(orch, cfg, *device)
	default:
		fmt.Fprintf(os.Stderr, "gurbani-transcribe: unknown -mode %q (want \"batch\" or \"listen\")\n", *mode)
		return 1
	}
}

// ── Batch mode ─────────────────────────────────────────────────────────────────

func runBatch(orch *orchestrator.Orchestrator, cfg *config.Config, inputPath, outputPath string) int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	decoder := file.New(inputPath)
	chunkAdapter := orchestrator.NewChunkerAdapter(newChunker(cfg))

	jobID := fmt.Sprintf("batch-%s", time.Now().UTC().Format("20060102T150405"))
	result, err := orch.TranscribeFile(ctx, jobID, decoder, cfg.Chunker.SampleRate, chunkAdapter)
	if err != nil {
		slog.Error("batch transcription failed", "err", err)
		return 1
	}

	slog.Info("batch transcription complete",
		"job_id", result.JobID,
		"chunks", result.Metrics.ChunkCount,
		"quotes_detected", result.Metrics.QuotesDetected,
		"quotes_replaced", result.Metrics.QuotesReplaced,
	)

	return writeResult(result, outputPath)
}

func writeResult(result types.TranscriptResult, outputPath string) int {
	out := os.Stdout
	if outputPath != "" {
		f, err := os.Create(outputPath)
		if err != nil {
			slog.Error("failed to create output file", "err", err)
			return 1
		}
		defer f.Close()
		out = f
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		slog.Error("failed to write transcript", "err", err)
		return 1
	}
	return 0
}

// ── Live mode ──────────────────────────────────────────────────────────────────

func runListen(orch *orchestrator.Orchestrator, cfg *config.Config, deviceName string) int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	m, err := mic.New(mic.Config{DeviceName: deviceName, SampleRate: cfg.Chunker.SampleRate})
	if err != nil {
		slog.Error("failed to open microphone", "err", err)
		return 1
	}
	defer m.Close()

	if err := m.Start(); err != nil {
		slog.Error("failed to start capture", "err", err)
		return 1
	}
	defer m.Stop()

	enc := json.NewEncoder(os.Stdout)
	callbacks := orchestrator.LiveCallbacks{
		OnDraft: func(s types.ProcessedSegment) {
			slog.Debug("draft", "start_sec", s.StartSec, "text", s.SpokenText)
		},
		OnVerified: func(s types.ProcessedSegment) {
			_ = enc.Encode(s)
		},
		OnDrop: func(idx int) {
			slog.Warn("live chunk dropped under backpressure", "chunk_index", idx)
			observe.DefaultMetrics().LiveChunksDropped.Add(context.Background(), 1)
		},
	}

	jobID := fmt.Sprintf("live-%s", time.Now().UTC().Format("20060102T150405"))
	session, err := orch.StartLiveSession(ctx, jobID, newChunker(cfg), cfg.Chunker, callbacks)
	if err != nil {
		slog.Error("failed to start live session", "err", err)
		return 1
	}

	observe.DefaultMetrics().ActiveLiveSessions.Add(ctx, 1)
	defer observe.DefaultMetrics().ActiveLiveSessions.Add(context.Background(), -1)

	slog.Info("listening — press Ctrl+C to stop")
	for {
		select {
		case <-ctx.Done():
			if err := session.Close(); err != nil {
				slog.Error("error closing live session", "err", err)
				return 1
			}
			slog.Info("goodbye")
			return 0
		case frame, ok := <-m.Frames():
			if !ok {
				_ = session.Close()
				return 0
			}
			if err := session.Submit(frame); err != nil {
				slog.Error("error submitting live audio", "err", err)
			}
		}
	}
}

// ── Pipeline wiring ────────────────────────────────────────────────────────────

// buildOrchestrator wires every pluggable stage spec.md §4 names — VAD
// chunker, router, three ASR engine roles, fusion, script converter, quote
// engine — into a single Orchestrator, following the scripture corpus,
// provider config, and denoise filter named in cfg.
func buildOrchestrator(ctx context.Context, cfg *config.Config) (*orchestrator.Orchestrator, error) {
	index, err := loadScriptureIndex(ctx, cfg)
	if err != nil {
		return nil, types.NewPipelineError(types.ErrKindScriptureUnavailable, "", err)
	}

	engines, err := buildEngines(cfg.Providers)
	if err != nil {
		return nil, fmt.Errorf("build ASR engines: %w", err)
	}

	rt := router.New(cfg.Router)
	fuser := fusion.New(cfg.Fusion)
	converter := script.New(cfg.Script, buildRomanizer())

	vocab := vocabularyOf(index)
	detector := quote.NewDetector(cfg.Quote, vocab)

	opts := []orchestrator.Option{orchestrator.WithLogger(slog.Default())}
	if cfg.Denoise.Enabled {
		d, err := denoise.New(cfg.Denoise.Backend)
		if err != nil {
			return nil, fmt.Errorf("build denoiser: %w", err)
		}
		opts = append(opts, orchestrator.WithDenoiser(d))
	}

	return orchestrator.New(engines, rt, fuser, converter, detector, index, cfg.Pipeline, cfg.Quote, opts...), nil
}

// vocabularyOf extracts the scripture vocabulary set the quote detector
// needs, when the index exposes one. The Postgres-backed index has no
// in-process vocabulary, so with it the quote detector's vocabulary-density
// signal never fires; the build does not fail.
func vocabularyOf(index scripture.Index) map[string]struct{} {
	type vocabExposer interface {
		Vocabulary() map[string]struct{}
	}
	if v, ok := index.(vocabExposer); ok {
		return v.Vocabulary()
	}
	return nil
}

// loadScriptureIndex builds the immutable scripture corpus lookup cfg.Scripture
// names: a Postgres+pgvector companion index when postgres_dsn is set (spec.md
// §12's semantic verification path), otherwise an in-memory index built from
// the primary corpus plus the optional secondary (Dasam Granth) corpus.
func loadScriptureIndex(ctx context.Context, cfg *config.Config) (scripture.Index, error) {
	if cfg.Scripture.PostgresDSN != "" {
		pool, err := pgxpool.New(ctx, cfg.Scripture.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("scripture: connect postgres: %w", err)
		}
		embedder, err := buildEmbeddingsProvider(cfg.Providers.Embeddings)
		if err != nil {
			return nil, fmt.Errorf("scripture: build embeddings provider: %w", err)
		}
		return scripturepg.New(pool, embedder), nil
	}

	primary, err := scripture.Load(cfg.Scripture.PrimaryPath)
	if err != nil {
		return nil, fmt.Errorf("scripture: load primary corpus: %w", err)
	}
	if cfg.Scripture.SecondaryPath == "" {
		return primary, nil
	}

	secondary, err := scripture.Load(cfg.Scripture.SecondaryPath)
	if err != nil {
		return nil, fmt.Errorf("scripture: load secondary corpus: %w", err)
	}
	return scripture.NewFromLines(append(primary.Lines(), secondary.Lines()...)), nil
}

// buildEngines constructs the three ASR engine roles spec.md §4.4 names.
// General (whisper.cpp, auto language) always runs; Indic (sherpa-onnx) and
// English (whisper.cpp, forced "en") back-fill the router's Punjabi and
// English-leaning routes respectively. Each role is wrapped in its own
// [resilience.ASRFallback] so a backend that starts erroring or timing out
// trips a circuit breaker instead of being hammered on every chunk —
// spec.md §4.4/§4.8 already treat a failed engine call as recoverable
// (an empty hypothesis, not a fatal error), and the breaker is what keeps
// that recovery cheap under sustained outage rather than paying the full
// per-chunk timeout on every single call.
func buildEngines(cfg config.ProvidersConfig) (orchestrator.Engines, error) {
	var out orchestrator.Engines

	general, err := whisper.NewGeneral(cfg.ASRGeneral.Endpoint)
	if err != nil {
		return out, fmt.Errorf("general engine: %w", err)
	}
	out.General = resilience.NewASRFallback("whisper-general", general, "whisper-general-primary", resilience.FallbackConfig{
		CircuitBreaker: resilience.CircuitBreakerConfig{MaxFailures: 5, ResetTimeout: 30 * time.Second},
	})

	if cfg.ASRIndic.Name != "" {
		indic, err := sherpa.New("sherpa-indic", sherpaModelConfig(cfg.ASRIndic), 16000)
		if err != nil {
			return out, fmt.Errorf("indic engine: %w", err)
		}
		out.Indic = resilience.NewASRFallback("sherpa-indic", indic, "sherpa-indic-primary", resilience.FallbackConfig{
			CircuitBreaker: resilience.CircuitBreakerConfig{MaxFailures: 5, ResetTimeout: 30 * time.Second},
		})
	}

	if cfg.ASREnglish.Name != "" {
		eng, err := whisper.NewEnglish(cfg.ASREnglish.Endpoint)
		if err != nil {
			return out, fmt.Errorf("english engine: %w", err)
		}
		out.English = resilience.NewASRFallback("whisper-english", eng, "whisper-english-primary", resilience.FallbackConfig{
			CircuitBreaker: resilience.CircuitBreakerConfig{MaxFailures: 5, ResetTimeout: 30 * time.Second},
		})
	}

	return out, nil
}

// sherpaModelConfig pulls the transducer model triple out of a provider
// entry's free-form options map.
func sherpaModelConfig(entry config.ProviderEntry) sherpa.ModelConfig {
	str := func(key string) string {
		if v, ok := entry.Options[key].(string); ok {
			return v
		}
		return ""
	}
	return sherpa.ModelConfig{
		Encoder: str("encoder"),
		Decoder: str("decoder"),
		Joiner:  str("joiner"),
		Tokens:  str("tokens"),
	}
}

// buildRomanizer wires spec.md §4.6's romanization dispatch: aksharamukha
// covers the iso15919/iast academic schemes, the hand-rolled table covers
// the practical scheme.
func buildRomanizer() romanize.Romanizer {
	akshara := romanize.NewAksharamukha()
	practical := romanize.NewPractical(true)
	return romanize.NewMulti(akshara, practical)
}

// buildEmbeddingsProvider constructs the embeddings backend named by entry,
// for the Postgres scripture index's Stage B semantic search.
func buildEmbeddingsProvider(entry config.ProviderEntry) (embeddings.Provider, error) {
	switch entry.Name {
	case "openai":
		return embeddingsopenai.New(entry.Endpoint, entry.Model)
	case "ollama":
		return embeddingsollama.New(entry.Endpoint, entry.Model)
	default:
		return nil, fmt.Errorf("unknown embeddings provider %q", entry.Name)
	}
}

func newChunker(cfg *config.Config) *chunker.Chunker {
	return chunker.New(energy.New(), cfg.Chunker)
}

// ── Logger ─────────────────────────────────────────────────────────────────────

func newLogger(level config.LogLevel) *slog.Logger {
	var lvl slog.Level
	switch level {
	case config.LogDebug:
		lvl = slog.LevelDebug
	case config.LogWarn:
		lvl = slog.LevelWarn
	case config.LogError:
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
