// Package orchestrator drives spec.md §4.8: composing the chunker, router,
// ASR fan-out, fusion, script converter, and quote engine into a batch or
// live transcription run.
//
// Grounded on teacher internal/agent/orchestrator/orchestrator.go (mutex-
// guarded state, functional options, the lock/snapshot/unlock-before-I/O
// pattern used by processChunk's callback dispatch) and
// internal/engine/cascade/cascade.go (staged background-goroutine
// processing, WaitGroup-tracked lifetime, channel-based streaming — the
// live session's worker pool and backpressure queue follow this shape).
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gurbani-transcribe/core/internal/config"
	"github.com/gurbani-transcribe/core/internal/fusion"
	"github.com/gurbani-transcribe/core/internal/observe"
	"github.com/gurbani-transcribe/core/internal/quote"
	"github.com/gurbani-transcribe/core/internal/router"
	"github.com/gurbani-transcribe/core/internal/script"
	"github.com/gurbani-transcribe/core/pkg/audio"
	"github.com/gurbani-transcribe/core/pkg/provider/asr"
	"github.com/gurbani-transcribe/core/pkg/scripture"
	"github.com/gurbani-transcribe/core/pkg/types"
)

// asrTimeoutMultiple is spec.md §5's default per-chunk ASR timeout: 4x the
// chunk's own real-time duration.
const asrTimeoutMultiple = 4

// Engines pairs every ASR role the fan-out may invoke. General is always
// run; Indic and English are invoked only when the route warrants them.
type Engines struct {
	General asr.Engine
	Indic   asr.Engine
	English asr.Engine
}

// Orchestrator composes the pipeline stages behind spec.md §4.8's batch and
// live run contracts. Safe for concurrent use: apart from lastRoute, which
// routeMu guards, all fields are read-only after New; the live session
// (SessionHandle) carries its own mutable per-run state.
type Orchestrator struct {
	engines   Engines
	router    *router.Router
	fuser     *fusion.Fuser
	converter *script.Converter
	detector  *quote.Detector
	matcher   *quote.Matcher

	quoteAutoReplaceFloor float64
	quoteReviewFloor      float64

	chunkWorkers int
	asrWorkers   int

	denoiser audio.Denoiser
	logger   *slog.Logger

	// routeMu guards lastRoute, spec.md §4.3's "prior language from
	// previous chunks in the same job" signal, threaded into Router.Input
	// as PrevRoute. Keyed by job ID so concurrent jobs/live sessions
	// sharing one Orchestrator don't cross-contaminate each other's route
	// history.
	routeMu   sync.Mutex
	lastRoute map[string]types.RouteKind
}

// Option configures an Orchestrator during construction.
type Option func(*Orchestrator)

// WithDenoiser installs a denoise filter applied to whole decoded audio
// before chunking, per spec.md §6. Nil (the default) skips denoising.
func WithDenoiser(d audio.Denoiser) Option {
	return func(o *Orchestrator) { o.denoiser = d }
}

// WithLogger overrides the default slog.Default() logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// New builds an Orchestrator from its constituent stages. index backs the
// quote matcher; pipelineCfg bounds concurrency (spec.md §5); quoteCfg
// supplies the replacement decision floors (spec.md §4.7.3).
func New(
	engines Engines,
	rt *router.Router,
	fuser *fusion.Fuser,
	converter *script.Converter,
	detector *quote.Detector,
	index scripture.Index,
	pipelineCfg config.PipelineConfig,
	quoteCfg config.QuoteConfig,
	opts ...Option,
) *Orchestrator {
	chunkWorkers := pipelineCfg.ChunkParallelWorkers
	if chunkWorkers <= 0 {
		chunkWorkers = 1
	}
	asrWorkers := pipelineCfg.ASRParallelWorkers
	if asrWorkers <= 0 {
		asrWorkers = 1
	}

	o := &Orchestrator{
		engines:               engines,
		router:                rt,
		fuser:                 fuser,
		converter:             converter,
		detector:              detector,
		matcher:               quote.NewMatcher(index, quoteCfg),
		quoteAutoReplaceFloor: quoteCfg.AutoReplaceFloor,
		quoteReviewFloor:      quoteCfg.ReviewFloor,
		chunkWorkers:          chunkWorkers,
		asrWorkers:            asrWorkers,
		logger:                slog.Default(),
		lastRoute:             make(map[string]types.RouteKind),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// prevRoute returns the route assigned to the last chunk processed for
// jobID, or nil if this is the job's first chunk. Chunks within one job
// may process concurrently (chunk_parallel_workers), so "previous" is
// best-effort — whichever chunk most recently finished routing — not
// strictly the immediately preceding chunk_index.
func (o *Orchestrator) prevRoute(jobID string) *types.RouteKind {
	o.routeMu.Lock()
	defer o.routeMu.Unlock()
	kind, ok := o.lastRoute[jobID]
	if !ok {
		return nil
	}
	return &kind
}

func (o *Orchestrator) setLastRoute(jobID string, kind types.RouteKind) {
	o.routeMu.Lock()
	defer o.routeMu.Unlock()
	o.lastRoute[jobID] = kind
}

// languageScoresFrom adapts a General-engine hypothesis into the on-audio
// classifier signal router.Input.LangScores expects (spec.md §4.3). A
// failed/empty hypothesis contributes no score, letting the Router fall
// through to its remaining signals.
func languageScoresFrom(h types.Hypothesis) []router.LangScore {
	if h.EngineError != "" || h.LanguageCode == "" {
		return nil
	}
	return []router.LangScore{{Lang: h.LanguageCode, Confidence: h.Confidence}}
}

// processChunk runs spec.md §4.8 batch step 3's sub-steps a-e for a single
// chunk and returns the finished segment. asrSem bounds concurrent ASR
// engine invocations process-wide (spec.md §5's asr_parallel_workers); it
// may be nil, in which case no bound is applied (used by tests).
//
// onDraft, if non-nil, is invoked with the draft segment (pre quote-engine)
// before matching runs — the live run contract's draft event. It is nil in
// batch mode, which has no draft concept.
func (o *Orchestrator) processChunk(ctx context.Context, chunk types.AudioChunk, asrSem *workerSem, onDraft func(types.ProcessedSegment)) types.ProcessedSegment {
	segmentID := uuid.NewString()
	var errs []string

	// spec.md §4.3's routing signals need a cheap text/language preview,
	// and §4.4's General engine always runs regardless of route — so
	// General's hypothesis doubles as that preview, transcribed before the
	// route is known (hint left empty; General is multilingual and free to
	// auto-detect). The final Classify call below then has real
	// PreviewText and LangScores to work with, instead of always falling
	// through to RouteUnknown.
	metrics := observe.DefaultMetrics()
	preview := o.transcribeOne(ctx, o.engines.General, chunk, "", chunkTimeout(chunk), asrSem)

	routeStart := time.Now()
	route := o.router.Classify(router.Input{
		PrevRoute:   o.prevRoute(chunk.JobID),
		LangScores:  languageScoresFrom(preview),
		PreviewText: preview.Text,
		DurationSec: chunk.Duration().Seconds(),
	})
	metrics.RouteDuration.Record(ctx, time.Since(routeStart).Seconds())
	o.setLastRoute(chunk.JobID, route.Kind)

	langHint := routeLanguageHint(route.Kind)

	asrStart := time.Now()
	hyps := o.runFanoutWithPreview(ctx, chunk, route.Kind, langHint, preview, asrSem, &errs)
	metrics.ASRDuration.Record(ctx, time.Since(asrStart).Seconds())

	fusionStart := time.Now()
	fused := o.fuser.Fuse(hyps)
	if fused.NeedsRedecode {
		metrics.RedecodeAttempts.Add(ctx, 1)
		fused = o.redecode(ctx, chunk, route.Kind, langHint, fused, asrSem, &errs)
	}
	metrics.FusionDuration.Record(ctx, time.Since(fusionStart).Seconds())

	scriptStart := time.Now()
	converted, err := o.converter.Convert(ctx, fused.FusedText)
	if err != nil {
		errs = append(errs, fmt.Sprintf("%s: %v", types.ErrKindScriptConversion, err))
		converted = types.ConvertedText{OriginalText: fused.FusedText, Gurmukhi: fused.FusedText, Roman: fused.FusedText, NeedsReview: true}
	}
	metrics.ScriptDuration.Record(ctx, time.Since(scriptStart).Seconds())

	segment := types.ProcessedSegment{
		SegmentID:           segmentID,
		StartSec:            chunk.StartSec,
		EndSec:              chunk.EndSec,
		Kind:                types.KindSpeech,
		SpokenText:          fused.FusedText,
		Gurmukhi:            converted.Gurmukhi,
		Roman:               converted.Roman,
		Language:            langHint,
		Route:               route,
		ASRConfidence:       fused.FusedConfidence,
		ScriptConfidence:    converted.ConversionConfidence,
		PerEngineHypotheses: fused.PerEngineHypotheses,
		NeedsReview:         len(hyps) == 0 || fused.FusedConfidence == 0 || converted.NeedsReview,
		Errors:              errs,
	}

	if onDraft != nil {
		draft := segment
		draft.NeedsReview = true
		onDraft(draft)
	}

	quoteStart := time.Now()
	o.runQuoteEngine(ctx, &segment)
	metrics.QuoteDuration.Record(ctx, time.Since(quoteStart).Seconds())

	metrics.RecordChunkProcessed(ctx, string(route.Kind))
	return segment
}

// runQuoteEngine implements spec.md §4.8 batch step 3e: if the candidate
// detector fires on the segment's Gurmukhi draft, run the matcher and apply
// its replacement decision. A matcher failure degrades the segment to
// needs_review rather than aborting the job, per §4.8's failure semantics.
func (o *Orchestrator) runQuoteEngine(ctx context.Context, segment *types.ProcessedSegment) {
	candidate, ok := o.detector.Detect(segment.Route.Kind, segment.Gurmukhi)
	if !ok {
		return
	}
	observe.DefaultMetrics().RecordQuoteDetected(ctx)

	variants := []string{candidate.Text}
	for _, h := range segment.PerEngineHypotheses {
		if h.Text == "" {
			continue
		}
		text := h.Text
		if converted, err := o.converter.Convert(ctx, h.Text); err == nil {
			text = converted.Gurmukhi
		}
		variants = append(variants, text)
	}

	match, found, err := o.matcher.Match(ctx, variants)
	if err != nil {
		segment.Errors = append(segment.Errors, fmt.Sprintf("%s: %v", types.ErrKindQuoteMatch, err))
		segment.NeedsReview = true
		return
	}
	if !found {
		return
	}

	decision := quote.Decide(&match, o.quoteAutoReplaceFloor, o.quoteReviewFloor)
	if decision.Replace {
		observe.DefaultMetrics().RecordQuoteReplaced(ctx)
	}
	quote.Apply(segment, decision, o.romanizeFallback(ctx))
}

// romanizeFallback adapts the Converter into the single-string callback
// quote.Apply expects for filling in a canonical line's Roman field when
// the scripture index didn't carry one precomputed.
func (o *Orchestrator) romanizeFallback(ctx context.Context) func(string) string {
	return func(gurmukhi string) string {
		converted, err := o.converter.Convert(ctx, gurmukhi)
		if err != nil {
			return gurmukhi
		}
		return converted.Roman
	}
}

// routeLanguageHint derives the BCP-47-ish hint ASR engines expect from a
// route's Kind.
func routeLanguageHint(kind types.RouteKind) string {
	switch kind {
	case types.RouteEnglish:
		return "en"
	case types.RoutePunjabi, types.RouteScriptureQuoteLikely:
		return "pa"
	default:
		return ""
	}
}

// chunkTimeout implements spec.md §5's per-chunk ASR timeout: 4x the
// chunk's real-time duration, with a floor so degenerate zero-length
// chunks still get a usable deadline.
func chunkTimeout(chunk types.AudioChunk) time.Duration {
	d := chunk.Duration() * asrTimeoutMultiple
	const floor = 2 * time.Second
	if d < floor {
		return floor
	}
	return d
}
