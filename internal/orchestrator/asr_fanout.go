package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/gurbani-transcribe/core/internal/observe"
	"github.com/gurbani-transcribe/core/pkg/provider/asr"
	"github.com/gurbani-transcribe/core/pkg/types"
)

// additionalEngines returns the ASR engines beyond General a route's Kind
// warrants, per spec.md §4.4: Indic and English join for the kinds their
// name matches, and Mixed/Unknown routes run every engine that's wired so
// fusion has the richest possible vote. General always runs separately —
// its hypothesis doubles as the routing preview pass, see processChunk.
func (o *Orchestrator) additionalEngines(kind types.RouteKind) []asr.Engine {
	var engines []asr.Engine
	switch kind {
	case types.RoutePunjabi, types.RouteScriptureQuoteLikely:
		if o.engines.Indic != nil {
			engines = append(engines, o.engines.Indic)
		}
	case types.RouteEnglish:
		if o.engines.English != nil {
			engines = append(engines, o.engines.English)
		}
	case types.RouteMixed, types.RouteUnknown:
		if o.engines.Indic != nil {
			engines = append(engines, o.engines.Indic)
		}
		if o.engines.English != nil {
			engines = append(engines, o.engines.English)
		}
	}
	return engines
}

// selectedEngines returns every engine (General plus additionalEngines'
// route-dependent set) a fresh, from-scratch fan-out should invoke. Used
// by redecode, which re-runs all selected engines per spec.md §4.5 step 5a
// rather than reusing any prior hypothesis.
func (o *Orchestrator) selectedEngines(kind types.RouteKind) []asr.Engine {
	return append([]asr.Engine{o.engines.General}, o.additionalEngines(kind)...)
}

// runASRFanout invokes every engine selectedEngines names, each under its
// own per-chunk deadline (spec.md §5's 4x-realtime timeout) and under
// asrSem's global concurrency bound. A timed-out or erroring engine
// contributes asr.EmptyHypothesis rather than aborting the chunk, per
// spec.md §4.4/§4.8's failure semantics; its reason is appended to errs.
func (o *Orchestrator) runASRFanout(ctx context.Context, chunk types.AudioChunk, kind types.RouteKind, languageHint string, asrSem *workerSem, errs *[]string) []types.Hypothesis {
	engines := o.selectedEngines(kind)
	timeout := chunkTimeout(chunk)

	hyps := make([]types.Hypothesis, len(engines))
	done := make(chan int, len(engines))

	for i, engine := range engines {
		i, engine := i, engine
		go func() {
			hyps[i] = o.transcribeOne(ctx, engine, chunk, languageHint, timeout, asrSem)
			done <- i
		}()
	}
	for range engines {
		<-done
	}

	for _, h := range hyps {
		if h.EngineError != "" {
			*errs = append(*errs, fmt.Sprintf("%s: %s: %s", types.ErrKindASREngine, h.EngineID, h.EngineError))
			observe.DefaultMetrics().RecordASREngineError(ctx, h.EngineID)
		}
	}
	return hyps
}

// runFanoutWithPreview merges an already-computed General hypothesis
// (preview — spec.md §4.4's "always run" engine, used as the routing
// pass) with a fresh fan-out of additionalEngines(kind), so General is
// never transcribed twice for the same chunk's first pass.
func (o *Orchestrator) runFanoutWithPreview(ctx context.Context, chunk types.AudioChunk, kind types.RouteKind, languageHint string, preview types.Hypothesis, asrSem *workerSem, errs *[]string) []types.Hypothesis {
	extra := o.additionalEngines(kind)
	timeout := chunkTimeout(chunk)

	hyps := make([]types.Hypothesis, 1+len(extra))
	hyps[0] = preview
	done := make(chan int, len(extra))

	for i, engine := range extra {
		i, engine := i, engine
		go func() {
			hyps[1+i] = o.transcribeOne(ctx, engine, chunk, languageHint, timeout, asrSem)
			done <- i
		}()
	}
	for range extra {
		<-done
	}

	if preview.EngineError != "" {
		*errs = append(*errs, fmt.Sprintf("%s: %s: %s", types.ErrKindASREngine, preview.EngineID, preview.EngineError))
		observe.DefaultMetrics().RecordASREngineError(ctx, preview.EngineID)
	}
	for _, h := range hyps[1:] {
		if h.EngineError != "" {
			*errs = append(*errs, fmt.Sprintf("%s: %s: %s", types.ErrKindASREngine, h.EngineID, h.EngineError))
			observe.DefaultMetrics().RecordASREngineError(ctx, h.EngineID)
		}
	}
	return hyps
}

// transcribeOne runs a single engine call under asrSem (if non-nil) and a
// per-chunk timeout derived from the chunk's duration.
func (o *Orchestrator) transcribeOne(ctx context.Context, engine asr.Engine, chunk types.AudioChunk, languageHint string, timeout time.Duration, asrSem *workerSem) types.Hypothesis {
	if asrSem != nil {
		if err := asrSem.Acquire(ctx); err != nil {
			return asr.EmptyHypothesis(engine.EngineID(), "asr semaphore: "+err.Error())
		}
		defer asrSem.Release()
	}

	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	h, err := engine.Transcribe(callCtx, chunk, languageHint)
	if err != nil {
		return asr.EmptyHypothesis(engine.EngineID(), err.Error())
	}
	return h
}
