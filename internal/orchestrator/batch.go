package orchestrator

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/gurbani-transcribe/core/pkg/audio"
	"github.com/gurbani-transcribe/core/pkg/types"
)

// TranscribeFile implements spec.md §4.8's batch contract: decode the
// whole source, optionally denoise it, chunk it with VAD, fan every chunk
// through the shared pipeline bounded by chunk_parallel_workers and
// asr_parallel_workers, and assemble the final TranscriptResult in strict
// chunk_index order.
//
// Only two failure modes are fatal, per §4.8: decode failure and (via
// callers wiring a broken scripture.Index into New) index unavailability
// surfacing as a matcher error on every chunk — which this method does
// NOT treat as fatal, consistent with runQuoteEngine degrading individual
// segments instead. TranscribeFile itself returns an error only for a
// decode or chunking failure (both reported as AudioDecode) or when ctx is
// cancelled while chunks still wait for a worker slot.
func (o *Orchestrator) TranscribeFile(ctx context.Context, jobID string, decoder audio.Decoder, sampleRate int, chunker *ChunkerAdapter) (types.TranscriptResult, error) {
	samples, err := decoder.Decode(ctx, sampleRate)
	if err != nil {
		return types.TranscriptResult{}, types.NewPipelineError(types.ErrKindAudioDecode, jobID, fmt.Errorf("decode: %w", err))
	}

	if o.denoiser != nil {
		samples = o.denoiser.Denoise(samples)
	}

	chunks, err := chunker.ChunkAll(jobID, samples)
	if err != nil {
		return types.TranscriptResult{}, types.NewPipelineError(types.ErrKindAudioDecode, jobID, fmt.Errorf("chunk: %w", err))
	}

	segments := make([]types.ProcessedSegment, len(chunks))

	chunkSem := newWorkerSem(o.chunkWorkers)
	asrSem := newWorkerSem(o.asrWorkers)

	group, groupCtx := errgroup.WithContext(ctx)
	for i, chunk := range chunks {
		i, chunk := i, chunk
		group.Go(func() error {
			if err := chunkSem.Acquire(groupCtx); err != nil {
				return err
			}
			defer chunkSem.Release()

			segments[i] = o.processChunk(groupCtx, chunk, asrSem, nil)
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return types.TranscriptResult{}, err
	}

	return types.TranscriptResult{
		JobID:    jobID,
		Segments: segments,
		Metrics:  computeMetrics(segments),
	}, nil
}

// computeMetrics tallies spec.md §4.8's summary counters over a finished
// batch run's segments.
func computeMetrics(segments []types.ProcessedSegment) types.TranscriptMetrics {
	m := types.TranscriptMetrics{ChunkCount: len(segments)}
	for _, s := range segments {
		if s.QuoteMatch != nil {
			m.QuotesDetected++
			if s.Kind == types.KindScriptureQuote {
				m.QuotesReplaced++
			}
		}
	}
	return m
}
