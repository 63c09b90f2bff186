// Live-session support for spec.md §4.8's live run contract:
// start_live_session(options, callbacks) -> SessionHandle, with
// SessionHandle.Submit(chunk)/Close() and on_draft/on_verified callbacks.
//
// Grounded on teacher internal/engine/cascade/cascade.go's background-
// goroutine-with-WaitGroup-and-channel pattern: a fixed worker pool reads
// from a queue fed by Submit, and Close drains it before returning,
// mirroring cascade's Process/Wait lifecycle.
package orchestrator

import (
	"context"
	"fmt"
	"sync"

	"github.com/gurbani-transcribe/core/internal/chunker"
	"github.com/gurbani-transcribe/core/internal/config"
	"github.com/gurbani-transcribe/core/pkg/types"
)

// LiveCallbacks are invoked as segments become available. OnDrop fires
// when backpressure discards an unstarted chunk (spec.md §5's
// live_queue_depth backpressure rule), naming the dropped chunk's index.
type LiveCallbacks struct {
	OnDraft    func(types.ProcessedSegment)
	OnVerified func(types.ProcessedSegment)
	OnDrop     func(chunkIndex int)
}

// SessionHandle is a running live transcription session. Safe for
// concurrent Submit calls; Close is idempotent.
type SessionHandle struct {
	orch *Orchestrator
	ctx  context.Context

	chunkSession *chunker.Session
	asrSem       *workerSem

	draftBuf    *orderBuffer[types.ProcessedSegment]
	verifiedBuf *orderBuffer[types.ProcessedSegment]
	onDrop      func(int)

	queueDepth int

	mu     sync.Mutex
	queue  []types.AudioChunk
	closed bool
	cond   *sync.Cond

	wg sync.WaitGroup
}

// StartLiveSession begins a new live session for jobID. cfg supplies the
// chunker's VAD thresholds and live_queue_depth; callbacks receive
// draft/verified segments and drop notifications as they occur.
func (o *Orchestrator) StartLiveSession(ctx context.Context, jobID string, c *chunker.Chunker, cfg config.ChunkerConfig, callbacks LiveCallbacks) (*SessionHandle, error) {
	chunkSession, err := c.NewSession(jobID, types.SourceLive)
	if err != nil {
		return nil, fmt.Errorf("start live session: %w", err)
	}

	depth := cfg.LiveQueueDepth
	if depth <= 0 {
		depth = 1
	}

	h := &SessionHandle{
		orch:         o,
		ctx:          ctx,
		chunkSession: chunkSession,
		asrSem:       newWorkerSem(o.asrWorkers),
		onDrop:       callbacks.OnDrop,
		queueDepth:   depth,
	}
	h.cond = sync.NewCond(&h.mu)
	h.draftBuf = newOrderBuffer(func(s types.ProcessedSegment) {
		if callbacks.OnDraft != nil {
			callbacks.OnDraft(s)
		}
	})
	h.verifiedBuf = newOrderBuffer(func(s types.ProcessedSegment) {
		if callbacks.OnVerified != nil {
			callbacks.OnVerified(s)
		}
	})

	for i := 0; i < o.chunkWorkers; i++ {
		h.wg.Add(1)
		go h.worker()
	}

	return h, nil
}

// Submit feeds newly captured samples into the session. Any AudioChunks
// the VAD cuts from them are enqueued for processing, subject to
// live_queue_depth backpressure: once the queue holds queueDepth
// not-yet-started chunks, the oldest of them is dropped (never a chunk
// already in flight) and OnDrop fires with its index.
func (h *SessionHandle) Submit(samples []int16) error {
	chunks, err := h.chunkSession.Process(samples)
	if err != nil {
		return fmt.Errorf("live submit: %w", err)
	}
	for _, c := range chunks {
		h.enqueue(c)
	}
	return nil
}

func (h *SessionHandle) enqueue(chunk types.AudioChunk) {
	h.mu.Lock()
	if len(h.queue) >= h.queueDepth {
		dropped := h.queue[0]
		h.queue = h.queue[1:]
		if h.onDrop != nil {
			h.mu.Unlock()
			h.onDrop(dropped.ChunkIndex)
			h.mu.Lock()
		}
	}
	h.queue = append(h.queue, chunk)
	h.cond.Signal()
	h.mu.Unlock()
}

// worker pulls chunks off the queue and runs the shared pipeline on each,
// feeding draft/verified segments into their respective order buffers.
func (h *SessionHandle) worker() {
	defer h.wg.Done()
	for {
		chunk, ok := h.dequeue()
		if !ok {
			return
		}
		chunkIndex := chunk.ChunkIndex
		segment := h.orch.processChunk(h.ctx, chunk, h.asrSem, func(draft types.ProcessedSegment) {
			h.draftBuf.Submit(chunkIndex, draft)
		})
		h.verifiedBuf.Submit(chunkIndex, segment)
	}
}

func (h *SessionHandle) dequeue() (types.AudioChunk, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for len(h.queue) == 0 && !h.closed {
		h.cond.Wait()
	}
	if len(h.queue) == 0 {
		return types.AudioChunk{}, false
	}
	chunk := h.queue[0]
	h.queue = h.queue[1:]
	return chunk, true
}

// Close flushes any trailing buffered audio as a final chunk, stops
// accepting new work, waits for every queued chunk to finish processing,
// and releases the underlying VAD session.
func (h *SessionHandle) Close() error {
	if tail, ok := h.chunkSession.Flush(); ok {
		h.enqueue(tail)
	}

	h.mu.Lock()
	h.closed = true
	h.cond.Broadcast()
	h.mu.Unlock()

	h.wg.Wait()
	return h.chunkSession.Close()
}
