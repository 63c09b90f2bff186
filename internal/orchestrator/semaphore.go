package orchestrator

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// workerSem wraps golang.org/x/sync/semaphore.Weighted to bound one of
// spec.md §5's two global concurrency knobs (asr_parallel_workers,
// chunk_parallel_workers). A nil *workerSem (via newWorkerSem with n<=0)
// is never constructed by New, which floors both knobs at 1; tests that
// want an unbounded run pass nil directly to the lower-level helpers.
type workerSem struct {
	sem *semaphore.Weighted
}

// newWorkerSem builds a workerSem bounding concurrent holders to n.
func newWorkerSem(n int) *workerSem {
	return &workerSem{sem: semaphore.NewWeighted(int64(n))}
}

// Acquire blocks until a slot is free or ctx is cancelled.
func (w *workerSem) Acquire(ctx context.Context) error {
	return w.sem.Acquire(ctx, 1)
}

// Release frees the slot acquired by a matching Acquire call.
func (w *workerSem) Release() {
	w.sem.Release(1)
}
