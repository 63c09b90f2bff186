package orchestrator

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/gurbani-transcribe/core/internal/chunker"
	"github.com/gurbani-transcribe/core/internal/config"
	"github.com/gurbani-transcribe/core/pkg/provider/vad"
	vadmock "github.com/gurbani-transcribe/core/pkg/provider/vad/mock"
	"github.com/gurbani-transcribe/core/pkg/types"
)

// liveChunkerConfig forces a chunk cut every frame (20ms @ 16kHz), same as
// orchestrator_test.go's batch fixture, so a handful of silent frames
// yields several ordered live chunks without needing a real VAD signal.
func liveChunkerConfig(queueDepth int) config.ChunkerConfig {
	return config.ChunkerConfig{SampleRate: 16000, MinChunkSec: 0, MaxChunkSec: 0.02, TargetChunkSec: 0.02, LiveQueueDepth: queueDepth}
}

func newLiveChunker() *chunker.Chunker {
	vadEngine := &vadmock.Engine{Session: &vadmock.Session{EventResult: vad.VADEvent{Type: vad.VADSpeechContinue}}}
	return chunker.New(vadEngine, liveChunkerConfig(100))
}

func TestLiveSessionDraftPrecedesVerifiedPerChunk(t *testing.T) {
	engine := &stubEngine{id: "general", text: "plain speech text here", confidence: 0.9}
	o := buildTestOrchestrator(engine, nil)

	var mu sync.Mutex
	events := map[int][]string{}
	record := func(idx int, kind string) {
		mu.Lock()
		events[idx] = append(events[idx], kind)
		mu.Unlock()
	}

	var wg sync.WaitGroup
	wg.Add(5)
	callbacks := LiveCallbacks{
		OnDraft:    func(s types.ProcessedSegment) { record(int(math.Round(s.StartSec/0.02)), "draft") },
		OnVerified: func(s types.ProcessedSegment) { record(int(math.Round(s.StartSec/0.02)), "verified"); wg.Done() },
	}

	session, err := o.StartLiveSession(context.Background(), "job1", newLiveChunker(), liveChunkerConfig(100), callbacks)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := session.Submit(make([]int16, 320*5)); err != nil {
		t.Fatalf("submit: %v", err)
	}

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for verified events")
	}

	if err := session.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	for idx, seq := range events {
		if len(seq) != 2 || seq[0] != "draft" || seq[1] != "verified" {
			t.Errorf("chunk %d: expected [draft verified], got %v", idx, seq)
		}
	}
}

func TestLiveSessionVerifiedEventsArriveInChunkIndexOrder(t *testing.T) {
	engine := &stubEngine{id: "general", text: "plain speech text here", confidence: 0.9}
	o := buildTestOrchestrator(engine, nil)

	var mu sync.Mutex
	var verifiedOrder []float64
	var wg sync.WaitGroup
	wg.Add(10)

	callbacks := LiveCallbacks{
		OnVerified: func(s types.ProcessedSegment) {
			mu.Lock()
			verifiedOrder = append(verifiedOrder, s.StartSec)
			mu.Unlock()
			wg.Done()
		},
	}

	session, err := o.StartLiveSession(context.Background(), "job1", newLiveChunker(), liveChunkerConfig(100), callbacks)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := session.Submit(make([]int16, 320*10)); err != nil {
		t.Fatalf("submit: %v", err)
	}

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for verified events")
	}
	_ = session.Close()

	mu.Lock()
	defer mu.Unlock()
	for i := 1; i < len(verifiedOrder); i++ {
		if verifiedOrder[i] <= verifiedOrder[i-1] {
			t.Fatalf("verified events overtook chunk_index order: %v", verifiedOrder)
		}
	}
}

func TestLiveSessionBackpressureDropsOldestUnstarted(t *testing.T) {
	// A single-chunk-worker orchestrator with a very shallow queue depth
	// guarantees the queue fills faster than it can drain, so submitting
	// more chunks than the depth allows must trigger at least one drop.
	engine := &stubEngine{id: "general", text: "plain speech text here", confidence: 0.9}
	o := buildTestOrchestrator(engine, nil)
	o.chunkWorkers = 1

	var mu sync.Mutex
	var dropped []int
	callbacks := LiveCallbacks{
		OnDrop: func(idx int) {
			mu.Lock()
			dropped = append(dropped, idx)
			mu.Unlock()
		},
	}

	cfg := liveChunkerConfig(1)
	session, err := o.StartLiveSession(context.Background(), "job1", newLiveChunker(), cfg, callbacks)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := session.Submit(make([]int16, 320*20)); err != nil {
		t.Fatalf("submit: %v", err)
	}
	_ = session.Close()

	mu.Lock()
	defer mu.Unlock()
	if len(dropped) == 0 {
		t.Error("expected at least one dropped chunk under shallow queue depth")
	}
}
