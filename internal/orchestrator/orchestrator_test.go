package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/gurbani-transcribe/core/internal/chunker"
	"github.com/gurbani-transcribe/core/internal/config"
	"github.com/gurbani-transcribe/core/internal/fusion"
	"github.com/gurbani-transcribe/core/internal/quote"
	"github.com/gurbani-transcribe/core/internal/router"
	"github.com/gurbani-transcribe/core/internal/script"
	"github.com/gurbani-transcribe/core/pkg/provider/asr"
	"github.com/gurbani-transcribe/core/pkg/provider/vad"
	vadmock "github.com/gurbani-transcribe/core/pkg/provider/vad/mock"
	"github.com/gurbani-transcribe/core/pkg/scripture"
	"github.com/gurbani-transcribe/core/pkg/types"
)

// stubEngine returns a fixed Hypothesis (or error) for every chunk,
// recording how many times it was called for fan-out assertions.
type stubEngine struct {
	id         string
	text       string
	confidence float64
	err        error

	mu    sync.Mutex
	calls int
}

func (e *stubEngine) EngineID() string { return e.id }

func (e *stubEngine) Transcribe(_ context.Context, _ types.AudioChunk, _ string) (types.Hypothesis, error) {
	e.mu.Lock()
	e.calls++
	e.mu.Unlock()
	if e.err != nil {
		return types.Hypothesis{}, e.err
	}
	return types.Hypothesis{EngineID: e.id, Text: e.text, Confidence: e.confidence}, nil
}

// passthroughRomanizer returns the Gurmukhi input with a fixed prefix, so
// tests can assert it was invoked without depending on aksharamukha or the
// practical scheme's rune tables.
type passthroughRomanizer struct{}

func (passthroughRomanizer) Romanize(_ context.Context, gurmukhi string, _ types.RomanizationScheme) (string, error) {
	return "R:" + gurmukhi, nil
}

func testFusionConfig() config.FusionConfig {
	return config.FusionConfig{RedecodeFloor: 0.3, ReviewFloor: 0.5, AgreementFloor: 0.5}
}

func testRouterConfig() config.RouterConfig {
	return config.RouterConfig{ScriptureShortSec: 0, LangIDFloor: 0.9, LangIDTieDelta: 0.05}
}

func testScriptConfig() config.ScriptConfig {
	return config.ScriptConfig{RomanizationScheme: "practical", ScriptMixDelta: 0.15, ScriptReviewFloor: 0.1, ScriptPurityFloor: 0.8}
}

func testQuoteConfig() config.QuoteConfig {
	return config.QuoteConfig{
		VocabRatioFloor:  0.4,
		QuoteLenWindowLo: 1,
		QuoteLenWindowHi: 20,
		FuzzyWeight:      0.6,
		SemanticWeight:   0.4,
		VerifierFloor:    0.5,
		LenRatioLo:       0.3,
		LenRatioHi:       3.0,
		AutoReplaceFloor: 0.9,
		ReviewFloor:      0.55,
		CuePhrases:       []string{"gurbani fermaya hai"},
	}
}

// buildTestOrchestrator wires a minimal Orchestrator from stub engines and
// an in-memory scripture index, with pipeline_workers fixed at 2 so tests
// exercise genuine fan-out concurrency.
func buildTestOrchestrator(general asr.Engine, lines []types.ScriptureLine) *Orchestrator {
	idx := scripture.NewFromLines(lines)
	detector := quote.NewDetector(testQuoteConfig(), nil)
	converter := script.New(testScriptConfig(), passthroughRomanizer{})
	rt := router.New(testRouterConfig())
	fuser := fusion.New(testFusionConfig())

	pipelineCfg := config.PipelineConfig{ASRParallelWorkers: 2, ChunkParallelWorkers: 2}

	return New(Engines{General: general}, rt, fuser, converter, detector, idx, pipelineCfg, testQuoteConfig())
}

func testChunk(jobID string, index int) types.AudioChunk {
	return types.AudioChunk{
		JobID:      jobID,
		ChunkIndex: index,
		StartSec:   float64(index) * 2,
		EndSec:     float64(index)*2 + 2,
		SampleRate: 16000,
		SourceMode: types.SourceBatch,
	}
}

func TestProcessChunkPlainSpeechNoQuoteMatch(t *testing.T) {
	engine := &stubEngine{id: "general", text: "today we discuss the gurdwara building fund", confidence: 0.9}
	o := buildTestOrchestrator(engine, nil)

	segment := o.processChunk(context.Background(), testChunk("job1", 0), nil, nil)

	if segment.Kind != types.KindSpeech {
		t.Errorf("expected plain speech, got kind %q", segment.Kind)
	}
	if segment.QuoteMatch != nil {
		t.Error("expected no quote match")
	}
	if segment.Roman == "" {
		t.Error("expected romanization to run")
	}
}

func TestProcessChunkEngineFailureDegradesSegmentButDoesNotPanic(t *testing.T) {
	engine := &stubEngine{id: "general", err: errors.New("model crashed")}
	o := buildTestOrchestrator(engine, nil)

	segment := o.processChunk(context.Background(), testChunk("job1", 0), nil, nil)

	if !segment.NeedsReview {
		t.Error("expected needs_review on total engine failure")
	}
	if len(segment.Errors) == 0 {
		t.Error("expected an accumulated error reason")
	}
}

func TestProcessChunkAcceptsScriptureQuote(t *testing.T) {
	line := types.ScriptureLine{LineID: "sggs-1-1", Source: types.SourceSGGS, Gurmukhi: "ik oankar satnam karta purakh", Roman: "ik oankar satnam karta purakh"}
	engine := &stubEngine{id: "general", text: "ik oankar satnam karta purakh", confidence: 0.95}
	o := buildTestOrchestrator(engine, []types.ScriptureLine{line})

	segment := o.processChunk(context.Background(), testChunk("job1", 0), nil, nil)

	if segment.Kind != types.KindScriptureQuote {
		t.Fatalf("expected scripture_quote, got %q (gurmukhi=%q)", segment.Kind, segment.Gurmukhi)
	}
	if segment.Gurmukhi != line.Gurmukhi {
		t.Errorf("expected canonical text substitution, got %q", segment.Gurmukhi)
	}
	if segment.SpokenText == "" {
		t.Error("spoken_text must be preserved even after replacement")
	}
}

func TestProcessChunkDraftPrecedesVerified(t *testing.T) {
	engine := &stubEngine{id: "general", text: "today we discuss the gurdwara building fund", confidence: 0.9}
	o := buildTestOrchestrator(engine, nil)

	var order []string
	segment := o.processChunk(context.Background(), testChunk("job1", 0), nil, func(types.ProcessedSegment) {
		order = append(order, "draft")
	})
	order = append(order, "verified")
	_ = segment

	if len(order) != 2 || order[0] != "draft" || order[1] != "verified" {
		t.Errorf("got order %v", order)
	}
}

func TestTranscribeFileAssemblesInChunkIndexOrder(t *testing.T) {
	engine := &stubEngine{id: "general", text: "plain speech text here", confidence: 0.9}
	o := buildTestOrchestrator(engine, nil)

	const n = 6
	chunks := make([]types.AudioChunk, n)
	for i := range chunks {
		chunks[i] = testChunk("job1", i)
	}

	segments := make([]types.ProcessedSegment, n)
	var wg sync.WaitGroup
	sem := newWorkerSem(o.chunkWorkers)
	asrSem := newWorkerSem(o.asrWorkers)
	for i, c := range chunks {
		i, c := i, c
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = sem.Acquire(context.Background())
			defer sem.Release()
			segments[i] = o.processChunk(context.Background(), c, asrSem, nil)
		}()
	}
	wg.Wait()

	for i, s := range segments {
		if s.StartSec != chunks[i].StartSec {
			t.Errorf("segment %d out of order: start=%v want %v", i, s.StartSec, chunks[i].StartSec)
		}
	}
}

// fakeDecoder implements audio.Decoder with pre-seeded samples, letting
// TestTranscribeFileBatchContract avoid depending on pkg/audio/file.
type fakeDecoder struct {
	samples []int16
}

func (d fakeDecoder) Decode(_ context.Context, _ int) ([]int16, error) {
	return d.samples, nil
}

func TestTranscribeFileBatchContract(t *testing.T) {
	engine := &stubEngine{id: "general", text: "plain speech text here", confidence: 0.9}
	o := buildTestOrchestrator(engine, nil)

	// MaxChunkSec equal to one VAD frame (20ms @ 16kHz = 320 samples)
	// forces a cut after every frame, regardless of VAD event content, so
	// five frames of silence still yield five ordered chunks.
	chunkerCfg := config.ChunkerConfig{SampleRate: 16000, MinChunkSec: 0, MaxChunkSec: 0.02, TargetChunkSec: 0.02}
	vadEngine := &vadmock.Engine{Session: &vadmock.Session{EventResult: vad.VADEvent{Type: vad.VADSpeechContinue}}}
	c := chunker.New(vadEngine, chunkerCfg)
	adapter := NewChunkerAdapter(c)

	samples := make([]int16, 320*5)
	result, err := o.TranscribeFile(context.Background(), "job1", fakeDecoder{samples: samples}, 16000, adapter)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Segments) != 5 {
		t.Fatalf("expected 5 segments, got %d", len(result.Segments))
	}
	for i, s := range result.Segments {
		if s.StartSec != float64(i)*0.02 {
			t.Errorf("segment %d: expected start %v, got %v (assembly not in chunk_index order)", i, float64(i)*0.02, s.StartSec)
		}
	}
	if result.Metrics.ChunkCount != 5 {
		t.Errorf("expected metrics chunk count 5, got %d", result.Metrics.ChunkCount)
	}
}

func TestOrderBufferReleasesInSequenceDespiteOutOfOrderSubmit(t *testing.T) {
	var mu sync.Mutex
	var released []int
	buf := newOrderBuffer(func(v int) {
		mu.Lock()
		released = append(released, v)
		mu.Unlock()
	})

	buf.Submit(2, 2)
	buf.Submit(0, 0)
	buf.Submit(1, 1)
	buf.Submit(3, 3)

	mu.Lock()
	defer mu.Unlock()
	if fmt.Sprint(released) != "[0 1 2 3]" {
		t.Errorf("got %v", released)
	}
}

func TestWorkerSemBoundsConcurrency(t *testing.T) {
	sem := newWorkerSem(2)
	var active int32
	var maxActive int32
	var mu sync.Mutex

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = sem.Acquire(context.Background())
			defer sem.Release()

			mu.Lock()
			active++
			if active > maxActive {
				maxActive = active
			}
			mu.Unlock()

			time.Sleep(5 * time.Millisecond)

			mu.Lock()
			active--
			mu.Unlock()
		}()
	}
	wg.Wait()

	if maxActive > 2 {
		t.Errorf("expected at most 2 concurrent holders, saw %d", maxActive)
	}
}
