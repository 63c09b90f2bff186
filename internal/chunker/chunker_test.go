package chunker

import (
	"testing"

	"github.com/gurbani-transcribe/core/internal/config"
	"github.com/gurbani-transcribe/core/pkg/provider/vad"
	"github.com/gurbani-transcribe/core/pkg/types"
)

// scriptedSession returns a pre-programmed sequence of VADEvents, one per
// ProcessFrame call, repeating the last event once the script is exhausted.
type scriptedSession struct {
	events []vad.VADEvent
	idx    int
}

func (s *scriptedSession) ProcessFrame(frame []byte) (vad.VADEvent, error) {
	if len(s.events) == 0 {
		return vad.VADEvent{Type: vad.VADSilence}, nil
	}
	idx := s.idx
	if idx > len(s.events)-1 {
		idx = len(s.events) - 1
	}
	ev := s.events[idx]
	s.idx++
	return ev, nil
}

func (s *scriptedSession) Reset()      {}
func (s *scriptedSession) Close() error { return nil }

type scriptedEngine struct {
	session vad.SessionHandle
}

func (e *scriptedEngine) NewSession(cfg vad.Config) (vad.SessionHandle, error) {
	return e.session, nil
}

func testChunkerConfig() config.ChunkerConfig {
	return config.ChunkerConfig{
		SampleRate:        16000,
		MinChunkSec:       0.1,
		MaxChunkSec:       1.0,
		TargetChunkSec:    0.5,
		OverlapSec:        0.02,
		VADAggressiveness: 1,
	}
}

// frames20ms returns n frames worth of silent PCM16 samples at the given
// sample rate, 20ms each, to drive the chunker's internal frame boundary.
func frames20ms(sampleRate, n int) []int16 {
	perFrame := sampleRate * 20 / 1000
	return make([]int16, perFrame*n)
}

func TestSessionEmitsOnSpeechEndAfterMinDuration(t *testing.T) {
	// 8 frames of 20ms = 160ms > MinChunkSec(100ms). First frame speech
	// start, remaining continue, last frame speech end.
	events := make([]vad.VADEvent, 8)
	events[0] = vad.VADEvent{Type: vad.VADSpeechStart}
	for i := 1; i < 7; i++ {
		events[i] = vad.VADEvent{Type: vad.VADSpeechContinue}
	}
	events[7] = vad.VADEvent{Type: vad.VADSpeechEnd}

	eng := &scriptedEngine{session: &scriptedSession{events: events}}
	c := New(eng, testChunkerConfig())
	sess, err := c.NewSession("job-1", types.SourceBatch)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	chunks, err := sess.Process(frames20ms(16000, 8))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].JobID != "job-1" {
		t.Errorf("got job id %q", chunks[0].JobID)
	}
	if chunks[0].SourceMode != types.SourceBatch {
		t.Errorf("got source mode %q", chunks[0].SourceMode)
	}
}

func TestSessionDoesNotEmitBelowMinDuration(t *testing.T) {
	events := []vad.VADEvent{
		{Type: vad.VADSpeechStart},
		{Type: vad.VADSpeechEnd},
	}
	cfg := testChunkerConfig()
	cfg.MinChunkSec = 10 // effectively unreachable within this test

	eng := &scriptedEngine{session: &scriptedSession{events: events}}
	c := New(eng, cfg)
	sess, err := c.NewSession("job-1", types.SourceBatch)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	chunks, err := sess.Process(frames20ms(16000, 2))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 0 {
		t.Fatalf("expected no chunk below min duration, got %d", len(chunks))
	}
}

func TestSessionForcesCutAtMaxDuration(t *testing.T) {
	// Continuous speech with no end event; MaxChunkSec should force a cut.
	nFrames := 60 // 60 * 20ms = 1200ms > MaxChunkSec(1.0s)
	events := make([]vad.VADEvent, nFrames)
	for i := range events {
		events[i] = vad.VADEvent{Type: vad.VADSpeechContinue}
	}

	eng := &scriptedEngine{session: &scriptedSession{events: events}}
	c := New(eng, testChunkerConfig())
	sess, err := c.NewSession("job-1", types.SourceLive)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	chunks, err := sess.Process(frames20ms(16000, nFrames))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) == 0 {
		t.Fatal("expected at least one forced chunk")
	}
	for _, c := range chunks {
		if c.Duration().Seconds() > testChunkerConfig().MaxChunkSec+0.05 {
			t.Errorf("chunk duration %v exceeds max", c.Duration())
		}
	}
}

func TestSessionRetainsOverlapAcrossChunks(t *testing.T) {
	nFrames := 60
	events := make([]vad.VADEvent, nFrames)
	for i := range events {
		events[i] = vad.VADEvent{Type: vad.VADSpeechContinue}
	}

	eng := &scriptedEngine{session: &scriptedSession{events: events}}
	cfg := testChunkerConfig()
	c := New(eng, cfg)
	sess, err := c.NewSession("job-1", types.SourceBatch)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	chunks, err := sess.Process(frames20ms(16000, nFrames))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) < 2 {
		t.Fatalf("expected at least 2 chunks to verify overlap, got %d", len(chunks))
	}
	// Consecutive chunks should share OverlapSec of timeline.
	gap := chunks[1].StartSec - chunks[0].EndSec
	if gap > 0 {
		t.Errorf("expected overlapping or contiguous chunks, got gap %v", gap)
	}
}

func TestFlushEmitsRemainingBuffer(t *testing.T) {
	events := []vad.VADEvent{{Type: vad.VADSpeechContinue}}
	eng := &scriptedEngine{session: &scriptedSession{events: events}}
	c := New(eng, testChunkerConfig())
	sess, err := c.NewSession("job-1", types.SourceBatch)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := sess.Process(frames20ms(16000, 1)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	chunk, ok := sess.Flush()
	if !ok {
		t.Fatal("expected flush to emit remaining buffer")
	}
	if chunk.ChunkIndex != 0 {
		t.Errorf("got chunk index %d", chunk.ChunkIndex)
	}

	// A second flush with nothing buffered should report false.
	if _, ok := sess.Flush(); ok {
		t.Error("expected no chunk on empty flush")
	}
}

func TestCloseClosesVADSession(t *testing.T) {
	underlying := &scriptedSession{}
	eng := &scriptedEngine{session: underlying}
	c := New(eng, testChunkerConfig())
	sess, err := c.NewSession("job-1", types.SourceBatch)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := sess.Close(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
