// Package chunker slices a continuous PCM16 stream into AudioChunks using
// voice-activity detection, for both batch (whole file) and live
// (streaming microphone) sources (spec.md §4.2).
//
// Grounded on askidmobile-AIWisper/backend/session/chunk_buffer.go's
// accumulate-then-split-on-silence shape: audio is appended to a buffer
// and cut into chunks on VAD-observed boundaries, with a forced cut at
// MaxChunkSec. Unlike the teacher, which runs its own RMS silence search
// over the whole buffer, this package delegates voice-activity detection
// to a pluggable pkg/provider/vad.Engine so any VAD backend can drive the
// same chunking policy.
//
// spec.md §4.2's five algorithm steps map onto Session.Process as follows:
// frame classification is the VAD engine's job (step 1); a running
// non-speech tally (silenceRunMs) absorbs gaps shorter than GapCloseMs so
// a brief pause doesn't end the current speech segment (step 2); a chunk
// is cut when cumulative speech reaches TargetChunkSec, at the first
// confirmed segment boundary (silenceRunMs >= GapCloseMs) once
// MinChunkSec has accrued, or forcibly at MaxChunkSec (step 3); OverlapSec
// of trailing samples seed the next chunk's buffer (step 4); and live
// sessions additionally flush a partial chunk once silenceRunMs reaches
// LiveFlushMs, bypassing MinChunkSec (step 5).
package chunker

import (
	"context"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/gurbani-transcribe/core/internal/config"
	"github.com/gurbani-transcribe/core/internal/observe"
	"github.com/gurbani-transcribe/core/pkg/provider/vad"
	"github.com/gurbani-transcribe/core/pkg/types"
)

const bytesPerSample = 2

// Chunker creates chunking Sessions backed by a VAD engine.
type Chunker struct {
	vadEngine vad.Engine
	cfg       config.ChunkerConfig
}

// New builds a Chunker that drives vadEngine with cfg's thresholds.
func New(vadEngine vad.Engine, cfg config.ChunkerConfig) *Chunker {
	return &Chunker{vadEngine: vadEngine, cfg: cfg}
}

// Session accumulates one job's samples into AudioChunks.
type Session struct {
	jobID      string
	sourceMode types.SourceMode
	cfg        config.ChunkerConfig
	vadSession vad.SessionHandle

	frameSizeMs   int
	frameBytes    int
	frameByteBuf  []byte // partial frame accumulator across Process calls

	buffer      []int16 // samples since the current chunk's start
	chunkStart  float64 // seconds, absolute position of buffer[0] in the stream
	totalSec    float64 // absolute seconds processed so far
	chunkIndex  int
	speechSeen  bool // whether any speech frame has occurred since chunk start

	speechSec    float64 // cumulative speech-frame duration since chunk start (step 3's "running speech length")
	silenceRunMs float64 // consecutive non-speech duration, reset on every speech frame (step 2's gap tracker)
}

const defaultFrameSizeMs = 20

// NewSession starts a chunking session for jobID. sourceMode is carried
// onto every emitted AudioChunk.
func (c *Chunker) NewSession(jobID string, sourceMode types.SourceMode) (*Session, error) {
	frameSizeMs := defaultFrameSizeMs
	vadSession, err := c.vadEngine.NewSession(vad.Config{
		SampleRate:      c.cfg.SampleRate,
		FrameSizeMs:     frameSizeMs,
		SpeechThreshold: 0.5,
		SilenceThreshold: 0.35,
		Aggressiveness:  c.cfg.VADAggressiveness,
	})
	if err != nil {
		return nil, fmt.Errorf("chunker: new vad session: %w", err)
	}

	frameBytes := c.cfg.SampleRate * frameSizeMs / 1000 * bytesPerSample

	return &Session{
		jobID:       jobID,
		sourceMode:  sourceMode,
		cfg:         c.cfg,
		vadSession:  vadSession,
		frameSizeMs: frameSizeMs,
		frameBytes:  frameBytes,
	}, nil
}

// Process feeds newly-arrived PCM16 samples into the session and returns
// zero or more AudioChunks cut from them. Safe to call repeatedly with
// arbitrarily-sized batches (live capture) or once with a whole file's
// worth of samples (batch mode).
func (s *Session) Process(samples []int16) ([]types.AudioChunk, error) {
	start := time.Now()
	defer func() {
		observe.DefaultMetrics().ChunkDuration.Record(context.Background(), time.Since(start).Seconds())
	}()

	var emitted []types.AudioChunk

	s.frameByteBuf = append(s.frameByteBuf, int16sToBytes(samples)...)

	samplesPerFrame := s.frameBytes / bytesPerSample

	for len(s.frameByteBuf) >= s.frameBytes {
		frame := s.frameByteBuf[:s.frameBytes]
		s.frameByteBuf = s.frameByteBuf[s.frameBytes:]
		for j := 0; j+1 < len(frame); j += bytesPerSample {
			s.buffer = append(s.buffer, int16(binary.LittleEndian.Uint16(frame[j:])))
		}

		event, err := s.vadSession.ProcessFrame(frame)
		if err != nil {
			return emitted, fmt.Errorf("chunker: process frame: %w", err)
		}
		frameDurSec := float64(samplesPerFrame) / float64(s.cfg.SampleRate)
		s.totalSec += frameDurSec

		nonSpeech := event.Type == vad.VADSpeechEnd || event.Type == vad.VADSilence
		switch event.Type {
		case vad.VADSpeechStart, vad.VADSpeechContinue:
			s.speechSeen = true
			s.speechSec += frameDurSec
			s.silenceRunMs = 0
		case vad.VADSpeechEnd, vad.VADSilence:
			s.silenceRunMs += float64(s.frameSizeMs)
		}

		switch {
		case s.cfg.TargetChunkSec > 0 && s.speechSec >= s.cfg.TargetChunkSec:
			// Step 3: running speech length reached the target — cut now,
			// regardless of whether we're mid-speech or in a pause.
			if chunk, ok := s.tryEmit(true); ok {
				emitted = append(emitted, chunk)
			}
		case s.sourceMode == types.SourceLive && nonSpeech &&
			s.cfg.LiveFlushMs > 0 && s.silenceRunMs >= float64(s.cfg.LiveFlushMs):
			// Step 5: live sessions flush a partial chunk after LiveFlushMs
			// of silence, bypassing MinChunkSec for responsiveness.
			if chunk, ok := s.tryEmit(true); ok {
				emitted = append(emitted, chunk)
			}
		case nonSpeech && s.silenceRunMs >= float64(s.cfg.GapCloseMs):
			// Step 2+3: the non-speech run has outlasted GapCloseMs, so this
			// is a confirmed segment boundary, not just a short pause —
			// emit if MinChunkSec has accrued (tryEmit enforces that).
			if chunk, ok := s.tryEmit(false); ok {
				emitted = append(emitted, chunk)
			}
		}

		if chunk, ok := s.tryEmitIfMaxExceeded(); ok {
			emitted = append(emitted, chunk)
		}
	}

	return emitted, nil
}

// tryEmitIfMaxExceeded forces a cut when the buffer has grown past
// MaxChunkSec, mirroring the teacher's "forced chunk split at max
// duration" fallback.
func (s *Session) tryEmitIfMaxExceeded() (types.AudioChunk, bool) {
	bufferedSec := float64(len(s.buffer)) / float64(s.cfg.SampleRate)
	if bufferedSec < s.cfg.MaxChunkSec {
		return types.AudioChunk{}, false
	}
	return s.tryEmit(true)
}

// tryEmit cuts the current buffer into an AudioChunk if it meets
// MinChunkSec (unless forced), retaining OverlapSec of trailing samples
// as the start of the next chunk's buffer for ASR context continuity.
func (s *Session) tryEmit(forced bool) (types.AudioChunk, bool) {
	bufferedSec := float64(len(s.buffer)) / float64(s.cfg.SampleRate)
	if !forced && (bufferedSec < s.cfg.MinChunkSec || !s.speechSeen) {
		return types.AudioChunk{}, false
	}
	if len(s.buffer) == 0 {
		return types.AudioChunk{}, false
	}

	samples := make([]int16, len(s.buffer))
	copy(samples, s.buffer)

	chunk := types.AudioChunk{
		JobID:      s.jobID,
		ChunkIndex: s.chunkIndex,
		StartSec:   s.chunkStart,
		EndSec:     s.chunkStart + bufferedSec,
		Samples:    samples,
		SampleRate: s.cfg.SampleRate,
		SourceMode: s.sourceMode,
	}
	s.chunkIndex++

	overlapSamples := int(s.cfg.OverlapSec * float64(s.cfg.SampleRate))
	if overlapSamples > len(s.buffer) {
		overlapSamples = len(s.buffer)
	}
	keepFrom := len(s.buffer) - overlapSamples

	s.chunkStart = chunk.EndSec - float64(overlapSamples)/float64(s.cfg.SampleRate)
	s.buffer = append([]int16(nil), s.buffer[keepFrom:]...)
	s.speechSeen = false
	s.speechSec = 0
	s.silenceRunMs = 0

	return chunk, true
}

// Flush forces out any remaining buffered audio as a final chunk,
// regardless of MinChunkSec — used at end-of-stream so trailing speech is
// never silently dropped.
func (s *Session) Flush() (types.AudioChunk, bool) {
	for j := 0; j+1 < len(s.frameByteBuf); j += bytesPerSample {
		s.buffer = append(s.buffer, int16(binary.LittleEndian.Uint16(s.frameByteBuf[j:])))
	}
	s.frameByteBuf = nil
	if len(s.buffer) == 0 {
		return types.AudioChunk{}, false
	}
	bufferedSec := float64(len(s.buffer)) / float64(s.cfg.SampleRate)
	chunk := types.AudioChunk{
		JobID:      s.jobID,
		ChunkIndex: s.chunkIndex,
		StartSec:   s.chunkStart,
		EndSec:     s.chunkStart + bufferedSec,
		Samples:    append([]int16(nil), s.buffer...),
		SampleRate: s.cfg.SampleRate,
		SourceMode: s.sourceMode,
	}
	s.chunkIndex++
	s.buffer = nil
	s.speechSeen = false
	s.speechSec = 0
	s.silenceRunMs = 0
	return chunk, true
}

// Close releases the underlying VAD session.
func (s *Session) Close() error {
	return s.vadSession.Close()
}

func int16sToBytes(samples []int16) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(s))
	}
	return out
}
