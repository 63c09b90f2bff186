// Package energy implements [vad.Engine] with a simple RMS-energy detector:
// no model, no CGO dependency, just an adaptive energy threshold over
// fixed-size windows. It is the chunker's default VAD backend — sufficient
// for gating speech/silence in a recording/live-mic pipeline without
// pulling in a neural VAD model.
package energy

import (
	"encoding/binary"
	"errors"
	"math"

	"github.com/gurbani-transcribe/core/pkg/provider/vad"
)

var _ vad.Engine = (*Engine)(nil)

// Engine is a stateless factory for energy-based VAD sessions.
type Engine struct{}

// New returns an energy-based VAD Engine.
func New() *Engine { return &Engine{} }

// NewSession implements vad.Engine.
func (Engine) NewSession(cfg vad.Config) (vad.SessionHandle, error) {
	if cfg.SampleRate <= 0 {
		return nil, errors.New("energy: SampleRate must be > 0")
	}
	if cfg.FrameSizeMs <= 0 {
		return nil, errors.New("energy: FrameSizeMs must be > 0")
	}

	expectedBytes := (cfg.SampleRate * cfg.FrameSizeMs / 1000) * 2 // PCM16 mono
	speechFloor := baseThresholdFor(cfg.Aggressiveness)

	return &session{
		cfg:           cfg,
		expectedBytes: expectedBytes,
		threshold:     speechFloor,
	}, nil
}

// baseThresholdFor maps spec.md's chunker.vad_aggressiveness [0,3] onto an
// RMS energy floor: higher aggressiveness requires more energy to call a
// frame speech, closing chunks on quieter pauses.
func baseThresholdFor(aggressiveness int) float64 {
	switch {
	case aggressiveness <= 0:
		return 0.0025
	case aggressiveness == 1:
		return 0.005
	case aggressiveness == 2:
		return 0.01
	default:
		return 0.02
	}
}

type session struct {
	cfg           vad.Config
	expectedBytes int
	threshold     float64

	// runningAvg adapts the baseline over time so a session isn't locked
	// to the very first frame's loudness.
	runningAvg float64
	framesSeen int
	wasSpeech  bool
}

// ProcessFrame implements vad.SessionHandle.ProcessFrame.
func (s *session) ProcessFrame(frame []byte) (vad.VADEvent, error) {
	if len(frame)%2 != 0 {
		return vad.VADEvent{}, errors.New("energy: frame length must be a multiple of 2 (PCM16)")
	}
	if len(frame) != s.expectedBytes {
		return vad.VADEvent{}, errors.New("energy: frame length does not match the configured FrameSizeMs")
	}

	energy := rmsEnergy(frame)
	s.framesSeen++
	if s.framesSeen == 1 {
		s.runningAvg = energy
	} else {
		// Exponential moving average, slow enough not to chase transients.
		s.runningAvg = s.runningAvg*0.9 + energy*0.1
	}

	adaptive := s.threshold
	if s.runningAvg*0.2 > adaptive {
		adaptive = s.runningAvg * 0.2
	}

	isSpeech := energy >= adaptive
	prob := 0.0
	if adaptive > 0 {
		prob = math.Min(1.0, energy/(adaptive*2))
	}

	var eventType vad.VADEventType
	switch {
	case isSpeech && !s.wasSpeech:
		eventType = vad.VADSpeechStart
	case isSpeech && s.wasSpeech:
		eventType = vad.VADSpeechContinue
	case !isSpeech && s.wasSpeech:
		eventType = vad.VADSpeechEnd
	default:
		eventType = vad.VADSilence
	}
	s.wasSpeech = isSpeech

	return vad.VADEvent{Type: eventType, Probability: prob}, nil
}

// Reset implements vad.SessionHandle.Reset.
func (s *session) Reset() {
	s.runningAvg = 0
	s.framesSeen = 0
	s.wasSpeech = false
}

// Close implements vad.SessionHandle.Close. Energy sessions hold no
// external resources.
func (s *session) Close() error { return nil }

// rmsEnergy computes the root-mean-square energy of a little-endian PCM16
// frame, normalised to [0, 1].
func rmsEnergy(frame []byte) float64 {
	n := len(frame) / 2
	if n == 0 {
		return 0
	}
	var sumSquares float64
	for i := 0; i < n; i++ {
		s := int16(binary.LittleEndian.Uint16(frame[i*2:]))
		norm := float64(s) / 32768.0
		sumSquares += norm * norm
	}
	return math.Sqrt(sumSquares / float64(n))
}
