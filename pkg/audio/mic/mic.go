// Package mic captures live microphone audio via malgo (miniaudio bindings)
// for spec.md's live streaming mode.
package mic

import (
	"context"
	"fmt"
	"sync"

	"github.com/gen2brain/malgo"

	"github.com/gurbani-transcribe/core/pkg/audio"
)

// Mic captures mono PCM16 audio from the default (or named) input device.
// Frames arrive on an internal buffered channel; callers drain it via
// Frames. A single Mic instance captures from one device at a time.
type Mic struct {
	ctx        *malgo.AllocatedContext
	device     *malgo.Device
	sampleRate int

	mu       sync.Mutex
	running  bool
	frames   chan []int16
}

// Config selects the capture device and native sample rate. DeviceName
// matches by case-insensitive substring against malgo's enumerated capture
// devices; empty uses the system default.
type Config struct {
	DeviceName string
	SampleRate int
}

// New initializes a malgo context and opens (but does not start) the
// capture device named by cfg.
func New(cfg Config) (*Mic, error) {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 16000
	}
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("mic: init context: %w", err)
	}

	m := &Mic{
		ctx:        ctx,
		sampleRate: cfg.SampleRate,
		frames:     make(chan []int16, 256),
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.Format = malgo.FormatS16
	deviceConfig.Capture.Channels = 1
	deviceConfig.SampleRate = uint32(cfg.SampleRate)
	deviceConfig.Alsa.NoMMap = 1

	if cfg.DeviceName != "" {
		id, err := findDevice(ctx, cfg.DeviceName)
		if err != nil {
			ctx.Uninit()
			ctx.Free()
			return nil, err
		}
		deviceConfig.Capture.DeviceID = id.Pointer()
	}

	onRecvFrames := func(_, pInputSamples []byte, framecount uint32) {
		if len(pInputSamples) != int(framecount)*2 {
			return
		}
		samples := make([]int16, framecount)
		for i := range samples {
			samples[i] = int16(pInputSamples[i*2]) | int16(pInputSamples[i*2+1])<<8
		}
		// Blocking send: never drop captured audio at the source; the
		// chunker's bounded queue is where spec.md's drop-oldest-unstarted
		// backpressure policy applies, not here.
		m.frames <- samples
	}

	device, err := malgo.InitDevice(ctx.Context, deviceConfig, malgo.DeviceCallbacks{Data: onRecvFrames})
	if err != nil {
		ctx.Uninit()
		ctx.Free()
		return nil, fmt.Errorf("mic: init device: %w", err)
	}
	m.device = device

	return m, nil
}

func findDevice(ctx *malgo.AllocatedContext, name string) (malgo.DeviceID, error) {
	devices, err := ctx.Devices(malgo.Capture)
	if err != nil {
		return malgo.DeviceID{}, fmt.Errorf("mic: enumerate devices: %w", err)
	}
	for _, d := range devices {
		if containsFold(d.Name(), name) {
			return d.ID, nil
		}
	}
	return malgo.DeviceID{}, fmt.Errorf("mic: no capture device matching %q", name)
}

func containsFold(haystack, needle string) bool {
	hl, nl := []rune(haystack), []rune(needle)
	toLower := func(rs []rune) []rune {
		out := make([]rune, len(rs))
		for i, r := range rs {
			if r >= 'A' && r <= 'Z' {
				r += 'a' - 'A'
			}
			out[i] = r
		}
		return out
	}
	hl, nl = toLower(hl), toLower(nl)
	if len(nl) == 0 {
		return true
	}
	for i := 0; i+len(nl) <= len(hl); i++ {
		match := true
		for j := range nl {
			if hl[i+j] != nl[j] {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

// Start begins capture.
func (m *Mic) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return nil
	}
	if err := m.device.Start(); err != nil {
		return fmt.Errorf("mic: start: %w", err)
	}
	m.running = true
	return nil
}

// Stop halts capture; Frames continues to drain any buffered samples.
func (m *Mic) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.running {
		return
	}
	m.device.Stop()
	m.running = false
}

// Frames returns the channel of captured sample batches, each at the
// device's native sample rate. Callers needing a different target rate
// should resample each batch with audio.ResampleMono16.
func (m *Mic) Frames() <-chan []int16 {
	return m.frames
}

// SampleRate returns the device's native capture rate.
func (m *Mic) SampleRate() int { return m.sampleRate }

// Close stops capture and releases the device and malgo context.
//
// device.Uninit blocks until malgo's capture callback thread returns, and
// that thread can itself be blocked mid-send on m.frames if nothing is
// reading it anymore (e.g. the live-mode select loop already exited on
// context cancellation). Draining the channel concurrently with Uninit
// guarantees that send completes instead of deadlocking the shutdown.
func (m *Mic) Close() error {
	m.Stop()

	drained := make(chan struct{})
	go func() {
		audio.Drain(m.frames)
		close(drained)
	}()

	if m.device != nil {
		m.device.Uninit()
	}
	if m.ctx != nil {
		m.ctx.Uninit()
		m.ctx.Free()
	}

	close(m.frames)
	<-drained
	return nil
}

// Decode captures until ctx is cancelled, accumulating every frame into a
// single buffer resampled to targetSampleRate. Intended for short-lived
// live-mode smoke tests; the orchestrator's live path consumes Frames
// directly for lower latency instead of buffering a whole session.
func (m *Mic) Decode(ctx context.Context, targetSampleRate int) ([]int16, error) {
	if err := m.Start(); err != nil {
		return nil, err
	}
	defer m.Stop()

	var out []int16
	for {
		select {
		case <-ctx.Done():
			return out, nil
		case batch := <-m.frames:
			out = append(out, audio.ResampleMono16(batch, m.sampleRate, targetSampleRate)...)
		}
	}
}

var _ audio.Decoder = (*Mic)(nil)
