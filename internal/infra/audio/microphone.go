//go:build portaudio
// +build portaudio

package audio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gordonklaus/portaudio"

	"voice-quiz/internal/domain"
)

const (
	framesPerBuffer = 1024
	maxClipSeconds  = 30
)

// Microphone records answers from the default input device as 16-bit mono PCM.
type Microphone struct {
	sampleRate int
	logger     *slog.Logger

	mu     sync.Mutex
	active *micCapture
}

type micCapture struct {
	stream  *portaudio.Stream
	buf     []int16
	samples []int16
	stop    chan struct{}
	done    chan struct{}
	err     error
}

func NewMicrophone(sampleRate int, logger *slog.Logger) *Microphone {
	return &Microphone{sampleRate: sampleRate, logger: logger}
}

func (m *Microphone) Name() string {
	return "microphone"
}

func (m *Microphone) Open() error {
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("initializing portaudio: %w: %w", domain.ErrDevice, err)
	}
	return nil
}

func (m *Microphone) Close() error {
	if _, err := m.End(); err != nil {
		m.logger.Warn("ending capture on close", "error", err)
	}
	return portaudio.Terminate()
}

func (m *Microphone) Begin(ctx context.Context, onLevel func(float64)) error {
	m.mu.Lock()
	prior := m.active
	m.active = nil
	m.mu.Unlock()
	if prior != nil {
		m.logger.Debug("ending previous capture before starting a new one")
		prior.finish()
	}

	c := &micCapture{
		buf:     make([]int16, framesPerBuffer),
		samples: make([]int16, 0, m.sampleRate*5),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}

	stream, err := portaudio.OpenDefaultStream(1, 0, float64(m.sampleRate), len(c.buf), c.buf)
	if err != nil {
		return fmt.Errorf("opening input stream: %w: %w", domain.ErrDevice, err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		return fmt.Errorf("starting input stream: %w: %w", domain.ErrDevice, err)
	}
	c.stream = stream

	m.mu.Lock()
	m.active = c
	m.mu.Unlock()

	go c.read(ctx, m.sampleRate*maxClipSeconds, newLevelMeter(onLevel))

	m.logger.Debug("microphone capture started", "sampleRate", m.sampleRate)
	return nil
}

func (m *Microphone) End() ([]byte, error) {
	m.mu.Lock()
	c := m.active
	m.active = nil
	m.mu.Unlock()

	if c == nil {
		return nil, nil
	}
	c.finish()

	if c.err != nil && len(c.samples) == 0 {
		return nil, fmt.Errorf("reading input stream: %w: %w", domain.ErrDevice, c.err)
	}
	m.logger.Debug("microphone capture ended", "seconds", float64(len(c.samples))/float64(m.sampleRate))
	return EncodeWAV(c.samples, m.sampleRate), nil
}

func (c *micCapture) read(ctx context.Context, maxSamples int, meter *levelMeter) {
	defer close(c.done)

	for {
		select {
		case <-c.stop:
			return
		case <-ctx.Done():
			return
		default:
		}

		if err := c.stream.Read(); err != nil {
			if errors.Is(err, portaudio.InputOverflowed) {
				continue
			}
			c.err = err
			return
		}

		if room := maxSamples - len(c.samples); room > 0 {
			n := min(room, len(c.buf))
			c.samples = append(c.samples, c.buf[:n]...)
		}
		meter.observe(time.Now(), c.buf)
	}
}

func (c *micCapture) finish() {
	close(c.stop)
	<-c.done
	c.stream.Stop()
	c.stream.Close()
}
