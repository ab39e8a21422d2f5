//go:build !portaudio
// +build !portaudio

package audio

import (
	"context"
	"fmt"
	"log/slog"

	"voice-quiz/internal/domain"
)

// Microphone stub when portaudio is not available
type Microphone struct {
	logger *slog.Logger
}

func NewMicrophone(_ int, logger *slog.Logger) *Microphone {
	return &Microphone{logger: logger}
}

func (m *Microphone) Name() string {
	return "microphone"
}

func (m *Microphone) Open() error {
	m.logger.Warn("microphone not available: rebuild with -tags portaudio")
	return nil
}

func (m *Microphone) Close() error {
	return nil
}

func (m *Microphone) Begin(_ context.Context, _ func(float64)) error {
	return fmt.Errorf("microphone not available, rebuild with -tags portaudio: %w", domain.ErrDevice)
}

func (m *Microphone) End() ([]byte, error) {
	return nil, nil
}
