package speech_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os/exec"
	"testing"
	"time"

	"voice-quiz/internal/domain"
	"voice-quiz/internal/infra/speech"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCommandEngine_Speak(t *testing.T) {
	if _, err := exec.LookPath("echo"); err != nil {
		t.Skip("echo not available")
	}
	engine := speech.NewCommandEngine("echo", []string{"-n"}, testLogger())

	if err := engine.Check(); err != nil {
		t.Fatalf("check: %v", err)
	}
	if err := engine.Speak(context.Background(), "Question 1 of 5."); err != nil {
		t.Errorf("speak: %v", err)
	}
}

func TestCommandEngine_CancelKillsProcess(t *testing.T) {
	if _, err := exec.LookPath("sleep"); err != nil {
		t.Skip("sleep not available")
	}
	engine := speech.NewCommandEngine("sleep", nil, testLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := engine.Speak(ctx, "5")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("error: got %v, want deadline exceeded", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("speak returned after %s, process was not killed", elapsed)
	}
}

func TestCommandEngine_MissingBinary(t *testing.T) {
	engine := speech.NewCommandEngine("definitely-not-a-tts-binary", nil, testLogger())

	if err := engine.Check(); err == nil {
		t.Error("expected check error")
	}
	if err := engine.Speak(context.Background(), "hello"); err == nil {
		t.Error("expected speak error")
	}
}

func TestLogEngine_WaitsForReadingTime(t *testing.T) {
	engine := speech.NewLogEngine(6000, testLogger())

	start := time.Now()
	if err := engine.Speak(context.Background(), "one two three four five"); err != nil {
		t.Fatalf("speak: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 50*time.Millisecond {
		t.Errorf("elapsed: got %s, want at least 50ms", elapsed)
	}
}

func TestLogEngine_Cancel(t *testing.T) {
	engine := speech.NewLogEngine(1, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := engine.Speak(ctx, "a long sentence"); !errors.Is(err, context.Canceled) {
		t.Errorf("error: got %v, want context canceled", err)
	}
}

type nopPlayer struct{}

func (nopPlayer) Play(context.Context, []int16, int) error { return nil }

func TestDeepgramEngine_MissingKey(t *testing.T) {
	engine := speech.NewDeepgramEngine("", "", 0, nopPlayer{}, testLogger())

	err := engine.Speak(context.Background(), "hello")
	if !errors.Is(err, domain.ErrConfiguration) {
		t.Errorf("error: got %v, want configuration error", err)
	}
}
