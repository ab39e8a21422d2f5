package speech

import (
	"context"
	"log/slog"
	"strings"
	"time"
)

// LogEngine writes utterances to the log and waits roughly as long as reading
// them aloud would take. Used for headless runs.
type LogEngine struct {
	perWord time.Duration
	logger  *slog.Logger
}

func NewLogEngine(wordsPerMinute int, logger *slog.Logger) *LogEngine {
	perWord := time.Duration(0)
	if wordsPerMinute > 0 {
		perWord = time.Minute / time.Duration(wordsPerMinute)
	}
	return &LogEngine{perWord: perWord, logger: logger}
}

func (l *LogEngine) Name() string {
	return "log"
}

func (l *LogEngine) Speak(ctx context.Context, text string) error {
	l.logger.Info("say", "text", text)

	wait := time.Duration(len(strings.Fields(text))) * l.perWord
	if wait <= 0 {
		return nil
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
