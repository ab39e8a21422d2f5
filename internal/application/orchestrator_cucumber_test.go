//go:build cucumber

package application_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/cucumber/godog"

	"voice-quiz/internal/application"
	"voice-quiz/internal/domain"
	"voice-quiz/internal/questionbank"
)

// TestTurnTakingScenarios runs the turn taking feature scenarios.
func TestTurnTakingScenarios(t *testing.T) {
	suite := godog.TestSuite{
		Name:                "turn-taking",
		ScenarioInitializer: InitializeTurnTakingScenario,
		Options: &godog.Options{
			Format:    "pretty",
			Paths:     []string{filepath.Join("..", "..", "features", "turn_taking.feature")},
			Strict:    true,
			TestingT:  t,
			Randomize: 0,
		},
	}
	if suite.Run() != 0 {
		t.Fatalf("non-zero godog status")
	}
}

// InitializeTurnTakingScenario wires steps for turn taking scenarios.
func InitializeTurnTakingScenario(ctx *godog.ScenarioContext) {
	state := &quizScenarioState{}
	ctx.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
		state.reset()
		return ctx, nil
	})
	ctx.After(func(ctx context.Context, _ *godog.Scenario, _ error) (context.Context, error) {
		state.stop()
		return ctx, nil
	})

	ctx.Step(`^the default question bank$`, state.givenDefaultBank)
	ctx.Step(`^the interpreter hears "([^"]*)"$`, state.givenInterpreterHears)
	ctx.Step(`^the interpreter is slow$`, state.givenSlowInterpreter)
	ctx.Step(`^the interpreter is missing its API key$`, state.givenMissingKey)
	ctx.Step(`^the player starts the game$`, state.whenPlayerStarts)
	ctx.Step(`^the player resets the game$`, state.whenPlayerResets)
	ctx.Step(`^the quiz reaches the "([^"]*)" phase$`, state.thenPhase)
	ctx.Step(`^the score is (\d+) out of (\d+)$`, state.thenScore)
	ctx.Step(`^the score reaches (\d+)$`, state.thenScoreReaches)
	ctx.Step(`^the summary "([^"]*)" is announced$`, state.thenSummary)
	ctx.Step(`^the interpreter was asked at least (\d+) times$`, state.thenInterpreterCalls)
	ctx.Step(`^the quiz shows a message$`, state.thenMessage)
}

type quizScenarioState struct {
	bank     *questionbank.Bank
	interp   *fakeInterpreter
	notifier *recordingNotifier
	orch     *application.Orchestrator
	cancel   context.CancelFunc
}

// reset clears scenario state.
func (s *quizScenarioState) reset() {
	s.bank = nil
	s.interp = &fakeInterpreter{}
	s.notifier = &recordingNotifier{messages: make(chan string, 1)}
	s.orch = nil
	s.cancel = nil
}

// stop shuts the orchestrator down and waits for its loop to exit.
func (s *quizScenarioState) stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.orch.Done()
}

func (s *quizScenarioState) givenDefaultBank() error {
	s.bank = questionbank.Default()
	return nil
}

func (s *quizScenarioState) givenInterpreterHears(tokens string) error {
	for _, token := range strings.Split(tokens, ",") {
		s.interp.tokens = append(s.interp.tokens, strings.TrimSpace(token))
	}
	return nil
}

func (s *quizScenarioState) givenSlowInterpreter() error {
	s.interp.gate = make(chan struct{})
	return nil
}

func (s *quizScenarioState) givenMissingKey() error {
	s.interp.readyErr = fmt.Errorf("api key missing: %w", domain.ErrConfiguration)
	return nil
}

func (s *quizScenarioState) whenPlayerStarts() error {
	if s.orch == nil {
		s.orch = application.NewOrchestrator(application.Components{
			Bank:        s.bank,
			Speech:      newFakeSpeech(),
			Recorder:    &fakeRecorder{clip: []byte("audio")},
			Interpreter: s.interp,
			Cues:        &recordingCues{},
			Notifier:    s.notifier,
		}, testTimings(), slog.New(slog.NewTextHandler(io.Discard, nil)))

		ctx, cancel := context.WithCancel(context.Background())
		s.cancel = cancel
		go func() {
			_ = s.orch.Run(ctx)
		}()
		if err := s.await("awaiting start", func(snap domain.Snapshot) bool {
			return snap.Phase == domain.PhaseAwaitingStart
		}); err != nil {
			return err
		}
	}
	s.orch.Start()
	return nil
}

func (s *quizScenarioState) whenPlayerResets() error {
	s.orch.Reset()
	return nil
}

func (s *quizScenarioState) thenPhase(phase string) error {
	return s.await("phase "+phase, func(snap domain.Snapshot) bool {
		return snap.Phase == domain.Phase(phase)
	})
}

func (s *quizScenarioState) thenScore(score, total int) error {
	snap := s.orch.Snapshot()
	if snap.Score != score || snap.Total != total {
		return fmt.Errorf("expected score %d/%d, got %d/%d", score, total, snap.Score, snap.Total)
	}
	return nil
}

func (s *quizScenarioState) thenScoreReaches(score int) error {
	return s.await(fmt.Sprintf("score %d", score), func(snap domain.Snapshot) bool {
		return snap.Score >= score
	})
}

func (s *quizScenarioState) thenSummary(summary string) error {
	select {
	case msg := <-s.notifier.messages:
		if !strings.Contains(msg, summary) {
			return fmt.Errorf("expected summary containing %q, got %q", summary, msg)
		}
		return nil
	case <-time.After(time.Second):
		return fmt.Errorf("summary was not announced")
	}
}

func (s *quizScenarioState) thenInterpreterCalls(n int) error {
	if got := s.interp.callCount(); got < n {
		return fmt.Errorf("expected at least %d interpreter calls, got %d", n, got)
	}
	return nil
}

func (s *quizScenarioState) thenMessage() error {
	return s.await("message", func(snap domain.Snapshot) bool {
		return snap.Message != ""
	})
}

func (s *quizScenarioState) await(what string, cond func(domain.Snapshot) bool) error {
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond(s.orch.Snapshot()) {
			return nil
		}
		time.Sleep(time.Millisecond)
	}
	return fmt.Errorf("timeout waiting for %s; last snapshot: %+v", what, s.orch.Snapshot())
}
