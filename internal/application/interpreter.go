package application

import (
	"context"
	"fmt"
	"strings"

	"voice-quiz/internal/domain"
)

// Interpreter sends a recorded answer to a remote service and returns a
// normalized token, domain.TokenRepeat, or domain.TokenUnclear.
// Implementations do not retry; an empty clip yields TokenUnclear without a
// remote call.
type Interpreter interface {
	Interpret(ctx context.Context, clip []byte, q domain.Question) (string, error)
	// Ready reports whether the service credential is configured.
	Ready() error
}

// Transcriber turns a clip into free text. hints bias recognition toward the
// expected words.
type Transcriber interface {
	Transcribe(ctx context.Context, clip []byte, hints []string) (string, error)
	Ready() error
}

// AnswerMapper picks the vocabulary token a free-text answer refers to.
type AnswerMapper interface {
	MapAnswer(ctx context.Context, transcript string, q domain.Question) (string, error)
	Ready() error
}

// MappedInterpreter transcribes with one service and maps the transcript
// onto the question's vocabulary with another.
type MappedInterpreter struct {
	transcriber Transcriber
	mapper      AnswerMapper
}

func NewMappedInterpreter(transcriber Transcriber, mapper AnswerMapper) *MappedInterpreter {
	return &MappedInterpreter{transcriber: transcriber, mapper: mapper}
}

func (m *MappedInterpreter) Ready() error {
	if err := m.transcriber.Ready(); err != nil {
		return err
	}
	return m.mapper.Ready()
}

func (m *MappedInterpreter) Interpret(ctx context.Context, clip []byte, q domain.Question) (string, error) {
	if err := m.Ready(); err != nil {
		return "", err
	}
	if len(clip) == 0 {
		return domain.TokenUnclear, nil
	}

	transcript, err := m.transcriber.Transcribe(ctx, clip, q.Vocabulary())
	if err != nil {
		return "", fmt.Errorf("transcribing answer: %w", err)
	}
	if strings.TrimSpace(transcript) == "" {
		return domain.TokenUnclear, nil
	}

	token, err := m.mapper.MapAnswer(ctx, transcript, q)
	if err != nil {
		return "", fmt.Errorf("mapping answer: %w", err)
	}
	return token, nil
}
