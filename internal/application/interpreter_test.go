package application_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"voice-quiz/internal/application"
	"voice-quiz/internal/domain"
)

type stubTranscriber struct {
	text     string
	err      error
	readyErr error
	hints    []string
}

func (s *stubTranscriber) Ready() error { return s.readyErr }

func (s *stubTranscriber) Transcribe(_ context.Context, _ []byte, hints []string) (string, error) {
	s.hints = hints
	return s.text, s.err
}

type stubMapper struct {
	token      string
	readyErr   error
	transcript string
	calls      int
}

func (s *stubMapper) Ready() error { return s.readyErr }

func (s *stubMapper) MapAnswer(_ context.Context, transcript string, _ domain.Question) (string, error) {
	s.calls++
	s.transcript = transcript
	return s.token, nil
}

var binaryQuestion = domain.Question{Prompt: "Is the sky blue?", Kind: domain.KindBinary, Correct: "yes"}

func TestMappedInterpreter_Interpret(t *testing.T) {
	transcriber := &stubTranscriber{text: "yeah I think so"}
	mapper := &stubMapper{token: "yes"}
	interp := application.NewMappedInterpreter(transcriber, mapper)

	token, err := interp.Interpret(context.Background(), []byte("audio"), binaryQuestion)
	if err != nil {
		t.Fatalf("Interpret error: %v", err)
	}
	if token != "yes" {
		t.Errorf("token: got %q, want yes", token)
	}
	if mapper.transcript != "yeah I think so" {
		t.Errorf("mapper transcript: got %q", mapper.transcript)
	}
	if len(transcriber.hints) != 2 || transcriber.hints[0] != domain.AnswerYes {
		t.Errorf("hints: got %v", transcriber.hints)
	}
}

func TestMappedInterpreter_EmptyInputIsUnclear(t *testing.T) {
	tests := []struct {
		name string
		clip []byte
		text string
	}{
		{"empty clip", nil, "yes"},
		{"blank transcript", []byte("audio"), "  "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mapper := &stubMapper{token: "yes"}
			interp := application.NewMappedInterpreter(&stubTranscriber{text: tt.text}, mapper)

			token, err := interp.Interpret(context.Background(), tt.clip, binaryQuestion)
			if err != nil {
				t.Fatalf("Interpret error: %v", err)
			}
			if token != domain.TokenUnclear {
				t.Errorf("token: got %q, want %q", token, domain.TokenUnclear)
			}
			if mapper.calls != 0 {
				t.Errorf("mapper calls: got %d, want 0", mapper.calls)
			}
		})
	}
}

func TestMappedInterpreter_Errors(t *testing.T) {
	missing := fmt.Errorf("key missing: %w", domain.ErrConfiguration)

	interp := application.NewMappedInterpreter(&stubTranscriber{}, &stubMapper{readyErr: missing})
	if err := interp.Ready(); !errors.Is(err, domain.ErrConfiguration) {
		t.Errorf("Ready: expected ErrConfiguration, got %v", err)
	}

	transport := fmt.Errorf("timeout: %w", domain.ErrTransport)
	interp = application.NewMappedInterpreter(&stubTranscriber{err: transport}, &stubMapper{})
	if _, err := interp.Interpret(context.Background(), []byte("audio"), binaryQuestion); !errors.Is(err, domain.ErrTransport) {
		t.Errorf("Interpret: expected ErrTransport, got %v", err)
	}
}
