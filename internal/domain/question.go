package domain

import (
	"fmt"
	"strings"
)

type Kind string

const (
	KindBinary Kind = "binary"
	KindChoice Kind = "choice"
)

const (
	AnswerYes = "yes"
	AnswerNo  = "no"
)

// Letters maps option positions to their spoken letter cue.
var Letters = []string{"a", "b", "c"}

type Question struct {
	Prompt      string
	Kind        Kind
	Options     []string
	Correct     string
	Explanation string
}

// NormalizeToken trims whitespace and lowercases a token for matching.
func NormalizeToken(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

// NormalizedOptions returns the option labels in matching form, preserving order.
func (q Question) NormalizedOptions() []string {
	out := make([]string, len(q.Options))
	for i, opt := range q.Options {
		out[i] = NormalizeToken(opt)
	}
	return out
}

// Vocabulary lists the tokens the interpreter is allowed to answer with.
func (q Question) Vocabulary() []string {
	if q.Kind == KindBinary {
		return []string{AnswerYes, AnswerNo}
	}
	return q.NormalizedOptions()
}

func (q Question) Validate() error {
	if strings.TrimSpace(q.Prompt) == "" {
		return fmt.Errorf("question prompt is empty")
	}
	correct := NormalizeToken(q.Correct)
	switch q.Kind {
	case KindBinary:
		if len(q.Options) != 0 {
			return fmt.Errorf("binary question %q must not list options", q.Prompt)
		}
		if correct != AnswerYes && correct != AnswerNo {
			return fmt.Errorf("binary question %q: correct answer must be yes or no, got %q", q.Prompt, q.Correct)
		}
	case KindChoice:
		if len(q.Options) < 2 || len(q.Options) > len(Letters) {
			return fmt.Errorf("choice question %q: need 2 to %d options, got %d", q.Prompt, len(Letters), len(q.Options))
		}
		seen := make(map[string]bool, len(q.Options))
		found := false
		for _, opt := range q.NormalizedOptions() {
			if opt == "" {
				return fmt.Errorf("choice question %q has an empty option", q.Prompt)
			}
			if seen[opt] {
				return fmt.Errorf("choice question %q has duplicate option %q", q.Prompt, opt)
			}
			seen[opt] = true
			if opt == correct {
				found = true
			}
		}
		if !found {
			return fmt.Errorf("choice question %q: correct answer %q is not one of the options", q.Prompt, q.Correct)
		}
	default:
		return fmt.Errorf("question %q: unknown kind %q", q.Prompt, q.Kind)
	}
	return nil
}
