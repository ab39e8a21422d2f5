// Package questionbank holds the ordered, read-only list of quiz questions.
package questionbank

import (
	"fmt"

	"voice-quiz/internal/domain"
)

// Bank is an immutable ordered question list.
type Bank struct {
	questions []domain.Question
}

// New validates the questions and returns a bank holding a private copy of them.
func New(questions []domain.Question) (*Bank, error) {
	if len(questions) == 0 {
		return nil, fmt.Errorf("question bank is empty")
	}
	owned := make([]domain.Question, len(questions))
	for i, q := range questions {
		q.Correct = domain.NormalizeToken(q.Correct)
		q.Options = append([]string(nil), q.Options...)
		if err := q.Validate(); err != nil {
			return nil, fmt.Errorf("question %d: %w", i+1, err)
		}
		owned[i] = q
	}
	return &Bank{questions: owned}, nil
}

func (b *Bank) Len() int {
	return len(b.questions)
}

// At returns the question at a 0-based index.
func (b *Bank) At(index int) (domain.Question, bool) {
	if index < 0 || index >= len(b.questions) {
		return domain.Question{}, false
	}
	q := b.questions[index]
	q.Options = append([]string(nil), q.Options...)
	return q, true
}

// Default returns the built-in question set.
func Default() *Bank {
	b, err := New(defaultQuestions)
	if err != nil {
		panic(fmt.Sprintf("built-in question bank is invalid: %v", err))
	}
	return b
}

var defaultQuestions = []domain.Question{
	{
		Prompt:      "What is the capital of France?",
		Kind:        domain.KindChoice,
		Options:     []string{"Paris", "London", "Rome"},
		Correct:     "paris",
		Explanation: "Paris is the capital of France!",
	},
	{
		Prompt:      "Do cats like to play with yarn?",
		Kind:        domain.KindBinary,
		Correct:     "yes",
		Explanation: "Yes! Most cats love playing with yarn and string!",
	},
	{
		Prompt:      "Can fish fly in the sky?",
		Kind:        domain.KindBinary,
		Correct:     "no",
		Explanation: "No! Fish swim in water, not fly in the sky!",
	},
	{
		Prompt:      "What sound does a cow make?",
		Kind:        domain.KindChoice,
		Options:     []string{"Meow", "Moo", "Woof"},
		Correct:     "moo",
		Explanation: "Cows say 'Moo'!",
	},
	{
		Prompt:      "Is the sun hot?",
		Kind:        domain.KindBinary,
		Correct:     "yes",
		Explanation: "Yes! The sun is very, very hot!",
	},
}
