package application

import "time"

// Metrics observes turn outcomes. Implementations must be safe for concurrent use.
type Metrics interface {
	AnswerResolved(source string, correct bool)
	AnswerRetried(reason string)
	QuestionSkipped()
	InterpretationFinished(elapsed time.Duration, err error)
	GameCompleted(score, total int)
}

type NoopMetrics struct{}

func (NoopMetrics) AnswerResolved(string, bool)                 {}
func (NoopMetrics) AnswerRetried(string)                        {}
func (NoopMetrics) QuestionSkipped()                            {}
func (NoopMetrics) InterpretationFinished(time.Duration, error) {}
func (NoopMetrics) GameCompleted(int, int)                      {}
