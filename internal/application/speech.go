package application

import "context"

// SpeechEngine turns text into audible speech. Speak blocks until playback
// finishes, fails, or ctx is cancelled.
type SpeechEngine interface {
	Speak(ctx context.Context, text string) error
	Name() string
}
