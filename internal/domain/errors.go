package domain

import "errors"

// Adapters wrap these with fmt.Errorf("...: %w", ErrX) so the orchestrator can branch with errors.Is.
var (
	ErrConfiguration = errors.New("configuration error")
	ErrDevice        = errors.New("capture device error")
	ErrTransport     = errors.New("interpretation transport error")
	ErrAmbiguous     = errors.New("ambiguous answer")
	ErrSpeech        = errors.New("speech output error")
)
