package application

import "context"

// Recorder captures one bounded audio clip at a time. Begin while a capture is
// active must end the prior capture first. onLevel receives amplitude samples
// normalized to 0..2 while capturing; it must not block.
type Recorder interface {
	Begin(ctx context.Context, onLevel func(level float64)) error
	End() ([]byte, error)
	Name() string
}
