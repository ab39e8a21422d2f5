package application

import "time"

// Timings holds every delay the orchestrator waits on.
type Timings struct {
	StartDelay       time.Duration
	CaptureTick      time.Duration
	CaptureTicks     int
	SettleDelay      time.Duration
	FeedbackDelay    time.Duration
	InterpretTimeout time.Duration
	// MaxAttempts bounds unrecognized answers per question before it is
	// skipped. Zero means unbounded.
	MaxAttempts int
}

func DefaultTimings() Timings {
	return Timings{
		StartDelay:       500 * time.Millisecond,
		CaptureTick:      time.Second,
		CaptureTicks:     10,
		SettleDelay:      2 * time.Second,
		FeedbackDelay:    time.Second,
		InterpretTimeout: 30 * time.Second,
		MaxAttempts:      3,
	}
}

func (t Timings) withDefaults() Timings {
	d := DefaultTimings()
	if t.CaptureTick <= 0 {
		t.CaptureTick = d.CaptureTick
	}
	if t.CaptureTicks <= 0 {
		t.CaptureTicks = d.CaptureTicks
	}
	if t.InterpretTimeout <= 0 {
		t.InterpretTimeout = d.InterpretTimeout
	}
	if t.MaxAttempts < 0 {
		t.MaxAttempts = 0
	}
	return t
}
