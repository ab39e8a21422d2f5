package application

import "time"

type event interface{}

type (
	startCmd   struct{}
	answerCmd  struct{ token string }
	repeatCmd  struct{}
	captureCmd struct{}
	stopCmd    struct{}
	resetCmd   struct{}
)

type speechDone struct {
	op   uint64
	then func()
}

type levelSample struct {
	op    uint64
	level float64
}

type interpreted struct {
	op      uint64
	token   string
	err     error
	elapsed time.Duration
}

type timerKind int

const (
	// timerAdvance covers the start delay, the settle delay before a capture
	// retry and the pause after feedback.
	timerAdvance timerKind = iota
	// timerCapture is the capture countdown tick.
	timerCapture
	timerKinds
)

func (k timerKind) String() string {
	switch k {
	case timerAdvance:
		return "advance"
	case timerCapture:
		return "capture"
	default:
		return "unknown"
	}
}

type pendingTimer struct {
	timer *time.Timer
	seq   uint64
}

type timerFired struct {
	kind timerKind
	seq  uint64
	fn   func()
}

// schedule replaces any pending timer of the same kind.
func (o *Orchestrator) schedule(kind timerKind, d time.Duration, fn func()) {
	o.cancelTimer(kind)
	o.timerSeq++
	seq := o.timerSeq
	o.timers[kind] = pendingTimer{
		seq: seq,
		timer: time.AfterFunc(d, func() {
			o.post(timerFired{kind: kind, seq: seq, fn: fn})
		}),
	}
}

func (o *Orchestrator) cancelTimer(kind timerKind) {
	if t := o.timers[kind].timer; t != nil {
		t.Stop()
	}
	o.timers[kind] = pendingTimer{}
}

// onTimer runs a timer callback unless the timer was cancelled or replaced
// after it fired.
func (o *Orchestrator) onTimer(e timerFired) {
	if o.timers[e.kind].seq != e.seq || e.seq == 0 {
		o.logger.Debug("discarding stale timer", "timer", e.kind)
		return
	}
	o.timers[e.kind] = pendingTimer{}
	e.fn()
}
