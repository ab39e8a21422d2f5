package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"voice-quiz/internal/domain"
)

const (
	resultCorrect   = "Correct! Great job!"
	resultIncorrect = "Not quite right, but good try!"
	resultSkipped   = "Let's move on."

	messageRetry        = "Sorry, I didn't catch that. Listening again..."
	messageDevice       = "Could not access the microphone. Check permissions and try manual voice input."
	messageNotReady     = "The interpretation service is not configured. Set the API key and try again."
	messageInterpreting = "Error processing audio. Listening again..."
)

type QuestionBank interface {
	Len() int
	At(index int) (domain.Question, bool)
}

// Components are the collaborators driven by the orchestrator. Cues, Notifier
// and Metrics may be nil.
type Components struct {
	Bank        QuestionBank
	Speech      SpeechEngine
	Recorder    Recorder
	Interpreter Interpreter
	Cues        CuePlayer
	Notifier    Notifier
	Metrics     Metrics
}

// Orchestrator runs the quiz turn loop: speak the prompt, capture an answer,
// interpret it, give feedback, advance. All game state is owned by the Run
// goroutine; every other goroutine talks to it through events.
type Orchestrator struct {
	bank        QuestionBank
	speech      SpeechEngine
	recorder    Recorder
	interpreter Interpreter
	cues        CuePlayer
	notifier    Notifier
	metrics     Metrics
	timings     Timings
	logger      *slog.Logger

	events  chan event
	done    chan struct{}
	running atomic.Bool

	snapMu sync.RWMutex
	snap   domain.Snapshot

	subsMu sync.Mutex
	subs   []chan domain.Snapshot

	// Owned by the Run goroutine.
	runCtx       context.Context
	session      session
	timers       [timerKinds]pendingTimer
	timerSeq     uint64
	op           uint64
	speechCancel context.CancelFunc
	capturing    bool
	remaining    int
	amplitude    float64
	// interpreting is set while an Interpret call is out, stale or not.
	// A clip finished meanwhile waits in queued.
	interpreting bool
	queued       *queuedClip
}

type queuedClip struct {
	op   uint64
	clip []byte
	q    domain.Question
}

type session struct {
	id        string
	phase     domain.Phase
	index     int
	score     int
	lastHeard string
	verdict   domain.Verdict
	attempts  int
	message   string
}

func NewOrchestrator(c Components, timings Timings, logger *slog.Logger) *Orchestrator {
	if c.Cues == nil {
		c.Cues = NoopCues{}
	}
	if c.Notifier == nil {
		c.Notifier = &NoopNotifier{}
	}
	if c.Metrics == nil {
		c.Metrics = NoopMetrics{}
	}
	o := &Orchestrator{
		bank:        c.Bank,
		speech:      c.Speech,
		recorder:    c.Recorder,
		interpreter: c.Interpreter,
		cues:        c.Cues,
		notifier:    c.Notifier,
		metrics:     c.Metrics,
		timings:     timings.withDefaults(),
		logger:      logger,
		events:      make(chan event, 64),
		done:        make(chan struct{}),
		session:     session{phase: domain.PhaseIdle, verdict: domain.VerdictUnknown},
	}
	o.snap = o.buildSnapshot()
	return o
}

// Run processes events until ctx is cancelled. It may only be called once.
func (o *Orchestrator) Run(ctx context.Context) error {
	if !o.running.CompareAndSwap(false, true) {
		return fmt.Errorf("orchestrator already running")
	}
	o.runCtx = ctx
	defer func() {
		o.teardown()
		close(o.done)
		o.closeSubscribers()
	}()

	o.session = session{phase: domain.PhaseAwaitingStart, verdict: domain.VerdictUnknown}
	o.publish()
	o.logger.Info("quiz ready", "questions", o.bank.Len(), "recorder", o.recorder.Name(), "speech", o.speech.Name())

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-o.events:
			o.handle(ev)
			o.publish()
		}
	}
}

// Done is closed once Run has returned.
func (o *Orchestrator) Done() <-chan struct{} {
	return o.done
}

func (o *Orchestrator) Start()                    { o.post(startCmd{}) }
func (o *Orchestrator) SubmitAnswer(token string) { o.post(answerCmd{token: token}) }
func (o *Orchestrator) RequestRepeat()            { o.post(repeatCmd{}) }
func (o *Orchestrator) RequestCapture()           { o.post(captureCmd{}) }
func (o *Orchestrator) StopCapture()              { o.post(stopCmd{}) }
func (o *Orchestrator) Reset()                    { o.post(resetCmd{}) }

// Snapshot returns the state as of the last processed event.
func (o *Orchestrator) Snapshot() domain.Snapshot {
	o.snapMu.RLock()
	defer o.snapMu.RUnlock()
	return o.snap
}

// Subscribe returns a channel that always holds the latest snapshot. Slow
// readers miss intermediate states; the channel is closed when Run exits or
// ctx is cancelled.
func (o *Orchestrator) Subscribe(ctx context.Context) <-chan domain.Snapshot {
	ch := make(chan domain.Snapshot, 1)
	ch <- o.Snapshot()

	o.subsMu.Lock()
	select {
	case <-o.done:
		o.subsMu.Unlock()
		close(ch)
		return ch
	default:
	}
	o.subs = append(o.subs, ch)
	o.subsMu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
		case <-o.done:
			return
		}
		o.subsMu.Lock()
		defer o.subsMu.Unlock()
		for i, sub := range o.subs {
			if sub == ch {
				o.subs = append(o.subs[:i], o.subs[i+1:]...)
				close(ch)
				return
			}
		}
	}()
	return ch
}

func (o *Orchestrator) post(ev event) {
	select {
	case o.events <- ev:
	case <-o.done:
	}
}

// tryPost drops the event when the queue is full.
func (o *Orchestrator) tryPost(ev event) {
	select {
	case o.events <- ev:
	default:
	}
}

func (o *Orchestrator) handle(ev event) {
	switch e := ev.(type) {
	case startCmd:
		o.start()
	case answerCmd:
		o.manualAnswer(e.token)
	case repeatCmd:
		o.repeat()
	case captureCmd:
		o.manualCapture()
	case stopCmd:
		o.stopCapture()
	case resetCmd:
		o.reset()
	case timerFired:
		o.onTimer(e)
	case speechDone:
		o.onSpeechDone(e)
	case levelSample:
		if e.op == o.op && o.capturing {
			o.amplitude = e.level
		}
	case interpreted:
		o.onInterpreted(e)
	default:
		o.logger.Warn("unknown event", "event", fmt.Sprintf("%T", ev))
	}
}

func (o *Orchestrator) start() {
	if o.session.phase != domain.PhaseAwaitingStart {
		o.logger.Debug("start ignored", "phase", o.session.phase)
		return
	}
	if err := o.interpreter.Ready(); err != nil {
		o.session.message = messageNotReady
		o.logger.Error("cannot start game", "error", err)
		return
	}

	o.session = session{
		id:      uuid.NewString(),
		phase:   domain.PhaseSpeakingPrompt,
		verdict: domain.VerdictUnknown,
	}
	o.logger.Info("game started", "session", o.session.id, "questions", o.bank.Len())
	o.schedule(timerAdvance, o.timings.StartDelay, o.speakPrompt)
}

func (o *Orchestrator) speakPrompt() {
	o.cancelTimer(timerAdvance)
	o.discardCapture()

	q, ok := o.current()
	if !ok {
		o.logger.Error("no question at index", "index", o.session.index)
		o.reset()
		return
	}
	o.setPhase(domain.PhaseSpeakingPrompt)
	o.say([]string{promptText(q, o.session.index, o.bank.Len())}, o.beginListening)
}

func (o *Orchestrator) beginListening() {
	o.setPhase(domain.PhaseListening)
	o.startCapture()
}

func (o *Orchestrator) startCapture() {
	if o.session.phase != domain.PhaseListening {
		return
	}
	o.cancelTimer(timerAdvance)
	o.discardCapture()

	o.op++
	op := o.op
	err := o.recorder.Begin(o.runCtx, func(level float64) {
		o.tryPost(levelSample{op: op, level: level})
	})
	if err != nil {
		o.session.message = messageDevice
		o.logger.Error("starting capture", "error", err, "device", errors.Is(err, domain.ErrDevice))
		return
	}

	o.capturing = true
	o.remaining = o.timings.CaptureTicks
	o.amplitude = 0
	o.session.message = ""
	o.cues.Play(CueListenStart)
	o.logger.Debug("capture started", "question", o.session.index+1, "attempt", o.session.attempts+1)
	o.schedule(timerCapture, o.timings.CaptureTick, o.captureTick)
}

func (o *Orchestrator) captureTick() {
	if !o.capturing {
		return
	}
	o.remaining--
	if o.remaining <= 0 {
		o.finishCapture()
		return
	}
	o.schedule(timerCapture, o.timings.CaptureTick, o.captureTick)
}

// finishCapture ends the active capture and hands the clip to the interpreter.
func (o *Orchestrator) finishCapture() {
	clip, err := o.endCapture(true)
	if err != nil {
		o.session.message = messageDevice
		o.logger.Error("ending capture", "error", err)
		return
	}

	o.setPhase(domain.PhaseInterpreting)
	o.op++
	q, _ := o.current()
	next := &queuedClip{op: o.op, clip: clip, q: q}

	if o.interpreting {
		o.logger.Debug("interpretation still running, queueing clip", "question", o.session.index+1)
		o.queued = next
		return
	}
	o.interpret(next)
}

// interpret starts the single outstanding Interpret call.
func (o *Orchestrator) interpret(c *queuedClip) {
	o.interpreting = true
	ctx := o.runCtx
	timeout := o.timings.InterpretTimeout

	go func() {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		started := time.Now()
		token, err := o.interpreter.Interpret(ctx, c.clip, c.q)
		o.post(interpreted{op: c.op, token: token, err: err, elapsed: time.Since(started)})
	}()
}

// dispatchQueued sends the waiting clip once the previous call has returned,
// unless the turn it belongs to is already over.
func (o *Orchestrator) dispatchQueued() {
	c := o.queued
	o.queued = nil
	if c == nil {
		return
	}
	if c.op != o.op || o.session.phase != domain.PhaseInterpreting {
		o.logger.Debug("dropping queued clip", "phase", o.session.phase)
		return
	}
	o.interpret(c)
}

// endCapture stops the recorder if it is active. The stop cue is only played
// for captures that complete normally.
func (o *Orchestrator) endCapture(cue bool) ([]byte, error) {
	o.cancelTimer(timerCapture)
	if !o.capturing {
		return nil, nil
	}
	o.capturing = false
	o.remaining = 0
	o.amplitude = 0
	if cue {
		o.cues.Play(CueListenStop)
	}
	return o.recorder.End()
}

func (o *Orchestrator) discardCapture() {
	if _, err := o.endCapture(false); err != nil {
		o.logger.Warn("discarding capture", "error", err)
	}
}

func (o *Orchestrator) onInterpreted(e interpreted) {
	o.metrics.InterpretationFinished(e.elapsed, e.err)
	o.interpreting = false
	if e.op != o.op || o.session.phase != domain.PhaseInterpreting {
		o.logger.Debug("discarding stale interpretation", "token", e.token, "phase", o.session.phase)
		o.dispatchQueued()
		return
	}
	o.queued = nil
	if e.err != nil {
		o.logger.Warn("interpretation failed", "error", e.err, "transport", errors.Is(e.err, domain.ErrTransport))
		o.session.lastHeard = ""
		o.retry("transport", messageInterpreting)
		return
	}
	o.logger.Info("heard answer", "token", e.token, "question", o.session.index+1)
	o.resolve(e.token, "voice")
}

func (o *Orchestrator) manualAnswer(token string) {
	if o.session.phase != domain.PhaseListening {
		o.logger.Debug("manual answer ignored", "phase", o.session.phase)
		return
	}
	o.cancelTimer(timerAdvance)
	o.discardCapture()
	o.resolve(token, "manual")
}

// resolve applies an interpreted or manually supplied token to the current question.
func (o *Orchestrator) resolve(token, source string) {
	token = domain.NormalizeToken(token)
	o.session.lastHeard = token

	if domain.IsRepeat(token) {
		o.session.message = ""
		o.speakPrompt()
		return
	}

	q, ok := o.current()
	if !ok {
		return
	}
	answer, ok := domain.Classify(q, token)
	if !ok {
		o.logger.Info("answer not recognized", "error", fmt.Errorf("%q: %w", token, domain.ErrAmbiguous), "question", o.session.index+1)
		o.retry("unrecognized", messageRetry)
		return
	}

	correct := domain.IsCorrect(q, answer)
	o.metrics.AnswerResolved(source, correct)
	o.logger.Info("answer resolved", "answer", answer, "correct", correct, "source", source)

	result := resultIncorrect
	o.session.verdict = domain.VerdictIncorrect
	if correct {
		result = resultCorrect
		o.session.score++
		o.session.verdict = domain.VerdictCorrect
		o.cues.Play(CueCorrect)
	} else {
		o.cues.Play(CueIncorrect)
	}
	o.session.message = ""
	o.setPhase(domain.PhaseFeedback)
	o.say([]string{result, q.Explanation}, o.feedbackSpoken)
}

// retry schedules another capture after the settle delay, or skips the
// question once the attempt limit is reached.
func (o *Orchestrator) retry(reason, message string) {
	o.session.attempts++
	o.metrics.AnswerRetried(reason)

	if limit := o.timings.MaxAttempts; limit > 0 && o.session.attempts >= limit {
		o.skip()
		return
	}

	o.session.message = message
	o.setPhase(domain.PhaseListening)
	o.schedule(timerAdvance, o.timings.SettleDelay, o.startCapture)
}

func (o *Orchestrator) skip() {
	q, _ := o.current()
	o.metrics.QuestionSkipped()
	o.logger.Warn("skipping question", "question", o.session.index+1, "attempts", o.session.attempts)

	o.session.verdict = domain.VerdictIncorrect
	o.session.message = fmt.Sprintf("No answer recognized after %d attempts.", o.session.attempts)
	o.cues.Play(CueIncorrect)
	o.setPhase(domain.PhaseFeedback)
	o.say([]string{resultSkipped, q.Explanation}, o.feedbackSpoken)
}

func (o *Orchestrator) feedbackSpoken() {
	o.schedule(timerAdvance, o.timings.FeedbackDelay, o.advance)
}

func (o *Orchestrator) advance() {
	if o.session.phase != domain.PhaseFeedback {
		return
	}
	if o.session.index < o.bank.Len()-1 {
		o.session.index++
		o.session.attempts = 0
		o.session.lastHeard = ""
		o.session.message = ""
		o.session.verdict = domain.VerdictUnknown
		o.speakPrompt()
		return
	}
	o.complete()
}

func (o *Orchestrator) complete() {
	o.setPhase(domain.PhaseComplete)
	score, total := o.session.score, o.bank.Len()
	summary := fmt.Sprintf("Game complete! You got %d out of %d questions correct. %s", score, total, domain.Grade(score, total))

	o.metrics.GameCompleted(score, total)
	o.logger.Info("game complete", "session", o.session.id, "score", score, "total", total)
	o.say([]string{summary}, nil)

	ctx := o.runCtx
	go func() {
		if err := o.notifier.Notify(ctx, summary); err != nil {
			o.logger.Error("notifying result", "error", err)
		}
	}()
}

func (o *Orchestrator) repeat() {
	switch o.session.phase {
	case domain.PhaseSpeakingPrompt, domain.PhaseListening, domain.PhaseInterpreting:
		o.session.message = ""
		o.speakPrompt()
	default:
		o.logger.Debug("repeat ignored", "phase", o.session.phase)
	}
}

func (o *Orchestrator) manualCapture() {
	if o.session.phase != domain.PhaseListening || o.capturing {
		o.logger.Debug("capture request ignored", "phase", o.session.phase, "capturing", o.capturing)
		return
	}
	o.startCapture()
}

func (o *Orchestrator) stopCapture() {
	if o.session.phase != domain.PhaseListening || !o.capturing {
		o.logger.Debug("stop request ignored", "phase", o.session.phase, "capturing", o.capturing)
		return
	}
	o.finishCapture()
}

func (o *Orchestrator) reset() {
	o.teardown()
	o.session = session{phase: domain.PhaseAwaitingStart, verdict: domain.VerdictUnknown}
	o.logger.Info("game reset")
}

// teardown cancels timers, capture and speech and drops a queued clip. An
// in-flight interpretation call is left to finish; the op bump makes its
// result stale.
func (o *Orchestrator) teardown() {
	for kind := range o.timers {
		o.cancelTimer(timerKind(kind))
	}
	o.discardCapture()
	o.cancelSpeech()
	o.queued = nil
	o.op++
}

// say speaks the texts in order, cancelling any current utterance, then runs
// then on the loop. Speech failures are logged and treated as completion.
func (o *Orchestrator) say(texts []string, then func()) {
	o.cancelSpeech()
	o.op++
	op := o.op
	ctx, cancel := context.WithCancel(o.runCtx)
	o.speechCancel = cancel

	go func() {
		defer cancel()
		for _, text := range texts {
			if strings.TrimSpace(text) == "" {
				continue
			}
			if err := o.speech.Speak(ctx, text); err != nil {
				if ctx.Err() != nil {
					break
				}
				o.logger.Warn("speech failed, continuing", "error", fmt.Errorf("%w: %w", domain.ErrSpeech, err))
			}
		}
		o.post(speechDone{op: op, then: then})
	}()
}

func (o *Orchestrator) onSpeechDone(e speechDone) {
	if e.op != o.op {
		return
	}
	o.speechCancel = nil
	if e.then != nil {
		e.then()
	}
}

func (o *Orchestrator) cancelSpeech() {
	if o.speechCancel != nil {
		o.speechCancel()
		o.speechCancel = nil
	}
}

func (o *Orchestrator) current() (domain.Question, bool) {
	return o.bank.At(o.session.index)
}

func (o *Orchestrator) setPhase(phase domain.Phase) {
	if o.session.phase == phase {
		return
	}
	o.logger.Debug("phase changed", "from", o.session.phase, "to", phase, "question", o.session.index+1)
	o.session.phase = phase
}

func (o *Orchestrator) publish() {
	snap := o.buildSnapshot()

	o.snapMu.Lock()
	o.snap = snap
	o.snapMu.Unlock()

	o.subsMu.Lock()
	defer o.subsMu.Unlock()
	for _, ch := range o.subs {
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snap:
		default:
		}
	}
}

func (o *Orchestrator) closeSubscribers() {
	o.subsMu.Lock()
	defer o.subsMu.Unlock()
	for _, ch := range o.subs {
		close(ch)
	}
	o.subs = nil
}

func (o *Orchestrator) buildSnapshot() domain.Snapshot {
	s := o.session
	snap := domain.Snapshot{
		Phase:            s.phase,
		SessionID:        s.id,
		Index:            s.index,
		Total:            o.bank.Len(),
		Score:            s.score,
		Amplitude:        o.amplitude,
		RemainingSeconds: o.remaining,
		Recording:        o.capturing,
		LastHeard:        s.lastHeard,
		Verdict:          s.verdict,
		Attempts:         s.attempts,
		Message:          s.message,
	}
	if q, ok := o.bank.At(s.index); ok {
		snap.Prompt = q.Prompt
		snap.Kind = q.Kind
		snap.Options = q.Options
		snap.Explanation = q.Explanation
	}
	return snap
}

func promptText(q domain.Question, index, total int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Question %d of %d. %s", index+1, total, q.Prompt)
	if q.Kind == domain.KindChoice {
		for i, opt := range q.Options {
			fmt.Fprintf(&sb, " %s, %s.", strings.ToUpper(domain.Letters[i]), opt)
		}
	}
	return sb.String()
}
