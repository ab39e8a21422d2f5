package audio

import (
	"context"
	"log/slog"
	"math"
	"time"

	"voice-quiz/internal/application"
)

const toneSampleRate = 24000

type PCMPlayer interface {
	Play(ctx context.Context, samples []int16, sampleRate int) error
}

type toneStep struct {
	freq     float64
	duration time.Duration
}

type toneSpec struct {
	steps []toneStep
	gain  float64
}

var cueTones = map[application.Cue]toneSpec{
	application.CueListenStart: {steps: []toneStep{{800, 100 * time.Millisecond}, {1000, 100 * time.Millisecond}}, gain: 0.2},
	application.CueListenStop:  {steps: []toneStep{{1000, 100 * time.Millisecond}, {800, 100 * time.Millisecond}}, gain: 0.2},
	application.CueCorrect: {steps: []toneStep{
		{523.25, 100 * time.Millisecond},
		{659.25, 100 * time.Millisecond},
		{783.99, 100 * time.Millisecond},
	}, gain: 0.3},
	application.CueIncorrect: {steps: []toneStep{{220, 150 * time.Millisecond}, {196, 150 * time.Millisecond}}, gain: 0.2},
}

// Tone synthesizes the sound for cue: a stepped sine with an exponential
// decay from the cue's gain down to 1%.
func Tone(cue application.Cue, sampleRate int) []int16 {
	spec, ok := cueTones[cue]
	if !ok {
		return nil
	}

	var total int
	for _, s := range spec.steps {
		total += stepSamples(s, sampleRate)
	}

	out := make([]int16, 0, total)
	decay := math.Log(0.01 / spec.gain)
	phase := 0.0
	for _, s := range spec.steps {
		n := stepSamples(s, sampleRate)
		step := 2 * math.Pi * s.freq / float64(sampleRate)
		for i := 0; i < n; i++ {
			progress := float64(len(out)) / float64(total)
			gain := spec.gain * math.Exp(decay*progress)
			out = append(out, int16(math.Sin(phase)*gain*math.MaxInt16))
			phase += step
		}
	}
	return out
}

func stepSamples(s toneStep, sampleRate int) int {
	return int(math.Round(s.duration.Seconds() * float64(sampleRate)))
}

// ToneCues plays cues on a background goroutine. Cues arriving while the
// queue is full are dropped.
type ToneCues struct {
	player PCMPlayer
	queue  chan application.Cue
	logger *slog.Logger
	tones  map[application.Cue][]int16
}

func NewToneCues(player PCMPlayer, logger *slog.Logger) *ToneCues {
	tones := make(map[application.Cue][]int16, len(cueTones))
	for cue := range cueTones {
		tones[cue] = Tone(cue, toneSampleRate)
	}
	return &ToneCues{
		player: player,
		queue:  make(chan application.Cue, 4),
		logger: logger,
		tones:  tones,
	}
}

func (t *ToneCues) Play(cue application.Cue) {
	select {
	case t.queue <- cue:
	default:
		t.logger.Debug("cue dropped", "cue", cue)
	}
}

func (t *ToneCues) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case cue := <-t.queue:
			samples, ok := t.tones[cue]
			if !ok {
				continue
			}
			if err := t.player.Play(ctx, samples, toneSampleRate); err != nil {
				t.logger.Debug("playing cue", "cue", cue, "error", err)
			}
		}
	}
}
