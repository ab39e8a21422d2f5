package speech

import (
	"context"
	"encoding/binary"
	"fmt"
	"log/slog"
	"sync"
	"time"

	msginterfaces "github.com/deepgram/deepgram-go-sdk/pkg/api/speak/v1/websocket/interfaces"
	clientinterfaces "github.com/deepgram/deepgram-go-sdk/pkg/client/interfaces/v1"
	"github.com/deepgram/deepgram-go-sdk/pkg/client/speak"

	"voice-quiz/internal/domain"
	"voice-quiz/internal/infra"
)

const (
	deepgramIdleWindow = 400 * time.Millisecond
	deepgramMaxWait    = 12 * time.Second
)

type PCMPlayer interface {
	Play(ctx context.Context, samples []int16, sampleRate int) error
}

// DeepgramEngine synthesizes speech over Deepgram's streaming speak API and
// plays the returned linear16 audio.
type DeepgramEngine struct {
	apiKey     string
	model      string
	sampleRate int
	player     PCMPlayer
	retry      infra.RetryConfig
	logger     *slog.Logger
}

func NewDeepgramEngine(apiKey, model string, sampleRate int, player PCMPlayer, logger *slog.Logger) *DeepgramEngine {
	if model == "" {
		model = "aura-2-thalia-en"
	}
	if sampleRate == 0 {
		sampleRate = 24000
	}
	retry := infra.DefaultRetryConfig()
	retry.OnRetry = func(attempt int, err error) {
		logger.Warn("deepgram connect failed, retrying", "attempt", attempt, "error", err)
	}
	return &DeepgramEngine{
		apiKey:     apiKey,
		model:      model,
		sampleRate: sampleRate,
		player:     player,
		retry:      retry,
		logger:     logger,
	}
}

func (d *DeepgramEngine) Name() string {
	return "deepgram"
}

type speakConn interface {
	Connect() bool
	SpeakWithText(text string) error
	Flush() error
	Stop()
}

func (d *DeepgramEngine) Speak(ctx context.Context, text string) error {
	if d.apiKey == "" {
		return fmt.Errorf("deepgram API key missing: %w", domain.ErrConfiguration)
	}
	if text == "" {
		return nil
	}

	pcm, err := d.synthesize(ctx, text)
	if err != nil {
		return err
	}
	if len(pcm) == 0 {
		return fmt.Errorf("deepgram returned no audio: %w", domain.ErrTransport)
	}
	return d.player.Play(ctx, pcm, d.sampleRate)
}

func (d *DeepgramEngine) synthesize(ctx context.Context, text string) ([]int16, error) {
	cb := newSpeakCallback()
	options := &clientinterfaces.WSSpeakOptions{
		Model:      d.model,
		Encoding:   "linear16",
		SampleRate: d.sampleRate,
	}

	var conn speakConn
	err := infra.WithRetry(ctx, d.retry, func() error {
		dg, err := speak.NewWSUsingCallback(ctx, d.apiKey, &clientinterfaces.ClientOptions{}, options, cb)
		if err != nil {
			return fmt.Errorf("creating deepgram client: %w", err)
		}
		if ok := dg.Connect(); !ok {
			dg.Stop()
			return fmt.Errorf("deepgram connect failed: %w", domain.ErrTransport)
		}
		conn = dg
		return nil
	})
	if err != nil {
		return nil, err
	}
	defer conn.Stop()

	if err := conn.SpeakWithText(text); err != nil {
		return nil, fmt.Errorf("deepgram speak text: %w: %w", domain.ErrTransport, err)
	}
	if err := conn.Flush(); err != nil {
		d.logger.Warn("deepgram flush failed", "error", err)
	}

	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	deadline := time.Now().Add(deepgramMaxWait)

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-cb.flushed:
			return cb.samples(), nil
		case <-ticker.C:
			if last := cb.lastAudio(); !last.IsZero() && time.Since(last) > deepgramIdleWindow {
				return cb.samples(), nil
			}
			if time.Now().After(deadline) {
				d.logger.Warn("deepgram synthesis timed out", "text", text)
				return cb.samples(), nil
			}
		}
	}
}

type speakCallback struct {
	mu       sync.Mutex
	pcm      []byte
	last     time.Time
	flushed  chan struct{}
	flushOne sync.Once
}

func newSpeakCallback() *speakCallback {
	return &speakCallback{flushed: make(chan struct{})}
}

func (s *speakCallback) Open(*msginterfaces.OpenResponse) error         { return nil }
func (s *speakCallback) Metadata(*msginterfaces.MetadataResponse) error { return nil }
func (s *speakCallback) Clear(*msginterfaces.ClearedResponse) error     { return nil }
func (s *speakCallback) Close(*msginterfaces.CloseResponse) error       { return nil }
func (s *speakCallback) Warning(*msginterfaces.WarningResponse) error   { return nil }
func (s *speakCallback) Error(*msginterfaces.ErrorResponse) error       { return nil }
func (s *speakCallback) UnhandledEvent([]byte) error                    { return nil }

func (s *speakCallback) Flush(*msginterfaces.FlushedResponse) error {
	s.flushOne.Do(func() { close(s.flushed) })
	return nil
}

func (s *speakCallback) Binary(data []byte) error {
	if len(data) == 0 {
		return nil
	}
	s.mu.Lock()
	s.pcm = append(s.pcm, data...)
	s.last = time.Now()
	s.mu.Unlock()
	return nil
}

func (s *speakCallback) lastAudio() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

func (s *speakCallback) samples() []int16 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return decodeLinear16(s.pcm)
}

func decodeLinear16(pcm []byte) []int16 {
	out := make([]int16, len(pcm)/2)
	for i := range out {
		out[i] = int16(binary.LittleEndian.Uint16(pcm[2*i:]))
	}
	return out
}
