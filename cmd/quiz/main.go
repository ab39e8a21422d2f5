package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/term"

	"voice-quiz/config"
	"voice-quiz/internal/application"
	"voice-quiz/internal/infra/anthropic"
	"voice-quiz/internal/infra/audio"
	"voice-quiz/internal/infra/control"
	"voice-quiz/internal/infra/gemini"
	"voice-quiz/internal/infra/metrics"
	"voice-quiz/internal/infra/openai"
	"voice-quiz/internal/infra/pushover"
	"voice-quiz/internal/infra/speech"
	"voice-quiz/internal/questionbank"
	"voice-quiz/internal/ui"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	envFile := flag.String("env", ".env", "path to env file with API keys")
	flag.Parse()

	if err := run(*configPath, *envFile); err != nil {
		slog.Error("voice quiz failed", "error", err)
		os.Exit(1)
	}
}

func run(configPath, envFile string) error {
	cfg, err := config.Load(configPath, envFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	useUI := cfg.UIEnabled() && term.IsTerminal(int(os.Stdout.Fd()))
	logger, closeLog, err := setupLogger(cfg.Log, useUI)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	bank := questionbank.Default()
	if cfg.Quiz.QuestionsFile != "" {
		bank, err = questionbank.Load(cfg.Quiz.QuestionsFile)
		if err != nil {
			return fmt.Errorf("loading questions: %w", err)
		}
	}

	speaker := audio.NewSpeaker(logger)
	if err := speaker.Open(); err != nil {
		return fmt.Errorf("opening audio output: %w", err)
	}
	defer speaker.Close()

	recorder, closeRecorder, err := createRecorder(cfg.Audio, logger)
	if err != nil {
		return err
	}
	defer closeRecorder()

	var cues application.CuePlayer = application.NoopCues{}
	if cfg.Cues.Enabled {
		tones := audio.NewToneCues(speaker, logger)
		go tones.Run(ctx)
		cues = tones
	}

	var notifier application.Notifier = &application.NoopNotifier{}
	if cfg.Pushover.Enabled {
		notifier = pushover.NewClient(cfg.Pushover.Token, cfg.Pushover.UserKey)
	}

	prom := metrics.NewPrometheus()

	orch := application.NewOrchestrator(application.Components{
		Bank:        bank,
		Speech:      createSpeechEngine(cfg.Speech, speaker, logger),
		Recorder:    recorder,
		Interpreter: createInterpreter(cfg.Interpreter),
		Cues:        cues,
		Notifier:    notifier,
		Metrics:     prom,
	}, cfg.Timings(), logger)

	runErr := make(chan error, 1)
	go func() {
		runErr <- orch.Run(ctx)
	}()

	if cfg.Control.HTTPAddr != "" {
		var opts []control.Option
		if cfg.Control.TrustProxy {
			opts = append(opts, control.WithTrustedProxy())
		}
		server := control.NewServer(cfg.Control.HTTPAddr, cfg.Control.AuthToken, orch, prom.Handler(), logger, opts...)
		if err := server.Start(ctx); err != nil {
			return fmt.Errorf("starting control server: %w", err)
		}
		defer server.Stop()
	}

	logger.Info("starting voice quiz",
		"questions", bank.Len(),
		"interpreter", cfg.Interpreter.Provider,
		"speech", cfg.Speech.Engine,
		"audio_source", cfg.Audio.Source,
		"ui", useUI,
	)

	if useUI {
		uiErr := ui.Run(ctx, orch.Snapshot(), orch.Subscribe(ctx), orch, ui.Options{NoColor: cfg.UI.NoColor})
		stop()
		<-orch.Done()
		return uiErr
	}

	// Headless without a control server there is nobody to press start.
	if cfg.Control.HTTPAddr == "" {
		orch.Start()
	}

	if err := <-runErr; err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("running quiz: %w", err)
	}
	logger.Info("shutting down")
	return nil
}

type openCloser interface {
	Open() error
	Close() error
}

func createRecorder(cfg config.AudioConfig, logger *slog.Logger) (application.Recorder, func(), error) {
	var recorder interface {
		application.Recorder
		openCloser
	}
	switch cfg.Source {
	case "file":
		recorder = audio.NewFileRecorder(cfg.FileDir, logger)
	default:
		recorder = audio.NewMicrophone(cfg.SampleRate, logger)
	}

	if err := recorder.Open(); err != nil {
		return nil, nil, fmt.Errorf("opening %s recorder: %w", recorder.Name(), err)
	}
	return recorder, func() {
		if err := recorder.Close(); err != nil {
			logger.Warn("closing recorder", "error", err)
		}
	}, nil
}

func createSpeechEngine(cfg config.SpeechConfig, speaker *audio.Speaker, logger *slog.Logger) application.SpeechEngine {
	switch cfg.Engine {
	case "deepgram":
		return speech.NewDeepgramEngine(cfg.Deepgram.APIKey, cfg.Deepgram.Model, cfg.Deepgram.SampleRate, speaker, logger)
	case "log":
		return speech.NewLogEngine(cfg.WordsPerMinute, logger)
	default:
		engine := speech.NewCommandEngine(cfg.Command, cfg.Args, logger)
		if err := engine.Check(); err != nil {
			logger.Warn("speech command unavailable, prompts will only be logged", "error", err)
			return speech.NewLogEngine(cfg.WordsPerMinute, logger)
		}
		return engine
	}
}

func createInterpreter(cfg config.InterpreterConfig) application.Interpreter {
	if cfg.Provider == "whisper" {
		whisper := openai.NewWhisperClientWithURL(cfg.APIKey, cfg.Model, cfg.Language, cfg.BaseURL)
		if cfg.Mapper.Provider == "claude" {
			claude := anthropic.NewClaudeClientWithURL(cfg.Mapper.APIKey, cfg.Mapper.Model, cfg.Mapper.BaseURL)
			return application.NewMappedInterpreter(whisper, claude)
		}
		return whisper
	}
	return gemini.NewClientWithURL(cfg.APIKey, cfg.Model, cfg.BaseURL)
}

// setupLogger writes to stdout, or to the configured file while the TUI owns
// the terminal.
func setupLogger(cfg config.LogConfig, toFile bool) (*slog.Logger, func(), error) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	var out io.Writer = os.Stdout
	closeFn := func() {}
	if toFile {
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("opening log file: %w", err)
		}
		out = f
		closeFn = func() { f.Close() }
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger, closeFn, nil
}
