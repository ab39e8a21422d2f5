package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"voice-quiz/config"
)

func TestParse_Defaults(t *testing.T) {
	cfg, err := config.Parse([]byte("interpreter:\n  api_key: abc\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if cfg.Interpreter.Provider != "gemini" {
		t.Errorf("provider: got %s, want gemini", cfg.Interpreter.Provider)
	}
	if cfg.Interpreter.Model != "gemini-2.5-flash" {
		t.Errorf("model: got %s", cfg.Interpreter.Model)
	}
	if cfg.Audio.Source != "microphone" || cfg.Audio.SampleRate != 16000 {
		t.Errorf("audio: got %+v", cfg.Audio)
	}
	if !cfg.UIEnabled() {
		t.Error("ui should be enabled by default")
	}

	timings := cfg.Timings()
	if timings.CaptureTicks != 10 {
		t.Errorf("capture ticks: got %d, want 10", timings.CaptureTicks)
	}
	if timings.SettleDelay != 2*time.Second {
		t.Errorf("settle delay: got %s, want 2s", timings.SettleDelay)
	}
	if timings.MaxAttempts != 3 {
		t.Errorf("max attempts: got %d, want 3", timings.MaxAttempts)
	}
	if timings.InterpretTimeout != 30*time.Second {
		t.Errorf("interpret timeout: got %s, want 30s", timings.InterpretTimeout)
	}
}

func TestParse_WhisperModelDefault(t *testing.T) {
	cfg, err := config.Parse([]byte("interpreter:\n  provider: whisper\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.Interpreter.Model != "whisper-1" {
		t.Errorf("model: got %s, want whisper-1", cfg.Interpreter.Model)
	}
}

func TestParse_ClaudeMapperDefaults(t *testing.T) {
	cfg, err := config.Parse([]byte("interpreter:\n  provider: whisper\n  mapper:\n    provider: claude\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.Interpreter.Mapper.Model != "claude-sonnet-4-20250514" {
		t.Errorf("mapper model: got %s", cfg.Interpreter.Mapper.Model)
	}
}

func TestParse_ExplicitZeroAttemptsIsUnbounded(t *testing.T) {
	cfg, err := config.Parse([]byte("quiz:\n  max_attempts: 0\nui:\n  enabled: false\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := cfg.Timings().MaxAttempts; got != 0 {
		t.Errorf("max attempts: got %d, want 0", got)
	}
	if cfg.UIEnabled() {
		t.Error("ui should be disabled")
	}
}

func TestParse_ExpandsEnvironment(t *testing.T) {
	t.Setenv("QUIZ_TEST_KEY", "secret-key")

	cfg, err := config.Parse([]byte("interpreter:\n  api_key: ${QUIZ_TEST_KEY}\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.Interpreter.APIKey != "secret-key" {
		t.Errorf("api key: got %q, want secret-key", cfg.Interpreter.APIKey)
	}
}

func TestParse_MissingKeyIsNotAnError(t *testing.T) {
	if _, err := config.Parse([]byte("log:\n  level: debug\n")); err != nil {
		t.Fatalf("missing api key should not fail parsing: %v", err)
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"provider", "interpreter:\n  provider: claude\n", "interpreter provider"},
		{"engine", "speech:\n  engine: piper\n", "speech engine"},
		{"source", "audio:\n  source: http\n", "audio source"},
		{"log format", "log:\n  format: xml\n", "log format"},
		{"duration", "quiz:\n  settle_delay: soon\n", "quiz.settle_delay"},
		{"negative attempts", "quiz:\n  max_attempts: -1\n", "max_attempts"},
		{"deepgram key", "speech:\n  engine: deepgram\n", "deepgram.api_key"},
		{"pushover", "pushover:\n  enabled: true\n", "pushover"},
		{"mapper provider", "interpreter:\n  provider: whisper\n  mapper:\n    provider: gpt\n", "interpreter mapper"},
		{"mapper without whisper", "interpreter:\n  mapper:\n    provider: claude\n", "requires the whisper provider"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.Parse([]byte(tt.yaml))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error: got %q, want it to mention %q", err, tt.want)
			}
		})
	}
}

func TestLoad_EnvFile(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	cfgPath := filepath.Join(dir, "config.yaml")

	if err := os.WriteFile(envPath, []byte("QUIZ_ENV_FILE_KEY=from-dotenv\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(cfgPath, []byte("interpreter:\n  api_key: ${QUIZ_ENV_FILE_KEY}\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Unsetenv("QUIZ_ENV_FILE_KEY") })

	cfg, err := config.Load(cfgPath, envPath)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Interpreter.APIKey != "from-dotenv" {
		t.Errorf("api key: got %q, want from-dotenv", cfg.Interpreter.APIKey)
	}
}

func TestLoad_MissingEnvFileIgnored(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(cfgPath, []byte("{}\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := config.Load(cfgPath, filepath.Join(dir, "missing.env")); err != nil {
		t.Fatalf("load: %v", err)
	}
}
