package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"voice-quiz/internal/application"
)

type Config struct {
	Interpreter InterpreterConfig `yaml:"interpreter"`
	Speech      SpeechConfig      `yaml:"speech"`
	Audio       AudioConfig       `yaml:"audio"`
	Quiz        QuizConfig        `yaml:"quiz"`
	Control     ControlConfig     `yaml:"control"`
	UI          UIConfig          `yaml:"ui"`
	Cues        CuesConfig        `yaml:"cues"`
	Pushover    PushoverConfig    `yaml:"pushover"`
	Log         LogConfig         `yaml:"log"`
}

type InterpreterConfig struct {
	Provider string `yaml:"provider"`
	APIKey   string `yaml:"api_key"`
	Model    string `yaml:"model"`
	BaseURL  string `yaml:"base_url"`
	Language string `yaml:"language"`
	Timeout  string `yaml:"timeout"`
	// Mapper post-processes whisper transcripts.
	Mapper MapperConfig `yaml:"mapper"`
}

type MapperConfig struct {
	Provider string `yaml:"provider"`
	APIKey   string `yaml:"api_key"`
	Model    string `yaml:"model"`
	BaseURL  string `yaml:"base_url"`
}

type SpeechConfig struct {
	Engine         string         `yaml:"engine"`
	Command        string         `yaml:"command"`
	Args           []string       `yaml:"args"`
	WordsPerMinute int            `yaml:"words_per_minute"`
	Deepgram       DeepgramConfig `yaml:"deepgram"`
}

type DeepgramConfig struct {
	APIKey     string `yaml:"api_key"`
	Model      string `yaml:"model"`
	SampleRate int    `yaml:"sample_rate"`
}

type AudioConfig struct {
	Source     string `yaml:"source"`
	FileDir    string `yaml:"file_dir"`
	SampleRate int    `yaml:"sample_rate"`
}

type QuizConfig struct {
	QuestionsFile  string `yaml:"questions_file"`
	StartDelay     string `yaml:"start_delay"`
	CaptureSeconds int    `yaml:"capture_seconds"`
	SettleDelay    string `yaml:"settle_delay"`
	FeedbackDelay  string `yaml:"feedback_delay"`
	// MaxAttempts of zero retries forever.
	MaxAttempts *int `yaml:"max_attempts"`
}

type ControlConfig struct {
	HTTPAddr   string `yaml:"http_addr"`
	AuthToken  string `yaml:"auth_token"`
	TrustProxy bool   `yaml:"trust_proxy"`
}

type UIConfig struct {
	Enabled *bool `yaml:"enabled"`
	NoColor bool  `yaml:"no_color"`
}

type CuesConfig struct {
	Enabled bool `yaml:"enabled"`
}

type PushoverConfig struct {
	Token   string `yaml:"token"`
	UserKey string `yaml:"user_key"`
	Enabled bool   `yaml:"enabled"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

// Load reads the YAML file at path after loading envFile into the process
// environment. A missing env file is not an error.
func Load(path, envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("loading env file: %w", err)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return Parse(data)
}

// Parse expands environment variables in data and decodes it.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.setDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) setDefaults() {
	if c.Interpreter.Provider == "" {
		c.Interpreter.Provider = "gemini"
	}
	if c.Interpreter.Model == "" {
		switch c.Interpreter.Provider {
		case "whisper":
			c.Interpreter.Model = "whisper-1"
		default:
			c.Interpreter.Model = "gemini-2.5-flash"
		}
	}
	if c.Interpreter.Mapper.Provider == "claude" && c.Interpreter.Mapper.Model == "" {
		c.Interpreter.Mapper.Model = "claude-sonnet-4-20250514"
	}
	if c.Interpreter.Language == "" {
		c.Interpreter.Language = "en"
	}
	if c.Interpreter.Timeout == "" {
		c.Interpreter.Timeout = "30s"
	}
	if c.Speech.Engine == "" {
		c.Speech.Engine = "command"
	}
	if c.Speech.Command == "" {
		c.Speech.Command = "espeak-ng"
		if runtime.GOOS == "darwin" {
			c.Speech.Command = "say"
		}
	}
	if c.Speech.WordsPerMinute == 0 {
		c.Speech.WordsPerMinute = 160
	}
	if c.Speech.Deepgram.Model == "" {
		c.Speech.Deepgram.Model = "aura-2-thalia-en"
	}
	if c.Speech.Deepgram.SampleRate == 0 {
		c.Speech.Deepgram.SampleRate = 24000
	}
	if c.Audio.Source == "" {
		c.Audio.Source = "microphone"
	}
	if c.Audio.FileDir == "" {
		c.Audio.FileDir = "./audio"
	}
	if c.Audio.SampleRate == 0 {
		c.Audio.SampleRate = 16000
	}
	if c.Quiz.StartDelay == "" {
		c.Quiz.StartDelay = "500ms"
	}
	if c.Quiz.CaptureSeconds == 0 {
		c.Quiz.CaptureSeconds = 10
	}
	if c.Quiz.SettleDelay == "" {
		c.Quiz.SettleDelay = "2s"
	}
	if c.Quiz.FeedbackDelay == "" {
		c.Quiz.FeedbackDelay = "1s"
	}
	if c.Quiz.MaxAttempts == nil {
		n := 3
		c.Quiz.MaxAttempts = &n
	}
	if c.UI.Enabled == nil {
		enabled := true
		c.UI.Enabled = &enabled
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.Log.File == "" {
		c.Log.File = "voice-quiz.log"
	}
}

// Validate checks enumerations and durations. Credentials are not checked
// here: a missing interpreter key blocks game start instead.
func (c *Config) Validate() error {
	switch c.Interpreter.Provider {
	case "gemini", "whisper":
	default:
		return fmt.Errorf("unknown interpreter provider %q", c.Interpreter.Provider)
	}
	switch c.Interpreter.Mapper.Provider {
	case "":
	case "claude":
		if c.Interpreter.Provider != "whisper" {
			return fmt.Errorf("interpreter.mapper requires the whisper provider")
		}
	default:
		return fmt.Errorf("unknown interpreter mapper %q", c.Interpreter.Mapper.Provider)
	}
	switch c.Speech.Engine {
	case "command", "deepgram", "log":
	default:
		return fmt.Errorf("unknown speech engine %q", c.Speech.Engine)
	}
	switch c.Audio.Source {
	case "microphone", "file":
	default:
		return fmt.Errorf("unknown audio source %q", c.Audio.Source)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.Log.Format)
	}
	if c.Speech.Engine == "deepgram" && c.Speech.Deepgram.APIKey == "" {
		return fmt.Errorf("speech.deepgram.api_key is required for the deepgram engine")
	}
	if c.Quiz.CaptureSeconds < 0 {
		return fmt.Errorf("quiz.capture_seconds must be positive")
	}
	if *c.Quiz.MaxAttempts < 0 {
		return fmt.Errorf("quiz.max_attempts must not be negative")
	}
	if c.Pushover.Enabled && (c.Pushover.Token == "" || c.Pushover.UserKey == "") {
		return fmt.Errorf("pushover is enabled but token or user_key is empty")
	}

	for name, value := range map[string]string{
		"interpreter.timeout": c.Interpreter.Timeout,
		"quiz.start_delay":    c.Quiz.StartDelay,
		"quiz.settle_delay":   c.Quiz.SettleDelay,
		"quiz.feedback_delay": c.Quiz.FeedbackDelay,
	} {
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", name, err)
		}
		if d < 0 {
			return fmt.Errorf("%s must not be negative", name)
		}
	}
	return nil
}

// InterpretTimeout is only valid after Validate has succeeded.
func (c *Config) InterpretTimeout() time.Duration {
	d, _ := time.ParseDuration(c.Interpreter.Timeout)
	return d
}

// Timings converts the quiz section for the orchestrator. Only valid after
// Validate has succeeded.
func (c *Config) Timings() application.Timings {
	start, _ := time.ParseDuration(c.Quiz.StartDelay)
	settle, _ := time.ParseDuration(c.Quiz.SettleDelay)
	feedback, _ := time.ParseDuration(c.Quiz.FeedbackDelay)

	return application.Timings{
		StartDelay:       start,
		CaptureTick:      time.Second,
		CaptureTicks:     c.Quiz.CaptureSeconds,
		SettleDelay:      settle,
		FeedbackDelay:    feedback,
		InterpretTimeout: c.InterpretTimeout(),
		MaxAttempts:      *c.Quiz.MaxAttempts,
	}
}

func (c *Config) UIEnabled() bool {
	return c.UI.Enabled != nil && *c.UI.Enabled
}
