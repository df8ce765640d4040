package config

import (
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultTimezone = "UTC"

	configPathEnv     = "SMARTFEEDS_CONFIG"
	outputDirEnv      = "OUTPUT_DIR"
	inputDirEnv       = "INPUT_DIR"
	geminiAPIKeyEnv   = "GEMINI_API_KEY"
	modelIDEnv        = "MODEL_ID"
	outputLanguageEnv = "OUTPUT_LANGUAGE"
	retryMaxEnv       = "RETRY_MAX_ATTEMPTS"
	retryDelayEnv     = "RETRY_DELAY_SECONDS"
	telegramTokenEnv  = "TELEGRAM_BOT_TOKEN"
	telegramChatIDEnv = "TELEGRAM_CHAT_ID"
)

// Config holds high-level settings required across the application.
type Config struct {
	Storage       StorageConfig      `yaml:"storage"`
	Pipeline      PipelineConfig     `yaml:"pipeline"`
	Retry         RetryConfig        `yaml:"retry"`
	Gemini        GeminiConfig       `yaml:"gemini"`
	Scheduler     SchedulerConfig    `yaml:"scheduler"`
	Notifications NotificationConfig `yaml:"notifications"`
	Logging       LoggingConfig      `yaml:"logging"`
	Sources       []SourceConfig     `yaml:"sources"`
}

// StorageConfig roots the staged logs and the user-provided inputs.
type StorageConfig struct {
	OutputDir     string `yaml:"outputDir"`
	InputDir      string `yaml:"inputDir"`
	InterestsFile string `yaml:"interestsFile"`
}

// InterestsPath resolves the interests document, defaulting to
// interests.md inside the input dir.
func (s StorageConfig) InterestsPath() string {
	if s.InterestsFile != "" {
		return s.InterestsFile
	}
	return filepath.Join(s.InputDir, "interests.md")
}

// PipelineConfig exposes the batching and dedup policy knobs.
type PipelineConfig struct {
	BatchSize  int `yaml:"batchSize"`
	SeenURLCap int `yaml:"seenUrlCap"`
}

// RetryConfig bounds the rate-limit backoff loop.
type RetryConfig struct {
	MaxAttempts         int     `yaml:"maxAttempts"`
	InitialDelaySeconds float64 `yaml:"initialDelaySeconds"`
}

// InitialDelay converts the configured seconds to a duration.
func (r RetryConfig) InitialDelay() time.Duration {
	return time.Duration(r.InitialDelaySeconds * float64(time.Second))
}

// GeminiConfig defines how to contact the judgment model.
type GeminiConfig struct {
	APIKey         string `yaml:"apiKey"`
	Model          string `yaml:"model"`
	OutputLanguage string `yaml:"outputLanguage"`
}

// SchedulerConfig defines when the pipeline should run.
type SchedulerConfig struct {
	CronExpression string         `yaml:"cronExpression"`
	Timezone       string         `yaml:"timezone"`
	location       *time.Location `yaml:"-"`
}

// Location resolves the scheduler timezone string to a time.Location.
func (s SchedulerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	loc, _ := time.LoadLocation(defaultTimezone)
	return loc
}

// NotificationConfig encapsulates outbound channels.
type NotificationConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
}

// LoggingConfig controls log verbosity.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// SourceConfig describes a single website or feed to pull from.
type SourceConfig struct {
	Name         string `yaml:"name"`
	Kind         string `yaml:"kind"`
	URL          string `yaml:"url"`
	Enabled      *bool  `yaml:"enabled"`
	Instruction  string `yaml:"instruction"`
	Selector     string `yaml:"selector"`
	ItemSelector string `yaml:"itemSelector"`
	Limit        int    `yaml:"limit"`
}

// IsEnabled defaults to true when the flag is omitted.
func (s SourceConfig) IsEnabled() bool {
	return s.Enabled == nil || *s.Enabled
}

// Load reads YAML configuration (if present) and applies environment
// overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	cfg.bindTimezone()

	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(outputDirEnv); v != "" {
		c.Storage.OutputDir = v
	}
	if v := os.Getenv(inputDirEnv); v != "" {
		c.Storage.InputDir = v
	}
	if v := os.Getenv(geminiAPIKeyEnv); v != "" {
		c.Gemini.APIKey = v
	}
	if v := os.Getenv(modelIDEnv); v != "" {
		c.Gemini.Model = v
	}
	if v := os.Getenv(outputLanguageEnv); v != "" {
		c.Gemini.OutputLanguage = v
	}
	if v := os.Getenv(retryMaxEnv); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			c.Retry.MaxAttempts = parsed
		}
	}
	if v := os.Getenv(retryDelayEnv); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			c.Retry.InitialDelaySeconds = parsed
		}
	}
	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Notifications.Telegram.BotToken = v
	}
	if v := os.Getenv(telegramChatIDEnv); v != "" {
		c.Notifications.Telegram.ChatID = v
	}
}

func (c *Config) bindTimezone() {
	tz := c.Scheduler.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("config: unknown timezone %s, reverting to %s", tz, defaultTimezone)
		loc, _ = time.LoadLocation(defaultTimezone)
	}
	c.Scheduler.location = loc
}

func mergeConfig(base, override Config) Config {
	if override.Storage.OutputDir != "" {
		base.Storage.OutputDir = override.Storage.OutputDir
	}
	if override.Storage.InputDir != "" {
		base.Storage.InputDir = override.Storage.InputDir
	}
	if override.Storage.InterestsFile != "" {
		base.Storage.InterestsFile = override.Storage.InterestsFile
	}

	if override.Pipeline.BatchSize > 0 {
		base.Pipeline.BatchSize = override.Pipeline.BatchSize
	}
	if override.Pipeline.SeenURLCap > 0 {
		base.Pipeline.SeenURLCap = override.Pipeline.SeenURLCap
	}

	if override.Retry.MaxAttempts > 0 {
		base.Retry.MaxAttempts = override.Retry.MaxAttempts
	}
	if override.Retry.InitialDelaySeconds > 0 {
		base.Retry.InitialDelaySeconds = override.Retry.InitialDelaySeconds
	}

	if override.Gemini.APIKey != "" {
		base.Gemini.APIKey = override.Gemini.APIKey
	}
	if override.Gemini.Model != "" {
		base.Gemini.Model = override.Gemini.Model
	}
	if override.Gemini.OutputLanguage != "" {
		base.Gemini.OutputLanguage = override.Gemini.OutputLanguage
	}

	if override.Scheduler.CronExpression != "" {
		base.Scheduler.CronExpression = override.Scheduler.CronExpression
	}
	if override.Scheduler.Timezone != "" {
		base.Scheduler.Timezone = override.Scheduler.Timezone
	}

	if override.Notifications.Telegram.BotToken != "" {
		base.Notifications.Telegram.BotToken = override.Notifications.Telegram.BotToken
	}
	if override.Notifications.Telegram.ChatID != "" {
		base.Notifications.Telegram.ChatID = override.Notifications.Telegram.ChatID
	}

	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}

	if len(override.Sources) > 0 {
		base.Sources = override.Sources
	}

	return base
}

func defaultConfig() Config {
	tz, _ := time.LoadLocation(defaultTimezone)
	return Config{
		Storage: StorageConfig{
			OutputDir: "data",
			InputDir:  "inputs",
		},
		Pipeline: PipelineConfig{
			BatchSize:  20,
			SeenURLCap: 100000,
		},
		Retry: RetryConfig{
			MaxAttempts:         8,
			InitialDelaySeconds: 5.0,
		},
		Gemini: GeminiConfig{
			Model:          "gemini-2.0-flash",
			OutputLanguage: "English",
		},
		Scheduler: SchedulerConfig{CronExpression: "0 6 * * *", Timezone: defaultTimezone, location: tz},
		Logging:   LoggingConfig{Level: "info"},
		Sources: []SourceConfig{
			{
				Name: "hacker-news",
				Kind: "rss",
				URL:  "https://hnrss.org/frontpage",
			},
		},
	}
}
