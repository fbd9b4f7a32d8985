// Package config reads the service configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/satriahrh/suara/domain/entities"
)

// Backend names accepted by the *_BACKEND variables
const (
	BackendMock       = "mock"
	BackendWhisper    = "whisper"
	BackendGoogle     = "google"
	BackendOpenAI     = "openai"
	BackendPhrase     = "phrase"
	BackendElevenLabs = "elevenlabs"
	BackendGemini     = "gemini"

	StoreMemory = "memory"
	StoreRedis  = "redis"
)

// Config is the startup configuration of the service
type Config struct {
	Port string
	Env  string

	TranscriptionBackend string
	SynthesisBackend     string
	CompletionBackend    string
	CompletionModel      string

	OpenAIAPIKey     string
	GeminiAPIKey     string
	ElevenLabsAPIKey string

	SettingsStore string
	RedisURL      string

	FFmpegPath       string
	MaxUploadBytes   int
	SilenceThreshold int
	RetryMaxAttempts int

	DefaultSettings entities.Settings
	StaticDir       string
}

// Development reports whether APP_ENV selects development mode
func (c Config) Development() bool {
	return c.Env == "development"
}

// Load reads the configuration from the environment and validates it. A
// selected backend without credentials is an error.
func Load() (Config, error) {
	config := Config{
		Port:                 getenv("PORT", "8080"),
		Env:                  getenv("APP_ENV", "production"),
		TranscriptionBackend: strings.ToLower(getenv("TRANSCRIPTION_BACKEND", BackendWhisper)),
		SynthesisBackend:     strings.ToLower(getenv("SYNTHESIS_BACKEND", BackendOpenAI)),
		CompletionBackend:    strings.ToLower(getenv("COMPLETION_BACKEND", BackendOpenAI)),
		CompletionModel:      os.Getenv("COMPLETION_MODEL"),
		OpenAIAPIKey:         os.Getenv("OPENAI_API_KEY"),
		GeminiAPIKey:         os.Getenv("GEMINI_API_KEY"),
		ElevenLabsAPIKey:     os.Getenv("ELEVEN_LABS_API_KEY"),
		SettingsStore:        strings.ToLower(getenv("SETTINGS_STORE", StoreMemory)),
		RedisURL:             os.Getenv("REDIS_URL"),
		FFmpegPath:           getenv("FFMPEG_PATH", "ffmpeg"),
		StaticDir:            os.Getenv("STATIC_DIR"),
		DefaultSettings: entities.Settings{
			Voice:     entities.VoiceID(getenv("DEFAULT_VOICE", string(entities.VoiceFemale))),
			Language:  getenv("DEFAULT_LANGUAGE", entities.DefaultLanguage),
			Expertise: getenv("DEFAULT_EXPERTISE", entities.DefaultExpertise),
		},
	}

	var err error
	if config.MaxUploadBytes, err = getint("MAX_UPLOAD_BYTES", 25<<20); err != nil {
		return Config{}, err
	}
	if config.SilenceThreshold, err = getint("SILENCE_THRESHOLD", 0); err != nil {
		return Config{}, err
	}
	if config.RetryMaxAttempts, err = getint("RETRY_MAX_ATTEMPTS", 1); err != nil {
		return Config{}, err
	}

	if err := config.Validate(); err != nil {
		return Config{}, err
	}
	return config, nil
}

// Validate checks backend selections and their credentials
func (c Config) Validate() error {
	var errs []error

	switch c.TranscriptionBackend {
	case BackendMock, BackendGoogle:
	case BackendWhisper:
		errs = append(errs, requireKey("OPENAI_API_KEY", c.OpenAIAPIKey, "transcription", c.TranscriptionBackend))
	default:
		errs = append(errs, fmt.Errorf("unknown TRANSCRIPTION_BACKEND %q", c.TranscriptionBackend))
	}

	switch c.SynthesisBackend {
	case BackendMock, BackendPhrase:
	case BackendOpenAI:
		errs = append(errs, requireKey("OPENAI_API_KEY", c.OpenAIAPIKey, "synthesis", c.SynthesisBackend))
	case BackendElevenLabs:
		errs = append(errs, requireKey("ELEVEN_LABS_API_KEY", c.ElevenLabsAPIKey, "synthesis", c.SynthesisBackend))
	default:
		errs = append(errs, fmt.Errorf("unknown SYNTHESIS_BACKEND %q", c.SynthesisBackend))
	}

	switch c.CompletionBackend {
	case BackendMock:
	case BackendOpenAI:
		errs = append(errs, requireKey("OPENAI_API_KEY", c.OpenAIAPIKey, "completion", c.CompletionBackend))
	case BackendGemini:
		errs = append(errs, requireKey("GEMINI_API_KEY", c.GeminiAPIKey, "completion", c.CompletionBackend))
	default:
		errs = append(errs, fmt.Errorf("unknown COMPLETION_BACKEND %q", c.CompletionBackend))
	}

	switch c.SettingsStore {
	case StoreMemory:
	case StoreRedis:
		if c.RedisURL == "" {
			errs = append(errs, errors.New("REDIS_URL is required when SETTINGS_STORE is redis"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown SETTINGS_STORE %q", c.SettingsStore))
	}

	if c.RetryMaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("RETRY_MAX_ATTEMPTS must be at least 1, got %d", c.RetryMaxAttempts))
	}
	if c.SilenceThreshold < 0 {
		errs = append(errs, fmt.Errorf("SILENCE_THRESHOLD must not be negative, got %d", c.SilenceThreshold))
	}
	if err := c.DefaultSettings.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("default settings: %w", err))
	}

	return errors.Join(errs...)
}

func requireKey(name, value, stage, backend string) error {
	if value == "" {
		return fmt.Errorf("%s is required for %s backend %q", name, stage, backend)
	}
	return nil
}

func getenv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getint(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}
