// Package backends builds the adapters selected by configuration.
package backends

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/satriahrh/suara/adapters/audio"
	"github.com/satriahrh/suara/adapters/llm"
	"github.com/satriahrh/suara/adapters/openaiclient"
	"github.com/satriahrh/suara/adapters/settings"
	"github.com/satriahrh/suara/adapters/stt"
	"github.com/satriahrh/suara/adapters/tts"
	"github.com/satriahrh/suara/domain/repositories"
	"github.com/satriahrh/suara/internal/config"
	"github.com/satriahrh/suara/internal/retry"
)

// Closer releases a backend's connections
type Closer func() error

// RetryPolicy returns the retry policy the configuration asks for
func RetryPolicy(cfg config.Config) retry.Policy {
	policy := retry.DefaultPolicy()
	policy.MaxAttempts = cfg.RetryMaxAttempts
	return policy
}

func openAIConfig(cfg config.Config) openaiclient.Config {
	c := openaiclient.NewConfigFromEnv()
	c.APIKey = cfg.OpenAIAPIKey
	return c
}

// NewNormalizer builds the audio normalizer with an ffmpeg transcoder
func NewNormalizer(cfg config.Config, logger *zap.Logger) *audio.Normalizer {
	transcoder := audio.NewFFmpegTranscoder(audio.FFmpegConfig{Path: cfg.FFmpegPath}, logger)
	return audio.NewNormalizer(audio.NormalizerConfig{MaxInputBytes: cfg.MaxUploadBytes}, transcoder, logger)
}

// NewSpeechToText builds the transcription backend
func NewSpeechToText(ctx context.Context, cfg config.Config, logger *zap.Logger) (repositories.SpeechToText, Closer, error) {
	var (
		backend repositories.SpeechToText
		closer  Closer = func() error { return nil }
	)

	switch cfg.TranscriptionBackend {
	case config.BackendWhisper:
		whisperConfig := stt.DefaultWhisperConfig()
		whisperConfig.Config = openAIConfig(cfg)
		whisper, err := stt.NewWhisperSpeechToText(whisperConfig, logger)
		if err != nil {
			return nil, nil, err
		}
		backend = whisper
	case config.BackendGoogle:
		google, err := stt.NewGoogleSpeechToText(ctx, stt.GoogleSpeechConfig{}, logger)
		if err != nil {
			return nil, nil, err
		}
		backend, closer = google, google.Close
	case config.BackendMock:
		backend = stt.NewMockSpeechToText(logger)
	default:
		return nil, nil, fmt.Errorf("unknown transcription backend %q", cfg.TranscriptionBackend)
	}

	return retry.SpeechToText(backend, RetryPolicy(cfg), logger), closer, nil
}

// NewTextToSpeech builds the synthesis backend
func NewTextToSpeech(cfg config.Config, logger *zap.Logger) (repositories.TextToSpeech, error) {
	var backend repositories.TextToSpeech

	switch cfg.SynthesisBackend {
	case config.BackendOpenAI:
		speechConfig := tts.DefaultOpenAIConfig()
		speechConfig.Config = openAIConfig(cfg)
		openAI, err := tts.NewOpenAITTS(speechConfig, logger)
		if err != nil {
			return nil, err
		}
		backend = openAI
	case config.BackendPhrase:
		phraseConfig := tts.DefaultPhraseConfig()
		phraseConfig.Language = cfg.DefaultSettings.Language
		backend = tts.NewPhraseTTS(phraseConfig, logger)
	case config.BackendElevenLabs:
		elevenLabsConfig := tts.NewElevenLabsConfigFromEnv()
		elevenLabsConfig.APIKey = cfg.ElevenLabsAPIKey
		elevenLabs, err := tts.NewElevenLabsTTS(elevenLabsConfig, logger)
		if err != nil {
			return nil, err
		}
		backend = elevenLabs
	case config.BackendMock:
		backend = tts.NewMockTextToSpeech(logger)
	default:
		return nil, fmt.Errorf("unknown synthesis backend %q", cfg.SynthesisBackend)
	}

	return retry.TextToSpeech(backend, RetryPolicy(cfg), logger), nil
}

// NewLargeLanguageModel builds the completion backend
func NewLargeLanguageModel(ctx context.Context, cfg config.Config, logger *zap.Logger) (repositories.LargeLanguageModel, error) {
	var backend repositories.LargeLanguageModel

	switch cfg.CompletionBackend {
	case config.BackendOpenAI:
		openAI, err := llm.NewOpenAILLM(llm.OpenAIConfig{
			Config: openAIConfig(cfg),
			Model:  cfg.CompletionModel,
		}, logger)
		if err != nil {
			return nil, err
		}
		backend = openAI
	case config.BackendGemini:
		geminiConfig := llm.NewGeminiConfigFromEnv()
		geminiConfig.APIKey = cfg.GeminiAPIKey
		if cfg.CompletionModel != "" {
			geminiConfig.Model = cfg.CompletionModel
		}
		gemini, err := llm.NewGeminiLLM(ctx, geminiConfig, logger)
		if err != nil {
			return nil, err
		}
		backend = gemini
	case config.BackendMock:
		backend = llm.NewMockLLM()
	default:
		return nil, fmt.Errorf("unknown completion backend %q", cfg.CompletionBackend)
	}

	return retry.LargeLanguageModel(backend, RetryPolicy(cfg), logger), nil
}

// NewSettingsStore builds the settings store. A redis store is pinged before
// it is returned.
func NewSettingsStore(ctx context.Context, cfg config.Config) (repositories.SettingsRepository, Closer, error) {
	switch cfg.SettingsStore {
	case config.StoreRedis:
		options, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid REDIS_URL: %w", err)
		}
		client := redis.NewClient(options)
		store := settings.NewRedisStore(client, cfg.DefaultSettings)
		if err := store.Ping(ctx); err != nil {
			client.Close()
			return nil, nil, err
		}
		return store, client.Close, nil
	default:
		return settings.NewMemoryStore(cfg.DefaultSettings), func() error { return nil }, nil
	}
}
