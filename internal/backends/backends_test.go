package backends

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/satriahrh/suara/adapters/llm"
	"github.com/satriahrh/suara/adapters/settings"
	"github.com/satriahrh/suara/adapters/stt"
	"github.com/satriahrh/suara/adapters/tts"
	"github.com/satriahrh/suara/domain/entities"
	"github.com/satriahrh/suara/internal/config"
)

func baseConfig() config.Config {
	return config.Config{
		TranscriptionBackend: config.BackendMock,
		SynthesisBackend:     config.BackendMock,
		CompletionBackend:    config.BackendMock,
		SettingsStore:        config.StoreMemory,
		RetryMaxAttempts:     1,
		DefaultSettings:      entities.DefaultSettings(),
	}
}

func TestMockBackendsWithoutRetry(t *testing.T) {
	logger := zaptest.NewLogger(t)
	cfg := baseConfig()

	speech, closeSpeech, err := NewSpeechToText(context.Background(), cfg, logger)
	require.NoError(t, err)
	assert.IsType(t, &stt.MockSpeechToText{}, speech)
	assert.NoError(t, closeSpeech())

	synth, err := NewTextToSpeech(cfg, logger)
	require.NoError(t, err)
	assert.IsType(t, &tts.MockTextToSpeech{}, synth)

	model, err := NewLargeLanguageModel(context.Background(), cfg, logger)
	require.NoError(t, err)
	assert.IsType(t, &llm.MockLLM{}, model)
}

func TestRetryWrapsBackends(t *testing.T) {
	logger := zaptest.NewLogger(t)
	cfg := baseConfig()
	cfg.RetryMaxAttempts = 3

	synth, err := NewTextToSpeech(cfg, logger)
	require.NoError(t, err)
	_, unwrapped := synth.(*tts.MockTextToSpeech)
	assert.False(t, unwrapped)
	assert.Equal(t, "mock", synth.Name())
	assert.Equal(t, 3, RetryPolicy(cfg).MaxAttempts)
}

func TestSelectedBackends(t *testing.T) {
	logger := zaptest.NewLogger(t)
	cfg := baseConfig()
	cfg.OpenAIAPIKey = "sk-test"
	cfg.TranscriptionBackend = config.BackendWhisper
	cfg.SynthesisBackend = config.BackendPhrase
	cfg.CompletionBackend = config.BackendOpenAI

	speech, _, err := NewSpeechToText(context.Background(), cfg, logger)
	require.NoError(t, err)
	assert.IsType(t, &stt.WhisperSpeechToText{}, speech)

	synth, err := NewTextToSpeech(cfg, logger)
	require.NoError(t, err)
	assert.IsType(t, &tts.PhraseTTS{}, synth)

	model, err := NewLargeLanguageModel(context.Background(), cfg, logger)
	require.NoError(t, err)
	assert.IsType(t, &llm.OpenAILLM{}, model)
}

func TestMissingCredentialsFail(t *testing.T) {
	logger := zaptest.NewLogger(t)
	cfg := baseConfig()
	cfg.SynthesisBackend = config.BackendElevenLabs

	_, err := NewTextToSpeech(cfg, logger)
	assert.Error(t, err)

	cfg.CompletionBackend = config.BackendGemini
	_, err = NewLargeLanguageModel(context.Background(), cfg, logger)
	assert.Error(t, err)
}

func TestSettingsStores(t *testing.T) {
	cfg := baseConfig()

	store, closeStore, err := NewSettingsStore(context.Background(), cfg)
	require.NoError(t, err)
	assert.IsType(t, &settings.MemoryStore{}, store)
	assert.NoError(t, closeStore())

	mr := miniredis.RunT(t)
	cfg.SettingsStore = config.StoreRedis
	cfg.RedisURL = "redis://" + mr.Addr()
	store, closeStore, err = NewSettingsStore(context.Background(), cfg)
	require.NoError(t, err)
	defer closeStore()
	assert.IsType(t, &settings.RedisStore{}, store)

	current, err := store.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, cfg.DefaultSettings, current)

	mr.Close()
	_, _, err = NewSettingsStore(context.Background(), cfg)
	assert.Error(t, err)

	cfg.RedisURL = "://bad"
	_, _, err = NewSettingsStore(context.Background(), cfg)
	assert.Error(t, err)
}
