package tts

import (
	"context"
	"fmt"
	"io"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/satriahrh/suara/adapters/openaiclient"
	"github.com/satriahrh/suara/domain/entities"
	"github.com/satriahrh/suara/domain/repositories"
)

const openAIBackend = "openai-tts"

var openAIVoices = voiceTable{
	entities.VoiceFemale: string(openai.VoiceShimmer),
	entities.VoiceMale:   string(openai.VoiceOnyx),
}

// OpenAIConfig holds configuration for the OpenAI speech synthesizer
type OpenAIConfig struct {
	openaiclient.Config
	Model string
	Speed float64
}

// DefaultOpenAIConfig returns default configuration
func DefaultOpenAIConfig() OpenAIConfig {
	return OpenAIConfig{
		Config: openaiclient.NewConfigFromEnv(),
		Model:  string(openai.TTSModel1),
		Speed:  1.0,
	}
}

// Validate checks if the configuration is valid
func (c OpenAIConfig) Validate() error {
	if err := c.Config.Validate(); err != nil {
		return err
	}
	if c.Speed != 0 && (c.Speed < 0.25 || c.Speed > 4.0) {
		return fmt.Errorf("speed must be between 0.25 and 4.0, got %f", c.Speed)
	}
	return nil
}

// OpenAITTS implements TextToSpeech with the OpenAI speech endpoint
type OpenAITTS struct {
	client *openai.Client
	config OpenAIConfig
	logger *zap.Logger
}

var _ repositories.TextToSpeech = (*OpenAITTS)(nil)

// NewOpenAITTS creates a new OpenAI TTS instance
func NewOpenAITTS(config OpenAIConfig, logger *zap.Logger) (*OpenAITTS, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if config.Model == "" {
		config.Model = string(openai.TTSModel1)
	}
	return &OpenAITTS{
		client: openaiclient.New(config.Config),
		config: config,
		logger: logger,
	}, nil
}

func (o *OpenAITTS) Name() string {
	return openAIBackend
}

// Synthesize implements repositories.TextToSpeech
func (o *OpenAITTS) Synthesize(ctx context.Context, text string, voice entities.VoiceID, language string) (entities.SynthesizedAudio, error) {
	if err := validateText(text); err != nil {
		return entities.SynthesizedAudio{}, err
	}
	providerVoice, err := openAIVoices.lookup(openAIBackend, voice)
	if err != nil {
		return entities.SynthesizedAudio{}, err
	}

	o.logger.Info("Converting text to speech",
		zap.Int("textLength", len(text)),
		zap.String("voiceID", providerVoice),
		zap.String("model", o.config.Model))

	resp, err := o.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.SpeechModel(o.config.Model),
		Input:          text,
		Voice:          openai.SpeechVoice(providerVoice),
		ResponseFormat: openai.SpeechResponseFormatMp3,
		Speed:          o.config.Speed,
	})
	if err != nil {
		return entities.SynthesizedAudio{}, openaiclient.WrapError(openAIBackend, err)
	}
	defer resp.Close()

	data, err := io.ReadAll(resp)
	if err != nil {
		return entities.SynthesizedAudio{}, openaiclient.WrapError(openAIBackend, err)
	}

	return entities.SynthesizedAudio{
		Data:     data,
		MIMEType: entities.MIMETypeMP3,
		Voice:    voice,
	}, nil
}
