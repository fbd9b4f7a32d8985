package stt

import (
	"context"
	"fmt"
	"os"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
	"golang.org/x/text/language"

	"github.com/satriahrh/suara/adapters/openaiclient"
	"github.com/satriahrh/suara/domain"
	"github.com/satriahrh/suara/domain/entities"
	"github.com/satriahrh/suara/domain/repositories"
)

const whisperBackend = "openai-whisper"

// WhisperConfig holds configuration for the Whisper transcriber
type WhisperConfig struct {
	openaiclient.Config
	Model string
}

// DefaultWhisperConfig returns default configuration
func DefaultWhisperConfig() WhisperConfig {
	return WhisperConfig{
		Config: openaiclient.NewConfigFromEnv(),
		Model:  openai.Whisper1,
	}
}

// Validate checks if the configuration is valid
func (c WhisperConfig) Validate() error {
	if err := c.Config.Validate(); err != nil {
		return err
	}
	if c.Model == "" {
		return fmt.Errorf("whisper model is required")
	}
	return nil
}

// WhisperSpeechToText transcribes audio with the OpenAI Whisper model. The
// clip is staged in a temporary file that is removed before returning.
type WhisperSpeechToText struct {
	client *openai.Client
	config WhisperConfig
	logger *zap.Logger
}

var _ repositories.SpeechToText = (*WhisperSpeechToText)(nil)

// NewWhisperSpeechToText creates a new Whisper transcriber
func NewWhisperSpeechToText(config WhisperConfig, logger *zap.Logger) (*WhisperSpeechToText, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid whisper config: %w", err)
	}
	return &WhisperSpeechToText{
		client: openaiclient.New(config.Config),
		config: config,
		logger: logger,
	}, nil
}

func (w *WhisperSpeechToText) Name() string {
	return whisperBackend
}

// Transcribe implements repositories.SpeechToText
func (w *WhisperSpeechToText) Transcribe(ctx context.Context, audio entities.NormalizedAudio, languageHint string) (entities.Transcript, error) {
	file, err := os.CreateTemp("", "suara-whisper-*.wav")
	if err != nil {
		return entities.Transcript{}, fmt.Errorf("failed to create temp file: %w", err)
	}
	path := file.Name()
	defer func() {
		if removeErr := os.Remove(path); removeErr != nil && !os.IsNotExist(removeErr) {
			w.logger.Warn("Failed to remove temp file", zap.String("path", path), zap.Error(removeErr))
		}
	}()

	_, writeErr := file.Write(audio.WAV)
	closeErr := file.Close()
	if writeErr != nil {
		return entities.Transcript{}, fmt.Errorf("failed to write temp file: %w", writeErr)
	}
	if closeErr != nil {
		return entities.Transcript{}, fmt.Errorf("failed to close temp file: %w", closeErr)
	}

	resp, err := w.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    w.config.Model,
		FilePath: path,
		Language: whisperLanguage(languageHint),
		Format:   openai.AudioResponseFormatJSON,
	})
	if err != nil {
		return entities.Transcript{}, openaiclient.WrapError(whisperBackend, err)
	}

	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return entities.Transcript{}, fmt.Errorf("%s: %w", whisperBackend, domain.ErrUnintelligibleAudio)
	}

	w.logger.Debug("Whisper transcribed audio",
		zap.Int("textLength", len(text)),
		zap.String("language", languageHint),
	)
	return entities.Transcript{Text: text, LanguageHint: languageHint}, nil
}

// whisperLanguage reduces a BCP 47 tag to the ISO-639-1 code Whisper
// expects. Unparseable hints are dropped and Whisper detects the language.
func whisperLanguage(hint string) string {
	if hint == "" {
		return ""
	}
	tag, err := language.Parse(hint)
	if err != nil {
		return ""
	}
	base, confidence := tag.Base()
	if confidence == language.No {
		return ""
	}
	return base.String()
}
