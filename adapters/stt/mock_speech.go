package stt

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/satriahrh/suara/domain"
	"github.com/satriahrh/suara/domain/entities"
	"github.com/satriahrh/suara/domain/repositories"
)

// MockSpeechToText is a placeholder implementation for speech recognition
type MockSpeechToText struct {
	logger *zap.Logger
}

var _ repositories.SpeechToText = (*MockSpeechToText)(nil)

// NewMockSpeechToText creates a new mock speech-to-text service
func NewMockSpeechToText(logger *zap.Logger) *MockSpeechToText {
	return &MockSpeechToText{
		logger: logger,
	}
}

func (s *MockSpeechToText) Name() string {
	return "mock"
}

// Transcribe implements repositories.SpeechToText
func (s *MockSpeechToText) Transcribe(ctx context.Context, audio entities.NormalizedAudio, languageHint string) (entities.Transcript, error) {
	s.logger.Info("Processing speech-to-text",
		zap.Int("audioSize", len(audio.WAV)),
		zap.Duration("duration", audio.Duration()),
		zap.String("language", languageHint))

	if audio.Peak() == 0 {
		return entities.Transcript{}, fmt.Errorf("mock: %w", domain.ErrUnintelligibleAudio)
	}

	// Mock transcription based on clip length
	var text string
	switch d := audio.Duration(); {
	case d > 3*time.Second:
		text = "Hello there, I would like to tell you about my day."
	case d > time.Second:
		text = "Thanks for listening."
	default:
		text = "hello world"
	}
	return entities.Transcript{Text: text, LanguageHint: languageHint}, nil
}
