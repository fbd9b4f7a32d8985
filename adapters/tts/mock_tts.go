package tts

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/satriahrh/suara/domain"
	"github.com/satriahrh/suara/domain/entities"
	"github.com/satriahrh/suara/domain/repositories"
)

// silentFrame is one MPEG-1 Layer III frame (128 kbps, 44.1 kHz) of silence.
var silentFrame = append([]byte{0xFF, 0xFB, 0x90, 0x64}, make([]byte, 413)...)

// MockTextToSpeech returns silent MP3 audio sized to the input text
type MockTextToSpeech struct {
	logger *zap.Logger
}

var _ repositories.TextToSpeech = (*MockTextToSpeech)(nil)

// NewMockTextToSpeech creates a new mock text-to-speech service
func NewMockTextToSpeech(logger *zap.Logger) *MockTextToSpeech {
	return &MockTextToSpeech{logger: logger}
}

func (m *MockTextToSpeech) Name() string {
	return "mock"
}

// Synthesize implements repositories.TextToSpeech
func (m *MockTextToSpeech) Synthesize(ctx context.Context, text string, voice entities.VoiceID, language string) (entities.SynthesizedAudio, error) {
	if err := validateText(text); err != nil {
		return entities.SynthesizedAudio{}, err
	}
	if !voice.Known() {
		return entities.SynthesizedAudio{}, fmt.Errorf("mock: %w: %q", domain.ErrUnknownVoice, voice)
	}

	m.logger.Info("Processing text-to-speech",
		zap.Int("textLength", len(text)),
		zap.String("voiceID", string(voice)))

	// Roughly one frame (26 ms) per character.
	data := make([]byte, 0, len(silentFrame)*len(text))
	for range text {
		data = append(data, silentFrame...)
	}
	return entities.SynthesizedAudio{
		Data:     data,
		MIMEType: entities.MIMETypeMP3,
		Voice:    voice,
	}, nil
}
