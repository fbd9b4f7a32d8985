package repositories

import (
	"context"

	"github.com/satriahrh/suara/domain/entities"
)

// SpeechToText abstracts speech recognition services
type SpeechToText interface {
	// Name identifies the backend in logs and metrics
	Name() string
	// Transcribe converts a normalized clip to text. It fails with
	// domain.ErrUnintelligibleAudio when no speech is recognized and with
	// domain.ErrBackendUnavailable when the provider cannot be reached.
	Transcribe(ctx context.Context, audio entities.NormalizedAudio, languageHint string) (entities.Transcript, error)
}

// AudioNormalizer converts uploaded audio to canonical PCM WAV
type AudioNormalizer interface {
	// Normalize fails with domain.ErrDecode when the input cannot be decoded
	Normalize(ctx context.Context, raw entities.RawAudio) (entities.NormalizedAudio, error)
}
