package repositories

import (
	"context"

	"github.com/satriahrh/suara/domain/entities"
)

// TextToSpeech abstracts speech synthesis services
type TextToSpeech interface {
	Name() string
	// Synthesize speaks text in the given voice. Voices the backend cannot
	// map fail with domain.ErrUnknownVoice. language is a BCP 47 tag; backends
	// that detect the language from text may ignore it, and an empty tag
	// selects the backend's default.
	Synthesize(ctx context.Context, text string, voice entities.VoiceID, language string) (entities.SynthesizedAudio, error)
}
