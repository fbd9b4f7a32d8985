package entities

import (
	"fmt"

	"golang.org/x/text/language"

	"github.com/satriahrh/suara/domain"
)

// VoiceID is the abstract voice identity selected by the user.
type VoiceID string

const (
	VoiceFemale VoiceID = "female"
	VoiceMale   VoiceID = "male"
)

// Known reports whether v is one of the identities the synthesis backends map.
func (v VoiceID) Known() bool {
	return v == VoiceFemale || v == VoiceMale
}

const (
	DefaultLanguage  = "en-US"
	DefaultExpertise = "helpful assistant"
)

// Settings is the process-wide user preference set. Values are replaced
// wholesale, never mutated in place.
type Settings struct {
	Voice     VoiceID `json:"voice"`
	Language  string  `json:"language"`
	Expertise string  `json:"expertise"`
}

// DefaultSettings returns the settings used before any update.
func DefaultSettings() Settings {
	return Settings{
		Voice:     VoiceFemale,
		Language:  DefaultLanguage,
		Expertise: DefaultExpertise,
	}
}

// Validate checks s. A missing voice is a malformed request; a bad language
// tag is invalid settings. Unknown voices pass: they are rejected by the
// synthesis backend when used.
func (s Settings) Validate() error {
	if s.Voice == "" {
		return fmt.Errorf("%w: voice is required", domain.ErrValidation)
	}
	if s.Language != "" {
		if _, err := language.Parse(s.Language); err != nil {
			return fmt.Errorf("%w: language %q is not a valid tag: %v", domain.ErrInvalidSettings, s.Language, err)
		}
	}
	return nil
}

// WithDefaults fills empty language and expertise from defaults.
func (s Settings) WithDefaults(defaults Settings) Settings {
	if s.Language == "" {
		s.Language = defaults.Language
	}
	if s.Expertise == "" {
		s.Expertise = defaults.Expertise
	}
	return s
}
