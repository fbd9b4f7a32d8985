package api

import (
	"net/http"

	"github.com/satriahrh/suara/domain"
	"github.com/satriahrh/suara/domain/entities"
)

// TextRequest is the body of the text-driven endpoints
type TextRequest struct {
	Text string `json:"text" form:"text" query:"text"`
}

// TextResponse carries a transcript
type TextResponse struct {
	Text string `json:"text"`
}

// SettingsRequest is the body of POST /update-settings
type SettingsRequest struct {
	Voice     string `json:"voice" form:"voice"`
	Language  string `json:"language" form:"language"`
	Expertise string `json:"expertise" form:"expertise"`
}

func (r SettingsRequest) settings() entities.Settings {
	return entities.Settings{
		Voice:     entities.VoiceID(r.Voice),
		Language:  r.Language,
		Expertise: r.Expertise,
	}
}

// SettingsResponse acknowledges a settings update
type SettingsResponse struct {
	Status   string            `json:"status"`
	Settings entities.Settings `json:"settings"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error     string `json:"error"`
	Kind      string `json:"kind,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// StatusForKind maps an error kind to the HTTP status of its response.
// Audio the recognizer could not use is reported with 200 and an error body.
func StatusForKind(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindDecode, domain.KindUnintelligibleAudio:
		return http.StatusOK
	case domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindUnknownVoice, domain.KindInvalidSettings:
		return http.StatusInternalServerError
	default:
		return http.StatusBadGateway
	}
}
