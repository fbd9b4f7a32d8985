package tts

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/satriahrh/suara/domain"
	"github.com/satriahrh/suara/domain/entities"
)

// voiceTable maps abstract voice identities to provider voice names.
type voiceTable map[entities.VoiceID]string

func (t voiceTable) lookup(backend string, voice entities.VoiceID) (string, error) {
	name, ok := t[voice]
	if !ok || name == "" {
		return "", fmt.Errorf("%s: %w: %q", backend, domain.ErrUnknownVoice, voice)
	}
	return name, nil
}

func validateText(text string) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("%w: text cannot be empty", domain.ErrValidation)
	}
	return nil
}

// statusError converts a non-200 provider response into a BackendError.
func statusError(backend string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	retryable := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError
	return domain.NewBackendError(backend, strconv.Itoa(resp.StatusCode), strings.TrimSpace(string(body)), nil, retryable)
}
