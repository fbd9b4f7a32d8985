package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a pipeline failure so callers can branch on it
// without inspecting message text.
type ErrorKind string

const (
	KindDecode              ErrorKind = "decode_error"
	KindUnintelligibleAudio ErrorKind = "unintelligible_audio"
	KindBackendUnavailable  ErrorKind = "backend_unavailable"
	KindUnknownVoice        ErrorKind = "unknown_voice"
	KindInvalidSettings     ErrorKind = "invalid_settings"
	KindValidation          ErrorKind = "validation_error"
)

// Sentinel errors, one per kind. Adapters wrap these with provider detail.
var (
	ErrDecode              = errors.New("audio could not be decoded")
	ErrUnintelligibleAudio = errors.New("no recognizable speech in audio")
	ErrBackendUnavailable  = errors.New("backend unavailable")
	ErrUnknownVoice        = errors.New("unknown voice identity")
	ErrInvalidSettings     = errors.New("invalid settings")
	ErrValidation          = errors.New("invalid request")
)

// Sentinel returns the sentinel error for the kind.
func (k ErrorKind) Sentinel() error {
	switch k {
	case KindDecode:
		return ErrDecode
	case KindUnintelligibleAudio:
		return ErrUnintelligibleAudio
	case KindUnknownVoice:
		return ErrUnknownVoice
	case KindInvalidSettings:
		return ErrInvalidSettings
	case KindValidation:
		return ErrValidation
	default:
		return ErrBackendUnavailable
	}
}

// KindOf classifies err. Errors matching no sentinel are backend failures.
func KindOf(err error) ErrorKind {
	var pErr *PipelineError
	if errors.As(err, &pErr) {
		return pErr.Kind
	}
	switch {
	case errors.Is(err, ErrDecode):
		return KindDecode
	case errors.Is(err, ErrUnintelligibleAudio):
		return KindUnintelligibleAudio
	case errors.Is(err, ErrUnknownVoice):
		return KindUnknownVoice
	case errors.Is(err, ErrInvalidSettings):
		return KindInvalidSettings
	case errors.Is(err, ErrValidation):
		return KindValidation
	default:
		return KindBackendUnavailable
	}
}

// PipelineError is the terminal failure of one pipeline invocation.
type PipelineError struct {
	Kind    ErrorKind
	Stage   string
	Message string
	Cause   error
}

// NewPipelineError builds a PipelineError for a failure observed in stage.
func NewPipelineError(stage string, cause error) *PipelineError {
	kind := KindOf(cause)
	return &PipelineError{
		Kind:    kind,
		Stage:   stage,
		Message: UserMessage(kind, stage, cause),
		Cause:   cause,
	}
}

func (e *PipelineError) Error() string {
	if e.Stage != "" {
		return fmt.Sprintf("%s failed during %s: %s", e.Kind, e.Stage, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *PipelineError) Unwrap() error {
	return e.Cause
}

// Is matches the sentinel of the error's kind.
func (e *PipelineError) Is(target error) bool {
	return target == e.Kind.Sentinel()
}

// BackendError carries a provider's diagnostic for a failed call.
type BackendError struct {
	// Backend is the provider name, e.g. "openai-whisper".
	Backend string

	// Code is the provider-specific error or status code.
	Code string

	// Message is the provider's diagnostic text.
	Message string

	// Cause is the underlying transport error, if any.
	Cause error

	// Retryable is true for transient failures (network, 429, 5xx).
	Retryable bool
}

// NewBackendError creates a BackendError.
func NewBackendError(backend, code, message string, cause error, retryable bool) *BackendError {
	return &BackendError{
		Backend:   backend,
		Code:      code,
		Message:   message,
		Cause:     cause,
		Retryable: retryable,
	}
}

func (e *BackendError) Error() string {
	msg := e.Message
	if e.Cause != nil {
		if msg == "" {
			msg = e.Cause.Error()
		} else {
			msg = msg + ": " + e.Cause.Error()
		}
	}
	if e.Code != "" {
		return fmt.Sprintf("%s error [%s]: %s", e.Backend, e.Code, msg)
	}
	return fmt.Sprintf("%s error: %s", e.Backend, msg)
}

func (e *BackendError) Unwrap() error {
	return e.Cause
}

// Is reports every BackendError as ErrBackendUnavailable.
func (e *BackendError) Is(target error) bool {
	return target == ErrBackendUnavailable
}

// IsRetryable reports whether err is a transient backend failure.
func IsRetryable(err error) bool {
	var bErr *BackendError
	if errors.As(err, &bErr) {
		return bErr.Retryable
	}
	return false
}
