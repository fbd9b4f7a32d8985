package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"wrapped decode", fmt.Errorf("wav: %w", ErrDecode), KindDecode},
		{"wrapped unintelligible", fmt.Errorf("google: %w", ErrUnintelligibleAudio), KindUnintelligibleAudio},
		{"unknown voice", fmt.Errorf("%w: robot", ErrUnknownVoice), KindUnknownVoice},
		{"backend error", NewBackendError("openai", "503", "overloaded", nil, true), KindBackendUnavailable},
		{"unclassified", errors.New("connection reset"), KindBackendUnavailable},
		{"pipeline error", &PipelineError{Kind: KindValidation}, KindValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("Expected kind %s, got %s", tt.want, got)
			}
		})
	}
}

func TestPipelineErrorMatchesSentinel(t *testing.T) {
	cause := fmt.Errorf("synthesize: %w", ErrUnknownVoice)
	err := NewPipelineError(StageSynthesize, cause)

	if !errors.Is(err, ErrUnknownVoice) {
		t.Error("Expected pipeline error to match ErrUnknownVoice")
	}
	if errors.Is(err, ErrBackendUnavailable) {
		t.Error("Pipeline error should not match another kind")
	}
	if err.Kind != KindUnknownVoice {
		t.Errorf("Expected kind %s, got %s", KindUnknownVoice, err.Kind)
	}
}

func TestUserMessage(t *testing.T) {
	if got := UserMessage(KindUnintelligibleAudio, StageTranscribe, ErrUnintelligibleAudio); got != MessageUnintelligible {
		t.Errorf("Unexpected message %q", got)
	}

	backend := NewBackendError("google-speech", "Unavailable", "service down", nil, true)
	want := MessageRecognitionRequest + ": google-speech error [Unavailable]: service down"
	if got := UserMessage(KindBackendUnavailable, StageTranscribe, backend); got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}

	if got := UserMessage(KindBackendUnavailable, StageComplete, ErrBackendUnavailable); got != MessageCompletionRequest {
		t.Errorf("Expected bare completion message, got %q", got)
	}
}

func TestIsRetryable(t *testing.T) {
	if !IsRetryable(fmt.Errorf("call: %w", NewBackendError("x", "429", "slow down", nil, true))) {
		t.Error("Expected wrapped retryable backend error to be retryable")
	}
	if IsRetryable(NewBackendError("x", "400", "bad", nil, false)) {
		t.Error("Expected 400 to be permanent")
	}
	if IsRetryable(ErrUnintelligibleAudio) {
		t.Error("Expected unintelligible audio to be permanent")
	}
}
