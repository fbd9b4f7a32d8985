package entities

import (
	"fmt"
	"mime"
	"strings"

	"github.com/satriahrh/suara/domain"
)

// RequestKind selects which stages a pipeline invocation runs.
type RequestKind string

const (
	// KindTranscribe turns audio into text.
	KindTranscribe RequestKind = "transcribe"
	// KindVoiceChat transcribes audio, completes it and speaks the reply.
	KindVoiceChat RequestKind = "voice_chat"
	// KindChat completes text and speaks the reply.
	KindChat RequestKind = "chat"
	// KindSynthesize speaks text.
	KindSynthesize RequestKind = "synthesize"
)

// NeedsAudio reports whether the kind starts from audio input.
func (k RequestKind) NeedsAudio() bool {
	return k == KindTranscribe || k == KindVoiceChat
}

// NeedsCompletion reports whether the kind runs the completion stage.
func (k RequestKind) NeedsCompletion() bool {
	return k == KindVoiceChat || k == KindChat
}

// NeedsSynthesis reports whether the kind produces audio.
func (k RequestKind) NeedsSynthesis() bool {
	return k != KindTranscribe
}

// Valid reports whether k is a known kind.
func (k RequestKind) Valid() bool {
	switch k {
	case KindTranscribe, KindVoiceChat, KindChat, KindSynthesize:
		return true
	}
	return false
}

// PipelineRequest is one unit of work for the pipeline.
type PipelineRequest struct {
	ID    string
	Kind  RequestKind
	Audio *RawAudio
	Text  string
}

// Validate checks that the input matches the kind.
func (r PipelineRequest) Validate() error {
	if !r.Kind.Valid() {
		return fmt.Errorf("%w: unknown request kind %q", domain.ErrValidation, r.Kind)
	}
	if r.Kind.NeedsAudio() {
		if r.Audio == nil || len(r.Audio.Data) == 0 {
			return fmt.Errorf("%w: audio is required", domain.ErrValidation)
		}
		return nil
	}
	if strings.TrimSpace(r.Text) == "" {
		return fmt.Errorf("%w: text is required", domain.ErrValidation)
	}
	return nil
}

// Response header names carrying text alongside audio.
const (
	HeaderChatResponse = "chat_response"
	HeaderTranscript   = "transcript"
)

// PipelineResult is the outcome of one invocation. Exactly one of Err or the
// success fields is meaningful.
type PipelineResult struct {
	RequestID  string
	Kind       RequestKind
	Transcript *Transcript
	Reply      *CompletionReply
	Audio      *SynthesizedAudio
	Settings   Settings
	Err        *domain.PipelineError
}

// Failed reports whether the invocation ended in the failed state.
func (r PipelineResult) Failed() bool {
	return r.Err != nil
}

// Text returns the reply text if a completion ran, else the transcript.
func (r PipelineResult) Text() string {
	if r.Reply != nil {
		return r.Reply.Text
	}
	if r.Transcript != nil {
		return r.Transcript.Text
	}
	return ""
}

// MetadataHeaders returns the text that accompanies an audio result.
// Printable ASCII is sent as is; anything else becomes an RFC 2047 encoded
// word, which mime.WordDecoder reverses.
func (r PipelineResult) MetadataHeaders() map[string]string {
	headers := make(map[string]string)
	if r.Audio == nil {
		return headers
	}
	if r.Reply != nil {
		headers[HeaderChatResponse] = headerValue(r.Reply.Text)
	}
	if r.Transcript != nil && r.Kind == KindVoiceChat {
		headers[HeaderTranscript] = headerValue(r.Transcript.Text)
	}
	return headers
}

func headerValue(text string) string {
	return mime.QEncoding.Encode("utf-8", text)
}
