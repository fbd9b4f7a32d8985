package entities

import "fmt"

// Transcript is the text recognized from a clip.
type Transcript struct {
	Text         string `json:"text"`
	LanguageHint string `json:"language,omitempty"`
}

// CompletionPrompt is the input of one completion call.
type CompletionPrompt struct {
	Persona  string
	UserText string
}

// SystemInstruction renders the persona into the system message. The persona
// is user-controlled and inserted verbatim.
func (p CompletionPrompt) SystemInstruction() string {
	return fmt.Sprintf("You are a %s. Answer briefly and conversationally, your reply will be read aloud.", p.Persona)
}

// CompletionReply is the model's answer.
type CompletionReply struct {
	Text string `json:"text"`
}

// SynthesizedAudio is the encoded speech produced by a synthesis backend.
type SynthesizedAudio struct {
	Data     []byte
	MIMEType string
	Voice    VoiceID
}

const MIMETypeMP3 = "audio/mpeg"
