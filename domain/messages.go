package domain

// User-facing failure messages returned in the error body of a response.
const (
	MessageDecodeFailed       = "Failed to decode audio"
	MessageUnintelligible     = "Speech recognition could not understand the audio"
	MessageRecognitionRequest = "Could not request results from the speech recognition service"
	MessageCompletionRequest  = "Could not request results from the completion service"
	MessageSynthesisRequest   = "Could not request results from the speech synthesis service"
	MessageUnknownVoice       = "Selected voice is not available"
	MessageInvalidSettings    = "Settings are invalid"
	MessageInvalidRequest     = "Invalid request"
)

// Pipeline stages that can fail.
const (
	StageValidate   = "validating"
	StageNormalize  = "normalizing"
	StageTranscribe = "transcribing"
	StageComplete   = "completing"
	StageSynthesize = "synthesizing"
)

// UserMessage renders the response message for a failure of the given kind
// observed in stage. Backend failures carry the provider diagnostic after the
// fixed prefix.
func UserMessage(kind ErrorKind, stage string, cause error) string {
	switch kind {
	case KindDecode:
		return MessageDecodeFailed
	case KindUnintelligibleAudio:
		return MessageUnintelligible
	case KindUnknownVoice:
		return withDetail(MessageUnknownVoice, cause, ErrUnknownVoice)
	case KindInvalidSettings:
		return withDetail(MessageInvalidSettings, cause, ErrInvalidSettings)
	case KindValidation:
		return withDetail(MessageInvalidRequest, cause, ErrValidation)
	default:
		return withDetail(backendPrefix(stage), cause, ErrBackendUnavailable)
	}
}

func backendPrefix(stage string) string {
	switch stage {
	case StageComplete:
		return MessageCompletionRequest
	case StageSynthesize:
		return MessageSynthesisRequest
	}
	return MessageRecognitionRequest
}

func withDetail(prefix string, cause error, sentinel error) string {
	if cause == nil || cause == sentinel {
		return prefix
	}
	return prefix + ": " + cause.Error()
}
