package usecase

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/satriahrh/suara/domain"
	"github.com/satriahrh/suara/domain/repositories"
	"github.com/satriahrh/suara/internal/pipeline"
)

// NormalizeStep decodes the uploaded audio
type NormalizeStep struct {
	normalizer repositories.AudioNormalizer
}

func NewNormalizeStep(normalizer repositories.AudioNormalizer) *NormalizeStep {
	return &NormalizeStep{normalizer: normalizer}
}

func (s *NormalizeStep) State() pipeline.State { return pipeline.StateNormalizing }

func (s *NormalizeStep) Execute(ctx context.Context, run *pipeline.Run) error {
	normalized, err := s.normalizer.Normalize(ctx, *run.Request.Audio)
	if err != nil {
		return err
	}
	run.Normalized = &normalized
	return nil
}

// TranscribeStep turns the normalized clip into text. Clips whose peak
// amplitude is below silenceThreshold never reach the backend.
type TranscribeStep struct {
	stt              repositories.SpeechToText
	silenceThreshold int
	logger           *zap.Logger
}

func NewTranscribeStep(stt repositories.SpeechToText, silenceThreshold int, logger *zap.Logger) *TranscribeStep {
	return &TranscribeStep{stt: stt, silenceThreshold: silenceThreshold, logger: logger}
}

func (s *TranscribeStep) State() pipeline.State { return pipeline.StateTranscribing }

func (s *TranscribeStep) Execute(ctx context.Context, run *pipeline.Run) error {
	audio := *run.Normalized
	// Digital silence never reaches a backend, whatever the threshold.
	if peak := audio.Peak(); peak == 0 || peak < s.silenceThreshold {
		return fmt.Errorf("%w: peak amplitude %d below threshold %d", domain.ErrUnintelligibleAudio, peak, s.silenceThreshold)
	}

	transcript, err := s.stt.Transcribe(ctx, audio, run.Settings.Language)
	if err != nil {
		return err
	}

	s.logger.Info("Transcription completed",
		zap.String("runID", run.ID),
		zap.String("backend", s.stt.Name()),
		zap.Int("textLength", len(transcript.Text)))
	run.Transcript = &transcript
	return nil
}

// CompleteStep asks the chat service for a reply to the text input
type CompleteStep struct {
	chat *ChatService
}

func NewCompleteStep(chat *ChatService) *CompleteStep {
	return &CompleteStep{chat: chat}
}

func (s *CompleteStep) State() pipeline.State { return pipeline.StateCompleting }

func (s *CompleteStep) Execute(ctx context.Context, run *pipeline.Run) error {
	reply, err := s.chat.Reply(ctx, run.Settings.Expertise, run.TextInput())
	if err != nil {
		return err
	}
	run.Reply = &reply
	return nil
}

// SynthesizeStep speaks the reply, or the request text when no completion ran
type SynthesizeStep struct {
	tts    repositories.TextToSpeech
	logger *zap.Logger
}

func NewSynthesizeStep(tts repositories.TextToSpeech, logger *zap.Logger) *SynthesizeStep {
	return &SynthesizeStep{tts: tts, logger: logger}
}

func (s *SynthesizeStep) State() pipeline.State { return pipeline.StateSynthesizing }

func (s *SynthesizeStep) Execute(ctx context.Context, run *pipeline.Run) error {
	text := run.TextInput()
	if run.Reply != nil {
		text = run.Reply.Text
	}

	audio, err := s.tts.Synthesize(ctx, text, run.Settings.Voice, run.Settings.Language)
	if err != nil {
		return err
	}

	s.logger.Info("Synthesis completed",
		zap.String("runID", run.ID),
		zap.String("backend", s.tts.Name()),
		zap.String("voiceID", string(run.Settings.Voice)),
		zap.String("language", run.Settings.Language),
		zap.Int("audioSize", len(audio.Data)))
	run.Audio = &audio
	return nil
}
