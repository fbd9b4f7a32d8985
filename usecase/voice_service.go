package usecase

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/satriahrh/suara/domain"
	"github.com/satriahrh/suara/domain/entities"
	"github.com/satriahrh/suara/domain/repositories"
	"github.com/satriahrh/suara/internal/pipeline"
)

// VoiceServiceConfig holds configuration for the voice service
type VoiceServiceConfig struct {
	// SilenceThreshold is the peak amplitude below which a clip counts as
	// silence. Zero disables the check.
	SilenceThreshold int
	// Defaults fill fields left empty by a settings update.
	Defaults entities.Settings
}

// VoiceService orchestrates normalization, transcription, completion and
// synthesis for one request at a time per caller goroutine.
type VoiceService struct {
	settings repositories.SettingsRepository
	runner   *pipeline.Runner

	normalize  *NormalizeStep
	transcribe *TranscribeStep
	complete   *CompleteStep
	synthesize *SynthesizeStep

	defaults entities.Settings
	logger   *zap.Logger
}

// NewVoiceService creates a new voice service
func NewVoiceService(
	config VoiceServiceConfig,
	settings repositories.SettingsRepository,
	normalizer repositories.AudioNormalizer,
	stt repositories.SpeechToText,
	chat *ChatService,
	tts repositories.TextToSpeech,
	runner *pipeline.Runner,
	logger *zap.Logger,
) *VoiceService {
	defaults := config.Defaults
	if defaults == (entities.Settings{}) {
		defaults = entities.DefaultSettings()
	}
	return &VoiceService{
		settings:   settings,
		runner:     runner,
		normalize:  NewNormalizeStep(normalizer),
		transcribe: NewTranscribeStep(stt, config.SilenceThreshold, logger),
		complete:   NewCompleteStep(chat),
		synthesize: NewSynthesizeStep(tts, logger),
		defaults:   defaults,
		logger:     logger,
	}
}

// Process runs req to completion. Failures are reported in the result, never
// as an error.
func (s *VoiceService) Process(ctx context.Context, req entities.PipelineRequest) entities.PipelineResult {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}

	if err := req.Validate(); err != nil {
		return s.rejected(req, err)
	}

	// One snapshot per request: updates made while the run is in flight
	// apply to the next request.
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return s.rejected(req, fmt.Errorf("load settings: %w", err))
	}

	run := pipeline.NewRun(req.ID, req, settings)
	s.runner.Execute(ctx, run, s.steps(req.Kind))
	return run.Result()
}

// Transcribe returns the text spoken in audio
func (s *VoiceService) Transcribe(ctx context.Context, audio entities.RawAudio) entities.PipelineResult {
	return s.Process(ctx, entities.PipelineRequest{Kind: entities.KindTranscribe, Audio: &audio})
}

// VoiceChat answers spoken audio with spoken audio
func (s *VoiceService) VoiceChat(ctx context.Context, audio entities.RawAudio) entities.PipelineResult {
	return s.Process(ctx, entities.PipelineRequest{Kind: entities.KindVoiceChat, Audio: &audio})
}

// Chat answers text with spoken audio
func (s *VoiceService) Chat(ctx context.Context, text string) entities.PipelineResult {
	return s.Process(ctx, entities.PipelineRequest{Kind: entities.KindChat, Text: text})
}

// Synthesize speaks text
func (s *VoiceService) Synthesize(ctx context.Context, text string) entities.PipelineResult {
	return s.Process(ctx, entities.PipelineRequest{Kind: entities.KindSynthesize, Text: text})
}

// Settings returns the current settings
func (s *VoiceService) Settings(ctx context.Context) (entities.Settings, error) {
	return s.settings.Get(ctx)
}

// UpdateSettings replaces the settings wholesale. Empty language and
// expertise fall back to the defaults; an unknown voice is stored and fails
// when synthesis uses it.
func (s *VoiceService) UpdateSettings(ctx context.Context, update entities.Settings) (entities.Settings, error) {
	next := update.WithDefaults(s.defaults)
	if err := next.Validate(); err != nil {
		return entities.Settings{}, err
	}
	if err := s.settings.Set(ctx, next); err != nil {
		return entities.Settings{}, fmt.Errorf("store settings: %w", err)
	}

	fields := []zap.Field{
		zap.String("voiceID", string(next.Voice)),
		zap.String("language", next.Language),
		zap.String("expertise", next.Expertise),
	}
	if !next.Voice.Known() {
		s.logger.Warn("Settings updated with unknown voice", fields...)
	} else {
		s.logger.Info("Settings updated", fields...)
	}
	return next, nil
}

func (s *VoiceService) steps(kind entities.RequestKind) []pipeline.Step {
	var steps []pipeline.Step
	if kind.NeedsAudio() {
		steps = append(steps, s.normalize, s.transcribe)
	}
	if kind.NeedsCompletion() {
		steps = append(steps, s.complete)
	}
	if kind.NeedsSynthesis() {
		steps = append(steps, s.synthesize)
	}
	return steps
}

func (s *VoiceService) rejected(req entities.PipelineRequest, err error) entities.PipelineResult {
	pErr := domain.NewPipelineError(domain.StageValidate, err)
	s.logger.Info("Request rejected",
		zap.String("runID", req.ID),
		zap.String("kind", string(req.Kind)),
		zap.String("errorKind", string(pErr.Kind)),
		zap.Error(err))
	return entities.PipelineResult{RequestID: req.ID, Kind: req.Kind, Err: pErr}
}
