package stt

import (
	"context"
	"fmt"
	"strings"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"go.uber.org/zap"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/satriahrh/suara/domain"
	"github.com/satriahrh/suara/domain/entities"
	"github.com/satriahrh/suara/domain/repositories"
)

const googleBackend = "google-speech"

// GoogleSpeechConfig holds configuration for Google Cloud Speech-to-Text
type GoogleSpeechConfig struct {
	// ClientOptions are passed to the speech client. Credentials come from
	// Application Default Credentials unless an option overrides them.
	ClientOptions []option.ClientOption
	// Model selects the recognition model, empty for the service default.
	Model string
}

// GoogleSpeechToText implements SpeechToText for Google Cloud
type GoogleSpeechToText struct {
	client *speech.Client
	config GoogleSpeechConfig
	logger *zap.Logger
}

var _ repositories.SpeechToText = (*GoogleSpeechToText)(nil)

// NewGoogleSpeechToText creates a Google Cloud Speech client
func NewGoogleSpeechToText(ctx context.Context, config GoogleSpeechConfig, logger *zap.Logger) (*GoogleSpeechToText, error) {
	client, err := speech.NewClient(ctx, config.ClientOptions...)
	if err != nil {
		return nil, fmt.Errorf("failed to create speech client: %w", err)
	}
	// Retries are applied by the pipeline when enabled, not by the client.
	client.CallOptions.Recognize = nil

	return &GoogleSpeechToText{
		client: client,
		config: config,
		logger: logger,
	}, nil
}

func (g *GoogleSpeechToText) Name() string {
	return googleBackend
}

// Transcribe sends the clip in one blocking Recognize call.
func (g *GoogleSpeechToText) Transcribe(ctx context.Context, audio entities.NormalizedAudio, languageHint string) (entities.Transcript, error) {
	if languageHint == "" {
		languageHint = entities.DefaultLanguage
	}

	resp, err := g.client.Recognize(ctx, &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:                   speechpb.RecognitionConfig_LINEAR16,
			SampleRateHertz:            entities.CanonicalSampleRate,
			AudioChannelCount:          entities.CanonicalChannels,
			LanguageCode:               languageHint,
			EnableAutomaticPunctuation: true,
			Model:                      g.config.Model,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: audio.PCM()},
		},
	})
	if err != nil {
		return entities.Transcript{}, wrapGRPCError(err)
	}

	var parts []string
	for _, result := range resp.GetResults() {
		if alts := result.GetAlternatives(); len(alts) > 0 {
			if text := strings.TrimSpace(alts[0].GetTranscript()); text != "" {
				parts = append(parts, text)
			}
		}
	}
	if len(parts) == 0 {
		return entities.Transcript{}, fmt.Errorf("%s: %w", googleBackend, domain.ErrUnintelligibleAudio)
	}

	g.logger.Debug("Google speech recognized audio",
		zap.Int("results", len(parts)),
		zap.String("language", languageHint),
	)
	return entities.Transcript{
		Text:         strings.Join(parts, " "),
		LanguageHint: languageHint,
	}, nil
}

// Close releases the underlying gRPC connection
func (g *GoogleSpeechToText) Close() error {
	return g.client.Close()
}

func wrapGRPCError(err error) error {
	code := status.Code(err)
	if code == codes.Canceled {
		return err
	}
	retryable := false
	switch code {
	case codes.Unavailable, codes.ResourceExhausted, codes.DeadlineExceeded, codes.Internal, codes.Unknown:
		retryable = true
	}
	msg := err.Error()
	if s, ok := status.FromError(err); ok {
		msg = s.Message()
	}
	return domain.NewBackendError(googleBackend, code.String(), msg, nil, retryable)
}
