// Package retry wraps backend ports with exponential backoff. Only errors
// marked retryable by the adapters are retried.
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"

	"github.com/satriahrh/suara/domain"
	"github.com/satriahrh/suara/domain/entities"
	"github.com/satriahrh/suara/domain/repositories"
)

// Policy configures how often and how patiently a backend call is retried
type Policy struct {
	// MaxAttempts counts the first call. One or less disables retry.
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultPolicy returns a policy that never retries
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:     1,
		InitialInterval: 200 * time.Millisecond,
		MaxInterval:     2 * time.Second,
	}
}

// Enabled reports whether the policy retries at all
func (p Policy) Enabled() bool {
	return p.MaxAttempts > 1
}

func (p Policy) backOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	if p.InitialInterval > 0 {
		b.InitialInterval = p.InitialInterval
	}
	if p.MaxInterval > 0 {
		b.MaxInterval = p.MaxInterval
	}
	return b
}

// do runs op under the policy. Non-retryable errors stop immediately and are
// returned unwrapped.
func do[T any](ctx context.Context, p Policy, logger *zap.Logger, backend string, op func() (T, error)) (T, error) {
	attempt := 0
	return backoff.Retry(ctx, func() (T, error) {
		attempt++
		result, err := op()
		if err == nil {
			return result, nil
		}
		if !domain.IsRetryable(err) {
			return result, backoff.Permanent(err)
		}
		return result, err
	},
		backoff.WithBackOff(p.backOff()),
		backoff.WithMaxTries(uint(max(p.MaxAttempts, 1))),
		backoff.WithNotify(func(err error, wait time.Duration) {
			logger.Warn("Retrying backend call",
				zap.String("backend", backend),
				zap.Int("attempt", attempt),
				zap.Duration("wait", wait),
				zap.Error(err))
		}),
	)
}

type speechToText struct {
	next   repositories.SpeechToText
	policy Policy
	logger *zap.Logger
}

// SpeechToText decorates next with the policy. A disabled policy returns
// next unchanged.
func SpeechToText(next repositories.SpeechToText, policy Policy, logger *zap.Logger) repositories.SpeechToText {
	if !policy.Enabled() {
		return next
	}
	return &speechToText{next: next, policy: policy, logger: logger}
}

func (s *speechToText) Name() string { return s.next.Name() }

func (s *speechToText) Transcribe(ctx context.Context, audio entities.NormalizedAudio, languageHint string) (entities.Transcript, error) {
	return do(ctx, s.policy, s.logger, s.next.Name(), func() (entities.Transcript, error) {
		return s.next.Transcribe(ctx, audio, languageHint)
	})
}

type textToSpeech struct {
	next   repositories.TextToSpeech
	policy Policy
	logger *zap.Logger
}

// TextToSpeech decorates next with the policy
func TextToSpeech(next repositories.TextToSpeech, policy Policy, logger *zap.Logger) repositories.TextToSpeech {
	if !policy.Enabled() {
		return next
	}
	return &textToSpeech{next: next, policy: policy, logger: logger}
}

func (t *textToSpeech) Name() string { return t.next.Name() }

func (t *textToSpeech) Synthesize(ctx context.Context, text string, voice entities.VoiceID, language string) (entities.SynthesizedAudio, error) {
	return do(ctx, t.policy, t.logger, t.next.Name(), func() (entities.SynthesizedAudio, error) {
		return t.next.Synthesize(ctx, text, voice, language)
	})
}

type largeLanguageModel struct {
	next   repositories.LargeLanguageModel
	policy Policy
	logger *zap.Logger
}

// LargeLanguageModel decorates next with the policy
func LargeLanguageModel(next repositories.LargeLanguageModel, policy Policy, logger *zap.Logger) repositories.LargeLanguageModel {
	if !policy.Enabled() {
		return next
	}
	return &largeLanguageModel{next: next, policy: policy, logger: logger}
}

func (l *largeLanguageModel) Name() string { return l.next.Name() }

func (l *largeLanguageModel) Complete(ctx context.Context, prompt entities.CompletionPrompt) (entities.CompletionReply, error) {
	return do(ctx, l.policy, l.logger, l.next.Name(), func() (entities.CompletionReply, error) {
		return l.next.Complete(ctx, prompt)
	})
}
