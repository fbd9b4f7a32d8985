package openaiclient

import (
	"context"
	"errors"
	"fmt"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"

	"github.com/satriahrh/suara/domain"
)

func TestWrapError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		retryable bool
	}{
		{"rate limited", &openai.APIError{HTTPStatusCode: 429, Message: "slow down"}, true},
		{"server error", &openai.APIError{HTTPStatusCode: 503, Message: "overloaded"}, true},
		{"bad request", &openai.APIError{HTTPStatusCode: 400, Message: "invalid file"}, false},
		{"unauthorized", &openai.RequestError{HTTPStatusCode: 401, Err: errors.New("bad key")}, false},
		{"network", fmt.Errorf("dial tcp: connection refused"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := WrapError("openai-test", tt.err)
			assert.ErrorIs(t, err, domain.ErrBackendUnavailable)
			assert.Equal(t, tt.retryable, domain.IsRetryable(err))
			assert.Contains(t, err.Error(), "openai-test")
		})
	}
}

func TestWrapErrorKeepsCancellation(t *testing.T) {
	err := WrapError("openai-test", fmt.Errorf("post: %w", context.Canceled))
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, domain.ErrBackendUnavailable)
	assert.NoError(t, WrapError("openai-test", nil))
}

func TestConfigValidate(t *testing.T) {
	assert.Error(t, Config{}.Validate())
	assert.NoError(t, Config{APIKey: "sk-test"}.Validate())
}
