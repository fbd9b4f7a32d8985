// Package openaiclient builds go-openai clients and maps their errors onto
// the domain error kinds.
package openaiclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"

	openai "github.com/sashabaranov/go-openai"

	"github.com/satriahrh/suara/domain"
)

// Config holds connection settings shared by every OpenAI-backed adapter
type Config struct {
	APIKey  string
	BaseURL string
}

// NewConfigFromEnv reads OPENAI_API_KEY and the optional OPENAI_BASE_URL
func NewConfigFromEnv() Config {
	return Config{
		APIKey:  os.Getenv("OPENAI_API_KEY"),
		BaseURL: os.Getenv("OPENAI_BASE_URL"),
	}
}

// Validate checks if the configuration is valid
func (c Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("OpenAI API key is required")
	}
	return nil
}

// New creates a go-openai client from the configuration
func New(config Config) *openai.Client {
	cfg := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		cfg.BaseURL = config.BaseURL
	}
	return openai.NewClientWithConfig(cfg)
}

// WrapError converts a go-openai error into a domain.BackendError. Context
// cancellation is returned unchanged.
func WrapError(backend string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return err
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return domain.NewBackendError(backend, strconv.Itoa(apiErr.HTTPStatusCode), apiErr.Message, nil, retryableStatus(apiErr.HTTPStatusCode))
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return domain.NewBackendError(backend, strconv.Itoa(reqErr.HTTPStatusCode), "request failed", reqErr.Err, retryableStatus(reqErr.HTTPStatusCode))
	}

	// Transport failures never reached the API.
	return domain.NewBackendError(backend, "", "request failed", err, true)
}

func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}
