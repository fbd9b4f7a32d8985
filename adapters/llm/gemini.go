package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/satriahrh/suara/domain"
	"github.com/satriahrh/suara/domain/entities"
	"github.com/satriahrh/suara/domain/repositories"
)

const (
	geminiBackend      = "gemini"
	defaultGeminiModel = "gemini-2.0-flash"
	defaultTemperature = 0.7
	defaultTopP        = 0.95
	defaultMaxTokens   = 512
	defaultTimeout     = 30 * time.Second
)

// GeminiConfig holds configuration for the Gemini completion backend
type GeminiConfig struct {
	APIKey          string
	BaseURL         string
	Model           string
	Temperature     float32
	TopP            float32
	MaxOutputTokens int
	Timeout         time.Duration
}

// NewGeminiConfigFromEnv reads GEMINI_API_KEY and optional overrides
func NewGeminiConfigFromEnv() GeminiConfig {
	config := GeminiConfig{
		APIKey:  os.Getenv("GEMINI_API_KEY"),
		BaseURL: os.Getenv("GEMINI_BASE_URL"),
		Model:   os.Getenv("GEMINI_MODEL"),
	}
	if temperatureStr := os.Getenv("GEMINI_TEMPERATURE"); temperatureStr != "" {
		if temperature, err := strconv.ParseFloat(temperatureStr, 32); err == nil {
			config.Temperature = float32(temperature)
		}
	}
	return config
}

// ValidateGeminiConfig validates the GeminiConfig
func ValidateGeminiConfig(config GeminiConfig) error {
	if config.APIKey == "" {
		return fmt.Errorf("Gemini API key is required")
	}

	if config.Temperature != 0 && (config.Temperature < 0 || config.Temperature > 2) {
		return fmt.Errorf("temperature must be between 0 and 2, got %f", config.Temperature)
	}

	if config.TopP != 0 && (config.TopP < 0 || config.TopP > 1) {
		return fmt.Errorf("topP must be between 0 and 1, got %f", config.TopP)
	}

	if config.Timeout < 0 {
		return fmt.Errorf("timeout must be positive, got %s", config.Timeout)
	}

	return nil
}

// GeminiLLM implements the LargeLanguageModel interface using Google's Gemini API
type GeminiLLM struct {
	client *genai.Client
	config GeminiConfig
	logger *zap.Logger
}

var _ repositories.LargeLanguageModel = (*GeminiLLM)(nil)

// NewGeminiLLM creates a new Gemini LLM instance
func NewGeminiLLM(ctx context.Context, config GeminiConfig, logger *zap.Logger) (*GeminiLLM, error) {
	if err := ValidateGeminiConfig(config); err != nil {
		return nil, err
	}

	if config.Model == "" {
		config.Model = defaultGeminiModel
	}
	if config.Temperature == 0 {
		config.Temperature = defaultTemperature
	}
	if config.TopP == 0 {
		config.TopP = defaultTopP
	}
	if config.MaxOutputTokens == 0 {
		config.MaxOutputTokens = defaultMaxTokens
	}
	if config.Timeout == 0 {
		config.Timeout = defaultTimeout
	}

	clientConfig := &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if config.BaseURL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: config.BaseURL}
	}
	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	logger.Info("Configured Gemini LLM",
		zap.String("model", config.Model),
		zap.Float32("temperature", config.Temperature),
		zap.Int("maxOutputTokens", config.MaxOutputTokens))

	return &GeminiLLM{
		client: client,
		config: config,
		logger: logger,
	}, nil
}

func (g *GeminiLLM) Name() string {
	return geminiBackend
}

// Complete sends a single-turn prompt with the persona as system instruction
func (g *GeminiLLM) Complete(ctx context.Context, prompt entities.CompletionPrompt) (entities.CompletionReply, error) {
	ctx, cancel := context.WithTimeout(ctx, g.config.Timeout)
	defer cancel()

	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(prompt.SystemInstruction(), genai.RoleUser),
		Temperature:       genai.Ptr(g.config.Temperature),
		TopP:              genai.Ptr(g.config.TopP),
		MaxOutputTokens:   int32(g.config.MaxOutputTokens),
	}
	contents := []*genai.Content{genai.NewContentFromText(prompt.UserText, genai.RoleUser)}

	response, err := g.client.Models.GenerateContent(ctx, g.config.Model, contents, config)
	if err != nil {
		return entities.CompletionReply{}, wrapGeminiError(err)
	}

	var text strings.Builder
	if len(response.Candidates) > 0 && response.Candidates[0].Content != nil {
		for _, part := range response.Candidates[0].Content.Parts {
			text.WriteString(part.Text)
		}
	}
	reply := strings.TrimSpace(text.String())
	if reply == "" {
		return entities.CompletionReply{}, domain.NewBackendError(geminiBackend, "empty", "no content generated", nil, false)
	}

	g.logger.Info("Gemini completion processed",
		zap.Int("promptLength", len(prompt.UserText)),
		zap.Int("replyLength", len(reply)))

	return entities.CompletionReply{Text: reply}, nil
}

func wrapGeminiError(err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		retryable := apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= http.StatusInternalServerError
		return domain.NewBackendError(geminiBackend, strconv.Itoa(apiErr.Code), apiErr.Message, nil, retryable)
	}
	return domain.NewBackendError(geminiBackend, "", "request failed", err, true)
}
