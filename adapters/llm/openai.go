package llm

import (
	"context"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/satriahrh/suara/adapters/openaiclient"
	"github.com/satriahrh/suara/domain"
	"github.com/satriahrh/suara/domain/entities"
	"github.com/satriahrh/suara/domain/repositories"
)

const openAIBackend = "openai-chat"

// OpenAIConfig holds configuration for the OpenAI chat completion backend
type OpenAIConfig struct {
	openaiclient.Config
	Model       string
	MaxTokens   int
	Temperature float32
}

// OpenAILLM implements LargeLanguageModel with the chat completions API
type OpenAILLM struct {
	client *openai.Client
	config OpenAIConfig
	logger *zap.Logger
}

var _ repositories.LargeLanguageModel = (*OpenAILLM)(nil)

// NewOpenAILLM creates a new OpenAI completion backend
func NewOpenAILLM(config OpenAIConfig, logger *zap.Logger) (*OpenAILLM, error) {
	if err := config.Config.Validate(); err != nil {
		return nil, err
	}
	if config.Model == "" {
		config.Model = openai.GPT4oMini
	}
	if config.MaxTokens == 0 {
		config.MaxTokens = defaultMaxTokens
	}
	return &OpenAILLM{
		client: openaiclient.New(config.Config),
		config: config,
		logger: logger,
	}, nil
}

func (o *OpenAILLM) Name() string {
	return openAIBackend
}

// Complete implements repositories.LargeLanguageModel
func (o *OpenAILLM) Complete(ctx context.Context, prompt entities.CompletionPrompt) (entities.CompletionReply, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       o.config.Model,
		MaxTokens:   o.config.MaxTokens,
		Temperature: o.config.Temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: prompt.SystemInstruction()},
			{Role: openai.ChatMessageRoleUser, Content: prompt.UserText},
		},
	})
	if err != nil {
		return entities.CompletionReply{}, openaiclient.WrapError(openAIBackend, err)
	}
	if len(resp.Choices) == 0 {
		return entities.CompletionReply{}, domain.NewBackendError(openAIBackend, "empty", "no choices returned", nil, false)
	}

	reply := strings.TrimSpace(resp.Choices[0].Message.Content)
	if reply == "" {
		return entities.CompletionReply{}, domain.NewBackendError(openAIBackend, "empty", "empty reply", nil, false)
	}

	o.logger.Info("Chat completion processed",
		zap.String("model", resp.Model),
		zap.Int("totalTokens", resp.Usage.TotalTokens))

	return entities.CompletionReply{Text: reply}, nil
}
