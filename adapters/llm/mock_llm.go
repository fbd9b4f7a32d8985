package llm

import (
	"context"
	"fmt"

	"github.com/satriahrh/suara/domain/entities"
	"github.com/satriahrh/suara/domain/repositories"
)

// MockLLM is a placeholder implementation of a completion backend
type MockLLM struct{}

var _ repositories.LargeLanguageModel = (*MockLLM)(nil)

// NewMockLLM creates a new mock completion backend
func NewMockLLM() *MockLLM {
	return &MockLLM{}
}

func (m *MockLLM) Name() string {
	return "mock"
}

// Complete echoes the user text in the persona's voice
func (m *MockLLM) Complete(ctx context.Context, prompt entities.CompletionPrompt) (entities.CompletionReply, error) {
	if prompt.UserText == "" {
		return entities.CompletionReply{Text: "Hello! What would you like to talk about today?"}, nil
	}
	return entities.CompletionReply{
		Text: fmt.Sprintf("As a %s, I heard you say '%s'. Tell me more!", prompt.Persona, prompt.UserText),
	}, nil
}
