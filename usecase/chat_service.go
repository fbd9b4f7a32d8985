package usecase

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/satriahrh/suara/domain"
	"github.com/satriahrh/suara/domain/entities"
	"github.com/satriahrh/suara/domain/repositories"
)

// ChatService handles the completion stage. Every call is a single turn:
// no history is kept between requests.
type ChatService struct {
	llm    repositories.LargeLanguageModel
	logger *zap.Logger
}

// NewChatService creates a new chat service
func NewChatService(llm repositories.LargeLanguageModel, logger *zap.Logger) *ChatService {
	return &ChatService{llm: llm, logger: logger}
}

// Reply asks the completion backend to answer text as persona
func (s *ChatService) Reply(ctx context.Context, persona, text string) (entities.CompletionReply, error) {
	if strings.TrimSpace(text) == "" {
		return entities.CompletionReply{}, fmt.Errorf("%w: text cannot be empty", domain.ErrValidation)
	}

	prompt := entities.CompletionPrompt{Persona: persona, UserText: text}
	reply, err := s.llm.Complete(ctx, prompt)
	if err != nil {
		return entities.CompletionReply{}, err
	}
	if strings.TrimSpace(reply.Text) == "" {
		return entities.CompletionReply{}, domain.NewBackendError(s.llm.Name(), "empty_reply", "completion returned no text", nil, false)
	}

	s.logger.Debug("Completion generated",
		zap.String("backend", s.llm.Name()),
		zap.Int("promptLength", len(text)),
		zap.Int("replyLength", len(reply.Text)))
	return reply, nil
}
