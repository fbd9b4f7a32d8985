package repositories

import (
	"context"

	"github.com/satriahrh/suara/domain/entities"
)

// LargeLanguageModel abstracts any chat/LLM provider
type LargeLanguageModel interface {
	Name() string
	// Complete returns the model's reply to a single-turn prompt
	Complete(ctx context.Context, prompt entities.CompletionPrompt) (entities.CompletionReply, error)
}
