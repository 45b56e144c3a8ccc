package chat

import (
	"context"

	"github.com/futig/urlchat-backend/internal/entity"
)

// GenerationConnector is the language-model gateway the chat flow talks to.
type GenerationConnector interface {
	Configured() bool
	Generate(ctx context.Context, req *entity.GenerateRequest) (*entity.GenerateResult, error)
	SuggestTopics(ctx context.Context, urls []string) ([]string, error)
}
