package chat

import (
	"context"

	"github.com/futig/urlchat-backend/internal/entity"
	"github.com/futig/urlchat-backend/internal/pkg/extract"
	"github.com/futig/urlchat-backend/internal/pkg/formatter"
)

type ChatUsecase interface {
	GetMessages(ctx context.Context) ([]*entity.ChatMessage, error)
	Ask(ctx context.Context, req *entity.AskRequest) (*entity.ChatMessage, error)
	Suggest(ctx context.Context) ([]string, error)
	AttachFile(ctx context.Context, filename string, data []byte) (*entity.LocalContext, error)
	AttachFolder(ctx context.Context, name string, files []extract.CandidateFile) (*entity.LocalContext, *extract.AggregateResult, error)
	GetContext(ctx context.Context) (*entity.LocalContext, error)
	RemoveContext(ctx context.Context) error
	Export(ctx context.Context, format formatter.ExportFormat) ([]byte, string, string, error)
}
