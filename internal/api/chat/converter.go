package chat

import (
	"unicode/utf8"

	"github.com/futig/urlchat-backend/internal/entity"
	"github.com/futig/urlchat-backend/internal/pkg/extract"
)

// toMessageDTO converts ChatMessage entity to MessageDTO
func toMessageDTO(m *entity.ChatMessage) *entity.MessageDTO {
	return &entity.MessageDTO{
		ID:          m.ID,
		Text:        m.Text,
		Sender:      m.Sender,
		IsLoading:   m.IsLoading,
		URLMetadata: m.URLMetadata,
		CreatedAt:   m.CreatedAt,
	}
}

func toMessageDTOs(messages []*entity.ChatMessage) []*entity.MessageDTO {
	dtos := make([]*entity.MessageDTO, 0, len(messages))
	for _, m := range messages {
		dtos = append(dtos, toMessageDTO(m))
	}
	return dtos
}

// toContextDTO converts LocalContext entity to ContextDTO. The content
// itself stays server-side; only its size is reported.
func toContextDTO(lc *entity.LocalContext) entity.ContextDTO {
	return entity.ContextDTO{
		Type:      lc.Type,
		Name:      lc.Name,
		FileCount: lc.FileCount,
		Chars:     utf8.RuneCountInString(lc.Content),
		Truncated: lc.Truncated,
	}
}

func toAttachFolderResponse(lc *entity.LocalContext, result *extract.AggregateResult) *entity.AttachFolderResponse {
	return &entity.AttachFolderResponse{
		Context:       toContextDTO(lc),
		IncludedCount: result.IncludedCount,
		EligibleCount: result.EligibleCount,
		SkippedCount:  result.EligibleCount - result.IncludedCount,
	}
}
