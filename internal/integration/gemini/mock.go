package gemini

import (
	"context"
	"fmt"

	"github.com/futig/urlchat-backend/internal/entity"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// MockConnector is a stand-in generation backend for local development;
// selected with ENABLE_MOCKS.
type MockConnector struct {
	logger *zap.Logger
}

func NewMockConnector(logger *zap.Logger) *MockConnector {
	return &MockConnector{
		logger: logger,
	}
}

func (m *MockConnector) Configured() bool {
	return true
}

func (m *MockConnector) Generate(ctx context.Context, req *entity.GenerateRequest) (*entity.GenerateResult, error) {
	ctxzap.Info(ctx, "[MOCK] generating answer", zap.Int("url_count", len(req.URLs)))

	result := &entity.GenerateResult{
		Text: fmt.Sprintf("Mock answer to: %s", req.Query),
	}

	for _, u := range req.URLs {
		result.URLMetadata = append(result.URLMetadata, entity.URLMetadata{
			RetrievedURL:    u,
			RetrievalStatus: "URL_RETRIEVAL_STATUS_SUCCESS",
		})
	}

	if req.LocalContext != "" {
		result.Text += fmt.Sprintf(" (considered %d chars of local context)", len(req.LocalContext))
	}

	return result, nil
}

func (m *MockConnector) SuggestTopics(ctx context.Context, urls []string) ([]string, error) {
	ctxzap.Info(ctx, "[MOCK] suggesting topics", zap.Int("url_count", len(urls)))

	if len(urls) == 0 {
		return []string{}, nil
	}

	return []string{
		"What is the main subject of these pages?",
		"Summarize the key points across all sources.",
		"Are there contradictions between the sources?",
		"What has changed most recently?",
	}, nil
}
