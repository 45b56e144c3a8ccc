package gemini

import (
	"errors"
	"fmt"
	"net/http"

	"context"

	"github.com/futig/urlchat-backend/internal/config"
	"github.com/futig/urlchat-backend/internal/entity"
	pkghttp "github.com/futig/urlchat-backend/pkg/http"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

const apiKeyHeader = "x-goog-api-key"

var defaultSafetySettings = []entity.GeminiSafetySetting{
	{Category: "HARM_CATEGORY_HARASSMENT", Threshold: "BLOCK_ONLY_HIGH"},
	{Category: "HARM_CATEGORY_HATE_SPEECH", Threshold: "BLOCK_ONLY_HIGH"},
	{Category: "HARM_CATEGORY_SEXUALLY_EXPLICIT", Threshold: "BLOCK_ONLY_HIGH"},
	{Category: "HARM_CATEGORY_DANGEROUS_CONTENT", Threshold: "BLOCK_ONLY_HIGH"},
}

type Connector struct {
	config    config.GeminiConnectorConfig
	connector *pkghttp.Connector
	logger    *zap.Logger
}

func NewConnector(
	cfg config.GeminiConnectorConfig,
	logger *zap.Logger,
) *Connector {
	connCfg := &pkghttp.ConnectorConfig{
		Logger:  logger,
		BaseURL: cfg.Url,
	}

	return &Connector{
		connector: pkghttp.NewConnector(
			connCfg,
			pkghttp.WithRequestTimeout(cfg.RequestTimeout),
			pkghttp.WithConnClientTimeout(cfg.ConnTimeout),
			pkghttp.WithClientKeepAlive(cfg.KeepAlive),
			pkghttp.WithIdleConnTimeout(cfg.IdleConnTimeout),
			pkghttp.WithResponseHeaderTimeout(cfg.ResponseHeaderTimeout),
			pkghttp.WithRequestLogging(),
			pkghttp.WithAPIKeyAuth(apiKeyHeader, cfg.APIKey),
		),
		config: cfg,
		logger: logger,
	}
}

// Configured reports whether an API credential is present. Callers must
// never attempt a generation call without it.
func (c *Connector) Configured() bool {
	return c.config.APIKey != ""
}

func (c *Connector) endpoint() string {
	return fmt.Sprintf("/v1beta/models/%s:generateContent", c.config.Model)
}

// Generate performs one grounded generation call. When the request carries
// URLs the url_context tool is enabled; JSON response mode is never combined
// with it, the upstream service rejects that pairing.
func (c *Connector) Generate(ctx context.Context, req *entity.GenerateRequest) (*entity.GenerateResult, error) {
	if !c.Configured() {
		return nil, entity.ErrMissingCredential
	}

	ctxzap.Info(ctx, "generating answer",
		zap.String("model", c.config.Model),
		zap.Int("url_count", len(req.URLs)),
		zap.Bool("has_local_context", req.LocalContext != ""),
	)

	wireReq := entity.GeminiGenerateRequest{
		Contents: []entity.GeminiContent{
			{Role: "user", Parts: []entity.GeminiPart{{Text: ComposePrompt(req, c.config.AnswerLanguage)}}},
		},
		SafetySettings: defaultSafetySettings,
	}

	if len(req.URLs) > 0 {
		wireReq.Tools = []entity.GeminiTool{{URLContext: &entity.GeminiURLContext{}}}
	}

	var wireResp entity.GeminiGenerateResponse
	if err := c.connector.DoRequest(ctx, http.MethodPost, c.endpoint(), &wireReq, &wireResp); err != nil {
		return nil, classifyUpstream(err)
	}

	result, err := toGenerateResult(&wireResp)
	if err != nil {
		return nil, err
	}

	ctxzap.Info(ctx, "answer generated",
		zap.Int("answer_length", len(result.Text)),
		zap.Int("retrieved_urls", len(result.URLMetadata)),
	)

	return result, nil
}

// SuggestTopics asks the backend for up to MaxSuggestions example questions
// about the given URLs. JSON response mode is used instead of grounding.
func (c *Connector) SuggestTopics(ctx context.Context, urls []string) ([]string, error) {
	if !c.Configured() {
		return nil, entity.ErrMissingCredential
	}

	if len(urls) == 0 {
		return []string{}, nil
	}

	ctxzap.Info(ctx, "requesting topic suggestions", zap.Int("url_count", len(urls)))

	wireReq := entity.GeminiGenerateRequest{
		Contents: []entity.GeminiContent{
			{Role: "user", Parts: []entity.GeminiPart{{Text: suggestionPrompt(urls)}}},
		},
		GenerationConfig: &entity.GeminiGenerationConfig{
			ResponseMIMEType: "application/json",
		},
		SafetySettings: defaultSafetySettings,
	}

	var wireResp entity.GeminiGenerateResponse
	if err := c.connector.DoRequest(ctx, http.MethodPost, c.endpoint(), &wireReq, &wireResp); err != nil {
		return nil, classifyUpstream(err)
	}

	raw := candidateText(&wireResp)
	suggestions, err := ParseSuggestions(raw)
	if err != nil {
		ctxzap.Warn(ctx, "suggestion response unparseable",
			zap.String("raw", raw),
			zap.Error(err),
		)
		return nil, err
	}

	return suggestions, nil
}

func toGenerateResult(resp *entity.GeminiGenerateResponse) (*entity.GenerateResult, error) {
	text := candidateText(resp)
	if text == "" {
		return nil, fmt.Errorf("%w: empty candidate in response", entity.ErrUpstream)
	}

	result := &entity.GenerateResult{Text: text}

	if meta := resp.Candidates[0].URLContextMetadata; meta != nil {
		for _, m := range meta.URLMetadata {
			result.URLMetadata = append(result.URLMetadata, entity.URLMetadata{
				RetrievedURL:    m.RetrievedURL,
				RetrievalStatus: m.URLRetrievalStatus,
			})
		}
	}

	return result, nil
}

func candidateText(resp *entity.GeminiGenerateResponse) string {
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}

	var text string
	for _, part := range resp.Candidates[0].Content.Parts {
		text += part.Text
	}
	return text
}

// classifyUpstream maps transport failures onto the domain error taxonomy:
// invalid credential, quota exceeded, or generic upstream failure.
func classifyUpstream(err error) error {
	var httpErr *pkghttp.HTTPError
	if errors.As(err, &httpErr) {
		apiErr := decodeAPIError(httpErr)

		switch {
		case httpErr.StatusCode == http.StatusTooManyRequests || apiErr.Status == "RESOURCE_EXHAUSTED":
			return entity.ErrQuotaExceeded
		case httpErr.StatusCode == http.StatusUnauthorized,
			httpErr.StatusCode == http.StatusForbidden,
			apiErr.Status == "UNAUTHENTICATED",
			apiErr.Status == "PERMISSION_DENIED":
			return entity.ErrInvalidCredential
		default:
			return fmt.Errorf("%w: HTTP %d: %s", entity.ErrUpstream, httpErr.StatusCode, apiErr.Message)
		}
	}

	var netErr *pkghttp.NetworkError
	if errors.As(err, &netErr) {
		return fmt.Errorf("%w: %v", entity.ErrUpstream, netErr)
	}

	return fmt.Errorf("%w: %v", entity.ErrUpstream, err)
}
