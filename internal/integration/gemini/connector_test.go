package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/futig/urlchat-backend/internal/config"
	"github.com/futig/urlchat-backend/internal/entity"
	"go.uber.org/zap"
)

func testConfig(serverURL, apiKey string) config.GeminiConnectorConfig {
	return config.GeminiConnectorConfig{
		HTTPClientConfig: config.HTTPClientConfig{
			Url:                   serverURL,
			RequestTimeout:        5 * time.Second,
			ConnTimeout:           5 * time.Second,
			KeepAlive:             5 * time.Second,
			IdleConnTimeout:       5 * time.Second,
			ResponseHeaderTimeout: 5 * time.Second,
		},
		APIKey:         apiKey,
		Model:          "gemini-2.5-flash",
		AnswerLanguage: "English",
	}
}

func answerResponse(text string) entity.GeminiGenerateResponse {
	return entity.GeminiGenerateResponse{
		Candidates: []entity.GeminiCandidate{
			{Content: &entity.GeminiContent{Parts: []entity.GeminiPart{{Text: text}}}},
		},
	}
}

func TestGenerate_GroundingToolWithoutJSONMode(t *testing.T) {
	var captured entity.GeminiGenerateRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(answerResponse("grounded answer"))
	}))
	defer server.Close()

	conn := NewConnector(testConfig(server.URL, "test-key"), zap.NewNop())

	result, err := conn.Generate(context.Background(), &entity.GenerateRequest{
		Query: "what is this about?",
		URLs:  []string{"https://example.com/a", "https://example.com/b"},
	})
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if result.Text != "grounded answer" {
		t.Fatalf("Text = %q, want %q", result.Text, "grounded answer")
	}

	if len(captured.Tools) != 1 || captured.Tools[0].URLContext == nil {
		t.Fatalf("expected url_context tool in request, got %+v", captured.Tools)
	}
	// Grounding and JSON response mode are mutually exclusive upstream.
	if captured.GenerationConfig != nil && captured.GenerationConfig.ResponseMIMEType != "" {
		t.Fatalf("grounded request must not set JSON response mode, got %+v", captured.GenerationConfig)
	}
}

func TestGenerate_NoToolWithoutURLs(t *testing.T) {
	var captured entity.GeminiGenerateRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&captured)
		json.NewEncoder(w).Encode(answerResponse("plain answer"))
	}))
	defer server.Close()

	conn := NewConnector(testConfig(server.URL, "test-key"), zap.NewNop())

	if _, err := conn.Generate(context.Background(), &entity.GenerateRequest{Query: "hi"}); err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}

	if len(captured.Tools) != 0 {
		t.Fatalf("expected no tools without URLs, got %+v", captured.Tools)
	}
}

func TestGenerate_ReturnsURLMetadata(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := answerResponse("answer")
		resp.Candidates[0].URLContextMetadata = &entity.GeminiURLContextMetadata{
			URLMetadata: []entity.GeminiURLMetadata{
				{RetrievedURL: "https://example.com", URLRetrievalStatus: "URL_RETRIEVAL_STATUS_SUCCESS"},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	conn := NewConnector(testConfig(server.URL, "test-key"), zap.NewNop())

	result, err := conn.Generate(context.Background(), &entity.GenerateRequest{
		Query: "q",
		URLs:  []string{"https://example.com"},
	})
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if len(result.URLMetadata) != 1 || result.URLMetadata[0].RetrievedURL != "https://example.com" {
		t.Fatalf("URLMetadata = %+v, want one entry for example.com", result.URLMetadata)
	}
}

func TestGenerate_MissingCredentialNeverCallsNetwork(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer server.Close()

	conn := NewConnector(testConfig(server.URL, ""), zap.NewNop())

	_, err := conn.Generate(context.Background(), &entity.GenerateRequest{Query: "q"})
	if !errors.Is(err, entity.ErrMissingCredential) {
		t.Fatalf("error = %v, want ErrMissingCredential", err)
	}
	if calls != 0 {
		t.Fatalf("network was called %d times, want 0", calls)
	}
}

func TestGenerate_UpstreamErrorClassification(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{
			name:   "quota exceeded",
			status: http.StatusTooManyRequests,
			body:   `{"error":{"code":429,"message":"quota","status":"RESOURCE_EXHAUSTED"}}`,
			want:   entity.ErrQuotaExceeded,
		},
		{
			name:   "invalid credential forbidden",
			status: http.StatusForbidden,
			body:   `{"error":{"code":403,"message":"key not valid","status":"PERMISSION_DENIED"}}`,
			want:   entity.ErrInvalidCredential,
		},
		{
			name:   "invalid credential unauthenticated",
			status: http.StatusUnauthorized,
			body:   `{"error":{"code":401,"message":"unauthenticated","status":"UNAUTHENTICATED"}}`,
			want:   entity.ErrInvalidCredential,
		},
		{
			name:   "generic upstream failure",
			status: http.StatusInternalServerError,
			body:   `{"error":{"code":500,"message":"boom","status":"INTERNAL"}}`,
			want:   entity.ErrUpstream,
		},
		{
			name:   "non-json error body",
			status: http.StatusBadGateway,
			body:   `upstream exploded`,
			want:   entity.ErrUpstream,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				w.Write([]byte(tc.body))
			}))
			defer server.Close()

			conn := NewConnector(testConfig(server.URL, "test-key"), zap.NewNop())

			_, err := conn.Generate(context.Background(), &entity.GenerateRequest{Query: "q"})
			if !errors.Is(err, tc.want) {
				t.Fatalf("error = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestSuggestTopics_JSONModeWithoutGrounding(t *testing.T) {
	var captured entity.GeminiGenerateRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&captured)
		json.NewEncoder(w).Encode(answerResponse(`{"suggestions":["a","b"]}`))
	}))
	defer server.Close()

	conn := NewConnector(testConfig(server.URL, "test-key"), zap.NewNop())

	got, err := conn.SuggestTopics(context.Background(), []string{"https://example.com"})
	if err != nil {
		t.Fatalf("SuggestTopics returned error: %v", err)
	}
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("suggestions = %v, want [a b]", got)
	}

	if captured.GenerationConfig == nil || captured.GenerationConfig.ResponseMIMEType != "application/json" {
		t.Fatalf("expected JSON response mode, got %+v", captured.GenerationConfig)
	}
	if len(captured.Tools) != 0 {
		t.Fatalf("suggestion request must not carry a grounding tool, got %+v", captured.Tools)
	}
}

func TestSuggestTopics_EmptyURLListSkipsNetwork(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer server.Close()

	conn := NewConnector(testConfig(server.URL, "test-key"), zap.NewNop())

	got, err := conn.SuggestTopics(context.Background(), nil)
	if err != nil {
		t.Fatalf("SuggestTopics returned error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("suggestions = %v, want empty", got)
	}
	if calls != 0 {
		t.Fatalf("network was called %d times, want 0", calls)
	}
}
