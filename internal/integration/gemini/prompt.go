package gemini

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/futig/urlchat-backend/internal/entity"
	pkghttp "github.com/futig/urlchat-backend/pkg/http"
)

// ComposePrompt builds the outbound prompt: the user query, the fixed
// answer-language instruction, the grounding URL list, and the local-context
// block appended verbatim between delimiters when present.
func ComposePrompt(req *entity.GenerateRequest, language string) string {
	var sb strings.Builder

	sb.WriteString(req.Query)
	fmt.Fprintf(&sb, "\n\nPlease answer in %s.", language)

	if len(req.URLs) > 0 {
		sb.WriteString("\n\nGround your answer in the following sources:\n")
		for _, u := range req.URLs {
			sb.WriteString("- ")
			sb.WriteString(u)
			sb.WriteString("\n")
		}
	}

	if req.LocalContext != "" {
		sb.WriteString("\n\n--- Local context ---\n")
		sb.WriteString(req.LocalContext)
		sb.WriteString("\n--- End of local context ---")
	}

	return sb.String()
}

func suggestionPrompt(urls []string) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Propose %d short example questions a reader might ask about the content of these pages:\n", entity.MaxSuggestions)
	for _, u := range urls {
		sb.WriteString("- ")
		sb.WriteString(u)
		sb.WriteString("\n")
	}
	sb.WriteString(`Respond with JSON of the shape {"suggestions": ["question", ...]} and nothing else.`)

	return sb.String()
}

// ParseSuggestions decodes the suggestion response. The raw text may be
// wrapped in a markdown code fence; both the documented object shape and a
// bare string array are accepted. The result is capped at MaxSuggestions.
func ParseSuggestions(raw string) ([]string, error) {
	trimmed := TrimCodeFence(raw)

	var wrapped struct {
		Suggestions []string `json:"suggestions"`
	}
	if err := json.Unmarshal([]byte(trimmed), &wrapped); err == nil && wrapped.Suggestions != nil {
		return capSuggestions(wrapped.Suggestions), nil
	}

	var bare []string
	if err := json.Unmarshal([]byte(trimmed), &bare); err == nil {
		return capSuggestions(bare), nil
	}

	return nil, fmt.Errorf("%w: %q", entity.ErrSuggestionParse, trimmed)
}

func capSuggestions(suggestions []string) []string {
	out := make([]string, 0, entity.MaxSuggestions)
	for _, s := range suggestions {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		out = append(out, s)
		if len(out) == entity.MaxSuggestions {
			break
		}
	}
	return out
}

// TrimCodeFence strips an optional ``` or ```json fence around a response.
func TrimCodeFence(raw string) string {
	trimmed := strings.TrimSpace(raw)

	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}

	trimmed = strings.TrimPrefix(trimmed, "```")
	if idx := strings.Index(trimmed, "\n"); idx >= 0 {
		// Drop the language tag on the opening fence line, if any.
		firstLine := strings.TrimSpace(trimmed[:idx])
		if firstLine == "" || !strings.ContainsAny(firstLine, "{}[]") {
			trimmed = trimmed[idx+1:]
		}
	}

	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}

func decodeAPIError(httpErr *pkghttp.HTTPError) entity.GeminiError {
	var apiResp entity.GeminiErrorResponse
	if err := json.Unmarshal(httpErr.Body, &apiResp); err != nil || apiResp.Error.Message == "" {
		return entity.GeminiError{
			Code:    httpErr.StatusCode,
			Message: string(httpErr.Body),
		}
	}
	return apiResp.Error
}
