package entity

// Gateway-level request/response for the generation backend.

// GenerateRequest is a single grounded generation call. URLs may be empty,
// in which case no grounding tool is requested. LocalContext, when present,
// is appended verbatim to the outbound prompt in a delimited block.
type GenerateRequest struct {
	Query        string
	URLs         []string
	LocalContext string
}

// GenerateResult carries the answer text and, when the backend attempted to
// fetch grounding URLs, the per-URL retrieval outcomes. Absent metadata is
// valid and not an error.
type GenerateResult struct {
	Text        string
	URLMetadata []URLMetadata
}

// Wire types of the generateContent REST API.

type GeminiGenerateRequest struct {
	Contents         []GeminiContent         `json:"contents"`
	Tools            []GeminiTool            `json:"tools,omitempty"`
	GenerationConfig *GeminiGenerationConfig `json:"generationConfig,omitempty"`
	SafetySettings   []GeminiSafetySetting   `json:"safetySettings,omitempty"`
}

type GeminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []GeminiPart `json:"parts"`
}

type GeminiPart struct {
	Text string `json:"text"`
}

// GeminiTool enables the url_context grounding capability. The tool takes no
// parameters; the URL list travels inside the prompt text.
type GeminiTool struct {
	URLContext *GeminiURLContext `json:"url_context,omitempty"`
}

type GeminiURLContext struct{}

type GeminiGenerationConfig struct {
	ResponseMIMEType string `json:"responseMimeType,omitempty"`
}

type GeminiSafetySetting struct {
	Category  string `json:"category"`
	Threshold string `json:"threshold"`
}

type GeminiGenerateResponse struct {
	Candidates []GeminiCandidate `json:"candidates"`
}

type GeminiCandidate struct {
	Content            *GeminiContent            `json:"content,omitempty"`
	FinishReason       string                    `json:"finishReason,omitempty"`
	URLContextMetadata *GeminiURLContextMetadata `json:"urlContextMetadata,omitempty"`
}

type GeminiURLContextMetadata struct {
	URLMetadata []GeminiURLMetadata `json:"urlMetadata"`
}

type GeminiURLMetadata struct {
	RetrievedURL       string `json:"retrievedUrl"`
	URLRetrievalStatus string `json:"urlRetrievalStatus"`
}

type GeminiErrorResponse struct {
	Error GeminiError `json:"error"`
}

type GeminiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}
