package entity

import (
	"fmt"
	"time"
)

// Hard limits of the chat pipeline. MaxContextChars is the total character
// budget of local context merged into a single request; MaxURLsPerGroup is
// the cap on grounding URLs per group.
const (
	MaxContextChars = 1_000_000
	MaxURLsPerGroup = 50
	MaxSuggestions  = 4
)

type Sender string

const (
	SenderUser   Sender = "user"
	SenderModel  Sender = "model"
	SenderSystem Sender = "system"
)

func (s *Sender) Validate() error {
	switch *s {
	case SenderUser, SenderModel, SenderSystem:
		return nil
	default:
		return fmt.Errorf("unknown sender: %s", *s)
	}
}

type ContextType string

const (
	ContextTypeFile   ContextType = "FILE"
	ContextTypeFolder ContextType = "FOLDER"
)

// URLGroup is a named, ordered set of grounding URLs. Exactly one group is
// active at a time; the active group's URLs are sent with every ask.
type URLGroup struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	URLs      []string  `json:"urls"`
	Active    bool      `json:"active"`
	Position  int       `json:"position"`
	CreatedAt time.Time `json:"created_at"`
}

// URLMetadata is the per-URL retrieval outcome reported by the generation
// backend when grounding was requested.
type URLMetadata struct {
	RetrievedURL    string `json:"retrieved_url"`
	RetrievalStatus string `json:"retrieval_status"`
}

// ChatMessage is one entry of the append-only conversation log. A message
// may be created pending (IsLoading) and later resolved in place by ID; that
// is the only permitted mutation.
type ChatMessage struct {
	ID          string        `json:"id"`
	Text        string        `json:"text"`
	Sender      Sender        `json:"sender"`
	IsLoading   bool          `json:"is_loading"`
	URLMetadata []URLMetadata `json:"url_context_metadata,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
}

// LocalContext is the text attached from a local file or folder. At most one
// exists at a time; Content is already budget-truncated, so
// len(Content) <= MaxContextChars always holds.
type LocalContext struct {
	Type      ContextType `json:"type"`
	Name      string      `json:"name"`
	Content   string      `json:"content"`
	FileCount int         `json:"file_count"`
	Truncated bool        `json:"truncated"`
	CreatedAt time.Time   `json:"created_at"`
}
