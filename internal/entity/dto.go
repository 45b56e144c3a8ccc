package entity

import "time"

// HTTP request bodies

type CreateGroupRequest struct {
	Name string `json:"name"`
}

type AddURLRequest struct {
	URL string `json:"url"`
}

type RemoveURLRequest struct {
	URL string `json:"url"`
}

type AskRequest struct {
	Query string `json:"query"`
}

// HTTP response bodies

type GroupDTO struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	URLs   []string `json:"urls"`
	Active bool     `json:"active"`
}

type MessageDTO struct {
	ID          string        `json:"id"`
	Text        string        `json:"text"`
	Sender      Sender        `json:"sender"`
	IsLoading   bool          `json:"is_loading"`
	URLMetadata []URLMetadata `json:"url_context_metadata,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
}

// ContextDTO summarizes the attached local context without echoing its
// content back to the client.
type ContextDTO struct {
	Type      ContextType `json:"type"`
	Name      string      `json:"name"`
	FileCount int         `json:"file_count"`
	Chars     int         `json:"chars"`
	Truncated bool        `json:"truncated"`
}

// AttachFolderResponse reports how many eligible files made it under the
// context budget.
type AttachFolderResponse struct {
	Context       ContextDTO `json:"context"`
	IncludedCount int        `json:"included_count"`
	EligibleCount int        `json:"eligible_count"`
	SkippedCount  int        `json:"skipped_count"`
}

type SuggestionsResponse struct {
	Suggestions []string `json:"suggestions"`
}
