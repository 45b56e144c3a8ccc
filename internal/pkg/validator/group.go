package validator

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/futig/urlchat-backend/internal/entity"
)

// ValidateCreateGroup validates CreateGroupRequest
func (v *Validator) ValidateCreateGroup(req *entity.CreateGroupRequest) error {
	if strings.TrimSpace(req.Name) == "" {
		return fmt.Errorf("%w: name", entity.ErrMissingField)
	}

	return nil
}

// ValidateURL validates a grounding URL before it enters a group
func (v *Validator) ValidateURL(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return fmt.Errorf("%w: url", entity.ErrMissingField)
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", entity.ErrInvalidFormat, err)
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("%w: url scheme must be http or https, got %q", entity.ErrInvalidFormat, parsed.Scheme)
	}

	if parsed.Host == "" {
		return fmt.Errorf("%w: url has no host", entity.ErrInvalidFormat)
	}

	return nil
}

// ValidateAsk validates AskRequest
func (v *Validator) ValidateAsk(req *entity.AskRequest) error {
	if strings.TrimSpace(req.Query) == "" {
		return entity.ErrBlankQuery
	}

	return nil
}
