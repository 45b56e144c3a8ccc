package validator

import (
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/futig/urlchat-backend/internal/config"
	"github.com/futig/urlchat-backend/internal/entity"
	"github.com/futig/urlchat-backend/internal/pkg/extract"
)

// Validator validates incoming requests and file uploads
type Validator struct {
	cfg config.FileUploadConfig
}

func NewValidator(cfg config.FileUploadConfig) *Validator {
	return &Validator{cfg: cfg}
}

// ValidateSingleUpload validates a single-file context attach. Unsupported
// types are rejected outright; the folder path instead silently skips them.
func (v *Validator) ValidateSingleUpload(fh *multipart.FileHeader) error {
	if fh == nil {
		return fmt.Errorf("%w: file", entity.ErrMissingField)
	}

	if !extract.Supported(fh.Filename) {
		ext := strings.ToLower(filepath.Ext(fh.Filename))
		return fmt.Errorf("%w: %s", entity.ErrUnsupportedType, ext)
	}

	if fh.Size == 0 {
		return fmt.Errorf("%w: %s", entity.ErrEmptyFile, fh.Filename)
	}

	if fh.Size > v.cfg.MaxFileSize {
		return fmt.Errorf("%w: file '%s' is %d bytes (max %d)", entity.ErrInvalidParameter, fh.Filename, fh.Size, v.cfg.MaxFileSize)
	}

	return nil
}

// ValidateFolderUpload validates a folder attach. Per-file eligibility is
// decided later by the aggregator; only batch-level limits apply here.
func (v *Validator) ValidateFolderUpload(files []*multipart.FileHeader) error {
	if len(files) == 0 {
		return fmt.Errorf("%w: files", entity.ErrMissingField)
	}

	if len(files) > v.cfg.MaxFileCount {
		return fmt.Errorf("%w: maximum %d files allowed, got %d", entity.ErrInvalidParameter, v.cfg.MaxFileCount, len(files))
	}

	for _, fh := range files {
		if fh.Size > v.cfg.MaxFileSize {
			return fmt.Errorf("%w: file '%s' is %d bytes (max %d)", entity.ErrInvalidParameter, fh.Filename, fh.Size, v.cfg.MaxFileSize)
		}
	}

	return nil
}

// SanitizeFilename sanitizes a filename for safe reporting
func SanitizeFilename(filename string) string {
	filename = filepath.Base(filename)
	replacer := strings.NewReplacer(
		" ", "_",
		"(", "",
		")", "",
		"[", "",
		"]", "",
		"{", "",
		"}", "",
	)
	return replacer.Replace(filename)
}
