package extract

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/futig/urlchat-backend/internal/entity"
)

// AllowedExtensions is the whitelist of extractable file types. Two of them
// route to binary-document parsers; the rest are decoded as plain text.
var AllowedExtensions = map[string]bool{
	".js":   true,
	".jsx":  true,
	".ts":   true,
	".tsx":  true,
	".py":   true,
	".html": true,
	".css":  true,
	".scss": true,
	".md":   true,
	".json": true,
	".txt":  true,
	".csv":  true,
	".yaml": true,
	".yml":  true,
	".docx": true,
	".pdf":  true,
}

// Supported reports whether the filename's extension is extractable.
func Supported(filename string) bool {
	return AllowedExtensions[strings.ToLower(filepath.Ext(filename))]
}

// Extract produces plain text from a file's raw bytes, dispatching on the
// lower-cased extension. Size limits are not enforced here; the aggregator
// owns the budget.
func Extract(filename string, data []byte) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !AllowedExtensions[ext] {
		return "", fmt.Errorf("%w: %s", entity.ErrUnsupportedType, ext)
	}

	switch ext {
	case ".docx":
		return extractDOCX(data)
	case ".pdf":
		return extractPDF(data)
	default:
		return extractPlainText(filename, data)
	}
}

func extractPlainText(filename string, data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", fmt.Errorf("%w: %s is not valid UTF-8", entity.ErrReadFailure, filename)
	}
	return string(data), nil
}
