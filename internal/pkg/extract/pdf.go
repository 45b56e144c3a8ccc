package extract

import (
	"bytes"
	"fmt"
	"io"

	"github.com/futig/urlchat-backend/internal/entity"
	"github.com/ledongthuc/pdf"
)

// extractPDF pulls plain text out of a PDF. The parser panics on some
// malformed files, so the recover converts those into a read failure.
func extractPDF(data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("%w: parse pdf: %v", entity.ErrReadFailure, r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: parse pdf: %v", entity.ErrReadFailure, err)
	}

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("%w: extract pdf text: %v", entity.ErrReadFailure, err)
	}

	raw, err := io.ReadAll(plain)
	if err != nil {
		return "", fmt.Errorf("%w: read pdf text: %v", entity.ErrReadFailure, err)
	}

	return string(raw), nil
}
