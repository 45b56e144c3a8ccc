package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/futig/urlchat-backend/internal/entity"
	"github.com/unidoc/unioffice/document"
)

func extractDOCX(data []byte) (string, error) {
	doc, err := document.Read(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: parse docx: %v", entity.ErrReadFailure, err)
	}
	defer doc.Close()

	var sb strings.Builder
	for _, para := range doc.Paragraphs() {
		for _, run := range para.Runs() {
			sb.WriteString(run.Text())
		}
		sb.WriteString("\n")
	}

	return sb.String(), nil
}
