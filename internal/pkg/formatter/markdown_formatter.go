package formatter

import (
	"bytes"
	"fmt"

	"github.com/futig/urlchat-backend/internal/entity"
)

const (
	markdownContentType   = "text/markdown; charset=utf-8"
	markdownFileExtension = ".md"
)

type MarkdownFormatter struct{}

func NewMarkdownFormatter() *MarkdownFormatter {
	return &MarkdownFormatter{}
}

func (mf *MarkdownFormatter) Format(messages []*entity.ChatMessage) ([]byte, error) {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "# %s\n", baseTitle)

	for _, msg := range messages {
		fmt.Fprintf(&buf, "\n**%s** (%s)\n\n%s\n", senderLabel(msg.Sender), msg.CreatedAt.Format("2006-01-02 15:04"), msg.Text)

		for _, meta := range msg.URLMetadata {
			fmt.Fprintf(&buf, "\n- %s — %s", meta.RetrievedURL, meta.RetrievalStatus)
		}
		if len(msg.URLMetadata) > 0 {
			buf.WriteString("\n")
		}
	}

	return buf.Bytes(), nil
}

func (mf *MarkdownFormatter) ContentType() string {
	return markdownContentType
}

func (mf *MarkdownFormatter) FileExtension() string {
	return markdownFileExtension
}
