package formatter

import (
	"fmt"

	"github.com/futig/urlchat-backend/internal/entity"
)

const baseTitle = "Chat transcript"

type ExportFormat string

const (
	FormatMarkdown ExportFormat = "md"
	FormatDOCX     ExportFormat = "docx"
	FormatPDF      ExportFormat = "pdf"
)

// Formatter renders a conversation transcript into an exportable document.
type Formatter interface {
	Format(messages []*entity.ChatMessage) ([]byte, error)
	ContentType() string
	FileExtension() string
}

type Factory struct{}

func NewFactory() *Factory {
	return &Factory{}
}

func (f *Factory) Create(format ExportFormat) (Formatter, error) {
	switch format {
	case FormatMarkdown:
		return NewMarkdownFormatter(), nil
	case FormatDOCX:
		return NewDOCXFormatter(), nil
	case FormatPDF:
		return NewPDFFormatter(), nil
	default:
		return nil, fmt.Errorf("%w: unsupported export format %q", entity.ErrInvalidParameter, format)
	}
}

func senderLabel(sender entity.Sender) string {
	switch sender {
	case entity.SenderUser:
		return "You"
	case entity.SenderModel:
		return "Assistant"
	default:
		return "System"
	}
}
