package formatter

import (
	"bytes"
	"fmt"

	"github.com/futig/urlchat-backend/internal/entity"
	"github.com/unidoc/unioffice/document"
)

const (
	docxContentType   = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	docxFileExtension = ".docx"
)

type DOCXFormatter struct{}

func NewDOCXFormatter() *DOCXFormatter {
	return &DOCXFormatter{}
}

func (df *DOCXFormatter) Format(messages []*entity.ChatMessage) ([]byte, error) {
	doc := document.New()
	defer doc.Close()

	titlePar := doc.AddParagraph()
	titlePar.SetStyle("Heading1")
	titleRun := titlePar.AddRun()
	titleRun.AddText(baseTitle)

	for _, msg := range messages {
		doc.AddParagraph()

		headPar := doc.AddParagraph()
		headRun := headPar.AddRun()
		headRun.Properties().SetBold(true)
		headRun.AddText(fmt.Sprintf("%s (%s)", senderLabel(msg.Sender), msg.CreatedAt.Format("2006-01-02 15:04")))

		bodyPar := doc.AddParagraph()
		bodyRun := bodyPar.AddRun()
		bodyRun.AddText(msg.Text)

		for _, meta := range msg.URLMetadata {
			metaPar := doc.AddParagraph()
			metaRun := metaPar.AddRun()
			metaRun.Properties().SetItalic(true)
			metaRun.AddText(fmt.Sprintf("%s — %s", meta.RetrievedURL, meta.RetrievalStatus))
		}
	}

	var buf bytes.Buffer
	if err := doc.Save(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (df *DOCXFormatter) ContentType() string {
	return docxContentType
}

func (df *DOCXFormatter) FileExtension() string {
	return docxFileExtension
}
