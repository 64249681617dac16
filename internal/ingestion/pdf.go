package ingestion

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino-ext/components/document/parser/pdf"
)

var pdfMagic = []byte("%PDF-")

// extractPDF returns per-page text joined by newlines in page order. Pages
// without a text layer contribute an empty segment.
func extractPDF(ctx context.Context, data []byte) (text string, err error) {
	if !bytes.HasPrefix(bytes.TrimLeft(data, "\x00\t\r\n "), pdfMagic) {
		return "", errors.New("missing %PDF- header")
	}

	// The underlying reader panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("pdf decoder panic: %v", r)
		}
	}()

	parser, err := pdf.NewPDFParser(ctx, &pdf.Config{ToPages: true})
	if err != nil {
		return "", fmt.Errorf("failed to create PDF parser: %w", err)
	}

	docs, err := parser.Parse(ctx, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}

	pages := make([]string, 0, len(docs))
	for _, doc := range docs {
		if doc == nil {
			pages = append(pages, "")
			continue
		}
		pages = append(pages, strings.TrimRight(doc.Content, " \n"))
	}
	return strings.Join(pages, "\n"), nil
}
