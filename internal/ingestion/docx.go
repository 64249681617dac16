package ingestion

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

const (
	wordMLNamespace  = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
	markupCompatNS   = "http://schemas.openxmlformats.org/markup-compatibility/2006"
	docxMainPart     = "word/document.xml"
	maxDocxPartBytes = 64 << 20
)

var zipMagic = []byte("PK\x03\x04")

func extractDOCX(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("not a valid DOCX archive: %w", err)
	}

	var part *zip.File
	for _, f := range zr.File {
		if f.Name == docxMainPart {
			part = f
			break
		}
	}
	if part == nil {
		return "", errors.New("archive has no " + docxMainPart)
	}

	rc, err := part.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", docxMainPart, err)
	}
	defer func() { _ = rc.Close() }()

	return wordMLParagraphs(io.LimitReader(rc, maxDocxPartBytes))
}

// wordMLParagraphs walks WordprocessingML and emits one line per w:p in
// document order. Paragraphs nested in text boxes are emitted before the
// paragraph that anchors them; mc:Fallback duplicates are skipped.
func wordMLParagraphs(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)

	var (
		paragraphs  []string
		stack       []*strings.Builder
		inText      bool
		sawDocument bool
	)
	write := func(s string) {
		if len(stack) > 0 {
			stack[len(stack)-1].WriteString(s)
		}
	}

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("malformed document XML: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Space == markupCompatNS && t.Name.Local == "Fallback" {
				if err := dec.Skip(); err != nil {
					return "", fmt.Errorf("malformed document XML: %w", err)
				}
				continue
			}
			if t.Name.Space != wordMLNamespace {
				continue
			}
			switch t.Name.Local {
			case "document":
				sawDocument = true
			case "p":
				stack = append(stack, &strings.Builder{})
			case "t":
				inText = true
			case "tab":
				write("\t")
			case "br", "cr":
				write("\n")
			}
		case xml.EndElement:
			if t.Name.Space != wordMLNamespace {
				continue
			}
			switch t.Name.Local {
			case "p":
				if len(stack) > 0 {
					paragraphs = append(paragraphs, stack[len(stack)-1].String())
					stack = stack[:len(stack)-1]
				}
			case "t":
				inText = false
			}
		case xml.CharData:
			if inText {
				write(string(t))
			}
		}
	}

	if !sawDocument {
		return "", errors.New("missing w:document root element")
	}
	return strings.Join(paragraphs, "\n"), nil
}
