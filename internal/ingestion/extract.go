// Package ingestion turns uploaded CV bytes into plain text.
package ingestion

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"unicode/utf8"
)

// Document is an uploaded file together with its declared format.
type Document struct {
	Filename string
	Format   Format
	Data     []byte
}

// NewDocument validates the filename extension and wraps the bytes.
func NewDocument(filename string, data []byte) (*Document, error) {
	format, err := FormatFromFilename(filename)
	if err != nil {
		return nil, err
	}
	return &Document{Filename: filename, Format: format, Data: data}, nil
}

// ReadFile loads a document from disk, rejecting unsupported extensions before reading.
func ReadFile(path string) (*Document, error) {
	format, err := FormatFromFilename(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("file not found: %w", err)
		}
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return &Document{Filename: path, Format: format, Data: data}, nil
}

// Extract decodes data according to its declared format and returns the
// normalized plain text. Any decode failure is an *UnreadableDocumentError.
func Extract(ctx context.Context, data []byte, format Format) (string, error) {
	var (
		text string
		err  error
	)
	switch format {
	case FormatPDF:
		text, err = extractPDF(ctx, data)
	case FormatDOCX:
		text, err = extractDOCX(data)
	case FormatDOC:
		text, err = extractDOC(data)
	case FormatTXT:
		text, err = extractTXT(data)
	default:
		return "", &UnsupportedFormatError{Extension: string(format)}
	}
	if err != nil {
		return "", &UnreadableDocumentError{Format: format, Cause: err}
	}
	return CleanText(text), nil
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

func extractTXT(data []byte) (string, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if !utf8.Valid(data) {
		return "", errors.New("invalid UTF-8 byte sequence")
	}
	return string(data), nil
}
