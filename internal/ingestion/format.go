package ingestion

import (
	"path/filepath"
	"strings"
)

// Format is the declared document format of an uploaded CV.
type Format string

// Supported document formats.
const (
	FormatPDF  Format = "pdf"
	FormatDOCX Format = "docx"
	FormatDOC  Format = "doc"
	FormatTXT  Format = "txt"
)

// SupportedFormats is the extension allow-list, in display order.
var SupportedFormats = []Format{FormatPDF, FormatDOCX, FormatDOC, FormatTXT}

// ContentType returns the MIME type stored alongside an uploaded file.
func (f Format) ContentType() string {
	switch f {
	case FormatPDF:
		return "application/pdf"
	case FormatDOCX:
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case FormatDOC:
		return "application/msword"
	case FormatTXT:
		return "text/plain; charset=utf-8"
	default:
		return "application/octet-stream"
	}
}

// FormatFromFilename derives the declared format from a filename extension.
// Matching is case-insensitive; anything outside SupportedFormats is rejected.
func FormatFromFilename(filename string) (Format, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	for _, f := range SupportedFormats {
		if ext == string(f) {
			return f, nil
		}
	}
	return "", &UnsupportedFormatError{Filename: filename, Extension: ext}
}
