package ingestion

import (
	"fmt"
	"strings"
)

// UnsupportedFormatError is returned when a filename extension is not on the allow-list.
type UnsupportedFormatError struct {
	Filename  string
	Extension string
}

func (e *UnsupportedFormatError) Error() string {
	allowed := make([]string, len(SupportedFormats))
	for i, f := range SupportedFormats {
		allowed[i] = "." + string(f)
	}
	if e.Extension == "" {
		return fmt.Sprintf("unsupported format: %q has no file extension (allowed: %s)", e.Filename, strings.Join(allowed, ", "))
	}
	return fmt.Sprintf("unsupported format: .%s (allowed: %s)", e.Extension, strings.Join(allowed, ", "))
}

// UnreadableDocumentError is returned when bytes cannot be decoded as their declared format.
type UnreadableDocumentError struct {
	Format Format
	Cause  error
}

func (e *UnreadableDocumentError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("unreadable %s document: %v", e.Format, e.Cause)
	}
	return fmt.Sprintf("unreadable %s document", e.Format)
}

func (e *UnreadableDocumentError) Unwrap() error {
	return e.Cause
}
