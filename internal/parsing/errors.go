package parsing

import (
	"fmt"
	"strings"
)

// MalformedResponseError is returned when the model reply is not a JSON
// object after code fences are removed. Raw holds the untouched reply.
type MalformedResponseError struct {
	Raw   string
	Cause error
}

func (e *MalformedResponseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("malformed model response: %v", e.Cause)
	}
	return "malformed model response"
}

func (e *MalformedResponseError) Unwrap() error {
	return e.Cause
}

// IncompleteExtractionError is returned when the reply parses but a required
// field is missing, blank or of the wrong type.
type IncompleteExtractionError struct {
	Missing []string
	Raw     string
}

func (e *IncompleteExtractionError) Error() string {
	return fmt.Sprintf("incomplete extraction: missing required field(s) %s", strings.Join(e.Missing, ", "))
}
