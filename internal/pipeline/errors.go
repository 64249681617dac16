package pipeline

import "fmt"

// PayloadTooLargeError is returned when an upload or text exceeds the
// configured ceiling. No extraction or completion call is attempted.
type PayloadTooLargeError struct {
	Size  int
	Limit int
}

func (e *PayloadTooLargeError) Error() string {
	return fmt.Sprintf("input of %d bytes exceeds the %d byte limit", e.Size, e.Limit)
}

// CompletionUnavailableError wraps any failure of the completion call:
// transport, authentication, quota, timeout or cancellation.
type CompletionUnavailableError struct {
	Cause error
}

func (e *CompletionUnavailableError) Error() string {
	return fmt.Sprintf("completion service unavailable: %v", e.Cause)
}

func (e *CompletionUnavailableError) Unwrap() error {
	return e.Cause
}
