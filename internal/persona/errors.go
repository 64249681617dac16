package persona

import "fmt"

// InvalidSalaryRangeError is returned when salary_min exceeds salary_max.
type InvalidSalaryRangeError struct {
	Min int
	Max int
}

func (e *InvalidSalaryRangeError) Error() string {
	return fmt.Sprintf("salary_min (%d) must not exceed salary_max (%d)", e.Min, e.Max)
}

// ValidationError reports a request payload that cannot be applied.
type ValidationError struct {
	Message string
	Cause   error
}

func (e *ValidationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return e.Cause
}
