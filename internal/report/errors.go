package report

import "fmt"

// InputError represents an unreadable or malformed contact file.
type InputError struct {
	Path    string
	Message string
	Cause   error
}

func (e *InputError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("input error for %s: %s: %v", e.Path, e.Message, e.Cause)
	}
	return fmt.Sprintf("input error for %s: %s", e.Path, e.Message)
}

func (e *InputError) Unwrap() error {
	return e.Cause
}
