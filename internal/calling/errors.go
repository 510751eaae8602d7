package calling

import "fmt"

// Error represents a failed call-initiation attempt.
type Error struct {
	URL        string
	StatusCode int
	Message    string
	Cause      error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("call initiation via %s: %s: %v", e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("call initiation via %s: %s", e.URL, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}
