package config

import (
	"fmt"
	"strings"
)

// ValidationError lists every configuration field that failed a check.
type ValidationError struct {
	Fields []FieldError
}

// FieldError is a single invalid configuration value.
type FieldError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, fmt.Sprintf("'%s' %s", f.Field, f.Message))
	}
	return "config error: " + strings.Join(parts, "; ")
}
