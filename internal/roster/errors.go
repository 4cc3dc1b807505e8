package roster

import (
	"errors"
	"strings"
)

var (
	ErrNotFound          = errors.New("student not found")
	ErrRollNumberExists  = errors.New("a student with this roll number already exists")
	errValidationMessage = "invalid student"
)

// FieldError is used to indicate an error with a specific field.
type FieldError struct {
	Field string `json:"field"`
	Error string `json:"error"`
}

// ValidationError lists every field that failed validation.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Error)
	}
	if len(parts) == 0 {
		return errValidationMessage
	}
	return errValidationMessage + ": " + strings.Join(parts, ", ")
}
