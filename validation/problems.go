package validation

import (
	"strings"

	"github.com/kbukum/streamkit/errors"
)

// FieldError is one problem with one field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (f FieldError) String() string { return f.Field + ": " + f.Message }

// Problems lists field errors in the order they were found.
type Problems []FieldError

// Err returns nil for no problems, otherwise a VALIDATION_ERROR AppError
// whose "fields" detail holds the problems.
func (p Problems) Err() error {
	if len(p) == 0 {
		return nil
	}
	msgs := make([]string, len(p))
	for i, f := range p {
		msgs[i] = f.String()
	}
	return errors.Validation(strings.Join(msgs, "; ")).WithDetail("fields", []FieldError(p))
}
