package validation

import (
	"fmt"
	"slices"
	"strings"
)

// Checker collects problems from a chain of checks.
//
//	err := validation.New().
//		NotBlank("binary", cmd.Binary).
//		AtLeast("buffer_size", cmd.BufferSize, 0).
//		Err()
type Checker struct {
	problems Problems
}

// New returns an empty Checker.
func New() *Checker { return &Checker{} }

// Check records a problem for field unless ok.
func (c *Checker) Check(ok bool, field, format string, args ...any) *Checker {
	if !ok {
		c.problems = append(c.problems, FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
	}
	return c
}

// NotBlank requires a value with at least one non-space character.
func (c *Checker) NotBlank(field, value string) *Checker {
	return c.Check(strings.TrimSpace(value) != "", field, "is required")
}

// AtLeast requires value >= lo.
func (c *Checker) AtLeast(field string, value, lo int) *Checker {
	return c.Check(value >= lo, field, "must be at least %d (got: %d)", lo, value)
}

// Between requires lo <= value <= hi.
func (c *Checker) Between(field string, value, lo, hi int) *Checker {
	return c.Check(value >= lo && value <= hi, field, "must be between %d and %d (got: %d)", lo, hi, value)
}

// In requires value to be one of allowed. An empty value passes; pair it
// with NotBlank when the field is mandatory.
func (c *Checker) In(field, value string, allowed ...string) *Checker {
	return c.Check(value == "" || slices.Contains(allowed, value), field,
		"must be one of [%s] (got: %s)", strings.Join(allowed, ", "), value)
}

// KeyValue requires every entry to have the form KEY=value with a
// non-empty key, as environment entries do.
func (c *Checker) KeyValue(field string, entries []string) *Checker {
	for _, e := range entries {
		key, _, found := strings.Cut(e, "=")
		c.Check(found && key != "", field, "%q is not KEY=value", e)
	}
	return c
}

// Problems returns what has been found so far.
func (c *Checker) Problems() Problems { return c.problems }

// Err returns the problems as a validation error, or nil.
func (c *Checker) Err() error { return c.problems.Err() }
