package pipeline

import (
	"fmt"
	"strings"

	"paramsheet/internal"
)

// MissingFieldError aborts a run: a recognized record lacks every accepted
// name for a required field.
type MissingFieldError struct {
	Dialect  internal.Dialect
	Field    string
	Accepted []string
	Record   int
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("%s record %d: missing field %q (accepted: %s)", e.Dialect, e.Record, e.Field, strings.Join(e.Accepted, ", "))
}

// InvalidFieldError aborts a run: a required field is present but unusable.
type InvalidFieldError struct {
	Dialect internal.Dialect
	Field   string
	Value   string
	Record  int
	Err     error
}

func (e *InvalidFieldError) Error() string {
	msg := fmt.Sprintf("%s record %d: invalid %s %q", e.Dialect, e.Record, e.Field, e.Value)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *InvalidFieldError) Unwrap() error {
	return e.Err
}
