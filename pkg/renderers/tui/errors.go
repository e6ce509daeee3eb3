package tui

import (
	"errors"
	"fmt"

	"github.com/goliatone/go-forms/pkg/render"
)

var (
	// ErrAborted signals the user aborted input (e.g., Ctrl+C).
	ErrAborted = errors.New("tui: aborted")
	// ErrInvalid is wrapped by ValidationError when the form is still
	// invalid once the retry budget is spent.
	ErrInvalid = errors.New("tui: form is invalid")
)

// ValidationError carries the failing fields of a session.
type ValidationError struct {
	Errors []render.FieldError
}

func (e *ValidationError) Error() string {
	failures := render.Failures(e.Errors)
	if len(failures) == 1 {
		return fmt.Sprintf("tui: field %q: %s", failures[0].ID, failures[0].Error)
	}
	return fmt.Sprintf("tui: %d fields are invalid", len(failures))
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalid
}
