package command

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownCommand reports content that names no registered command.
	ErrUnknownCommand = errors.New("unknown command")
	// ErrNoContext reports a module used before a context was bound.
	ErrNoContext = errors.New("module has no bound context")
	// ErrDuplicateCommand reports a name or alias registered twice.
	ErrDuplicateCommand = errors.New("duplicate command")
)

// ContextTypeError is returned when a module is bound to a context of the wrong type.
type ContextTypeError struct {
	Expected string
	Actual   string
}

func (e *ContextTypeError) Error() string {
	return fmt.Sprintf("invalid context type: expected %s, got %s", e.Expected, e.Actual)
}
