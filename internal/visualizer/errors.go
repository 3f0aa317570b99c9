package visualizer

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyID           = errors.New("empty module id")
	ErrDuplicateID       = errors.New("duplicate module id")
	ErrUnknownRenderer   = errors.New("unknown renderer")
	ErrUnknownTransition = errors.New("unknown transition type")
	ErrNilFactory        = errors.New("module has no factory")

	// ErrNotFound is matched by every LookupError.
	ErrNotFound = errors.New("visualization not found")
)

// ConfigurationError rejects one module at registration time.
type ConfigurationError struct {
	ID  string
	Err error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("module %q rejected: %v", e.ID, e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// LookupError reports a switch or create request for an unregistered id.
type LookupError struct {
	ID string
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("visualization %q not found", e.ID)
}

func (e *LookupError) Unwrap() error { return ErrNotFound }

// RenderError wraps a failure raised by a live instance's lifecycle call.
type RenderError struct {
	ID  string
	Op  string
	Err error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.ID, e.Op, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }
