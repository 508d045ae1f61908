package models

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidName is wrapped by every ValidationError.
	ErrInvalidName = errors.New("invalid context name")

	// ErrDocumentAlreadyExists is returned when a second document is added to a context.
	ErrDocumentAlreadyExists = errors.New("context document already exists")
)

// ValidationReason tells why a context name was rejected
type ValidationReason int

const (
	EmptyName ValidationReason = iota + 1
	DuplicateName
)

// ValidationError reports a rejected context name
type ValidationError struct {
	Reason ValidationReason
	Name   string
}

func (e *ValidationError) Error() string {
	switch e.Reason {
	case EmptyName:
		return "Context name expected to be non-empty"
	case DuplicateName:
		return fmt.Sprintf("Context '%s' already exists", e.Name)
	default:
		return fmt.Sprintf("invalid context name %q", e.Name)
	}
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidName
}
