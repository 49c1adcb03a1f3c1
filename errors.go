package omekas

import (
	"errors"
	"fmt"

	"github.com/st-keller/omekas-client/transport"
)

var (
	// ErrNotFound matches every "no such resource" outcome.
	ErrNotFound = errors.New("not found")

	// ErrItemNotFound is returned by GetItem for any non-200 response.
	// 404 and 5xx are not told apart here; use errors.As with *StatusError
	// to read the code.
	ErrItemNotFound = fmt.Errorf("item %w", ErrNotFound)

	// ErrAmbiguous matches lookups that expected one result and got several.
	ErrAmbiguous = errors.New("ambiguous result")

	// ErrUnexpectedStatus is wrapped by list operations answered with non-200.
	ErrUnexpectedStatus = errors.New("unexpected status")

	// ErrInvalidIdentifier is returned for a nil Identifier or nil *Property.
	ErrInvalidIdentifier = errors.New("property identifier required")

	// ErrInvalidSelector is returned when a vocabulary selector does not set exactly one field.
	ErrInvalidSelector = errors.New("exactly one of prefix or uri required")
)

// TransportError is a network-level failure (DNS, refused connection, timeout).
// It is never retried.
type TransportError = transport.Error

// StatusError reports a non-200 response.
type StatusError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: HTTP %d: %v", e.Op, e.StatusCode, e.Err)
}

func (e *StatusError) Unwrap() error {
	return e.Err
}

// NotFoundError reports zero matches for a lookup that requires exactly one.
type NotFoundError struct {
	Kind string // "property", "vocabulary"
	Key  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.Key)
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// AmbiguousResultError reports more than one match for a lookup that requires exactly one.
type AmbiguousResultError struct {
	Kind  string
	Key   string
	Count int
}

func (e *AmbiguousResultError) Error() string {
	return fmt.Sprintf("%s %q is ambiguous: %d matches", e.Kind, e.Key, e.Count)
}

func (e *AmbiguousResultError) Unwrap() error {
	return ErrAmbiguous
}

// IsTransport returns true if err is a network-level failure.
func IsTransport(err error) bool {
	var terr *TransportError
	return errors.As(err, &terr)
}
