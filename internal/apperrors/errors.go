package apperrors

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrAuthentication indicates that the portal rejected the credentials or the
// post-login page did not look like an authenticated session.
var ErrAuthentication = errors.New("authentication failure")

// ErrFormat indicates malformed amount or date text.
var ErrFormat = errors.New("format error")

// ErrUnknownAccountType indicates that no CSS class of an account element maps to a known type.
var ErrUnknownAccountType = errors.New("unknown account type")

// ErrArchiveUnavailable indicates that the portal did not prepare a statement archive.
// Callers treat it as "no transactions".
var ErrArchiveUnavailable = errors.New("archive unavailable")

// ErrTransport indicates a network or HTTP level failure talking to the portal.
var ErrTransport = errors.New("transport error")

// TransportError describes a failed round-trip to the portal.
type TransportError struct {
	Op         string
	URL        string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Err != nil:
		return fmt.Sprintf("%s %s: status %d: %v", e.Op, e.URL, e.StatusCode, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s %s: unexpected status %d", e.Op, e.URL, e.StatusCode)
	default:
		return fmt.Sprintf("%s %s: %v", e.Op, e.URL, e.Err)
	}
}

func (e *TransportError) Unwrap() error { return e.Err }

// Is reports ErrTransport so callers can match with errors.Is.
func (e *TransportError) Is(target error) bool { return target == ErrTransport }
