// Package errors provides the error taxonomy of the client SDK.
// Callers distinguish "no credential yet" from remote and transport
// failures to decide whether a failure is surfaced to the user.
package errors

import (
	"errors"
	"fmt"
)

// ErrUnauthenticated is returned, without any network call, when no API key
// is configured.
var ErrUnauthenticated = errors.New("API key not set. Run 'Velixar: Set API Key' first.")

// Category groups errors for surfacing decisions.
type Category int

const (
	// Unauthenticated is the expected state before first setup.
	Unauthenticated Category = iota
	// Remote is a non-2xx HTTP response.
	Remote
	// Transport is a network-level failure with no status code.
	Transport
	// Other covers validation and programming errors.
	Other
)

// String returns a human-readable representation of the category.
func (c Category) String() string {
	switch c {
	case Unauthenticated:
		return "Unauthenticated"
	case Remote:
		return "Remote"
	case Transport:
		return "Transport"
	case Other:
		return "Other"
	default:
		return fmt.Sprintf("Unknown(%d)", int(c))
	}
}

// RemoteError is a response outside the 200-299 range. Body holds the full
// response body so diagnostic text is never lost.
type RemoteError struct {
	Op         string
	StatusCode int
	Body       string
}

// Error implements the error interface.
func (e *RemoteError) Error() string {
	return fmt.Sprintf("API %d: %s", e.StatusCode, e.Body)
}

// TransportError is a network-level failure (unreachable, timeout, bad payload).
type TransportError struct {
	Op         string
	Underlying error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Underlying)
}

// Unwrap returns the underlying error for error chain compatibility.
func (e *TransportError) Unwrap() error { return e.Underlying }

// Classify reports the category of err.
func Classify(err error) Category {
	var re *RemoteError
	var te *TransportError
	switch {
	case errors.Is(err, ErrUnauthenticated):
		return Unauthenticated
	case errors.As(err, &re):
		return Remote
	case errors.As(err, &te):
		return Transport
	default:
		return Other
	}
}

// IsUnauthenticated reports whether err stems from a missing credential.
func IsUnauthenticated(err error) bool { return errors.Is(err, ErrUnauthenticated) }
