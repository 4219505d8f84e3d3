package errors

import (
	"io"
	"net/http"
)

// NewHTTPError builds a RemoteError from resp, draining the body first.
func NewHTTPError(op string, resp *http.Response) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return NewNetworkError(op, err)
	}
	return &RemoteError{Op: op, StatusCode: resp.StatusCode, Body: string(body)}
}

// NewNetworkError creates a TransportError for network-level failures.
func NewNetworkError(op string, err error) error {
	return &TransportError{Op: op, Underlying: err}
}

// IsSuccess reports whether status is within 200-299.
func IsSuccess(status int) bool { return status >= 200 && status <= 299 }
