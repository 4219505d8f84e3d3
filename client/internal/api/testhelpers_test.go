package api

import (
	"net"
	"net/http"
)

// errRT fails every round trip the way an unreachable API does.
type errRT struct{}

func (e *errRT) RoundTrip(*http.Request) (*http.Response, error) {
	return nil, &net.OpError{Op: "dial", Net: "tcp", Err: errConnRefused}
}

var errConnRefused = &net.AddrError{Err: "connection refused", Addr: "example.com:80"}
