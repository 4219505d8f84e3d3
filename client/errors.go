package client

import (
	clienterrors "github.com/VelixarAi/velixar-client/client/internal/errors"
)

// ErrUnauthenticated is returned without any network call when no API key is
// configured. It is an expected state before first setup.
var ErrUnauthenticated = clienterrors.ErrUnauthenticated

// Re-export the error taxonomy so callers compare against a single symbol.
type (
	RemoteError    = clienterrors.RemoteError
	TransportError = clienterrors.TransportError
	ErrorCategory  = clienterrors.Category
)

const (
	CategoryUnauthenticated = clienterrors.Unauthenticated
	CategoryRemote          = clienterrors.Remote
	CategoryTransport       = clienterrors.Transport
	CategoryOther           = clienterrors.Other
)

// IsUnauthenticated reports whether err stems from a missing API key.
func IsUnauthenticated(err error) bool { return clienterrors.IsUnauthenticated(err) }

// Classify reports the category of err.
func Classify(err error) ErrorCategory { return clienterrors.Classify(err) }
