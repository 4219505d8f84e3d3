// Package recovery turns handler panics into JSON 500 responses.
package recovery

import (
	"errors"
	"net/http"
	"runtime/debug"

	"github.com/rs/zerolog"

	"github.com/VelixarAi/velixar-client/internal/api/respond"
)

// New returns middleware that recovers a panicking handler, logs it on log
// with the request route and answers 500. http.ErrAbortHandler is re-raised
// so net/http still drops the connection.
func New(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if err, ok := rec.(error); ok && errors.Is(err, http.ErrAbortHandler) {
					panic(rec)
				}
				log.Error().
					Interface("panic", rec).
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Str("stack", string(debug.Stack())).
					Msg("handler panic recovered")
				respond.WriteError(w, http.StatusInternalServerError, "handler panic")
			}()
			next.ServeHTTP(w, r)
		})
	}
}
