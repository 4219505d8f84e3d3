package client

import (
	"net/http"
	"net/http/httputil"
	"os"
	"regexp"

	"github.com/rs/zerolog/log"
)

// debugTransport provides detailed HTTP request/response logging for debugging client issues.
//
// Activation:
//   - Set VELIXAR_DEBUG=true or DEBUG=true, or pass WithDebugLogging(true)
//
// Security considerations:
//   - Logs full request/response bodies including memory content
//   - The bearer token is masked in request dumps
//
// Example usage:
//
//	export VELIXAR_DEBUG=true
//	velixar list  # the client now logs all HTTP traffic
type debugTransport struct{ base http.RoundTripper }

func (dt *debugTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := dt.base
	if base == nil {
		base = http.DefaultTransport
	}

	if reqDump, err := httputil.DumpRequestOut(req, true); err == nil {
		log.Debug().Str("method", req.Method).Str("url", req.URL.String()).Str("request_dump", redactAuthorization(reqDump)).Msg("HTTP request")
	}

	resp, err := base.RoundTrip(req)
	if err != nil {
		log.Error().Err(err).Str("method", req.Method).Str("url", req.URL.String()).Msg("HTTP request failed")
		return nil, err
	}

	if respDump, err := httputil.DumpResponse(resp, true); err == nil {
		log.Debug().Str("method", req.Method).Str("url", req.URL.String()).Int("status_code", resp.StatusCode).Str("response_dump", string(respDump)).Msg("HTTP response")
	}
	return resp, nil
}

// debugLoggingRequested checks if HTTP debug logging should be enabled.
// Either VELIXAR_DEBUG=true or DEBUG=true (case-sensitive) turns it on.
func debugLoggingRequested() bool {
	return os.Getenv("VELIXAR_DEBUG") == "true" || os.Getenv("DEBUG") == "true"
}

var bearerLine = regexp.MustCompile(`(?mi)^(Authorization:\s*Bearer\s+)(\S{0,4})\S*`)

// redactAuthorization keeps the first four characters of the key.
func redactAuthorization(dump []byte) string {
	return bearerLine.ReplaceAllString(string(dump), "${1}${2}***")
}
