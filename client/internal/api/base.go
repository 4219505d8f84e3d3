package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	clienterrors "github.com/VelixarAi/velixar-client/client/internal/errors"
	"github.com/VelixarAi/velixar-client/client/internal/types"
)

// do issues one request and decodes a 2xx JSON body into out (if non-nil).
// Non-2xx responses become RemoteError, transport and decode failures
// become TransportError. Context cancellation is reported as-is.
func do(ctx context.Context, httpClient types.HTTPClient, op, method, url string, in, out any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(payload)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := httpClient.Do(httpReq)
	if err != nil {
		if clienterrors.IsUnauthenticated(err) {
			return clienterrors.ErrUnauthenticated
		}
		return clienterrors.NewNetworkError(op, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if !clienterrors.IsSuccess(resp.StatusCode) {
		return clienterrors.NewHTTPError(op, resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return clienterrors.NewNetworkError(op, err)
	}
	return nil
}
