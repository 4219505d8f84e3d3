package api

import (
	"context"

	"github.com/go-resty/resty/v2"

	clienterrors "github.com/VelixarAi/velixar-client/client/internal/errors"
	"github.com/VelixarAi/velixar-client/client/internal/types"
)

// Health probes GET /health. It uses its own unauthenticated resty client:
// the health endpoint never requires or receives the API key.
func Health(ctx context.Context, rc *resty.Client) (*types.HealthResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out types.HealthResponse
	resp, err := rc.R().
		SetContext(ctx).
		SetResult(&out).
		Get("/health")
	if err != nil {
		return nil, clienterrors.NewNetworkError("health", err)
	}
	if !clienterrors.IsSuccess(resp.StatusCode()) {
		return nil, &clienterrors.RemoteError{Op: "health", StatusCode: resp.StatusCode(), Body: resp.String()}
	}
	return &out, nil
}
