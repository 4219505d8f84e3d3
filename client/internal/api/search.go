package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/VelixarAi/velixar-client/client/internal/types"
)

// DefaultSearchLimit is used when Search is called with limit <= 0.
const DefaultSearchLimit = 10

// Search runs a semantic search. The query is percent-encoded; results keep
// the server's relevance order.
func Search(ctx context.Context, httpClient types.HTTPClient, baseURL, query string, limit int) (*types.MemoriesResponse, error) {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	q := url.Values{}
	q.Set("q", query)
	q.Set("limit", strconv.Itoa(limit))

	var out types.MemoriesResponse
	if err := do(ctx, httpClient, "search memories", http.MethodGet, baseURL+"/memory/search?"+q.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
