package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	clienterrors "github.com/VelixarAi/velixar-client/client/internal/errors"
)

func TestHealth_Success(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		assert.Empty(t, r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"healthy","qdrant":true,"redis":false}`))
	}))
	defer srv.Close()
	got, err := Health(context.Background(), resty.New().SetBaseURL(srv.URL))
	require.NoError(t, err)
	assert.True(t, got.Healthy())
	assert.True(t, got.Qdrant)
	assert.False(t, got.Redis)
}

func TestHealth_RemoteAndTransportErrors(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("maintenance"))
	}))
	defer srv.Close()
	_, err := Health(context.Background(), resty.New().SetBaseURL(srv.URL))
	var re *clienterrors.RemoteError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "maintenance", re.Body)

	rc := resty.New().SetBaseURL("http://example.com").SetTransport(&errRT{})
	_, err = Health(context.Background(), rc)
	assert.Equal(t, clienterrors.Transport, clienterrors.Classify(err))
}
