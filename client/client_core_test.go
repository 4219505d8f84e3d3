package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type keyFunc func(context.Context) (string, error)

func (f keyFunc) Get(ctx context.Context) (string, error) { return f(ctx) }

func TestNew_Validation(t *testing.T) {
	_, err := New("", StaticKey("vlx_k"))
	require.Error(t, err)
	_, err = New("http://example.com", nil)
	require.Error(t, err)
	c, err := New("http://example.com/v1/", StaticKey("vlx_k"))
	require.NoError(t, err)
	assert.Equal(t, "http://example.com/v1", c.BaseURL())
}

func TestCloseIdempotent(t *testing.T) {
	c, err := New("http://example.com", StaticKey("vlx_k"))
	require.NoError(t, err)
	require.NoError(t, c.Close())
	require.NoError(t, c.Close())
}

func TestUnauthenticated_NoNetworkCall(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c, err := New(srv.URL, StaticKey(""))
	require.NoError(t, err)
	ctx := context.Background()

	_, err = c.ListMemories(ctx, 100)
	assert.ErrorIs(t, err, ErrUnauthenticated)
	_, err = c.SearchMemories(ctx, "re", 20)
	assert.ErrorIs(t, err, ErrUnauthenticated)
	_, err = c.StoreMemory(ctx, StoreMemoryRequest{Content: "c"})
	assert.ErrorIs(t, err, ErrUnauthenticated)
	_, err = c.GetMemory(ctx, "m1")
	assert.ErrorIs(t, err, ErrUnauthenticated)
	assert.ErrorIs(t, c.DeleteMemory(ctx, "m1"), ErrUnauthenticated)
	assert.ErrorIs(t, c.UpdateMemory(ctx, "m1", "x"), ErrUnauthenticated)
	assert.True(t, IsUnauthenticated(err))
	assert.Equal(t, CategoryUnauthenticated, Classify(err))
	assert.False(t, c.HasCredential(ctx))

	assert.Zero(t, hits.Load(), "no request may leave the process without a key")
}

func TestCredentialErrorIsWrapped(t *testing.T) {
	boom := errors.New("keyring locked")
	c, err := New("http://example.com", keyFunc(func(context.Context) (string, error) { return "", boom }))
	require.NoError(t, err)
	_, err = c.ListMemories(context.Background(), 10)
	assert.ErrorIs(t, err, boom)
	assert.False(t, c.HasCredential(context.Background()))
}

func TestAuthHeaders_ExtrasCannotOverride(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer vlx_secret", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "vscode", r.Header.Get("X-Client"))
		assert.NotEmpty(t, r.Header.Get("X-Request-Id"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"memories":[],"count":0}`))
	}))
	defer srv.Close()

	c, err := New(srv.URL, StaticKey("vlx_secret"), WithHeader("X-Client", "vscode"))
	require.NoError(t, err)
	_, err = c.ListMemories(context.Background(), 100)
	require.NoError(t, err)

	_, err = New(srv.URL, StaticKey("vlx_secret"), WithHeader("authorization", "Bearer other"))
	require.Error(t, err)
	_, err = New(srv.URL, StaticKey("vlx_secret"), WithHeader("Content-Type", "text/plain"))
	require.Error(t, err)
}

func TestKeyReadPerCall(t *testing.T) {
	var key atomic.Value
	key.Store("vlx_one")
	var seen []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"memories":[],"count":0}`))
	}))
	defer srv.Close()

	c, err := New(srv.URL, keyFunc(func(context.Context) (string, error) { return key.Load().(string), nil }))
	require.NoError(t, err)
	_, err = c.ListMemories(context.Background(), 1)
	require.NoError(t, err)
	key.Store("vlx_two")
	_, err = c.ListMemories(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"Bearer vlx_one", "Bearer vlx_two"}, seen)
}

func TestHealth_NoCredentialNeeded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"healthy","qdrant":true,"redis":true}`))
	}))
	defer srv.Close()

	c, err := New(srv.URL, StaticKey(""))
	require.NoError(t, err)
	h, err := c.Health(context.Background())
	require.NoError(t, err)
	assert.True(t, h.Healthy())
}

func TestNewWithDevMode(t *testing.T) {
	c, err := NewWithDevMode("http://localhost:7070")
	require.NoError(t, err)
	assert.True(t, c.HasCredential(context.Background()))
}
