package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"

	"github.com/VelixarAi/velixar-client/client/internal/api"
	clienterrors "github.com/VelixarAi/velixar-client/client/internal/errors"
	"github.com/VelixarAi/velixar-client/pkg/devauth"
)

// --------------------------------------------------------------------
// Client core
// --------------------------------------------------------------------

// Client is the single choke point for calls to the Velixar memory API. It
// holds no domain state: the API key is read from the credential source on
// every call so a key change is observed by the very next request.
type Client struct {
	baseURL string
	http    *http.Client
	health  *resty.Client
	creds   CredentialSource
	headers http.Header // caller-supplied extras; never override auth or content type

	closedOnce uint32 // ensures Close is idempotent
}

// New constructs a Client for baseURL reading its API key from creds.
// Additional options can be provided via functional arguments.
func New(baseURL string, creds CredentialSource, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("baseURL cannot be empty")
	}
	if creds == nil {
		return nil, errors.New("credential source cannot be nil")
	}

	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		creds:   creds,
		http:    &http.Client{Timeout: 30 * time.Second},
		headers: make(http.Header),
	}

	// Auto-enable debug via env variable without changing code.
	if debugLoggingRequested() {
		opts = append(opts, WithDebugLogging(true))
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	c.health = resty.New().
		SetBaseURL(c.baseURL).
		SetHeader("Accept", "application/json").
		SetTimeout(c.http.Timeout)
	if c.http.Transport != nil {
		c.health.SetTransport(c.http.Transport)
	}

	// Wrap HTTP transport to automatically add Authorization header
	c.wrapTransportWithAPIKey()

	return c, nil
}

// NewWithDevMode constructs a Client for a local server that accepts the
// shared development key.
func NewWithDevMode(baseURL string, opts ...Option) (*Client, error) {
	return New(baseURL, StaticKey(devauth.APIKey), opts...)
}

// StaticKey is a CredentialSource that always returns the same key.
type StaticKey string

// Get implements CredentialSource.
func (k StaticKey) Get(context.Context) (string, error) { return string(k), nil }

type apiKeyCtxKey struct{}

func withAPIKey(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, apiKeyCtxKey{}, key)
}

func apiKeyFrom(ctx context.Context) string {
	key, _ := ctx.Value(apiKeyCtxKey{}).(string)
	return key
}

// wrapTransportWithAPIKey wraps the HTTP client's transport so every request
// carries the bearer token resolved for that call.
func (c *Client) wrapTransportWithAPIKey() {
	baseTransport := c.http.Transport
	if baseTransport == nil {
		baseTransport = http.DefaultTransport
	}
	c.http.Transport = &apiKeyTransport{
		base:  baseTransport,
		extra: c.headers,
	}
}

// apiKeyTransport wraps an http.RoundTripper to add the Authorization and
// Content-Type headers. A request without a resolved key never leaves the
// process.
type apiKeyTransport struct {
	base  http.RoundTripper
	extra http.Header
}

func (t *apiKeyTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	key := apiKeyFrom(req.Context())
	if key == "" {
		return nil, clienterrors.ErrUnauthenticated
	}
	// Clone the request to avoid modifying the original
	cloned := req.Clone(req.Context())
	for name, values := range t.extra {
		cloned.Header[name] = append([]string(nil), values...)
	}
	cloned.Header.Set("Authorization", "Bearer "+key)
	cloned.Header.Set("Content-Type", "application/json")
	if cloned.Header.Get("X-Request-Id") == "" {
		cloned.Header.Set("X-Request-Id", uuid.NewString())
	}
	return t.base.RoundTrip(cloned)
}

// authorize resolves the API key once for the call.
func (c *Client) authorize(ctx context.Context) (context.Context, error) {
	key, err := c.creds.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("read api key: %w", err)
	}
	if key == "" {
		return nil, ErrUnauthenticated
	}
	return withAPIKey(ctx, key), nil
}

// Close releases idle connections. Safe to call multiple times.
func (c *Client) Close() error {
	if !atomic.CompareAndSwapUint32(&c.closedOnce, 0, 1) {
		return nil
	}
	if c.http != nil {
		c.http.CloseIdleConnections()
	}
	return nil
}

// BaseURL returns the API root the client talks to.
func (c *Client) BaseURL() string { return c.baseURL }

// HasCredential reports whether an API key is configured. It never touches
// the network.
func (c *Client) HasCredential(ctx context.Context) bool {
	key, err := c.creds.Get(ctx)
	return err == nil && key != ""
}

// --------------------------------------------------------------------
// Memory operations - delegated to internal/api
// --------------------------------------------------------------------

// StoreMemory creates a new memory and returns its server-assigned id.
func (c *Client) StoreMemory(ctx context.Context, req StoreMemoryRequest) (res *StoreMemoryResponse, err error) {
	defer observe("store", time.Now(), &err)
	if ctx, err = c.authorize(ctx); err != nil {
		return nil, err
	}
	return api.StoreMemory(ctx, c.http, c.baseURL, req)
}

// SearchMemories runs a semantic search. limit <= 0 selects the default of 10.
func (c *Client) SearchMemories(ctx context.Context, query string, limit int) (res *MemoriesResponse, err error) {
	defer observe("search", time.Now(), &err)
	if ctx, err = c.authorize(ctx); err != nil {
		return nil, err
	}
	return api.Search(ctx, c.http, c.baseURL, query, limit)
}

// ListMemories returns up to limit memories. limit <= 0 selects the default of 50.
func (c *Client) ListMemories(ctx context.Context, limit int) (res *MemoriesResponse, err error) {
	defer observe("list", time.Now(), &err)
	if ctx, err = c.authorize(ctx); err != nil {
		return nil, err
	}
	return api.ListMemories(ctx, c.http, c.baseURL, limit)
}

// GetMemory retrieves a specific memory.
func (c *Client) GetMemory(ctx context.Context, memoryID string) (res *Memory, err error) {
	defer observe("get", time.Now(), &err)
	if ctx, err = c.authorize(ctx); err != nil {
		return nil, err
	}
	return api.GetMemory(ctx, c.http, c.baseURL, memoryID)
}

// DeleteMemory deletes a specific memory.
func (c *Client) DeleteMemory(ctx context.Context, memoryID string) (err error) {
	defer observe("delete", time.Now(), &err)
	if ctx, err = c.authorize(ctx); err != nil {
		return err
	}
	return api.DeleteMemory(ctx, c.http, c.baseURL, memoryID)
}

// UpdateMemory replaces the content of a memory wholesale.
func (c *Client) UpdateMemory(ctx context.Context, memoryID, content string) (err error) {
	defer observe("update", time.Now(), &err)
	if ctx, err = c.authorize(ctx); err != nil {
		return err
	}
	return api.UpdateMemory(ctx, c.http, c.baseURL, memoryID, content)
}

// Health probes the service. It is the only call that works without an API key.
func (c *Client) Health(ctx context.Context) (res *HealthResponse, err error) {
	defer observe("health", time.Now(), &err)
	return api.Health(ctx, c.health)
}
