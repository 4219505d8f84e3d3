package memoryapitest

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/VelixarAi/velixar-client/client"
)

func newClient(t *testing.T, baseURL, key string) *client.Client {
	t.Helper()
	c, err := client.New(baseURL, client.StaticKey(key))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestServer_StoreListGetUpdateDelete(t *testing.T) {
	fake := New("vlx_test")
	srv := fake.Start()
	defer srv.Close()
	c := newClient(t, srv.URL, "vlx_test")
	ctx := context.Background()

	res, err := c.StoreMemory(ctx, client.StoreMemoryRequest{Content: "first note", Tier: client.TierPtr(client.TierPinned)})
	require.NoError(t, err)
	require.NotEmpty(t, res.ID)
	_, err = c.StoreMemory(ctx, client.StoreMemoryRequest{Content: "second note"})
	require.NoError(t, err)

	list, err := c.ListMemories(ctx, 100)
	require.NoError(t, err)
	require.Len(t, list.Memories, 2)
	assert.Equal(t, "second note", list.Memories[0].Content, "newest first")
	assert.Nil(t, list.Memories[0].Tier)

	require.NoError(t, c.UpdateMemory(ctx, res.ID, "edited"))
	got, err := c.GetMemory(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, "edited", got.Content)

	require.NoError(t, c.DeleteMemory(ctx, res.ID))
	_, err = c.GetMemory(ctx, res.ID)
	var remote *client.RemoteError
	require.ErrorAs(t, err, &remote)
	assert.Equal(t, http.StatusNotFound, remote.StatusCode)
}

func TestServer_SearchRanksByTermOverlap(t *testing.T) {
	fake := New("vlx_test")
	fake.Seed(
		client.Memory{Content: "go channels"},
		client.Memory{Content: "go generics and channels"},
		client.Memory{Content: "python"},
	)
	srv := fake.Start()
	defer srv.Close()

	res, err := newClient(t, srv.URL, "vlx_test").SearchMemories(context.Background(), "generics channels", 20)
	require.NoError(t, err)
	require.Len(t, res.Memories, 2)
	assert.Equal(t, "go generics and channels", res.Memories[0].Content)
	require.NotNil(t, res.Memories[0].Score)
	assert.Equal(t, 1.0, *res.Memories[0].Score)
	assert.Equal(t, "limit=20&q=generics+channels", fake.Requests()[0].Query)
}

func TestServer_RejectsWrongKeyButServesHealth(t *testing.T) {
	fake := New("vlx_right")
	srv := fake.Start()
	defer srv.Close()
	c := newClient(t, srv.URL, "vlx_wrong")

	_, err := c.ListMemories(context.Background(), 0)
	var remote *client.RemoteError
	require.ErrorAs(t, err, &remote)
	assert.Equal(t, http.StatusUnauthorized, remote.StatusCode)

	h, err := c.Health(context.Background())
	require.NoError(t, err)
	assert.True(t, h.Healthy())
	assert.Empty(t, fake.Requests()[1].Auth, "health must not carry a credential")
}

func TestServer_FailWith(t *testing.T) {
	fake := New("")
	srv := fake.Start()
	defer srv.Close()
	c, err := client.NewWithDevMode(srv.URL)
	require.NoError(t, err)

	fake.FailWith(http.StatusServiceUnavailable, "maintenance")
	_, err = c.ListMemories(context.Background(), 0)
	require.EqualError(t, err, "API 503: maintenance")

	fake.FailWith(0, "")
	_, err = c.ListMemories(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, 2, fake.CountRequests("/memory/list"))
}
