package commands

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/VelixarAi/velixar-client/client"
	"github.com/VelixarAi/velixar-client/internal/credential"
	"github.com/VelixarAi/velixar-client/internal/health"
	"github.com/VelixarAi/velixar-client/internal/index"
	"github.com/VelixarAi/velixar-client/internal/memoryapitest"
	"github.com/VelixarAi/velixar-client/internal/refresh"
)

// scriptedHost answers prompts and picks from queues and records output.
type scriptedHost struct {
	prompts   []string
	promptOK  bool
	picks     []int
	confirm   bool
	selection *string
	noEditor  bool

	seenPrompts []PromptOptions
	notices     []string
	warnings    []string
	errors      []string
	clipboard   string
	inserted    string
	opened      string
	openedLang  string
}

func newHost() *scriptedHost { return &scriptedHost{promptOK: true} }

func (h *scriptedHost) Notify(msg string) { h.notices = append(h.notices, msg) }
func (h *scriptedHost) Warn(msg string)   { h.warnings = append(h.warnings, msg) }
func (h *scriptedHost) Error(msg string)  { h.errors = append(h.errors, msg) }

func (h *scriptedHost) Prompt(_ context.Context, opts PromptOptions) (string, bool, error) {
	h.seenPrompts = append(h.seenPrompts, opts)
	if len(h.prompts) == 0 {
		return "", false, nil
	}
	v := h.prompts[0]
	h.prompts = h.prompts[1:]
	if opts.Validate != nil && opts.Validate(v) != "" {
		return "", false, nil
	}
	return v, h.promptOK, nil
}

func (h *scriptedHost) Confirm(context.Context, string, string) (bool, error) { return h.confirm, nil }

func (h *scriptedHost) Pick(_ context.Context, _ string, items []PickItem) (int, bool, error) {
	if len(h.picks) == 0 {
		return 0, false, nil
	}
	i := h.picks[0]
	h.picks = h.picks[1:]
	return i, true, nil
}

func (h *scriptedHost) Clipboard(_ context.Context, text string) error {
	h.clipboard = text
	return nil
}

func (h *scriptedHost) InsertAtCursor(_ context.Context, text string) error {
	if h.noEditor {
		return ErrNoEditor
	}
	h.inserted = text
	return nil
}

func (h *scriptedHost) OpenDocument(_ context.Context, content, lang string) error {
	h.opened, h.openedLang = content, lang
	return nil
}

func (h *scriptedHost) Selection(context.Context) (string, bool) {
	if h.selection == nil {
		return "", false
	}
	return *h.selection, true
}

type env struct {
	fake  *memoryapitest.Server
	creds *credential.MemoryStore
	index *index.Index
	host  *scriptedHost
	cmds  *Commands
}

func newEnv(t *testing.T, key string) *env {
	t.Helper()
	fake := memoryapitest.New("vlx_test")
	srv := fake.Start()
	t.Cleanup(srv.Close)

	creds := credential.NewMemoryStore(key)
	c, err := client.New(srv.URL, creds)
	require.NoError(t, err)

	host := newHost()
	ix := index.New(c, index.WithErrorReporter(func(err error) { host.Error("Velixar: " + err.Error()) }))
	orch := refresh.New(ix, health.NewMonitor(c, zerolog.Nop()), time.Hour, zerolog.Nop())
	cmds := New(c, creds, orch, host, Options{DefaultTier: client.TierSemantic, QuickSearchLimit: 10})
	return &env{fake: fake, creds: creds, index: ix, host: host, cmds: cmds}
}

func strptr(s string) *string { return &s }

func TestStoreMemory_RoundTripThroughIndex(t *testing.T) {
	e := newEnv(t, "vlx_test")
	e.host.selection = strptr("func main() {}")
	e.host.prompts = []string{" go, , snippet "}

	require.NoError(t, e.cmds.StoreMemory(context.Background()))
	require.Len(t, e.host.notices, 1)
	assert.Regexp(t, `^Memory stored: .{8}\.\.\.$`, e.host.notices[0])

	v := e.index.Groups()
	require.False(t, v.Empty)
	require.Len(t, v.Groups, 1)
	assert.Equal(t, client.TierSemantic, v.Groups[0].Tier)
	m := v.Groups[0].Memories[0]
	assert.Equal(t, "func main() {}", m.Content)
	assert.Equal(t, []string{"go", "snippet"}, m.Tags)
}

func TestStoreMemory_EmptySelectionWarns(t *testing.T) {
	e := newEnv(t, "vlx_test")
	e.host.selection = strptr("")
	require.NoError(t, e.cmds.StoreMemory(context.Background()))
	assert.Equal(t, []string{"Select text first"}, e.host.warnings)
	assert.Zero(t, e.fake.CountRequests("/memory"))

	e.host.selection = nil
	require.NoError(t, e.cmds.StoreMemory(context.Background()))
	assert.Len(t, e.host.warnings, 1, "no editor is a silent no-op")
}

func TestStoreMemory_WithoutKeyFailsOnceWithoutNetwork(t *testing.T) {
	e := newEnv(t, "")
	e.host.selection = strptr("text")

	err := e.cmds.StoreMemory(context.Background())
	require.ErrorIs(t, err, client.ErrUnauthenticated)
	assert.Equal(t, []string{"Velixar: API key not set. Run 'Velixar: Set API Key' first."}, e.host.errors)
	assert.Zero(t, e.fake.CountRequests("/memory"))
}

func TestSetAPIKey_ValidatesAndRefreshes(t *testing.T) {
	e := newEnv(t, "")
	e.host.prompts = []string{"bad_key"}
	require.NoError(t, e.cmds.SetAPIKey(context.Background()))
	key, _ := e.creds.Get(context.Background())
	assert.Empty(t, key, "invalid key rejected at input")
	require.NotNil(t, e.host.seenPrompts[0].Validate)
	assert.Equal(t, "Key must start with vlx_", e.host.seenPrompts[0].Validate("nope"))
	assert.True(t, e.host.seenPrompts[0].Password)

	e.fake.Seed(client.Memory{Content: "existing"})
	e.host.prompts = []string{"vlx_test"}
	require.NoError(t, e.cmds.SetAPIKey(context.Background()))
	key, _ = e.creds.Get(context.Background())
	assert.Equal(t, "vlx_test", key)
	assert.Contains(t, e.host.notices, "Velixar API key saved")
	assert.Equal(t, 1, e.index.Groups().Len(), "refresh ran with the new key")

	require.NoError(t, e.cmds.ClearAPIKey(context.Background()))
	assert.True(t, e.index.Groups().Empty)
	assert.Empty(t, e.host.errors, "missing key is not an error")
}

func TestSearchMemories_PickAndActions(t *testing.T) {
	e := newEnv(t, "vlx_test")
	e.fake.Seed(client.Memory{ID: "0123456789", Content: "deploy with make release"})

	e.host.prompts = []string{"deploy"}
	e.host.picks = []int{0, 0}
	require.NoError(t, e.cmds.SearchMemories(context.Background()))
	assert.Equal(t, "deploy with make release", e.host.clipboard)
	assert.Contains(t, e.host.notices, "Copied")
	assert.Contains(t, e.fake.Requests()[0].Query, "limit=10")

	e.host.prompts = []string{"deploy"}
	e.host.picks = []int{0, 1}
	require.NoError(t, e.cmds.SearchMemories(context.Background()))
	assert.Equal(t, "deploy with make release", e.host.inserted)

	e.host.prompts = []string{"deploy"}
	e.host.picks = []int{0, 2}
	require.NoError(t, e.cmds.SearchMemories(context.Background()))
	assert.Equal(t, "deploy with make release", e.host.opened)
	assert.Equal(t, "markdown", e.host.openedLang)
}

func TestSearchMemories_NoHits(t *testing.T) {
	e := newEnv(t, "vlx_test")
	e.host.prompts = []string{"nothing"}
	require.NoError(t, e.cmds.SearchMemories(context.Background()))
	assert.Equal(t, []string{"No memories found"}, e.host.notices)
}

func TestDeleteMemory_RequiresConfirmation(t *testing.T) {
	e := newEnv(t, "vlx_test")
	e.fake.Seed(client.Memory{ID: "abcdefghijk", Content: "old"})

	require.NoError(t, e.cmds.DeleteMemory(context.Background(), "abcdefghijk"))
	assert.Zero(t, e.fake.CountRequests("/memory/abcdefghijk"))

	e.host.confirm = true
	require.NoError(t, e.cmds.DeleteMemory(context.Background(), "abcdefghijk"))
	assert.Contains(t, e.host.notices, "Memory deleted")
	assert.True(t, e.index.Groups().Empty)
}

func TestDeleteMemory_RemoteErrorSurfacedOnce(t *testing.T) {
	e := newEnv(t, "vlx_test")
	e.host.confirm = true
	err := e.cmds.DeleteMemory(context.Background(), "missing")
	var remote *client.RemoteError
	require.ErrorAs(t, err, &remote)
	assert.Equal(t, http.StatusNotFound, remote.StatusCode)
	assert.Equal(t, []string{"Velixar: API 404: memory not found"}, e.host.errors)
}

func TestUpdateMemory_ReplacesContent(t *testing.T) {
	e := newEnv(t, "vlx_test")
	e.fake.Seed(client.Memory{ID: "m1", Content: "before"})
	e.host.prompts = []string{"after"}

	require.NoError(t, e.cmds.UpdateMemory(context.Background(), "m1"))
	assert.Equal(t, "before", e.host.seenPrompts[0].Value)
	m, _ := e.index.Groups().Find("m1")
	assert.Equal(t, "after", m.Content)
}

func TestCopyInsertOpenMemory_FetchFullContent(t *testing.T) {
	e := newEnv(t, "vlx_test")
	full := "line one\nline two"
	e.fake.Seed(client.Memory{ID: "m1", Content: full})
	ctx := context.Background()

	require.NoError(t, e.cmds.CopyMemory(ctx, "m1"))
	assert.Equal(t, full, e.host.clipboard)
	assert.Contains(t, e.host.notices, "Memory copied")

	require.NoError(t, e.cmds.InsertMemory(ctx, "m1"))
	assert.Equal(t, full, e.host.inserted)

	require.NoError(t, e.cmds.OpenMemory(ctx, "m1"))
	assert.Equal(t, full, e.host.opened)

	e.host.noEditor = true
	e.host.inserted = ""
	require.NoError(t, e.cmds.InsertContent(ctx, "x"))
	assert.Empty(t, e.host.inserted)
	assert.Empty(t, e.host.errors)
}

func TestRefresh_ReportsIndexFailureOncePerRefresh(t *testing.T) {
	e := newEnv(t, "vlx_test")
	e.fake.FailWith(http.StatusBadGateway, "upstream")
	require.Error(t, e.cmds.Refresh(context.Background()))
	assert.Equal(t, []string{"Velixar: API 502: upstream"}, e.host.errors)

	require.Error(t, e.cmds.Refresh(context.Background()))
	assert.Equal(t, []string{"Velixar: API 502: upstream", "Velixar: API 502: upstream"}, e.host.errors,
		"a second refresh during the outage surfaces again")
}

func TestParseTags(t *testing.T) {
	assert.Nil(t, ParseTags(""))
	assert.Nil(t, ParseTags(" , "))
	assert.Equal(t, []string{"a", "b c"}, ParseTags("a, b c ,"))
}

func TestFail_PrefixesMessage(t *testing.T) {
	h := newHost()
	c := New(nil, credential.NewMemoryStore(""), nil, h, Options{})
	err := c.fail(errors.New("boom"))
	require.EqualError(t, err, "boom")
	assert.Equal(t, []string{"Velixar: boom"}, h.errors)
}
