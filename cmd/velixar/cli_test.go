package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/VelixarAi/velixar-client/client"
	"github.com/VelixarAi/velixar-client/internal/memoryapitest"
)

type result struct {
	out, errOut string
	err         error
}

func run(stdin string, args ...string) result {
	var out, errOut bytes.Buffer
	root := NewRootCmd()
	root.SetArgs(args)
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(&out)
	root.SetErr(&errOut)
	err := root.Execute()
	return result{out: out.String(), errOut: errOut.String(), err: err}
}

func setup(t *testing.T) *memoryapitest.Server {
	t.Helper()
	fake := memoryapitest.New("vlx_test")
	fake.Seed(client.Memory{ID: "mem-1", Content: "release branches are cut on thursday", Tier: client.TierPtr(client.TierPinned)})
	srv := fake.Start()
	t.Cleanup(srv.Close)

	t.Setenv("VELIXAR_API_URL", srv.URL)
	t.Setenv("VELIXAR_CREDENTIAL_DB", filepath.Join(t.TempDir(), "creds.db"))
	t.Setenv("VELIXAR_LOG_LEVEL", "error")
	return fake
}

func TestCLI_LoginStoreListSearch(t *testing.T) {
	setup(t)

	r := run("", "login", "--key", "vlx_test")
	require.NoError(t, r.err, r.errOut)
	assert.Contains(t, r.errOut, "Velixar API key saved")

	r = run("", "store", "--tags", "ops, deploy", "deploys", "freeze", "on", "fridays")
	require.NoError(t, r.err, r.errOut)
	assert.Contains(t, r.errOut, "Memory stored: ")

	r = run("", "list")
	require.NoError(t, r.err, r.errOut)
	assert.Contains(t, r.out, "Pinned")
	assert.Contains(t, r.out, "Semantic")
	assert.Contains(t, r.out, "deploys freeze on fridays")

	r = run("", "search", "fridays", "deploys", "--pick", "1", "--action", "print")
	require.NoError(t, r.err, r.errOut)
	assert.Equal(t, "deploys freeze on fridays\n", r.out)
	assert.Contains(t, r.errOut, "1 result")

	r = run("", "refresh")
	require.NoError(t, r.err, r.errOut)
	assert.Equal(t, "2 memories indexed\n", r.out)
}

func TestCLI_StoreFromStdin(t *testing.T) {
	fake := setup(t)
	require.NoError(t, run("", "login", "--key", "vlx_test").err)

	r := run("piped content\n", "store")
	require.NoError(t, r.err, r.errOut)

	r = run("", "search", "piped", "--pick", "1", "--action", "print")
	require.NoError(t, r.err, r.errOut)
	assert.Equal(t, "piped content\n", r.out)
	assert.Equal(t, 1, fake.CountRequests("/memory"))
}

func TestCLI_GetUpdateOpenDelete(t *testing.T) {
	setup(t)
	require.NoError(t, run("", "login", "--key", "vlx_test").err)

	r := run("", "get", "mem-1")
	require.NoError(t, r.err, r.errOut)
	assert.Equal(t, "release branches are cut on thursday\n", r.out)

	r = run("", "update", "mem-1", "release", "branches", "are", "cut", "on", "wednesday")
	require.NoError(t, r.err, r.errOut)
	assert.Contains(t, r.errOut, "Memory updated")

	r = run("", "open", "mem-1")
	require.NoError(t, r.err, r.errOut)
	path := strings.TrimSpace(r.out)
	t.Cleanup(func() { _ = os.Remove(path) })
	assert.True(t, strings.HasSuffix(path, ".md"))
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "release branches are cut on wednesday", string(b))

	r = run("n\n", "delete", "mem-1")
	require.NoError(t, r.err, r.errOut)
	assert.NotContains(t, r.errOut, "Memory deleted")

	r = run("", "delete", "--yes", "mem-1")
	require.NoError(t, r.err, r.errOut)
	assert.Contains(t, r.errOut, "Memory deleted")

	r = run("", "get", "mem-1")
	require.Error(t, r.err)
	assert.Contains(t, r.errOut, "error: Velixar: ")
}

func TestCLI_StatusAndLogout(t *testing.T) {
	setup(t)
	require.NoError(t, run("", "login", "--key", "vlx_test").err)

	r := run("", "status")
	require.NoError(t, r.err, r.errOut)
	assert.Contains(t, r.out, "[ok]")
	assert.Contains(t, r.out, "Vector store (Qdrant)")

	r = run("", "logout")
	require.NoError(t, r.err, r.errOut)
	assert.Contains(t, r.errOut, "Velixar API key cleared")

	r = run("", "status")
	require.NoError(t, r.err, r.errOut)
	assert.Contains(t, r.out, "Not set")

	r = run("", "list")
	require.NoError(t, r.err, r.errOut)
	assert.Contains(t, r.out, "No memories yet")
}

func TestCLI_LoginRejectsBadKey(t *testing.T) {
	setup(t)
	r := run("", "login", "--key", "sk-nope")
	require.Error(t, r.err)

	// interactive prompt re-asks until the key validates
	r = run("sk-nope\nvlx_ok\n", "login")
	require.NoError(t, r.err, r.errOut)
	assert.Contains(t, r.errOut, "Velixar API key saved")
}
