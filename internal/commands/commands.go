package commands

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/VelixarAi/velixar-client/client"
	"github.com/VelixarAi/velixar-client/internal/credential"
	"github.com/VelixarAi/velixar-client/internal/refresh"
	"github.com/VelixarAi/velixar-client/internal/view"
)

// Action labels offered after a quick search pick.
const (
	ActionCopy   = "Copy to clipboard"
	ActionInsert = "Insert at cursor"
	ActionOpen   = "Open in editor"
)

// Gateway is the slice of the memory client the commands use.
type Gateway interface {
	StoreMemory(ctx context.Context, req client.StoreMemoryRequest) (*client.StoreMemoryResponse, error)
	SearchMemories(ctx context.Context, query string, limit int) (*client.MemoriesResponse, error)
	GetMemory(ctx context.Context, id string) (*client.Memory, error)
	DeleteMemory(ctx context.Context, id string) error
	UpdateMemory(ctx context.Context, id, content string) error
}

// Refresher re-syncs cached views after a mutation.
type Refresher interface {
	RefreshAll(ctx context.Context) error
	Trigger(ctx context.Context, reason refresh.Reason) error
}

// Commands binds the actions to a host.
type Commands struct {
	gw          Gateway
	creds       credential.Store
	refresher   Refresher
	host        Host
	defaultTier client.Tier
	quickLimit  int
	log         zerolog.Logger
}

// Options tunes Commands.
type Options struct {
	DefaultTier      client.Tier
	QuickSearchLimit int
	Logger           zerolog.Logger
}

// New returns Commands. Errors from the refresh that follows a mutation are
// not surfaced here: the index reports them through its own reporter.
func New(gw Gateway, creds credential.Store, r Refresher, host Host, opts Options) *Commands {
	if opts.QuickSearchLimit <= 0 {
		opts.QuickSearchLimit = 10
	}
	return &Commands{
		gw:          gw,
		creds:       creds,
		refresher:   r,
		host:        host,
		defaultTier: opts.DefaultTier,
		quickLimit:  opts.QuickSearchLimit,
		log:         opts.Logger,
	}
}

// fail surfaces err once through the host and returns it.
func (c *Commands) fail(err error) error {
	c.host.Error("Velixar: " + err.Error())
	c.log.Debug().Err(err).Str("category", client.Classify(err).String()).Msg("command failed")
	return err
}

func (c *Commands) resync(ctx context.Context, reason refresh.Reason) {
	if c.refresher == nil {
		return
	}
	_ = c.refresher.Trigger(ctx, reason)
}

// SetAPIKey prompts for a key, validates its prefix and stores it.
func (c *Commands) SetAPIKey(ctx context.Context) error {
	key, ok, err := c.host.Prompt(ctx, PromptOptions{
		Prompt:      "Enter your Velixar API key",
		Placeholder: credential.KeyPrefix + "...",
		Password:    true,
		Validate: func(v string) string {
			if err := credential.ValidateAPIKey(v); err != nil {
				return err.Error()
			}
			return ""
		},
	})
	if err != nil {
		return c.fail(err)
	}
	if !ok || key == "" {
		return nil
	}
	if err := credential.ValidateAPIKey(key); err != nil {
		return c.fail(err)
	}
	if err := c.creds.Set(ctx, key); err != nil {
		return c.fail(err)
	}
	c.host.Notify("Velixar API key saved")
	c.resync(ctx, refresh.ReasonSetKey)
	return nil
}

// ClearAPIKey removes the stored key.
func (c *Commands) ClearAPIKey(ctx context.Context) error {
	if err := c.creds.Delete(ctx); err != nil {
		return c.fail(err)
	}
	c.host.Notify("Velixar API key cleared")
	c.resync(ctx, refresh.ReasonClearKey)
	return nil
}

// StoreMemory stores the current selection with the configured default
// tier and optional comma-separated tags.
func (c *Commands) StoreMemory(ctx context.Context) error {
	selection, ok := c.host.Selection(ctx)
	if !ok {
		return nil
	}
	if selection == "" {
		c.host.Warn("Select text first")
		return nil
	}
	rawTags, _, err := c.host.Prompt(ctx, PromptOptions{
		Prompt:      "Tags (comma-separated, optional)",
		Placeholder: "code, snippet, reference",
	})
	if err != nil {
		return c.fail(err)
	}

	res, err := c.gw.StoreMemory(ctx, client.StoreMemoryRequest{
		Content: selection,
		Tier:    client.TierPtr(c.defaultTier),
		Tags:    ParseTags(rawTags),
	})
	if err != nil {
		return c.fail(err)
	}
	c.host.Notify("Memory stored: " + view.ShortID(res.ID))
	c.resync(ctx, refresh.ReasonStore)
	return nil
}

// ParseTags splits a comma-separated list, trimming blanks and dropping
// empty entries. It returns nil when nothing remains.
func ParseTags(raw string) []string {
	var tags []string
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// SearchMemories runs the quick search: prompt, pick a hit, pick an action.
func (c *Commands) SearchMemories(ctx context.Context) error {
	query, ok, err := c.host.Prompt(ctx, PromptOptions{
		Prompt:      "Search your memories",
		Placeholder: "What are you looking for?",
	})
	if err != nil {
		return c.fail(err)
	}
	if !ok || query == "" {
		return nil
	}

	res, err := c.gw.SearchMemories(ctx, query, c.quickLimit)
	if err != nil {
		return c.fail(err)
	}
	if len(res.Memories) == 0 {
		c.host.Notify("No memories found")
		return nil
	}

	items := make([]PickItem, len(res.Memories))
	for i, m := range res.Memories {
		items[i] = PickItem{Label: view.PickLabel(m), Detail: view.PickDetail(m)}
	}
	idx, ok, err := c.host.Pick(ctx, pluralResults(res.Count), items)
	if err != nil {
		return c.fail(err)
	}
	if !ok || idx < 0 || idx >= len(res.Memories) {
		return nil
	}
	picked := res.Memories[idx]

	actions := []PickItem{{Label: ActionCopy}, {Label: ActionInsert}, {Label: ActionOpen}}
	act, ok, err := c.host.Pick(ctx, "What do you want to do?", actions)
	if err != nil {
		return c.fail(err)
	}
	if !ok {
		return nil
	}
	switch actions[act].Label {
	case ActionCopy:
		return c.copyContent(ctx, picked.Content, "Copied")
	case ActionInsert:
		return c.InsertContent(ctx, picked.Content)
	case ActionOpen:
		return c.OpenContent(ctx, picked.Content)
	}
	return nil
}

func pluralResults(n int) string {
	if n == 1 {
		return "1 result"
	}
	return strconv.Itoa(n) + " results"
}

// Refresh re-syncs all views. Index failures are reported by the index.
func (c *Commands) Refresh(ctx context.Context) error {
	if c.refresher == nil {
		return nil
	}
	return c.refresher.RefreshAll(ctx)
}

// DeleteMemory deletes id after a modal confirmation.
func (c *Commands) DeleteMemory(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	yes, err := c.host.Confirm(ctx, "Delete memory "+view.ShortID(id)+"?", "Delete")
	if err != nil {
		return c.fail(err)
	}
	if !yes {
		return nil
	}
	if err := c.gw.DeleteMemory(ctx, id); err != nil {
		return c.fail(err)
	}
	c.host.Notify("Memory deleted")
	c.resync(ctx, refresh.ReasonDelete)
	return nil
}

// UpdateMemory replaces the content of id with text the user enters.
func (c *Commands) UpdateMemory(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	current, err := c.gw.GetMemory(ctx, id)
	if err != nil {
		return c.fail(err)
	}
	content, ok, err := c.host.Prompt(ctx, PromptOptions{
		Prompt: "New content for memory " + view.ShortID(id),
		Value:  current.Content,
		Validate: func(v string) string {
			if strings.TrimSpace(v) == "" {
				return "Content cannot be empty"
			}
			return ""
		},
	})
	if err != nil {
		return c.fail(err)
	}
	if !ok || strings.TrimSpace(content) == "" || content == current.Content {
		return nil
	}
	if err := c.gw.UpdateMemory(ctx, id, content); err != nil {
		return c.fail(err)
	}
	c.host.Notify("Memory updated")
	c.resync(ctx, refresh.ReasonUpdate)
	return nil
}

// CopyMemory copies the full content of id to the clipboard.
func (c *Commands) CopyMemory(ctx context.Context, id string) error {
	m, err := c.fetch(ctx, id)
	if err != nil || m == nil {
		return err
	}
	return c.copyContent(ctx, m.Content, "Memory copied")
}

// InsertMemory inserts the full content of id at the cursor.
func (c *Commands) InsertMemory(ctx context.Context, id string) error {
	m, err := c.fetch(ctx, id)
	if err != nil || m == nil {
		return err
	}
	return c.InsertContent(ctx, m.Content)
}

// OpenMemory opens the full content of id as a markdown document.
func (c *Commands) OpenMemory(ctx context.Context, id string) error {
	m, err := c.fetch(ctx, id)
	if err != nil || m == nil {
		return err
	}
	return c.OpenContent(ctx, m.Content)
}

func (c *Commands) fetch(ctx context.Context, id string) (*client.Memory, error) {
	if id == "" {
		return nil, nil
	}
	m, err := c.gw.GetMemory(ctx, id)
	if err != nil {
		return nil, c.fail(err)
	}
	return m, nil
}

// CopyContent copies text from the search panel.
func (c *Commands) CopyContent(ctx context.Context, text string) error {
	return c.copyContent(ctx, text, "Memory copied to clipboard")
}

func (c *Commands) copyContent(ctx context.Context, text, notice string) error {
	if err := c.host.Clipboard(ctx, text); err != nil {
		return c.fail(err)
	}
	c.host.Notify(notice)
	return nil
}

// InsertContent inserts text at the cursor. Without an editor it does nothing.
func (c *Commands) InsertContent(ctx context.Context, text string) error {
	err := c.host.InsertAtCursor(ctx, text)
	if errors.Is(err, ErrNoEditor) {
		return nil
	}
	if err != nil {
		return c.fail(err)
	}
	return nil
}

// OpenContent opens text in a new markdown document.
func (c *Commands) OpenContent(ctx context.Context, text string) error {
	if err := c.host.OpenDocument(ctx, text, "markdown"); err != nil {
		return c.fail(err)
	}
	return nil
}
