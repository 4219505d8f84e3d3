package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog/log"

	"github.com/VelixarAi/velixar-client/client"
	"github.com/VelixarAi/velixar-client/internal/commands"
	"github.com/VelixarAi/velixar-client/internal/index"
	"github.com/VelixarAi/velixar-client/internal/refresh"
	"github.com/VelixarAi/velixar-client/internal/view"
)

// Gateway is the slice of the memory client the memory tools use.
type Gateway interface {
	StoreMemory(ctx context.Context, req client.StoreMemoryRequest) (*client.StoreMemoryResponse, error)
	GetMemory(ctx context.Context, id string) (*client.Memory, error)
	DeleteMemory(ctx context.Context, id string) error
	UpdateMemory(ctx context.Context, id, content string) error
}

// Refresher re-syncs the cached index.
type Refresher interface {
	RefreshAll(ctx context.Context) error
	Trigger(ctx context.Context, reason refresh.Reason) error
}

// MemoryHandler exposes memory CRUD and the grouped listing.
type MemoryHandler struct {
	client      Gateway
	refresher   Refresher
	groups      func() index.View
	defaultTier client.Tier
}

func NewMemoryHandler(c Gateway, r Refresher, groups func() index.View, defaultTier client.Tier) *MemoryHandler {
	return &MemoryHandler{client: c, refresher: r, groups: groups, defaultTier: defaultTier}
}

func (mh *MemoryHandler) RegisterTools(s *server.MCPServer) error {
	store := mcp.NewTool("store_memory",
		mcp.WithDescription("Store a new memory; returns its id"),
		mcp.WithString("content", mcp.Required(), mcp.Description("Memory text")),
		mcp.WithNumber("tier", mcp.Description("0 Pinned, 1 Session, 2 Semantic, 3 Organization (default from config)")),
		mcp.WithString("tags", mcp.Description("Comma-separated tags")),
	)
	list := mcp.NewTool("list_memories",
		mcp.WithDescription("List recent memories grouped by tier (ascending)"),
	)
	get := mcp.NewTool("get_memory",
		mcp.WithDescription("Get the full content of a memory"),
		mcp.WithString("memory_id", mcp.Required(), mcp.Description("Memory id")),
	)
	del := mcp.NewTool("delete_memory",
		mcp.WithDescription("Delete a memory"),
		mcp.WithString("memory_id", mcp.Required(), mcp.Description("Memory id")),
	)
	update := mcp.NewTool("update_memory",
		mcp.WithDescription("Replace the content of a memory"),
		mcp.WithString("memory_id", mcp.Required(), mcp.Description("Memory id")),
		mcp.WithString("content", mcp.Required(), mcp.Description("New memory text")),
	)
	s.AddTool(store, mh.handleStore)
	s.AddTool(list, mh.handleList)
	s.AddTool(get, mh.handleGet)
	s.AddTool(del, mh.handleDelete)
	s.AddTool(update, mh.handleUpdate)
	return nil
}

func (mh *MemoryHandler) handleStore(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	content, _ := req.RequireString("content")
	if strings.TrimSpace(content) == "" {
		return mcp.NewToolResultError("content is required"), nil
	}
	tier := mh.defaultTier
	if v, ok := req.GetArguments()["tier"].(float64); ok {
		tier = client.Tier(int(v))
	}
	rawTags, _ := req.GetArguments()["tags"].(string)
	tags := commands.ParseTags(rawTags)

	start := time.Now()
	res, err := mh.client.StoreMemory(ctx, client.StoreMemoryRequest{Content: content, Tier: client.TierPtr(tier), Tags: tags})
	if err != nil {
		log.Error().Err(err).Dur("elapsed", time.Since(start)).Msg("store_memory failed")
		return mcp.NewToolResultError(fmt.Sprintf("failed to store memory: %v", err)), nil
	}
	mh.resync(ctx, refresh.ReasonStore)

	b, _ := json.Marshal(map[string]any{"memoryId": res.ID, "tier": int(tier)})
	return mcp.NewToolResultText(string(b)), nil
}

func (mh *MemoryHandler) handleList(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := mh.refresher.RefreshAll(ctx); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list memories: %v", err)), nil
	}
	v := mh.groups()
	if v.Empty {
		return mcp.NewToolResultText(view.EmptyTreeLabel), nil
	}

	type lite struct {
		MemoryID string `json:"memoryId"`
		Preview  string `json:"preview"`
		Created  string `json:"created,omitempty"`
	}
	type group struct {
		Tier     int    `json:"tier"`
		Label    string `json:"label"`
		Memories []lite `json:"memories"`
	}
	out := make([]group, 0, len(v.Groups))
	for _, g := range v.Groups {
		grp := group{Tier: int(g.Tier), Label: g.Tier.Label(), Memories: make([]lite, len(g.Memories))}
		for i, m := range g.Memories {
			grp.Memories[i] = lite{MemoryID: m.ID, Preview: view.Preview(m.Content, view.TreePreviewRunes), Created: view.CreatedDate(m)}
		}
		out = append(out, grp)
	}
	b, _ := json.MarshalIndent(out, "", "  ")
	return mcp.NewToolResultText(string(b)), nil
}

func (mh *MemoryHandler) handleGet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, _ := req.RequireString("memory_id")
	m, err := mh.client.GetMemory(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to get memory: %v", err)), nil
	}
	b, _ := json.MarshalIndent(m, "", "  ")
	return mcp.NewToolResultText(string(b)), nil
}

func (mh *MemoryHandler) handleDelete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, _ := req.RequireString("memory_id")
	if err := mh.client.DeleteMemory(ctx, id); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to delete memory: %v", err)), nil
	}
	mh.resync(ctx, refresh.ReasonDelete)
	return mcp.NewToolResultText("Memory deleted"), nil
}

func (mh *MemoryHandler) handleUpdate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, _ := req.RequireString("memory_id")
	content, _ := req.RequireString("content")
	if strings.TrimSpace(content) == "" {
		return mcp.NewToolResultError("content is required"), nil
	}
	if err := mh.client.UpdateMemory(ctx, id, content); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to update memory: %v", err)), nil
	}
	mh.resync(ctx, refresh.ReasonUpdate)
	return mcp.NewToolResultText("Memory updated"), nil
}

func (mh *MemoryHandler) resync(ctx context.Context, reason refresh.Reason) {
	if err := mh.refresher.Trigger(ctx, reason); err != nil {
		log.Debug().Err(err).Str("reason", string(reason)).Msg("refresh after mutation failed")
	}
}
