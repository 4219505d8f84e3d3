package handlers

import (
	"context"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/VelixarAi/velixar-client/internal/health"
	"github.com/VelixarAi/velixar-client/internal/view"
)

// HealthSource refreshes and reports the health snapshot.
type HealthSource interface {
	Refresh(ctx context.Context)
	Snapshot() health.Snapshot
}

// StatusHandler exposes the memory_status tool.
type StatusHandler struct {
	health HealthSource
}

func NewStatusHandler(h HealthSource) *StatusHandler { return &StatusHandler{health: h} }

func (sh *StatusHandler) RegisterTools(s *server.MCPServer) error {
	status := mcp.NewTool("memory_status",
		mcp.WithDescription("Report API key, API, vector store and cache status"),
	)
	s.AddTool(status, sh.handleStatus)
	return nil
}

func (sh *StatusHandler) handleStatus(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sh.health.Refresh(ctx)
	var b strings.Builder
	if err := view.RenderStatus(&b, view.StatusRows(sh.health.Snapshot())); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(b.String()), nil
}
