package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog/log"

	"github.com/VelixarAi/velixar-client/client"
)

// Searcher runs semantic search.
type Searcher interface {
	SearchMemories(ctx context.Context, query string, limit int) (*client.MemoriesResponse, error)
}

// SearchHandler exposes the search_memories tool.
type SearchHandler struct {
	client       Searcher
	defaultLimit int
}

func NewSearchHandler(c Searcher, defaultLimit int) *SearchHandler {
	if defaultLimit <= 0 {
		defaultLimit = 10
	}
	return &SearchHandler{client: c, defaultLimit: defaultLimit}
}

// RegisterTools registers the search_memories tool.
func (sh *SearchHandler) RegisterTools(s *server.MCPServer) error {
	searchTool := mcp.NewTool("search_memories",
		mcp.WithDescription("Semantic search across stored memories. Results are ordered by relevance and include id, content, tier, tags and score."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query text")),
		mcp.WithNumber("limit", mcp.Description("Number of results to return (1-100, default 10)")),
	)
	s.AddTool(searchTool, sh.handleSearch)
	return nil
}

func (sh *SearchHandler) handleSearch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil || query == "" {
		return mcp.NewToolResultError("query is required"), nil
	}

	limit := sh.defaultLimit
	if v, ok := req.GetArguments()["limit"].(float64); ok {
		if v >= 1 && v <= 100 {
			limit = int(v)
		}
	}

	log.Debug().Str("query", query).Int("limit", limit).Msg("search_memories invoked")

	start := time.Now()
	resp, err := sh.client.SearchMemories(ctx, query, limit)
	elapsed := time.Since(start)
	if err != nil {
		log.Error().Err(err).Dur("elapsed", elapsed).Msg("search_memories failed")
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}

	memories := resp.Memories
	if memories == nil {
		memories = []client.Memory{}
	}
	payload := map[string]interface{}{
		"memories": memories,
		"count":    resp.Count,
	}
	b, _ := json.MarshalIndent(payload, "", "  ")
	return mcp.NewToolResultText(string(b)), nil
}
