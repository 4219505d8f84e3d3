package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/VelixarAi/velixar-client/client/internal/types"
)

// DefaultListLimit is used when ListMemories is called with limit <= 0.
const DefaultListLimit = 50

// StoreMemory creates a new memory.
func StoreMemory(ctx context.Context, httpClient types.HTTPClient, baseURL string, req types.StoreMemoryRequest) (*types.StoreMemoryResponse, error) {
	if err := types.ValidateContent(req.Content); err != nil {
		return nil, err
	}
	var out types.StoreMemoryResponse
	if err := do(ctx, httpClient, "store memory", http.MethodPost, baseURL+"/memory", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListMemories retrieves up to limit memories.
func ListMemories(ctx context.Context, httpClient types.HTTPClient, baseURL string, limit int) (*types.MemoriesResponse, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	u := fmt.Sprintf("%s/memory/list?limit=%d", baseURL, limit)
	var out types.MemoriesResponse
	if err := do(ctx, httpClient, "list memories", http.MethodGet, u, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetMemory retrieves a specific memory.
func GetMemory(ctx context.Context, httpClient types.HTTPClient, baseURL, memoryID string) (*types.Memory, error) {
	if err := types.ValidateIDPresent(memoryID, "memoryId"); err != nil {
		return nil, err
	}
	var mem types.Memory
	if err := do(ctx, httpClient, "get memory", http.MethodGet, memoryURL(baseURL, memoryID), nil, &mem); err != nil {
		return nil, err
	}
	return &mem, nil
}

// DeleteMemory deletes a specific memory.
func DeleteMemory(ctx context.Context, httpClient types.HTTPClient, baseURL, memoryID string) error {
	if err := types.ValidateIDPresent(memoryID, "memoryId"); err != nil {
		return err
	}
	return do(ctx, httpClient, "delete memory", http.MethodDelete, memoryURL(baseURL, memoryID), nil, nil)
}

// UpdateMemory replaces the content of a memory. There is no field-level patch.
func UpdateMemory(ctx context.Context, httpClient types.HTTPClient, baseURL, memoryID, content string) error {
	if err := types.ValidateIDPresent(memoryID, "memoryId"); err != nil {
		return err
	}
	if err := types.ValidateContent(content); err != nil {
		return err
	}
	return do(ctx, httpClient, "update memory", http.MethodPatch, memoryURL(baseURL, memoryID), types.UpdateMemoryRequest{Content: content}, nil)
}

func memoryURL(baseURL, memoryID string) string {
	return baseURL + "/memory/" + url.PathEscape(memoryID)
}
