package types

// ------------------------------
// Response Types
// ------------------------------

// StoreMemoryResponse is returned by POST /memory.
type StoreMemoryResponse struct {
	ID string `json:"id"`
}

// MemoriesResponse wraps the list and search endpoints. Count may exceed
// len(Memories) when the server caps the returned rows.
type MemoriesResponse struct {
	Memories []Memory `json:"memories"`
	Count    int      `json:"count"`
}

// HealthResponse mirrors GET /health.
type HealthResponse struct {
	Status string `json:"status"`
	Qdrant bool   `json:"qdrant"`
	Redis  bool   `json:"redis"`
}

// Healthy reports whether the API declared itself healthy.
func (h HealthResponse) Healthy() bool { return h.Status == "healthy" }
