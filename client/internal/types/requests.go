package types

// ------------------------------
// Request Types
// ------------------------------

// StoreMemoryRequest holds parameters for a new memory.
type StoreMemoryRequest struct {
	Content string   `json:"content"`
	Tier    *Tier    `json:"tier,omitempty"`
	Tags    []string `json:"tags,omitempty"`
}

// UpdateMemoryRequest replaces the content of a memory wholesale.
type UpdateMemoryRequest struct {
	Content string `json:"content"`
}
