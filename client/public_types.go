package client

import "github.com/VelixarAi/velixar-client/client/internal/types"

// Public type aliases so SDK consumers can import only the client package.
type (
	// Requests
	StoreMemoryRequest  = types.StoreMemoryRequest
	UpdateMemoryRequest = types.UpdateMemoryRequest

	// Domain entities
	Memory    = types.Memory
	Tier      = types.Tier
	Timestamp = types.Timestamp

	// Responses
	StoreMemoryResponse = types.StoreMemoryResponse
	MemoriesResponse    = types.MemoriesResponse
	HealthResponse      = types.HealthResponse

	// CredentialSource yields the current API key; "" means none configured.
	CredentialSource = types.CredentialSource
)

const (
	TierPinned       = types.TierPinned
	TierSession      = types.TierSession
	TierSemantic     = types.TierSemantic
	TierOrganization = types.TierOrganization
)

// TierPtr returns a pointer to t, for building requests.
func TierPtr(t Tier) *Tier { return types.TierPtr(t) }

// ParseTimestamp reads an ISO-8601 created_at value.
func ParseTimestamp(s string) (Timestamp, bool) { return types.ParseTimestamp(s) }
