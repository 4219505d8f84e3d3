// Package credential stores the single Velixar API key.
//
// The key is a process-wide value: concurrent reads are safe and a write
// replaces it whole, so no caller ever observes a partially written key.
package credential

import (
	"context"
	"errors"
	"strings"
	"sync"
)

// KeyName is the secret name the API key is stored under.
const KeyName = "velixar.apiKey"

// KeyPrefix is the conventional prefix of Velixar API keys.
const KeyPrefix = "vlx_"

// ErrInvalidKey is returned by ValidateAPIKey for keys without the vlx_ prefix.
var ErrInvalidKey = errors.New("Key must start with vlx_")

// Store persists the API key. Get returns "" when no key is set.
type Store interface {
	Get(ctx context.Context) (string, error)
	Set(ctx context.Context, key string) error
	Delete(ctx context.Context) error
}

// ValidateAPIKey is the input-time check applied when a user first enters a
// key. The server does not enforce the prefix.
func ValidateAPIKey(key string) error {
	if !strings.HasPrefix(key, KeyPrefix) {
		return ErrInvalidKey
	}
	return nil
}

// MemoryStore keeps the key in process memory.
type MemoryStore struct {
	mu  sync.RWMutex
	key string
}

// NewMemoryStore returns a store pre-populated with key ("" for none).
func NewMemoryStore(key string) *MemoryStore {
	return &MemoryStore{key: key}
}

func (s *MemoryStore) Get(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.key, nil
}

func (s *MemoryStore) Set(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	s.key = key
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context) error {
	return s.Set(ctx, "")
}
