package types

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

// ------------------------------
// Shared Interfaces
// ------------------------------

// HTTPClient interface for dependency injection
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// CredentialSource yields the current API key; "" means none configured.
type CredentialSource interface {
	Get(ctx context.Context) (string, error)
}

// ------------------------------
// Validation
// ------------------------------

// ValidateIDPresent rejects empty or whitespace-only identifiers.
func ValidateIDPresent(id, field string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%s is required", field)
	}
	return nil
}

// ValidateContent rejects empty memory content.
func ValidateContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return fmt.Errorf("content is required")
	}
	return nil
}
