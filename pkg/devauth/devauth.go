// Package devauth provides development mode authentication constants.
// The fake memory API and the client share it for local runs.
package devauth

// APIKey is the development mode API key used for local testing.
// This key is intentionally obvious and should never be used in production.
const APIKey = "vlx_LOCAL_DEV_MODE_NOT_FOR_PRODUCTION"
