// Package kv provides a byte-oriented durable key-value store used for
// alert state persistence. Any backend satisfying Store works; callers
// treat load and save as best-effort.
package kv

import "context"

// Store defines durable key-value operations.
type Store interface {
	// Load returns the stored bytes for key, with ok=false on a miss.
	Load(ctx context.Context, key string) ([]byte, bool, error)
	// Save overwrites the bytes stored under key.
	Save(ctx context.Context, key string, value []byte) error
	// Delete removes keys.
	Delete(ctx context.Context, keys ...string) error
}
