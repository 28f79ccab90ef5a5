/*
Package kv defines the key-value capability the fee engine persists through.

PURPOSE:
  The stores in fees and access own their collections in memory and write
  them through wholesale after every mutation. Persistence itself is opaque:
  anything that can Get, Set and Remove a value by key will do.

IMPLEMENTATIONS:
  - kv.Memory:          in-memory map (tests, ephemeral runs)
  - store/sqlite.Store: single-table SQLite backend (production)

VALUES:
  Values are raw bytes. Stores encode their collections as JSON with
  SaveJSON/LoadJSON so every backend sees the same documents.

SEE ALSO:
  - fees/roster.go, access/identity.go: the two callers
  - store/sqlite/sqlite.go: durable backend
*/
package kv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNotFound is returned by Get when the key holds no value.
var ErrNotFound = errors.New("key not found")

// Store is the get/set/remove capability.
type Store interface {
	// Get returns the value stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error

	// Remove deletes key. Removing a missing key is not an error.
	Remove(ctx context.Context, key string) error
}

// LoadJSON decodes the document under key into v.
// It reports false, with v untouched, when the key is absent.
func LoadJSON(ctx context.Context, s Store, key string, v any) (bool, error) {
	raw, err := s.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

// SaveJSON encodes v and stores it under key.
func SaveJSON(ctx context.Context, s Store, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := s.Set(ctx, key, raw); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}
