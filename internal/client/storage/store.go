// Package storage provides the key-value store the session manager persists
// its token and profile into.
//
// Two implementations are available: SQLiteStore, backed by a local SQLite
// file migrated with goose, and MemoryStore, used by tests and by callers
// that do not want anything to survive the process.
//
// Contract shared by all implementations:
//   - Get returns (nil, nil) when the key is absent.
//   - Delete of an absent key is not an error.
//   - SetAll and DeleteAll apply all keys or none.
package storage

import "context"

// Store is a small persistent key-value map.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error

	// SetAll writes every pair atomically.
	SetAll(ctx context.Context, values map[string][]byte) error
	// DeleteAll removes every key atomically.
	DeleteAll(ctx context.Context, keys ...string) error
}
