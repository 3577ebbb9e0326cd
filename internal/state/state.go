// Package state provides the durable key-value port the agent persists its
// small JSON-serializable values through: enabled flags, cadences, the
// last-run ledger and the history list.
package state

import "context"

// Store is the durable key-value contract. Values are JSON documents; Load
// returns domain.ErrNotFound when the key is absent.
type Store interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}
