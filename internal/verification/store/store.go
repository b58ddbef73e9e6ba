package store

import (
	"context"
	"time"

	"agegate/internal/verification/models"
)

// Error Contract:
// All store methods follow this pattern:
// - Get returns sentinel.ErrNotFound (wrapped) for unknown or expired ids
// - Delete is idempotent and succeeds for absent ids
// - Infrastructure failures (Redis connectivity etc.) are returned wrapped
//   with context

// Store maps opaque verification ids to records. The in-process map is one
// conforming implementation; a keyed store with native TTL (Redis) is
// another. Callers depend on this interface, never the map.
type Store interface {
	// Put generates an unguessable id, inserts the record, and returns the
	// id. Existing ids are never overwritten.
	Put(ctx context.Context, record models.Record) (string, error)

	// Get performs the TTL check at read time. Expired entries are deleted
	// as a side effect and reported as not found.
	Get(ctx context.Context, id string, now time.Time) (models.Record, error)

	// Delete removes a record. Deleting an absent id is not an error.
	Delete(ctx context.Context, id string) error
}
