// Package store holds the per-user cache entry abstraction.
package store

import (
	"context"

	"github.com/vipul43/jobtrail/internal/models"
)

// UpdateFunc computes the next entry from the current one, which is nil when
// the user has none. Returning a nil entry with a nil error writes nothing.
type UpdateFunc func(current *models.CacheEntry) (*models.CacheEntry, error)

// Store persists one CacheEntry per user identity. Update is the only
// read-modify-write path: implementations hold an exclusive per-user lock
// from the read until the write completes.
type Store interface {
	// Load returns nil when no usable entry exists
	Load(ctx context.Context, userID string) (*models.CacheEntry, error)
	Update(ctx context.Context, userID string, fn UpdateFunc) (*models.CacheEntry, error)
	Delete(ctx context.Context, userID string) error
}
