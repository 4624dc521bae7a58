package store

import (
	"context"
	"sync"
	"time"

	"github.com/vipul43/jobtrail/internal/models"
)

// Memory is an in-process Store. Entries are copied on the way in and out.
type Memory struct {
	locks   *KeyedMutex
	mu      sync.RWMutex
	entries map[string]*models.CacheEntry
	now     func() time.Time
}

// NewMemory creates an empty in-memory store
func NewMemory() *Memory {
	return &Memory{
		locks:   NewKeyedMutex(),
		entries: make(map[string]*models.CacheEntry),
		now:     time.Now,
	}
}

// Load implements Store
func (m *Memory) Load(ctx context.Context, userID string) (*models.CacheEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.entries[userID].Clone(), nil
}

// Update implements Store
func (m *Memory) Update(ctx context.Context, userID string, fn UpdateFunc) (*models.CacheEntry, error) {
	unlock := m.locks.Lock(userID)
	defer unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	current, _ := m.Load(ctx, userID)
	next, err := fn(current.Clone())
	if err != nil {
		return nil, err
	}
	if next == nil {
		return current, nil
	}

	saved := next.Clone()
	saved.UserID = userID
	saved.Recount()
	now := m.now()
	if current != nil {
		saved.CreatedAt = current.CreatedAt
	} else {
		saved.CreatedAt = now
	}
	saved.UpdatedAt = now

	m.mu.Lock()
	m.entries[userID] = saved
	m.mu.Unlock()

	return saved.Clone(), nil
}

// Delete implements Store
func (m *Memory) Delete(ctx context.Context, userID string) error {
	unlock := m.locks.Lock(userID)
	defer unlock()

	m.mu.Lock()
	delete(m.entries, userID)
	m.mu.Unlock()
	return nil
}
