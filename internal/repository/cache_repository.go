package repository

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/vipul43/jobtrail/internal/models"
	"github.com/vipul43/jobtrail/internal/store"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CacheRepository is the Postgres-backed store.Store. Read-modify-write cycles
// for one user are serialized with a transaction-scoped advisory lock, so
// concurrent workers cannot interleave.
type CacheRepository struct {
	db *gorm.DB
}

var _ store.Store = (*CacheRepository)(nil)

func NewCacheRepository(db *gorm.DB) *CacheRepository {
	return &CacheRepository{db: db}
}

// Load returns the user's entry, or nil when there is none or it cannot be decoded
func (r *CacheRepository) Load(ctx context.Context, userID string) (*models.CacheEntry, error) {
	return r.load(r.db.WithContext(ctx), userID)
}

func (r *CacheRepository) load(db *gorm.DB, userID string) (*models.CacheEntry, error) {
	var entry models.CacheEntry
	result := db.Where("user_id = ?", userID).Take(&entry)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		if err := db.Statement.Context.Err(); err != nil {
			return nil, err
		}
		// an unreadable row is refetched rather than failing the run
		log.Printf("Warning: treating unreadable cache entry for %s as empty: %v", userID, result.Error)
		return nil, nil
	}
	return &entry, nil
}

// Update runs fn against the current entry inside one transaction and upserts the result
func (r *CacheRepository) Update(ctx context.Context, userID string, fn store.UpdateFunc) (*models.CacheEntry, error) {
	var saved *models.CacheEntry

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", userID).Error; err != nil {
			return fmt.Errorf("failed to lock cache entry: %w", err)
		}

		current, err := r.load(tx, userID)
		if err != nil {
			return err
		}

		next, err := fn(current.Clone())
		if err != nil {
			return err
		}
		if next == nil {
			saved = current
			return nil
		}

		next.UserID = userID
		if current != nil {
			next.CreatedAt = current.CreatedAt
		}

		result := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			UpdateAll: true,
		}).Create(next)
		if result.Error != nil {
			return fmt.Errorf("failed to save cache entry: %w", result.Error)
		}
		saved = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}

// Delete removes the user's entry
func (r *CacheRepository) Delete(ctx context.Context, userID string) error {
	result := r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.CacheEntry{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete cache entry: %w", result.Error)
	}
	return nil
}
