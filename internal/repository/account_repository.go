package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vipul43/jobtrail/internal/models"
	"gorm.io/gorm"
)

var ErrAccountNotFound = errors.New("account not found")

// AccountRepository reads the OAuth accounts linked through the web sign-in
// flow. The account table belongs to that front end; this side only reads
// rows and writes back refreshed tokens.
type AccountRepository struct {
	db *gorm.DB
}

func NewAccountRepository(db *gorm.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// GetByUserID retrieves the user's most recently updated Google account
func (r *AccountRepository) GetByUserID(ctx context.Context, userID string) (*models.Account, error) {
	var account models.Account
	result := r.db.WithContext(ctx).
		Where(`"userId" = ? AND "providerId" = ?`, userID, models.ProviderGoogle).
		Order(`"updatedAt" DESC`).
		First(&account)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get account: %w", result.Error)
	}
	return &account, nil
}

// UpdateTokens updates access token, refresh token, and their expiry times
func (r *AccountRepository) UpdateTokens(ctx context.Context, accountID string, accessToken string, refreshToken string, accessTokenExpiresAt time.Time) error {
	result := r.db.WithContext(ctx).Model(&models.Account{}).
		Where("id = ?", accountID).
		Updates(map[string]interface{}{
			"accessToken":          accessToken,
			"refreshToken":         refreshToken,
			"accessTokenExpiresAt": accessTokenExpiresAt,
			"updatedAt":            time.Now(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update tokens: %w", result.Error)
	}
	return nil
}
