package models

import "time"

// Google provider id as written by the auth front end
const ProviderGoogle = "google"

// tokenExpiryMargin treats tokens this close to expiry as already expired
const tokenExpiryMargin = 5 * time.Minute

// Account is the OAuth account linking a user to their mailbox.
// Column names use camelCase to match the auth front end's schema.
type Account struct {
	ID                   string     `gorm:"column:id;primaryKey"`
	AccountID            string     `gorm:"column:accountId"`
	ProviderID           string     `gorm:"column:providerId"`
	UserID               string     `gorm:"column:userId"`
	AccessToken          *string    `gorm:"column:accessToken"`
	RefreshToken         *string    `gorm:"column:refreshToken"`
	AccessTokenExpiresAt *time.Time `gorm:"column:accessTokenExpiresAt"`
	Scope                *string    `gorm:"column:scope"`
	CreatedAt            time.Time  `gorm:"column:createdAt"`
	UpdatedAt            time.Time  `gorm:"column:updatedAt"`
}

// TableName specifies the table name for GORM
func (Account) TableName() string {
	return "account"
}

// HasTokens reports whether both OAuth tokens are present
func (a *Account) HasTokens() bool {
	return a != nil &&
		a.AccessToken != nil && *a.AccessToken != "" &&
		a.RefreshToken != nil && *a.RefreshToken != ""
}

// AccessTokenExpired reports whether the access token is expired or expires
// within the safety margin. A missing expiry counts as expired.
func (a *Account) AccessTokenExpired(now time.Time) bool {
	if a.AccessTokenExpiresAt == nil {
		return true
	}
	return now.Add(tokenExpiryMargin).After(*a.AccessTokenExpiresAt)
}
