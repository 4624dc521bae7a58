package service

import (
	"context"
	"errors"
	"time"

	"github.com/vipul43/jobtrail/internal/coverage"
	"github.com/vipul43/jobtrail/internal/models"
)

var (
	// ErrNotAuthenticated means the user has no usable mailbox session
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrInvalidRange means a requested window ends before it starts
	ErrInvalidRange = coverage.ErrInvalidRange
)

// SearchResult is every message a search collected. Partial is set when
// pagination stopped early; the messages gathered so far are still usable.
type SearchResult struct {
	Messages []models.Message
	Partial  bool
}

type TokenRefreshResult struct {
	AccessToken  string
	ExpiresAt    time.Time
	RefreshToken string // May be same or new
}

// MailClient is the message source API, addressed with a raw access token
type MailClient interface {
	Search(ctx context.Context, accessToken string, query string) (*SearchResult, error)
	GetProfileEmail(ctx context.Context, accessToken string) (string, error)
	RefreshAccessToken(ctx context.Context, refreshToken string) (*TokenRefreshResult, error)
}

// Mailbox is an authenticated view of one user's messages
type Mailbox interface {
	Search(ctx context.Context, query string) (*SearchResult, error)
	Identity(ctx context.Context) (string, error)
}

// MailboxOpener resolves a user to an authenticated Mailbox
type MailboxOpener interface {
	Open(ctx context.Context, userID string) (Mailbox, error)
}
