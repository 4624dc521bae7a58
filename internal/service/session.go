package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/vipul43/jobtrail/internal/models"
	"github.com/vipul43/jobtrail/internal/repository"
)

// AccountStore interface for dependency injection
type AccountStore interface {
	GetByUserID(ctx context.Context, userID string) (*models.Account, error)
	UpdateTokens(ctx context.Context, accountID string, accessToken string, refreshToken string, accessTokenExpiresAt time.Time) error
}

// SessionManager opens mailboxes from stored OAuth accounts, refreshing the
// access token when it is about to expire
type SessionManager struct {
	accounts AccountStore
	client   MailClient
	now      func() time.Time
}

func NewSessionManager(accounts AccountStore, client MailClient) *SessionManager {
	return &SessionManager{
		accounts: accounts,
		client:   client,
		now:      time.Now,
	}
}

// Open returns a Mailbox for userID. Every failure to obtain a working token
// is reported as ErrNotAuthenticated.
func (m *SessionManager) Open(ctx context.Context, userID string) (Mailbox, error) {
	account, err := m.accounts.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return nil, fmt.Errorf("%w: no linked account for user %s", ErrNotAuthenticated, userID)
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	if !account.HasTokens() {
		return nil, fmt.Errorf("%w: account %s missing tokens", ErrNotAuthenticated, account.ID)
	}

	accessToken := *account.AccessToken
	if account.AccessTokenExpired(m.now()) {
		log.Printf("Access token expired for account %s, refreshing...", account.ID)
		accessToken, err = m.refreshToken(ctx, account)
		if err != nil {
			return nil, err
		}
	}

	return &mailbox{client: m.client, accessToken: accessToken}, nil
}

func (m *SessionManager) refreshToken(ctx context.Context, account *models.Account) (string, error) {
	result, err := m.client.RefreshAccessToken(ctx, *account.RefreshToken)
	if err != nil {
		return "", fmt.Errorf("%w: failed to refresh token: %w", ErrNotAuthenticated, err)
	}

	refreshToken := result.RefreshToken
	if refreshToken == "" {
		refreshToken = *account.RefreshToken
	}

	err = m.accounts.UpdateTokens(ctx, account.ID, result.AccessToken, refreshToken, result.ExpiresAt)
	if err != nil {
		return "", fmt.Errorf("failed to update tokens in database: %w", err)
	}

	log.Printf("Token refreshed for account %s, expires at %s", account.ID, result.ExpiresAt)

	return result.AccessToken, nil
}

type mailbox struct {
	client      MailClient
	accessToken string

	mu       sync.Mutex
	identity string
}

func (b *mailbox) Search(ctx context.Context, query string) (*SearchResult, error) {
	return b.client.Search(ctx, b.accessToken, query)
}

// Identity is the mailbox address, looked up once and remembered
func (b *mailbox) Identity(ctx context.Context) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.identity != "" {
		return b.identity, nil
	}

	email, err := b.client.GetProfileEmail(ctx, b.accessToken)
	if err != nil {
		return "", fmt.Errorf("failed to get mailbox identity: %w", err)
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", fmt.Errorf("%w: mailbox has no address", ErrNotAuthenticated)
	}
	b.identity = email
	return email, nil
}
