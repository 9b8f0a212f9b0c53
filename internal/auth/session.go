package auth

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/storefront-service/internal/domain"
	"github.com/spec-kit/storefront-service/internal/repository"
)

// TokenPair bundles the tokens issued for a session.
type TokenPair struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
}

// SessionManager produces and validates stateless sessions. No server-side
// session record exists; all state lives in the token plus a fresh user
// lookup on every validation.
type SessionManager struct {
	tokens *TokenManager
	users  repository.UserRepository
}

// NewSessionManager builds the manager.
func NewSessionManager(tokens *TokenManager, users repository.UserRepository) *SessionManager {
	return &SessionManager{tokens: tokens, users: users}
}

// Tokens exposes the underlying token manager.
func (m *SessionManager) Tokens() *TokenManager {
	return m.tokens
}

// Create issues a fresh access/refresh pair for the user.
func (m *SessionManager) Create(user *domain.User) (*TokenPair, error) {
	access, accessExp, err := m.tokens.Sign(user.ID, user.Email, TokenKindAccess)
	if err != nil {
		return nil, err
	}
	refresh, refreshExp, err := m.tokens.Sign(user.ID, user.Email, TokenKindRefresh)
	if err != nil {
		return nil, err
	}
	return &TokenPair{
		AccessToken:      access,
		AccessExpiresAt:  accessExp,
		RefreshToken:     refresh,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// Validate verifies an access token and re-fetches the user to confirm the
// account still exists. Verification failures and missing or suspended users
// return (nil, nil): they are expected traffic, not errors. A non-nil error
// means the user store failed and the request must be rejected, never passed.
func (m *SessionManager) Validate(ctx context.Context, token string) (*domain.User, error) {
	claims, err := m.tokens.Verify(token, TokenKindAccess)
	if err != nil {
		return nil, nil
	}

	user, err := m.users.GetByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if user.Status != domain.UserStatusActive {
		return nil, nil
	}
	return user, nil
}

// Refresh validates a refresh token and issues a new pair for the same user.
// The old tokens are not invalidated; they remain usable until their own
// expiry, a documented limitation of the stateless design.
func (m *SessionManager) Refresh(ctx context.Context, refreshToken string) (*domain.User, *TokenPair, error) {
	claims, err := m.tokens.Verify(refreshToken, TokenKindRefresh)
	if err != nil {
		return nil, nil, nil
	}

	user, err := m.users.GetByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, nil
		}
		return nil, nil, err
	}
	if user.Status != domain.UserStatusActive {
		return nil, nil, nil
	}

	pair, err := m.Create(user)
	if err != nil {
		return nil, nil, err
	}
	return user, pair, nil
}
