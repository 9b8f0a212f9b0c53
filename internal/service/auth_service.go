package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/storefront-service/internal/auth"
	"github.com/spec-kit/storefront-service/internal/config"
	"github.com/spec-kit/storefront-service/internal/domain"
	"github.com/spec-kit/storefront-service/internal/events"
	"github.com/spec-kit/storefront-service/internal/repository"
	apperrors "github.com/spec-kit/storefront-service/pkg/util"
)

// AuthService coordinates registration, login and session flows.
type AuthService struct {
	users      repository.UserRepository
	sessions   *auth.SessionManager
	hasher     *auth.PasswordHasher
	dispatcher events.Dispatcher
}

// AuthDependencies encapsulates collaborator requirements for auth service.
type AuthDependencies struct {
	UserRepo   repository.UserRepository
	Dispatcher events.Dispatcher
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL(), cfg.Auth.RefreshTokenTTL())
	return &AuthService{
		users:      deps.UserRepo,
		sessions:   auth.NewSessionManager(tokens, deps.UserRepo),
		hasher:     auth.NewPasswordHasher(cfg.Auth.BcryptCost),
		dispatcher: deps.Dispatcher,
	}
}

// Sessions exposes the session manager for middleware wiring.
func (s *AuthService) Sessions() *auth.SessionManager {
	return s.sessions
}

// Register creates a new customer account and opens a session. New accounts
// always start as CUSTOMER; role elevation is a separate super-admin flow.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (*domain.User, *auth.TokenPair, error) {
	strength := auth.ScoreStrength(password)
	if !strength.IsValid {
		return nil, nil, apperrors.NewValidationError("password too weak", map[string]any{
			"password": strength.Errors,
		})
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, nil, apperrors.NewConflict("email already registered", nil)
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, nil, err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, nil, err
	}

	user := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         domain.RoleCustomer,
		Status:       domain.UserStatusActive,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, nil, err
	}

	pair, err := s.sessions.Create(user)
	if err != nil {
		return nil, nil, err
	}

	s.publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventUserRegistered,
		SubjectID: user.ID,
		UserID:    user.ID,
		Timestamp: time.Now(),
		Payload:   events.UserRegisteredPayload{Email: user.Email, Role: user.Role},
	})

	return user, pair, nil
}

// Login authenticates by email and password. The unauthorized response is
// identical for an unknown email and a wrong password.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, *auth.TokenPair, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, nil, err
	}
	if user.Status != domain.UserStatusActive {
		return nil, nil, apperrors.NewUnauthorized("invalid credentials")
	}

	ok, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		return nil, nil, apperrors.NewUnauthorized("invalid credentials")
	}

	pair, err := s.sessions.Create(user)
	if err != nil {
		return nil, nil, err
	}
	return user, pair, nil
}

// Refresh exchanges a valid refresh token for a fresh pair.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*domain.User, *auth.TokenPair, error) {
	user, pair, err := s.sessions.Refresh(ctx, refreshToken)
	if err != nil {
		return nil, nil, err
	}
	if user == nil {
		return nil, nil, apperrors.NewUnauthorized("invalid credentials")
	}
	return user, pair, nil
}

// SessionExpiry reports the expiry carried in a token without verifying it.
// Diagnostic only; authorization always goes through the session manager.
func (s *AuthService) SessionExpiry(token string) (time.Time, error) {
	claims, err := s.sessions.Tokens().DecodeUnverified(token)
	if err != nil || claims.ExpiresAt == nil {
		return time.Time{}, apperrors.NewValidationError("unreadable token", nil)
	}
	return claims.ExpiresAt.Time, nil
}

// ChangePassword verifies the current password before storing a new hash.
func (s *AuthService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	strength := auth.ScoreStrength(newPassword)
	if !strength.IsValid {
		return apperrors.NewValidationError("password too weak", map[string]any{
			"password": strength.Errors,
		})
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	ok, err := s.hasher.Verify(currentPassword, user.PasswordHash)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.NewUnauthorized("invalid credentials")
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	return s.users.Update(ctx, user)
}

func (s *AuthService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, event)
}
