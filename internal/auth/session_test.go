package auth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/storefront-service/internal/domain"
)

// memoryUserRepository is an in-memory stand-in for the Postgres-backed
// repository, mirroring its pgx.ErrNoRows contract.
type memoryUserRepository struct {
	mu      sync.Mutex
	users   map[string]*domain.User
	failure error
	nextID  int
}

func newMemoryUserRepository() *memoryUserRepository {
	return &memoryUserRepository{users: make(map[string]*domain.User)}
}

func (r *memoryUserRepository) Create(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failure != nil {
		return r.failure
	}
	r.nextID++
	user.ID = "user-" + string(rune('0'+r.nextID))
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *memoryUserRepository) Update(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failure != nil {
		return r.failure
	}
	if _, ok := r.users[user.ID]; !ok {
		return pgx.ErrNoRows
	}
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *memoryUserRepository) UpdateRole(ctx context.Context, id string, role domain.Role) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failure != nil {
		return nil, r.failure
	}
	user, ok := r.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	user.Role = role
	clone := *user
	return &clone, nil
}

func (r *memoryUserRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failure != nil {
		return r.failure
	}
	if _, ok := r.users[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.users, id)
	return nil
}

func (r *memoryUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failure != nil {
		return nil, r.failure
	}
	user, ok := r.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *user
	return &clone, nil
}

func (r *memoryUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failure != nil {
		return nil, r.failure
	}
	for _, user := range r.users {
		if user.Email == email {
			clone := *user
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func seedUser(t *testing.T, repo *memoryUserRepository, status domain.UserStatus) *domain.User {
	t.Helper()
	user := &domain.User{
		Name:   "Test User",
		Email:  "test@example.com",
		Role:   domain.RoleCustomer,
		Status: status,
	}
	if err := repo.Create(context.Background(), user); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

func newTestSessionManager(repo *memoryUserRepository) *SessionManager {
	return NewSessionManager(newTestTokenManager(), repo)
}

func TestSessionManager_CreateAndValidate(t *testing.T) {
	repo := newMemoryUserRepository()
	user := seedUser(t, repo, domain.UserStatusActive)
	sessions := newTestSessionManager(repo)

	pair, err := sessions.Create(user)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := sessions.Validate(context.Background(), pair.AccessToken)
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if got == nil {
		t.Fatal("Validate() returned no user for a fresh session")
	}
	if got.ID != user.ID {
		t.Errorf("Validate() user ID = %v, want %v", got.ID, user.ID)
	}
}

func TestSessionManager_ValidateRejections(t *testing.T) {
	repo := newMemoryUserRepository()
	user := seedUser(t, repo, domain.UserStatusActive)
	sessions := newTestSessionManager(repo)

	pair, err := sessions.Create(user)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	t.Run("garbage token", func(t *testing.T) {
		got, err := sessions.Validate(context.Background(), "not-a-token")
		if err != nil || got != nil {
			t.Errorf("Validate(garbage) = (%v, %v), want (nil, nil)", got, err)
		}
	})

	t.Run("refresh token on validate", func(t *testing.T) {
		got, err := sessions.Validate(context.Background(), pair.RefreshToken)
		if err != nil || got != nil {
			t.Errorf("Validate(refresh token) = (%v, %v), want (nil, nil)", got, err)
		}
	})

	t.Run("deleted user with live token", func(t *testing.T) {
		if err := repo.Delete(context.Background(), user.ID); err != nil {
			t.Fatalf("delete user: %v", err)
		}
		got, err := sessions.Validate(context.Background(), pair.AccessToken)
		if err != nil || got != nil {
			t.Errorf("Validate(deleted user) = (%v, %v), want (nil, nil)", got, err)
		}
	})
}

func TestSessionManager_ValidateSuspendedUser(t *testing.T) {
	repo := newMemoryUserRepository()
	user := seedUser(t, repo, domain.UserStatusActive)
	sessions := newTestSessionManager(repo)

	pair, err := sessions.Create(user)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	user.Status = domain.UserStatusSuspended
	if err := repo.Update(context.Background(), user); err != nil {
		t.Fatalf("suspend user: %v", err)
	}

	got, err := sessions.Validate(context.Background(), pair.AccessToken)
	if err != nil || got != nil {
		t.Errorf("Validate(suspended user) = (%v, %v), want (nil, nil)", got, err)
	}
}

func TestSessionManager_ValidateStoreFailure(t *testing.T) {
	repo := newMemoryUserRepository()
	user := seedUser(t, repo, domain.UserStatusActive)
	sessions := newTestSessionManager(repo)

	pair, err := sessions.Create(user)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	// A store outage must surface as an error, never as an authenticated
	// pass or a silent rejection indistinguishable from a bad token.
	repo.failure = errors.New("connection refused")
	got, err := sessions.Validate(context.Background(), pair.AccessToken)
	if err == nil {
		t.Error("Validate() error = nil during store outage, want non-nil")
	}
	if got != nil {
		t.Error("Validate() returned a user during store outage")
	}
}

func TestSessionManager_Refresh(t *testing.T) {
	repo := newMemoryUserRepository()
	user := seedUser(t, repo, domain.UserStatusActive)
	sessions := newTestSessionManager(repo)

	pair, err := sessions.Create(user)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, next, err := sessions.Refresh(context.Background(), pair.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if got == nil || next == nil {
		t.Fatal("Refresh() returned nil user or pair for a valid refresh token")
	}
	if got.ID != user.ID {
		t.Errorf("Refresh() user ID = %v, want %v", got.ID, user.ID)
	}

	if validated, err := sessions.Validate(context.Background(), next.AccessToken); err != nil || validated == nil {
		t.Errorf("Validate(new access token) = (%v, %v), want user", validated, err)
	}
}

func TestSessionManager_RefreshRejectsAccessToken(t *testing.T) {
	repo := newMemoryUserRepository()
	user := seedUser(t, repo, domain.UserStatusActive)
	sessions := newTestSessionManager(repo)

	pair, err := sessions.Create(user)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, next, err := sessions.Refresh(context.Background(), pair.AccessToken)
	if got != nil || next != nil || err != nil {
		t.Errorf("Refresh(access token) = (%v, %v, %v), want (nil, nil, nil)", got, next, err)
	}
}
