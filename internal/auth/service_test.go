package auth

import (
	"context"
	"testing"
	"time"

	"github.com/aslanbek/filevault/internal/config"
	"github.com/google/uuid"
)

func testConfig() (config.AuthConfig, config.QuotaConfig) {
	return config.AuthConfig{
			SessionSecret:     "session-secret",
			AccessTokenSecret: "access-secret",
			AccessTokenTTL:    time.Minute,
			SessionTTL:        time.Hour,
			BcryptCost:        4,
		}, config.QuotaConfig{
			FreeLimitBytes:    5 << 30,
			PremiumLimitBytes: 50 << 30,
		}
}

func TestRegisterThenLogin(t *testing.T) {
	store := newMemoryStore()
	dirs := &fakeProvisioner{}
	authCfg, quotaCfg := testConfig()
	service := NewService(store, dirs, authCfg, quotaCfg)

	user, err := service.Register(context.Background(), RegisterInput{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "StrongPass1!",
	})
	if err != nil {
		t.Fatalf("register returned error: %v", err)
	}
	if user.PasswordHash != "" {
		t.Fatalf("expected password hash stripped from response")
	}
	if user.Plan != "free" || user.StorageLimit != 5<<30 {
		t.Fatalf("expected free plan defaults, got %s/%d", user.Plan, user.StorageLimit)
	}
	if len(dirs.prefixes) != 1 || dirs.prefixes[0] != user.ID.String() {
		t.Fatalf("expected storage root provisioned for %s, got %v", user.ID, dirs.prefixes)
	}

	result, err := service.Login(context.Background(), LoginInput{
		Username: "alice",
		Password: "StrongPass1!",
	})
	if err != nil {
		t.Fatalf("login returned error: %v", err)
	}
	if result.User.ID != user.ID {
		t.Fatalf("login returned user %s, registered %s", result.User.ID, user.ID)
	}
	if result.SessionToken == "" || result.AccessToken == "" {
		t.Fatalf("expected session and access tokens")
	}
}

func TestRegisterDuplicateUsername(t *testing.T) {
	store := newMemoryStore()
	dirs := &fakeProvisioner{}
	authCfg, quotaCfg := testConfig()
	service := NewService(store, dirs, authCfg, quotaCfg)

	_, err := service.Register(context.Background(), RegisterInput{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "StrongPass1!",
	})
	if err != nil {
		t.Fatalf("initial registration returned error: %v", err)
	}

	_, err = service.Register(context.Background(), RegisterInput{
		Username: "alice",
		Email:    "other@example.com",
		Password: "AnotherPass2!",
	})
	if err != ErrUserExists {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}

	if len(store.users) != 1 {
		t.Fatalf("expected no user inserted on conflict, got %d", len(store.users))
	}
	if len(dirs.prefixes) != 1 {
		t.Fatalf("expected no directory provisioned on conflict, got %v", dirs.prefixes)
	}
}

func TestLoginFailuresAreUniform(t *testing.T) {
	store := newMemoryStore()
	authCfg, quotaCfg := testConfig()
	service := NewService(store, &fakeProvisioner{}, authCfg, quotaCfg)

	_, err := service.Register(context.Background(), RegisterInput{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "StrongPass1!",
	})
	if err != nil {
		t.Fatalf("register returned error: %v", err)
	}

	_, badPass := service.Login(context.Background(), LoginInput{Username: "alice", Password: "WrongPass1!"})
	_, noUser := service.Login(context.Background(), LoginInput{Username: "nobody", Password: "WrongPass1!"})

	if badPass != ErrInvalidCredentials || noUser != ErrInvalidCredentials {
		t.Fatalf("expected uniform ErrInvalidCredentials, got %v and %v", badPass, noUser)
	}
}

func TestSessionLifecycle(t *testing.T) {
	store := newMemoryStore()
	authCfg, quotaCfg := testConfig()
	service := NewService(store, &fakeProvisioner{}, authCfg, quotaCfg)

	user, err := service.Register(context.Background(), RegisterInput{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "StrongPass1!",
	})
	if err != nil {
		t.Fatalf("register returned error: %v", err)
	}

	result, err := service.Login(context.Background(), LoginInput{Username: "alice", Password: "StrongPass1!"})
	if err != nil {
		t.Fatalf("login returned error: %v", err)
	}

	userID, err := service.ValidateSession(context.Background(), result.SessionToken)
	if err != nil {
		t.Fatalf("validate session returned error: %v", err)
	}
	if userID != user.ID {
		t.Fatalf("session resolved to %s, want %s", userID, user.ID)
	}

	if err := service.Logout(context.Background(), result.SessionToken); err != nil {
		t.Fatalf("logout returned error: %v", err)
	}
	if _, err := service.ValidateSession(context.Background(), result.SessionToken); err != ErrUnauthorized {
		t.Fatalf("expected ErrUnauthorized after logout, got %v", err)
	}
}

func TestValidateAccessToken(t *testing.T) {
	store := newMemoryStore()
	authCfg, quotaCfg := testConfig()
	service := NewService(store, &fakeProvisioner{}, authCfg, quotaCfg)

	user, err := service.Register(context.Background(), RegisterInput{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "StrongPass1!",
	})
	if err != nil {
		t.Fatalf("register returned error: %v", err)
	}

	result, err := service.Login(context.Background(), LoginInput{Username: "alice", Password: "StrongPass1!"})
	if err != nil {
		t.Fatalf("login returned error: %v", err)
	}

	userID, err := service.ValidateAccessToken(result.AccessToken)
	if err != nil {
		t.Fatalf("validate access token returned error: %v", err)
	}
	if userID != user.ID {
		t.Fatalf("token resolved to %s, want %s", userID, user.ID)
	}

	if _, err := service.ValidateAccessToken("not-a-token"); err != ErrUnauthorized {
		t.Fatalf("expected ErrUnauthorized for garbage token, got %v", err)
	}
}

// --- fakes ---

type memoryStore struct {
	users    map[uuid.UUID]User
	sessions map[string]Session
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		users:    make(map[uuid.UUID]User),
		sessions: make(map[string]Session),
	}
}

func (m *memoryStore) CreateUser(ctx context.Context, username, email, passwordHash, plan string, storageLimit int64) (User, error) {
	for _, u := range m.users {
		if u.Username == username || u.Email == email {
			return User{}, ErrUserExists
		}
	}
	user := User{
		ID:           uuid.New(),
		Username:     username,
		Email:        email,
		Plan:         plan,
		StorageLimit: storageLimit,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now(),
	}
	m.users[user.ID] = user
	return user, nil
}

func (m *memoryStore) FindUserByUsername(ctx context.Context, username string) (User, error) {
	for _, u := range m.users {
		if u.Username == username {
			return u, nil
		}
	}
	return User{}, ErrUserNotFound
}

func (m *memoryStore) FindUserByID(ctx context.Context, id uuid.UUID) (User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return User{}, ErrUserNotFound
}

func (m *memoryStore) StoreSession(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) error {
	m.sessions[tokenHash] = Session{UserID: userID, TokenHash: tokenHash, ExpiresAt: expiresAt}
	return nil
}

func (m *memoryStore) FindSession(ctx context.Context, tokenHash string) (Session, error) {
	session, ok := m.sessions[tokenHash]
	if !ok || session.ExpiresAt.Before(time.Now()) {
		return Session{}, ErrUnauthorized
	}
	return session, nil
}

func (m *memoryStore) RevokeSession(ctx context.Context, tokenHash string) error {
	delete(m.sessions, tokenHash)
	return nil
}

type fakeProvisioner struct {
	prefixes []string
}

func (f *fakeProvisioner) EnsurePrefix(ctx context.Context, prefix string) error {
	f.prefixes = append(f.prefixes, prefix)
	return nil
}
