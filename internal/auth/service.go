package auth

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aslanbek/filevault/internal/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	sessionTokenLength = 48
	maxPasswordLength  = 72 // bcrypt limit
	defaultPlan        = "free"
)

// userStore abstracts the persistence layer.
type userStore interface {
	CreateUser(ctx context.Context, username, email, passwordHash, plan string, storageLimit int64) (User, error)
	FindUserByUsername(ctx context.Context, username string) (User, error)
	FindUserByID(ctx context.Context, id uuid.UUID) (User, error)
	StoreSession(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) error
	FindSession(ctx context.Context, tokenHash string) (Session, error)
	RevokeSession(ctx context.Context, tokenHash string) error
}

// rootProvisioner creates the per-user storage prefix at registration time.
type rootProvisioner interface {
	EnsurePrefix(ctx context.Context, prefix string) error
}

// Service encapsulates identity and session use cases.
type Service struct {
	store    userStore
	objects  rootProvisioner
	cfg      config.AuthConfig
	quota    config.QuotaConfig
	nowFunc  func() time.Time
	idIssuer string
	parser   *jwt.Parser
}

// NewService creates a Service with dependencies.
func NewService(store userStore, objects rootProvisioner, cfg config.AuthConfig, quota config.QuotaConfig) *Service {
	return &Service{
		store:    store,
		objects:  objects,
		cfg:      cfg,
		quota:    quota,
		nowFunc:  time.Now,
		idIssuer: "filevault",
		parser:   jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name})),
	}
}

// RegisterInput carries data for user registration.
type RegisterInput struct {
	Username string
	Email    string
	Password string
}

// LoginInput carries login credentials.
type LoginInput struct {
	Username string
	Password string
}

// AuthResult contains the user plus session and API token material.
type AuthResult struct {
	User              User
	SessionToken      string
	SessionExpiry     time.Time
	AccessToken       string
	AccessTokenExpiry time.Time
}

// Register creates a new user with the default plan and provisions their
// storage root. Duplicate username or email yields ErrUserExists.
func (s *Service) Register(ctx context.Context, input RegisterInput) (User, error) {
	if err := validateRegistration(input); err != nil {
		return User{}, err
	}

	hashedPassword, err := hashPassword(input.Password, s.cfg.BcryptCost)
	if err != nil {
		return User{}, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.store.CreateUser(ctx,
		strings.TrimSpace(input.Username),
		strings.ToLower(strings.TrimSpace(input.Email)),
		hashedPassword,
		defaultPlan,
		s.quota.LimitForPlan(defaultPlan),
	)
	if err != nil {
		if errors.Is(err, ErrUserExists) {
			return User{}, ErrUserExists
		}
		return User{}, fmt.Errorf("create user: %w", err)
	}

	if err := s.objects.EnsurePrefix(ctx, user.ID.String()); err != nil {
		return User{}, fmt.Errorf("provision storage root: %w", err)
	}

	return user.SafeUser(), nil
}

// Login authenticates credentials and opens a session. Unknown usernames and
// wrong passwords are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, input LoginInput) (AuthResult, error) {
	if strings.TrimSpace(input.Username) == "" || input.Password == "" {
		return AuthResult{}, ErrInvalidCredentials
	}

	user, err := s.store.FindUserByUsername(ctx, strings.TrimSpace(input.Username))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return AuthResult{}, ErrInvalidCredentials
		}
		return AuthResult{}, fmt.Errorf("find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return AuthResult{}, ErrInvalidCredentials
	}

	return s.openSession(ctx, user)
}

// Logout revokes the session behind the given cookie token.
func (s *Service) Logout(ctx context.Context, sessionToken string) error {
	if strings.TrimSpace(sessionToken) == "" {
		return nil
	}
	return s.store.RevokeSession(ctx, s.hashSessionToken(sessionToken))
}

// GetByID returns the user for an id.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (User, error) {
	user, err := s.store.FindUserByID(ctx, id)
	if err != nil {
		return User{}, err
	}
	return user.SafeUser(), nil
}

// ValidateSession resolves a cookie token to the owning user id.
func (s *Service) ValidateSession(ctx context.Context, sessionToken string) (uuid.UUID, error) {
	if strings.TrimSpace(sessionToken) == "" {
		return uuid.Nil, ErrUnauthorized
	}
	session, err := s.store.FindSession(ctx, s.hashSessionToken(sessionToken))
	if err != nil {
		if errors.Is(err, ErrUnauthorized) {
			return uuid.Nil, ErrUnauthorized
		}
		return uuid.Nil, fmt.Errorf("find session: %w", err)
	}
	return session.UserID, nil
}

// ValidateAccessToken verifies an API bearer token and extracts the user id.
func (s *Service) ValidateAccessToken(tokenString string) (uuid.UUID, error) {
	if strings.TrimSpace(tokenString) == "" {
		return uuid.Nil, ErrUnauthorized
	}

	parsed, err := s.parser.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.cfg.AccessTokenSecret), nil
	})
	if err != nil || !parsed.Valid {
		return uuid.Nil, ErrUnauthorized
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return uuid.Nil, ErrUnauthorized
	}

	sub, ok := claims["sub"].(string)
	if !ok {
		return uuid.Nil, ErrUnauthorized
	}

	userID, err := uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, ErrUnauthorized
	}

	expFloat, ok := claims["exp"].(float64)
	if !ok || time.Unix(int64(expFloat), 0).Before(s.nowFunc()) {
		return uuid.Nil, ErrUnauthorized
	}

	return userID, nil
}

func (s *Service) openSession(ctx context.Context, user User) (AuthResult, error) {
	now := s.nowFunc()

	sessionToken, err := generateToken(sessionTokenLength)
	if err != nil {
		return AuthResult{}, fmt.Errorf("generate session token: %w", err)
	}
	sessionExpiry := now.Add(s.cfg.SessionTTL)

	if err := s.store.StoreSession(ctx, user.ID, s.hashSessionToken(sessionToken), sessionExpiry); err != nil {
		return AuthResult{}, fmt.Errorf("store session: %w", err)
	}

	accessToken, accessExpiry, err := s.generateAccessToken(user, now)
	if err != nil {
		return AuthResult{}, fmt.Errorf("generate access token: %w", err)
	}

	return AuthResult{
		User:              user.SafeUser(),
		SessionToken:      sessionToken,
		SessionExpiry:     sessionExpiry,
		AccessToken:       accessToken,
		AccessTokenExpiry: accessExpiry,
	}, nil
}

func (s *Service) generateAccessToken(user User, now time.Time) (string, time.Time, error) {
	expiresAt := now.Add(s.cfg.AccessTokenTTL)
	claims := jwt.MapClaims{
		"sub":      user.ID.String(),
		"iss":      s.idIssuer,
		"aud":      "filevault-api",
		"iat":      now.Unix(),
		"exp":      expiresAt.Unix(),
		"username": user.Username,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.AccessTokenSecret))
	if err != nil {
		return "", time.Time{}, err
	}

	return signed, expiresAt, nil
}

func (s *Service) hashSessionToken(token string) string {
	mac := hmac.New(sha256.New, []byte(s.cfg.SessionSecret))
	mac.Write([]byte(token))
	return hex.EncodeToString(mac.Sum(nil))
}

func generateToken(length int) (string, error) {
	raw := make([]byte, length)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

func hashPassword(password string, cost int) (string, error) {
	if len(password) > maxPasswordLength {
		return "", fmt.Errorf("password exceeds maximum length of %d characters", maxPasswordLength)
	}
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

func validateRegistration(input RegisterInput) error {
	username := strings.TrimSpace(input.Username)
	email := strings.TrimSpace(input.Email)

	if len(username) < 3 || len(username) > 32 {
		return ErrInvalidCredentials
	}
	if email == "" || !strings.Contains(email, "@") {
		return ErrInvalidCredentials
	}
	if len(input.Password) < 8 || len(input.Password) > maxPasswordLength {
		return ErrInvalidCredentials
	}
	return nil
}
