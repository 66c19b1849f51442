package share

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"time"

	"github.com/aslanbek/filevault/internal/file"
	"github.com/aslanbek/filevault/internal/storage"
	"github.com/google/uuid"
)

const tokenLength = 32

// catalog is the slice of the file repository the sharing service needs.
type catalog interface {
	Get(ctx context.Context, fileID uuid.UUID) (file.Record, error)
	SetPublic(ctx context.Context, ownerID, fileID uuid.UUID, token string, expiresAt *time.Time) error
	ClearPublic(ctx context.Context, ownerID, fileID uuid.UUID) error
	FindByToken(ctx context.Context, token string) (file.Record, error)
	IncrementDownloadCount(ctx context.Context, fileID uuid.UUID) error
}

// Link describes an issued public share.
type Link struct {
	Token     string     `json:"token"`
	URL       string     `json:"url"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// Service issues, revokes and resolves public share tokens.
type Service struct {
	repo    catalog
	objects storage.ObjectStore
	baseURL string
	ttl     time.Duration
	nowFunc func() time.Time
}

// NewService constructs a sharing service. A zero ttl issues tokens that
// never expire.
func NewService(repo catalog, objects storage.ObjectStore, baseURL string, ttl time.Duration) *Service {
	return &Service{
		repo:    repo,
		objects: objects,
		baseURL: baseURL,
		ttl:     ttl,
		nowFunc: time.Now,
	}
}

// Create marks an owned file public under a fresh unguessable token.
// Re-sharing an already public file rotates the token.
func (s *Service) Create(ctx context.Context, ownerID, fileID uuid.UUID) (Link, error) {
	rec, err := s.repo.Get(ctx, fileID)
	if err != nil {
		return Link{}, err
	}
	if rec.OwnerID != ownerID {
		return Link{}, file.ErrForbidden
	}

	token, err := generateToken()
	if err != nil {
		return Link{}, fmt.Errorf("generate share token: %w", err)
	}

	var expiresAt *time.Time
	if s.ttl > 0 {
		exp := s.nowFunc().Add(s.ttl)
		expiresAt = &exp
	}

	if err := s.repo.SetPublic(ctx, ownerID, fileID, token, expiresAt); err != nil {
		return Link{}, err
	}

	return Link{
		Token:     token,
		URL:       fmt.Sprintf("%s/shared/%s", s.baseURL, token),
		ExpiresAt: expiresAt,
	}, nil
}

// Revoke clears public access for an owned file.
func (s *Service) Revoke(ctx context.Context, ownerID, fileID uuid.UUID) error {
	return s.repo.ClearPublic(ctx, ownerID, fileID)
}

// Resolve maps a live token to its file. Expired, revoked and unknown
// tokens all resolve to ErrFileNotFound.
func (s *Service) Resolve(ctx context.Context, token string) (file.Record, error) {
	if token == "" {
		return file.Record{}, file.ErrFileNotFound
	}
	return s.repo.FindByToken(ctx, token)
}

// OpenBytes streams the resolved file's stored bytes.
func (s *Service) OpenBytes(ctx context.Context, rec file.Record) (io.ReadCloser, error) {
	reader, err := s.objects.Open(ctx, rec.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("open shared object: %w", err)
	}
	return reader, nil
}

// RedirectURL returns a pre-signed download URL when the backend supports it
// and has no local representation, so public downloads can bypass the API.
func (s *Service) RedirectURL(ctx context.Context, rec file.Record, ttl time.Duration) (string, bool) {
	signer, ok := s.objects.(storage.URLSigner)
	if !ok || s.objects.Path(rec.StoragePath) != "" {
		return "", false
	}
	u, err := signer.PresignedURL(ctx, rec.StoragePath, ttl)
	if err != nil {
		return "", false
	}
	return u, true
}

// RecordDownload bumps the public download counter for a resolved file.
func (s *Service) RecordDownload(ctx context.Context, fileID uuid.UUID) {
	_ = s.repo.IncrementDownloadCount(ctx, fileID)
}

func generateToken() (string, error) {
	raw := make([]byte, tokenLength)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}
