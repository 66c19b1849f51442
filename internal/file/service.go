package file

import (
	"context"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"os"
	"path"
	"strings"

	"github.com/aslanbek/filevault/internal/config"
	"github.com/aslanbek/filevault/internal/storage"
	"github.com/google/uuid"
)

const recentFileCount = 5

// catalog abstracts file metadata persistence.
type catalog interface {
	Create(ctx context.Context, rec Record) (Record, error)
	Get(ctx context.Context, fileID uuid.UUID) (Record, error)
	List(ctx context.Context, ownerID uuid.UUID, folder *string) ([]Record, error)
	Delete(ctx context.Context, ownerID, fileID uuid.UUID) (Record, error)
	Stats(ctx context.Context, ownerID uuid.UUID) (int64, int64, error)
	ListFolders(ctx context.Context, ownerID uuid.UUID) ([]string, error)
}

// quotaChecker reports storage accounting for an owner.
type quotaChecker interface {
	WouldExceed(ctx context.Context, ownerID uuid.UUID, incomingBytes int64) (bool, error)
	Usage(ctx context.Context, ownerID uuid.UUID) (int64, error)
	Limit(ctx context.Context, ownerID uuid.UUID) (int64, error)
}

// thumbnailer derives a cached preview beside a local original.
type thumbnailer interface {
	Ensure(origPath string) (string, error)
}

// Service is the upload/download gateway over catalog and object store.
type Service struct {
	repo    catalog
	quota   quotaChecker
	objects storage.ObjectStore
	thumbs  thumbnailer
	allowed map[string]struct{}
	denied  map[string]struct{}
	maxSize int64
}

// NewService constructs a file service.
func NewService(repo catalog, quota quotaChecker, objects storage.ObjectStore, thumbs thumbnailer, cfg config.UploadConfig) *Service {
	return &Service{
		repo:    repo,
		quota:   quota,
		objects: objects,
		thumbs:  thumbs,
		allowed: toSet(cfg.AllowedExtensions),
		denied:  toSet(cfg.DeniedExtensions),
		maxSize: cfg.MaxUploadBytes,
	}
}

// Upload validates the incoming file, checks quota, persists bytes, then
// records metadata. Validation failures happen before any mutation; a storage
// write failure leaves no catalog row behind.
func (s *Service) Upload(ctx context.Context, ownerID uuid.UUID, fileHeader *multipart.FileHeader, folder string) (Record, error) {
	if fileHeader == nil {
		return Record{}, ErrNoFile
	}

	name := strings.TrimSpace(fileHeader.Filename)
	if name == "" {
		return Record{}, ErrEmptyFilename
	}

	ext := extensionOf(name)
	if _, ok := s.denied[ext]; ok {
		return Record{}, ErrExtensionBlocked
	}
	if _, ok := s.allowed[ext]; !ok {
		return Record{}, ErrExtensionNotAllowed
	}

	size := fileHeader.Size
	if s.maxSize > 0 && size > s.maxSize {
		return Record{}, ErrFileTooLarge
	}

	exceeded, err := s.quota.WouldExceed(ctx, ownerID, size)
	if err != nil {
		return Record{}, fmt.Errorf("check quota: %w", err)
	}
	if exceeded {
		return Record{}, ErrQuotaExceeded
	}

	cleanFolder, err := normalizeFolder(folder)
	if err != nil {
		return Record{}, err
	}

	originalName := sanitizeName(name)
	if originalName == "" {
		return Record{}, ErrEmptyFilename
	}

	storedName := strings.ReplaceAll(uuid.New().String(), "-", "")
	if ext != "" {
		storedName += "." + ext
	}

	key := path.Join(ownerID.String(), cleanFolder, storedName)
	prefix := path.Join(ownerID.String(), cleanFolder)
	if err := s.objects.EnsurePrefix(ctx, prefix); err != nil {
		return Record{}, fmt.Errorf("ensure destination: %w", err)
	}

	src, err := fileHeader.Open()
	if err != nil {
		return Record{}, fmt.Errorf("open upload payload: %w", err)
	}
	defer src.Close()

	written, err := s.objects.Save(ctx, key, src)
	if err != nil {
		return Record{}, fmt.Errorf("store object: %w", err)
	}
	if written > 0 {
		size = written
	}

	rec := Record{
		ID:           uuid.New(),
		OwnerID:      ownerID,
		StoredName:   storedName,
		OriginalName: originalName,
		StoragePath:  key,
		SizeBytes:    size,
		FileType:     ext,
		MimeType:     mimeTypeFor(ext),
		Folder:       cleanFolder,
	}

	stored, err := s.repo.Create(ctx, rec)
	if err != nil {
		_ = s.objects.Remove(ctx, key)
		return Record{}, err
	}

	return stored, nil
}

// List returns the owner's files, optionally filtered to one folder
// (empty string = root; nil = everything).
func (s *Service) List(ctx context.Context, ownerID uuid.UUID, folder *string) ([]Record, error) {
	if folder != nil {
		clean, err := normalizeFolder(*folder)
		if err != nil {
			return nil, err
		}
		folder = &clean
	}
	return s.repo.List(ctx, ownerID, folder)
}

// Download authorizes the requester and opens the stored bytes. Requesters
// who are neither owner nor reading a public file get ErrForbidden.
func (s *Service) Download(ctx context.Context, requesterID, fileID uuid.UUID) (Record, io.ReadCloser, error) {
	rec, err := s.repo.Get(ctx, fileID)
	if err != nil {
		return Record{}, nil, err
	}

	if rec.OwnerID != requesterID && !rec.IsPublic {
		return Record{}, nil, ErrForbidden
	}

	reader, err := s.objects.Open(ctx, rec.StoragePath)
	if err != nil {
		return Record{}, nil, fmt.Errorf("open object: %w", err)
	}
	return rec, reader, nil
}

// Delete removes the catalog row, then the stored bytes best-effort: a
// missing physical file never blocks clearing the reference.
func (s *Service) Delete(ctx context.Context, ownerID, fileID uuid.UUID) error {
	rec, err := s.repo.Delete(ctx, ownerID, fileID)
	if err != nil {
		return err
	}

	_ = s.objects.Remove(ctx, rec.StoragePath)
	return nil
}

// Overview assembles dashboard data: recent files, usage, limit, folders.
func (s *Service) Overview(ctx context.Context, ownerID uuid.UUID) (Overview, error) {
	files, err := s.repo.List(ctx, ownerID, nil)
	if err != nil {
		return Overview{}, err
	}
	if len(files) > recentFileCount {
		files = files[:recentFileCount]
	}

	count, used, err := s.repo.Stats(ctx, ownerID)
	if err != nil {
		return Overview{}, err
	}

	limit, err := s.quota.Limit(ctx, ownerID)
	if err != nil {
		return Overview{}, fmt.Errorf("resolve limit: %w", err)
	}

	folders, err := s.repo.ListFolders(ctx, ownerID)
	if err != nil {
		return Overview{}, err
	}

	return Overview{
		RecentFiles: files,
		TotalFiles:  count,
		UsedBytes:   used,
		LimitBytes:  limit,
		Folders:     folders,
	}, nil
}

// CreateFolder validates and provisions a new folder for the owner.
func (s *Service) CreateFolder(ctx context.Context, ownerID uuid.UUID, name string) (string, error) {
	clean, err := normalizeFolder(name)
	if err != nil {
		return "", err
	}
	if clean == "" {
		return "", ErrInvalidFolder
	}

	existing, err := s.repo.ListFolders(ctx, ownerID)
	if err != nil {
		return "", err
	}
	for _, folder := range existing {
		if folder == clean {
			return "", ErrFolderExists
		}
	}

	if err := s.objects.EnsurePrefix(ctx, path.Join(ownerID.String(), clean)); err != nil {
		return "", fmt.Errorf("provision folder: %w", err)
	}
	return clean, nil
}

// Preview serves a bounded image derivative for image files, falling back to
// the original bytes when the file is not an image, the backend has no local
// path, or thumbnail generation fails.
func (s *Service) Preview(ctx context.Context, requesterID, fileID uuid.UUID) (Record, io.ReadCloser, string, error) {
	rec, err := s.repo.Get(ctx, fileID)
	if err != nil {
		return Record{}, nil, "", err
	}

	if rec.OwnerID != requesterID && !rec.IsPublic {
		return Record{}, nil, "", ErrForbidden
	}

	if s.thumbs != nil && isImageType(rec.FileType) {
		if local := s.objects.Path(rec.StoragePath); local != "" {
			if thumbPath, err := s.thumbs.Ensure(local); err == nil {
				if f, err := os.Open(thumbPath); err == nil {
					return rec, f, "image/jpeg", nil
				}
			}
		}
	}

	reader, err := s.objects.Open(ctx, rec.StoragePath)
	if err != nil {
		return Record{}, nil, "", fmt.Errorf("open object: %w", err)
	}
	return rec, reader, rec.MimeType, nil
}

func extensionOf(name string) string {
	idx := strings.LastIndexByte(name, '.')
	if idx < 0 || idx == len(name)-1 {
		return ""
	}
	return strings.ToLower(name[idx+1:])
}

func mimeTypeFor(ext string) string {
	if ext == "" {
		return "application/octet-stream"
	}
	if mt := mime.TypeByExtension("." + ext); mt != "" {
		return mt
	}
	return "application/octet-stream"
}

func isImageType(ext string) bool {
	switch ext {
	case "png", "jpg", "jpeg", "gif":
		return true
	}
	return false
}

// sanitizeName strips path components and unsafe characters from a
// user-supplied name, keeping letters, digits, dot, dash and underscore.
func sanitizeName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	if idx := strings.LastIndexByte(name, '/'); idx >= 0 {
		name = name[idx+1:]
	}

	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.', r == '-', r == '_':
			b.WriteRune(r)
		case r == ' ':
			b.WriteByte('_')
		}
	}

	out := strings.Trim(b.String(), "._")
	return out
}

func normalizeFolder(folder string) (string, error) {
	folder = strings.TrimSpace(folder)
	if folder == "" {
		return "", nil
	}
	clean := sanitizeName(folder)
	if clean == "" {
		return "", ErrInvalidFolder
	}
	return clean, nil
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, item := range items {
		set[strings.ToLower(item)] = struct{}{}
	}
	return set
}
