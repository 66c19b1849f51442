package file

import (
	"time"

	"github.com/google/uuid"
)

// Record is the catalog entry for one stored object.
type Record struct {
	ID             uuid.UUID  `json:"id"`
	OwnerID        uuid.UUID  `json:"owner_id"`
	StoredName     string     `json:"-"`
	OriginalName   string     `json:"original_name"`
	StoragePath    string     `json:"-"`
	SizeBytes      int64      `json:"size_bytes"`
	FileType       string     `json:"file_type"`
	MimeType       string     `json:"mime_type"`
	Folder         string     `json:"folder"`
	IsPublic       bool       `json:"is_public"`
	PublicToken    *string    `json:"public_token,omitempty"`
	TokenExpiresAt *time.Time `json:"token_expires_at,omitempty"`
	DownloadCount  int64      `json:"download_count"`
	UploadedAt     time.Time  `json:"uploaded_at"`
}

// Overview summarizes a user's storage for the dashboard.
type Overview struct {
	RecentFiles []Record `json:"recent_files"`
	TotalFiles  int64    `json:"total_files"`
	UsedBytes   int64    `json:"used_bytes"`
	LimitBytes  int64    `json:"limit_bytes"`
	Folders     []string `json:"folders"`
}
