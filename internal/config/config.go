package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config aggregates runtime configuration for the FileVault API.
type Config struct {
	Server   ServerConfig
	Postgres PostgresConfig
	Storage  StorageConfig
	Auth     AuthConfig
	Upload   UploadConfig
	Quota    QuotaConfig
	Share    ShareConfig
	Metrics  MetricsConfig
}

// ServerConfig parameterizes the HTTP server.
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// Address returns the listen address in host:port form.
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// PostgresConfig contains PostgreSQL connection details.
type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// DSN returns the PostgreSQL DSN string.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		p.User, p.Password, p.Host, p.Port, p.Database, p.SSLMode)
}

// StorageConfig selects and parameterizes the object store backend.
type StorageConfig struct {
	// Driver is either "fs" (local filesystem, the default) or "s3".
	Driver string
	// Root is the base directory for the filesystem driver.
	Root string
	// ThumbnailMaxDim bounds generated image previews.
	ThumbnailMaxDim int
	MinIO           MinIOConfig
}

// MinIOConfig carries S3-compatible object store settings for the s3 driver.
type MinIOConfig struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	UseSSL          bool
	Region          string
}

// AuthConfig groups authentication-related settings.
type AuthConfig struct {
	SessionSecret     string
	AccessTokenSecret string
	AccessTokenTTL    time.Duration
	SessionTTL        time.Duration
	BcryptCost        int
}

// UploadConfig constrains what the upload gateway accepts.
type UploadConfig struct {
	MaxUploadBytes    int64
	AllowedExtensions []string
	DeniedExtensions  []string
}

// QuotaConfig maps plans to storage limits in bytes.
type QuotaConfig struct {
	FreeLimitBytes    int64
	PremiumLimitBytes int64
}

// LimitForPlan resolves a plan name to its storage limit.
func (q QuotaConfig) LimitForPlan(plan string) int64 {
	if plan == "premium" {
		return q.PremiumLimitBytes
	}
	return q.FreeLimitBytes
}

// ShareConfig controls public share links.
type ShareConfig struct {
	// BaseURL is the externally reachable prefix used to build share URLs.
	BaseURL string
	// DefaultTTL bounds token validity; zero means tokens never expire.
	DefaultTTL time.Duration
}

// MetricsConfig groups observability settings.
type MetricsConfig struct {
	PrometheusPath string
}

const (
	gib = int64(1024 * 1024 * 1024)
	mib = int64(1024 * 1024)
)

var (
	defaultAllowedExtensions = []string{
		"txt", "pdf", "png", "jpg", "jpeg", "gif", "doc", "docx",
		"xls", "xlsx", "ppt", "pptx", "zip", "rar", "mp3", "mp4",
		"avi", "mov", "wmv", "flv", "webm", "csv", "json", "xml",
	}
	defaultDeniedExtensions = []string{"exe", "bat", "cmd", "sh", "ps1", "vbs", "js", "jar"}
)

// Load reads configuration values from environment variables, applying defaults.
func Load() (Config, error) {
	cfg := Config{
		Server: ServerConfig{
			Host:         getString("FILEVAULT_API_HOST", "0.0.0.0"),
			Port:         getInt("FILEVAULT_API_PORT", 8080),
			ReadTimeout:  getDuration("FILEVAULT_API_READ_TIMEOUT", 15*time.Second),
			WriteTimeout: getDuration("FILEVAULT_API_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:  getDuration("FILEVAULT_API_IDLE_TIMEOUT", 60*time.Second),
		},
		Postgres: PostgresConfig{
			Host:     getString("POSTGRES_HOST", "localhost"),
			Port:     getInt("POSTGRES_PORT", 5432),
			User:     getString("POSTGRES_USER", "filevault_app"),
			Password: getString("POSTGRES_PASSWORD", "change-me"),
			Database: getString("POSTGRES_DB", "filevault"),
			SSLMode:  strings.ToLower(getString("POSTGRES_SSL_MODE", "disable")),
		},
		Storage: StorageConfig{
			Driver:          strings.ToLower(getString("FILEVAULT_STORAGE_DRIVER", "fs")),
			Root:            getString("FILEVAULT_STORAGE_ROOT", "uploads"),
			ThumbnailMaxDim: getInt("FILEVAULT_THUMBNAIL_MAX_DIM", 400),
			MinIO: MinIOConfig{
				Endpoint:        getString("MINIO_ENDPOINT", "localhost:9000"),
				AccessKeyID:     getString("MINIO_ROOT_USER", "filevault"),
				SecretAccessKey: getString("MINIO_ROOT_PASSWORD", "change-me-strong-password"),
				Bucket:          getString("MINIO_BUCKET", "filevault"),
				UseSSL:          getBool("MINIO_USE_SSL", false),
				Region:          getString("MINIO_REGION", ""),
			},
		},
		Auth: loadAuthConfig(),
		Upload: UploadConfig{
			MaxUploadBytes:    getInt64("FILEVAULT_MAX_UPLOAD_BYTES", 100*mib),
			AllowedExtensions: getStringList("FILEVAULT_ALLOWED_EXTENSIONS", defaultAllowedExtensions),
			DeniedExtensions:  getStringList("FILEVAULT_DENIED_EXTENSIONS", defaultDeniedExtensions),
		},
		Quota: QuotaConfig{
			FreeLimitBytes:    getInt64("FILEVAULT_FREE_LIMIT_BYTES", 5*gib),
			PremiumLimitBytes: getInt64("FILEVAULT_PREMIUM_LIMIT_BYTES", 50*gib),
		},
		Share: ShareConfig{
			BaseURL:    strings.TrimRight(getString("FILEVAULT_SHARE_BASE_URL", "http://localhost:8080"), "/"),
			DefaultTTL: getDuration("FILEVAULT_SHARE_TTL", 0),
		},
		Metrics: MetricsConfig{
			PrometheusPath: getString("FILEVAULT_METRICS_PATH", "/metrics"),
		},
	}

	if cfg.Storage.Driver != "fs" && cfg.Storage.Driver != "s3" {
		return Config{}, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}

	return cfg, nil
}

func getString(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getInt64(key string, fallback int64) int64 {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseInt(val, 10, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if val, ok := os.LookupEnv(key); ok {
		val = strings.ToLower(strings.TrimSpace(val))
		switch val {
		case "1", "true", "t", "yes", "y":
			return true
		case "0", "false", "f", "no", "n":
			return false
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getStringList(key string, fallback []string) []string {
	val, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}

func loadAuthConfig() AuthConfig {
	cost := getInt("FILEVAULT_AUTH_BCRYPT_COST", 12)
	if cost < 4 || cost > 31 {
		cost = 12
	}

	return AuthConfig{
		SessionSecret:     getString("FILEVAULT_SESSION_SECRET", "change-me-to-a-64-byte-secret"),
		AccessTokenSecret: getString("FILEVAULT_JWT_SECRET", "change-me-to-a-32-byte-secret"),
		AccessTokenTTL:    getDuration("FILEVAULT_AUTH_ACCESS_TOKEN_TTL", 15*time.Minute),
		SessionTTL:        getDuration("FILEVAULT_AUTH_SESSION_TTL", 168*time.Hour),
		BcryptCost:        cost,
	}
}
