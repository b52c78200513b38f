package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	HTTPAddr string // FOLIO_HTTP_ADDR (default ":8000")
	GRPCAddr string // FOLIO_GRPC_ADDR (optional, empty = no gRPC listener)

	// Storage
	Store       string // FOLIO_STORE: "file" (default) or "postgres"
	DataDir     string // FOLIO_DATA_DIR (default "data")
	DatabaseURL string // FOLIO_DATABASE_URL (required when FOLIO_STORE=postgres)

	// Media
	AssetsDir      string // FOLIO_ASSETS_DIR (default "assets")
	SiteDir        string // FOLIO_SITE_DIR (optional static css/js directory)
	Media          string // FOLIO_MEDIA: "local" (default) or "minio"
	MinioEndpoint  string // FOLIO_MINIO_ENDPOINT
	MinioAccessKey string // FOLIO_MINIO_ACCESS_KEY
	MinioSecretKey string // FOLIO_MINIO_SECRET_KEY
	MinioBucket    string // FOLIO_MINIO_BUCKET (default "folio")
	MinioUseSSL    bool   // FOLIO_MINIO_USE_SSL
	MinioPublicURL string // FOLIO_MINIO_PUBLIC_URL

	NATSURL string // FOLIO_NATS_URL (optional, empty = no events)

	// Auth
	RedisAddr        string        // FOLIO_REDIS_ADDR (optional, empty = in-memory sessions and limiter)
	RedisPassword    string        // FOLIO_REDIS_PASSWORD
	AuthToken        string        // FOLIO_AUTH_TOKEN (optional static bearer token)
	SessionTTL       time.Duration // FOLIO_SESSION_TTL (default 24h)
	MessageRateLimit int           // FOLIO_MESSAGE_RATE_LIMIT per minute per client (default 5; 0 = off)
	AdminUsername    string        // ADMIN_USERNAME (default "admin"; seeds a new document)
	AdminPassword    string        // ADMIN_PASSWORD (default "admin123")

	// Backup settings
	BackupInterval   time.Duration // FOLIO_BACKUP_INTERVAL (default 0 = disabled)
	BackupS3Bucket   string        // FOLIO_BACKUP_S3_BUCKET (enables S3 when set)
	BackupS3Endpoint string        // FOLIO_BACKUP_S3_ENDPOINT (custom endpoint for MinIO)
	BackupS3Region   string        // FOLIO_BACKUP_S3_REGION (default "us-east-1")
	BackupS3Prefix   string        // FOLIO_BACKUP_S3_PREFIX (default "folio/backups/")
	BackupDir        string        // FOLIO_BACKUP_DIR (optional local mirror)

	LogLevel  string // FOLIO_LOG_LEVEL (default "info")
	LogFormat string // FOLIO_LOG_FORMAT: "text" (default) or "json"
}

func Load() (*Config, error) {
	c := &Config{
		HTTPAddr:         envOrDefault("FOLIO_HTTP_ADDR", ":8000"),
		GRPCAddr:         os.Getenv("FOLIO_GRPC_ADDR"),
		Store:            envOrDefault("FOLIO_STORE", "file"),
		DataDir:          envOrDefault("FOLIO_DATA_DIR", "data"),
		DatabaseURL:      os.Getenv("FOLIO_DATABASE_URL"),
		AssetsDir:        envOrDefault("FOLIO_ASSETS_DIR", "assets"),
		SiteDir:          os.Getenv("FOLIO_SITE_DIR"),
		Media:            envOrDefault("FOLIO_MEDIA", "local"),
		MinioEndpoint:    os.Getenv("FOLIO_MINIO_ENDPOINT"),
		MinioAccessKey:   os.Getenv("FOLIO_MINIO_ACCESS_KEY"),
		MinioSecretKey:   os.Getenv("FOLIO_MINIO_SECRET_KEY"),
		MinioBucket:      envOrDefault("FOLIO_MINIO_BUCKET", "folio"),
		MinioPublicURL:   os.Getenv("FOLIO_MINIO_PUBLIC_URL"),
		NATSURL:          os.Getenv("FOLIO_NATS_URL"),
		RedisAddr:        os.Getenv("FOLIO_REDIS_ADDR"),
		RedisPassword:    os.Getenv("FOLIO_REDIS_PASSWORD"),
		AuthToken:        os.Getenv("FOLIO_AUTH_TOKEN"),
		AdminUsername:    envOrDefault("ADMIN_USERNAME", "admin"),
		AdminPassword:    envOrDefault("ADMIN_PASSWORD", "admin123"),
		BackupS3Bucket:   os.Getenv("FOLIO_BACKUP_S3_BUCKET"),
		BackupS3Endpoint: os.Getenv("FOLIO_BACKUP_S3_ENDPOINT"),
		BackupS3Region:   envOrDefault("FOLIO_BACKUP_S3_REGION", "us-east-1"),
		BackupS3Prefix:   envOrDefault("FOLIO_BACKUP_S3_PREFIX", "folio/backups/"),
		BackupDir:        os.Getenv("FOLIO_BACKUP_DIR"),
		LogLevel:         envOrDefault("FOLIO_LOG_LEVEL", "info"),
		LogFormat:        envOrDefault("FOLIO_LOG_FORMAT", "text"),
	}

	switch c.Store {
	case "file":
	case "postgres":
		if c.DatabaseURL == "" {
			return nil, fmt.Errorf("FOLIO_DATABASE_URL is required when FOLIO_STORE=postgres")
		}
	default:
		return nil, fmt.Errorf("FOLIO_STORE: unknown store %q (want file or postgres)", c.Store)
	}

	switch c.Media {
	case "local":
	case "minio":
		if c.MinioEndpoint == "" {
			return nil, fmt.Errorf("FOLIO_MINIO_ENDPOINT is required when FOLIO_MEDIA=minio")
		}
	default:
		return nil, fmt.Errorf("FOLIO_MEDIA: unknown media backend %q (want local or minio)", c.Media)
	}

	var err error
	if c.MinioUseSSL, err = envBool("FOLIO_MINIO_USE_SSL"); err != nil {
		return nil, err
	}
	if c.SessionTTL, err = envDuration("FOLIO_SESSION_TTL", "24h"); err != nil {
		return nil, err
	}
	if c.BackupInterval, err = envDuration("FOLIO_BACKUP_INTERVAL", "0"); err != nil {
		return nil, err
	}
	limit := envOrDefault("FOLIO_MESSAGE_RATE_LIMIT", "5")
	if c.MessageRateLimit, err = strconv.Atoi(limit); err != nil || c.MessageRateLimit < 0 {
		return nil, fmt.Errorf("FOLIO_MESSAGE_RATE_LIMIT: invalid value %q", limit)
	}

	return c, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDuration(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(envOrDefault(key, fallback))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func envBool(key string) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}
