package config

import (
	"testing"
	"time"
)

// envVars lists every variable Load reads; they are cleared between tests.
var envVars = []string{
	"FOLIO_HTTP_ADDR", "FOLIO_GRPC_ADDR", "FOLIO_STORE", "FOLIO_DATA_DIR", "FOLIO_DATABASE_URL",
	"FOLIO_ASSETS_DIR", "FOLIO_SITE_DIR", "FOLIO_MEDIA", "FOLIO_MINIO_ENDPOINT", "FOLIO_MINIO_ACCESS_KEY",
	"FOLIO_MINIO_SECRET_KEY", "FOLIO_MINIO_BUCKET", "FOLIO_MINIO_USE_SSL", "FOLIO_MINIO_PUBLIC_URL",
	"FOLIO_NATS_URL", "FOLIO_REDIS_ADDR", "FOLIO_REDIS_PASSWORD", "FOLIO_AUTH_TOKEN", "FOLIO_SESSION_TTL",
	"FOLIO_MESSAGE_RATE_LIMIT", "ADMIN_USERNAME", "ADMIN_PASSWORD", "FOLIO_BACKUP_INTERVAL",
	"FOLIO_BACKUP_S3_BUCKET", "FOLIO_BACKUP_S3_ENDPOINT", "FOLIO_BACKUP_S3_REGION", "FOLIO_BACKUP_S3_PREFIX",
	"FOLIO_BACKUP_DIR", "FOLIO_LOG_LEVEL", "FOLIO_LOG_FORMAT",
}

func clearAllEnv(t *testing.T) {
	t.Helper()
	for _, key := range envVars {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearAllEnv(t)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.HTTPAddr != ":8000" {
		t.Errorf("HTTPAddr = %q, want :8000", cfg.HTTPAddr)
	}
	if cfg.GRPCAddr != "" {
		t.Errorf("GRPCAddr = %q, want empty", cfg.GRPCAddr)
	}
	if cfg.Store != "file" || cfg.DataDir != "data" {
		t.Errorf("store = %q dir = %q", cfg.Store, cfg.DataDir)
	}
	if cfg.Media != "local" || cfg.AssetsDir != "assets" {
		t.Errorf("media = %q assets = %q", cfg.Media, cfg.AssetsDir)
	}
	if cfg.SessionTTL != 24*time.Hour {
		t.Errorf("SessionTTL = %v, want 24h", cfg.SessionTTL)
	}
	if cfg.MessageRateLimit != 5 {
		t.Errorf("MessageRateLimit = %d, want 5", cfg.MessageRateLimit)
	}
	if cfg.BackupInterval != 0 {
		t.Errorf("BackupInterval = %v, want 0", cfg.BackupInterval)
	}
	if cfg.BackupS3Prefix != "folio/backups/" || cfg.BackupS3Region != "us-east-1" {
		t.Errorf("backup s3 = %q %q", cfg.BackupS3Prefix, cfg.BackupS3Region)
	}
	if cfg.AdminUsername != "admin" || cfg.AdminPassword != "admin123" {
		t.Errorf("admin = %q/%q", cfg.AdminUsername, cfg.AdminPassword)
	}
}

func TestLoad_Errors(t *testing.T) {
	for _, tc := range []struct {
		name string
		env  map[string]string
	}{
		{"PostgresWithoutURL", map[string]string{"FOLIO_STORE": "postgres"}},
		{"UnknownStore", map[string]string{"FOLIO_STORE": "sqlite"}},
		{"MinioWithoutEndpoint", map[string]string{"FOLIO_MEDIA": "minio"}},
		{"UnknownMedia", map[string]string{"FOLIO_MEDIA": "ftp"}},
		{"BadTTL", map[string]string{"FOLIO_SESSION_TTL": "forever"}},
		{"BadInterval", map[string]string{"FOLIO_BACKUP_INTERVAL": "often"}},
		{"BadRateLimit", map[string]string{"FOLIO_MESSAGE_RATE_LIMIT": "-1"}},
		{"BadSSL", map[string]string{"FOLIO_MINIO_USE_SSL": "maybe"}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			clearAllEnv(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			if _, err := Load(); err == nil {
				t.Fatal("expected error, got nil")
			}
		})
	}
}

func TestLoad_Overrides(t *testing.T) {
	clearAllEnv(t)
	t.Setenv("FOLIO_STORE", "postgres")
	t.Setenv("FOLIO_DATABASE_URL", "postgres://localhost/folio")
	t.Setenv("FOLIO_MEDIA", "minio")
	t.Setenv("FOLIO_MINIO_ENDPOINT", "localhost:9000")
	t.Setenv("FOLIO_MINIO_USE_SSL", "true")
	t.Setenv("FOLIO_BACKUP_INTERVAL", "1h")
	t.Setenv("FOLIO_MESSAGE_RATE_LIMIT", "0")
	t.Setenv("FOLIO_GRPC_ADDR", ":9090")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Store != "postgres" || cfg.DatabaseURL != "postgres://localhost/folio" {
		t.Errorf("store = %q url = %q", cfg.Store, cfg.DatabaseURL)
	}
	if !cfg.MinioUseSSL || cfg.MinioBucket != "folio" {
		t.Errorf("minio ssl = %v bucket = %q", cfg.MinioUseSSL, cfg.MinioBucket)
	}
	if cfg.BackupInterval != time.Hour {
		t.Errorf("BackupInterval = %v", cfg.BackupInterval)
	}
	if cfg.MessageRateLimit != 0 {
		t.Errorf("MessageRateLimit = %d, want 0", cfg.MessageRateLimit)
	}
	if cfg.GRPCAddr != ":9090" {
		t.Errorf("GRPCAddr = %q", cfg.GRPCAddr)
	}
}
