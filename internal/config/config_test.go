package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

var managedKeys = []string{
	"PORT", "HOST", "STORE_DRIVER", "DATABASE_URL", "DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME", "DB_SSLMODE",
	"MONGO_URI", "MONGO_DATABASE", "MEDIA_DRIVER", "MEDIA_PUBLIC_BASE_URL", "MEDIA_S3_BUCKET", "MEDIA_S3_REGION",
	"MEDIA_S3_ENDPOINT", "MEDIA_S3_PATH_STYLE", "MEDIA_MAX_IMAGE_BYTES", "MEDIA_MAX_AUDIO_BYTES", "JWT_SECRET",
	"SESSION_TTL", "CORS_ALLOWED_ORIGINS", "LOG_LEVEL", "LOG_FORMAT", "LOG_FILE", "RATE_LIMIT_RPS", "RATE_LIMIT_BURST",
}

// clearEnv blanks every variable Load reads so the host environment cannot leak in.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range managedKeys {
		t.Setenv(key, "")
	}
}

func noEnvFile(t *testing.T) string {
	return filepath.Join(t.TempDir(), "missing.env")
}

func TestLoadMemoryDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("MEDIA_DRIVER", "memory")
	t.Setenv("JWT_SECRET", "0123456789abcdef")

	cfg, err := Load(noEnvFile(t))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if got := cfg.Server.Addr(); got != "0.0.0.0:8080" {
		t.Fatalf("Addr = %q", got)
	}
	if cfg.Media.MaxImageBytes != 5<<20 || cfg.Media.MaxAudioBytes != 50<<20 {
		t.Fatalf("unexpected media limits: %+v", cfg.Media)
	}
	if cfg.Security.SessionTTL != 24*time.Hour {
		t.Fatalf("SessionTTL = %v", cfg.Security.SessionTTL)
	}
	if len(cfg.CORS.AllowedOrigins) != 2 {
		t.Fatalf("AllowedOrigins = %v", cfg.CORS.AllowedOrigins)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "json" {
		t.Fatalf("logging = %+v", cfg.Logging)
	}
}

func TestLoadBuildsDatabaseURLFromParts(t *testing.T) {
	clearEnv(t)
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_USER", "atlas")
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("DB_NAME", "catalog")
	t.Setenv("MEDIA_DRIVER", "memory")
	t.Setenv("JWT_SECRET", "0123456789abcdef")

	cfg, err := Load(noEnvFile(t))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := "postgresql://atlas:secret@db:5432/catalog?sslmode=disable"
	if cfg.Store.DatabaseURL != want {
		t.Fatalf("DatabaseURL = %q, want %q", cfg.Store.DatabaseURL, want)
	}
}

func TestLoadReadsEnvFile(t *testing.T) {
	clearEnv(t)
	// godotenv never overrides a variable that is present, even when empty.
	for _, key := range managedKeys {
		os.Unsetenv(key)
	}
	t.Cleanup(func() {
		for _, key := range managedKeys {
			os.Unsetenv(key)
		}
	})
	path := filepath.Join(t.TempDir(), "test.env")
	content := strings.Join([]string{
		"STORE_DRIVER=mongo",
		"MONGO_URI=mongodb://localhost:27017",
		"MEDIA_DRIVER=s3",
		"MEDIA_S3_BUCKET=atlas-media",
		"MEDIA_PUBLIC_BASE_URL=https://cdn.example.com/",
		"MEDIA_S3_PATH_STYLE=true",
		"JWT_SECRET=0123456789abcdef",
		"CORS_ALLOWED_ORIGINS=https://a.example.com, https://b.example.com,",
		"RATE_LIMIT_RPS=0.5",
	}, "\n")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Store.Driver != StoreMongo || cfg.Store.MongoDatabase != "musicatlas" {
		t.Fatalf("store = %+v", cfg.Store)
	}
	if cfg.Media.PublicBaseURL != "https://cdn.example.com" || !cfg.Media.S3PathStyle {
		t.Fatalf("media = %+v", cfg.Media)
	}
	if len(cfg.CORS.AllowedOrigins) != 2 || cfg.CORS.AllowedOrigins[1] != "https://b.example.com" {
		t.Fatalf("AllowedOrigins = %v", cfg.CORS.AllowedOrigins)
	}
	if cfg.RateLimit.RPS != 0.5 {
		t.Fatalf("RPS = %v", cfg.RateLimit.RPS)
	}
}

func TestLoadCollectsValidationErrors(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORE_DRIVER", "cassandra")
	t.Setenv("MEDIA_DRIVER", "s3")
	t.Setenv("JWT_SECRET", "short")
	t.Setenv("LOG_LEVEL", "verbose")

	_, err := Load(noEnvFile(t))
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"STORE_DRIVER", "MEDIA_S3_BUCKET", "JWT_SECRET", "LOG_LEVEL"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %s", err, want)
		}
	}
}

func TestLoadRejectsMalformedNumbers(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "eighty")

	if _, err := Load(noEnvFile(t)); err == nil || !strings.Contains(err.Error(), "PORT") {
		t.Fatalf("expected PORT error, got %v", err)
	}
}
