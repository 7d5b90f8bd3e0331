// Package config loads application settings from the environment.
package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store drivers.
const (
	StorePostgres = "postgres"
	StoreMongo    = "mongo"
	StoreMemory   = "memory"
)

// Media drivers.
const (
	MediaS3     = "s3"
	MediaMemory = "memory"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	Store     StoreConfig
	Media     MediaConfig
	Security  SecurityConfig
	CORS      CORSConfig
	Logging   LoggingConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port int
	Host string
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// StoreConfig selects and addresses the document store.
type StoreConfig struct {
	Driver        string
	DatabaseURL   string
	MongoURI      string
	MongoDatabase string
}

// MediaConfig selects and addresses the media host.
type MediaConfig struct {
	Driver        string
	PublicBaseURL string
	S3Bucket      string
	S3Region      string
	S3Endpoint    string
	S3PathStyle   bool
	MaxImageBytes int64
	MaxAudioBytes int64
}

// SecurityConfig holds security-related settings
type SecurityConfig struct {
	JWTSecret  string
	SessionTTL time.Duration
}

// CORSConfig holds CORS settings
type CORSConfig struct {
	AllowedOrigins []string
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, text
	File   string
}

// RateLimitConfig bounds mutating requests per client.
type RateLimitConfig struct {
	RPS   float64
	Burst int
}

// Load reads configuration from environment variables, after applying any .env files found.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env", "config/local.env"}
	}
	for _, file := range envFiles {
		_ = godotenv.Load(file)
	}

	cfg := &Config{}
	loaders := []struct {
		name string
		load func() error
	}{
		{"server", cfg.loadServer},
		{"store", cfg.loadStore},
		{"media", cfg.loadMedia},
		{"security", cfg.loadSecurity},
		{"rate limit", cfg.loadRateLimit},
	}
	for _, l := range loaders {
		if err := l.load(); err != nil {
			return nil, fmt.Errorf("load %s config: %w", l.name, err)
		}
	}
	cfg.loadCORS()
	cfg.loadLogging()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

func (c *Config) loadServer() error {
	port, err := strconv.Atoi(getEnvOrDefault("PORT", "8080"))
	if err != nil {
		return fmt.Errorf("invalid PORT: %w", err)
	}
	c.Server.Port = port
	c.Server.Host = getEnvOrDefault("HOST", "0.0.0.0")
	return nil
}

func (c *Config) loadStore() error {
	c.Store.Driver = strings.ToLower(getEnvOrDefault("STORE_DRIVER", StorePostgres))
	c.Store.MongoURI = os.Getenv("MONGO_URI")
	c.Store.MongoDatabase = getEnvOrDefault("MONGO_DATABASE", "musicatlas")

	c.Store.DatabaseURL = os.Getenv("DATABASE_URL")
	if c.Store.DatabaseURL != "" {
		return nil
	}

	// Construct from individual parameters
	host := getEnvOrDefault("DB_HOST", "localhost")
	user := os.Getenv("DB_USER")
	name := os.Getenv("DB_NAME")
	port, err := strconv.Atoi(getEnvOrDefault("DB_PORT", "5432"))
	if err != nil {
		return fmt.Errorf("invalid DB_PORT: %w", err)
	}
	if user != "" && name != "" {
		c.Store.DatabaseURL = fmt.Sprintf(
			"postgresql://%s:%s@%s:%d/%s?sslmode=%s",
			user,
			os.Getenv("DB_PASSWORD"),
			host,
			port,
			name,
			getEnvOrDefault("DB_SSLMODE", "disable"),
		)
	}
	return nil
}

func (c *Config) loadMedia() error {
	c.Media.Driver = strings.ToLower(getEnvOrDefault("MEDIA_DRIVER", MediaS3))
	c.Media.PublicBaseURL = strings.TrimRight(os.Getenv("MEDIA_PUBLIC_BASE_URL"), "/")
	c.Media.S3Bucket = os.Getenv("MEDIA_S3_BUCKET")
	c.Media.S3Region = getEnvOrDefault("MEDIA_S3_REGION", "us-east-1")
	c.Media.S3Endpoint = os.Getenv("MEDIA_S3_ENDPOINT")

	pathStyle, err := strconv.ParseBool(getEnvOrDefault("MEDIA_S3_PATH_STYLE", "false"))
	if err != nil {
		return fmt.Errorf("invalid MEDIA_S3_PATH_STYLE: %w", err)
	}
	c.Media.S3PathStyle = pathStyle

	if c.Media.MaxImageBytes, err = getInt64("MEDIA_MAX_IMAGE_BYTES", 5<<20); err != nil {
		return err
	}
	if c.Media.MaxAudioBytes, err = getInt64("MEDIA_MAX_AUDIO_BYTES", 50<<20); err != nil {
		return err
	}
	return nil
}

func (c *Config) loadSecurity() error {
	c.Security.JWTSecret = os.Getenv("JWT_SECRET")
	ttl, err := time.ParseDuration(getEnvOrDefault("SESSION_TTL", "24h"))
	if err != nil {
		return fmt.Errorf("invalid SESSION_TTL: %w", err)
	}
	c.Security.SessionTTL = ttl
	return nil
}

func (c *Config) loadRateLimit() error {
	rps, err := strconv.ParseFloat(getEnvOrDefault("RATE_LIMIT_RPS", "5"), 64)
	if err != nil {
		return fmt.Errorf("invalid RATE_LIMIT_RPS: %w", err)
	}
	burst, err := strconv.Atoi(getEnvOrDefault("RATE_LIMIT_BURST", "10"))
	if err != nil {
		return fmt.Errorf("invalid RATE_LIMIT_BURST: %w", err)
	}
	c.RateLimit = RateLimitConfig{RPS: rps, Burst: burst}
	return nil
}

func (c *Config) loadCORS() {
	originsEnv := os.Getenv("CORS_ALLOWED_ORIGINS")
	if originsEnv == "" {
		// Default for local development
		c.CORS.AllowedOrigins = []string{"http://localhost:3000", "http://localhost:5173"}
		return
	}
	for _, origin := range strings.Split(originsEnv, ",") {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			c.CORS.AllowedOrigins = append(c.CORS.AllowedOrigins, trimmed)
		}
	}
}

func (c *Config) loadLogging() {
	c.Logging.Level = strings.ToLower(getEnvOrDefault("LOG_LEVEL", "info"))
	c.Logging.Format = strings.ToLower(getEnvOrDefault("LOG_FORMAT", "json"))
	c.Logging.File = os.Getenv("LOG_FILE")
}

// Validate checks that all required configuration is present and valid
func (c *Config) Validate() error {
	var errors []string

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errors = append(errors, "PORT must be between 1 and 65535")
	}

	switch c.Store.Driver {
	case StorePostgres:
		if c.Store.DatabaseURL == "" {
			errors = append(errors, "DATABASE_URL is required (or DB_HOST, DB_USER, DB_NAME)")
		}
	case StoreMongo:
		if c.Store.MongoURI == "" {
			errors = append(errors, "MONGO_URI is required when STORE_DRIVER=mongo")
		}
	case StoreMemory:
	default:
		errors = append(errors, "STORE_DRIVER must be one of: postgres, mongo, memory")
	}

	switch c.Media.Driver {
	case MediaS3:
		if c.Media.S3Bucket == "" {
			errors = append(errors, "MEDIA_S3_BUCKET is required when MEDIA_DRIVER=s3")
		}
		if c.Media.PublicBaseURL == "" {
			errors = append(errors, "MEDIA_PUBLIC_BASE_URL is required when MEDIA_DRIVER=s3")
		}
	case MediaMemory:
	default:
		errors = append(errors, "MEDIA_DRIVER must be one of: s3, memory")
	}
	if c.Media.MaxImageBytes <= 0 || c.Media.MaxAudioBytes <= 0 {
		errors = append(errors, "MEDIA_MAX_IMAGE_BYTES and MEDIA_MAX_AUDIO_BYTES must be positive")
	}

	if len(c.Security.JWTSecret) < 16 {
		errors = append(errors, "JWT_SECRET must be at least 16 characters")
	}
	if c.Security.SessionTTL <= 0 {
		errors = append(errors, "SESSION_TTL must be positive")
	}

	if c.RateLimit.RPS <= 0 || c.RateLimit.Burst < 1 {
		errors = append(errors, "RATE_LIMIT_RPS must be positive and RATE_LIMIT_BURST at least 1")
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		errors = append(errors, "LOG_LEVEL must be one of: debug, info, warn, error")
	}
	validLogFormats := map[string]bool{"json": true, "text": true}
	if !validLogFormats[c.Logging.Format] {
		errors = append(errors, "LOG_FORMAT must be one of: json, text")
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errors, "\n  - "))
	}
	return nil
}

// getEnvOrDefault returns the environment variable value or a default
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt64(key string, defaultValue int64) (int64, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return value, nil
}
