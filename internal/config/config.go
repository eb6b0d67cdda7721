// Package config provides centralized configuration management for the migration service.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"strconv"
	"time"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Upload    UploadConfig
	Rate      RateLimitConfig
	Security  SecurityConfig
	Logging   LoggingConfig
	Extractor ExtractorConfig
	Cache     CacheConfig
	Import    ImportConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading request body (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout is the maximum duration for writing response (default: 0 for SSE)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"0s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for non-streaming requests (default: 60s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string (required)
	URL string `env:"DATABASE_URL" envAlt:"DB_URL" required:"true"`

	MaxConns        int           `env:"DB_MAX_CONNS" default:"20"`
	MinConns        int           `env:"DB_MIN_CONNS" default:"4"`
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`
}

// UploadConfig holds file import settings.
type UploadConfig struct {
	// MaxFileSize is the maximum accepted upload in bytes (default: 50MB)
	MaxFileSize int64 `env:"UPLOAD_MAX_FILE_SIZE" default:"52428800"`

	// MaxConcurrent is the maximum number of file imports processed at once (default: 4)
	MaxConcurrent int `env:"UPLOAD_MAX_CONCURRENT" default:"4"`

	// MaxWaitTime is how long an import waits for a free slot (default: 30s)
	MaxWaitTime time.Duration `env:"UPLOAD_MAX_WAIT_TIME" default:"30s"`

	// Timeout bounds a single file import (default: 10m)
	Timeout time.Duration `env:"UPLOAD_TIMEOUT" default:"10m"`
}

// RateLimitConfig holds per-IP request throttling settings.
type RateLimitConfig struct {
	Enabled           bool `env:"RATE_LIMIT_ENABLED" default:"true"`
	RequestsPerMinute int  `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"120"`

	// Burst is the number of requests allowed above the steady rate (default: 20)
	Burst int `env:"RATE_LIMIT_BURST" default:"20"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// EnableCSP enables Content-Security-Policy headers (default: true)
	EnableCSP bool `env:"SECURITY_ENABLE_CSP" default:"true"`

	// RequireAPIKey rejects requests without a valid X-API-Key header
	RequireAPIKey bool `env:"REQUIRE_API_KEY" default:"false"`

	// APIKeys is a comma-separated list of accepted keys
	APIKeys []string `env:"API_KEYS"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// ExtractorConfig configures the content-extraction collaborator.
type ExtractorConfig struct {
	// URL is the extraction endpoint that turns a page URL into html/branding/menus
	URL string `env:"EXTRACTOR_URL" default:"http://localhost:3002/v1/extract"`

	APIKey  string        `env:"EXTRACTOR_API_KEY"`
	Timeout time.Duration `env:"EXTRACTOR_TIMEOUT" default:"45s"`

	// RequestsPerSecond and Burst feed the client-side token bucket
	RequestsPerSecond float64 `env:"EXTRACTOR_RPS" default:"2"`
	Burst             int     `env:"EXTRACTOR_BURST" default:"1"`

	MaxRetries     int           `env:"EXTRACTOR_MAX_RETRIES" default:"3"`
	RetryBaseDelay time.Duration `env:"EXTRACTOR_RETRY_BASE_DELAY" default:"500ms"`

	// WaitTime is forwarded as options.wait_time, in milliseconds (default: 1500)
	WaitTime int `env:"EXTRACTOR_WAIT_TIME_MS" default:"1500"`
}

// CacheConfig configures the extraction result cache.
type CacheConfig struct {
	// RedisURL enables the redis cache; an in-memory cache is used when empty
	RedisURL string        `env:"REDIS_URL"`
	TTL      time.Duration `env:"CACHE_TTL" default:"30m"`
	Prefix   string        `env:"CACHE_PREFIX" default:"storemigrate:extract:"`
}

// ImportConfig tunes the structure-import pipeline.
type ImportConfig struct {
	// ChunkSize is the number of entities persisted per chunk (default: 25)
	ChunkSize int `env:"IMPORT_CHUNK_SIZE" default:"25"`

	// ChunkConcurrency bounds how many chunks are persisted at once (default: 4)
	ChunkConcurrency int `env:"IMPORT_CHUNK_CONCURRENCY" default:"4"`

	// MaxMenuDepth caps nesting of navigation menus (default: 6)
	MaxMenuDepth int `env:"IMPORT_MAX_MENU_DEPTH" default:"6"`

	// StaleStageAfter marks processing stages older than this as interrupted (default: 30m)
	StaleStageAfter time.Duration `env:"IMPORT_STALE_STAGE_AFTER" default:"30m"`

	// SweepInterval is how often the stale-stage sweeper runs (default: 5m)
	SweepInterval time.Duration `env:"IMPORT_SWEEP_INTERVAL" default:"5m"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}
