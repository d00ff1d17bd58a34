// Package config loads service configuration from environment variables,
// optionally layered over a TOML file, and validates it on startup so
// misconfiguration fails fast.
package config

import (
	"net"
	"strconv"
	"time"
)

// Config holds all service configuration.
type Config struct {
	Server   ServerConfig    `toml:"server"`
	Database DatabaseConfig  `toml:"database"`
	Catalog  CatalogConfig   `toml:"catalog"`
	Import   ImportConfig    `toml:"import"`
	Diff     DiffConfig      `toml:"diff"`
	PlayFab  PlayFabConfig   `toml:"playfab"`
	Rate     RateLimitConfig `toml:"rate"`
	Security SecurityConfig  `toml:"security"`
	Logging  LoggingConfig   `toml:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading a request (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout is the maximum duration for writing a response (default: 60s)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"60s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout bounds graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 60s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string (required).
	// DATABASE_URL and DB_URL are both accepted.
	URL string `env:"DATABASE_URL" envAlt:"DB_URL" required:"true"`

	MaxConns        int           `env:"DB_MAX_CONNS" default:"10"`
	MinConns        int           `env:"DB_MIN_CONNS" default:"2"`
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`
}

// CatalogConfig holds catalog defaults.
type CatalogConfig struct {
	// DefaultVersion is the catalog version items are stored under and
	// pushed to (default: Main)
	DefaultVersion string `env:"CATALOG_VERSION" envAlt:"PLAYFAB_CATALOG_VERSION" default:"Main"`

	// SetAsDefaultCatalog marks the pushed version as the title default
	SetAsDefaultCatalog bool `env:"CATALOG_SET_AS_DEFAULT" default:"false"`
}

// ImportConfig holds CSV and JSON import settings.
type ImportConfig struct {
	// MaxFileSize is the largest accepted file in bytes (default: 20MB)
	MaxFileSize int64 `env:"IMPORT_MAX_FILE_SIZE" default:"20971520"`

	// MaxConcurrent is the number of imports and pushes that may run at once (default: 4)
	MaxConcurrent int `env:"IMPORT_MAX_CONCURRENT" default:"4"`

	// MaxWaitTime is how long to wait for a free slot (default: 30s)
	MaxWaitTime time.Duration `env:"IMPORT_MAX_WAIT_TIME" default:"30s"`

	// Timeout bounds a single import (default: 5m)
	Timeout time.Duration `env:"IMPORT_TIMEOUT" default:"5m"`

	// Retention is how long import history is kept (default: 30 days)
	Retention time.Duration `env:"IMPORT_RETENTION" default:"720h"`

	// PruneInterval is how often old imports are deleted (default: 24h)
	PruneInterval time.Duration `env:"IMPORT_PRUNE_INTERVAL" default:"24h"`
}

// DiffConfig holds diff session settings.
type DiffConfig struct {
	// SessionTTL is how long an idle diff session is kept (default: 30m)
	SessionTTL time.Duration `env:"DIFF_SESSION_TTL" default:"30m"`

	// MaxSessions caps open diff sessions (default: 500)
	MaxSessions int `env:"DIFF_MAX_SESSIONS" default:"500"`

	// MaxInputSize caps each side of a diff request in bytes (default: 1MB)
	MaxInputSize int64 `env:"DIFF_MAX_INPUT_SIZE" default:"1048576"`
}

// PlayFabConfig holds Admin API credentials. Pushing and remote compares are
// disabled when TitleID or SecretKey is empty.
type PlayFabConfig struct {
	TitleID    string        `env:"PLAYFAB_TITLE_ID"`
	SecretKey  string        `env:"PLAYFAB_SECRET_KEY" envAlt:"PLAYFAB_DEVELOPER_SECRET_KEY"`
	BaseURL    string        `env:"PLAYFAB_BASE_URL"`
	Timeout    time.Duration `env:"PLAYFAB_TIMEOUT" default:"30s"`
	MaxRetries int           `env:"PLAYFAB_MAX_RETRIES" default:"3"`
}

// Enabled reports whether credentials are configured.
func (c *PlayFabConfig) Enabled() bool {
	return c.TitleID != "" && c.SecretKey != ""
}

// RateLimitConfig holds per-IP rate limits.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the default limit per IP (default: 100)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"100"`

	// ImportLimit is requests per minute for import and push endpoints (default: 10)
	ImportLimit int `env:"RATE_LIMIT_IMPORT" envAlt:"RATE_LIMIT_UPLOAD" default:"10"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// EnableCSP enables Content-Security-Policy headers (default: true)
	EnableCSP bool `env:"SECURITY_ENABLE_CSP" default:"true"`

	// RequireAPIKey rejects /api requests without a valid X-API-Key
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

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
