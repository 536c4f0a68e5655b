// Package config loads the statstable settings from environment variables.
// Every field carries its env name and default in struct tags; Load fills the
// struct and validates it so a bad deployment fails at startup.
package config

import (
	"net"
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Source   SourceConfig
	Display  DisplayConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" envAlt:"PORT" default:"8080"`

	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"30s"`
	IdleTimeout     time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"15s"`

	// RequestTimeout is the middleware timeout for requests (default: 30s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"30s"`

	// PublicDir is served at the site root for *.csv files, so the default
	// source path /result.csv resolves to PublicDir/result.csv.
	PublicDir string `env:"PUBLIC_DIR" default:"public"`
}

// SourceConfig describes where the CSV document comes from.
type SourceConfig struct {
	// URL is an http(s) URL, a path relative to BaseURL, a file path, a
	// file:// URL or an s3://bucket/key URL (default: /result.csv)
	URL string `env:"SOURCE_URL" default:"/result.csv"`

	// BaseURL resolves relative source paths. Empty means this server's own
	// listen address.
	BaseURL string `env:"SOURCE_BASE_URL"`

	// Timeout bounds a single fetch (default: 10s)
	Timeout time.Duration `env:"SOURCE_TIMEOUT" default:"10s"`

	// MaxBytes is the largest payload accepted (default: 10MB)
	MaxBytes int64 `env:"SOURCE_MAX_BYTES" default:"10485760"`

	// S3Region overrides the region resolved by the AWS default chain.
	S3Region string `env:"SOURCE_S3_REGION" envAlt:"AWS_REGION"`
}

// DisplayConfig controls the rendered page.
type DisplayConfig struct {
	Heading string `env:"DISPLAY_HEADING" default:"Today's Hockey Matchups"`

	// EvenClass and OddClass are applied to body rows by index parity.
	EvenClass string `env:"DISPLAY_EVEN_CLASS" default:"matchup-start"`
	OddClass  string `env:"DISPLAY_ODD_CLASS" default:"matchup-end"`
}

// RateLimitConfig holds per-IP rate limiting settings.
type RateLimitConfig struct {
	Enabled           bool `env:"RATE_LIMIT_ENABLED" default:"true"`
	RequestsPerMinute int  `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"120"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of proxy CIDRs whose
	// X-Real-IP / X-Forwarded-For headers are honoured.
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	EnableCSP bool `env:"SECURITY_ENABLE_CSP" default:"true"`
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

// SelfURL is the base URL this server can be reached at from the same host.
// Wildcard binds are rewritten to loopback.
func (c *ServerConfig) SelfURL() string {
	host := c.Host
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}
	return "http://" + net.JoinHostPort(host, strconv.Itoa(c.Port))
}

// ResolvedBaseURL returns Source.BaseURL, falling back to the server's own URL.
func (c *Config) ResolvedBaseURL() string {
	if c.Source.BaseURL != "" {
		return c.Source.BaseURL
	}
	return c.Server.SelfURL()
}
