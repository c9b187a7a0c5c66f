package entities

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Config is the complete application configuration, loaded from a TOML
// file and overridable by CLI flags (see adapters/secondary/config).
type Config struct {
	Server  ServerConfig  `toml:"server"`
	Client  ClientConfig  `toml:"client"`
	Deck    DeckConfig    `toml:"deck"`
	Logging LoggingConfig `toml:"logging"`
}

// Validate validates the entire configuration.
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server config: %w", err)
	}
	if err := c.Client.Validate(); err != nil {
		return fmt.Errorf("client config: %w", err)
	}
	if err := c.Deck.Validate(); err != nil {
		return fmt.Errorf("deck config: %w", err)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}
	return nil
}

// ServerConfig contains HTTP/WS server configuration.
type ServerConfig struct {
	Host                string   `toml:"host"`
	Port                int      `toml:"port"`
	ShutdownTimeoutSecs int      `toml:"shutdown_timeout_secs"`
	Environment         string   `toml:"environment"`
	CORSOrigins         []string `toml:"cors_origins"`
}

// Validate validates server configuration.
func (s ServerConfig) Validate() error {
	if s.Port < 0 || s.Port > 65535 {
		return errors.New("port must be between 0 and 65535")
	}

	if s.Host != "" {
		if ip := net.ParseIP(s.Host); ip == nil {
			if _, err := net.LookupHost(s.Host); err != nil {
				return fmt.Errorf("invalid host: %w", err)
			}
		}
	}

	if s.ShutdownTimeoutSecs < 0 {
		return errors.New("shutdown timeout must be non-negative")
	}

	for _, origin := range s.CORSOrigins {
		if origin == "" {
			return errors.New("CORS origin cannot be empty")
		}
		if origin == "*" {
			continue
		}
		if len(origin) < 7 || (!strings.HasPrefix(origin, "http://") && !strings.HasPrefix(origin, "https://")) {
			return fmt.Errorf("invalid CORS origin format: %s (must start with http:// or https://)", origin)
		}
	}

	return nil
}

// ShutdownTimeout returns the shutdown timeout as a duration, defaulting
// to 30s per spec.
func (s ServerConfig) ShutdownTimeout() time.Duration {
	if s.ShutdownTimeoutSecs <= 0 {
		return 30 * time.Second
	}
	return time.Duration(s.ShutdownTimeoutSecs) * time.Second
}

// GetCORSOrigins returns CORS origins with secure localhost defaults if empty.
func (s ServerConfig) GetCORSOrigins() []string {
	if len(s.CORSOrigins) == 0 {
		return []string{
			"http://localhost:3000",
			"http://127.0.0.1:3000",
			"http://localhost:8080",
			"http://127.0.0.1:8080",
		}
	}
	return s.CORSOrigins
}

// IsDevelopment returns true if the server is running in development mode.
func (s ServerConfig) IsDevelopment() bool {
	return s.Environment == "development" || s.Environment == ""
}

// ClientConfig bounds the client registry and WebSocket session lifecycle.
type ClientConfig struct {
	MaxClients            int `toml:"max_clients"`
	HeartbeatIntervalSecs int `toml:"heartbeat_interval_secs"`
	ConnectionTimeoutSecs int `toml:"connection_timeout_secs"`
	CleanupIntervalSecs   int `toml:"cleanup_interval_secs"`
}

// Validate validates client configuration.
func (c ClientConfig) Validate() error {
	if c.MaxClients <= 0 {
		return errors.New("max_clients must be greater than 0")
	}
	if c.HeartbeatIntervalSecs <= 0 {
		return errors.New("heartbeat_interval_secs must be greater than 0")
	}
	if c.ConnectionTimeoutSecs <= 0 {
		return errors.New("connection_timeout_secs must be greater than 0")
	}
	if c.CleanupIntervalSecs <= 0 {
		return errors.New("cleanup_interval_secs must be greater than 0")
	}
	return nil
}

// MaxClientsOrDefault returns max_clients, defaulting to 100 per spec.
func (c ClientConfig) MaxClientsOrDefault() int {
	if c.MaxClients <= 0 {
		return 100
	}
	return c.MaxClients
}

// HeartbeatInterval returns the heartbeat interval, defaulting to 30s.
func (c ClientConfig) HeartbeatInterval() time.Duration {
	if c.HeartbeatIntervalSecs <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.HeartbeatIntervalSecs) * time.Second
}

// ConnectionTimeout returns the heartbeat timeout, defaulting to 60s.
func (c ClientConfig) ConnectionTimeout() time.Duration {
	if c.ConnectionTimeoutSecs <= 0 {
		return 60 * time.Second
	}
	return time.Duration(c.ConnectionTimeoutSecs) * time.Second
}

// CleanupInterval returns the sweep interval, defaulting to 60s.
func (c ClientConfig) CleanupInterval() time.Duration {
	if c.CleanupIntervalSecs <= 0 {
		return 60 * time.Second
	}
	return time.Duration(c.CleanupIntervalSecs) * time.Second
}

// DeckConfig locates the deck source and controls hot reload.
type DeckConfig struct {
	Path      string  `toml:"path"`
	Watch     bool    `toml:"watch"`
	PublicDir *string `toml:"public_dir,omitempty"`
}

// Validate validates deck configuration.
func (d DeckConfig) Validate() error {
	if d.Path == "" {
		return errors.New("deck path is required")
	}
	if _, err := os.Stat(d.Path); err != nil {
		return fmt.Errorf("deck file does not exist: %s", d.Path)
	}
	if ext := filepath.Ext(d.Path); ext != ".toml" {
		return fmt.Errorf("deck file must have .toml extension, got %q", ext)
	}
	if d.PublicDir != nil {
		info, err := os.Stat(*d.PublicDir)
		if err != nil {
			return fmt.Errorf("public dir does not exist: %s", *d.PublicDir)
		}
		if !info.IsDir() {
			return fmt.Errorf("public dir is not a directory: %s", *d.PublicDir)
		}
	}
	return nil
}

// LogLevel represents a logging level.
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level   string `toml:"level"`
	Verbose bool   `toml:"verbose"`
}

// Validate validates logging configuration.
func (l LoggingConfig) Validate() error {
	switch LogLevel(l.Level) {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError, "":
		return nil
	default:
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", l.Level)
	}
}

// GetLevel returns the log level, defaulting to info.
func (l LoggingConfig) GetLevel() LogLevel {
	if l.Level == "" {
		return LogLevelInfo
	}
	return LogLevel(l.Level)
}

// DefaultConfig returns a Config populated with every documented default.
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Host:                "127.0.0.1",
			Port:                8080,
			ShutdownTimeoutSecs: 30,
		},
		Client: ClientConfig{
			MaxClients:            100,
			HeartbeatIntervalSecs: 30,
			ConnectionTimeoutSecs: 60,
			CleanupIntervalSecs:   60,
		},
		Logging: LoggingConfig{
			Level: string(LogLevelInfo),
		},
	}
}
