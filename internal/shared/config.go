package shared

import (
	_ "embed"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Log         LogConfig         `toml:"log"`
	Database    DatabaseConfig    `toml:"database"`
	Server      ServerConfig      `toml:"server"`
	Provider    ProviderConfig    `toml:"provider"`
	Credentials CredentialsConfig `toml:"credentials"`
	Playback    PlaybackConfig    `toml:"playback"`
	Client      ClientConfig      `toml:"client"`
}

// LogConfig controls the application logger.
type LogConfig struct {
	Level string `toml:"level"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Driver       string `toml:"driver"`
	Path         string `toml:"path"`
	URL          string `toml:"url"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host                   string `toml:"host"`
	Port                   int    `toml:"port"`
	ReadTimeoutSeconds     int    `toml:"read_timeout_seconds"`
	WriteTimeoutSeconds    int    `toml:"write_timeout_seconds"`
	ShutdownTimeoutSeconds int    `toml:"shutdown_timeout_seconds"`
}

// Addr joins host and port into a listen address.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// ProviderConfig selects and tunes the remote catalog provider.
type ProviderConfig struct {
	Kind           string  `toml:"kind"`
	BaseURL        string  `toml:"base_url"`
	TimeoutSeconds int     `toml:"timeout_seconds"`
	RateLimit      float64 `toml:"rate_limit"`
}

// Timeout returns the per-request provider timeout.
func (p ProviderConfig) Timeout() time.Duration {
	return time.Duration(p.TimeoutSeconds) * time.Second
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Jamendo JamendoConfig `toml:"jamendo"`
	Spotify SpotifyConfig `toml:"spotify"`
}

// JamendoConfig contains Jamendo API credentials.
type JamendoConfig struct {
	ClientID string `toml:"client_id"`
}

// SpotifyConfig contains Spotify client-credentials.
type SpotifyConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
}

// PlaybackConfig tunes playback sessions and listening history.
type PlaybackConfig struct {
	HistoryTimeoutSeconds int `toml:"history_timeout_seconds"`
	HistoryLimit          int `toml:"history_limit"`
	SessionIdleSeconds    int `toml:"session_idle_seconds"` // 0 keeps idle sessions until deleted
}

// HistoryTimeout bounds a single detached history recording.
func (p PlaybackConfig) HistoryTimeout() time.Duration {
	return time.Duration(p.HistoryTimeoutSeconds) * time.Second
}

// SessionIdle is how long an HTTP playback session may go unused before it is ended.
func (p PlaybackConfig) SessionIdle() time.Duration {
	return time.Duration(p.SessionIdleSeconds) * time.Second
}

// ClientConfig configures the terminal client talking to a running server.
type ClientConfig struct {
	BaseURL string `toml:"base_url"`
	UserID  int64  `toml:"user_id"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep the embedded defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks enumerated values and numeric ranges.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("%w: unknown database driver %q", ErrInvalidConfig, c.Database.Driver)
	}

	switch c.Provider.Kind {
	case "jamendo", "spotify", "none":
	default:
		return fmt.Errorf("%w: unknown provider kind %q", ErrInvalidConfig, c.Provider.Kind)
	}

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: server port %d out of range", ErrInvalidConfig, c.Server.Port)
	}

	if c.Playback.HistoryLimit < 1 {
		return fmt.Errorf("%w: playback.history_limit must be positive", ErrInvalidConfig)
	}

	if c.Playback.SessionIdleSeconds < 0 {
		return fmt.Errorf("%w: playback.session_idle_seconds must not be negative", ErrInvalidConfig)
	}

	return nil
}
