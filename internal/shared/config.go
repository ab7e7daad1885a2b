package shared

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Backend  BackendConfig  `toml:"backend"`
	Server   ServerConfig   `toml:"server"`
	Client   ClientConfig   `toml:"client"`
	Database DatabaseConfig `toml:"database"`
	Log      LogConfig      `toml:"log"`
}

// BackendConfig describes the external movie API the proxy forwards to.
type BackendConfig struct {
	URL                   string `toml:"url"`
	TimeoutSeconds        int    `toml:"timeout_seconds"`
	BreakerFailures       int    `toml:"breaker_failures"`
	BreakerTimeoutSeconds int    `toml:"breaker_timeout_seconds"`
}

// Timeout returns the per-request backend timeout.
func (b BackendConfig) Timeout() time.Duration {
	return time.Duration(b.TimeoutSeconds) * time.Second
}

// BreakerTimeout returns how long the circuit stays open before probing the backend again.
func (b BackendConfig) BreakerTimeout() time.Duration {
	return time.Duration(b.BreakerTimeoutSeconds) * time.Second
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host         string  `toml:"host"`
	Port         int     `toml:"port"`
	ContactRate  float64 `toml:"contact_rate"`
	ContactBurst int     `toml:"contact_burst"`
	// TrustedProxies are the addresses or CIDR ranges whose X-Forwarded-For header is believed.
	TrustedProxies []string `toml:"trusted_proxies"`
}

// Addr returns the host:port listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// ClientConfig describes how the CLI and TUI reach the proxy.
type ClientConfig struct {
	AppURL         string `toml:"app_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Timeout returns the client request timeout.
func (c ClientConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// LogConfig contains logger settings.
type LogConfig struct {
	Level string `toml:"level"`
}

// ParsedLevel returns the configured [log.Level], defaulting to info.
func (l LogConfig) ParsedLevel() log.Level {
	lvl, err := log.ParseLevel(l.Level)
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}

// envOverrides holds the environment variables that take precedence over the TOML file.
type envOverrides struct {
	BackendURL       string `envconfig:"BACKEND_URL"`
	PublicBackendURL string `envconfig:"PUBLIC_BACKEND_URL"`
	Host             string `envconfig:"FLICKX_HOST"`
	Port             int    `envconfig:"FLICKX_PORT"`
	DatabasePath     string `envconfig:"FLICKX_DATABASE_PATH"`
	LogLevel         string `envconfig:"FLICKX_LOG_LEVEL"`
	AppURL           string `envconfig:"FLICKX_APP_URL"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
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

// ResolveConfig loads path when it exists (defaults otherwise), then applies a .env file from envFile and the
// process environment on top.
//
// A missing .env file is not an error.
func ResolveConfig(path, envFile string) (*Config, error) {
	config := DefaultConfig()
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			loaded, err := LoadConfig(path)
			if err != nil {
				return nil, err
			}
			config = loaded
		}
	}

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}

	if err := config.ApplyEnv(); err != nil {
		return nil, err
	}

	return config, nil
}

// ApplyEnv overlays environment variables onto the config.
//
// BACKEND_URL wins over PUBLIC_BACKEND_URL; unset variables leave the file value alone.
func (c *Config) ApplyEnv() error {
	var env envOverrides
	if err := envconfig.Process("", &env); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	switch {
	case env.BackendURL != "":
		c.Backend.URL = env.BackendURL
	case env.PublicBackendURL != "":
		c.Backend.URL = env.PublicBackendURL
	}
	if env.Host != "" {
		c.Server.Host = env.Host
	}
	if env.Port != 0 {
		c.Server.Port = env.Port
	}
	if env.DatabasePath != "" {
		c.Database.Path = env.DatabasePath
	}
	if env.LogLevel != "" {
		c.Log.Level = env.LogLevel
	}
	if env.AppURL != "" {
		c.Client.AppURL = env.AppURL
	}
	return nil
}

// Validate checks URLs and ranges. An empty backend URL is allowed and surfaces per request instead.
func (c *Config) Validate() error {
	if c.Backend.URL != "" {
		if err := checkOrigin(c.Backend.URL); err != nil {
			return fmt.Errorf("%w: backend.url: %v", ErrInvalidConfig, err)
		}
	}
	if err := checkOrigin(c.Client.AppURL); err != nil {
		return fmt.Errorf("%w: client.app_url: %v", ErrInvalidConfig, err)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: server.port %d out of range", ErrInvalidConfig, c.Server.Port)
	}
	if c.Backend.BreakerFailures < 0 {
		return fmt.Errorf("%w: backend.breaker_failures must not be negative", ErrInvalidConfig)
	}
	return nil
}

func checkOrigin(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("missing host in %q", raw)
	}
	return nil
}

// BackendOrigin returns the backend URL without a trailing slash.
func (c *Config) BackendOrigin() string {
	return strings.TrimRight(c.Backend.URL, "/")
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
