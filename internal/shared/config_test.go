package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
)

var overrideKeys = []string{
	"BACKEND_URL", "PUBLIC_BACKEND_URL", "FLICKX_HOST", "FLICKX_PORT",
	"FLICKX_DATABASE_PATH", "FLICKX_LOG_LEVEL", "FLICKX_APP_URL",
}

// clearEnv unsets every override for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range overrideKeys {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Database.Path != "./flickx.db" {
			t.Errorf("expected database path ./flickx.db, got %s", config.Database.Path)
		}

		if config.Server.Port != 3000 {
			t.Errorf("expected server port 3000, got %d", config.Server.Port)
		}

		if config.Backend.URL != "" {
			t.Errorf("expected no default backend, got %s", config.Backend.URL)
		}

		if config.Client.AppURL != "http://127.0.0.1:3000" {
			t.Errorf("expected app URL http://127.0.0.1:3000, got %s", config.Client.AppURL)
		}

		if config.Backend.BreakerFailures != 5 {
			t.Errorf("expected 5 breaker failures, got %d", config.Backend.BreakerFailures)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		if config.Database.Path != DefaultConfig().Database.Path {
			t.Errorf("created config database path doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig keeps defaults for omitted keys", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")

		testConfig := `[backend]
url = "https://api.example.com/"

[server]
host = "0.0.0.0"
port = 8080
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Server.Addr() != "0.0.0.0:8080" {
			t.Errorf("expected addr 0.0.0.0:8080, got %s", config.Server.Addr())
		}

		if config.BackendOrigin() != "https://api.example.com" {
			t.Errorf("expected trailing slash trimmed, got %s", config.BackendOrigin())
		}

		if config.Backend.TimeoutSeconds != 15 {
			t.Errorf("expected default timeout 15, got %d", config.Backend.TimeoutSeconds)
		}
	})

	t.Run("LoadConfig rejects malformed TOML", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(configPath, []byte("[server\nport = "), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}
		if _, err := LoadConfig(configPath); err == nil {
			t.Error("expected parse error")
		}
	})
}

func TestApplyEnv(t *testing.T) {
	t.Run("BACKEND_URL wins over PUBLIC_BACKEND_URL", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("BACKEND_URL", "http://private:4000")
		t.Setenv("PUBLIC_BACKEND_URL", "http://public:4000")

		config := DefaultConfig()
		if err := config.ApplyEnv(); err != nil {
			t.Fatalf("ApplyEnv failed: %v", err)
		}
		if config.Backend.URL != "http://private:4000" {
			t.Errorf("expected private backend, got %s", config.Backend.URL)
		}
	})

	t.Run("PUBLIC_BACKEND_URL is the fallback", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("PUBLIC_BACKEND_URL", "http://public:4000")

		config := DefaultConfig()
		if err := config.ApplyEnv(); err != nil {
			t.Fatalf("ApplyEnv failed: %v", err)
		}
		if config.Backend.URL != "http://public:4000" {
			t.Errorf("expected public backend, got %s", config.Backend.URL)
		}
	})

	t.Run("server and log overrides", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("FLICKX_PORT", "9000")
		t.Setenv("FLICKX_LOG_LEVEL", "debug")

		config := DefaultConfig()
		if err := config.ApplyEnv(); err != nil {
			t.Fatalf("ApplyEnv failed: %v", err)
		}
		if config.Server.Port != 9000 {
			t.Errorf("expected port 9000, got %d", config.Server.Port)
		}
		if config.Log.ParsedLevel() != log.DebugLevel {
			t.Errorf("expected debug level, got %v", config.Log.ParsedLevel())
		}
	})

	t.Run("non-numeric port is a config error", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("FLICKX_PORT", "abc")

		err := DefaultConfig().ApplyEnv()
		if !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})
}

func TestResolveConfig(t *testing.T) {
	t.Run("reads the .env file when the variable is unset", func(t *testing.T) {
		clearEnv(t)
		dir := t.TempDir()
		envFile := filepath.Join(dir, ".env")
		if err := os.WriteFile(envFile, []byte("BACKEND_URL=http://from-dotenv:5000\n"), 0644); err != nil {
			t.Fatalf("failed to write env file: %v", err)
		}
		t.Cleanup(func() { os.Unsetenv("BACKEND_URL") })

		config, err := ResolveConfig(filepath.Join(dir, "missing.toml"), envFile)
		if err != nil {
			t.Fatalf("ResolveConfig failed: %v", err)
		}
		if config.Backend.URL != "http://from-dotenv:5000" {
			t.Errorf("expected backend from .env, got %s", config.Backend.URL)
		}
	})

	t.Run("a missing .env file is fine", func(t *testing.T) {
		clearEnv(t)
		dir := t.TempDir()
		if _, err := ResolveConfig("", filepath.Join(dir, ".env")); err != nil {
			t.Errorf("expected no error, got %v", err)
		}
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults are valid", mutate: func(*Config) {}},
		{name: "http backend", mutate: func(c *Config) { c.Backend.URL = "http://localhost:4000" }},
		{name: "backend without scheme", mutate: func(c *Config) { c.Backend.URL = "localhost:4000" }, wantErr: true},
		{name: "ftp app url", mutate: func(c *Config) { c.Client.AppURL = "ftp://files" }, wantErr: true},
		{name: "port out of range", mutate: func(c *Config) { c.Server.Port = 70000 }, wantErr: true},
		{name: "negative breaker", mutate: func(c *Config) { c.Backend.BreakerFailures = -1 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.mutate(config)
			err := config.Validate()
			if tt.wantErr && !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("expected no error, got %v", err)
			}
		})
	}
}
