package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Server.BaseURL != "http://localhost:8000" {
		t.Errorf("expected default base url http://localhost:8000, got %s", cfg.Server.BaseURL)
	}
	if cfg.Server.CSRFCookie != "csrftoken" {
		t.Errorf("expected default csrf cookie csrftoken, got %s", cfg.Server.CSRFCookie)
	}
	if cfg.Server.CSRFHeader != "X-CSRFToken" {
		t.Errorf("expected default csrf header X-CSRFToken, got %s", cfg.Server.CSRFHeader)
	}
	if cfg.HTTP.Timeout != 30*time.Second {
		t.Errorf("expected default timeout 30s, got %v", cfg.HTTP.Timeout)
	}
	if cfg.Events.NATSURL != "" {
		t.Error("expected event publishing disabled by default")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid default config",
			modify:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "missing base url",
			modify:  func(c *Config) { c.Server.BaseURL = "" },
			wantErr: true,
		},
		{
			name:    "relative base url",
			modify:  func(c *Config) { c.Server.BaseURL = "/admin" },
			wantErr: true,
		},
		{
			name:    "unsupported scheme",
			modify:  func(c *Config) { c.Server.BaseURL = "ftp://example.org" },
			wantErr: true,
		},
		{
			name:    "missing csrf cookie",
			modify:  func(c *Config) { c.Server.CSRFCookie = "" },
			wantErr: true,
		},
		{
			name:    "missing csrf header",
			modify:  func(c *Config) { c.Server.CSRFHeader = "" },
			wantErr: true,
		},
		{
			name:    "negative timeout",
			modify:  func(c *Config) { c.HTTP.Timeout = -time.Second },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	// Create temp file with config
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	content := `
server:
  base_url: "https://webinars.example.org"
  csrf_cookie: "xsrf"
http:
  timeout: 10s
cookies:
  file: "/tmp/cookies.txt"
events:
  nats_url: "nats://test:4222"
metrics:
  textfile: "/var/lib/node_exporter/attendeeadmin.prom"
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}

	if cfg.Server.BaseURL != "https://webinars.example.org" {
		t.Errorf("expected base url https://webinars.example.org, got %s", cfg.Server.BaseURL)
	}
	if cfg.Server.CSRFCookie != "xsrf" {
		t.Errorf("expected csrf cookie xsrf, got %s", cfg.Server.CSRFCookie)
	}
	// Unset keys keep their defaults
	if cfg.Server.CSRFHeader != "X-CSRFToken" {
		t.Errorf("expected default csrf header, got %s", cfg.Server.CSRFHeader)
	}
	if cfg.HTTP.Timeout != 10*time.Second {
		t.Errorf("expected timeout 10s, got %v", cfg.HTTP.Timeout)
	}
	if cfg.Cookies.File != "/tmp/cookies.txt" {
		t.Errorf("expected cookie file /tmp/cookies.txt, got %s", cfg.Cookies.File)
	}
	if cfg.Events.NATSURL != "nats://test:4222" {
		t.Errorf("expected NATS URL nats://test:4222, got %s", cfg.Events.NATSURL)
	}
	if cfg.Metrics.Textfile == "" {
		t.Error("expected metrics textfile to be set")
	}
}

func TestLoadFromFileInvalidYAML(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte("server: [unclosed"), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	if _, err := LoadFromFile(configPath); err == nil {
		t.Error("expected parse error")
	}
}

func TestConfigMerge(t *testing.T) {
	base := DefaultConfig()
	override := &Config{
		Server: ServerConfig{
			BaseURL: "https://override.example.org",
		},
		Cookies: CookieConfig{
			Raw: "csrftoken=abc",
		},
	}

	base.Merge(override)

	if base.Server.BaseURL != "https://override.example.org" {
		t.Errorf("expected base url override, got %s", base.Server.BaseURL)
	}
	// CSRF cookie should remain from base since override didn't set it
	if base.Server.CSRFCookie != "csrftoken" {
		t.Errorf("expected csrf cookie to remain default, got %s", base.Server.CSRFCookie)
	}
	if base.Cookies.Raw != "csrftoken=abc" {
		t.Errorf("expected raw cookie csrftoken=abc, got %s", base.Cookies.Raw)
	}

	base.Merge(nil)
	if base.Server.BaseURL != "https://override.example.org" {
		t.Error("merging nil must not change the config")
	}
}

func TestConfigSaveToFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "subdir", "config.yaml")

	cfg := DefaultConfig()
	cfg.Server.BaseURL = "https://saved.example.org"
	cfg.HTTP.Timeout = 45 * time.Second

	if err := cfg.SaveToFile(configPath); err != nil {
		t.Fatalf("SaveToFile() error = %v", err)
	}

	// Verify file was created and is private
	info, err := os.Stat(configPath)
	if err != nil {
		t.Fatalf("config file was not created: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("expected mode 0600, got %v", info.Mode().Perm())
	}

	// Load and verify
	loaded, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("failed to load saved config: %v", err)
	}
	if loaded.Server.BaseURL != "https://saved.example.org" {
		t.Errorf("expected base url https://saved.example.org, got %s", loaded.Server.BaseURL)
	}
	if loaded.HTTP.Timeout != 45*time.Second {
		t.Errorf("expected timeout 45s, got %v", loaded.HTTP.Timeout)
	}
}
