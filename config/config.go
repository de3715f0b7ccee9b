// Package config provides configuration loading and management for attendeeadmin.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete attendeeadmin configuration
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	HTTP    HTTPConfig    `yaml:"http"`
	Cookies CookieConfig  `yaml:"cookies"`
	Events  EventsConfig  `yaml:"events"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// ServerConfig configures the admin site
type ServerConfig struct {
	// BaseURL is the admin site root (e.g., "https://webinars.example.org")
	BaseURL string `yaml:"base_url" env:"BASE_URL"`
	// LoginPath is fetched to prime the cookie jar when no cookie is configured
	LoginPath string `yaml:"login_path" env:"LOGIN_PATH"`
	// CSRFCookie names the cookie holding the CSRF token (default: csrftoken)
	CSRFCookie string `yaml:"csrf_cookie" env:"CSRF_COOKIE"`
	// CSRFHeader names the header the token is echoed in (default: X-CSRFToken)
	CSRFHeader string `yaml:"csrf_header" env:"CSRF_HEADER"`
}

// HTTPConfig configures the HTTP client
type HTTPConfig struct {
	// Timeout bounds each request, including reading the body
	Timeout time.Duration `yaml:"timeout" env:"HTTP_TIMEOUT"`
}

// CookieConfig selects where the session and CSRF cookies come from.
// Raw wins over File; with neither, a cookie jar is primed from LoginPath.
type CookieConfig struct {
	// Raw is a literal Cookie header ("sessionid=...; csrftoken=...")
	Raw string `yaml:"raw" env:"COOKIE"`
	// File holds a raw Cookie header and is watched for changes
	File string `yaml:"file" env:"COOKIE_FILE"`
}

// EventsConfig configures NATS event publishing after successful actions
type EventsConfig struct {
	// NATSURL enables publishing when set
	NATSURL string `yaml:"nats_url" env:"NATS_URL"`
	// SubjectPrefix is prepended to the action name
	SubjectPrefix string `yaml:"subject_prefix" env:"EVENTS_SUBJECT_PREFIX"`
}

// MetricsConfig configures the Prometheus textfile export
type MetricsConfig struct {
	// Textfile is written after each run when set
	Textfile string `yaml:"textfile" env:"METRICS_TEXTFILE"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			BaseURL:    "http://localhost:8000",
			LoginPath:  "/accounts/login/",
			CSRFCookie: "csrftoken",
			CSRFHeader: "X-CSRFToken",
		},
		HTTP: HTTPConfig{
			Timeout: 30 * time.Second,
		},
		Events: EventsConfig{
			SubjectPrefix: "attendeeadmin.attendee",
		},
	}
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.Server.BaseURL == "" {
		return fmt.Errorf("server.base_url is required")
	}
	u, err := url.Parse(c.Server.BaseURL)
	if err != nil {
		return fmt.Errorf("server.base_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("server.base_url must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("server.base_url must include a host")
	}
	if c.Server.CSRFCookie == "" {
		return fmt.Errorf("server.csrf_cookie is required")
	}
	if c.Server.CSRFHeader == "" {
		return fmt.Errorf("server.csrf_header is required")
	}
	if c.HTTP.Timeout < 0 {
		return fmt.Errorf("http.timeout must not be negative")
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(path string) (*Config, error) {
	return decodeFile(path, DefaultConfig())
}

// loadLayer reads only the keys present in the file, leaving the rest zero
// so a later Merge does not reset earlier layers to defaults.
func loadLayer(path string) (*Config, error) {
	return decodeFile(path, &Config{})
}

func decodeFile(path string, config *Config) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(path string) error {
	// Ensure parent directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Cookies may hold a session, so the file is private
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Merge merges another config into this one (other takes precedence for non-zero values)
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	// Server
	if other.Server.BaseURL != "" {
		c.Server.BaseURL = other.Server.BaseURL
	}
	if other.Server.LoginPath != "" {
		c.Server.LoginPath = other.Server.LoginPath
	}
	if other.Server.CSRFCookie != "" {
		c.Server.CSRFCookie = other.Server.CSRFCookie
	}
	if other.Server.CSRFHeader != "" {
		c.Server.CSRFHeader = other.Server.CSRFHeader
	}

	// HTTP
	if other.HTTP.Timeout != 0 {
		c.HTTP.Timeout = other.HTTP.Timeout
	}

	// Cookies
	if other.Cookies.Raw != "" {
		c.Cookies.Raw = other.Cookies.Raw
	}
	if other.Cookies.File != "" {
		c.Cookies.File = other.Cookies.File
	}

	// Events
	if other.Events.NATSURL != "" {
		c.Events.NATSURL = other.Events.NATSURL
	}
	if other.Events.SubjectPrefix != "" {
		c.Events.SubjectPrefix = other.Events.SubjectPrefix
	}

	// Metrics
	if other.Metrics.Textfile != "" {
		c.Metrics.Textfile = other.Metrics.Textfile
	}
}
