// Package config provides configuration types and defaults for agview.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/zjrosen/agview/internal/log"
)

// Config holds all configuration options for agview.
type Config struct {
	API       APIConfig       `mapstructure:"api"`
	CourseID  int64           `mapstructure:"course_id"`
	ProjectID int64           `mapstructure:"project_id"`
	Store     StoreConfig     `mapstructure:"store"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Tracing   TracingConfig   `mapstructure:"tracing"`
	UI        UIConfig        `mapstructure:"ui"`
	Flags     map[string]bool `mapstructure:"flags"`
}

// APIConfig describes the autograder REST endpoint.
type APIConfig struct {
	BaseURL  string        `mapstructure:"base_url"`
	Token    string        `mapstructure:"token"`
	Timeout  time.Duration `mapstructure:"timeout"`
	PageSize int           `mapstructure:"page_size"` // handgrading summaries per page
}

// StoreConfig locates the local SQLite store used with the local-store flag.
type StoreConfig struct {
	Path string `mapstructure:"path"`
}

// CacheConfig holds TTLs for the read-through caches.
type CacheConfig struct {
	OutputTTL time.Duration `mapstructure:"output_ttl"` // setup stdout/stderr
	StaffTTL  time.Duration `mapstructure:"staff_ttl"`  // course staff roster
}

// UIConfig holds user interface configuration options.
type UIConfig struct {
	IncludeStaff bool `mapstructure:"include_staff"`
}

// TracingConfig holds distributed tracing configuration.
type TracingConfig struct {
	// Enabled controls whether tracing is active.
	// Default: false
	Enabled bool `mapstructure:"enabled"`

	// Exporter selects the trace export backend.
	// Options: "none", "file", "stdout", "otlp"
	// Default: "file"
	Exporter string `mapstructure:"exporter"`

	// FilePath is the output file for the "file" exporter.
	// Default: ~/.config/agview/traces/traces.jsonl
	FilePath string `mapstructure:"file_path"`

	// OTLPEndpoint is the collector endpoint for the "otlp" exporter.
	// Default: "localhost:4317"
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`

	// SampleRate controls trace sampling (0.0 to 1.0).
	// Default: 1.0
	SampleRate float64 `mapstructure:"sample_rate"`
}

// DefaultTracesFilePath returns ~/.config/agview/traces/traces.jsonl, or ""
// when the home directory is unavailable.
func DefaultTracesFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "agview", "traces", "traces.jsonl")
}

// DefaultStorePath returns ~/.config/agview/agview.db, or "agview.db" when
// the home directory is unavailable.
func DefaultStorePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "agview.db"
	}
	return filepath.Join(home, ".config", "agview", "agview.db")
}

// Defaults returns a Config with sensible default values.
func Defaults() Config {
	return Config{
		API: APIConfig{
			BaseURL:  "http://localhost:9000/api",
			Timeout:  30 * time.Second,
			PageSize: 500,
		},
		Store: StoreConfig{
			Path: DefaultStorePath(),
		},
		Cache: CacheConfig{
			OutputTTL: 10 * time.Minute,
			StaffTTL:  30 * time.Minute,
		},
		Tracing: TracingConfig{
			Enabled:      false,
			Exporter:     "file",
			FilePath:     "", // derived at startup
			OTLPEndpoint: "localhost:4317",
			SampleRate:   1.0,
		},
		UI: UIConfig{
			IncludeStaff: false,
		},
		Flags: map[string]bool{},
	}
}

// Validate checks every section.
func (c Config) Validate() error {
	if c.CourseID < 0 {
		return fmt.Errorf("course_id must not be negative, got %d", c.CourseID)
	}
	if c.ProjectID < 0 {
		return fmt.Errorf("project_id must not be negative, got %d", c.ProjectID)
	}
	if err := ValidateAPI(c.API); err != nil {
		return err
	}
	if err := ValidateCache(c.Cache); err != nil {
		return err
	}
	return ValidateTracing(c.Tracing)
}

// ValidateAPI checks the API section. An empty base URL is allowed because
// the local store does not need one.
func ValidateAPI(api APIConfig) error {
	if api.BaseURL != "" {
		u, err := url.Parse(api.BaseURL)
		if err != nil {
			return fmt.Errorf("api.base_url is not a valid URL: %w", err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("api.base_url must use http or https, got %q", api.BaseURL)
		}
	}
	if api.Timeout < 0 {
		return fmt.Errorf("api.timeout must not be negative, got %s", api.Timeout)
	}
	if api.PageSize < 0 {
		return fmt.Errorf("api.page_size must not be negative, got %d", api.PageSize)
	}
	return nil
}

// ValidateCache checks cache TTLs.
func ValidateCache(cache CacheConfig) error {
	if cache.OutputTTL < 0 {
		return fmt.Errorf("cache.output_ttl must not be negative, got %s", cache.OutputTTL)
	}
	if cache.StaffTTL < 0 {
		return fmt.Errorf("cache.staff_ttl must not be negative, got %s", cache.StaffTTL)
	}
	return nil
}

// ValidateTracing checks tracing configuration for errors.
// Returns nil if the configuration is valid (empty values use defaults).
func ValidateTracing(tracing TracingConfig) error {
	if tracing.SampleRate < 0.0 || tracing.SampleRate > 1.0 {
		return fmt.Errorf("tracing.sample_rate must be between 0.0 and 1.0, got %v", tracing.SampleRate)
	}

	if tracing.Exporter != "" {
		switch tracing.Exporter {
		case "none", "file", "stdout", "otlp":
		default:
			return fmt.Errorf("tracing.exporter must be \"none\", \"file\", \"stdout\", or \"otlp\", got %q", tracing.Exporter)
		}
	}

	// Path requirements only apply when tracing is on.
	if tracing.Enabled {
		if tracing.Exporter == "file" && tracing.FilePath == "" {
			return fmt.Errorf("tracing.file_path is required when exporter is \"file\"")
		}
		if tracing.Exporter == "otlp" && tracing.OTLPEndpoint == "" {
			return fmt.Errorf("tracing.otlp_endpoint is required when exporter is \"otlp\"")
		}
	}

	return nil
}

// DefaultConfigTemplate returns the default config as a YAML string with comments.
func DefaultConfigTemplate() string {
	return `# agview configuration

# Autograder API
api:
  base_url: http://localhost:9000/api
  # token: <api token>
  timeout: 30s
  page_size: 500        # handgrading summaries fetched per page

# Course and project shown by 'agview suites' and 'agview grade'
# course_id: 1
# project_id: 1

# Local SQLite store (used when flags.local-store is true)
# store:
#   path: ~/.config/agview/agview.db

# Read-through cache TTLs
cache:
  output_ttl: 10m       # setup stdout/stderr
  staff_ttl: 30m        # course staff roster

# Handgrading dashboard
ui:
  include_staff: false  # show staff groups in the handgrading list

# Feature flags
# flags:
#   local-store: true   # read and write the local SQLite store instead of the API
#   watch-store: true   # reload the dashboard when the store file changes

# Tracing
# tracing:
#   enabled: false                 # default: false
#   exporter: file                 # none, file, stdout, otlp (default: file)
#   file_path: ~/.config/agview/traces/traces.jsonl
#   otlp_endpoint: localhost:4317
#   sample_rate: 1.0
`
}

// WriteDefaultConfig creates a config file at the given path with default settings and comments.
// Creates the parent directory if it doesn't exist.
func WriteDefaultConfig(configPath string) error {
	log.Debug(log.CatConfig, "Writing default config", "path", configPath)

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to create config directory", err, "dir", dir)
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(DefaultConfigTemplate()), 0o600); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to write config file", err, "path", configPath)
		return fmt.Errorf("writing config file: %w", err)
	}

	log.Info(log.CatConfig, "Created default config", "path", configPath)
	return nil
}
