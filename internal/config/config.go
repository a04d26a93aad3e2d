// Package config loads the YAML configuration and resolves the xdg
// paths used by the tool.
package config

import (
	"embed"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

//go:embed default_config.yaml
var defaultConfigFS embed.FS

// Source is one watched origin.
type Source struct {
	Name    string `yaml:"name"`
	Type    string `yaml:"type"` // "rss" or "html"
	URL     string `yaml:"url"`
	Enabled bool   `yaml:"enabled"`
}

type Config struct {
	Sources   []Source `yaml:"sources"`
	BatchSize int      `yaml:"batch_size,omitempty"`
	Debounce  string   `yaml:"debounce,omitempty"`
	CacheSize int      `yaml:"cache_size,omitempty"`
	LogLevel  string   `yaml:"log_level,omitempty"`
}

// DebounceDuration returns the quiet period before a filter change is
// evaluated, defaulting to 200ms.
func (c *Config) DebounceDuration() time.Duration {
	d, err := time.ParseDuration(c.Debounce)
	if err != nil || d <= 0 {
		return 200 * time.Millisecond
	}
	return d
}

func (c *Config) EnabledSources() []Source {
	var out []Source
	for _, s := range c.Sources {
		if s.Enabled {
			out = append(out, s)
		}
	}
	return out
}

// SourceNames returns enabled source names in configuration order.
// Presented batches are grouped in this order.
func (c *Config) SourceNames() []string {
	var names []string
	for _, s := range c.EnabledSources() {
		names = append(names, s.Name)
	}
	return names
}

func DefaultConfigPath() string {
	return filepath.Join(xdg.ConfigHome, "techwatch", "config.yaml")
}

// DatabasePath is where the JSON article database lives.
func DatabasePath() string {
	return filepath.Join(xdg.DataHome, "techwatch", "techwatch_db.json")
}

// LogPath is the log file location. The TUI owns the terminal, so logs
// never go to stdout.
func LogPath() string {
	return filepath.Join(xdg.StateHome, "techwatch", "techwatch.log")
}

func loadDefaults() (*Config, error) {
	data, err := defaultConfigFS.ReadFile("default_config.yaml")
	if err != nil {
		return nil, fmt.Errorf("reading embedded config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded config: %w", err)
	}
	return &cfg, nil
}

// Load reads the config at path, falling back to the default location
// and writing the embedded defaults there on first run.
func Load(path string) (*Config, error) {
	defaults, err := loadDefaults()
	if err != nil {
		return nil, err
	}

	if path == "" {
		path = DefaultConfigPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Write defaults to config path on first run
			if err := writeDefaults(path); err != nil {
				// Non-fatal: just use embedded defaults
				return defaults, nil
			}
			return defaults, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func writeDefaults(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, _ := defaultConfigFS.ReadFile("default_config.yaml")
	return os.WriteFile(path, data, 0o644)
}

func validate(cfg *Config) error {
	validTypes := map[string]bool{"rss": true, "html": true}
	for i, s := range cfg.Sources {
		if s.Name == "" {
			return fmt.Errorf("source %d: name is required", i)
		}
		if s.URL == "" {
			return fmt.Errorf("source %q: url is required", s.Name)
		}
		u, err := url.Parse(s.URL)
		if err != nil {
			return fmt.Errorf("source %q: invalid url: %w", s.Name, err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("source %q: url scheme must be http or https, got %q", s.Name, u.Scheme)
		}
		if !validTypes[s.Type] {
			return fmt.Errorf("source %q: unknown type %q (valid: rss, html)", s.Name, s.Type)
		}
	}
	if cfg.BatchSize < 0 {
		return fmt.Errorf("batch_size must not be negative, got %d", cfg.BatchSize)
	}
	if cfg.CacheSize < 0 {
		return fmt.Errorf("cache_size must not be negative, got %d", cfg.CacheSize)
	}
	return nil
}
