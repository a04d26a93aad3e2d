package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := loadDefaults()
	if err != nil {
		t.Fatalf("loadDefaults: %v", err)
	}
	if len(cfg.Sources) == 0 {
		t.Error("expected at least one default source")
	}
	if cfg.BatchSize != 40 {
		t.Errorf("expected default batch_size 40, got %d", cfg.BatchSize)
	}
	if cfg.CacheSize != 20 {
		t.Errorf("expected default cache_size 20, got %d", cfg.CacheSize)
	}
}

func TestDebounceDuration(t *testing.T) {
	cfg := &Config{Debounce: "50ms"}
	if d := cfg.DebounceDuration(); d != 50*time.Millisecond {
		t.Errorf("expected 50ms, got %v", d)
	}

	cfg.Debounce = "invalid"
	if d := cfg.DebounceDuration(); d != 200*time.Millisecond {
		t.Errorf("expected 200ms default for invalid value, got %v", d)
	}

	cfg.Debounce = ""
	if d := cfg.DebounceDuration(); d != 200*time.Millisecond {
		t.Errorf("expected 200ms default for empty value, got %v", d)
	}
}

func TestEnabledSources(t *testing.T) {
	cfg := &Config{
		Sources: []Source{
			{Name: "A", Enabled: true},
			{Name: "B", Enabled: false},
			{Name: "C", Enabled: true},
		},
	}
	enabled := cfg.EnabledSources()
	if len(enabled) != 2 {
		t.Fatalf("expected 2 enabled sources, got %d", len(enabled))
	}
	if enabled[0].Name != "A" || enabled[1].Name != "C" {
		t.Errorf("unexpected enabled sources: %v", enabled)
	}
}

func TestSourceNamesKeepConfigOrder(t *testing.T) {
	cfg := &Config{
		Sources: []Source{
			{Name: "Gamma", Enabled: true},
			{Name: "Beta", Enabled: false},
			{Name: "Alpha", Enabled: true},
		},
	}
	names := cfg.SourceNames()
	if len(names) != 2 {
		t.Fatalf("expected 2 names, got %d", len(names))
	}
	if names[0] != "Gamma" || names[1] != "Alpha" {
		t.Errorf("unexpected names: %v", names)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")

	content := `batch_size: 25
debounce: 100ms
sources:
  - name: Test
    type: rss
    url: https://example.com/feed
    enabled: true
`
	if err := os.WriteFile(cfgPath, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.BatchSize != 25 {
		t.Errorf("expected batch_size 25, got %d", cfg.BatchSize)
	}
	if cfg.DebounceDuration() != 100*time.Millisecond {
		t.Errorf("expected 100ms debounce, got %v", cfg.DebounceDuration())
	}
	if len(cfg.Sources) != 1 || cfg.Sources[0].Name != "Test" {
		t.Errorf("unexpected sources: %v", cfg.Sources)
	}
}

func TestLoadNonexistentFallsBackToDefaults(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "sub", "config.yaml")

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.Sources) == 0 {
		t.Error("expected default sources when config doesn't exist")
	}
	// First run writes the defaults next to the requested path
	if _, err := os.Stat(cfgPath); err != nil {
		t.Errorf("expected defaults written to %s: %v", cfgPath, err)
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(cfgPath, []byte("sources: [unclosed"), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	if _, err := Load(cfgPath); err == nil {
		t.Error("expected error for invalid yaml")
	}
}

func TestValidateMissingName(t *testing.T) {
	cfg := &Config{Sources: []Source{{Type: "rss", URL: "https://example.com"}}}
	if err := validate(cfg); err == nil {
		t.Error("expected error for missing name")
	}
}

func TestValidateMissingURL(t *testing.T) {
	cfg := &Config{Sources: []Source{{Name: "Test", Type: "rss"}}}
	if err := validate(cfg); err == nil {
		t.Error("expected error for missing URL")
	}
}

func TestValidateInvalidType(t *testing.T) {
	cfg := &Config{Sources: []Source{{Name: "Test", Type: "json", URL: "https://example.com"}}}
	if err := validate(cfg); err == nil {
		t.Error("expected error for invalid type")
	}
}

func TestValidateAcceptsHTML(t *testing.T) {
	cfg := &Config{Sources: []Source{{Name: "Test", Type: "html", URL: "https://example.com/blog"}}}
	if err := validate(cfg); err != nil {
		t.Errorf("unexpected error for html source: %v", err)
	}
}

func TestValidateInvalidURLScheme(t *testing.T) {
	cfg := &Config{Sources: []Source{{Name: "Test", Type: "rss", URL: "file:///etc/passwd"}}}
	if err := validate(cfg); err == nil {
		t.Error("expected error for file:// URL scheme")
	}
}

func TestValidateNegativeBatchSize(t *testing.T) {
	cfg := &Config{BatchSize: -1}
	if err := validate(cfg); err == nil {
		t.Error("expected error for negative batch_size")
	}
}
