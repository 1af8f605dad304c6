package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/IshaanNene/vrwatch/internal/types"
)

func TestDefaultConfigValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := Validate(cfg); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	if cfg.Listing.Pages != 3 {
		t.Errorf("expected 3 pages, got %d", cfg.Listing.Pages)
	}
	if cfg.Enrich.RequestDelay != 1500*time.Millisecond {
		t.Errorf("unexpected request delay %s", cfg.Enrich.RequestDelay)
	}
}

func TestLoadFromFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vrwatch.yaml")
	yaml := `
listing:
  pages: 5
  page_delay: 250ms
storage:
  path: state/titles.txt
logging:
  level: debug
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv(WebhookEnv, "https://discord.example.com/api/webhooks/1/abc")
	t.Setenv("VRWATCH_ENRICH_REQUEST_DELAY", "10ms")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Listing.Pages != 5 {
		t.Errorf("expected pages from file, got %d", cfg.Listing.Pages)
	}
	if cfg.Listing.PageDelay != 250*time.Millisecond {
		t.Errorf("expected page delay from file, got %s", cfg.Listing.PageDelay)
	}
	if cfg.Storage.Path != "state/titles.txt" {
		t.Errorf("unexpected storage path %q", cfg.Storage.Path)
	}
	if cfg.Enrich.RequestDelay != 10*time.Millisecond {
		t.Errorf("expected env override, got %s", cfg.Enrich.RequestDelay)
	}
	if cfg.Notify.WebhookURL != "https://discord.example.com/api/webhooks/1/abc" {
		t.Errorf("webhook not bound from %s: %q", WebhookEnv, cfg.Notify.WebhookURL)
	}
	if cfg.Translate.TargetLang != "en" {
		t.Errorf("defaults should survive unmarshal, got %q", cfg.Translate.TargetLang)
	}
}

func TestLoadExplicitMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("expected error for explicit missing config file")
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"zero pages", func(c *Config) { c.Listing.Pages = 0 }, "listing.pages"},
		{"bad base url", func(c *Config) { c.Listing.BaseURL = "ftp://x" }, "listing.base_url"},
		{"bad template", func(c *Config) { c.Enrich.RatingURLTemplate = "https://x/video" }, "rating_url_template"},
		{"bad fetcher", func(c *Config) { c.Fetcher.Type = "curl" }, "fetcher.type"},
		{"bad storage", func(c *Config) { c.Storage.Type = "s3" }, "storage.type"},
		{"mongo without uri", func(c *Config) { c.Storage.Type = "mongodb" }, "mongo_uri"},
		{"bad level", func(c *Config) { c.Logging.Level = "trace" }, "logging.level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := Validate(cfg)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error mentioning %q, got %v", tt.want, err)
			}
		})
	}
}

func TestRequireWebhook(t *testing.T) {
	cfg := DefaultConfig()
	if err := RequireWebhook(cfg); !errors.Is(err, types.ErrMissingWebhook) {
		t.Errorf("expected ErrMissingWebhook, got %v", err)
	}

	cfg.Notify.DryRun = true
	if err := RequireWebhook(cfg); err != nil {
		t.Errorf("dry run should not need a webhook: %v", err)
	}

	cfg.Notify.DryRun = false
	cfg.Notify.WebhookURL = "https://discord.example.com/api/webhooks/1/abc"
	if err := RequireWebhook(cfg); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestRedacted(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Notify.WebhookURL = "https://discord.example.com/api/webhooks/1/secret-token"

	r := Redacted(cfg)
	if strings.Contains(r.Notify.WebhookURL, "secret-token") {
		t.Errorf("webhook token leaked: %q", r.Notify.WebhookURL)
	}
	if !strings.Contains(cfg.Notify.WebhookURL, "secret-token") {
		t.Error("Redacted must not modify the original config")
	}
}
