package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/IshaanNene/vrwatch/internal/types"
)

// Validate checks the configuration for invalid values.
// A missing webhook is reported by RequireWebhook, not here, so that
// commands which never notify can still run.
func Validate(cfg *Config) error {
	if err := ValidateURL(cfg.Listing.BaseURL); err != nil {
		return fmt.Errorf("listing.base_url: %w", err)
	}
	if cfg.Listing.Pages < 1 {
		return fmt.Errorf("listing.pages must be >= 1, got %d", cfg.Listing.Pages)
	}
	if cfg.Listing.PageDelay < 0 {
		return fmt.Errorf("listing.page_delay must be >= 0")
	}

	if cfg.Enrich.RequestDelay < 0 {
		return fmt.Errorf("enrich.request_delay must be >= 0")
	}
	if cfg.Enrich.RatingEnabled && strings.Count(cfg.Enrich.RatingURLTemplate, "%s") != 1 {
		return fmt.Errorf("enrich.rating_url_template must contain exactly one %%s, got %q", cfg.Enrich.RatingURLTemplate)
	}

	if cfg.Translate.Enabled {
		if err := ValidateURL(cfg.Translate.Endpoint); err != nil {
			return fmt.Errorf("translate.endpoint: %w", err)
		}
		if cfg.Translate.TargetLang == "" {
			return fmt.Errorf("translate.target_lang must not be empty")
		}
	}

	if cfg.Notify.MaxRetries < 0 {
		return fmt.Errorf("notify.max_retries must be >= 0, got %d", cfg.Notify.MaxRetries)
	}
	if cfg.Notify.Timeout <= 0 {
		return fmt.Errorf("notify.timeout must be > 0")
	}

	if cfg.Fetcher.RequestTimeout <= 0 {
		return fmt.Errorf("fetcher.request_timeout must be > 0")
	}
	if cfg.Fetcher.MaxBodySize <= 0 {
		return fmt.Errorf("fetcher.max_body_size must be > 0")
	}
	if cfg.Fetcher.MaxRedirects < 0 {
		return fmt.Errorf("fetcher.max_redirects must be >= 0")
	}
	if cfg.Fetcher.Type != "http" && cfg.Fetcher.Type != "browser" {
		return fmt.Errorf("fetcher.type must be 'http' or 'browser', got %q", cfg.Fetcher.Type)
	}

	switch cfg.Storage.Type {
	case "file":
		if cfg.Storage.Path == "" {
			return fmt.Errorf("storage.path must not be empty")
		}
	case "mongodb":
		if cfg.Storage.MongoURI == "" {
			return fmt.Errorf("storage.mongo_uri is required for mongodb storage")
		}
		if cfg.Storage.MongoDatabase == "" || cfg.Storage.MongoCollection == "" {
			return fmt.Errorf("storage.mongo_database and storage.mongo_collection are required")
		}
	default:
		return fmt.Errorf("storage.type %q is not supported (valid: file, mongodb)", cfg.Storage.Type)
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[cfg.Logging.Level] {
		return fmt.Errorf("logging.level must be debug/info/warn/error, got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" && cfg.Logging.Format != "json" {
		return fmt.Errorf("logging.format must be 'text' or 'json', got %q", cfg.Logging.Format)
	}

	if cfg.Metrics.Enabled {
		if cfg.Metrics.Port < 1 || cfg.Metrics.Port > 65535 {
			return fmt.Errorf("metrics.port must be 1-65535, got %d", cfg.Metrics.Port)
		}
	}

	return nil
}

// RequireWebhook fails with types.ErrMissingWebhook when no webhook target
// is configured and notifications would actually be sent.
func RequireWebhook(cfg *Config) error {
	if cfg.Notify.DryRun {
		return nil
	}
	if strings.TrimSpace(cfg.Notify.WebhookURL) == "" {
		return fmt.Errorf("%w: set %s", types.ErrMissingWebhook, WebhookEnv)
	}
	if err := ValidateURL(cfg.Notify.WebhookURL); err != nil {
		return fmt.Errorf("notify.webhook_url: %w", err)
	}
	return nil
}

// ValidateURL checks if a URL string is an absolute http(s) URL.
func ValidateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("URL must have a host")
	}
	return nil
}

// Redacted returns a copy of cfg safe to print.
func Redacted(cfg *Config) Config {
	c := *cfg
	if c.Notify.WebhookURL != "" {
		c.Notify.WebhookURL = redactURL(c.Notify.WebhookURL)
	}
	if c.Storage.MongoURI != "" {
		c.Storage.MongoURI = redactURL(c.Storage.MongoURI)
	}
	return c
}

func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "***"
	}
	return u.Scheme + "://" + u.Host + "/***"
}
