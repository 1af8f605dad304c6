package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// WebhookEnv is the environment variable holding the Discord webhook URL.
const WebhookEnv = "DISCORD_WEBHOOK_URL"

// Load reads configuration from file, environment, and defaults.
// Priority (highest to lowest): env vars > config file > defaults.
// A .env file in the working directory is loaded into the environment first.
func Load(configPath string) (*Config, error) {
	_ = godotenv.Load()

	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")

	setDefaults(v, cfg)

	v.SetEnvPrefix("VRWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("notify.webhook_url", "VRWATCH_NOTIFY_WEBHOOK_URL", WebhookEnv); err != nil {
		return nil, fmt.Errorf("bind webhook env: %w", err)
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("vrwatch")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".vrwatch"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		// Config file not found is okay if not explicitly specified
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// setDefaults registers default values in viper so that every key is
// known to AutomaticEnv.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("listing.base_url", cfg.Listing.BaseURL)
	v.SetDefault("listing.pages", cfg.Listing.Pages)
	v.SetDefault("listing.page_delay", cfg.Listing.PageDelay)

	v.SetDefault("enrich.rating_enabled", cfg.Enrich.RatingEnabled)
	v.SetDefault("enrich.rating_url_template", cfg.Enrich.RatingURLTemplate)
	v.SetDefault("enrich.detail_tags_enabled", cfg.Enrich.DetailTagsEnabled)
	v.SetDefault("enrich.request_delay", cfg.Enrich.RequestDelay)

	v.SetDefault("translate.enabled", cfg.Translate.Enabled)
	v.SetDefault("translate.endpoint", cfg.Translate.Endpoint)
	v.SetDefault("translate.target_lang", cfg.Translate.TargetLang)
	v.SetDefault("translate.timeout", cfg.Translate.Timeout)

	v.SetDefault("notify.webhook_url", cfg.Notify.WebhookURL)
	v.SetDefault("notify.content", cfg.Notify.Content)
	v.SetDefault("notify.description", cfg.Notify.Description)
	v.SetDefault("notify.color", cfg.Notify.Color)
	v.SetDefault("notify.rating_label", cfg.Notify.RatingLabel)
	v.SetDefault("notify.source_label", cfg.Notify.SourceLabel)
	v.SetDefault("notify.timeout", cfg.Notify.Timeout)
	v.SetDefault("notify.max_retries", cfg.Notify.MaxRetries)
	v.SetDefault("notify.dry_run", cfg.Notify.DryRun)

	v.SetDefault("fetcher.type", cfg.Fetcher.Type)
	v.SetDefault("fetcher.request_timeout", cfg.Fetcher.RequestTimeout)
	v.SetDefault("fetcher.max_body_size", cfg.Fetcher.MaxBodySize)
	v.SetDefault("fetcher.max_redirects", cfg.Fetcher.MaxRedirects)
	v.SetDefault("fetcher.idle_conn_timeout", cfg.Fetcher.IdleConnTimeout)
	v.SetDefault("fetcher.max_idle_conns", cfg.Fetcher.MaxIdleConns)
	v.SetDefault("fetcher.cloudflare_bypass", cfg.Fetcher.CloudflareBypass)
	v.SetDefault("fetcher.user_agent", cfg.Fetcher.UserAgent)
	v.SetDefault("fetcher.accept_language", cfg.Fetcher.AcceptLanguage)

	v.SetDefault("storage.type", cfg.Storage.Type)
	v.SetDefault("storage.path", cfg.Storage.Path)
	v.SetDefault("storage.mongo_uri", cfg.Storage.MongoURI)
	v.SetDefault("storage.mongo_database", cfg.Storage.MongoDatabase)
	v.SetDefault("storage.mongo_collection", cfg.Storage.MongoCollection)

	v.SetDefault("schedule.spec", cfg.Schedule.Spec)

	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)

	v.SetDefault("metrics.enabled", cfg.Metrics.Enabled)
	v.SetDefault("metrics.port", cfg.Metrics.Port)
	v.SetDefault("metrics.path", cfg.Metrics.Path)
}
