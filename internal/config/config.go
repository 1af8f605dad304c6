package config

import (
	"time"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Config is the root configuration for vrwatch.
type Config struct {
	Listing   ListingConfig   `mapstructure:"listing"   yaml:"listing"`
	Enrich    EnrichConfig    `mapstructure:"enrich"    yaml:"enrich"`
	Translate TranslateConfig `mapstructure:"translate" yaml:"translate"`
	Notify    NotifyConfig    `mapstructure:"notify"    yaml:"notify"`
	Fetcher   FetcherConfig   `mapstructure:"fetcher"   yaml:"fetcher"`
	Storage   StorageConfig   `mapstructure:"storage"   yaml:"storage"`
	Schedule  ScheduleConfig  `mapstructure:"schedule"  yaml:"schedule"`
	Logging   LoggingConfig   `mapstructure:"logging"   yaml:"logging"`
	Metrics   MetricsConfig   `mapstructure:"metrics"   yaml:"metrics"`
}

// ListingConfig controls which listing pages are scanned.
type ListingConfig struct {
	BaseURL   string        `mapstructure:"base_url"   yaml:"base_url"`
	Pages     int           `mapstructure:"pages"      yaml:"pages"`
	PageDelay time.Duration `mapstructure:"page_delay" yaml:"page_delay"`
}

// EnrichConfig controls rating and detail-tag lookups.
type EnrichConfig struct {
	RatingEnabled     bool          `mapstructure:"rating_enabled"      yaml:"rating_enabled"`
	RatingURLTemplate string        `mapstructure:"rating_url_template" yaml:"rating_url_template"`
	DetailTagsEnabled bool          `mapstructure:"detail_tags_enabled" yaml:"detail_tags_enabled"`
	RequestDelay      time.Duration `mapstructure:"request_delay"       yaml:"request_delay"`
}

// TranslateConfig controls title translation.
type TranslateConfig struct {
	Enabled    bool          `mapstructure:"enabled"     yaml:"enabled"`
	Endpoint   string        `mapstructure:"endpoint"    yaml:"endpoint"`
	TargetLang string        `mapstructure:"target_lang" yaml:"target_lang"`
	Timeout    time.Duration `mapstructure:"timeout"     yaml:"timeout"`
}

// NotifyConfig controls the Discord webhook notifier.
type NotifyConfig struct {
	WebhookURL  string        `mapstructure:"webhook_url"  yaml:"webhook_url"`
	Content     string        `mapstructure:"content"      yaml:"content"`
	Description string        `mapstructure:"description"  yaml:"description"`
	Color       int           `mapstructure:"color"        yaml:"color"`
	RatingLabel string        `mapstructure:"rating_label" yaml:"rating_label"`
	SourceLabel string        `mapstructure:"source_label" yaml:"source_label"`
	Timeout     time.Duration `mapstructure:"timeout"      yaml:"timeout"`
	MaxRetries  int           `mapstructure:"max_retries"  yaml:"max_retries"`
	DryRun      bool          `mapstructure:"dry_run"      yaml:"dry_run"`
}

// FetcherConfig controls the page fetcher.
type FetcherConfig struct {
	Type             string        `mapstructure:"type"              yaml:"type"`
	RequestTimeout   time.Duration `mapstructure:"request_timeout"   yaml:"request_timeout"`
	MaxBodySize      int64         `mapstructure:"max_body_size"     yaml:"max_body_size"`
	MaxRedirects     int           `mapstructure:"max_redirects"     yaml:"max_redirects"`
	IdleConnTimeout  time.Duration `mapstructure:"idle_conn_timeout" yaml:"idle_conn_timeout"`
	MaxIdleConns     int           `mapstructure:"max_idle_conns"    yaml:"max_idle_conns"`
	CloudflareBypass bool          `mapstructure:"cloudflare_bypass" yaml:"cloudflare_bypass"`
	UserAgent        string        `mapstructure:"user_agent"        yaml:"user_agent"`
	AcceptLanguage   string        `mapstructure:"accept_language"   yaml:"accept_language"`
}

// StorageConfig controls where processed titles are persisted.
type StorageConfig struct {
	Type            string `mapstructure:"type"             yaml:"type"`
	Path            string `mapstructure:"path"             yaml:"path"`
	MongoURI        string `mapstructure:"mongo_uri"        yaml:"mongo_uri"`
	MongoDatabase   string `mapstructure:"mongo_database"   yaml:"mongo_database"`
	MongoCollection string `mapstructure:"mongo_collection" yaml:"mongo_collection"`
}

// ScheduleConfig controls watch mode.
type ScheduleConfig struct {
	Spec string `mapstructure:"spec" yaml:"spec"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// MetricsConfig controls the Prometheus metrics endpoint.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Port    int    `mapstructure:"port"    yaml:"port"`
	Path    string `mapstructure:"path"    yaml:"path"`
}

// DefaultConfig returns a Config with the production defaults.
func DefaultConfig() *Config {
	return &Config{
		Listing: ListingConfig{
			BaseURL:   "https://javdb.com/search?f=download&q=VR&sb=1",
			Pages:     3,
			PageDelay: 2 * time.Second,
		},
		Enrich: EnrichConfig{
			RatingEnabled:     true,
			RatingURLTemplate: "https://jav321.com/video/%s",
			DetailTagsEnabled: true,
			RequestDelay:      1500 * time.Millisecond,
		},
		Translate: TranslateConfig{
			Enabled:    true,
			Endpoint:   "https://translate.googleapis.com/translate_a/single",
			TargetLang: "en",
			Timeout:    10 * time.Second,
		},
		Notify: NotifyConfig{
			Content:     "New VR Title Alert!",
			Description: "A new VR title has been released on your site.",
			Color:       65280, // #00FF00
			RatingLabel: "Rating (jav321.com)",
			SourceLabel: "View on JavDB",
			Timeout:     15 * time.Second,
			MaxRetries:  2,
		},
		Fetcher: FetcherConfig{
			Type:             "http",
			RequestTimeout:   30 * time.Second,
			MaxBodySize:      10 * 1024 * 1024, // 10MB
			MaxRedirects:     10,
			IdleConnTimeout:  90 * time.Second,
			MaxIdleConns:     10,
			CloudflareBypass: true,
			UserAgent:        "Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:127.0) Gecko/20100101 Firefox/127.0",
			AcceptLanguage:   "en-US,en;q=0.9,ja;q=0.8",
		},
		Storage: StorageConfig{
			Type:            "file",
			Path:            "processed_vr_titles.txt",
			MongoDatabase:   "vrwatch",
			MongoCollection: "processed_titles",
		},
		Schedule: ScheduleConfig{
			Spec: "@every 30m",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Port:    9090,
			Path:    "/metrics",
		},
	}
}
