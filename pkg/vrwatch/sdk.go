// Package vrwatch provides a public SDK for embedding the watcher as a library.
//
// Example usage:
//
//	w, err := vrwatch.NewWatcher(
//	    vrwatch.WithPages(2),
//	    vrwatch.WithStatePath("./state/titles.txt"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer w.Close()
//
//	w.OnNew(func(ctx context.Context, r *vrwatch.Record) error {
//	    fmt.Println(r.Title(), r.Rating, r.Tags.Sorted())
//	    return nil
//	})
//
//	summary, err := w.Run(ctx)
package vrwatch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/IshaanNene/vrwatch/internal/config"
	"github.com/IshaanNene/vrwatch/internal/engine"
	"github.com/IshaanNene/vrwatch/internal/fetcher"
	"github.com/IshaanNene/vrwatch/internal/observability"
	"github.com/IshaanNene/vrwatch/internal/storage"
	"github.com/IshaanNene/vrwatch/internal/types"
)

// Record is one new title, enriched and ready to announce.
type Record = types.Record

// Summary describes the outcome of one run.
type Summary = engine.Summary

// NotifyFunc receives each new record in place of the Discord webhook.
// Returning an error leaves the title unrecorded so it is offered again
// on the next run.
type NotifyFunc func(ctx context.Context, rec *Record) error

// Option configures a Watcher.
type Option func(*config.Config)

// WithBaseURL sets the listing query URL.
func WithBaseURL(u string) Option {
	return func(c *config.Config) { c.Listing.BaseURL = u }
}

// WithPages sets how many listing pages are scanned per run.
func WithPages(n int) Option {
	return func(c *config.Config) { c.Listing.Pages = n }
}

// WithDelays sets the delay between listing pages and before each
// rating or detail page request.
func WithDelays(page, request time.Duration) Option {
	return func(c *config.Config) {
		c.Listing.PageDelay = page
		c.Enrich.RequestDelay = request
	}
}

// WithRatingURLTemplate sets the rating page URL template (one %s).
func WithRatingURLTemplate(tmpl string) Option {
	return func(c *config.Config) { c.Enrich.RatingURLTemplate = tmpl }
}

// WithWebhook sets the Discord webhook URL.
func WithWebhook(u string) Option {
	return func(c *config.Config) { c.Notify.WebhookURL = u }
}

// WithStatePath stores processed titles in a file at path.
func WithStatePath(path string) Option {
	return func(c *config.Config) {
		c.Storage.Type = "file"
		c.Storage.Path = path
	}
}

// WithMongo stores processed titles in MongoDB.
func WithMongo(uri, database, collection string) Option {
	return func(c *config.Config) {
		c.Storage.Type = "mongodb"
		c.Storage.MongoURI = uri
		c.Storage.MongoDatabase = database
		c.Storage.MongoCollection = collection
	}
}

// WithTranslation enables or disables title translation.
func WithTranslation(enabled bool) Option {
	return func(c *config.Config) { c.Translate.Enabled = enabled }
}

// WithTranslateEndpoint sets the translation endpoint.
func WithTranslateEndpoint(u string) Option {
	return func(c *config.Config) { c.Translate.Endpoint = u }
}

// WithBrowser fetches pages through a headless browser.
func WithBrowser() Option {
	return func(c *config.Config) { c.Fetcher.Type = "browser" }
}

// WithCloudflareBypass toggles the Cloudflare-friendly transport.
func WithCloudflareBypass(enabled bool) Option {
	return func(c *config.Config) { c.Fetcher.CloudflareBypass = enabled }
}

// WithDryRun builds alerts without sending them or saving state.
func WithDryRun() Option {
	return func(c *config.Config) { c.Notify.DryRun = true }
}

// WithVerbose enables debug-level logging.
func WithVerbose() Option {
	return func(c *config.Config) { c.Logging.Level = "debug" }
}

// Watcher is the high-level API for running scans from Go code.
type Watcher struct {
	cfg     *config.Config
	logger  *slog.Logger
	engine  *engine.Engine
	fetcher fetcher.Fetcher
	store   storage.TitleStore
	metrics *observability.Metrics
	hooked  bool
}

// NewWatcher creates a Watcher with the given options applied on top of
// the defaults.
func NewWatcher(opts ...Option) (*Watcher, error) {
	cfg := config.DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	level := slog.LevelInfo
	if cfg.Logging.Level == "debug" {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	f, err := fetcher.New(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("create fetcher: %w", err)
	}

	store, err := storage.New(context.Background(), cfg.Storage, logger)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("create storage: %w", err)
	}

	metrics := observability.NewMetrics(logger)
	eng, err := engine.Build(cfg, f, store, metrics, logger)
	if err != nil {
		f.Close()
		store.Close()
		return nil, err
	}

	return &Watcher{
		cfg:     cfg,
		logger:  logger,
		engine:  eng,
		fetcher: f,
		store:   store,
		metrics: metrics,
	}, nil
}

// OnNew replaces the Discord webhook with fn.
func (w *Watcher) OnNew(fn NotifyFunc) {
	w.engine.SetNotifier(notifyFunc(fn))
	w.hooked = true
}

// Run performs one scan.
func (w *Watcher) Run(ctx context.Context) (*Summary, error) {
	if !w.hooked {
		if err := config.RequireWebhook(w.cfg); err != nil {
			return nil, err
		}
	}
	return w.engine.Run(ctx)
}

// Stats returns the cumulative counters of every run so far.
func (w *Watcher) Stats() map[string]int64 {
	return w.metrics.Snapshot()
}

// Close releases the fetcher and the title store.
func (w *Watcher) Close() error {
	ferr := w.fetcher.Close()
	serr := w.store.Close()
	if ferr != nil {
		return ferr
	}
	return serr
}

type notifyFunc NotifyFunc

func (f notifyFunc) Send(ctx context.Context, rec *types.Record) error {
	return f(ctx, rec)
}
