package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/IshaanNene/vrwatch/internal/config"
	"github.com/IshaanNene/vrwatch/internal/fetcher"
	"github.com/IshaanNene/vrwatch/internal/listing"
	"github.com/IshaanNene/vrwatch/internal/observability"
	"github.com/IshaanNene/vrwatch/internal/storage"
	"github.com/IshaanNene/vrwatch/internal/types"
)

// ErrAlreadyRunning is returned when Run is called while a run is active.
var ErrAlreadyRunning = errors.New("a run is already in progress")

// State represents the engine's current lifecycle state.
type State int32

const (
	StateIdle    State = 0
	StateRunning State = 1
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	default:
		return "unknown"
	}
}

// Pipeline enriches a record before notification.
type Pipeline interface {
	Process(ctx context.Context, rec *types.Record) (*types.Record, error)
}

// Notifier delivers one alert per record.
type Notifier interface {
	Send(ctx context.Context, rec *types.Record) error
}

// Summary describes the outcome of one run.
type Summary struct {
	RunID               string
	PagesFetched        int
	PagesFailed         int
	RecordsSeen         int
	RecordsSkipped      int
	RecordsNew          int
	NotificationsSent   int
	NotificationsFailed int
	Delivered           []string
	Saved               bool
	Interrupted         bool
	Elapsed             time.Duration
}

// Engine runs the scrape, enrich, notify cycle.
type Engine struct {
	cfg       *config.Config
	logger    *slog.Logger
	listing   *listing.Fetcher
	extractor *listing.Extractor
	pipeline  Pipeline
	notifier  Notifier
	store     storage.TitleStore
	metrics   *observability.Metrics

	state atomic.Int32
}

// New creates a new Engine with the given configuration.
func New(cfg *config.Config, logger *slog.Logger) *Engine {
	return &Engine{
		cfg:     cfg,
		logger:  logger.With("component", "engine"),
		metrics: observability.NewMetrics(logger),
	}
}

// SetListing sets the listing page fetcher.
func (e *Engine) SetListing(l *listing.Fetcher) { e.listing = l }

// SetExtractor sets the listing entry extractor.
func (e *Engine) SetExtractor(x *listing.Extractor) { e.extractor = x }

// SetPipeline sets the enrichment pipeline.
func (e *Engine) SetPipeline(p Pipeline) { e.pipeline = p }

// SetNotifier sets the notifier.
func (e *Engine) SetNotifier(n Notifier) { e.notifier = n }

// SetStorage sets the title store.
func (e *Engine) SetStorage(s storage.TitleStore) { e.store = s }

// SetMetrics replaces the metrics sink.
func (e *Engine) SetMetrics(m *observability.Metrics) { e.metrics = m }

// Metrics returns the metrics sink.
func (e *Engine) Metrics() *observability.Metrics { return e.metrics }

// GetState returns the current engine state.
func (e *Engine) GetState() State {
	return State(e.state.Load())
}

// Run performs one full pass: load state, scan listing pages, enrich and
// notify every new record, and save state. Per-page and per-record
// failures are logged and skipped. Only state store failures are returned.
func (e *Engine) Run(ctx context.Context) (*Summary, error) {
	if e.listing == nil || e.extractor == nil || e.notifier == nil || e.store == nil {
		return nil, fmt.Errorf("engine is not fully configured")
	}
	if !e.state.CompareAndSwap(int32(StateIdle), int32(StateRunning)) {
		return nil, ErrAlreadyRunning
	}
	defer e.state.Store(int32(StateIdle))

	start := time.Now()
	e.metrics.RunsTotal.Add(1)

	prior, err := e.store.Load(ctx)
	if err != nil {
		e.metrics.RunsFailed.Add(1)
		return nil, fmt.Errorf("load processed titles: %w", err)
	}

	gate := NewGate(prior)
	sum := &Summary{RunID: uuid.NewString()}

	e.logger.Info("starting scan",
		"run_id", sum.RunID,
		"pages", e.cfg.Listing.Pages,
		"base_url", e.cfg.Listing.BaseURL,
		"known_titles", gate.PriorCount(),
	)

	e.scan(ctx, gate, sum)

	sum.Delivered = gate.Delivered()
	if sum.RecordsNew == 0 {
		e.logger.Info("no new titles found in this run")
	}

	if e.cfg.Notify.DryRun {
		e.logger.Info("dry run, state not saved", "would_add", len(sum.Delivered))
	} else {
		// Save even when interrupted so delivered titles are not re-sent.
		if err := e.store.Save(context.WithoutCancel(ctx), gate.Result()); err != nil {
			e.metrics.RunsFailed.Add(1)
			sum.Elapsed = time.Since(start)
			return sum, fmt.Errorf("save processed titles: %w", err)
		}
		sum.Saved = true
	}

	sum.Elapsed = time.Since(start)
	e.metrics.ObserveRun(sum.Elapsed)
	e.logger.Info("scan finished",
		"run_id", sum.RunID,
		"pages_fetched", sum.PagesFetched,
		"pages_failed", sum.PagesFailed,
		"records_seen", sum.RecordsSeen,
		"records_new", sum.RecordsNew,
		"sent", sum.NotificationsSent,
		"failed", sum.NotificationsFailed,
		"interrupted", sum.Interrupted,
		"elapsed", sum.Elapsed.Round(time.Millisecond),
	)
	return sum, nil
}

// scan walks listing pages until the page limit, an empty page, or
// cancellation.
func (e *Engine) scan(ctx context.Context, gate *Gate, sum *Summary) {
	base := e.listing.Base()

	for pageNum := 1; pageNum <= e.cfg.Listing.Pages; pageNum++ {
		if pageNum > 1 {
			if err := fetcher.Sleep(ctx, e.cfg.Listing.PageDelay); err != nil {
				sum.Interrupted = true
				return
			}
		}
		if ctx.Err() != nil {
			sum.Interrupted = true
			return
		}

		resp, err := e.listing.FetchPage(ctx, pageNum)
		if err != nil {
			sum.PagesFailed++
			e.metrics.PagesFailed.Add(1)
			e.logger.Error("error scraping page", "page", pageNum, "error", err)
			continue
		}
		e.metrics.BytesDownloaded.Add(int64(len(resp.Body)))

		page, err := e.extractor.ExtractPage(resp, base, pageNum)
		if err != nil {
			sum.PagesFailed++
			e.metrics.PagesFailed.Add(1)
			e.logger.Error("error parsing page", "page", pageNum, "error", err)
			continue
		}
		sum.PagesFetched++
		e.metrics.PagesFetched.Add(1)
		sum.RecordsSkipped += page.Skipped
		e.metrics.RecordsSkipped.Add(int64(page.Skipped))

		if page.Nodes == 0 {
			e.logger.Info("no more items found, stopping", "page", pageNum)
			return
		}

		for _, rec := range page.Records {
			if ctx.Err() != nil {
				sum.Interrupted = true
				return
			}
			e.handle(ctx, gate, rec, sum)
		}
	}
}

// handle runs one record through the gate, enrichment and notification.
func (e *Engine) handle(ctx context.Context, gate *Gate, rec *types.Record, sum *Summary) {
	sum.RecordsSeen++
	e.metrics.RecordsSeen.Add(1)

	if !gate.IsNew(rec.OriginalTitle) {
		e.logger.Debug("already processed", "title", rec.OriginalTitle)
		return
	}
	gate.MarkAttempted(rec.OriginalTitle)
	sum.RecordsNew++
	e.metrics.RecordsNew.Add(1)

	e.logger.Info("new title found",
		"title", rec.OriginalTitle,
		"identifier", rec.Identifier,
		"page", rec.Page,
	)

	if e.pipeline != nil {
		processed, err := e.pipeline.Process(ctx, rec)
		if err != nil {
			e.logger.Warn("enrichment aborted", "title", rec.OriginalTitle, "error", err)
			return
		}
		if processed == nil {
			return
		}
		rec = processed
	}

	if err := e.notifier.Send(ctx, rec); err != nil {
		sum.NotificationsFailed++
		e.metrics.NotificationsFailed.Add(1)
		e.logger.Error("error sending notification, will retry next run", "title", rec.Title(), "error", err)
		return
	}

	gate.MarkDelivered(rec.OriginalTitle)
	sum.NotificationsSent++
	e.metrics.NotificationsSent.Add(1)
}
