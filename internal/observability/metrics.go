package observability

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics tracks operational counters for the watcher.
type Metrics struct {
	// Run metrics
	RunsTotal  atomic.Int64
	RunsFailed atomic.Int64

	// Listing metrics
	PagesFetched   atomic.Int64
	PagesFailed    atomic.Int64
	RecordsSeen    atomic.Int64
	RecordsNew     atomic.Int64
	RecordsSkipped atomic.Int64

	// Enrichment metrics
	RatingsFound         atomic.Int64
	RatingsMissed        atomic.Int64
	DetailFetchFailures  atomic.Int64
	TranslationFallbacks atomic.Int64

	// Notification metrics
	NotificationsSent   atomic.Int64
	NotificationsFailed atomic.Int64

	// Transport metrics
	BytesDownloaded atomic.Int64

	registry    *prometheus.Registry
	runDuration prometheus.Histogram
	handler     http.Handler

	logger *slog.Logger
}

// NewMetrics creates a new Metrics instance.
func NewMetrics(logger *slog.Logger) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		logger:   logger.With("component", "metrics"),
	}
	m.register()
	return m
}

// ServeHTTP serves metrics in Prometheus text exposition format.
func (m *Metrics) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	m.handler.ServeHTTP(w, r)
}

// ObserveRun records the wall time of one pipeline run.
func (m *Metrics) ObserveRun(d time.Duration) {
	m.runDuration.Observe(d.Seconds())
}

func (m *Metrics) register() {
	counters := []struct {
		name  string
		help  string
		value *atomic.Int64
	}{
		{"vrwatch_runs_total", "Total pipeline runs", &m.RunsTotal},
		{"vrwatch_runs_failed_total", "Total pipeline runs that ended in error", &m.RunsFailed},
		{"vrwatch_pages_fetched_total", "Total listing pages fetched", &m.PagesFetched},
		{"vrwatch_pages_failed_total", "Total listing pages that failed to fetch", &m.PagesFailed},
		{"vrwatch_records_seen_total", "Total listing records extracted", &m.RecordsSeen},
		{"vrwatch_records_new_total", "Total records not seen before", &m.RecordsNew},
		{"vrwatch_records_skipped_total", "Total listing entries skipped", &m.RecordsSkipped},
		{"vrwatch_ratings_found_total", "Total ratings found", &m.RatingsFound},
		{"vrwatch_ratings_missed_total", "Total rating lookups without a value", &m.RatingsMissed},
		{"vrwatch_detail_failures_total", "Total detail page lookups that failed", &m.DetailFetchFailures},
		{"vrwatch_translation_fallbacks_total", "Total titles shown untranslated", &m.TranslationFallbacks},
		{"vrwatch_notifications_sent_total", "Total notifications delivered", &m.NotificationsSent},
		{"vrwatch_notifications_failed_total", "Total notifications that failed", &m.NotificationsFailed},
		{"vrwatch_bytes_downloaded_total", "Total bytes downloaded", &m.BytesDownloaded},
	}

	for _, c := range counters {
		v := c.value
		m.registry.MustRegister(prometheus.NewCounterFunc(
			prometheus.CounterOpts{Name: c.name, Help: c.help},
			func() float64 { return float64(v.Load()) },
		))
	}

	m.runDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "vrwatch_run_duration_seconds",
		Help:    "Wall time of a pipeline run",
		Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
	})
	m.registry.MustRegister(m.runDuration)

	m.handler = promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// StartServer starts the metrics HTTP server. The server shuts down when
// ctx is cancelled.
func (m *Metrics) StartServer(ctx context.Context, port int, path string) error {
	mux := http.NewServeMux()
	mux.Handle(path, m)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "ok")
	})

	addr := fmt.Sprintf(":%d", port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	m.logger.Info("metrics server starting", "addr", addr, "path", path)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			m.logger.Error("metrics server error", "error", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	return nil
}

// Snapshot returns all metrics as a map.
func (m *Metrics) Snapshot() map[string]int64 {
	return map[string]int64{
		"runs_total":            m.RunsTotal.Load(),
		"runs_failed":           m.RunsFailed.Load(),
		"pages_fetched":         m.PagesFetched.Load(),
		"pages_failed":          m.PagesFailed.Load(),
		"records_seen":          m.RecordsSeen.Load(),
		"records_new":           m.RecordsNew.Load(),
		"records_skipped":       m.RecordsSkipped.Load(),
		"ratings_found":         m.RatingsFound.Load(),
		"ratings_missed":        m.RatingsMissed.Load(),
		"detail_failures":       m.DetailFetchFailures.Load(),
		"translation_fallbacks": m.TranslationFallbacks.Load(),
		"notifications_sent":    m.NotificationsSent.Load(),
		"notifications_failed":  m.NotificationsFailed.Load(),
		"bytes_downloaded":      m.BytesDownloaded.Load(),
	}
}
