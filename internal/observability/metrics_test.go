package observability

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

func TestMetricsServeHTTP(t *testing.T) {
	m := NewMetrics(testLogger)
	m.PagesFetched.Add(3)
	m.NotificationsSent.Add(1)
	m.ObserveRun(2 * time.Second)

	rec := httptest.NewRecorder()
	m.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body := rec.Body.String()
	for _, want := range []string{
		"# TYPE vrwatch_pages_fetched_total counter",
		"vrwatch_pages_fetched_total 3",
		"vrwatch_notifications_sent_total 1",
		"vrwatch_notifications_failed_total 0",
		"vrwatch_run_duration_seconds_count 1",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("unexpected content type %q", ct)
	}
}

func TestMetricsSnapshot(t *testing.T) {
	m := NewMetrics(testLogger)
	m.RecordsSeen.Add(5)
	m.RecordsNew.Add(2)

	snap := m.Snapshot()
	if snap["records_seen"] != 5 || snap["records_new"] != 2 {
		t.Errorf("unexpected snapshot %v", snap)
	}
}
