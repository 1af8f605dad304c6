package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/IshaanNene/vrwatch/internal/config"
	"github.com/IshaanNene/vrwatch/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

func testRecord() *types.Record {
	rec := types.NewRecord("VR-002 バー", "https://javdb.example.com/v/2")
	rec.DisplayTitle = "VR-002 Bar"
	rec.Identifier = "VR-002"
	rec.ImageURL = "https://img.example.com/2.jpg"
	rec.Rating = "7.8"
	rec.Tags.Add("VR", "4K", "Solo")
	return rec
}

func newTestNotifier(t *testing.T, url string) *Discord {
	t.Helper()
	cfg := config.DefaultConfig().Notify
	cfg.WebhookURL = url
	cfg.Timeout = 5 * time.Second
	d := New(cfg, testLogger)
	d.SetRetryWait(time.Millisecond, 5*time.Millisecond)
	return d
}

func TestBuildMessage(t *testing.T) {
	d := newTestNotifier(t, "https://discord.example.com/api/webhooks/1/x")
	msg := d.BuildMessage(testRecord())

	if msg.Content != "New VR Title Alert!" {
		t.Errorf("unexpected content %q", msg.Content)
	}
	if len(msg.Embeds) != 1 {
		t.Fatalf("expected one embed, got %d", len(msg.Embeds))
	}
	embed := msg.Embeds[0]
	if embed.Color != 65280 {
		t.Errorf("unexpected color %d", embed.Color)
	}
	if embed.Image == nil || embed.Image.URL != "https://img.example.com/2.jpg" {
		t.Errorf("unexpected image %+v", embed.Image)
	}

	want := []struct {
		name, value string
		inline      *bool
	}{
		{"Title", "[VR-002 Bar](https://javdb.example.com/v/2)", nil},
		{"Rating (jav321.com)", "⭐ 7.8", boolPtr(true)},
		{"Source", "[View on JavDB](https://javdb.example.com/v/2)", nil},
		{"Tags", "4K, Solo, VR", boolPtr(false)},
	}
	if len(embed.Fields) != len(want) {
		t.Fatalf("expected %d fields, got %+v", len(want), embed.Fields)
	}
	for i, w := range want {
		f := embed.Fields[i]
		if f.Name != w.name || f.Value != w.value {
			t.Errorf("field %d: got %q=%q, want %q=%q", i, f.Name, f.Value, w.name, w.value)
		}
		if (f.Inline == nil) != (w.inline == nil) || (f.Inline != nil && *f.Inline != *w.inline) {
			t.Errorf("field %d: unexpected inline %v", i, f.Inline)
		}
	}
}

func TestBuildMessageOptionalFields(t *testing.T) {
	d := newTestNotifier(t, "https://discord.example.com/api/webhooks/1/x")
	rec := types.NewRecord("plain title", "https://javdb.example.com/v/3")

	msg := d.BuildMessage(rec)
	fields := msg.Embeds[0].Fields
	if len(fields) != 2 || fields[0].Name != "Title" || fields[1].Name != "Source" {
		t.Errorf("expected only Title and Source, got %+v", fields)
	}

	body, err := json.Marshal(msg)
	if err != nil {
		t.Fatal(err)
	}
	var raw map[string][]map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		t.Fatal(err)
	}
	embed := raw["embeds"][0]
	if v, ok := embed["image"]; !ok || v != nil {
		t.Errorf("expected explicit null image, got %v (present=%v)", v, ok)
	}
	if v, ok := embed["title"]; !ok || v != "" {
		t.Errorf("expected empty embed title, got %v", v)
	}
}

func TestSend(t *testing.T) {
	var got WebhookPayload
	var contentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contentType = r.Header.Get("Content-Type")
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &got)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	d := newTestNotifier(t, srv.URL)
	if err := d.Send(context.Background(), testRecord()); err != nil {
		t.Fatalf("send: %v", err)
	}
	if contentType != "application/json" {
		t.Errorf("unexpected content type %q", contentType)
	}
	if len(got.Embeds) != 1 || got.Embeds[0].Fields[0].Value != "[VR-002 Bar](https://javdb.example.com/v/2)" {
		t.Errorf("unexpected payload %+v", got)
	}
}

func TestSendRetriesRateLimit(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	d := newTestNotifier(t, srv.URL)
	if err := d.Send(context.Background(), testRecord()); err != nil {
		t.Fatalf("send after retry: %v", err)
	}
	if calls.Load() != 2 {
		t.Errorf("expected 2 attempts, got %d", calls.Load())
	}
}

func TestSendFailure(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"message": "Invalid Form Body"}`))
	}))
	defer srv.Close()

	d := newTestNotifier(t, srv.URL)
	err := d.Send(context.Background(), testRecord())

	var ne *types.NotifyError
	if !errors.As(err, &ne) {
		t.Fatalf("expected NotifyError, got %v", err)
	}
	if ne.StatusCode != http.StatusBadRequest || ne.Title != "VR-002 Bar" {
		t.Errorf("unexpected error %+v", ne)
	}
	if calls.Load() != 1 {
		t.Errorf("client errors must not be retried, got %d attempts", calls.Load())
	}
}

func TestShouldRetry(t *testing.T) {
	status := func(code int) *resty.Response {
		return &resty.Response{RawResponse: &http.Response{StatusCode: code}}
	}
	refused := &net.OpError{Op: "dial", Net: "tcp", Err: os.NewSyscallError("connect", syscall.ECONNREFUSED)}
	reset := &net.OpError{Op: "read", Net: "tcp", Err: os.NewSyscallError("read", syscall.ECONNRESET)}

	tests := []struct {
		name string
		resp *resty.Response
		err  error
		want bool
	}{
		{"rate limited", status(http.StatusTooManyRequests), nil, true},
		{"server error", status(http.StatusBadGateway), nil, true},
		{"bad request", status(http.StatusBadRequest), nil, false},
		{"connection refused", nil, refused, true},
		{"connection reset", nil, reset, true},
		{"timeout", nil, context.DeadlineExceeded, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := shouldRetry(tt.resp, tt.err); got != tt.want {
				t.Errorf("shouldRetry = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSendTimeoutNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		time.Sleep(300 * time.Millisecond)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	cfg := config.DefaultConfig().Notify
	cfg.WebhookURL = srv.URL
	cfg.Timeout = 50 * time.Millisecond
	d := New(cfg, testLogger)
	d.SetRetryWait(time.Millisecond, 5*time.Millisecond)

	if err := d.Send(context.Background(), testRecord()); err == nil {
		t.Fatal("expected timeout error")
	}
	if calls.Load() != 1 {
		t.Errorf("a timed out post may have been delivered, got %d attempts", calls.Load())
	}
}

func TestSendDryRun(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	cfg := config.DefaultConfig().Notify
	cfg.WebhookURL = srv.URL
	cfg.DryRun = true
	d := New(cfg, testLogger)

	if err := d.Send(context.Background(), testRecord()); err != nil {
		t.Fatalf("dry run: %v", err)
	}
	if calls.Load() != 0 {
		t.Error("dry run must not post")
	}
	if !d.DryRun() {
		t.Error("expected DryRun to report true")
	}
}
