package listing

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"testing"
	"time"

	"github.com/IshaanNene/vrwatch/internal/config"
	"github.com/IshaanNene/vrwatch/internal/fetcher"
	"github.com/IshaanNene/vrwatch/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

const listingHTML = `<html><body>
<div class="movie-list">
  <div class="item">
    <a class="box" href="/v/abc1">
      <img loading="lazy" src="https://img.example.com/abc1.jpg">
      <div class="video-title"> VR-001 Foo 【VR】 </div>
      <div class="tags has-addons">
        <span class="tag">Subtitled</span>
        <span class="tag"> </span>
        <span class="tag">Today</span>
      </div>
    </a>
  </div>
  <div class="item">
    <a class="box" href="https://cdn.example.com/v/xyz">
      <div class="video-title">no code here</div>
    </a>
  </div>
  <div class="item">
    <a class="box" href="/v/notitle"></a>
  </div>
  <div class="item">
    <div class="video-title">VR-404 unlinked</div>
  </div>
  <div class="item">
    <a class="box" href="">
      <div class="video-title">VR-405 empty href</div>
    </a>
  </div>
</div>
</body></html>`

func newTestHTTPFetcher(t *testing.T) fetcher.Fetcher {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Fetcher.CloudflareBypass = false
	cfg.Fetcher.RequestTimeout = 5 * time.Second
	f, err := fetcher.NewHTTPFetcher(cfg, testLogger)
	if err != nil {
		t.Fatalf("create fetcher: %v", err)
	}
	t.Cleanup(func() { f.Close() })
	return f
}

func TestPageURL(t *testing.T) {
	l, err := NewFetcher("https://javdb.com/search?f=download&q=VR&sb=1", newTestHTTPFetcher(t), testLogger)
	if err != nil {
		t.Fatal(err)
	}

	u, err := url.Parse(l.PageURL(2))
	if err != nil {
		t.Fatal(err)
	}
	q := u.Query()
	if q.Get("page") != "2" {
		t.Errorf("expected page=2, got %q", q.Get("page"))
	}
	if q.Get("q") != "VR" || q.Get("f") != "download" || q.Get("sb") != "1" {
		t.Errorf("base query not preserved: %s", u.RawQuery)
	}
	if u.Path != "/search" || u.Host != "javdb.com" {
		t.Errorf("unexpected url %s", u)
	}
}

func TestNewFetcherRejectsRelativeBase(t *testing.T) {
	_, err := NewFetcher("/search?q=VR", newTestHTTPFetcher(t), testLogger)
	if !errors.Is(err, types.ErrInvalidURL) {
		t.Errorf("expected ErrInvalidURL, got %v", err)
	}
}

func TestFetchPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("page") {
		case "1":
			w.Write([]byte(listingHTML))
		default:
			w.WriteHeader(http.StatusForbidden)
		}
	}))
	defer srv.Close()

	l, err := NewFetcher(srv.URL+"/search?q=VR", newTestHTTPFetcher(t), testLogger)
	if err != nil {
		t.Fatal(err)
	}

	resp, err := l.FetchPage(context.Background(), 1)
	if err != nil {
		t.Fatalf("page 1: %v", err)
	}
	if len(resp.Body) == 0 {
		t.Error("expected body")
	}

	_, err = l.FetchPage(context.Background(), 2)
	var fe *types.FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("expected FetchError for 403, got %v", err)
	}
	if fe.StatusCode != http.StatusForbidden {
		t.Errorf("expected status 403, got %d", fe.StatusCode)
	}
}

func TestExtractPage(t *testing.T) {
	base, _ := url.Parse("https://javdb.com/search?q=VR&page=1")
	resp := &types.Response{StatusCode: 200, Body: []byte(listingHTML)}

	page, err := NewExtractor(testLogger).ExtractPage(resp, base, 1)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}

	if page.Nodes != 5 {
		t.Errorf("expected 5 item nodes, got %d", page.Nodes)
	}
	if len(page.Records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(page.Records))
	}
	if page.Skipped != 3 {
		t.Errorf("expected 3 skipped, got %d", page.Skipped)
	}

	first := page.Records[0]
	if first.OriginalTitle != "VR-001 Foo 【VR】" {
		t.Errorf("title not trimmed: %q", first.OriginalTitle)
	}
	if first.Identifier != "VR-001" {
		t.Errorf("expected identifier VR-001, got %q", first.Identifier)
	}
	if first.DetailURL != "https://javdb.com/v/abc1" {
		t.Errorf("relative link not resolved: %q", first.DetailURL)
	}
	if first.ImageURL != "https://img.example.com/abc1.jpg" {
		t.Errorf("unexpected image %q", first.ImageURL)
	}
	for _, tag := range []string{"Subtitled", "Today", "VR"} {
		if !first.Tags.Has(tag) {
			t.Errorf("missing tag %q in %v", tag, first.Tags.Sorted())
		}
	}
	if first.Tags.Len() != 3 {
		t.Errorf("expected 3 tags, got %v", first.Tags.Sorted())
	}
	if first.Page != 1 {
		t.Errorf("expected page 1, got %d", first.Page)
	}

	second := page.Records[1]
	if second.Identifier != "" {
		t.Errorf("expected no identifier, got %q", second.Identifier)
	}
	if second.DetailURL != "https://cdn.example.com/v/xyz" {
		t.Errorf("absolute link changed: %q", second.DetailURL)
	}
	if second.ImageURL != "" || second.Tags.Len() != 0 {
		t.Errorf("expected no image or tags, got %q %v", second.ImageURL, second.Tags.Sorted())
	}
}

func TestExtractPageEmpty(t *testing.T) {
	base, _ := url.Parse("https://javdb.com/search")
	resp := &types.Response{StatusCode: 200, Body: []byte(`<html><body><p>nothing</p></body></html>`)}

	page, err := NewExtractor(testLogger).ExtractPage(resp, base, 3)
	if err != nil {
		t.Fatal(err)
	}
	if page.Nodes != 0 || len(page.Records) != 0 {
		t.Errorf("expected empty page, got %+v", page)
	}
}

func TestExtractPageMultiLineTitle(t *testing.T) {
	base, _ := url.Parse("https://javdb.com/search")
	body := `<div class="movie-list"><div class="item">
  <a class="box" href="/v/9"><div class="video-title"><strong>VR-009</strong>
      Foo  Bar</div></a>
</div></div>`
	resp := &types.Response{StatusCode: 200, Body: []byte(body)}

	page, err := NewExtractor(testLogger).ExtractPage(resp, base, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(page.Records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(page.Records))
	}
	rec := page.Records[0]
	if rec.OriginalTitle != "VR-009 Foo Bar" {
		t.Errorf("title not normalized: %q", rec.OriginalTitle)
	}
	if rec.Identifier != "VR-009" {
		t.Errorf("expected identifier VR-009, got %q", rec.Identifier)
	}
}

func TestNormalizeTitle(t *testing.T) {
	tests := map[string]string{
		"VR-001 Foo":             "VR-001 Foo",
		"  VR-001\n\t Foo  Bar ": "VR-001 Foo Bar",
		"\r\n":                   "",
	}
	for in, want := range tests {
		if got := NormalizeTitle(in); got != want {
			t.Errorf("NormalizeTitle(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestExtractIdentifier(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"ABC-123 Some Title", "ABC-123"},
		{"VR-001 Foo", "VR-001"},
		{"3DSVR-0999 something", "3DSVR-0999"},
		{"abc-123 lowercase", ""},
		{" ABC-123 leading space", ""},
		{"【VR】ABC-123", ""},
		{"", ""},
	}

	for _, tt := range tests {
		if got := ExtractIdentifier(tt.title); got != tt.want {
			t.Errorf("ExtractIdentifier(%q) = %q, want %q", tt.title, got, tt.want)
		}
	}
}

func TestHasVRMarker(t *testing.T) {
	tests := map[string]bool{
		"ABC-123 【VR】 title": true,
		"ABC-123 [VR] title":  true,
		"ABC-123 [vr] title":  true,
		"ABC-123 VR title":    false,
		"ABC-123 (VR) title":  false,
	}
	for title, want := range tests {
		if got := HasVRMarker(title); got != want {
			t.Errorf("HasVRMarker(%q) = %v, want %v", title, got, want)
		}
	}
}
