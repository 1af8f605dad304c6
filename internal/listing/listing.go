// Package listing fetches paginated listing pages and extracts candidate
// records from them.
package listing

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"

	"github.com/IshaanNene/vrwatch/internal/fetcher"
	"github.com/IshaanNene/vrwatch/internal/types"
)

// Fetcher retrieves listing pages for a fixed base query.
type Fetcher struct {
	base    *url.URL
	fetcher fetcher.Fetcher
	logger  *slog.Logger
}

// NewFetcher creates a listing Fetcher for baseURL.
func NewFetcher(baseURL string, f fetcher.Fetcher, logger *slog.Logger) (*Fetcher, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: listing base %q", types.ErrInvalidURL, baseURL)
	}
	return &Fetcher{
		base:    u,
		fetcher: f,
		logger:  logger.With("component", "listing_fetcher"),
	}, nil
}

// Base returns the base query URL that relative links resolve against.
func (l *Fetcher) Base() *url.URL {
	u := *l.base
	return &u
}

// PageURL returns the URL of the 1-indexed listing page n.
func (l *Fetcher) PageURL(n int) string {
	u := *l.base
	q := u.Query()
	q.Set("page", strconv.Itoa(n))
	u.RawQuery = q.Encode()
	return u.String()
}

// FetchPage fetches listing page n. Any non-2xx status is an error.
func (l *Fetcher) FetchPage(ctx context.Context, n int) (*types.Response, error) {
	pageURL := l.PageURL(n)
	req, err := types.NewRequest(pageURL, types.TagListing)
	if err != nil {
		return nil, err
	}

	l.logger.Info("scraping listing page", "page", n, "url", pageURL)

	resp, err := l.fetcher.Fetch(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := fetcher.CheckStatus(resp); err != nil {
		return nil, err
	}
	if len(resp.Body) == 0 {
		return nil, &types.FetchError{URL: pageURL, StatusCode: resp.StatusCode, Err: types.ErrEmptyResponse, Retryable: true}
	}
	return resp, nil
}
