package fetcher

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/IshaanNene/vrwatch/internal/config"
	"github.com/IshaanNene/vrwatch/internal/types"
)

// Fetcher is the interface for all request fetcher implementations.
type Fetcher interface {
	// Fetch retrieves the content at the given request's URL.
	Fetch(ctx context.Context, req *types.Request) (*types.Response, error)

	// Close releases any resources held by the fetcher.
	Close() error

	// Type returns the fetcher type identifier.
	Type() string
}

// New creates the fetcher selected by cfg.Fetcher.Type.
func New(cfg *config.Config, logger *slog.Logger) (Fetcher, error) {
	switch cfg.Fetcher.Type {
	case "", "http":
		return NewHTTPFetcher(cfg, logger)
	case "browser":
		return NewBrowserFetcher(cfg, logger)
	default:
		return nil, fmt.Errorf("unknown fetcher type %q", cfg.Fetcher.Type)
	}
}

// CheckStatus turns a non-2xx response into a *types.FetchError.
func CheckStatus(resp *types.Response) error {
	if resp.IsSuccess() {
		return nil
	}
	return &types.FetchError{
		URL:        resp.URL(),
		StatusCode: resp.StatusCode,
		Err:        fmt.Errorf("unexpected HTTP status %d", resp.StatusCode),
		Retryable:  resp.IsServerError() || resp.StatusCode == 429,
	}
}
