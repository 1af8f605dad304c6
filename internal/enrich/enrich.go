// Package enrich adds best-effort data to listing records: a rating from a
// secondary site and tags from the record's detail page.
package enrich

import (
	"context"
	"errors"
	"time"

	"github.com/IshaanNene/vrwatch/internal/fetcher"
	"github.com/IshaanNene/vrwatch/internal/types"
)

// fetchPolitely waits delay, then fetches rawURL. Failures are classified
// into a lookup reason; the returned error is for logging only.
func fetchPolitely(ctx context.Context, f fetcher.Fetcher, delay time.Duration, rawURL, tag string) (*types.Response, types.Reason, error) {
	if err := fetcher.Sleep(ctx, delay); err != nil {
		return nil, types.ReasonNetworkError, err
	}

	req, err := types.NewRequest(rawURL, tag)
	if err != nil {
		return nil, types.ReasonNetworkError, err
	}

	resp, err := f.Fetch(ctx, req)
	if err == nil {
		err = fetcher.CheckStatus(resp)
	}
	if err != nil {
		var fe *types.FetchError
		if errors.As(err, &fe) && fe.NotFound() {
			return nil, types.ReasonNotFound, err
		}
		return nil, types.ReasonNetworkError, err
	}
	return resp, types.ReasonFound, nil
}
