package enrich

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/IshaanNene/vrwatch/internal/config"
	"github.com/IshaanNene/vrwatch/internal/fetcher"
	"github.com/IshaanNene/vrwatch/internal/types"
)

const ratingLabel = "Average Rating"

var ratingNumberRe = regexp.MustCompile(`\d+(\.\d+)?`)

// RatingEnricher looks up a record's rating on the rating site.
type RatingEnricher struct {
	fetcher  fetcher.Fetcher
	template string
	delay    time.Duration
	logger   *slog.Logger
}

// NewRatingEnricher creates a RatingEnricher.
func NewRatingEnricher(f fetcher.Fetcher, cfg config.EnrichConfig, logger *slog.Logger) *RatingEnricher {
	return &RatingEnricher{
		fetcher:  f,
		template: cfg.RatingURLTemplate,
		delay:    cfg.RequestDelay,
		logger:   logger.With("component", "rating_enricher"),
	}
}

// RatingURL returns the rating page URL for an identifier.
func (e *RatingEnricher) RatingURL(identifier string) string {
	return fmt.Sprintf(e.template, strings.ToLower(identifier))
}

// Lookup fetches the rating for identifier. It never fails: the result
// reason tells why no rating is available. An empty identifier is skipped
// without any delay or network call.
func (e *RatingEnricher) Lookup(ctx context.Context, identifier string) types.Result[string] {
	if identifier == "" {
		return types.Missing[string](types.ReasonSkipped, nil)
	}

	ratingURL := e.RatingURL(identifier)
	e.logger.Info("checking rating", "identifier", identifier, "url", ratingURL)

	resp, reason, err := fetchPolitely(ctx, e.fetcher, e.delay, ratingURL, types.TagRating)
	if err != nil {
		e.logger.Warn("rating lookup failed", "identifier", identifier, "reason", reason, "error", err)
		return types.Missing[string](reason, err)
	}

	doc, err := resp.Document()
	if err != nil {
		perr := &types.ParseError{URL: ratingURL, Selector: "b", Err: err}
		e.logger.Warn("rating page unparsable", "identifier", identifier, "error", perr)
		return types.Missing[string](types.ReasonParseMiss, perr)
	}

	rating, ok := ParseRating(doc)
	if !ok {
		e.logger.Debug("no rating on page", "identifier", identifier)
		return types.Missing[string](types.ReasonParseMiss, nil)
	}
	return types.Found(rating)
}

// ParseRating finds the first <b> mentioning the rating label and reads the
// number out of its next <font> sibling.
func ParseRating(doc *goquery.Document) (string, bool) {
	label := doc.Find("b").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return strings.Contains(s.Text(), ratingLabel)
	}).First()
	if label.Length() == 0 {
		return "", false
	}

	value := label.NextAllFiltered("font").First()
	if value.Length() == 0 {
		return "", false
	}

	rating := ratingNumberRe.FindString(strings.TrimSpace(value.Text()))
	return rating, rating != ""
}
