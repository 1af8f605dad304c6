package enrich

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"

	"github.com/IshaanNene/vrwatch/internal/config"
	"github.com/IshaanNene/vrwatch/internal/fetcher"
	"github.com/IshaanNene/vrwatch/internal/types"
)

// XPath expressions for the detail page tag panel.
const (
	tagsPanelXPath = `//div[contains(concat(' ', normalize-space(@class), ' '), ' panel-block ')][.//strong[normalize-space(.)='Tags:']]`
	tagsValueXPath = `.//span[contains(concat(' ', normalize-space(@class), ' '), ' value ')]`
	tagsLinkXPath  = `.//a`
)

// TagEnricher reads the tag list from a record's detail page.
type TagEnricher struct {
	fetcher fetcher.Fetcher
	delay   time.Duration
	logger  *slog.Logger
}

// NewTagEnricher creates a TagEnricher.
func NewTagEnricher(f fetcher.Fetcher, cfg config.EnrichConfig, logger *slog.Logger) *TagEnricher {
	return &TagEnricher{
		fetcher: f,
		delay:   cfg.RequestDelay,
		logger:  logger.With("component", "tag_enricher"),
	}
}

// Lookup fetches detailURL and returns the tags listed on it.
// A page without a tag panel yields an empty, found result.
func (e *TagEnricher) Lookup(ctx context.Context, detailURL string) types.Result[[]string] {
	e.logger.Info("visiting detail page", "url", detailURL)

	resp, reason, err := fetchPolitely(ctx, e.fetcher, e.delay, detailURL, types.TagDetail)
	if err != nil {
		e.logger.Warn("detail page unavailable, keeping listing tags", "url", detailURL, "reason", reason, "error", err)
		return types.Missing[[]string](reason, err)
	}

	doc, err := htmlquery.Parse(bytes.NewReader(resp.Body))
	if err != nil {
		perr := &types.ParseError{URL: detailURL, Selector: tagsPanelXPath, Err: err}
		e.logger.Warn("detail page unparsable, keeping listing tags", "url", detailURL, "error", perr)
		return types.Missing[[]string](types.ReasonParseMiss, perr)
	}

	tags, err := ParseDetailTags(doc)
	if err != nil {
		perr := &types.ParseError{URL: detailURL, Selector: tagsPanelXPath, Err: err}
		e.logger.Warn("detail tag query failed", "url", detailURL, "error", perr)
		return types.Missing[[]string](types.ReasonParseMiss, perr)
	}
	return types.Found(tags)
}

// ParseDetailTags returns the trimmed, non-empty link texts inside the
// value span of the first "Tags:" panel block.
func ParseDetailTags(doc *html.Node) ([]string, error) {
	panel, err := htmlquery.Query(doc, tagsPanelXPath)
	if err != nil || panel == nil {
		return nil, err
	}

	value, err := htmlquery.Query(panel, tagsValueXPath)
	if err != nil || value == nil {
		return nil, err
	}

	links, err := htmlquery.QueryAll(value, tagsLinkXPath)
	if err != nil {
		return nil, err
	}

	var tags []string
	for _, a := range links {
		if t := strings.TrimSpace(htmlquery.InnerText(a)); t != "" {
			tags = append(tags, t)
		}
	}
	return tags, nil
}
