package listing

import (
	"log/slog"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/IshaanNene/vrwatch/internal/types"
)

// Selectors for the listing page markup.
const (
	itemSelector  = "div.item"
	linkSelector  = "a.box"
	titleSelector = "div.video-title"
	imageSelector = `img[loading="lazy"]`
	tagsSelector  = "div.tags.has-addons span.tag"
)

var (
	identifierRe = regexp.MustCompile(`^[A-Z0-9-]+`)
	vrMarkerRe   = regexp.MustCompile(`(?i)【VR】|\[VR\]`)
)

// Page is the extraction result for one listing page.
type Page struct {
	// Records are the usable entries in page order.
	Records []*types.Record

	// Nodes is the number of item nodes on the page, usable or not.
	// Zero means the feed is exhausted.
	Nodes int

	// Skipped counts item nodes dropped for a missing link or title.
	Skipped int
}

// Extractor turns listing HTML into candidate records.
type Extractor struct {
	logger *slog.Logger
}

// NewExtractor creates a new Extractor.
func NewExtractor(logger *slog.Logger) *Extractor {
	return &Extractor{
		logger: logger.With("component", "entry_extractor"),
	}
}

// ExtractPage extracts every usable entry from a listing response.
// Relative links resolve against base.
func (e *Extractor) ExtractPage(resp *types.Response, base *url.URL, pageNum int) (*Page, error) {
	doc, err := resp.Document()
	if err != nil {
		return nil, &types.ParseError{URL: resp.URL(), Selector: itemSelector, Err: err}
	}

	page := &Page{}
	doc.Find(itemSelector).Each(func(_ int, item *goquery.Selection) {
		page.Nodes++
		rec, err := e.ExtractEntry(item, base)
		if err != nil {
			page.Skipped++
			e.logger.Warn("skipping listing entry", "page", pageNum, "error", err)
			return
		}
		if rec == nil {
			page.Skipped++
			return
		}
		rec.Page = pageNum
		page.Records = append(page.Records, rec)
	})

	return page, nil
}

// ExtractEntry parses one listing item node. Items without a resolvable
// link yield (nil, nil) and are dropped silently; items without a title
// yield types.ErrNoTitle.
func (e *Extractor) ExtractEntry(item *goquery.Selection, base *url.URL) (*types.Record, error) {
	link := item.Find(linkSelector).First()
	if link.Length() == 0 {
		return nil, nil
	}
	href, ok := link.Attr("href")
	href = strings.TrimSpace(href)
	if !ok || href == "" {
		return nil, nil
	}
	ref, err := url.Parse(href)
	if err != nil {
		return nil, nil
	}
	detailURL := base.ResolveReference(ref).String()

	titleSel := link.Find(titleSelector).First()
	if titleSel.Length() == 0 {
		return nil, &types.ParseError{URL: detailURL, Selector: titleSelector, Err: types.ErrNoTitle}
	}
	title := NormalizeTitle(titleSel.Text())
	if title == "" {
		return nil, &types.ParseError{URL: detailURL, Selector: titleSelector, Err: types.ErrNoTitle}
	}

	rec := types.NewRecord(title, detailURL)
	rec.Identifier = ExtractIdentifier(title)

	if src, ok := item.Find(imageSelector).First().Attr("src"); ok {
		rec.ImageURL = strings.TrimSpace(src)
	}

	item.Find(tagsSelector).Each(func(_ int, tag *goquery.Selection) {
		rec.Tags.Add(tag.Text())
	})
	if HasVRMarker(title) {
		rec.Tags.Add("VR")
	}

	return rec, nil
}

// NormalizeTitle collapses runs of whitespace, line breaks included, into
// single spaces so the title is a stable single-line dedup key.
func NormalizeTitle(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// ExtractIdentifier returns the leading product code of a title
// ("ABC-123 Some Text" -> "ABC-123"), or "" when there is none.
func ExtractIdentifier(title string) string {
	return identifierRe.FindString(title)
}

// HasVRMarker reports whether a title carries a bracketed VR marker.
func HasVRMarker(title string) bool {
	return vrMarkerRe.MatchString(title)
}
