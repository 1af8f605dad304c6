package types

import (
	"sort"
	"strings"
)

// Record represents one video title discovered on a listing page.
type Record struct {
	// Identifier is the leading product code of the title, e.g. "ABC-123".
	// Empty when the title carries no code.
	Identifier string

	// OriginalTitle is the raw listing title and the deduplication key.
	OriginalTitle string

	// DisplayTitle is the translated title, or OriginalTitle when
	// translation failed or was disabled.
	DisplayTitle string

	// DetailURL is the absolute URL of the record's detail page.
	DetailURL string

	// ImageURL is the cover image, empty when absent.
	ImageURL string

	// Tags is the union of inline listing tags and detail page tags.
	Tags TagSet

	// Rating is the numeric rating text as extracted, empty when absent.
	Rating string

	// Page is the listing page the record was found on.
	Page int
}

// NewRecord creates a Record with an initialized tag set.
func NewRecord(title, detailURL string) *Record {
	return &Record{
		OriginalTitle: title,
		DisplayTitle:  title,
		DetailURL:     detailURL,
		Tags:          NewTagSet(),
	}
}

// HasIdentifier returns true if a product code was extracted.
func (r *Record) HasIdentifier() bool { return r.Identifier != "" }

// HasRating returns true if a rating was found.
func (r *Record) HasRating() bool { return r.Rating != "" }

// Title returns the title to show users.
func (r *Record) Title() string {
	if r.DisplayTitle != "" {
		return r.DisplayTitle
	}
	return r.OriginalTitle
}

// Clone creates a deep copy of the record.
func (r *Record) Clone() *Record {
	clone := *r
	clone.Tags = r.Tags.Clone()
	return &clone
}

// TagSet is a case-sensitive set of tag names.
type TagSet map[string]struct{}

// NewTagSet creates a TagSet holding the given tags.
func NewTagSet(tags ...string) TagSet {
	s := make(TagSet, len(tags))
	s.Add(tags...)
	return s
}

// Add inserts tags, ignoring blank values.
func (s TagSet) Add(tags ...string) {
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t != "" {
			s[t] = struct{}{}
		}
	}
}

// Union adds every tag of other into s.
func (s TagSet) Union(other TagSet) {
	for t := range other {
		s[t] = struct{}{}
	}
}

// Has reports whether tag is in the set.
func (s TagSet) Has(tag string) bool {
	_, ok := s[tag]
	return ok
}

// Len returns the number of tags.
func (s TagSet) Len() int { return len(s) }

// Sorted returns the tags in lexicographic order.
func (s TagSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for t := range s {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Clone copies the set.
func (s TagSet) Clone() TagSet {
	c := make(TagSet, len(s))
	for t := range s {
		c[t] = struct{}{}
	}
	return c
}

// TitleSet is the set of original titles that have already been notified.
type TitleSet map[string]struct{}

// NewTitleSet creates a TitleSet holding the given titles.
func NewTitleSet(titles ...string) TitleSet {
	s := make(TitleSet, len(titles))
	for _, t := range titles {
		s.Add(t)
	}
	return s
}

// Add inserts a title. Blank titles are ignored.
func (s TitleSet) Add(title string) {
	if title == "" {
		return
	}
	s[title] = struct{}{}
}

// Has reports whether title is in the set.
func (s TitleSet) Has(title string) bool {
	_, ok := s[title]
	return ok
}

// Len returns the number of titles.
func (s TitleSet) Len() int { return len(s) }

// Sorted returns the titles in lexicographic order.
func (s TitleSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for t := range s {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Clone copies the set.
func (s TitleSet) Clone() TitleSet {
	c := make(TitleSet, len(s))
	for t := range s {
		c[t] = struct{}{}
	}
	return c
}

// Equal reports whether both sets hold the same titles.
func (s TitleSet) Equal(other TitleSet) bool {
	if len(s) != len(other) {
		return false
	}
	for t := range s {
		if !other.Has(t) {
			return false
		}
	}
	return true
}
