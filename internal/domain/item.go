package domain

import "strings"

// Item is one unit of fetched content flowing through the pipeline. URL is
// the identity key used for every deduplication check; all other attributes
// are optional named string fields rendered generically by the staged log.
// Items are immutable once appended; later stages emit enriched copies
// instead of mutating earlier ones.
type Item struct {
	URL    string
	Fields map[string]string
}

// Well-known field names. Fetchers and judgments may attach others; the log
// renders whatever is present.
const (
	FieldTitle           = "title"
	FieldSource          = "source"
	FieldPublished       = "published"
	FieldContent         = "content"
	FieldSummary         = "summary"
	FieldRelevance       = "relevance"
	FieldReason          = "reason"
	FieldOriginalContent = "original_content"
	FieldAudio           = "audio"
)

// NewItem builds an item with an empty field set.
func NewItem(url string) Item {
	return Item{URL: url, Fields: map[string]string{}}
}

// Get returns a named field or the empty string.
func (i Item) Get(name string) string {
	return i.Fields[name]
}

// Set stores a named field, dropping empty values.
func (i *Item) Set(name, value string) {
	if value == "" {
		return
	}
	if i.Fields == nil {
		i.Fields = map[string]string{}
	}
	i.Fields[name] = value
}

// NormalizedURL strips a single trailing slash so that "http://x/a" and
// "http://x/a/" compare equal.
func (i Item) NormalizedURL() string {
	return strings.TrimSuffix(i.URL, "/")
}

// Curation is the outcome of one curator judgment over a raw batch.
type Curation struct {
	Selected []Item
	Filtered []Item
}

// Source kinds resolvable by the fetch registry.
const (
	SourceWebsite = "website"
	SourceRSS     = "rss"
)

// Source describes one configured upstream feed or page.
type Source struct {
	Name         string
	Kind         string
	URL          string
	Instruction  string
	Selector     string
	ItemSelector string
	Limit        int
}

// Page is a fetched article body used by the deep-dive stage.
type Page struct {
	URL     string
	Content string
}
