package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"smartfeeds/internal/domain"
)

const (
	defaultFeedLimit = 5
	maxEntryContent  = 1000
)

// RSSFetcher pulls the latest entries from RSS/Atom feeds, including podcast
// feeds whose enclosures are captured as the item's audio field.
type RSSFetcher struct {
	parser *gofeed.Parser
	logger *slog.Logger
}

var _ Fetcher = (*RSSFetcher)(nil)

// NewRSSFetcher builds a fetcher with a shared feed parser.
func NewRSSFetcher(log *slog.Logger) *RSSFetcher {
	parser := gofeed.NewParser()
	parser.UserAgent = browserUserAgent
	return &RSSFetcher{parser: parser, logger: log}
}

// Name identifies the strategy inside the registry.
func (f *RSSFetcher) Name() string {
	return domain.SourceRSS
}

// Fetch parses the feed and returns up to the configured number of entries.
func (f *RSSFetcher) Fetch(ctx context.Context, src domain.Source) ([]domain.Item, error) {
	feed, err := f.parser.ParseURLWithContext(src.URL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", src.URL, err)
	}

	limit := src.Limit
	if limit <= 0 {
		limit = defaultFeedLimit
	}

	items := make([]domain.Item, 0, limit)
	for _, entry := range feed.Items {
		if len(items) >= limit {
			break
		}
		if entry.Link == "" {
			continue
		}

		item := domain.NewItem(entry.Link)
		item.Set(domain.FieldTitle, entry.Title)
		item.Set(domain.FieldSource, sourceName(src, feed))
		item.Set(domain.FieldPublished, publishedDate(entry))
		item.Set(domain.FieldContent, entryContent(entry))
		item.Set(domain.FieldAudio, enclosureURL(entry))
		items = append(items, item)
	}

	if f.logger != nil {
		f.logger.Debug("feed parsed", "url", src.URL, "entries", len(feed.Items), "taken", len(items))
	}
	return items, nil
}

func sourceName(src domain.Source, feed *gofeed.Feed) string {
	if src.Name != "" && src.Name != src.URL {
		return src.Name
	}
	if feed.Title != "" {
		return feed.Title
	}
	return src.URL
}

func publishedDate(entry *gofeed.Item) string {
	if entry.PublishedParsed != nil {
		return entry.PublishedParsed.Format(time.RFC3339)
	}
	if entry.Published != "" {
		return entry.Published
	}
	if entry.Updated != "" {
		return entry.Updated
	}
	return "Unknown Date"
}

func entryContent(entry *gofeed.Item) string {
	content := entry.Description
	if content == "" {
		content = entry.Content
	}
	// Truncation counts runes so a multibyte character is never split.
	if len(content) > maxEntryContent {
		if runes := []rune(content); len(runes) > maxEntryContent {
			content = string(runes[:maxEntryContent]) + "..."
		}
	}
	return content
}

func enclosureURL(entry *gofeed.Item) string {
	for _, enc := range entry.Enclosures {
		if enc == nil || enc.URL == "" {
			continue
		}
		if enc.Type == "" || strings.HasPrefix(enc.Type, "audio") {
			return enc.URL
		}
	}
	return ""
}
