package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"

	"smartfeeds/internal/domain"
	"smartfeeds/internal/ports"
)

const (
	maxPageContent   = 50000
	browserUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.114 Safari/537.36"
)

// WebsiteFetcher pulls items from plain web pages. With an item selector it
// extracts one item per matched link (listing pages); otherwise it returns a
// single readable-article item for the page itself.
type WebsiteFetcher struct {
	client *http.Client
	logger *slog.Logger
}

var _ Fetcher = (*WebsiteFetcher)(nil)
var _ ports.PageFetcher = (*WebsiteFetcher)(nil)

// NewWebsiteFetcher wires an HTTP client; nil selects a 30s-timeout default.
func NewWebsiteFetcher(client *http.Client, log *slog.Logger) *WebsiteFetcher {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &WebsiteFetcher{client: client, logger: log}
}

// Name identifies the strategy inside the registry.
func (w *WebsiteFetcher) Name() string {
	return domain.SourceWebsite
}

// Fetch downloads the page and extracts items per the source configuration.
func (w *WebsiteFetcher) Fetch(ctx context.Context, src domain.Source) ([]domain.Item, error) {
	html, err := w.fetchHTML(ctx, src.URL)
	if err != nil {
		return nil, err
	}

	if src.ItemSelector != "" {
		return w.extractLinkItems(html, src)
	}
	return w.extractPageItem(html, src)
}

// FetchPage returns the readable text of a single page, for deep-dive reads.
func (w *WebsiteFetcher) FetchPage(ctx context.Context, pageURL string) (string, error) {
	html, err := w.fetchHTML(ctx, pageURL)
	if err != nil {
		return "", err
	}
	text, _, err := readableText(html, pageURL)
	return text, err
}

func (w *WebsiteFetcher) fetchHTML(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", browserUserAgent)

	resp, err := w.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("page %s returned %s", pageURL, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read page body: %w", err)
	}
	return string(body), nil
}

// extractPageItem runs readability over the page and emits one item. A
// content selector narrows extraction to the matched elements instead.
func (w *WebsiteFetcher) extractPageItem(html string, src domain.Source) ([]domain.Item, error) {
	item := domain.NewItem(src.URL)
	item.Set(domain.FieldSource, src.Name)

	if src.Selector != "" {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
		if err != nil {
			return nil, fmt.Errorf("parse page: %w", err)
		}
		doc.Find("script, style, nav, footer, header").Remove()

		var parts []string
		doc.Find(src.Selector).Each(func(_ int, sel *goquery.Selection) {
			if txt := strings.TrimSpace(sel.Text()); txt != "" {
				parts = append(parts, txt)
			}
		})
		item.Set(domain.FieldTitle, strings.TrimSpace(doc.Find("title").First().Text()))
		item.Set(domain.FieldContent, capContent(strings.Join(parts, "\n\n")))
		return []domain.Item{item}, nil
	}

	text, title, err := readableText(html, src.URL)
	if err != nil {
		return nil, err
	}
	item.Set(domain.FieldTitle, title)
	item.Set(domain.FieldContent, capContent(text))
	return []domain.Item{item}, nil
}

// extractLinkItems emits one item per matched link on a listing page,
// resolving relative hrefs against the source URL.
func (w *WebsiteFetcher) extractLinkItems(html string, src domain.Source) ([]domain.Item, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}

	base, err := url.Parse(src.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid source url %s: %w", src.URL, err)
	}

	var items []domain.Item
	doc.Find(src.ItemSelector).Each(func(_ int, sel *goquery.Selection) {
		link := sel
		if !sel.Is("a") {
			link = sel.Find("a").First()
		}
		href, ok := link.Attr("href")
		if !ok || href == "" {
			return
		}
		ref, err := url.Parse(href)
		if err != nil {
			return
		}

		title := strings.TrimSpace(link.Text())
		if title == "" {
			title = strings.TrimSpace(sel.Text())
		}

		item := domain.NewItem(base.ResolveReference(ref).String())
		item.Set(domain.FieldTitle, title)
		item.Set(domain.FieldSource, src.Name)
		items = append(items, item)
	})

	if w.logger != nil {
		w.logger.Debug("listing extracted", "url", src.URL, "selector", src.ItemSelector, "items", len(items))
	}
	return items, nil
}

// readableText extracts the main article text and title from raw HTML.
func readableText(html, pageURL string) (text, title string, err error) {
	parsed, err := url.Parse(pageURL)
	if err != nil {
		return "", "", fmt.Errorf("invalid page url %s: %w", pageURL, err)
	}

	article, err := readability.FromReader(strings.NewReader(html), parsed)
	if err != nil {
		return "", "", fmt.Errorf("extract article %s: %w", pageURL, err)
	}
	return capContent(strings.TrimSpace(article.TextContent)), article.Title, nil
}

// capContent bounds content to maxPageContent runes, never splitting a
// multibyte character.
func capContent(s string) string {
	if len(s) <= maxPageContent {
		return s
	}
	runes := []rune(s)
	if len(runes) <= maxPageContent {
		return s
	}
	return string(runes[:maxPageContent])
}
