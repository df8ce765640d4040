package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"smartfeeds/internal/domain"
)

func htmlServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestWebsiteFetchWithSelector(t *testing.T) {
	t.Parallel()

	srv := htmlServer(t, `<html><head><title>Daily Notes</title></head><body>
<nav>home about</nav>
<div class="post">First note body.</div>
<div class="post">Second note body.</div>
<footer>footer text</footer>
</body></html>`)

	f := NewWebsiteFetcher(srv.Client(), nil)
	items, err := f.Fetch(context.Background(), domain.Source{
		Name:     "notes",
		Kind:     domain.SourceWebsite,
		URL:      srv.URL,
		Selector: "div.post",
	})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("fetched %d items, want 1", len(items))
	}

	item := items[0]
	if item.URL != srv.URL {
		t.Fatalf("item URL = %s", item.URL)
	}
	if got := item.Get(domain.FieldTitle); got != "Daily Notes" {
		t.Fatalf("title = %q", got)
	}
	content := item.Get(domain.FieldContent)
	if !strings.Contains(content, "First note body.") || !strings.Contains(content, "Second note body.") {
		t.Fatalf("selector content missing: %q", content)
	}
	if strings.Contains(content, "footer text") || strings.Contains(content, "home about") {
		t.Fatalf("page chrome leaked: %q", content)
	}
}

func TestWebsiteFetchListingResolvesRelativeLinks(t *testing.T) {
	t.Parallel()

	srv := htmlServer(t, `<html><body><ul>
<li class="entry"><a href="/posts/1">Post One</a></li>
<li class="entry"><a href="https://other.example/two">Post Two</a></li>
<li class="entry">no link here</li>
</ul></body></html>`)

	f := NewWebsiteFetcher(srv.Client(), nil)
	items, err := f.Fetch(context.Background(), domain.Source{
		Name:         "listing",
		URL:          srv.URL,
		ItemSelector: "li.entry",
	})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("fetched %d items, want 2", len(items))
	}
	if items[0].URL != srv.URL+"/posts/1" {
		t.Fatalf("relative link not resolved: %s", items[0].URL)
	}
	if items[0].Get(domain.FieldTitle) != "Post One" {
		t.Fatalf("title = %q", items[0].Get(domain.FieldTitle))
	}
	if items[1].URL != "https://other.example/two" {
		t.Fatalf("absolute link rewritten: %s", items[1].URL)
	}
}

func TestWebsiteFetchErrorStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	t.Cleanup(srv.Close)

	f := NewWebsiteFetcher(srv.Client(), nil)
	if _, err := f.Fetch(context.Background(), domain.Source{URL: srv.URL}); err == nil {
		t.Fatal("expected error for 404 response")
	}
}

func TestWebsiteFetchSendsBrowserUserAgent(t *testing.T) {
	t.Parallel()

	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		fmt.Fprint(w, `<html><body><div class="c">x</div></body></html>`)
	}))
	t.Cleanup(srv.Close)

	f := NewWebsiteFetcher(srv.Client(), nil)
	if _, err := f.Fetch(context.Background(), domain.Source{URL: srv.URL, Selector: "div.c"}); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if gotUA != browserUserAgent {
		t.Fatalf("user agent = %q", gotUA)
	}
}

func TestCapContent(t *testing.T) {
	t.Parallel()

	if got := capContent("short"); got != "short" {
		t.Fatalf("capContent changed short input: %q", got)
	}
	long := strings.Repeat("y", maxPageContent+10)
	if got := capContent(long); len(got) != maxPageContent {
		t.Fatalf("capContent length = %d, want %d", len(got), maxPageContent)
	}
}

func TestCapContentKeepsValidUTF8(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("語", maxPageContent+10)
	got := capContent(long)
	if !utf8.ValidString(got) {
		t.Fatal("capped content is not valid UTF-8")
	}
	if runes := utf8.RuneCountInString(got); runes != maxPageContent {
		t.Fatalf("capped content runes = %d, want %d", runes, maxPageContent)
	}
}
