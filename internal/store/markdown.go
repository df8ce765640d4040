package store

import (
	"regexp"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const (
	maxTitleLength = 80
	fallbackTitle  = "No Title"
)

var (
	// Markdown links: [text](url). The text match is non-greedy rather than
	// a character class so titles containing "]" still resolve.
	mdLinkExpr = regexp.MustCompile(`\[.*?\]\((https?://[^\s)]+)\)`)
	// Bare URLs not preceded by "(" (those belong to markdown links).
	bareURLExpr = regexp.MustCompile(`(^|[^(])(https?://[^\s)]+)`)

	spaceExpr      = regexp.MustCompile(`\s+`)
	flatSpaceExpr  = regexp.MustCompile(`[ \t]+`)
	blankLinesExpr = regexp.MustCompile(`\n{3,}`)
	// Dash-only lines inside item content would read as the block separator
	// and corrupt item counting, so they are rewritten to an asterisk rule.
	hrLineExpr = regexp.MustCompile(`^-{3,}$`)
	// Closing block tags and <br>; a newline is injected after each so the
	// flattened text keeps paragraph boundaries.
	blockBreakExpr = regexp.MustCompile(`(?i)</(?:p|div|li|ul|ol|tr|table|blockquote|h[1-6])>|<br\s*/?>`)
)

// extractURLs collects every URL recorded in markdown content, from both
// link syntax and bare http(s) tokens.
func extractURLs(content string) map[string]struct{} {
	urls := make(map[string]struct{})
	for _, m := range mdLinkExpr.FindAllStringSubmatch(content, -1) {
		urls[m[1]] = struct{}{}
	}
	for _, m := range bareURLExpr.FindAllStringSubmatch(content, -1) {
		urls[m[2]] = struct{}{}
	}
	return urls
}

// ExtractURLs returns all URLs found in markdown content, sorted for
// deterministic iteration.
func ExtractURLs(content string) []string {
	set := extractURLs(content)
	urls := make([]string, 0, len(set))
	for u := range set {
		urls = append(urls, u)
	}
	sort.Strings(urls)
	return urls
}

// normalizeHTML flattens HTML fragments to lightweight markup: headings and
// bold become inline **emphasis**, italics become *emphasis*, block
// boundaries become newlines. Headings are deliberately demoted so injected
// content never visually outranks the item's own heading line.
func normalizeHTML(s string) string {
	if !strings.Contains(s, "<") {
		return tidyLines(s)
	}

	withBreaks := blockBreakExpr.ReplaceAllStringFunc(s, func(tag string) string {
		return tag + "\n"
	})

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(withBreaks))
	if err != nil {
		return tidyLines(s)
	}

	doc.Find("script, style, nav, footer, header").Remove()
	doc.Find("h1, h2, h3, h4, h5, h6, b, strong").Each(func(_ int, sel *goquery.Selection) {
		if txt := collapseWhitespace(sel.Text()); txt != "" {
			sel.SetText("**" + txt + "**")
		}
	})
	doc.Find("em, i").Each(func(_ int, sel *goquery.Selection) {
		if txt := collapseWhitespace(sel.Text()); txt != "" {
			sel.SetText("*" + txt + "*")
		}
	})

	return tidyLines(doc.Text())
}

// sanitizeTitle strips markup, collapses whitespace to single spaces, and
// caps the result at maxTitleLength runes, ellipsis included.
func sanitizeTitle(s string) string {
	title := collapseWhitespace(normalizeHTML(s))
	if title == "" {
		return fallbackTitle
	}
	runes := []rune(title)
	if len(runes) > maxTitleLength {
		title = string(runes[:maxTitleLength-3]) + "..."
	}
	return title
}

func collapseWhitespace(s string) string {
	return strings.TrimSpace(spaceExpr.ReplaceAllString(s, " "))
}

func tidyLines(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		line = strings.TrimSpace(flatSpaceExpr.ReplaceAllString(line, " "))
		if hrLineExpr.MatchString(line) {
			line = "* * *"
		}
		lines[i] = line
	}
	out := strings.Join(lines, "\n")
	out = blankLinesExpr.ReplaceAllString(out, "\n\n")
	return strings.TrimSpace(out)
}

// humanizeField turns a field key like "original_content" into a display
// label like "Original Content".
func humanizeField(name string) string {
	words := strings.Fields(strings.ReplaceAll(name, "_", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
