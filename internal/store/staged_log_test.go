package store

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"smartfeeds/internal/domain"
)

func testItem(url, title string) domain.Item {
	item := domain.NewItem(url)
	item.Set(domain.FieldTitle, title)
	return item
}

func TestAppendIsIdempotent(t *testing.T) {
	t.Parallel()

	log := NewStagedLog(t.TempDir(), nil)
	items := []domain.Item{
		testItem("https://a.example/one", "One"),
		testItem("https://a.example/two", "Two"),
	}

	res, err := log.Append(StageRaw, "2026-08-28", items)
	if err != nil {
		t.Fatalf("first append: %v", err)
	}
	if res.Added != 2 || res.Skipped != 0 {
		t.Fatalf("first append result: %+v", res)
	}

	res, err = log.Append(StageRaw, "2026-08-28", items)
	if err != nil {
		t.Fatalf("second append: %v", err)
	}
	if res.Added != 0 || res.Skipped != 2 {
		t.Fatalf("second append result: %+v", res)
	}
	if got := log.ItemCount(StageRaw, "2026-08-28"); got != 2 {
		t.Fatalf("expected 2 items, got %d", got)
	}
}

func TestAppendTrailingSlashEquality(t *testing.T) {
	t.Parallel()

	log := NewStagedLog(t.TempDir(), nil)
	if _, err := log.Append(StageRaw, "2026-08-28", []domain.Item{testItem("http://x.example/a", "A")}); err != nil {
		t.Fatalf("append: %v", err)
	}
	res, err := log.Append(StageRaw, "2026-08-28", []domain.Item{testItem("http://x.example/a/", "A slash")})
	if err != nil {
		t.Fatalf("append slash variant: %v", err)
	}
	if res.Added != 0 || res.Skipped != 1 {
		t.Fatalf("slash variant not treated as duplicate: %+v", res)
	}
}

func TestAppendDedupesBracketedTitles(t *testing.T) {
	t.Parallel()

	log := NewStagedLog(t.TempDir(), nil)
	items := []domain.Item{testItem("https://a.example/update", "[Update] Go 1.24 released")}

	if _, err := log.Append(StageRaw, "2026-08-28", items); err != nil {
		t.Fatalf("first append: %v", err)
	}
	res, err := log.Append(StageRaw, "2026-08-28", items)
	if err != nil {
		t.Fatalf("second append: %v", err)
	}
	if res.Added != 0 || res.Skipped != 1 {
		t.Fatalf("bracketed title re-appended: %+v", res)
	}
	if got := log.ItemCount(StageRaw, "2026-08-28"); got != 1 {
		t.Fatalf("count = %d, want 1", got)
	}
}

func TestAppendContentRuleKeepsCountExact(t *testing.T) {
	t.Parallel()

	log := NewStagedLog(t.TempDir(), nil)
	item := testItem("https://a.example/hr", "With rule")
	item.Set(domain.FieldContent, "above the rule\n\n---\n\nbelow the rule")

	if _, err := log.Append(StageRaw, "2026-08-28", []domain.Item{item}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if got := log.ItemCount(StageRaw, "2026-08-28"); got != 1 {
		t.Fatalf("count = %d, want 1", got)
	}
	cursor := NewBatchCursor(log)
	batch := cursor.ReadBatch("2026-08-28", 0, 1)
	if !strings.Contains(batch, "above the rule") || !strings.Contains(batch, "below the rule") {
		t.Fatalf("item split across batches: %q", batch)
	}
}

func TestAppendSkipsItemsWithoutURL(t *testing.T) {
	t.Parallel()

	log := NewStagedLog(t.TempDir(), nil)
	res, err := log.Append(StageRaw, "2026-08-28", []domain.Item{testItem("", "orphan")})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if res.Added != 0 || res.Skipped != 0 {
		t.Fatalf("url-less item counted: %+v", res)
	}
	if log.Has(StageRaw, "2026-08-28") {
		t.Fatal("stage file created for url-less items")
	}
}

func TestAppendRendersBlock(t *testing.T) {
	t.Parallel()

	log := NewStagedLog(t.TempDir(), nil)
	item := testItem("https://a.example/post", "<b>Big</b> News")
	item.Set(domain.FieldSource, "tech-blog")
	item.Set(domain.FieldPublished, "2026-08-28T06:00:00Z")

	if _, err := log.Append(StageRaw, "2026-08-28", []domain.Item{item}); err != nil {
		t.Fatalf("append: %v", err)
	}

	content := log.Read(StageRaw, "2026-08-28")
	if !strings.Contains(content, "## [**Big** News](https://a.example/post)") {
		t.Fatalf("heading line missing: %q", content)
	}
	if !strings.Contains(content, "**Source:** tech-blog") {
		t.Fatalf("source field missing: %q", content)
	}
	if !strings.Contains(content, "**Published:** 2026-08-28T06:00:00Z") {
		t.Fatalf("published field missing: %q", content)
	}
}

func TestReadReturnsSentinelWhenAbsent(t *testing.T) {
	t.Parallel()

	log := NewStagedLog(t.TempDir(), nil)
	got := log.Read(StageCurated, "2026-08-28")
	if got != "No curated log found for 2026-08-28." {
		t.Fatalf("unexpected sentinel: %q", got)
	}
}

func TestItemCount(t *testing.T) {
	t.Parallel()

	log := NewStagedLog(t.TempDir(), nil)
	if got := log.ItemCount(StageRaw, "2026-08-28"); got != 0 {
		t.Fatalf("missing file count = %d", got)
	}

	items := []domain.Item{
		testItem("https://a.example/1", "1"),
		testItem("https://a.example/2", "2"),
		testItem("https://a.example/3", "3"),
	}
	if _, err := log.Append(StageRaw, "2026-08-28", items); err != nil {
		t.Fatalf("append: %v", err)
	}
	if got := log.ItemCount(StageRaw, "2026-08-28"); got != 3 {
		t.Fatalf("count = %d, want 3", got)
	}

	// A later append must keep the separator arithmetic exact.
	if _, err := log.Append(StageRaw, "2026-08-28", []domain.Item{testItem("https://a.example/4", "4")}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if got := log.ItemCount(StageRaw, "2026-08-28"); got != 4 {
		t.Fatalf("count after second append = %d, want 4", got)
	}
}

func TestWriteSummaryOverwrites(t *testing.T) {
	t.Parallel()

	log := NewStagedLog(t.TempDir(), nil)
	if err := log.WriteSummary("2026-08-28", "first digest"); err != nil {
		t.Fatalf("write summary: %v", err)
	}
	if err := log.WriteSummary("2026-08-28", "second digest"); err != nil {
		t.Fatalf("rewrite summary: %v", err)
	}
	if got := log.Read(StageSummary, "2026-08-28"); got != "second digest" {
		t.Fatalf("summary not replaced: %q", got)
	}
}

func TestPathForLayout(t *testing.T) {
	t.Parallel()

	log := NewStagedLog("root", nil)
	cases := map[Stage]string{
		StageRaw:      filepath.Join("root", "all", "2026-08-28.md"),
		StageCurated:  filepath.Join("root", "curated", "2026-08-28.md"),
		StageFiltered: filepath.Join("root", "curated", "2026-08-28.filtered.md"),
		StageSummary:  filepath.Join("root", "tldr", "2026-08-28.md"),
		StageDeepDive: filepath.Join("root", "deepdive", "2026-08-28.md"),
	}
	for stage, want := range cases {
		if got := log.PathFor(stage, "2026-08-28"); got != want {
			t.Fatalf("PathFor(%s) = %q, want %q", stage, got, want)
		}
	}
}

func TestAppendSurvivesManualEdit(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	log := NewStagedLog(dir, nil)
	if _, err := log.Append(StageRaw, "2026-08-28", []domain.Item{testItem("https://a.example/keep", "Keep")}); err != nil {
		t.Fatalf("append: %v", err)
	}

	// Hand-edited note appended outside the tool.
	path := log.PathFor(StageRaw, "2026-08-28")
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if err := os.WriteFile(path, append(raw, "\n\nnote: see https://b.example/manual\n"...), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	res, err := log.Append(StageRaw, "2026-08-28", []domain.Item{testItem("https://b.example/manual", "Manual")})
	if err != nil {
		t.Fatalf("append after edit: %v", err)
	}
	if res.Added != 0 || res.Skipped != 1 {
		t.Fatalf("manually recorded URL re-appended: %+v", res)
	}
}
