package store

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"smartfeeds/internal/domain"
)

// Stage names one phase of the content pipeline. raw, curated, and filtered
// are append-only logs; summary and deepdive are derived artifacts that are
// overwritten on each save.
type Stage string

const (
	StageRaw      Stage = "raw"
	StageCurated  Stage = "curated"
	StageFiltered Stage = "filtered"
	StageSummary  Stage = "summary"
	StageDeepDive Stage = "deepdive"
)

// BlockSeparator sits between item blocks inside a stage file. ItemCount and
// the batch cursor split on the same token, so it must never change once
// logs exist.
const BlockSeparator = "\n\n---\n\n"

// DateKey renders the calendar date used in stage file names.
func DateKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// AppendResult reports how an append call classified its input.
type AppendResult struct {
	Added   int
	Skipped int
}

// StagedLog is the durable, human-readable per-day record store. Every
// append is a self-contained read-check-write unit: interrupting the process
// between appends leaves the log valid, and reprocessing is safe because
// duplicates are detected from the file content itself.
type StagedLog struct {
	root   string
	logger *slog.Logger
}

// NewStagedLog roots all stage files under dir.
func NewStagedLog(dir string, logger *slog.Logger) *StagedLog {
	return &StagedLog{root: dir, logger: logger}
}

// PathFor resolves the file backing one stage and day.
func (l *StagedLog) PathFor(stage Stage, date string) string {
	switch stage {
	case StageRaw:
		return filepath.Join(l.root, "all", date+".md")
	case StageCurated:
		return filepath.Join(l.root, "curated", date+".md")
	case StageFiltered:
		return filepath.Join(l.root, "curated", date+".filtered.md")
	case StageSummary:
		return filepath.Join(l.root, "tldr", date+".md")
	case StageDeepDive:
		return filepath.Join(l.root, "deepdive", date+".md")
	}
	return filepath.Join(l.root, string(stage), date+".md")
}

// Append renders items as markdown blocks and appends the ones whose URL is
// not already recorded in the stage file. Items without a URL are skipped
// silently: they cannot be deduplicated or referenced. URL comparison
// strips a single trailing slash on both sides.
func (l *StagedLog) Append(stage Stage, date string, items []domain.Item) (AppendResult, error) {
	var res AppendResult
	if len(items) == 0 {
		return res, nil
	}

	path := l.PathFor(stage, date)
	existing := ""
	if raw, err := os.ReadFile(path); err == nil {
		existing = string(raw)
	}

	recorded := make(map[string]struct{})
	for u := range extractURLs(existing) {
		recorded[strings.TrimSuffix(u, "/")] = struct{}{}
	}

	var blocks []string
	for _, item := range items {
		if item.URL == "" {
			continue
		}
		key := item.NormalizedURL()
		if _, dup := recorded[key]; dup {
			res.Skipped++
			continue
		}
		recorded[key] = struct{}{}
		blocks = append(blocks, renderBlock(item))
		res.Added++
	}

	if len(blocks) == 0 {
		return res, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return res, fmt.Errorf("create stage dir: %w", err)
	}

	chunk := strings.Join(blocks, BlockSeparator)
	if existing != "" {
		chunk = BlockSeparator + chunk
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return res, fmt.Errorf("open stage file: %w", err)
	}
	if _, err := f.WriteString(chunk); err != nil {
		_ = f.Close()
		return res, fmt.Errorf("append stage file: %w", err)
	}
	if err := f.Close(); err != nil {
		return res, fmt.Errorf("close stage file: %w", err)
	}

	if l.logger != nil {
		l.logger.Debug("stage append", "stage", stage, "date", date, "added", res.Added, "skipped", res.Skipped)
	}
	return res, nil
}

// Read returns the full stage content for the day, or a "not found" sentinel
// when the file does not exist. Absence is never an error.
func (l *StagedLog) Read(stage Stage, date string) string {
	raw, err := os.ReadFile(l.PathFor(stage, date))
	if err != nil {
		return fmt.Sprintf("No %s log found for %s.", stage, date)
	}
	return string(raw)
}

// Has reports whether the stage file exists for the day.
func (l *StagedLog) Has(stage Stage, date string) bool {
	_, err := os.Stat(l.PathFor(stage, date))
	return err == nil
}

// WriteSummary overwrites the day's digest. The summary stage is a derived
// artifact, not a log, so each save replaces the previous one.
func (l *StagedLog) WriteSummary(date, content string) error {
	return l.overwrite(StageSummary, date, content)
}

// WriteReport overwrites the day's deep-dive report.
func (l *StagedLog) WriteReport(date, content string) error {
	return l.overwrite(StageDeepDive, date, content)
}

func (l *StagedLog) overwrite(stage Stage, date, content string) error {
	path := l.PathFor(stage, date)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create stage dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", stage, err)
	}
	return nil
}

// ItemCount counts the blocks in a stage file by scanning for separators.
func (l *StagedLog) ItemCount(stage Stage, date string) int {
	raw, err := os.ReadFile(l.PathFor(stage, date))
	if err != nil || len(strings.TrimSpace(string(raw))) == 0 {
		return 0
	}
	return strings.Count(string(raw), BlockSeparator) + 1
}

// renderBlock formats one item: a heading line linking the sanitized title
// to the raw URL, then one bolded label line per remaining field in
// lexicographic key order. The content field is HTML-normalized first;
// empty fields are omitted.
func renderBlock(item domain.Item) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## [%s](%s)", sanitizeTitle(item.Get(domain.FieldTitle)), item.URL)

	keys := make([]string, 0, len(item.Fields))
	for k := range item.Fields {
		if k == domain.FieldTitle {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		v := item.Fields[k]
		if k == domain.FieldContent {
			v = normalizeHTML(v)
		}
		if strings.TrimSpace(v) == "" {
			continue
		}
		fmt.Fprintf(&b, "\n**%s:** %s", humanizeField(k), v)
	}
	return b.String()
}
