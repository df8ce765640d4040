package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"smartfeeds/internal/dedup"
	"smartfeeds/internal/domain"
	"smartfeeds/internal/ports"
	"smartfeeds/internal/retry"
	"smartfeeds/internal/store"
)

// PipelineDeps carries the collaborators the pipeline runs against. Curator,
// Summarizer, DeepDiver, Pages and Notifier may be nil; the corresponding
// stage is skipped with a log line.
type PipelineDeps struct {
	Source     ports.ItemSource
	Index      *dedup.Index
	Log        *store.StagedLog
	Cursor     *store.BatchCursor
	Curator    ports.Curator
	Summarizer ports.Summarizer
	DeepDiver  ports.DeepDiver
	Pages      ports.PageFetcher
	Notifier   ports.Notifier
	Retry      retry.Policy
	BatchSize  int
	Logger     *slog.Logger
}

// Pipeline runs the daily stages over the staged logs. Each unit of work is
// isolated: one failing source or batch does not abort the rest of the run.
type Pipeline struct {
	deps PipelineDeps
	log  *slog.Logger
}

func NewPipeline(deps PipelineDeps) *Pipeline {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if deps.BatchSize <= 0 {
		deps.BatchSize = store.DefaultBatchSize
	}
	return &Pipeline{deps: deps, log: logger.With("component", "pipeline")}
}

// Fetch pulls every configured source, drops already-seen URLs and appends
// the rest to the raw log for the day. It fails only when every source
// failed.
func (p *Pipeline) Fetch(ctx context.Context, day time.Time) error {
	date := store.DateKey(day)
	sources := p.deps.Source.Sources()
	if len(sources) == 0 {
		p.log.Warn("no sources configured")
		return nil
	}

	var failed int
	for _, src := range sources {
		items, err := retry.Do(ctx, p.deps.Retry, func(ctx context.Context) ([]domain.Item, error) {
			return p.deps.Source.Fetch(ctx, src)
		})
		if err != nil {
			failed++
			p.log.Error("fetch source", "source", src.Name, "error", err)
			continue
		}

		fresh := p.deps.Index.FilterNew(items)
		res, err := p.deps.Log.Append(store.StageRaw, date, fresh)
		if err != nil {
			failed++
			p.log.Error("append raw items", "source", src.Name, "error", err)
			continue
		}
		p.log.Info("fetched source",
			"source", src.Name, "items", len(items), "added", res.Added, "skipped", res.Skipped)
	}

	if failed == len(sources) {
		return fmt.Errorf("all %d sources failed", failed)
	}
	return nil
}

// Curate walks the raw log in batches, asks the curator to pick relevant
// items and appends the verdicts to the curated and filtered logs.
func (p *Pipeline) Curate(ctx context.Context, day time.Time) error {
	if p.deps.Curator == nil {
		p.log.Warn("curator not configured, skipping curation")
		return nil
	}

	date := store.DateKey(day)
	total := p.deps.Cursor.TotalCount(date)
	if total == 0 {
		p.log.Info("no raw items to curate", "date", date)
		return nil
	}

	var failed, batches int
	for offset := 0; offset < total; offset += p.deps.BatchSize {
		batch := p.deps.Cursor.ReadBatch(date, offset, p.deps.BatchSize)
		if strings.TrimSpace(batch) == "" {
			continue
		}
		batches++

		verdict, err := retry.Do(ctx, p.deps.Retry, func(ctx context.Context) (domain.Curation, error) {
			return p.deps.Curator.Curate(ctx, batch)
		})
		if err != nil {
			failed++
			p.log.Error("curate batch", "offset", offset, "error", err)
			continue
		}

		if _, err := p.deps.Log.Append(store.StageCurated, date, verdict.Selected); err != nil {
			failed++
			p.log.Error("append curated items", "offset", offset, "error", err)
			continue
		}
		if _, err := p.deps.Log.Append(store.StageFiltered, date, verdict.Filtered); err != nil {
			p.log.Error("append filtered items", "offset", offset, "error", err)
		}
		p.log.Info("curated batch",
			"offset", offset, "selected", len(verdict.Selected), "filtered", len(verdict.Filtered))
	}

	if batches > 0 && failed >= batches {
		return fmt.Errorf("all %d curation batches failed", failed)
	}
	return nil
}

// Summarize turns the day's curated log into a digest, writes it to the
// summary log and optionally publishes it.
func (p *Pipeline) Summarize(ctx context.Context, day time.Time) error {
	if p.deps.Summarizer == nil {
		p.log.Warn("summarizer not configured, skipping summary")
		return nil
	}

	date := store.DateKey(day)
	curated := p.deps.Log.Read(store.StageCurated, date)

	digest, err := retry.Do(ctx, p.deps.Retry, func(ctx context.Context) (string, error) {
		return p.deps.Summarizer.Summarize(ctx, curated)
	})
	if err != nil {
		return fmt.Errorf("summarize curated items: %w", err)
	}

	if err := p.deps.Log.WriteSummary(date, digest); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	p.log.Info("summary written", "date", date)

	if p.deps.Notifier != nil {
		if err := p.deps.Notifier.PublishDigest(ctx, digest); err != nil {
			p.log.Error("publish digest", "error", err)
		}
	}
	return nil
}

// DeepDive expands the day's digest by fetching the pages it links to and
// writing an analytical report.
func (p *Pipeline) DeepDive(ctx context.Context, day time.Time) error {
	if p.deps.DeepDiver == nil {
		p.log.Warn("deep diver not configured, skipping deep dive")
		return nil
	}

	date := store.DateKey(day)
	if !p.deps.Log.Has(store.StageSummary, date) {
		return fmt.Errorf("no summary for %s, run summarize first", date)
	}
	digest := p.deps.Log.Read(store.StageSummary, date)

	var pages []domain.Page
	if p.deps.Pages != nil {
		for _, url := range store.ExtractURLs(digest) {
			content, err := p.deps.Pages.FetchPage(ctx, url)
			if err != nil {
				p.log.Warn("fetch page for deep dive", "url", url, "error", err)
				continue
			}
			pages = append(pages, domain.Page{URL: url, Content: content})
		}
	}

	report, err := retry.Do(ctx, p.deps.Retry, func(ctx context.Context) (string, error) {
		return p.deps.DeepDiver.DeepDive(ctx, digest, pages)
	})
	if err != nil {
		return fmt.Errorf("deep dive: %w", err)
	}

	if err := p.deps.Log.WriteReport(date, report); err != nil {
		return fmt.Errorf("write deep dive report: %w", err)
	}
	p.log.Info("deep dive written", "date", date, "pages", len(pages))
	return nil
}

// ProcessDay runs fetch, curate and summarize in order, continuing past
// stage failures so a broken source never blocks the digest.
func (p *Pipeline) ProcessDay(ctx context.Context, day time.Time) error {
	var errs []error
	if err := p.Fetch(ctx, day); err != nil {
		p.log.Error("fetch stage", "error", err)
		errs = append(errs, err)
	}
	if err := p.Curate(ctx, day); err != nil {
		p.log.Error("curate stage", "error", err)
		errs = append(errs, err)
	}
	if err := p.Summarize(ctx, day); err != nil {
		p.log.Error("summarize stage", "error", err)
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("%d pipeline stages failed: %w", len(errs), errs[0])
	}
	return nil
}
