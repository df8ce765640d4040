package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"smartfeeds/internal/config"
	"smartfeeds/internal/dedup"
	"smartfeeds/internal/fetch"
	"smartfeeds/internal/infrastructure/llm"
	"smartfeeds/internal/infrastructure/scheduler"
	"smartfeeds/internal/infrastructure/telegram"
	"smartfeeds/internal/logging"
	"smartfeeds/internal/ports"
	"smartfeeds/internal/retry"
	"smartfeeds/internal/store"
	"smartfeeds/internal/usecase"
)

const seenURLsFile = "seen_urls.txt"

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg       config.Config
	logger    *slog.Logger
	index     *dedup.Index
	stagedLog *store.StagedLog
	pipeline  *usecase.Pipeline
	schedule  *usecase.Scheduler
}

// New builds a runnable application instance. The Gemini judge and the
// Telegram notifier are optional; without credentials the pipeline degrades
// to fetch-only.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	stagedLog := store.NewStagedLog(cfg.Storage.OutputDir, baseLogger.With("component", "store"))
	cursor := store.NewBatchCursor(stagedLog)
	index := dedup.NewIndex(
		filepath.Join(cfg.Storage.OutputDir, seenURLsFile),
		cfg.Pipeline.SeenURLCap,
		baseLogger.With("component", "dedup"),
	)

	registry := fetch.NewRegistry()
	httpClient := &http.Client{Timeout: 30 * time.Second}
	website := fetch.NewWebsiteFetcher(httpClient, baseLogger.With("component", "fetch.website"))
	registry.Register(website)
	registry.Register(fetch.NewRSSFetcher(baseLogger.With("component", "fetch.rss")))

	sources := fetch.FromConfig(cfg.Sources)
	source := fetch.NewSources(registry, sources, baseLogger.With("component", "source"))

	var curator ports.Curator
	var summarizer ports.Summarizer
	var deepDiver ports.DeepDiver
	if cfg.Gemini.APIKey != "" {
		interests := loadInterests(cfg.Storage.InterestsPath(), baseLogger)
		judge, err := llm.NewGeminiJudge(ctx, cfg.Gemini, interests, llm.SourceNotes(sources))
		if err != nil {
			return nil, err
		}
		curator, summarizer, deepDiver = judge, judge, judge
	} else {
		baseLogger.Warn("gemini api key not set, curation and summaries disabled")
	}

	var notifier ports.Notifier
	if cfg.Notifications.Telegram.BotToken != "" {
		n, err := telegram.NewNotifier(cfg.Notifications.Telegram)
		if err != nil {
			baseLogger.Error("telegram notifier disabled", "error", err)
		} else {
			notifier = n
		}
	}

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Source:     source,
		Index:      index,
		Log:        stagedLog,
		Cursor:     cursor,
		Curator:    curator,
		Summarizer: summarizer,
		DeepDiver:  deepDiver,
		Pages:      website,
		Notifier:   notifier,
		Retry:      retryPolicy(cfg, baseLogger),
		BatchSize:  cfg.Pipeline.BatchSize,
		Logger:     baseLogger,
	})

	cronSched := scheduler.NewCronScheduler(cfg.Scheduler.CronExpression, cfg.Scheduler.Location())
	schedule := usecase.NewScheduler(cronSched, pipeline, baseLogger)

	return &Application{
		cfg:       cfg,
		logger:    baseLogger,
		index:     index,
		stagedLog: stagedLog,
		pipeline:  pipeline,
		schedule:  schedule,
	}, nil
}

// Pipeline exposes the stage runner for CLI commands.
func (a *Application) Pipeline() *usecase.Pipeline { return a.pipeline }

// Now returns the current time in the scheduler timezone.
func (a *Application) Now() time.Time {
	return time.Now().In(a.cfg.Scheduler.Location())
}

// Run performs a single full pipeline execution for the current day.
func (a *Application) Run(ctx context.Context) error {
	return a.pipeline.ProcessDay(ctx, a.Now())
}

// RunScheduled starts cron-driven processing and blocks until ctx is done.
func (a *Application) RunScheduled(ctx context.Context) error {
	if err := a.schedule.Start(ctx); err != nil {
		return err
	}
	a.logger.Info("scheduler started",
		"cron", a.cfg.Scheduler.CronExpression, "timezone", a.cfg.Scheduler.Timezone)

	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return a.schedule.Stop(stopCtx)
}

// Backfill rebuilds the seen-URL index from the raw daily logs.
func (a *Application) Backfill() (int, error) {
	return usecase.BackfillIndex(a.cfg.Storage.OutputDir, a.index, a.logger)
}

// Status renders per-stage item counts for the given day.
func (a *Application) Status(day time.Time) string {
	date := store.DateKey(day)
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", date)
	for _, st := range []store.Stage{store.StageRaw, store.StageCurated, store.StageFiltered} {
		fmt.Fprintf(&b, "  %-10s %d items\n", st, a.stagedLog.ItemCount(st, date))
	}
	for _, st := range []store.Stage{store.StageSummary, store.StageDeepDive} {
		present := "missing"
		if a.stagedLog.Has(st, date) {
			present = "written"
		}
		fmt.Fprintf(&b, "  %-10s %s\n", st, present)
	}
	return b.String()
}

func retryPolicy(cfg config.Config, logger *slog.Logger) retry.Policy {
	return retry.Policy{
		MaxRetries:   cfg.Retry.MaxAttempts,
		InitialDelay: cfg.Retry.InitialDelay(),
		Logger:       logger.With("component", "retry"),
	}
}

func loadInterests(path string, logger *slog.Logger) string {
	raw, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("interests file not found, curating without preferences", "path", path)
		return ""
	}
	return string(raw)
}
