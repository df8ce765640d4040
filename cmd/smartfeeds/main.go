package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"smartfeeds/internal/app"
	"smartfeeds/internal/config"
	"smartfeeds/internal/logging"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var dateFlag string

	root := &cobra.Command{
		Use:           "smartfeeds",
		Short:         "Personal feed curator: fetch, curate and digest daily reading",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&dateFlag, "date", "", "day to process, YYYY-MM-DD (default today)")

	build := func(ctx context.Context) (*app.Application, error) {
		cfg := config.Load()
		logger := logging.New(cfg.Logging.Level)
		return app.New(ctx, cfg, logger)
	}

	day := func(a *app.Application) (time.Time, error) {
		if dateFlag == "" {
			return a.Now(), nil
		}
		t, err := time.Parse("2006-01-02", dateFlag)
		if err != nil {
			return time.Time{}, fmt.Errorf("bad --date %q, expected YYYY-MM-DD: %w", dateFlag, err)
		}
		return t, nil
	}

	stage := func(name, short string, run func(ctx context.Context, a *app.Application, d time.Time) error) *cobra.Command {
		return &cobra.Command{
			Use:   name,
			Short: short,
			RunE: func(cmd *cobra.Command, _ []string) error {
				ctx, stop := signalContext(cmd.Context())
				defer stop()

				a, err := build(ctx)
				if err != nil {
					return err
				}
				d, err := day(a)
				if err != nil {
					return err
				}
				return run(ctx, a, d)
			},
		}
	}

	root.AddCommand(
		stage("fetch", "Pull all sources and append new items to the raw log",
			func(ctx context.Context, a *app.Application, d time.Time) error {
				return a.Pipeline().Fetch(ctx, d)
			}),
		stage("curate", "Judge the raw log in batches against your interests",
			func(ctx context.Context, a *app.Application, d time.Time) error {
				return a.Pipeline().Curate(ctx, d)
			}),
		stage("summarize", "Write the daily digest from the curated log",
			func(ctx context.Context, a *app.Application, d time.Time) error {
				return a.Pipeline().Summarize(ctx, d)
			}),
		stage("deepdive", "Expand the digest into an analytical report",
			func(ctx context.Context, a *app.Application, d time.Time) error {
				return a.Pipeline().DeepDive(ctx, d)
			}),
		stage("run", "Run fetch, curate and summarize in order",
			func(ctx context.Context, a *app.Application, d time.Time) error {
				return a.Pipeline().ProcessDay(ctx, d)
			}),
	)

	root.AddCommand(&cobra.Command{
		Use:   "schedule",
		Short: "Run the pipeline on the configured cron schedule until interrupted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signalContext(cmd.Context())
			defer stop()

			a, err := build(ctx)
			if err != nil {
				return err
			}
			return a.RunScheduled(ctx)
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "backfill",
		Short: "Rebuild the seen-URL index from existing raw logs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signalContext(cmd.Context())
			defer stop()

			a, err := build(ctx)
			if err != nil {
				return err
			}
			added, err := a.Backfill()
			if err != nil {
				return err
			}
			fmt.Printf("backfilled %d fingerprints\n", added)
			return nil
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show item counts for a day across all stages",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := build(cmd.Context())
			if err != nil {
				return err
			}
			d, err := day(a)
			if err != nil {
				return err
			}
			fmt.Print(a.Status(d))
			return nil
		},
	})

	return root
}

func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
