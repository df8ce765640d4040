package ports

import (
	"context"
	"time"

	"smartfeeds/internal/domain"
)

// ItemSource exposes the configured upstream sources and pulls items from
// one of them at a time, so the pipeline can isolate per-source failures.
type ItemSource interface {
	Sources() []domain.Source
	Fetch(ctx context.Context, src domain.Source) ([]domain.Item, error)
}

// PageFetcher loads one web page as readable text for the deep-dive stage.
type PageFetcher interface {
	FetchPage(ctx context.Context, url string) (string, error)
}

// Curator judges one rendered batch of raw items against the user's
// interests, splitting it into selected and filtered items.
type Curator interface {
	Curate(ctx context.Context, batch string) (domain.Curation, error)
}

// Summarizer turns the full curated log into the daily digest.
type Summarizer interface {
	Summarize(ctx context.Context, curated string) (string, error)
}

// DeepDiver expands the digest's stories into an analysis report, using the
// fetched source pages as evidence.
type DeepDiver interface {
	DeepDive(ctx context.Context, digest string, pages []domain.Page) (string, error)
}

// Notifier delivers the finished digest to an outbound channel.
type Notifier interface {
	PublishDigest(ctx context.Context, digest string) error
}

// Scheduler controls when pipeline runs execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
