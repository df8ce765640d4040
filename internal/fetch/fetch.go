package fetch

import (
	"context"
	"fmt"
	"log/slog"

	"smartfeeds/internal/config"
	"smartfeeds/internal/domain"
	"smartfeeds/internal/ports"
)

// Fetcher captures a single strategy for one source kind (rss, website).
type Fetcher interface {
	Name() string
	Fetch(ctx context.Context, src domain.Source) ([]domain.Item, error)
}

// Registry keeps a mapping from source kinds to their fetch strategies.
type Registry struct {
	fetchers map[string]Fetcher
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{fetchers: map[string]Fetcher{}}
}

// Register adds or replaces a fetch strategy.
func (r *Registry) Register(f Fetcher) {
	if r.fetchers == nil {
		r.fetchers = map[string]Fetcher{}
	}
	r.fetchers[f.Name()] = f
}

// Resolve returns a strategy by kind or an error if it is absent.
func (r *Registry) Resolve(kind string) (Fetcher, error) {
	if f, ok := r.fetchers[kind]; ok {
		return f, nil
	}
	return nil, fmt.Errorf("fetcher %s is not registered", kind)
}

// Sources implements ports.ItemSource over config-defined sources and the
// strategy registry.
type Sources struct {
	registry *Registry
	sources  []domain.Source
	logger   *slog.Logger
}

var _ ports.ItemSource = (*Sources)(nil)

// NewSources wires the registry with the enabled configured sources.
func NewSources(reg *Registry, sources []domain.Source, log *slog.Logger) *Sources {
	return &Sources{registry: reg, sources: sources, logger: log}
}

// Sources lists the configured sources in declaration order.
func (s *Sources) Sources() []domain.Source {
	out := make([]domain.Source, len(s.sources))
	copy(out, s.sources)
	return out
}

// Fetch resolves the source's strategy and executes it, filling the source
// name on items that lack one.
func (s *Sources) Fetch(ctx context.Context, src domain.Source) ([]domain.Item, error) {
	if s.registry == nil {
		return nil, fmt.Errorf("fetch registry is not configured")
	}

	strategy, err := s.registry.Resolve(src.Kind)
	if err != nil {
		return nil, fmt.Errorf("source %s: %w", src.Name, err)
	}

	s.debug("fetch source", "source", src.Name, "kind", src.Kind, "url", src.URL)

	items, err := strategy.Fetch(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("fetch source %s: %w", src.Name, err)
	}

	for i := range items {
		if items[i].Get(domain.FieldSource) == "" {
			items[i].Set(domain.FieldSource, src.Name)
		}
	}
	s.debug("source produced items", "source", src.Name, "count", len(items))
	return items, nil
}

// FromConfig converts the enabled configured sources to domain sources.
func FromConfig(cfg []config.SourceConfig) []domain.Source {
	sources := make([]domain.Source, 0, len(cfg))
	for _, src := range cfg {
		if !src.IsEnabled() {
			continue
		}
		name := src.Name
		if name == "" {
			name = src.URL
		}
		sources = append(sources, domain.Source{
			Name:         name,
			Kind:         src.Kind,
			URL:          src.URL,
			Instruction:  src.Instruction,
			Selector:     src.Selector,
			ItemSelector: src.ItemSelector,
			Limit:        src.Limit,
		})
	}
	return sources
}

func (s *Sources) debug(msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
