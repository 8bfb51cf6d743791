package sync

import (
	"context"
	"time"

	"github.com/samvad-hq/samvad-feed-connector/internal/domain"
	"github.com/samvad-hq/samvad-feed-connector/internal/logger"
	"github.com/samvad-hq/samvad-feed-connector/pkg/feed"
	"github.com/samvad-hq/samvad-feed-connector/pkg/parsers"
	"github.com/samvad-hq/samvad-feed-connector/pkg/providers"
)

// PageFetcher retrieves raw feed pages and probes endpoint health.
type PageFetcher interface {
	FetchPages(ctx context.Context, cfg providers.Provider, since time.Time) ([]string, error)
	Probe(ctx context.Context, cfg providers.Provider) error
}

// State is the externally owned sync position for one provider. A nil
// LastUpdated means the provider has never completed a sync.
type State struct {
	LastUpdated *time.Time
}

// Service runs one sync cycle for a provider: fetch all new pages, hand each
// to the provider's parser, and return the normalized items in retrieval
// order. The service never advances the watermark; that is the scheduler's
// job after a fully successful cycle.
type Service struct {
	fetcher PageFetcher
	parsers parsers.Registry
}

// NewService wires a sync service with the feed client and parser registry.
func NewService(fetcher PageFetcher, reg parsers.Registry) *Service {
	if fetcher == nil {
		fetcher = feed.NewClient(nil)
	}
	if reg == nil {
		reg = parsers.DefaultRegistry()
	}
	return &Service{fetcher: fetcher, parsers: reg}
}

// Sync retrieves and normalizes everything newer than the provider's
// watermark. Fetch-level failures propagate unchanged; a parser failure on
// any page aborts the whole cycle with a parse error carrying the offending
// raw page.
func (s *Service) Sync(ctx context.Context, cfg providers.Provider, state State) ([]domain.Item, error) {
	since := time.Unix(0, 0)
	if state.LastUpdated != nil {
		since = *state.LastUpdated
	}

	pages, err := s.fetcher.FetchPages(ctx, cfg, since)
	if err != nil {
		return nil, err
	}

	parser, err := s.parsers.ParserFor(cfg)
	if err != nil {
		return nil, feed.NewParseError(cfg.ID, nil, err)
	}

	var items []domain.Item
	for _, page := range pages {
		parsed, err := parser.Parse([]byte(page))
		if err != nil {
			return nil, feed.NewParseError(cfg.ID, []byte(page), err)
		}
		items = append(items, parsed...)
	}

	logger.DebugObj("provider sync cycle completed", "sync_result", map[string]any{
		"provider_id": cfg.ID,
		"pages":       len(pages),
		"items":       len(items),
	})
	return items, nil
}

// Test runs the connectivity probe for configuration-time validation.
func (s *Service) Test(ctx context.Context, cfg providers.Provider) error {
	return s.fetcher.Probe(ctx, cfg)
}
