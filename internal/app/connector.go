package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/samvad-hq/samvad-feed-connector/internal/config"
	"github.com/samvad-hq/samvad-feed-connector/internal/logger"
	"github.com/samvad-hq/samvad-feed-connector/internal/storage"
	connectorsync "github.com/samvad-hq/samvad-feed-connector/internal/sync"
	"github.com/samvad-hq/samvad-feed-connector/pkg/feed"
	"github.com/samvad-hq/samvad-feed-connector/pkg/parsers"
	"github.com/samvad-hq/samvad-feed-connector/pkg/providers"
	"github.com/samvad-hq/samvad-feed-connector/pkg/publishers"
)

// Connector represents the feed connector runtime. It manages the sync loop,
// coordinating between providers, the sync service, and publishers, and owns
// the watermark lifecycle: the watermark only advances after a provider's
// cycle fully succeeds.
type Connector struct {
	cfg          *config.Config
	providerReg  *providers.Registry
	fanout       *publishers.Fanout
	syncService  *connectorsync.Service
	syncInterval time.Duration
	log          logger.Logger
	store        storage.Store

	// unhealthy holds providers disabled after an auth or not-found
	// failure; they stay out of the loop until restart/reconfiguration.
	unhealthy map[string]feed.Kind
}

// NewConnector builds a connector runtime from config files.
func NewConnector(ctx context.Context, cfg *config.Config, log logger.Logger) (*Connector, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if log == nil {
		log = &logger.NopLogger{}
	}
	if ctx == nil {
		ctx = context.Background()
	}

	providerReg, err := providers.LoadRegistry(cfg.ProvidersFile)
	if err != nil {
		return nil, fmt.Errorf("load providers registry: %w", err)
	}
	providerList := providerReg.All()
	providerIDs := make([]string, 0, len(providerList))
	for _, p := range providerList {
		providerIDs = append(providerIDs, p.ID)
	}
	log.InfoObj("providers registry loaded", "providers_meta", map[string]any{
		"count": len(providerIDs),
		"ids":   providerIDs,
	})

	publisherReg, err := publishers.LoadRegistry(cfg.PublishersFile)
	if err != nil {
		return nil, fmt.Errorf("load publishers registry: %w", err)
	}

	enabledPublishers := publisherReg.Enabled()
	if len(enabledPublishers) == 0 {
		return nil, fmt.Errorf("no publishers configured")
	}

	pubRegistry := publishers.DefaultRegistry()
	pubClients, err := publishers.BuildAll(ctx, pubRegistry, enabledPublishers, log)
	if err != nil {
		return nil, fmt.Errorf("build publishers: %w", err)
	}
	fanout := publishers.NewFanout(pubClients)
	publisherSummaries := make([]map[string]string, 0, len(enabledPublishers))
	for _, pubCfg := range enabledPublishers {
		publisherSummaries = append(publisherSummaries, map[string]string{
			"id":   pubCfg.ID,
			"type": pubCfg.Type,
		})
	}
	log.InfoObj("publishers registry loaded", "publishers_meta", map[string]any{
		"count":      len(publisherSummaries),
		"publishers": publisherSummaries,
	})

	storeOpts := storage.Options{
		ItemTTL:         cfg.StorageTTL,
		CleanupInterval: cfg.StorageCleanupInterval,
	}
	store, err := storage.NewStore(cfg.StorageType, cfg.BBoltPath, storeOpts)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}
	log.InfoObj("storage initialized", "storage_config", map[string]any{
		"type":                     cfg.StorageType,
		"path":                     cfg.BBoltPath,
		"item_ttl_seconds":         int(cfg.StorageTTL.Seconds()),
		"cleanup_interval_seconds": int(cfg.StorageCleanupInterval.Seconds()),
	})

	syncService := connectorsync.NewService(feed.NewClient(nil), parsers.DefaultRegistry())

	return &Connector{
		cfg:          cfg,
		providerReg:  providerReg,
		fanout:       fanout,
		syncService:  syncService,
		syncInterval: cfg.SyncInterval,
		log:          log,
		store:        store,
		unhealthy:    make(map[string]feed.Kind),
	}, nil
}

// TestProvider runs the connectivity probe for a configured provider.
func (c *Connector) TestProvider(ctx context.Context, providerID string) error {
	cfg, ok := c.providerReg.ByID(providerID)
	if !ok {
		return fmt.Errorf("unknown provider %q", providerID)
	}
	return c.syncService.Test(ctx, cfg)
}

// Run starts the sync loop until the context is cancelled.
func (c *Connector) Run(ctx context.Context) error {
	if c == nil || c.syncService == nil {
		return fmt.Errorf("connector is not initialized")
	}
	defer c.closeStore()
	providerList := c.providerReg.All()
	if len(providerList) == 0 {
		c.log.WarnObj("no providers configured; connector idle", "providers_file", c.cfg.ProvidersFile)
		<-ctx.Done()
		return ctx.Err()
	}

	c.log.InfoObj("connector loop starting", "connector_state", map[string]any{
		"providers_count":  len(providerList),
		"publishers_count": c.fanout.Size(),
		"sync_interval":    c.syncInterval.String(),
	})

	if err := c.runOnce(ctx, providerList); err != nil {
		c.log.ErrorObj("initial sync failed", "error", err)
	}

	ticker := time.NewTicker(c.syncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.log.InfoObj("connector loop exiting", "reason", ctx.Err())
			return nil
		case <-ticker.C:
			if err := c.runOnce(ctx, providerList); err != nil {
				c.log.ErrorObj("scheduled sync failed", "error", err)
			}
		}
	}
}

// runOnce performs a single sync pass across all healthy providers.
func (c *Connector) runOnce(ctx context.Context, providerList []providers.Provider) error {
	start := time.Now()
	c.log.InfoObj("sync pass started", "sync_meta", map[string]any{
		"providers_count": len(providerList),
		"started_at":      start.UTC(),
	})

	errs := make([]error, 0, len(providerList))
	for _, p := range providerList {
		if err := ctx.Err(); err != nil {
			return errors.Join(errs...)
		}
		if err := c.syncProvider(ctx, p); err != nil {
			errs = append(errs, err)
			c.log.ErrorObj("provider sync failed", "provider_error", map[string]any{
				"provider_id": p.ID,
				"error_kind":  feed.KindOf(err).String(),
				"error":       err.Error(),
			})
		}
	}

	c.log.InfoObj("sync pass completed", "sync_meta", map[string]any{
		"providers_count": len(providerList),
		"elapsed_ms":      time.Since(start).Milliseconds(),
	})
	return errors.Join(errs...)
}

// syncProvider runs one provider cycle: sync, publish fresh items, then
// advance the watermark to the cycle start time.
func (c *Connector) syncProvider(ctx context.Context, p providers.Provider) error {
	if kind, disabled := c.unhealthy[p.ID]; disabled {
		c.log.DebugObj("skipping unhealthy provider", "provider_skip", map[string]any{
			"provider_id": p.ID,
			"error_kind":  kind.String(),
		})
		return nil
	}

	cycleStart := time.Now().UTC()

	var state connectorsync.State
	last, ok, err := c.store.LastSynced(p.ID)
	if err != nil {
		return fmt.Errorf("read watermark for provider %s: %w", p.ID, err)
	}
	if ok {
		state.LastUpdated = &last
	}

	items, err := c.syncService.Sync(ctx, p, state)
	if err != nil {
		switch feed.KindOf(err) {
		case feed.KindAuth, feed.KindNotFound:
			c.unhealthy[p.ID] = feed.KindOf(err)
			c.log.ErrorObj("provider disabled until reconfiguration", "provider_unhealthy", map[string]any{
				"provider_id": p.ID,
				"error_kind":  feed.KindOf(err).String(),
			})
		}
		return err
	}

	published := 0
	for _, item := range items {
		key := p.ID + "/" + item.ID
		seen, err := c.store.SeenItem(key)
		if err != nil {
			return fmt.Errorf("dedupe lookup for provider %s: %w", p.ID, err)
		}
		if seen {
			continue
		}

		evt := publishers.NewEvent(p.ID, p.Name, item)
		if _, err := c.fanout.Publish(ctx, evt); err != nil {
			return fmt.Errorf("publish item %s for provider %s: %w", item.ID, p.ID, err)
		}
		if err := c.store.MarkItem(key); err != nil {
			return fmt.Errorf("mark item %s for provider %s: %w", item.ID, p.ID, err)
		}
		published++
	}

	if err := c.store.SetLastSynced(p.ID, cycleStart); err != nil {
		return fmt.Errorf("advance watermark for provider %s: %w", p.ID, err)
	}

	c.log.InfoObj("provider sync completed", "provider_result", map[string]any{
		"provider_id":     p.ID,
		"items_collected": len(items),
		"items_published": published,
	})
	return nil
}

// closeStore safely closes the storage backend, logging any errors encountered.
func (c *Connector) closeStore() {
	if c == nil || c.store == nil {
		return
	}
	if err := c.store.Close(); err != nil {
		c.log.ErrorObj("storage close failed", "error", err)
	}
}
