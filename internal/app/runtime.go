package app

import (
	"context"
	"fmt"
	"io"

	"github.com/samvad-hq/news-ingestor/internal/config"
	"github.com/samvad-hq/news-ingestor/internal/crawler"
	"github.com/samvad-hq/news-ingestor/internal/logger"
	"github.com/samvad-hq/news-ingestor/internal/scheduler"
	"github.com/samvad-hq/news-ingestor/internal/storage"
	"github.com/samvad-hq/news-ingestor/pkg/providers"
	"github.com/samvad-hq/news-ingestor/pkg/publishers"
)

// New builds an Ingestor from config files: providers, fetchers, storage and
// the optional event publishers.
func New(ctx context.Context, cfg *config.Config, log logger.Logger) (*Ingestor, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	log = logger.Ensure(log)
	if ctx == nil {
		ctx = context.Background()
	}

	providerReg, err := providers.LoadRegistry(cfg.ProvidersFile, providers.Defaults{
		MaxItems:       cfg.MaxItemsPerSource,
		TimeoutSeconds: int(cfg.FetchTimeoutSeconds),
		UserAgent:      cfg.UserAgent,
	})
	if err != nil {
		return nil, fmt.Errorf("load providers registry: %w", err)
	}
	enabled := providerReg.Enabled()
	providerIDs := make([]string, 0, len(enabled))
	for _, p := range enabled {
		providerIDs = append(providerIDs, p.ID)
	}
	log.InfoObj("providers registry loaded", "providers_meta", map[string]any{
		"count": len(providerIDs),
		"ids":   providerIDs,
	})

	fetchers := providers.DefaultFetcherRegistry(nil, providers.Options{
		UserAgent:           cfg.UserAgent,
		FetchTimeout:        cfg.FetchTimeout,
		ArticleTimeout:      cfg.ArticleTimeout,
		ImageLookupInterval: cfg.ImageLookupInterval,
		Logger:              log,
	})
	sources, err := providers.BindAll(fetchers, enabled)
	if err != nil {
		return nil, fmt.Errorf("bind providers: %w", err)
	}

	fanout, err := buildFanout(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	store, err := openStore(cfg, log)
	if err != nil {
		_ = fanout.Close()
		return nil, err
	}

	svc, err := crawler.NewService(sources, store, crawler.Options{
		Concurrency:      cfg.CrawlConcurrency,
		StoreTimeout:     cfg.StoreTimeout,
		SummaryMaxLength: cfg.SummaryMaxLength,
		Publisher:        fanout,
		Logger:           log,
	})
	if err != nil {
		_ = store.Close()
		_ = fanout.Close()
		return nil, fmt.Errorf("init crawler: %w", err)
	}

	return NewIngestor(svc, store, IngestorOptions{
		CrawlingEnabled: cfg.CrawlEnabled,
		Location:        cfg.Location(),
		Logger:          log,
		Closers:         []io.Closer{fanout},
	})
}

// buildFanout loads publishers when a publishers file is configured. Without
// one, articles are only stored.
func buildFanout(ctx context.Context, cfg *config.Config, log logger.Logger) (*publishers.Fanout, error) {
	if cfg.PublishersFile == "" {
		log.InfoObj("no publishers file configured; events disabled", "publishers_meta", map[string]any{"count": 0})
		return publishers.NewFanout(nil), nil
	}

	publisherReg, err := publishers.LoadRegistry(cfg.PublishersFile)
	if err != nil {
		return nil, fmt.Errorf("load publishers registry: %w", err)
	}
	enabled := publisherReg.Enabled()
	pubClients, err := publishers.BuildAll(ctx, publishers.DefaultRegistry(), enabled, log)
	if err != nil {
		return nil, fmt.Errorf("build publishers: %w", err)
	}

	summaries := make([]map[string]string, 0, len(enabled))
	for _, pubCfg := range enabled {
		summaries = append(summaries, map[string]string{
			"id":   pubCfg.ID,
			"type": pubCfg.Type,
		})
	}
	log.InfoObj("publishers registry loaded", "publishers_meta", map[string]any{
		"count":      len(summaries),
		"publishers": summaries,
	})
	return publishers.NewFanout(pubClients), nil
}

// openStore opens the configured backend, fronted by redis when an address is set.
func openStore(cfg *config.Config, log logger.Logger) (storage.Store, error) {
	store, err := storage.NewStore(storage.Options{
		Type:        cfg.StorageType,
		BBoltPath:   cfg.BBoltPath,
		PostgresDSN: cfg.PostgresDSN,
	})
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	meta := map[string]any{"type": cfg.StorageType, "path": cfg.BBoltPath, "redis": cfg.RedisAddr != ""}
	if cfg.RedisAddr != "" {
		rdb := storage.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		store = storage.NewCached(store, rdb, cfg.CacheTTL, log)
		meta["cache_ttl_hours"] = cfg.CacheTTLHours
	}
	log.InfoObj("storage initialized", "storage_config", meta)
	return store, nil
}

// Run schedules the daily crawl, cleanup and heartbeat until ctx is cancelled,
// then closes the ingestor.
func (i *Ingestor) Run(ctx context.Context, cfg *config.Config) error {
	defer func() {
		if err := i.Close(); err != nil {
			i.log.ErrorObj("ingestor close failed", "error", err.Error())
		}
	}()

	sched, err := scheduler.New(i, scheduler.Options{
		CrawlSpec:     cfg.CrawlCron,
		CleanupSpec:   cfg.CleanupCron,
		HeartbeatSpec: cfg.HeartbeatSpec,
		Location:      cfg.Location(),
		RetentionDays: cfg.RetentionDays,
		Logger:        i.log,
	})
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	i.log.InfoObj("ingestor loop starting", "ingestor_state", map[string]any{
		"sources_count":    len(i.crawl.Sources()),
		"crawling_enabled": i.CrawlingEnabled(),
	})
	return sched.Run(ctx)
}
