package cmd

import (
	"context"

	"sjsage522/pricewatch/config"
	"sjsage522/pricewatch/internal/history"
	"sjsage522/pricewatch/internal/pricing"
	"sjsage522/pricewatch/internal/scraper"
	"sjsage522/pricewatch/internal/tracking"
	"sjsage522/pricewatch/logger"
	"sjsage522/pricewatch/pkg/errors"
	"sjsage522/pricewatch/services/archive"
	"sjsage522/pricewatch/services/cache"
	"sjsage522/pricewatch/services/lease"
	"sjsage522/pricewatch/services/publisher"
	"sjsage522/pricewatch/services/worker"
)

// app holds the services a command needs, built from the loaded config
type app struct {
	cfg        *config.Config
	cache      cache.CacheService
	store      *tracking.FileStore
	history    *history.Log
	normalizer *pricing.Normalizer
	scraper    *scraper.ProductScraper
	lease      lease.Lease
	publisher  publisher.Publisher
	archiver   *archive.Archiver
}

// newApp wires every service. Optional backends that are configured but
// unreachable are logged and disabled, except a memcache lease which is required.
func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	log := logger.ForCLI()
	a := &app{
		cfg:     cfg,
		store:   tracking.NewFileStore(cfg.ProductsFile),
		history: history.NewLog(cfg.HistoryFile, cfg.Location),
	}

	var memcacheSvc *cache.MemcacheService
	if cfg.MemcacheAddr != "" {
		memcacheSvc = cache.NewMemcacheService(cfg.MemcacheAddr)
		if err := memcacheSvc.Ping(); err != nil {
			if cfg.LeaseBackend == config.LeaseBackendMemcache {
				return nil, errors.NewCache("memcache lease backend unreachable at "+cfg.MemcacheAddr, err)
			}
			log.Warn().Err(err).Str("addr", cfg.MemcacheAddr).Msg("Memcache unreachable, using in-process cache")
			memcacheSvc = nil
		}
	}
	if memcacheSvc != nil {
		a.cache = memcacheSvc
	} else {
		a.cache = cache.NewMemoryService()
	}

	switch cfg.LeaseBackend {
	case config.LeaseBackendMemcache:
		a.lease = lease.NewCacheLease(a.cache, lease.DefaultKey, cfg.LockTTL)
	default:
		a.lease = lease.NewFileLease(cfg.LockFile, cfg.LockTTL)
	}

	normalizer, err := pricing.NewNormalizer(cfg.ExchangeRate, pricing.DefaultCurrency().WithPrefix(cfg.TargetPrefix))
	if err != nil {
		return nil, err
	}
	a.normalizer = normalizer

	fetcher := scraper.NewFetcher(cfg.RequestTimeout, scraper.WithRateLimitCache(a.cache, cfg.RateLimitBlock))
	a.scraper = scraper.New(fetcher, scraper.NewExtractor(scraper.DefaultSelectors()), normalizer)

	if cfg.RedisAddr != "" {
		p := publisher.NewRedisPublisher(ctx, cfg.RedisAddr, cfg.RedisDB, cfg.RedisStream, cfg.RedisStreamCount, cfg.RedisStreamMaxLength)
		if err := p.Ping(); err != nil {
			log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("Redis unreachable, price events disabled")
			p.Close()
		} else {
			a.publisher = p
			log.Info().Str("addr", cfg.RedisAddr).Int("db", cfg.RedisDB).Str("stream", cfg.RedisStream).Msg("Publishing price events")
		}
	}

	var target archive.Target
	switch {
	case cfg.ArchiveBucket != "":
		target, err = archive.NewGCSTarget(ctx, cfg.ArchiveBucket, cfg.ArchiveCredentialsJSON)
	case cfg.ArchiveDir != "":
		target, err = archive.NewLocalTarget(cfg.ArchiveDir)
	}
	if err != nil {
		a.Close()
		return nil, err
	}
	if target != nil {
		a.archiver = archive.New(target, cfg.HistoryFile, cfg.ArchiveObject)
	}

	return a, nil
}

// worker builds the tracking worker with every configured collaborator
func (a *app) worker() *worker.Worker {
	opts := []worker.Option{
		worker.WithRequestDelay(a.cfg.RequestDelay),
		worker.WithCrawlInterval(a.cfg.CrawlInterval),
		worker.WithLease(a.lease, lease.DefaultAcquireOptions()),
	}
	if a.publisher != nil {
		opts = append(opts, worker.WithPublisher(a.publisher))
	}
	if a.archiver != nil {
		opts = append(opts, worker.WithArchiver(a.archiver))
	}
	return worker.NewWorker(a.store, a.scraper, a.history, opts...)
}

// withLease runs fn while holding the tracking lease
func (a *app) withLease(ctx context.Context, fn func() error) error {
	if err := lease.Acquire(ctx, a.lease, lease.DefaultAcquireOptions()); err != nil {
		return err
	}
	defer func() {
		if err := a.lease.Release(); err != nil {
			logger.LogError("lease", err, "release")
		}
	}()
	return fn()
}

// Close releases the connections held by optional backends
func (a *app) Close() {
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			logger.LogError("publisher", err, "close")
		}
	}
	if a.archiver != nil {
		if err := a.archiver.Close(); err != nil {
			logger.LogError("archive", err, "close")
		}
	}
}
