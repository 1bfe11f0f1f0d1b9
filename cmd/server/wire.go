package main

import (
	"context"

	"go.uber.org/zap"

	"github.com/scrapedgit/backend/config"
	"github.com/scrapedgit/backend/internal/domain"
	"github.com/scrapedgit/backend/internal/infrastructure/cache"
	"github.com/scrapedgit/backend/internal/infrastructure/marketplace"
	"github.com/scrapedgit/backend/internal/infrastructure/nlu"
	"github.com/scrapedgit/backend/internal/infrastructure/session"
	"github.com/scrapedgit/backend/internal/usecase"
)

// app is the fully wired dependency graph shared by every command
type app struct {
	shipping    *usecase.ShippingEstimator
	scoring     *usecase.ScoringEngine
	accumulator *usecase.Accumulator
	chat        *usecase.ChatService
	close       func() error
}

// newApp builds infrastructure and usecases from configuration
func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	kv, closeCache, err := newCache(ctx, cfg.Cache)
	if err != nil {
		return nil, err
	}

	shipping, err := newShipping(cfg.Shipping)
	if err != nil {
		_ = closeCache()
		return nil, err
	}

	scoring := usecase.NewScoringEngine(shipping, usecase.ScoringConfig{
		Weights:         cfg.Scoring.Weights,
		DefaultLocation: cfg.Search.DefaultLocation,
	})

	accumulator := usecase.NewAccumulator(
		newDelegate(cfg.NLU),
		usecase.NewFallbackExtractor(usecase.NewQueryPreprocessor(cfg.Server.Environment == "development")),
		usecase.AccumulatorConfig{
			DelegateTimeout: cfg.NLU.Timeout,
			HistoryWindow:   cfg.NLU.HistoryWindow,
		},
	)

	aggregator := marketplace.NewAggregator(marketplace.NewCatalogSources(), kv, marketplace.AggregatorConfig{
		MaxProductsPerSource: cfg.Search.MaxProductsPerSource,
		CacheTTL:             cfg.Cache.SearchTTL,
		SourceRequests:       cfg.RateLimit.ScraperPerSource,
		SourceWindow:         cfg.RateLimit.ScraperWindow,
		Timeout:              cfg.Search.Timeout,
	})

	chat := usecase.NewChatService(
		accumulator,
		scoring,
		aggregator,
		session.NewStore(kv, cfg.Cache.SessionTTL),
		usecase.ChatServiceConfig{
			DefaultLocation:      cfg.Search.DefaultLocation,
			MaxProductsPerSource: cfg.Search.MaxProductsPerSource,
			MaxStoredResults:     cfg.Search.MaxStoredResults,
		},
	)

	return &app{
		shipping:    shipping,
		scoring:     scoring,
		accumulator: accumulator,
		chat:        chat,
		close:       closeCache,
	}, nil
}

// newShipping builds the estimator, loading the optional distance table override
func newShipping(cfg config.ShippingConfig) (*usecase.ShippingEstimator, error) {
	shippingCfg := usecase.ShippingConfig{
		BaseCost:        cfg.BaseCost,
		PerKmRate:       cfg.PerKmRate,
		PerExtraKgRate:  cfg.PerExtraKgRate,
		DefaultDistance: cfg.DefaultDistance,
		RoundTo:         cfg.RoundTo,
	}
	if cfg.DistanceTablePath != "" {
		table, err := usecase.LoadDistanceTable(cfg.DistanceTablePath)
		if err != nil {
			return nil, err
		}
		shippingCfg.Distances = table
		zap.L().Info("loaded distance table", zap.String("path", cfg.DistanceTablePath), zap.Int("origins", len(table)))
	}
	return usecase.NewShippingEstimator(shippingCfg), nil
}

func newCache(ctx context.Context, cfg config.CacheConfig) (domain.CacheRepository, func() error, error) {
	if cfg.Type == "redis" {
		rc, err := cache.NewRedisCache(ctx, cache.RedisConfig{
			URL:    cfg.RedisURL,
			Prefix: cfg.Prefix,
		})
		if err != nil {
			return nil, nil, err
		}
		zap.L().Info("using redis cache", zap.String("prefix", cfg.Prefix))
		return rc, rc.Close, nil
	}

	zap.L().Info("using memory cache", zap.Int("max_entries", cfg.MaxEntries))
	mc := cache.NewMemoryCache(cache.WithMaxEntries(cfg.MaxEntries))
	return mc, func() error { return nil }, nil
}

func newDelegate(cfg config.NLUConfig) domain.NLUDelegate {
	if cfg.Provider != "anthropic" {
		zap.L().Info("nlu delegate disabled, using rule-based extraction")
		return nlu.Unavailable{}
	}

	zap.L().Info("nlu delegate enabled", zap.String("model", cfg.Model))
	return nlu.NewDelegate(nlu.NewClient(cfg.APIKey), nlu.DelegateConfig{
		Model:             cfg.Model,
		MaxTokens:         cfg.MaxTokens,
		Temperature:       cfg.Temperature,
		RequestsPerMinute: cfg.RequestsPerMinute,
		Burst:             cfg.Burst,
	})
}
