package marketplace

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/scrapedgit/backend/internal/domain"
)

const (
	defaultCacheTTL     = time.Hour
	defaultSourceLimit  = 5
	defaultSourceWindow = 30 * time.Second
	defaultTimeout      = 15 * time.Second
)

// AggregatorConfig holds configuration for the marketplace aggregator
type AggregatorConfig struct {
	MaxProductsPerSource int
	CacheTTL             time.Duration
	// SourceRequests calls are allowed per SourceWindow for each marketplace
	SourceRequests int
	SourceWindow   time.Duration
	Timeout        time.Duration
}

// Aggregator searches every marketplace concurrently and merges the listings
type Aggregator struct {
	sources     []domain.ProductSource
	cache       domain.CacheRepository
	limiters    map[string]*rate.Limiter
	maxProducts int
	cacheTTL    time.Duration
	timeout     time.Duration
}

// NewAggregator creates an aggregator. cache may be nil to disable result caching.
func NewAggregator(sources []domain.ProductSource, cache domain.CacheRepository, cfg AggregatorConfig) *Aggregator {
	if cfg.MaxProductsPerSource <= 0 {
		cfg.MaxProductsPerSource = defaultProductsPerSource
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = defaultCacheTTL
	}
	if cfg.SourceRequests <= 0 {
		cfg.SourceRequests = defaultSourceLimit
	}
	if cfg.SourceWindow <= 0 {
		cfg.SourceWindow = defaultSourceWindow
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	limiters := make(map[string]*rate.Limiter, len(sources))
	for _, src := range sources {
		every := cfg.SourceWindow / time.Duration(cfg.SourceRequests)
		limiters[src.Name()] = rate.NewLimiter(rate.Every(every), cfg.SourceRequests)
	}

	return &Aggregator{
		sources:     sources,
		cache:       cache,
		limiters:    limiters,
		maxProducts: cfg.MaxProductsPerSource,
		cacheTTL:    cfg.CacheTTL,
		timeout:     cfg.Timeout,
	}
}

// Search queries all sources and returns the filtered, merged listings.
// A failing source contributes no products; it never fails the whole search.
func (a *Aggregator) Search(ctx context.Context, query domain.SearchQuery) ([]domain.RawProduct, error) {
	if strings.TrimSpace(query.Keyword) == "" {
		return nil, eris.Wrap(domain.ErrKeywordMissing, "marketplace search")
	}
	if query.MaxProducts <= 0 {
		query.MaxProducts = a.maxProducts
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	results := make([][]domain.RawProduct, len(a.sources))
	g, gctx := errgroup.WithContext(ctx)
	for i, src := range a.sources {
		g.Go(func() error {
			products, err := a.searchSource(gctx, src, query)
			if err != nil {
				zap.L().Warn("marketplace source failed",
					zap.String("source", src.Name()),
					zap.String("keyword", query.Keyword),
					zap.Error(err),
				)
				return nil
			}
			results[i] = products
			return nil
		})
	}
	_ = g.Wait()

	var merged []domain.RawProduct
	counts := make(map[string]int, len(a.sources))
	for _, products := range results {
		for _, p := range products {
			if matchesFilters(p, query) {
				merged = append(merged, p)
				counts[p.Source]++
			}
		}
	}

	if brand := targetBrand(query); brand != "" {
		sort.SliceStable(merged, func(i, j int) bool {
			return strings.EqualFold(merged[i].Brand, brand) && !strings.EqualFold(merged[j].Brand, brand)
		})
	}

	zap.L().Info("marketplace search finished",
		zap.String("keyword", query.Keyword),
		zap.Int("total", len(merged)),
		zap.Any("per_source", counts),
	)

	if merged == nil {
		merged = []domain.RawProduct{}
	}
	return merged, nil
}

// searchSource serves one source from cache, or calls it once the source's limiter allows
func (a *Aggregator) searchSource(ctx context.Context, src domain.ProductSource, query domain.SearchQuery) ([]domain.RawProduct, error) {
	key := SearchCacheKey(src.Name(), query.Keyword)

	if cached, ok := a.fromCache(ctx, key); ok {
		return cached, nil
	}

	if limiter := a.limiters[src.Name()]; limiter != nil {
		if err := limiter.Wait(ctx); err != nil {
			return nil, eris.Wrapf(domain.ErrRateLimited, "source %s: %v", src.Name(), err)
		}
	}

	products, err := src.Search(ctx, query)
	if err != nil {
		return nil, eris.Wrapf(domain.ErrSourceFailure, "source %s: %v", src.Name(), err)
	}

	a.toCache(ctx, key, products)
	return products, nil
}

func (a *Aggregator) fromCache(ctx context.Context, key string) ([]domain.RawProduct, bool) {
	if a.cache == nil {
		return nil, false
	}

	data, err := a.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, domain.ErrCacheMiss) {
			zap.L().Warn("search cache read failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}

	var products []domain.RawProduct
	if err := json.Unmarshal(data, &products); err != nil {
		zap.L().Warn("search cache entry corrupt", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return products, true
}

func (a *Aggregator) toCache(ctx context.Context, key string, products []domain.RawProduct) {
	if a.cache == nil {
		return
	}

	data, err := json.Marshal(products)
	if err != nil {
		return
	}
	if err := a.cache.Set(ctx, key, data, a.cacheTTL); err != nil {
		zap.L().Warn("search cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// SearchCacheKey is the cache key for one source's listings of a keyword
func SearchCacheKey(source, keyword string) string {
	return "search:" + source + ":" + strings.Join(strings.Fields(strings.ToLower(keyword)), "_")
}

func matchesFilters(p domain.RawProduct, q domain.SearchQuery) bool {
	if q.MinPrice != nil && *q.MinPrice > 0 && p.Price < *q.MinPrice {
		return false
	}
	if q.MaxPrice != nil && *q.MaxPrice > 0 && p.Price > *q.MaxPrice {
		return false
	}
	if q.MinRating != nil && *q.MinRating > 0 && p.Rating < *q.MinRating {
		return false
	}
	return true
}

// targetBrand is the preferred brand, or a known brand named in the keyword
func targetBrand(q domain.SearchQuery) string {
	if b := strings.TrimSpace(q.PreferredBrand); b != "" {
		return strings.ToLower(b)
	}
	for _, tok := range strings.Fields(strings.ToLower(q.Keyword)) {
		for _, brand := range KnownBrands() {
			if tok == brand {
				return brand
			}
		}
	}
	return ""
}
