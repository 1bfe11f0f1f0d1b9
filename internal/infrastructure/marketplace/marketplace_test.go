package marketplace

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/scrapedgit/backend/internal/domain"
	"github.com/scrapedgit/backend/internal/infrastructure/cache"
)

// MockSource implements domain.ProductSource for testing.
type MockSource struct {
	mock.Mock
	name string
}

func (m *MockSource) Name() string { return m.name }

func (m *MockSource) Search(ctx context.Context, query domain.SearchQuery) ([]domain.RawProduct, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.RawProduct), args.Error(1)
}

func int64Ptr(v int64) *int64 { return &v }

func TestLookupCategory(t *testing.T) {
	tests := []struct {
		keyword string
		want    string
	}{
		{"laptop", "laptop"},
		{"gaming laptop", "laptop"},
		{"phone", "phone"},
		{"smartphone", "phone"},
		{"TWS", "earbuds"},
		{"wireless headphone", "earbuds"},
		{"rice cooker", "laptop"},
		{"", "laptop"},
	}

	for _, tt := range tests {
		t.Run(tt.keyword, func(t *testing.T) {
			assert.Equal(t, tt.want, lookupCategory(tt.keyword).Name)
		})
	}
}

func TestProductLink(t *testing.T) {
	e := catalogEntry{Store: "jbl-official", Slug: "jbl-tune-buds", ItemID: "42"}

	tests := []struct {
		source string
		want   string
	}{
		{domain.SourceTokopedia, "https://www.tokopedia.com/jbl-official/jbl-tune-buds"},
		{domain.SourceShopee, "https://shopee.co.id/jbl-tune-buds-i.42"},
		{domain.SourceLazada, "https://www.lazada.co.id/products/pdp-jbl-tune-buds-i42.html"},
		{domain.SourceBlibli, "https://www.blibli.com/p/jbl-tune-buds/42"},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			assert.Equal(t, tt.want, productLink(tt.source, e))
		})
	}
}

func TestCatalogSource_Search(t *testing.T) {
	ctx := context.Background()
	src := NewCatalogSource(domain.SourceShopee)

	t.Run("generates the requested count within catalog bounds", func(t *testing.T) {
		products, err := src.Search(ctx, domain.SearchQuery{Keyword: "phone", MaxProducts: 10})
		require.NoError(t, err)
		require.Len(t, products, 10)

		for _, p := range products {
			assert.Equal(t, domain.SourceShopee, p.Source)
			assert.Zero(t, p.Price%1000, "price rounded to thousands")
			assert.True(t, p.Rating > 0 && p.Rating <= 5)
			assert.Contains(t, sellerCities, p.SellerLocation)
			assert.True(t, strings.HasPrefix(p.ProductLink, "https://shopee.co.id/"))
		}
		assert.Contains(t, products[8].Name+products[9].Name, "- Seller 2")
	})

	t.Run("is deterministic per keyword", func(t *testing.T) {
		a, _ := src.Search(ctx, domain.SearchQuery{Keyword: "laptop"})
		b, _ := src.Search(ctx, domain.SearchQuery{Keyword: "Laptop "})
		assert.Equal(t, a, b)
		assert.Len(t, a, defaultProductsPerSource)
	})

	t.Run("cancelled context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := src.Search(cctx, domain.SearchQuery{Keyword: "laptop"})
		assert.Error(t, err)
	})
}

func TestSearchCacheKey(t *testing.T) {
	assert.Equal(t, "search:tokopedia:gaming_laptop", SearchCacheKey("tokopedia", "Gaming  Laptop"))
}

func TestAggregator_Search(t *testing.T) {
	ctx := context.Background()

	t.Run("merges every source and filters by price", func(t *testing.T) {
		agg := NewAggregator(NewCatalogSources(), cache.NewMemoryCache(), AggregatorConfig{})
		products, err := agg.Search(ctx, domain.SearchQuery{Keyword: "laptop", MaxPrice: int64Ptr(10000000)})
		require.NoError(t, err)
		require.NotEmpty(t, products)

		sources := map[string]bool{}
		for _, p := range products {
			assert.LessOrEqual(t, p.Price, int64(10000000))
			sources[p.Source] = true
		}
		assert.Len(t, sources, 4)
	})

	t.Run("preferred brand comes first", func(t *testing.T) {
		agg := NewAggregator(NewCatalogSources(), nil, AggregatorConfig{})
		products, err := agg.Search(ctx, domain.SearchQuery{Keyword: "phone", PreferredBrand: "Xiaomi"})
		require.NoError(t, err)

		seenOther := false
		for _, p := range products {
			if p.Brand != "xiaomi" {
				seenOther = true
				continue
			}
			assert.False(t, seenOther, "xiaomi listing after another brand")
		}
	})

	t.Run("brand in keyword is preferred", func(t *testing.T) {
		assert.Equal(t, "asus", targetBrand(domain.SearchQuery{Keyword: "asus laptop"}))
		assert.Equal(t, "", targetBrand(domain.SearchQuery{Keyword: "laptop"}))
	})

	t.Run("failing source is skipped", func(t *testing.T) {
		broken := &MockSource{name: "broken"}
		broken.On("Search", mock.Anything, mock.Anything).Return(nil, errors.New("blocked"))

		agg := NewAggregator([]domain.ProductSource{broken, NewCatalogSource(domain.SourceBlibli)}, nil, AggregatorConfig{})
		products, err := agg.Search(ctx, domain.SearchQuery{Keyword: "earbuds"})
		require.NoError(t, err)
		assert.Len(t, products, defaultProductsPerSource)
		broken.AssertExpectations(t)
	})

	t.Run("all sources failing yields empty result", func(t *testing.T) {
		broken := &MockSource{name: "broken"}
		broken.On("Search", mock.Anything, mock.Anything).Return(nil, errors.New("blocked"))

		agg := NewAggregator([]domain.ProductSource{broken}, nil, AggregatorConfig{})
		products, err := agg.Search(ctx, domain.SearchQuery{Keyword: "earbuds"})
		require.NoError(t, err)
		assert.NotNil(t, products)
		assert.Empty(t, products)
	})

	t.Run("results are served from cache", func(t *testing.T) {
		src := &MockSource{name: "tokopedia"}
		src.On("Search", mock.Anything, mock.Anything).
			Return([]domain.RawProduct{{Name: "A", Price: 1000, Source: "tokopedia"}}, nil).Once()

		agg := NewAggregator([]domain.ProductSource{src}, cache.NewMemoryCache(), AggregatorConfig{CacheTTL: time.Minute})
		for i := 0; i < 3; i++ {
			products, err := agg.Search(ctx, domain.SearchQuery{Keyword: "Mouse"})
			require.NoError(t, err)
			require.Len(t, products, 1)
		}
		src.AssertNumberOfCalls(t, "Search", 1)
	})

	t.Run("rating filter", func(t *testing.T) {
		src := &MockSource{name: "lazada"}
		src.On("Search", mock.Anything, mock.Anything).Return([]domain.RawProduct{
			{Name: "low", Rating: 3.9},
			{Name: "high", Rating: 4.6},
		}, nil)

		minRating := 4.5
		agg := NewAggregator([]domain.ProductSource{src}, nil, AggregatorConfig{})
		products, err := agg.Search(ctx, domain.SearchQuery{Keyword: "mouse", MinRating: &minRating})
		require.NoError(t, err)
		require.Len(t, products, 1)
		assert.Equal(t, "high", products[0].Name)
	})

	t.Run("missing keyword", func(t *testing.T) {
		agg := NewAggregator(NewCatalogSources(), nil, AggregatorConfig{})
		_, err := agg.Search(ctx, domain.SearchQuery{Keyword: " "})
		assert.True(t, errors.Is(err, domain.ErrKeywordMissing))
	})
}
