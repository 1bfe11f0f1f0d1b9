package marketplace

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"math/rand/v2"
	"strings"

	"github.com/scrapedgit/backend/internal/domain"
)

const defaultProductsPerSource = 10

// AllSources lists the marketplaces the demo catalog serves
var AllSources = []string{
	domain.SourceTokopedia,
	domain.SourceShopee,
	domain.SourceLazada,
	domain.SourceBlibli,
}

// CatalogSource is a marketplace backed by the built-in catalog. Listings are
// generated deterministically from the source name and keyword, so repeated
// searches return the same prices, ratings and seller cities.
type CatalogSource struct {
	name string
}

// NewCatalogSource creates a demo source for the named marketplace
func NewCatalogSource(name string) *CatalogSource {
	return &CatalogSource{name: name}
}

// NewCatalogSources creates one demo source per known marketplace
func NewCatalogSources() []domain.ProductSource {
	sources := make([]domain.ProductSource, 0, len(AllSources))
	for _, name := range AllSources {
		sources = append(sources, NewCatalogSource(name))
	}
	return sources
}

// Name returns the marketplace identifier
func (s *CatalogSource) Name() string {
	return s.name
}

// Search returns listings for the keyword. Price, rating and brand filters are applied by the caller.
func (s *CatalogSource) Search(ctx context.Context, query domain.SearchQuery) ([]domain.RawProduct, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	count := query.MaxProducts
	if count <= 0 {
		count = defaultProductsPerSource
	}

	keyword := strings.ToLower(strings.TrimSpace(query.Keyword))
	entries := lookupCategory(keyword).Entries
	rng := rand.New(rand.NewPCG(seed(s.name, keyword), uint64(len(keyword))))

	// rotate so sources with fewer slots than entries still cover the whole category together
	offset := rng.IntN(len(entries))

	products := make([]domain.RawProduct, 0, count)
	for i := 0; i < count; i++ {
		entry := entries[(offset+i)%len(entries)]
		variant := i / len(entries)

		name := entry.Name
		if variant > 0 {
			name = fmt.Sprintf("%s - Seller %d", entry.Name, variant+1)
		}

		priceVariation := 0.9 + rng.Float64()*0.2
		rating := math.Round((entry.Rating+(rng.Float64()-0.5)*0.3)*10) / 10
		if rating > 5 {
			rating = 5
		}

		products = append(products, domain.RawProduct{
			Name:           name,
			Price:          int64(math.Round(float64(entry.BasePrice)*priceVariation/1000)) * 1000,
			Rating:         rating,
			SoldCount:      int64(float64(entry.Sold) * (0.5 + rng.Float64())),
			SellerLocation: sellerCities[rng.IntN(len(sellerCities))],
			ImageURL:       imageURL(entry.Brand),
			Source:         s.name,
			ProductLink:    productLink(s.name, entry),
			Brand:          entry.Brand,
		})
	}

	return products, nil
}

func seed(source, keyword string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(source))
	h.Write([]byte{0})
	h.Write([]byte(keyword))
	return h.Sum64()
}
