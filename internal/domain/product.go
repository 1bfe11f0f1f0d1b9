package domain

// Marketplace source identifiers
const (
	SourceTokopedia = "tokopedia"
	SourceShopee    = "shopee"
	SourceLazada    = "lazada"
	SourceBlibli    = "blibli"
)

// RawProduct is a single listing returned by a marketplace source
type RawProduct struct {
	Name           string  `json:"name"`
	Price          int64   `json:"price"`
	Rating         float64 `json:"rating"`
	SoldCount      int64   `json:"soldCount"`
	SellerLocation string  `json:"sellerLocation"`
	ImageURL       string  `json:"imageUrl,omitempty"`
	Source         string  `json:"source"`
	ProductLink    string  `json:"productLink"`
	Brand          string  `json:"brand,omitempty"`
}

// ScoredProduct is a listing with its normalized sub-scores and final rank
type ScoredProduct struct {
	RawProduct
	PriceScore        float64 `json:"priceScore"`
	ShippingScore     float64 `json:"shippingScore"`
	SoldScore         float64 `json:"soldScore"`
	RatingScore       float64 `json:"ratingScore"`
	FinalScore        float64 `json:"finalScore"`
	EstimatedShipping int64   `json:"estimatedShipping"`
	Rank              int     `json:"rank"`
}

// Weights controls how much each sub-score contributes to the final score
type Weights struct {
	Price     float64 `json:"price" mapstructure:"price"`
	Shipping  float64 `json:"shipping" mapstructure:"shipping"`
	SoldCount float64 `json:"soldCount" mapstructure:"sold_count"`
	Rating    float64 `json:"rating" mapstructure:"rating"`
}

// DefaultWeights favours price, then shipping, popularity and rating
var DefaultWeights = Weights{
	Price:     0.5,
	Shipping:  0.25,
	SoldCount: 0.15,
	Rating:    0.10,
}

// PriceRange is a min/max pair of prices
type PriceRange struct {
	Min int64 `json:"min"`
	Max int64 `json:"max"`
}

// ResultsSummary aggregates a scored result set
type ResultsSummary struct {
	TotalProducts int            `json:"totalProducts"`
	AveragePrice  int64          `json:"averagePrice"`
	PriceRange    PriceRange     `json:"priceRange"`
	AverageRating float64        `json:"averageRating"`
	Sources       map[string]int `json:"sources"`
}

// SearchQuery is what a marketplace source is asked for
type SearchQuery struct {
	Keyword        string   `json:"keyword"`
	PreferredBrand string   `json:"preferredBrand,omitempty"`
	MinPrice       *int64   `json:"minPrice,omitempty"`
	MaxPrice       *int64   `json:"maxPrice,omitempty"`
	MinRating      *float64 `json:"minRating,omitempty"`
	MaxProducts    int      `json:"maxProducts"`
}

// SearchQueryFrom projects an accumulated query onto a marketplace search
func SearchQueryFrom(q *AccumulatedQuery, maxProducts int) SearchQuery {
	sq := SearchQuery{MaxProducts: maxProducts}
	if q == nil {
		return sq
	}
	sq.Keyword = q.KeywordValue()
	if q.PreferredBrand != nil {
		sq.PreferredBrand = *q.PreferredBrand
	}
	sq.MinPrice = q.MinPrice
	sq.MaxPrice = q.MaxPrice
	sq.MinRating = q.MinRating
	return sq
}
