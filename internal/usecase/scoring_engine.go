package usecase

import (
	"math"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/scrapedgit/backend/internal/domain"
)

const (
	degenerateScore   = 50.0
	defaultMaxRating  = 5.0
	weightSumEpsilon  = 0.001
	defaultTargetCity = "Jakarta"
)

// ShippingQuoter returns a shipping fee between two cities
type ShippingQuoter interface {
	Estimate(fromCity, toCity string, weightKg float64) int64
}

// ScoringConfig holds configuration for the scoring engine
type ScoringConfig struct {
	Weights         domain.Weights
	DefaultLocation string
}

// ScoringEngine ranks raw listings by a weighted blend of normalized attributes
type ScoringEngine struct {
	shipping        ShippingQuoter
	weights         domain.Weights
	defaultLocation string
}

// NewScoringEngine creates a scoring engine. Zero weights fall back to domain.DefaultWeights.
func NewScoringEngine(shipping ShippingQuoter, config ScoringConfig) *ScoringEngine {
	weights := config.Weights
	if weights == (domain.Weights{}) {
		weights = domain.DefaultWeights
	}

	location := strings.TrimSpace(config.DefaultLocation)
	if location == "" {
		location = defaultTargetCity
	}

	return &ScoringEngine{
		shipping:        shipping,
		weights:         weights,
		defaultLocation: location,
	}
}

// Weights returns the engine's configured weights
func (s *ScoringEngine) Weights() domain.Weights {
	return s.weights
}

// bounds holds the observed min/max of one attribute across a batch
type bounds struct {
	min, max float64
}

func (b bounds) normalize(v float64, invert bool) float64 {
	if b.max == b.min {
		return degenerateScore
	}
	score := 100 * (v - b.min) / (b.max - b.min)
	if invert {
		score = 100 - score
	}
	return math.Max(0, math.Min(100, score))
}

// Score ranks products for delivery to targetLocation. A nil weights pointer uses the
// engine's configured weights; an empty target uses the default location.
func (s *ScoringEngine) Score(products []domain.RawProduct, targetLocation string, weights *domain.Weights) []domain.ScoredProduct {
	if len(products) == 0 {
		return []domain.ScoredProduct{}
	}

	w := s.weights
	if weights != nil {
		w = *weights
	}
	if strings.TrimSpace(targetLocation) == "" {
		targetLocation = s.defaultLocation
	}

	shipping := make([]int64, len(products))
	for i, p := range products {
		shipping[i] = s.shipping.Estimate(p.SellerLocation, targetLocation, 1)
	}

	priceB := bounds{min: math.Inf(1), max: math.Inf(-1)}
	shipB := priceB
	soldB := priceB
	ratingB := bounds{min: math.Inf(1), max: 0}

	for i, p := range products {
		priceB = widen(priceB, float64(p.Price))
		shipB = widen(shipB, float64(shipping[i]))
		soldB = widen(soldB, float64(p.SoldCount))
		ratingB.min = math.Min(ratingB.min, p.Rating)
		if p.Rating > 0 {
			ratingB.max = math.Max(ratingB.max, p.Rating)
		}
	}
	if ratingB.max <= 0 {
		ratingB.max = defaultMaxRating
	}

	scored := make([]domain.ScoredProduct, len(products))
	for i, p := range products {
		// sub-scores are rounded only when stored
		priceScore := priceB.normalize(float64(p.Price), true)
		shippingScore := shipB.normalize(float64(shipping[i]), true)
		soldScore := soldB.normalize(float64(p.SoldCount), false)
		ratingScore := ratingB.normalize(p.Rating, false)

		final := priceScore*w.Price +
			shippingScore*w.Shipping +
			soldScore*w.SoldCount +
			ratingScore*w.Rating

		scored[i] = domain.ScoredProduct{
			RawProduct:        p,
			PriceScore:        round2(priceScore),
			ShippingScore:     round2(shippingScore),
			SoldScore:         round2(soldScore),
			RatingScore:       round2(ratingScore),
			FinalScore:        round2(final),
			EstimatedShipping: shipping[i],
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].FinalScore > scored[j].FinalScore
	})
	for i := range scored {
		scored[i].Rank = i + 1
	}

	zap.L().Debug("scored products",
		zap.Int("count", len(scored)),
		zap.String("target", targetLocation),
		zap.Float64("top_score", scored[0].FinalScore),
	)
	return scored
}

// Summarize aggregates a scored result set
func Summarize(scored []domain.ScoredProduct) domain.ResultsSummary {
	summary := domain.ResultsSummary{Sources: map[string]int{}}
	if len(scored) == 0 {
		return summary
	}

	var (
		priceSum   int64
		ratingSum  float64
		ratedCount int
	)
	summary.PriceRange = domain.PriceRange{Min: scored[0].Price, Max: scored[0].Price}

	for _, p := range scored {
		priceSum += p.Price
		if p.Price < summary.PriceRange.Min {
			summary.PriceRange.Min = p.Price
		}
		if p.Price > summary.PriceRange.Max {
			summary.PriceRange.Max = p.Price
		}
		if p.Rating > 0 {
			ratingSum += p.Rating
			ratedCount++
		}
		summary.Sources[p.Source]++
	}

	summary.TotalProducts = len(scored)
	summary.AveragePrice = int64(math.Round(float64(priceSum) / float64(len(scored))))
	if ratedCount > 0 {
		summary.AverageRating = math.Round(ratingSum/float64(ratedCount)*10) / 10
	}
	return summary
}

// ScoreFilter narrows a scored result set. Zero values disable a criterion.
type ScoreFilter struct {
	MinFinalScore float64  `json:"minFinalScore"`
	MaxPrice      int64    `json:"maxPrice"`
	MinRating     float64  `json:"minRating"`
	Sources       []string `json:"sources"`
}

// FilterScored returns the products matching every enabled criterion, preserving order and rank
func FilterScored(products []domain.ScoredProduct, filter ScoreFilter) []domain.ScoredProduct {
	sources := make(map[string]bool, len(filter.Sources))
	for _, src := range filter.Sources {
		sources[strings.ToLower(strings.TrimSpace(src))] = true
	}

	out := make([]domain.ScoredProduct, 0, len(products))
	for _, p := range products {
		if filter.MinFinalScore > 0 && p.FinalScore < filter.MinFinalScore {
			continue
		}
		if filter.MaxPrice > 0 && p.Price > filter.MaxPrice {
			continue
		}
		if filter.MinRating > 0 && p.Rating < filter.MinRating {
			continue
		}
		if len(sources) > 0 && !sources[strings.ToLower(p.Source)] {
			continue
		}
		out = append(out, p)
	}
	return out
}

// ValidateWeights checks that every weight is non-negative and that they sum to 1
func ValidateWeights(w domain.Weights) error {
	if w.Price < 0 || w.Shipping < 0 || w.SoldCount < 0 || w.Rating < 0 {
		return eris.Wrapf(domain.ErrInvalidWeights, "weights must be non-negative: %+v", w)
	}
	sum := w.Price + w.Shipping + w.SoldCount + w.Rating
	if math.Abs(sum-1.0) > weightSumEpsilon {
		return eris.Wrapf(domain.ErrInvalidWeights, "weights must sum to 1.0, got %.4f", sum)
	}
	return nil
}

func widen(b bounds, v float64) bounds {
	return bounds{min: math.Min(b.min, v), max: math.Max(b.max, v)}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
