package usecase

import (
	"math"
	"os"
	"sort"
	"strings"
	"unicode"

	"github.com/rotisserie/eris"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"
)

// Shipping cost model defaults
const (
	defaultBaseCost        = 10000.0
	defaultPerKmRate       = 15.0
	defaultPerExtraKgRate  = 2000.0
	defaultDistanceKm      = 500.0
	defaultFeeRoundingUnit = 500.0
)

// ShippingTier is a display band for a shipping fee
type ShippingTier string

const (
	TierCheap         ShippingTier = "cheap"
	TierMedium        ShippingTier = "medium"
	TierExpensive     ShippingTier = "expensive"
	TierVeryExpensive ShippingTier = "very-expensive"
)

// DistanceTable maps origin city -> destination city -> kilometres.
// Entries may be asymmetric; lookups try both directions.
type DistanceTable map[string]map[string]float64

// defaultDistances covers the major Indonesian shipping lanes
var defaultDistances = DistanceTable{
	"jakarta": {
		"jakarta": 0, "bogor": 60, "depok": 30, "tangerang": 25, "bekasi": 20,
		"bandung": 150, "semarang": 450, "surabaya": 800, "malang": 850,
		"yogyakarta": 520, "solo": 550, "medan": 1800, "palembang": 450,
		"makassar": 1400, "denpasar": 1200, "balikpapan": 1200, "pontianak": 750,
		"manado": 2500, "padang": 900, "pekanbaru": 1200,
	},
	"surabaya": {
		"jakarta": 800, "malang": 90, "semarang": 350, "yogyakarta": 330,
		"solo": 260, "bandung": 700, "denpasar": 400, "makassar": 700,
		"balikpapan": 500,
	},
	"bandung": {
		"jakarta": 150, "semarang": 340, "surabaya": 700, "yogyakarta": 420,
		"bogor": 110,
	},
	"yogyakarta": {
		"jakarta": 520, "solo": 65, "semarang": 120, "surabaya": 330,
		"bandung": 420, "malang": 350,
	},
	"medan": {
		"jakarta": 1800, "padang": 800, "pekanbaru": 450, "palembang": 1500,
	},
}

// administrativePrefixes are stripped from city names before lookup
var administrativePrefixes = []string{
	"city of ", "regency of ", "province of ",
	"kota ", "kabupaten ", "kab. ", "kab ", "provinsi ",
}

// ShippingConfig holds the cost model parameters
type ShippingConfig struct {
	BaseCost        float64
	PerKmRate       float64
	PerExtraKgRate  float64
	DefaultDistance float64
	RoundTo         float64
	Distances       DistanceTable
}

// ShippingEstimator approximates courier fees between two cities
type ShippingEstimator struct {
	baseCost        float64
	perKmRate       float64
	perExtraKgRate  float64
	defaultDistance float64
	roundTo         float64
	distances       DistanceTable
}

// NewShippingEstimator creates an estimator, filling zero config values with defaults
func NewShippingEstimator(cfg ShippingConfig) *ShippingEstimator {
	e := &ShippingEstimator{
		baseCost:        cfg.BaseCost,
		perKmRate:       cfg.PerKmRate,
		perExtraKgRate:  cfg.PerExtraKgRate,
		defaultDistance: cfg.DefaultDistance,
		roundTo:         cfg.RoundTo,
		distances:       cfg.Distances,
	}
	if e.baseCost <= 0 {
		e.baseCost = defaultBaseCost
	}
	if e.perKmRate <= 0 {
		e.perKmRate = defaultPerKmRate
	}
	if e.perExtraKgRate <= 0 {
		e.perExtraKgRate = defaultPerExtraKgRate
	}
	if e.defaultDistance <= 0 {
		e.defaultDistance = defaultDistanceKm
	}
	if e.roundTo <= 0 {
		e.roundTo = defaultFeeRoundingUnit
	}
	if len(e.distances) == 0 {
		e.distances = defaultDistances
	} else {
		e.distances = normalizeTable(e.distances)
	}
	return e
}

// Estimate returns the fee for shipping weightKg from one city to another.
// Unknown cities fall back to the default distance.
func (e *ShippingEstimator) Estimate(fromCity, toCity string, weightKg float64) int64 {
	distance := e.Distance(fromCity, toCity)
	extraKg := math.Max(0, weightKg-1)

	fee := e.baseCost + distance*e.perKmRate + extraKg*e.perExtraKgRate
	return int64(math.Round(fee/e.roundTo) * e.roundTo)
}

// Distance returns the table distance between two cities in kilometres
func (e *ShippingEstimator) Distance(fromCity, toCity string) float64 {
	from := NormalizeCity(fromCity)
	to := NormalizeCity(toCity)

	if from == to {
		return 0
	}
	if d, ok := e.distances[from][to]; ok {
		return d
	}
	if d, ok := e.distances[to][from]; ok {
		return d
	}
	return e.defaultDistance
}

// AvailableCities lists every city known to the distance table, title-cased and sorted
func (e *ShippingEstimator) AvailableCities() []string {
	seen := make(map[string]bool)
	for from, row := range e.distances {
		seen[from] = true
		for to := range row {
			seen[to] = true
		}
	}

	title := cases.Title(language.Indonesian)
	cities := make([]string, 0, len(seen))
	for city := range seen {
		cities = append(cities, title.String(city))
	}
	sort.Strings(cities)
	return cities
}

// Tier classifies a fee into a display band
func Tier(fee int64) ShippingTier {
	switch {
	case fee <= 15000:
		return TierCheap
	case fee <= 30000:
		return TierMedium
	case fee <= 50000:
		return TierExpensive
	default:
		return TierVeryExpensive
	}
}

// NormalizeCity case-folds a city name, strips diacritics and administrative prefixes
func NormalizeCity(city string) string {
	stripped, _, err := transform.String(
		transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC),
		city,
	)
	if err != nil {
		stripped = city
	}

	normalized := strings.Join(strings.Fields(cases.Fold().String(stripped)), " ")
	for _, prefix := range administrativePrefixes {
		if strings.HasPrefix(normalized, prefix) {
			normalized = strings.TrimSpace(strings.TrimPrefix(normalized, prefix))
			break
		}
	}
	return normalized
}

// LoadDistanceTable reads a YAML distance table from disk
func LoadDistanceTable(path string) (DistanceTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "read distance table %s", path)
	}

	var table DistanceTable
	if err := yaml.Unmarshal(data, &table); err != nil {
		return nil, eris.Wrapf(err, "parse distance table %s", path)
	}
	if len(table) == 0 {
		return nil, eris.Errorf("distance table %s is empty", path)
	}
	return normalizeTable(table), nil
}

func normalizeTable(table DistanceTable) DistanceTable {
	out := make(DistanceTable, len(table))
	for from, row := range table {
		key := NormalizeCity(from)
		if out[key] == nil {
			out[key] = make(map[string]float64, len(row))
		}
		for to, km := range row {
			out[key][NormalizeCity(to)] = km
		}
	}
	return out
}
