package usecase

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

const (
	aroundMinSpread   = 100000.0
	aroundSpreadRatio = 0.2
	bareMillionsLimit = 100.0
)

const (
	amountPattern = `(?:rp\.?\s*)?(\d+(?:[.,]\d+)*)`
	unitPattern   = `(?:\s*(k|rb|ribu|jt|juta|mio|millions|million|m))?\b`
)

// Budget phrase patterns, matched against a lowercased message
var (
	rangeRegex = regexp.MustCompile(
		`(?:^|[^\w.,])` + amountPattern + unitPattern + `\s*(?:-|–|to|sampai|hingga|s/d)\s*` + amountPattern + unitPattern)
	aroundRegex = regexp.MustCompile(
		`(?:\b(?:around|about|approximately|approx|sekitar|kisaran|kira-kira|kurang lebih)|~|±)\s*` + amountPattern + unitPattern)
	underRegex = regexp.MustCompile(
		`\b(?:under|below|less than|at most|maximum|max|kurang dari|di bawah|dibawah|maks)\s*` + amountPattern + unitPattern)
	aboveRegex = regexp.MustCompile(
		`\b(?:above|over|more than|at least|minimum|min|lebih dari|di atas|diatas)\s*` + amountPattern + unitPattern)
	singleAmountRegex = regexp.MustCompile(
		`(?:^|[^\w.,])` + amountPattern + `\s*(k|rb|ribu|jt|juta|mio|millions|million|m)\b`)
	rupiahAmountRegex = regexp.MustCompile(`\brp\.?\s*(\d+(?:[.,]\d+)*)`)
	thousandsRegex    = regexp.MustCompile(`^\d{1,3}(?:[.,]\d{3})+$`)
	ratingPrefixRegex = regexp.MustCompile(`\b(?:rating|rated|bintang)\s*$`)
	specUnitRegex     = regexp.MustCompile(`^\s*(?:(?:gb|tb|mb|inch|inci|hz|mah|mp|w|watt|cores?|stars?|bintang)\b|")`)
)

// Budget is a price window extracted from a message. Nil bounds were not mentioned.
type Budget struct {
	Min *int64
	Max *int64
}

// Empty reports whether no bound was extracted
func (b Budget) Empty() bool {
	return b.Min == nil && b.Max == nil
}

// ParseBudget extracts a price window from free text. An explicit range wins, then an
// approximation, then under/above bounds, then a lone amount with a unit (treated as a ceiling).
func ParseBudget(message string) Budget {
	msg := strings.ToLower(message)

	if b, ok := ParseRange(msg); ok {
		return b
	}
	if b, ok := ParseAround(msg); ok {
		return b
	}

	var b Budget
	if m := findBudgetMatch(underRegex, msg); m != nil {
		if v, ok := resolveAmount(m[1], m[2], ""); ok {
			b.Max = &v
		}
	}
	if m := findBudgetMatch(aboveRegex, msg); m != nil {
		if v, ok := resolveAmount(m[1], m[2], ""); ok {
			b.Min = &v
		}
	}
	if !b.Empty() {
		return b
	}

	if m := singleAmountRegex.FindStringSubmatch(msg); m != nil {
		if v, ok := resolveAmount(m[1], m[2], ""); ok {
			b.Max = &v
		}
	} else if m := rupiahAmountRegex.FindStringSubmatch(msg); m != nil {
		if v, ok := resolveAmount(m[1], "", ""); ok {
			b.Max = &v
		}
	}
	return b
}

// ParseRange extracts an explicit "N1 [unit] - N2 [unit]" range. Each side resolves its own
// unit; a side without a unit inherits the other side's.
func ParseRange(message string) (Budget, bool) {
	m := findBudgetMatch(rangeRegex, strings.ToLower(message))
	if m == nil {
		return Budget{}, false
	}

	lo, okLo := resolveAmount(m[1], m[2], m[4])
	hi, okHi := resolveAmount(m[3], m[4], m[2])
	if !okLo || !okHi {
		return Budget{}, false
	}
	if lo > hi {
		lo, hi = hi, lo
	}
	return Budget{Min: &lo, Max: &hi}, true
}

// ParseAround extracts an "around N" approximation as N ± max(100000, 20% of N).
// The lower bound never goes below zero. A bare center of 100 or less reads as millions,
// the same as a bare range, so "around 5" is 4-6 million.
func ParseAround(message string) (Budget, bool) {
	m := findBudgetMatch(aroundRegex, strings.ToLower(message))
	if m == nil {
		return Budget{}, false
	}

	center, ok := resolveAmount(m[1], m[2], "")
	if !ok {
		return Budget{}, false
	}

	spread := math.Max(aroundMinSpread, aroundSpreadRatio*float64(center))
	lo := int64(math.Max(0, math.Round(float64(center)-spread)))
	hi := int64(math.Round(float64(center) + spread))
	return Budget{Min: &lo, Max: &hi}, true
}

// findBudgetMatch returns the submatches of the first match that is not a spec quantity
// such as "8-16 GB", "under 14 inch" or "rating above 4".
func findBudgetMatch(re *regexp.Regexp, msg string) []string {
	for _, idx := range re.FindAllStringSubmatchIndex(msg, -1) {
		if specUnitRegex.MatchString(msg[idx[1]:]) || ratingPrefixRegex.MatchString(msg[:idx[0]]) {
			continue
		}
		groups := make([]string, len(idx)/2)
		for i := range groups {
			if idx[2*i] >= 0 {
				groups[i] = msg[idx[2*i]:idx[2*i+1]]
			}
		}
		return groups
	}
	return nil
}

// resolveAmount converts a number and unit into a plain amount. A bare small number
// with no unit on either side reads as millions.
func resolveAmount(number, unit, fallbackUnit string) (int64, bool) {
	value, ok := parseNumber(number)
	if !ok {
		return 0, false
	}

	if unit == "" {
		unit = fallbackUnit
	}
	if unit == "" && value <= bareMillionsLimit {
		unit = "jt"
	}

	return int64(math.Round(value * unitMultiplier(unit))), true
}

func parseNumber(s string) (float64, bool) {
	if thousandsRegex.MatchString(s) {
		s = strings.NewReplacer(".", "", ",", "").Replace(s)
	} else {
		s = strings.ReplaceAll(s, ",", ".")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 {
		return 0, false
	}
	return v, true
}

func unitMultiplier(unit string) float64 {
	switch unit {
	case "k", "rb", "ribu":
		return 1e3
	case "jt", "juta", "m", "mio", "million", "millions":
		return 1e6
	default:
		return 1
	}
}

// FormatPrice renders an amount for conversational text: 1500000 -> "1.5 million", 500000 -> "500K"
func FormatPrice(amount int64) string {
	switch {
	case amount >= 1_000_000:
		millions := float64(amount) / 1e6
		if millions == math.Trunc(millions) {
			return strconv.FormatInt(int64(millions), 10) + " million"
		}
		return strconv.FormatFloat(millions, 'f', 1, 64) + " million"
	case amount >= 1000:
		return strconv.FormatInt(amount/1000, 10) + "K"
	default:
		return strconv.FormatInt(amount, 10)
	}
}

// FormatRupiah renders an amount with dot thousands separators: 1234567 -> "Rp 1.234.567"
func FormatRupiah(amount int64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}

	digits := strconv.FormatInt(amount, 10)
	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	return "Rp " + sign + b.String()
}
