package usecase

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/scrapedgit/backend/internal/domain"
)

// maxDerivedKeywordTokens caps a keyword derived from free text when no product term matches
const maxDerivedKeywordTokens = 3

// productTerm is one entry of the ordered product dictionary
type productTerm struct {
	term      string
	canonical string
	category  string
}

// productTerms is scanned in order and the first match wins, so longer
// synonyms come before the words they contain.
var productTerms = []productTerm{
	{"laptop", "laptop", "computers"},
	{"notebook", "laptop", "computers"},
	{"tablet", "tablet", "computers"},
	{"ipad", "tablet", "computers"},
	{"headphone", "headphone", "audio"},
	{"headphones", "headphone", "audio"},
	{"headset", "headset", "audio"},
	{"earphone", "earphone", "audio"},
	{"earphones", "earphone", "audio"},
	{"earbuds", "earbuds", "audio"},
	{"earbud", "earbuds", "audio"},
	{"tws", "tws", "audio"},
	{"speaker", "speaker", "audio"},
	{"handphone", "phone", "phones"},
	{"smartphone", "phone", "phones"},
	{"ponsel", "phone", "phones"},
	{"phone", "phone", "phones"},
	{"hp", "phone", "phones"},
	{"smartwatch", "smartwatch", "wearables"},
	{"keyboard", "keyboard", "accessories"},
	{"mouse", "mouse", "accessories"},
	{"monitor", "monitor", "computers"},
	{"printer", "printer", "computers"},
	{"camera", "camera", "cameras"},
	{"kamera", "camera", "cameras"},
	{"powerbank", "powerbank", "accessories"},
	{"charger", "charger", "accessories"},
	{"console", "console", "gaming"},
}

// brandTerms is scanned in order; the first brand mentioned in the list wins
var brandTerms = []string{
	"asus", "lenovo", "hp", "acer", "dell", "msi", "samsung", "apple",
	"xiaomi", "oppo", "vivo", "sony", "jbl", "realme", "logitech", "huawei",
}

// greetingTokens are messages that on their own only say hello
var greetingTokens = map[string]bool{
	"hi": true, "hii": true, "hello": true, "halo": true, "hallo": true,
	"hey": true, "hai": true, "hei": true, "bro": true, "p": true,
}

// fillerWords are dropped when deriving a keyword from a message with no known product term
var fillerWords = map[string]bool{
	"yes": true, "yeah": true, "yup": true, "no": true, "not": true, "ok": true, "okay": true,
	"sure": true, "now": true, "just": true, "also": true, "and": true, "or": true, "but": true,
	"is": true, "are": true, "it": true, "to": true, "in": true, "on": true, "at": true, "from": true,
	"have": true, "has": true, "additional": true, "requirements": true, "requirement": true,
	"help": true, "something": true, "anything": true, "stuff": true, "thing": true, "things": true,
	"product": true, "products": true, "item": true, "items": true, "popular": true, "other": true,
	"recommendation": true, "recommendations": true, "good": true, "best": true, "new": true,
	"budget": true, "price": true, "harga": true, "limit": true, "range": true, "cheap": true,
	"murah": true, "around": true, "about": true, "under": true, "below": true, "above": true,
	"over": true, "max": true, "min": true, "maximum": true, "minimum": true, "than": true,
	"less": true, "more": true, "least": true, "most": true, "sekitar": true, "rp": true,
	"k": true, "rb": true, "ribu": true, "jt": true, "juta": true, "m": true, "million": true,
	"rating": true, "star": true, "stars": true, "bintang": true, "brand": true, "color": true,
	"specs": true, "spec": true, "specifications": true, "modify": true, "change": true,
	"type": true, "add": true, "search": true, "start": true, "go": true,
	"like": true, "would": true, "can": true, "you": true, "do": true, "what": true, "which": true,
	"ada": true, "aja": true, "saja": true, "gak": true, "tidak": true, "iya": true,
	"idk": true, "none": true, "whatever": true, "matter": true, "care": true, "doesnt": true,
	"dont": true, "preference": true, "terserah": true, "bebas": true, "surprise": true,
	"actually": true, "sebenarnya": true, "mean": true, "id": true, "im": true, "make": true,
	"one": true, "ones": true, "let": true, "lets": true, "prefer": true,
}

var (
	numericTokenRegex = regexp.MustCompile(`^[\d.,]`)

	// Explicit keyword corrections: "not X, but Y", "actually I want Y", "change to Y", "Y instead".
	// The loose forms "actually Y" and "I mean Y" only count when Y names a known product.
	correctionPatterns = []correctionPattern{
		{re: regexp.MustCompile(`\b(?:not|bukan)\s+[^,]+?,?\s+(?:but|tapi|melainkan)\s+(.+)`), strict: true},
		{re: regexp.MustCompile(`\b(?:actually|sebenarnya)\s*,?\s*(?:i\s+)?(?:want|need|prefer|mau)\s+(.+)`), strict: true},
		{re: regexp.MustCompile(`\b(?:change|switch|ganti)\s+(?:it\s+|the\s+product\s+|product\s+)?(?:to|jadi|ke)\s+(.+)`), strict: true},
		{re: regexp.MustCompile(`^(.+?)\s+instead\b`), strict: true},
		{re: regexp.MustCompile(`\b(?:actually|sebenarnya)\s*,?\s*(?:i\s+mean\s+)?(.+)`)},
		{re: regexp.MustCompile(`\bi\s+mean\s+(.+)`)},
	}

	// Broad "no preference" answers that skip the pending question
	noPreferenceRegex = regexp.MustCompile(
		`^(?:no|nope|none|tidak|gak|nggak|ga|engga)\b|\b(?:no budget|no preference|no limit|no specific|nothing specific|any budget|doesn'?t matter|does not matter|don'?t care|do not care|idk|i don'?t know|surprise me|whatever|anything is fine|terserah|bebas|gak tau|ga tau)\b`)

	minRatingRegexes = []*regexp.Regexp{
		regexp.MustCompile(`\b(?:rating|rated|bintang)\s*(?:above|over|min(?:imum)?|at least|>=?)?\s*(\d(?:[.,]\d)?)\s*\+?`),
		regexp.MustCompile(`\b(\d(?:[.,]\d)?)\s*\+?\s*(?:stars?|bintang)\b`),
	}
)

// FallbackExtractor is the deterministic, dictionary-and-pattern parser used when no
// language model is available or the model fails.
type FallbackExtractor struct {
	preprocessor *QueryPreprocessor
}

// NewFallbackExtractor creates a fallback extractor
func NewFallbackExtractor(preprocessor *QueryPreprocessor) *FallbackExtractor {
	if preprocessor == nil {
		preprocessor = NewQueryPreprocessor(false)
	}
	return &FallbackExtractor{preprocessor: preprocessor}
}

// Extract runs a full offline turn: greeting check, candidate extraction, merge, and the
// clarification state machine. It never fails.
func (e *FallbackExtractor) Extract(message string, prior *domain.AccumulatedQuery, userLocation *string) domain.TurnResult {
	if IsGreeting(message) {
		return greetingTurn(prior, userLocation)
	}

	candidate := e.Candidate(message, prior)
	updated := mergeCandidate(prior, candidate, message, userLocation, e.preprocessor)
	return respond(updated, message, nil)
}

// Candidate extracts the structured fields a single message mentions. A keyword is always
// proposed for non-greeting messages with meaningful content, so offline conversations progress.
func (e *FallbackExtractor) Candidate(message string, prior *domain.AccumulatedQuery) domain.QueryPatch {
	var patch domain.QueryPatch
	lower := strings.ToLower(message)

	keywordSource := lower
	if target, ok := CorrectionTarget(message); ok && prior.HasKeyword() {
		keywordSource = strings.ToLower(target)
	}

	term, found := matchProduct(keywordSource)
	if found {
		patch.Keyword = domain.StringPtr(term.canonical)
		patch.Category = domain.StringPtr(term.category)
	} else if derived := e.deriveKeyword(keywordSource); derived != "" {
		patch.Keyword = domain.StringPtr(derived)
	}

	skipHP := found && term.term == "hp"
	if brand := matchBrand(lower, skipHP); brand != "" {
		patch.PreferredBrand = domain.StringPtr(brand)
	}

	budget := ParseBudget(message)
	patch.MinPrice = budget.Min
	patch.MaxPrice = budget.Max

	if rating, ok := parseMinRating(lower); ok {
		patch.MinRating = &rating
	}

	patch.SpecConstraints = e.preprocessor.ExtractSpecs(message)

	if patch.Keyword != nil || !budget.Empty() || patch.PreferredBrand != nil {
		isSearch := true
		patch.IsSearch = &isSearch
	}
	return patch
}

// deriveKeyword keeps up to three meaningful tokens once fillers, stop words, numbers,
// price words, brands, colors and recognized features are removed.
func (e *FallbackExtractor) deriveKeyword(message string) string {
	specWords := make(map[string]bool)
	for _, spec := range e.preprocessor.ExtractSpecs(message) {
		for _, w := range strings.Fields(strings.ToLower(spec)) {
			specWords[w] = true
		}
	}

	var kept []string
	for _, token := range tokenize(strings.ReplaceAll(message, "'", "")) {
		switch {
		case fillerWords[token], keywordStopWords[token], specWords[token]:
			continue
		case numericTokenRegex.MatchString(token), isBrand(token), IsColor(token):
			continue
		case len([]rune(token)) < domain.MinKeywordLength:
			continue
		}
		kept = append(kept, token)
		if len(kept) == maxDerivedKeywordTokens {
			break
		}
	}
	return strings.Join(kept, " ")
}

// IsGreeting reports whether the whole message is a single greeting token
func IsGreeting(message string) bool {
	token := strings.ToLower(strings.TrimSpace(message))
	token = strings.TrimRight(token, "!.?,~ ")
	return greetingTokens[token]
}

// IsNoPreference reports whether the message declines to state a preference
func IsNoPreference(message string) bool {
	return noPreferenceRegex.MatchString(strings.ToLower(strings.TrimSpace(message)))
}

// CorrectionTarget returns the replacement text of an explicit keyword correction
func CorrectionTarget(message string) (string, bool) {
	lower := strings.ToLower(strings.TrimSpace(message))
	for _, p := range correctionPatterns {
		m := p.re.FindStringSubmatch(lower)
		if m == nil {
			continue
		}
		target := strings.TrimSpace(strings.Trim(m[1], ".!?"))
		if target == "" {
			continue
		}
		if _, known := matchProduct(target); p.strict || known {
			return target, true
		}
	}
	return "", false
}

type correctionPattern struct {
	re     *regexp.Regexp
	strict bool
}

func matchProduct(text string) (productTerm, bool) {
	tokens := make(map[string]bool)
	for _, t := range tokenize(text) {
		tokens[t] = true
	}
	for _, term := range productTerms {
		if tokens[term.term] {
			return term, true
		}
	}
	return productTerm{}, false
}

func matchBrand(text string, skipHP bool) string {
	tokens := make(map[string]bool)
	for _, t := range tokenize(text) {
		tokens[t] = true
	}
	for _, brand := range brandTerms {
		if brand == "hp" && skipHP {
			continue
		}
		if tokens[brand] {
			return brand
		}
	}
	return ""
}

func isBrand(token string) bool {
	for _, brand := range brandTerms {
		if token == brand {
			return true
		}
	}
	return false
}

func parseMinRating(text string) (float64, bool) {
	for _, re := range minRatingRegexes {
		if m := re.FindStringSubmatch(text); m != nil {
			v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", "."), 64)
			if err == nil && v > 0 && v <= 5 {
				return v, true
			}
		}
	}
	return 0, false
}
