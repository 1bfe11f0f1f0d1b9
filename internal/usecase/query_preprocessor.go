package usecase

import (
	"regexp"
	"strings"

	"go.uber.org/zap"
)

// maxKeywordTokens is how many meaningful tokens a cleaned keyword keeps
const maxKeywordTokens = 2

// QueryPreprocessor cleans keywords and pulls structured specs out of free text
type QueryPreprocessor struct {
	enableDebugLogging bool
}

// specPattern captures one kind of compound spec and renders it as a single constraint
type specPattern struct {
	re     *regexp.Regexp
	render func(m []string) string
}

// Structural spec patterns, run before single-word scanning so compound specs are captured whole
var structuralSpecPatterns = []specPattern{
	// RAM: "16gb ram", "ram 8 gb"
	{regexp.MustCompile(`\b(\d{1,3})\s*gb\s*(?:of\s+)?(?:ram|memory|memori)\b`), func(m []string) string { return m[1] + "GB RAM" }},
	{regexp.MustCompile(`\b(?:ram|memory|memori)\s*(\d{1,3})\s*gb\b`), func(m []string) string { return m[1] + "GB RAM" }},
	// CPU: "core i7-12700h", "i5", "ryzen 7 5800h"
	{regexp.MustCompile(`\b(?:intel\s+)?(?:core\s+)?(i[3579])(?:[-\s](\d{4,5}[a-z]{0,2}))?\b`), func(m []string) string {
		if m[2] != "" {
			return "core " + m[1] + "-" + m[2]
		}
		return "core " + m[1]
	}},
	{regexp.MustCompile(`\b(?:amd\s+)?ryzen\s*([3579])(?:\s+(\d{4}[a-z]{0,2}))?\b`), func(m []string) string {
		if m[2] != "" {
			return "ryzen " + m[1] + " " + m[2]
		}
		return "ryzen " + m[1]
	}},
	// Storage: "512gb ssd", "ssd 1tb"
	{regexp.MustCompile(`\b(\d{1,4})\s*(gb|tb)\s*(ssd|hdd|emmc|nvme|ufs|storage|internal)\b`), func(m []string) string {
		return m[1] + strings.ToUpper(m[2]) + " " + storageLabel(m[3])
	}},
	{regexp.MustCompile(`\b(ssd|hdd|emmc|nvme|storage)\s*(\d{1,4})\s*(gb|tb)\b`), func(m []string) string {
		return m[2] + strings.ToUpper(m[3]) + " " + storageLabel(m[1])
	}},
	// Screen size: `14 inch`, `15.6"`
	{regexp.MustCompile(`\b(\d{1,2}(?:[.,]\d)?)\s*(?:inch|inci|")`), func(m []string) string {
		return strings.ReplaceAll(m[1], ",", ".") + " inch"
	}},
	// Chipset and GPU families
	{regexp.MustCompile(`\b(snapdragon\s*(?:\d\s*gen\s*\d|\d{3,4})|dimensity\s*\d{3,4}|helio\s*[a-z]?\d{2,3}|exynos\s*\d{3,4}|tensor(?:\s*g\d)?|(?:rtx|gtx)\s*\d{4}(?:\s*ti)?)\b`), func(m []string) string {
		return strings.Join(strings.Fields(m[1]), " ")
	}},
	// Refresh rate and battery
	{regexp.MustCompile(`\b(\d{2,3})\s*hz\b`), func(m []string) string { return m[1] + "Hz" }},
	{regexp.MustCompile(`\b(\d{4,5})\s*mah\b`), func(m []string) string { return m[1] + "mAh" }},
	// Noise cancelling
	{regexp.MustCompile(`\b(?:active\s+)?noise[-\s]?cancel+(?:ing|ation)?\b|\banc\b`), func(m []string) string { return "noise cancelling" }},
}

// colorTokens maps recognized color words to their canonical English name
var colorTokens = map[string]string{
	"red": "red", "blue": "blue", "black": "black", "white": "white",
	"green": "green", "yellow": "yellow", "pink": "pink", "purple": "purple",
	"grey": "grey", "gray": "grey", "silver": "silver", "gold": "gold",
	"orange": "orange", "brown": "brown", "navy": "navy",
	"merah": "red", "biru": "blue", "hitam": "black", "putih": "white",
	"hijau": "green", "kuning": "yellow", "ungu": "purple", "abu": "grey",
}

// featureTokens are single-word features worth keeping as constraints
var featureTokens = []string{
	"gaming", "wireless", "bluetooth", "waterproof", "mechanical", "rgb",
	"5g", "nfc", "oled", "amoled", "touchscreen", "lightweight", "portable",
	"ergonomic", "foldable", "slim", "ultrabook", "2-in-1",
}

// keywordStopWords are stripped from a keyword: determiners, politeness, request verbs
var keywordStopWords = map[string]bool{
	// Determiners
	"a": true, "an": true, "the": true, "some": true, "any": true, "this": true, "that": true,
	"my": true, "me": true, "i": true, "for": true, "with": true, "of": true,
	// Politeness
	"please": true, "pls": true, "plz": true, "kindly": true, "thanks": true, "tolong": true,
	"dong": true, "ya": true, "kak": true, "gan": true,
	// Request verbs
	"want": true, "need": true, "looking": true, "find": true, "search": true, "show": true,
	"buy": true, "get": true, "recommend": true, "mau": true, "cari": true, "carikan": true,
	"ingin": true, "butuh": true, "beli": true, "yang": true, "untuk": true,
}

var (
	punctuationRegex = regexp.MustCompile(`[^\w\s\-+]`)
	multiSpaceRegex  = regexp.MustCompile(`\s+`)
)

// NewQueryPreprocessor creates a new query preprocessor
func NewQueryPreprocessor(enableDebugLogging bool) *QueryPreprocessor {
	return &QueryPreprocessor{
		enableDebugLogging: enableDebugLogging,
	}
}

// CleanKeyword strips stop words and colors from a keyword and keeps its first two
// meaningful tokens. Removed colors are returned as "<color> color" constraints.
// Token case is preserved.
func (p *QueryPreprocessor) CleanKeyword(keyword string) (string, []string) {
	var kept, colors []string

	for _, word := range strings.Fields(keyword) {
		token := strings.ToLower(strings.Trim(word, ",.!?;:'\"()"))
		if token == "" || keywordStopWords[token] {
			continue
		}
		if color, ok := colorTokens[token]; ok {
			colors = append(colors, color+" color")
			continue
		}
		kept = append(kept, strings.Trim(word, ",.!?;:'\"()"))
	}

	if len(kept) > maxKeywordTokens {
		kept = kept[:maxKeywordTokens]
	}
	cleaned := strings.Join(kept, " ")

	if p.enableDebugLogging {
		zap.L().Debug("cleaned keyword",
			zap.String("input", keyword),
			zap.String("output", cleaned),
			zap.Strings("colors", colors),
		)
	}
	return cleaned, colors
}

// ExtractSpecs returns the spec constraints mentioned in a message, in mention order.
// Compound specs are matched first and masked so their parts are not counted again.
func (p *QueryPreprocessor) ExtractSpecs(message string) []string {
	text := strings.ToLower(message)

	type found struct {
		pos  int
		spec string
	}
	var hits []found

	for _, pattern := range structuralSpecPatterns {
		for _, idx := range pattern.re.FindAllStringSubmatchIndex(text, -1) {
			groups := make([]string, len(idx)/2)
			for i := range groups {
				if idx[2*i] >= 0 {
					groups[i] = text[idx[2*i]:idx[2*i+1]]
				}
			}
			hits = append(hits, found{pos: idx[0], spec: pattern.render(groups)})
			text = text[:idx[0]] + strings.Repeat(" ", idx[1]-idx[0]) + text[idx[1]:]
		}
	}

	for _, pos := range tokenPositions(text) {
		token := pos.token
		if color, ok := colorTokens[token]; ok {
			hits = append(hits, found{pos: pos.offset, spec: color + " color"})
			continue
		}
		for _, feature := range featureTokens {
			if token == feature {
				hits = append(hits, found{pos: pos.offset, spec: feature})
				break
			}
		}
	}

	// stable insertion sort by position keeps mention order
	for i := 1; i < len(hits); i++ {
		for j := i; j > 0 && hits[j].pos < hits[j-1].pos; j-- {
			hits[j], hits[j-1] = hits[j-1], hits[j]
		}
	}

	specs := make([]string, 0, len(hits))
	seen := make(map[string]bool, len(hits))
	for _, h := range hits {
		if !seen[h.spec] {
			seen[h.spec] = true
			specs = append(specs, h.spec)
		}
	}
	return specs
}

// IsColor reports whether token is a recognized color word
func IsColor(token string) bool {
	_, ok := colorTokens[strings.ToLower(token)]
	return ok
}

type tokenPosition struct {
	token  string
	offset int
}

// tokenPositions splits lowercased text into punctuation-free tokens with their byte offsets
func tokenPositions(text string) []tokenPosition {
	var out []tokenPosition
	start := -1
	isTokenByte := func(c byte) bool {
		return c == '-' || c == '_' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 0x80
	}
	for i := 0; i <= len(text); i++ {
		if i < len(text) && isTokenByte(text[i]) {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			token := strings.Trim(text[start:i], "-_")
			if token != "" {
				out = append(out, tokenPosition{token: token, offset: start})
			}
			start = -1
		}
	}
	return out
}

// tokenize lowercases text, removes punctuation, and splits on whitespace
func tokenize(text string) []string {
	cleaned := punctuationRegex.ReplaceAllString(strings.ToLower(text), " ")
	cleaned = multiSpaceRegex.ReplaceAllString(cleaned, " ")
	return strings.Fields(cleaned)
}

func storageLabel(kind string) string {
	switch kind {
	case "ssd", "hdd", "emmc", "nvme", "ufs":
		return strings.ToUpper(kind)
	default:
		return "storage"
	}
}
