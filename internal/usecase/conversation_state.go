package usecase

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/scrapedgit/backend/internal/domain"
)

// Quick reply sets offered at each step of the conversation
var (
	GreetingQuickReplies     = []string{"Help me find something", "Show me popular products"}
	ProductQuickReplies      = []string{"Laptop", "Phone", "Earbuds", "Tablet", "Other"}
	BudgetQuickReplies       = []string{"Under 500K", "500K-2M", "2-5 million", "5-10 million", "No budget limit"}
	SpecsQuickReplies        = []string{"Yes, I have additional requirements", "No, please search"}
	ConfirmationQuickReplies = []string{"Yes, search now", "I want to modify"}
	ModifyQuickReplies       = []string{"Change product type", "Change budget", "Change brand", "Add specifications"}
)

const (
	greetingMessage      = "Hello! What product are you looking for today?"
	askProductMessage    = "What type of product are you looking for?"
	modifyMessage        = "What would you like to change? You can modify the product type, budget, brand preference, or specifications."
	confirmationTemplate = "Ready to search for %s. Shall I start the search?"
)

// gate is the next piece of information the conversation needs before it can search
type gate int

const (
	gateKeyword gate = iota
	gateBudget
	gateSpecs
	gateConfirmation
)

func (g gate) String() string {
	switch g {
	case gateKeyword:
		return "keyword"
	case gateBudget:
		return "budget"
	case gateSpecs:
		return "specs"
	default:
		return "confirmation"
	}
}

var (
	modifyIntentRegex = regexp.MustCompile(`^(?:i\s+want\s+to\s+(?:modify|change)|modify|ubah|edit)\b`)

	modifyCommands = []struct {
		re    *regexp.Regexp
		apply func(q *domain.AccumulatedQuery)
	}{
		{regexp.MustCompile(`^change\s+(?:the\s+)?product(?:\s+type)?$`), func(q *domain.AccumulatedQuery) {
			q.Keyword = nil
			q.Category = nil
		}},
		{regexp.MustCompile(`^change\s+(?:the\s+)?budget$`), func(q *domain.AccumulatedQuery) {
			q.MinPrice = nil
			q.MaxPrice = nil
			q.BudgetAsked = false
		}},
		{regexp.MustCompile(`^change\s+(?:the\s+)?brand$`), func(q *domain.AccumulatedQuery) {
			q.PreferredBrand = nil
			q.BrandAsked = false
			q.SpecsAsked = false
		}},
		{regexp.MustCompile(`^add\s+(?:more\s+)?spec(?:ification)?s?$`), func(q *domain.AccumulatedQuery) {
			q.SpecsAsked = false
		}},
	}
)

// nextGate returns the first unsatisfied gate for q
func nextGate(q *domain.AccumulatedQuery) gate {
	switch {
	case !q.HasKeyword():
		return gateKeyword
	case !q.HasPriceBounds() && !q.BudgetAsked:
		return gateBudget
	case !q.SpecsAsked:
		return gateSpecs
	default:
		return gateConfirmation
	}
}

// pendingGate is the question the user is most likely answering on this turn
func pendingGate(q *domain.AccumulatedQuery) gate {
	switch {
	case !q.HasKeyword():
		return gateKeyword
	case q.SpecsAsked:
		return gateSpecs
	case q.BudgetAsked:
		return gateBudget
	default:
		return nextGate(q)
	}
}

// markAsked records that g's question has been asked (or declined)
func markAsked(q *domain.AccumulatedQuery, g gate) {
	switch g {
	case gateBudget:
		q.BudgetAsked = true
	case gateSpecs:
		q.SpecsAsked = true
		q.BrandAsked = true
	}
}

// promptFor returns the question and quick replies for a gate
func promptFor(q *domain.AccumulatedQuery, g gate) (string, domain.ResponseType, []string) {
	switch g {
	case gateKeyword:
		return askProductMessage, domain.ResponseClarification, ProductQuickReplies
	case gateBudget:
		return fmt.Sprintf("What is your budget for the %s?", q.KeywordValue()), domain.ResponseClarification, BudgetQuickReplies
	case gateSpecs:
		return fmt.Sprintf("Do you have any specific requirements for the %s, like brand, specs, or color?", q.KeywordValue()),
			domain.ResponseClarification, SpecsQuickReplies
	default:
		return BuildConfirmationMessage(q), domain.ResponseConfirmation, ConfirmationQuickReplies
	}
}

// respond runs the clarification state machine over an updated query. When a delegate
// envelope is supplied its wording and quick replies are kept where they agree with the
// state machine.
func respond(q *domain.AccumulatedQuery, message string, delegate *domain.NLUResponse) domain.TurnResult {
	if IsNoPreference(message) {
		markAsked(q, pendingGate(q))
	}

	g := nextGate(q)
	text, responseType, quickReplies := promptFor(q, g)

	replaced := false
	if delegate != nil {
		text, responseType, quickReplies, replaced = overlayDelegate(q, delegate, text, responseType, quickReplies)
	}
	// the gate only counts as asked when its own question goes out
	if !replaced {
		markAsked(q, g)
	}

	return finishTurn(q, text, responseType, quickReplies)
}

// overlayDelegate reports whether the delegate's own question replaced the gate prompt
func overlayDelegate(
	q *domain.AccumulatedQuery,
	delegate *domain.NLUResponse,
	text string,
	responseType domain.ResponseType,
	quickReplies []string,
) (string, domain.ResponseType, []string, bool) {
	delegateType := delegate.ResponseType
	if delegateType == domain.ResponseSearch {
		delegateType = domain.ResponseConfirmation
	}
	delegateText := strings.TrimSpace(delegate.ResponseMessage)

	if len(delegate.QuickReplies) == 0 {
		if delegateType == responseType && responseType != domain.ResponseConfirmation && delegateText != "" {
			return delegateText, responseType, quickReplies, false
		}
		return text, responseType, quickReplies, false
	}

	switch {
	case delegateType == domain.ResponseConfirmation && !q.IsSearchable():
		return text, responseType, quickReplies, false
	case delegateType == domain.ResponseGreeting && q.HasKeyword():
		return text, responseType, quickReplies, false
	case delegateText == "":
		return text, responseType, quickReplies, false
	}
	return delegateText, delegateType, append([]string{}, delegate.QuickReplies...), true
}

func finishTurn(q *domain.AccumulatedQuery, text string, responseType domain.ResponseType, quickReplies []string) domain.TurnResult {
	q.NeedsClarification = responseType == domain.ResponseClarification
	if q.NeedsClarification {
		q.ClarificationQuestion = domain.StringPtr(text)
	} else {
		q.ClarificationQuestion = nil
	}

	return domain.TurnResult{
		UpdatedQuery:    q,
		ResponseMessage: text,
		ResponseType:    responseType,
		QuickReplies:    append([]string{}, quickReplies...),
	}
}

// greetingTurn answers a bare greeting. Before any keyword it greets; afterwards it is
// ignored and the pending question is repeated without changing state.
func greetingTurn(prior *domain.AccumulatedQuery, userLocation *string) domain.TurnResult {
	q := prior.Clone()
	if userLocation != nil && strings.TrimSpace(*userLocation) != "" {
		q.UserLocation = domain.StringPtr(*userLocation)
	}

	if !q.HasKeyword() {
		q.IsSearch = false
		return finishTurn(q, greetingMessage, domain.ResponseGreeting, GreetingQuickReplies)
	}

	text, responseType, quickReplies := promptFor(q, nextGate(q))
	return finishTurn(q, text, responseType, quickReplies)
}

// IsModifyIntent reports whether the user wants to revise an already confirmed-ready query
func IsModifyIntent(message string) bool {
	return modifyIntentRegex.MatchString(strings.ToLower(strings.TrimSpace(message)))
}

// ModifyTurn offers the list of things that can be changed, leaving the query untouched
func ModifyTurn(prior *domain.AccumulatedQuery) domain.TurnResult {
	return finishTurn(prior.Clone(), modifyMessage, domain.ResponseClarification, ModifyQuickReplies)
}

// applyModification clears the field named by a "Change ..." command so its gate is asked again
func applyModification(message string, q *domain.AccumulatedQuery) bool {
	lower := strings.ToLower(strings.TrimSpace(strings.TrimRight(message, ".!")))
	for _, cmd := range modifyCommands {
		if cmd.re.MatchString(lower) {
			cmd.apply(q)
			return true
		}
	}
	return false
}

// mergeCandidate folds a candidate patch into the prior query. Every field is
// candidate ?? prior; the keyword is only replaced on an explicit correction, otherwise a
// differing candidate keyword becomes a spec constraint. An "around N" phrase in the raw
// message overrides the price bounds unless the message also states an explicit range.
func mergeCandidate(
	prior *domain.AccumulatedQuery,
	candidate domain.QueryPatch,
	message string,
	userLocation *string,
	preprocessor *QueryPreprocessor,
) *domain.AccumulatedQuery {
	q := prior.Clone()

	if candidate.IsSearch != nil {
		q.IsSearch = *candidate.IsSearch
	}

	if kw := strings.TrimSpace(stringValue(candidate.Keyword)); kw != "" {
		_, corrected := CorrectionTarget(message)
		switch {
		case !q.HasKeyword(), corrected:
			q.Keyword = domain.StringPtr(kw)
		case !strings.EqualFold(kw, q.KeywordValue()):
			q.AddSpec(kw)
		}
	}

	if candidate.Category != nil && strings.TrimSpace(*candidate.Category) != "" {
		q.Category = domain.StringPtr(*candidate.Category)
	}
	if candidate.PreferredBrand != nil && strings.TrimSpace(*candidate.PreferredBrand) != "" {
		q.PreferredBrand = domain.StringPtr(*candidate.PreferredBrand)
	}
	if candidate.MinPrice != nil {
		v := max(0, *candidate.MinPrice)
		q.MinPrice = &v
	}
	if candidate.MaxPrice != nil {
		v := max(0, *candidate.MaxPrice)
		q.MaxPrice = &v
	}
	if candidate.MinRating != nil {
		v := *candidate.MinRating
		q.MinRating = &v
	}
	for _, spec := range candidate.SpecConstraints {
		q.AddSpec(spec)
	}

	if userLocation != nil && strings.TrimSpace(*userLocation) != "" {
		q.UserLocation = domain.StringPtr(*userLocation)
	}

	if _, hasRange := ParseRange(message); !hasRange {
		if around, ok := ParseAround(message); ok {
			q.MinPrice = around.Min
			q.MaxPrice = around.Max
		}
	}

	if q.HasKeyword() {
		cleaned, colors := preprocessor.CleanKeyword(q.KeywordValue())
		for _, color := range colors {
			q.AddSpec(color)
		}
		if cleaned != "" {
			q.Keyword = &cleaned
		} else if prior.HasKeyword() {
			q.Keyword = domain.StringPtr(prior.KeywordValue())
		} else {
			q.Keyword = nil
		}
		q.IsSearch = q.IsSearch || q.HasKeyword()
	}

	return q
}

// BuildConfirmationMessage summarises the query before a search is started
func BuildConfirmationMessage(q *domain.AccumulatedQuery) string {
	parts := []string{q.KeywordValue()}

	if q.PreferredBrand != nil && *q.PreferredBrand != "" {
		parts = append(parts, "brand: "+*q.PreferredBrand)
	}
	if q.HasPriceBounds() {
		lo, hi := "0", "no limit"
		if q.MinPrice != nil && *q.MinPrice > 0 {
			lo = FormatPrice(*q.MinPrice)
		}
		if q.MaxPrice != nil && *q.MaxPrice > 0 {
			hi = FormatPrice(*q.MaxPrice)
		}
		parts = append(parts, fmt.Sprintf("budget: %s-%s IDR", lo, hi))
	}
	if len(q.SpecConstraints) > 0 {
		parts = append(parts, "specs: "+strings.Join(q.SpecConstraints, ", "))
	}
	if q.UserLocation != nil && *q.UserLocation != "" {
		parts = append(parts, "shipping to: "+*q.UserLocation)
	}

	return fmt.Sprintf(confirmationTemplate, strings.Join(parts, ", "))
}

// ValidateQuery reports whether q can be searched and which fields are missing
func ValidateQuery(q *domain.AccumulatedQuery) (bool, []string) {
	var missing []string
	if !q.IsSearchable() {
		missing = append(missing, "keyword")
	}
	return len(missing) == 0, missing
}

func stringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
