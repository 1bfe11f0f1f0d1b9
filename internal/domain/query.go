package domain

import "strings"

// Role identifies the author of a conversation turn
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ConversationTurn is a single message in a chat history
type ConversationTurn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ResponseType classifies what the assistant is doing on a turn
type ResponseType string

const (
	ResponseGreeting      ResponseType = "greeting"
	ResponseClarification ResponseType = "clarification"
	ResponseConfirmation  ResponseType = "confirmation"
	ResponseSearch        ResponseType = "search"
)

// Valid reports whether t is one of the known response types
func (t ResponseType) Valid() bool {
	switch t {
	case ResponseGreeting, ResponseClarification, ResponseConfirmation, ResponseSearch:
		return true
	}
	return false
}

// MinKeywordLength is the shortest keyword that can be searched
const MinKeywordLength = 2

// AccumulatedQuery is the running structured request built up over a conversation.
// Nil pointers mean "not yet known".
type AccumulatedQuery struct {
	IsSearch              bool     `json:"isSearch"`
	Keyword               *string  `json:"keyword"`
	Category              *string  `json:"category,omitempty"`
	PreferredBrand        *string  `json:"preferredBrand,omitempty"`
	MinPrice              *int64   `json:"minPrice,omitempty"`
	MaxPrice              *int64   `json:"maxPrice,omitempty"`
	MinRating             *float64 `json:"minRating,omitempty"`
	SpecConstraints       []string `json:"specConstraints"`
	UserLocation          *string  `json:"userLocation,omitempty"`
	NeedsClarification    bool     `json:"needsClarification"`
	ClarificationQuestion *string  `json:"clarificationQuestion,omitempty"`
	BudgetAsked           bool     `json:"budgetAsked"`
	SpecsAsked            bool     `json:"specsAsked"`
	BrandAsked            bool     `json:"brandAsked"`
}

// Clone returns a deep copy so callers can transform a query without aliasing the prior value
func (q *AccumulatedQuery) Clone() *AccumulatedQuery {
	if q == nil {
		return &AccumulatedQuery{SpecConstraints: []string{}}
	}
	out := *q
	out.Keyword = cloneString(q.Keyword)
	out.Category = cloneString(q.Category)
	out.PreferredBrand = cloneString(q.PreferredBrand)
	out.UserLocation = cloneString(q.UserLocation)
	out.ClarificationQuestion = cloneString(q.ClarificationQuestion)
	if q.MinPrice != nil {
		v := *q.MinPrice
		out.MinPrice = &v
	}
	if q.MaxPrice != nil {
		v := *q.MaxPrice
		out.MaxPrice = &v
	}
	if q.MinRating != nil {
		v := *q.MinRating
		out.MinRating = &v
	}
	out.SpecConstraints = append([]string{}, q.SpecConstraints...)
	return &out
}

// KeywordValue returns the keyword or "" when unset
func (q *AccumulatedQuery) KeywordValue() string {
	if q == nil || q.Keyword == nil {
		return ""
	}
	return *q.Keyword
}

// HasKeyword reports whether a non-blank keyword has been accumulated
func (q *AccumulatedQuery) HasKeyword() bool {
	return strings.TrimSpace(q.KeywordValue()) != ""
}

// HasPriceBounds reports whether either price bound is set to a positive amount
func (q *AccumulatedQuery) HasPriceBounds() bool {
	if q == nil {
		return false
	}
	return (q.MinPrice != nil && *q.MinPrice > 0) || (q.MaxPrice != nil && *q.MaxPrice > 0)
}

// IsSearchable reports whether the query carries enough to run a marketplace search
func (q *AccumulatedQuery) IsSearchable() bool {
	return len([]rune(strings.TrimSpace(q.KeywordValue()))) >= MinKeywordLength
}

// AddSpec appends a constraint unless an equal one (case-insensitive) is already present.
// Returns true when the constraint was added.
func (q *AccumulatedQuery) AddSpec(spec string) bool {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return false
	}
	for _, existing := range q.SpecConstraints {
		if strings.EqualFold(existing, spec) {
			return false
		}
	}
	q.SpecConstraints = append(q.SpecConstraints, spec)
	return true
}

// QueryPatch is a candidate update proposed for one turn, either by the NLU delegate
// or by the deterministic extractor. Nil means "no opinion".
type QueryPatch struct {
	IsSearch        *bool    `json:"isSearch"`
	Keyword         *string  `json:"keyword"`
	Category        *string  `json:"category"`
	PreferredBrand  *string  `json:"preferredBrand"`
	MinPrice        *int64   `json:"minPrice"`
	MaxPrice        *int64   `json:"maxPrice"`
	MinRating       *float64 `json:"minRating"`
	SpecConstraints []string `json:"specConstraints"`
}

// AccumulateInput is everything one turn of the accumulator needs
type AccumulateInput struct {
	Message      string             `json:"message"`
	PriorQuery   *AccumulatedQuery  `json:"priorQuery,omitempty"`
	History      []ConversationTurn `json:"history,omitempty"`
	UserLocation *string            `json:"userLocation,omitempty"`
}

// TurnResult is the outcome of one accumulator turn
type TurnResult struct {
	UpdatedQuery    *AccumulatedQuery `json:"updatedQuery"`
	ResponseMessage string            `json:"responseMessage"`
	ResponseType    ResponseType      `json:"responseType"`
	QuickReplies    []string          `json:"quickReplies"`
}

// StringPtr returns a pointer to s, or nil when s is blank
func StringPtr(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
