package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGuestSessionID(t *testing.T) {
	id := NewGuestSessionID()
	assert.True(t, strings.HasPrefix(id, GuestSessionPrefix))
	assert.True(t, IsGuestSessionID(id))
	assert.NotEqual(t, id, NewGuestSessionID())

	tests := []struct {
		name string
		id   string
		want bool
	}{
		{"no prefix", "3f2b8c1e-8f7a-4d0e-9d6b-1c2a3b4c5d6e", false},
		{"prefix without uuid", "guest_abc", false},
		{"empty", "", false},
		{"valid", "guest_3f2b8c1e-8f7a-4d0e-9d6b-1c2a3b4c5d6e", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsGuestSessionID(tt.id))
		})
	}
}

func TestNewChatSession(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	s := NewChatSession("", now)
	assert.True(t, IsGuestSessionID(s.ID))
	require.NotNil(t, s.AccumulatedQuery)
	assert.NotNil(t, s.AccumulatedQuery.SpecConstraints)
	assert.Empty(t, s.History)
	assert.Equal(t, now, s.CreatedAt)

	s = NewChatSession("user_42", now)
	assert.Equal(t, "user_42", s.ID)

	s.AppendTurn(RoleUser, "laptop")
	s.AppendTurn(RoleAssistant, "What's your budget?")
	require.Len(t, s.History, 2)
	assert.Equal(t, RoleAssistant, s.History[1].Role)
}

func TestRecentHistory(t *testing.T) {
	history := make([]ConversationTurn, 8)
	for i := range history {
		history[i] = ConversationTurn{Role: RoleUser, Content: string(rune('a' + i))}
	}

	assert.Len(t, RecentHistory(history, 6), 6)
	assert.Equal(t, "c", RecentHistory(history, 6)[0].Content)
	assert.Len(t, RecentHistory(history, 20), 8)
	assert.Len(t, RecentHistory(history, 0), 8)
}

func TestAccumulatedQuery_Clone(t *testing.T) {
	empty := (*AccumulatedQuery)(nil).Clone()
	require.NotNil(t, empty)
	assert.NotNil(t, empty.SpecConstraints)
	assert.Nil(t, empty.Keyword)

	maxPrice := int64(1000000)
	orig := &AccumulatedQuery{
		Keyword:         StringPtr("laptop"),
		MaxPrice:        &maxPrice,
		SpecConstraints: []string{"16GB RAM"},
	}
	cp := orig.Clone()
	*cp.Keyword = "phone"
	*cp.MaxPrice = 5
	cp.SpecConstraints[0] = "changed"

	assert.Equal(t, "laptop", orig.KeywordValue())
	assert.Equal(t, int64(1000000), *orig.MaxPrice)
	assert.Equal(t, "16GB RAM", orig.SpecConstraints[0])
}

func TestAccumulatedQuery_Predicates(t *testing.T) {
	zero := int64(0)
	price := int64(500000)

	tests := []struct {
		name       string
		q          *AccumulatedQuery
		keyword    bool
		searchable bool
		bounds     bool
	}{
		{"nil", nil, false, false, false},
		{"blank keyword", &AccumulatedQuery{Keyword: StringPtr(" ")}, false, false, false},
		{"one rune", &AccumulatedQuery{Keyword: StringPtr("x")}, true, false, false},
		{"keyword", &AccumulatedQuery{Keyword: StringPtr("tv")}, true, true, false},
		{"zero price is not a bound", &AccumulatedQuery{MinPrice: &zero}, false, false, false},
		{"max price", &AccumulatedQuery{MaxPrice: &price}, false, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.keyword, tt.q.HasKeyword())
			assert.Equal(t, tt.searchable, tt.q.IsSearchable())
			assert.Equal(t, tt.bounds, tt.q.HasPriceBounds())
		})
	}
}

func TestAccumulatedQuery_AddSpec(t *testing.T) {
	q := (*AccumulatedQuery)(nil).Clone()
	assert.True(t, q.AddSpec("gaming"))
	assert.False(t, q.AddSpec("Gaming"))
	assert.False(t, q.AddSpec("  "))
	assert.Equal(t, []string{"gaming"}, q.SpecConstraints)
}

func TestSearchQueryFrom(t *testing.T) {
	assert.Equal(t, SearchQuery{MaxProducts: 10}, SearchQueryFrom(nil, 10))

	price := int64(2000000)
	q := &AccumulatedQuery{Keyword: StringPtr("phone"), PreferredBrand: StringPtr("Samsung"), MaxPrice: &price}
	sq := SearchQueryFrom(q, 5)
	assert.Equal(t, "phone", sq.Keyword)
	assert.Equal(t, "Samsung", sq.PreferredBrand)
	assert.Equal(t, &price, sq.MaxPrice)
	assert.Equal(t, 5, sq.MaxProducts)
}

func TestStringPtr(t *testing.T) {
	assert.Nil(t, StringPtr("  "))
	require.NotNil(t, StringPtr("x"))
	assert.Equal(t, "x", *StringPtr("x"))
}
