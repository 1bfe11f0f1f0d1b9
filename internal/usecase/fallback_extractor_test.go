package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrapedgit/backend/internal/domain"
)

func TestIsGreeting(t *testing.T) {
	tests := []struct {
		message string
		want    bool
	}{
		{"Hi", true},
		{"hello!", true},
		{"  Halo  ", true},
		{"p", true},
		{"hi there", false},
		{"hello I need a laptop", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := IsGreeting(tt.message); got != tt.want {
			t.Errorf("IsGreeting(%q) = %v, want %v", tt.message, got, tt.want)
		}
	}
}

func TestIsNoPreference(t *testing.T) {
	tests := []struct {
		message string
		want    bool
	}{
		{"No budget limit", true},
		{"No, please search", true},
		{"idk", true},
		{"doesn't matter", true},
		{"surprise me", true},
		{"terserah", true},
		{"notebook", false},
		{"nokia phone", false},
		{"laptop", false},
	}

	for _, tt := range tests {
		if got := IsNoPreference(tt.message); got != tt.want {
			t.Errorf("IsNoPreference(%q) = %v, want %v", tt.message, got, tt.want)
		}
	}
}

func TestCorrectionTarget(t *testing.T) {
	tests := []struct {
		message string
		want    string
		wantOK  bool
	}{
		{"not laptop, but tablet", "tablet", true},
		{"Actually I want a phone", "a phone", true},
		{"I mean earbuds", "earbuds", true},
		{"change it to monitor", "monitor", true},
		{"keyboard instead", "keyboard", true},
		{"actually, earbuds", "earbuds", true},
		{"actually I mean a tablet", "a tablet", true},
		{"actually I'd like a red one", "", false},
		{"actually, make it cheaper", "", false},
		{"I mean the budget is flexible", "", false},
		{"gaming", "", false},
	}

	for _, tt := range tests {
		got, ok := CorrectionTarget(tt.message)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("CorrectionTarget(%q) = (%q, %v), want (%q, %v)", tt.message, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestFallbackExtractor_Candidate(t *testing.T) {
	e := NewFallbackExtractor(nil)

	t.Run("canonicalizes handphone synonyms", func(t *testing.T) {
		for _, msg := range []string{"handphone murah", "cari hp", "smartphone 5g"} {
			patch := e.Candidate(msg, nil)
			require.NotNil(t, patch.Keyword, msg)
			assert.Equal(t, "phone", *patch.Keyword, msg)
			assert.Equal(t, "phones", *patch.Category, msg)
		}
	})

	t.Run("hp used as product is not a brand", func(t *testing.T) {
		patch := e.Candidate("hp samsung", nil)
		assert.Equal(t, "phone", *patch.Keyword)
		assert.Equal(t, "samsung", *patch.PreferredBrand)

		patch = e.Candidate("hp", nil)
		assert.Nil(t, patch.PreferredBrand)
	})

	t.Run("hp next to another product is a brand", func(t *testing.T) {
		patch := e.Candidate("hp laptop", nil)
		assert.Equal(t, "laptop", *patch.Keyword)
		assert.Equal(t, "hp", *patch.PreferredBrand)
	})

	t.Run("longer product terms win", func(t *testing.T) {
		patch := e.Candidate("wireless headphone", nil)
		assert.Equal(t, "headphone", *patch.Keyword)
		assert.Equal(t, []string{"wireless"}, patch.SpecConstraints)
	})

	t.Run("derives keyword from unknown product", func(t *testing.T) {
		patch := e.Candidate("I need a rice cooker please", nil)
		require.NotNil(t, patch.Keyword)
		assert.Equal(t, "rice cooker", *patch.Keyword)
	})

	t.Run("derived keyword skips numbers brands colors and features", func(t *testing.T) {
		patch := e.Candidate("asus vivobook black gaming 16gb ram under 10jt", nil)
		require.NotNil(t, patch.Keyword)
		assert.Equal(t, "vivobook", *patch.Keyword)
		assert.Equal(t, "asus", *patch.PreferredBrand)
		assert.Equal(t, int64(10000000), *patch.MaxPrice)
		assert.Equal(t, []string{"black color", "gaming", "16GB RAM"}, patch.SpecConstraints)
	})

	t.Run("quick replies carry no keyword", func(t *testing.T) {
		for _, replies := range [][]string{GreetingQuickReplies, BudgetQuickReplies, SpecsQuickReplies, ConfirmationQuickReplies} {
			for _, msg := range replies {
				patch := e.Candidate(msg, nil)
				assert.Nil(t, patch.Keyword, msg)
			}
		}
	})

	t.Run("minimum rating", func(t *testing.T) {
		patch := e.Candidate("phone rating 4.5+", nil)
		require.NotNil(t, patch.MinRating)
		assert.Equal(t, 4.5, *patch.MinRating)
		assert.Nil(t, patch.MinPrice)

		patch = e.Candidate("at least 4 stars", nil)
		require.NotNil(t, patch.MinRating)
		assert.Equal(t, 4.0, *patch.MinRating)
		assert.Nil(t, patch.MinPrice)
	})

	t.Run("correction reads keyword from the corrected part", func(t *testing.T) {
		prior := &domain.AccumulatedQuery{Keyword: strPtr("laptop")}
		patch := e.Candidate("not laptop, but tablet", prior)
		assert.Equal(t, "tablet", *patch.Keyword)
	})

	t.Run("range message", func(t *testing.T) {
		patch := e.Candidate("2-5 million", nil)
		assert.Nil(t, patch.Keyword)
		assert.Equal(t, int64(2000000), *patch.MinPrice)
		assert.Equal(t, int64(5000000), *patch.MaxPrice)
		require.NotNil(t, patch.IsSearch)
		assert.True(t, *patch.IsSearch)
	})
}

func TestFallbackExtractor_Extract(t *testing.T) {
	e := NewFallbackExtractor(nil)

	t.Run("greeting", func(t *testing.T) {
		got := e.Extract("Hi", nil, nil)
		assert.Equal(t, domain.ResponseGreeting, got.ResponseType)
		assert.False(t, got.UpdatedQuery.IsSearch)
	})

	t.Run("loose actually follow-ups keep the keyword", func(t *testing.T) {
		for _, msg := range []string{
			"actually I'd like a red one",
			"actually, make it cheaper",
			"I mean the budget is flexible",
		} {
			prior := &domain.AccumulatedQuery{Keyword: strPtr("laptop"), IsSearch: true}
			got := e.Extract(msg, prior, nil)
			assert.Equal(t, "laptop", got.UpdatedQuery.KeywordValue(), msg)
			for _, spec := range got.UpdatedQuery.SpecConstraints {
				assert.NotContains(t, spec, "id one", msg)
			}
		}
	})

	t.Run("actually with a product term corrects the keyword", func(t *testing.T) {
		prior := &domain.AccumulatedQuery{Keyword: strPtr("laptop"), IsSearch: true}
		got := e.Extract("actually, a tablet", prior, nil)
		assert.Equal(t, "tablet", got.UpdatedQuery.KeywordValue())
	})

	t.Run("always makes progress without a product term", func(t *testing.T) {
		got := e.Extract("mechanical something for coding", nil, nil)
		assert.Equal(t, "coding", got.UpdatedQuery.KeywordValue())
		assert.Equal(t, []string{"mechanical"}, got.UpdatedQuery.SpecConstraints)
		assert.Equal(t, BudgetQuickReplies, got.QuickReplies)
	})

	t.Run("unknown text asks for product", func(t *testing.T) {
		got := e.Extract("Help me find something", nil, nil)
		assert.False(t, got.UpdatedQuery.HasKeyword())
		assert.Equal(t, domain.ResponseClarification, got.ResponseType)
		assert.Equal(t, ProductQuickReplies, got.QuickReplies)
	})

	t.Run("user location is recorded", func(t *testing.T) {
		got := e.Extract("laptop", nil, strPtr("Medan"))
		assert.Equal(t, "Medan", *got.UpdatedQuery.UserLocation)
	})

	t.Run("color in keyword becomes spec", func(t *testing.T) {
		got := e.Extract("red tws", nil, nil)
		assert.Equal(t, "tws", got.UpdatedQuery.KeywordValue())
		assert.Equal(t, []string{"red color"}, got.UpdatedQuery.SpecConstraints)
	})
}
