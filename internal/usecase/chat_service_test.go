package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrapedgit/backend/internal/domain"
)

// MockSessionStore is an in-memory domain.SessionStore
type MockSessionStore struct {
	sessions  map[string]*domain.ChatSession
	saveError error
	saves     int
}

func NewMockSessionStore() *MockSessionStore {
	return &MockSessionStore{sessions: make(map[string]*domain.ChatSession)}
}

func (m *MockSessionStore) GetSession(ctx context.Context, id string) (*domain.ChatSession, error) {
	s, ok := m.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return s, nil
}

func (m *MockSessionStore) SaveSession(ctx context.Context, session *domain.ChatSession) error {
	if m.saveError != nil {
		return m.saveError
	}
	m.saves++
	m.sessions[session.ID] = session
	return nil
}

func (m *MockSessionStore) DeleteSession(ctx context.Context, id string) error {
	delete(m.sessions, id)
	return nil
}

// MockSearcher is a mock implementation of ProductSearcher
type MockSearcher struct {
	products  []domain.RawProduct
	err       error
	lastQuery domain.SearchQuery
	calls     int
}

func (m *MockSearcher) Search(ctx context.Context, query domain.SearchQuery) ([]domain.RawProduct, error) {
	m.calls++
	m.lastQuery = query
	if m.err != nil {
		return nil, m.err
	}
	return m.products, nil
}

func sampleListings() []domain.RawProduct {
	return []domain.RawProduct{
		{Name: "A", Price: 9000000, Rating: 4.5, SoldCount: 100, SellerLocation: "Jakarta", Source: "tokopedia"},
		{Name: "B", Price: 7000000, Rating: 4.8, SoldCount: 300, SellerLocation: "Surabaya", Source: "shopee"},
		{Name: "C", Price: 8000000, Rating: 4.0, SoldCount: 50, SellerLocation: "Medan", Source: "lazada"},
	}
}

func svcNow() time.Time {
	return time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
}

func newTestChatService(searcher ProductSearcher, store domain.SessionStore, config ChatServiceConfig) *ChatService {
	scoring := NewScoringEngine(NewShippingEstimator(ShippingConfig{}), ScoringConfig{})
	return NewChatService(offlineAccumulator(), scoring, searcher, store, config)
}

func TestChatService_FullConversation(t *testing.T) {
	ctx := context.Background()
	store := NewMockSessionStore()
	searcher := &MockSearcher{products: sampleListings()}
	svc := newTestChatService(searcher, store, ChatServiceConfig{})

	resp, err := svc.HandleMessage(ctx, ChatRequest{Message: "Hi"})
	require.NoError(t, err)
	assert.Equal(t, ChatGreeting, resp.Type)
	assert.True(t, domain.IsGuestSessionID(resp.SessionID))
	sessionID := resp.SessionID

	steps := []struct {
		message      string
		wantType     ChatResponseType
		wantReplies  []string
		wantContains string
	}{
		{"gaming laptop", ChatClarification, BudgetQuickReplies, "budget"},
		{"5-10 million", ChatClarification, SpecsQuickReplies, "requirements"},
		{"No, please search", ChatConfirmation, ConfirmationQuickReplies, "Ready to search for laptop"},
	}

	for _, step := range steps {
		t.Run(step.message, func(t *testing.T) {
			resp, err := svc.HandleMessage(ctx, ChatRequest{Message: step.message, SessionID: sessionID})
			require.NoError(t, err)
			assert.Equal(t, step.wantType, resp.Type)
			assert.Equal(t, step.wantReplies, resp.QuickReplies)
			assert.Contains(t, resp.Message, step.wantContains)
			assert.Equal(t, sessionID, resp.SessionID)
		})
	}
	assert.Zero(t, searcher.calls, "search must wait for explicit confirmation")

	resp, err = svc.HandleMessage(ctx, ChatRequest{SessionID: sessionID, ConfirmSearch: true})
	require.NoError(t, err)
	assert.Equal(t, ChatResults, resp.Type)
	require.Len(t, resp.Products, 3)
	assert.Equal(t, 1, resp.Products[0].Rank)
	require.NotNil(t, resp.Summary)
	assert.Equal(t, 3, resp.Summary.TotalProducts)

	assert.Equal(t, "laptop", searcher.lastQuery.Keyword)
	assert.Equal(t, int64(5000000), *searcher.lastQuery.MinPrice)
	assert.Equal(t, int64(10000000), *searcher.lastQuery.MaxPrice)

	session := store.sessions[sessionID]
	require.NotNil(t, session)
	assert.True(t, session.AccumulatedQuery.IsSearch)
	assert.Len(t, session.LastResults, 3)
	// four user messages, five assistant replies
	assert.Len(t, session.History, 9)
	assert.Equal(t, domain.RoleAssistant, session.History[len(session.History)-1].Role)
}

func TestChatService_ConfirmWithoutKeyword(t *testing.T) {
	searcher := &MockSearcher{products: sampleListings()}
	svc := newTestChatService(searcher, NewMockSessionStore(), ChatServiceConfig{})

	resp, err := svc.HandleMessage(context.Background(), ChatRequest{ConfirmSearch: true})
	require.NoError(t, err)
	assert.Equal(t, ChatClarification, resp.Type)
	assert.Equal(t, ProductQuickReplies, resp.QuickReplies)
	assert.Zero(t, searcher.calls)
}

func TestChatService_NoResults(t *testing.T) {
	ctx := context.Background()
	store := NewMockSessionStore()
	session := domain.NewChatSession("guest_test", svcNow())
	session.AccumulatedQuery.Keyword = strPtr("kulkas")
	store.sessions[session.ID] = session

	svc := newTestChatService(&MockSearcher{}, store, ChatServiceConfig{})
	resp, err := svc.HandleMessage(ctx, ChatRequest{SessionID: session.ID, ConfirmSearch: true})
	require.NoError(t, err)
	assert.Equal(t, ChatNoResults, resp.Type)
	assert.Contains(t, resp.Message, `"kulkas"`)
	assert.Empty(t, resp.Products)
}

func TestChatService_SearchError(t *testing.T) {
	store := NewMockSessionStore()
	session := domain.NewChatSession("guest_test", svcNow())
	session.AccumulatedQuery.Keyword = strPtr("laptop")
	store.sessions[session.ID] = session

	svc := newTestChatService(&MockSearcher{err: errors.New("upstream down")}, store, ChatServiceConfig{})
	_, err := svc.HandleMessage(context.Background(), ChatRequest{SessionID: session.ID, ConfirmSearch: true})
	require.Error(t, err)
	assert.Zero(t, store.saves)
}

func TestChatService_Modify(t *testing.T) {
	store := NewMockSessionStore()
	session := domain.NewChatSession("guest_test", svcNow())
	session.AccumulatedQuery.Keyword = strPtr("laptop")
	store.sessions[session.ID] = session

	svc := newTestChatService(&MockSearcher{}, store, ChatServiceConfig{})
	resp, err := svc.HandleMessage(context.Background(), ChatRequest{SessionID: session.ID, ModifySearch: true})
	require.NoError(t, err)
	assert.Equal(t, ChatClarification, resp.Type)
	assert.Equal(t, ModifyQuickReplies, resp.QuickReplies)
	assert.Equal(t, "laptop", resp.AccumulatedQuery.KeywordValue())

	resp, err = svc.HandleMessage(context.Background(), ChatRequest{SessionID: session.ID, Message: "Change budget"})
	require.NoError(t, err)
	assert.Equal(t, BudgetQuickReplies, resp.QuickReplies)
}

func TestChatService_StoredResultsAreCapped(t *testing.T) {
	store := NewMockSessionStore()
	session := domain.NewChatSession("guest_test", svcNow())
	session.AccumulatedQuery.Keyword = strPtr("laptop")
	store.sessions[session.ID] = session

	svc := newTestChatService(&MockSearcher{products: sampleListings()}, store, ChatServiceConfig{MaxStoredResults: 2})
	resp, err := svc.HandleMessage(context.Background(), ChatRequest{SessionID: session.ID, ConfirmSearch: true})
	require.NoError(t, err)
	assert.Len(t, resp.Products, 3)
	assert.Len(t, store.sessions[session.ID].LastResults, 2)
}

func TestChatService_Errors(t *testing.T) {
	t.Run("empty message", func(t *testing.T) {
		svc := newTestChatService(&MockSearcher{}, NewMockSessionStore(), ChatServiceConfig{})
		_, err := svc.HandleMessage(context.Background(), ChatRequest{Message: "  "})
		assert.True(t, errors.Is(err, domain.ErrInvalidRequest))
	})

	t.Run("save failure", func(t *testing.T) {
		store := NewMockSessionStore()
		store.saveError = domain.ErrCacheUnavailable
		svc := newTestChatService(&MockSearcher{}, store, ChatServiceConfig{})
		_, err := svc.HandleMessage(context.Background(), ChatRequest{Message: "laptop"})
		assert.True(t, errors.Is(err, domain.ErrCacheUnavailable))
	})
}

func TestChatService_UnknownSessionKeepsID(t *testing.T) {
	store := NewMockSessionStore()
	svc := newTestChatService(&MockSearcher{}, store, ChatServiceConfig{})

	resp, err := svc.HandleMessage(context.Background(), ChatRequest{SessionID: "guest_expired", Message: "phone"})
	require.NoError(t, err)
	assert.Equal(t, "guest_expired", resp.SessionID)
	assert.Contains(t, store.sessions, "guest_expired")
}

func TestChatService_TargetLocation(t *testing.T) {
	svc := newTestChatService(&MockSearcher{}, NewMockSessionStore(), ChatServiceConfig{DefaultLocation: "Bandung"})

	tests := []struct {
		name    string
		query   *domain.AccumulatedQuery
		request *string
		want    string
	}{
		{"query location wins", &domain.AccumulatedQuery{UserLocation: strPtr("Medan")}, strPtr("Surabaya"), "Medan"},
		{"request location", &domain.AccumulatedQuery{}, strPtr("Surabaya"), "Surabaya"},
		{"blank request location", &domain.AccumulatedQuery{}, strPtr("  "), "Bandung"},
		{"default", &domain.AccumulatedQuery{}, nil, "Bandung"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := svc.targetLocation(tt.query, tt.request); !strings.EqualFold(got, tt.want) {
				t.Errorf("targetLocation() = %q, want %q", got, tt.want)
			}
		})
	}
}
