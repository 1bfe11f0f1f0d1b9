package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/scrapedgit/backend/internal/domain"
)

const defaultStoredResults = 50

// ChatResponseType tags what a chat reply carries
type ChatResponseType string

const (
	ChatGreeting      ChatResponseType = "greeting"
	ChatClarification ChatResponseType = "clarification"
	ChatConfirmation  ChatResponseType = "confirmation"
	ChatResults       ChatResponseType = "results"
	ChatNoResults     ChatResponseType = "no_results"
)

// ProductSearcher finds raw listings across marketplaces
type ProductSearcher interface {
	Search(ctx context.Context, query domain.SearchQuery) ([]domain.RawProduct, error)
}

// ChatRequest is one message from the user, or an explicit confirm/modify signal
type ChatRequest struct {
	Message       string  `json:"message"`
	SessionID     string  `json:"sessionId,omitempty"`
	UserLocation  *string `json:"userLocation,omitempty"`
	ConfirmSearch bool    `json:"confirmSearch,omitempty"`
	ModifySearch  bool    `json:"modifySearch,omitempty"`
}

// ChatResponse is the assistant's reply to one ChatRequest
type ChatResponse struct {
	SessionID        string                   `json:"sessionId"`
	Type             ChatResponseType         `json:"type"`
	Message          string                   `json:"message,omitempty"`
	QuickReplies     []string                 `json:"quickReplies,omitempty"`
	AccumulatedQuery *domain.AccumulatedQuery `json:"accumulatedQuery"`
	Products         []domain.ScoredProduct   `json:"products,omitempty"`
	Summary          *domain.ResultsSummary   `json:"summary,omitempty"`
}

// ChatServiceConfig holds configuration for the chat service
type ChatServiceConfig struct {
	DefaultLocation      string
	MaxProductsPerSource int
	// MaxStoredResults caps how many ranked products are kept on the session
	MaxStoredResults int
}

// ChatService runs a conversation: it loads the session, accumulates the query,
// executes confirmed searches, and persists the outcome.
type ChatService struct {
	accumulator     *Accumulator
	scoring         *ScoringEngine
	searcher        ProductSearcher
	sessions        domain.SessionStore
	defaultLocation string
	maxProducts     int
	maxStored       int
	now             func() time.Time
}

// NewChatService creates a chat service with its dependencies
func NewChatService(
	accumulator *Accumulator,
	scoring *ScoringEngine,
	searcher ProductSearcher,
	sessions domain.SessionStore,
	config ChatServiceConfig,
) *ChatService {
	location := strings.TrimSpace(config.DefaultLocation)
	if location == "" {
		location = defaultTargetCity
	}

	maxStored := config.MaxStoredResults
	if maxStored <= 0 {
		maxStored = defaultStoredResults
	}

	return &ChatService{
		accumulator:     accumulator,
		scoring:         scoring,
		searcher:        searcher,
		sessions:        sessions,
		defaultLocation: location,
		maxProducts:     config.MaxProductsPerSource,
		maxStored:       maxStored,
		now:             time.Now,
	}
}

// HandleMessage processes one chat request and returns the assistant's reply.
// Flow: load session -> modify | confirmed search | accumulate -> save session
func (s *ChatService) HandleMessage(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	message := strings.TrimSpace(req.Message)
	if message == "" && !req.ConfirmSearch && !req.ModifySearch {
		return nil, eris.Wrap(domain.ErrInvalidRequest, "message is required")
	}

	session, err := s.loadSession(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}

	if message != "" {
		session.AppendTurn(domain.RoleUser, message)
	}

	var resp *ChatResponse
	switch {
	case req.ModifySearch && session.AccumulatedQuery.HasKeyword():
		resp = s.turnResponse(session, ModifyTurn(session.AccumulatedQuery))

	case req.ConfirmSearch && session.AccumulatedQuery.IsSearchable():
		resp, err = s.executeSearch(ctx, session, req.UserLocation)
		if err != nil {
			return nil, err
		}

	default:
		if message == "" {
			// a confirm or modify signal before anything searchable was said
			resp = s.turnResponse(session, respond(session.AccumulatedQuery.Clone(), "", nil))
			break
		}
		history := session.History[:len(session.History)-1]
		turn := s.accumulator.Accumulate(ctx, domain.AccumulateInput{
			Message:      message,
			PriorQuery:   session.AccumulatedQuery,
			History:      history,
			UserLocation: req.UserLocation,
		})
		resp = s.turnResponse(session, turn)
	}

	if err := s.sessions.SaveSession(ctx, session); err != nil {
		return nil, eris.Wrap(err, "save chat session")
	}

	return resp, nil
}

// GetSession returns a stored session
func (s *ChatService) GetSession(ctx context.Context, id string) (*domain.ChatSession, error) {
	return s.sessions.GetSession(ctx, id)
}

// DeleteSession removes a stored session
func (s *ChatService) DeleteSession(ctx context.Context, id string) error {
	return s.sessions.DeleteSession(ctx, id)
}

// loadSession fetches the session or starts a new one. An unknown or expired id
// starts a fresh conversation under the same id.
func (s *ChatService) loadSession(ctx context.Context, id string) (*domain.ChatSession, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.NewChatSession("", s.now()), nil
	}

	session, err := s.sessions.GetSession(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			zap.L().Debug("chat session not found, starting new one", zap.String("session_id", id))
			return domain.NewChatSession(id, s.now()), nil
		}
		return nil, eris.Wrap(err, "load chat session")
	}

	if session.AccumulatedQuery == nil {
		session.AccumulatedQuery = (*domain.AccumulatedQuery)(nil).Clone()
	}
	return session, nil
}

// turnResponse records an accumulator turn on the session and converts it to a reply
func (s *ChatService) turnResponse(session *domain.ChatSession, turn domain.TurnResult) *ChatResponse {
	session.AccumulatedQuery = turn.UpdatedQuery
	session.AppendTurn(domain.RoleAssistant, turn.ResponseMessage)

	return &ChatResponse{
		SessionID:        session.ID,
		Type:             ChatResponseType(turn.ResponseType),
		Message:          turn.ResponseMessage,
		QuickReplies:     turn.QuickReplies,
		AccumulatedQuery: turn.UpdatedQuery,
	}
}

// executeSearch runs a confirmed search: marketplaces -> scoring -> summary
func (s *ChatService) executeSearch(ctx context.Context, session *domain.ChatSession, requestLocation *string) (*ChatResponse, error) {
	turn, err := s.accumulator.ConfirmSearch(session.AccumulatedQuery)
	if err != nil {
		return nil, err
	}
	query := turn.UpdatedQuery
	session.AccumulatedQuery = query

	raw, err := s.searcher.Search(ctx, domain.SearchQueryFrom(query, s.maxProducts))
	if err != nil {
		return nil, eris.Wrap(err, "search marketplaces")
	}

	keyword := query.KeywordValue()
	if len(raw) == 0 {
		text := fmt.Sprintf("Sorry, I couldn't find any products matching %q. Try a different search term or adjust your filters.", keyword)
		session.AppendTurn(domain.RoleAssistant, text)
		session.LastResults = nil
		return &ChatResponse{
			SessionID:        session.ID,
			Type:             ChatNoResults,
			Message:          text,
			AccumulatedQuery: query,
		}, nil
	}

	location := s.targetLocation(query, requestLocation)
	scored := s.scoring.Score(raw, location, nil)
	summary := Summarize(scored)

	text := fmt.Sprintf("Found %d products for %q", len(scored), keyword)
	session.AppendTurn(domain.RoleAssistant, text)
	session.LastResults = scored[:min(len(scored), s.maxStored)]

	zap.L().Info("search executed",
		zap.String("session_id", session.ID),
		zap.String("keyword", keyword),
		zap.String("location", location),
		zap.Int("products", len(scored)),
	)

	return &ChatResponse{
		SessionID:        session.ID,
		Type:             ChatResults,
		Message:          text,
		AccumulatedQuery: query,
		Products:         scored,
		Summary:          &summary,
	}, nil
}

// targetLocation picks the delivery city: the query's, then the request's, then the default
func (s *ChatService) targetLocation(query *domain.AccumulatedQuery, requestLocation *string) string {
	if query.UserLocation != nil && strings.TrimSpace(*query.UserLocation) != "" {
		return *query.UserLocation
	}
	if requestLocation != nil && strings.TrimSpace(*requestLocation) != "" {
		return *requestLocation
	}
	return s.defaultLocation
}
