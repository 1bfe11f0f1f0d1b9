package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// GuestSessionPrefix marks sessions that belong to anonymous users
const GuestSessionPrefix = "guest_"

// ChatSession is the persisted state of one conversation
type ChatSession struct {
	ID               string             `json:"id"`
	AccumulatedQuery *AccumulatedQuery  `json:"accumulatedQuery,omitempty"`
	History          []ConversationTurn `json:"history"`
	LastResults      []ScoredProduct    `json:"lastResults,omitempty"`
	CreatedAt        time.Time          `json:"createdAt"`
	UpdatedAt        time.Time          `json:"updatedAt"`
}

// NewGuestSessionID returns a fresh guest session identifier
func NewGuestSessionID() string {
	return GuestSessionPrefix + uuid.NewString()
}

// IsGuestSessionID reports whether id was issued by NewGuestSessionID
func IsGuestSessionID(id string) bool {
	rest, ok := strings.CutPrefix(id, GuestSessionPrefix)
	if !ok {
		return false
	}
	_, err := uuid.Parse(rest)
	return err == nil
}

// NewChatSession starts an empty conversation. An empty id gets a guest id.
func NewChatSession(id string, now time.Time) *ChatSession {
	if id == "" {
		id = NewGuestSessionID()
	}
	return &ChatSession{
		ID:               id,
		AccumulatedQuery: (*AccumulatedQuery)(nil).Clone(),
		History:          []ConversationTurn{},
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// AppendTurn records a message in the session history
func (s *ChatSession) AppendTurn(role Role, content string) {
	s.History = append(s.History, ConversationTurn{Role: role, Content: content})
}

// RecentHistory returns at most n of the latest turns
func RecentHistory(history []ConversationTurn, n int) []ConversationTurn {
	if n <= 0 || len(history) <= n {
		return history
	}
	return history[len(history)-n:]
}
