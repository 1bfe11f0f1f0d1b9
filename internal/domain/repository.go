package domain

import (
	"context"
	"time"
)

// CacheRepository defines the interface for key-value storage with expiry
type CacheRepository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// SessionStore defines chat session persistence
type SessionStore interface {
	GetSession(ctx context.Context, id string) (*ChatSession, error)
	SaveSession(ctx context.Context, session *ChatSession) error
	DeleteSession(ctx context.Context, id string) error
}

// NLURequest is what the conversation accumulator sends to a language-model delegate
type NLURequest struct {
	SystemInstructions string
	History            []ConversationTurn
	PriorQueryJSON     string
	LocationHint       string
	CurrentMessage     string
}

// NLUResponse is the structured envelope a delegate must return
type NLUResponse struct {
	UpdatedQuery    *QueryPatch  `json:"updatedQuery"`
	ResponseMessage string       `json:"responseMessage"`
	ResponseType    ResponseType `json:"responseType"`
	QuickReplies    []string     `json:"quickReplies"`
}

// NLUDelegate interprets a user message with an external language model
type NLUDelegate interface {
	Interpret(ctx context.Context, req NLURequest) (*NLUResponse, error)
}

// ProductSource is a marketplace that can be searched for listings
type ProductSource interface {
	Name() string
	Search(ctx context.Context, query SearchQuery) ([]RawProduct, error)
}
