package session

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rotisserie/eris"

	"github.com/scrapedgit/backend/internal/domain"
)

const (
	keyPrefix  = "session:"
	defaultTTL = 30 * time.Minute
)

// Store keeps chat sessions in a key-value store. Every save refreshes the TTL,
// so a session expires after the configured period of inactivity.
type Store struct {
	cache domain.CacheRepository
	ttl   time.Duration
	now   func() time.Time
}

// NewStore creates a session store on top of a cache repository
func NewStore(cache domain.CacheRepository, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Store{cache: cache, ttl: ttl, now: time.Now}
}

// New creates an unsaved session. An empty id gets a guest id.
func (s *Store) New(id string) *domain.ChatSession {
	return domain.NewChatSession(id, s.now())
}

// GetSession loads a session by id
func (s *Store) GetSession(ctx context.Context, id string) (*domain.ChatSession, error) {
	if id == "" {
		return nil, domain.ErrSessionNotFound
	}

	data, err := s.cache.Get(ctx, keyPrefix+id)
	if err != nil {
		if errors.Is(err, domain.ErrCacheMiss) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, eris.Wrapf(err, "load session %s", id)
	}

	var session domain.ChatSession
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, eris.Wrapf(err, "decode session %s", id)
	}
	return &session, nil
}

// SaveSession persists a session and refreshes its expiry
func (s *Store) SaveSession(ctx context.Context, session *domain.ChatSession) error {
	if session == nil || session.ID == "" {
		return eris.Wrap(domain.ErrInvalidRequest, "save session without id")
	}

	session.UpdatedAt = s.now()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = session.UpdatedAt
	}

	data, err := json.Marshal(session)
	if err != nil {
		return eris.Wrapf(err, "encode session %s", session.ID)
	}

	if err := s.cache.Set(ctx, keyPrefix+session.ID, data, s.ttl); err != nil {
		return eris.Wrapf(err, "save session %s", session.ID)
	}
	return nil
}

// DeleteSession removes a session
func (s *Store) DeleteSession(ctx context.Context, id string) error {
	if err := s.cache.Delete(ctx, keyPrefix+id); err != nil {
		return eris.Wrapf(err, "delete session %s", id)
	}
	return nil
}
