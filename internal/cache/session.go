package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Session is the server-side record of a login
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Scope     string    `json:"scope"`
	CreatedAt time.Time `json:"created_at"`
}

// SessionStore keeps sessions in a Cache under their own prefix
type SessionStore struct {
	cache  Cache
	prefix string
	ttl    time.Duration
}

func NewSessionStore(c Cache, prefix string, ttl time.Duration) *SessionStore {
	return &SessionStore{cache: c, prefix: prefix, ttl: ttl}
}

// Create stores a new session and returns it
func (s *SessionStore) Create(ctx context.Context, userID, scope string) (Session, error) {
	sess := Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		Scope:     scope,
		CreatedAt: time.Now().UTC(),
	}
	raw, err := json.Marshal(sess)
	if err != nil {
		return Session{}, err
	}
	if err := s.cache.Set(ctx, s.prefix+sess.ID, raw, s.ttl); err != nil {
		return Session{}, fmt.Errorf("store session: %w", err)
	}
	return sess, nil
}

// Get loads a session; false when it expired or never existed
func (s *SessionStore) Get(ctx context.Context, id string) (Session, bool) {
	var sess Session
	if !GetJSON(ctx, s.cache, s.prefix+id, &sess) {
		return Session{}, false
	}
	return sess, true
}

func (s *SessionStore) Delete(ctx context.Context, id string) {
	s.cache.Delete(ctx, s.prefix+id)
}
