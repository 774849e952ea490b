package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/neexbeast/getaway-planner/internal/conversation"
)

const DefaultSessionTTL = 24 * time.Hour

// Sessions stores each chat session's conversation context. Every save
// pushes the expiry out again.
type Sessions struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSessions constructs a Sessions store. ttl ≤ 0 means DefaultSessionTTL.
func NewSessions(client *redis.Client, ttl time.Duration) *Sessions {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &Sessions{client: client, ttl: ttl}
}

func sessionKey(id string) string {
	return "session:" + id
}

// Get returns nil, nil for an unknown or expired session.
func (s *Sessions) Get(ctx context.Context, id string) (*conversation.Context, error) {
	var cc conversation.Context
	ok, err := getJSON(ctx, s.client, sessionKey(id), &cc)
	if err != nil {
		return nil, fmt.Errorf("loading session %s: %w", id, err)
	}
	if !ok {
		return nil, nil
	}
	return &cc, nil
}

func (s *Sessions) Save(ctx context.Context, id string, cc conversation.Context) error {
	if err := setJSON(ctx, s.client, sessionKey(id), cc, s.ttl); err != nil {
		return fmt.Errorf("saving session %s: %w", id, err)
	}
	return nil
}

func (s *Sessions) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, sessionKey(id)).Err(); err != nil {
		return fmt.Errorf("deleting session %s: %w", id, err)
	}
	return nil
}
