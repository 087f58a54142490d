// Package redisstore persists funnel sessions in Redis as JSON with a TTL.
// Expiry is the store's responsibility: the orchestrator never destroys a
// session, conversations simply age out.
package redisstore

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Shetty-boy/Omnichannel-Agent-AI/internal/domain"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const sessionKeyPrefix = "session:"

// DefaultTTL matches the original 24-hour conversation window.
const DefaultTTL = 24 * time.Hour

// SessionStore implements port.SessionStore on Redis.
type SessionStore struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewSessionStore creates a Redis-backed session store. A zero ttl means
// DefaultTTL.
func NewSessionStore(client *redis.Client, ttl time.Duration, logger *zap.Logger) *SessionStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &SessionStore{client: client, ttl: ttl, logger: logger}
}

// Load returns the stored session, or nil for an unknown or expired id so
// the caller starts a fresh conversation.
func (s *SessionStore) Load(ctx context.Context, sessionID string) (*domain.Session, error) {
	data, err := s.client.Get(ctx, sessionKeyPrefix+sessionID).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var sess domain.Session
	if err := json.Unmarshal([]byte(data), &sess); err != nil {
		// A corrupt session is unrecoverable; dropping it restarts the
		// funnel instead of wedging the conversation.
		s.logger.Warn("corrupt session dropped",
			zap.String("session_id", sessionID),
			zap.Error(err),
		)
		return nil, nil
	}
	return &sess, nil
}

// Save persists the session and refreshes its TTL.
func (s *SessionStore) Save(ctx context.Context, sessionID string, sess *domain.Session) error {
	b, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, sessionKeyPrefix+sessionID, b, s.ttl).Err()
}
