// Package auth keeps pageserve sign-in sessions in Redis.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/lllypuk/eventboard/internal/application/appcore"
	"github.com/lllypuk/eventboard/internal/domain/errs"
)

const (
	defaultKeyPrefix = "pageserve:session:"
	defaultTTL       = 24 * time.Hour
)

// SessionStoreConfig contains configuration for SessionStore.
type SessionStoreConfig struct {
	Client    *redis.Client
	KeyPrefix string
	TTL       time.Duration
}

// SessionStore maps random session IDs to signed-in users. Entries expire after TTL.
type SessionStore struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// NewSessionStore creates a new Redis-based session store.
func NewSessionStore(cfg SessionStoreConfig) *SessionStore {
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = defaultKeyPrefix
	}
	if cfg.TTL <= 0 {
		cfg.TTL = defaultTTL
	}
	return &SessionStore{client: cfg.Client, keyPrefix: cfg.KeyPrefix, ttl: cfg.TTL}
}

func (s *SessionStore) sessionKey(sessionID string) string {
	return s.keyPrefix + sessionID
}

// TTL returns how long a saved session lives.
func (s *SessionStore) TTL() time.Duration {
	return s.ttl
}

// Create stores user under a new session ID and returns the ID.
func (s *SessionStore) Create(ctx context.Context, user *appcore.SessionUser) (string, error) {
	if user == nil || user.UserID == "" {
		return "", fmt.Errorf("%w: session user requires user_id", errs.ErrInvalidInput)
	}

	payload, err := json.Marshal(user)
	if err != nil {
		return "", fmt.Errorf("failed to encode session: %w", err)
	}

	sessionID := uuid.NewString()
	if err := s.client.Set(ctx, s.sessionKey(sessionID), payload, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("failed to store session: %w", err)
	}
	return sessionID, nil
}

// Get returns the user of a live session, or errs.ErrNotFound.
func (s *SessionStore) Get(ctx context.Context, sessionID string) (*appcore.SessionUser, error) {
	if sessionID == "" {
		return nil, errs.ErrNotFound
	}

	payload, err := s.client.Get(ctx, s.sessionKey(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("session: %w", errs.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	var user appcore.SessionUser
	if err := json.Unmarshal(payload, &user); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	return &user, nil
}

// Delete removes a session. Deleting an unknown session is not an error.
func (s *SessionStore) Delete(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if err := s.client.Del(ctx, s.sessionKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// Ping checks the Redis connection.
func (s *SessionStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
