package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"accounts-backend/internal/features/session"
	"accounts-backend/internal/features/user/models"
)

const keyPrefixSession = "session:"

type Store struct {
	client *redis.Client
	ttl    time.Duration
}

func NewStore(client *redis.Client, ttl time.Duration) session.Store {
	return &Store{client: client, ttl: ttl}
}

func (s *Store) Create(ctx context.Context, identity models.SessionIdentity) (string, error) {
	data, err := json.Marshal(identity)
	if err != nil {
		return "", fmt.Errorf("failed to marshal session identity: %w", err)
	}

	sessionID := uuid.New().String()
	key := keyPrefixSession + sessionID
	if err := s.client.Set(ctx, key, data, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("failed to save session: %w", err)
	}

	return sessionID, nil
}

func (s *Store) Get(ctx context.Context, sessionID string) (*models.SessionIdentity, error) {
	key := keyPrefixSession + sessionID
	data, err := s.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, session.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	var identity models.SessionIdentity
	if err := json.Unmarshal(data, &identity); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session identity: %w", err)
	}

	return &identity, nil
}

func (s *Store) Delete(ctx context.Context, sessionID string) error {
	key := keyPrefixSession + sessionID
	return s.client.Del(ctx, key).Err()
}
