package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jwalitptl/medibook-api/internal/repository"
)

const revokedPrefix = "medibook:revoked:"

type sessionStore struct {
	client redis.UniversalClient
}

func NewSessionStore(client redis.UniversalClient) repository.SessionStore {
	return &sessionStore{client: client}
}

func (s *sessionStore) Revoke(ctx context.Context, subjectID string, ttl time.Duration) error {
	if err := s.client.Set(ctx, revokedPrefix+subjectID, time.Now().Unix(), ttl).Err(); err != nil {
		return fmt.Errorf("failed to revoke sessions: %w", err)
	}
	return nil
}

func (s *sessionStore) IsRevoked(ctx context.Context, subjectID string) (bool, error) {
	n, err := s.client.Exists(ctx, revokedPrefix+subjectID).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check session revocation: %w", err)
	}
	return n > 0, nil
}
