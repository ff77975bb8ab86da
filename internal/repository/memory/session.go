package memory

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/jwalitptl/medibook-api/internal/repository"
)

type sessionStore struct {
	revoked *cache.Cache
}

// NewSessionStore keeps revoked subjects in process memory until their
// TTL passes.
func NewSessionStore() repository.SessionStore {
	return &sessionStore{revoked: cache.New(cache.NoExpiration, 10*time.Minute)}
}

func (s *sessionStore) Revoke(_ context.Context, subjectID string, ttl time.Duration) error {
	s.revoked.Set(subjectID, struct{}{}, ttl)
	return nil
}

func (s *sessionStore) IsRevoked(_ context.Context, subjectID string) (bool, error) {
	_, found := s.revoked.Get(subjectID)
	return found, nil
}
