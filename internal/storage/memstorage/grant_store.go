package memstorage

import (
	"context"
	"sync"
	"time"
)

// GrantStore is an in-memory service.GrantStore for tests.
type GrantStore struct {
	mu     sync.Mutex
	grants map[string]grantEntry
}

type grantEntry struct {
	keyCode   string
	expiresAt time.Time
}

func NewGrantStore() *GrantStore {
	return &GrantStore{grants: make(map[string]grantEntry)}
}

func (s *GrantStore) SaveGrant(_ context.Context, token string, keyCode string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.grants[token] = grantEntry{keyCode: keyCode, expiresAt: time.Now().Add(ttl)}
	return nil
}

func (s *GrantStore) LookupGrant(_ context.Context, token string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.grants[token]
	if !ok || time.Now().After(entry.expiresAt) {
		return "", false, nil
	}
	return entry.keyCode, true, nil
}
