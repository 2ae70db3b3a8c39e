package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const grantKeyPrefix = "download_grant:"

// GrantStore persists issued download grants with an expiry, so the portal
// can redeem a token exactly while it is valid.
type GrantStore struct {
	client *redis.Client
	logger *zap.Logger
}

func NewGrantStore(client *redis.Client, logger *zap.Logger) *GrantStore {
	return &GrantStore{
		client: client,
		logger: logger.Named("GrantStore"),
	}
}

func (s *GrantStore) SaveGrant(ctx context.Context, token string, keyCode string, ttl time.Duration) error {
	if err := s.client.Set(ctx, grantKeyPrefix+token, keyCode, ttl).Err(); err != nil {
		s.logger.Error("Failed to store download grant in redis", zap.Error(err))
		return fmt.Errorf("redis error storing grant: %w", err)
	}
	return nil
}

// LookupGrant resolves a grant token back to its key code. A missing token
// means the grant expired or was never issued.
func (s *GrantStore) LookupGrant(ctx context.Context, token string) (string, bool, error) {
	keyCode, err := s.client.Get(ctx, grantKeyPrefix+token).Result()
	if err != nil {
		if err == redis.Nil {
			return "", false, nil
		}
		s.logger.Error("Failed to look up download grant in redis", zap.Error(err))
		return "", false, fmt.Errorf("redis error loading grant: %w", err)
	}
	return keyCode, true, nil
}
