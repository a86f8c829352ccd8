package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/widodo/go-cart-checkout/internal/redisx"
)

// RedisTokenStore keeps sessions in redis so every api instance sees them.
type RedisTokenStore struct {
	Client *redis.Client
}

func (s *RedisTokenStore) Save(ctx context.Context, token, userID string, ttl time.Duration) error {
	return s.Client.Set(ctx, fmt.Sprintf(redisx.KeySession, token), userID, ttl).Err()
}

func (s *RedisTokenStore) Lookup(ctx context.Context, token string) (string, error) {
	userID, err := s.Client.Get(ctx, fmt.Sprintf(redisx.KeySession, token)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrTokenNotFound
	}
	return userID, err
}

func (s *RedisTokenStore) Delete(ctx context.Context, token string) error {
	return s.Client.Del(ctx, fmt.Sprintf(redisx.KeySession, token)).Err()
}
