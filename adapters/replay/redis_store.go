package replay

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/layer-3/turnstile/core"
	"github.com/layer-3/turnstile/ports"
)

// RedisStore is a Redis implementation of the replay guard. SET NX gives the
// atomic check-and-mark; keys carry no TTL because redemptions are permanent.
type RedisStore struct {
	client *redis.Client
	prefix string
}

var _ ports.ReplayGuard = (*RedisStore)(nil)

// NewRedisStore creates a replay guard on an existing Redis client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: "turnstile:redeemed:",
	}
}

// Contains reports whether the reference has been redeemed. A Redis failure
// is an error, never a "not redeemed".
func (s *RedisStore) Contains(ctx context.Context, ref core.Reference) (bool, error) {
	n, err := s.client.Exists(ctx, s.prefix+string(ref)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %w", core.ErrReplayUnavailable, err)
	}
	return n > 0, nil
}

// TryMark records the reference as redeemed iff no other caller has.
func (s *RedisStore) TryMark(ctx context.Context, ref core.Reference) (bool, error) {
	ok, err := s.client.SetNX(ctx, s.prefix+string(ref), "1", 0).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %w", core.ErrReplayUnavailable, err)
	}
	return ok, nil
}
