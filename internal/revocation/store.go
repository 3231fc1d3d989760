package revocation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrRedisUnavailable wraps Redis transport failures.
var ErrRedisUnavailable = errors.New("redis unavailable")

// Store is a Redis denylist of revoked token IDs.
type Store struct {
	redis redis.UniversalClient
	now   func() time.Time
}

// New creates a revocation [Store]. The clock is used to compute entry TTLs;
// nil falls back to time.Now.
func New(redisClient redis.UniversalClient, now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{
		redis: redisClient,
		now:   now,
	}
}

// Revoke adds a token ID to the denylist until the token's own expiry.
// Already-expired tokens are a no-op: the codec rejects them anyway.
func (s *Store) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	ttl := expiresAt.Sub(s.now())
	if ttl <= 0 {
		return nil
	}

	if err := s.redis.Set(ctx, revokedKey(jti), "1", ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	return nil
}

// IsRevoked reports whether a token ID is on the denylist.
func (s *Store) IsRevoked(ctx context.Context, jti string) (bool, error) {
	err := s.redis.Get(ctx, revokedKey(jti)).Err()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	return true, nil
}

func revokedKey(jti string) string {
	return "fa:rv:" + jti
}
