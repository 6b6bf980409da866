package session

import (
	"context"
	"strconv"
	"time"

	"github.com/geekodo/kudos-portal/internal/util"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "sess:"

// Store keeps login sessions in Redis, one key per token, expiring after
// the configured TTL.
type Store struct {
	rds *redis.Client
	ttl time.Duration
}

func NewStore(rds *redis.Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &Store{rds: rds, ttl: ttl}
}

// Create mints a new opaque token for userID.
func (s *Store) Create(ctx context.Context, userID int64) (string, error) {
	token := util.New()
	err := s.rds.Set(ctx, keyPrefix+token, strconv.FormatInt(userID, 10), s.ttl).Err()
	if err != nil {
		return "", err
	}
	return token, nil
}

// Lookup resolves a token to a user id; ok is false for unknown or expired
// tokens.
func (s *Store) Lookup(ctx context.Context, token string) (int64, bool, error) {
	v, err := s.rds.Get(ctx, keyPrefix+token).Result()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, false, nil
	}
	return id, true, nil
}

// Destroy removes the token; unknown tokens are not an error.
func (s *Store) Destroy(ctx context.Context, token string) error {
	return s.rds.Del(ctx, keyPrefix+token).Err()
}

// TTL reports the configured session lifetime, used for the cookie max-age.
func (s *Store) TTL() time.Duration { return s.ttl }
