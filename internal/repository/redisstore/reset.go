package redisstore

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	apperrors "github.com/ivaylo9512/Platform-app-auth-server/pkg/errors"
)

const resetKeyPrefix = "forgot-password:"

// ResetTokenStore keeps password reset tokens in Redis with a TTL. Expiry is
// enforced by Redis itself, so a token that has aged out simply stops
// resolving.
type ResetTokenStore struct {
	client *redis.Client
}

// NewResetTokenStore creates a Redis-backed reset token store.
func NewResetTokenStore(client *redis.Client) *ResetTokenStore {
	return &ResetTokenStore{client: client}
}

// Set stores a reset token pointing at a user id.
func (s *ResetTokenStore) Set(ctx context.Context, token string, userID int64, ttl time.Duration) error {
	err := s.client.Set(ctx, resetKeyPrefix+token, userID, ttl).Err()
	if err != nil {
		return fmt.Errorf("store reset token: %w", err)
	}

	return nil
}

// Get resolves a reset token to the user id it was issued for.
func (s *ResetTokenStore) Get(ctx context.Context, token string) (int64, error) {
	val, err := s.client.Get(ctx, resetKeyPrefix+token).Result()
	if err != nil {
		// Reset tokens are opaque UUIDs, not JWTs, so a miss reads as a
		// plain authorization failure rather than a malformed token.
		if errors.Is(err, redis.Nil) {
			return 0, apperrors.Unauthorized()
		}
		return 0, fmt.Errorf("fetch reset token: %w", err)
	}

	userID, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse reset token value %q: %w", val, err)
	}

	return userID, nil
}

// Delete consumes a reset token so it cannot be replayed.
func (s *ResetTokenStore) Delete(ctx context.Context, token string) error {
	if err := s.client.Del(ctx, resetKeyPrefix+token).Err(); err != nil {
		return fmt.Errorf("delete reset token: %w", err)
	}

	return nil
}
