package auth

import (
	"context"
	"fmt"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"
)

// bcryptCost is the cost factor for bcrypt password hashing.
const bcryptCost = 12

// defaultMaxConcurrentHashes bounds in-flight bcrypt operations. Hashing is
// CPU-heavy; without a bound a burst of registrations can starve the
// scheduler for request handling.
const defaultMaxConcurrentHashes = 8

// PasswordHasher hashes and verifies passwords with bcrypt, bounding the
// number of concurrent hash computations.
type PasswordHasher struct {
	sem *semaphore.Weighted
}

// NewPasswordHasher creates a hasher allowing up to maxConcurrent in-flight
// hash operations; zero or negative uses the default bound.
func NewPasswordHasher(maxConcurrent int64) *PasswordHasher {
	if maxConcurrent <= 0 {
		maxConcurrent = defaultMaxConcurrentHashes
	}
	return &PasswordHasher{sem: semaphore.NewWeighted(maxConcurrent)}
}

// Hash derives a salted bcrypt hash from the plaintext password. Waiting for
// a hashing slot observes ctx, so timed-out requests do not queue up work.
func (h *PasswordHasher) Hash(ctx context.Context, plaintext string) (string, error) {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return "", fmt.Errorf("acquire hashing slot: %w", err)
	}
	defer h.sem.Release(1)

	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashed), nil
}

// Verify reports whether plaintext matches the stored hash. A mismatch is a
// false return, never an error; bcrypt compares in constant time.
func (h *PasswordHasher) Verify(hash, plaintext string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}
