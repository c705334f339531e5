package repository

import (
	"context"
	"time"

	"github.com/ivaylo9512/Platform-app-auth-server/internal/domain"
)

// IssueTokenFunc signs a refresh token for a user whose id has just been
// assigned. It is invoked inside the same transaction that created the user.
type IssueTokenFunc func(user *domain.User) (token string, expiresAt time.Time, err error)

// UserRepository persists user accounts.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	// CreateWithToken creates the user and their first refresh token row
	// atomically. Either both rows exist afterwards or neither does.
	CreateWithToken(ctx context.Context, user *domain.User, issue IssueTokenFunc) (*domain.RefreshToken, error)
	CreateMany(ctx context.Context, users []*domain.User) error
	FindByID(ctx context.Context, id int64) (*domain.User, error)
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByUsernameOrEmail(ctx context.Context, username, email string) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
	Delete(ctx context.Context, id int64) (bool, error)
}

// RefreshTokenRepository persists issued refresh tokens. A token that is
// absent from the store is treated as revoked regardless of its signature.
type RefreshTokenRepository interface {
	Create(ctx context.Context, token *domain.RefreshToken) error
	FindByToken(ctx context.Context, token string) (*domain.RefreshToken, error)
	FindByID(ctx context.Context, id int64) (*domain.RefreshToken, error)
	Delete(ctx context.Context, id int64) (bool, error)
	DeleteByToken(ctx context.Context, token string) (bool, error)
	DeleteByUserID(ctx context.Context, userID int64) error
}

// ResetTokenStore holds short lived password reset tokens.
type ResetTokenStore interface {
	Set(ctx context.Context, token string, userID int64, ttl time.Duration) error
	Get(ctx context.Context, token string) (int64, error)
	Delete(ctx context.Context, token string) error
}
