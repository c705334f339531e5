package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/ivaylo9512/Platform-app-auth-server/internal/domain"
	apperrors "github.com/ivaylo9512/Platform-app-auth-server/pkg/errors"
)

// RefreshTokenRepository implements repository.RefreshTokenRepository using
// PostgreSQL. Presence of a row is what keeps a refresh token valid; deleting
// the row revokes it.
type RefreshTokenRepository struct {
	db DB
}

// NewRefreshTokenRepository creates a new PostgreSQL-backed refresh token repository.
func NewRefreshTokenRepository(db DB) *RefreshTokenRepository {
	return &RefreshTokenRepository{db: db}
}

const tokenColumns = "id, token, user_id, created_at, expires_at"

// Create inserts a refresh token row and fills in the assigned id.
func (r *RefreshTokenRepository) Create(ctx context.Context, t *domain.RefreshToken) error {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}

	err := r.db.QueryRow(ctx,
		`INSERT INTO refresh_tokens (token, user_id, created_at, expires_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id`,
		t.Token, t.UserID, t.CreatedAt, t.ExpiresAt,
	).Scan(&t.ID)
	if err != nil {
		return fmt.Errorf("insert refresh token: %w", err)
	}

	return nil
}

// FindByToken retrieves a refresh token by its raw value.
func (r *RefreshTokenRepository) FindByToken(ctx context.Context, token string) (*domain.RefreshToken, error) {
	query := `SELECT ` + tokenColumns + ` FROM refresh_tokens WHERE token = $1`
	return r.scanToken(ctx, query, token)
}

// FindByID retrieves a refresh token by its id.
func (r *RefreshTokenRepository) FindByID(ctx context.Context, id int64) (*domain.RefreshToken, error) {
	query := `SELECT ` + tokenColumns + ` FROM refresh_tokens WHERE id = $1`
	return r.scanToken(ctx, query, id)
}

// Delete removes a refresh token by id. Returns false when no row matched.
func (r *RefreshTokenRepository) Delete(ctx context.Context, id int64) (bool, error) {
	ct, err := r.db.Exec(ctx, `DELETE FROM refresh_tokens WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete refresh token: %w", err)
	}

	return ct.RowsAffected() > 0, nil
}

// DeleteByToken removes a refresh token by its raw value.
func (r *RefreshTokenRepository) DeleteByToken(ctx context.Context, token string) (bool, error) {
	ct, err := r.db.Exec(ctx, `DELETE FROM refresh_tokens WHERE token = $1`, token)
	if err != nil {
		return false, fmt.Errorf("delete refresh token: %w", err)
	}

	return ct.RowsAffected() > 0, nil
}

// DeleteByUserID revokes every refresh token belonging to a user.
func (r *RefreshTokenRepository) DeleteByUserID(ctx context.Context, userID int64) error {
	_, err := r.db.Exec(ctx, `DELETE FROM refresh_tokens WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("delete refresh tokens for user: %w", err)
	}

	return nil
}

func (r *RefreshTokenRepository) scanToken(ctx context.Context, query string, args ...any) (*domain.RefreshToken, error) {
	var t domain.RefreshToken

	err := r.db.QueryRow(ctx, query, args...).Scan(
		&t.ID,
		&t.Token,
		&t.UserID,
		&t.CreatedAt,
		&t.ExpiresAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("Refresh token")
		}
		return nil, fmt.Errorf("scan refresh token: %w", err)
	}

	return &t, nil
}
