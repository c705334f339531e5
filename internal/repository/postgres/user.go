package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ivaylo9512/Platform-app-auth-server/internal/domain"
	"github.com/ivaylo9512/Platform-app-auth-server/internal/repository"
	apperrors "github.com/ivaylo9512/Platform-app-auth-server/pkg/errors"
)

// UserRepository implements repository.UserRepository using PostgreSQL.
type UserRepository struct {
	db DB
}

// NewUserRepository creates a new PostgreSQL-backed user repository.
func NewUserRepository(db DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = "id, username, email, password_hash, first_name, last_name, age, role, created_at, updated_at"

const insertUserQuery = `
		INSERT INTO users (username, email, password_hash, first_name, last_name, age, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`

// Create inserts a new user and fills in the assigned id.
func (r *UserRepository) Create(ctx context.Context, u *domain.User) error {
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	err := r.db.QueryRow(ctx, insertUserQuery,
		u.Username,
		u.Email,
		u.PasswordHash,
		u.FirstName,
		u.LastName,
		u.Age,
		u.Role,
		u.CreatedAt,
		u.UpdatedAt,
	).Scan(&u.ID)
	if err != nil {
		if field, ok := duplicateField(err); ok {
			return apperrors.DuplicateField(field)
		}
		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

// CreateWithToken inserts the user and their first refresh token in a single
// transaction. The issue callback runs after the user's id is assigned so the
// token can carry it.
func (r *UserRepository) CreateWithToken(ctx context.Context, u *domain.User, issue repository.IssueTokenFunc) (*domain.RefreshToken, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	err = tx.QueryRow(ctx, insertUserQuery,
		u.Username,
		u.Email,
		u.PasswordHash,
		u.FirstName,
		u.LastName,
		u.Age,
		u.Role,
		u.CreatedAt,
		u.UpdatedAt,
	).Scan(&u.ID)
	if err != nil {
		if field, ok := duplicateField(err); ok {
			return nil, apperrors.DuplicateField(field)
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	value, expiresAt, err := issue(u)
	if err != nil {
		return nil, fmt.Errorf("issue refresh token: %w", err)
	}

	token := &domain.RefreshToken{
		Token:     value,
		UserID:    u.ID,
		CreatedAt: now,
		ExpiresAt: expiresAt,
	}
	err = tx.QueryRow(ctx,
		`INSERT INTO refresh_tokens (token, user_id, created_at, expires_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id`,
		token.Token, token.UserID, token.CreatedAt, token.ExpiresAt,
	).Scan(&token.ID)
	if err != nil {
		return nil, fmt.Errorf("insert refresh token: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	return token, nil
}

// CreateMany inserts a batch of users in a single transaction. On a unique
// violation the returned error carries the index of the offending user so the
// caller can attribute it.
func (r *UserRepository) CreateMany(ctx context.Context, users []*domain.User) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	now := time.Now().UTC()
	for i, u := range users {
		u.CreatedAt = now
		u.UpdatedAt = now

		err := tx.QueryRow(ctx, insertUserQuery,
			u.Username,
			u.Email,
			u.PasswordHash,
			u.FirstName,
			u.LastName,
			u.Age,
			u.Role,
			u.CreatedAt,
			u.UpdatedAt,
		).Scan(&u.ID)
		if err != nil {
			if field, ok := duplicateField(err); ok {
				return &BatchError{Index: i, Err: apperrors.DuplicateField(field)}
			}
			return fmt.Errorf("insert user %d: %w", i, err)
		}
	}

	return tx.Commit(ctx)
}

// BatchError marks which entry of a batch insert failed.
type BatchError struct {
	Index int
	Err   error
}

func (e *BatchError) Error() string { return fmt.Sprintf("user %d: %v", e.Index, e.Err) }

func (e *BatchError) Unwrap() error { return e.Err }

// FindByID retrieves a user by their id.
func (r *UserRepository) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.scanUser(ctx, query, id)
}

// FindByUsername retrieves a user by their username.
func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`
	return r.scanUser(ctx, query, username)
}

// FindByEmail retrieves a user by their email address.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return r.scanUser(ctx, query, email)
}

// FindByUsernameOrEmail retrieves the first user matching either value.
// Username matches win over email matches.
func (r *UserRepository) FindByUsernameOrEmail(ctx context.Context, username, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users
		WHERE username = $1 OR email = $2
		ORDER BY (username = $1) DESC
		LIMIT 1`
	return r.scanUser(ctx, query, username, email)
}

// Update modifies an existing user.
func (r *UserRepository) Update(ctx context.Context, u *domain.User) error {
	u.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE users
		SET username = $1, email = $2, password_hash = $3, first_name = $4,
		    last_name = $5, age = $6, role = $7, updated_at = $8
		WHERE id = $9`

	ct, err := r.db.Exec(ctx, query,
		u.Username,
		u.Email,
		u.PasswordHash,
		u.FirstName,
		u.LastName,
		u.Age,
		u.Role,
		u.UpdatedAt,
		u.ID,
	)
	if err != nil {
		if field, ok := duplicateField(err); ok {
			return apperrors.DuplicateField(field)
		}
		return fmt.Errorf("update user: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("User")
	}

	return nil
}

// Delete removes a user by id. Their refresh tokens go with them via the
// foreign key cascade. Returns false when no row matched.
func (r *UserRepository) Delete(ctx context.Context, id int64) (bool, error) {
	ct, err := r.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete user: %w", err)
	}

	return ct.RowsAffected() > 0, nil
}

// scanUser executes a query expected to return a single user row.
func (r *UserRepository) scanUser(ctx context.Context, query string, args ...any) (*domain.User, error) {
	var u domain.User

	err := r.db.QueryRow(ctx, query, args...).Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.PasswordHash,
		&u.FirstName,
		&u.LastName,
		&u.Age,
		&u.Role,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("User")
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}

	return &u, nil
}

// duplicateField maps a unique violation to the offending column. The
// constraint name carries the column for the two unique indexes on users.
func duplicateField(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
		return "", false
	}

	switch {
	case strings.Contains(pgErr.ConstraintName, "email"):
		return "email", true
	default:
		return "username", true
	}
}
