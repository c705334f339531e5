package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivaylo9512/Platform-app-auth-server/internal/domain"
	apperrors "github.com/ivaylo9512/Platform-app-auth-server/pkg/errors"
)

func newTokenTestFixture(t *testing.T) (*RefreshTokenRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	repo := NewRefreshTokenRepository(mock)
	return repo, mock
}

func sampleToken() *domain.RefreshToken {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &domain.RefreshToken{
		ID:        1,
		Token:     "eyJhbGciOiJIUzI1NiJ9.sample.signature",
		UserID:    5,
		CreatedAt: now,
		ExpiresAt: now.Add(168 * time.Hour),
	}
}

func TestRefreshTokenRepository_Create(t *testing.T) {
	repo, mock := newTokenTestFixture(t)
	defer mock.Close()

	tok := sampleToken()
	tok.ID = 0

	mock.ExpectQuery("INSERT INTO refresh_tokens").
		WithArgs(tok.Token, tok.UserID, tok.CreatedAt, tok.ExpiresAt).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(11)))

	err := repo.Create(context.Background(), tok)
	require.NoError(t, err)
	assert.Equal(t, int64(11), tok.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRefreshTokenRepository_FindByToken(t *testing.T) {
	repo, mock := newTokenTestFixture(t)
	defer mock.Close()

	tok := sampleToken()

	mock.ExpectQuery("SELECT (.+) FROM refresh_tokens").
		WithArgs(tok.Token).
		WillReturnRows(pgxmock.NewRows([]string{"id", "token", "user_id", "created_at", "expires_at"}).
			AddRow(tok.ID, tok.Token, tok.UserID, tok.CreatedAt, tok.ExpiresAt))

	found, err := repo.FindByToken(context.Background(), tok.Token)
	require.NoError(t, err)
	assert.Equal(t, tok.UserID, found.UserID)
}

func TestRefreshTokenRepository_FindByToken_Revoked(t *testing.T) {
	repo, mock := newTokenTestFixture(t)
	defer mock.Close()

	mock.ExpectQuery("SELECT (.+) FROM refresh_tokens").
		WithArgs("gone").
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.FindByToken(context.Background(), "gone")
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestRefreshTokenRepository_FindByID_NotFound(t *testing.T) {
	repo, mock := newTokenTestFixture(t)
	defer mock.Close()

	mock.ExpectQuery("SELECT (.+) FROM refresh_tokens").
		WithArgs(int64(42)).
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.FindByID(context.Background(), 42)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestRefreshTokenRepository_Delete(t *testing.T) {
	repo, mock := newTokenTestFixture(t)
	defer mock.Close()

	mock.ExpectExec("DELETE FROM refresh_tokens").
		WithArgs(int64(1)).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	deleted, err := repo.Delete(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, deleted)
}

func TestRefreshTokenRepository_DeleteByToken_Missing(t *testing.T) {
	repo, mock := newTokenTestFixture(t)
	defer mock.Close()

	mock.ExpectExec("DELETE FROM refresh_tokens").
		WithArgs("already-gone").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	deleted, err := repo.DeleteByToken(context.Background(), "already-gone")
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestRefreshTokenRepository_DeleteByUserID(t *testing.T) {
	repo, mock := newTokenTestFixture(t)
	defer mock.Close()

	mock.ExpectExec("DELETE FROM refresh_tokens").
		WithArgs(int64(5)).
		WillReturnResult(pgxmock.NewResult("DELETE", 3))

	err := repo.DeleteByUserID(context.Background(), 5)
	require.NoError(t, err)
}
