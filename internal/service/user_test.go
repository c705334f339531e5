package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ivaylo9512/Platform-app-auth-server/internal/auth"
	"github.com/ivaylo9512/Platform-app-auth-server/internal/domain"
	apperrors "github.com/ivaylo9512/Platform-app-auth-server/pkg/errors"
)

type userFixture struct {
	svc    *UserService
	users  *mockUserRepository
	tokens *mockRefreshTokenRepository
	events *mockEventPublisher
	hasher *auth.PasswordHasher
}

func newUserFixture(t *testing.T) *userFixture {
	t.Helper()
	users := &mockUserRepository{}
	tokens := &mockRefreshTokenRepository{}
	events := &mockEventPublisher{}
	hasher := auth.NewPasswordHasher(2)

	return &userFixture{
		svc:    NewUserService(users, tokens, hasher, events, newTestLogger()),
		users:  users,
		tokens: tokens,
		events: events,
		hasher: hasher,
	}
}

var (
	asOwner    = auth.Identity{UserID: 1, Role: domain.RoleUser}
	asAdmin    = auth.Identity{UserID: 99, Role: domain.RoleAdmin}
	asStranger = auth.Identity{UserID: 2, Role: domain.RoleUser}
)

// ---------------------------------------------------------------------------
// FindByID
// ---------------------------------------------------------------------------

func TestUserService_FindByID_Owner(t *testing.T) {
	f := newUserFixture(t)
	user := &domain.User{ID: 1, Username: "aliceinwonder"}

	f.users.On("FindByID", mock.Anything, int64(1)).Return(user, nil)

	got, err := f.svc.FindByID(context.Background(), asOwner, 1)
	require.NoError(t, err)
	assert.Equal(t, user, got)
}

func TestUserService_FindByID_Admin(t *testing.T) {
	f := newUserFixture(t)
	user := &domain.User{ID: 1}

	f.users.On("FindByID", mock.Anything, int64(1)).Return(user, nil)

	_, err := f.svc.FindByID(context.Background(), asAdmin, 1)
	require.NoError(t, err)
}

func TestUserService_FindByID_StrangerDenied(t *testing.T) {
	f := newUserFixture(t)

	_, err := f.svc.FindByID(context.Background(), asStranger, 1)
	assert.True(t, errors.Is(err, apperrors.ErrUnauthorized))
	f.users.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
}

func TestUserService_FindByID_NotFound(t *testing.T) {
	f := newUserFixture(t)

	f.users.On("FindByID", mock.Anything, int64(1)).Return(nil, apperrors.NotFound("User"))

	_, err := f.svc.FindByID(context.Background(), asOwner, 1)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

// ---------------------------------------------------------------------------
// Update
// ---------------------------------------------------------------------------

func TestUserService_Update_Owner(t *testing.T) {
	f := newUserFixture(t)
	user := &domain.User{ID: 1, Username: "aliceinwonder", Email: "alice@example.com", Age: 30}

	f.users.On("FindByID", mock.Anything, int64(1)).Return(user, nil)
	f.users.On("Update", mock.Anything, user).Return(nil)
	f.events.On("PublishUserUpdated", mock.Anything, user).Return(nil)

	got, err := f.svc.Update(context.Background(), asOwner, UpdateInput{
		ID:        1,
		Username:  "alicerenamed1",
		Email:     "alice@example.com",
		FirstName: "Alice",
		LastName:  "Smith",
		Age:       31,
	})
	require.NoError(t, err)
	assert.Equal(t, "alicerenamed1", got.Username)
	assert.Equal(t, 31, got.Age)
	f.events.AssertExpectations(t)
}

func TestUserService_Update_StrangerDenied(t *testing.T) {
	f := newUserFixture(t)

	_, err := f.svc.Update(context.Background(), asStranger, UpdateInput{ID: 1, Username: "hijacked12345"})
	assert.True(t, errors.Is(err, apperrors.ErrUnauthorized))
	f.users.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestUserService_Update_DuplicateUsername(t *testing.T) {
	f := newUserFixture(t)
	user := &domain.User{ID: 1, Username: "aliceinwonder"}

	f.users.On("FindByID", mock.Anything, int64(1)).Return(user, nil)
	f.users.On("Update", mock.Anything, user).Return(apperrors.DuplicateField("username"))

	_, err := f.svc.Update(context.Background(), asOwner, UpdateInput{ID: 1, Username: "takenusername"})
	assert.True(t, errors.Is(err, apperrors.ErrDuplicateField))
	f.events.AssertNotCalled(t, "PublishUserUpdated", mock.Anything, mock.Anything)
}

// ---------------------------------------------------------------------------
// Delete
// ---------------------------------------------------------------------------

func TestUserService_Delete_AdminDeletesOther(t *testing.T) {
	f := newUserFixture(t)

	f.users.On("Delete", mock.Anything, int64(1)).Return(true, nil)
	f.events.On("PublishUserDeleted", mock.Anything, int64(1)).Return(nil)

	deleted, err := f.svc.Delete(context.Background(), asAdmin, 1)
	require.NoError(t, err)
	assert.True(t, deleted)
	f.events.AssertExpectations(t)
}

func TestUserService_Delete_StrangerDenied(t *testing.T) {
	f := newUserFixture(t)

	_, err := f.svc.Delete(context.Background(), asStranger, 1)
	assert.True(t, errors.Is(err, apperrors.ErrUnauthorized))
	f.users.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestUserService_Delete_MissingUser(t *testing.T) {
	f := newUserFixture(t)

	f.users.On("Delete", mock.Anything, int64(1)).Return(false, nil)

	deleted, err := f.svc.Delete(context.Background(), asOwner, 1)
	require.NoError(t, err)
	assert.False(t, deleted)
	f.events.AssertNotCalled(t, "PublishUserDeleted", mock.Anything, mock.Anything)
}

// ---------------------------------------------------------------------------
// CreateMany
// ---------------------------------------------------------------------------

func TestUserService_CreateMany_AdminOnly(t *testing.T) {
	f := newUserFixture(t)

	_, err := f.svc.CreateMany(context.Background(), asOwner, []CreateUserInput{{Username: "newuser123456"}})
	assert.True(t, errors.Is(err, apperrors.ErrUnauthorized))
	f.users.AssertNotCalled(t, "CreateMany", mock.Anything, mock.Anything)
}

func TestUserService_CreateMany_Success(t *testing.T) {
	f := newUserFixture(t)

	f.users.On("CreateMany", mock.Anything, mock.AnythingOfType("[]*domain.User")).
		Run(func(args mock.Arguments) {
			for i, u := range args.Get(1).([]*domain.User) {
				u.ID = int64(i + 1)
			}
		}).
		Return(nil)
	f.events.On("PublishUserRegistered", mock.Anything, mock.AnythingOfType("*domain.User")).Return(nil).Twice()

	users, err := f.svc.CreateMany(context.Background(), asAdmin, []CreateUserInput{
		{Username: "firstaccount1", Email: "first@example.com", Password: "FirstSecret!pw", Role: domain.RoleAdmin},
		{Username: "secondaccount", Email: "second@example.com", Password: "SecondSecret!pw"},
	})
	require.NoError(t, err)
	require.Len(t, users, 2)

	assert.Equal(t, domain.RoleAdmin, users[0].Role)
	assert.Equal(t, domain.RoleUser, users[1].Role, "missing role defaults to user")
	assert.True(t, f.hasher.Verify(users[0].PasswordHash, "FirstSecret!pw"))
	f.events.AssertExpectations(t)
}

func TestUserService_CreateMany_RejectsUnknownRole(t *testing.T) {
	f := newUserFixture(t)

	_, err := f.svc.CreateMany(context.Background(), asAdmin, []CreateUserInput{
		{Username: "firstaccount1", Email: "first@example.com", Password: "FirstSecret!pw", Role: "superuser"},
	})
	assert.True(t, errors.Is(err, apperrors.ErrValidation))

	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Contains(t, appErr.Fields, "role")
	f.users.AssertNotCalled(t, "CreateMany", mock.Anything, mock.Anything)
}

// ---------------------------------------------------------------------------
// Token records
// ---------------------------------------------------------------------------

func TestUserService_FindTokenByID_Owner(t *testing.T) {
	f := newUserFixture(t)
	token := &domain.RefreshToken{ID: 5, UserID: 1}

	f.tokens.On("FindByID", mock.Anything, int64(5)).Return(token, nil)

	got, err := f.svc.FindTokenByID(context.Background(), asOwner, 5)
	require.NoError(t, err)
	assert.Equal(t, token, got)
}

func TestUserService_FindTokenByID_StrangerDenied(t *testing.T) {
	f := newUserFixture(t)
	token := &domain.RefreshToken{ID: 5, UserID: 1}

	f.tokens.On("FindByID", mock.Anything, int64(5)).Return(token, nil)

	_, err := f.svc.FindTokenByID(context.Background(), asStranger, 5)
	assert.True(t, errors.Is(err, apperrors.ErrUnauthorized))
}

func TestUserService_DeleteTokenByID_Admin(t *testing.T) {
	f := newUserFixture(t)
	token := &domain.RefreshToken{ID: 5, UserID: 1}

	f.tokens.On("FindByID", mock.Anything, int64(5)).Return(token, nil)
	f.tokens.On("Delete", mock.Anything, int64(5)).Return(true, nil)

	err := f.svc.DeleteTokenByID(context.Background(), asAdmin, 5)
	require.NoError(t, err)
	f.tokens.AssertExpectations(t)
}

func TestUserService_DeleteTokenByID_Missing(t *testing.T) {
	f := newUserFixture(t)

	f.tokens.On("FindByID", mock.Anything, int64(5)).Return(nil, apperrors.NotFound("Refresh token"))

	err := f.svc.DeleteTokenByID(context.Background(), asOwner, 5)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	f.tokens.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

// ---------------------------------------------------------------------------
// VerifyUser
// ---------------------------------------------------------------------------

func TestUserService_VerifyUser_Available(t *testing.T) {
	f := newUserFixture(t)
	user := &domain.User{ID: 1}

	f.users.On("FindByID", mock.Anything, int64(1)).Return(user, nil)

	got, err := f.svc.VerifyUser(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, user, got)
}

func TestUserService_VerifyUser_Gone(t *testing.T) {
	f := newUserFixture(t)

	f.users.On("FindByID", mock.Anything, int64(1)).Return(nil, apperrors.NotFound("User"))

	_, err := f.svc.VerifyUser(context.Background(), 1)
	assert.True(t, errors.Is(err, apperrors.ErrUserUnavailable))
}
