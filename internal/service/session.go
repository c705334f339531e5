package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ivaylo9512/Platform-app-auth-server/internal/auth"
	"github.com/ivaylo9512/Platform-app-auth-server/internal/domain"
	"github.com/ivaylo9512/Platform-app-auth-server/internal/repository"
	apperrors "github.com/ivaylo9512/Platform-app-auth-server/pkg/errors"
)

// resetTokenTTL is how long a forgot-password token stays redeemable.
const resetTokenTTL = time.Hour

// EventPublisher is the slice of the event producer the services use.
type EventPublisher interface {
	PublishUserRegistered(ctx context.Context, user *domain.User) error
	PublishUserUpdated(ctx context.Context, user *domain.User) error
	PublishUserDeleted(ctx context.Context, userID int64) error
	PublishPasswordReset(ctx context.Context, user *domain.User, resetToken string) error
}

// TokenPair is an access/refresh token pair issued on login or registration.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// SessionService implements the authentication and session lifecycle:
// registration, login, access token refresh, logout, and password resets.
type SessionService struct {
	users  repository.UserRepository
	tokens repository.RefreshTokenRepository
	resets repository.ResetTokenStore
	codec  *auth.TokenCodec
	hasher *auth.PasswordHasher
	events EventPublisher
	logger *slog.Logger
}

// NewSessionService creates a new session service.
func NewSessionService(
	users repository.UserRepository,
	tokens repository.RefreshTokenRepository,
	resets repository.ResetTokenStore,
	codec *auth.TokenCodec,
	hasher *auth.PasswordHasher,
	events EventPublisher,
	logger *slog.Logger,
) *SessionService {
	return &SessionService{
		users:  users,
		tokens: tokens,
		resets: resets,
		codec:  codec,
		hasher: hasher,
		events: events,
		logger: logger,
	}
}

// RegisterInput holds the parameters for registering a new user.
type RegisterInput struct {
	Username  string
	Email     string
	Password  string
	FirstName string
	LastName  string
	Age       int
}

// LoginInput holds the parameters for logging in. Exactly one of Username or
// Email is expected to be set.
type LoginInput struct {
	Username string
	Email    string
	Password string
}

// Register creates a new user account with the default role, persists the
// user together with their first refresh token atomically, and returns the
// user with a fresh token pair.
func (s *SessionService) Register(ctx context.Context, input RegisterInput) (*domain.User, *TokenPair, error) {
	// Advisory pre-check so a duplicate can be attributed to a field before
	// hashing. The unique constraints stay the real arbiter under races.
	if existing, err := s.users.FindByUsernameOrEmail(ctx, input.Username, input.Email); err == nil {
		if existing.Username == input.Username {
			return nil, nil, apperrors.DuplicateField("username")
		}
		return nil, nil, apperrors.DuplicateField("email")
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, nil, fmt.Errorf("check existing user: %w", err)
	}

	hash, err := s.hasher.Hash(ctx, input.Password)
	if err != nil {
		return nil, nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: hash,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Age:          input.Age,
		Role:         domain.RoleUser,
	}

	refreshToken, err := s.users.CreateWithToken(ctx, user, func(created *domain.User) (string, time.Time, error) {
		return s.codec.IssueRefresh(created.ID, created.Role)
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrDuplicateField) {
			return nil, nil, err
		}
		return nil, nil, fmt.Errorf("create user: %w", err)
	}

	accessToken, err := s.codec.IssueAccess(user.ID, user.Role)
	if err != nil {
		return nil, nil, fmt.Errorf("issue access token: %w", err)
	}

	// Publish registration event (non-blocking on failure).
	if err := s.events.PublishUserRegistered(ctx, user); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish user.registered event",
			slog.Int64("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "user registered",
		slog.Int64("user_id", user.ID),
		slog.String("username", user.Username),
	)

	return user, &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken.Token}, nil
}

// Login authenticates a user by username or email plus password. A missing
// user and a wrong password produce the same error so callers cannot probe
// which accounts exist. Each successful login records its own refresh token,
// so concurrent sessions stay independent.
func (s *SessionService) Login(ctx context.Context, input LoginInput) (*domain.User, *TokenPair, error) {
	user, err := s.findByIdentifier(ctx, input)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, nil, apperrors.InvalidCredentials()
		}
		return nil, nil, fmt.Errorf("look up user: %w", err)
	}

	if !s.hasher.Verify(user.PasswordHash, input.Password) {
		return nil, nil, apperrors.InvalidCredentials()
	}

	pair, err := s.issuePair(ctx, user)
	if err != nil {
		return nil, nil, err
	}

	s.logger.InfoContext(ctx, "user logged in", slog.Int64("user_id", user.ID))

	return user, pair, nil
}

// Refresh exchanges a refresh token for a new access token. The token must
// carry a valid signature AND still have its row in the store; the row check
// is what makes logout and revocation stick, since the codec alone is
// stateless. The refresh token itself is not rotated.
func (s *SessionService) Refresh(ctx context.Context, refreshToken string) (*domain.User, string, error) {
	claims, err := s.codec.VerifyRefresh(refreshToken)
	if err != nil {
		return nil, "", err
	}

	stored, err := s.tokens.FindByToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, "", apperrors.Unauthorized()
		}
		return nil, "", fmt.Errorf("look up refresh token: %w", err)
	}

	// The row's expiry is authoritative even if the signature still checks
	// out, e.g. after the configured refresh lifetime was shortened.
	if stored.IsExpired(time.Now().UTC()) {
		return nil, "", apperrors.Unauthorized()
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, "", apperrors.UserUnavailable()
		}
		return nil, "", fmt.Errorf("look up user: %w", err)
	}

	accessToken, err := s.codec.IssueAccess(user.ID, user.Role)
	if err != nil {
		return nil, "", fmt.Errorf("issue access token: %w", err)
	}

	return user, accessToken, nil
}

// Logout revokes a refresh token by deleting its store record. It is
// idempotent and best-effort: an unknown or already-deleted token is a no-op.
func (s *SessionService) Logout(ctx context.Context, refreshToken string) {
	if refreshToken == "" {
		return
	}

	if _, err := s.tokens.DeleteByToken(ctx, refreshToken); err != nil {
		s.logger.WarnContext(ctx, "failed to delete refresh token on logout",
			slog.String("error", err.Error()),
		)
	}
}

// ForgotPassword issues a single-use reset token for the account behind an
// email address. Returns false without error when no such account exists, so
// the transport layer can answer identically either way.
func (s *SessionService) ForgotPassword(ctx context.Context, email string) (bool, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("look up user: %w", err)
	}

	token := uuid.New().String()
	if err := s.resets.Set(ctx, token, user.ID, resetTokenTTL); err != nil {
		return false, fmt.Errorf("store reset token: %w", err)
	}

	if err := s.events.PublishPasswordReset(ctx, user, token); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish user.password_reset event",
			slog.Int64("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "password reset requested", slog.Int64("user_id", user.ID))

	return true, nil
}

// ResetPassword redeems a reset token and replaces the account password. All
// refresh tokens of the account are revoked so stolen sessions die with the
// old password.
func (s *SessionService) ResetPassword(ctx context.Context, token, newPassword string) error {
	userID, err := s.resets.Get(ctx, token)
	if err != nil {
		return err
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.UserUnavailable()
		}
		return fmt.Errorf("look up user: %w", err)
	}

	hash, err := s.hasher.Hash(ctx, newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	user.PasswordHash = hash
	if err := s.users.Update(ctx, user); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	if err := s.resets.Delete(ctx, token); err != nil {
		s.logger.WarnContext(ctx, "failed to delete redeemed reset token",
			slog.Int64("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	if err := s.tokens.DeleteByUserID(ctx, user.ID); err != nil {
		s.logger.WarnContext(ctx, "failed to revoke refresh tokens after password reset",
			slog.Int64("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "password reset completed", slog.Int64("user_id", user.ID))

	return nil
}

// RefreshExpiry exposes the refresh token lifetime for cookie attributes.
func (s *SessionService) RefreshExpiry() time.Duration {
	return s.codec.RefreshExpiry()
}

func (s *SessionService) findByIdentifier(ctx context.Context, input LoginInput) (*domain.User, error) {
	if input.Username != "" {
		return s.users.FindByUsername(ctx, input.Username)
	}
	return s.users.FindByEmail(ctx, input.Email)
}

func (s *SessionService) issuePair(ctx context.Context, user *domain.User) (*TokenPair, error) {
	accessToken, err := s.codec.IssueAccess(user.ID, user.Role)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}

	refreshValue, expiresAt, err := s.codec.IssueRefresh(user.ID, user.Role)
	if err != nil {
		return nil, fmt.Errorf("issue refresh token: %w", err)
	}

	record := &domain.RefreshToken{
		Token:     refreshValue,
		UserID:    user.ID,
		ExpiresAt: expiresAt,
	}
	if err := s.tokens.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("persist refresh token: %w", err)
	}

	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshValue}, nil
}
