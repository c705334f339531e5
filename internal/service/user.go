package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ivaylo9512/Platform-app-auth-server/internal/auth"
	"github.com/ivaylo9512/Platform-app-auth-server/internal/domain"
	"github.com/ivaylo9512/Platform-app-auth-server/internal/repository"
	apperrors "github.com/ivaylo9512/Platform-app-auth-server/pkg/errors"
)

// UserService implements account management on top of the stores. Every
// operation that touches a specific account enforces the self-or-admin rule.
type UserService struct {
	users  repository.UserRepository
	tokens repository.RefreshTokenRepository
	hasher *auth.PasswordHasher
	events EventPublisher
	logger *slog.Logger
}

// NewUserService creates a new user service.
func NewUserService(
	users repository.UserRepository,
	tokens repository.RefreshTokenRepository,
	hasher *auth.PasswordHasher,
	events EventPublisher,
	logger *slog.Logger,
) *UserService {
	return &UserService{
		users:  users,
		tokens: tokens,
		hasher: hasher,
		events: events,
		logger: logger,
	}
}

// UpdateInput holds the parameters for updating a user's profile.
type UpdateInput struct {
	ID        int64
	Username  string
	Email     string
	FirstName string
	LastName  string
	Age       int
}

// CreateUserInput holds the parameters for one entry of a bulk creation.
// Unlike self registration the role may be set explicitly.
type CreateUserInput struct {
	Username  string
	Email     string
	Password  string
	FirstName string
	LastName  string
	Age       int
	Role      string
}

// FindByID returns a user's account. Only the account owner or an admin may
// look it up.
func (s *UserService) FindByID(ctx context.Context, caller auth.Identity, id int64) (*domain.User, error) {
	if err := auth.Authorize(caller, id); err != nil {
		return nil, err
	}

	return s.users.FindByID(ctx, id)
}

// Update replaces a user's profile fields. Only the account owner or an
// admin may update it.
func (s *UserService) Update(ctx context.Context, caller auth.Identity, input UpdateInput) (*domain.User, error) {
	if err := auth.Authorize(caller, input.ID); err != nil {
		return nil, err
	}

	user, err := s.users.FindByID(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	user.Username = input.Username
	user.Email = input.Email
	user.FirstName = input.FirstName
	user.LastName = input.LastName
	user.Age = input.Age

	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}

	if err := s.events.PublishUserUpdated(ctx, user); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish user.updated event",
			slog.Int64("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "user updated", slog.Int64("user_id", user.ID))

	return user, nil
}

// Delete removes a user's account along with their refresh tokens. Only the
// account owner or an admin may delete it. Returns false when the account
// does not exist.
func (s *UserService) Delete(ctx context.Context, caller auth.Identity, id int64) (bool, error) {
	if err := auth.Authorize(caller, id); err != nil {
		return false, err
	}

	deleted, err := s.users.Delete(ctx, id)
	if err != nil {
		return false, err
	}

	if deleted {
		if err := s.events.PublishUserDeleted(ctx, id); err != nil {
			s.logger.ErrorContext(ctx, "failed to publish user.deleted event",
				slog.Int64("user_id", id),
				slog.String("error", err.Error()),
			)
		}

		s.logger.InfoContext(ctx, "user deleted", slog.Int64("user_id", id))
	}

	return deleted, nil
}

// CreateMany creates a batch of accounts in one transaction. Admin only,
// since entries can carry arbitrary roles. A uniqueness conflict anywhere in
// the batch rolls back the whole thing and reports the offending entry.
func (s *UserService) CreateMany(ctx context.Context, caller auth.Identity, inputs []CreateUserInput) ([]*domain.User, error) {
	if !caller.IsAdmin() {
		return nil, apperrors.Unauthorized()
	}

	users := make([]*domain.User, 0, len(inputs))
	for _, input := range inputs {
		role := input.Role
		if role == "" {
			role = domain.RoleUser
		}
		if !domain.IsValidRole(role) {
			return nil, apperrors.Validation(map[string]string{
				"role": fmt.Sprintf("must be one of: %s", strings.Join(domain.ValidRoles(), ", ")),
			})
		}

		hash, err := s.hasher.Hash(ctx, input.Password)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}

		users = append(users, &domain.User{
			Username:     input.Username,
			Email:        input.Email,
			PasswordHash: hash,
			FirstName:    input.FirstName,
			LastName:     input.LastName,
			Age:          input.Age,
			Role:         role,
		})
	}

	if err := s.users.CreateMany(ctx, users); err != nil {
		return nil, err
	}

	for _, user := range users {
		if err := s.events.PublishUserRegistered(ctx, user); err != nil {
			s.logger.ErrorContext(ctx, "failed to publish user.registered event",
				slog.Int64("user_id", user.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	s.logger.InfoContext(ctx, "users created", slog.Int("count", len(users)))

	return users, nil
}

// FindTokenByID returns a refresh token record. Only the token's owner or an
// admin may inspect it.
func (s *UserService) FindTokenByID(ctx context.Context, caller auth.Identity, id int64) (*domain.RefreshToken, error) {
	token, err := s.tokens.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := auth.Authorize(caller, token.UserID); err != nil {
		return nil, err
	}

	return token, nil
}

// DeleteTokenByID revokes a refresh token record by id. Only the token's
// owner or an admin may revoke it.
func (s *UserService) DeleteTokenByID(ctx context.Context, caller auth.Identity, id int64) error {
	token, err := s.tokens.FindByID(ctx, id)
	if err != nil {
		return err
	}

	if err := auth.Authorize(caller, token.UserID); err != nil {
		return err
	}

	if _, err := s.tokens.Delete(ctx, token.ID); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "refresh token revoked",
		slog.Int64("token_id", token.ID),
		slog.Int64("user_id", token.UserID),
	)

	return nil
}

// VerifyUser resolves the account behind a set of token claims. A valid
// token whose account has since been deleted is reported as unavailable.
func (s *UserService) VerifyUser(ctx context.Context, userID int64) (*domain.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.UserUnavailable()
		}
		return nil, err
	}

	return user, nil
}
