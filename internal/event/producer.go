package event

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/ivaylo9512/Platform-app-auth-server/internal/domain"
	pkgkafka "github.com/ivaylo9512/Platform-app-auth-server/pkg/kafka"
)

// Kafka topic constants for account domain events.
const (
	TopicUserRegistered    = "accounts.user.registered"
	TopicUserUpdated       = "accounts.user.updated"
	TopicUserDeleted       = "accounts.user.deleted"
	TopicUserPasswordReset = "accounts.user.password_reset"
)

// Aggregate type constant.
const AggregateTypeUser = "user"

// Source identifier for events originating from the auth server.
const SourceAuthServer = "auth-server"

// UserRegisteredData is the payload for a user.registered event.
type UserRegisteredData struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Role      string `json:"role"`
}

// UserUpdatedData is the payload for a user.updated event.
type UserUpdatedData struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Role      string `json:"role"`
}

// UserDeletedData is the payload for a user.deleted event.
type UserDeletedData struct {
	ID int64 `json:"id"`
}

// UserPasswordResetData is the payload for a user.password_reset event. The
// reset token itself travels here; a downstream mailer turns it into an email.
type UserPasswordResetData struct {
	UserID     int64  `json:"userId"`
	Email      string `json:"email"`
	ResetToken string `json:"resetToken"`
}

// Producer publishes account domain events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new event producer for the auth server.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishUserRegistered publishes a user.registered event.
func (p *Producer) PublishUserRegistered(ctx context.Context, user *domain.User) error {
	data := UserRegisteredData{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Role:      user.Role,
	}

	event, err := pkgkafka.NewEvent(TopicUserRegistered, aggregateID(user.ID), AggregateTypeUser, SourceAuthServer, data)
	if err != nil {
		return fmt.Errorf("create user.registered event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicUserRegistered, event); err != nil {
		return fmt.Errorf("publish user.registered event: %w", err)
	}

	p.logger.DebugContext(ctx, "published user.registered event",
		slog.Int64("user_id", user.ID),
		slog.String("username", user.Username),
	)

	return nil
}

// PublishUserUpdated publishes a user.updated event.
func (p *Producer) PublishUserUpdated(ctx context.Context, user *domain.User) error {
	data := UserUpdatedData{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Role:      user.Role,
	}

	event, err := pkgkafka.NewEvent(TopicUserUpdated, aggregateID(user.ID), AggregateTypeUser, SourceAuthServer, data)
	if err != nil {
		return fmt.Errorf("create user.updated event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicUserUpdated, event); err != nil {
		return fmt.Errorf("publish user.updated event: %w", err)
	}

	p.logger.DebugContext(ctx, "published user.updated event", slog.Int64("user_id", user.ID))

	return nil
}

// PublishUserDeleted publishes a user.deleted event.
func (p *Producer) PublishUserDeleted(ctx context.Context, userID int64) error {
	event, err := pkgkafka.NewEvent(TopicUserDeleted, aggregateID(userID), AggregateTypeUser, SourceAuthServer, UserDeletedData{ID: userID})
	if err != nil {
		return fmt.Errorf("create user.deleted event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicUserDeleted, event); err != nil {
		return fmt.Errorf("publish user.deleted event: %w", err)
	}

	p.logger.DebugContext(ctx, "published user.deleted event", slog.Int64("user_id", userID))

	return nil
}

// PublishPasswordReset publishes a user.password_reset event.
func (p *Producer) PublishPasswordReset(ctx context.Context, user *domain.User, resetToken string) error {
	data := UserPasswordResetData{
		UserID:     user.ID,
		Email:      user.Email,
		ResetToken: resetToken,
	}

	event, err := pkgkafka.NewEvent(TopicUserPasswordReset, aggregateID(user.ID), AggregateTypeUser, SourceAuthServer, data)
	if err != nil {
		return fmt.Errorf("create user.password_reset event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicUserPasswordReset, event); err != nil {
		return fmt.Errorf("publish user.password_reset event: %w", err)
	}

	p.logger.DebugContext(ctx, "published user.password_reset event", slog.Int64("user_id", user.ID))

	return nil
}

func aggregateID(id int64) string {
	return strconv.FormatInt(id, 10)
}
