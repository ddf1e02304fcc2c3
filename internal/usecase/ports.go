package usecase

import (
	"context"
	"time"

	"github.com/DebarghaSamanta/THE-AI-MAVERICKS/internal/entity"
)

type CredentialStore interface {
	EmailExists(ctx context.Context, email string) (bool, error)
	NationalIDExists(ctx context.Context, nationalID string) (bool, error)
	CreateUser(ctx context.Context, user *entity.User) error
	FindByIdentifier(ctx context.Context, identifier string, isEmail bool) (*entity.User, error)
	SetResetToken(ctx context.Context, identifier string, isEmail bool, token string, expiry time.Time) error
	// ConsumeResetToken sets the password and clears the reset token in one
	// write, only while token is the stored unexpired token.
	ConsumeResetToken(ctx context.Context, email, token string, now time.Time, passwordHash string) error
}

type UserRegisteredEvent struct {
	UserID       string    `json:"user_id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Role         string    `json:"role"`
	RegisteredAt time.Time `json:"registered_at"`
}

type PasswordResetEvent struct {
	Email   string    `json:"email"`
	ResetAt time.Time `json:"reset_at"`
}

type EventPublisher interface {
	PublishUserRegistered(ctx context.Context, event UserRegisteredEvent) error
	PublishPasswordReset(ctx context.Context, event PasswordResetEvent) error
}

// NopPublisher drops events; used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) PublishUserRegistered(context.Context, UserRegisteredEvent) error { return nil }
func (NopPublisher) PublishPasswordReset(context.Context, PasswordResetEvent) error   { return nil }

type SessionManager interface {
	Touch(sess *entity.Session) error
	Login(sess *entity.Session, user *entity.User) *entity.Session
	Logout(ctx context.Context, sess *entity.Session) error
}
