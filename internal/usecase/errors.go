package usecase

import (
	"errors"

	"github.com/DebarghaSamanta/THE-AI-MAVERICKS/internal/repository"
)

var (
	ErrInvalidCode           = errors.New("invalid verification code")
	ErrCodeExpired           = errors.New("verification code expired")
	ErrTooManyAttempts       = errors.New("too many invalid verification attempts")
	ErrInvalidToken          = errors.New("invalid reset token")
	ErrExpiredToken          = errors.New("reset token expired")
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrNoPendingRegistration = errors.New("no registration awaiting verification")
	ErrNoResetInProgress     = errors.New("no password reset in progress")
	ErrInvalidTransition     = errors.New("invalid page transition")
)

// NotRegisteredError is returned when a password reset names an unknown account.
type NotRegisteredError struct {
	ByEmail bool
}

func (e *NotRegisteredError) Error() string {
	if e.ByEmail {
		return "Email not registered"
	}
	return "National ID number not registered"
}

func (e *NotRegisteredError) Unwrap() error {
	return repository.ErrUserNotFound
}
