package repository

import (
	"errors"
	"fmt"
)

var (
	// ErrConflict is matched by both duplicate-key errors.
	ErrConflict            = errors.New("record already exists")
	ErrDuplicateEmail      = fmt.Errorf("email already registered: %w", ErrConflict)
	ErrDuplicateNationalID = fmt.Errorf("national ID number already registered: %w", ErrConflict)
	ErrUserNotFound        = errors.New("user not found")
	// ErrResetTokenRejected means no account holds that unexpired reset token.
	ErrResetTokenRejected = errors.New("reset token not active")
	// ErrStoreUnavailable covers every driver failure that is not a duplicate or a miss.
	ErrStoreUnavailable = errors.New("credential store unavailable")
)
