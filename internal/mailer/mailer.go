package mailer

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrSend is matched by every delivery failure returned from a Sender.
var ErrSend = errors.New("email delivery failed")

// ErrNoRecipient is the attempt error carried when Send gets an empty address.
var ErrNoRecipient = errors.New("no recipient provided for email")

// Sender delivers a plain-text email.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// AttemptError records one failed transport.
type AttemptError struct {
	Transport string
	Err       error
}

// SendError is returned when no transport delivered the message.
type SendError struct {
	To       string
	Attempts []AttemptError
}

func noRecipient() *SendError {
	return &SendError{Attempts: []AttemptError{{Transport: "none", Err: ErrNoRecipient}}}
}

func (e *SendError) Error() string {
	parts := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		parts = append(parts, fmt.Sprintf("%s: %v", a.Transport, a.Err))
	}
	return fmt.Sprintf("%v to %s (%s)", ErrSend, e.To, strings.Join(parts, "; "))
}

func (e *SendError) Is(target error) bool {
	return target == ErrSend
}

func (e *SendError) Unwrap() []error {
	errs := make([]error, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		errs = append(errs, a.Err)
	}
	return errs
}
