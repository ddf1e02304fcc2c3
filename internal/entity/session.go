package entity

import (
	"fmt"
	"time"
)

// Page is a state of the authentication page machine.
type Page int

const (
	PageLogin Page = iota
	PageSignup
	PageVerify
	PageForgotPassword
	PageResetPassword
)

var pageNames = map[Page]string{
	PageLogin:          "login",
	PageSignup:         "signup",
	PageVerify:         "verify",
	PageForgotPassword: "forgot_password",
	PageResetPassword:  "reset_password",
}

func (p Page) String() string {
	if name, ok := pageNames[p]; ok {
		return name
	}
	return fmt.Sprintf("page(%d)", int(p))
}

func ParsePage(s string) (Page, error) {
	for p, name := range pageNames {
		if name == s {
			return p, nil
		}
	}
	return PageLogin, fmt.Errorf("unknown page %q", s)
}

func (p Page) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Page) UnmarshalText(b []byte) error {
	parsed, err := ParsePage(string(b))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// Principal is the authenticated identity carried by a session.
type Principal struct {
	UserID     string `json:"user_id"`
	Email      string `json:"email"`
	Name       string `json:"name"`
	NationalID string `json:"national_id"`
	Role       Role   `json:"role"`
}

// PendingRegistration holds a signup draft until its emailed code is confirmed.
type PendingRegistration struct {
	Draft    User      `json:"draft"`
	Code     string    `json:"code"`
	Email    string    `json:"email"`
	IssuedAt time.Time `json:"issued_at"`
	Attempts int       `json:"attempts"`
}

// Session is the per-browser context passed to every auth operation.
type Session struct {
	ID           string               `json:"id"`
	Page         Page                 `json:"page"`
	Principal    *Principal           `json:"principal,omitempty"`
	LoginTime    time.Time            `json:"login_time"`
	LastActivity time.Time            `json:"last_activity"`
	Pending      *PendingRegistration `json:"pending,omitempty"`
	ResetEmail   string               `json:"reset_email,omitempty"`

	// RotatedFrom is the id this session had before its last rotation. The
	// store drops the old record on the next save.
	RotatedFrom string `json:"-"`
}

func NewSession(id string, now time.Time) *Session {
	return &Session{ID: id, Page: PageLogin, LastActivity: now}
}

func (s *Session) Authenticated() bool {
	return s != nil && s.Principal != nil
}

// Reset clears all auth state and returns the session to the login page.
func (s *Session) Reset(now time.Time) {
	*s = Session{ID: s.ID, Page: PageLogin, LastActivity: now, RotatedFrom: s.RotatedFrom}
}
