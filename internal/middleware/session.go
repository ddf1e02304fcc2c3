package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/DebarghaSamanta/THE-AI-MAVERICKS/internal/entity"
	"github.com/DebarghaSamanta/THE-AI-MAVERICKS/internal/session"
)

// SessionLifecycle is the part of the session manager the HTTP layer needs.
type SessionLifecycle interface {
	Begin(ctx context.Context, id string) (*entity.Session, error)
	Save(ctx context.Context, sess *entity.Session) error
	Touch(sess *entity.Session) error
}

// Sessions binds session context objects to requests through a signed cookie.
type Sessions struct {
	manager SessionLifecycle
	codec   *session.CookieCodec
	secure  bool
	logger  *zap.Logger
}

func NewSessions(manager SessionLifecycle, codec *session.CookieCodec, secureCookies bool, logger *zap.Logger) *Sessions {
	return &Sessions{
		manager: manager,
		codec:   codec,
		secure:  secureCookies,
		logger:  logger.Named("SessionMiddleware"),
	}
}

// Load attaches the caller's session to the request context, starting a new
// one when the cookie is missing, invalid or points at nothing.
func (s *Sessions) Load(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := ""
		if c, err := r.Cookie(session.CookieName); err == nil {
			id, err = s.codec.Decode(c.Value)
			if err != nil {
				s.logger.Debug("Discarding session cookie", zap.Error(err))
				id = ""
			}
		}

		sess, err := s.manager.Begin(r.Context(), id)
		if err != nil {
			s.logger.Error("Failed to load session", zap.Error(err))
			writeError(w, http.StatusServiceUnavailable, "Service temporarily unavailable. Please try again later.")
			return
		}
		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), sess)))
	})
}

// RequireAuth runs the idle check before the protected handler writes
// anything. Expired or anonymous sessions get 401.
func (s *Sessions) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, ok := SessionFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "Please log in to continue.")
			return
		}

		if err := s.manager.Touch(sess); err != nil {
			if !errors.Is(err, session.ErrSessionExpired) {
				s.logger.Error("Session check failed", zap.String("sessionID", sess.ID), zap.Error(err))
				writeError(w, http.StatusInternalServerError, "Something went wrong. Please try again.")
				return
			}
			if err := s.Commit(w, r, sess); err != nil {
				writeError(w, http.StatusServiceUnavailable, "Service temporarily unavailable. Please try again later.")
				return
			}
			writeError(w, http.StatusUnauthorized, session.ExpiredMessage)
			return
		}
		if !sess.Authenticated() {
			writeError(w, http.StatusUnauthorized, "Please log in to continue.")
			return
		}

		ctx := context.WithValue(r.Context(), PrincipalCtxKey, sess.Principal)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Commit persists sess and sets its cookie. It must run before the response
// status is written.
func (s *Sessions) Commit(w http.ResponseWriter, r *http.Request, sess *entity.Session) error {
	if err := s.manager.Save(r.Context(), sess); err != nil {
		s.logger.Error("Failed to save session", zap.String("sessionID", sess.ID), zap.Error(err))
		return err
	}
	token, err := s.codec.Encode(sess.ID)
	if err != nil {
		s.logger.Error("Failed to sign session cookie", zap.String("sessionID", sess.ID), zap.Error(err))
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     session.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   s.codec.MaxAge(),
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
