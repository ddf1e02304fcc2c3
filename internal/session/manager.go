package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/DebarghaSamanta/THE-AI-MAVERICKS/internal/entity"
	"github.com/DebarghaSamanta/THE-AI-MAVERICKS/internal/platform/metrics"
)

const ExpiredMessage = "Your session has expired due to inactivity. Please log in again."

var ErrSessionExpired = errors.New("session expired due to inactivity")

// Manager owns the session lifecycle: creation on first contact, the sliding
// idle timeout, login and logout.
type Manager struct {
	store       Store
	idleTimeout time.Duration
	metrics     *metrics.MetricsManager
	logger      *zap.Logger

	now   func() time.Time
	newID func() string
}

func NewManager(store Store, idleTimeout time.Duration, m *metrics.MetricsManager, logger *zap.Logger) *Manager {
	return &Manager{
		store:       store,
		idleTimeout: idleTimeout,
		metrics:     m,
		logger:      logger.Named("SessionManager"),
		now:         time.Now,
		newID:       uuid.NewString,
	}
}

// Begin loads the session stored under id, or starts a fresh one when id is
// empty or unknown.
func (m *Manager) Begin(ctx context.Context, id string) (*entity.Session, error) {
	if id != "" {
		sess, err := m.store.Load(ctx, id)
		if err == nil {
			return sess, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
		m.logger.Debug("Session not found, starting a new one", zap.String("sessionID", id))
	}
	return entity.NewSession(m.newID(), m.now()), nil
}

func (m *Manager) Save(ctx context.Context, sess *entity.Session) error {
	return m.store.Save(ctx, sess)
}

func (m *Manager) idle(sess *entity.Session) bool {
	return m.now().Sub(sess.LastActivity) > m.idleTimeout
}

// IsAuthenticated reports whether sess holds a principal that is still within
// the idle window. It does not refresh the activity timestamp.
func (m *Manager) IsAuthenticated(sess *entity.Session) bool {
	return sess.Authenticated() && !m.idle(sess)
}

// Touch enforces the idle timeout. An authenticated session idle for longer
// than the threshold is cleared and ErrSessionExpired returned; otherwise the
// activity timestamp slides forward to now.
func (m *Manager) Touch(sess *entity.Session) error {
	now := m.now()
	if sess.Authenticated() && m.idle(sess) {
		m.logger.Info("Session expired due to inactivity",
			zap.String("sessionID", sess.ID),
			zap.Duration("idle", now.Sub(sess.LastActivity)))
		sess.Reset(now)
		m.metrics.ObserveSessionExpired()
		return ErrSessionExpired
	}
	sess.LastActivity = now
	return nil
}

// Login establishes user as the principal of sess. The session id is rotated
// and any transient signup or reset state is dropped.
func (m *Manager) Login(sess *entity.Session, user *entity.User) *entity.Session {
	now := m.now()
	m.rotate(sess)
	sess.Principal = &entity.Principal{
		UserID:     user.ID.Hex(),
		Email:      user.Email,
		Name:       user.Name,
		NationalID: user.NationalID,
		Role:       user.Role,
	}
	sess.LoginTime = now
	sess.LastActivity = now
	sess.Pending = nil
	sess.ResetEmail = ""
	m.logger.Info("User logged in", zap.String("sessionID", sess.ID), zap.String("userID", sess.Principal.UserID))
	return sess
}

// Logout destroys the stored session and leaves sess as a fresh anonymous
// session under a new id.
func (m *Manager) Logout(ctx context.Context, sess *entity.Session) error {
	oldID := sess.ID
	if err := m.store.Delete(ctx, oldID); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	if sess.RotatedFrom != "" && sess.RotatedFrom != oldID {
		if err := m.store.Delete(ctx, sess.RotatedFrom); err != nil {
			m.logger.Warn("Failed to drop rotated session on logout", zap.String("sessionID", sess.RotatedFrom), zap.Error(err))
		}
	}
	*sess = *entity.NewSession(m.newID(), m.now())
	m.logger.Info("Session logged out", zap.String("sessionID", oldID))
	return nil
}

func (m *Manager) rotate(sess *entity.Session) {
	if sess.RotatedFrom == "" {
		sess.RotatedFrom = sess.ID
	}
	sess.ID = m.newID()
}
