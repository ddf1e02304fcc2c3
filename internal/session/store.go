package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/DebarghaSamanta/THE-AI-MAVERICKS/internal/entity"
	"github.com/DebarghaSamanta/THE-AI-MAVERICKS/internal/port/cache"
)

const keyPrefix = "session:"

// ErrNotFound is returned by Load when no session is stored under the id.
var ErrNotFound = errors.New("session not found")

type Store interface {
	Load(ctx context.Context, id string) (*entity.Session, error)
	Save(ctx context.Context, sess *entity.Session) error
	Delete(ctx context.Context, id string) error
}

// CacheStore keeps sessions as JSON documents in a cache with a fixed TTL.
type CacheStore struct {
	cache  cache.Cache
	ttl    time.Duration
	logger *zap.Logger
}

func NewCacheStore(c cache.Cache, ttl time.Duration, logger *zap.Logger) *CacheStore {
	return &CacheStore{cache: c, ttl: ttl, logger: logger.Named("SessionStore")}
}

func (s *CacheStore) Load(ctx context.Context, id string) (*entity.Session, error) {
	raw, err := s.cache.Get(ctx, keyPrefix+id)
	if err != nil {
		if errors.Is(err, cache.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load session: %w", err)
	}
	var sess entity.Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		s.logger.Warn("Discarding undecodable session", zap.String("sessionID", id), zap.Error(err))
		return nil, ErrNotFound
	}
	return &sess, nil
}

func (s *CacheStore) Save(ctx context.Context, sess *entity.Session) error {
	raw, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := s.cache.Set(ctx, keyPrefix+sess.ID, raw, s.ttl); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	if sess.RotatedFrom != "" && sess.RotatedFrom != sess.ID {
		if err := s.cache.Delete(ctx, keyPrefix+sess.RotatedFrom); err != nil {
			s.logger.Warn("Failed to drop rotated session", zap.String("sessionID", sess.RotatedFrom), zap.Error(err))
		}
		sess.RotatedFrom = ""
	}
	return nil
}

func (s *CacheStore) Delete(ctx context.Context, id string) error {
	if err := s.cache.Delete(ctx, keyPrefix+id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
