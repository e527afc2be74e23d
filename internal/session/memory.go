package session

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/campusbot/campusbot/internal/model"
	appErr "github.com/campusbot/campusbot/internal/pkg/errors"
)

// MemoryStore keeps sessions in process memory with an idle TTL. go-cache
// purges expired entries on its own interval; EvictExpired lets the cron
// sweep force a purge as well.
type MemoryStore struct {
	cache *gocache.Cache
	now   func() time.Time
}

func NewMemoryStore(idleTTL time.Duration) *MemoryStore {
	purge := idleTTL / 6
	if purge < time.Minute {
		purge = time.Minute
	}
	return &MemoryStore{
		cache: gocache.New(idleTTL, purge),
		now:   time.Now,
	}
}

func (s *MemoryStore) GetOrCreate(ctx context.Context, sessionID, userID string) (*model.Session, error) {
	if v, ok := s.cache.Get(sessionID); ok {
		return cloneSession(v.(*model.Session)), nil
	}
	now := s.now()
	sess := &model.Session{
		SessionID:    sessionID,
		UserID:       userID,
		CreatedAt:    now,
		LastActiveAt: now,
	}
	s.cache.Set(sessionID, cloneSession(sess), gocache.DefaultExpiration)
	return sess, nil
}

func (s *MemoryStore) Get(ctx context.Context, sessionID string) (*model.Session, error) {
	v, ok := s.cache.Get(sessionID)
	if !ok {
		return nil, appErr.ErrSessionNotFound
	}
	return cloneSession(v.(*model.Session)), nil
}

func (s *MemoryStore) Save(ctx context.Context, sess *model.Session) error {
	s.cache.Set(sess.SessionID, cloneSession(sess), gocache.DefaultExpiration)
	return nil
}

func (s *MemoryStore) Touch(ctx context.Context, sessionID string) error {
	v, ok := s.cache.Get(sessionID)
	if !ok {
		return appErr.ErrSessionNotFound
	}
	sess := v.(*model.Session)
	sess.LastActiveAt = s.now()
	s.cache.Set(sessionID, sess, gocache.DefaultExpiration)
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, sessionID string) error {
	s.cache.Delete(sessionID)
	return nil
}

func (s *MemoryStore) EvictExpired(ctx context.Context) error {
	s.cache.DeleteExpired()
	return nil
}

// cloneSession keeps the cache's copy isolated from the copy a request
// mutates, so state only changes through Save.
func cloneSession(sess *model.Session) *model.Session {
	clone := *sess
	clone.History = make([]model.Turn, len(sess.History))
	copy(clone.History, sess.History)
	return &clone
}
