package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/campusbot/campusbot/internal/model"
	appErr "github.com/campusbot/campusbot/internal/pkg/errors"
)

const redisKeyPrefix = "campusbot:session:"

// RedisStore keeps sessions in an external key-value store so multiple
// stateless replicas can share them. Idle expiry rides on redis TTLs; writes
// within one replica are still serialized by the per-session KeyedLock, and
// deployments running several replicas should keep sticky routing per
// session id.
type RedisStore struct {
	client  *redis.Client
	idleTTL time.Duration
	now     func() time.Time
}

func NewRedisStore(client *redis.Client, idleTTL time.Duration) *RedisStore {
	return &RedisStore{client: client, idleTTL: idleTTL, now: time.Now}
}

func (s *RedisStore) key(sessionID string) string {
	return redisKeyPrefix + sessionID
}

func (s *RedisStore) GetOrCreate(ctx context.Context, sessionID, userID string) (*model.Session, error) {
	sess, err := s.load(ctx, sessionID)
	if err == nil {
		return sess, nil
	}
	if !errors.Is(err, appErr.ErrSessionNotFound) {
		return nil, err
	}
	now := s.now()
	sess = &model.Session{
		SessionID:    sessionID,
		UserID:       userID,
		CreatedAt:    now,
		LastActiveAt: now,
	}
	if err := s.Save(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

func (s *RedisStore) Get(ctx context.Context, sessionID string) (*model.Session, error) {
	return s.load(ctx, sessionID)
}

func (s *RedisStore) load(ctx context.Context, sessionID string) (*model.Session, error) {
	data, err := s.client.Get(ctx, s.key(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, appErr.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get session: %w", err)
	}
	var sess model.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &sess, nil
}

func (s *RedisStore) Save(ctx context.Context, sess *model.Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := s.client.Set(ctx, s.key(sess.SessionID), data, s.idleTTL).Err(); err != nil {
		return fmt.Errorf("redis save session: %w", err)
	}
	return nil
}

func (s *RedisStore) Touch(ctx context.Context, sessionID string) error {
	ok, err := s.client.Expire(ctx, s.key(sessionID), s.idleTTL).Result()
	if err != nil {
		return fmt.Errorf("redis touch session: %w", err)
	}
	if !ok {
		return appErr.ErrSessionNotFound
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, s.key(sessionID)).Err(); err != nil {
		return fmt.Errorf("redis delete session: %w", err)
	}
	return nil
}

// EvictExpired is a no-op: redis expires keys by TTL on its own.
func (s *RedisStore) EvictExpired(ctx context.Context) error {
	return nil
}
