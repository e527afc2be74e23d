package session

import (
	"context"
	"sync"

	"github.com/campusbot/campusbot/internal/model"
)

// Store owns all Session objects. GetOrCreate hands out a working copy for
// one turn; mutations become visible only through Save. A single replica can
// use the in-process memory store; multiple replicas must use the redis
// store (or pin sessions to a replica), since conversation state does not
// travel between processes on its own.
type Store interface {
	// GetOrCreate returns the session for id, creating an empty one if the
	// id is unknown or expired.
	GetOrCreate(ctx context.Context, sessionID, userID string) (*model.Session, error)
	// Get returns the session or ErrSessionNotFound.
	Get(ctx context.Context, sessionID string) (*model.Session, error)
	// Save persists the session and refreshes its idle TTL.
	Save(ctx context.Context, sess *model.Session) error
	// Touch refreshes the idle TTL without other mutation.
	Touch(ctx context.Context, sessionID string) error
	// Delete tears the session down immediately.
	Delete(ctx context.Context, sessionID string) error
	// EvictExpired removes idle sessions; backends with native TTL may no-op.
	EvictExpired(ctx context.Context) error
}

// KeyedLock serializes turns per session id. Each id gets its own mutex, so
// a turn stuck in generation can never delay a different session; entries
// are refcounted and dropped once the last holder releases, keeping the map
// bounded by the number of in-flight turns.
type KeyedLock struct {
	mu    sync.Mutex
	locks map[string]*keyedLockEntry
}

type keyedLockEntry struct {
	mu   sync.Mutex
	refs int
}

func NewKeyedLock() *KeyedLock {
	return &KeyedLock{locks: make(map[string]*keyedLockEntry)}
}

func (l *KeyedLock) Lock(key string) func() {
	l.mu.Lock()
	entry := l.locks[key]
	if entry == nil {
		entry = &keyedLockEntry{}
		l.locks[key] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()
	return func() {
		entry.mu.Unlock()
		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.locks, key)
		}
		l.mu.Unlock()
	}
}
