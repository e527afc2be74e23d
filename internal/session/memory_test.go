package session

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/campusbot/campusbot/internal/model"
	appErr "github.com/campusbot/campusbot/internal/pkg/errors"
)

func TestMemoryStore_GetOrCreateIsIdempotent(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	ctx := context.Background()

	first, err := store.GetOrCreate(ctx, "s1", "u1")
	require.NoError(t, err)
	require.Equal(t, "u1", first.UserID)
	require.False(t, first.CreatedAt.IsZero())

	again, err := store.GetOrCreate(ctx, "s1", "someone-else")
	require.NoError(t, err)
	require.Equal(t, "u1", again.UserID)
	require.Equal(t, first.CreatedAt, again.CreatedAt)
}

func TestMemoryStore_MutationsOnlyVisibleAfterSave(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	ctx := context.Background()

	sess, err := store.GetOrCreate(ctx, "s1", "u1")
	require.NoError(t, err)

	sess.Campus = "Garching"
	sess.AppendTurn(model.SpeakerUser, "hello", 12, time.Now())

	cached, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	require.Empty(t, cached.Campus)
	require.Empty(t, cached.History)

	require.NoError(t, store.Save(ctx, sess))
	cached, err = store.Get(ctx, "s1")
	require.NoError(t, err)
	require.Equal(t, "Garching", cached.Campus)
	require.Len(t, cached.History, 1)
}

func TestMemoryStore_DeleteRemovesSession(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	ctx := context.Background()

	_, err := store.GetOrCreate(ctx, "s1", "u1")
	require.NoError(t, err)
	require.NoError(t, store.Delete(ctx, "s1"))

	_, err = store.Get(ctx, "s1")
	require.ErrorIs(t, err, appErr.ErrSessionNotFound)
}

func TestMemoryStore_IdleSessionsExpire(t *testing.T) {
	store := NewMemoryStore(20 * time.Millisecond)
	ctx := context.Background()

	_, err := store.GetOrCreate(ctx, "s1", "u1")
	require.NoError(t, err)

	time.Sleep(50 * time.Millisecond)
	_, err = store.Get(ctx, "s1")
	require.ErrorIs(t, err, appErr.ErrSessionNotFound)
}

func TestMemoryStore_TouchExtendsIdleTTL(t *testing.T) {
	store := NewMemoryStore(60 * time.Millisecond)
	ctx := context.Background()

	_, err := store.GetOrCreate(ctx, "s1", "u1")
	require.NoError(t, err)

	time.Sleep(40 * time.Millisecond)
	require.NoError(t, store.Touch(ctx, "s1"))

	time.Sleep(40 * time.Millisecond)
	_, err = store.Get(ctx, "s1")
	require.NoError(t, err)

	require.ErrorIs(t, store.Touch(ctx, "missing"), appErr.ErrSessionNotFound)
}

func TestKeyedLock_DistinctKeysNeverBlockEachOther(t *testing.T) {
	locks := NewKeyedLock()

	// One turn stuck in a long generation call must not delay any other
	// session, whatever its id. With more keys than any fixed bucket count
	// could separate, a shared-bucket scheme would deadlock this test.
	unlock := locks.Lock("held-session")
	defer unlock()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 256; i++ {
			u := locks.Lock(fmt.Sprintf("session-%d", i))
			u()
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("an unrelated session blocked behind a held lock")
	}
}

func TestKeyedLock_ReleasedEntriesAreDropped(t *testing.T) {
	locks := NewKeyedLock()

	u1 := locks.Lock("s1")
	u2 := locks.Lock("s2")
	require.Len(t, locks.locks, 2)

	u1()
	u2()
	require.Empty(t, locks.locks)

	// Relocking after cleanup still works.
	u := locks.Lock("s1")
	require.Len(t, locks.locks, 1)
	u()
	require.Empty(t, locks.locks)
}

func TestKeyedLock_SerializesSameKey(t *testing.T) {
	locks := NewKeyedLock()

	unlock := locks.Lock("s1")
	acquired := make(chan struct{})
	go func() {
		u := locks.Lock("s1")
		close(acquired)
		u()
	}()

	select {
	case <-acquired:
		t.Fatal("second lock acquired while first still held")
	case <-time.After(20 * time.Millisecond):
	}

	unlock()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("second lock never acquired")
	}
}
