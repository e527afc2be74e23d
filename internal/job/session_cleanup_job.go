package job

import (
	"context"

	"github.com/campusbot/campusbot/internal/session"
)

// SessionCleanupJob sweeps idle-expired sessions out of the session store.
// For backends with native expiry (redis) the sweep is a no-op.
type SessionCleanupJob struct {
	store session.Store
}

func NewSessionCleanupJob(store session.Store) *SessionCleanupJob {
	return &SessionCleanupJob{store: store}
}

func (j *SessionCleanupJob) Name() string {
	return "session_cleanup"
}

func (j *SessionCleanupJob) Run(ctx context.Context) error {
	if j.store == nil {
		return nil
	}
	return j.store.EvictExpired(ctx)
}
