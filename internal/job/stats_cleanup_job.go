package job

import (
	"context"
	"time"

	"github.com/campusbot/campusbot/internal/stats"
)

// StatsCleanupJob trims analytics rows past the retention horizon.
type StatsCleanupJob struct {
	recorder      *stats.SQLiteRecorder
	retentionDays int
}

func NewStatsCleanupJob(recorder *stats.SQLiteRecorder, retentionDays int) *StatsCleanupJob {
	return &StatsCleanupJob{recorder: recorder, retentionDays: retentionDays}
}

func (j *StatsCleanupJob) Name() string {
	return "stats_cleanup"
}

func (j *StatsCleanupJob) Run(ctx context.Context) error {
	if j.recorder == nil {
		return nil
	}
	days := j.retentionDays
	if days <= 0 {
		days = 90
	}
	cutoff := time.Now().Add(-time.Duration(days) * 24 * time.Hour).Unix()
	return j.recorder.DeleteBefore(ctx, cutoff)
}
