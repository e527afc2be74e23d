package stats

import (
	"context"
	"time"
)

// Interaction is one completed chat turn, as reported to the analytics sink.
type Interaction struct {
	Timestamp      time.Time
	UserID         string
	SessionID      string
	Query          string
	Response       string
	SearchMethod   string
	ResultsCount   int
	Fallback       bool
	ResponseTimeMS int64
	UserRole       string
	UserCampus     string
}

// SearchEvent is one direct search call, for retrieval quality tracking.
type SearchEvent struct {
	Timestamp    time.Time
	Query        string
	SearchMethod string
	ResultsCount int
	Fallback     bool
	SearchTimeMS int64
	MaxScore     float64
	MinScore     float64
}

// Recorder is a fire-and-forget sink: implementations must never block the
// request path or surface failures to it.
type Recorder interface {
	RecordInteraction(ctx context.Context, it *Interaction)
	RecordSearch(ctx context.Context, ev *SearchEvent)
	StartSession(ctx context.Context, sessionID, userID string)
	EndSession(ctx context.Context, sessionID string)
	Close() error
}

// Noop discards everything; used when statistics are disabled.
type Noop struct{}

func (Noop) RecordInteraction(ctx context.Context, it *Interaction)     {}
func (Noop) RecordSearch(ctx context.Context, ev *SearchEvent)          {}
func (Noop) StartSession(ctx context.Context, sessionID, userID string) {}
func (Noop) EndSession(ctx context.Context, sessionID string)           {}
func (Noop) Close() error                                               { return nil }
