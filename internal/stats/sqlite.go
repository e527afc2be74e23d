package stats

import (
	"context"
	"fmt"
	"time"

	"github.com/didi/gendry/builder"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

const schema = `
CREATE TABLE IF NOT EXISTS chat_interactions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	timestamp INTEGER NOT NULL,
	user_id TEXT,
	session_id TEXT,
	query TEXT,
	response TEXT,
	search_method TEXT,
	results_count INTEGER,
	fallback INTEGER,
	response_time_ms INTEGER,
	user_role TEXT,
	user_campus TEXT,
	query_length INTEGER,
	response_length INTEGER
);
CREATE TABLE IF NOT EXISTS search_events (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	timestamp INTEGER NOT NULL,
	query TEXT,
	search_method TEXT,
	results_count INTEGER,
	fallback INTEGER,
	search_time_ms INTEGER,
	max_score REAL,
	min_score REAL
);
CREATE TABLE IF NOT EXISTS user_sessions (
	session_id TEXT PRIMARY KEY,
	user_id TEXT,
	started_at INTEGER NOT NULL,
	ended_at INTEGER
);
CREATE INDEX IF NOT EXISTS idx_interactions_ts ON chat_interactions(timestamp);
CREATE INDEX IF NOT EXISTS idx_search_ts ON search_events(timestamp);
`

type write struct {
	kind  string // insert, upsert, update
	table string
	data  map[string]interface{}
	where map[string]interface{}
}

// SQLiteRecorder writes analytics rows through a single background worker so
// the chat path never waits on disk. A full queue drops events rather than
// blocking; analytics loss must not cost a user-visible turn.
type SQLiteRecorder struct {
	db     *sqlx.DB
	writes chan write
	done   chan struct{}
}

func NewSQLiteRecorder(path string) (*SQLiteRecorder, error) {
	db, err := sqlx.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open stats db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init stats schema: %w", err)
	}
	r := &SQLiteRecorder{
		db:     db,
		writes: make(chan write, 1024),
		done:   make(chan struct{}),
	}
	go r.loop()
	return r, nil
}

func (r *SQLiteRecorder) loop() {
	defer close(r.done)
	ctx := context.Background()
	for w := range r.writes {
		if err := r.apply(ctx, w); err != nil {
			logutil.GetLogger(ctx).Warn("stats write failed",
				zap.String("table", w.table),
				zap.Error(err),
			)
		}
	}
}

func (r *SQLiteRecorder) apply(ctx context.Context, w write) error {
	var sqlStr string
	var args []interface{}
	var err error
	switch w.kind {
	case "update":
		sqlStr, args, err = builder.BuildUpdate(w.table, w.where, w.data)
	default:
		sqlStr, args, err = builder.BuildInsert(w.table, []map[string]interface{}{w.data})
		if w.kind == "upsert" {
			sqlStr = "INSERT OR REPLACE" + sqlStr[len("INSERT"):]
		}
	}
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *SQLiteRecorder) enqueue(ctx context.Context, w write) {
	select {
	case r.writes <- w:
	default:
		logutil.GetLogger(ctx).Warn("stats queue full, event dropped", zap.String("table", w.table))
	}
}

func (r *SQLiteRecorder) RecordInteraction(ctx context.Context, it *Interaction) {
	r.enqueue(ctx, write{table: "chat_interactions", data: map[string]interface{}{
		"timestamp":        it.Timestamp.Unix(),
		"user_id":          it.UserID,
		"session_id":       it.SessionID,
		"query":            it.Query,
		"response":         it.Response,
		"search_method":    it.SearchMethod,
		"results_count":    it.ResultsCount,
		"fallback":         boolToInt(it.Fallback),
		"response_time_ms": it.ResponseTimeMS,
		"user_role":        it.UserRole,
		"user_campus":      it.UserCampus,
		"query_length":     len(it.Query),
		"response_length":  len(it.Response),
	}})
}

func (r *SQLiteRecorder) RecordSearch(ctx context.Context, ev *SearchEvent) {
	r.enqueue(ctx, write{table: "search_events", data: map[string]interface{}{
		"timestamp":      ev.Timestamp.Unix(),
		"query":          ev.Query,
		"search_method":  ev.SearchMethod,
		"results_count":  ev.ResultsCount,
		"fallback":       boolToInt(ev.Fallback),
		"search_time_ms": ev.SearchTimeMS,
		"max_score":      ev.MaxScore,
		"min_score":      ev.MinScore,
	}})
}

func (r *SQLiteRecorder) StartSession(ctx context.Context, sessionID, userID string) {
	r.enqueue(ctx, write{kind: "upsert", table: "user_sessions", data: map[string]interface{}{
		"session_id": sessionID,
		"user_id":    userID,
		"started_at": time.Now().Unix(),
	}})
}

func (r *SQLiteRecorder) EndSession(ctx context.Context, sessionID string) {
	r.enqueue(ctx, write{
		kind:  "update",
		table: "user_sessions",
		where: map[string]interface{}{"session_id": sessionID},
		data:  map[string]interface{}{"ended_at": time.Now().Unix()},
	})
}

// DeleteBefore removes analytics rows older than cutoff; used by the
// retention cleanup job.
func (r *SQLiteRecorder) DeleteBefore(ctx context.Context, cutoff int64) error {
	for _, table := range []string{"chat_interactions", "search_events"} {
		where := map[string]interface{}{"timestamp <": cutoff}
		sqlStr, args, err := builder.BuildDelete(table, where)
		if err != nil {
			return err
		}
		if _, err := r.db.ExecContext(ctx, sqlStr, args...); err != nil {
			return err
		}
	}
	return nil
}

func (r *SQLiteRecorder) Close() error {
	close(r.writes)
	<-r.done
	return r.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
