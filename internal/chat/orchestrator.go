package chat

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/campusbot/campusbot/internal/ai"
	"github.com/campusbot/campusbot/internal/model"
	appErr "github.com/campusbot/campusbot/internal/pkg/errors"
	"github.com/campusbot/campusbot/internal/search"
	"github.com/campusbot/campusbot/internal/session"
	"github.com/campusbot/campusbot/internal/stats"
)

const apologyReply = "I apologize, but I'm experiencing technical difficulties. Please try again later."

type OrchestratorConfig struct {
	// HistoryLimit bounds turns kept per session.
	HistoryLimit int
	// PromptTurns is how many recent turns the generation prompt includes.
	PromptTurns int
	// ContextCharBudget caps the knowledge text embedded into the prompt.
	ContextCharBudget int
	TopK              int
	MessageMaxLen     int
	GenTimeout        time.Duration
}

// Orchestrator runs the full turn pipeline: context resolution, retrieval,
// prompt assembly and generation, then persists the session and emits
// analytics. Turns of the same session are serialized.
type Orchestrator struct {
	sessions session.Store
	locks    *session.KeyedLock
	resolver *Resolver
	engine   *search.Engine
	gen      ai.IGenerator
	recorder stats.Recorder
	cfg      OrchestratorConfig
	now      func() time.Time
}

func NewOrchestrator(sessions session.Store, resolver *Resolver, engine *search.Engine,
	gen ai.IGenerator, recorder stats.Recorder, cfg OrchestratorConfig) *Orchestrator {

	if cfg.PromptTurns <= 0 {
		cfg.PromptTurns = 6
	}
	if cfg.ContextCharBudget <= 0 {
		cfg.ContextCharBudget = 4000
	}
	if cfg.MessageMaxLen <= 0 {
		cfg.MessageMaxLen = 1000
	}
	return &Orchestrator{
		sessions: sessions,
		locks:    session.NewKeyedLock(),
		resolver: resolver,
		engine:   engine,
		gen:      gen,
		recorder: recorder,
		cfg:      cfg,
		now:      time.Now,
	}
}

// TurnReply is the outward result of one chat turn.
type TurnReply struct {
	SessionID string
	Response  string
	Timestamp time.Time
}

func (o *Orchestrator) HandleTurn(ctx context.Context, sessionID, userID, message string) (*TurnReply, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, appErr.ErrInvalid
	}
	if utf8.RuneCountInString(message) > o.cfg.MessageMaxLen {
		return nil, appErr.ErrInvalid
	}
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	unlock := o.locks.Lock(sessionID)
	defer unlock()

	started := o.now()
	sess, err := o.sessions.GetOrCreate(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}

	out, err := o.resolver.Resolve(ctx, sess, message)
	if err != nil {
		return nil, err
	}
	if out.AskPrompt != "" {
		return o.finishTurn(ctx, sess, message, out.AskPrompt, started, nil)
	}

	searchStart := o.now()
	rs, err := o.engine.Search(ctx, search.Expand(out.Query), search.MethodHybrid, o.cfg.TopK)
	if err != nil {
		return nil, err
	}
	o.recordSearch(ctx, out.Query, rs, o.now().Sub(searchStart))
	if rs.Fallback {
		logutil.GetLogger(ctx).Info("no result above threshold, using fallback ranking",
			zap.String("session_id", sess.SessionID),
			zap.String("query", out.Query),
		)
	}

	prompt := buildPrompt(sess, out, rs, o.cfg.ContextCharBudget, o.cfg.PromptTurns)
	reply, genErr := o.generate(ctx, prompt)
	if genErr != nil || strings.TrimSpace(reply) == "" {
		logutil.GetLogger(ctx).Error("generation failed, returning apology",
			zap.String("session_id", sess.SessionID),
			zap.Error(genErr),
		)
		// The user turn is kept so a retry has context, but no fabricated
		// assistant turn enters the history.
		sess.AppendTurn(model.SpeakerUser, message, o.cfg.HistoryLimit, o.now())
		if err := o.sessions.Save(ctx, sess); err != nil {
			return nil, err
		}
		o.recordInteraction(ctx, sess, out.Query, apologyReply, rs, started)
		return &TurnReply{SessionID: sess.SessionID, Response: apologyReply, Timestamp: o.now()}, nil
	}
	return o.finishTurn(ctx, sess, message, reply, started, rs)
}

func (o *Orchestrator) finishTurn(ctx context.Context, sess *model.Session, message, reply string,
	started time.Time, rs *search.ResultSet) (*TurnReply, error) {

	sess.AppendTurn(model.SpeakerUser, message, o.cfg.HistoryLimit, o.now())
	sess.AppendTurn(model.SpeakerAssistant, reply, o.cfg.HistoryLimit, o.now())
	if err := o.sessions.Save(ctx, sess); err != nil {
		return nil, err
	}
	o.recordInteraction(ctx, sess, message, reply, rs, started)
	return &TurnReply{SessionID: sess.SessionID, Response: reply, Timestamp: o.now()}, nil
}

func (o *Orchestrator) generate(ctx context.Context, prompt string) (string, error) {
	if o.cfg.GenTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.cfg.GenTimeout)
		defer cancel()
	}
	reply, err := o.gen.Generate(ctx, prompt)
	if err != nil {
		if ctx.Err() != nil {
			return "", appErr.ErrGenerationTimeout
		}
		return "", appErr.ErrGenerationFailed
	}
	return reply, nil
}

// StartSession allocates a fresh session up front so clients can hold a
// stable ID before the first message.
func (o *Orchestrator) StartSession(ctx context.Context, userID string) (*model.Session, error) {
	sessionID := uuid.NewString()
	sess, err := o.sessions.GetOrCreate(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}
	o.recorder.StartSession(ctx, sessionID, userID)
	return sess, nil
}

func (o *Orchestrator) EndSession(ctx context.Context, sessionID string) error {
	unlock := o.locks.Lock(sessionID)
	defer unlock()
	if err := o.sessions.Delete(ctx, sessionID); err != nil {
		return err
	}
	o.recorder.EndSession(ctx, sessionID)
	return nil
}

func (o *Orchestrator) SessionInfo(ctx context.Context, sessionID string) (*model.Session, error) {
	sess, err := o.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	// A client polling its session is still active; keep the idle TTL moving.
	if err := o.sessions.Touch(ctx, sessionID); err != nil {
		logutil.GetLogger(ctx).Warn("session touch failed", zap.String("session_id", sessionID), zap.Error(err))
	}
	return sess, nil
}

func (o *Orchestrator) recordInteraction(ctx context.Context, sess *model.Session, query, reply string,
	rs *search.ResultSet, started time.Time) {

	it := &stats.Interaction{
		Timestamp:      o.now(),
		UserID:         sess.UserID,
		SessionID:      sess.SessionID,
		Query:          query,
		Response:       reply,
		ResponseTimeMS: o.now().Sub(started).Milliseconds(),
		UserRole:       sess.Role,
		UserCampus:     sess.Campus,
	}
	if rs != nil {
		it.SearchMethod = rs.Method.String()
		it.ResultsCount = len(rs.Results)
		it.Fallback = rs.Fallback
	}
	o.recorder.RecordInteraction(ctx, it)
}

func (o *Orchestrator) recordSearch(ctx context.Context, query string, rs *search.ResultSet, took time.Duration) {
	ev := &stats.SearchEvent{
		Timestamp:    o.now(),
		Query:        query,
		SearchMethod: rs.Method.String(),
		ResultsCount: len(rs.Results),
		Fallback:     rs.Fallback,
		SearchTimeMS: took.Milliseconds(),
	}
	if len(rs.Results) > 0 {
		ev.MaxScore = rs.Results[0].FusedScore
		ev.MinScore = rs.Results[len(rs.Results)-1].FusedScore
	}
	o.recorder.RecordSearch(ctx, ev)
}
