package chat

import (
	"context"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/campusbot/campusbot/internal/model"
	"github.com/campusbot/campusbot/internal/search"
)

const (
	promptAskBoth   = "Please tell me your role (student/employee/visitor) and campus (Munich/Garching/Heilbronn/Weihenstephan) so I can help you better."
	promptAskRole   = "Please tell me your role (student/employee/visitor) so I can provide the right information."
	promptAskCampus = "Please tell me which campus (Munich/Garching/Heilbronn/Weihenstephan) so I can give you specific details."
)

// Outcome is what one resolver pass decided for the turn.
type Outcome struct {
	// AskPrompt, when non-empty, is a clarifying question to return instead
	// of a search-backed answer.
	AskPrompt string
	// Query is the question to answer; when the user just supplied missing
	// context, it is the replayed pending question rather than the literal
	// message.
	Query string
	// Resumed marks that Query came from the pending question.
	Resumed bool
	// ContextUpdated marks that the message carried a role or campus
	// declaration that was applied this turn.
	ContextUpdated bool
}

// Resolver decides, per turn, whether the query can be answered with the
// context at hand. It mutates the borrowed session (resolved fields, state,
// pending question) but persisting it is the caller's job.
type Resolver struct {
	engine *search.Engine
}

func NewResolver(engine *search.Engine) *Resolver {
	return &Resolver{engine: engine}
}

func (r *Resolver) Resolve(ctx context.Context, sess *model.Session, message string) (*Outcome, error) {
	out := &Outcome{Query: message}

	// Explicit declarations win immediately; this is the only path that may
	// overwrite an already-resolved field.
	if role, ok := DetectRole(message); ok && role != sess.Role {
		sess.Role = role
		out.ContextUpdated = true
	}
	if campus, ok := DetectCampus(message); ok && campus != sess.Campus {
		sess.Campus = campus
		out.ContextUpdated = true
	}

	// If we were waiting on context and just got it, answer the original
	// question within this same turn instead of forcing a round-trip.
	if out.ContextUpdated && sess.PendingQuestion != "" && awaiting(sess.State) {
		out.Query = sess.PendingQuestion
		out.Resumed = true
		sess.PendingQuestion = ""
	}

	if isSmallTalk(out.Query) {
		return out, nil
	}

	rs, err := r.engine.Search(ctx, search.Expand(out.Query), search.MethodHybrid, 1)
	if err != nil {
		return nil, err
	}
	top := rs.Results[0].Entry

	// A general question never triggers a context prompt, whatever state the
	// session is in.
	if !top.RequiresRole && !top.RequiresCampus {
		r.settle(sess)
		return out, nil
	}

	needRole := top.RequiresRole && sess.Role == ""
	needCampus := top.RequiresCampus && sess.Campus == ""
	if !needRole && !needCampus {
		r.settle(sess)
		return out, nil
	}

	sess.PendingQuestion = out.Query
	switch {
	case needRole && needCampus:
		sess.State = model.StateAwaitingBoth
		out.AskPrompt = promptAskBoth
	case needRole:
		// Only the missing field is ever asked for; resolved fields stay.
		sess.State = model.StateAwaitingRole
		out.AskPrompt = promptAskRole
	default:
		sess.State = model.StateAwaitingCampus
		out.AskPrompt = promptAskCampus
	}
	logutil.GetLogger(ctx).Debug("context prompt issued",
		zap.String("session_id", sess.SessionID),
		zap.String("state", sess.State.String()),
		zap.String("top_entry", top.ID),
	)
	return out, nil
}

// settle clears any awaiting state once nothing is missing for this turn.
func (r *Resolver) settle(sess *model.Session) {
	if sess.Role != "" || sess.Campus != "" || awaiting(sess.State) {
		sess.State = model.StateResolved
	}
	sess.PendingQuestion = ""
}

func awaiting(state model.ContextState) bool {
	switch state {
	case model.StateAwaitingCampus, model.StateAwaitingRole, model.StateAwaitingBoth:
		return true
	default:
		return false
	}
}
