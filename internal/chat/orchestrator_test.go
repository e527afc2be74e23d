package chat

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/campusbot/campusbot/internal/knowledge"
	"github.com/campusbot/campusbot/internal/model"
	appErr "github.com/campusbot/campusbot/internal/pkg/errors"
	"github.com/campusbot/campusbot/internal/search"
	"github.com/campusbot/campusbot/internal/session"
	"github.com/campusbot/campusbot/internal/stats"
)

type stubGenerator struct {
	reply string
	err   error
	// last prompt seen, for assertions on prompt assembly
	prompt string
}

func (g *stubGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	g.prompt = prompt
	if g.err != nil {
		return "", g.err
	}
	return g.reply, nil
}

func newTestOrchestrator(gen *stubGenerator) (*Orchestrator, session.Store) {
	store := knowledge.NewStore(testEntries())
	engine := search.NewEngine(store, nil, search.Config{
		TopK:                5,
		SimilarityThreshold: 0.3,
		SemanticWeight:      0.7,
		LexicalWeight:       0.3,
	})
	sessions := session.NewMemoryStore(time.Hour)
	o := NewOrchestrator(sessions, NewResolver(engine), engine, gen, stats.Noop{}, OrchestratorConfig{
		HistoryLimit: 12,
		TopK:         5,
		GenTimeout:   time.Second,
	})
	return o, sessions
}

func TestHandleTurn_AnswersWithGeneratedReply(t *testing.T) {
	gen := &stubGenerator{reply: "Connect via eduroam with your university credentials."}
	o, sessions := newTestOrchestrator(gen)

	reply, err := o.HandleTurn(context.Background(), "", "u1", "How do I connect to eduroam?")
	require.NoError(t, err)
	require.NotEmpty(t, reply.SessionID)
	require.Equal(t, gen.reply, reply.Response)
	require.Contains(t, gen.prompt, "eduroam")
	require.Contains(t, gen.prompt, "Current question:")

	sess, err := sessions.Get(context.Background(), reply.SessionID)
	require.NoError(t, err)
	require.Len(t, sess.History, 2)
	require.Equal(t, model.SpeakerUser, sess.History[0].Speaker)
	require.Equal(t, model.SpeakerAssistant, sess.History[1].Speaker)
}

func TestHandleTurn_ClarifyingPromptSkipsGeneration(t *testing.T) {
	gen := &stubGenerator{reply: "should not be used"}
	o, sessions := newTestOrchestrator(gen)

	reply, err := o.HandleTurn(context.Background(), "", "u1", "What are the library opening hours?")
	require.NoError(t, err)
	require.Equal(t, promptAskCampus, reply.Response)
	require.Empty(t, gen.prompt)

	sess, err := sessions.Get(context.Background(), reply.SessionID)
	require.NoError(t, err)
	require.Equal(t, model.StateAwaitingCampus, sess.State)
	require.Len(t, sess.History, 2)
}

func TestHandleTurn_GenerationFailureReturnsApology(t *testing.T) {
	gen := &stubGenerator{err: errors.New("backend down")}
	o, sessions := newTestOrchestrator(gen)

	reply, err := o.HandleTurn(context.Background(), "", "u1", "How do I connect to eduroam?")
	require.NoError(t, err)
	require.Equal(t, apologyReply, reply.Response)

	// The failed turn keeps the question but records no fabricated answer.
	sess, err := sessions.Get(context.Background(), reply.SessionID)
	require.NoError(t, err)
	require.Len(t, sess.History, 1)
	require.Equal(t, model.SpeakerUser, sess.History[0].Speaker)
}

func TestHandleTurn_RejectsEmptyAndOversizedMessages(t *testing.T) {
	o, _ := newTestOrchestrator(&stubGenerator{reply: "ok"})

	_, err := o.HandleTurn(context.Background(), "", "u1", "   ")
	require.ErrorIs(t, err, appErr.ErrInvalid)

	_, err = o.HandleTurn(context.Background(), "", "u1", strings.Repeat("a", 1001))
	require.ErrorIs(t, err, appErr.ErrInvalid)
}

func TestHandleTurn_MessageLimitCountsRunesNotBytes(t *testing.T) {
	o, _ := newTestOrchestrator(&stubGenerator{reply: "ok"})

	// 1000 two-byte runes is exactly at the limit.
	_, err := o.HandleTurn(context.Background(), "", "u1", strings.Repeat("ü", 1000))
	require.NoError(t, err)

	_, err = o.HandleTurn(context.Background(), "", "u1", strings.Repeat("ü", 1001))
	require.ErrorIs(t, err, appErr.ErrInvalid)
}

func TestHandleTurn_ContextCarriesAcrossTurns(t *testing.T) {
	gen := &stubGenerator{reply: "The Garching library opens at 8am."}
	o, _ := newTestOrchestrator(gen)

	first, err := o.HandleTurn(context.Background(), "", "u1", "What are the library opening hours?")
	require.NoError(t, err)
	require.Equal(t, promptAskCampus, first.Response)

	second, err := o.HandleTurn(context.Background(), first.SessionID, "u1", "Garching")
	require.NoError(t, err)
	require.Equal(t, first.SessionID, second.SessionID)
	require.Equal(t, gen.reply, second.Response)
	require.Contains(t, gen.prompt, "Garching campus")
	require.Contains(t, gen.prompt, "What are the library opening hours?")
}

type touchCountingStore struct {
	session.Store
	touches int
}

func (s *touchCountingStore) Touch(ctx context.Context, sessionID string) error {
	s.touches++
	return s.Store.Touch(ctx, sessionID)
}

func TestSessionInfo_RefreshesIdleTTL(t *testing.T) {
	o, _ := newTestOrchestrator(&stubGenerator{reply: "ok"})
	spy := &touchCountingStore{Store: o.sessions}
	o.sessions = spy

	sess, err := o.StartSession(context.Background(), "u1")
	require.NoError(t, err)

	_, err = o.SessionInfo(context.Background(), sess.SessionID)
	require.NoError(t, err)
	require.Equal(t, 1, spy.touches)
}

func TestStartAndEndSession(t *testing.T) {
	o, sessions := newTestOrchestrator(&stubGenerator{reply: "ok"})

	sess, err := o.StartSession(context.Background(), "u1")
	require.NoError(t, err)
	require.NotEmpty(t, sess.SessionID)

	got, err := o.SessionInfo(context.Background(), sess.SessionID)
	require.NoError(t, err)
	require.Equal(t, "u1", got.UserID)

	require.NoError(t, o.EndSession(context.Background(), sess.SessionID))
	_, err = sessions.Get(context.Background(), sess.SessionID)
	require.ErrorIs(t, err, appErr.ErrSessionNotFound)
}
