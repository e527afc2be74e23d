package chat

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/campusbot/campusbot/internal/knowledge"
	"github.com/campusbot/campusbot/internal/model"
	"github.com/campusbot/campusbot/internal/search"
)

func testEntries() []*knowledge.IndexedEntry {
	return []*knowledge.IndexedEntry{
		knowledge.Index(&model.KnowledgeEntry{
			ID:             "library-hours",
			Question:       "What are the library opening hours?",
			Answer:         "Opening hours differ per campus library.",
			Keywords:       []string{"library", "hours", "opening"},
			RequiresCampus: true,
		}),
		knowledge.Index(&model.KnowledgeEntry{
			ID:       "eduroam-setup",
			Question: "How do I connect to eduroam wifi?",
			Answer:   "Use your university credentials at eduroam.org.",
			Keywords: []string{"eduroam", "wifi", "internet"},
		}),
		knowledge.Index(&model.KnowledgeEntry{
			ID:           "vacation-request",
			Question:     "How do I submit a vacation request?",
			Answer:       "Employees file the Urlaubsantrag in the HR portal.",
			Keywords:     []string{"vacation", "leave", "urlaubsantrag"},
			RequiresRole: true,
		}),
	}
}

func newTestResolver() *Resolver {
	store := knowledge.NewStore(testEntries())
	engine := search.NewEngine(store, nil, search.Config{
		TopK:                5,
		SimilarityThreshold: 0.3,
		SemanticWeight:      0.7,
		LexicalWeight:       0.3,
	})
	return NewResolver(engine)
}

func TestResolve_CampusSpecificQuestionPromptsForCampus(t *testing.T) {
	resolver := newTestResolver()
	sess := &model.Session{SessionID: "s1"}

	out, err := resolver.Resolve(context.Background(), sess, "What are the library opening hours?")
	require.NoError(t, err)
	require.Equal(t, promptAskCampus, out.AskPrompt)
	require.Equal(t, model.StateAwaitingCampus, sess.State)
	require.Equal(t, "What are the library opening hours?", sess.PendingQuestion)
}

func TestResolve_CampusReplyResumesPendingQuestion(t *testing.T) {
	resolver := newTestResolver()
	sess := &model.Session{SessionID: "s1"}

	_, err := resolver.Resolve(context.Background(), sess, "What are the library opening hours?")
	require.NoError(t, err)

	out, err := resolver.Resolve(context.Background(), sess, "Garching")
	require.NoError(t, err)
	require.Empty(t, out.AskPrompt)
	require.True(t, out.Resumed)
	require.Equal(t, "What are the library opening hours?", out.Query)
	require.Equal(t, "Garching", sess.Campus)
	require.Equal(t, model.StateResolved, sess.State)
	require.Empty(t, sess.PendingQuestion)
}

func TestResolve_GeneralQuestionNeverPrompts(t *testing.T) {
	resolver := newTestResolver()
	sess := &model.Session{SessionID: "s1"}

	out, err := resolver.Resolve(context.Background(), sess, "How do I connect to eduroam?")
	require.NoError(t, err)
	require.Empty(t, out.AskPrompt)
	require.Empty(t, sess.PendingQuestion)
}

func TestResolve_KnownCampusSkipsPrompt(t *testing.T) {
	resolver := newTestResolver()
	sess := &model.Session{SessionID: "s1", Campus: "Munich", State: model.StateResolved}

	out, err := resolver.Resolve(context.Background(), sess, "What are the library opening hours?")
	require.NoError(t, err)
	require.Empty(t, out.AskPrompt)
	require.Equal(t, "Munich", sess.Campus)
	require.Equal(t, model.StateResolved, sess.State)
}

func TestResolve_RoleSpecificQuestionPromptsForRole(t *testing.T) {
	resolver := newTestResolver()
	sess := &model.Session{SessionID: "s1"}

	out, err := resolver.Resolve(context.Background(), sess, "How do I submit a vacation request?")
	require.NoError(t, err)
	require.Equal(t, promptAskRole, out.AskPrompt)
	require.Equal(t, model.StateAwaitingRole, sess.State)
}

func TestResolve_InlineDeclarationAnswersDirectly(t *testing.T) {
	resolver := newTestResolver()
	sess := &model.Session{SessionID: "s1"}

	out, err := resolver.Resolve(context.Background(), sess, "I am an employee, how do I submit a vacation request?")
	require.NoError(t, err)
	require.Empty(t, out.AskPrompt)
	require.Equal(t, "employee", sess.Role)
	require.True(t, out.ContextUpdated)
	require.False(t, out.Resumed)
}

func TestResolve_SmallTalkNeverPrompts(t *testing.T) {
	resolver := newTestResolver()
	sess := &model.Session{SessionID: "s1"}

	out, err := resolver.Resolve(context.Background(), sess, "thanks, bye!")
	require.NoError(t, err)
	require.Empty(t, out.AskPrompt)
	require.Equal(t, model.StateUnset, sess.State)
}

func TestResolve_NewDeclarationOverridesOldContext(t *testing.T) {
	resolver := newTestResolver()
	sess := &model.Session{SessionID: "s1", Campus: "Munich", State: model.StateResolved}

	out, err := resolver.Resolve(context.Background(), sess, "I moved to Heilbronn, what are the library opening hours?")
	require.NoError(t, err)
	require.Empty(t, out.AskPrompt)
	require.True(t, out.ContextUpdated)
	require.Equal(t, "Heilbronn", sess.Campus)
}

func TestDetectRoleAndCampus(t *testing.T) {
	role, ok := DetectRole("I'm a master student at TUM")
	require.True(t, ok)
	require.Equal(t, "student", role)

	_, ok = DetectRole("where is the mensa")
	require.False(t, ok)

	campus, ok := DetectCampus("I study in Freising")
	require.True(t, ok)
	require.Equal(t, "Weihenstephan", campus)

	_, ok = DetectCampus("where is the mensa")
	require.False(t, ok)
}
