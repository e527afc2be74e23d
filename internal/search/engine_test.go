package search

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/campusbot/campusbot/internal/knowledge"
	"github.com/campusbot/campusbot/internal/model"
	appErr "github.com/campusbot/campusbot/internal/pkg/errors"
)

type stubEmbedder struct {
	vector []float32
	err    error
}

func (s *stubEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.vector, nil
}

func (s *stubEmbedder) ModelName() string {
	return "stub"
}

func indexEntry(id, question string, keywords []string, embedding []float32) *knowledge.IndexedEntry {
	return knowledge.Index(&model.KnowledgeEntry{
		ID:        id,
		Question:  question,
		Answer:    "answer for " + id,
		Keywords:  keywords,
		Embedding: embedding,
	})
}

func newTestEngine(embedder *stubEmbedder, entries ...*knowledge.IndexedEntry) *Engine {
	store := knowledge.NewStore(entries)
	cfg := Config{TopK: 5, SimilarityThreshold: 0.3, SemanticWeight: 0.7, LexicalWeight: 0.3}
	if embedder == nil {
		return NewEngine(store, nil, cfg)
	}
	return NewEngine(store, embedder, cfg)
}

func TestEngineSearch_HybridRanksSemanticMatchFirst(t *testing.T) {
	engine := newTestEngine(
		&stubEmbedder{vector: []float32{1, 0}},
		indexEntry("mensa-hours", "When does the mensa open?", []string{"mensa", "food"}, []float32{1, 0}),
		indexEntry("library-hours", "When does the library open?", []string{"library"}, []float32{0, 1}),
	)

	rs, err := engine.Search(context.Background(), "mensa food", MethodHybrid, 2)
	require.NoError(t, err)
	require.False(t, rs.Fallback)
	require.Equal(t, "mensa-hours", rs.Results[0].Entry.ID)
	require.InDelta(t, 1.0, rs.Results[0].SemanticScore, 1e-9)

	// Same query, same ranking.
	again, err := engine.Search(context.Background(), "mensa food", MethodHybrid, 2)
	require.NoError(t, err)
	require.Equal(t, len(rs.Results), len(again.Results))
	for i := range rs.Results {
		require.Equal(t, rs.Results[i].Entry.ID, again.Results[i].Entry.ID)
	}
}

func TestEngineSearch_TieBreaksOnIDAscending(t *testing.T) {
	engine := newTestEngine(nil,
		indexEntry("b-entry", "printing services", []string{"print"}, nil),
		indexEntry("a-entry", "printing services", []string{"print"}, nil),
	)

	rs, err := engine.Search(context.Background(), "printing services", MethodKeyword, 2)
	require.NoError(t, err)
	require.Len(t, rs.Results, 2)
	require.Equal(t, rs.Results[0].FusedScore, rs.Results[1].FusedScore)
	require.Equal(t, "a-entry", rs.Results[0].Entry.ID)
	require.Equal(t, "b-entry", rs.Results[1].Entry.ID)
}

func TestEngineSearch_FallbackWhenNothingPassesThreshold(t *testing.T) {
	engine := newTestEngine(nil,
		indexEntry("visa-info", "How do I extend my visa?", []string{"visa"}, nil),
		indexEntry("mensa-hours", "When does the mensa open?", []string{"mensa"}, nil),
	)

	rs, err := engine.Search(context.Background(), "quantum chromodynamics", MethodKeyword, 5)
	require.NoError(t, err)
	require.True(t, rs.Fallback)
	require.Len(t, rs.Results, 2)
}

func TestEngineSearch_RaisingThresholdNeverAddsResults(t *testing.T) {
	entries := []*knowledge.IndexedEntry{
		knowledge.Index(&model.KnowledgeEntry{ID: "full", Keywords: []string{"alpha", "beta", "gamma", "delta"}}),
		knowledge.Index(&model.KnowledgeEntry{ID: "half", Keywords: []string{"alpha", "beta"}}),
		knowledge.Index(&model.KnowledgeEntry{ID: "weak", Keywords: []string{"alpha"}}),
	}

	prev := len(entries) + 1
	for _, threshold := range []float64{-1, -0.25, 0.25, 0.75} {
		store := knowledge.NewStore(entries)
		engine := NewEngine(store, nil, Config{
			TopK:                5,
			SimilarityThreshold: threshold,
			SemanticWeight:      0.7,
			LexicalWeight:       0.3,
		})
		rs, err := engine.Search(context.Background(), "alpha beta gamma delta", MethodKeyword, 5)
		require.NoError(t, err)
		require.False(t, rs.Fallback, "threshold %v", threshold)
		require.LessOrEqual(t, len(rs.Results), prev, "threshold %v grew the primary result count", threshold)
		prev = len(rs.Results)
	}
}

func TestEngineSearch_ClampsTopK(t *testing.T) {
	engine := newTestEngine(nil,
		indexEntry("visa-info", "How do I extend my visa?", []string{"visa"}, nil),
		indexEntry("mensa-hours", "When does the mensa open?", []string{"mensa"}, nil),
	)

	rs, err := engine.Search(context.Background(), "nothing matches this", MethodKeyword, 0)
	require.NoError(t, err)
	require.Len(t, rs.Results, 1)
}

func TestEngineSearch_DegradesToLexicalOnEmbedderFailure(t *testing.T) {
	engine := newTestEngine(
		&stubEmbedder{err: errors.New("quota exceeded")},
		indexEntry("mensa-hours", "When does the mensa open?", []string{"mensa", "food"}, []float32{1, 0}),
		indexEntry("library-hours", "When does the library open?", []string{"library"}, []float32{0, 1}),
	)

	rs, err := engine.Search(context.Background(), "mensa food", MethodHybrid, 1)
	require.NoError(t, err)
	require.Equal(t, "mensa-hours", rs.Results[0].Entry.ID)
	require.Zero(t, rs.Results[0].SemanticScore)
}

func TestEngineSearch_EmptyStoreFails(t *testing.T) {
	engine := newTestEngine(nil)

	_, err := engine.Search(context.Background(), "anything", MethodHybrid, 3)
	require.ErrorIs(t, err, appErr.ErrSearchFailure)
}

func TestParseMethod(t *testing.T) {
	for input, want := range map[string]Method{
		"":         MethodHybrid,
		"hybrid":   MethodHybrid,
		"Semantic": MethodSemantic,
		"KEYWORD":  MethodKeyword,
	} {
		got, err := ParseMethod(input)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}

	_, err := ParseMethod("vector")
	require.Error(t, err)
}
