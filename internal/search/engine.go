package search

import (
	"context"
	"math"
	"sort"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/campusbot/campusbot/internal/ai"
	"github.com/campusbot/campusbot/internal/knowledge"
	appErr "github.com/campusbot/campusbot/internal/pkg/errors"
)

type Config struct {
	TopK                int
	SimilarityThreshold float64
	SemanticWeight      float64
	LexicalWeight       float64
}

type Result struct {
	Entry         *knowledge.IndexedEntry
	SemanticScore float64
	LexicalScore  float64
	FusedScore    float64
}

// ResultSet carries the ranked results plus whether the similarity threshold
// had to be bypassed. Fallback=true means the primary thresholded pass was
// empty and the caller is looking at best-effort matches.
type ResultSet struct {
	Method   Method
	Results  []Result
	Fallback bool
}

type Engine struct {
	store    *knowledge.Store
	embedder ai.IEmbedder
	cfg      Config
}

func NewEngine(store *knowledge.Store, embedder ai.IEmbedder, cfg Config) *Engine {
	if cfg.TopK <= 0 {
		cfg.TopK = 5
	}
	// Weights are normalized once so the fused score stays within [-1, 1].
	total := cfg.SemanticWeight + cfg.LexicalWeight
	if total <= 0 {
		cfg.SemanticWeight, cfg.LexicalWeight = 0.7, 0.3
	} else {
		cfg.SemanticWeight /= total
		cfg.LexicalWeight /= total
	}
	return &Engine{store: store, embedder: embedder, cfg: cfg}
}

func (e *Engine) DefaultTopK() int {
	return e.cfg.TopK
}

// Search ranks knowledge entries against an already-expanded query. It never
// fails for a well-formed query: a broken embedder degrades to lexical
// scoring, and an empty thresholded result falls back to unthresholded
// ranking with the Fallback flag set.
func (e *Engine) Search(ctx context.Context, expandedQuery string, method Method, topK int) (*ResultSet, error) {
	if topK <= 0 {
		topK = 1
	}
	entries := e.store.Entries()
	if len(entries) == 0 {
		return nil, appErr.ErrSearchFailure
	}

	queryTokens := knowledge.TokenSet(expandedQuery)
	var queryEmb []float32
	if method != MethodKeyword && e.embedder != nil {
		emb, err := e.embedder.Embed(ctx, expandedQuery, "RETRIEVAL_QUERY")
		if err != nil {
			logutil.GetLogger(ctx).Warn("query embedding failed, degrading to lexical scoring", zap.Error(err))
		} else {
			queryEmb = emb
		}
	}

	scored := make([]Result, 0, len(entries))
	for _, entry := range entries {
		sem := cosineSimilarity(queryEmb, entry.Embedding)
		lex := lexicalOverlap(queryTokens, entry.Tokens)
		scored = append(scored, Result{
			Entry:         entry,
			SemanticScore: sem,
			LexicalScore:  lex,
			FusedScore:    e.fuse(method, sem, lex),
		})
	}
	// Ties break on id ascending so identical queries always rank identically.
	sort.Slice(scored, func(i, j int) bool {
		if scored[i].FusedScore != scored[j].FusedScore {
			return scored[i].FusedScore > scored[j].FusedScore
		}
		return scored[i].Entry.ID < scored[j].Entry.ID
	})

	rs := &ResultSet{Method: method}
	for _, r := range scored {
		if r.FusedScore < e.cfg.SimilarityThreshold {
			break
		}
		rs.Results = append(rs.Results, r)
		if len(rs.Results) == topK {
			break
		}
	}
	if len(rs.Results) == 0 {
		// Users asking for help should never see an empty answer; rerun
		// without the threshold and flag it so callers can log the bypass.
		rs.Fallback = true
		if topK > len(scored) {
			topK = len(scored)
		}
		rs.Results = scored[:topK]
	}
	return rs, nil
}

func (e *Engine) fuse(method Method, sem, lex float64) float64 {
	switch method {
	case MethodSemantic:
		return sem
	case MethodKeyword:
		return 2*lex - 1
	default:
		return e.cfg.SemanticWeight*sem + e.cfg.LexicalWeight*(2*lex-1)
	}
}

// lexicalOverlap is the share of query tokens present in the entry's token
// set, in [0, 1].
func lexicalOverlap(query map[string]struct{}, entry map[string]struct{}) float64 {
	if len(query) == 0 || len(entry) == 0 {
		return 0
	}
	matched := 0
	for tok := range query {
		if _, ok := entry[tok]; ok {
			matched++
		}
	}
	return float64(matched) / float64(len(query))
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
