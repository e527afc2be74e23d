package knowledge

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync/atomic"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/campusbot/campusbot/internal/ai"
	"github.com/campusbot/campusbot/internal/model"
	appErr "github.com/campusbot/campusbot/internal/pkg/errors"
)

// IndexedEntry is a knowledge entry plus the lexical token set used for
// keyword scoring, precomputed once at build time.
type IndexedEntry struct {
	*model.KnowledgeEntry
	Tokens map[string]struct{}
}

type snapshot struct {
	entries []*IndexedEntry
	byID    map[string]*IndexedEntry
}

// Store holds the indexed knowledge base behind an atomic pointer. Readers
// take a snapshot and never see a half-built index; Reload builds a new
// snapshot off to the side and swaps it in.
type Store struct {
	snap atomic.Pointer[snapshot]
}

func NewStore(entries []*IndexedEntry) *Store {
	s := &Store{}
	s.swap(entries)
	return s
}

func (s *Store) swap(entries []*IndexedEntry) {
	sorted := make([]*IndexedEntry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })
	byID := make(map[string]*IndexedEntry, len(sorted))
	for _, e := range sorted {
		byID[e.ID] = e
	}
	s.snap.Store(&snapshot{entries: sorted, byID: byID})
}

// Entries returns the current snapshot's entries ordered by id. Callers must
// treat the result as read-only.
func (s *Store) Entries() []*IndexedEntry {
	snap := s.snap.Load()
	if snap == nil {
		return nil
	}
	return snap.entries
}

func (s *Store) Get(id string) (*IndexedEntry, error) {
	snap := s.snap.Load()
	if snap == nil {
		return nil, appErr.ErrSearchFailure
	}
	entry, ok := snap.byID[id]
	if !ok {
		return nil, appErr.ErrNotFound
	}
	return entry, nil
}

func (s *Store) Len() int {
	snap := s.snap.Load()
	if snap == nil {
		return 0
	}
	return len(snap.entries)
}

// Reload rebuilds the index from the source document and swaps it in
// atomically. In-flight searches keep using the old snapshot.
func (s *Store) Reload(ctx context.Context, b *Builder, path string) error {
	entries, err := b.Build(ctx, path)
	if err != nil {
		return err
	}
	s.swap(entries)
	logutil.GetLogger(ctx).Info("knowledge index reloaded", zap.Int("entries", len(entries)))
	return nil
}

type sourceDocument struct {
	Documents []*model.KnowledgeEntry `json:"documents"`
}

// Builder turns the source Q&A document into indexed entries, computing one
// embedding per entry through the (cached) embedder.
type Builder struct {
	embedder ai.IEmbedder
}

func NewBuilder(embedder ai.IEmbedder) *Builder {
	return &Builder{embedder: embedder}
}

func (b *Builder) Build(ctx context.Context, path string) ([]*IndexedEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read knowledge base: %w", err)
	}
	var doc sourceDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode knowledge base: %w", err)
	}
	if len(doc.Documents) == 0 {
		return nil, fmt.Errorf("knowledge base is empty: %s", path)
	}
	entries := make([]*IndexedEntry, 0, len(doc.Documents))
	for _, entry := range doc.Documents {
		if entry.ID == "" {
			return nil, fmt.Errorf("knowledge entry without id: %q", entry.Question)
		}
		if len(entry.Embedding) == 0 && b.embedder != nil {
			emb, err := b.embedder.Embed(ctx, embeddingText(entry), "RETRIEVAL_DOCUMENT")
			if err != nil {
				return nil, fmt.Errorf("embed entry %s: %w", entry.ID, err)
			}
			entry.Embedding = emb
		}
		entries = append(entries, Index(entry))
	}
	logutil.GetLogger(ctx).Info("knowledge index built",
		zap.String("path", path),
		zap.Int("entries", len(entries)),
	)
	return entries, nil
}

// Index computes the lexical token set for one entry: keywords plus tokenized
// question and category.
func Index(entry *model.KnowledgeEntry) *IndexedEntry {
	tokens := make(map[string]struct{})
	for _, kw := range entry.Keywords {
		for _, tok := range Tokenize(kw) {
			tokens[tok] = struct{}{}
		}
	}
	for _, tok := range Tokenize(entry.Question) {
		tokens[tok] = struct{}{}
	}
	for _, tok := range Tokenize(entry.Category) {
		tokens[tok] = struct{}{}
	}
	return &IndexedEntry{KnowledgeEntry: entry, Tokens: tokens}
}

func embeddingText(entry *model.KnowledgeEntry) string {
	text := entry.Question + "\n" + entry.Answer
	if entry.Category != "" {
		text += "\n" + entry.Category
	}
	return text
}
