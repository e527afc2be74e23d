package model

// KnowledgeEntry is one answerable fact from the campus Q&A corpus. Entries
// are built once at index time and never mutated afterwards; a changed source
// document is picked up by rebuilding the whole set and swapping it in.
type KnowledgeEntry struct {
	ID       string   `json:"id"`
	Question string   `json:"question"`
	Answer   string   `json:"answer"`
	Keywords []string `json:"keywords"`
	Category string   `json:"category"`
	Audience string   `json:"role"`
	Source   string   `json:"source,omitempty"`

	// RequiresRole/RequiresCampus declare that the answer varies by user
	// role or campus and must not be given until that context is known.
	RequiresRole   bool `json:"requires_role"`
	RequiresCampus bool `json:"requires_campus"`

	// Embedding is filled by the index builder, not the source document.
	Embedding []float32 `json:"embedding,omitempty"`
}
