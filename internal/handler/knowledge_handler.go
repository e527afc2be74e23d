package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/campusbot/campusbot/internal/knowledge"
	"github.com/campusbot/campusbot/internal/pkg/response"
)

// KnowledgeHandler exposes an admin reload so the knowledge file can be
// edited and picked up without a restart.
type KnowledgeHandler struct {
	store   *knowledge.Store
	builder *knowledge.Builder
	path    string
}

func NewKnowledgeHandler(store *knowledge.Store, builder *knowledge.Builder, path string) *KnowledgeHandler {
	return &KnowledgeHandler{store: store, builder: builder, path: path}
}

func (h *KnowledgeHandler) Reload(c *gin.Context) {
	if err := h.store.Reload(c.Request.Context(), h.builder, h.path); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"entries": h.store.Len()})
}

func (h *KnowledgeHandler) Stats(c *gin.Context) {
	response.Success(c, gin.H{"entries": h.store.Len()})
}
