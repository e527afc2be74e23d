package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/campusbot/campusbot/internal/pkg/errcode"
	"github.com/campusbot/campusbot/internal/pkg/response"
	"github.com/campusbot/campusbot/internal/search"
)

type SearchHandler struct {
	engine *search.Engine
}

func NewSearchHandler(engine *search.Engine) *SearchHandler {
	return &SearchHandler{engine: engine}
}

type searchRequest struct {
	Query  string `json:"query"`
	Method string `json:"method"`
	TopK   int    `json:"top_k"`
}

type searchItem struct {
	ID       string            `json:"id"`
	Content  string            `json:"content"`
	Metadata map[string]string `json:"metadata"`
	Score    float64           `json:"score"`
}

type searchResponse struct {
	Method   string       `json:"method"`
	Fallback bool         `json:"fallback"`
	Items    []searchItem `json:"items"`
}

func (h *SearchHandler) Search(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Query == "" {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	method, err := search.ParseMethod(req.Method)
	if err != nil {
		response.Error(c, errcode.ErrInvalid, err.Error())
		return
	}
	topK := req.TopK
	if topK <= 0 {
		topK = h.engine.DefaultTopK()
	}
	rs, err := h.engine.Search(c.Request.Context(), search.Expand(req.Query), method, topK)
	if err != nil {
		handleError(c, err)
		return
	}
	items := make([]searchItem, 0, len(rs.Results))
	for _, res := range rs.Results {
		items = append(items, searchItem{
			ID:      res.Entry.ID,
			Content: res.Entry.Question + "\n" + res.Entry.Answer,
			Metadata: map[string]string{
				"category": res.Entry.Category,
				"role":     res.Entry.Audience,
				"source":   res.Entry.Source,
			},
			Score: res.FusedScore,
		})
	}
	response.Success(c, searchResponse{
		Method:   rs.Method.String(),
		Fallback: rs.Fallback,
		Items:    items,
	})
}
