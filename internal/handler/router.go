package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/campusbot/campusbot/internal/pkg/response"
)

type RouterDeps struct {
	Chat      *ChatHandler
	Sessions  *SessionHandler
	Search    *SearchHandler
	Knowledge *KnowledgeHandler
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	api.GET("/health", func(c *gin.Context) {
		response.Success(c, gin.H{"status": "ok"})
	})

	api.POST("/chat", deps.Chat.Chat)

	api.POST("/session/start", deps.Sessions.Start)
	api.GET("/session/:id", deps.Sessions.Info)
	api.POST("/session/:id/end", deps.Sessions.End)

	api.POST("/search", deps.Search.Search)

	api.POST("/knowledge/reload", deps.Knowledge.Reload)
	api.GET("/knowledge/stats", deps.Knowledge.Stats)
}
