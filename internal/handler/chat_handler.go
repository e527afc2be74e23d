package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/campusbot/campusbot/internal/chat"
	"github.com/campusbot/campusbot/internal/pkg/errcode"
	"github.com/campusbot/campusbot/internal/pkg/response"
)

type ChatHandler struct {
	orchestrator *chat.Orchestrator
}

func NewChatHandler(orchestrator *chat.Orchestrator) *ChatHandler {
	return &ChatHandler{orchestrator: orchestrator}
}

type chatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
	UserID    string `json:"user_id"`
}

type chatResponse struct {
	Response  string    `json:"response"`
	SessionID string    `json:"session_id"`
	Timestamp time.Time `json:"timestamp"`
}

func (h *ChatHandler) Chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	reply, err := h.orchestrator.HandleTurn(c.Request.Context(), req.SessionID, req.UserID, req.Message)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, chatResponse{
		Response:  reply.Response,
		SessionID: reply.SessionID,
		Timestamp: reply.Timestamp,
	})
}
