package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/campusbot/campusbot/internal/chat"
	"github.com/campusbot/campusbot/internal/pkg/errcode"
	"github.com/campusbot/campusbot/internal/pkg/response"
)

type SessionHandler struct {
	orchestrator *chat.Orchestrator
}

func NewSessionHandler(orchestrator *chat.Orchestrator) *SessionHandler {
	return &SessionHandler{orchestrator: orchestrator}
}

type startSessionRequest struct {
	UserID string `json:"user_id"`
}

func (h *SessionHandler) Start(c *gin.Context) {
	var req startSessionRequest
	// Body is optional; an anonymous session is fine.
	_ = c.ShouldBindJSON(&req)
	sess, err := h.orchestrator.StartSession(c.Request.Context(), req.UserID)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{
		"session_id": sess.SessionID,
		"created_at": sess.CreatedAt,
	})
}

func (h *SessionHandler) End(c *gin.Context) {
	sessionID := c.Param("id")
	if sessionID == "" {
		response.Error(c, errcode.ErrInvalid, "missing session id")
		return
	}
	if err := h.orchestrator.EndSession(c.Request.Context(), sessionID); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"session_id": sessionID})
}

type sessionInfoResponse struct {
	SessionID    string    `json:"session_id"`
	UserID       string    `json:"user_id,omitempty"`
	Role         string    `json:"role,omitempty"`
	Campus       string    `json:"campus,omitempty"`
	State        string    `json:"state"`
	Turns        int       `json:"turns"`
	CreatedAt    time.Time `json:"created_at"`
	LastActiveAt time.Time `json:"last_active_at"`
}

func (h *SessionHandler) Info(c *gin.Context) {
	sessionID := c.Param("id")
	if sessionID == "" {
		response.Error(c, errcode.ErrInvalid, "missing session id")
		return
	}
	sess, err := h.orchestrator.SessionInfo(c.Request.Context(), sessionID)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, sessionInfoResponse{
		SessionID:    sess.SessionID,
		UserID:       sess.UserID,
		Role:         sess.Role,
		Campus:       sess.Campus,
		State:        sess.State.String(),
		Turns:        len(sess.History),
		CreatedAt:    sess.CreatedAt,
		LastActiveAt: sess.LastActiveAt,
	})
}
