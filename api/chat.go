package api

import (
	"net/http"

	"github.com/Domenick1991/bnbchat/internal/domain"
	"github.com/Domenick1991/bnbchat/internal/service/chat"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ChatHandler struct {
	engine chat.Engine
	logger *zap.Logger
}

type chatRequest struct {
	SessionID string `json:"session_id" binding:"required"`
	Message   string `json:"message"`
}

type chatResponse struct {
	Reply string `json:"reply"`
}

func NewChatHandler(engine chat.Engine, logger *zap.Logger) *ChatHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChatHandler{engine: engine, logger: logger}
}

func (h *ChatHandler) Register(router *gin.RouterGroup) {
	router.POST("/chat", h.chat)
}

func (h *ChatHandler) chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "session_id is required"})
		return
	}

	reply, err := h.engine.GenerateResponse(c.Request.Context(), req.SessionID, req.Message)
	if err != nil {
		h.logger.Error("chat turn failed",
			zap.String("session_id", req.SessionID),
			zap.Stringer("kind", domain.KindOf(err)),
			zap.Error(err),
		)
		if domain.IsRetryable(err) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "assistant temporarily unavailable, please retry"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, chatResponse{Reply: reply})
}
