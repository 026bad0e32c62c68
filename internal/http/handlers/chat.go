package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/memberhub-backend/internal/http/response"
	"github.com/yungbote/memberhub-backend/internal/platform/logger"
	"github.com/yungbote/memberhub-backend/internal/services"
)

type ChatHandler struct {
	log  *logger.Logger
	chat services.ChatService
}

func NewChatHandler(log *logger.Logger, chat services.ChatService) *ChatHandler {
	return &ChatHandler{log: log.With("handler", "ChatHandler"), chat: chat}
}

// POST /api/chat
//
// Streams the reply as chunked text/plain. Headers are committed with the first delta,
// so failures before it still get a JSON error; a failure after it just ends the stream.
func (h *ChatHandler) Stream(c *gin.Context) {
	var req services.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	started := false
	onDelta := func(delta string) {
		if delta == "" {
			return
		}
		if !started {
			started = true
			c.Header("Content-Type", "text/plain; charset=utf-8")
			c.Header("Cache-Control", "no-cache")
			c.Header("X-Accel-Buffering", "no")
			c.Status(http.StatusOK)
		}
		if _, err := c.Writer.WriteString(delta); err != nil {
			return
		}
		c.Writer.Flush()
	}

	_, err := h.chat.StreamReply(c.Request.Context(), req, onDelta)
	if err != nil {
		if !started {
			response.RespondAPIError(c, err)
			return
		}
		h.log.Warn("chat stream interrupted", "error", err)
		return
	}
	if !started {
		c.Data(http.StatusOK, "text/plain; charset=utf-8", nil)
	}
}
