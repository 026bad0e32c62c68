package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/memberhub-backend/internal/http/response"
	"github.com/yungbote/memberhub-backend/internal/services"
)

type SpeechHandler struct {
	speech services.SpeechService
}

func NewSpeechHandler(speech services.SpeechService) *SpeechHandler {
	return &SpeechHandler{speech: speech}
}

type speechReq struct {
	Text  string `json:"text"`
	Voice string `json:"voice"`
}

// POST /api/tts
func (h *SpeechHandler) Synthesize(c *gin.Context) {
	var req speechReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	res, err := h.speech.Synthesize(c.Request.Context(), req.Text, req.Voice)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, res.MimeType, res.Audio)
}
