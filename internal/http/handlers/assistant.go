package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/memberhub-backend/internal/http/response"
	"github.com/yungbote/memberhub-backend/internal/services"
)

type AssistantHandler struct {
	assistant services.AssistantService
}

func NewAssistantHandler(assistant services.AssistantService) *AssistantHandler {
	return &AssistantHandler{assistant: assistant}
}

// GET /api/admin/assistant
func (h *AssistantHandler) Get(c *gin.Context) {
	cfg, err := h.assistant.Get(c.Request.Context())
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"assistant": cfg})
}

// PUT /api/admin/assistant
func (h *AssistantHandler) Update(c *gin.Context) {
	var req services.AssistantInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	cfg, err := h.assistant.Update(c.Request.Context(), req)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"assistant": cfg})
}
