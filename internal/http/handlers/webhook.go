package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/memberhub-backend/internal/http/response"
	"github.com/yungbote/memberhub-backend/internal/platform/logger"
	"github.com/yungbote/memberhub-backend/internal/services"
)

const maxWebhookBytes = 1 << 20

type WebhookHandler struct {
	log          *logger.Logger
	provisioning services.ProvisioningService
}

func NewWebhookHandler(log *logger.Logger, provisioning services.ProvisioningService) *WebhookHandler {
	return &WebhookHandler{log: log.With("handler", "WebhookHandler"), provisioning: provisioning}
}

// POST /api/webhooks/purchase
func (h *WebhookHandler) Purchase(c *gin.Context) {
	raw, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.RespondError(c, http.StatusRequestEntityTooLarge, "payload_too_large", err)
			return
		}
		response.RespondError(c, http.StatusBadRequest, "invalid_payload", err)
		return
	}
	res, err := h.provisioning.HandlePurchase(c.Request.Context(), raw)
	if err != nil {
		h.log.Error("purchase webhook failed", "error", err)
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, res)
}
