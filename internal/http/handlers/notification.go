package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/memberhub-backend/internal/http/response"
	"github.com/yungbote/memberhub-backend/internal/platform/dbctx"
	"github.com/yungbote/memberhub-backend/internal/services"
)

type NotificationHandler struct {
	notifications services.NotificationService
}

func NewNotificationHandler(notifications services.NotificationService) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

// GET /api/me/notifications?unread=true&limit=50
func (h *NotificationHandler) List(c *gin.Context) {
	list, err := h.notifications.ListMine(dbctx.Context{Ctx: c.Request.Context()}, queryBool(c, "unread"), queryInt(c, "limit", 50))
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"notifications": list})
}

// POST /api/me/notifications/:id/read
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.notifications.MarkRead(dbctx.Context{Ctx: c.Request.Context()}, id); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}
