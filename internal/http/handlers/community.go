package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/memberhub-backend/internal/http/response"
	"github.com/yungbote/memberhub-backend/internal/platform/dbctx"
	"github.com/yungbote/memberhub-backend/internal/services"
)

type CommunityHandler struct {
	community services.CommunityService
}

func NewCommunityHandler(community services.CommunityService) *CommunityHandler {
	return &CommunityHandler{community: community}
}

// GET /api/community/feed?before=<rfc3339>&limit=20
func (h *CommunityHandler) Feed(c *gin.Context) {
	var before *time.Time
	if v := strings.TrimSpace(c.Query("before")); v != "" {
		t, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			response.RespondError(c, http.StatusBadRequest, "invalid_before", err)
			return
		}
		before = &t
	}
	posts, err := h.community.Feed(dbctx.Context{Ctx: c.Request.Context()}, before, queryInt(c, "limit", 20))
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	var next string
	if n := len(posts); n > 0 {
		next = posts[n-1].CreatedAt.UTC().Format(time.RFC3339Nano)
	}
	response.RespondOK(c, gin.H{"posts": posts, "next_before": next})
}

// POST /api/community/posts
func (h *CommunityHandler) CreatePost(c *gin.Context) {
	var req services.PostInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	post, err := h.community.CreatePost(c.Request.Context(), req)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"post": post})
}

// GET /api/admin/bots
func (h *CommunityHandler) ListBots(c *gin.Context) {
	bots, err := h.community.ListBots(dbctx.Context{Ctx: c.Request.Context()})
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"bots": bots})
}

// POST /api/admin/bots
func (h *CommunityHandler) CreateBot(c *gin.Context) {
	var req services.BotInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	bot, err := h.community.CreateBot(c.Request.Context(), req)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"bot": bot})
}

// PATCH /api/admin/bots/:id
func (h *CommunityHandler) UpdateBot(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req services.BotInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	bot, err := h.community.UpdateBot(c.Request.Context(), id, req)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"bot": bot})
}

// DELETE /api/admin/bots/:id
func (h *CommunityHandler) DeleteBot(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.community.DeleteBot(c.Request.Context(), id); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

// POST /api/admin/bots/:id/post
func (h *CommunityHandler) GenerateBotPost(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	post, err := h.community.GenerateBotPost(c.Request.Context(), id)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"post": post})
}
