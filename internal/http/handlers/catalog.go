package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/memberhub-backend/internal/http/response"
	"github.com/yungbote/memberhub-backend/internal/platform/dbctx"
	"github.com/yungbote/memberhub-backend/internal/services"
)

type CatalogHandler struct {
	catalog services.CatalogService
}

func NewCatalogHandler(catalog services.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// GET /api/me/products
func (h *CatalogHandler) ListMyProducts(c *gin.Context) {
	products, err := h.catalog.ListMyProducts(dbctx.Context{Ctx: c.Request.Context()})
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"products": products})
}

// GET /api/products/:id/content
func (h *CatalogHandler) GetProductContent(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	product, err := h.catalog.GetProductContent(dbctx.Context{Ctx: c.Request.Context()}, id)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"product": product})
}

// GET /api/admin/products
func (h *CatalogHandler) ListProducts(c *gin.Context) {
	products, err := h.catalog.ListProducts(dbctx.Context{Ctx: c.Request.Context()})
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"products": products})
}

// POST /api/admin/products
func (h *CatalogHandler) CreateProduct(c *gin.Context) {
	var req services.ProductInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	product, err := h.catalog.CreateProduct(c.Request.Context(), req)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"product": product})
}

// PATCH /api/admin/products/:id
func (h *CatalogHandler) UpdateProduct(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req services.ProductPatch
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	product, err := h.catalog.UpdateProduct(c.Request.Context(), id, req)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"product": product})
}

// DELETE /api/admin/products/:id
func (h *CatalogHandler) DeleteProduct(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.catalog.DeleteProduct(c.Request.Context(), id); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

// POST /api/admin/products/:id/modules
func (h *CatalogHandler) CreateModule(c *gin.Context) {
	productID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req services.ModuleInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	module, err := h.catalog.CreateModule(c.Request.Context(), productID, req)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"module": module})
}

// PUT /api/admin/modules/:id
func (h *CatalogHandler) UpdateModule(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req services.ModuleInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	module, err := h.catalog.UpdateModule(c.Request.Context(), id, req)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"module": module})
}

// DELETE /api/admin/modules/:id
func (h *CatalogHandler) DeleteModule(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.catalog.DeleteModule(c.Request.Context(), id); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

// POST /api/admin/modules/:id/lessons
func (h *CatalogHandler) CreateLesson(c *gin.Context) {
	moduleID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req services.LessonInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	lesson, err := h.catalog.CreateLesson(c.Request.Context(), moduleID, req)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"lesson": lesson})
}

// PUT /api/admin/lessons/:id
func (h *CatalogHandler) UpdateLesson(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req services.LessonInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	lesson, err := h.catalog.UpdateLesson(c.Request.Context(), id, req)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"lesson": lesson})
}

// DELETE /api/admin/lessons/:id
func (h *CatalogHandler) DeleteLesson(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.catalog.DeleteLesson(c.Request.Context(), id); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}
