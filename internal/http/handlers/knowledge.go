package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/memberhub-backend/internal/http/response"
	"github.com/yungbote/memberhub-backend/internal/platform/ctxutil"
	"github.com/yungbote/memberhub-backend/internal/platform/logger"
	"github.com/yungbote/memberhub-backend/internal/services"
)

const defaultMaxUploadBytes = 20 << 20

type KnowledgeHandler struct {
	log      *logger.Logger
	ingest   services.KnowledgeIngestService
	maxBytes int64
}

func NewKnowledgeHandler(log *logger.Logger, ingest services.KnowledgeIngestService, maxBytes int64) *KnowledgeHandler {
	if maxBytes <= 0 {
		maxBytes = defaultMaxUploadBytes
	}
	return &KnowledgeHandler{
		log:      log.With("handler", "KnowledgeHandler"),
		ingest:   ingest,
		maxBytes: maxBytes,
	}
}

type uploadResp struct {
	response.Result
	*services.IngestResult
}

// POST /api/admin/knowledge (multipart: file, title)
func (h *KnowledgeHandler) Upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBytes+(1<<20))
	fh, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.RespondError(c, http.StatusRequestEntityTooLarge, "file_too_large", err)
			return
		}
		response.RespondError(c, http.StatusBadRequest, "missing_file", errors.New("file is required"))
		return
	}
	if fh.Size > h.maxBytes {
		response.RespondError(c, http.StatusRequestEntityTooLarge, "file_too_large",
			fmt.Errorf("file exceeds %d bytes", h.maxBytes))
		return
	}
	f, err := fh.Open()
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_file", err)
		return
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_file", err)
		return
	}

	in := services.IngestInput{
		Title:    strings.TrimSpace(c.PostForm("title")),
		FileName: filepath.Base(fh.Filename),
		MimeType: fh.Header.Get("Content-Type"),
		Data:     data,
	}
	if rd := ctxutil.GetRequestData(c.Request.Context()); rd != nil && rd.UserID != uuid.Nil {
		id := rd.UserID
		in.UploadedBy = &id
	}

	res, err := h.ingest.Ingest(c.Request.Context(), in)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, uploadResp{
		Result: response.Result{
			Success: true,
			Message: fmt.Sprintf("%d chunks processed", res.ChunksStored),
		},
		IngestResult: res,
	})
}

// GET /api/admin/knowledge
func (h *KnowledgeHandler) List(c *gin.Context) {
	docs, err := h.ingest.ListDocuments(c.Request.Context())
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"documents": docs})
}

// DELETE /api/admin/knowledge/:id
func (h *KnowledgeHandler) Delete(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.ingest.DeleteDocument(c.Request.Context(), id); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}
