package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/memberhub-backend/internal/http/response"
)

func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(strings.TrimSpace(c.Param(name)))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_"+name, err)
		return uuid.Nil, false
	}
	return id, true
}

func queryInt(c *gin.Context, name string, def int) int {
	if v := strings.TrimSpace(c.Query(name)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func queryBool(c *gin.Context, name string) bool {
	b, _ := strconv.ParseBool(strings.TrimSpace(c.Query(name)))
	return b
}
