package middleware

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/memberhub-backend/internal/http/response"
	"github.com/yungbote/memberhub-backend/internal/platform/ctxutil"
	"github.com/yungbote/memberhub-backend/internal/platform/logger"
	"github.com/yungbote/memberhub-backend/internal/platform/redisx"
)

// RateLimit caps requests per caller (user id when authenticated, client ip otherwise)
// in a fixed window. The limiter failing lets the request through.
func RateLimit(log *logger.Logger, limiter *redisx.Limiter, bucket string, limit int, window time.Duration) gin.HandlerFunc {
	if !limiter.Enabled() || limit <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		caller := "ip:" + c.ClientIP()
		if rd := ctxutil.GetRequestData(c.Request.Context()); rd != nil && rd.UserID != uuid.Nil {
			caller = "user:" + rd.UserID.String()
		}
		ok, retryAfter, err := limiter.Allow(c.Request.Context(), bucket, caller, limit, window)
		if err != nil && log != nil {
			log.Warn("rate limiter unavailable", "bucket", bucket, "error", err)
		}
		if !ok {
			secs := int(retryAfter.Round(time.Second) / time.Second)
			if secs < 1 {
				secs = 1
			}
			c.Header("Retry-After", strconv.Itoa(secs))
			response.AbortError(c, http.StatusTooManyRequests, "rate_limited", errors.New("too many requests"))
			return
		}
		c.Next()
	}
}
