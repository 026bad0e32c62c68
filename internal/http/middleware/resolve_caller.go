package middleware

import (
	"context"

	"github.com/gin-gonic/gin"

	types "github.com/yungbote/memberhub-backend/internal/domain"
	"github.com/yungbote/memberhub-backend/internal/http/response"
	"github.com/yungbote/memberhub-backend/internal/platform/ctxutil"
	"github.com/yungbote/memberhub-backend/internal/platform/logger"
)

type CallerResolver interface {
	ResolveCaller(ctx context.Context, rd *ctxutil.RequestData) (*types.User, error)
}

// ResolveCaller must run after RequireAuth. It swaps the token subject in the request data
// for the local user id, which is what purchases and notifications are keyed on. Admin
// tokens without an email claim keep the token identity.
func ResolveCaller(log *logger.Logger, resolver CallerResolver) gin.HandlerFunc {
	log = log.With("Middleware", "ResolveCaller")
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		rd := ctxutil.GetRequestData(ctx)
		if resolver == nil || rd == nil || (rd.Email == "" && rd.IsAdmin()) {
			c.Next()
			return
		}
		u, err := resolver.ResolveCaller(ctx, rd)
		if err != nil {
			log.Warn("caller not resolved", "error", err, "platform_user_id", rd.PlatformUserID)
			response.RespondAPIError(c, err)
			c.Abort()
			return
		}
		local := *rd
		local.UserID = u.ID
		if local.Email == "" {
			local.Email = u.Email
		}
		c.Request = c.Request.WithContext(ctxutil.WithRequestData(ctx, &local))
		c.Next()
	}
}
