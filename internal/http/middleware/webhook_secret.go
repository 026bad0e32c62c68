package middleware

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/memberhub-backend/internal/http/response"
)

const (
	headerWebhookSecret = "X-Webhook-Secret"
	headerHottok        = "X-Hotmart-Hottok"
)

// WebhookSecret rejects deliveries whose shared secret header does not match. An empty
// secret disables the check.
func WebhookSecret(secret string) gin.HandlerFunc {
	secret = strings.TrimSpace(secret)
	return func(c *gin.Context) {
		if secret == "" {
			c.Next()
			return
		}
		got := strings.TrimSpace(c.GetHeader(headerWebhookSecret))
		if got == "" {
			got = strings.TrimSpace(c.GetHeader(headerHottok))
		}
		if subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
			response.AbortError(c, http.StatusUnauthorized, "invalid_webhook_secret", errors.New("invalid webhook secret"))
			return
		}
		c.Next()
	}
}
