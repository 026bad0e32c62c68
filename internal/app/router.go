package app

import (
	goredis "github.com/redis/go-redis/v9"

	httpserver "github.com/yungbote/memberhub-backend/internal/http"
	"github.com/yungbote/memberhub-backend/internal/observability"
	"github.com/yungbote/memberhub-backend/internal/platform/logger"
	"github.com/yungbote/memberhub-backend/internal/platform/redisx"
)

func wireRouter(log *logger.Logger, cfg Config, rdb *goredis.Client, services Services, handlers Handlers, middleware Middleware) *httpserver.Server {
	log.Info("Wiring router...")
	return httpserver.NewServer(httpserver.RouterConfig{
		Log:           log,
		ServiceName:   cfg.ServiceName,
		TracingOn:     observability.Enabled(),
		CORSOrigins:   cfg.Origins(),
		WebhookSecret: cfg.WebhookSecret,
		Limiter:       redisx.NewLimiter(rdb, redisx.ConfigFromEnv().Prefix),
		RateLimits: httpserver.RateLimits{
			Window:  cfg.RateLimitWindow,
			Chat:    cfg.RateLimitChat,
			Speech:  cfg.RateLimitSpeech,
			Webhook: cfg.RateLimitWebhook,
		},

		AuthMiddleware: middleware.Auth,
		CallerResolver: services.Identity,

		HealthHandler:       handlers.Health,
		WebhookHandler:      handlers.Webhook,
		ChatHandler:         handlers.Chat,
		SpeechHandler:       handlers.Speech,
		KnowledgeHandler:    handlers.Knowledge,
		CatalogHandler:      handlers.Catalog,
		CommunityHandler:    handlers.Community,
		NotificationHandler: handlers.Notification,
		AssistantHandler:    handlers.Assistant,
	})
}
