package http

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/memberhub-backend/internal/http/handlers"
	httpMW "github.com/yungbote/memberhub-backend/internal/http/middleware"
	"github.com/yungbote/memberhub-backend/internal/platform/logger"
	"github.com/yungbote/memberhub-backend/internal/platform/redisx"
)

// RateLimits are requests per window per caller; zero disables the bucket.
type RateLimits struct {
	Window  time.Duration
	Chat    int
	Speech  int
	Webhook int
}

type RouterConfig struct {
	Log           *logger.Logger
	ServiceName   string
	TracingOn     bool
	CORSOrigins   []string
	WebhookSecret string
	Limiter       *redisx.Limiter
	RateLimits    RateLimits

	AuthMiddleware *httpMW.AuthMiddleware
	CallerResolver httpMW.CallerResolver

	HealthHandler       *httpH.HealthHandler
	WebhookHandler      *httpH.WebhookHandler
	ChatHandler         *httpH.ChatHandler
	SpeechHandler       *httpH.SpeechHandler
	KnowledgeHandler    *httpH.KnowledgeHandler
	CatalogHandler      *httpH.CatalogHandler
	CommunityHandler    *httpH.CommunityHandler
	NotificationHandler *httpH.NotificationHandler
	AssistantHandler    *httpH.AssistantHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.TracingOn {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.CORS(cfg.CORSOrigins))

	window := cfg.RateLimits.Window
	if window <= 0 {
		window = time.Minute
	}
	limit := func(bucket string, n int) gin.HandlerFunc {
		return httpMW.RateLimit(cfg.Log, cfg.Limiter, bucket, n, window)
	}

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
		r.GET("/readyz", cfg.HealthHandler.Ready)
	}

	api := r.Group("/api")
	{
		// Payment provider (public, shared secret)
		if cfg.WebhookHandler != nil {
			api.POST("/webhooks/purchase",
				limit("webhook", cfg.RateLimits.Webhook),
				httpMW.WebhookSecret(cfg.WebhookSecret),
				cfg.WebhookHandler.Purchase,
			)
		}
	}

	if cfg.AuthMiddleware == nil {
		return r
	}

	protected := api.Group("/")
	protected.Use(cfg.AuthMiddleware.RequireAuth())
	if cfg.CallerResolver != nil {
		protected.Use(httpMW.ResolveCaller(cfg.Log, cfg.CallerResolver))
	}
	{
		if cfg.ChatHandler != nil {
			protected.POST("/chat", limit("chat", cfg.RateLimits.Chat), cfg.ChatHandler.Stream)
		}
		if cfg.SpeechHandler != nil {
			protected.POST("/tts", limit("tts", cfg.RateLimits.Speech), cfg.SpeechHandler.Synthesize)
		}

		// Member area
		if cfg.CatalogHandler != nil {
			protected.GET("/me/products", cfg.CatalogHandler.ListMyProducts)
			protected.GET("/products/:id/content", cfg.CatalogHandler.GetProductContent)
		}
		if cfg.NotificationHandler != nil {
			protected.GET("/me/notifications", cfg.NotificationHandler.List)
			protected.POST("/me/notifications/:id/read", cfg.NotificationHandler.MarkRead)
		}
		if cfg.CommunityHandler != nil {
			protected.GET("/community/feed", cfg.CommunityHandler.Feed)
			protected.POST("/community/posts", cfg.CommunityHandler.CreatePost)
		}
	}

	admin := protected.Group("/admin")
	admin.Use(cfg.AuthMiddleware.RequireAdmin())
	{
		if cfg.KnowledgeHandler != nil {
			admin.POST("/knowledge", cfg.KnowledgeHandler.Upload)
			admin.GET("/knowledge", cfg.KnowledgeHandler.List)
			admin.DELETE("/knowledge/:id", cfg.KnowledgeHandler.Delete)
		}
		if cfg.AssistantHandler != nil {
			admin.GET("/assistant", cfg.AssistantHandler.Get)
			admin.PUT("/assistant", cfg.AssistantHandler.Update)
		}
		if cfg.CatalogHandler != nil {
			admin.GET("/products", cfg.CatalogHandler.ListProducts)
			admin.POST("/products", cfg.CatalogHandler.CreateProduct)
			admin.PATCH("/products/:id", cfg.CatalogHandler.UpdateProduct)
			admin.DELETE("/products/:id", cfg.CatalogHandler.DeleteProduct)
			admin.POST("/products/:id/modules", cfg.CatalogHandler.CreateModule)
			admin.PUT("/modules/:id", cfg.CatalogHandler.UpdateModule)
			admin.DELETE("/modules/:id", cfg.CatalogHandler.DeleteModule)
			admin.POST("/modules/:id/lessons", cfg.CatalogHandler.CreateLesson)
			admin.PUT("/lessons/:id", cfg.CatalogHandler.UpdateLesson)
			admin.DELETE("/lessons/:id", cfg.CatalogHandler.DeleteLesson)
		}
		if cfg.CommunityHandler != nil {
			admin.GET("/bots", cfg.CommunityHandler.ListBots)
			admin.POST("/bots", cfg.CommunityHandler.CreateBot)
			admin.PATCH("/bots/:id", cfg.CommunityHandler.UpdateBot)
			admin.DELETE("/bots/:id", cfg.CommunityHandler.DeleteBot)
			admin.POST("/bots/:id/post", cfg.CommunityHandler.GenerateBotPost)
		}
	}

	return r
}
