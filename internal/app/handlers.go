package app

import (
	"gorm.io/gorm"

	httpH "github.com/yungbote/memberhub-backend/internal/http/handlers"
	"github.com/yungbote/memberhub-backend/internal/platform/logger"
)

type Handlers struct {
	Health       *httpH.HealthHandler
	Webhook      *httpH.WebhookHandler
	Chat         *httpH.ChatHandler
	Speech       *httpH.SpeechHandler
	Knowledge    *httpH.KnowledgeHandler
	Catalog      *httpH.CatalogHandler
	Community    *httpH.CommunityHandler
	Notification *httpH.NotificationHandler
	Assistant    *httpH.AssistantHandler
}

func wireHandlers(db *gorm.DB, log *logger.Logger, cfg Config, s Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:       httpH.NewHealthHandler(db),
		Webhook:      httpH.NewWebhookHandler(log, s.Provisioning),
		Chat:         httpH.NewChatHandler(log, s.Chat),
		Speech:       httpH.NewSpeechHandler(s.Speech),
		Knowledge:    httpH.NewKnowledgeHandler(log, s.KnowledgeIngest, int64(cfg.KnowledgeMaxUploadMB)<<20),
		Catalog:      httpH.NewCatalogHandler(s.Catalog),
		Community:    httpH.NewCommunityHandler(s.Community),
		Notification: httpH.NewNotificationHandler(s.Notification),
		Assistant:    httpH.NewAssistantHandler(s.Assistant),
	}
}
