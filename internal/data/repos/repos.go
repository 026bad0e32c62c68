package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/memberhub-backend/internal/data/repos/assistant"
	"github.com/yungbote/memberhub-backend/internal/data/repos/billing"
	"github.com/yungbote/memberhub-backend/internal/data/repos/catalog"
	"github.com/yungbote/memberhub-backend/internal/data/repos/community"
	"github.com/yungbote/memberhub-backend/internal/data/repos/knowledge"
	"github.com/yungbote/memberhub-backend/internal/data/repos/user"
	"github.com/yungbote/memberhub-backend/internal/platform/logger"
)

type UserRepo = user.UserRepo
type NotificationRepo = user.NotificationRepo

type ProductRepo = catalog.ProductRepo
type ModuleRepo = catalog.ModuleRepo
type LessonRepo = catalog.LessonRepo

type PurchaseRepo = billing.PurchaseRepo
type WebhookEventRepo = billing.WebhookEventRepo

type KnowledgeDocumentRepo = knowledge.DocumentRepo
type KnowledgeChunkRepo = knowledge.ChunkRepo

type PostRepo = community.PostRepo
type BotRepo = community.BotRepo

type AssistantConfigRepo = assistant.AssistantConfigRepo

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo {
	return user.NewUserRepo(db, baseLog)
}

func NewNotificationRepo(db *gorm.DB, baseLog *logger.Logger) NotificationRepo {
	return user.NewNotificationRepo(db, baseLog)
}

func NewProductRepo(db *gorm.DB, baseLog *logger.Logger) ProductRepo {
	return catalog.NewProductRepo(db, baseLog)
}

func NewModuleRepo(db *gorm.DB, baseLog *logger.Logger) ModuleRepo {
	return catalog.NewModuleRepo(db, baseLog)
}

func NewLessonRepo(db *gorm.DB, baseLog *logger.Logger) LessonRepo {
	return catalog.NewLessonRepo(db, baseLog)
}

func NewPurchaseRepo(db *gorm.DB, baseLog *logger.Logger) PurchaseRepo {
	return billing.NewPurchaseRepo(db, baseLog)
}

func NewWebhookEventRepo(db *gorm.DB, baseLog *logger.Logger) WebhookEventRepo {
	return billing.NewWebhookEventRepo(db, baseLog)
}

func NewKnowledgeDocumentRepo(db *gorm.DB, baseLog *logger.Logger) KnowledgeDocumentRepo {
	return knowledge.NewDocumentRepo(db, baseLog)
}

func NewKnowledgeChunkRepo(db *gorm.DB, baseLog *logger.Logger) KnowledgeChunkRepo {
	return knowledge.NewChunkRepo(db, baseLog)
}

func NewPostRepo(db *gorm.DB, baseLog *logger.Logger) PostRepo {
	return community.NewPostRepo(db, baseLog)
}

func NewBotRepo(db *gorm.DB, baseLog *logger.Logger) BotRepo {
	return community.NewBotRepo(db, baseLog)
}

func NewAssistantConfigRepo(db *gorm.DB, baseLog *logger.Logger) AssistantConfigRepo {
	return assistant.NewAssistantConfigRepo(db, baseLog)
}
