package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/memberhub-backend/internal/data/repos"
	"github.com/yungbote/memberhub-backend/internal/platform/logger"
)

type Repos struct {
	User         repos.UserRepo
	Notification repos.NotificationRepo

	Product repos.ProductRepo
	Module  repos.ModuleRepo
	Lesson  repos.LessonRepo

	Purchase     repos.PurchaseRepo
	WebhookEvent repos.WebhookEventRepo

	KnowledgeDocument repos.KnowledgeDocumentRepo
	KnowledgeChunk    repos.KnowledgeChunkRepo

	Post repos.PostRepo
	Bot  repos.BotRepo

	AssistantConfig repos.AssistantConfigRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		User:              repos.NewUserRepo(db, log),
		Notification:      repos.NewNotificationRepo(db, log),
		Product:           repos.NewProductRepo(db, log),
		Module:            repos.NewModuleRepo(db, log),
		Lesson:            repos.NewLessonRepo(db, log),
		Purchase:          repos.NewPurchaseRepo(db, log),
		WebhookEvent:      repos.NewWebhookEventRepo(db, log),
		KnowledgeDocument: repos.NewKnowledgeDocumentRepo(db, log),
		KnowledgeChunk:    repos.NewKnowledgeChunkRepo(db, log),
		Post:              repos.NewPostRepo(db, log),
		Bot:               repos.NewBotRepo(db, log),
		AssistantConfig:   repos.NewAssistantConfigRepo(db, log),
	}
}
