package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/memberhub-backend/internal/modules/knowledge/extractor"
	"github.com/yungbote/memberhub-backend/internal/platform/logger"
	"github.com/yungbote/memberhub-backend/internal/platform/redisx"
	"github.com/yungbote/memberhub-backend/internal/services"
)

type Services struct {
	Identity        services.IdentityService
	Assistant       services.AssistantService
	Notification    services.NotificationService
	Catalog         services.CatalogService
	Community       services.CommunityService
	KnowledgeIngest services.KnowledgeIngestService
	KnowledgeSearch services.KnowledgeSearchService
	Chat            services.ChatService
	Speech          services.SpeechService
	Provisioning    services.ProvisioningService
	Seed            services.SeedService
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, r Repos, c Clients) Services {
	log.Info("Wiring services...")

	knowledgeCfg := services.KnowledgeConfig{
		ChunkMaxLength:   cfg.ChunkMaxLength,
		EmbedConcurrency: cfg.EmbedConcurrency,
		MatchThreshold:   cfg.MatchThreshold,
		MatchCount:       cfg.MatchCount,
		ScanLimit:        cfg.KnowledgeScanLimit,
	}

	var ocr extractor.OCR
	if c.GcpDocument != nil {
		ocr = c.GcpDocument
	}
	ext := extractor.New(log, ocr)

	assistant := services.NewAssistantService(db, log, r.AssistantConfig)
	notifications := services.NewNotificationService(db, log, r.Notification)
	community := services.NewCommunityService(db, log, c.OpenAI, r.User, r.Post, r.Bot)
	search := services.NewKnowledgeSearchService(db, log, knowledgeCfg, c.OpenAI, c.Vectors, r.KnowledgeChunk)

	var locker services.Locker
	if c.Redis != nil {
		locker = redisx.NewLocker(c.Redis, redisx.ConfigFromEnv().Prefix)
	}

	return Services{
		Identity:        services.NewIdentityService(db, log, r.User),
		Assistant:       assistant,
		Notification:    notifications,
		Catalog:         services.NewCatalogService(db, log, r.Product, r.Module, r.Lesson, r.Purchase),
		Community:       community,
		KnowledgeIngest: services.NewKnowledgeIngestService(db, log, knowledgeCfg, c.OpenAI, ext, c.Vectors, r.KnowledgeDocument, r.KnowledgeChunk),
		KnowledgeSearch: search,
		Chat: services.NewChatService(log, services.ChatConfig{
			HistoryLimit:   cfg.ChatHistoryLimit,
			KnowledgeTopK:  cfg.MatchCount,
			KnowledgeLimit: cfg.ChatKnowledgeLimit,
		}, c.OpenAI, assistant, search),
		Speech: services.NewSpeechService(log, c.OpenAI),
		Provisioning: services.NewProvisioningService(db, log,
			services.ProvisioningConfig{AppURL: cfg.AppURL, LockTTL: cfg.WebhookLockTTL},
			r.User, r.Product, r.Purchase, r.WebhookEvent,
			notifications, c.SendGrid, locker,
		),
		Seed: services.NewSeedService(log, assistant, community, r.Bot, r.Product),
	}
}
