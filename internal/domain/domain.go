package domain

import (
	"github.com/yungbote/memberhub-backend/internal/domain/assistant"
	"github.com/yungbote/memberhub-backend/internal/domain/billing"
	"github.com/yungbote/memberhub-backend/internal/domain/catalog"
	"github.com/yungbote/memberhub-backend/internal/domain/community"
	"github.com/yungbote/memberhub-backend/internal/domain/knowledge"
	"github.com/yungbote/memberhub-backend/internal/domain/user"
)

const (
	RoleMember = user.RoleMember
	RoleAdmin  = user.RoleAdmin

	NotificationKindWelcome = user.NotificationKindWelcome
	NotificationKindAccess  = user.NotificationKindAccess

	PurchaseStatusActive   = billing.PurchaseStatusActive
	PurchaseStatusRefunded = billing.PurchaseStatusRefunded

	WebhookOutcomeProvisioned = billing.WebhookOutcomeProvisioned
	WebhookOutcomeIgnored     = billing.WebhookOutcomeIgnored
	WebhookOutcomeUnmapped    = billing.WebhookOutcomeUnmapped
	WebhookOutcomeDuplicate   = billing.WebhookOutcomeDuplicate
	WebhookOutcomeFailed      = billing.WebhookOutcomeFailed

	DocumentStatusReady   = knowledge.DocumentStatusReady
	DocumentStatusPartial = knowledge.DocumentStatusPartial
	DocumentStatusFailed  = knowledge.DocumentStatusFailed

	PostKindPost  = community.PostKindPost
	PostKindStory = community.PostKindStory
)

type User = user.User
type Notification = user.Notification

type Product = catalog.Product
type Module = catalog.Module
type Lesson = catalog.Lesson

type Purchase = billing.Purchase
type WebhookEvent = billing.WebhookEvent

type KnowledgeDocument = knowledge.KnowledgeDocument
type KnowledgeChunk = knowledge.KnowledgeChunk

type Post = community.Post
type BotProfile = community.BotProfile

type AssistantConfig = assistant.AssistantConfig

// Models lists every persisted type in migration order.
func Models() []any {
	return []any{
		&User{},
		&Notification{},
		&Product{},
		&Module{},
		&Lesson{},
		&Purchase{},
		&WebhookEvent{},
		&KnowledgeDocument{},
		&KnowledgeChunk{},
		&BotProfile{},
		&Post{},
		&AssistantConfig{},
	}
}
