package billing

import (
	"context"

	"gorm.io/gorm"

	types "github.com/yungbote/memberhub-backend/internal/domain"
	"github.com/yungbote/memberhub-backend/internal/platform/logger"
)

type WebhookEventRepo interface {
	Create(ctx context.Context, tx *gorm.DB, event *types.WebhookEvent) error
	List(ctx context.Context, tx *gorm.DB, outcome string, limit int) ([]*types.WebhookEvent, error)
}

type webhookEventRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewWebhookEventRepo(db *gorm.DB, baseLog *logger.Logger) WebhookEventRepo {
	return &webhookEventRepo{db: db, log: baseLog.With("repo", "WebhookEventRepo")}
}

func (r *webhookEventRepo) Create(ctx context.Context, tx *gorm.DB, event *types.WebhookEvent) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Create(event).Error
}

// List returns the newest events first, optionally filtered by outcome.
func (r *webhookEventRepo) List(ctx context.Context, tx *gorm.DB, outcome string, limit int) ([]*types.WebhookEvent, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	q := transaction.WithContext(ctx).Model(&types.WebhookEvent{})
	if outcome != "" {
		q = q.Where("outcome = ?", outcome)
	}
	var results []*types.WebhookEvent
	if err := q.Order("created_at DESC").Limit(limit).Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
