package user

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/memberhub-backend/internal/domain"
	"github.com/yungbote/memberhub-backend/internal/platform/logger"
)

type NotificationRepo interface {
	Create(ctx context.Context, tx *gorm.DB, notifications []*types.Notification) ([]*types.Notification, error)
	ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID, unreadOnly bool, limit int) ([]*types.Notification, error)
	// MarkRead reports whether a notification owned by userID was updated.
	MarkRead(ctx context.Context, tx *gorm.DB, userID, id uuid.UUID, at time.Time) (bool, error)
}

type notificationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewNotificationRepo(db *gorm.DB, baseLog *logger.Logger) NotificationRepo {
	return &notificationRepo{db: db, log: baseLog.With("repo", "NotificationRepo")}
}

func (r *notificationRepo) Create(ctx context.Context, tx *gorm.DB, notifications []*types.Notification) ([]*types.Notification, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(notifications) == 0 {
		return []*types.Notification{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&notifications).Error; err != nil {
		return nil, err
	}
	return notifications, nil
}

func (r *notificationRepo) ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID, unreadOnly bool, limit int) ([]*types.Notification, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	q := transaction.WithContext(ctx).Where("user_id = ?", userID)
	if unreadOnly {
		q = q.Where("read_at IS NULL")
	}
	var results []*types.Notification
	if err := q.Order("created_at DESC").Limit(limit).Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *notificationRepo) MarkRead(ctx context.Context, tx *gorm.DB, userID, id uuid.UUID, at time.Time) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	res := transaction.WithContext(ctx).
		Model(&types.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("read_at", at)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
