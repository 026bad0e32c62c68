package community

import (
	"context"
	"time"

	"gorm.io/gorm"

	types "github.com/yungbote/memberhub-backend/internal/domain"
	"github.com/yungbote/memberhub-backend/internal/platform/logger"
)

type PostRepo interface {
	Create(ctx context.Context, tx *gorm.DB, post *types.Post) error
	// Feed returns posts and unexpired stories created before the cursor, newest first.
	Feed(ctx context.Context, tx *gorm.DB, now time.Time, before *time.Time, limit int) ([]*types.Post, error)
}

type postRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPostRepo(db *gorm.DB, baseLog *logger.Logger) PostRepo {
	return &postRepo{db: db, log: baseLog.With("repo", "PostRepo")}
}

func (r *postRepo) Create(ctx context.Context, tx *gorm.DB, post *types.Post) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Create(post).Error
}

func (r *postRepo) Feed(ctx context.Context, tx *gorm.DB, now time.Time, before *time.Time, limit int) ([]*types.Post, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	q := transaction.WithContext(ctx).
		Where("kind = ? OR (kind = ? AND (expires_at IS NULL OR expires_at > ?))", types.PostKindPost, types.PostKindStory, now)
	if before != nil {
		q = q.Where("created_at < ?", *before)
	}
	var results []*types.Post
	if err := q.Order("created_at DESC").Limit(limit).Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
