package community

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/memberhub-backend/internal/domain"
	"github.com/yungbote/memberhub-backend/internal/platform/logger"
)

type BotRepo interface {
	Create(ctx context.Context, tx *gorm.DB, bot *types.BotProfile) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.BotProfile, error)
	GetByName(ctx context.Context, tx *gorm.DB, name string) (*types.BotProfile, error)
	List(ctx context.Context, tx *gorm.DB, activeOnly bool) ([]*types.BotProfile, error)
	Update(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error
	Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) (bool, error)
}

type botRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewBotRepo(db *gorm.DB, baseLog *logger.Logger) BotRepo {
	return &botRepo{db: db, log: baseLog.With("repo", "BotRepo")}
}

func (r *botRepo) Create(ctx context.Context, tx *gorm.DB, bot *types.BotProfile) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Create(bot).Error
}

func (r *botRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.BotProfile, error) {
	return r.first(ctx, tx, "id = ?", id)
}

func (r *botRepo) GetByName(ctx context.Context, tx *gorm.DB, name string) (*types.BotProfile, error) {
	return r.first(ctx, tx, "name = ?", name)
}

func (r *botRepo) first(ctx context.Context, tx *gorm.DB, query string, arg interface{}) (*types.BotProfile, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var b types.BotProfile
	err := transaction.WithContext(ctx).Where(query, arg).First(&b).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *botRepo) List(ctx context.Context, tx *gorm.DB, activeOnly bool) ([]*types.BotProfile, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	q := transaction.WithContext(ctx).Model(&types.BotProfile{})
	if activeOnly {
		q = q.Where("active = ?", true)
	}
	var results []*types.BotProfile
	if err := q.Order("name ASC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *botRepo) Update(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(updates) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).Model(&types.BotProfile{}).Where("id = ?", id).Updates(updates).Error
}

func (r *botRepo) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	res := transaction.WithContext(ctx).Where("id = ?", id).Delete(&types.BotProfile{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
