package catalog

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/memberhub-backend/internal/domain"
	"github.com/yungbote/memberhub-backend/internal/platform/logger"
)

type ModuleRepo interface {
	Create(ctx context.Context, tx *gorm.DB, modules []*types.Module) ([]*types.Module, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Module, error)
	ListByProduct(ctx context.Context, tx *gorm.DB, productID uuid.UUID) ([]*types.Module, error)
	Update(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error
	Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) (bool, error)
}

type moduleRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewModuleRepo(db *gorm.DB, baseLog *logger.Logger) ModuleRepo {
	return &moduleRepo{db: db, log: baseLog.With("repo", "ModuleRepo")}
}

func (r *moduleRepo) Create(ctx context.Context, tx *gorm.DB, modules []*types.Module) ([]*types.Module, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(modules) == 0 {
		return []*types.Module{}, nil
	}
	if err := transaction.WithContext(ctx).Omit("Lessons").Create(&modules).Error; err != nil {
		return nil, err
	}
	return modules, nil
}

func (r *moduleRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Module, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var m types.Module
	err := transaction.WithContext(ctx).Where("id = ?", id).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *moduleRepo) ListByProduct(ctx context.Context, tx *gorm.DB, productID uuid.UUID) ([]*types.Module, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Module
	if err := transaction.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("position ASC, created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *moduleRepo) Update(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(updates) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).Model(&types.Module{}).Where("id = ?", id).Updates(updates).Error
}

func (r *moduleRepo) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	res := transaction.WithContext(ctx).Where("id = ?", id).Delete(&types.Module{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
