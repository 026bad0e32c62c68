package catalog

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/memberhub-backend/internal/domain"
	"github.com/yungbote/memberhub-backend/internal/platform/logger"
)

type LessonRepo interface {
	Create(ctx context.Context, tx *gorm.DB, lessons []*types.Lesson) ([]*types.Lesson, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Lesson, error)
	ListByModule(ctx context.Context, tx *gorm.DB, moduleID uuid.UUID) ([]*types.Lesson, error)
	Update(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error
	Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) (bool, error)
}

type lessonRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLessonRepo(db *gorm.DB, baseLog *logger.Logger) LessonRepo {
	return &lessonRepo{db: db, log: baseLog.With("repo", "LessonRepo")}
}

func (r *lessonRepo) Create(ctx context.Context, tx *gorm.DB, lessons []*types.Lesson) ([]*types.Lesson, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(lessons) == 0 {
		return []*types.Lesson{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&lessons).Error; err != nil {
		return nil, err
	}
	return lessons, nil
}

func (r *lessonRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Lesson, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var l types.Lesson
	err := transaction.WithContext(ctx).Where("id = ?", id).First(&l).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *lessonRepo) ListByModule(ctx context.Context, tx *gorm.DB, moduleID uuid.UUID) ([]*types.Lesson, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Lesson
	if err := transaction.WithContext(ctx).
		Where("module_id = ?", moduleID).
		Order("position ASC, created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *lessonRepo) Update(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(updates) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).Model(&types.Lesson{}).Where("id = ?", id).Updates(updates).Error
}

func (r *lessonRepo) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	res := transaction.WithContext(ctx).Where("id = ?", id).Delete(&types.Lesson{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
