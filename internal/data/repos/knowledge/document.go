package knowledge

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/memberhub-backend/internal/domain"
	"github.com/yungbote/memberhub-backend/internal/platform/logger"
)

type DocumentRepo interface {
	Create(ctx context.Context, tx *gorm.DB, doc *types.KnowledgeDocument) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.KnowledgeDocument, error)
	List(ctx context.Context, tx *gorm.DB) ([]*types.KnowledgeDocument, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error
	Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) (bool, error)
}

type documentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDocumentRepo(db *gorm.DB, baseLog *logger.Logger) DocumentRepo {
	return &documentRepo{db: db, log: baseLog.With("repo", "KnowledgeDocumentRepo")}
}

func (r *documentRepo) Create(ctx context.Context, tx *gorm.DB, doc *types.KnowledgeDocument) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Create(doc).Error
}

func (r *documentRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.KnowledgeDocument, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var d types.KnowledgeDocument
	err := transaction.WithContext(ctx).Where("id = ?", id).First(&d).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *documentRepo) List(ctx context.Context, tx *gorm.DB) ([]*types.KnowledgeDocument, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.KnowledgeDocument
	if err := transaction.WithContext(ctx).Order("created_at DESC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *documentRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(updates) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).Model(&types.KnowledgeDocument{}).Where("id = ?", id).Updates(updates).Error
}

func (r *documentRepo) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	res := transaction.WithContext(ctx).Where("id = ?", id).Delete(&types.KnowledgeDocument{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
