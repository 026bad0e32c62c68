package catalog

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/memberhub-backend/internal/domain"
	"github.com/yungbote/memberhub-backend/internal/platform/logger"
)

type ProductRepo interface {
	Create(ctx context.Context, tx *gorm.DB, products []*types.Product) ([]*types.Product, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.Product, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Product, error)
	// GetByExternalID returns nil, nil when no product carries externalID.
	GetByExternalID(ctx context.Context, tx *gorm.DB, externalID string) (*types.Product, error)
	// GetWithContent loads the product with its modules and lessons ordered by position.
	GetWithContent(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Product, error)
	List(ctx context.Context, tx *gorm.DB, publishedOnly bool) ([]*types.Product, error)
	Update(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error
	Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) (bool, error)
	// Restore clears the soft delete of the product holding externalID and returns it.
	// nil, nil when no deleted product holds it.
	Restore(ctx context.Context, tx *gorm.DB, externalID string) (*types.Product, error)
	// ExternalIDInUse counts soft-deleted rows too, since the unique index does.
	ExternalIDInUse(ctx context.Context, tx *gorm.DB, externalID string, exceptID uuid.UUID) (bool, error)
}

type productRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProductRepo(db *gorm.DB, baseLog *logger.Logger) ProductRepo {
	return &productRepo{db: db, log: baseLog.With("repo", "ProductRepo")}
}

func (r *productRepo) Create(ctx context.Context, tx *gorm.DB, products []*types.Product) ([]*types.Product, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(products) == 0 {
		return []*types.Product{}, nil
	}
	for _, p := range products {
		p.ExternalID = strings.TrimSpace(p.ExternalID)
	}
	if err := transaction.WithContext(ctx).Omit("Modules").Create(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

func (r *productRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.Product, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Product
	if len(ids) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("id IN ?", ids).
		Order("title ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *productRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Product, error) {
	return r.first(ctx, tx, "id = ?", id)
}

func (r *productRepo) GetByExternalID(ctx context.Context, tx *gorm.DB, externalID string) (*types.Product, error) {
	externalID = strings.TrimSpace(externalID)
	if externalID == "" {
		return nil, nil
	}
	return r.first(ctx, tx, "external_id = ?", externalID)
}

func (r *productRepo) first(ctx context.Context, tx *gorm.DB, query string, arg interface{}) (*types.Product, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var p types.Product
	err := transaction.WithContext(ctx).Where(query, arg).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *productRepo) GetWithContent(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Product, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var p types.Product
	err := transaction.WithContext(ctx).
		Preload("Modules", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC, created_at ASC")
		}).
		Preload("Modules.Lessons", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC, created_at ASC")
		}).
		Where("id = ?", id).
		First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *productRepo) List(ctx context.Context, tx *gorm.DB, publishedOnly bool) ([]*types.Product, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	q := transaction.WithContext(ctx).Model(&types.Product{})
	if publishedOnly {
		q = q.Where("published = ?", true)
	}
	var results []*types.Product
	if err := q.Order("title ASC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *productRepo) Update(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(updates) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Model(&types.Product{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *productRepo) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	res := transaction.WithContext(ctx).Where("id = ?", id).Delete(&types.Product{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *productRepo) Restore(ctx context.Context, tx *gorm.DB, externalID string) (*types.Product, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	externalID = strings.TrimSpace(externalID)
	if externalID == "" {
		return nil, nil
	}
	var p types.Product
	err := transaction.WithContext(ctx).Unscoped().
		Where("external_id = ? AND deleted_at IS NOT NULL", externalID).
		First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := transaction.WithContext(ctx).Unscoped().
		Model(&types.Product{}).
		Where("id = ?", p.ID).
		Update("deleted_at", nil).Error; err != nil {
		return nil, err
	}
	p.DeletedAt = gorm.DeletedAt{}
	return &p, nil
}

func (r *productRepo) ExternalIDInUse(ctx context.Context, tx *gorm.DB, externalID string, exceptID uuid.UUID) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var count int64
	err := transaction.WithContext(ctx).Unscoped().
		Model(&types.Product{}).
		Where("external_id = ? AND id <> ?", strings.TrimSpace(externalID), exceptID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
