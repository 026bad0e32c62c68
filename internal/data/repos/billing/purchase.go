package billing

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/memberhub-backend/internal/domain"
	"github.com/yungbote/memberhub-backend/internal/platform/logger"
)

type PurchaseRepo interface {
	// Upsert inserts the purchase or, when (user_id, product_id) already exists, updates
	// its status, transaction id and payload. It returns the stored row.
	Upsert(ctx context.Context, tx *gorm.DB, p *types.Purchase) (*types.Purchase, error)
	Get(ctx context.Context, tx *gorm.DB, userID, productID uuid.UUID) (*types.Purchase, error)
	HasActive(ctx context.Context, tx *gorm.DB, userID, productID uuid.UUID) (bool, error)
	ActiveProductIDs(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]uuid.UUID, error)
	ListByProduct(ctx context.Context, tx *gorm.DB, productID uuid.UUID) ([]*types.Purchase, error)
	SetStatus(ctx context.Context, tx *gorm.DB, userID, productID uuid.UUID, status string) (bool, error)
}

type purchaseRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPurchaseRepo(db *gorm.DB, baseLog *logger.Logger) PurchaseRepo {
	return &purchaseRepo{db: db, log: baseLog.With("repo", "PurchaseRepo")}
}

func (r *purchaseRepo) Upsert(ctx context.Context, tx *gorm.DB, p *types.Purchase) (*types.Purchase, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if p == nil || p.UserID == uuid.Nil || p.ProductID == uuid.Nil {
		return nil, errors.New("purchase requires user_id and product_id")
	}
	if p.Status == "" {
		p.Status = types.PurchaseStatusActive
	}
	p.UpdatedAt = time.Now().UTC()
	err := transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "product_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"status", "transaction_id", "payload", "updated_at"}),
		}).
		Create(p).Error
	if err != nil {
		return nil, err
	}
	return r.Get(ctx, transaction, p.UserID, p.ProductID)
}

func (r *purchaseRepo) Get(ctx context.Context, tx *gorm.DB, userID, productID uuid.UUID) (*types.Purchase, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var p types.Purchase
	err := transaction.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *purchaseRepo) HasActive(ctx context.Context, tx *gorm.DB, userID, productID uuid.UUID) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.Purchase{}).
		Where("user_id = ? AND product_id = ? AND status = ?", userID, productID, types.PurchaseStatusActive).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *purchaseRepo) ActiveProductIDs(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]uuid.UUID, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var ids []uuid.UUID
	if err := transaction.WithContext(ctx).
		Model(&types.Purchase{}).
		Where("user_id = ? AND status = ?", userID, types.PurchaseStatusActive).
		Order("purchased_at ASC").
		Pluck("product_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *purchaseRepo) ListByProduct(ctx context.Context, tx *gorm.DB, productID uuid.UUID) ([]*types.Purchase, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Purchase
	if err := transaction.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("purchased_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *purchaseRepo) SetStatus(ctx context.Context, tx *gorm.DB, userID, productID uuid.UUID, status string) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	res := transaction.WithContext(ctx).
		Model(&types.Purchase{}).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Update("status", status)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
