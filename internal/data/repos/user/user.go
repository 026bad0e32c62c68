package user

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/memberhub-backend/internal/domain"
	"github.com/yungbote/memberhub-backend/internal/platform/logger"
)

type UserRepo interface {
	Create(ctx context.Context, tx *gorm.DB, users []*types.User) ([]*types.User, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, userIDs []uuid.UUID) ([]*types.User, error)
	// GetByEmail returns nil, nil when no user has email. Matching is case-insensitive.
	GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*types.User, error)
	// GetByPlatformID returns nil, nil when no user is linked to platformID.
	GetByPlatformID(ctx context.Context, tx *gorm.DB, platformID uuid.UUID) (*types.User, error)
	// LinkPlatformID only links users that are not linked yet and reports whether it did.
	LinkPlatformID(ctx context.Context, tx *gorm.DB, userID, platformID uuid.UUID) (bool, error)
	// Restore clears the soft delete of the user holding email and returns it; nil, nil
	// when there is none.
	Restore(ctx context.Context, tx *gorm.DB, email string) (*types.User, error)
	EmailExists(ctx context.Context, tx *gorm.DB, email string) (bool, error)
	UpdateName(ctx context.Context, tx *gorm.DB, userID uuid.UUID, name string) error
}

type userRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo {
	repoLog := baseLog.With("repo", "UserRepo")
	return &userRepo{db: db, log: repoLog}
}

func (ur *userRepo) Create(ctx context.Context, tx *gorm.DB, users []*types.User) ([]*types.User, error) {
	transaction := tx
	if transaction == nil {
		transaction = ur.db
	}
	if len(users) == 0 {
		return []*types.User{}, nil
	}
	for _, u := range users {
		u.Email = normalizeEmail(u.Email)
	}
	if err := transaction.WithContext(ctx).Create(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (ur *userRepo) GetByIDs(ctx context.Context, tx *gorm.DB, userIDs []uuid.UUID) ([]*types.User, error) {
	transaction := tx
	if transaction == nil {
		transaction = ur.db
	}
	var results []*types.User
	if len(userIDs) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("id IN ?", userIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (ur *userRepo) GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*types.User, error) {
	transaction := tx
	if transaction == nil {
		transaction = ur.db
	}
	email = normalizeEmail(email)
	if email == "" {
		return nil, nil
	}
	var u types.User
	err := transaction.WithContext(ctx).
		Where("email = ?", email).
		First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (ur *userRepo) GetByPlatformID(ctx context.Context, tx *gorm.DB, platformID uuid.UUID) (*types.User, error) {
	transaction := tx
	if transaction == nil {
		transaction = ur.db
	}
	if platformID == uuid.Nil {
		return nil, nil
	}
	var u types.User
	err := transaction.WithContext(ctx).
		Where("platform_user_id = ?", platformID).
		First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (ur *userRepo) LinkPlatformID(ctx context.Context, tx *gorm.DB, userID, platformID uuid.UUID) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = ur.db
	}
	res := transaction.WithContext(ctx).
		Model(&types.User{}).
		Where("id = ? AND platform_user_id IS NULL", userID).
		Update("platform_user_id", platformID)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (ur *userRepo) Restore(ctx context.Context, tx *gorm.DB, email string) (*types.User, error) {
	transaction := tx
	if transaction == nil {
		transaction = ur.db
	}
	email = normalizeEmail(email)
	if email == "" {
		return nil, nil
	}
	var u types.User
	err := transaction.WithContext(ctx).Unscoped().
		Where("email = ? AND deleted_at IS NOT NULL", email).
		First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := transaction.WithContext(ctx).Unscoped().
		Model(&types.User{}).
		Where("id = ?", u.ID).
		Update("deleted_at", nil).Error; err != nil {
		return nil, err
	}
	u.DeletedAt = gorm.DeletedAt{}
	return &u, nil
}

func (ur *userRepo) EmailExists(ctx context.Context, tx *gorm.DB, email string) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = ur.db
	}
	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.User{}).
		Where("email = ?", normalizeEmail(email)).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (ur *userRepo) UpdateName(ctx context.Context, tx *gorm.DB, userID uuid.UUID, name string) error {
	transaction := tx
	if transaction == nil {
		transaction = ur.db
	}
	return transaction.WithContext(ctx).
		Model(&types.User{}).
		Where("id = ?", userID).
		Update("name", strings.TrimSpace(name)).Error
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
