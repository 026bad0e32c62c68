package assistant

import (
	"context"
	"errors"

	"gorm.io/gorm"

	types "github.com/yungbote/memberhub-backend/internal/domain"
	"github.com/yungbote/memberhub-backend/internal/platform/logger"
)

type AssistantConfigRepo interface {
	// Get returns the single stored config, or nil, nil before one is saved.
	Get(ctx context.Context, tx *gorm.DB) (*types.AssistantConfig, error)
	// Save creates the config or overwrites the existing row in place.
	Save(ctx context.Context, tx *gorm.DB, cfg *types.AssistantConfig) (*types.AssistantConfig, error)
}

type assistantConfigRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAssistantConfigRepo(db *gorm.DB, baseLog *logger.Logger) AssistantConfigRepo {
	return &assistantConfigRepo{db: db, log: baseLog.With("repo", "AssistantConfigRepo")}
}

func (r *assistantConfigRepo) Get(ctx context.Context, tx *gorm.DB) (*types.AssistantConfig, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var cfg types.AssistantConfig
	err := transaction.WithContext(ctx).Order("created_at ASC").First(&cfg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (r *assistantConfigRepo) Save(ctx context.Context, tx *gorm.DB, cfg *types.AssistantConfig) (*types.AssistantConfig, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if cfg == nil {
		return nil, errors.New("assistant config is nil")
	}
	var out *types.AssistantConfig
	err := transaction.WithContext(ctx).Transaction(func(txx *gorm.DB) error {
		existing, err := r.Get(ctx, txx)
		if err != nil {
			return err
		}
		if existing == nil {
			if err := txx.Create(cfg).Error; err != nil {
				return err
			}
			out = cfg
			return nil
		}
		if err := txx.Model(&types.AssistantConfig{}).
			Where("id = ?", existing.ID).
			Updates(map[string]interface{}{
				"name":              cfg.Name,
				"system_prompt":     cfg.SystemPrompt,
				"model":             cfg.Model,
				"knowledge_enabled": cfg.KnowledgeEnabled,
				"updated_by":        cfg.UpdatedBy,
			}).Error; err != nil {
			return err
		}
		out, err = r.Get(ctx, txx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
