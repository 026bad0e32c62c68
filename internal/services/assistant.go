package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/memberhub-backend/internal/data/repos"
	types "github.com/yungbote/memberhub-backend/internal/domain"
	"github.com/yungbote/memberhub-backend/internal/platform/apierr"
	"github.com/yungbote/memberhub-backend/internal/platform/ctxutil"
	"github.com/yungbote/memberhub-backend/internal/platform/logger"
)

const (
	defaultAssistantName   = "Assistant"
	defaultAssistantPrompt = "You are the support assistant of a membership learning platform. Answer questions about the courses and the community clearly and politely."
	maxSystemPromptRunes   = 20000
)

type AssistantInput struct {
	Name             string `json:"name"`
	SystemPrompt     string `json:"system_prompt"`
	Model            string `json:"model"`
	KnowledgeEnabled bool   `json:"knowledge_enabled"`
}

type AssistantService interface {
	// Get returns the stored config or the built-in default when none was saved.
	Get(ctx context.Context) (*types.AssistantConfig, error)
	Update(ctx context.Context, in AssistantInput) (*types.AssistantConfig, error)
	// EnsureDefault stores in when no config exists yet.
	EnsureDefault(ctx context.Context, in AssistantInput) error
}

type assistantService struct {
	db   *gorm.DB
	log  *logger.Logger
	repo repos.AssistantConfigRepo
}

func NewAssistantService(db *gorm.DB, baseLog *logger.Logger, repo repos.AssistantConfigRepo) AssistantService {
	return &assistantService{
		db:   db,
		log:  baseLog.With("service", "AssistantService"),
		repo: repo,
	}
}

func (s *assistantService) Get(ctx context.Context) (*types.AssistantConfig, error) {
	cfg, err := s.repo.Get(ctx, nil)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return &types.AssistantConfig{
			Name:             defaultAssistantName,
			SystemPrompt:     defaultAssistantPrompt,
			KnowledgeEnabled: true,
		}, nil
	}
	return cfg, nil
}

func (s *assistantService) Update(ctx context.Context, in AssistantInput) (*types.AssistantConfig, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.SystemPrompt = strings.TrimSpace(in.SystemPrompt)
	in.Model = strings.TrimSpace(in.Model)
	if in.Name == "" {
		return nil, apierr.BadRequest("missing_name", "name is required")
	}
	if in.SystemPrompt == "" {
		return nil, apierr.BadRequest("missing_system_prompt", "system_prompt is required")
	}
	if len([]rune(in.SystemPrompt)) > maxSystemPromptRunes {
		return nil, apierr.BadRequest("system_prompt_too_long", "system_prompt is too long")
	}

	var updatedBy *uuid.UUID
	if rd := ctxutil.GetRequestData(ctx); rd != nil && rd.UserID != uuid.Nil {
		id := rd.UserID
		updatedBy = &id
	}
	saved, err := s.repo.Save(ctx, nil, &types.AssistantConfig{
		Name:             in.Name,
		SystemPrompt:     in.SystemPrompt,
		Model:            in.Model,
		KnowledgeEnabled: in.KnowledgeEnabled,
		UpdatedBy:        updatedBy,
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("assistant config updated", "name", saved.Name, "knowledge_enabled", saved.KnowledgeEnabled)
	return saved, nil
}

func (s *assistantService) EnsureDefault(ctx context.Context, in AssistantInput) error {
	existing, err := s.repo.Get(ctx, nil)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}
	if strings.TrimSpace(in.Name) == "" {
		in.Name = defaultAssistantName
	}
	if strings.TrimSpace(in.SystemPrompt) == "" {
		in.SystemPrompt = defaultAssistantPrompt
	}
	_, err = s.Update(ctx, in)
	return err
}
