package services

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/memberhub-backend/internal/data/repos"
	types "github.com/yungbote/memberhub-backend/internal/domain"
	"github.com/yungbote/memberhub-backend/internal/platform/apierr"
	"github.com/yungbote/memberhub-backend/internal/platform/ctxutil"
	"github.com/yungbote/memberhub-backend/internal/platform/dbctx"
	"github.com/yungbote/memberhub-backend/internal/platform/logger"
)

type ProductInput struct {
	ExternalID  string `json:"external_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	CoverURL    string `json:"cover_url"`
	Published   bool   `json:"published"`
}

// ProductPatch carries the fields an admin edit may change; nil means unchanged.
type ProductPatch struct {
	ExternalID  *string `json:"external_id"`
	Title       *string `json:"title"`
	Description *string `json:"description"`
	CoverURL    *string `json:"cover_url"`
	Published   *bool   `json:"published"`
}

type ModuleInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Position    int    `json:"position"`
}

type LessonInput struct {
	Title       string `json:"title"`
	Content     string `json:"content"`
	VideoURL    string `json:"video_url"`
	DurationSec int    `json:"duration_sec"`
	Position    int    `json:"position"`
}

type CatalogService interface {
	// Admin back office.
	ListProducts(dbc dbctx.Context) ([]*types.Product, error)
	CreateProduct(ctx context.Context, in ProductInput) (*types.Product, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, patch ProductPatch) (*types.Product, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error
	CreateModule(ctx context.Context, productID uuid.UUID, in ModuleInput) (*types.Module, error)
	UpdateModule(ctx context.Context, id uuid.UUID, in ModuleInput) (*types.Module, error)
	DeleteModule(ctx context.Context, id uuid.UUID) error
	CreateLesson(ctx context.Context, moduleID uuid.UUID, in LessonInput) (*types.Lesson, error)
	UpdateLesson(ctx context.Context, id uuid.UUID, in LessonInput) (*types.Lesson, error)
	DeleteLesson(ctx context.Context, id uuid.UUID) error

	// Member reads.
	ListMyProducts(dbc dbctx.Context) ([]*types.Product, error)
	// GetProductContent returns modules and lessons; members need an active purchase.
	GetProductContent(dbc dbctx.Context, productID uuid.UUID) (*types.Product, error)
}

type catalogService struct {
	db           *gorm.DB
	log          *logger.Logger
	productRepo  repos.ProductRepo
	moduleRepo   repos.ModuleRepo
	lessonRepo   repos.LessonRepo
	purchaseRepo repos.PurchaseRepo
}

func NewCatalogService(
	db *gorm.DB,
	baseLog *logger.Logger,
	productRepo repos.ProductRepo,
	moduleRepo repos.ModuleRepo,
	lessonRepo repos.LessonRepo,
	purchaseRepo repos.PurchaseRepo,
) CatalogService {
	return &catalogService{
		db:           db,
		log:          baseLog.With("service", "CatalogService"),
		productRepo:  productRepo,
		moduleRepo:   moduleRepo,
		lessonRepo:   lessonRepo,
		purchaseRepo: purchaseRepo,
	}
}

func (s *catalogService) ListProducts(dbc dbctx.Context) ([]*types.Product, error) {
	return s.productRepo.List(dbc.Ctx, dbc.Tx, false)
}

func (s *catalogService) CreateProduct(ctx context.Context, in ProductInput) (*types.Product, error) {
	in.ExternalID = strings.TrimSpace(in.ExternalID)
	in.Title = strings.TrimSpace(in.Title)
	if in.ExternalID == "" {
		return nil, apierr.BadRequest("missing_external_id", "external_id is required")
	}
	if in.Title == "" {
		return nil, apierr.BadRequest("missing_title", "title is required")
	}
	existing, err := s.productRepo.GetByExternalID(ctx, nil, in.ExternalID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apierr.New(http.StatusConflict, "external_id_taken", fmt.Errorf("a product with external_id %q already exists", in.ExternalID))
	}

	// A deleted product keeps its external_id in the unique index; creating it again
	// brings the row back with the new fields, along with its purchases.
	restored, err := s.productRepo.Restore(ctx, nil, in.ExternalID)
	if err != nil {
		return nil, err
	}
	if restored != nil {
		if err := s.productRepo.Update(ctx, nil, restored.ID, map[string]interface{}{
			"title":       in.Title,
			"description": strings.TrimSpace(in.Description),
			"cover_url":   strings.TrimSpace(in.CoverURL),
			"published":   in.Published,
		}); err != nil {
			return nil, err
		}
		s.log.Info("product restored", "product_id", restored.ID, "external_id", in.ExternalID)
		return s.productRepo.GetByID(ctx, nil, restored.ID)
	}

	created, err := s.productRepo.Create(ctx, nil, []*types.Product{{
		ExternalID:  in.ExternalID,
		Title:       in.Title,
		Description: strings.TrimSpace(in.Description),
		CoverURL:    strings.TrimSpace(in.CoverURL),
		Published:   in.Published,
	}})
	if err != nil {
		return nil, err
	}
	return created[0], nil
}

func (s *catalogService) UpdateProduct(ctx context.Context, id uuid.UUID, patch ProductPatch) (*types.Product, error) {
	updates := map[string]interface{}{}
	if patch.ExternalID != nil {
		ext := strings.TrimSpace(*patch.ExternalID)
		if ext == "" {
			return nil, apierr.BadRequest("missing_external_id", "external_id cannot be empty")
		}
		taken, err := s.productRepo.ExternalIDInUse(ctx, nil, ext, id)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, apierr.New(http.StatusConflict, "external_id_taken", fmt.Errorf("a product with external_id %q already exists", ext))
		}
		updates["external_id"] = ext
	}
	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return nil, apierr.BadRequest("missing_title", "title cannot be empty")
		}
		updates["title"] = title
	}
	if patch.Description != nil {
		updates["description"] = strings.TrimSpace(*patch.Description)
	}
	if patch.CoverURL != nil {
		updates["cover_url"] = strings.TrimSpace(*patch.CoverURL)
	}
	if patch.Published != nil {
		updates["published"] = *patch.Published
	}

	p, err := s.productRepo.GetByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, apierr.NotFound("product_not_found", "product not found")
	}
	if err := s.productRepo.Update(ctx, nil, id, updates); err != nil {
		return nil, err
	}
	return s.productRepo.GetByID(ctx, nil, id)
}

func (s *catalogService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	ok, err := s.productRepo.Delete(ctx, nil, id)
	if err != nil {
		return err
	}
	if !ok {
		return apierr.NotFound("product_not_found", "product not found")
	}
	return nil
}

func (s *catalogService) CreateModule(ctx context.Context, productID uuid.UUID, in ModuleInput) (*types.Module, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return nil, apierr.BadRequest("missing_title", "title is required")
	}
	p, err := s.productRepo.GetByID(ctx, nil, productID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, apierr.NotFound("product_not_found", "product not found")
	}
	created, err := s.moduleRepo.Create(ctx, nil, []*types.Module{{
		ProductID:   productID,
		Title:       in.Title,
		Description: strings.TrimSpace(in.Description),
		Position:    in.Position,
	}})
	if err != nil {
		return nil, err
	}
	return created[0], nil
}

func (s *catalogService) UpdateModule(ctx context.Context, id uuid.UUID, in ModuleInput) (*types.Module, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return nil, apierr.BadRequest("missing_title", "title is required")
	}
	m, err := s.moduleRepo.GetByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, apierr.NotFound("module_not_found", "module not found")
	}
	if err := s.moduleRepo.Update(ctx, nil, id, map[string]interface{}{
		"title":       in.Title,
		"description": strings.TrimSpace(in.Description),
		"position":    in.Position,
	}); err != nil {
		return nil, err
	}
	return s.moduleRepo.GetByID(ctx, nil, id)
}

func (s *catalogService) DeleteModule(ctx context.Context, id uuid.UUID) error {
	ok, err := s.moduleRepo.Delete(ctx, nil, id)
	if err != nil {
		return err
	}
	if !ok {
		return apierr.NotFound("module_not_found", "module not found")
	}
	return nil
}

func (s *catalogService) CreateLesson(ctx context.Context, moduleID uuid.UUID, in LessonInput) (*types.Lesson, error) {
	if err := validateLesson(&in); err != nil {
		return nil, err
	}
	m, err := s.moduleRepo.GetByID(ctx, nil, moduleID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, apierr.NotFound("module_not_found", "module not found")
	}
	created, err := s.lessonRepo.Create(ctx, nil, []*types.Lesson{{
		ModuleID:    moduleID,
		Title:       in.Title,
		Content:     in.Content,
		VideoURL:    in.VideoURL,
		DurationSec: in.DurationSec,
		Position:    in.Position,
	}})
	if err != nil {
		return nil, err
	}
	return created[0], nil
}

func (s *catalogService) UpdateLesson(ctx context.Context, id uuid.UUID, in LessonInput) (*types.Lesson, error) {
	if err := validateLesson(&in); err != nil {
		return nil, err
	}
	l, err := s.lessonRepo.GetByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	if l == nil {
		return nil, apierr.NotFound("lesson_not_found", "lesson not found")
	}
	if err := s.lessonRepo.Update(ctx, nil, id, map[string]interface{}{
		"title":        in.Title,
		"content":      in.Content,
		"video_url":    in.VideoURL,
		"duration_sec": in.DurationSec,
		"position":     in.Position,
	}); err != nil {
		return nil, err
	}
	return s.lessonRepo.GetByID(ctx, nil, id)
}

func (s *catalogService) DeleteLesson(ctx context.Context, id uuid.UUID) error {
	ok, err := s.lessonRepo.Delete(ctx, nil, id)
	if err != nil {
		return err
	}
	if !ok {
		return apierr.NotFound("lesson_not_found", "lesson not found")
	}
	return nil
}

func validateLesson(in *LessonInput) error {
	in.Title = strings.TrimSpace(in.Title)
	in.VideoURL = strings.TrimSpace(in.VideoURL)
	if in.Title == "" {
		return apierr.BadRequest("missing_title", "title is required")
	}
	if in.DurationSec < 0 {
		return apierr.BadRequest("invalid_duration", "duration_sec cannot be negative")
	}
	return nil
}

func (s *catalogService) ListMyProducts(dbc dbctx.Context) ([]*types.Product, error) {
	rd := ctxutil.GetRequestData(dbc.Ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, apierr.Unauthorized("unauthenticated", "not authenticated")
	}
	ids, err := s.purchaseRepo.ActiveProductIDs(dbc.Ctx, dbc.Tx, rd.UserID)
	if err != nil {
		return nil, err
	}
	return s.productRepo.GetByIDs(dbc.Ctx, dbc.Tx, ids)
}

func (s *catalogService) GetProductContent(dbc dbctx.Context, productID uuid.UUID) (*types.Product, error) {
	rd := ctxutil.GetRequestData(dbc.Ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, apierr.Unauthorized("unauthenticated", "not authenticated")
	}
	if productID == uuid.Nil {
		return nil, apierr.BadRequest("invalid_id", "product id is required")
	}
	if !rd.IsAdmin() {
		ok, err := s.purchaseRepo.HasActive(dbc.Ctx, dbc.Tx, rd.UserID, productID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, apierr.Forbidden("no_access", "you do not have access to this product")
		}
	}
	p, err := s.productRepo.GetWithContent(dbc.Ctx, dbc.Tx, productID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, apierr.NotFound("product_not_found", "product not found")
	}
	return p, nil
}
