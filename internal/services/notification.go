package services

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/memberhub-backend/internal/data/repos"
	types "github.com/yungbote/memberhub-backend/internal/domain"
	"github.com/yungbote/memberhub-backend/internal/platform/apierr"
	"github.com/yungbote/memberhub-backend/internal/platform/ctxutil"
	"github.com/yungbote/memberhub-backend/internal/platform/dbctx"
	"github.com/yungbote/memberhub-backend/internal/platform/logger"
)

type NotificationService interface {
	ListMine(dbc dbctx.Context, unreadOnly bool, limit int) ([]*types.Notification, error)
	MarkRead(dbc dbctx.Context, id uuid.UUID) error
	Notify(dbc dbctx.Context, userID uuid.UUID, kind, title, body string) error
}

type notificationService struct {
	db   *gorm.DB
	log  *logger.Logger
	repo repos.NotificationRepo
}

func NewNotificationService(db *gorm.DB, baseLog *logger.Logger, repo repos.NotificationRepo) NotificationService {
	return &notificationService{
		db:   db,
		log:  baseLog.With("service", "NotificationService"),
		repo: repo,
	}
}

func (s *notificationService) ListMine(dbc dbctx.Context, unreadOnly bool, limit int) ([]*types.Notification, error) {
	rd := ctxutil.GetRequestData(dbc.Ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, apierr.Unauthorized("unauthenticated", "not authenticated")
	}
	return s.repo.ListByUser(dbc.Ctx, dbc.Tx, rd.UserID, unreadOnly, limit)
}

func (s *notificationService) MarkRead(dbc dbctx.Context, id uuid.UUID) error {
	rd := ctxutil.GetRequestData(dbc.Ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return apierr.Unauthorized("unauthenticated", "not authenticated")
	}
	ok, err := s.repo.MarkRead(dbc.Ctx, dbc.Tx, rd.UserID, id, time.Now().UTC())
	if err != nil {
		return err
	}
	if !ok {
		return apierr.NotFound("notification_not_found", "notification not found")
	}
	return nil
}

func (s *notificationService) Notify(dbc dbctx.Context, userID uuid.UUID, kind, title, body string) error {
	_, err := s.repo.Create(dbc.Ctx, dbc.Tx, []*types.Notification{{
		UserID: userID,
		Kind:   kind,
		Title:  title,
		Body:   body,
	}})
	return err
}
