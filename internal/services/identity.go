package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/memberhub-backend/internal/data/repos"
	types "github.com/yungbote/memberhub-backend/internal/domain"
	"github.com/yungbote/memberhub-backend/internal/platform/apierr"
	"github.com/yungbote/memberhub-backend/internal/platform/ctxutil"
	"github.com/yungbote/memberhub-backend/internal/platform/logger"
)

type IdentityService interface {
	// ResolveCaller maps a verified token identity to the local user. A user provisioned
	// by a purchase webhook is linked by email on first sign-in; unknown callers get a
	// fresh account.
	ResolveCaller(ctx context.Context, rd *ctxutil.RequestData) (*types.User, error)
}

type identityService struct {
	db       *gorm.DB
	log      *logger.Logger
	userRepo repos.UserRepo
}

func NewIdentityService(db *gorm.DB, baseLog *logger.Logger, userRepo repos.UserRepo) IdentityService {
	return &identityService{
		db:       db,
		log:      baseLog.With("service", "IdentityService"),
		userRepo: userRepo,
	}
}

func (s *identityService) ResolveCaller(ctx context.Context, rd *ctxutil.RequestData) (*types.User, error) {
	if rd == nil || rd.PlatformUserID == uuid.Nil {
		return nil, apierr.Unauthorized("unauthenticated", "not authenticated")
	}
	u, err := s.userRepo.GetByPlatformID(ctx, nil, rd.PlatformUserID)
	if err != nil {
		return nil, fmt.Errorf("lookup platform user: %w", err)
	}
	if u != nil {
		return u, nil
	}

	email := strings.ToLower(strings.TrimSpace(rd.Email))
	if email == "" {
		return nil, apierr.Unauthorized("email_claim_required", "token carries no email")
	}

	var linked *types.User
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var txErr error
		linked, txErr = s.linkOrCreate(ctx, tx, rd.PlatformUserID, email)
		return txErr
	})
	if err == nil {
		return linked, nil
	}
	var apiErr *apierr.Error
	if errors.As(err, &apiErr) {
		return nil, err
	}
	// A concurrent first request may have linked the same subject.
	if again, lookupErr := s.userRepo.GetByPlatformID(ctx, nil, rd.PlatformUserID); lookupErr == nil && again != nil {
		return again, nil
	}
	return nil, fmt.Errorf("resolve caller: %w", err)
}

func (s *identityService) linkOrCreate(ctx context.Context, tx *gorm.DB, platformID uuid.UUID, email string) (*types.User, error) {
	u, err := s.userRepo.GetByEmail(ctx, tx, email)
	if err != nil {
		return nil, err
	}
	if u == nil {
		if u, err = s.userRepo.Restore(ctx, tx, email); err != nil {
			return nil, err
		}
	}

	if u != nil {
		if u.PlatformUserID != nil {
			if *u.PlatformUserID == platformID {
				return u, nil
			}
			s.log.Warn("email already linked to another platform account", "user_id", u.ID)
			return nil, apierr.New(http.StatusConflict, "identity_conflict",
				errors.New("this email is linked to a different account"))
		}
		ok, err := s.userRepo.LinkPlatformID(ctx, tx, u.ID, platformID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, errors.New("user was linked concurrently")
		}
		u.PlatformUserID = &platformID
		s.log.Info("platform account linked", "user_id", u.ID)
		return u, nil
	}

	now := time.Now().UTC()
	created, err := s.userRepo.Create(ctx, tx, []*types.User{{
		PlatformUserID:   &platformID,
		Email:            email,
		Name:             strings.SplitN(email, "@", 2)[0],
		Role:             types.RoleMember,
		EmailConfirmedAt: &now,
	}})
	if err != nil {
		return nil, err
	}
	s.log.Info("user created on first sign-in", "user_id", created[0].ID)
	return created[0], nil
}
