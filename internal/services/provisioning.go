package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/memberhub-backend/internal/data/repos"
	types "github.com/yungbote/memberhub-backend/internal/domain"
	"github.com/yungbote/memberhub-backend/internal/modules/billing/webhook"
	"github.com/yungbote/memberhub-backend/internal/platform/apierr"
	"github.com/yungbote/memberhub-backend/internal/platform/dbctx"
	"github.com/yungbote/memberhub-backend/internal/platform/logger"
	"github.com/yungbote/memberhub-backend/internal/platform/sendgrid"
)

type ProvisioningConfig struct {
	// AppURL is linked from the welcome email.
	AppURL  string
	LockTTL time.Duration
}

// ProvisionResult is the webhook response body. Every handled delivery answers 200 so
// the payment provider does not retry; Outcome tells what happened.
type ProvisionResult struct {
	Success     bool       `json:"success"`
	Message     string     `json:"message"`
	Warning     string     `json:"warning,omitempty"`
	Outcome     string     `json:"outcome"`
	UserID      *uuid.UUID `json:"user_id,omitempty"`
	PurchaseID  *uuid.UUID `json:"purchase_id,omitempty"`
	UserCreated bool       `json:"user_created,omitempty"`
}

// Locker guards concurrent deliveries of the same purchase. Acquire returns the token
// that releases the lock.
type Locker interface {
	Acquire(ctx context.Context, name string, ttl time.Duration) (token string, ok bool, err error)
	Release(ctx context.Context, name, token string) error
}

type ProvisioningService interface {
	HandlePurchase(ctx context.Context, raw []byte) (*ProvisionResult, error)
}

type provisioningService struct {
	db            *gorm.DB
	log           *logger.Logger
	cfg           ProvisioningConfig
	userRepo      repos.UserRepo
	productRepo   repos.ProductRepo
	purchaseRepo  repos.PurchaseRepo
	eventRepo     repos.WebhookEventRepo
	notifications NotificationService
	mailer        sendgrid.Client
	locker        Locker
}

// NewProvisioningService wires the purchase pipeline. mailer and locker may be nil.
func NewProvisioningService(
	db *gorm.DB,
	baseLog *logger.Logger,
	cfg ProvisioningConfig,
	userRepo repos.UserRepo,
	productRepo repos.ProductRepo,
	purchaseRepo repos.PurchaseRepo,
	eventRepo repos.WebhookEventRepo,
	notifications NotificationService,
	mailer sendgrid.Client,
	locker Locker,
) ProvisioningService {
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 30 * time.Second
	}
	return &provisioningService{
		db:            db,
		log:           baseLog.With("service", "ProvisioningService"),
		cfg:           cfg,
		userRepo:      userRepo,
		productRepo:   productRepo,
		purchaseRepo:  purchaseRepo,
		eventRepo:     eventRepo,
		notifications: notifications,
		mailer:        mailer,
		locker:        locker,
	}
}

func (s *provisioningService) HandlePurchase(ctx context.Context, raw []byte) (*ProvisionResult, error) {
	ev, err := webhook.Normalize(raw)
	if err != nil {
		return nil, apierr.New(http.StatusBadRequest, "invalid_payload", err)
	}
	if err := ev.Validate(); err != nil {
		s.audit(ctx, ev, types.WebhookOutcomeFailed, nil, err)
		return nil, apierr.New(http.StatusBadRequest, "missing_fields", err)
	}

	if !webhook.IsApproved(ev.Status) {
		s.audit(ctx, ev, types.WebhookOutcomeIgnored, nil, nil)
		return &ProvisionResult{
			Success: true,
			Message: "ignored: status " + displayStatus(ev.Status),
			Outcome: types.WebhookOutcomeIgnored,
		}, nil
	}

	product, err := s.productRepo.GetByExternalID(ctx, nil, ev.ProductExternalID)
	if err != nil {
		s.audit(ctx, ev, types.WebhookOutcomeFailed, nil, err)
		return nil, apierr.Internal("provisioning_failed", err)
	}
	if product == nil {
		s.log.Warn("purchase for unmapped product", "product_external_id", ev.ProductExternalID, "transaction_id", ev.TransactionID)
		s.audit(ctx, ev, types.WebhookOutcomeUnmapped, nil, nil)
		return &ProvisionResult{
			Success: false,
			Message: "product not mapped",
			Warning: fmt.Sprintf("no product with external id %q", ev.ProductExternalID),
			Outcome: types.WebhookOutcomeUnmapped,
		}, nil
	}

	lockName := "purchase:" + ev.DedupKey()
	if s.locker != nil {
		token, ok, err := s.locker.Acquire(ctx, lockName, s.cfg.LockTTL)
		if err != nil {
			s.log.Warn("dedup lock unavailable; continuing", "error", err)
		} else if !ok {
			s.audit(ctx, ev, types.WebhookOutcomeDuplicate, nil, nil)
			return &ProvisionResult{
				Success: true,
				Message: "already processing",
				Outcome: types.WebhookOutcomeDuplicate,
			}, nil
		} else {
			defer func() {
				if err := s.locker.Release(context.WithoutCancel(ctx), lockName, token); err != nil {
					s.log.Warn("dedup lock release failed", "error", err)
				}
			}()
		}
	}

	var (
		user      *types.User
		purchase  *types.Purchase
		created   bool
		duplicate bool
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}

		u, isNew, err := s.findOrCreateUser(dbc, ev)
		if err != nil {
			return err
		}
		user, created = u, isNew

		existing, err := s.purchaseRepo.Get(ctx, tx, user.ID, product.ID)
		if err != nil {
			return fmt.Errorf("load purchase: %w", err)
		}
		if existing != nil && existing.Status == types.PurchaseStatusActive && existing.TransactionID == ev.TransactionID {
			purchase, duplicate = existing, true
			return nil
		}

		purchase, err = s.purchaseRepo.Upsert(ctx, tx, &types.Purchase{
			UserID:        user.ID,
			ProductID:     product.ID,
			Status:        types.PurchaseStatusActive,
			TransactionID: ev.TransactionID,
			Payload:       datatypes.JSON(ev.Raw),
		})
		if err != nil {
			return fmt.Errorf("upsert purchase: %w", err)
		}
		if err := s.notifications.Notify(dbc, user.ID, types.NotificationKindAccess,
			"Access granted",
			"You now have access to "+product.Title+"."); err != nil {
			return fmt.Errorf("notify access: %w", err)
		}
		return nil
	})
	if err != nil {
		s.log.Error("provisioning failed", "error", err, "transaction_id", ev.TransactionID)
		s.audit(ctx, ev, types.WebhookOutcomeFailed, nil, err)
		var ae *apierr.Error
		if errors.As(err, &ae) {
			return nil, ae
		}
		return nil, apierr.Internal("provisioning_failed", err)
	}

	userID, purchaseID := user.ID, purchase.ID
	if duplicate {
		s.audit(ctx, ev, types.WebhookOutcomeDuplicate, &userID, nil)
		return &ProvisionResult{
			Success:    true,
			Message:    "already provisioned",
			Outcome:    types.WebhookOutcomeDuplicate,
			UserID:     &userID,
			PurchaseID: &purchaseID,
		}, nil
	}

	if created {
		s.sendWelcome(ctx, user, product)
	}
	s.audit(ctx, ev, types.WebhookOutcomeProvisioned, &userID, nil)
	s.log.Info("purchase provisioned",
		"user_id", userID,
		"product_id", product.ID,
		"transaction_id", ev.TransactionID,
		"user_created", created,
	)
	return &ProvisionResult{
		Success:     true,
		Message:     "access granted",
		Outcome:     types.WebhookOutcomeProvisioned,
		UserID:      &userID,
		PurchaseID:  &purchaseID,
		UserCreated: created,
	}, nil
}

// findOrCreateUser creates unknown buyers with a random throwaway password and a
// confirmed email; they set a real password through the identity platform.
func (s *provisioningService) findOrCreateUser(dbc dbctx.Context, ev webhook.Event) (*types.User, bool, error) {
	existing, err := s.userRepo.GetByEmail(dbc.Ctx, dbc.Tx, ev.Email)
	if err != nil {
		return nil, false, fmt.Errorf("lookup user: %w", err)
	}
	if existing != nil {
		return existing, false, nil
	}
	restored, err := s.userRepo.Restore(dbc.Ctx, dbc.Tx, ev.Email)
	if err != nil {
		return nil, false, fmt.Errorf("restore user: %w", err)
	}
	if restored != nil {
		s.log.Info("deleted user restored by purchase", "user_id", restored.ID)
		return restored, false, nil
	}

	secret, err := randomHex(24)
	if err != nil {
		return nil, false, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return nil, false, fmt.Errorf("hash password: %w", err)
	}
	now := time.Now().UTC()
	name := strings.TrimSpace(ev.Name)
	if name == "" {
		name = strings.SplitN(ev.Email, "@", 2)[0]
	}
	created, err := s.userRepo.Create(dbc.Ctx, dbc.Tx, []*types.User{{
		Email:            ev.Email,
		Password:         string(hash),
		Name:             name,
		Role:             types.RoleMember,
		EmailConfirmedAt: &now,
	}})
	if err != nil {
		return nil, false, fmt.Errorf("create user: %w", err)
	}
	u := created[0]
	if err := s.notifications.Notify(dbc, u.ID, types.NotificationKindWelcome,
		"Welcome",
		"Your account was created with your purchase."); err != nil {
		return nil, false, fmt.Errorf("notify welcome: %w", err)
	}
	return u, true, nil
}

func (s *provisioningService) sendWelcome(ctx context.Context, u *types.User, p *types.Product) {
	if s.mailer == nil {
		return
	}
	link := strings.TrimRight(s.cfg.AppURL, "/")
	text := fmt.Sprintf("Hi %s,\n\nYour access to %s is ready.", u.Name, p.Title)
	if link != "" {
		text += fmt.Sprintf("\n\nSign in at %s using \"Forgot password\" to choose your password.", link)
	}
	_, err := s.mailer.Send(ctx, sendgrid.SendEmailRequest{
		To:         []sendgrid.EmailAddress{{Email: u.Email, Name: u.Name}},
		Subject:    "Your access to " + p.Title,
		Text:       text,
		Categories: []string{"welcome"},
	})
	if err != nil {
		s.log.Warn("welcome email failed", "error", err, "user_id", u.ID)
	}
}

func (s *provisioningService) audit(ctx context.Context, ev webhook.Event, outcome string, userID *uuid.UUID, cause error) {
	version := ev.Version
	if version == "" {
		version = "unknown"
	}
	row := &types.WebhookEvent{
		Version:           version,
		Status:            ev.Status,
		TransactionID:     ev.TransactionID,
		ProductExternalID: ev.ProductExternalID,
		UserID:            userID,
		Outcome:           outcome,
	}
	if len(ev.Raw) > 0 {
		row.Payload = datatypes.JSON(ev.Raw)
	}
	if cause != nil {
		row.Error = cause.Error()
	}
	if err := s.eventRepo.Create(context.WithoutCancel(ctx), nil, row); err != nil {
		s.log.Warn("webhook audit write failed", "error", err, "outcome", outcome)
	}
}

func randomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("random password: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func displayStatus(s string) string {
	if s == "" {
		return "(empty)"
	}
	return s
}
