package billing

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	WebhookOutcomeProvisioned = "provisioned"
	WebhookOutcomeIgnored     = "ignored"
	WebhookOutcomeUnmapped    = "unmapped"
	WebhookOutcomeDuplicate   = "duplicate"
	WebhookOutcomeFailed      = "failed"
)

// WebhookEvent is the audit trail of every purchase notification received.
type WebhookEvent struct {
	ID                uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Version           string         `gorm:"column:version;not null" json:"version"`
	Status            string         `gorm:"column:status" json:"status"`
	TransactionID     string         `gorm:"column:transaction_id;index" json:"transaction_id"`
	ProductExternalID string         `gorm:"column:product_external_id;index" json:"product_external_id"`
	UserID            *uuid.UUID     `gorm:"type:uuid;column:user_id;index" json:"user_id,omitempty"`
	Outcome           string         `gorm:"column:outcome;not null;index" json:"outcome"`
	Error             string         `gorm:"column:error;type:text" json:"error,omitempty"`
	Payload           datatypes.JSON `gorm:"type:jsonb;column:payload" json:"payload"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
}

func (WebhookEvent) TableName() string { return "webhook_event" }

func (e *WebhookEvent) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
