package billing

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	PurchaseStatusActive   = "active"
	PurchaseStatusRefunded = "refunded"
)

// Purchase is the entitlement of one user to one product. (user_id, product_id) is unique,
// so replays of the same purchase update the existing row.
type Purchase struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID        uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_purchase_user_product,priority:1" json:"user_id"`
	ProductID     uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_purchase_user_product,priority:2;index" json:"product_id"`
	Status        string         `gorm:"column:status;not null;index" json:"status"`
	TransactionID string         `gorm:"column:transaction_id;index" json:"transaction_id"`
	Payload       datatypes.JSON `gorm:"type:jsonb;column:payload" json:"-"`
	PurchasedAt   time.Time      `gorm:"column:purchased_at;not null" json:"purchased_at"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Purchase) TableName() string { return "purchase" }

func (p *Purchase) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.PurchasedAt.IsZero() {
		p.PurchasedAt = time.Now().UTC()
	}
	return nil
}
