package user

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	NotificationKindWelcome = "welcome"
	NotificationKindAccess  = "access_granted"
)

type Notification struct {
	ID     uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	User   *User      `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"-"`
	Kind   string     `gorm:"column:kind;not null" json:"kind"`
	Title  string     `gorm:"column:title;not null" json:"title"`
	Body   string     `gorm:"column:body;type:text" json:"body"`
	ReadAt *time.Time `gorm:"column:read_at;index" json:"read_at,omitempty"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Notification) TableName() string { return "notification" }

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}
