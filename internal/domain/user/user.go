package user

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoleMember = "member"
	RoleAdmin  = "admin"
)

// User mirrors an account of the hosted identity platform. PlatformUserID is the token
// subject and stays empty for buyers provisioned by a webhook until their first sign-in.
// Password holds a bcrypt hash and is never serialized.
type User struct {
	ID               uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	PlatformUserID   *uuid.UUID `gorm:"type:uuid;uniqueIndex;column:platform_user_id" json:"platform_user_id,omitempty"`
	Email            string     `gorm:"uniqueIndex;not null;column:email" json:"email"`
	Password         string     `gorm:"not null;column:password" json:"-"`
	Name             string     `gorm:"column:name" json:"name"`
	Role             string     `gorm:"not null;column:role;default:member" json:"role"`
	EmailConfirmedAt *time.Time `gorm:"column:email_confirmed_at" json:"email_confirmed_at,omitempty"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (User) TableName() string { return "user" }

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.Role == "" {
		u.Role = RoleMember
	}
	return nil
}
