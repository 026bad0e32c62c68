package community

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	PostKindPost  = "post"
	PostKindStory = "story"
)

// Post is authored either by a member (AuthorUserID) or by a bot (BotID).
type Post struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	AuthorUserID *uuid.UUID     `gorm:"type:uuid;column:author_user_id;index" json:"author_user_id,omitempty"`
	BotID        *uuid.UUID     `gorm:"type:uuid;column:bot_id;index" json:"bot_id,omitempty"`
	AuthorName   string         `gorm:"column:author_name;not null" json:"author_name"`
	AvatarURL    string         `gorm:"column:avatar_url" json:"avatar_url,omitempty"`
	Body         string         `gorm:"column:body;type:text;not null" json:"body"`
	Kind         string         `gorm:"column:kind;not null;index" json:"kind"`
	ExpiresAt    *time.Time     `gorm:"column:expires_at;index" json:"expires_at,omitempty"`
	Metadata     datatypes.JSON `gorm:"type:jsonb;column:metadata" json:"metadata,omitempty"`

	CreatedAt time.Time      `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Post) TableName() string { return "community_post" }

func (p *Post) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.Kind == "" {
		p.Kind = PostKindPost
	}
	return nil
}

// BotProfile is an automated community member whose posts are generated from Persona.
type BotProfile struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string    `gorm:"column:name;not null;uniqueIndex" json:"name"`
	AvatarURL string    `gorm:"column:avatar_url" json:"avatar_url"`
	Persona   string    `gorm:"column:persona;type:text;not null" json:"persona"`
	Active    bool      `gorm:"column:active;not null" json:"active"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (BotProfile) TableName() string { return "bot_profile" }

func (b *BotProfile) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}
