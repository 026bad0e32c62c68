package catalog

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Product is a sellable course. ExternalID is the id the payment provider sends in
// purchase webhooks.
type Product struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ExternalID  string    `gorm:"column:external_id;uniqueIndex;not null" json:"external_id"`
	Title       string    `gorm:"column:title;not null" json:"title"`
	Description string    `gorm:"column:description;type:text" json:"description"`
	CoverURL    string    `gorm:"column:cover_url" json:"cover_url"`
	Published   bool      `gorm:"column:published;not null;default:false" json:"published"`

	Modules []*Module `gorm:"foreignKey:ProductID" json:"modules,omitempty"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Product) TableName() string { return "product" }

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

type Module struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ProductID   uuid.UUID `gorm:"type:uuid;not null;index" json:"product_id"`
	Title       string    `gorm:"column:title;not null" json:"title"`
	Description string    `gorm:"column:description;type:text" json:"description"`
	Position    int       `gorm:"column:position;not null;default:0" json:"position"`

	Lessons []*Lesson `gorm:"foreignKey:ModuleID" json:"lessons,omitempty"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Module) TableName() string { return "product_module" }

func (m *Module) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

type Lesson struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ModuleID    uuid.UUID `gorm:"type:uuid;not null;index" json:"module_id"`
	Title       string    `gorm:"column:title;not null" json:"title"`
	Content     string    `gorm:"column:content;type:text" json:"content"`
	VideoURL    string    `gorm:"column:video_url" json:"video_url"`
	DurationSec int       `gorm:"column:duration_sec;not null;default:0" json:"duration_sec"`
	Position    int       `gorm:"column:position;not null;default:0" json:"position"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Lesson) TableName() string { return "lesson" }

func (l *Lesson) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
