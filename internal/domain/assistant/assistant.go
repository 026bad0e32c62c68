package assistant

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AssistantConfig is the single row holding the chat assistant's persona.
type AssistantConfig struct {
	ID               uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Name             string     `gorm:"column:name;not null" json:"name"`
	SystemPrompt     string     `gorm:"column:system_prompt;type:text;not null" json:"system_prompt"`
	Model            string     `gorm:"column:model" json:"model"`
	KnowledgeEnabled bool       `gorm:"column:knowledge_enabled;not null" json:"knowledge_enabled"`
	UpdatedBy        *uuid.UUID `gorm:"type:uuid;column:updated_by" json:"updated_by,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (AssistantConfig) TableName() string { return "assistant_config" }

func (a *AssistantConfig) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
