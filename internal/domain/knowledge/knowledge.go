package knowledge

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	DocumentStatusReady   = "ready"
	DocumentStatusPartial = "partial"
	DocumentStatusFailed  = "failed"
)

// KnowledgeDocument is one uploaded source file of the assistant's knowledge base.
type KnowledgeDocument struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Title      string     `gorm:"column:title;not null" json:"title"`
	FileName   string     `gorm:"column:file_name;not null" json:"file_name"`
	MimeType   string     `gorm:"column:mime_type" json:"mime_type"`
	SizeBytes  int64      `gorm:"column:size_bytes;not null;default:0" json:"size_bytes"`
	ChunkCount int        `gorm:"column:chunk_count;not null;default:0" json:"chunk_count"`
	Status     string     `gorm:"column:status;not null;index" json:"status"`
	UploadedBy *uuid.UUID `gorm:"type:uuid;column:uploaded_by" json:"uploaded_by,omitempty"`

	CreatedAt time.Time      `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (KnowledgeDocument) TableName() string { return "knowledge_document" }

func (d *KnowledgeDocument) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}

// KnowledgeChunk holds one sentence-aligned slice of a document and its embedding
// (a JSON array of floats).
type KnowledgeChunk struct {
	ID         uuid.UUID          `gorm:"type:uuid;primaryKey" json:"id"`
	DocumentID uuid.UUID          `gorm:"type:uuid;not null;index" json:"document_id"`
	Document   *KnowledgeDocument `gorm:"constraint:OnDelete:CASCADE;foreignKey:DocumentID;references:ID" json:"-"`
	ChunkIndex int                `gorm:"column:chunk_index;not null" json:"chunk_index"`
	Content    string             `gorm:"column:content;type:text;not null" json:"content"`
	Metadata   datatypes.JSON     `gorm:"type:jsonb;column:metadata" json:"metadata"`
	Embedding  datatypes.JSON     `gorm:"type:jsonb;column:embedding" json:"-"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (KnowledgeChunk) TableName() string { return "knowledge_chunk" }

func (c *KnowledgeChunk) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
