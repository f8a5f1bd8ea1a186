package content

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ContentBlock is a structural unit in reading order. OrderIndex is
// monotonically non-decreasing within a (document, page) pair;
// downstream assembly depends on it to reconstruct reading order.
type ContentBlock struct {
	ID         uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	DocumentID uuid.UUID `gorm:"type:uuid;not null;index:idx_block_doc_order,priority:1" json:"document_id"`
	Document   *Document `gorm:"constraint:OnDelete:CASCADE;foreignKey:DocumentID;references:ID" json:"document,omitempty"`

	PageID *uuid.UUID    `gorm:"type:uuid;index" json:"page_id,omitempty"`
	Page   *DocumentPage `gorm:"constraint:OnDelete:SET NULL;foreignKey:PageID;references:ID" json:"page,omitempty"`

	BlockType      BlockType `gorm:"column:block_type;not null;index" json:"block_type"`
	Text           string    `gorm:"column:text;type:text" json:"text"`
	OrderIndex     int       `gorm:"column:order_index;not null;index:idx_block_doc_order,priority:2" json:"order_index"`
	HierarchyLevel int       `gorm:"column:hierarchy_level" json:"hierarchy_level,omitempty"`

	Metadata datatypes.JSON `gorm:"column:metadata;type:jsonb" json:"metadata"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (ContentBlock) TableName() string { return "content_block" }
