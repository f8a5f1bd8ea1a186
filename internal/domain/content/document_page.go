package content

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DocumentPage is unique per (document_id, page_number); page_number
// starts at 1.
type DocumentPage struct {
	ID         uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	DocumentID uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_document_page_number,priority:1" json:"document_id"`
	Document   *Document `gorm:"constraint:OnDelete:CASCADE;foreignKey:DocumentID;references:ID" json:"document,omitempty"`

	PageNumber int    `gorm:"column:page_number;not null;uniqueIndex:idx_document_page_number,priority:2" json:"page_number"`
	Text       string `gorm:"column:text;type:text" json:"text"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (DocumentPage) TableName() string { return "document_page" }
