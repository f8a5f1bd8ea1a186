package content

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ExtractedEntity is a quote/statistic/key-concept found in a block.
// SpanStart/SpanEnd is the half-open character range [start, end) into
// the source block text.
type ExtractedEntity struct {
	ID         uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	DocumentID uuid.UUID `gorm:"type:uuid;not null;index" json:"document_id"`
	Document   *Document `gorm:"constraint:OnDelete:CASCADE;foreignKey:DocumentID;references:ID" json:"document,omitempty"`

	BlockID *uuid.UUID    `gorm:"type:uuid;index" json:"block_id,omitempty"`
	Block   *ContentBlock `gorm:"constraint:OnDelete:SET NULL;foreignKey:BlockID;references:ID" json:"block,omitempty"`

	EntityType EntityType `gorm:"column:entity_type;not null;index" json:"entity_type"`
	RawText    string     `gorm:"column:raw_text;type:text;not null" json:"raw_text"`

	// Normalized value payload, e.g. {"value": 42, "type": "percentage"}.
	Normalized datatypes.JSON `gorm:"column:normalized;type:jsonb" json:"normalized"`

	Confidence float64 `gorm:"column:confidence;not null" json:"confidence"`
	SpanStart  int     `gorm:"column:span_start;not null" json:"span_start"`
	SpanEnd    int     `gorm:"column:span_end;not null" json:"span_end"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (ExtractedEntity) TableName() string { return "extracted_entity" }

// Validate rejects entities that would violate persistence constraints.
func (e *ExtractedEntity) Validate() error {
	if e.Confidence < 0 || e.Confidence > 1 {
		return fmt.Errorf("confidence %v outside [0,1]", e.Confidence)
	}
	if e.SpanEnd < e.SpanStart || e.SpanStart < 0 {
		return fmt.Errorf("invalid span [%d,%d)", e.SpanStart, e.SpanEnd)
	}
	return nil
}
