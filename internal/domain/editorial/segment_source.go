package editorial

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SegmentSource is a provenance edge from a Segment back to source
// content. References are weak (nulled when the source is deleted, the
// edge row survives as history). At creation at least one referent
// must be non-null.
type SegmentSource struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	SegmentID uuid.UUID `gorm:"type:uuid;not null;index" json:"segment_id"`
	Segment   *Segment  `gorm:"constraint:OnDelete:CASCADE;foreignKey:SegmentID;references:ID" json:"segment,omitempty"`

	DocumentID   *uuid.UUID `gorm:"type:uuid;index" json:"document_id,omitempty"`
	BlockID      *uuid.UUID `gorm:"type:uuid;index" json:"block_id,omitempty"`
	MediaAssetID *uuid.UUID `gorm:"type:uuid;index" json:"media_asset_id,omitempty"`

	// Weight is an independent confidence-like contribution score in
	// [0,1]; weights for one segment need not sum to 1.
	Weight float64 `gorm:"column:weight;not null;default:1" json:"weight"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (SegmentSource) TableName() string { return "segment_source" }

// Validate rejects all-null referents and out-of-range weights before
// persistence.
func (s *SegmentSource) Validate() error {
	if s.DocumentID == nil && s.BlockID == nil && s.MediaAssetID == nil {
		return fmt.Errorf("segment source has no referent")
	}
	if s.Weight < 0 || s.Weight > 1 {
		return fmt.Errorf("weight %v outside [0,1]", s.Weight)
	}
	return nil
}
