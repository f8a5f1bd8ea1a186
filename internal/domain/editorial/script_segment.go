package editorial

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const ScriptSegmentMaxDurationSeconds = 600

// ScriptSegment is an ordered member of a VideoScript. SegmentOrder is
// contiguous starting at 0 within a script.
type ScriptSegment struct {
	ID       uuid.UUID    `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ScriptID uuid.UUID    `gorm:"type:uuid;not null;index:idx_script_segment_order,priority:1" json:"script_id"`
	Script   *VideoScript `gorm:"constraint:OnDelete:CASCADE;foreignKey:ScriptID;references:ID" json:"script,omitempty"`

	SegmentOrder int               `gorm:"column:segment_order;not null;index:idx_script_segment_order,priority:2" json:"segment_order"`
	SegmentType  ScriptSegmentType `gorm:"column:segment_type;not null" json:"segment_type"`
	Text         string            `gorm:"column:text;type:text" json:"text"`

	EstimatedDuration *float64 `gorm:"column:estimated_duration" json:"estimated_duration,omitempty"`

	// SourceRefs is an array of content references
	// ({"segment_id"|"block_id"|"entity_id": uuid}).
	SourceRefs datatypes.JSON `gorm:"column:source_refs;type:jsonb" json:"source_refs"`
	// VisualCues is free-form direction for the visual stage.
	VisualCues datatypes.JSON `gorm:"column:visual_cues;type:jsonb" json:"visual_cues"`
	// VisualAssets is an array of GeneratedVisual/MediaAsset ids the
	// render stage must resolve.
	VisualAssets datatypes.JSON `gorm:"column:visual_assets;type:jsonb" json:"visual_assets"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (ScriptSegment) TableName() string { return "script_segment" }

func (s *ScriptSegment) Validate() error {
	if !s.SegmentType.Valid() {
		return fmt.Errorf("unknown segment_type %q", s.SegmentType)
	}
	if s.SegmentOrder < 0 {
		return fmt.Errorf("segment_order %d is negative", s.SegmentOrder)
	}
	if s.EstimatedDuration != nil {
		d := *s.EstimatedDuration
		if d < 0 || d > ScriptSegmentMaxDurationSeconds {
			return fmt.Errorf("estimated_duration %v outside [0,%d]", d, ScriptSegmentMaxDurationSeconds)
		}
	}
	return nil
}
