package editorial

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/paperclip-video/paperclip-backend/internal/domain/content"
)

const (
	SegmentMinDurationSeconds = 5
	SegmentMaxDurationSeconds = 120
)

// Segment is a short-form content unit assembled from blocks/entities.
type Segment struct {
	ID        uuid.UUID        `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ProjectID uuid.UUID        `gorm:"type:uuid;not null;index:idx_segment_project_order,priority:1" json:"project_id"`
	Project   *content.Project `gorm:"constraint:OnDelete:CASCADE;foreignKey:ProjectID;references:ID" json:"project,omitempty"`

	Title       string `gorm:"column:title" json:"title"`
	HookText    string `gorm:"column:hook_text;type:text" json:"hook_text,omitempty"`
	ContentText string `gorm:"column:content_text;type:text" json:"content_text"`

	DurationSeconds *float64 `gorm:"column:duration_seconds" json:"duration_seconds,omitempty"`

	OrderIndex int           `gorm:"column:order_index;not null;index:idx_segment_project_order,priority:2" json:"order_index"`
	Status     SegmentStatus `gorm:"column:status;not null;default:'draft';index" json:"status"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Segment) TableName() string { return "segment" }

// Validate enforces the duration window when a duration is set.
func (s *Segment) Validate() error {
	if s.DurationSeconds != nil {
		d := *s.DurationSeconds
		if d < SegmentMinDurationSeconds || d > SegmentMaxDurationSeconds {
			return fmt.Errorf("duration_seconds %v outside [%d,%d]", d, SegmentMinDurationSeconds, SegmentMaxDurationSeconds)
		}
	}
	return nil
}
