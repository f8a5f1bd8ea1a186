package visuals

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// VideoSegment maps a script segment onto the rendered timeline.
// Within one video, segments are ordered and their [start,end) windows
// must not overlap. ScriptSegmentID is weak: the timeline row survives
// script edits.
type VideoSegment struct {
	ID      uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	VideoID uuid.UUID `gorm:"type:uuid;not null;index:idx_video_segment_order,priority:1" json:"video_id"`
	Video   *Video    `gorm:"constraint:OnDelete:CASCADE;foreignKey:VideoID;references:ID" json:"video,omitempty"`

	ScriptSegmentID *uuid.UUID `gorm:"type:uuid;index" json:"script_segment_id,omitempty"`

	OrderIndex   int     `gorm:"column:order_index;not null;index:idx_video_segment_order,priority:2" json:"order_index"`
	StartSeconds float64 `gorm:"column:start_seconds;not null" json:"start_seconds"`
	EndSeconds   float64 `gorm:"column:end_seconds;not null" json:"end_seconds"`

	VisualID   *uuid.UUID `gorm:"type:uuid" json:"visual_id,omitempty"`
	AudioKey   string     `gorm:"column:audio_key" json:"audio_key,omitempty"`
	Transition string     `gorm:"column:transition" json:"transition,omitempty"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (VideoSegment) TableName() string { return "video_segment" }

func (s *VideoSegment) Validate() error {
	if s.StartSeconds < 0 {
		return fmt.Errorf("start_seconds %v is negative", s.StartSeconds)
	}
	if s.EndSeconds <= s.StartSeconds {
		return fmt.Errorf("end_seconds %v not after start_seconds %v", s.EndSeconds, s.StartSeconds)
	}
	return nil
}

// ValidateTimeline checks a full ordered timeline: contiguous order
// indexes from 0 and strictly non-overlapping windows.
func ValidateTimeline(segments []VideoSegment) error {
	for i, seg := range segments {
		if err := seg.Validate(); err != nil {
			return fmt.Errorf("segment %d: %w", i, err)
		}
		if seg.OrderIndex != i {
			return fmt.Errorf("segment %d has order_index %d", i, seg.OrderIndex)
		}
		if i > 0 && seg.StartSeconds < segments[i-1].EndSeconds {
			return fmt.Errorf("segment %d starts at %v before previous end %v", i, seg.StartSeconds, segments[i-1].EndSeconds)
		}
	}
	return nil
}
