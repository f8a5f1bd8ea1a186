package editorial

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/paperclip-video/paperclip-backend/internal/domain/content"
)

// VideoScript is a project-scoped ordered container of ScriptSegments.
// TotalDuration is a denormalized cache of the sum of segment
// estimated durations; the assembler maintains it, nothing enforces it.
type VideoScript struct {
	ID        uuid.UUID        `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ProjectID uuid.UUID        `gorm:"type:uuid;not null;index" json:"project_id"`
	Project   *content.Project `gorm:"constraint:OnDelete:CASCADE;foreignKey:ProjectID;references:ID" json:"project,omitempty"`

	Title          string       `gorm:"column:title" json:"title"`
	TargetPlatform string       `gorm:"column:target_platform;index" json:"target_platform"`
	ScriptStatus   ScriptStatus `gorm:"column:script_status;not null;default:'generated';index" json:"script_status"`
	TotalDuration  *float64     `gorm:"column:total_duration" json:"total_duration,omitempty"`

	// Recognized keys: model, chunk_strategy, min_chapter_length,
	// template, tone, duration_target. Unknown keys pass through.
	Config datatypes.JSON `gorm:"column:config;type:jsonb" json:"config"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (VideoScript) TableName() string { return "video_script" }
