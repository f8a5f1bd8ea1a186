package visuals

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/paperclip-video/paperclip-backend/internal/domain/content"
	"github.com/paperclip-video/paperclip-backend/internal/domain/editorial"
)

// Video is a rendered output for one script. RenderProgress moves
// monotonically from 0 to 100 while rendering; writers must never
// decrease it.
type Video struct {
	ID        uuid.UUID        `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ProjectID uuid.UUID        `gorm:"type:uuid;not null;index" json:"project_id"`
	Project   *content.Project `gorm:"constraint:OnDelete:CASCADE;foreignKey:ProjectID;references:ID" json:"project,omitempty"`

	ScriptID uuid.UUID              `gorm:"type:uuid;not null;index" json:"script_id"`
	Script   *editorial.VideoScript `gorm:"constraint:OnDelete:CASCADE;foreignKey:ScriptID;references:ID" json:"script,omitempty"`

	Title          string      `gorm:"column:title" json:"title"`
	Status         VideoStatus `gorm:"column:status;not null;default:'queued';index" json:"status"`
	RenderProgress int         `gorm:"column:render_progress;not null;default:0" json:"render_progress"`

	StorageKey      string   `gorm:"column:storage_key" json:"storage_key,omitempty"`
	URL             string   `gorm:"column:url" json:"url,omitempty"`
	ThumbnailURL    string   `gorm:"column:thumbnail_url" json:"thumbnail_url,omitempty"`
	DurationSeconds *float64 `gorm:"column:duration_seconds" json:"duration_seconds,omitempty"`
	Width           int      `gorm:"column:width" json:"width,omitempty"`
	Height          int      `gorm:"column:height" json:"height,omitempty"`
	Error           string   `gorm:"column:error;type:text" json:"error,omitempty"`

	// RenderManifest is the resolved render plan: per-segment asset
	// keys, transitions, audio track.
	RenderManifest datatypes.JSON `gorm:"column:render_manifest;type:jsonb" json:"render_manifest"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Video) TableName() string { return "video" }

func (v *Video) Validate() error {
	if v.RenderProgress < 0 || v.RenderProgress > 100 {
		return fmt.Errorf("render_progress %d outside [0,100]", v.RenderProgress)
	}
	return nil
}
