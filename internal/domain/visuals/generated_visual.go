package visuals

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/paperclip-video/paperclip-backend/internal/domain/content"
)

// GeneratedVisual is a produced image tied to a project, optionally
// anchored to the script segment it illustrates. Source references are
// weak so provenance survives content deletion.
type GeneratedVisual struct {
	ID        uuid.UUID        `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ProjectID uuid.UUID        `gorm:"type:uuid;not null;index" json:"project_id"`
	Project   *content.Project `gorm:"constraint:OnDelete:CASCADE;foreignKey:ProjectID;references:ID" json:"project,omitempty"`

	ScriptSegmentID *uuid.UUID `gorm:"type:uuid;index" json:"script_segment_id,omitempty"`
	TemplateID      *uuid.UUID `gorm:"type:uuid" json:"template_id,omitempty"`
	SourceEntityID  *uuid.UUID `gorm:"type:uuid" json:"source_entity_id,omitempty"`
	SourceBlockID   *uuid.UUID `gorm:"type:uuid" json:"source_block_id,omitempty"`

	VisualType VisualType   `gorm:"column:visual_type;not null" json:"visual_type"`
	Status     VisualStatus `gorm:"column:status;not null;default:'queued';index" json:"status"`
	StorageKey string       `gorm:"column:storage_key" json:"storage_key,omitempty"`
	URL        string       `gorm:"column:url" json:"url,omitempty"`
	Width      int          `gorm:"column:width" json:"width,omitempty"`
	Height     int          `gorm:"column:height" json:"height,omitempty"`
	Error      string       `gorm:"column:error;type:text" json:"error,omitempty"`

	// Params echoes the prompt/template inputs used, for reproducibility.
	Params datatypes.JSON `gorm:"column:params;type:jsonb" json:"params"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (GeneratedVisual) TableName() string { return "generated_visual" }
