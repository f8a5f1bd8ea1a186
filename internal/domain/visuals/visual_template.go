package visuals

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// VisualTemplate is a reusable layout definition for generated cards.
// Spec holds the drawing parameters: width, height, background,
// foreground, accent, font_size, padding, max_lines.
type VisualTemplate struct {
	ID   uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Name string    `gorm:"column:name;not null;uniqueIndex" json:"name"`

	VisualType VisualType     `gorm:"column:visual_type;not null;index" json:"visual_type"`
	Spec       datatypes.JSON `gorm:"column:spec;type:jsonb" json:"spec"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (VisualTemplate) TableName() string { return "visual_template" }
