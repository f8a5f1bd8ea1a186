package visuals

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/paperclip-video/paperclip-backend/internal/domain/content"
)

// ABTestStatus is the lifecycle of an A/B experiment.
type ABTestStatus string

const (
	ABTestStatusDraft     ABTestStatus = "draft"
	ABTestStatusRunning   ABTestStatus = "running"
	ABTestStatusCompleted ABTestStatus = "completed"
	ABTestStatusCanceled  ABTestStatus = "canceled"
)

// ABTest compares two rendered variants of the same project against a
// target metric. WinnerVideoID stays null until the test completes.
type ABTest struct {
	ID        uuid.UUID        `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ProjectID uuid.UUID        `gorm:"type:uuid;not null;index" json:"project_id"`
	Project   *content.Project `gorm:"constraint:OnDelete:CASCADE;foreignKey:ProjectID;references:ID" json:"project,omitempty"`

	Name     string       `gorm:"column:name;not null" json:"name"`
	Status   ABTestStatus `gorm:"column:status;not null;default:'draft';index" json:"status"`
	VariantA uuid.UUID    `gorm:"column:variant_a;type:uuid;not null" json:"variant_a"`
	VariantB uuid.UUID    `gorm:"column:variant_b;type:uuid;not null" json:"variant_b"`

	TargetMetric  string     `gorm:"column:target_metric;not null;default:'completion_rate'" json:"target_metric"`
	WinnerVideoID *uuid.UUID `gorm:"column:winner_video_id;type:uuid" json:"winner_video_id,omitempty"`

	Config datatypes.JSON `gorm:"column:config;type:jsonb" json:"config"`

	StartedAt  *time.Time     `gorm:"column:started_at" json:"started_at,omitempty"`
	FinishedAt *time.Time     `gorm:"column:finished_at" json:"finished_at,omitempty"`
	CreatedAt  time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt  time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (ABTest) TableName() string { return "ab_test" }
