package visuals

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// VideoAnalytics is a per-platform engagement snapshot for a published
// video. One row per (video, platform) capture.
type VideoAnalytics struct {
	ID      uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	VideoID uuid.UUID `gorm:"type:uuid;not null;index:idx_video_analytics_platform,priority:1" json:"video_id"`
	Video   *Video    `gorm:"constraint:OnDelete:CASCADE;foreignKey:VideoID;references:ID" json:"video,omitempty"`

	Platform string `gorm:"column:platform;not null;index:idx_video_analytics_platform,priority:2" json:"platform"`

	Views            int64    `gorm:"column:views;not null;default:0" json:"views"`
	Likes            int64    `gorm:"column:likes;not null;default:0" json:"likes"`
	Shares           int64    `gorm:"column:shares;not null;default:0" json:"shares"`
	Comments         int64    `gorm:"column:comments;not null;default:0" json:"comments"`
	WatchTimeSeconds float64  `gorm:"column:watch_time_seconds;not null;default:0" json:"watch_time_seconds"`
	CompletionRate   *float64 `gorm:"column:completion_rate" json:"completion_rate,omitempty"`

	// Raw keeps the platform payload as delivered.
	Raw datatypes.JSON `gorm:"column:raw;type:jsonb" json:"raw"`

	CapturedAt time.Time      `gorm:"column:captured_at;not null;default:now();index" json:"captured_at"`
	CreatedAt  time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt  time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (VideoAnalytics) TableName() string { return "video_analytics" }
