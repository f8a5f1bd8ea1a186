package content

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// MediaAsset is an extracted image/chart/table. Page/Block references
// are weak: deleting the block nulls the reference, the asset stays.
type MediaAsset struct {
	ID         uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	DocumentID uuid.UUID `gorm:"type:uuid;not null;index" json:"document_id"`
	Document   *Document `gorm:"constraint:OnDelete:CASCADE;foreignKey:DocumentID;references:ID" json:"document,omitempty"`

	PageID  *uuid.UUID    `gorm:"type:uuid;index" json:"page_id,omitempty"`
	Page    *DocumentPage `gorm:"constraint:OnDelete:SET NULL;foreignKey:PageID;references:ID" json:"page,omitempty"`
	BlockID *uuid.UUID    `gorm:"type:uuid;index" json:"block_id,omitempty"`
	Block   *ContentBlock `gorm:"constraint:OnDelete:SET NULL;foreignKey:BlockID;references:ID" json:"block,omitempty"`

	AssetType  string `gorm:"column:asset_type;not null;index" json:"asset_type"` // image|chart|table
	StorageKey string `gorm:"column:storage_key;not null" json:"storage_key"`
	URL        string `gorm:"column:url" json:"url,omitempty"`

	// Bounding box in page coordinates.
	BoxX float64 `gorm:"column:box_x" json:"box_x,omitempty"`
	BoxY float64 `gorm:"column:box_y" json:"box_y,omitempty"`
	BoxW float64 `gorm:"column:box_w" json:"box_w,omitempty"`
	BoxH float64 `gorm:"column:box_h" json:"box_h,omitempty"`

	// Content checksum, used for dedup and content-addressed storage.
	Checksum string `gorm:"column:checksum;index" json:"checksum"`

	Metadata datatypes.JSON `gorm:"column:metadata;type:jsonb" json:"metadata"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (MediaAsset) TableName() string { return "media_asset" }
