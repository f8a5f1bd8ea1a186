package content

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Document struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ProjectID uuid.UUID `gorm:"type:uuid;not null;index" json:"project_id"`
	Project   *Project  `gorm:"constraint:OnDelete:CASCADE;foreignKey:ProjectID;references:ID" json:"project,omitempty"`

	Filename     string       `gorm:"column:filename;not null" json:"filename"`
	FileType     FileType     `gorm:"column:file_type;not null;index" json:"file_type"`
	FileSize     int64        `gorm:"column:file_size" json:"file_size"`
	StorageKey   string       `gorm:"column:storage_key" json:"storage_key"`
	FileURL      string       `gorm:"column:file_url" json:"file_url"`
	Checksum     string       `gorm:"column:checksum;index" json:"checksum,omitempty"`
	UploadStatus UploadStatus `gorm:"column:upload_status;not null;default:'uploaded';index" json:"upload_status"`
	Error        string       `gorm:"column:error" json:"error,omitempty"`

	// Recognized keys: author, language, word_count, page_count,
	// source_url. Unknown keys pass through opaquely.
	Metadata datatypes.JSON `gorm:"column:metadata;type:jsonb" json:"metadata"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Document) TableName() string { return "document" }
