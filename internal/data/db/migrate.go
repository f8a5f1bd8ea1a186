package db

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/paperclip-video/paperclip-backend/internal/domain"
)

func AutoMigrateAll(db *gorm.DB) error {
	if err := db.AutoMigrate(domain.AllModels()...); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}

	// At most one queued-or-running job per (document_id, stage).
	// AutoMigrate cannot express a partial unique index, and sqlite in
	// dev accepts the same syntax.
	if err := db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS uq_job_runnable_per_doc_stage
		ON processing_job (document_id, stage)
		WHERE status IN ('queued','running') AND document_id IS NOT NULL
	`).Error; err != nil {
		return fmt.Errorf("create runnable-job index: %w", err)
	}

	return nil
}
