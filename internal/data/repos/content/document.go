package content

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/paperclip-video/paperclip-backend/internal/domain"
	domcontent "github.com/paperclip-video/paperclip-backend/internal/domain/content"
	"github.com/paperclip-video/paperclip-backend/internal/platform/dbctx"
	"github.com/paperclip-video/paperclip-backend/internal/platform/logger"
)

type DocumentRepo interface {
	Create(dbc dbctx.Context, docs []*types.Document) ([]*types.Document, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Document, error)
	GetByProjectID(dbc dbctx.Context, projectID uuid.UUID) ([]*types.Document, error)
	GetByChecksum(dbc dbctx.Context, projectID uuid.UUID, checksum string) (*types.Document, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	SetUploadStatus(dbc dbctx.Context, id uuid.UUID, next domcontent.UploadStatus, errMsg string) error
	Delete(dbc dbctx.Context, id uuid.UUID) error
}

type documentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDocumentRepo(db *gorm.DB, baseLog *logger.Logger) DocumentRepo {
	return &documentRepo{db: db, log: baseLog.With("repo", "DocumentRepo")}
}

func (r *documentRepo) Create(dbc dbctx.Context, docs []*types.Document) ([]*types.Document, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(docs) == 0 {
		return []*types.Document{}, nil
	}
	if err := transaction.WithContext(dbc.Ctx).Create(&docs).Error; err != nil {
		return nil, err
	}
	return docs, nil
}

func (r *documentRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Document, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var doc types.Document
	if err := transaction.WithContext(dbc.Ctx).
		Where("id = ?", id).
		Limit(1).
		Find(&doc).Error; err != nil {
		return nil, err
	}
	if doc.ID == uuid.Nil {
		return nil, nil
	}
	return &doc, nil
}

func (r *documentRepo) GetByProjectID(dbc dbctx.Context, projectID uuid.UUID) ([]*types.Document, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.Document
	if projectID == uuid.Nil {
		return out, nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Where("project_id = ?", projectID).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// GetByChecksum finds an existing upload with identical content inside
// a project, for dedupe on re-upload.
func (r *documentRepo) GetByChecksum(dbc dbctx.Context, projectID uuid.UUID, checksum string) (*types.Document, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if projectID == uuid.Nil || checksum == "" {
		return nil, nil
	}
	var doc types.Document
	if err := transaction.WithContext(dbc.Ctx).
		Where("project_id = ? AND checksum = ?", projectID, checksum).
		Limit(1).
		Find(&doc).Error; err != nil {
		return nil, err
	}
	if doc.ID == uuid.Nil {
		return nil, nil
	}
	return &doc, nil
}

func (r *documentRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil
	}
	if updates == nil {
		updates = map[string]interface{}{}
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now()
	}
	return transaction.WithContext(dbc.Ctx).
		Model(&types.Document{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// SetUploadStatus applies a status transition, rejecting moves the
// lifecycle does not allow.
func (r *documentRepo) SetUploadStatus(dbc dbctx.Context, id uuid.UUID, next domcontent.UploadStatus, errMsg string) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil
	}
	return transaction.WithContext(dbc.Ctx).Transaction(func(txx *gorm.DB) error {
		var doc types.Document
		if err := txx.Where("id = ?", id).Limit(1).Find(&doc).Error; err != nil {
			return err
		}
		if doc.ID == uuid.Nil {
			return gorm.ErrRecordNotFound
		}
		if !doc.UploadStatus.CanTransition(next) {
			return fmt.Errorf("upload status %q cannot move to %q", doc.UploadStatus, next)
		}
		updates := map[string]interface{}{
			"upload_status": next,
			"updated_at":    time.Now(),
		}
		if errMsg != "" {
			updates["error"] = errMsg
		}
		return txx.Model(&types.Document{}).Where("id = ?", id).Updates(updates).Error
	})
}

// Delete removes the document and its owned decomposition. Segment
// source rows that referenced the document or its blocks/assets keep
// their edge rows with the reference nulled.
func (r *documentRepo) Delete(dbc dbctx.Context, id uuid.UUID) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil
	}
	return transaction.WithContext(dbc.Ctx).Transaction(func(txx *gorm.DB) error {
		var blockIDs []uuid.UUID
		if err := txx.Model(&types.ContentBlock{}).
			Where("document_id = ?", id).
			Pluck("id", &blockIDs).Error; err != nil {
			return err
		}
		var assetIDs []uuid.UUID
		if err := txx.Model(&types.MediaAsset{}).
			Where("document_id = ?", id).
			Pluck("id", &assetIDs).Error; err != nil {
			return err
		}

		now := time.Now()
		if err := txx.Model(&types.SegmentSource{}).
			Where("document_id = ?", id).
			Updates(map[string]interface{}{"document_id": nil, "updated_at": now}).Error; err != nil {
			return err
		}
		if len(blockIDs) > 0 {
			if err := txx.Model(&types.SegmentSource{}).
				Where("block_id IN ?", blockIDs).
				Updates(map[string]interface{}{"block_id": nil, "updated_at": now}).Error; err != nil {
				return err
			}
		}
		if len(assetIDs) > 0 {
			if err := txx.Model(&types.SegmentSource{}).
				Where("media_asset_id IN ?", assetIDs).
				Updates(map[string]interface{}{"media_asset_id": nil, "updated_at": now}).Error; err != nil {
				return err
			}
		}

		for _, model := range []any{
			&types.ExtractedEntity{},
			&types.MediaAsset{},
			&types.ContentBlock{},
			&types.DocumentPage{},
		} {
			if err := txx.Where("document_id = ?", id).Delete(model).Error; err != nil {
				return err
			}
		}
		return txx.Where("id = ?", id).Delete(&types.Document{}).Error
	})
}
