package content

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/paperclip-video/paperclip-backend/internal/domain"
	"github.com/paperclip-video/paperclip-backend/internal/platform/dbctx"
	"github.com/paperclip-video/paperclip-backend/internal/platform/logger"
)

// Decomposition is the full parsed structure of one document.
type Decomposition struct {
	Pages    []*types.DocumentPage
	Blocks   []*types.ContentBlock
	Assets   []*types.MediaAsset
	Entities []*types.ExtractedEntity
}

type DecompositionRepo interface {
	// Replace wipes any prior decomposition of the document and inserts
	// the new one in a single transaction, so re-parsing is idempotent.
	Replace(dbc dbctx.Context, documentID uuid.UUID, d *Decomposition) error
	// ReplaceEntities swaps only the document's extracted entities,
	// leaving pages and blocks intact. Used by re-analysis.
	ReplaceEntities(dbc dbctx.Context, documentID uuid.UUID, entities []*types.ExtractedEntity) error
	GetPages(dbc dbctx.Context, documentID uuid.UUID) ([]*types.DocumentPage, error)
	GetBlocks(dbc dbctx.Context, documentID uuid.UUID) ([]*types.ContentBlock, error)
	GetAssets(dbc dbctx.Context, documentID uuid.UUID) ([]*types.MediaAsset, error)
	GetEntities(dbc dbctx.Context, documentID uuid.UUID) ([]*types.ExtractedEntity, error)
	GetEntitiesByType(dbc dbctx.Context, documentID uuid.UUID, entityType string) ([]*types.ExtractedEntity, error)
	// Computed projections over the decomposition, never materialized.
	GetDocumentContent(dbc dbctx.Context, documentID uuid.UUID) ([]DocumentContentRow, error)
	GetDocumentAssets(dbc dbctx.Context, documentID uuid.UUID) ([]DocumentAssetRow, error)
	GetDocumentDataPoints(dbc dbctx.Context, documentID uuid.UUID) ([]DocumentDataPointRow, error)
}

type decompositionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDecompositionRepo(db *gorm.DB, baseLog *logger.Logger) DecompositionRepo {
	return &decompositionRepo{db: db, log: baseLog.With("repo", "DecompositionRepo")}
}

func (r *decompositionRepo) Replace(dbc dbctx.Context, documentID uuid.UUID, d *Decomposition) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if documentID == uuid.Nil || d == nil {
		return nil
	}

	// Text blocks can be large
	const batchSize = 100

	return transaction.WithContext(dbc.Ctx).Transaction(func(txx *gorm.DB) error {
		for _, model := range []any{
			&types.ExtractedEntity{},
			&types.MediaAsset{},
			&types.ContentBlock{},
			&types.DocumentPage{},
		} {
			if err := txx.Unscoped().Where("document_id = ?", documentID).Delete(model).Error; err != nil {
				return err
			}
		}
		if len(d.Pages) > 0 {
			if err := txx.CreateInBatches(d.Pages, batchSize).Error; err != nil {
				return err
			}
		}
		if len(d.Blocks) > 0 {
			if err := txx.CreateInBatches(d.Blocks, batchSize).Error; err != nil {
				return err
			}
		}
		if len(d.Assets) > 0 {
			if err := txx.CreateInBatches(d.Assets, batchSize).Error; err != nil {
				return err
			}
		}
		if len(d.Entities) > 0 {
			if err := txx.CreateInBatches(d.Entities, batchSize).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *decompositionRepo) ReplaceEntities(dbc dbctx.Context, documentID uuid.UUID, entities []*types.ExtractedEntity) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if documentID == uuid.Nil {
		return nil
	}
	for _, e := range entities {
		if err := e.Validate(); err != nil {
			return err
		}
	}
	const batchSize = 100
	return transaction.WithContext(dbc.Ctx).Transaction(func(txx *gorm.DB) error {
		if err := txx.Unscoped().Where("document_id = ?", documentID).Delete(&types.ExtractedEntity{}).Error; err != nil {
			return err
		}
		if len(entities) == 0 {
			return nil
		}
		return txx.CreateInBatches(entities, batchSize).Error
	})
}

func (r *decompositionRepo) GetPages(dbc dbctx.Context, documentID uuid.UUID) ([]*types.DocumentPage, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.DocumentPage
	if documentID == uuid.Nil {
		return out, nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Where("document_id = ?", documentID).
		Order("page_number ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *decompositionRepo) GetBlocks(dbc dbctx.Context, documentID uuid.UUID) ([]*types.ContentBlock, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.ContentBlock
	if documentID == uuid.Nil {
		return out, nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Where("document_id = ?", documentID).
		Order("order_index ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *decompositionRepo) GetAssets(dbc dbctx.Context, documentID uuid.UUID) ([]*types.MediaAsset, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.MediaAsset
	if documentID == uuid.Nil {
		return out, nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Where("document_id = ?", documentID).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *decompositionRepo) GetEntities(dbc dbctx.Context, documentID uuid.UUID) ([]*types.ExtractedEntity, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.ExtractedEntity
	if documentID == uuid.Nil {
		return out, nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Where("document_id = ?", documentID).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *decompositionRepo) GetEntitiesByType(dbc dbctx.Context, documentID uuid.UUID, entityType string) ([]*types.ExtractedEntity, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.ExtractedEntity
	if documentID == uuid.Nil || entityType == "" {
		return out, nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Where("document_id = ? AND entity_type = ?", documentID, entityType).
		Order("confidence DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
