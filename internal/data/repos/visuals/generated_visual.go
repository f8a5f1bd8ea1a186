package visuals

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/paperclip-video/paperclip-backend/internal/domain"
	domvisuals "github.com/paperclip-video/paperclip-backend/internal/domain/visuals"
	"github.com/paperclip-video/paperclip-backend/internal/platform/dbctx"
	"github.com/paperclip-video/paperclip-backend/internal/platform/logger"
)

type GeneratedVisualRepo interface {
	Create(dbc dbctx.Context, visuals []*types.GeneratedVisual) ([]*types.GeneratedVisual, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.GeneratedVisual, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.GeneratedVisual, error)
	GetByProjectID(dbc dbctx.Context, projectID uuid.UUID) ([]*types.GeneratedVisual, error)
	GetByScriptSegmentIDs(dbc dbctx.Context, segmentIDs []uuid.UUID) ([]*types.GeneratedVisual, error)
	SetStatus(dbc dbctx.Context, id uuid.UUID, next domvisuals.VisualStatus, updates map[string]interface{}) error
}

type generatedVisualRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewGeneratedVisualRepo(db *gorm.DB, baseLog *logger.Logger) GeneratedVisualRepo {
	return &generatedVisualRepo{db: db, log: baseLog.With("repo", "GeneratedVisualRepo")}
}

func (r *generatedVisualRepo) Create(dbc dbctx.Context, visuals []*types.GeneratedVisual) ([]*types.GeneratedVisual, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(visuals) == 0 {
		return []*types.GeneratedVisual{}, nil
	}
	if err := transaction.WithContext(dbc.Ctx).Create(&visuals).Error; err != nil {
		return nil, err
	}
	return visuals, nil
}

func (r *generatedVisualRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.GeneratedVisual, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var v types.GeneratedVisual
	if err := transaction.WithContext(dbc.Ctx).
		Where("id = ?", id).
		Limit(1).
		Find(&v).Error; err != nil {
		return nil, err
	}
	if v.ID == uuid.Nil {
		return nil, nil
	}
	return &v, nil
}

func (r *generatedVisualRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.GeneratedVisual, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.GeneratedVisual
	if len(ids) == 0 {
		return out, nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Where("id IN ?", ids).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *generatedVisualRepo) GetByProjectID(dbc dbctx.Context, projectID uuid.UUID) ([]*types.GeneratedVisual, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.GeneratedVisual
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

func (r *generatedVisualRepo) GetByScriptSegmentIDs(dbc dbctx.Context, segmentIDs []uuid.UUID) ([]*types.GeneratedVisual, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.GeneratedVisual
	if len(segmentIDs) == 0 {
		return out, nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Where("script_segment_id IN ?", segmentIDs).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// SetStatus applies a lifecycle transition plus any companion field
// updates (storage key, url, error) atomically.
func (r *generatedVisualRepo) SetStatus(dbc dbctx.Context, id uuid.UUID, next domvisuals.VisualStatus, updates map[string]interface{}) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil
	}
	return transaction.WithContext(dbc.Ctx).Transaction(func(txx *gorm.DB) error {
		var v types.GeneratedVisual
		if err := txx.Where("id = ?", id).Limit(1).Find(&v).Error; err != nil {
			return err
		}
		if v.ID == uuid.Nil {
			return gorm.ErrRecordNotFound
		}
		if !v.Status.CanTransition(next) {
			return fmt.Errorf("visual status %q cannot move to %q", v.Status, next)
		}
		if updates == nil {
			updates = map[string]interface{}{}
		}
		updates["status"] = next
		updates["updated_at"] = time.Now()
		return txx.Model(&types.GeneratedVisual{}).Where("id = ?", id).Updates(updates).Error
	})
}
