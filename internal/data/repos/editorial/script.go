package editorial

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/paperclip-video/paperclip-backend/internal/domain"
	domeditorial "github.com/paperclip-video/paperclip-backend/internal/domain/editorial"
	"github.com/paperclip-video/paperclip-backend/internal/platform/dbctx"
	"github.com/paperclip-video/paperclip-backend/internal/platform/logger"
)

type VideoScriptRepo interface {
	// CreateWithSegments inserts a script and its ordered segments
	// atomically, validating contiguous ordering and recomputing the
	// total duration cache.
	CreateWithSegments(dbc dbctx.Context, script *types.VideoScript, segments []*types.ScriptSegment) (*types.VideoScript, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.VideoScript, error)
	GetByProjectID(dbc dbctx.Context, projectID uuid.UUID) ([]*types.VideoScript, error)
	GetSegments(dbc dbctx.Context, scriptID uuid.UUID) ([]*types.ScriptSegment, error)
	SetStatus(dbc dbctx.Context, id uuid.UUID, next domeditorial.ScriptStatus) error
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	RecomputeTotalDuration(dbc dbctx.Context, id uuid.UUID) (float64, error)
}

type videoScriptRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewVideoScriptRepo(db *gorm.DB, baseLog *logger.Logger) VideoScriptRepo {
	return &videoScriptRepo{db: db, log: baseLog.With("repo", "VideoScriptRepo")}
}

func (r *videoScriptRepo) CreateWithSegments(dbc dbctx.Context, script *types.VideoScript, segments []*types.ScriptSegment) (*types.VideoScript, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if script == nil {
		return nil, nil
	}
	var total float64
	for i, seg := range segments {
		if err := seg.Validate(); err != nil {
			return nil, err
		}
		if seg.SegmentOrder != i {
			return nil, fmt.Errorf("script segment %d has segment_order %d, want contiguous from 0", i, seg.SegmentOrder)
		}
		if seg.EstimatedDuration != nil {
			total += *seg.EstimatedDuration
		}
	}
	script.TotalDuration = &total
	err := transaction.WithContext(dbc.Ctx).Transaction(func(txx *gorm.DB) error {
		if err := txx.Create(script).Error; err != nil {
			return err
		}
		for _, seg := range segments {
			seg.ScriptID = script.ID
		}
		if len(segments) > 0 {
			if err := txx.Create(&segments).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return script, nil
}

func (r *videoScriptRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.VideoScript, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var script types.VideoScript
	if err := transaction.WithContext(dbc.Ctx).
		Where("id = ?", id).
		Limit(1).
		Find(&script).Error; err != nil {
		return nil, err
	}
	if script.ID == uuid.Nil {
		return nil, nil
	}
	return &script, nil
}

func (r *videoScriptRepo) GetByProjectID(dbc dbctx.Context, projectID uuid.UUID) ([]*types.VideoScript, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.VideoScript
	if projectID == uuid.Nil {
		return out, nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Where("project_id = ?", projectID).
		Order("created_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *videoScriptRepo) GetSegments(dbc dbctx.Context, scriptID uuid.UUID) ([]*types.ScriptSegment, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.ScriptSegment
	if scriptID == uuid.Nil {
		return out, nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Where("script_id = ?", scriptID).
		Order("segment_order ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *videoScriptRepo) SetStatus(dbc dbctx.Context, id uuid.UUID, next domeditorial.ScriptStatus) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil
	}
	return transaction.WithContext(dbc.Ctx).Transaction(func(txx *gorm.DB) error {
		var script types.VideoScript
		if err := txx.Where("id = ?", id).Limit(1).Find(&script).Error; err != nil {
			return err
		}
		if script.ID == uuid.Nil {
			return gorm.ErrRecordNotFound
		}
		if !script.ScriptStatus.CanTransition(next) {
			return fmt.Errorf("script status %q cannot move to %q", script.ScriptStatus, next)
		}
		return txx.Model(&types.VideoScript{}).
			Where("id = ?", id).
			Updates(map[string]interface{}{"script_status": next, "updated_at": time.Now()}).Error
	})
}

func (r *videoScriptRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
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
		Model(&types.VideoScript{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// RecomputeTotalDuration refreshes the cached sum after segment edits.
func (r *videoScriptRepo) RecomputeTotalDuration(dbc dbctx.Context, id uuid.UUID) (float64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return 0, nil
	}
	var total float64
	if err := transaction.WithContext(dbc.Ctx).
		Model(&types.ScriptSegment{}).
		Where("script_id = ?", id).
		Select("COALESCE(SUM(estimated_duration), 0)").
		Scan(&total).Error; err != nil {
		return 0, err
	}
	if err := transaction.WithContext(dbc.Ctx).
		Model(&types.VideoScript{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"total_duration": total, "updated_at": time.Now()}).Error; err != nil {
		return 0, err
	}
	return total, nil
}
