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

type SegmentRepo interface {
	Create(dbc dbctx.Context, segments []*types.Segment) ([]*types.Segment, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Segment, error)
	GetByProjectID(dbc dbctx.Context, projectID uuid.UUID) ([]*types.Segment, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	SetStatus(dbc dbctx.Context, id uuid.UUID, next domeditorial.SegmentStatus) error
	ReplaceForProject(dbc dbctx.Context, projectID uuid.UUID, segments []*types.Segment, sources []*types.SegmentSource) error
}

type segmentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSegmentRepo(db *gorm.DB, baseLog *logger.Logger) SegmentRepo {
	return &segmentRepo{db: db, log: baseLog.With("repo", "SegmentRepo")}
}

func (r *segmentRepo) Create(dbc dbctx.Context, segments []*types.Segment) ([]*types.Segment, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(segments) == 0 {
		return []*types.Segment{}, nil
	}
	for _, s := range segments {
		if err := s.Validate(); err != nil {
			return nil, err
		}
	}
	if err := transaction.WithContext(dbc.Ctx).Create(&segments).Error; err != nil {
		return nil, err
	}
	return segments, nil
}

func (r *segmentRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Segment, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var seg types.Segment
	if err := transaction.WithContext(dbc.Ctx).
		Where("id = ?", id).
		Limit(1).
		Find(&seg).Error; err != nil {
		return nil, err
	}
	if seg.ID == uuid.Nil {
		return nil, nil
	}
	return &seg, nil
}

func (r *segmentRepo) GetByProjectID(dbc dbctx.Context, projectID uuid.UUID) ([]*types.Segment, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.Segment
	if projectID == uuid.Nil {
		return out, nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Where("project_id = ?", projectID).
		Order("order_index ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *segmentRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
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
		Model(&types.Segment{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *segmentRepo) SetStatus(dbc dbctx.Context, id uuid.UUID, next domeditorial.SegmentStatus) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil
	}
	return transaction.WithContext(dbc.Ctx).Transaction(func(txx *gorm.DB) error {
		var seg types.Segment
		if err := txx.Where("id = ?", id).Limit(1).Find(&seg).Error; err != nil {
			return err
		}
		if seg.ID == uuid.Nil {
			return gorm.ErrRecordNotFound
		}
		if !seg.Status.CanTransition(next) {
			return fmt.Errorf("segment status %q cannot move to %q", seg.Status, next)
		}
		return txx.Model(&types.Segment{}).
			Where("id = ?", id).
			Updates(map[string]interface{}{"status": next, "updated_at": time.Now()}).Error
	})
}

// ReplaceForProject swaps a project's generated segments and their
// provenance edges in one transaction, so re-running segmentation is
// idempotent. Edited or approved segments are left alone.
func (r *segmentRepo) ReplaceForProject(dbc dbctx.Context, projectID uuid.UUID, segments []*types.Segment, sources []*types.SegmentSource) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if projectID == uuid.Nil {
		return nil
	}
	for _, s := range segments {
		if err := s.Validate(); err != nil {
			return err
		}
	}
	for _, src := range sources {
		if err := src.Validate(); err != nil {
			return err
		}
	}
	return transaction.WithContext(dbc.Ctx).Transaction(func(txx *gorm.DB) error {
		var staleIDs []uuid.UUID
		if err := txx.Model(&types.Segment{}).
			Where("project_id = ? AND status IN ?", projectID, []string{"draft", "generated"}).
			Pluck("id", &staleIDs).Error; err != nil {
			return err
		}
		if len(staleIDs) > 0 {
			if err := txx.Unscoped().Where("segment_id IN ?", staleIDs).Delete(&types.SegmentSource{}).Error; err != nil {
				return err
			}
			if err := txx.Unscoped().Where("id IN ?", staleIDs).Delete(&types.Segment{}).Error; err != nil {
				return err
			}
		}
		if len(segments) > 0 {
			if err := txx.Create(&segments).Error; err != nil {
				return err
			}
		}
		if len(sources) > 0 {
			if err := txx.Create(&sources).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

type SegmentSourceRepo interface {
	Create(dbc dbctx.Context, sources []*types.SegmentSource) ([]*types.SegmentSource, error)
	GetBySegmentID(dbc dbctx.Context, segmentID uuid.UUID) ([]*types.SegmentSource, error)
	GetBySegmentIDs(dbc dbctx.Context, segmentIDs []uuid.UUID) ([]*types.SegmentSource, error)
}

type segmentSourceRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSegmentSourceRepo(db *gorm.DB, baseLog *logger.Logger) SegmentSourceRepo {
	return &segmentSourceRepo{db: db, log: baseLog.With("repo", "SegmentSourceRepo")}
}

func (r *segmentSourceRepo) Create(dbc dbctx.Context, sources []*types.SegmentSource) ([]*types.SegmentSource, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(sources) == 0 {
		return []*types.SegmentSource{}, nil
	}
	for _, s := range sources {
		if err := s.Validate(); err != nil {
			return nil, err
		}
	}
	if err := transaction.WithContext(dbc.Ctx).Create(&sources).Error; err != nil {
		return nil, err
	}
	return sources, nil
}

func (r *segmentSourceRepo) GetBySegmentID(dbc dbctx.Context, segmentID uuid.UUID) ([]*types.SegmentSource, error) {
	return r.GetBySegmentIDs(dbc, []uuid.UUID{segmentID})
}

func (r *segmentSourceRepo) GetBySegmentIDs(dbc dbctx.Context, segmentIDs []uuid.UUID) ([]*types.SegmentSource, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.SegmentSource
	if len(segmentIDs) == 0 {
		return out, nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Where("segment_id IN ?", segmentIDs).
		Order("weight DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
