package content

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/paperclip-video/paperclip-backend/internal/domain"
	"github.com/paperclip-video/paperclip-backend/internal/platform/dbctx"
	"github.com/paperclip-video/paperclip-backend/internal/platform/logger"
)

type ProjectRepo interface {
	Create(dbc dbctx.Context, projects []*types.Project) ([]*types.Project, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Project, error)
	List(dbc dbctx.Context, limit, offset int) ([]*types.Project, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	Delete(dbc dbctx.Context, id uuid.UUID) error
}

type projectRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProjectRepo(db *gorm.DB, baseLog *logger.Logger) ProjectRepo {
	return &projectRepo{db: db, log: baseLog.With("repo", "ProjectRepo")}
}

func (r *projectRepo) Create(dbc dbctx.Context, projects []*types.Project) ([]*types.Project, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(projects) == 0 {
		return []*types.Project{}, nil
	}
	if err := transaction.WithContext(dbc.Ctx).Create(&projects).Error; err != nil {
		return nil, err
	}
	return projects, nil
}

func (r *projectRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Project, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var p types.Project
	if err := transaction.WithContext(dbc.Ctx).
		Where("id = ?", id).
		Limit(1).
		Find(&p).Error; err != nil {
		return nil, err
	}
	if p.ID == uuid.Nil {
		return nil, nil
	}
	return &p, nil
}

func (r *projectRepo) List(dbc dbctx.Context, limit, offset int) ([]*types.Project, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var out []*types.Project
	if err := transaction.WithContext(dbc.Ctx).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *projectRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
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
		Model(&types.Project{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// Delete removes the project and everything it owns: documents with
// their decompositions, segments with their provenance edges, scripts,
// visuals and videos. Job rows are the audit trail and stay.
func (r *projectRepo) Delete(dbc dbctx.Context, id uuid.UUID) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil
	}
	return transaction.WithContext(dbc.Ctx).Transaction(func(txx *gorm.DB) error {
		var docIDs []uuid.UUID
		if err := txx.Model(&types.Document{}).
			Where("project_id = ?", id).
			Pluck("id", &docIDs).Error; err != nil {
			return err
		}
		if len(docIDs) > 0 {
			for _, model := range []any{
				&types.ExtractedEntity{},
				&types.MediaAsset{},
				&types.ContentBlock{},
				&types.DocumentPage{},
			} {
				if err := txx.Where("document_id IN ?", docIDs).Delete(model).Error; err != nil {
					return err
				}
			}
			if err := txx.Where("id IN ?", docIDs).Delete(&types.Document{}).Error; err != nil {
				return err
			}
		}

		var segIDs []uuid.UUID
		if err := txx.Model(&types.Segment{}).
			Where("project_id = ?", id).
			Pluck("id", &segIDs).Error; err != nil {
			return err
		}
		if len(segIDs) > 0 {
			if err := txx.Where("segment_id IN ?", segIDs).Delete(&types.SegmentSource{}).Error; err != nil {
				return err
			}
			if err := txx.Where("id IN ?", segIDs).Delete(&types.Segment{}).Error; err != nil {
				return err
			}
		}

		var scriptIDs []uuid.UUID
		if err := txx.Model(&types.VideoScript{}).
			Where("project_id = ?", id).
			Pluck("id", &scriptIDs).Error; err != nil {
			return err
		}
		if len(scriptIDs) > 0 {
			if err := txx.Where("script_id IN ?", scriptIDs).Delete(&types.ScriptSegment{}).Error; err != nil {
				return err
			}
			if err := txx.Where("id IN ?", scriptIDs).Delete(&types.VideoScript{}).Error; err != nil {
				return err
			}
		}

		var videoIDs []uuid.UUID
		if err := txx.Model(&types.Video{}).
			Where("project_id = ?", id).
			Pluck("id", &videoIDs).Error; err != nil {
			return err
		}
		if len(videoIDs) > 0 {
			for _, model := range []any{
				&types.VideoSegment{},
				&types.VideoAnalytics{},
			} {
				if err := txx.Where("video_id IN ?", videoIDs).Delete(model).Error; err != nil {
					return err
				}
			}
			if err := txx.Where("id IN ?", videoIDs).Delete(&types.Video{}).Error; err != nil {
				return err
			}
		}

		for _, model := range []any{
			&types.GeneratedVisual{},
			&types.ABTest{},
		} {
			if err := txx.Where("project_id = ?", id).Delete(model).Error; err != nil {
				return err
			}
		}
		return txx.Where("id = ?", id).Delete(&types.Project{}).Error
	})
}
