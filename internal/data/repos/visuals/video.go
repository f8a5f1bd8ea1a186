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

type VideoRepo interface {
	Create(dbc dbctx.Context, videos []*types.Video) ([]*types.Video, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Video, error)
	GetByProjectID(dbc dbctx.Context, projectID uuid.UUID) ([]*types.Video, error)
	GetByScriptID(dbc dbctx.Context, scriptID uuid.UUID) ([]*types.Video, error)
	SetStatus(dbc dbctx.Context, id uuid.UUID, next domvisuals.VideoStatus, updates map[string]interface{}) error
	// AdvanceProgress raises render_progress; a lower value than the
	// current one is ignored, keeping progress monotone under races.
	AdvanceProgress(dbc dbctx.Context, id uuid.UUID, progress int) error
	ReplaceTimeline(dbc dbctx.Context, videoID uuid.UUID, segments []*types.VideoSegment) error
	GetTimeline(dbc dbctx.Context, videoID uuid.UUID) ([]*types.VideoSegment, error)
}

type videoRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewVideoRepo(db *gorm.DB, baseLog *logger.Logger) VideoRepo {
	return &videoRepo{db: db, log: baseLog.With("repo", "VideoRepo")}
}

func (r *videoRepo) Create(dbc dbctx.Context, videos []*types.Video) ([]*types.Video, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(videos) == 0 {
		return []*types.Video{}, nil
	}
	for _, v := range videos {
		if err := v.Validate(); err != nil {
			return nil, err
		}
	}
	if err := transaction.WithContext(dbc.Ctx).Create(&videos).Error; err != nil {
		return nil, err
	}
	return videos, nil
}

func (r *videoRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Video, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var v types.Video
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

func (r *videoRepo) GetByProjectID(dbc dbctx.Context, projectID uuid.UUID) ([]*types.Video, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.Video
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

func (r *videoRepo) GetByScriptID(dbc dbctx.Context, scriptID uuid.UUID) ([]*types.Video, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.Video
	if scriptID == uuid.Nil {
		return out, nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Where("script_id = ?", scriptID).
		Order("created_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *videoRepo) SetStatus(dbc dbctx.Context, id uuid.UUID, next domvisuals.VideoStatus, updates map[string]interface{}) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil
	}
	return transaction.WithContext(dbc.Ctx).Transaction(func(txx *gorm.DB) error {
		var v types.Video
		if err := txx.Where("id = ?", id).Limit(1).Find(&v).Error; err != nil {
			return err
		}
		if v.ID == uuid.Nil {
			return gorm.ErrRecordNotFound
		}
		if !v.Status.CanTransition(next) {
			return fmt.Errorf("video status %q cannot move to %q", v.Status, next)
		}
		if updates == nil {
			updates = map[string]interface{}{}
		}
		updates["status"] = next
		updates["updated_at"] = time.Now()
		if next == domvisuals.VideoStatusCompleted {
			updates["render_progress"] = 100
		}
		return txx.Model(&types.Video{}).Where("id = ?", id).Updates(updates).Error
	})
}

func (r *videoRepo) AdvanceProgress(dbc dbctx.Context, id uuid.UUID, progress int) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil
	}
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}
	return transaction.WithContext(dbc.Ctx).
		Model(&types.Video{}).
		Where("id = ? AND status = ? AND render_progress < ?", id, "rendering", progress).
		Updates(map[string]interface{}{
			"render_progress": progress,
			"updated_at":      time.Now(),
		}).Error
}

// ReplaceTimeline validates ordering and overlap before swapping the
// video's segment rows.
func (r *videoRepo) ReplaceTimeline(dbc dbctx.Context, videoID uuid.UUID, segments []*types.VideoSegment) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if videoID == uuid.Nil {
		return nil
	}
	flat := make([]domvisuals.VideoSegment, len(segments))
	for i, s := range segments {
		flat[i] = *s
	}
	if err := domvisuals.ValidateTimeline(flat); err != nil {
		return err
	}
	return transaction.WithContext(dbc.Ctx).Transaction(func(txx *gorm.DB) error {
		if err := txx.Unscoped().Where("video_id = ?", videoID).Delete(&types.VideoSegment{}).Error; err != nil {
			return err
		}
		if len(segments) == 0 {
			return nil
		}
		return txx.Create(&segments).Error
	})
}

func (r *videoRepo) GetTimeline(dbc dbctx.Context, videoID uuid.UUID) ([]*types.VideoSegment, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.VideoSegment
	if videoID == uuid.Nil {
		return out, nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Where("video_id = ?", videoID).
		Order("order_index ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
