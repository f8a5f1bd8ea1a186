package visuals

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/paperclip-video/paperclip-backend/internal/domain"
	"github.com/paperclip-video/paperclip-backend/internal/platform/dbctx"
	"github.com/paperclip-video/paperclip-backend/internal/platform/logger"
)

type VideoAnalyticsRepo interface {
	Record(dbc dbctx.Context, snapshots []*types.VideoAnalytics) ([]*types.VideoAnalytics, error)
	GetByVideoID(dbc dbctx.Context, videoID uuid.UUID) ([]*types.VideoAnalytics, error)
	LatestByPlatform(dbc dbctx.Context, videoID uuid.UUID) (map[string]*types.VideoAnalytics, error)
}

type videoAnalyticsRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewVideoAnalyticsRepo(db *gorm.DB, baseLog *logger.Logger) VideoAnalyticsRepo {
	return &videoAnalyticsRepo{db: db, log: baseLog.With("repo", "VideoAnalyticsRepo")}
}

func (r *videoAnalyticsRepo) Record(dbc dbctx.Context, snapshots []*types.VideoAnalytics) ([]*types.VideoAnalytics, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(snapshots) == 0 {
		return []*types.VideoAnalytics{}, nil
	}
	if err := transaction.WithContext(dbc.Ctx).Create(&snapshots).Error; err != nil {
		return nil, err
	}
	return snapshots, nil
}

func (r *videoAnalyticsRepo) GetByVideoID(dbc dbctx.Context, videoID uuid.UUID) ([]*types.VideoAnalytics, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.VideoAnalytics
	if videoID == uuid.Nil {
		return out, nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Where("video_id = ?", videoID).
		Order("captured_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *videoAnalyticsRepo) LatestByPlatform(dbc dbctx.Context, videoID uuid.UUID) (map[string]*types.VideoAnalytics, error) {
	rows, err := r.GetByVideoID(dbc, videoID)
	if err != nil {
		return nil, err
	}
	out := map[string]*types.VideoAnalytics{}
	for _, row := range rows {
		if _, seen := out[row.Platform]; !seen {
			out[row.Platform] = row
		}
	}
	return out, nil
}

type ABTestRepo interface {
	Create(dbc dbctx.Context, tests []*types.ABTest) ([]*types.ABTest, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.ABTest, error)
	GetByProjectID(dbc dbctx.Context, projectID uuid.UUID) ([]*types.ABTest, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
}

type abTestRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewABTestRepo(db *gorm.DB, baseLog *logger.Logger) ABTestRepo {
	return &abTestRepo{db: db, log: baseLog.With("repo", "ABTestRepo")}
}

func (r *abTestRepo) Create(dbc dbctx.Context, tests []*types.ABTest) ([]*types.ABTest, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(tests) == 0 {
		return []*types.ABTest{}, nil
	}
	if err := transaction.WithContext(dbc.Ctx).Create(&tests).Error; err != nil {
		return nil, err
	}
	return tests, nil
}

func (r *abTestRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.ABTest, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var t types.ABTest
	if err := transaction.WithContext(dbc.Ctx).
		Where("id = ?", id).
		Limit(1).
		Find(&t).Error; err != nil {
		return nil, err
	}
	if t.ID == uuid.Nil {
		return nil, nil
	}
	return &t, nil
}

func (r *abTestRepo) GetByProjectID(dbc dbctx.Context, projectID uuid.UUID) ([]*types.ABTest, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.ABTest
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

func (r *abTestRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
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
		Model(&types.ABTest{}).
		Where("id = ?", id).
		Updates(updates).Error
}
