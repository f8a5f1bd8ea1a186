package jobs

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/paperclip-video/paperclip-backend/internal/domain"
	domjobs "github.com/paperclip-video/paperclip-backend/internal/domain/jobs"
	"github.com/paperclip-video/paperclip-backend/internal/platform/dbctx"
	"github.com/paperclip-video/paperclip-backend/internal/platform/logger"
)

type ProcessingJobRepo interface {
	Create(dbc dbctx.Context, jobs []*types.ProcessingJob) ([]*types.ProcessingJob, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.ProcessingJob, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.ProcessingJob, error)
	ListByProject(dbc dbctx.Context, projectID uuid.UUID) ([]*types.ProcessingJob, error)
	GetLatestForScope(dbc dbctx.Context, projectID uuid.UUID, documentID *uuid.UUID, stage domjobs.Stage) (*types.ProcessingJob, error)
	ClaimNextRunnable(dbc dbctx.Context, workerID string, staleRunning time.Duration) (*types.ProcessingJob, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	UpdateFieldsUnlessStatus(dbc dbctx.Context, id uuid.UUID, disallowedStatuses []string, updates map[string]interface{}) (bool, error)
	Heartbeat(dbc dbctx.Context, id uuid.UUID) error
	HasRunnableForScope(dbc dbctx.Context, projectID uuid.UUID, documentID *uuid.UUID, stage domjobs.Stage) (bool, error)
	Supersede(dbc dbctx.Context, failedID uuid.UUID, retry *types.ProcessingJob) (*types.ProcessingJob, error)
	CancelRunnable(dbc dbctx.Context, id uuid.UUID) (bool, error)
	CountByStatus(dbc dbctx.Context, projectID uuid.UUID) (map[string]int64, error)
}

type processingJobRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProcessingJobRepo(db *gorm.DB, baseLog *logger.Logger) ProcessingJobRepo {
	return &processingJobRepo{
		db:  db,
		log: baseLog.With("repo", "ProcessingJobRepo"),
	}
}

func (r *processingJobRepo) Create(dbc dbctx.Context, jobs []*types.ProcessingJob) ([]*types.ProcessingJob, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(jobs) == 0 {
		return []*types.ProcessingJob{}, nil
	}
	if err := transaction.WithContext(dbc.Ctx).Create(&jobs).Error; err != nil {
		return nil, err
	}
	return jobs, nil
}

func (r *processingJobRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.ProcessingJob, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var job types.ProcessingJob
	err := transaction.WithContext(dbc.Ctx).
		Where("id = ?", id).
		Limit(1).
		Find(&job).Error
	if err != nil {
		return nil, err
	}
	if job.ID == uuid.Nil {
		return nil, nil
	}
	return &job, nil
}

func (r *processingJobRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.ProcessingJob, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.ProcessingJob
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

func (r *processingJobRepo) ListByProject(dbc dbctx.Context, projectID uuid.UUID) ([]*types.ProcessingJob, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.ProcessingJob
	if projectID == uuid.Nil {
		return out, nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Where("project_id = ?", projectID).
		Order("queued_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *processingJobRepo) GetLatestForScope(dbc dbctx.Context, projectID uuid.UUID, documentID *uuid.UUID, stage domjobs.Stage) (*types.ProcessingJob, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if projectID == uuid.Nil || stage == "" {
		return nil, nil
	}
	q := transaction.WithContext(dbc.Ctx).
		Where("project_id = ? AND stage = ?", projectID, stage)
	if documentID != nil && *documentID != uuid.Nil {
		q = q.Where("document_id = ?", *documentID)
	} else {
		q = q.Where("document_id IS NULL")
	}
	var job types.ProcessingJob
	err := q.Order("queued_at DESC").Limit(1).Find(&job).Error
	if err != nil {
		return nil, err
	}
	if job.ID == uuid.Nil {
		return nil, nil
	}
	return &job, nil
}

// ClaimNextRunnable picks the highest-priority eligible job (ties
// break on oldest queued_at), marks it running and returns it.
// Eligible means queued with its backoff window elapsed, or running
// with a heartbeat older than staleRunning (a crashed worker's job is
// reclaimed in place, same attempt). Row locks use SKIP LOCKED so
// concurrent claimers never hand out the same job twice.
func (r *processingJobRepo) ClaimNextRunnable(dbc dbctx.Context, workerID string, staleRunning time.Duration) (*types.ProcessingJob, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	now := time.Now()
	staleCutoff := now.Add(-staleRunning)
	var claimed *types.ProcessingJob
	err := transaction.WithContext(dbc.Ctx).Transaction(func(txx *gorm.DB) error {
		var job types.ProcessingJob
		q := txx.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
			Where(`
        (
          (
            status = ?
            AND (not_before IS NULL OR not_before <= ?)
          )
          OR (
            status = ?
            AND heartbeat_at IS NOT NULL
            AND heartbeat_at < ?
          )
        )
      `, "queued", now, "running", staleCutoff).
			Order("priority DESC, queued_at ASC")
		qErr := q.First(&job).Error
		if errors.Is(qErr, gorm.ErrRecordNotFound) {
			return nil
		}
		if qErr != nil {
			return qErr
		}
		uErr := txx.Model(&types.ProcessingJob{}).
			Where("id = ?", job.ID).
			Updates(map[string]interface{}{
				"status":       "running",
				"started_at":   now,
				"locked_at":    now,
				"locked_by":    workerID,
				"heartbeat_at": now,
				"updated_at":   now,
			}).Error
		if uErr != nil {
			return uErr
		}
		claimed = &job
		return nil
	})
	if err != nil {
		return nil, err
	}
	return claimed, nil
}

func (r *processingJobRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
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
		Model(&types.ProcessingJob{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *processingJobRepo) UpdateFieldsUnlessStatus(dbc dbctx.Context, id uuid.UUID, disallowedStatuses []string, updates map[string]interface{}) (bool, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return false, nil
	}
	if updates == nil {
		updates = map[string]interface{}{}
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now()
	}

	q := transaction.WithContext(dbc.Ctx).
		Model(&types.ProcessingJob{}).
		Where("id = ?", id)
	if len(disallowedStatuses) == 1 {
		q = q.Where("status <> ?", disallowedStatuses[0])
	} else if len(disallowedStatuses) > 1 {
		q = q.Where("status NOT IN ?", disallowedStatuses)
	}

	res := q.Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *processingJobRepo) Heartbeat(dbc dbctx.Context, id uuid.UUID) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil
	}
	now := time.Now()
	return transaction.WithContext(dbc.Ctx).
		Model(&types.ProcessingJob{}).
		Where("id = ? AND status = ?", id, "running").
		Updates(map[string]interface{}{
			"heartbeat_at": now,
			"updated_at":   now,
		}).Error
}

func (r *processingJobRepo) HasRunnableForScope(dbc dbctx.Context, projectID uuid.UUID, documentID *uuid.UUID, stage domjobs.Stage) (bool, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if projectID == uuid.Nil || stage == "" {
		return false, nil
	}
	q := transaction.WithContext(dbc.Ctx).
		Model(&types.ProcessingJob{}).
		Where("project_id = ? AND stage = ? AND status IN ?", projectID, stage, []string{"queued", "running"})
	if documentID != nil && *documentID != uuid.Nil {
		q = q.Where("document_id = ?", *documentID)
	} else {
		q = q.Where("document_id IS NULL")
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Supersede marks a failed job as replaced and inserts its retry row
// atomically. The failed row keeps its error; the retry row carries
// attempt+1 and a not_before backoff cutoff set by the caller.
func (r *processingJobRepo) Supersede(dbc dbctx.Context, failedID uuid.UUID, retry *types.ProcessingJob) (*types.ProcessingJob, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if failedID == uuid.Nil || retry == nil {
		return nil, nil
	}
	err := transaction.WithContext(dbc.Ctx).Transaction(func(txx *gorm.DB) error {
		if err := txx.Create(retry).Error; err != nil {
			return err
		}
		return txx.Model(&types.ProcessingJob{}).
			Where("id = ? AND status = ?", failedID, "failed").
			Updates(map[string]interface{}{
				"superseded_by": retry.ID,
				"updated_at":    time.Now(),
			}).Error
	})
	if err != nil {
		return nil, err
	}
	return retry, nil
}

// CancelRunnable cancels a queued or running job. Terminal jobs are
// left untouched and false is returned.
func (r *processingJobRepo) CancelRunnable(dbc dbctx.Context, id uuid.UUID) (bool, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return false, nil
	}
	now := time.Now()
	res := transaction.WithContext(dbc.Ctx).
		Model(&types.ProcessingJob{}).
		Where("id = ? AND status IN ?", id, []string{"queued", "running"}).
		Updates(map[string]interface{}{
			"status":      "canceled",
			"finished_at": now,
			"updated_at":  now,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *processingJobRepo) CountByStatus(dbc dbctx.Context, projectID uuid.UUID) (map[string]int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	out := map[string]int64{}
	if projectID == uuid.Nil {
		return out, nil
	}
	type row struct {
		Status string
		N      int64
	}
	var rows []row
	if err := transaction.WithContext(dbc.Ctx).
		Model(&types.ProcessingJob{}).
		Select("status, COUNT(*) AS n").
		Where("project_id = ?", projectID).
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, rw := range rows {
		out[rw.Status] = rw.N
	}
	return out, nil
}
