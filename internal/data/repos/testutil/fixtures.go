package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/paperclip-video/paperclip-backend/internal/domain"
	domjobs "github.com/paperclip-video/paperclip-backend/internal/domain/jobs"
)

func SeedProject(tb testing.TB, ctx context.Context, tx *gorm.DB, name string) *types.Project {
	tb.Helper()
	p := &types.Project{
		ID:     uuid.New(),
		Name:   name,
		Config: datatypes.JSON([]byte("{}")),
	}
	if err := tx.WithContext(ctx).Create(p).Error; err != nil {
		tb.Fatalf("seed project: %v", err)
	}
	return p
}

func SeedDocument(tb testing.TB, ctx context.Context, tx *gorm.DB, projectID uuid.UUID, filename string) *types.Document {
	tb.Helper()
	d := &types.Document{
		ID:           uuid.New(),
		ProjectID:    projectID,
		Filename:     filename,
		FileType:     "pdf",
		StorageKey:   "doc/" + filename,
		UploadStatus: "uploaded",
		Metadata:     datatypes.JSON([]byte("{}")),
	}
	if err := tx.WithContext(ctx).Create(d).Error; err != nil {
		tb.Fatalf("seed document: %v", err)
	}
	return d
}

func SeedPage(tb testing.TB, ctx context.Context, tx *gorm.DB, documentID uuid.UUID, number int) *types.DocumentPage {
	tb.Helper()
	p := &types.DocumentPage{
		ID:         uuid.New(),
		DocumentID: documentID,
		PageNumber: number,
		Text:       "page",
	}
	if err := tx.WithContext(ctx).Create(p).Error; err != nil {
		tb.Fatalf("seed page: %v", err)
	}
	return p
}

func SeedBlock(tb testing.TB, ctx context.Context, tx *gorm.DB, documentID uuid.UUID, order int, text string) *types.ContentBlock {
	tb.Helper()
	b := &types.ContentBlock{
		ID:         uuid.New(),
		DocumentID: documentID,
		BlockType:  "paragraph",
		Text:       text,
		OrderIndex: order,
		Metadata:   datatypes.JSON([]byte("{}")),
	}
	if err := tx.WithContext(ctx).Create(b).Error; err != nil {
		tb.Fatalf("seed block: %v", err)
	}
	return b
}

func SeedSegment(tb testing.TB, ctx context.Context, tx *gorm.DB, projectID uuid.UUID, order int) *types.Segment {
	tb.Helper()
	dur := 30.0
	s := &types.Segment{
		ID:              uuid.New(),
		ProjectID:       projectID,
		Title:           "segment",
		ContentText:     "body",
		DurationSeconds: &dur,
		OrderIndex:      order,
		Status:          "generated",
	}
	if err := tx.WithContext(ctx).Create(s).Error; err != nil {
		tb.Fatalf("seed segment: %v", err)
	}
	return s
}

func SeedScript(tb testing.TB, ctx context.Context, tx *gorm.DB, projectID uuid.UUID) *types.VideoScript {
	tb.Helper()
	s := &types.VideoScript{
		ID:             uuid.New(),
		ProjectID:      projectID,
		Title:          "script",
		TargetPlatform: "tiktok",
		ScriptStatus:   "generated",
		Config:         datatypes.JSON([]byte("{}")),
	}
	if err := tx.WithContext(ctx).Create(s).Error; err != nil {
		tb.Fatalf("seed script: %v", err)
	}
	return s
}

func SeedVideo(tb testing.TB, ctx context.Context, tx *gorm.DB, projectID, scriptID uuid.UUID) *types.Video {
	tb.Helper()
	v := &types.Video{
		ID:        uuid.New(),
		ProjectID: projectID,
		ScriptID:  scriptID,
		Title:     "video",
		Status:    "queued",
	}
	if err := tx.WithContext(ctx).Create(v).Error; err != nil {
		tb.Fatalf("seed video: %v", err)
	}
	return v
}

func SeedJob(tb testing.TB, ctx context.Context, tx *gorm.DB, projectID uuid.UUID, documentID *uuid.UUID, stage domjobs.Stage, priority int) *types.ProcessingJob {
	tb.Helper()
	j := &types.ProcessingJob{
		ID:         uuid.New(),
		ProjectID:  projectID,
		DocumentID: documentID,
		Stage:      stage,
		Status:     "queued",
		Attempt:    1,
		Priority:   priority,
		Params:     datatypes.JSON([]byte("{}")),
		QueuedAt:   time.Now(),
	}
	if err := tx.WithContext(ctx).Create(j).Error; err != nil {
		tb.Fatalf("seed job: %v", err)
	}
	return j
}
