package content

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/paperclip-video/paperclip-backend/internal/data/repos/testutil"
	types "github.com/paperclip-video/paperclip-backend/internal/domain"
	domjobs "github.com/paperclip-video/paperclip-backend/internal/domain/jobs"
	"github.com/paperclip-video/paperclip-backend/internal/platform/dbctx"
)

func TestProjectDeleteCascades(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	projects := NewProjectRepo(db, testutil.Logger(t))

	project := testutil.SeedProject(t, ctx, tx, "cascade")
	doc := testutil.SeedDocument(t, ctx, tx, project.ID, "doc.pdf")
	testutil.SeedPage(t, ctx, tx, doc.ID, 1)
	block := testutil.SeedBlock(t, ctx, tx, doc.ID, 0, "body")
	segment := testutil.SeedSegment(t, ctx, tx, project.ID, 0)
	script := testutil.SeedScript(t, ctx, tx, project.ID)
	video := testutil.SeedVideo(t, ctx, tx, project.ID, script.ID)
	testutil.SeedJob(t, ctx, tx, project.ID, &doc.ID, domjobs.StageUpload, 0)

	source := &types.SegmentSource{
		ID:         uuid.New(),
		SegmentID:  segment.ID,
		DocumentID: &doc.ID,
		BlockID:    &block.ID,
		Weight:     0.5,
	}
	if err := tx.WithContext(ctx).Create(source).Error; err != nil {
		t.Fatalf("seed segment source: %v", err)
	}

	if err := projects.Delete(dbc, project.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	countWhere := func(model any, query string, arg any) int64 {
		t.Helper()
		var n int64
		if err := tx.WithContext(ctx).Model(model).Where(query, arg).Count(&n).Error; err != nil {
			t.Fatalf("count %T: %v", model, err)
		}
		return n
	}

	for _, c := range []struct {
		model any
		query string
		arg   any
	}{
		{&types.Document{}, "project_id = ?", project.ID},
		{&types.DocumentPage{}, "document_id = ?", doc.ID},
		{&types.ContentBlock{}, "document_id = ?", doc.ID},
		{&types.Segment{}, "project_id = ?", project.ID},
		{&types.SegmentSource{}, "segment_id = ?", segment.ID},
		{&types.VideoScript{}, "project_id = ?", project.ID},
		{&types.Video{}, "project_id = ?", project.ID},
		{&types.VideoSegment{}, "video_id = ?", video.ID},
	} {
		if n := countWhere(c.model, c.query, c.arg); n != 0 {
			t.Fatalf("%T rows after project delete = %d, want 0", c.model, n)
		}
	}

	var gone types.Project
	err := tx.WithContext(ctx).Where("id = ?", project.ID).First(&gone).Error
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("project still readable after delete: %v", err)
	}

	// The job audit trail survives.
	if n := countWhere(&types.ProcessingJob{}, "project_id = ?", project.ID); n != 1 {
		t.Fatalf("job rows after project delete = %d, want 1", n)
	}
}
