package segmentize

import (
	"github.com/google/uuid"

	types "github.com/paperclip-video/paperclip-backend/internal/domain"
	domcontent "github.com/paperclip-video/paperclip-backend/internal/domain/content"
	jobrt "github.com/paperclip-video/paperclip-backend/internal/jobs/runtime"
	apperrors "github.com/paperclip-video/paperclip-backend/internal/pkg/errors"
	"github.com/paperclip-video/paperclip-backend/internal/platform/dbctx"
)

func (p *Pipeline) Run(jc *jobrt.Context) error {
	if jc == nil || jc.Job == nil {
		return nil
	}
	projectID := jc.Job.ProjectID
	if projectID == uuid.Nil {
		jc.Fail("validate", apperrors.Validationf("missing project_id"))
		return nil
	}

	dbc := dbctx.Context{Ctx: jc.Ctx}
	docs, err := p.docs.GetByProjectID(dbc, projectID)
	if err != nil {
		jc.Fail("load", err)
		return nil
	}

	// Preserved segments keep their order slots; generated ones are
	// rebuilt after them.
	existing, err := p.segments.GetByProjectID(dbc, projectID)
	if err != nil {
		jc.Fail("load", err)
		return nil
	}
	order := 0
	for _, seg := range existing {
		if seg.Status != "draft" && seg.Status != "generated" && seg.OrderIndex >= order {
			order = seg.OrderIndex + 1
		}
	}

	var allSegments []*types.Segment
	var allSources []*types.SegmentSource
	parsed := 0
	for i, doc := range docs {
		if doc.UploadStatus != domcontent.UploadStatusParsed {
			continue
		}
		parsed++
		if jc.Canceled() {
			return nil
		}
		jc.Progress("plan", 10+70*i/max(len(docs), 1), "Planning segments")

		blocks, err := p.decomp.GetBlocks(dbc, doc.ID)
		if err != nil {
			jc.Fail("load", err)
			return nil
		}
		entities, err := p.decomp.GetEntities(dbc, doc.ID)
		if err != nil {
			jc.Fail("load", err)
			return nil
		}
		plan := p.segmentizer.Plan(projectID, doc.ID, blocks, entities, order)
		allSegments = append(allSegments, plan.Segments...)
		allSources = append(allSources, plan.Sources...)
		order += len(plan.Segments)
	}
	if parsed == 0 {
		jc.Fail("plan", apperrors.MissingDependencyf("project %s has no parsed documents", projectID))
		return nil
	}
	if len(allSegments) == 0 {
		jc.Fail("plan", apperrors.Permanentf("project %s produced no segments", projectID))
		return nil
	}

	jc.Progress("persist", 90, "Storing segments")
	if err := p.segments.ReplaceForProject(dbc, projectID, allSegments, allSources); err != nil {
		jc.Fail("persist", err)
		return nil
	}

	jc.Succeed(map[string]any{
		"project_id": projectID.String(),
		"documents":  parsed,
		"segments":   len(allSegments),
		"sources":    len(allSources),
	})
	return nil
}
