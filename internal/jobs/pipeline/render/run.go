package render

import (
	"bytes"
	"fmt"

	"github.com/google/uuid"

	"github.com/paperclip-video/paperclip-backend/internal/clients/gcp"
	types "github.com/paperclip-video/paperclip-backend/internal/domain"
	domeditorial "github.com/paperclip-video/paperclip-backend/internal/domain/editorial"
	domvisuals "github.com/paperclip-video/paperclip-backend/internal/domain/visuals"
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
	script, err := p.pickScript(dbc, projectID)
	if err != nil {
		jc.Fail("load", err)
		return nil
	}
	if script == nil {
		jc.Fail("load", apperrors.MissingDependencyf("project %s has no script to render", projectID))
		return nil
	}
	beats, err := p.scripts.GetSegments(dbc, script.ID)
	if err != nil {
		jc.Fail("load", err)
		return nil
	}
	visuals, err := p.visuals.GetByProjectID(dbc, projectID)
	if err != nil {
		jc.Fail("load", err)
		return nil
	}

	video := &types.Video{
		ID:        uuid.New(),
		ProjectID: projectID,
		ScriptID:  script.ID,
		Title:     script.Title,
		Status:    domvisuals.VideoStatusQueued,
	}
	if _, err := p.videos.Create(dbc, []*types.Video{video}); err != nil {
		jc.Fail("create", err)
		return nil
	}
	if err := p.videos.SetStatus(dbc, video.ID, domvisuals.VideoStatusRendering, nil); err != nil {
		jc.Fail("create", err)
		return nil
	}
	_ = p.videos.AdvanceProgress(dbc, video.ID, 10)
	jc.Progress("plan", 30, "Planning timeline")

	plan, err := p.planner.Plan(video.ID, beats, visuals)
	if err != nil {
		p.failVideo(dbc, video.ID, err)
		jc.Fail("plan", err)
		return nil
	}
	if jc.Canceled() {
		return nil
	}
	_ = p.videos.AdvanceProgress(dbc, video.ID, 50)

	jc.Progress("timeline", 60, "Writing timeline")
	timeline := make([]*types.VideoSegment, len(plan.Timeline))
	for i := range plan.Timeline {
		timeline[i] = &plan.Timeline[i]
	}
	if err := p.videos.ReplaceTimeline(dbc, video.ID, timeline); err != nil {
		p.failVideo(dbc, video.ID, err)
		jc.Fail("timeline", err)
		return nil
	}
	_ = p.videos.AdvanceProgress(dbc, video.ID, 75)

	key := fmt.Sprintf("renders/%s/manifest.json", video.ID)
	url := ""
	if p.bucket != nil {
		jc.Progress("manifest", 85, "Publishing manifest")
		if err := p.bucket.UploadFile(jc.Ctx, gcp.BucketCategoryRender, key, bytes.NewReader(plan.Manifest)); err != nil {
			err = apperrors.Transientf("upload manifest for video %s: %v", video.ID, err)
			p.failVideo(dbc, video.ID, err)
			jc.Fail("manifest", err)
			return nil
		}
		url = p.bucket.GetPublicURL(gcp.BucketCategoryRender, key)
	}

	if err := p.videos.SetStatus(dbc, video.ID, domvisuals.VideoStatusCompleted, map[string]interface{}{
		"render_manifest":  plan.Manifest,
		"duration_seconds": plan.Duration,
		"storage_key":      key,
		"url":              url,
	}); err != nil {
		jc.Fail("finish", err)
		return nil
	}

	jc.Succeed(map[string]any{
		"project_id":       projectID.String(),
		"video_id":         video.ID.String(),
		"script_id":        script.ID.String(),
		"duration_seconds": plan.Duration,
		"segments":         len(plan.Timeline),
	})
	return nil
}

// pickScript prefers the newest approved script, falling back to the
// newest generated one.
func (p *Pipeline) pickScript(dbc dbctx.Context, projectID uuid.UUID) (*types.VideoScript, error) {
	scripts, err := p.scripts.GetByProjectID(dbc, projectID)
	if err != nil {
		return nil, err
	}
	for _, s := range scripts {
		if s.ScriptStatus == domeditorial.ScriptStatusApproved {
			return s, nil
		}
	}
	for _, s := range scripts {
		if s.ScriptStatus == domeditorial.ScriptStatusGenerated {
			return s, nil
		}
	}
	return nil, nil
}

func (p *Pipeline) failVideo(dbc dbctx.Context, videoID uuid.UUID, cause error) {
	if err := p.videos.SetStatus(dbc, videoID, domvisuals.VideoStatusFailed, map[string]interface{}{
		"error": cause.Error(),
	}); err != nil {
		p.log.Warn("could not mark video failed", "video_id", videoID, "error", err)
	}
}
