package visualgen

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/paperclip-video/paperclip-backend/internal/clients/gcp"
	types "github.com/paperclip-video/paperclip-backend/internal/domain"
	domeditorial "github.com/paperclip-video/paperclip-backend/internal/domain/editorial"
	domvisuals "github.com/paperclip-video/paperclip-backend/internal/domain/visuals"
	jobrt "github.com/paperclip-video/paperclip-backend/internal/jobs/runtime"
	apperrors "github.com/paperclip-video/paperclip-backend/internal/pkg/errors"
	"github.com/paperclip-video/paperclip-backend/internal/platform/dbctx"
	"github.com/paperclip-video/paperclip-backend/internal/services"
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
	platform := "tiktok"
	if v, ok := jc.Params()["target_platform"]; ok {
		if s := strings.TrimSpace(fmt.Sprint(v)); s != "" {
			platform = s
		}
	}

	dbc := dbctx.Context{Ctx: jc.Ctx}
	all, err := p.segments.GetByProjectID(dbc, projectID)
	if err != nil {
		jc.Fail("load", err)
		return nil
	}
	var usable []*types.Segment
	for _, s := range all {
		switch s.Status {
		case domeditorial.SegmentStatusGenerated, domeditorial.SegmentStatusEdited, domeditorial.SegmentStatusApproved:
			usable = append(usable, s)
		}
	}
	if len(usable) == 0 {
		jc.Fail("load", apperrors.MissingDependencyf("project %s has no usable segments", projectID))
		return nil
	}

	jc.Progress("script", 20, "Assembling script")
	script, beats, err := p.scriptgen.Generate(projectID, platform, usable)
	if err != nil {
		jc.Fail("script", err)
		return nil
	}
	if _, err := p.scripts.CreateWithSegments(dbc, script, beats); err != nil {
		jc.Fail("script", err)
		return nil
	}

	rendered := 0
	failed := 0
	for i, beat := range beats {
		if beat.SegmentType != domeditorial.ScriptSegmentHook && beat.SegmentType != domeditorial.ScriptSegmentContent {
			continue
		}
		if jc.Canceled() {
			return nil
		}
		jc.Progress("render", 30+60*i/len(beats), "Rendering visuals")

		if err := p.renderBeat(jc, dbc, projectID, beat); err != nil {
			failed++
			p.log.Warn("visual render failed", "script_segment_id", beat.ID, "error", err)
			continue
		}
		rendered++
	}
	if rendered == 0 {
		jc.Fail("render", apperrors.Transientf("no visuals rendered for project %s (%d failed)", projectID, failed))
		return nil
	}

	jc.Succeed(map[string]any{
		"project_id": projectID.String(),
		"script_id":  script.ID.String(),
		"beats":      len(beats),
		"rendered":   rendered,
		"failed":     failed,
	})
	return nil
}

func (p *Pipeline) renderBeat(jc *jobrt.Context, dbc dbctx.Context, projectID uuid.UUID, beat *types.ScriptSegment) error {
	visualType := domvisuals.VisualTypeQuoteCard
	if beat.SegmentType == domeditorial.ScriptSegmentHook {
		visualType = domvisuals.VisualTypeTitleCard
	}
	tmpl, err := p.templateFor(dbc, visualType)
	if err != nil {
		return err
	}

	beatID := beat.ID
	visual := &types.GeneratedVisual{
		ID:              uuid.New(),
		ProjectID:       projectID,
		ScriptSegmentID: &beatID,
		VisualType:      visualType,
		Status:          domvisuals.VisualStatusQueued,
	}
	if tmpl != nil {
		tmplID := tmpl.ID
		visual.TemplateID = &tmplID
	}
	if _, err := p.visuals.Create(dbc, []*types.GeneratedVisual{visual}); err != nil {
		return err
	}
	if err := p.visuals.SetStatus(dbc, visual.ID, domvisuals.VisualStatusGenerating, nil); err != nil {
		return err
	}

	buf, spec, err := p.provider.RenderCard(tmpl, services.CardRequest{
		VisualType: visualType,
		Title:      firstLine(beat.Text),
		Body:       beat.Text,
	})
	if err != nil {
		_ = p.visuals.SetStatus(dbc, visual.ID, domvisuals.VisualStatusFailed, map[string]interface{}{"error": err.Error()})
		return err
	}

	key := fmt.Sprintf("visuals/%s/%s.png", projectID, visual.ID)
	url := ""
	if p.bucket != nil {
		if err := p.bucket.UploadFile(jc.Ctx, gcp.BucketCategoryVisual, key, bytes.NewReader(buf.Bytes())); err != nil {
			_ = p.visuals.SetStatus(dbc, visual.ID, domvisuals.VisualStatusFailed, map[string]interface{}{"error": err.Error()})
			return apperrors.Transientf("upload visual %s: %v", visual.ID, err)
		}
		url = p.bucket.GetPublicURL(gcp.BucketCategoryVisual, key)
	}

	return p.visuals.SetStatus(dbc, visual.ID, domvisuals.VisualStatusReady, map[string]interface{}{
		"storage_key": key,
		"url":         url,
		"width":       spec.Width,
		"height":      spec.Height,
	})
}

func (p *Pipeline) templateFor(dbc dbctx.Context, visualType domvisuals.VisualType) (*types.VisualTemplate, error) {
	list, err := p.templates.List(dbc)
	if err != nil {
		return nil, err
	}
	for _, t := range list {
		if t.VisualType == visualType {
			return t, nil
		}
	}
	// no template is fine, the renderer falls back to defaults
	return nil, nil
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexAny(s, "\n."); i > 0 {
		return strings.TrimSpace(s[:i])
	}
	return s
}
