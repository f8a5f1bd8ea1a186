package analyze

import (
	"github.com/google/uuid"

	jobrt "github.com/paperclip-video/paperclip-backend/internal/jobs/runtime"
	apperrors "github.com/paperclip-video/paperclip-backend/internal/pkg/errors"
	"github.com/paperclip-video/paperclip-backend/internal/platform/dbctx"
)

func (p *Pipeline) Run(jc *jobrt.Context) error {
	if jc == nil || jc.Job == nil {
		return nil
	}
	docID, ok := jc.ParamUUID("document_id")
	if !ok || docID == uuid.Nil {
		jc.Fail("validate", apperrors.Validationf("missing document_id"))
		return nil
	}

	dbc := dbctx.Context{Ctx: jc.Ctx}
	blocks, err := p.decomp.GetBlocks(dbc, docID)
	if err != nil {
		jc.Fail("load", err)
		return nil
	}
	if len(blocks) == 0 {
		jc.Fail("load", apperrors.MissingDependencyf("document %s has no parsed blocks", docID))
		return nil
	}

	jc.Progress("analyze", 40, "Extracting entities")
	entities, err := p.analyzer.Analyze(docID, blocks)
	if err != nil {
		jc.Fail("analyze", err)
		return nil
	}
	if jc.Canceled() {
		return nil
	}

	jc.Progress("persist", 80, "Storing entities")
	if err := p.decomp.ReplaceEntities(dbc, docID, entities); err != nil {
		jc.Fail("persist", err)
		return nil
	}

	byType := map[string]int{}
	for _, e := range entities {
		byType[string(e.EntityType)]++
	}
	jc.Succeed(map[string]any{
		"document_id": docID.String(),
		"entities":    len(entities),
		"by_type":     byType,
	})
	return nil
}
