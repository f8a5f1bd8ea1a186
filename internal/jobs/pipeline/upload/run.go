package upload

import (
	"github.com/google/uuid"

	"github.com/paperclip-video/paperclip-backend/internal/clients/gcp"
	domcontent "github.com/paperclip-video/paperclip-backend/internal/domain/content"
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
	doc, err := p.docs.GetByID(dbc, docID)
	if err != nil {
		jc.Fail("load", err)
		return nil
	}
	if doc == nil {
		jc.Fail("load", apperrors.MissingDependencyf("document %s not found", docID))
		return nil
	}

	jc.Progress("verify", 30, "Verifying source")

	if doc.FileType == domcontent.FileTypeURL {
		if doc.FileURL == "" {
			jc.Fail("verify", apperrors.Permanentf("url document %s has no source url", docID))
			return nil
		}
	} else {
		if doc.StorageKey == "" {
			jc.Fail("verify", apperrors.Permanentf("document %s has no stored object", docID))
			return nil
		}
		if p.bucket != nil {
			keys, err := p.bucket.ListKeys(jc.Ctx, gcp.BucketCategoryDocument, doc.StorageKey)
			if err != nil {
				jc.Fail("verify", apperrors.Transientf("storage check for %s: %v", docID, err))
				return nil
			}
			if len(keys) == 0 {
				jc.Fail("verify", apperrors.MissingDependencyf("stored object %q missing for document %s", doc.StorageKey, docID))
				return nil
			}
		}
	}

	jc.Succeed(map[string]any{
		"document_id": doc.ID.String(),
		"filename":    doc.Filename,
		"file_type":   string(doc.FileType),
		"storage_key": doc.StorageKey,
	})
	return nil
}
