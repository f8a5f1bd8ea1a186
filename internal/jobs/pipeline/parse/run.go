package parse

import (
	"io"

	"github.com/google/uuid"

	"github.com/paperclip-video/paperclip-backend/internal/clients/gcp"
	"github.com/paperclip-video/paperclip-backend/internal/decompose"
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

	if err := p.docs.SetUploadStatus(dbc, docID, domcontent.UploadStatusProcessing, ""); err != nil {
		jc.Fail("status", err)
		return nil
	}

	jc.Progress("fetch", 10, "Fetching source")
	raw, err := p.fetchRaw(jc, doc)
	if err != nil {
		p.failDocument(dbc, docID, err)
		jc.Fail("fetch", err)
		return nil
	}
	if jc.Canceled() {
		return nil
	}

	jc.Progress("extract", 40, "Extracting text")
	text, err := p.extractor.Extract(jc.Ctx, doc, raw)
	if err != nil {
		p.failDocument(dbc, docID, err)
		jc.Fail("extract", err)
		return nil
	}

	jc.Progress("decompose", 70, "Decomposing content")
	d := decompose.Document(docID, text)
	if len(d.Blocks) == 0 {
		err := apperrors.Permanentf("document %s decomposed to zero blocks", docID)
		p.failDocument(dbc, docID, err)
		jc.Fail("decompose", err)
		return nil
	}
	if err := p.decomp.Replace(dbc, docID, d); err != nil {
		p.failDocument(dbc, docID, err)
		jc.Fail("persist", err)
		return nil
	}

	if err := p.docs.SetUploadStatus(dbc, docID, domcontent.UploadStatusParsed, ""); err != nil {
		jc.Fail("status", err)
		return nil
	}

	jc.Succeed(map[string]any{
		"document_id": docID.String(),
		"pages":       len(d.Pages),
		"blocks":      len(d.Blocks),
	})
	return nil
}

func (p *Pipeline) fetchRaw(jc *jobrt.Context, doc *types.Document) ([]byte, error) {
	if doc.StorageKey == "" || p.bucket == nil {
		// URL documents without a cached body are fetched by the
		// extractor itself.
		return nil, nil
	}
	rc, err := p.bucket.DownloadFile(jc.Ctx, gcp.BucketCategoryDocument, doc.StorageKey)
	if err != nil {
		return nil, apperrors.Transientf("download %q: %v", doc.StorageKey, err)
	}
	defer rc.Close()
	raw, err := io.ReadAll(rc)
	if err != nil {
		return nil, apperrors.Transientf("read %q: %v", doc.StorageKey, err)
	}
	return raw, nil
}

func (p *Pipeline) failDocument(dbc dbctx.Context, docID uuid.UUID, cause error) {
	if err := p.docs.SetUploadStatus(dbc, docID, domcontent.UploadStatusFailed, cause.Error()); err != nil {
		p.log.Warn("could not mark document failed", "document_id", docID, "error", err)
	}
}
