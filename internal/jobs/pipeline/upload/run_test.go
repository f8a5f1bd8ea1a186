package upload

import (
	"context"
	"io"
	"testing"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/paperclip-video/paperclip-backend/internal/clients/gcp"
	types "github.com/paperclip-video/paperclip-backend/internal/domain"
	domcontent "github.com/paperclip-video/paperclip-backend/internal/domain/content"
	jobrt "github.com/paperclip-video/paperclip-backend/internal/jobs/runtime"
	apperrors "github.com/paperclip-video/paperclip-backend/internal/pkg/errors"
	"github.com/paperclip-video/paperclip-backend/internal/platform/dbctx"
	"github.com/paperclip-video/paperclip-backend/internal/platform/logger"
)

type fakeDocRepo struct {
	docs map[uuid.UUID]*types.Document
}

func (f *fakeDocRepo) Create(dbc dbctx.Context, docs []*types.Document) ([]*types.Document, error) {
	for _, d := range docs {
		f.docs[d.ID] = d
	}
	return docs, nil
}
func (f *fakeDocRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Document, error) {
	return f.docs[id], nil
}
func (f *fakeDocRepo) GetByProjectID(dbc dbctx.Context, projectID uuid.UUID) ([]*types.Document, error) {
	return nil, nil
}
func (f *fakeDocRepo) GetByChecksum(dbc dbctx.Context, projectID uuid.UUID, checksum string) (*types.Document, error) {
	return nil, nil
}
func (f *fakeDocRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	return nil
}
func (f *fakeDocRepo) SetUploadStatus(dbc dbctx.Context, id uuid.UUID, next domcontent.UploadStatus, errMsg string) error {
	return nil
}
func (f *fakeDocRepo) Delete(dbc dbctx.Context, id uuid.UUID) error { return nil }

type fakeBucket struct {
	keys map[string]bool
}

func (f *fakeBucket) UploadFile(ctx context.Context, category gcp.BucketCategory, key string, file io.Reader) error {
	f.keys[key] = true
	return nil
}
func (f *fakeBucket) DeleteFile(ctx context.Context, category gcp.BucketCategory, key string) error {
	delete(f.keys, key)
	return nil
}
func (f *fakeBucket) DownloadFile(ctx context.Context, category gcp.BucketCategory, key string) (io.ReadCloser, error) {
	return nil, nil
}
func (f *fakeBucket) ListKeys(ctx context.Context, category gcp.BucketCategory, prefix string) ([]string, error) {
	var out []string
	for k := range f.keys {
		if len(k) >= len(prefix) && k[:len(prefix)] == prefix {
			out = append(out, k)
		}
	}
	return out, nil
}
func (f *fakeBucket) DeletePrefix(ctx context.Context, category gcp.BucketCategory, prefix string) error {
	return nil
}
func (f *fakeBucket) GetPublicURL(category gcp.BucketCategory, key string) string { return "" }

func uploadJobContext(t *testing.T, docID uuid.UUID) *jobrt.Context {
	t.Helper()
	job := &types.ProcessingJob{
		ID:        uuid.New(),
		ProjectID: uuid.New(),
		Stage:     "upload",
		Status:    types.JobRunning,
		Params:    datatypes.JSON([]byte(`{"document_id":"` + docID.String() + `"}`)),
	}
	return jobrt.NewContext(context.Background(), nil, job, nil, nil)
}

func uploadPipeline(t *testing.T, docs *fakeDocRepo, bucket gcp.BucketService) *Pipeline {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return New(log, docs, bucket)
}

func TestUploadSucceedsForStoredObject(t *testing.T) {
	docs := &fakeDocRepo{docs: map[uuid.UUID]*types.Document{}}
	doc := &types.Document{
		ID:           uuid.New(),
		ProjectID:    uuid.New(),
		Filename:     "report.pdf",
		FileType:     domcontent.FileTypePDF,
		StorageKey:   "documents/p/d/report.pdf",
		UploadStatus: domcontent.UploadStatusUploaded,
	}
	docs.docs[doc.ID] = doc
	bucket := &fakeBucket{keys: map[string]bool{doc.StorageKey: true}}

	jc := uploadJobContext(t, doc.ID)
	if err := uploadPipeline(t, docs, bucket).Run(jc); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if jc.Job.Status != types.JobCompleted {
		t.Fatalf("job status = %q (error %q)", jc.Job.Status, jc.Job.Error)
	}
}

func TestUploadFailsWhenStoredObjectMissing(t *testing.T) {
	docs := &fakeDocRepo{docs: map[uuid.UUID]*types.Document{}}
	doc := &types.Document{
		ID:           uuid.New(),
		ProjectID:    uuid.New(),
		Filename:     "report.pdf",
		FileType:     domcontent.FileTypePDF,
		StorageKey:   "documents/p/d/report.pdf",
		UploadStatus: domcontent.UploadStatusUploaded,
	}
	docs.docs[doc.ID] = doc

	jc := uploadJobContext(t, doc.ID)
	if err := uploadPipeline(t, docs, &fakeBucket{keys: map[string]bool{}}).Run(jc); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if jc.Job.Status != types.JobFailed {
		t.Fatalf("job status = %q, want failed", jc.Job.Status)
	}
	if apperrors.Classify(jc.Cause()) != apperrors.KindMissingDependency {
		t.Fatalf("cause kind = %q, want missing_dependency", apperrors.Classify(jc.Cause()))
	}
}

func TestUploadFailsForUnknownDocument(t *testing.T) {
	jc := uploadJobContext(t, uuid.New())
	docs := &fakeDocRepo{docs: map[uuid.UUID]*types.Document{}}
	if err := uploadPipeline(t, docs, nil).Run(jc); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if jc.Job.Status != types.JobFailed {
		t.Fatalf("job status = %q, want failed", jc.Job.Status)
	}
}
