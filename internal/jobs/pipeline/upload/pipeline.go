package upload

import (
	"github.com/paperclip-video/paperclip-backend/internal/clients/gcp"
	"github.com/paperclip-video/paperclip-backend/internal/data/repos"
	domjobs "github.com/paperclip-video/paperclip-backend/internal/domain/jobs"
	"github.com/paperclip-video/paperclip-backend/internal/platform/logger"
)

// Pipeline verifies a freshly uploaded source document before parsing
// starts: the row exists and its stored object (or source URL) is
// reachable.
type Pipeline struct {
	log    *logger.Logger
	docs   repos.DocumentRepo
	bucket gcp.BucketService
}

func New(baseLog *logger.Logger, docs repos.DocumentRepo, bucket gcp.BucketService) *Pipeline {
	return &Pipeline{
		log:    baseLog.With("job", "upload"),
		docs:   docs,
		bucket: bucket,
	}
}

func (p *Pipeline) Stage() domjobs.Stage { return domjobs.StageUpload }
