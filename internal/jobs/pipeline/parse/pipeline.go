package parse

import (
	"github.com/paperclip-video/paperclip-backend/internal/clients/gcp"
	"github.com/paperclip-video/paperclip-backend/internal/data/repos"
	domjobs "github.com/paperclip-video/paperclip-backend/internal/domain/jobs"
	"github.com/paperclip-video/paperclip-backend/internal/platform/logger"
	"github.com/paperclip-video/paperclip-backend/internal/services"
)

// Pipeline extracts text from the stored source and replaces the
// document's decomposition: pages, classified blocks, ordering.
type Pipeline struct {
	log       *logger.Logger
	docs      repos.DocumentRepo
	decomp    repos.DecompositionRepo
	bucket    gcp.BucketService
	extractor services.TextExtractor
}

func New(
	baseLog *logger.Logger,
	docs repos.DocumentRepo,
	decomp repos.DecompositionRepo,
	bucket gcp.BucketService,
	extractor services.TextExtractor,
) *Pipeline {
	return &Pipeline{
		log:       baseLog.With("job", "parse"),
		docs:      docs,
		decomp:    decomp,
		bucket:    bucket,
		extractor: extractor,
	}
}

func (p *Pipeline) Stage() domjobs.Stage { return domjobs.StageParse }
