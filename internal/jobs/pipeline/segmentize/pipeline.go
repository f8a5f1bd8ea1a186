package segmentize

import (
	"github.com/paperclip-video/paperclip-backend/internal/data/repos"
	domjobs "github.com/paperclip-video/paperclip-backend/internal/domain/jobs"
	"github.com/paperclip-video/paperclip-backend/internal/platform/logger"
	"github.com/paperclip-video/paperclip-backend/internal/services"
)

// Pipeline rebuilds the project's generated segments from every parsed
// document, in document order. Edited and approved segments survive the
// rebuild; only machine-generated ones are replaced.
type Pipeline struct {
	log         *logger.Logger
	docs        repos.DocumentRepo
	decomp      repos.DecompositionRepo
	segments    repos.SegmentRepo
	segmentizer *services.Segmentizer
}

func New(
	baseLog *logger.Logger,
	docs repos.DocumentRepo,
	decomp repos.DecompositionRepo,
	segments repos.SegmentRepo,
	segmentizer *services.Segmentizer,
) *Pipeline {
	return &Pipeline{
		log:         baseLog.With("job", "segment"),
		docs:        docs,
		decomp:      decomp,
		segments:    segments,
		segmentizer: segmentizer,
	}
}

func (p *Pipeline) Stage() domjobs.Stage { return domjobs.StageSegment }
