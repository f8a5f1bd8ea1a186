package analyze

import (
	"github.com/paperclip-video/paperclip-backend/internal/data/repos"
	domjobs "github.com/paperclip-video/paperclip-backend/internal/domain/jobs"
	"github.com/paperclip-video/paperclip-backend/internal/platform/logger"
	"github.com/paperclip-video/paperclip-backend/internal/services"
)

// Pipeline extracts entities (statistics, quotes, key concepts) from a
// parsed document's blocks. Re-running replaces the document's entity
// set wholesale.
type Pipeline struct {
	log      *logger.Logger
	decomp   repos.DecompositionRepo
	analyzer services.ContentAnalyzer
}

func New(baseLog *logger.Logger, decomp repos.DecompositionRepo, analyzer services.ContentAnalyzer) *Pipeline {
	return &Pipeline{
		log:      baseLog.With("job", "analyze"),
		decomp:   decomp,
		analyzer: analyzer,
	}
}

func (p *Pipeline) Stage() domjobs.Stage { return domjobs.StageAnalyze }
