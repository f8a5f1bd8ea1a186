package render

import (
	"github.com/paperclip-video/paperclip-backend/internal/clients/gcp"
	"github.com/paperclip-video/paperclip-backend/internal/data/repos"
	domjobs "github.com/paperclip-video/paperclip-backend/internal/domain/jobs"
	"github.com/paperclip-video/paperclip-backend/internal/platform/logger"
	"github.com/paperclip-video/paperclip-backend/internal/services"
)

// Pipeline resolves the newest project script against its generated
// visuals into a render manifest and timeline. A beat referencing an
// asset that is not ready fails this video, not the whole project.
type Pipeline struct {
	log     *logger.Logger
	scripts repos.VideoScriptRepo
	visuals repos.GeneratedVisualRepo
	videos  repos.VideoRepo
	planner services.VideoRenderer
	bucket  gcp.BucketService
}

func New(
	baseLog *logger.Logger,
	scripts repos.VideoScriptRepo,
	visuals repos.GeneratedVisualRepo,
	videos repos.VideoRepo,
	planner services.VideoRenderer,
	bucket gcp.BucketService,
) *Pipeline {
	return &Pipeline{
		log:     baseLog.With("job", "render"),
		scripts: scripts,
		visuals: visuals,
		videos:  videos,
		planner: planner,
		bucket:  bucket,
	}
}

func (p *Pipeline) Stage() domjobs.Stage { return domjobs.StageRender }
