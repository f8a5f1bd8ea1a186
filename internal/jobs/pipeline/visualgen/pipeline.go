package visualgen

import (
	"github.com/paperclip-video/paperclip-backend/internal/clients/gcp"
	"github.com/paperclip-video/paperclip-backend/internal/data/repos"
	domjobs "github.com/paperclip-video/paperclip-backend/internal/domain/jobs"
	"github.com/paperclip-video/paperclip-backend/internal/platform/logger"
	"github.com/paperclip-video/paperclip-backend/internal/services"
)

// Pipeline turns a project's segments into a platform script and
// renders one card per narrated beat. Cards that fail to render are
// marked failed individually; the stage only fails when nothing could
// be produced.
type Pipeline struct {
	log       *logger.Logger
	segments  repos.SegmentRepo
	scripts   repos.VideoScriptRepo
	visuals   repos.GeneratedVisualRepo
	templates repos.VisualTemplateRepo
	scriptgen *services.ScriptGenerator
	provider  services.VisualProvider
	bucket    gcp.BucketService
}

func New(
	baseLog *logger.Logger,
	segments repos.SegmentRepo,
	scripts repos.VideoScriptRepo,
	visuals repos.GeneratedVisualRepo,
	templates repos.VisualTemplateRepo,
	scriptgen *services.ScriptGenerator,
	provider services.VisualProvider,
	bucket gcp.BucketService,
) *Pipeline {
	return &Pipeline{
		log:       baseLog.With("job", "visual_generate"),
		segments:  segments,
		scripts:   scripts,
		visuals:   visuals,
		templates: templates,
		scriptgen: scriptgen,
		provider:  provider,
		bucket:    bucket,
	}
}

func (p *Pipeline) Stage() domjobs.Stage { return domjobs.StageVisualGenerate }
