package repos

import (
	"gorm.io/gorm"

	"github.com/paperclip-video/paperclip-backend/internal/data/repos/content"
	"github.com/paperclip-video/paperclip-backend/internal/data/repos/editorial"
	"github.com/paperclip-video/paperclip-backend/internal/data/repos/jobs"
	"github.com/paperclip-video/paperclip-backend/internal/data/repos/visuals"
	"github.com/paperclip-video/paperclip-backend/internal/platform/logger"
)

type ProjectRepo = content.ProjectRepo
type DocumentRepo = content.DocumentRepo
type DecompositionRepo = content.DecompositionRepo
type Decomposition = content.Decomposition

type SegmentRepo = editorial.SegmentRepo
type SegmentSourceRepo = editorial.SegmentSourceRepo
type VideoScriptRepo = editorial.VideoScriptRepo

type GeneratedVisualRepo = visuals.GeneratedVisualRepo
type VisualTemplateRepo = visuals.VisualTemplateRepo
type VideoRepo = visuals.VideoRepo
type VideoAnalyticsRepo = visuals.VideoAnalyticsRepo
type ABTestRepo = visuals.ABTestRepo

type ProcessingJobRepo = jobs.ProcessingJobRepo

func NewProjectRepo(db *gorm.DB, baseLog *logger.Logger) ProjectRepo {
	return content.NewProjectRepo(db, baseLog)
}
func NewDocumentRepo(db *gorm.DB, baseLog *logger.Logger) DocumentRepo {
	return content.NewDocumentRepo(db, baseLog)
}
func NewDecompositionRepo(db *gorm.DB, baseLog *logger.Logger) DecompositionRepo {
	return content.NewDecompositionRepo(db, baseLog)
}
func NewSegmentRepo(db *gorm.DB, baseLog *logger.Logger) SegmentRepo {
	return editorial.NewSegmentRepo(db, baseLog)
}
func NewSegmentSourceRepo(db *gorm.DB, baseLog *logger.Logger) SegmentSourceRepo {
	return editorial.NewSegmentSourceRepo(db, baseLog)
}
func NewVideoScriptRepo(db *gorm.DB, baseLog *logger.Logger) VideoScriptRepo {
	return editorial.NewVideoScriptRepo(db, baseLog)
}
func NewGeneratedVisualRepo(db *gorm.DB, baseLog *logger.Logger) GeneratedVisualRepo {
	return visuals.NewGeneratedVisualRepo(db, baseLog)
}
func NewVisualTemplateRepo(db *gorm.DB, baseLog *logger.Logger) VisualTemplateRepo {
	return visuals.NewVisualTemplateRepo(db, baseLog)
}
func NewVideoRepo(db *gorm.DB, baseLog *logger.Logger) VideoRepo {
	return visuals.NewVideoRepo(db, baseLog)
}
func NewVideoAnalyticsRepo(db *gorm.DB, baseLog *logger.Logger) VideoAnalyticsRepo {
	return visuals.NewVideoAnalyticsRepo(db, baseLog)
}
func NewABTestRepo(db *gorm.DB, baseLog *logger.Logger) ABTestRepo {
	return visuals.NewABTestRepo(db, baseLog)
}
func NewProcessingJobRepo(db *gorm.DB, baseLog *logger.Logger) ProcessingJobRepo {
	return jobs.NewProcessingJobRepo(db, baseLog)
}

// All bundles every repo over one gorm handle.
type All struct {
	Project       ProjectRepo
	Document      DocumentRepo
	Decomposition DecompositionRepo

	Segment       SegmentRepo
	SegmentSource SegmentSourceRepo
	VideoScript   VideoScriptRepo

	GeneratedVisual GeneratedVisualRepo
	VisualTemplate  VisualTemplateRepo
	Video           VideoRepo
	VideoAnalytics  VideoAnalyticsRepo
	ABTest          ABTestRepo

	ProcessingJob ProcessingJobRepo
}

func NewAll(db *gorm.DB, baseLog *logger.Logger) *All {
	return &All{
		Project:         NewProjectRepo(db, baseLog),
		Document:        NewDocumentRepo(db, baseLog),
		Decomposition:   NewDecompositionRepo(db, baseLog),
		Segment:         NewSegmentRepo(db, baseLog),
		SegmentSource:   NewSegmentSourceRepo(db, baseLog),
		VideoScript:     NewVideoScriptRepo(db, baseLog),
		GeneratedVisual: NewGeneratedVisualRepo(db, baseLog),
		VisualTemplate:  NewVisualTemplateRepo(db, baseLog),
		Video:           NewVideoRepo(db, baseLog),
		VideoAnalytics:  NewVideoAnalyticsRepo(db, baseLog),
		ABTest:          NewABTestRepo(db, baseLog),
		ProcessingJob:   NewProcessingJobRepo(db, baseLog),
	}
}
