package domain

import (
	"github.com/paperclip-video/paperclip-backend/internal/domain/content"
	"github.com/paperclip-video/paperclip-backend/internal/domain/editorial"
	"github.com/paperclip-video/paperclip-backend/internal/domain/jobs"
	"github.com/paperclip-video/paperclip-backend/internal/domain/visuals"
)

type Project = content.Project
type Document = content.Document
type DocumentPage = content.DocumentPage
type ContentBlock = content.ContentBlock
type MediaAsset = content.MediaAsset
type ExtractedEntity = content.ExtractedEntity

type Segment = editorial.Segment
type SegmentSource = editorial.SegmentSource
type VideoScript = editorial.VideoScript
type ScriptSegment = editorial.ScriptSegment

type GeneratedVisual = visuals.GeneratedVisual
type VisualTemplate = visuals.VisualTemplate
type Video = visuals.Video
type VideoSegment = visuals.VideoSegment
type VideoAnalytics = visuals.VideoAnalytics
type ABTest = visuals.ABTest

type ProcessingJob = jobs.ProcessingJob

const (
	UploadStatusUploaded   = content.UploadStatusUploaded
	UploadStatusProcessing = content.UploadStatusProcessing
	UploadStatusParsed     = content.UploadStatusParsed
	UploadStatusFailed     = content.UploadStatusFailed

	JobQueued    = jobs.JobQueued
	JobRunning   = jobs.JobRunning
	JobCompleted = jobs.JobCompleted
	JobFailed    = jobs.JobFailed
	JobCanceled  = jobs.JobCanceled

	StageUpload         = jobs.StageUpload
	StageParse          = jobs.StageParse
	StageAnalyze        = jobs.StageAnalyze
	StageSegment        = jobs.StageSegment
	StageVisualGenerate = jobs.StageVisualGenerate
	StageRender         = jobs.StageRender
)

// AllModels is the migration order: referenced tables before
// referencing ones.
func AllModels() []any {
	return []any{
		&content.Project{},
		&content.Document{},
		&content.DocumentPage{},
		&content.ContentBlock{},
		&content.MediaAsset{},
		&content.ExtractedEntity{},
		&editorial.Segment{},
		&editorial.SegmentSource{},
		&editorial.VideoScript{},
		&editorial.ScriptSegment{},
		&visuals.VisualTemplate{},
		&visuals.GeneratedVisual{},
		&visuals.Video{},
		&visuals.VideoSegment{},
		&visuals.VideoAnalytics{},
		&visuals.ABTest{},
		&jobs.ProcessingJob{},
	}
}
