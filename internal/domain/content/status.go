package content

// UploadStatus is the Document lifecycle status.
type UploadStatus string

const (
	UploadStatusUploaded   UploadStatus = "uploaded"
	UploadStatusProcessing UploadStatus = "processing"
	UploadStatusParsed     UploadStatus = "parsed"
	UploadStatusFailed     UploadStatus = "failed"
)

var uploadTransitions = map[UploadStatus][]UploadStatus{
	UploadStatusUploaded:   {UploadStatusProcessing, UploadStatusFailed},
	UploadStatusProcessing: {UploadStatusParsed, UploadStatusFailed},
	UploadStatusParsed:     {UploadStatusProcessing}, // re-parse
	UploadStatusFailed:     {UploadStatusProcessing},
}

func (s UploadStatus) Valid() bool {
	_, ok := uploadTransitions[s]
	return ok
}

// CanTransition reports whether s may move to next.
func (s UploadStatus) CanTransition(next UploadStatus) bool {
	for _, t := range uploadTransitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

// BlockType is the structural kind of a ContentBlock.
type BlockType string

const (
	BlockTypeHeading   BlockType = "heading"
	BlockTypeParagraph BlockType = "paragraph"
	BlockTypeList      BlockType = "list"
	BlockTypeTable     BlockType = "table"
	BlockTypeFigure    BlockType = "figure"
	BlockTypeQuote     BlockType = "quote"
	BlockTypeCode      BlockType = "code"
)

// EntityType is the kind of an ExtractedEntity.
type EntityType string

const (
	EntityTypeQuote      EntityType = "quote"
	EntityTypeStatistic  EntityType = "statistic"
	EntityTypeKeyConcept EntityType = "key_concept"
)

// FileType is the source document format.
type FileType string

const (
	FileTypePDF      FileType = "pdf"
	FileTypeText     FileType = "text"
	FileTypeMarkdown FileType = "markdown"
	FileTypeURL      FileType = "url"
)
