package visuals

// VisualStatus is the generation lifecycle of a GeneratedVisual.
type VisualStatus string

const (
	VisualStatusQueued     VisualStatus = "queued"
	VisualStatusGenerating VisualStatus = "generating"
	VisualStatusReady      VisualStatus = "ready"
	VisualStatusFailed     VisualStatus = "failed"
)

var visualTransitions = map[VisualStatus][]VisualStatus{
	VisualStatusQueued:     {VisualStatusGenerating, VisualStatusFailed},
	VisualStatusGenerating: {VisualStatusReady, VisualStatusFailed},
	VisualStatusReady:      {},
	VisualStatusFailed:     {VisualStatusQueued},
}

func (s VisualStatus) Valid() bool {
	_, ok := visualTransitions[s]
	return ok
}

func (s VisualStatus) CanTransition(next VisualStatus) bool {
	for _, t := range visualTransitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transition is expected.
func (s VisualStatus) Terminal() bool {
	return s == VisualStatusReady
}

// VideoStatus is the render lifecycle of a Video.
type VideoStatus string

const (
	VideoStatusQueued    VideoStatus = "queued"
	VideoStatusRendering VideoStatus = "rendering"
	VideoStatusCompleted VideoStatus = "completed"
	VideoStatusFailed    VideoStatus = "failed"
)

var videoTransitions = map[VideoStatus][]VideoStatus{
	VideoStatusQueued:    {VideoStatusRendering, VideoStatusFailed},
	VideoStatusRendering: {VideoStatusCompleted, VideoStatusFailed},
	VideoStatusCompleted: {},
	VideoStatusFailed:    {VideoStatusQueued},
}

func (s VideoStatus) Valid() bool {
	_, ok := videoTransitions[s]
	return ok
}

func (s VideoStatus) CanTransition(next VideoStatus) bool {
	for _, t := range videoTransitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

func (s VideoStatus) Terminal() bool {
	return s == VideoStatusCompleted || s == VideoStatusFailed
}

// VisualType classifies what a GeneratedVisual depicts.
type VisualType string

const (
	VisualTypeQuoteCard  VisualType = "quote_card"
	VisualTypeStatCard   VisualType = "stat_card"
	VisualTypeTitleCard  VisualType = "title_card"
	VisualTypeBackground VisualType = "background"
	VisualTypeChart      VisualType = "chart"
)

func (t VisualType) Valid() bool {
	switch t {
	case VisualTypeQuoteCard, VisualTypeStatCard, VisualTypeTitleCard, VisualTypeBackground, VisualTypeChart:
		return true
	}
	return false
}
