package editorial

// SegmentStatus is the editorial lifecycle of a Segment.
type SegmentStatus string

const (
	SegmentStatusDraft     SegmentStatus = "draft"
	SegmentStatusGenerated SegmentStatus = "generated"
	SegmentStatusEdited    SegmentStatus = "edited"
	SegmentStatusApproved  SegmentStatus = "approved"
	SegmentStatusArchived  SegmentStatus = "archived"
)

var segmentTransitions = map[SegmentStatus][]SegmentStatus{
	SegmentStatusDraft:     {SegmentStatusGenerated, SegmentStatusArchived},
	SegmentStatusGenerated: {SegmentStatusEdited, SegmentStatusApproved, SegmentStatusArchived},
	SegmentStatusEdited:    {SegmentStatusApproved, SegmentStatusArchived},
	SegmentStatusApproved:  {SegmentStatusArchived},
	SegmentStatusArchived:  {},
}

func (s SegmentStatus) Valid() bool {
	_, ok := segmentTransitions[s]
	return ok
}

func (s SegmentStatus) CanTransition(next SegmentStatus) bool {
	for _, t := range segmentTransitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

// ScriptStatus is the review state of a VideoScript.
type ScriptStatus string

const (
	ScriptStatusGenerated ScriptStatus = "generated"
	ScriptStatusApproved  ScriptStatus = "approved"
	ScriptStatusRejected  ScriptStatus = "rejected"
)

var scriptTransitions = map[ScriptStatus][]ScriptStatus{
	ScriptStatusGenerated: {ScriptStatusApproved, ScriptStatusRejected},
	ScriptStatusApproved:  {ScriptStatusRejected},
	ScriptStatusRejected:  {ScriptStatusApproved},
}

func (s ScriptStatus) Valid() bool {
	_, ok := scriptTransitions[s]
	return ok
}

func (s ScriptStatus) CanTransition(next ScriptStatus) bool {
	for _, t := range scriptTransitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

// ScriptSegmentType classifies a ScriptSegment's narrative role.
type ScriptSegmentType string

const (
	ScriptSegmentHook       ScriptSegmentType = "hook"
	ScriptSegmentContent    ScriptSegmentType = "content"
	ScriptSegmentTransition ScriptSegmentType = "transition"
	ScriptSegmentConclusion ScriptSegmentType = "conclusion"
	ScriptSegmentCTA        ScriptSegmentType = "cta"
)

func (t ScriptSegmentType) Valid() bool {
	switch t {
	case ScriptSegmentHook, ScriptSegmentContent, ScriptSegmentTransition, ScriptSegmentConclusion, ScriptSegmentCTA:
		return true
	}
	return false
}
