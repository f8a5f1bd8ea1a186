package services

import (
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/paperclip-video/paperclip-backend/internal/config"
	types "github.com/paperclip-video/paperclip-backend/internal/domain"
	domcontent "github.com/paperclip-video/paperclip-backend/internal/domain/content"
	"github.com/paperclip-video/paperclip-backend/internal/platform/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return log
}

func testLimits(t *testing.T) config.Limits {
	t.Helper()
	return config.LoadPipelineSpec(testLogger(t)).Limits
}

func TestSegmentizerPlan(t *testing.T) {
	projectID := uuid.New()
	docID := uuid.New()

	longBody := strings.Repeat("words keep the narration moving along nicely here ", 20)
	blocks := []*types.ContentBlock{
		block(docID, domcontent.BlockTypeHeading, 0, "Why It Matters"),
		block(docID, domcontent.BlockTypeParagraph, 1, "Adoption grew 42% in a single quarter. "+longBody),
		block(docID, domcontent.BlockTypeHeading, 2, "How It Works"),
		block(docID, domcontent.BlockTypeParagraph, 3, longBody),
	}
	entities, err := NewHeuristicAnalyzer().Analyze(docID, blocks)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	plan := NewSegmentizer(testLimits(t)).Plan(projectID, docID, blocks, entities, 0)

	if len(plan.Segments) != 2 {
		t.Fatalf("segments = %d, want 2", len(plan.Segments))
	}
	for i, seg := range plan.Segments {
		if seg.OrderIndex != i {
			t.Fatalf("segment %d has order_index %d", i, seg.OrderIndex)
		}
		if err := seg.Validate(); err != nil {
			t.Fatalf("segment %d invalid: %v", i, err)
		}
		if seg.DurationSeconds == nil || *seg.DurationSeconds < 5 || *seg.DurationSeconds > 120 {
			t.Fatalf("segment %d duration out of window: %v", i, seg.DurationSeconds)
		}
	}
	if plan.Segments[0].Title != "Why It Matters" {
		t.Fatalf("segment title = %q", plan.Segments[0].Title)
	}
	if plan.Segments[0].HookText != "42%" {
		t.Fatalf("hook = %q, want the statistic", plan.Segments[0].HookText)
	}

	bySegment := map[uuid.UUID]int{}
	for _, src := range plan.Sources {
		if err := src.Validate(); err != nil {
			t.Fatalf("source invalid: %v", err)
		}
		bySegment[src.SegmentID]++
	}
	for _, seg := range plan.Segments {
		if bySegment[seg.ID] < 2 {
			t.Fatalf("segment %s has %d provenance edges, want document + blocks", seg.ID, bySegment[seg.ID])
		}
	}
}

func TestSegmentizerMergesThinSections(t *testing.T) {
	projectID := uuid.New()
	docID := uuid.New()

	blocks := []*types.ContentBlock{
		block(docID, domcontent.BlockTypeHeading, 0, "Main"),
		block(docID, domcontent.BlockTypeParagraph, 1, strings.Repeat("steady narration flows through this entire section ", 10)),
		block(docID, domcontent.BlockTypeHeading, 2, "Stub"),
		block(docID, domcontent.BlockTypeParagraph, 3, "Too short."),
	}

	plan := NewSegmentizer(testLimits(t)).Plan(projectID, docID, blocks, nil, 0)

	if len(plan.Segments) != 1 {
		t.Fatalf("segments = %d, want thin section merged into 1", len(plan.Segments))
	}
	if !strings.Contains(plan.Segments[0].ContentText, "Too short.") {
		t.Fatalf("merged text missing stub content")
	}
}
