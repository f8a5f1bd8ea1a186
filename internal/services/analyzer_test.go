package services

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"

	types "github.com/paperclip-video/paperclip-backend/internal/domain"
	domcontent "github.com/paperclip-video/paperclip-backend/internal/domain/content"
)

func block(docID uuid.UUID, bt domcontent.BlockType, order int, text string) *types.ContentBlock {
	return &types.ContentBlock{
		ID:         uuid.New(),
		DocumentID: docID,
		BlockType:  bt,
		Text:       text,
		OrderIndex: order,
	}
}

func TestHeuristicAnalyzerStatistics(t *testing.T) {
	docID := uuid.New()
	b := block(docID, domcontent.BlockTypeParagraph, 0, "Revenue grew 42% while costs fell to $3.5 million across 12,000 customers.")

	entities, err := NewHeuristicAnalyzer().Analyze(docID, []*types.ContentBlock{b})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	var stats []*types.ExtractedEntity
	for _, e := range entities {
		if e.EntityType == domcontent.EntityTypeStatistic {
			stats = append(stats, e)
		}
	}
	if len(stats) != 3 {
		t.Fatalf("statistics = %d, want 3 (%+v)", len(stats), stats)
	}

	var norm map[string]any
	if err := json.Unmarshal(stats[0].Normalized, &norm); err != nil {
		t.Fatalf("normalized: %v", err)
	}
	if norm["type"] != "percentage" || norm["value"] != 42.0 {
		t.Fatalf("percentage normalized = %v", norm)
	}
	if stats[0].RawText != "42%" {
		t.Fatalf("raw = %q", stats[0].RawText)
	}
	if got := b.Text[stats[0].SpanStart:stats[0].SpanEnd]; got != stats[0].RawText {
		t.Fatalf("span %q does not match raw %q", got, stats[0].RawText)
	}

	for _, e := range stats {
		if e.BlockID == nil || *e.BlockID != b.ID {
			t.Fatalf("statistic not anchored to its block")
		}
		if e.Confidence <= 0 || e.Confidence > 1 {
			t.Fatalf("confidence out of range: %v", e.Confidence)
		}
	}
}

func TestHeuristicAnalyzerQuotesAndConcepts(t *testing.T) {
	docID := uuid.New()
	blocks := []*types.ContentBlock{
		block(docID, domcontent.BlockTypeHeading, 0, "Machine Learning"),
		block(docID, domcontent.BlockTypeParagraph, 1, `The report said "the transition exceeded every internal projection we had set" about Machine Learning.`),
		block(docID, domcontent.BlockTypeQuote, 2, "> Short-form video is the fastest growing format we track."),
		block(docID, domcontent.BlockTypeCode, 3, `fmt.Println("ignored 99%")`),
	}

	entities, err := NewHeuristicAnalyzer().Analyze(docID, blocks)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	byType := map[domcontent.EntityType][]*types.ExtractedEntity{}
	for _, e := range entities {
		byType[e.EntityType] = append(byType[e.EntityType], e)
	}

	if len(byType[domcontent.EntityTypeQuote]) != 2 {
		t.Fatalf("quotes = %d, want 2", len(byType[domcontent.EntityTypeQuote]))
	}
	found := false
	for _, e := range byType[domcontent.EntityTypeKeyConcept] {
		if e.RawText == "Machine Learning" {
			found = true
		}
	}
	if !found {
		t.Fatalf("Machine Learning not promoted to key concept: %+v", byType[domcontent.EntityTypeKeyConcept])
	}

	// Code blocks contribute nothing.
	for _, e := range entities {
		if e.BlockID != nil && *e.BlockID == blocks[3].ID {
			t.Fatalf("entity extracted from code block: %+v", e)
		}
	}
}

func TestHeuristicAnalyzerDeterministic(t *testing.T) {
	docID := uuid.New()
	blocks := []*types.ContentBlock{
		block(docID, domcontent.BlockTypeParagraph, 0, "Growth hit 12% for Data Pipelines and Data Pipelines again."),
	}
	a := NewHeuristicAnalyzer()

	first, err := a.Analyze(docID, blocks)
	if err != nil {
		t.Fatalf("Analyze #1: %v", err)
	}
	second, err := a.Analyze(docID, blocks)
	if err != nil {
		t.Fatalf("Analyze #2: %v", err)
	}
	if len(first) != len(second) {
		t.Fatalf("entity counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].EntityType != second[i].EntityType || first[i].RawText != second[i].RawText {
			t.Fatalf("entity %d differs between runs", i)
		}
	}
}
