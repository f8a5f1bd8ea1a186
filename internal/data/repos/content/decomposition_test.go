package content

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/paperclip-video/paperclip-backend/internal/data/repos/testutil"
	types "github.com/paperclip-video/paperclip-backend/internal/domain"
	"github.com/paperclip-video/paperclip-backend/internal/platform/dbctx"
)

func TestDecompositionReplaceIsIdempotent(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewDecompositionRepo(db, testutil.Logger(t))

	project := testutil.SeedProject(t, ctx, tx, "decomp")
	doc := testutil.SeedDocument(t, ctx, tx, project.ID, "doc.pdf")

	build := func(blockText string) *Decomposition {
		page := &types.DocumentPage{ID: uuid.New(), DocumentID: doc.ID, PageNumber: 1, Text: blockText}
		block := &types.ContentBlock{
			ID: uuid.New(), DocumentID: doc.ID, PageID: &page.ID,
			BlockType: "paragraph", Text: blockText, OrderIndex: 0,
			Metadata: datatypes.JSON([]byte("{}")),
		}
		entity := &types.ExtractedEntity{
			ID: uuid.New(), DocumentID: doc.ID, BlockID: &block.ID,
			EntityType: "key_concept", RawText: blockText,
			Normalized: datatypes.JSON([]byte("{}")), Confidence: 0.8,
		}
		return &Decomposition{
			Pages:    []*types.DocumentPage{page},
			Blocks:   []*types.ContentBlock{block},
			Entities: []*types.ExtractedEntity{entity},
		}
	}

	if err := repo.Replace(dbc, doc.ID, build("first pass")); err != nil {
		t.Fatalf("Replace #1: %v", err)
	}
	if err := repo.Replace(dbc, doc.ID, build("second pass")); err != nil {
		t.Fatalf("Replace #2: %v", err)
	}

	blocks, err := repo.GetBlocks(dbc, doc.ID)
	if err != nil {
		t.Fatalf("GetBlocks: %v", err)
	}
	if len(blocks) != 1 {
		t.Fatalf("blocks = %d, want 1 after replace", len(blocks))
	}
	if blocks[0].Text != "second pass" {
		t.Fatalf("block text = %q, want second pass", blocks[0].Text)
	}

	pages, err := repo.GetPages(dbc, doc.ID)
	if err != nil || len(pages) != 1 {
		t.Fatalf("GetPages: err=%v len=%d", err, len(pages))
	}
	entities, err := repo.GetEntities(dbc, doc.ID)
	if err != nil || len(entities) != 1 {
		t.Fatalf("GetEntities: err=%v len=%d", err, len(entities))
	}
}

func TestDocumentProjections(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewDecompositionRepo(db, testutil.Logger(t))

	project := testutil.SeedProject(t, ctx, tx, "projections")
	doc := testutil.SeedDocument(t, ctx, tx, project.ID, "doc.pdf")

	page1 := &types.DocumentPage{ID: uuid.New(), DocumentID: doc.ID, PageNumber: 1, Text: "intro"}
	page2 := &types.DocumentPage{ID: uuid.New(), DocumentID: doc.ID, PageNumber: 2, Text: "findings"}
	blockA := &types.ContentBlock{
		ID: uuid.New(), DocumentID: doc.ID, PageID: &page1.ID,
		BlockType: "heading", Text: "Intro", OrderIndex: 0, HierarchyLevel: 1,
		Metadata: datatypes.JSON([]byte("{}")),
	}
	blockB := &types.ContentBlock{
		ID: uuid.New(), DocumentID: doc.ID, PageID: &page2.ID,
		BlockType: "paragraph", Text: "Revenue grew 42% year over year.", OrderIndex: 1,
		Metadata: datatypes.JSON([]byte("{}")),
	}
	asset := &types.MediaAsset{
		ID: uuid.New(), DocumentID: doc.ID, PageID: &page2.ID, BlockID: &blockB.ID,
		AssetType: "chart", StorageKey: "documents/p/d/chart.png", Checksum: "abc",
	}
	entity := &types.ExtractedEntity{
		ID: uuid.New(), DocumentID: doc.ID, BlockID: &blockB.ID,
		EntityType: "statistic", RawText: "42%",
		Normalized: datatypes.JSON([]byte(`{"value":42,"type":"percentage"}`)),
		Confidence: 0.9,
	}
	err := repo.Replace(dbc, doc.ID, &Decomposition{
		Pages:    []*types.DocumentPage{page1, page2},
		Blocks:   []*types.ContentBlock{blockA, blockB},
		Assets:   []*types.MediaAsset{asset},
		Entities: []*types.ExtractedEntity{entity},
	})
	if err != nil {
		t.Fatalf("Replace: %v", err)
	}

	content, err := repo.GetDocumentContent(dbc, doc.ID)
	if err != nil {
		t.Fatalf("GetDocumentContent: %v", err)
	}
	if len(content) != 2 {
		t.Fatalf("content rows = %d, want 2", len(content))
	}
	if content[0].PageNumber != 1 || content[1].PageNumber != 2 {
		t.Fatalf("page numbers = %d,%d", content[0].PageNumber, content[1].PageNumber)
	}
	if content[0].OrderIndex > content[1].OrderIndex {
		t.Fatal("content rows out of reading order")
	}

	assets, err := repo.GetDocumentAssets(dbc, doc.ID)
	if err != nil {
		t.Fatalf("GetDocumentAssets: %v", err)
	}
	if len(assets) != 1 {
		t.Fatalf("asset rows = %d, want 1", len(assets))
	}
	if assets[0].PageNumber == nil || *assets[0].PageNumber != 2 {
		t.Fatalf("asset page = %v, want 2", assets[0].PageNumber)
	}
	if assets[0].BlockID == nil || *assets[0].BlockID != blockB.ID {
		t.Fatal("asset lost its block ref")
	}

	points, err := repo.GetDocumentDataPoints(dbc, doc.ID)
	if err != nil {
		t.Fatalf("GetDocumentDataPoints: %v", err)
	}
	if len(points) != 1 {
		t.Fatalf("data point rows = %d, want 1", len(points))
	}
	if points[0].Value == nil || *points[0].Value != 42 {
		t.Fatalf("value = %v, want 42", points[0].Value)
	}
	if points[0].ValueType != "percentage" {
		t.Fatalf("value type = %q", points[0].ValueType)
	}
}

func TestDocumentDeleteNullsProvenance(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	docs := NewDocumentRepo(db, testutil.Logger(t))

	project := testutil.SeedProject(t, ctx, tx, "provenance")
	doc := testutil.SeedDocument(t, ctx, tx, project.ID, "doc.pdf")
	block := testutil.SeedBlock(t, ctx, tx, doc.ID, 0, "quoted text")
	segment := testutil.SeedSegment(t, ctx, tx, project.ID, 0)

	source := &types.SegmentSource{
		ID:         uuid.New(),
		SegmentID:  segment.ID,
		DocumentID: &doc.ID,
		BlockID:    &block.ID,
		Weight:     0.9,
	}
	if err := tx.WithContext(ctx).Create(source).Error; err != nil {
		t.Fatalf("seed segment source: %v", err)
	}

	if err := docs.Delete(dbc, doc.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	var got types.SegmentSource
	if err := tx.WithContext(ctx).Where("id = ?", source.ID).First(&got).Error; err != nil {
		t.Fatalf("provenance edge should survive document delete: %v", err)
	}
	if got.DocumentID != nil || got.BlockID != nil {
		t.Fatalf("weak refs not nulled: doc=%v block=%v", got.DocumentID, got.BlockID)
	}
	if got.Weight != 0.9 {
		t.Fatalf("weight changed: %v", got.Weight)
	}
}
