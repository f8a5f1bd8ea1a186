package decompose

import (
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"

	domcontent "github.com/paperclip-video/paperclip-backend/internal/domain/content"
)

func TestDocumentPagesAndOrdering(t *testing.T) {
	var pages []string
	for i := 1; i <= 10; i++ {
		pages = append(pages, fmt.Sprintf("# Chapter %d\n\nBody text for chapter %d.", i, i))
	}
	text := strings.Join(pages, "\f")
	docID := uuid.New()

	d := Document(docID, text)

	if len(d.Pages) != 10 {
		t.Fatalf("pages = %d, want 10", len(d.Pages))
	}
	for i, p := range d.Pages {
		if p.PageNumber != i+1 {
			t.Fatalf("page %d has number %d", i, p.PageNumber)
		}
		if p.DocumentID != docID {
			t.Fatalf("page %d has wrong document id", i)
		}
	}

	perPage := map[uuid.UUID]int{}
	for i, b := range d.Blocks {
		if b.OrderIndex != i {
			t.Fatalf("block %d has order_index %d, want monotone from 0", i, b.OrderIndex)
		}
		if b.PageID == nil {
			t.Fatalf("block %d has no page", i)
		}
		perPage[*b.PageID]++
	}
	for _, p := range d.Pages {
		if perPage[p.ID] < 1 {
			t.Fatalf("page %d has no blocks", p.PageNumber)
		}
	}
}

func TestDocumentBlockClassification(t *testing.T) {
	text := strings.Join([]string{
		"# Overview",
		"",
		"Plain paragraph about the topic.",
		"",
		"## Findings",
		"",
		"- first item",
		"- second item",
		"- third item",
		"",
		"> Quoted remark from the source.",
		"",
		"```",
		"x := compute()",
		"```",
		"",
		"| col a | col b |",
		"| 1     | 2     |",
	}, "\n")

	d := Document(uuid.New(), text)

	var got []domcontent.BlockType
	for _, b := range d.Blocks {
		got = append(got, b.BlockType)
	}
	want := []domcontent.BlockType{
		domcontent.BlockTypeHeading,
		domcontent.BlockTypeParagraph,
		domcontent.BlockTypeHeading,
		domcontent.BlockTypeList,
		domcontent.BlockTypeQuote,
		domcontent.BlockTypeCode,
		domcontent.BlockTypeTable,
	}
	if len(got) != len(want) {
		t.Fatalf("blocks = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("block %d = %q, want %q (%q)", i, got[i], want[i], d.Blocks[i].Text)
		}
	}

	if d.Blocks[0].HierarchyLevel != 1 {
		t.Fatalf("h1 level = %d", d.Blocks[0].HierarchyLevel)
	}
	if d.Blocks[2].HierarchyLevel != 2 {
		t.Fatalf("h2 level = %d", d.Blocks[2].HierarchyLevel)
	}
	if d.Blocks[3].HierarchyLevel != 3 {
		t.Fatalf("list under h2 level = %d, want 3", d.Blocks[3].HierarchyLevel)
	}
	if d.Blocks[0].Text != "Overview" {
		t.Fatalf("heading text = %q", d.Blocks[0].Text)
	}
}

func TestDocumentIndentedCodeBlock(t *testing.T) {
	text := strings.Join([]string{
		"Intro paragraph.",
		"",
		"    result = compute()",
		"    print(result)",
		"",
		"\tcfg := load()",
		"",
		"  only two spaces, still prose.",
	}, "\n")

	d := Document(uuid.New(), text)

	if len(d.Blocks) != 4 {
		t.Fatalf("blocks = %d, want 4", len(d.Blocks))
	}
	if d.Blocks[1].BlockType != domcontent.BlockTypeCode {
		t.Fatalf("indented block = %q, want code", d.Blocks[1].BlockType)
	}
	if d.Blocks[2].BlockType != domcontent.BlockTypeCode {
		t.Fatalf("tab-indented block = %q, want code", d.Blocks[2].BlockType)
	}
	if d.Blocks[3].BlockType == domcontent.BlockTypeCode {
		t.Fatal("shallow indent misread as code")
	}
}

func TestDocumentIsDeterministic(t *testing.T) {
	text := "# Title\n\nSome body.\n\n- a\n- b"
	docID := uuid.New()

	a := Document(docID, text)
	b := Document(docID, text)

	if len(a.Blocks) != len(b.Blocks) {
		t.Fatalf("block counts differ: %d vs %d", len(a.Blocks), len(b.Blocks))
	}
	for i := range a.Blocks {
		if a.Blocks[i].BlockType != b.Blocks[i].BlockType ||
			a.Blocks[i].Text != b.Blocks[i].Text ||
			a.Blocks[i].OrderIndex != b.Blocks[i].OrderIndex ||
			a.Blocks[i].HierarchyLevel != b.Blocks[i].HierarchyLevel {
			t.Fatalf("block %d differs between runs", i)
		}
	}
}
