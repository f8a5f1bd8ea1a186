package decompose

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	repocontent "github.com/paperclip-video/paperclip-backend/internal/data/repos/content"
	types "github.com/paperclip-video/paperclip-backend/internal/domain"
	domcontent "github.com/paperclip-video/paperclip-backend/internal/domain/content"
)

// Document splits raw extracted text into pages and typed blocks.
// Pages break on form feed; a document without form feeds is one
// page. Block order_index increases monotonically across the whole
// document, so the reading order survives page boundaries. The result
// is deterministic for identical input text.
func Document(documentID uuid.UUID, text string) *repocontent.Decomposition {
	out := &repocontent.Decomposition{}

	pages := strings.Split(text, "\f")
	orderIndex := 0
	headingLevel := 0

	for i, pageText := range pages {
		pageText = strings.TrimRight(pageText, "\n")
		page := &types.DocumentPage{
			ID:         uuid.New(),
			DocumentID: documentID,
			PageNumber: i + 1,
			Text:       pageText,
		}
		out.Pages = append(out.Pages, page)

		for _, para := range splitParagraphs(pageText) {
			blockType, level := classify(para, headingLevel)
			if blockType == domcontent.BlockTypeHeading {
				headingLevel = level
			}
			out.Blocks = append(out.Blocks, &types.ContentBlock{
				ID:             uuid.New(),
				DocumentID:     documentID,
				PageID:         &page.ID,
				BlockType:      blockType,
				Text:           cleanBlockText(para, blockType),
				OrderIndex:     orderIndex,
				HierarchyLevel: level,
				Metadata:       datatypes.JSON([]byte("{}")),
			})
			orderIndex++
		}
	}
	return out
}

func splitParagraphs(pageText string) []string {
	var out []string
	var current []string
	inFence := false

	flush := func() {
		if len(current) == 0 {
			return
		}
		p := strings.TrimRight(strings.Join(current, "\n"), " \t\n")
		if strings.TrimSpace(p) != "" {
			out = append(out, p)
		}
		current = nil
	}

	for _, line := range strings.Split(pageText, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") {
			current = append(current, line)
			if inFence {
				inFence = false
				flush()
			} else {
				inFence = true
			}
			continue
		}
		if inFence {
			current = append(current, line)
			continue
		}
		if trimmed == "" {
			flush()
			continue
		}
		current = append(current, line)
	}
	flush()
	return out
}

// classify types a paragraph and assigns its hierarchy level. Heading
// levels come from markdown depth or numbering depth; body blocks sit
// one level under the heading currently in scope.
func classify(para string, currentHeading int) (domcontent.BlockType, int) {
	lines := strings.Split(para, "\n")
	first := strings.TrimSpace(lines[0])

	if strings.HasPrefix(first, "```") {
		return domcontent.BlockTypeCode, currentHeading + 1
	}
	if allLinesIndented(lines, 4) {
		return domcontent.BlockTypeCode, currentHeading + 1
	}
	if strings.HasPrefix(first, ">") {
		return domcontent.BlockTypeQuote, currentHeading + 1
	}
	if n := markdownHeadingDepth(first); n > 0 && len(lines) == 1 {
		return domcontent.BlockTypeHeading, n
	}
	if d := numberedHeadingDepth(first); d > 0 && len(lines) == 1 && len(first) < 120 {
		return domcontent.BlockTypeHeading, d
	}
	if len(lines) == 1 && len(first) < 80 && isMostlyUpper(first) {
		level := currentHeading
		if level < 1 {
			level = 1
		}
		return domcontent.BlockTypeHeading, level
	}
	if isTable(lines) {
		return domcontent.BlockTypeTable, currentHeading + 1
	}
	if isList(lines) {
		return domcontent.BlockTypeList, currentHeading + 1
	}
	return domcontent.BlockTypeParagraph, currentHeading + 1
}

func cleanBlockText(para string, bt domcontent.BlockType) string {
	if bt != domcontent.BlockTypeHeading {
		return para
	}
	s := strings.TrimSpace(para)
	s = strings.TrimLeft(s, "#")
	return strings.TrimSpace(s)
}

func markdownHeadingDepth(line string) int {
	n := 0
	for _, r := range line {
		if r == '#' {
			n++
			continue
		}
		break
	}
	if n == 0 || n > 6 {
		return 0
	}
	if len(line) <= n || line[n] != ' ' {
		return 0
	}
	return n
}

// numberedHeadingDepth detects "2.", "3.1", "4.2.1 Title" style
// section headings; the depth is the number of numeric components.
func numberedHeadingDepth(line string) int {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return 0
	}
	numPart := strings.TrimSuffix(fields[0], ".")
	parts := strings.Split(numPart, ".")
	for _, p := range parts {
		if _, err := strconv.Atoi(p); err != nil {
			return 0
		}
	}
	// Require a capitalized title to avoid eating "1. " list items.
	rest := strings.TrimSpace(strings.TrimPrefix(line, fields[0]))
	if rest == "" {
		return 0
	}
	r := []rune(rest)[0]
	if !unicode.IsUpper(r) {
		return 0
	}
	if len(parts) == 1 {
		// A single "1. Something" is ambiguous with a list; treat as a
		// heading only when short.
		if len(line) >= 60 {
			return 0
		}
	}
	return len(parts)
}

// allLinesIndented reports whether every non-blank line starts with at
// least n columns of whitespace, a tab counting as a full stop. Used to
// spot indented code blocks that carry no fence.
func allLinesIndented(lines []string, n int) bool {
	seen := false
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		seen = true
		width := 0
		for _, r := range line {
			if r == ' ' {
				width++
			} else if r == '\t' {
				width += n
			} else {
				break
			}
			if width >= n {
				break
			}
		}
		if width < n {
			return false
		}
	}
	return seen
}

func isMostlyUpper(s string) bool {
	letters, uppers := 0, 0
	for _, r := range s {
		if unicode.IsLetter(r) {
			letters++
			if unicode.IsUpper(r) {
				uppers++
			}
		}
	}
	return letters >= 3 && uppers*10 >= letters*9
}

func isList(lines []string) bool {
	matched := 0
	for _, line := range lines {
		t := strings.TrimSpace(line)
		if t == "" {
			continue
		}
		if strings.HasPrefix(t, "- ") || strings.HasPrefix(t, "* ") || strings.HasPrefix(t, "• ") {
			matched++
			continue
		}
		if i := strings.IndexAny(t, ".)"); i > 0 && i <= 3 {
			if _, err := strconv.Atoi(t[:i]); err == nil {
				matched++
				continue
			}
		}
	}
	return matched > 0 && matched*2 >= len(lines)
}

func isTable(lines []string) bool {
	if len(lines) < 2 {
		return false
	}
	piped := 0
	for _, line := range lines {
		t := strings.TrimSpace(line)
		if strings.Count(t, "|") >= 2 || strings.Count(line, "\t") >= 2 {
			piped++
		}
	}
	return piped*2 >= len(lines)
}
