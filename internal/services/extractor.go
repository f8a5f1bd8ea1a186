package services

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/paperclip-video/paperclip-backend/internal/clients/gcp"
	types "github.com/paperclip-video/paperclip-backend/internal/domain"
	domcontent "github.com/paperclip-video/paperclip-backend/internal/domain/content"
	apperrors "github.com/paperclip-video/paperclip-backend/internal/pkg/errors"
	"github.com/paperclip-video/paperclip-backend/internal/platform/logger"
)

// TextExtractor turns a stored source document into plain text with
// form feeds between pages. Markdown structure is preserved where the
// source format carries it so downstream block classification can see
// headings, quotes and lists.
type TextExtractor interface {
	Extract(ctx context.Context, doc *types.Document, raw []byte) (string, error)
}

type textExtractor struct {
	log   *logger.Logger
	docAI gcp.Document

	docaiProjectID   string
	docaiLocation    string
	docaiProcessorID string

	httpClient *http.Client
}

// NewTextExtractor builds the default extractor. docAI may be nil, in
// which case PDF extraction returns a permanent error.
func NewTextExtractor(log *logger.Logger, docAI gcp.Document) TextExtractor {
	return &textExtractor{
		log:              log.With("service", "TextExtractor"),
		docAI:            docAI,
		docaiProjectID:   strings.TrimSpace(os.Getenv("DOCAI_PROJECT_ID")),
		docaiLocation:    strings.TrimSpace(os.Getenv("DOCUMENTAI_LOCATION")),
		docaiProcessorID: strings.TrimSpace(os.Getenv("DOCAI_PROCESSOR_ID")),
		httpClient:       &http.Client{Timeout: 30 * time.Second},
	}
}

func (e *textExtractor) Extract(ctx context.Context, doc *types.Document, raw []byte) (string, error) {
	switch doc.FileType {
	case domcontent.FileTypeText, domcontent.FileTypeMarkdown:
		return string(raw), nil
	case domcontent.FileTypePDF:
		return e.extractPDF(ctx, doc, raw)
	case domcontent.FileTypeURL:
		return e.extractURL(ctx, doc, raw)
	default:
		return "", apperrors.Permanentf("unsupported file type %q", doc.FileType)
	}
}

func (e *textExtractor) extractPDF(ctx context.Context, doc *types.Document, raw []byte) (string, error) {
	if e.docAI == nil {
		return "", apperrors.Permanentf("pdf extraction not configured")
	}
	if e.docaiProjectID == "" || e.docaiProcessorID == "" {
		return "", apperrors.Permanentf("pdf extraction missing DOCAI_PROJECT_ID or DOCAI_PROCESSOR_ID")
	}
	location := e.docaiLocation
	if location == "" {
		location = "us"
	}

	res, err := e.docAI.ProcessBytes(ctx, gcp.DocAIProcessBytesRequest{
		ProjectID:   e.docaiProjectID,
		Location:    location,
		ProcessorID: e.docaiProcessorID,
		MimeType:    "application/pdf",
		Data:        raw,
		FieldMask:   []string{"text", "pages.page_number", "pages.paragraphs", "pages.tables"},
	})
	if err != nil {
		return "", fmt.Errorf("documentai extract for %s: %w", doc.ID, err)
	}
	text := res.PageDelimitedText()
	if strings.TrimSpace(text) == "" {
		return "", apperrors.Permanentf("pdf %s produced no text", doc.ID)
	}
	for _, w := range res.Warnings {
		e.log.Warn("documentai warning", "document_id", doc.ID, "warning", w)
	}
	return text, nil
}

// extractURL fetches the page when no body was stored at upload time,
// then flattens the HTML to markdown-ish text.
func (e *textExtractor) extractURL(ctx context.Context, doc *types.Document, raw []byte) (string, error) {
	body := raw
	if len(body) == 0 {
		u := strings.TrimSpace(doc.FileURL)
		if u == "" {
			return "", apperrors.Permanentf("url document %s has no source url", doc.ID)
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return "", apperrors.Permanentf("bad source url %q: %v", u, err)
		}
		resp, err := e.httpClient.Do(req)
		if err != nil {
			return "", fmt.Errorf("fetch %q: %w", u, err)
		}
		defer resp.Body.Close()
		if resp.StatusCode >= 500 {
			return "", apperrors.Transientf("fetch %q: status %d", u, resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			return "", apperrors.Permanentf("fetch %q: status %d", u, resp.StatusCode)
		}
		body, err = io.ReadAll(io.LimitReader(resp.Body, 10<<20))
		if err != nil {
			return "", fmt.Errorf("read %q: %w", u, err)
		}
	}

	text := htmlToText(string(body))
	if strings.TrimSpace(text) == "" {
		return "", apperrors.Permanentf("url document %s produced no text", doc.ID)
	}
	return text, nil
}

// htmlToText walks the token stream, keeping structural hints: headings
// come out as markdown headings, blockquotes as quote lines, list items
// as bullets. Script and style subtrees are dropped.
func htmlToText(src string) string {
	tz := html.NewTokenizer(strings.NewReader(src))

	var out strings.Builder
	var skipDepth int
	inQuote := false
	headingDepth := 0
	inListItem := false

	flushBlock := func() {
		s := out.String()
		if !strings.HasSuffix(s, "\n\n") && out.Len() > 0 {
			out.WriteString("\n\n")
		}
	}

	for {
		tt := tz.Next()
		switch tt {
		case html.ErrorToken:
			return strings.TrimSpace(out.String())
		case html.StartTagToken:
			name, _ := tz.TagName()
			switch tag := string(name); tag {
			case "script", "style", "nav", "footer", "noscript":
				skipDepth++
			case "h1", "h2", "h3", "h4", "h5", "h6":
				flushBlock()
				headingDepth = int(tag[1] - '0')
				out.WriteString(strings.Repeat("#", headingDepth) + " ")
			case "blockquote":
				flushBlock()
				inQuote = true
			case "li":
				if !strings.HasSuffix(out.String(), "\n") && out.Len() > 0 {
					out.WriteString("\n")
				}
				out.WriteString("- ")
				inListItem = true
			case "p", "div", "br", "tr":
				flushBlock()
				if inQuote {
					out.WriteString("> ")
				}
			}
		case html.EndTagToken:
			name, _ := tz.TagName()
			switch tag := string(name); tag {
			case "script", "style", "nav", "footer", "noscript":
				if skipDepth > 0 {
					skipDepth--
				}
			case "h1", "h2", "h3", "h4", "h5", "h6":
				headingDepth = 0
				flushBlock()
			case "blockquote":
				inQuote = false
				flushBlock()
			case "li":
				inListItem = false
			}
		case html.TextToken:
			if skipDepth > 0 {
				break
			}
			text := strings.Join(strings.Fields(string(tz.Text())), " ")
			if text == "" {
				break
			}
			s := out.String()
			if out.Len() > 0 && !strings.HasSuffix(s, "\n") && !strings.HasSuffix(s, " ") {
				out.WriteString(" ")
			}
			out.WriteString(text)
			if inListItem {
				out.WriteString("\n")
				inListItem = false
			}
		}
	}
}
