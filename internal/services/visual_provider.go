package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image/color"
	"os"
	"strings"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"

	types "github.com/paperclip-video/paperclip-backend/internal/domain"
	domvisuals "github.com/paperclip-video/paperclip-backend/internal/domain/visuals"
	apperrors "github.com/paperclip-video/paperclip-backend/internal/pkg/errors"
	"github.com/paperclip-video/paperclip-backend/internal/platform/logger"
)

// CardSpec is the drawing contract decoded from VisualTemplate.Spec.
// Zero values fall back to the portrait short-form defaults.
type CardSpec struct {
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	Background string  `json:"background"`
	Foreground string  `json:"foreground"`
	Accent     string  `json:"accent"`
	FontSize   float64 `json:"font_size"`
	Padding    float64 `json:"padding"`
	MaxLines   int     `json:"max_lines"`
}

func (s *CardSpec) applyDefaults() {
	if s.Width <= 0 {
		s.Width = 1080
	}
	if s.Height <= 0 {
		s.Height = 1920
	}
	if s.Background == "" {
		s.Background = "#101418"
	}
	if s.Foreground == "" {
		s.Foreground = "#FFFFFF"
	}
	if s.Accent == "" {
		s.Accent = "#4F8EF7"
	}
	if s.FontSize <= 0 {
		s.FontSize = 64
	}
	if s.Padding <= 0 {
		s.Padding = 96
	}
	if s.MaxLines <= 0 {
		s.MaxLines = 12
	}
}

// CardRequest is the content to draw onto a template.
type CardRequest struct {
	VisualType  domvisuals.VisualType
	Title       string
	Body        string
	Attribution string
}

// VisualProvider renders static cards for script segments.
type VisualProvider interface {
	RenderCard(tmpl *types.VisualTemplate, req CardRequest) (bytes.Buffer, CardSpec, error)
}

type templateCardRenderer struct {
	log      *logger.Logger
	ttf      *truetype.Font
	fallback font.Face
}

// NewTemplateCardRenderer loads the card font from VISUAL_FONT when
// set. Without one it degrades to a bitmap face so rendering still
// produces valid output in development.
func NewTemplateCardRenderer(log *logger.Logger) (VisualProvider, error) {
	serviceLog := log.With("service", "TemplateCardRenderer")

	r := &templateCardRenderer{
		log:      serviceLog,
		fallback: basicfont.Face7x13,
	}

	fontPath := strings.TrimSpace(os.Getenv("VISUAL_FONT"))
	if fontPath == "" {
		serviceLog.Warn("VISUAL_FONT not set, using bitmap fallback face")
		return r, nil
	}
	fontBytes, err := os.ReadFile(fontPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read font file: %w", err)
	}
	parsedFont, err := truetype.Parse(fontBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse TTF: %w", err)
	}
	r.ttf = parsedFont
	serviceLog.Info("Card font loaded", "font", fontPath)
	return r, nil
}

func (r *templateCardRenderer) face(size float64) font.Face {
	if r.ttf == nil {
		return r.fallback
	}
	return truetype.NewFace(r.ttf, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
}

func (r *templateCardRenderer) RenderCard(tmpl *types.VisualTemplate, req CardRequest) (bytes.Buffer, CardSpec, error) {
	var buf bytes.Buffer

	spec := CardSpec{}
	if tmpl != nil && len(tmpl.Spec) > 0 {
		if err := json.Unmarshal(tmpl.Spec, &spec); err != nil {
			return buf, spec, apperrors.Permanentf("template %s has malformed spec: %v", tmpl.Name, err)
		}
	}
	spec.applyDefaults()

	dc := gg.NewContext(spec.Width, spec.Height)
	dc.SetHexColor(spec.Background)
	dc.Clear()

	switch req.VisualType {
	case domvisuals.VisualTypeQuoteCard:
		r.drawQuoteCard(dc, spec, req)
	case domvisuals.VisualTypeStatCard:
		r.drawStatCard(dc, spec, req)
	case domvisuals.VisualTypeTitleCard:
		r.drawTitleCard(dc, spec, req)
	case domvisuals.VisualTypeBackground:
		r.drawBackground(dc, spec)
	case domvisuals.VisualTypeChart:
		r.drawChart(dc, spec, req)
	default:
		return buf, spec, apperrors.Permanentf("unsupported visual type %q", req.VisualType)
	}

	if err := dc.EncodePNG(&buf); err != nil {
		return buf, spec, fmt.Errorf("failed to encode PNG: %w", err)
	}
	return buf, spec, nil
}

func (r *templateCardRenderer) drawQuoteCard(dc *gg.Context, spec CardSpec, req CardRequest) {
	w := float64(spec.Width)
	h := float64(spec.Height)

	// Accent bar down the left edge.
	dc.SetHexColor(spec.Accent)
	dc.DrawRectangle(spec.Padding/2, spec.Padding, 12, h-2*spec.Padding)
	dc.Fill()

	dc.SetFontFace(r.face(spec.FontSize * 2))
	dc.SetHexColor(spec.Accent)
	dc.DrawString("“", spec.Padding, spec.Padding+spec.FontSize*2)

	dc.SetFontFace(r.face(spec.FontSize))
	dc.SetHexColor(spec.Foreground)
	body := clampLines(dc, req.Body, w-2*spec.Padding, spec.MaxLines)
	dc.DrawStringWrapped(body, w/2, h/2, 0.5, 0.5, w-2*spec.Padding, 1.4, gg.AlignLeft)

	if req.Attribution != "" {
		dc.SetFontFace(r.face(spec.FontSize * 0.6))
		dc.SetHexColor(spec.Accent)
		dc.DrawStringAnchored("— "+req.Attribution, w-spec.Padding, h-spec.Padding, 1, 1)
	}
}

func (r *templateCardRenderer) drawStatCard(dc *gg.Context, spec CardSpec, req CardRequest) {
	w := float64(spec.Width)
	h := float64(spec.Height)

	// Big number center, label under it.
	dc.SetFontFace(r.face(spec.FontSize * 3))
	dc.SetHexColor(spec.Accent)
	dc.DrawStringAnchored(req.Title, w/2, h*0.42, 0.5, 0.5)

	dc.SetFontFace(r.face(spec.FontSize * 0.8))
	dc.SetHexColor(spec.Foreground)
	body := clampLines(dc, req.Body, w-2*spec.Padding, spec.MaxLines)
	dc.DrawStringWrapped(body, w/2, h*0.6, 0.5, 0, w-2*spec.Padding, 1.4, gg.AlignCenter)
}

func (r *templateCardRenderer) drawTitleCard(dc *gg.Context, spec CardSpec, req CardRequest) {
	w := float64(spec.Width)
	h := float64(spec.Height)

	dc.SetFontFace(r.face(spec.FontSize * 1.4))
	dc.SetHexColor(spec.Foreground)
	title := clampLines(dc, req.Title, w-2*spec.Padding, spec.MaxLines)
	dc.DrawStringWrapped(title, w/2, h*0.45, 0.5, 0.5, w-2*spec.Padding, 1.3, gg.AlignCenter)

	dc.SetHexColor(spec.Accent)
	dc.DrawRectangle(w/2-120, h*0.56, 240, 10)
	dc.Fill()

	if req.Body != "" {
		dc.SetFontFace(r.face(spec.FontSize * 0.7))
		dc.SetHexColor(spec.Foreground)
		dc.DrawStringWrapped(req.Body, w/2, h*0.62, 0.5, 0, w-2*spec.Padding, 1.4, gg.AlignCenter)
	}
}

func (r *templateCardRenderer) drawBackground(dc *gg.Context, spec CardSpec) {
	w := float64(spec.Width)
	h := float64(spec.Height)

	grad := gg.NewLinearGradient(0, 0, 0, h)
	c1, ok1 := parseHex(spec.Background)
	c2, ok2 := parseHex(spec.Accent)
	if ok1 && ok2 {
		grad.AddColorStop(0, c1)
		grad.AddColorStop(1, c2)
		dc.SetFillStyle(grad)
		dc.DrawRectangle(0, 0, w, h)
		dc.Fill()
	}
}

func parseHex(s string) (color.Color, bool) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 {
		return nil, false
	}
	var r, g, b int
	if _, err := fmt.Sscanf(s, "%02x%02x%02x", &r, &g, &b); err != nil {
		return nil, false
	}
	return color.NRGBA{R: uint8(r), G: uint8(g), B: uint8(b), A: 255}, true
}

// drawChart renders a horizontal bar per line of Body, where each line
// is "label|value".
func (r *templateCardRenderer) drawChart(dc *gg.Context, spec CardSpec, req CardRequest) {
	w := float64(spec.Width)

	type bar struct {
		label string
		value float64
	}
	var bars []bar
	maxV := 0.0
	for _, line := range strings.Split(req.Body, "\n") {
		parts := strings.SplitN(line, "|", 2)
		if len(parts) != 2 {
			continue
		}
		var v float64
		if _, err := fmt.Sscanf(strings.TrimSpace(parts[1]), "%f", &v); err != nil {
			continue
		}
		bars = append(bars, bar{label: strings.TrimSpace(parts[0]), value: v})
		if v > maxV {
			maxV = v
		}
	}

	dc.SetFontFace(r.face(spec.FontSize))
	dc.SetHexColor(spec.Foreground)
	dc.DrawStringAnchored(req.Title, w/2, spec.Padding, 0.5, 0.5)

	if len(bars) == 0 || maxV <= 0 {
		return
	}

	top := spec.Padding * 2
	rowH := (float64(spec.Height) - top - spec.Padding) / float64(len(bars))
	barH := rowH * 0.5
	labelFace := r.face(spec.FontSize * 0.6)
	for i, b := range bars {
		y := top + float64(i)*rowH
		dc.SetFontFace(labelFace)
		dc.SetHexColor(spec.Foreground)
		dc.DrawString(b.label, spec.Padding, y+barH*0.5)

		dc.SetHexColor(spec.Accent)
		width := (w - 2*spec.Padding) * (b.value / maxV)
		dc.DrawRectangle(spec.Padding, y+barH*0.7, width, barH)
		dc.Fill()
	}
}

// clampLines truncates wrapped text to the template's line budget,
// appending an ellipsis when something was cut.
func clampLines(dc *gg.Context, s string, width float64, maxLines int) string {
	lines := dc.WordWrap(s, width)
	if len(lines) <= maxLines {
		return s
	}
	kept := lines[:maxLines]
	last := kept[maxLines-1]
	kept[maxLines-1] = strings.TrimRight(last, ".,;: ") + "…"
	return strings.Join(kept, " ")
}
