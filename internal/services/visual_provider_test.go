package services

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	types "github.com/paperclip-video/paperclip-backend/internal/domain"
	domvisuals "github.com/paperclip-video/paperclip-backend/internal/domain/visuals"
)

func TestTemplateCardRendererProducesPNG(t *testing.T) {
	r, err := NewTemplateCardRenderer(testLogger(t))
	if err != nil {
		t.Fatalf("NewTemplateCardRenderer: %v", err)
	}

	tmpl := &types.VisualTemplate{
		ID:         uuid.New(),
		Name:       "quote-dark",
		VisualType: domvisuals.VisualTypeQuoteCard,
		Spec:       datatypes.JSON([]byte(`{"width":400,"height":700,"font_size":24}`)),
	}

	buf, spec, err := r.RenderCard(tmpl, CardRequest{
		VisualType:  domvisuals.VisualTypeQuoteCard,
		Body:        "Short-form video is the fastest growing format we track.",
		Attribution: "Annual Report",
	})
	if err != nil {
		t.Fatalf("RenderCard: %v", err)
	}
	if spec.Width != 400 || spec.Height != 700 {
		t.Fatalf("spec dims = %dx%d", spec.Width, spec.Height)
	}

	img, err := png.Decode(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("png decode: %v", err)
	}
	b := img.Bounds()
	if b.Dx() != 400 || b.Dy() != 700 {
		t.Fatalf("image dims = %dx%d", b.Dx(), b.Dy())
	}
}

func TestTemplateCardRendererDefaultsAndTypes(t *testing.T) {
	r, err := NewTemplateCardRenderer(testLogger(t))
	if err != nil {
		t.Fatalf("NewTemplateCardRenderer: %v", err)
	}

	for _, vt := range []domvisuals.VisualType{
		domvisuals.VisualTypeStatCard,
		domvisuals.VisualTypeTitleCard,
		domvisuals.VisualTypeBackground,
		domvisuals.VisualTypeChart,
	} {
		buf, spec, err := r.RenderCard(nil, CardRequest{
			VisualType: vt,
			Title:      "42%",
			Body:       "adoption|42\nchurn|7",
		})
		if err != nil {
			t.Fatalf("RenderCard(%s): %v", vt, err)
		}
		if spec.Width != 1080 || spec.Height != 1920 {
			t.Fatalf("default dims = %dx%d", spec.Width, spec.Height)
		}
		if buf.Len() == 0 {
			t.Fatalf("RenderCard(%s) produced empty output", vt)
		}
	}
}

func TestTemplateCardRendererRejectsUnknownType(t *testing.T) {
	r, err := NewTemplateCardRenderer(testLogger(t))
	if err != nil {
		t.Fatalf("NewTemplateCardRenderer: %v", err)
	}
	if _, _, err := r.RenderCard(nil, CardRequest{VisualType: "hologram"}); err == nil {
		t.Fatal("expected error for unknown visual type")
	}
}
