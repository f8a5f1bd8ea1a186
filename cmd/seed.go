package main

import (
	"context"

	"gorm.io/datatypes"

	"github.com/paperclip-video/paperclip-backend/internal/data/repos"
	types "github.com/paperclip-video/paperclip-backend/internal/domain"
	domvisuals "github.com/paperclip-video/paperclip-backend/internal/domain/visuals"
	"github.com/paperclip-video/paperclip-backend/internal/platform/dbctx"
	"github.com/paperclip-video/paperclip-backend/internal/platform/logger"
)

// seedVisualTemplates upserts the built-in card styles so a fresh
// database renders visuals without manual setup. Spec keys match
// services.CardSpec.
func seedVisualTemplates(log *logger.Logger, templates repos.VisualTemplateRepo) {
	defaults := []*types.VisualTemplate{
		{
			Name:       "default-title",
			VisualType: domvisuals.VisualTypeTitleCard,
			Spec:       datatypes.JSON([]byte(`{"background":"#101418","foreground":"#FFFFFF","accent":"#4F8EF7","font_size":72}`)),
		},
		{
			Name:       "default-quote",
			VisualType: domvisuals.VisualTypeQuoteCard,
			Spec:       datatypes.JSON([]byte(`{"background":"#14161C","foreground":"#F4F4F4","accent":"#F7B24F","font_size":56}`)),
		},
		{
			Name:       "default-stat",
			VisualType: domvisuals.VisualTypeStatCard,
			Spec:       datatypes.JSON([]byte(`{"background":"#0E1A14","foreground":"#FFFFFF","accent":"#4FF78E","font_size":64}`)),
		},
	}
	if _, err := templates.Upsert(dbctx.Context{Ctx: context.Background()}, defaults); err != nil {
		log.Warn("Visual template seed failed", "error", err)
	}
}
