package visuals

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/paperclip-video/paperclip-backend/internal/domain"
	"github.com/paperclip-video/paperclip-backend/internal/platform/dbctx"
	"github.com/paperclip-video/paperclip-backend/internal/platform/logger"
)

type VisualTemplateRepo interface {
	Upsert(dbc dbctx.Context, templates []*types.VisualTemplate) ([]*types.VisualTemplate, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.VisualTemplate, error)
	GetByName(dbc dbctx.Context, name string) (*types.VisualTemplate, error)
	List(dbc dbctx.Context) ([]*types.VisualTemplate, error)
}

type visualTemplateRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewVisualTemplateRepo(db *gorm.DB, baseLog *logger.Logger) VisualTemplateRepo {
	return &visualTemplateRepo{db: db, log: baseLog.With("repo", "VisualTemplateRepo")}
}

func (r *visualTemplateRepo) Upsert(dbc dbctx.Context, templates []*types.VisualTemplate) ([]*types.VisualTemplate, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(templates) == 0 {
		return []*types.VisualTemplate{}, nil
	}
	err := transaction.WithContext(dbc.Ctx).Transaction(func(txx *gorm.DB) error {
		for _, tpl := range templates {
			var existing types.VisualTemplate
			if err := txx.Where("name = ?", tpl.Name).Limit(1).Find(&existing).Error; err != nil {
				return err
			}
			if existing.ID != uuid.Nil {
				tpl.ID = existing.ID
				if err := txx.Model(&types.VisualTemplate{}).
					Where("id = ?", existing.ID).
					Updates(map[string]interface{}{
						"visual_type": tpl.VisualType,
						"spec":        tpl.Spec,
					}).Error; err != nil {
					return err
				}
				continue
			}
			if err := txx.Create(tpl).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return templates, nil
}

func (r *visualTemplateRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.VisualTemplate, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var tpl types.VisualTemplate
	if err := transaction.WithContext(dbc.Ctx).
		Where("id = ?", id).
		Limit(1).
		Find(&tpl).Error; err != nil {
		return nil, err
	}
	if tpl.ID == uuid.Nil {
		return nil, nil
	}
	return &tpl, nil
}

func (r *visualTemplateRepo) GetByName(dbc dbctx.Context, name string) (*types.VisualTemplate, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if name == "" {
		return nil, nil
	}
	var tpl types.VisualTemplate
	if err := transaction.WithContext(dbc.Ctx).
		Where("name = ?", name).
		Limit(1).
		Find(&tpl).Error; err != nil {
		return nil, err
	}
	if tpl.ID == uuid.Nil {
		return nil, nil
	}
	return &tpl, nil
}

func (r *visualTemplateRepo) List(dbc dbctx.Context) ([]*types.VisualTemplate, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.VisualTemplate
	if err := transaction.WithContext(dbc.Ctx).
		Order("name ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
