package content

import (
	"encoding/json"

	"github.com/google/uuid"

	domcontent "github.com/paperclip-video/paperclip-backend/internal/domain/content"
	"github.com/paperclip-video/paperclip-backend/internal/platform/dbctx"
)

// Derived read-only views over a document's decomposition. These are
// computed queries, never tables; the assemblers and the content API
// read them instead of walking pages/blocks/entities themselves.

// DocumentContentRow is one block in reading order with its page
// attached, independent of which pipeline stage produced it.
type DocumentContentRow struct {
	BlockID        uuid.UUID            `json:"block_id"`
	PageNumber     int                  `json:"page_number"`
	BlockType      domcontent.BlockType `json:"block_type"`
	HierarchyLevel int                  `json:"hierarchy_level"`
	OrderIndex     int                  `json:"order_index"`
	Text           string               `json:"text"`
}

// DocumentAssetRow is one media asset with its provenance refs.
type DocumentAssetRow struct {
	AssetID    uuid.UUID  `json:"asset_id"`
	PageNumber *int       `json:"page_number,omitempty"`
	BlockID    *uuid.UUID `json:"block_id,omitempty"`
	AssetType  string     `json:"asset_type"`
	StorageKey string     `json:"storage_key"`
	Checksum   string     `json:"checksum,omitempty"`
}

// DocumentDataPointRow is one extracted entity with its normalized
// payload unpacked.
type DocumentDataPointRow struct {
	EntityID   uuid.UUID             `json:"entity_id"`
	BlockID    *uuid.UUID            `json:"block_id,omitempty"`
	EntityType domcontent.EntityType `json:"entity_type"`
	RawText    string                `json:"raw_text"`
	Value      *float64              `json:"value,omitempty"`
	ValueType  string                `json:"value_type,omitempty"`
	Unit       string                `json:"unit,omitempty"`
	Confidence float64               `json:"confidence"`
}

func (r *decompositionRepo) GetDocumentContent(dbc dbctx.Context, documentID uuid.UUID) ([]DocumentContentRow, error) {
	blocks, err := r.GetBlocks(dbc, documentID)
	if err != nil {
		return nil, err
	}
	pageNumbers, err := r.pageNumbersByID(dbc, documentID)
	if err != nil {
		return nil, err
	}
	var out []DocumentContentRow
	for _, b := range blocks {
		row := DocumentContentRow{
			BlockID:        b.ID,
			BlockType:      b.BlockType,
			HierarchyLevel: b.HierarchyLevel,
			OrderIndex:     b.OrderIndex,
			Text:           b.Text,
		}
		if b.PageID != nil {
			row.PageNumber = pageNumbers[*b.PageID]
		}
		out = append(out, row)
	}
	return out, nil
}

func (r *decompositionRepo) GetDocumentAssets(dbc dbctx.Context, documentID uuid.UUID) ([]DocumentAssetRow, error) {
	assets, err := r.GetAssets(dbc, documentID)
	if err != nil {
		return nil, err
	}
	pageNumbers, err := r.pageNumbersByID(dbc, documentID)
	if err != nil {
		return nil, err
	}
	var out []DocumentAssetRow
	for _, a := range assets {
		row := DocumentAssetRow{
			AssetID:    a.ID,
			BlockID:    a.BlockID,
			AssetType:  a.AssetType,
			StorageKey: a.StorageKey,
			Checksum:   a.Checksum,
		}
		if a.PageID != nil {
			if n, ok := pageNumbers[*a.PageID]; ok {
				row.PageNumber = &n
			}
		}
		out = append(out, row)
	}
	return out, nil
}

func (r *decompositionRepo) GetDocumentDataPoints(dbc dbctx.Context, documentID uuid.UUID) ([]DocumentDataPointRow, error) {
	entities, err := r.GetEntities(dbc, documentID)
	if err != nil {
		return nil, err
	}
	var out []DocumentDataPointRow
	for _, e := range entities {
		row := DocumentDataPointRow{
			EntityID:   e.ID,
			BlockID:    e.BlockID,
			EntityType: e.EntityType,
			RawText:    e.RawText,
			Confidence: e.Confidence,
		}
		if len(e.Normalized) > 0 {
			var norm struct {
				Value *float64 `json:"value"`
				Type  string   `json:"type"`
				Unit  string   `json:"unit"`
			}
			if err := json.Unmarshal(e.Normalized, &norm); err == nil {
				row.Value = norm.Value
				row.ValueType = norm.Type
				row.Unit = norm.Unit
			}
		}
		out = append(out, row)
	}
	return out, nil
}

func (r *decompositionRepo) pageNumbersByID(dbc dbctx.Context, documentID uuid.UUID) (map[uuid.UUID]int, error) {
	pages, err := r.GetPages(dbc, documentID)
	if err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]int, len(pages))
	for _, p := range pages {
		out[p.ID] = p.PageNumber
	}
	return out, nil
}
