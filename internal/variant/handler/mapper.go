package handler

import (
	catalogv1 "github.com/fekuna/marketplace-catalog-service/api/catalogv1"
	"github.com/fekuna/marketplace-catalog-service/internal/model"
	"github.com/fekuna/marketplace-catalog-service/internal/variant"
)

func MapAttribute(a *model.VariantAttribute) *catalogv1.Attribute {
	return &catalogv1.Attribute{
		ID:         a.ID,
		CategoryID: a.CategoryID,
		Value:      a.Value,
		SortOrder:  int32(a.SortOrder),
	}
}

func MapCategory(c *model.VariantCategory) *catalogv1.Category {
	attrs := make([]*catalogv1.Attribute, len(c.Attributes))
	for i := range c.Attributes {
		attrs[i] = MapAttribute(&c.Attributes[i])
	}
	return &catalogv1.Category{
		ID:         c.ID,
		ProductID:  c.ProductID,
		Name:       c.Name,
		SortOrder:  int32(c.SortOrder),
		Attributes: attrs,
	}
}

func MapCategories(cats []model.VariantCategory) []*catalogv1.Category {
	out := make([]*catalogv1.Category, len(cats))
	for i := range cats {
		out[i] = MapCategory(&cats[i])
	}
	return out
}

func MapVariant(v *model.ProductVariant) *catalogv1.Variant {
	attrs := make([]*catalogv1.Attribute, len(v.Attributes))
	for i := range v.Attributes {
		attrs[i] = MapAttribute(&v.Attributes[i])
	}
	imageURL := ""
	if v.ImageURL != nil {
		imageURL = *v.ImageURL
	}
	return &catalogv1.Variant{
		ID:           v.ID,
		ProductID:    v.ProductID,
		Name:         v.VariantName,
		Price:        v.Price.String(),
		Stock:        int32(v.Stock),
		ImageURL:     imageURL,
		IsActive:     v.IsActive,
		Archived:     v.ArchivedAt != nil,
		AttributeIDs: v.AttributeIDs,
		Attributes:   attrs,
		CreatedAt:    v.CreatedAt,
		UpdatedAt:    v.UpdatedAt,
	}
}

func MapVariants(variants []model.ProductVariant) []*catalogv1.Variant {
	out := make([]*catalogv1.Variant, len(variants))
	for i := range variants {
		out[i] = MapVariant(&variants[i])
	}
	return out
}

// MapSyncResult renders a sync, committed or not, for the wire.
func MapSyncResult(res *variant.SyncResult) *catalogv1.MatrixResponse {
	plan := res.Plan
	p := &catalogv1.SyncPlan{
		Combinations: int32(plan.Combinations),
		Create:       make([]string, 0, len(plan.Create)),
		Retain:       make([]string, 0, len(plan.Retain)),
		Renamed:      []string{},
		Delete:       make([]string, 0, len(plan.Delete)),
		Archive:      make([]string, 0, len(plan.Archive)),
	}
	for _, nv := range plan.Create {
		p.Create = append(p.Create, nv.Name)
	}
	for _, rv := range plan.Retain {
		p.Retain = append(p.Retain, rv.Variant.ID)
		if rv.Renamed {
			p.Renamed = append(p.Renamed, rv.Variant.ID)
		}
	}
	for _, v := range plan.Delete {
		p.Delete = append(p.Delete, v.ID)
	}
	for _, v := range plan.Archive {
		p.Archive = append(p.Archive, v.ID)
	}

	return &catalogv1.MatrixResponse{
		ProductID:  res.ProductID,
		Committed:  res.Committed,
		Plan:       p,
		Categories: MapCategories(res.Categories),
		Variants:   MapVariants(res.Variants),
		AtRisk:     res.AtRisk,
	}
}
