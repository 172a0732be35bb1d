package dto

import (
	"time"

	"github.com/fekuna/marketplace-catalog-service/internal/model"
)

type ProductFilters struct {
	SellerID    string
	CategoryID  string
	ActiveOnly  bool
	SearchQuery string // name or description
	Page        int
	PageSize    int
}

const ProductIndex = "products"

const ProductIndexMapping = `{
	"mappings": {
		"properties": {
			"seller_id": { "type": "keyword" },
			"category_id": { "type": "keyword" },
			"name": { "type": "text" },
			"description": { "type": "text" },
			"base_price": { "type": "scaled_float", "scaling_factor": 100 },
			"has_variants": { "type": "boolean" },
			"is_active": { "type": "boolean" },
			"created_at": { "type": "date" }
		}
	}
}`

// ProductDocument is the indexed form of a product. It decodes back into
// model.Product for search results.
type ProductDocument struct {
	ID          string    `json:"id"`
	SellerID    string    `json:"seller_id"`
	CategoryID  *string   `json:"category_id,omitempty"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	BasePrice   string    `json:"base_price"`
	Stock       int       `json:"stock"`
	HasVariants bool      `json:"has_variants"`
	ImageURL    string    `json:"image_url,omitempty"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func NewProductDocument(p *model.Product) ProductDocument {
	doc := ProductDocument{
		ID:          p.ID,
		SellerID:    p.SellerID,
		CategoryID:  p.CategoryID,
		Name:        p.Name,
		BasePrice:   p.BasePrice.String(),
		Stock:       p.Stock,
		HasVariants: p.HasVariants,
		IsActive:    p.IsActive,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
	if p.Description != nil {
		doc.Description = *p.Description
	}
	if p.ImageURL != nil {
		doc.ImageURL = *p.ImageURL
	}
	return doc
}
