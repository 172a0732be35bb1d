package dto

import (
	"time"

	"github.com/fekuna/marketplace-catalog-service/internal/model"
)

// VariantIndex is the search index holding one document per variant.
const VariantIndex = "product_variants"

const VariantIndexMapping = `{
	"mappings": {
		"properties": {
			"product_id": { "type": "keyword" },
			"seller_id": { "type": "keyword" },
			"variant_name": { "type": "text" },
			"attributes": { "type": "keyword" },
			"price": { "type": "scaled_float", "scaling_factor": 100 },
			"stock": { "type": "integer" },
			"is_active": { "type": "boolean" },
			"updated_at": { "type": "date" }
		}
	}
}`

type VariantDocument struct {
	ProductID   string    `json:"product_id"`
	SellerID    string    `json:"seller_id"`
	VariantName string    `json:"variant_name"`
	Attributes  []string  `json:"attributes"`
	Price       string    `json:"price"`
	Stock       int       `json:"stock"`
	IsActive    bool      `json:"is_active"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func NewVariantDocument(sellerID string, v *model.ProductVariant) VariantDocument {
	values := make([]string, len(v.Attributes))
	for i, a := range v.Attributes {
		values[i] = a.Value
	}
	return VariantDocument{
		ProductID:   v.ProductID,
		SellerID:    sellerID,
		VariantName: v.VariantName,
		Attributes:  values,
		Price:       v.Price.String(),
		Stock:       v.Stock,
		IsActive:    v.IsActive,
		UpdatedAt:   v.UpdatedAt,
	}
}

// SyncedEvent is published once a sync commits.
type SyncedEvent struct {
	ProductID string   `json:"product_id"`
	SellerID  string   `json:"seller_id"`
	Created   []string `json:"created"`
	Renamed   []string `json:"renamed"`
	Retained  int      `json:"retained"`
	Deleted   []string `json:"deleted"`
	Archived  []string `json:"archived"`
}

const EventVariantsSynchronized = "VariantsSynchronized"
