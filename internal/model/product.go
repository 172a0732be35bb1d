package model

import "github.com/shopspring/decimal"

type Product struct {
	BaseModel
	SellerID    string            `db:"seller_id" json:"seller_id"`
	CategoryID  *string           `db:"category_id" json:"category_id"`
	Name        string            `db:"name" json:"name"`
	Description *string           `db:"description" json:"description"`
	BasePrice   decimal.Decimal   `db:"base_price" json:"base_price"`
	Stock       int               `db:"stock" json:"stock"`
	HasVariants bool              `db:"has_variants" json:"has_variants"`
	ImageURL    *string           `db:"image_url" json:"image_url"`
	IsActive    bool              `db:"is_active" json:"is_active"`
	Categories  []VariantCategory `db:"-" json:"variant_categories,omitempty"`
	Variants    []ProductVariant  `db:"-" json:"variants,omitempty"`
	Images      []ProductImage    `db:"-" json:"images,omitempty"`
}
