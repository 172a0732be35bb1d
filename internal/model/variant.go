package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// VariantCategory is one axis of a product's variant matrix, e.g. "Size".
type VariantCategory struct {
	ID         int64              `db:"id" json:"id"`
	ProductID  string             `db:"product_id" json:"product_id"`
	Name       string             `db:"name" json:"name"`
	SortOrder  int                `db:"sort_order" json:"sort_order"`
	CreatedAt  time.Time          `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time          `db:"updated_at" json:"updated_at"`
	Attributes []VariantAttribute `db:"-" json:"attributes"`
}

// VariantAttribute is a single value on a category axis, e.g. "Red".
type VariantAttribute struct {
	ID         int64  `db:"id" json:"id"`
	CategoryID int64  `db:"category_id" json:"category_id"`
	Value      string `db:"value" json:"value"`
	SortOrder  int    `db:"sort_order" json:"sort_order"`
}

// ProductVariant is one priced and stocked cell of the matrix. Its identity is
// the set of attribute ids linked to it, not any of its own columns.
type ProductVariant struct {
	BaseModel
	ProductID    string             `db:"product_id" json:"product_id"`
	VariantName  string             `db:"variant_name" json:"variant_name"`
	Price        decimal.Decimal    `db:"price" json:"price"`
	Stock        int                `db:"stock" json:"stock"`
	ImageURL     *string            `db:"image_url" json:"image_url"`
	IsActive     bool               `db:"is_active" json:"is_active"`
	ArchivedAt   *time.Time         `db:"archived_at" json:"archived_at,omitempty"`
	AttributeIDs []int64            `db:"-" json:"attribute_ids"`
	Attributes   []VariantAttribute `db:"-" json:"attributes,omitempty"`
}

type VariantAttributeLink struct {
	VariantID   string `db:"variant_id"`
	AttributeID int64  `db:"attribute_id"`
}
