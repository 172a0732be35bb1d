package model

// ProductCategory is a node of the shared catalog taxonomy that products
// are filed under. It is unrelated to VariantCategory.
type ProductCategory struct {
	BaseModel
	ParentID    *string           `db:"parent_id" json:"parent_id"`
	Name        string            `db:"name" json:"name"`
	Description *string           `db:"description" json:"description"`
	ImageURL    *string           `db:"image_url" json:"image_url"`
	SortOrder   int               `db:"sort_order" json:"sort_order"`
	IsActive    bool              `db:"is_active" json:"is_active"`
	Children    []ProductCategory `db:"-" json:"children,omitempty"`
}
