package catalogv1

import "time"

type Attribute struct {
	ID         int64  `json:"id"`
	CategoryID int64  `json:"category_id"`
	Value      string `json:"value"`
	SortOrder  int32  `json:"sort_order"`
}

type Category struct {
	ID         int64        `json:"id"`
	ProductID  string       `json:"product_id"`
	Name       string       `json:"name"`
	SortOrder  int32        `json:"sort_order"`
	Attributes []*Attribute `json:"attributes"`
}

// Variant prices are decimal strings, e.g. "125000.50".
type Variant struct {
	ID           string       `json:"id"`
	ProductID    string       `json:"product_id"`
	Name         string       `json:"variant_name"`
	Price        string       `json:"price"`
	Stock        int32        `json:"stock"`
	ImageURL     string       `json:"image_url,omitempty"`
	IsActive     bool         `json:"is_active"`
	Archived     bool         `json:"archived"`
	AttributeIDs []int64      `json:"attribute_ids"`
	Attributes   []*Attribute `json:"attributes"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

type Product struct {
	ID          string      `json:"id"`
	SellerID    string      `json:"seller_id"`
	CategoryID  string      `json:"category_id,omitempty"`
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	BasePrice   string      `json:"base_price"`
	Stock       int32       `json:"stock"`
	HasVariants bool        `json:"has_variants"`
	ImageURL    string      `json:"image_url,omitempty"`
	IsActive    bool        `json:"is_active"`
	Categories  []*Category `json:"variant_categories,omitempty"`
	Variants    []*Variant  `json:"variants,omitempty"`
	Images      []*Image    `json:"images,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

type Image struct {
	ID        string    `json:"id"`
	ProductID string    `json:"product_id"`
	ImageURL  string    `json:"image_url"`
	SortOrder int32     `json:"sort_order"`
	CreatedAt time.Time `json:"created_at"`
}

type ProductCategory struct {
	ID          string             `json:"id"`
	ParentID    string             `json:"parent_id,omitempty"`
	Name        string             `json:"name"`
	Description string             `json:"description,omitempty"`
	ImageURL    string             `json:"image_url,omitempty"`
	SortOrder   int32              `json:"sort_order"`
	IsActive    bool               `json:"is_active"`
	Children    []*ProductCategory `json:"children,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

type StockMovement struct {
	ID             string    `json:"id"`
	ProductID      string    `json:"product_id"`
	VariantID      string    `json:"variant_id,omitempty"`
	MovementType   string    `json:"movement_type"`
	QuantityChange int32     `json:"quantity_change"`
	QuantityBefore int32     `json:"quantity_before"`
	QuantityAfter  int32     `json:"quantity_after"`
	ReferenceType  string    `json:"reference_type,omitempty"`
	ReferenceID    string    `json:"reference_id,omitempty"`
	Notes          string    `json:"notes,omitempty"`
	CreatedBy      string    `json:"created_by,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// SyncPlan summarizes a reconciliation. Create holds display names of the
// variants to create, the other lists hold variant ids.
type SyncPlan struct {
	Combinations int32    `json:"combinations"`
	Create       []string `json:"create"`
	Retain       []string `json:"retain"`
	Renamed      []string `json:"renamed"`
	Delete       []string `json:"delete"`
	Archive      []string `json:"archive"`
}

// MatrixResponse answers every call that reconciles variants.
type MatrixResponse struct {
	ProductID  string      `json:"product_id"`
	Committed  bool        `json:"committed"`
	Plan       *SyncPlan   `json:"plan"`
	Categories []*Category `json:"categories"`
	Variants   []*Variant  `json:"variants"`
	AtRisk     []string    `json:"at_risk,omitempty"`
}

type Empty struct{}
