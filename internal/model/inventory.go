package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	MovementAdjustment = "adjustment"
	MovementRestock    = "restock"
	MovementSale       = "sale"
	MovementReturn     = "return"
)

type StockMovement struct {
	ID             string    `db:"id" json:"id"`
	ProductID      string    `db:"product_id" json:"product_id"`
	VariantID      *string   `db:"variant_id" json:"variant_id"`
	MovementType   string    `db:"movement_type" json:"movement_type"`
	QuantityChange int       `db:"quantity_change" json:"quantity_change"`
	QuantityBefore int       `db:"quantity_before" json:"quantity_before"`
	QuantityAfter  int       `db:"quantity_after" json:"quantity_after"`
	ReferenceType  *string   `db:"reference_type" json:"reference_type"`
	ReferenceID    *string   `db:"reference_id" json:"reference_id"`
	Notes          *string   `db:"notes" json:"notes"`
	CreatedBy      *string   `db:"created_by" json:"created_by"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// StockLevel is the current stock of a product, or of one of its variants.
type StockLevel struct {
	ProductID string `db:"product_id"`
	SellerID  string `db:"seller_id"`
	Stock     int    `db:"stock"`
}

// OrderItem is a placed order line. Lines pin the variant they were bought
// as.
type OrderItem struct {
	ID        string          `db:"id"`
	OrderID   string          `db:"order_id"`
	ProductID string          `db:"product_id"`
	VariantID *string         `db:"variant_id"`
	Quantity  int             `db:"quantity"`
	UnitPrice decimal.Decimal `db:"unit_price"`
	CreatedAt time.Time       `db:"created_at"`
}
