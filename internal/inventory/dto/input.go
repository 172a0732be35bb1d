package dto

import "github.com/shopspring/decimal"

// AdjustStockInput changes the stock of a product, or of one of its
// variants when VariantID is set.
type AdjustStockInput struct {
	SellerID      string
	ProductID     string
	VariantID     string
	Delta         int
	MovementType  string
	Reason        string
	ReferenceType string
	ReferenceID   string
	UserID        string
}

type OrderInput struct {
	OrderID string
	Lines   []OrderLine
}

type OrderLine struct {
	ProductID string
	VariantID string
	Quantity  int
	UnitPrice decimal.Decimal
}
