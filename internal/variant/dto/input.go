package dto

import "github.com/shopspring/decimal"

type UpdateVariantInput struct {
	SellerID    string
	ID          string
	Price       *decimal.Decimal
	Stock       *int
	RemoveImage bool
	// UserID is recorded on the stock movement a stock change produces.
	UserID string
}

type SetVariantImageInput struct {
	SellerID string
	ID       string
	Filename string
	Data     []byte
}
