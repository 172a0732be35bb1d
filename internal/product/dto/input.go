package dto

import "github.com/shopspring/decimal"

type CreateProductInput struct {
	SellerID    string
	CategoryID  string
	Name        string
	Description string
	BasePrice   decimal.Decimal
	Stock       int
	ImageURL    string
}

// UpdateProductInput changes only the non-nil fields. An empty CategoryID
// leaves the product uncategorized.
type UpdateProductInput struct {
	ID          string
	SellerID    string
	CategoryID  *string
	Name        *string
	Description *string
	BasePrice   *decimal.Decimal
	Stock       *int
	IsActive    *bool
}

type SetProductImageInput struct {
	SellerID string
	ID       string
	Filename string
	Data     []byte
}

type ImageFile struct {
	Filename string
	Data     []byte
}

type AddProductImagesInput struct {
	SellerID  string
	ProductID string
	Images    []ImageFile
}
