package dto

type MovementFilters struct {
	SellerID     string
	ProductID    string
	VariantID    string
	MovementType string
	Page         int
	PageSize     int
}
