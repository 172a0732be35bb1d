package dto

import (
	"github.com/fekuna/marketplace-catalog-service/internal/matrix"
)

// CategorySpec is the "create" shape of a category: a name and its values
// in display order.
type CategorySpec struct {
	Name       string
	Attributes []string
}

// SyncParams control the reconciliation an edit triggers.
type SyncParams struct {
	Policy matrix.DeletePolicy
	DryRun bool
}

type DefineMatrixInput struct {
	SellerID   string
	ProductID  string
	Categories []CategorySpec
	SyncParams
}

type AddCategoryInput struct {
	SellerID  string
	ProductID string
	Category  CategorySpec
	SyncParams
}

// AttributeEdit renames the attribute with ID, or adds a new value when ID
// is zero.
type AttributeEdit struct {
	ID    int64
	Value string
}

type UpdateCategoryInput struct {
	SellerID   string
	ProductID  string
	CategoryID int64
	Name       *string
	SortOrder  *int
	// Attributes replaces the category's values when non-nil. Existing
	// values left out are removed.
	Attributes []AttributeEdit
	SyncParams
}

type DeleteCategoryInput struct {
	SellerID   string
	ProductID  string
	CategoryID int64
	SyncParams
}
