package category

import (
	"context"

	"github.com/fekuna/marketplace-catalog-service/internal/category/dto"
	"github.com/fekuna/marketplace-catalog-service/internal/model"
	"github.com/fekuna/marketplace-catalog-service/internal/variant"
)

// UseCase edits a product's variant matrix. Every edit runs in the same
// transaction as the variant reconciliation it triggers and returns its
// result.
type UseCase interface {
	DefineMatrix(ctx context.Context, input *dto.DefineMatrixInput) (*variant.SyncResult, error)
	AddCategory(ctx context.Context, input *dto.AddCategoryInput) (*variant.SyncResult, error)
	UpdateCategory(ctx context.Context, input *dto.UpdateCategoryInput) (*variant.SyncResult, error)
	DeleteCategory(ctx context.Context, input *dto.DeleteCategoryInput) (*variant.SyncResult, error)
	ListCategories(ctx context.Context, sellerID, productID string) ([]model.VariantCategory, error)
}
