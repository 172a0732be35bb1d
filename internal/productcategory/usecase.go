package productcategory

import (
	"context"

	"github.com/fekuna/marketplace-catalog-service/internal/model"
	"github.com/fekuna/marketplace-catalog-service/internal/productcategory/dto"
)

type UseCase interface {
	CreateCategory(ctx context.Context, input *dto.CreateCategoryInput) (*model.ProductCategory, error)
	GetCategory(ctx context.Context, id string) (*model.ProductCategory, error)
	// ListCategories returns a flat page, or the whole tree of roots when
	// IncludeChildren is set.
	ListCategories(ctx context.Context, filters *dto.CategoryFilters) ([]model.ProductCategory, int, error)
	UpdateCategory(ctx context.Context, input *dto.UpdateCategoryInput) (*model.ProductCategory, error)
	// DeleteCategory removes the category. Its products become
	// uncategorized and its children move up to the root.
	DeleteCategory(ctx context.Context, id string) error
}
