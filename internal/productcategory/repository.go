package productcategory

import (
	"context"

	"github.com/fekuna/marketplace-catalog-service/internal/model"
	"github.com/fekuna/marketplace-catalog-service/internal/productcategory/dto"
)

type Repository interface {
	Create(ctx context.Context, category *model.ProductCategory) error
	FindByID(ctx context.Context, id string) (*model.ProductCategory, error)
	FindAll(ctx context.Context, filters *dto.CategoryFilters) ([]model.ProductCategory, int, error)
	Update(ctx context.Context, category *model.ProductCategory) error
	Delete(ctx context.Context, id string) error
}
