package product

import (
	"context"

	"github.com/fekuna/marketplace-catalog-service/internal/model"
	"github.com/fekuna/marketplace-catalog-service/internal/product/dto"
)

type Repository interface {
	Create(ctx context.Context, product *model.Product) error
	FindByID(ctx context.Context, id string) (*model.Product, error)
	FindAll(ctx context.Context, filters *dto.ProductFilters) ([]model.Product, int, error)
	Update(ctx context.Context, product *model.Product) error
	Delete(ctx context.Context, id string) error

	// AddImages appends images after the product's current gallery and
	// fills in their sort order. It writes nothing and returns false when
	// the gallery would grow past limit.
	AddImages(ctx context.Context, productID string, images []model.ProductImage, limit int) (bool, error)
	ListImages(ctx context.Context, productID string) ([]model.ProductImage, error)
	// DeleteImage reports whether the image existed on the product.
	DeleteImage(ctx context.Context, productID, imageID string) (bool, error)

	// ReferencedVariantIDs lists the product's variants that cart or order
	// lines still point at.
	ReferencedVariantIDs(ctx context.Context, productID string) ([]string, error)
}
