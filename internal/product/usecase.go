package product

import (
	"context"

	"github.com/fekuna/marketplace-catalog-service/internal/model"
	"github.com/fekuna/marketplace-catalog-service/internal/product/dto"
)

const MaxImages = 10

type UseCase interface {
	CreateProduct(ctx context.Context, input *dto.CreateProductInput) (*model.Product, error)
	// GetProduct loads the product with its variant matrix and live variants.
	// An empty sellerID skips the ownership check.
	GetProduct(ctx context.Context, sellerID, id string) (*model.Product, error)
	ListProducts(ctx context.Context, filters *dto.ProductFilters) ([]model.Product, int, error)
	UpdateProduct(ctx context.Context, input *dto.UpdateProductInput) (*model.Product, error)
	DeleteProduct(ctx context.Context, sellerID, id string) error
	SetProductImage(ctx context.Context, input *dto.SetProductImageInput) (*model.Product, error)

	// AddProductImages uploads images into the product's gallery and returns
	// the whole gallery. A gallery holds at most MaxImages images.
	AddProductImages(ctx context.Context, input *dto.AddProductImagesInput) ([]model.ProductImage, error)
	// ListProductImages is public when sellerID is empty.
	ListProductImages(ctx context.Context, sellerID, productID string) ([]model.ProductImage, error)
	RemoveProductImage(ctx context.Context, sellerID, productID, imageID string) error
}
