package handler

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	catalogv1 "github.com/fekuna/marketplace-catalog-service/api/catalogv1"
	"github.com/fekuna/marketplace-catalog-service/internal/auth"
	catrepo "github.com/fekuna/marketplace-catalog-service/internal/category/repository"
	"github.com/fekuna/marketplace-catalog-service/internal/logger"
	"github.com/fekuna/marketplace-catalog-service/internal/product/repository"
	"github.com/fekuna/marketplace-catalog-service/internal/product/usecase"
	pcdto "github.com/fekuna/marketplace-catalog-service/internal/productcategory/dto"
	pcrepo "github.com/fekuna/marketplace-catalog-service/internal/productcategory/repository"
	pcuc "github.com/fekuna/marketplace-catalog-service/internal/productcategory/usecase"
	"github.com/fekuna/marketplace-catalog-service/internal/testutil"
	varrepo "github.com/fekuna/marketplace-catalog-service/internal/variant/repository"
)

type cdnUploader struct{}

func (cdnUploader) Upload(_ context.Context, folder, filename string, _ []byte) (string, error) {
	return "https://cdn.example.com/" + folder + "/" + filename, nil
}

func newHandler(t *testing.T) (*ProductHandler, context.Context) {
	h, _, ctx := newHandlerWithDB(t)
	return h, ctx
}

func newHandlerWithDB(t *testing.T) (*ProductHandler, *sqlx.DB, context.Context) {
	t.Helper()
	db := testutil.NewDB(t)
	uc := usecase.NewProductUseCase(repository.NewPGRepository(db), db, usecase.Deps{
		Categories:        catrepo.NewPGRepository(db),
		ProductCategories: pcrepo.NewPGRepository(db),
		Variants:          varrepo.NewPGRepository(db),
		Uploader:          cdnUploader{},
	}, logger.NewNop())
	ctx := auth.WithUser(context.Background(), auth.UserContext{SellerID: "seller-1"})
	return NewProductHandler(uc, logger.NewNop()), db, ctx
}

func TestProductLifecycle(t *testing.T) {
	h, ctx := newHandler(t)

	created, err := h.CreateProduct(ctx, &catalogv1.CreateProductRequest{
		Name:        "Canvas Tote",
		Description: "heavy cotton",
		BasePrice:   "85000",
		Stock:       12,
	})
	require.NoError(t, err)
	p := created.Product
	assert.Equal(t, "seller-1", p.SellerID)
	assert.Equal(t, "85000", p.BasePrice)
	assert.True(t, p.IsActive)

	name := "Canvas Tote XL"
	price := "95000.25"
	updated, err := h.UpdateProduct(ctx, &catalogv1.UpdateProductRequest{ID: p.ID, Name: &name, BasePrice: &price})
	require.NoError(t, err)
	assert.Equal(t, "Canvas Tote XL", updated.Product.Name)
	assert.Equal(t, "95000.25", updated.Product.BasePrice)
	assert.Equal(t, int32(12), updated.Product.Stock)

	got, err := h.GetProduct(context.Background(), &catalogv1.GetProductRequest{ID: p.ID})
	require.NoError(t, err)
	assert.Equal(t, "heavy cotton", got.Product.Description)

	list, err := h.ListProducts(ctx, &catalogv1.ListProductsRequest{Query: "tote"})
	require.NoError(t, err)
	assert.Equal(t, int32(1), list.Total)

	_, err = h.DeleteProduct(ctx, &catalogv1.DeleteProductRequest{ID: p.ID})
	require.NoError(t, err)

	_, err = h.GetProduct(ctx, &catalogv1.GetProductRequest{ID: p.ID})
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestListProducts_AnonymousSeesActiveOnly(t *testing.T) {
	h, ctx := newHandler(t)

	_, err := h.CreateProduct(ctx, &catalogv1.CreateProductRequest{Name: "Visible"})
	require.NoError(t, err)
	hidden, err := h.CreateProduct(ctx, &catalogv1.CreateProductRequest{Name: "Hidden"})
	require.NoError(t, err)
	inactive := false
	_, err = h.UpdateProduct(ctx, &catalogv1.UpdateProductRequest{ID: hidden.Product.ID, IsActive: &inactive})
	require.NoError(t, err)

	public, err := h.ListProducts(context.Background(), &catalogv1.ListProductsRequest{})
	require.NoError(t, err)
	require.Len(t, public.Products, 1)
	assert.Equal(t, "Visible", public.Products[0].Name)

	own, err := h.ListProducts(ctx, &catalogv1.ListProductsRequest{})
	require.NoError(t, err)
	assert.Equal(t, int32(2), own.Total)
}

func TestProductErrors(t *testing.T) {
	h, ctx := newHandler(t)

	_, err := h.CreateProduct(context.Background(), &catalogv1.CreateProductRequest{Name: "x"})
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	_, err = h.CreateProduct(ctx, &catalogv1.CreateProductRequest{Name: "x", BasePrice: "free"})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = h.CreateProduct(ctx, &catalogv1.CreateProductRequest{Name: ""})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = h.SetProductImage(ctx, &catalogv1.SetProductImageRequest{ID: "missing"})
	assert.Equal(t, codes.NotFound, status.Code(err))

	created, err := h.CreateProduct(ctx, &catalogv1.CreateProductRequest{Name: "Mug"})
	require.NoError(t, err)
	other := auth.WithUser(context.Background(), auth.UserContext{SellerID: "seller-2"})
	_, err = h.DeleteProduct(other, &catalogv1.DeleteProductRequest{ID: created.Product.ID})
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestProductCategoryAndGallery(t *testing.T) {
	h, db, ctx := newHandlerWithDB(t)
	cat, err := pcuc.NewCategoryUseCase(pcrepo.NewPGRepository(db), nil, logger.NewNop()).
		CreateCategory(context.Background(), &pcdto.CreateCategoryInput{Name: "Kitchen"})
	require.NoError(t, err)

	created, err := h.CreateProduct(ctx, &catalogv1.CreateProductRequest{Name: "Mug", CategoryID: cat.ID})
	require.NoError(t, err)
	assert.Equal(t, cat.ID, created.Product.CategoryID)
	_, err = h.CreateProduct(ctx, &catalogv1.CreateProductRequest{Name: "Lamp"})
	require.NoError(t, err)

	list, err := h.ListProducts(context.Background(), &catalogv1.ListProductsRequest{CategoryID: cat.ID})
	require.NoError(t, err)
	require.Len(t, list.Products, 1)
	assert.Equal(t, "Mug", list.Products[0].Name)

	id := created.Product.ID
	added, err := h.AddProductImages(ctx, &catalogv1.AddProductImagesRequest{ProductID: id, Images: []*catalogv1.ImageFile{
		{Filename: "top.jpg", Data: []byte("a")},
		{Filename: "side.jpg", Data: []byte("b")},
	}})
	require.NoError(t, err)
	require.Len(t, added.Images, 2)
	assert.Equal(t, "https://cdn.example.com/products/"+id+"/side.jpg", added.Images[1].ImageURL)

	_, err = h.AddProductImages(context.Background(), &catalogv1.AddProductImagesRequest{ProductID: id})
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	many := make([]*catalogv1.ImageFile, 9)
	for i := range many {
		many[i] = &catalogv1.ImageFile{Filename: "x.jpg", Data: []byte("x")}
	}
	_, err = h.AddProductImages(ctx, &catalogv1.AddProductImagesRequest{ProductID: id, Images: many})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	got, err := h.GetProduct(context.Background(), &catalogv1.GetProductRequest{ID: id})
	require.NoError(t, err)
	assert.Len(t, got.Product.Images, 2)

	_, err = h.RemoveProductImage(ctx, &catalogv1.RemoveProductImageRequest{ProductID: id, ImageID: added.Images[0].ID})
	require.NoError(t, err)
	_, err = h.RemoveProductImage(ctx, &catalogv1.RemoveProductImageRequest{ProductID: id, ImageID: added.Images[0].ID})
	assert.Equal(t, codes.NotFound, status.Code(err))

	left, err := h.ListProductImages(context.Background(), &catalogv1.ListProductImagesRequest{ProductID: id})
	require.NoError(t, err)
	require.Len(t, left.Images, 1)
	assert.Equal(t, added.Images[1].ID, left.Images[0].ID)
}
