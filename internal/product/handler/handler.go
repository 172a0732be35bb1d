package handler

import (
	"context"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	catalogv1 "github.com/fekuna/marketplace-catalog-service/api/catalogv1"
	"github.com/fekuna/marketplace-catalog-service/internal/auth"
	"github.com/fekuna/marketplace-catalog-service/internal/grpcerr"
	"github.com/fekuna/marketplace-catalog-service/internal/logger"
	"github.com/fekuna/marketplace-catalog-service/internal/matrix"
	"github.com/fekuna/marketplace-catalog-service/internal/model"
	"github.com/fekuna/marketplace-catalog-service/internal/product"
	"github.com/fekuna/marketplace-catalog-service/internal/product/dto"
	varianthandler "github.com/fekuna/marketplace-catalog-service/internal/variant/handler"
)

var _ catalogv1.ProductServiceServer = (*ProductHandler)(nil)

type ProductHandler struct {
	uc     product.UseCase
	logger logger.ZapLogger
}

func NewProductHandler(uc product.UseCase, log logger.ZapLogger) *ProductHandler {
	return &ProductHandler{
		uc:     uc,
		logger: log,
	}
}

func (h *ProductHandler) CreateProduct(ctx context.Context, req *catalogv1.CreateProductRequest) (*catalogv1.ProductResponse, error) {
	sellerID := auth.GetSellerID(ctx)
	if sellerID == "" {
		return nil, grpcerr.Unauthenticated(ctx)
	}

	input := &dto.CreateProductInput{
		SellerID:    sellerID,
		CategoryID:  req.CategoryID,
		Name:        req.Name,
		Description: req.Description,
		Stock:       int(req.Stock),
		ImageURL:    req.ImageURL,
	}
	if req.BasePrice != "" {
		price, err := parsePrice(req.BasePrice)
		if err != nil {
			return nil, grpcerr.From(ctx, err)
		}
		input.BasePrice = price
	}

	p, err := h.uc.CreateProduct(ctx, input)
	if err != nil {
		h.logger.Error("failed to create product", zap.Error(err))
		return nil, grpcerr.From(ctx, err)
	}
	return &catalogv1.ProductResponse{Product: mapProduct(p)}, nil
}

// GetProduct is public; signed-in sellers only see their own products.
func (h *ProductHandler) GetProduct(ctx context.Context, req *catalogv1.GetProductRequest) (*catalogv1.ProductResponse, error) {
	p, err := h.uc.GetProduct(ctx, auth.GetSellerID(ctx), req.ID)
	if err != nil {
		return nil, grpcerr.From(ctx, err)
	}
	return &catalogv1.ProductResponse{Product: mapProduct(p)}, nil
}

func (h *ProductHandler) ListProducts(ctx context.Context, req *catalogv1.ListProductsRequest) (*catalogv1.ListProductsResponse, error) {
	sellerID := auth.GetSellerID(ctx)
	filters := &dto.ProductFilters{
		SellerID:    sellerID,
		CategoryID:  req.CategoryID,
		ActiveOnly:  req.ActiveOnly || sellerID == "",
		SearchQuery: req.Query,
		Page:        int(req.Page),
		PageSize:    int(req.PageSize),
	}

	products, total, err := h.uc.ListProducts(ctx, filters)
	if err != nil {
		h.logger.Error("failed to list products", zap.Error(err))
		return nil, grpcerr.From(ctx, err)
	}

	out := make([]*catalogv1.Product, len(products))
	for i := range products {
		out[i] = mapProduct(&products[i])
	}
	return &catalogv1.ListProductsResponse{Products: out, Total: int32(total)}, nil
}

func (h *ProductHandler) UpdateProduct(ctx context.Context, req *catalogv1.UpdateProductRequest) (*catalogv1.ProductResponse, error) {
	sellerID := auth.GetSellerID(ctx)
	if sellerID == "" {
		return nil, grpcerr.Unauthenticated(ctx)
	}

	input := &dto.UpdateProductInput{
		ID:          req.ID,
		SellerID:    sellerID,
		CategoryID:  req.CategoryID,
		Name:        req.Name,
		Description: req.Description,
		IsActive:    req.IsActive,
	}
	if req.BasePrice != nil {
		price, err := parsePrice(*req.BasePrice)
		if err != nil {
			return nil, grpcerr.From(ctx, err)
		}
		input.BasePrice = &price
	}
	if req.Stock != nil {
		stock := int(*req.Stock)
		input.Stock = &stock
	}

	p, err := h.uc.UpdateProduct(ctx, input)
	if err != nil {
		h.logger.Error("failed to update product", zap.String("product_id", req.ID), zap.Error(err))
		return nil, grpcerr.From(ctx, err)
	}
	return &catalogv1.ProductResponse{Product: mapProduct(p)}, nil
}

func (h *ProductHandler) DeleteProduct(ctx context.Context, req *catalogv1.DeleteProductRequest) (*catalogv1.Empty, error) {
	sellerID := auth.GetSellerID(ctx)
	if sellerID == "" {
		return nil, grpcerr.Unauthenticated(ctx)
	}

	if err := h.uc.DeleteProduct(ctx, sellerID, req.ID); err != nil {
		h.logger.Warn("failed to delete product", zap.String("product_id", req.ID), zap.Error(err))
		return nil, grpcerr.From(ctx, err)
	}
	return &catalogv1.Empty{}, nil
}

func (h *ProductHandler) SetProductImage(ctx context.Context, req *catalogv1.SetProductImageRequest) (*catalogv1.ProductResponse, error) {
	sellerID := auth.GetSellerID(ctx)
	if sellerID == "" {
		return nil, grpcerr.Unauthenticated(ctx)
	}

	p, err := h.uc.SetProductImage(ctx, &dto.SetProductImageInput{
		SellerID: sellerID,
		ID:       req.ID,
		Filename: req.Filename,
		Data:     req.Data,
	})
	if err != nil {
		return nil, grpcerr.From(ctx, err)
	}
	return &catalogv1.ProductResponse{Product: mapProduct(p)}, nil
}

func (h *ProductHandler) AddProductImages(ctx context.Context, req *catalogv1.AddProductImagesRequest) (*catalogv1.ProductImagesResponse, error) {
	sellerID := auth.GetSellerID(ctx)
	if sellerID == "" {
		return nil, grpcerr.Unauthenticated(ctx)
	}

	input := &dto.AddProductImagesInput{SellerID: sellerID, ProductID: req.ProductID}
	for _, img := range req.Images {
		if img != nil {
			input.Images = append(input.Images, dto.ImageFile{Filename: img.Filename, Data: img.Data})
		}
	}

	images, err := h.uc.AddProductImages(ctx, input)
	if err != nil {
		h.logger.Error("failed to add product images", zap.String("product_id", req.ProductID), zap.Error(err))
		return nil, grpcerr.From(ctx, err)
	}
	return &catalogv1.ProductImagesResponse{Images: mapImages(images)}, nil
}

// ListProductImages is public; signed-in sellers only see their own products.
func (h *ProductHandler) ListProductImages(ctx context.Context, req *catalogv1.ListProductImagesRequest) (*catalogv1.ProductImagesResponse, error) {
	images, err := h.uc.ListProductImages(ctx, auth.GetSellerID(ctx), req.ProductID)
	if err != nil {
		return nil, grpcerr.From(ctx, err)
	}
	return &catalogv1.ProductImagesResponse{Images: mapImages(images)}, nil
}

func (h *ProductHandler) RemoveProductImage(ctx context.Context, req *catalogv1.RemoveProductImageRequest) (*catalogv1.Empty, error) {
	sellerID := auth.GetSellerID(ctx)
	if sellerID == "" {
		return nil, grpcerr.Unauthenticated(ctx)
	}

	if err := h.uc.RemoveProductImage(ctx, sellerID, req.ProductID, req.ImageID); err != nil {
		h.logger.Warn("failed to remove product image", zap.String("product_id", req.ProductID), zap.String("image_id", req.ImageID), zap.Error(err))
		return nil, grpcerr.From(ctx, err)
	}
	return &catalogv1.Empty{}, nil
}

func mapImages(images []model.ProductImage) []*catalogv1.Image {
	out := make([]*catalogv1.Image, len(images))
	for i, img := range images {
		out[i] = &catalogv1.Image{
			ID:        img.ID,
			ProductID: img.ProductID,
			ImageURL:  img.ImageURL,
			SortOrder: int32(img.SortOrder),
			CreatedAt: img.CreatedAt,
		}
	}
	return out
}

func mapProduct(p *model.Product) *catalogv1.Product {
	out := &catalogv1.Product{
		ID:          p.ID,
		SellerID:    p.SellerID,
		Name:        p.Name,
		BasePrice:   p.BasePrice.String(),
		Stock:       int32(p.Stock),
		HasVariants: p.HasVariants,
		IsActive:    p.IsActive,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
	if p.CategoryID != nil {
		out.CategoryID = *p.CategoryID
	}
	if p.Description != nil {
		out.Description = *p.Description
	}
	if p.ImageURL != nil {
		out.ImageURL = *p.ImageURL
	}
	if len(p.Categories) > 0 {
		out.Categories = varianthandler.MapCategories(p.Categories)
	}
	if len(p.Variants) > 0 {
		out.Variants = varianthandler.MapVariants(p.Variants)
	}
	if len(p.Images) > 0 {
		out.Images = mapImages(p.Images)
	}
	return out
}

func parsePrice(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, matrix.Invalid("base_price", "%q is not a decimal number", s)
	}
	return d, nil
}
