package handler

import (
	"context"

	"go.uber.org/zap"

	catalogv1 "github.com/fekuna/marketplace-catalog-service/api/catalogv1"
	"github.com/fekuna/marketplace-catalog-service/internal/auth"
	"github.com/fekuna/marketplace-catalog-service/internal/grpcerr"
	"github.com/fekuna/marketplace-catalog-service/internal/logger"
	"github.com/fekuna/marketplace-catalog-service/internal/model"
	"github.com/fekuna/marketplace-catalog-service/internal/productcategory"
	"github.com/fekuna/marketplace-catalog-service/internal/productcategory/dto"
)

var _ catalogv1.ProductCategoryServiceServer = (*CategoryHandler)(nil)

// CategoryHandler serves the shared category tree. Reads are public,
// writes need the admin role.
type CategoryHandler struct {
	uc     productcategory.UseCase
	logger logger.ZapLogger
}

func NewCategoryHandler(uc productcategory.UseCase, log logger.ZapLogger) *CategoryHandler {
	return &CategoryHandler{
		uc:     uc,
		logger: log,
	}
}

func (h *CategoryHandler) CreateProductCategory(ctx context.Context, req *catalogv1.CreateProductCategoryRequest) (*catalogv1.ProductCategoryResponse, error) {
	if !auth.IsAdmin(ctx) {
		return nil, grpcerr.PermissionDenied(ctx)
	}

	input := &dto.CreateCategoryInput{
		Name:        req.Name,
		Description: req.Description,
		ImageURL:    req.ImageURL,
		SortOrder:   int(req.SortOrder),
	}
	if req.ParentID != "" {
		input.ParentID = &req.ParentID
	}

	cat, err := h.uc.CreateCategory(ctx, input)
	if err != nil {
		h.logger.Error("failed to create product category", zap.Error(err))
		return nil, grpcerr.From(ctx, err)
	}
	return &catalogv1.ProductCategoryResponse{Category: mapCategory(cat)}, nil
}

func (h *CategoryHandler) GetProductCategory(ctx context.Context, req *catalogv1.GetProductCategoryRequest) (*catalogv1.ProductCategoryResponse, error) {
	cat, err := h.uc.GetCategory(ctx, req.ID)
	if err != nil {
		return nil, grpcerr.From(ctx, err)
	}
	return &catalogv1.ProductCategoryResponse{Category: mapCategory(cat)}, nil
}

func (h *CategoryHandler) ListProductCategories(ctx context.Context, req *catalogv1.ListProductCategoriesRequest) (*catalogv1.ListProductCategoriesResponse, error) {
	parentID := req.ParentID
	filters := &dto.CategoryFilters{
		ParentID:        &parentID,
		IncludeChildren: req.IncludeChildren,
		Page:            int(req.Page),
		PageSize:        int(req.PageSize),
	}
	// Shoppers only browse active categories.
	if req.ActiveOnly || !auth.IsAdmin(ctx) {
		active := true
		filters.IsActive = &active
	}

	cats, total, err := h.uc.ListCategories(ctx, filters)
	if err != nil {
		h.logger.Error("failed to list product categories", zap.Error(err))
		return nil, grpcerr.From(ctx, err)
	}
	return &catalogv1.ListProductCategoriesResponse{Categories: mapCategories(cats), Total: int32(total)}, nil
}

func (h *CategoryHandler) UpdateProductCategory(ctx context.Context, req *catalogv1.UpdateProductCategoryRequest) (*catalogv1.ProductCategoryResponse, error) {
	if !auth.IsAdmin(ctx) {
		return nil, grpcerr.PermissionDenied(ctx)
	}

	input := &dto.UpdateCategoryInput{
		ID:          req.ID,
		ParentID:    req.ParentID,
		Name:        req.Name,
		Description: req.Description,
		ImageURL:    req.ImageURL,
		IsActive:    req.IsActive,
	}
	if req.SortOrder != nil {
		order := int(*req.SortOrder)
		input.SortOrder = &order
	}

	cat, err := h.uc.UpdateCategory(ctx, input)
	if err != nil {
		h.logger.Error("failed to update product category", zap.String("category_id", req.ID), zap.Error(err))
		return nil, grpcerr.From(ctx, err)
	}
	return &catalogv1.ProductCategoryResponse{Category: mapCategory(cat)}, nil
}

func (h *CategoryHandler) DeleteProductCategory(ctx context.Context, req *catalogv1.DeleteProductCategoryRequest) (*catalogv1.Empty, error) {
	if !auth.IsAdmin(ctx) {
		return nil, grpcerr.PermissionDenied(ctx)
	}

	if err := h.uc.DeleteCategory(ctx, req.ID); err != nil {
		h.logger.Warn("failed to delete product category", zap.String("category_id", req.ID), zap.Error(err))
		return nil, grpcerr.From(ctx, err)
	}
	return &catalogv1.Empty{}, nil
}

func mapCategories(cats []model.ProductCategory) []*catalogv1.ProductCategory {
	out := make([]*catalogv1.ProductCategory, len(cats))
	for i := range cats {
		out[i] = mapCategory(&cats[i])
	}
	return out
}

func mapCategory(c *model.ProductCategory) *catalogv1.ProductCategory {
	out := &catalogv1.ProductCategory{
		ID:        c.ID,
		Name:      c.Name,
		SortOrder: int32(c.SortOrder),
		IsActive:  c.IsActive,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
	if c.ParentID != nil {
		out.ParentID = *c.ParentID
	}
	if c.Description != nil {
		out.Description = *c.Description
	}
	if c.ImageURL != nil {
		out.ImageURL = *c.ImageURL
	}
	if len(c.Children) > 0 {
		out.Children = mapCategories(c.Children)
	}
	return out
}
