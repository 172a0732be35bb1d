package handler

import (
	"context"

	"go.uber.org/zap"

	catalogv1 "github.com/fekuna/marketplace-catalog-service/api/catalogv1"
	"github.com/fekuna/marketplace-catalog-service/internal/auth"
	"github.com/fekuna/marketplace-catalog-service/internal/category"
	"github.com/fekuna/marketplace-catalog-service/internal/category/dto"
	"github.com/fekuna/marketplace-catalog-service/internal/grpcerr"
	"github.com/fekuna/marketplace-catalog-service/internal/logger"
	"github.com/fekuna/marketplace-catalog-service/internal/variant"
	varianthandler "github.com/fekuna/marketplace-catalog-service/internal/variant/handler"
)

var _ catalogv1.CategoryServiceServer = (*CategoryHandler)(nil)

type CategoryHandler struct {
	uc     category.UseCase
	logger logger.ZapLogger
}

func NewCategoryHandler(uc category.UseCase, log logger.ZapLogger) *CategoryHandler {
	return &CategoryHandler{
		uc:     uc,
		logger: log,
	}
}

func (h *CategoryHandler) DefineMatrix(ctx context.Context, req *catalogv1.DefineMatrixRequest) (*catalogv1.MatrixResponse, error) {
	sellerID := auth.GetSellerID(ctx)
	if sellerID == "" {
		return nil, grpcerr.Unauthenticated(ctx)
	}
	params, err := syncParams(req.DeletePolicy, req.DryRun)
	if err != nil {
		return nil, grpcerr.From(ctx, err)
	}

	specs := make([]dto.CategorySpec, 0, len(req.Categories))
	for _, c := range req.Categories {
		if c != nil {
			specs = append(specs, dto.CategorySpec{Name: c.Name, Attributes: c.Attributes})
		}
	}

	res, err := h.uc.DefineMatrix(ctx, &dto.DefineMatrixInput{
		SellerID:   sellerID,
		ProductID:  req.ProductID,
		Categories: specs,
		SyncParams: params,
	})
	return h.respond(ctx, "define variant matrix", req.ProductID, res, err)
}

func (h *CategoryHandler) AddCategory(ctx context.Context, req *catalogv1.AddCategoryRequest) (*catalogv1.MatrixResponse, error) {
	sellerID := auth.GetSellerID(ctx)
	if sellerID == "" {
		return nil, grpcerr.Unauthenticated(ctx)
	}
	params, err := syncParams(req.DeletePolicy, req.DryRun)
	if err != nil {
		return nil, grpcerr.From(ctx, err)
	}

	input := &dto.AddCategoryInput{
		SellerID:   sellerID,
		ProductID:  req.ProductID,
		SyncParams: params,
	}
	if req.Category != nil {
		input.Category = dto.CategorySpec{Name: req.Category.Name, Attributes: req.Category.Attributes}
	}

	res, err := h.uc.AddCategory(ctx, input)
	return h.respond(ctx, "add variant category", req.ProductID, res, err)
}

func (h *CategoryHandler) UpdateCategory(ctx context.Context, req *catalogv1.UpdateCategoryRequest) (*catalogv1.MatrixResponse, error) {
	sellerID := auth.GetSellerID(ctx)
	if sellerID == "" {
		return nil, grpcerr.Unauthenticated(ctx)
	}
	params, err := syncParams(req.DeletePolicy, req.DryRun)
	if err != nil {
		return nil, grpcerr.From(ctx, err)
	}

	input := &dto.UpdateCategoryInput{
		SellerID:   sellerID,
		ProductID:  req.ProductID,
		CategoryID: req.CategoryID,
		Name:       req.Name,
		SyncParams: params,
	}
	if req.SortOrder != nil {
		order := int(*req.SortOrder)
		input.SortOrder = &order
	}
	if req.Attributes != nil {
		input.Attributes = make([]dto.AttributeEdit, 0, len(req.Attributes))
		for _, a := range req.Attributes {
			if a != nil {
				input.Attributes = append(input.Attributes, dto.AttributeEdit{ID: a.ID, Value: a.Value})
			}
		}
	}

	res, err := h.uc.UpdateCategory(ctx, input)
	return h.respond(ctx, "update variant category", req.ProductID, res, err)
}

func (h *CategoryHandler) DeleteCategory(ctx context.Context, req *catalogv1.DeleteCategoryRequest) (*catalogv1.MatrixResponse, error) {
	sellerID := auth.GetSellerID(ctx)
	if sellerID == "" {
		return nil, grpcerr.Unauthenticated(ctx)
	}
	params, err := syncParams(req.DeletePolicy, req.DryRun)
	if err != nil {
		return nil, grpcerr.From(ctx, err)
	}

	res, err := h.uc.DeleteCategory(ctx, &dto.DeleteCategoryInput{
		SellerID:   sellerID,
		ProductID:  req.ProductID,
		CategoryID: req.CategoryID,
		SyncParams: params,
	})
	return h.respond(ctx, "delete variant category", req.ProductID, res, err)
}

func (h *CategoryHandler) ListCategories(ctx context.Context, req *catalogv1.ListCategoriesRequest) (*catalogv1.ListCategoriesResponse, error) {
	cats, err := h.uc.ListCategories(ctx, auth.GetSellerID(ctx), req.ProductID)
	if err != nil {
		return nil, grpcerr.From(ctx, err)
	}
	return &catalogv1.ListCategoriesResponse{Categories: varianthandler.MapCategories(cats)}, nil
}

func (h *CategoryHandler) respond(ctx context.Context, op, productID string, res *variant.SyncResult, err error) (*catalogv1.MatrixResponse, error) {
	if err != nil {
		h.logger.Error("failed to "+op, zap.String("product_id", productID), zap.Error(err))
		return nil, grpcerr.From(ctx, err)
	}
	return varianthandler.MapSyncResult(res), nil
}

func syncParams(policy string, dryRun bool) (dto.SyncParams, error) {
	p, err := varianthandler.RequestPolicy(policy)
	if err != nil {
		return dto.SyncParams{}, err
	}
	return dto.SyncParams{Policy: p, DryRun: dryRun}, nil
}
