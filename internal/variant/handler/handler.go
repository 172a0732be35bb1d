package handler

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	catalogv1 "github.com/fekuna/marketplace-catalog-service/api/catalogv1"
	"github.com/fekuna/marketplace-catalog-service/internal/auth"
	"github.com/fekuna/marketplace-catalog-service/internal/grpcerr"
	"github.com/fekuna/marketplace-catalog-service/internal/logger"
	"github.com/fekuna/marketplace-catalog-service/internal/matrix"
	"github.com/fekuna/marketplace-catalog-service/internal/variant"
	"github.com/fekuna/marketplace-catalog-service/internal/variant/dto"
)

var _ catalogv1.VariantServiceServer = (*VariantHandler)(nil)

type VariantHandler struct {
	uc     variant.UseCase
	logger logger.ZapLogger
}

func NewVariantHandler(uc variant.UseCase, log logger.ZapLogger) *VariantHandler {
	return &VariantHandler{
		uc:     uc,
		logger: log,
	}
}

func (h *VariantHandler) SyncVariants(ctx context.Context, req *catalogv1.SyncVariantsRequest) (*catalogv1.MatrixResponse, error) {
	sellerID := auth.GetSellerID(ctx)
	if sellerID == "" {
		return nil, grpcerr.Unauthenticated(ctx)
	}

	policy, err := RequestPolicy(req.DeletePolicy)
	if err != nil {
		return nil, grpcerr.From(ctx, err)
	}
	opts := variant.SyncOptions{
		SellerID:     sellerID,
		Policy:       policy,
		InitialStock: int(req.InitialStock),
	}
	if req.InitialPrice != "" {
		if opts.InitialPrice, err = parsePrice("initial_price", req.InitialPrice); err != nil {
			return nil, grpcerr.From(ctx, err)
		}
	}
	if opts.InitialStock < 0 {
		return nil, grpcerr.From(ctx, matrix.Invalid("initial_stock", "must not be negative"))
	}

	var res *variant.SyncResult
	if req.DryRun {
		res, err = h.uc.Preview(ctx, req.ProductID, opts)
	} else {
		res, err = h.uc.Synchronize(ctx, req.ProductID, opts)
	}
	if err != nil {
		h.logger.Warn("failed to synchronize variants", zap.String("product_id", req.ProductID), zap.Error(err))
		return nil, grpcerr.From(ctx, err)
	}
	return MapSyncResult(res), nil
}

func (h *VariantHandler) ListVariants(ctx context.Context, req *catalogv1.ListVariantsRequest) (*catalogv1.ListVariantsResponse, error) {
	variants, err := h.uc.ListVariants(ctx, auth.GetSellerID(ctx), req.ProductID, req.IncludeArchived)
	if err != nil {
		return nil, grpcerr.From(ctx, err)
	}
	return &catalogv1.ListVariantsResponse{Variants: MapVariants(variants)}, nil
}

func (h *VariantHandler) GetVariant(ctx context.Context, req *catalogv1.GetVariantRequest) (*catalogv1.VariantResponse, error) {
	v, err := h.uc.GetVariant(ctx, auth.GetSellerID(ctx), req.ID)
	if err != nil {
		return nil, grpcerr.From(ctx, err)
	}
	return &catalogv1.VariantResponse{Variant: MapVariant(v)}, nil
}

func (h *VariantHandler) UpdateVariant(ctx context.Context, req *catalogv1.UpdateVariantRequest) (*catalogv1.VariantResponse, error) {
	sellerID := auth.GetSellerID(ctx)
	if sellerID == "" {
		return nil, grpcerr.Unauthenticated(ctx)
	}
	input, err := toUpdateInput(sellerID, auth.GetUserID(ctx), req)
	if err != nil {
		return nil, grpcerr.From(ctx, err)
	}

	v, err := h.uc.UpdateVariant(ctx, input)
	if err != nil {
		h.logger.Error("failed to update variant", zap.String("variant_id", req.ID), zap.Error(err))
		return nil, grpcerr.From(ctx, err)
	}
	return &catalogv1.VariantResponse{Variant: MapVariant(v)}, nil
}

func (h *VariantHandler) BulkUpdateVariants(ctx context.Context, req *catalogv1.BulkUpdateVariantsRequest) (*catalogv1.ListVariantsResponse, error) {
	sellerID := auth.GetSellerID(ctx)
	if sellerID == "" {
		return nil, grpcerr.Unauthenticated(ctx)
	}

	inputs := make([]dto.UpdateVariantInput, 0, len(req.Variants))
	for _, r := range req.Variants {
		if r == nil {
			continue
		}
		in, err := toUpdateInput(sellerID, auth.GetUserID(ctx), r)
		if err != nil {
			return nil, grpcerr.From(ctx, err)
		}
		inputs = append(inputs, *in)
	}

	variants, err := h.uc.BulkUpdateVariants(ctx, sellerID, inputs)
	if err != nil {
		h.logger.Error("failed to bulk update variants", zap.Int("count", len(inputs)), zap.Error(err))
		return nil, grpcerr.From(ctx, err)
	}
	return &catalogv1.ListVariantsResponse{Variants: MapVariants(variants)}, nil
}

func (h *VariantHandler) SetVariantImage(ctx context.Context, req *catalogv1.SetVariantImageRequest) (*catalogv1.VariantResponse, error) {
	sellerID := auth.GetSellerID(ctx)
	if sellerID == "" {
		return nil, grpcerr.Unauthenticated(ctx)
	}

	v, err := h.uc.SetVariantImage(ctx, &dto.SetVariantImageInput{
		SellerID: sellerID,
		ID:       req.ID,
		Filename: req.Filename,
		Data:     req.Data,
	})
	if err != nil {
		return nil, grpcerr.From(ctx, err)
	}
	return &catalogv1.VariantResponse{Variant: MapVariant(v)}, nil
}

func toUpdateInput(sellerID, userID string, req *catalogv1.UpdateVariantRequest) (*dto.UpdateVariantInput, error) {
	in := &dto.UpdateVariantInput{
		SellerID:    sellerID,
		UserID:      userID,
		ID:          req.ID,
		RemoveImage: req.RemoveImage,
	}
	if req.Price != nil {
		p, err := parsePrice("price", *req.Price)
		if err != nil {
			return nil, err
		}
		in.Price = &p
	}
	if req.Stock != nil {
		s := int(*req.Stock)
		in.Stock = &s
	}
	return in, nil
}

// RequestPolicy parses a per-request delete policy. Empty keeps the
// configured default.
func RequestPolicy(s string) (matrix.DeletePolicy, error) {
	if strings.TrimSpace(s) == "" {
		return "", nil
	}
	return matrix.ParseDeletePolicy(s)
}

func parsePrice(field, s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, matrix.Invalid(field, "%q is not a decimal number", s)
	}
	return d, nil
}
