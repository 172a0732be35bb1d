package handler

import (
	"context"

	"go.uber.org/zap"

	catalogv1 "github.com/fekuna/marketplace-catalog-service/api/catalogv1"
	"github.com/fekuna/marketplace-catalog-service/internal/auth"
	"github.com/fekuna/marketplace-catalog-service/internal/grpcerr"
	"github.com/fekuna/marketplace-catalog-service/internal/inventory"
	"github.com/fekuna/marketplace-catalog-service/internal/inventory/dto"
	"github.com/fekuna/marketplace-catalog-service/internal/logger"
	"github.com/fekuna/marketplace-catalog-service/internal/model"
)

var _ catalogv1.InventoryServiceServer = (*InventoryHandler)(nil)

type InventoryHandler struct {
	uc     inventory.UseCase
	logger logger.ZapLogger
}

func NewInventoryHandler(uc inventory.UseCase, log logger.ZapLogger) *InventoryHandler {
	return &InventoryHandler{
		uc:     uc,
		logger: log,
	}
}

func (h *InventoryHandler) AdjustStock(ctx context.Context, req *catalogv1.AdjustStockRequest) (*catalogv1.AdjustStockResponse, error) {
	sellerID := auth.GetSellerID(ctx)
	if sellerID == "" {
		return nil, grpcerr.Unauthenticated(ctx)
	}

	m, err := h.uc.AdjustStock(ctx, &dto.AdjustStockInput{
		SellerID:      sellerID,
		ProductID:     req.ProductID,
		VariantID:     req.VariantID,
		Delta:         int(req.Delta),
		MovementType:  req.MovementType,
		Reason:        req.Reason,
		ReferenceType: req.ReferenceType,
		ReferenceID:   req.ReferenceID,
		UserID:        auth.GetUserID(ctx),
	})
	if err != nil {
		h.logger.Warn("failed to adjust stock",
			zap.String("product_id", req.ProductID),
			zap.String("variant_id", req.VariantID),
			zap.Error(err),
		)
		return nil, grpcerr.From(ctx, err)
	}
	return &catalogv1.AdjustStockResponse{Movement: mapMovement(m)}, nil
}

func (h *InventoryHandler) ListMovements(ctx context.Context, req *catalogv1.ListMovementsRequest) (*catalogv1.ListMovementsResponse, error) {
	sellerID := auth.GetSellerID(ctx)
	if sellerID == "" {
		return nil, grpcerr.Unauthenticated(ctx)
	}

	movements, total, err := h.uc.ListMovements(ctx, &dto.MovementFilters{
		SellerID:     sellerID,
		ProductID:    req.ProductID,
		VariantID:    req.VariantID,
		MovementType: req.MovementType,
		Page:         int(req.Page),
		PageSize:     int(req.PageSize),
	})
	if err != nil {
		return nil, grpcerr.From(ctx, err)
	}

	out := make([]*catalogv1.StockMovement, len(movements))
	for i := range movements {
		out[i] = mapMovement(&movements[i])
	}
	return &catalogv1.ListMovementsResponse{Movements: out, Total: int32(total)}, nil
}

func mapMovement(m *model.StockMovement) *catalogv1.StockMovement {
	return &catalogv1.StockMovement{
		ID:             m.ID,
		ProductID:      m.ProductID,
		VariantID:      deref(m.VariantID),
		MovementType:   m.MovementType,
		QuantityChange: int32(m.QuantityChange),
		QuantityBefore: int32(m.QuantityBefore),
		QuantityAfter:  int32(m.QuantityAfter),
		ReferenceType:  deref(m.ReferenceType),
		ReferenceID:    deref(m.ReferenceID),
		Notes:          deref(m.Notes),
		CreatedBy:      deref(m.CreatedBy),
		CreatedAt:      m.CreatedAt,
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
