package handler

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	catalogv1 "github.com/fekuna/marketplace-catalog-service/api/catalogv1"
	"github.com/fekuna/marketplace-catalog-service/internal/auth"
	"github.com/fekuna/marketplace-catalog-service/internal/database"
	"github.com/fekuna/marketplace-catalog-service/internal/inventory/repository"
	"github.com/fekuna/marketplace-catalog-service/internal/inventory/usecase"
	"github.com/fekuna/marketplace-catalog-service/internal/logger"
	"github.com/fekuna/marketplace-catalog-service/internal/testutil"
)

func TestInventoryHandler(t *testing.T) {
	db := testutil.NewDB(t)
	uc := usecase.NewInventoryUseCase(database.NewTxManager(db, 0), repository.NewPGRepository(db), nil, nil, logger.NewNop())
	h := NewInventoryHandler(uc, logger.NewNop())
	p := testutil.CreateProduct(t, db, "seller-1", "Hoodie")
	ctx := auth.WithUser(context.Background(), auth.UserContext{SellerID: "seller-1", UserID: "user-7"})

	res, err := h.AdjustStock(ctx, &catalogv1.AdjustStockRequest{ProductID: p.ID, Delta: 8, MovementType: "restock", Reason: "opening count"})
	require.NoError(t, err)
	assert.Equal(t, int32(0), res.Movement.QuantityBefore)
	assert.Equal(t, int32(8), res.Movement.QuantityAfter)
	assert.Equal(t, "user-7", res.Movement.CreatedBy)
	assert.Equal(t, "opening count", res.Movement.Notes)

	_, err = h.AdjustStock(ctx, &catalogv1.AdjustStockRequest{ProductID: p.ID, Delta: -9})
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))

	_, err = h.AdjustStock(ctx, &catalogv1.AdjustStockRequest{ProductID: p.ID})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = h.AdjustStock(context.Background(), &catalogv1.AdjustStockRequest{ProductID: p.ID, Delta: 1})
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	other := auth.WithUser(context.Background(), auth.UserContext{SellerID: "seller-2"})
	_, err = h.AdjustStock(other, &catalogv1.AdjustStockRequest{ProductID: p.ID, Delta: 1})
	assert.Equal(t, codes.NotFound, status.Code(err))

	list, err := h.ListMovements(ctx, &catalogv1.ListMovementsRequest{ProductID: p.ID})
	require.NoError(t, err)
	assert.Equal(t, int32(1), list.Total)
	require.Len(t, list.Movements, 1)
	assert.Equal(t, "restock", list.Movements[0].MovementType)
	assert.Empty(t, list.Movements[0].VariantID)
}
