package inventory

import (
	"context"

	"github.com/fekuna/marketplace-catalog-service/internal/inventory/dto"
	"github.com/fekuna/marketplace-catalog-service/internal/model"
)

type UseCase interface {
	AdjustStock(ctx context.Context, input *dto.AdjustStockInput) (*model.StockMovement, error)
	ListMovements(ctx context.Context, filters *dto.MovementFilters) ([]model.StockMovement, int, error)
	// ApplyOrder records the order lines and takes their quantities out of
	// stock. Either every line is applied or none is.
	ApplyOrder(ctx context.Context, order *dto.OrderInput) error
}
