package inventory

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/fekuna/marketplace-catalog-service/internal/inventory/dto"
	"github.com/fekuna/marketplace-catalog-service/internal/model"
)

type Repository interface {
	// LockStock reads the stock of a product, or of the variant when
	// variantID is set, locking the row until the transaction ends. It
	// returns nil when the row does not exist.
	LockStock(ctx context.Context, q sqlx.ExtContext, productID, variantID string) (*model.StockLevel, error)
	SetStock(ctx context.Context, q sqlx.ExtContext, productID, variantID string, stock int, now time.Time) error
	LogMovement(ctx context.Context, q sqlx.ExtContext, m *model.StockMovement) error
	ListMovements(ctx context.Context, filters *dto.MovementFilters) ([]model.StockMovement, int, error)

	// RecordOrderItem stores an order line. It reports false when the line
	// was already recorded.
	RecordOrderItem(ctx context.Context, q sqlx.ExtContext, item *model.OrderItem) (bool, error)
}
