package variant

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/fekuna/marketplace-catalog-service/internal/matrix"
	"github.com/fekuna/marketplace-catalog-service/internal/model"
)

// Defaults seed the price and stock of variants created by a sync.
type Defaults struct {
	Price decimal.Decimal
	Stock int
}

// Repository reads and writes variants and their attribute links. Every
// method takes the query target so it can join the caller's transaction.
type Repository interface {
	// FindProduct returns nil when the product does not exist. With lock set
	// the row stays locked until the transaction ends.
	FindProduct(ctx context.Context, q sqlx.ExtContext, productID string, lock bool) (*model.Product, error)
	SetHasVariants(ctx context.Context, q sqlx.ExtContext, productID string, hasVariants bool, now time.Time) error

	// ListByProduct loads variants ordered by creation, with AttributeIDs and
	// Attributes filled from the link table.
	ListByProduct(ctx context.Context, q sqlx.ExtContext, productID string, includeArchived bool) ([]model.ProductVariant, error)
	FindByID(ctx context.Context, q sqlx.ExtContext, id string, lock bool) (*model.ProductVariant, error)
	Update(ctx context.Context, q sqlx.ExtContext, v *model.ProductVariant) error

	// ReferencedIDs returns the subset of ids that cart or order lines point at.
	ReferencedIDs(ctx context.Context, q sqlx.ExtContext, ids []string) ([]string, error)
	// ApplyPlan writes a reconciliation plan and returns the created variants.
	ApplyPlan(ctx context.Context, q sqlx.ExtContext, plan *matrix.Plan, defaults Defaults, now time.Time) ([]model.ProductVariant, error)
}

// MatrixStore is the read and cleanup side of the attribute store that a
// sync needs.
type MatrixStore interface {
	ListByProduct(ctx context.Context, q sqlx.ExtContext, productID string) ([]model.VariantCategory, error)
	DeleteAttributes(ctx context.Context, q sqlx.ExtContext, ids []int64) error
	DeleteCategories(ctx context.Context, q sqlx.ExtContext, ids []int64) error
}
