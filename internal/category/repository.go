package category

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/fekuna/marketplace-catalog-service/internal/model"
)

// Repository persists variant categories and their attribute values. Every
// method takes the query target so edits can share the sync transaction.
type Repository interface {
	CreateCategory(ctx context.Context, q sqlx.ExtContext, c *model.VariantCategory) error
	UpdateCategory(ctx context.Context, q sqlx.ExtContext, c *model.VariantCategory) error
	CreateAttribute(ctx context.Context, q sqlx.ExtContext, a *model.VariantAttribute, now time.Time) error
	UpdateAttribute(ctx context.Context, q sqlx.ExtContext, a *model.VariantAttribute, now time.Time) error

	// ListByProduct returns categories ordered by sort order and id, each
	// with its attributes in the same order.
	ListByProduct(ctx context.Context, q sqlx.ExtContext, productID string) ([]model.VariantCategory, error)

	DeleteAttributes(ctx context.Context, q sqlx.ExtContext, ids []int64) error
	DeleteCategories(ctx context.Context, q sqlx.ExtContext, ids []int64) error
}
