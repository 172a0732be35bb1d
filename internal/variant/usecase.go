package variant

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/fekuna/marketplace-catalog-service/internal/matrix"
	"github.com/fekuna/marketplace-catalog-service/internal/model"
	"github.com/fekuna/marketplace-catalog-service/internal/variant/dto"
)

type UseCase interface {
	Synchronize(ctx context.Context, productID string, opts SyncOptions) (*SyncResult, error)
	Preview(ctx context.Context, productID string, opts SyncOptions) (*SyncResult, error)

	ListVariants(ctx context.Context, sellerID, productID string, includeArchived bool) ([]model.ProductVariant, error)
	GetVariant(ctx context.Context, sellerID, id string) (*model.ProductVariant, error)
	UpdateVariant(ctx context.Context, input *dto.UpdateVariantInput) (*model.ProductVariant, error)
	BulkUpdateVariants(ctx context.Context, sellerID string, inputs []dto.UpdateVariantInput) ([]model.ProductVariant, error)
	SetVariantImage(ctx context.Context, input *dto.SetVariantImageInput) (*model.ProductVariant, error)
}

// Syncer runs a matrix edit and the reconciliation it triggers as one unit.
type Syncer interface {
	Run(ctx context.Context, productID string, opts SyncOptions, edit EditFunc) (*SyncResult, error)
}

type SyncOptions struct {
	// SellerID restricts the sync to products of this seller. Empty skips
	// the ownership check.
	SellerID string
	// Policy overrides the configured delete policy.
	Policy matrix.DeletePolicy
	// DryRun computes the plan and rolls everything back.
	DryRun bool

	InitialPrice decimal.Decimal
	InitialStock int
}

// Retirement lists what an edit removes. The rows are deleted only after
// the variants depending on them have been reconciled.
type Retirement struct {
	CategoryIDs  []int64
	AttributeIDs []int64
}

// EditFunc applies a matrix edit inside the sync transaction. current is
// the matrix as it was before the edit.
type EditFunc func(ctx context.Context, tx *sqlx.Tx, current []model.VariantCategory) (*Retirement, error)

type SyncResult struct {
	ProductID  string
	Plan       *matrix.Plan
	Categories []model.VariantCategory
	// Variants are the live variants after the sync. Empty on a dry run.
	Variants []model.ProductVariant
	// AtRisk lists variants leaving the matrix that orders or carts still
	// reference.
	AtRisk    []string
	Committed bool
}
