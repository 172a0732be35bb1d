package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/fekuna/marketplace-catalog-service/internal/database"
	"github.com/fekuna/marketplace-catalog-service/internal/imagestore"
	"github.com/fekuna/marketplace-catalog-service/internal/logger"
	"github.com/fekuna/marketplace-catalog-service/internal/matrix"
	"github.com/fekuna/marketplace-catalog-service/internal/model"
	"github.com/fekuna/marketplace-catalog-service/internal/variant"
	"github.com/fekuna/marketplace-catalog-service/internal/variant/dto"
)

const listCacheTTL = 5 * time.Minute

// MovementLog records stock changes, e.g. the inventory repository.
type MovementLog interface {
	LogMovement(ctx context.Context, q sqlx.ExtContext, m *model.StockMovement) error
}

type variantUseCase struct {
	txm       *database.TxManager
	repo      variant.Repository
	syncer    *Synchronizer
	uploader  imagestore.Uploader
	movements MovementLog
	logger    logger.ZapLogger
}

// NewVariantUseCase wires the variant use case. A nil movements log skips
// the audit row for direct stock edits.
func NewVariantUseCase(txm *database.TxManager, repo variant.Repository, syncer *Synchronizer, uploader imagestore.Uploader, movements MovementLog, log logger.ZapLogger) variant.UseCase {
	return &variantUseCase{
		txm:       txm,
		repo:      repo,
		syncer:    syncer,
		uploader:  uploader,
		movements: movements,
		logger:    log,
	}
}

func (uc *variantUseCase) Synchronize(ctx context.Context, productID string, opts variant.SyncOptions) (*variant.SyncResult, error) {
	opts.DryRun = false
	return uc.syncer.Run(ctx, productID, opts, nil)
}

func (uc *variantUseCase) Preview(ctx context.Context, productID string, opts variant.SyncOptions) (*variant.SyncResult, error) {
	opts.DryRun = true
	return uc.syncer.Run(ctx, productID, opts, nil)
}

func (uc *variantUseCase) ListVariants(ctx context.Context, sellerID, productID string, includeArchived bool) ([]model.ProductVariant, error) {
	if _, err := uc.ownedProduct(ctx, uc.txm.DB, sellerID, productID, false); err != nil {
		return nil, err
	}

	key := fmt.Sprintf("variants:list:%s:%t", productID, includeArchived)
	if c := uc.syncer.cache; c != nil {
		if val, err := c.Get(ctx, key); err == nil {
			var variants []model.ProductVariant
			if err := json.Unmarshal(val, &variants); err == nil {
				return variants, nil
			}
		}
	}

	variants, err := uc.repo.ListByProduct(ctx, uc.txm.DB, productID, includeArchived)
	if err != nil {
		return nil, err
	}

	if c := uc.syncer.cache; c != nil {
		if data, err := json.Marshal(variants); err == nil {
			if err := c.Set(ctx, key, data, listCacheTTL); err != nil {
				uc.logger.Warn("failed to cache variants", zap.String("product_id", productID), zap.Error(err))
			}
		}
	}
	return variants, nil
}

func (uc *variantUseCase) GetVariant(ctx context.Context, sellerID, id string) (*model.ProductVariant, error) {
	v, err := uc.repo.FindByID(ctx, uc.txm.DB, id, false)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, fmt.Errorf("variant %s: %w", id, model.ErrNotFound)
	}
	if _, err := uc.ownedProduct(ctx, uc.txm.DB, sellerID, v.ProductID, false); err != nil {
		return nil, fmt.Errorf("variant %s: %w", id, model.ErrNotFound)
	}
	return v, nil
}

func (uc *variantUseCase) UpdateVariant(ctx context.Context, input *dto.UpdateVariantInput) (*model.ProductVariant, error) {
	var updated *model.ProductVariant
	err := uc.txm.WithTx(ctx, func(tx *sqlx.Tx) error {
		v, err := uc.applyUpdate(ctx, tx, input)
		updated = v
		return err
	})
	if err != nil {
		return nil, err
	}
	uc.invalidate(ctx, updated.ProductID)
	return updated, nil
}

// BulkUpdateVariants applies every update or none of them.
func (uc *variantUseCase) BulkUpdateVariants(ctx context.Context, sellerID string, inputs []dto.UpdateVariantInput) ([]model.ProductVariant, error) {
	if len(inputs) == 0 {
		return nil, matrix.Invalid("variants", "at least one update is required")
	}

	updated := make([]model.ProductVariant, 0, len(inputs))
	err := uc.txm.WithTx(ctx, func(tx *sqlx.Tx) error {
		seen := make(map[string]bool, len(inputs))
		for i := range inputs {
			in := inputs[i]
			if seen[in.ID] {
				return matrix.Invalid("variants", "variant %s listed twice", in.ID)
			}
			seen[in.ID] = true
			in.SellerID = sellerID

			v, err := uc.applyUpdate(ctx, tx, &in)
			if err != nil {
				return err
			}
			updated = append(updated, *v)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	products := map[string]bool{}
	for _, v := range updated {
		if !products[v.ProductID] {
			products[v.ProductID] = true
			uc.invalidate(ctx, v.ProductID)
		}
	}
	return updated, nil
}

func (uc *variantUseCase) applyUpdate(ctx context.Context, tx *sqlx.Tx, input *dto.UpdateVariantInput) (*model.ProductVariant, error) {
	if input.Price != nil && input.Price.IsNegative() {
		return nil, matrix.Invalid("price", "must not be negative")
	}
	if input.Stock != nil && *input.Stock < 0 {
		return nil, matrix.Invalid("stock", "must not be negative")
	}

	v, err := uc.repo.FindByID(ctx, tx, input.ID, true)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, fmt.Errorf("variant %s: %w", input.ID, model.ErrNotFound)
	}
	if _, err := uc.ownedProduct(ctx, tx, input.SellerID, v.ProductID, false); err != nil {
		return nil, fmt.Errorf("variant %s: %w", input.ID, model.ErrNotFound)
	}
	if v.ArchivedAt != nil {
		return nil, matrix.Invalid("variant", "variant %s is archived", v.ID)
	}

	before := v.Stock
	if input.Price != nil {
		v.Price = *input.Price
	}
	if input.Stock != nil {
		v.Stock = *input.Stock
	}
	if input.RemoveImage {
		v.ImageURL = nil
	}
	v.UpdatedAt = time.Now().UTC()

	if err := uc.repo.Update(ctx, tx, v); err != nil {
		return nil, err
	}
	if v.Stock != before && uc.movements != nil {
		note := "stock set on variant"
		m := &model.StockMovement{
			ID:             uuid.New().String(),
			ProductID:      v.ProductID,
			VariantID:      &v.ID,
			MovementType:   model.MovementAdjustment,
			QuantityChange: v.Stock - before,
			QuantityBefore: before,
			QuantityAfter:  v.Stock,
			Notes:          &note,
			CreatedAt:      v.UpdatedAt,
		}
		if input.UserID != "" {
			m.CreatedBy = &input.UserID
		}
		if err := uc.movements.LogMovement(ctx, tx, m); err != nil {
			return nil, err
		}
	}
	return v, nil
}

// SetVariantImage uploads first and only then touches the row, so a failed
// upload leaves the variant unchanged.
func (uc *variantUseCase) SetVariantImage(ctx context.Context, input *dto.SetVariantImageInput) (*model.ProductVariant, error) {
	v, err := uc.GetVariant(ctx, input.SellerID, input.ID)
	if err != nil {
		return nil, err
	}
	if v.ArchivedAt != nil {
		return nil, matrix.Invalid("variant", "variant %s is archived", v.ID)
	}
	if uc.uploader == nil {
		return nil, errors.New("image upload is not configured")
	}

	url, err := uc.uploader.Upload(ctx, "variants/"+v.ProductID, input.Filename, input.Data)
	if err != nil {
		uc.logger.Error("variant image upload failed", zap.String("variant_id", v.ID), zap.Error(err))
		return nil, err
	}

	var updated *model.ProductVariant
	err = uc.txm.WithTx(ctx, func(tx *sqlx.Tx) error {
		cur, err := uc.repo.FindByID(ctx, tx, v.ID, true)
		if err != nil {
			return err
		}
		if cur == nil {
			return fmt.Errorf("variant %s: %w", v.ID, model.ErrNotFound)
		}
		cur.ImageURL = &url
		cur.UpdatedAt = time.Now().UTC()
		updated = cur
		return uc.repo.Update(ctx, tx, cur)
	})
	if err != nil {
		return nil, err
	}
	uc.invalidate(ctx, updated.ProductID)
	return updated, nil
}

func (uc *variantUseCase) ownedProduct(ctx context.Context, q sqlx.ExtContext, sellerID, productID string, lock bool) (*model.Product, error) {
	p, err := uc.repo.FindProduct(ctx, q, productID, lock)
	if err != nil {
		return nil, err
	}
	if p == nil || (sellerID != "" && p.SellerID != sellerID) {
		return nil, fmt.Errorf("product %s: %w", productID, model.ErrNotFound)
	}
	return p, nil
}

func (uc *variantUseCase) invalidate(ctx context.Context, productID string) {
	if c := uc.syncer.cache; c != nil {
		if err := c.DelPattern(ctx, variantListPattern(productID)); err != nil {
			uc.logger.Warn("failed to invalidate variant cache", zap.String("product_id", productID), zap.Error(err))
		}
	}
}
