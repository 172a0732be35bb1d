package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/fekuna/marketplace-catalog-service/internal/database"
	"github.com/fekuna/marketplace-catalog-service/internal/inventory"
	"github.com/fekuna/marketplace-catalog-service/internal/inventory/dto"
	"github.com/fekuna/marketplace-catalog-service/internal/logger"
	"github.com/fekuna/marketplace-catalog-service/internal/matrix"
	"github.com/fekuna/marketplace-catalog-service/internal/model"
)

const (
	lockAttempts = 3
	lockBackoff  = 100 * time.Millisecond
	lockTTL      = 5 * time.Second
)

// Locker is a distributed mutex, e.g. *cache.RedisClient.
type Locker interface {
	AcquireLock(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, key, value string) error
}

// Cache holds the variant and product listings that embed stock.
type Cache interface {
	DelPattern(ctx context.Context, pattern string) error
}

type inventoryUseCase struct {
	txm    *database.TxManager
	repo   inventory.Repository
	locker Locker
	cache  Cache
	logger logger.ZapLogger
}

// NewInventoryUseCase builds the stock use case. A nil locker leaves
// serialization to the row lock; a nil cache means nothing to invalidate.
func NewInventoryUseCase(txm *database.TxManager, repo inventory.Repository, locker Locker, cache Cache, log logger.ZapLogger) inventory.UseCase {
	return &inventoryUseCase{
		txm:    txm,
		repo:   repo,
		locker: locker,
		cache:  cache,
		logger: log,
	}
}

// touched maps each product whose stock changed to its seller.
type touched map[string]string

func (uc *inventoryUseCase) AdjustStock(ctx context.Context, input *dto.AdjustStockInput) (*model.StockMovement, error) {
	if input.Delta == 0 {
		return nil, matrix.Invalid("delta", "must not be zero")
	}
	if input.MovementType == "" {
		input.MovementType = model.MovementAdjustment
	}
	switch input.MovementType {
	case model.MovementAdjustment, model.MovementRestock, model.MovementSale, model.MovementReturn:
	default:
		return nil, matrix.Invalid("movement_type", "unknown movement type %q", input.MovementType)
	}

	lockKey := fmt.Sprintf("lock:stock:%s", input.ProductID)
	if input.VariantID != "" {
		lockKey += ":" + input.VariantID
	}
	release, err := uc.lock(ctx, lockKey)
	if err != nil {
		return nil, err
	}
	defer release()

	var movement *model.StockMovement
	changed := touched{}
	err = uc.txm.WithTx(ctx, func(tx *sqlx.Tx) error {
		var err error
		movement, err = uc.adjust(ctx, tx, input, time.Now().UTC(), changed)
		return err
	})
	if err != nil {
		if database.IsConflict(err) {
			return nil, matrix.Conflict(err)
		}
		return nil, err
	}
	uc.invalidate(ctx, changed)
	return movement, nil
}

// adjust applies one stock change and logs it inside tx.
func (uc *inventoryUseCase) adjust(ctx context.Context, tx sqlx.ExtContext, input *dto.AdjustStockInput, now time.Time, changed touched) (*model.StockMovement, error) {
	level, err := uc.repo.LockStock(ctx, tx, input.ProductID, input.VariantID)
	if err != nil {
		return nil, err
	}
	if level == nil || (input.SellerID != "" && level.SellerID != input.SellerID) {
		if input.VariantID != "" {
			return nil, fmt.Errorf("variant %s: %w", input.VariantID, model.ErrNotFound)
		}
		return nil, fmt.Errorf("product %s: %w", input.ProductID, model.ErrNotFound)
	}

	after := level.Stock + input.Delta
	if after < 0 {
		return nil, fmt.Errorf("%w: %d in stock, %d requested", model.ErrInsufficientStock, level.Stock, -input.Delta)
	}
	if err := uc.repo.SetStock(ctx, tx, input.ProductID, input.VariantID, after, now); err != nil {
		return nil, err
	}

	m := &model.StockMovement{
		ID:             uuid.New().String(),
		ProductID:      input.ProductID,
		VariantID:      optional(input.VariantID),
		MovementType:   input.MovementType,
		QuantityChange: input.Delta,
		QuantityBefore: level.Stock,
		QuantityAfter:  after,
		ReferenceType:  optional(input.ReferenceType),
		ReferenceID:    optional(input.ReferenceID),
		Notes:          optional(input.Reason),
		CreatedBy:      optional(input.UserID),
		CreatedAt:      now,
	}
	if err := uc.repo.LogMovement(ctx, tx, m); err != nil {
		return nil, err
	}
	changed[input.ProductID] = level.SellerID
	return m, nil
}

func (uc *inventoryUseCase) ListMovements(ctx context.Context, filters *dto.MovementFilters) ([]model.StockMovement, int, error) {
	return uc.repo.ListMovements(ctx, filters)
}

func (uc *inventoryUseCase) ApplyOrder(ctx context.Context, order *dto.OrderInput) error {
	if order.OrderID == "" {
		return matrix.Invalid("order_id", "must not be empty")
	}
	for _, line := range order.Lines {
		if line.Quantity <= 0 {
			return matrix.Invalid("quantity", "must be positive")
		}
	}

	now := time.Now().UTC()
	applied := 0
	changed := touched{}
	err := uc.txm.WithTx(ctx, func(tx *sqlx.Tx) error {
		for _, line := range order.Lines {
			recorded, err := uc.repo.RecordOrderItem(ctx, tx, &model.OrderItem{
				ID:        uuid.New().String(),
				OrderID:   order.OrderID,
				ProductID: line.ProductID,
				VariantID: optional(line.VariantID),
				Quantity:  line.Quantity,
				UnitPrice: line.UnitPrice,
				CreatedAt: now,
			})
			if err != nil {
				return err
			}
			if !recorded {
				// redelivered event
				continue
			}

			_, err = uc.adjust(ctx, tx, &dto.AdjustStockInput{
				ProductID:     line.ProductID,
				VariantID:     line.VariantID,
				Delta:         -line.Quantity,
				MovementType:  model.MovementSale,
				Reason:        "order placed",
				ReferenceType: "order",
				ReferenceID:   order.OrderID,
				UserID:        "system",
			}, now, changed)
			if err != nil {
				return err
			}
			applied++
		}
		return nil
	})
	if err != nil {
		return err
	}
	uc.invalidate(ctx, changed)

	uc.logger.Info("order applied to stock",
		zap.String("order_id", order.OrderID),
		zap.Int("lines", len(order.Lines)),
		zap.Int("applied", applied),
	)
	return nil
}

// invalidate drops cached listings of every changed product once the
// transaction has committed.
func (uc *inventoryUseCase) invalidate(ctx context.Context, changed touched) {
	if uc.cache == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	sellers := map[string]bool{}
	for productID, sellerID := range changed {
		patterns := []string{fmt.Sprintf("variants:list:%s:*", productID)}
		if !sellers[sellerID] {
			sellers[sellerID] = true
			patterns = append(patterns, fmt.Sprintf("products:list:%s:*", sellerID))
		}
		for _, pattern := range patterns {
			if err := uc.cache.DelPattern(ctx, pattern); err != nil {
				uc.logger.Warn("failed to invalidate stock listing", zap.String("pattern", pattern), zap.Error(err))
			}
		}
	}
}

// lock takes the redis lock for key. Redis being down is not fatal: the
// row lock inside the transaction still serializes writers.
func (uc *inventoryUseCase) lock(ctx context.Context, key string) (func(), error) {
	if uc.locker == nil {
		return func() {}, nil
	}
	value := uuid.New().String()
	for i := range lockAttempts {
		ok, err := uc.locker.AcquireLock(ctx, key, value, lockTTL)
		if err != nil {
			uc.logger.Warn("stock lock unavailable, relying on row lock", zap.String("key", key), zap.Error(err))
			return func() {}, nil
		}
		if ok {
			return func() {
				if err := uc.locker.ReleaseLock(context.WithoutCancel(ctx), key, value); err != nil {
					uc.logger.Warn("failed to release stock lock", zap.String("key", key), zap.Error(err))
				}
			}, nil
		}
		if i < lockAttempts-1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(lockBackoff):
			}
		}
	}
	return nil, matrix.Conflict(fmt.Errorf("stock lock %s is held", key))
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
