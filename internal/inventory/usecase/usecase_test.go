package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	catrepo "github.com/fekuna/marketplace-catalog-service/internal/category/repository"
	"github.com/fekuna/marketplace-catalog-service/internal/database"
	"github.com/fekuna/marketplace-catalog-service/internal/inventory"
	"github.com/fekuna/marketplace-catalog-service/internal/inventory/dto"
	"github.com/fekuna/marketplace-catalog-service/internal/inventory/repository"
	"github.com/fekuna/marketplace-catalog-service/internal/logger"
	"github.com/fekuna/marketplace-catalog-service/internal/matrix"
	"github.com/fekuna/marketplace-catalog-service/internal/model"
	"github.com/fekuna/marketplace-catalog-service/internal/testutil"
	varrepo "github.com/fekuna/marketplace-catalog-service/internal/variant/repository"
	varuc "github.com/fekuna/marketplace-catalog-service/internal/variant/usecase"
)

const seller = "seller-1"

type fixture struct {
	db        *sqlx.DB
	uc        inventory.UseCase
	product   *model.Product
	variantID string
}

func newFixture(t *testing.T, locker Locker) *fixture {
	t.Helper()
	db := testutil.NewDB(t)
	f := &fixture{
		db:        db,
		uc:        NewInventoryUseCase(database.NewTxManager(db, 0), repository.NewPGRepository(db), locker, nil, logger.NewNop()),
		product:   testutil.CreateProduct(t, db, seller, "Hoodie"),
		variantID: uuid.NewString(),
	}
	_, err := db.Exec(db.Rebind(`UPDATE products SET stock = 10 WHERE id = ?`), f.product.ID)
	require.NoError(t, err)
	_, err = db.Exec(db.Rebind(`INSERT INTO product_variants (id, product_id, variant_name, stock) VALUES (?, ?, 'M - Red', 3)`), f.variantID, f.product.ID)
	require.NoError(t, err)
	return f
}

func (f *fixture) productStock(t *testing.T) int {
	t.Helper()
	var n int
	require.NoError(t, f.db.Get(&n, f.db.Rebind(`SELECT stock FROM products WHERE id = ?`), f.product.ID))
	return n
}

func (f *fixture) variantStock(t *testing.T) int {
	t.Helper()
	var n int
	require.NoError(t, f.db.Get(&n, f.db.Rebind(`SELECT stock FROM product_variants WHERE id = ?`), f.variantID))
	return n
}

func TestAdjustStock(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	m, err := f.uc.AdjustStock(ctx, &dto.AdjustStockInput{
		SellerID: seller, ProductID: f.product.ID, Delta: 5, MovementType: model.MovementRestock, Reason: "supplier delivery", UserID: "user-9",
	})
	require.NoError(t, err)
	assert.Equal(t, 10, m.QuantityBefore)
	assert.Equal(t, 15, m.QuantityAfter)
	assert.Equal(t, "supplier delivery", *m.Notes)
	assert.Equal(t, 15, f.productStock(t))

	m, err = f.uc.AdjustStock(ctx, &dto.AdjustStockInput{SellerID: seller, ProductID: f.product.ID, VariantID: f.variantID, Delta: -2})
	require.NoError(t, err)
	assert.Equal(t, model.MovementAdjustment, m.MovementType)
	assert.Equal(t, f.variantID, *m.VariantID)
	assert.Equal(t, 1, f.variantStock(t))
	assert.Equal(t, 15, f.productStock(t), "variant changes leave product stock alone")

	movements, total, err := f.uc.ListMovements(ctx, &dto.MovementFilters{SellerID: seller, ProductID: f.product.ID})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, movements, 2)

	movements, total, err = f.uc.ListMovements(ctx, &dto.MovementFilters{SellerID: seller, VariantID: f.variantID})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, -2, movements[0].QuantityChange)

	_, total, err = f.uc.ListMovements(ctx, &dto.MovementFilters{SellerID: "seller-2"})
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestAdjustStock_Rejects(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	_, err := f.uc.AdjustStock(ctx, &dto.AdjustStockInput{SellerID: seller, ProductID: f.product.ID, VariantID: f.variantID, Delta: -4})
	assert.ErrorIs(t, err, model.ErrInsufficientStock)
	assert.Equal(t, 3, f.variantStock(t))

	_, err = f.uc.AdjustStock(ctx, &dto.AdjustStockInput{SellerID: seller, ProductID: f.product.ID, Delta: 0})
	assert.ErrorIs(t, err, matrix.ErrValidation)

	_, err = f.uc.AdjustStock(ctx, &dto.AdjustStockInput{SellerID: seller, ProductID: f.product.ID, Delta: 1, MovementType: "theft"})
	assert.ErrorIs(t, err, matrix.ErrValidation)

	_, err = f.uc.AdjustStock(ctx, &dto.AdjustStockInput{SellerID: "seller-2", ProductID: f.product.ID, Delta: 1})
	assert.ErrorIs(t, err, model.ErrNotFound)

	_, err = f.uc.AdjustStock(ctx, &dto.AdjustStockInput{SellerID: seller, ProductID: f.product.ID, VariantID: "missing", Delta: 1})
	assert.ErrorIs(t, err, model.ErrNotFound)

	_, total, err := f.uc.ListMovements(ctx, &dto.MovementFilters{ProductID: f.product.ID})
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestAdjustStock_ConcurrentDecrementsNeverOversell(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		ok, fail int
	)
	for range 6 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.uc.AdjustStock(ctx, &dto.AdjustStockInput{SellerID: seller, ProductID: f.product.ID, VariantID: f.variantID, Delta: -1})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				ok++
			} else {
				assert.ErrorIs(t, err, model.ErrInsufficientStock)
				fail++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 3, ok)
	assert.Equal(t, 3, fail)
	assert.Zero(t, f.variantStock(t))
}

type stubLocker struct {
	acquired bool
	err      error
	released int
}

func (l *stubLocker) AcquireLock(context.Context, string, string, time.Duration) (bool, error) {
	return l.acquired, l.err
}

func (l *stubLocker) ReleaseLock(context.Context, string, string) error {
	l.released++
	return nil
}

func TestAdjustStock_Lock(t *testing.T) {
	ctx := context.Background()
	in := func(f *fixture) *dto.AdjustStockInput {
		return &dto.AdjustStockInput{SellerID: seller, ProductID: f.product.ID, Delta: 1}
	}

	t.Run("held lock is a conflict", func(t *testing.T) {
		f := newFixture(t, &stubLocker{})
		_, err := f.uc.AdjustStock(ctx, in(f))
		assert.ErrorIs(t, err, matrix.ErrConflict)
		assert.Equal(t, 10, f.productStock(t))
	})

	t.Run("released after use", func(t *testing.T) {
		l := &stubLocker{acquired: true}
		f := newFixture(t, l)
		_, err := f.uc.AdjustStock(ctx, in(f))
		require.NoError(t, err)
		assert.Equal(t, 1, l.released)
	})

	t.Run("redis down falls back to row lock", func(t *testing.T) {
		f := newFixture(t, &stubLocker{err: errors.New("connection refused")})
		_, err := f.uc.AdjustStock(ctx, in(f))
		require.NoError(t, err)
		assert.Equal(t, 11, f.productStock(t))
	})
}

func TestApplyOrder(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	order := &dto.OrderInput{
		OrderID: "order-1",
		Lines: []dto.OrderLine{
			{ProductID: f.product.ID, VariantID: f.variantID, Quantity: 2, UnitPrice: decimal.RequireFromString("120000")},
			{ProductID: f.product.ID, Quantity: 4, UnitPrice: decimal.RequireFromString("100000")},
		},
	}

	require.NoError(t, f.uc.ApplyOrder(ctx, order))
	assert.Equal(t, 1, f.variantStock(t))
	assert.Equal(t, 6, f.productStock(t))

	require.NoError(t, f.uc.ApplyOrder(ctx, order), "redelivery")
	assert.Equal(t, 1, f.variantStock(t))
	assert.Equal(t, 6, f.productStock(t))

	var lines int
	require.NoError(t, f.db.Get(&lines, `SELECT COUNT(*) FROM order_items`))
	assert.Equal(t, 2, lines)

	movements, _, err := f.uc.ListMovements(ctx, &dto.MovementFilters{MovementType: model.MovementSale})
	require.NoError(t, err)
	require.Len(t, movements, 2)
	assert.Equal(t, "order-1", *movements[0].ReferenceID)
}

func TestApplyOrder_AllOrNothing(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	err := f.uc.ApplyOrder(ctx, &dto.OrderInput{
		OrderID: "order-2",
		Lines: []dto.OrderLine{
			{ProductID: f.product.ID, Quantity: 1, UnitPrice: decimal.NewFromInt(1)},
			{ProductID: f.product.ID, VariantID: f.variantID, Quantity: 9, UnitPrice: decimal.NewFromInt(1)},
		},
	})
	assert.ErrorIs(t, err, model.ErrInsufficientStock)
	assert.Equal(t, 10, f.productStock(t))
	assert.Equal(t, 3, f.variantStock(t))

	var lines int
	require.NoError(t, f.db.Get(&lines, `SELECT COUNT(*) FROM order_items`))
	assert.Zero(t, lines)

	err = f.uc.ApplyOrder(ctx, &dto.OrderInput{OrderID: "order-3", Lines: []dto.OrderLine{{ProductID: f.product.ID, Quantity: 0}}})
	assert.ErrorIs(t, err, matrix.ErrValidation)
}

type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (c *memCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if v, ok := c.data[key]; ok {
		return v, nil
	}
	return nil, errors.New("miss")
}

func (c *memCache) Set(_ context.Context, key string, v []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = v
	return nil
}

func (c *memCache) DelPattern(_ context.Context, pattern string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	prefix := strings.TrimSuffix(pattern, "*")
	for k := range c.data {
		if strings.HasPrefix(k, prefix) {
			delete(c.data, k)
		}
	}
	return nil
}

func TestStockChangesRefreshCachedListings(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	cache := &memCache{data: map[string][]byte{}}
	txm := database.NewTxManager(f.db, 0)

	vrepo := varrepo.NewPGRepository(f.db)
	syncer := varuc.NewSynchronizer(txm, vrepo, catrepo.NewPGRepository(f.db), varuc.Config{}, logger.NewNop(), varuc.WithCache(cache))
	variants := varuc.NewVariantUseCase(txm, vrepo, syncer, nil, nil, logger.NewNop())
	uc := NewInventoryUseCase(txm, repository.NewPGRepository(f.db), nil, cache, logger.NewNop())

	listedStock := func() int {
		t.Helper()
		list, err := variants.ListVariants(ctx, seller, f.product.ID, false)
		require.NoError(t, err)
		require.Len(t, list, 1)
		return list[0].Stock
	}

	assert.Equal(t, 3, listedStock())
	require.Contains(t, cache.data, "variants:list:"+f.product.ID+":false")
	cache.data["products:list:"+seller+":abc"] = []byte(`{}`)

	_, err := uc.AdjustStock(ctx, &dto.AdjustStockInput{SellerID: seller, ProductID: f.product.ID, VariantID: f.variantID, Delta: 7})
	require.NoError(t, err)
	assert.Equal(t, 10, listedStock())
	assert.NotContains(t, cache.data, "products:list:"+seller+":abc")

	err = uc.ApplyOrder(ctx, &dto.OrderInput{
		OrderID: "order-9",
		Lines:   []dto.OrderLine{{ProductID: f.product.ID, VariantID: f.variantID, Quantity: 4, UnitPrice: decimal.NewFromInt(1)}},
	})
	require.NoError(t, err)
	assert.Equal(t, 6, listedStock())

	_, err = uc.AdjustStock(ctx, &dto.AdjustStockInput{SellerID: seller, ProductID: f.product.ID, VariantID: f.variantID, Delta: -50})
	assert.ErrorIs(t, err, model.ErrInsufficientStock)
	assert.Contains(t, cache.data, "variants:list:"+f.product.ID+":false", "failed changes keep the cache")
}
