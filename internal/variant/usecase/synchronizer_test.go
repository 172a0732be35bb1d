package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	catrepo "github.com/fekuna/marketplace-catalog-service/internal/category/repository"
	"github.com/fekuna/marketplace-catalog-service/internal/database"
	invrepo "github.com/fekuna/marketplace-catalog-service/internal/inventory/repository"
	"github.com/fekuna/marketplace-catalog-service/internal/logger"
	"github.com/fekuna/marketplace-catalog-service/internal/matrix"
	"github.com/fekuna/marketplace-catalog-service/internal/model"
	"github.com/fekuna/marketplace-catalog-service/internal/testutil"
	"github.com/fekuna/marketplace-catalog-service/internal/variant"
	"github.com/fekuna/marketplace-catalog-service/internal/variant/dto"
	varrepo "github.com/fekuna/marketplace-catalog-service/internal/variant/repository"
)

const seller = "seller-1"

type fixture struct {
	db      *sqlx.DB
	cats    *catrepo.PGRepository
	repo    variant.Repository
	syncer  *Synchronizer
	uc      variant.UseCase
	product *model.Product
	size    model.VariantCategory
	color   model.VariantCategory
}

func newFixture(t *testing.T, repo variant.Repository, opts ...Option) *fixture {
	t.Helper()
	db := testutil.NewDB(t)
	if repo == nil {
		repo = varrepo.NewPGRepository(db)
	}
	cats := catrepo.NewPGRepository(db)
	syncer := NewSynchronizer(database.NewTxManager(db, 0), repo, cats, Config{}, logger.NewNop(), opts...)

	f := &fixture{
		db:      db,
		cats:    cats,
		repo:    repo,
		syncer:  syncer,
		uc:      NewVariantUseCase(database.NewTxManager(db, 0), repo, syncer, nil, invrepo.NewPGRepository(db), logger.NewNop()),
		product: testutil.CreateProduct(t, db, seller, "T-Shirt"),
	}
	f.size = testutil.CreateCategory(t, db, f.product.ID, "Size", 0, "S", "M")
	f.color = testutil.CreateCategory(t, db, f.product.ID, "Color", 1, "Red", "Blue")
	return f
}

func (f *fixture) sync(t *testing.T, opts variant.SyncOptions, edit variant.EditFunc) *variant.SyncResult {
	t.Helper()
	if opts.SellerID == "" {
		opts.SellerID = seller
	}
	res, err := f.syncer.Run(context.Background(), f.product.ID, opts, edit)
	require.NoError(t, err)
	return res
}

func (f *fixture) hasVariants(t *testing.T) bool {
	t.Helper()
	var has bool
	require.NoError(t, f.db.Get(&has, f.db.Rebind(`SELECT has_variants FROM products WHERE id = ?`), f.product.ID))
	return has
}

func names(variants []model.ProductVariant) []string {
	out := make([]string, len(variants))
	for i, v := range variants {
		out[i] = v.VariantName
	}
	return out
}

func byName(variants []model.ProductVariant) map[string]model.ProductVariant {
	out := make(map[string]model.ProductVariant, len(variants))
	for _, v := range variants {
		out[v.VariantName] = v
	}
	return out
}

func retireCategory(id int64) variant.EditFunc {
	return func(ctx context.Context, tx *sqlx.Tx, current []model.VariantCategory) (*variant.Retirement, error) {
		return &variant.Retirement{CategoryIDs: []int64{id}}, nil
	}
}

func TestRun_CreatesMatrix(t *testing.T) {
	f := newFixture(t, nil)

	res := f.sync(t, variant.SyncOptions{}, nil)

	assert.True(t, res.Committed)
	assert.Len(t, res.Plan.Create, 4)
	assert.ElementsMatch(t, []string{"S - Red", "S - Blue", "M - Red", "M - Blue"}, names(res.Variants))
	for _, v := range res.Variants {
		assert.Len(t, v.AttributeIDs, 2)
		assert.True(t, v.Price.IsZero())
		assert.Zero(t, v.Stock)
		assert.Nil(t, v.ImageURL)
	}
	assert.True(t, f.hasVariants(t))
	assert.Equal(t, 8, testutil.Count(t, f.db, "variant_attribute_values"))
}

func TestRun_Idempotent(t *testing.T) {
	f := newFixture(t, nil)
	first := f.sync(t, variant.SyncOptions{}, nil)
	beforeVariants, beforeLinks := testutil.Snapshot(t, f.db)

	second := f.sync(t, variant.SyncOptions{}, nil)

	assert.Empty(t, second.Plan.Create)
	assert.Empty(t, second.Plan.Delete)
	assert.Len(t, second.Plan.Retain, 4)
	assert.False(t, second.Plan.Changed())
	assert.ElementsMatch(t, names(first.Variants), names(second.Variants))

	afterVariants, afterLinks := testutil.Snapshot(t, f.db)
	assert.Equal(t, beforeVariants, afterVariants)
	assert.Equal(t, beforeLinks, afterLinks)
}

func TestRun_AddAttributeKeepsExistingVariants(t *testing.T) {
	f := newFixture(t, nil)
	first := byName(f.sync(t, variant.SyncOptions{}, nil).Variants)

	price := decimal.RequireFromString("125000")
	stock := 7
	_, err := f.uc.UpdateVariant(context.Background(), &dto.UpdateVariantInput{
		SellerID: seller, ID: first["S - Red"].ID, Price: &price, Stock: &stock,
	})
	require.NoError(t, err)

	res := f.sync(t, variant.SyncOptions{}, func(ctx context.Context, tx *sqlx.Tx, current []model.VariantCategory) (*variant.Retirement, error) {
		green := model.VariantAttribute{CategoryID: f.color.ID, Value: "Green", SortOrder: 2}
		return nil, f.cats.CreateAttribute(ctx, tx, &green, time.Now().UTC())
	})

	assert.Len(t, res.Plan.Create, 2)
	assert.Len(t, res.Plan.Retain, 4)
	assert.Empty(t, res.Plan.Delete)

	after := byName(res.Variants)
	require.Len(t, after, 6)
	assert.Contains(t, after, "S - Green")
	assert.Contains(t, after, "M - Green")
	for name, v := range first {
		assert.Equal(t, v.ID, after[name].ID, name)
	}
	assert.True(t, price.Equal(after["S - Red"].Price))
	assert.Equal(t, 7, after["S - Red"].Stock)
}

func TestRun_RenameKeepsIdentity(t *testing.T) {
	f := newFixture(t, nil)
	first := byName(f.sync(t, variant.SyncOptions{}, nil).Variants)

	res := f.sync(t, variant.SyncOptions{}, func(ctx context.Context, tx *sqlx.Tx, current []model.VariantCategory) (*variant.Retirement, error) {
		red := f.color.Attributes[0]
		red.Value = "Crimson"
		return nil, f.cats.UpdateAttribute(ctx, tx, &red, time.Now().UTC())
	})

	assert.Empty(t, res.Plan.Create)
	assert.Empty(t, res.Plan.Delete)
	after := byName(res.Variants)
	assert.Equal(t, first["S - Red"].ID, after["S - Crimson"].ID)
	assert.Equal(t, first["M - Red"].ID, after["M - Crimson"].ID)
	assert.Equal(t, first["S - Blue"].ID, after["S - Blue"].ID)
}

func TestRun_RemoveCategory(t *testing.T) {
	f := newFixture(t, nil)
	f.sync(t, variant.SyncOptions{}, nil)

	res := f.sync(t, variant.SyncOptions{}, retireCategory(f.color.ID))

	assert.Len(t, res.Plan.Delete, 4)
	assert.Empty(t, res.Plan.Retain)
	assert.ElementsMatch(t, []string{"S", "M"}, names(res.Variants))
	assert.Equal(t, 1, testutil.Count(t, f.db, "variant_categories"))
	assert.Equal(t, 2, testutil.Count(t, f.db, "variant_attributes"))
	assert.Equal(t, 2, testutil.Count(t, f.db, "variant_attribute_values"))
	assert.Equal(t, 2, testutil.Count(t, f.db, "product_variants"))
}

func TestRun_RemoveAllCategories(t *testing.T) {
	f := newFixture(t, nil)
	f.sync(t, variant.SyncOptions{}, nil)

	res := f.sync(t, variant.SyncOptions{}, func(ctx context.Context, tx *sqlx.Tx, current []model.VariantCategory) (*variant.Retirement, error) {
		return &variant.Retirement{CategoryIDs: []int64{f.size.ID, f.color.ID}}, nil
	})

	assert.False(t, res.Plan.HasVariants())
	assert.Empty(t, res.Variants)
	assert.False(t, f.hasVariants(t))
	assert.Zero(t, testutil.Count(t, f.db, "product_variants"))
}

func TestRun_RestrictPolicyBlocksReferencedDelete(t *testing.T) {
	f := newFixture(t, nil)
	first := byName(f.sync(t, variant.SyncOptions{}, nil).Variants)
	testutil.AddOrderLine(t, f.db, f.product.ID, first["S - Red"].ID)
	testutil.AddCartLine(t, f.db, f.product.ID, first["M - Blue"].ID)
	beforeVariants, beforeLinks := testutil.Snapshot(t, f.db)

	_, err := f.syncer.Run(context.Background(), f.product.ID, variant.SyncOptions{SellerID: seller}, retireCategory(f.color.ID))

	var risk *matrix.IntegrityRiskError
	require.ErrorAs(t, err, &risk)
	assert.ElementsMatch(t, []string{first["S - Red"].ID, first["M - Blue"].ID}, risk.VariantIDs)

	afterVariants, afterLinks := testutil.Snapshot(t, f.db)
	assert.Equal(t, beforeVariants, afterVariants)
	assert.Equal(t, beforeLinks, afterLinks)
	assert.Equal(t, 2, testutil.Count(t, f.db, "variant_categories"))
}

func TestRun_ArchivePolicyKeepsReferencedRows(t *testing.T) {
	f := newFixture(t, nil)
	first := byName(f.sync(t, variant.SyncOptions{}, nil).Variants)
	ordered := first["S - Red"].ID
	testutil.AddOrderLine(t, f.db, f.product.ID, ordered)

	res := f.sync(t, variant.SyncOptions{Policy: matrix.DeleteArchive}, retireCategory(f.color.ID))

	require.Len(t, res.Plan.Archive, 1)
	assert.Equal(t, ordered, res.Plan.Archive[0].ID)
	assert.Len(t, res.Plan.Delete, 3)
	assert.ElementsMatch(t, []string{"S", "M"}, names(res.Variants))

	all, err := f.uc.ListVariants(context.Background(), seller, f.product.ID, true)
	require.NoError(t, err)
	archived := byName(all)["S - Red"]
	assert.Equal(t, ordered, archived.ID)
	assert.False(t, archived.IsActive)
	assert.NotNil(t, archived.ArchivedAt)
	assert.Empty(t, archived.AttributeIDs)
	assert.Equal(t, 3, testutil.Count(t, f.db, "product_variants"))
}

func TestRun_CapacityWritesNothing(t *testing.T) {
	f := newFixture(t, nil)
	f.syncer.cfg.MaxCombinations = 3
	beforeVariants, _ := testutil.Snapshot(t, f.db)

	_, err := f.syncer.Run(context.Background(), f.product.ID, variant.SyncOptions{SellerID: seller}, nil)

	var capErr *matrix.CapacityError
	require.ErrorAs(t, err, &capErr)
	assert.Equal(t, 4, capErr.Requested)
	afterVariants, _ := testutil.Snapshot(t, f.db)
	assert.Equal(t, beforeVariants, afterVariants)
	assert.False(t, f.hasVariants(t))
}

func TestRun_DryRun(t *testing.T) {
	f := newFixture(t, nil)
	first := byName(f.sync(t, variant.SyncOptions{}, nil).Variants)
	testutil.AddOrderLine(t, f.db, f.product.ID, first["M - Red"].ID)

	res, err := f.uc.Preview(context.Background(), f.product.ID, variant.SyncOptions{SellerID: seller})
	require.NoError(t, err)
	assert.False(t, res.Committed)
	assert.False(t, res.Plan.Changed())

	res, err = f.syncer.Run(context.Background(), f.product.ID,
		variant.SyncOptions{SellerID: seller, DryRun: true}, retireCategory(f.color.ID))
	require.NoError(t, err)
	assert.False(t, res.Committed)
	assert.Len(t, res.Plan.Delete, 4)
	assert.Len(t, res.Plan.Create, 2)
	assert.Equal(t, []string{first["M - Red"].ID}, res.AtRisk)

	// nothing was written, the retired category included
	assert.Equal(t, 2, testutil.Count(t, f.db, "variant_categories"))
	assert.Equal(t, 4, testutil.Count(t, f.db, "product_variants"))
}

// failingRepo writes the plan and then fails, as a crash between statements
// of the batch would.
type failingRepo struct {
	variant.Repository
}

func (r failingRepo) ApplyPlan(ctx context.Context, q sqlx.ExtContext, plan *matrix.Plan, d variant.Defaults, now time.Time) ([]model.ProductVariant, error) {
	if _, err := r.Repository.ApplyPlan(ctx, q, plan, d, now); err != nil {
		return nil, err
	}
	return nil, errors.New("disk I/O error")
}

func TestRun_FailureMidBatchRollsBack(t *testing.T) {
	f := newFixture(t, nil)
	f.sync(t, variant.SyncOptions{}, nil)
	beforeVariants, beforeLinks := testutil.Snapshot(t, f.db)

	broken := NewSynchronizer(database.NewTxManager(f.db, 0), failingRepo{f.repo}, f.cats, Config{}, logger.NewNop())
	_, err := broken.Run(context.Background(), f.product.ID, variant.SyncOptions{SellerID: seller}, retireCategory(f.color.ID))

	assert.ErrorIs(t, err, matrix.ErrStore)
	assert.False(t, matrix.IsRetryable(err))
	afterVariants, afterLinks := testutil.Snapshot(t, f.db)
	assert.Equal(t, beforeVariants, afterVariants)
	assert.Equal(t, beforeLinks, afterLinks)
	assert.Equal(t, 2, testutil.Count(t, f.db, "variant_categories"))
}

func TestRun_EditValidationRollsBack(t *testing.T) {
	f := newFixture(t, nil)
	f.sync(t, variant.SyncOptions{}, nil)

	_, err := f.syncer.Run(context.Background(), f.product.ID, variant.SyncOptions{SellerID: seller},
		func(ctx context.Context, tx *sqlx.Tx, current []model.VariantCategory) (*variant.Retirement, error) {
			green := model.VariantAttribute{CategoryID: f.color.ID, Value: "Green", SortOrder: 2}
			if err := f.cats.CreateAttribute(ctx, tx, &green, time.Now().UTC()); err != nil {
				return nil, err
			}
			return nil, matrix.Invalid("attributes", "duplicate value")
		})

	assert.ErrorIs(t, err, matrix.ErrValidation)
	assert.Equal(t, 4, testutil.Count(t, f.db, "variant_attributes"))
}

func TestRun_OwnershipAndMissingProduct(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	_, err := f.syncer.Run(ctx, f.product.ID, variant.SyncOptions{SellerID: "someone-else"}, nil)
	assert.ErrorIs(t, err, model.ErrNotFound)

	_, err = f.syncer.Run(ctx, "00000000-0000-0000-0000-000000000000", variant.SyncOptions{}, nil)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestRun_ConcurrentSyncsSerialize(t *testing.T) {
	f := newFixture(t, nil)

	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := range errs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = f.syncer.Run(context.Background(), f.product.ID, variant.SyncOptions{SellerID: seller}, nil)
		}()
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	assert.Equal(t, 4, testutil.Count(t, f.db, "product_variants"))
	assert.Equal(t, 8, testutil.Count(t, f.db, "variant_attribute_values"))
}

type busyLocker struct{}

func (busyLocker) AcquireLock(context.Context, string, string, time.Duration) (bool, error) {
	return false, nil
}
func (busyLocker) ReleaseLock(context.Context, string, string) error { return nil }

func TestRun_LockHeldIsRetryable(t *testing.T) {
	f := newFixture(t, nil, WithLocker(busyLocker{}))

	_, err := f.syncer.Run(context.Background(), f.product.ID, variant.SyncOptions{SellerID: seller}, nil)

	assert.True(t, matrix.IsRetryable(err))
	assert.Zero(t, testutil.Count(t, f.db, "product_variants"))
}

type recorder struct {
	mu       sync.Mutex
	patterns []string
	events   []any
	indexed  []string
	deleted  []string
}

func (r *recorder) Get(context.Context, string) ([]byte, error) { return nil, errors.New("miss") }
func (r *recorder) Set(context.Context, string, []byte, time.Duration) error {
	return nil
}
func (r *recorder) DelPattern(_ context.Context, pattern string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.patterns = append(r.patterns, pattern)
	return nil
}
func (r *recorder) Publish(_ context.Context, key, eventType string, payload any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, payload)
	return nil
}
func (r *recorder) Index(_ context.Context, index, id string, doc any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.indexed = append(r.indexed, id)
	return nil
}
func (r *recorder) Delete(_ context.Context, index, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deleted = append(r.deleted, id)
	return nil
}

func TestRun_SideEffectsAfterCommit(t *testing.T) {
	rec := &recorder{}
	f := newFixture(t, nil, WithCache(rec), WithPublisher(rec), WithIndexer(rec))

	res := f.sync(t, variant.SyncOptions{}, nil)
	f.syncer.Wait()

	assert.Contains(t, rec.patterns, "variants:list:"+f.product.ID+":*")
	assert.Contains(t, rec.patterns, "products:list:"+seller+":*")
	require.Len(t, rec.events, 1)
	event := rec.events[0].(dto.SyncedEvent)
	assert.Len(t, event.Created, 4)
	assert.Len(t, rec.indexed, len(res.Variants))

	// a failed sync has no side effects
	rec.events = nil
	f.syncer.cfg.MaxCombinations = 1
	_, err := f.syncer.Run(context.Background(), f.product.ID, variant.SyncOptions{}, nil)
	require.Error(t, err)
	f.syncer.Wait()
	assert.Empty(t, rec.events)
}

func TestSplitRetired(t *testing.T) {
	cats := []model.VariantCategory{
		{ID: 1, Attributes: []model.VariantAttribute{{ID: 10, CategoryID: 1}, {ID: 11, CategoryID: 1}}},
		{ID: 2, Attributes: []model.VariantAttribute{{ID: 20, CategoryID: 2}}},
	}

	desired, retired := splitRetired(cats, &variant.Retirement{CategoryIDs: []int64{2}, AttributeIDs: []int64{11}})

	require.Len(t, desired, 1)
	assert.Equal(t, []model.VariantAttribute{{ID: 10, CategoryID: 1}}, desired[0].Attributes)
	assert.ElementsMatch(t, []int64{11, 20}, []int64{retired[0].ID, retired[1].ID})
	// input untouched
	assert.Len(t, cats[0].Attributes, 2)
}
