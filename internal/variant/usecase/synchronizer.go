package usecase

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/fekuna/marketplace-catalog-service/internal/database"
	"github.com/fekuna/marketplace-catalog-service/internal/logger"
	"github.com/fekuna/marketplace-catalog-service/internal/matrix"
	"github.com/fekuna/marketplace-catalog-service/internal/model"
	"github.com/fekuna/marketplace-catalog-service/internal/variant"
	"github.com/fekuna/marketplace-catalog-service/internal/variant/dto"
)

// Locker is a distributed mutex, e.g. *cache.RedisClient.
type Locker interface {
	AcquireLock(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, key, value string) error
}

type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	DelPattern(ctx context.Context, pattern string) error
}

type Publisher interface {
	Publish(ctx context.Context, key, eventType string, payload any) error
}

type Indexer interface {
	Index(ctx context.Context, index, id string, doc any) error
	Delete(ctx context.Context, index, id string) error
}

type Config struct {
	MaxCombinations int
	NameSeparator   string
	DeletePolicy    matrix.DeletePolicy
	LockTTL         time.Duration
}

type Option func(*Synchronizer)

func WithLocker(l Locker) Option       { return func(s *Synchronizer) { s.locker = l } }
func WithCache(c Cache) Option         { return func(s *Synchronizer) { s.cache = c } }
func WithPublisher(p Publisher) Option { return func(s *Synchronizer) { s.events = p } }
func WithIndexer(i Indexer) Option     { return func(s *Synchronizer) { s.index = i } }

// Synchronizer loads a product's matrix, reconciles it against the persisted
// variants and writes the result, all in one transaction under the product
// row lock.
type Synchronizer struct {
	txm    *database.TxManager
	repo   variant.Repository
	store  variant.MatrixStore
	cfg    Config
	logger logger.ZapLogger

	locker Locker
	cache  Cache
	events Publisher
	index  Indexer

	now func() time.Time
	wg  sync.WaitGroup
}

func NewSynchronizer(txm *database.TxManager, repo variant.Repository, store variant.MatrixStore, cfg Config, log logger.ZapLogger, opts ...Option) *Synchronizer {
	if cfg.DeletePolicy == "" {
		cfg.DeletePolicy = matrix.DeleteRestrict
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 10 * time.Second
	}
	s := &Synchronizer{
		txm:    txm,
		repo:   repo,
		store:  store,
		cfg:    cfg,
		logger: log,
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ variant.Syncer = (*Synchronizer)(nil)

// errDryRun rolls back a dry run once the plan is computed.
var errDryRun = errors.New("dry run")

func (s *Synchronizer) Run(ctx context.Context, productID string, opts variant.SyncOptions, edit variant.EditFunc) (*variant.SyncResult, error) {
	policy := opts.Policy
	if policy == "" {
		policy = s.cfg.DeletePolicy
	}

	release, err := s.lock(ctx, productID)
	if err != nil {
		return nil, err
	}
	defer release()

	var (
		result  *variant.SyncResult
		product *model.Product
		created []model.ProductVariant
	)
	err = s.txm.WithTx(ctx, func(tx *sqlx.Tx) error {
		p, err := s.repo.FindProduct(ctx, tx, productID, true)
		if err != nil {
			return err
		}
		if p == nil || (opts.SellerID != "" && p.SellerID != opts.SellerID) {
			return fmt.Errorf("product %s: %w", productID, model.ErrNotFound)
		}
		product = p

		categories, err := s.store.ListByProduct(ctx, tx, productID)
		if err != nil {
			return err
		}
		retire := &variant.Retirement{}
		if edit != nil {
			r, err := edit(ctx, tx, categories)
			if err != nil {
				return err
			}
			if r != nil {
				retire = r
			}
			if categories, err = s.store.ListByProduct(ctx, tx, productID); err != nil {
				return err
			}
		}
		desired, retired := splitRetired(categories, retire)

		variants, err := s.repo.ListByProduct(ctx, tx, productID, false)
		if err != nil {
			return err
		}

		plan, err := matrix.Reconcile(matrix.Snapshot{
			ProductID:  productID,
			Categories: desired,
			Retired:    retired,
			Variants:   variants,
		}, matrix.Options{
			MaxCombinations: s.cfg.MaxCombinations,
			NameSeparator:   s.cfg.NameSeparator,
		})
		if err != nil {
			return err
		}

		referenced, err := s.repo.ReferencedIDs(ctx, tx, plan.RemovalIDs())
		if err != nil {
			return err
		}
		slices.Sort(referenced)
		result = &variant.SyncResult{ProductID: productID, Plan: plan, Categories: desired, AtRisk: referenced}

		if opts.DryRun {
			if policy == matrix.DeleteArchive {
				_ = plan.ApplyDeletePolicy(policy, referenced)
			}
			return errDryRun
		}
		if err := plan.ApplyDeletePolicy(policy, referenced); err != nil {
			return err
		}

		now := s.now()
		created, err = s.repo.ApplyPlan(ctx, tx, plan, variant.Defaults{Price: opts.InitialPrice, Stock: opts.InitialStock}, now)
		if err != nil {
			return err
		}
		if err := s.store.DeleteAttributes(ctx, tx, retire.AttributeIDs); err != nil {
			return err
		}
		if err := s.store.DeleteCategories(ctx, tx, retire.CategoryIDs); err != nil {
			return err
		}
		if err := s.repo.SetHasVariants(ctx, tx, productID, plan.HasVariants(), now); err != nil {
			return err
		}

		result.Variants, err = s.repo.ListByProduct(ctx, tx, productID, false)
		return err
	})
	if errors.Is(err, errDryRun) {
		return result, nil
	}
	if err != nil {
		return nil, classify(err)
	}

	result.Committed = true
	s.logger.Info("variants synchronized", zap.String("product_id", productID), zap.String("plan", result.Plan.Summary()))
	s.afterCommit(ctx, product, result, created)
	return result, nil
}

// splitRetired drops retired categories and attributes from the matrix and
// returns them separately.
func splitRetired(categories []model.VariantCategory, r *variant.Retirement) ([]model.VariantCategory, []model.VariantAttribute) {
	desired := make([]model.VariantCategory, 0, len(categories))
	var retired []model.VariantAttribute
	for _, c := range categories {
		if slices.Contains(r.CategoryIDs, c.ID) {
			retired = append(retired, c.Attributes...)
			continue
		}
		kept := make([]model.VariantAttribute, 0, len(c.Attributes))
		for _, a := range c.Attributes {
			if slices.Contains(r.AttributeIDs, a.ID) {
				retired = append(retired, a)
				continue
			}
			kept = append(kept, a)
		}
		c.Attributes = kept
		desired = append(desired, c)
	}
	return desired, retired
}

// classify maps driver failures onto the engine taxonomy. Errors that are
// already typed pass through.
func classify(err error) error {
	for _, known := range []error{
		matrix.ErrValidation, matrix.ErrCapacity, matrix.ErrConflict,
		matrix.ErrIntegrityRisk, matrix.ErrCorruption, matrix.ErrStore, model.ErrNotFound,
	} {
		if errors.Is(err, known) {
			return err
		}
	}
	// A foreign key failure here means an order or cart line appeared after
	// the reference check; retrying re-runs the check.
	if database.IsConflict(err) || database.IsForeignKeyViolation(err) {
		return matrix.Conflict(err)
	}
	return matrix.StoreFailure(err)
}

const (
	lockAttempts = 3
	lockBackoff  = 100 * time.Millisecond
)

// lock takes the per-product redis lock. The row lock taken inside the
// transaction is what guarantees serialization; when redis is unreachable
// the sync proceeds on the row lock alone.
func (s *Synchronizer) lock(ctx context.Context, productID string) (func(), error) {
	if s.locker == nil {
		return func() {}, nil
	}
	key := "lock:variants:" + productID
	value := uuid.New().String()

	for i := range lockAttempts {
		ok, err := s.locker.AcquireLock(ctx, key, value, s.cfg.LockTTL)
		if err != nil {
			s.logger.Warn("variant lock unavailable, relying on row lock", zap.String("product_id", productID), zap.Error(err))
			return func() {}, nil
		}
		if ok {
			return func() {
				if err := s.locker.ReleaseLock(context.WithoutCancel(ctx), key, value); err != nil {
					s.logger.Warn("failed to release variant lock", zap.String("product_id", productID), zap.Error(err))
				}
			}, nil
		}
		if i < lockAttempts-1 {
			select {
			case <-ctx.Done():
				return nil, matrix.StoreFailure(ctx.Err())
			case <-time.After(lockBackoff):
			}
		}
	}
	return nil, matrix.Conflict(fmt.Errorf("product %s is being synchronized by another request", productID))
}

func variantListPattern(productID string) string {
	return fmt.Sprintf("variants:list:%s:*", productID)
}

func productListPattern(sellerID string) string {
	return fmt.Sprintf("products:list:%s:*", sellerID)
}

// afterCommit invalidates caches before returning and ships the event and
// index refresh in the background. None of it can undo the commit.
func (s *Synchronizer) afterCommit(ctx context.Context, p *model.Product, res *variant.SyncResult, created []model.ProductVariant) {
	bg := context.WithoutCancel(ctx)
	if s.cache != nil {
		for _, pattern := range []string{variantListPattern(p.ID), productListPattern(p.SellerID)} {
			if err := s.cache.DelPattern(bg, pattern); err != nil {
				s.logger.Warn("failed to invalidate cache", zap.String("pattern", pattern), zap.Error(err))
			}
		}
	}
	if s.events == nil && s.index == nil {
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(bg, 10*time.Second)
		defer cancel()
		s.publish(ctx, p, res, created)
		s.reindex(ctx, p, res)
	}()
}

func (s *Synchronizer) publish(ctx context.Context, p *model.Product, res *variant.SyncResult, created []model.ProductVariant) {
	if s.events == nil {
		return
	}
	plan := res.Plan
	event := dto.SyncedEvent{
		ProductID: p.ID,
		SellerID:  p.SellerID,
		Created:   make([]string, 0, len(created)),
		Renamed:   []string{},
		Retained:  len(plan.Retain),
		Deleted:   make([]string, 0, len(plan.Delete)),
		Archived:  make([]string, 0, len(plan.Archive)),
	}
	for _, v := range created {
		event.Created = append(event.Created, v.ID)
	}
	for _, r := range plan.Retain {
		if r.Renamed {
			event.Renamed = append(event.Renamed, r.Variant.ID)
		}
	}
	for _, v := range plan.Delete {
		event.Deleted = append(event.Deleted, v.ID)
	}
	for _, v := range plan.Archive {
		event.Archived = append(event.Archived, v.ID)
	}

	if err := s.events.Publish(ctx, p.ID, dto.EventVariantsSynchronized, event); err != nil {
		s.logger.Error("failed to publish variants event", zap.String("product_id", p.ID), zap.Error(err))
	}
}

func (s *Synchronizer) reindex(ctx context.Context, p *model.Product, res *variant.SyncResult) {
	if s.index == nil {
		return
	}
	for i := range res.Variants {
		v := &res.Variants[i]
		if err := s.index.Index(ctx, dto.VariantIndex, v.ID, dto.NewVariantDocument(p.SellerID, v)); err != nil {
			s.logger.Error("failed to index variant", zap.String("variant_id", v.ID), zap.Error(err))
		}
	}
	for _, v := range res.Plan.Delete {
		if err := s.index.Delete(ctx, dto.VariantIndex, v.ID); err != nil {
			s.logger.Error("failed to remove variant from index", zap.String("variant_id", v.ID), zap.Error(err))
		}
	}
	for _, v := range res.Plan.Archive {
		v.IsActive = false
		if err := s.index.Index(ctx, dto.VariantIndex, v.ID, dto.NewVariantDocument(p.SellerID, &v)); err != nil {
			s.logger.Error("failed to index archived variant", zap.String("variant_id", v.ID), zap.Error(err))
		}
	}
}

// Wait blocks until background side effects of finished syncs are done.
func (s *Synchronizer) Wait() {
	s.wg.Wait()
}
