package usecase

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/fekuna/marketplace-catalog-service/internal/category"
	"github.com/fekuna/marketplace-catalog-service/internal/category/dto"
	"github.com/fekuna/marketplace-catalog-service/internal/database"
	"github.com/fekuna/marketplace-catalog-service/internal/logger"
	"github.com/fekuna/marketplace-catalog-service/internal/matrix"
	"github.com/fekuna/marketplace-catalog-service/internal/model"
	"github.com/fekuna/marketplace-catalog-service/internal/variant"
)

// ProductReader resolves product ownership for read-only calls.
type ProductReader interface {
	FindProduct(ctx context.Context, q sqlx.ExtContext, productID string, lock bool) (*model.Product, error)
}

type categoryUseCase struct {
	txm      *database.TxManager
	repo     category.Repository
	products ProductReader
	syncer   variant.Syncer
	logger   logger.ZapLogger
	now      func() time.Time
}

func NewCategoryUseCase(txm *database.TxManager, repo category.Repository, products ProductReader, syncer variant.Syncer, log logger.ZapLogger) category.UseCase {
	return &categoryUseCase{
		txm:      txm,
		repo:     repo,
		products: products,
		syncer:   syncer,
		logger:   log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (uc *categoryUseCase) DefineMatrix(ctx context.Context, input *dto.DefineMatrixInput) (*variant.SyncResult, error) {
	if len(input.Categories) == 0 {
		return nil, matrix.Invalid("categories", "at least one category is required")
	}
	specs := make([]dto.CategorySpec, len(input.Categories))
	for i, spec := range input.Categories {
		s, err := normalizeSpec(spec)
		if err != nil {
			return nil, err
		}
		specs[i] = s
	}
	if err := checkNewNames(nil, specs); err != nil {
		return nil, err
	}

	return uc.run(ctx, input.SellerID, input.ProductID, input.SyncParams, func(ctx context.Context, tx *sqlx.Tx, current []model.VariantCategory) (*variant.Retirement, error) {
		if err := checkNewNames(current, specs); err != nil {
			return nil, err
		}
		next := nextSortOrder(current)
		for i, spec := range specs {
			if err := uc.createCategory(ctx, tx, input.ProductID, spec, next+i); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
}

func (uc *categoryUseCase) AddCategory(ctx context.Context, input *dto.AddCategoryInput) (*variant.SyncResult, error) {
	spec, err := normalizeSpec(input.Category)
	if err != nil {
		return nil, err
	}

	return uc.run(ctx, input.SellerID, input.ProductID, input.SyncParams, func(ctx context.Context, tx *sqlx.Tx, current []model.VariantCategory) (*variant.Retirement, error) {
		if err := checkNewNames(current, []dto.CategorySpec{spec}); err != nil {
			return nil, err
		}
		return nil, uc.createCategory(ctx, tx, input.ProductID, spec, nextSortOrder(current))
	})
}

func (uc *categoryUseCase) UpdateCategory(ctx context.Context, input *dto.UpdateCategoryInput) (*variant.SyncResult, error) {
	var name string
	if input.Name != nil {
		name = strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, matrix.Invalid("name", "category name must not be empty")
		}
	}
	if input.Attributes != nil {
		if err := checkEdits(input.Attributes); err != nil {
			return nil, err
		}
	}

	return uc.run(ctx, input.SellerID, input.ProductID, input.SyncParams, func(ctx context.Context, tx *sqlx.Tx, current []model.VariantCategory) (*variant.Retirement, error) {
		i := slices.IndexFunc(current, func(c model.VariantCategory) bool { return c.ID == input.CategoryID })
		if i < 0 {
			return nil, fmt.Errorf("category %d: %w", input.CategoryID, model.ErrNotFound)
		}
		cat := current[i]
		now := uc.now()

		if input.Name != nil || input.SortOrder != nil {
			if input.Name != nil {
				for _, other := range current {
					if other.ID != cat.ID && sameName(other.Name, name) {
						return nil, matrix.Invalid("name", "category %q already exists", name)
					}
				}
				cat.Name = name
			}
			if input.SortOrder != nil {
				cat.SortOrder = *input.SortOrder
			}
			cat.UpdatedAt = now
			if err := uc.repo.UpdateCategory(ctx, tx, &cat); err != nil {
				return nil, err
			}
		}

		if input.Attributes == nil {
			return nil, nil
		}
		return uc.replaceAttributes(ctx, tx, cat, input.Attributes, now)
	})
}

// replaceAttributes renames values in place, adds the ones without an id
// and retires the rest. Positions in edits become the new sort order.
func (uc *categoryUseCase) replaceAttributes(ctx context.Context, tx *sqlx.Tx, cat model.VariantCategory, edits []dto.AttributeEdit, now time.Time) (*variant.Retirement, error) {
	owned := make(map[int64]model.VariantAttribute, len(cat.Attributes))
	for _, a := range cat.Attributes {
		owned[a.ID] = a
	}

	kept := make(map[int64]bool, len(edits))
	for pos, e := range edits {
		value := strings.TrimSpace(e.Value)
		if e.ID == 0 {
			a := model.VariantAttribute{CategoryID: cat.ID, Value: value, SortOrder: pos}
			if err := uc.repo.CreateAttribute(ctx, tx, &a, now); err != nil {
				return nil, err
			}
			continue
		}

		a, ok := owned[e.ID]
		if !ok {
			return nil, matrix.Invalid("attributes", "attribute %d does not belong to category %d", e.ID, cat.ID)
		}
		kept[e.ID] = true
		if a.Value == value && a.SortOrder == pos {
			continue
		}
		a.Value = value
		a.SortOrder = pos
		if err := uc.repo.UpdateAttribute(ctx, tx, &a, now); err != nil {
			return nil, err
		}
	}

	retire := &variant.Retirement{}
	for _, a := range cat.Attributes {
		if !kept[a.ID] {
			retire.AttributeIDs = append(retire.AttributeIDs, a.ID)
		}
	}
	return retire, nil
}

// DeleteCategory retires the category. Its rows go only after the variants
// built on it have been reconciled, in the same transaction.
func (uc *categoryUseCase) DeleteCategory(ctx context.Context, input *dto.DeleteCategoryInput) (*variant.SyncResult, error) {
	return uc.run(ctx, input.SellerID, input.ProductID, input.SyncParams, func(ctx context.Context, tx *sqlx.Tx, current []model.VariantCategory) (*variant.Retirement, error) {
		if !slices.ContainsFunc(current, func(c model.VariantCategory) bool { return c.ID == input.CategoryID }) {
			return nil, fmt.Errorf("category %d: %w", input.CategoryID, model.ErrNotFound)
		}
		return &variant.Retirement{CategoryIDs: []int64{input.CategoryID}}, nil
	})
}

func (uc *categoryUseCase) ListCategories(ctx context.Context, sellerID, productID string) ([]model.VariantCategory, error) {
	p, err := uc.products.FindProduct(ctx, uc.txm.DB, productID, false)
	if err != nil {
		return nil, err
	}
	if p == nil || (sellerID != "" && p.SellerID != sellerID) {
		return nil, fmt.Errorf("product %s: %w", productID, model.ErrNotFound)
	}
	return uc.repo.ListByProduct(ctx, uc.txm.DB, productID)
}

func (uc *categoryUseCase) run(ctx context.Context, sellerID, productID string, params dto.SyncParams, edit variant.EditFunc) (*variant.SyncResult, error) {
	res, err := uc.syncer.Run(ctx, productID, variant.SyncOptions{
		SellerID: sellerID,
		Policy:   params.Policy,
		DryRun:   params.DryRun,
	}, edit)
	if err != nil {
		uc.logger.Warn("variant matrix edit rejected", zap.String("product_id", productID), zap.Error(err))
		return nil, err
	}
	return res, nil
}

func (uc *categoryUseCase) createCategory(ctx context.Context, tx *sqlx.Tx, productID string, spec dto.CategorySpec, sortOrder int) error {
	now := uc.now()
	c := model.VariantCategory{
		ProductID: productID,
		Name:      spec.Name,
		SortOrder: sortOrder,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uc.repo.CreateCategory(ctx, tx, &c); err != nil {
		return err
	}
	for i, value := range spec.Attributes {
		a := model.VariantAttribute{CategoryID: c.ID, Value: value, SortOrder: i}
		if err := uc.repo.CreateAttribute(ctx, tx, &a, now); err != nil {
			return err
		}
	}
	return nil
}

func normalizeSpec(spec dto.CategorySpec) (dto.CategorySpec, error) {
	name := strings.TrimSpace(spec.Name)
	if name == "" {
		return spec, matrix.Invalid("name", "category name must not be empty")
	}
	if len(spec.Attributes) == 0 {
		return spec, matrix.Invalid("attributes", "category %q has no attributes", name)
	}
	values := make([]string, len(spec.Attributes))
	for i, v := range spec.Attributes {
		v = strings.TrimSpace(v)
		if v == "" {
			return spec, matrix.Invalid("attributes", "category %q has an empty value", name)
		}
		if slices.ContainsFunc(values[:i], func(prev string) bool { return sameName(prev, v) }) {
			return spec, matrix.Invalid("attributes", "category %q lists %q twice", name, v)
		}
		values[i] = v
	}
	return dto.CategorySpec{Name: name, Attributes: values}, nil
}

func checkEdits(edits []dto.AttributeEdit) error {
	if len(edits) == 0 {
		return matrix.Invalid("attributes", "a category needs at least one attribute")
	}
	ids := make(map[int64]bool, len(edits))
	values := make([]string, 0, len(edits))
	for _, e := range edits {
		v := strings.TrimSpace(e.Value)
		if v == "" {
			return matrix.Invalid("attributes", "attribute value must not be empty")
		}
		if e.ID != 0 {
			if ids[e.ID] {
				return matrix.Invalid("attributes", "attribute %d listed twice", e.ID)
			}
			ids[e.ID] = true
		}
		if slices.ContainsFunc(values, func(prev string) bool { return sameName(prev, v) }) {
			return matrix.Invalid("attributes", "value %q listed twice", v)
		}
		values = append(values, v)
	}
	return nil
}

// checkNewNames rejects specs whose names clash with each other or with an
// existing category.
func checkNewNames(current []model.VariantCategory, specs []dto.CategorySpec) error {
	for i, s := range specs {
		for _, c := range current {
			if sameName(c.Name, s.Name) {
				return matrix.Invalid("name", "category %q already exists", s.Name)
			}
		}
		for _, prev := range specs[:i] {
			if sameName(prev.Name, s.Name) {
				return matrix.Invalid("name", "category %q listed twice", s.Name)
			}
		}
	}
	return nil
}

func nextSortOrder(current []model.VariantCategory) int {
	next := 0
	for _, c := range current {
		next = max(next, c.SortOrder+1)
	}
	return next
}

func sameName(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
