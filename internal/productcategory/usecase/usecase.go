package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fekuna/marketplace-catalog-service/internal/database"
	"github.com/fekuna/marketplace-catalog-service/internal/logger"
	"github.com/fekuna/marketplace-catalog-service/internal/matrix"
	"github.com/fekuna/marketplace-catalog-service/internal/model"
	"github.com/fekuna/marketplace-catalog-service/internal/productcategory"
	"github.com/fekuna/marketplace-catalog-service/internal/productcategory/dto"
)

// Cache drops cached product listings that embed category ids.
type Cache interface {
	DelPattern(ctx context.Context, pattern string) error
}

type categoryUseCase struct {
	repo   productcategory.Repository
	cache  Cache
	logger logger.ZapLogger
}

// NewCategoryUseCase wires the product category use case. A nil cache is
// allowed.
func NewCategoryUseCase(repo productcategory.Repository, cache Cache, log logger.ZapLogger) *categoryUseCase {
	return &categoryUseCase{
		repo:   repo,
		cache:  cache,
		logger: log,
	}
}

var _ productcategory.UseCase = (*categoryUseCase)(nil)

func (uc *categoryUseCase) CreateCategory(ctx context.Context, input *dto.CreateCategoryInput) (*model.ProductCategory, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, matrix.Invalid("name", "category name must not be empty")
	}

	var parentID *string
	if input.ParentID != nil && *input.ParentID != "" {
		if _, err := uc.get(ctx, *input.ParentID); err != nil {
			return nil, err
		}
		parentID = input.ParentID
	}

	now := time.Now().UTC()
	cat := &model.ProductCategory{
		BaseModel: model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now},
		ParentID:  parentID,
		Name:      name,
		SortOrder: input.SortOrder,
		IsActive:  true,
	}
	if input.Description != "" {
		cat.Description = &input.Description
	}
	if input.ImageURL != "" {
		cat.ImageURL = &input.ImageURL
	}

	if err := uc.repo.Create(ctx, cat); err != nil {
		return nil, uc.storeErr(name, err)
	}
	uc.logger.Info("product category created", zap.String("category_id", cat.ID), zap.String("name", name))
	return cat, nil
}

func (uc *categoryUseCase) GetCategory(ctx context.Context, id string) (*model.ProductCategory, error) {
	return uc.get(ctx, id)
}

func (uc *categoryUseCase) ListCategories(ctx context.Context, filters *dto.CategoryFilters) ([]model.ProductCategory, int, error) {
	if !filters.IncludeChildren {
		return uc.repo.FindAll(ctx, filters)
	}

	all, _, err := uc.repo.FindAll(ctx, &dto.CategoryFilters{IsActive: filters.IsActive})
	if err != nil {
		return nil, 0, err
	}
	root := ""
	if filters.ParentID != nil {
		root = *filters.ParentID
	}
	tree := buildTree(all, root)
	return tree, len(tree), nil
}

// buildTree nests categories under their parents and returns the children
// of root, or the top level when root is empty. Categories whose parent was
// filtered out are dropped along with their subtree. depth bounds the walk
// if stored rows ever form a loop.
func buildTree(flat []model.ProductCategory, root string) []model.ProductCategory {
	byParent := make(map[string][]model.ProductCategory)
	for _, c := range flat {
		parent := ""
		if c.ParentID != nil {
			parent = *c.ParentID
		}
		byParent[parent] = append(byParent[parent], c)
	}

	var attach func(parent string, depth int) []model.ProductCategory
	attach = func(parent string, depth int) []model.ProductCategory {
		if depth > len(flat) {
			return nil
		}
		nodes := byParent[parent]
		out := make([]model.ProductCategory, len(nodes))
		for i, n := range nodes {
			n.Children = attach(n.ID, depth+1)
			out[i] = n
		}
		return out
	}
	return attach(root, 0)
}

func (uc *categoryUseCase) UpdateCategory(ctx context.Context, input *dto.UpdateCategoryInput) (*model.ProductCategory, error) {
	cat, err := uc.get(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, matrix.Invalid("name", "category name must not be empty")
		}
		cat.Name = name
	}
	if input.Description != nil {
		cat.Description = input.Description
	}
	if input.ImageURL != nil {
		cat.ImageURL = input.ImageURL
	}
	if input.SortOrder != nil {
		cat.SortOrder = *input.SortOrder
	}
	if input.IsActive != nil {
		cat.IsActive = *input.IsActive
	}
	if input.ParentID != nil {
		if *input.ParentID == "" {
			cat.ParentID = nil
		} else {
			if err := uc.checkParent(ctx, cat.ID, *input.ParentID); err != nil {
				return nil, err
			}
			cat.ParentID = input.ParentID
		}
	}
	cat.UpdatedAt = time.Now().UTC()

	if err := uc.repo.Update(ctx, cat); err != nil {
		return nil, uc.storeErr(cat.Name, err)
	}
	uc.invalidate(ctx)
	return cat, nil
}

// checkParent rejects moving id under itself or one of its descendants.
func (uc *categoryUseCase) checkParent(ctx context.Context, id, parentID string) error {
	for cur := parentID; cur != ""; {
		if cur == id {
			return matrix.Invalid("parent_id", "category %s cannot be nested under itself", id)
		}
		parent, err := uc.get(ctx, cur)
		if err != nil {
			return err
		}
		if parent.ParentID == nil {
			break
		}
		cur = *parent.ParentID
	}
	return nil
}

func (uc *categoryUseCase) DeleteCategory(ctx context.Context, id string) error {
	if _, err := uc.get(ctx, id); err != nil {
		return err
	}
	if err := uc.repo.Delete(ctx, id); err != nil {
		return err
	}
	uc.logger.Info("product category deleted", zap.String("category_id", id))
	uc.invalidate(ctx)
	return nil
}

func (uc *categoryUseCase) get(ctx context.Context, id string) (*model.ProductCategory, error) {
	cat, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if cat == nil {
		return nil, fmt.Errorf("category %s: %w", id, model.ErrNotFound)
	}
	return cat, nil
}

func (uc *categoryUseCase) storeErr(name string, err error) error {
	if database.IsUniqueViolation(err) {
		return fmt.Errorf("category %s: %w", name, model.ErrAlreadyExists)
	}
	return err
}

// invalidate drops every seller's cached product pages.
func (uc *categoryUseCase) invalidate(ctx context.Context) {
	if uc.cache == nil {
		return
	}
	if err := uc.cache.DelPattern(context.WithoutCancel(ctx), "products:list:*"); err != nil {
		uc.logger.Warn("failed to invalidate product cache", zap.Error(err))
	}
}
