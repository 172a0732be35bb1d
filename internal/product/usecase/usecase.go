package usecase

import (
	"context"
	"crypto/md5"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/fekuna/marketplace-catalog-service/internal/imagestore"
	"github.com/fekuna/marketplace-catalog-service/internal/logger"
	"github.com/fekuna/marketplace-catalog-service/internal/matrix"
	"github.com/fekuna/marketplace-catalog-service/internal/model"
	"github.com/fekuna/marketplace-catalog-service/internal/product"
	"github.com/fekuna/marketplace-catalog-service/internal/product/dto"
	"github.com/fekuna/marketplace-catalog-service/internal/search"
	vardto "github.com/fekuna/marketplace-catalog-service/internal/variant/dto"
)

const listCacheTTL = 5 * time.Minute

type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	DelPattern(ctx context.Context, pattern string) error
}

// Search is the product index, e.g. *search.Client.
type Search interface {
	Index(ctx context.Context, index, id string, doc any) error
	Delete(ctx context.Context, index, id string) error
	DeleteByQuery(ctx context.Context, index string, query map[string]any) error
	Search(ctx context.Context, index string, query map[string]any) (*search.SearchResponse, error)
}

type CategoryLister interface {
	ListByProduct(ctx context.Context, q sqlx.ExtContext, productID string) ([]model.VariantCategory, error)
}

// CategoryFinder resolves the shared category a product is filed under.
type CategoryFinder interface {
	FindByID(ctx context.Context, id string) (*model.ProductCategory, error)
}

type VariantLister interface {
	ListByProduct(ctx context.Context, q sqlx.ExtContext, productID string, includeArchived bool) ([]model.ProductVariant, error)
}

type Deps struct {
	Categories        CategoryLister
	ProductCategories CategoryFinder
	Variants          VariantLister
	Cache             Cache
	Search            Search
	Uploader          imagestore.Uploader
}

type productUseCase struct {
	repo       product.Repository
	db         *sqlx.DB
	categories CategoryLister
	taxonomy   CategoryFinder
	variants   VariantLister
	cache      Cache
	es         Search
	uploader   imagestore.Uploader
	logger     logger.ZapLogger
	wg         sync.WaitGroup
}

// NewProductUseCase wires the product use case. Nil cache, search and
// uploader in deps disable those features.
func NewProductUseCase(repo product.Repository, db *sqlx.DB, deps Deps, log logger.ZapLogger) *productUseCase {
	return &productUseCase{
		repo:       repo,
		db:         db,
		categories: deps.Categories,
		taxonomy:   deps.ProductCategories,
		variants:   deps.Variants,
		cache:      deps.Cache,
		es:         deps.Search,
		uploader:   deps.Uploader,
		logger:     log,
	}
}

var _ product.UseCase = (*productUseCase)(nil)

func (uc *productUseCase) CreateProduct(ctx context.Context, input *dto.CreateProductInput) (*model.Product, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, matrix.Invalid("name", "product name must not be empty")
	}
	if input.BasePrice.IsNegative() {
		return nil, matrix.Invalid("base_price", "must not be negative")
	}
	if input.Stock < 0 {
		return nil, matrix.Invalid("stock", "must not be negative")
	}

	if input.CategoryID != "" {
		if err := uc.checkCategory(ctx, input.CategoryID); err != nil {
			return nil, err
		}
	}

	now := time.Now().UTC()
	p := &model.Product{
		BaseModel: model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now},
		SellerID:  input.SellerID,
		Name:      name,
		BasePrice: input.BasePrice,
		Stock:     input.Stock,
		IsActive:  true,
	}
	if input.CategoryID != "" {
		p.CategoryID = &input.CategoryID
	}
	if input.Description != "" {
		p.Description = &input.Description
	}
	if input.ImageURL != "" {
		p.ImageURL = &input.ImageURL
	}

	if err := uc.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	uc.changed(ctx, p)
	return p, nil
}

func (uc *productUseCase) GetProduct(ctx context.Context, sellerID, id string) (*model.Product, error) {
	p, err := uc.owned(ctx, sellerID, id)
	if err != nil {
		return nil, err
	}

	if p.Categories, err = uc.categories.ListByProduct(ctx, uc.db, id); err != nil {
		return nil, err
	}
	if p.HasVariants {
		if p.Variants, err = uc.variants.ListByProduct(ctx, uc.db, id, false); err != nil {
			return nil, err
		}
	}
	if p.Images, err = uc.repo.ListImages(ctx, id); err != nil {
		return nil, err
	}
	return p, nil
}

type cachedList struct {
	Products []model.Product
	Count    int
}

func (uc *productUseCase) ListProducts(ctx context.Context, filters *dto.ProductFilters) ([]model.Product, int, error) {
	cacheKey, err := generateCacheKey(filters)
	if err == nil && uc.cache != nil {
		if val, err := uc.cache.Get(ctx, cacheKey); err == nil {
			var result cachedList
			if err := json.Unmarshal(val, &result); err == nil {
				return result.Products, result.Count, nil
			}
		}
	}

	if filters.SearchQuery != "" && uc.es != nil {
		products, total, err := uc.searchIndex(ctx, filters)
		if err == nil {
			return products, total, nil
		}
		uc.logger.Error("product search failed, falling back to database", zap.Error(err))
	}

	products, count, err := uc.repo.FindAll(ctx, filters)
	if err != nil {
		return nil, 0, err
	}

	if cacheKey != "" && uc.cache != nil {
		if data, err := json.Marshal(cachedList{Products: products, Count: count}); err == nil {
			if err := uc.cache.Set(ctx, cacheKey, data, listCacheTTL); err != nil {
				uc.logger.Warn("failed to cache product list", zap.Error(err))
			}
		}
	}
	return products, count, nil
}

func (uc *productUseCase) searchIndex(ctx context.Context, f *dto.ProductFilters) ([]model.Product, int, error) {
	must := []map[string]any{
		{"multi_match": map[string]any{
			"query":  f.SearchQuery,
			"fields": []string{"name^3", "description"},
		}},
	}
	if f.SellerID != "" {
		must = append(must, map[string]any{"term": map[string]any{"seller_id": f.SellerID}})
	}
	if f.CategoryID != "" {
		must = append(must, map[string]any{"term": map[string]any{"category_id": f.CategoryID}})
	}
	if f.ActiveOnly {
		must = append(must, map[string]any{"term": map[string]any{"is_active": true}})
	}
	q := map[string]any{"query": map[string]any{"bool": map[string]any{"must": must}}}
	if f.PageSize > 0 {
		q["size"] = f.PageSize
		q["from"] = (max(f.Page, 1) - 1) * f.PageSize
	}

	res, err := uc.es.Search(ctx, dto.ProductIndex, q)
	if err != nil {
		return nil, 0, err
	}
	products := make([]model.Product, 0, len(res.Hits.Hits))
	for _, hit := range res.Hits.Hits {
		var p model.Product
		if err := json.Unmarshal(hit.Source, &p); err == nil {
			products = append(products, p)
		}
	}
	return products, res.Hits.Total.Value, nil
}

func generateCacheKey(filters *dto.ProductFilters) (string, error) {
	data, err := json.Marshal(filters)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("products:list:%s:%x", filters.SellerID, md5.Sum(data)), nil
}

func (uc *productUseCase) UpdateProduct(ctx context.Context, input *dto.UpdateProductInput) (*model.Product, error) {
	p, err := uc.owned(ctx, input.SellerID, input.ID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, matrix.Invalid("name", "product name must not be empty")
		}
		p.Name = name
	}
	if input.CategoryID != nil {
		if *input.CategoryID == "" {
			p.CategoryID = nil
		} else {
			if err := uc.checkCategory(ctx, *input.CategoryID); err != nil {
				return nil, err
			}
			p.CategoryID = input.CategoryID
		}
	}
	if input.Description != nil {
		p.Description = input.Description
	}
	if input.BasePrice != nil {
		if input.BasePrice.IsNegative() {
			return nil, matrix.Invalid("base_price", "must not be negative")
		}
		p.BasePrice = *input.BasePrice
	}
	if input.Stock != nil {
		if *input.Stock < 0 {
			return nil, matrix.Invalid("stock", "must not be negative")
		}
		p.Stock = *input.Stock
	}
	if input.IsActive != nil {
		p.IsActive = *input.IsActive
	}
	p.UpdatedAt = time.Now().UTC()

	if err := uc.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	uc.changed(ctx, p)
	return p, nil
}

// DeleteProduct removes the product with its matrix and variants. Products
// whose variants are still in carts or orders are kept; deactivate them
// instead.
func (uc *productUseCase) DeleteProduct(ctx context.Context, sellerID, id string) error {
	p, err := uc.owned(ctx, sellerID, id)
	if err != nil {
		return err
	}

	referenced, err := uc.repo.ReferencedVariantIDs(ctx, id)
	if err != nil {
		return err
	}
	if len(referenced) > 0 {
		return &matrix.IntegrityRiskError{VariantIDs: referenced}
	}

	if err := uc.repo.Delete(ctx, id); err != nil {
		return err
	}

	bg := context.WithoutCancel(ctx)
	uc.invalidate(bg, p.SellerID)
	if uc.es != nil {
		uc.wg.Add(1)
		go func() {
			defer uc.wg.Done()
			if err := uc.es.Delete(bg, dto.ProductIndex, id); err != nil {
				uc.logger.Error("failed to remove product from index", zap.String("product_id", id), zap.Error(err))
			}
			byProduct := map[string]any{"query": map[string]any{"term": map[string]any{"product_id": id}}}
			if err := uc.es.DeleteByQuery(bg, vardto.VariantIndex, byProduct); err != nil {
				uc.logger.Error("failed to remove variants from index", zap.String("product_id", id), zap.Error(err))
			}
		}()
	}
	return nil
}

func (uc *productUseCase) SetProductImage(ctx context.Context, input *dto.SetProductImageInput) (*model.Product, error) {
	p, err := uc.owned(ctx, input.SellerID, input.ID)
	if err != nil {
		return nil, err
	}
	if uc.uploader == nil {
		return nil, errors.New("image upload is not configured")
	}

	url, err := uc.uploader.Upload(ctx, "products/"+p.ID, input.Filename, input.Data)
	if err != nil {
		uc.logger.Error("product image upload failed", zap.String("product_id", p.ID), zap.Error(err))
		return nil, err
	}
	p.ImageURL = &url
	p.UpdatedAt = time.Now().UTC()
	if err := uc.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	uc.changed(ctx, p)
	return p, nil
}

// checkCategory accepts only existing, active categories.
func (uc *productUseCase) checkCategory(ctx context.Context, id string) error {
	if uc.taxonomy == nil {
		return nil
	}
	cat, err := uc.taxonomy.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if cat == nil || !cat.IsActive {
		return matrix.Invalid("category_id", "category %s does not exist", id)
	}
	return nil
}

func (uc *productUseCase) AddProductImages(ctx context.Context, input *dto.AddProductImagesInput) ([]model.ProductImage, error) {
	p, err := uc.owned(ctx, input.SellerID, input.ProductID)
	if err != nil {
		return nil, err
	}
	if len(input.Images) == 0 {
		return nil, matrix.Invalid("images", "at least one image is required")
	}
	if uc.uploader == nil {
		return nil, errors.New("image upload is not configured")
	}

	existing, err := uc.repo.ListImages(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	if len(existing)+len(input.Images) > product.MaxImages {
		return nil, tooManyImages(len(existing), len(input.Images))
	}

	now := time.Now().UTC()
	images := make([]model.ProductImage, 0, len(input.Images))
	for _, file := range input.Images {
		url, err := uc.uploader.Upload(ctx, "products/"+p.ID, file.Filename, file.Data)
		if err != nil {
			uc.logger.Error("product image upload failed", zap.String("product_id", p.ID), zap.String("filename", file.Filename), zap.Error(err))
			return nil, err
		}
		images = append(images, model.ProductImage{ID: uuid.New().String(), ImageURL: url, CreatedAt: now})
	}

	ok, err := uc.repo.AddImages(ctx, p.ID, images, product.MaxImages)
	if err != nil {
		return nil, err
	}
	if !ok {
		// A concurrent upload filled the gallery first.
		uc.logger.Warn("gallery full after upload, images discarded", zap.String("product_id", p.ID), zap.Int("count", len(images)))
		return nil, tooManyImages(len(existing), len(input.Images))
	}
	uc.logger.Info("product images added", zap.String("product_id", p.ID), zap.Int("count", len(images)))
	return uc.repo.ListImages(ctx, p.ID)
}

func tooManyImages(have, adding int) error {
	return matrix.Invalid("images", "a product can have at most %d images, it has %d and %d were given", product.MaxImages, have, adding)
}

func (uc *productUseCase) ListProductImages(ctx context.Context, sellerID, productID string) ([]model.ProductImage, error) {
	if _, err := uc.owned(ctx, sellerID, productID); err != nil {
		return nil, err
	}
	return uc.repo.ListImages(ctx, productID)
}

func (uc *productUseCase) RemoveProductImage(ctx context.Context, sellerID, productID, imageID string) error {
	if _, err := uc.owned(ctx, sellerID, productID); err != nil {
		return err
	}
	found, err := uc.repo.DeleteImage(ctx, productID, imageID)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("image %s: %w", imageID, model.ErrNotFound)
	}
	return nil
}

func (uc *productUseCase) owned(ctx context.Context, sellerID, id string) (*model.Product, error) {
	p, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil || (sellerID != "" && p.SellerID != sellerID) {
		return nil, fmt.Errorf("product %s: %w", id, model.ErrNotFound)
	}
	return p, nil
}

// changed invalidates the seller's list cache now and reindexes the
// product in the background.
func (uc *productUseCase) changed(ctx context.Context, p *model.Product) {
	bg := context.WithoutCancel(ctx)
	uc.invalidate(bg, p.SellerID)
	if uc.es == nil {
		return
	}
	doc := dto.NewProductDocument(p)
	uc.wg.Add(1)
	go func() {
		defer uc.wg.Done()
		if err := uc.es.Index(bg, dto.ProductIndex, p.ID, doc); err != nil {
			uc.logger.Error("failed to index product", zap.String("product_id", p.ID), zap.Error(err))
		}
	}()
}

func (uc *productUseCase) invalidate(ctx context.Context, sellerID string) {
	if uc.cache == nil {
		return
	}
	pattern := fmt.Sprintf("products:list:%s:*", sellerID)
	if err := uc.cache.DelPattern(ctx, pattern); err != nil {
		uc.logger.Warn("failed to invalidate product cache", zap.String("pattern", pattern), zap.Error(err))
	}
}

// Wait blocks until background index updates are done.
func (uc *productUseCase) Wait() {
	uc.wg.Wait()
}
