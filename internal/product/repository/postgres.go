package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/fekuna/marketplace-catalog-service/internal/database"
	"github.com/fekuna/marketplace-catalog-service/internal/model"
	"github.com/fekuna/marketplace-catalog-service/internal/product"
	"github.com/fekuna/marketplace-catalog-service/internal/product/dto"
)

const productColumns = `id, seller_id, category_id, name, description, base_price, stock, has_variants, image_url, is_active, created_at, updated_at`

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

var _ product.Repository = (*PGRepository)(nil)

func (r *PGRepository) Create(ctx context.Context, p *model.Product) error {
	query := `
        INSERT INTO products (
            id, seller_id, category_id, name, description, base_price, stock,
            has_variants, image_url, is_active, created_at, updated_at
        )
        VALUES (
            :id, :seller_id, :category_id, :name, :description, :base_price, :stock,
            :has_variants, :image_url, :is_active, :created_at, :updated_at
        )
    `
	_, err := r.DB.NamedExecContext(ctx, query, p)
	return err
}

func (r *PGRepository) FindByID(ctx context.Context, id string) (*model.Product, error) {
	var p model.Product
	query := r.DB.Rebind(`SELECT ` + productColumns + ` FROM products WHERE id = ? LIMIT 1`)
	if err := r.DB.GetContext(ctx, &p, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *PGRepository) FindAll(ctx context.Context, f *dto.ProductFilters) ([]model.Product, int, error) {
	conditions := []string{}
	args := map[string]any{}

	if f.SellerID != "" {
		conditions = append(conditions, "seller_id = :seller_id")
		args["seller_id"] = f.SellerID
	}
	if f.CategoryID != "" {
		conditions = append(conditions, "category_id = :category_id")
		args["category_id"] = f.CategoryID
	}
	if f.ActiveOnly {
		conditions = append(conditions, "is_active = :is_active")
		args["is_active"] = true
	}
	if f.SearchQuery != "" {
		// LOWER/LIKE works on both postgres and sqlite.
		conditions = append(conditions, "(LOWER(name) LIKE :search OR LOWER(COALESCE(description, '')) LIKE :search)")
		args["search"] = "%" + strings.ToLower(f.SearchQuery) + "%"
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	var count int
	countQuery, countArgs, err := r.DB.BindNamed("SELECT COUNT(*) FROM products"+whereClause, args)
	if err != nil {
		return nil, 0, err
	}
	if err := r.DB.GetContext(ctx, &count, countQuery, countArgs...); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf("SELECT %s FROM products%s ORDER BY created_at DESC, id", productColumns, whereClause)
	if f.PageSize > 0 {
		page := max(f.Page, 1)
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, (page-1)*f.PageSize)
	}

	nstmt, err := r.DB.PrepareNamedContext(ctx, query)
	if err != nil {
		return nil, 0, err
	}
	defer nstmt.Close()

	products := []model.Product{}
	if err := nstmt.SelectContext(ctx, &products, args); err != nil {
		return nil, 0, err
	}
	return products, count, nil
}

func (r *PGRepository) Update(ctx context.Context, p *model.Product) error {
	query := `
        UPDATE products
        SET name = :name,
            category_id = :category_id,
            description = :description,
            base_price = :base_price,
            stock = :stock,
            image_url = :image_url,
            is_active = :is_active,
            updated_at = :updated_at
        WHERE id = :id AND seller_id = :seller_id
    `
	_, err := r.DB.NamedExecContext(ctx, query, p)
	return err
}

func (r *PGRepository) Delete(ctx context.Context, id string) error {
	_, err := r.DB.ExecContext(ctx, r.DB.Rebind("DELETE FROM products WHERE id = ?"), id)
	return err
}

func (r *PGRepository) ReferencedVariantIDs(ctx context.Context, productID string) ([]string, error) {
	query := r.DB.Rebind(`
        SELECT pv.id FROM product_variants pv
        WHERE pv.product_id = ?
          AND (EXISTS (SELECT 1 FROM cart_items ci WHERE ci.variant_id = pv.id)
            OR EXISTS (SELECT 1 FROM order_items oi WHERE oi.variant_id = pv.id))
        ORDER BY pv.id
    `)
	var ids []string
	if err := r.DB.SelectContext(ctx, &ids, query, productID); err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *PGRepository) AddImages(ctx context.Context, productID string, images []model.ProductImage, limit int) (bool, error) {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	// Serialize gallery writers on the product row.
	lock := `SELECT id FROM products WHERE id = ?`
	if database.IsPostgres(tx) {
		lock += ` FOR UPDATE`
	}
	var id string
	if err := tx.GetContext(ctx, &id, tx.Rebind(lock), productID); err != nil {
		return false, err
	}

	var current struct {
		Count   int `db:"count"`
		MaxSort int `db:"max_sort"`
	}
	query := tx.Rebind(`SELECT COUNT(*) AS count, COALESCE(MAX(sort_order), -1) AS max_sort FROM product_images WHERE product_id = ?`)
	if err := tx.GetContext(ctx, &current, query, productID); err != nil {
		return false, err
	}
	if current.Count+len(images) > limit {
		return false, nil
	}

	insert := `
        INSERT INTO product_images (id, product_id, image_url, sort_order, created_at)
        VALUES (:id, :product_id, :image_url, :sort_order, :created_at)
    `
	for i := range images {
		images[i].ProductID = productID
		images[i].SortOrder = current.MaxSort + 1 + i
		if _, err := tx.NamedExecContext(ctx, insert, &images[i]); err != nil {
			return false, err
		}
	}
	return true, tx.Commit()
}

func (r *PGRepository) ListImages(ctx context.Context, productID string) ([]model.ProductImage, error) {
	query := r.DB.Rebind(`
        SELECT id, product_id, image_url, sort_order, created_at
        FROM product_images
        WHERE product_id = ?
        ORDER BY sort_order ASC, created_at ASC
    `)
	images := []model.ProductImage{}
	if err := r.DB.SelectContext(ctx, &images, query, productID); err != nil {
		return nil, err
	}
	return images, nil
}

func (r *PGRepository) DeleteImage(ctx context.Context, productID, imageID string) (bool, error) {
	res, err := r.DB.ExecContext(ctx, r.DB.Rebind(`DELETE FROM product_images WHERE id = ? AND product_id = ?`), imageID, productID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}
