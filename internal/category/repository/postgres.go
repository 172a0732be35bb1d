package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/fekuna/marketplace-catalog-service/internal/category"
	"github.com/fekuna/marketplace-catalog-service/internal/model"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

var _ category.Repository = (*PGRepository)(nil)

func (r *PGRepository) CreateCategory(ctx context.Context, q sqlx.ExtContext, c *model.VariantCategory) error {
	query := q.Rebind(`
        INSERT INTO variant_categories (product_id, name, sort_order, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?)
        RETURNING id
    `)
	return sqlx.GetContext(ctx, q, &c.ID, query, c.ProductID, c.Name, c.SortOrder, c.CreatedAt, c.UpdatedAt)
}

func (r *PGRepository) UpdateCategory(ctx context.Context, q sqlx.ExtContext, c *model.VariantCategory) error {
	query := `
        UPDATE variant_categories
        SET name = :name,
            sort_order = :sort_order,
            updated_at = :updated_at
        WHERE id = :id AND product_id = :product_id
    `
	_, err := sqlx.NamedExecContext(ctx, q, query, c)
	return err
}

func (r *PGRepository) CreateAttribute(ctx context.Context, q sqlx.ExtContext, a *model.VariantAttribute, now time.Time) error {
	query := q.Rebind(`
        INSERT INTO variant_attributes (category_id, value, sort_order, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?)
        RETURNING id
    `)
	return sqlx.GetContext(ctx, q, &a.ID, query, a.CategoryID, a.Value, a.SortOrder, now, now)
}

func (r *PGRepository) UpdateAttribute(ctx context.Context, q sqlx.ExtContext, a *model.VariantAttribute, now time.Time) error {
	query := q.Rebind(`UPDATE variant_attributes SET value = ?, sort_order = ?, updated_at = ? WHERE id = ? AND category_id = ?`)
	_, err := q.ExecContext(ctx, query, a.Value, a.SortOrder, now, a.ID, a.CategoryID)
	return err
}

func (r *PGRepository) ListByProduct(ctx context.Context, q sqlx.ExtContext, productID string) ([]model.VariantCategory, error) {
	var categories []model.VariantCategory
	query := q.Rebind(`
        SELECT id, product_id, name, sort_order, created_at, updated_at
        FROM variant_categories
        WHERE product_id = ?
        ORDER BY sort_order, id
    `)
	if err := sqlx.SelectContext(ctx, q, &categories, query, productID); err != nil {
		return nil, err
	}
	if len(categories) == 0 {
		return categories, nil
	}

	var attributes []model.VariantAttribute
	query = q.Rebind(`
        SELECT va.id, va.category_id, va.value, va.sort_order
        FROM variant_attributes va
        JOIN variant_categories vc ON vc.id = va.category_id
        WHERE vc.product_id = ?
        ORDER BY va.sort_order, va.id
    `)
	if err := sqlx.SelectContext(ctx, q, &attributes, query, productID); err != nil {
		return nil, err
	}

	index := make(map[int64]int, len(categories))
	for i := range categories {
		index[categories[i].ID] = i
		categories[i].Attributes = []model.VariantAttribute{}
	}
	for _, a := range attributes {
		i := index[a.CategoryID]
		categories[i].Attributes = append(categories[i].Attributes, a)
	}
	return categories, nil
}

func (r *PGRepository) DeleteAttributes(ctx context.Context, q sqlx.ExtContext, ids []int64) error {
	return deleteIn(ctx, q, `DELETE FROM variant_attributes WHERE id IN (?)`, ids)
}

// DeleteCategories removes categories together with their attributes and any
// links still pointing at them.
func (r *PGRepository) DeleteCategories(ctx context.Context, q sqlx.ExtContext, ids []int64) error {
	return deleteIn(ctx, q, `DELETE FROM variant_categories WHERE id IN (?)`, ids)
}

func deleteIn(ctx context.Context, q sqlx.ExtContext, stmt string, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	query, args, err := sqlx.In(stmt, ids)
	if err != nil {
		return err
	}
	_, err = q.ExecContext(ctx, q.Rebind(query), args...)
	return err
}
