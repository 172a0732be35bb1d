package repository

import (
	"context"
	"database/sql"
	"errors"
	"iter"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/fekuna/marketplace-catalog-service/internal/database"
	"github.com/fekuna/marketplace-catalog-service/internal/matrix"
	"github.com/fekuna/marketplace-catalog-service/internal/model"
	"github.com/fekuna/marketplace-catalog-service/internal/variant"
)

// batchSize bounds the rows per multi-row statement, keeping every
// statement under the bind parameter limits of both drivers.
const batchSize = 500

const variantColumns = `id, product_id, variant_name, price, stock, image_url, is_active, archived_at, created_at, updated_at`

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

var _ variant.Repository = (*PGRepository)(nil)

func (r *PGRepository) FindProduct(ctx context.Context, q sqlx.ExtContext, productID string, lock bool) (*model.Product, error) {
	query := `SELECT id, seller_id, name, description, base_price, stock, has_variants, image_url, is_active, created_at, updated_at
		FROM products WHERE id = ?`
	if lock && database.IsPostgres(q) {
		query += ` FOR UPDATE`
	}

	var p model.Product
	if err := sqlx.GetContext(ctx, q, &p, q.Rebind(query), productID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *PGRepository) SetHasVariants(ctx context.Context, q sqlx.ExtContext, productID string, hasVariants bool, now time.Time) error {
	query := q.Rebind(`UPDATE products SET has_variants = ?, updated_at = ? WHERE id = ?`)
	_, err := q.ExecContext(ctx, query, hasVariants, now, productID)
	return err
}

func (r *PGRepository) ListByProduct(ctx context.Context, q sqlx.ExtContext, productID string, includeArchived bool) ([]model.ProductVariant, error) {
	query := `SELECT ` + variantColumns + ` FROM product_variants WHERE product_id = ?`
	if !includeArchived {
		query += ` AND archived_at IS NULL`
	}
	query += ` ORDER BY created_at, id`

	var variants []model.ProductVariant
	if err := sqlx.SelectContext(ctx, q, &variants, q.Rebind(query), productID); err != nil {
		return nil, err
	}
	if err := r.attachAttributes(ctx, q, productID, "", variants); err != nil {
		return nil, err
	}
	return variants, nil
}

func (r *PGRepository) FindByID(ctx context.Context, q sqlx.ExtContext, id string, lock bool) (*model.ProductVariant, error) {
	query := `SELECT ` + variantColumns + ` FROM product_variants WHERE id = ?`
	if lock && database.IsPostgres(q) {
		query += ` FOR UPDATE`
	}

	var v model.ProductVariant
	if err := sqlx.GetContext(ctx, q, &v, q.Rebind(query), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	variants := []model.ProductVariant{v}
	if err := r.attachAttributes(ctx, q, v.ProductID, v.ID, variants); err != nil {
		return nil, err
	}
	return &variants[0], nil
}

type linkRow struct {
	VariantID  string `db:"variant_id"`
	ID         int64  `db:"id"`
	CategoryID int64  `db:"category_id"`
	Value      string `db:"value"`
	SortOrder  int    `db:"sort_order"`
}

// attachAttributes fills AttributeIDs and Attributes, in category order.
func (r *PGRepository) attachAttributes(ctx context.Context, q sqlx.ExtContext, productID, variantID string, variants []model.ProductVariant) error {
	if len(variants) == 0 {
		return nil
	}
	query := `SELECT vav.variant_id, va.id, va.category_id, va.value, va.sort_order
		FROM variant_attribute_values vav
		JOIN product_variants pv ON pv.id = vav.variant_id
		JOIN variant_attributes va ON va.id = vav.attribute_id
		JOIN variant_categories vc ON vc.id = va.category_id
		WHERE pv.product_id = ?`
	args := []any{productID}
	if variantID != "" {
		query += ` AND pv.id = ?`
		args = append(args, variantID)
	}
	query += ` ORDER BY vc.sort_order, vc.id, va.id`

	var rows []linkRow
	if err := sqlx.SelectContext(ctx, q, &rows, q.Rebind(query), args...); err != nil {
		return err
	}

	index := make(map[string]int, len(variants))
	for i := range variants {
		index[variants[i].ID] = i
		variants[i].AttributeIDs = []int64{}
		variants[i].Attributes = []model.VariantAttribute{}
	}
	for _, row := range rows {
		i, ok := index[row.VariantID]
		if !ok {
			continue
		}
		variants[i].AttributeIDs = append(variants[i].AttributeIDs, row.ID)
		variants[i].Attributes = append(variants[i].Attributes, model.VariantAttribute{
			ID: row.ID, CategoryID: row.CategoryID, Value: row.Value, SortOrder: row.SortOrder,
		})
	}
	return nil
}

func (r *PGRepository) Update(ctx context.Context, q sqlx.ExtContext, v *model.ProductVariant) error {
	query := `
        UPDATE product_variants
        SET price = :price,
            stock = :stock,
            image_url = :image_url,
            updated_at = :updated_at
        WHERE id = :id
    `
	_, err := sqlx.NamedExecContext(ctx, q, query, v)
	return err
}

func (r *PGRepository) ReferencedIDs(ctx context.Context, q sqlx.ExtContext, ids []string) ([]string, error) {
	var out []string
	for chunk := range chunks(ids) {
		query, args, err := sqlx.In(`
			SELECT variant_id FROM cart_items WHERE variant_id IN (?)
			UNION
			SELECT variant_id FROM order_items WHERE variant_id IN (?)`, chunk, chunk)
		if err != nil {
			return nil, err
		}
		var found []string
		if err := sqlx.SelectContext(ctx, q, &found, q.Rebind(query), args...); err != nil {
			return nil, err
		}
		out = append(out, found...)
	}
	return out, nil
}

// ApplyPlan runs deletes, archives and renames, then creates, in that
// order. Retained variants keep their link rows. It must run inside a transaction: any error leaves the caller
// to roll back.
func (r *PGRepository) ApplyPlan(ctx context.Context, q sqlx.ExtContext, plan *matrix.Plan, defaults variant.Defaults, now time.Time) ([]model.ProductVariant, error) {
	if err := r.deleteVariants(ctx, q, ids(plan.Delete)); err != nil {
		return nil, err
	}
	if err := r.archiveVariants(ctx, q, ids(plan.Archive), now); err != nil {
		return nil, err
	}

	for _, rv := range plan.Retain {
		if rv.Renamed {
			query := q.Rebind(`UPDATE product_variants SET variant_name = ?, updated_at = ? WHERE id = ?`)
			if _, err := q.ExecContext(ctx, query, rv.Name, now, rv.Variant.ID); err != nil {
				return nil, err
			}
		}
	}

	return r.createVariants(ctx, q, plan, defaults, now)
}

func (r *PGRepository) createVariants(ctx context.Context, q sqlx.ExtContext, plan *matrix.Plan, defaults variant.Defaults, now time.Time) ([]model.ProductVariant, error) {
	if len(plan.Create) == 0 {
		return nil, nil
	}

	created := make([]model.ProductVariant, len(plan.Create))
	var rows []model.VariantAttributeLink
	for i, nv := range plan.Create {
		id := uuid.New().String()
		created[i] = model.ProductVariant{
			BaseModel:    model.BaseModel{ID: id, CreatedAt: now, UpdatedAt: now},
			ProductID:    plan.ProductID,
			VariantName:  nv.Name,
			Price:        defaults.Price,
			Stock:        defaults.Stock,
			IsActive:     true,
			AttributeIDs: nv.AttributeIDs,
		}
		rows = append(rows, links(id, nv.AttributeIDs)...)
	}

	query := `
        INSERT INTO product_variants (
            id, product_id, variant_name, price, stock, image_url, is_active, archived_at, created_at, updated_at
        )
        VALUES (
            :id, :product_id, :variant_name, :price, :stock, :image_url, :is_active, :archived_at, :created_at, :updated_at
        )
    `
	for start := 0; start < len(created); start += batchSize {
		end := min(start+batchSize, len(created))
		if _, err := sqlx.NamedExecContext(ctx, q, query, created[start:end]); err != nil {
			return nil, err
		}
	}
	if err := r.insertLinks(ctx, q, rows); err != nil {
		return nil, err
	}
	return created, nil
}

func (r *PGRepository) insertLinks(ctx context.Context, q sqlx.ExtContext, rows []model.VariantAttributeLink) error {
	query := `INSERT INTO variant_attribute_values (variant_id, attribute_id) VALUES (:variant_id, :attribute_id)`
	for start := 0; start < len(rows); start += batchSize {
		end := min(start+batchSize, len(rows))
		if _, err := sqlx.NamedExecContext(ctx, q, query, rows[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func (r *PGRepository) deleteVariants(ctx context.Context, q sqlx.ExtContext, variantIDs []string) error {
	for chunk := range chunks(variantIDs) {
		query, args, err := sqlx.In(`DELETE FROM product_variants WHERE id IN (?)`, chunk)
		if err != nil {
			return err
		}
		if _, err := q.ExecContext(ctx, q.Rebind(query), args...); err != nil {
			return err
		}
	}
	return nil
}

// archiveVariants keeps the rows for order history but removes them from
// the matrix: links go, the variant is deactivated and stamped.
func (r *PGRepository) archiveVariants(ctx context.Context, q sqlx.ExtContext, variantIDs []string, now time.Time) error {
	if err := r.unlink(ctx, q, variantIDs); err != nil {
		return err
	}
	for chunk := range chunks(variantIDs) {
		query, args, err := sqlx.In(`UPDATE product_variants SET is_active = ?, archived_at = ?, updated_at = ? WHERE id IN (?)`,
			false, now, now, chunk)
		if err != nil {
			return err
		}
		if _, err := q.ExecContext(ctx, q.Rebind(query), args...); err != nil {
			return err
		}
	}
	return nil
}

func (r *PGRepository) unlink(ctx context.Context, q sqlx.ExtContext, variantIDs []string) error {
	for chunk := range chunks(variantIDs) {
		query, args, err := sqlx.In(`DELETE FROM variant_attribute_values WHERE variant_id IN (?)`, chunk)
		if err != nil {
			return err
		}
		if _, err := q.ExecContext(ctx, q.Rebind(query), args...); err != nil {
			return err
		}
	}
	return nil
}

func ids(variants []model.ProductVariant) []string {
	out := make([]string, len(variants))
	for i, v := range variants {
		out[i] = v.ID
	}
	return out
}

func links(variantID string, attributeIDs []int64) []model.VariantAttributeLink {
	out := make([]model.VariantAttributeLink, len(attributeIDs))
	for i, id := range attributeIDs {
		out[i] = model.VariantAttributeLink{VariantID: variantID, AttributeID: id}
	}
	return out
}

// chunks yields ids in slices of at most batchSize. Nothing is yielded for
// an empty input.
func chunks(ids []string) iter.Seq[[]string] {
	return func(yield func([]string) bool) {
		for start := 0; start < len(ids); start += batchSize {
			if !yield(ids[start:min(start+batchSize, len(ids))]) {
				return
			}
		}
	}
}
