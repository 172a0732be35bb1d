package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/fekuna/marketplace-catalog-service/internal/database"
	"github.com/fekuna/marketplace-catalog-service/internal/inventory"
	"github.com/fekuna/marketplace-catalog-service/internal/inventory/dto"
	"github.com/fekuna/marketplace-catalog-service/internal/model"
)

const movementColumns = `sm.id, sm.product_id, sm.variant_id, sm.movement_type, sm.quantity_change,
    sm.quantity_before, sm.quantity_after, sm.reference_type, sm.reference_id, sm.notes,
    sm.created_by, sm.created_at`

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

var _ inventory.Repository = (*PGRepository)(nil)

func (r *PGRepository) LockStock(ctx context.Context, q sqlx.ExtContext, productID, variantID string) (*model.StockLevel, error) {
	var (
		query string
		args  []any
	)
	if variantID == "" {
		query = `SELECT p.id AS product_id, p.seller_id, p.stock FROM products p WHERE p.id = ?`
		args = []any{productID}
	} else {
		query = `
            SELECT v.product_id, p.seller_id, v.stock
            FROM product_variants v
            JOIN products p ON p.id = v.product_id
            WHERE v.id = ? AND v.product_id = ? AND v.archived_at IS NULL`
		args = []any{variantID, productID}
	}
	if database.IsPostgres(q) {
		query += ` FOR UPDATE`
	}

	var level model.StockLevel
	if err := sqlx.GetContext(ctx, q, &level, q.Rebind(query), args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &level, nil
}

func (r *PGRepository) SetStock(ctx context.Context, q sqlx.ExtContext, productID, variantID string, stock int, now time.Time) error {
	if variantID == "" {
		_, err := q.ExecContext(ctx, q.Rebind(`UPDATE products SET stock = ?, updated_at = ? WHERE id = ?`), stock, now, productID)
		return err
	}
	query := q.Rebind(`UPDATE product_variants SET stock = ?, updated_at = ? WHERE id = ? AND product_id = ?`)
	_, err := q.ExecContext(ctx, query, stock, now, variantID, productID)
	return err
}

func (r *PGRepository) LogMovement(ctx context.Context, q sqlx.ExtContext, m *model.StockMovement) error {
	query := `
        INSERT INTO stock_movements (
            id, product_id, variant_id, movement_type, quantity_change,
            quantity_before, quantity_after, reference_type, reference_id,
            notes, created_by, created_at
        )
        VALUES (
            :id, :product_id, :variant_id, :movement_type, :quantity_change,
            :quantity_before, :quantity_after, :reference_type, :reference_id,
            :notes, :created_by, :created_at
        )
    `
	_, err := sqlx.NamedExecContext(ctx, q, query, m)
	return err
}

func (r *PGRepository) ListMovements(ctx context.Context, f *dto.MovementFilters) ([]model.StockMovement, int, error) {
	conditions := []string{}
	args := map[string]any{}

	if f.SellerID != "" {
		conditions = append(conditions, "p.seller_id = :seller_id")
		args["seller_id"] = f.SellerID
	}
	if f.ProductID != "" {
		conditions = append(conditions, "sm.product_id = :product_id")
		args["product_id"] = f.ProductID
	}
	if f.VariantID != "" {
		conditions = append(conditions, "sm.variant_id = :variant_id")
		args["variant_id"] = f.VariantID
	}
	if f.MovementType != "" {
		conditions = append(conditions, "sm.movement_type = :movement_type")
		args["movement_type"] = f.MovementType
	}

	from := " FROM stock_movements sm JOIN products p ON p.id = sm.product_id"
	if len(conditions) > 0 {
		from += " WHERE " + strings.Join(conditions, " AND ")
	}

	var count int
	countQuery, countArgs, err := r.DB.BindNamed("SELECT COUNT(*)"+from, args)
	if err != nil {
		return nil, 0, err
	}
	if err := r.DB.GetContext(ctx, &count, countQuery, countArgs...); err != nil {
		return nil, 0, err
	}

	query := "SELECT " + movementColumns + from + " ORDER BY sm.created_at DESC, sm.id"
	if f.PageSize > 0 {
		page := max(f.Page, 1)
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, (page-1)*f.PageSize)
	}

	nstmt, err := r.DB.PrepareNamedContext(ctx, query)
	if err != nil {
		return nil, 0, err
	}
	defer nstmt.Close()

	movements := []model.StockMovement{}
	if err := nstmt.SelectContext(ctx, &movements, args); err != nil {
		return nil, 0, err
	}
	return movements, count, nil
}

func (r *PGRepository) RecordOrderItem(ctx context.Context, q sqlx.ExtContext, item *model.OrderItem) (bool, error) {
	query := `
        INSERT INTO order_items (id, order_id, product_id, variant_id, quantity, unit_price, created_at)
        VALUES (:id, :order_id, :product_id, :variant_id, :quantity, :unit_price, :created_at)
        ON CONFLICT DO NOTHING
    `
	res, err := sqlx.NamedExecContext(ctx, q, query, item)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
