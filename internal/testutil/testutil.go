// Package testutil opens migrated SQLite databases and seeds catalog rows
// for store-backed tests.
package testutil

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/fekuna/marketplace-catalog-service/internal/database"
	"github.com/fekuna/marketplace-catalog-service/internal/model"
)

// NewDB returns a fresh database in the test's temp dir with all migrations
// applied. It is closed when the test ends.
func NewDB(t testing.TB) *sqlx.DB {
	t.Helper()
	ctx := context.Background()

	db, err := database.NewSQLite(ctx, filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = database.Migrate(ctx, db)
	require.NoError(t, err)
	return db
}

func CreateProduct(t testing.TB, db *sqlx.DB, sellerID, name string) *model.Product {
	t.Helper()
	now := time.Now().UTC()
	p := &model.Product{
		BaseModel: model.BaseModel{ID: uuid.NewString(), CreatedAt: now, UpdatedAt: now},
		SellerID:  sellerID,
		Name:      name,
		BasePrice: decimal.RequireFromString("100000"),
		IsActive:  true,
	}
	_, err := db.NamedExec(`
        INSERT INTO products (id, seller_id, name, description, base_price, stock, has_variants, image_url, is_active, created_at, updated_at)
        VALUES (:id, :seller_id, :name, :description, :base_price, :stock, :has_variants, :image_url, :is_active, :created_at, :updated_at)
    `, p)
	require.NoError(t, err)
	return p
}

// CreateCategory inserts a category and its attribute values in order.
func CreateCategory(t testing.TB, db *sqlx.DB, productID, name string, sortOrder int, values ...string) model.VariantCategory {
	t.Helper()
	now := time.Now().UTC()
	c := model.VariantCategory{ProductID: productID, Name: name, SortOrder: sortOrder, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, db.Get(&c.ID, db.Rebind(`
        INSERT INTO variant_categories (product_id, name, sort_order, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?) RETURNING id`), productID, name, sortOrder, now, now))

	for i, v := range values {
		a := model.VariantAttribute{CategoryID: c.ID, Value: v, SortOrder: i}
		require.NoError(t, db.Get(&a.ID, db.Rebind(`
            INSERT INTO variant_attributes (category_id, value, sort_order, created_at, updated_at)
            VALUES (?, ?, ?, ?, ?) RETURNING id`), c.ID, v, i, now, now))
		c.Attributes = append(c.Attributes, a)
	}
	return c
}

// AddOrderLine pins a variant the way a placed order does.
func AddOrderLine(t testing.TB, db *sqlx.DB, productID, variantID string) {
	t.Helper()
	_, err := db.Exec(db.Rebind(`
        INSERT INTO order_items (id, order_id, product_id, variant_id, quantity, unit_price, created_at)
        VALUES (?, ?, ?, ?, 1, '100000', ?)`), uuid.NewString(), uuid.NewString(), productID, variantID, time.Now().UTC())
	require.NoError(t, err)
}

func AddCartLine(t testing.TB, db *sqlx.DB, productID, variantID string) {
	t.Helper()
	_, err := db.Exec(db.Rebind(`
        INSERT INTO cart_items (id, buyer_id, product_id, variant_id, quantity, created_at)
        VALUES (?, 'buyer-1', ?, ?, 1, ?)`), uuid.NewString(), productID, variantID, time.Now().UTC())
	require.NoError(t, err)
}

func Count(t testing.TB, db *sqlx.DB, table string) int {
	t.Helper()
	var n int
	require.NoError(t, db.Get(&n, "SELECT COUNT(*) FROM "+table))
	return n
}

// VariantRow is the persisted state of a variant, for before/after
// comparisons.
type VariantRow struct {
	ID          string  `db:"id"`
	VariantName string  `db:"variant_name"`
	Price       string  `db:"price"`
	Stock       int     `db:"stock"`
	ImageURL    *string `db:"image_url"`
	IsActive    bool    `db:"is_active"`
}

type LinkRow struct {
	VariantID   string `db:"variant_id"`
	AttributeID int64  `db:"attribute_id"`
}

// Snapshot captures every variant and link row of the database.
func Snapshot(t testing.TB, db *sqlx.DB) ([]VariantRow, []LinkRow) {
	t.Helper()
	var variants []VariantRow
	require.NoError(t, db.Select(&variants,
		`SELECT id, variant_name, price, stock, image_url, is_active FROM product_variants ORDER BY id`))
	var links []LinkRow
	require.NoError(t, db.Select(&links,
		`SELECT variant_id, attribute_id FROM variant_attribute_values ORDER BY variant_id, attribute_id`))
	return variants, links
}
