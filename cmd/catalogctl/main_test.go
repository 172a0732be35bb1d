package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fekuna/marketplace-catalog-service/internal/database"
	"github.com/fekuna/marketplace-catalog-service/internal/testutil"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := rootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCatalogctl(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.db")
	t.Setenv("DB_DRIVER", "sqlite3")
	t.Setenv("SQLITE_PATH", path)

	out, err := run(t, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "applied")

	db, err := database.NewSQLite(context.Background(), path)
	require.NoError(t, err)
	p := testutil.CreateProduct(t, db, "seller-1", "Sneaker")
	testutil.CreateCategory(t, db, p.ID, "Size", 0, "41", "42")
	require.NoError(t, db.Close())

	out, err = run(t, "preview", "--product", p.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "(preview): 2 combination(s)")
	assert.Contains(t, out, "+ 41")
	assert.Contains(t, out, "+ 42")

	out, err = run(t, "sync", "-p", p.ID, "--policy", "archive")
	require.NoError(t, err)
	assert.Contains(t, out, "(committed)")

	out, err = run(t, "preview", "-p", p.ID)
	require.NoError(t, err)
	assert.NotContains(t, out, "+ ")

	_, err = run(t, "sync", "-p", p.ID, "--seller", "seller-2")
	assert.Error(t, err)

	_, err = run(t, "sync", "-p", p.ID, "--policy", "cascade")
	assert.Error(t, err)

	_, err = run(t, "sync")
	assert.Error(t, err)
}
