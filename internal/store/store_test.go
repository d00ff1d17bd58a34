package store

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/pfcatalog/internal/catalog"
)

// testTx opens a transaction on TEST_DATABASE_URL that is rolled back when
// the test ends.
func testTx(t *testing.T) pgx.Tx {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := Open(ctx, PoolConfig{URL: url, MaxConns: 2})
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	tx, err := pool.Begin(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { tx.Rollback(context.Background()) })

	require.NoError(t, Migrate(ctx, tx))
	return tx
}

func TestItems(t *testing.T) {
	tx := testTx(t)
	ctx := context.Background()
	q := New(tx)

	sword := catalog.Record{ItemID: "sword", DisplayName: "Iron Sword", ItemClass: "Weapon"}
	pack := catalog.Record{ItemID: "pack_50%", DisplayName: "Pack", Bundle: &catalog.BundleInfo{BundledItems: []string{"sword"}}}

	require.NoError(t, q.UpsertItem(ctx, "Test", sword, uuid.Nil))
	require.NoError(t, q.UpsertItem(ctx, "Test", pack, uuid.Nil))
	require.NoError(t, q.UpsertItem(ctx, "Other", sword, uuid.Nil))

	got, err := q.GetItem(ctx, "Test", "sword")
	require.NoError(t, err)
	assert.Equal(t, sword, got.Record)
	assert.Equal(t, catalog.KindItem, got.Kind)
	assert.Nil(t, got.ImportID)

	sword.DisplayName = "Steel Sword"
	require.NoError(t, q.UpsertItem(ctx, "Test", sword, uuid.Nil))
	got, err = q.GetItem(ctx, "Test", "sword")
	require.NoError(t, err)
	assert.Equal(t, "Steel Sword", got.Record.DisplayName)

	all, err := q.ListItems(ctx, ListItemsParams{CatalogVersion: "Test"})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "pack_50%", all[0].Record.ItemID)

	bundles, err := q.ListItems(ctx, ListItemsParams{CatalogVersion: "Test", Kind: catalog.KindBundle})
	require.NoError(t, err)
	require.Len(t, bundles, 1)

	found, err := q.ListItems(ctx, ListItemsParams{CatalogVersion: "Test", Search: "STEEL"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "sword", found[0].Record.ItemID)

	found, err = q.ListItems(ctx, ListItemsParams{CatalogVersion: "Test", Search: "50%"})
	require.NoError(t, err)
	assert.Len(t, found, 1)

	limited, err := q.ListItems(ctx, ListItemsParams{CatalogVersion: "Test", Limit: 1})
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "pack_50%", limited[0].Record.ItemID)

	ok, err := q.DeleteItem(ctx, "Test", "sword")
	require.NoError(t, err)
	assert.True(t, ok)
	_, err = q.GetItem(ctx, "Test", "sword")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListItems_NoLimitReturnsAll(t *testing.T) {
	tx := testTx(t)
	ctx := context.Background()
	q := New(tx)

	const n = 1200
	for i := 0; i < n; i++ {
		rec := catalog.Record{ItemID: fmt.Sprintf("item_%05d", i)}
		require.NoError(t, q.UpsertItem(ctx, "Bulk", rec, uuid.Nil))
	}

	all, err := q.ListItems(ctx, ListItemsParams{CatalogVersion: "Bulk"})
	require.NoError(t, err)
	assert.Len(t, all, n)
}

func TestListLimit(t *testing.T) {
	assert.Nil(t, listLimit(0))
	assert.Nil(t, listLimit(-5))
	require.NotNil(t, listLimit(250000))
	assert.Equal(t, int64(250000), *listLimit(250000))
}

func TestImports(t *testing.T) {
	tx := testTx(t)
	ctx := context.Background()
	q := New(tx)

	id := uuid.New()
	source := []byte(catalog.Header + "\r\n" + `"a","","","","","","","","","","","","","","","","","","",""`)
	require.NoError(t, q.InsertImport(ctx, Import{
		ID:             id,
		FileName:       "catalog.csv",
		CatalogVersion: "Test",
		RowsTotal:      1,
	}, source))
	require.NoError(t, q.SetImportCounts(ctx, id, 1, 0))
	require.NoError(t, q.UpsertItem(ctx, "Test", catalog.Record{ItemID: "a"}, id))

	item, err := q.GetItem(ctx, "Test", "a")
	require.NoError(t, err)
	require.NotNil(t, item.ImportID)
	assert.Equal(t, id, *item.ImportID)

	imports, err := q.ListImports(ctx, 10)
	require.NoError(t, err)
	require.NotEmpty(t, imports)
	assert.Equal(t, id, imports[0].ID)
	assert.Equal(t, 1, imports[0].RowsImported)
	assert.Equal(t, len(source), imports[0].SourceSize)

	got, err := q.GetImportSource(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, source, got)

	n, err := q.PruneImports(ctx, time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, n, int64(1))

	item, err = q.GetItem(ctx, "Test", "a")
	require.NoError(t, err)
	assert.Nil(t, item.ImportID)

	_, err = q.GetImportSource(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `50\%\_a\\b`, escapeLike(`50%_a\b`))
}
