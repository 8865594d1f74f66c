package db

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wesm/inventoryview/internal/catalog"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	d, err := Open(Memory)
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	return d
}

func sampleDataset() catalog.Dataset {
	return catalog.Dataset{
		Version: "v1.0.0",
		Products: []catalog.Product{
			{ID: "P2", Name: "Desk", Category: "Furniture",
				Price: decimal.RequireFromString("249.99"), Stock: 4},
			{ID: "P1", Name: "Laptop", Category: "Electronics",
				Price: decimal.RequireFromString("0.10"), Stock: 12},
		},
		Inventory: []catalog.InventoryItem{
			{ID: "I1", Category: "Electronics", Quantity: 3,
				Status:      catalog.StatusLowStock,
				LastUpdated: "2024-03-15 14:30"},
		},
		Categories: []catalog.Category{
			{ID: "C1", Name: "Electronics", Description: "Gadgets",
				Items: 40, CreatedOn: "2024-01-15"},
		},
		Suppliers: []catalog.Supplier{
			{ID: "S1", Name: "Acme",
				Location: catalog.SupplierLocation{City: "Austin",
					State: "TX", Zip: "73301", Country: "USA"},
				ActiveOrders: 6},
		},
		Orders: []catalog.Order{
			{ID: "O1", Date: "2024-03-01", Status: "Refunded",
				Total: decimal.RequireFromString("1200.50")},
		},
		Warehouses: []catalog.Warehouse{
			{ID: "W1", Manager: "Ann", Phone: "555-0101",
				Location: catalog.WarehouseLocation{City: "Reno",
					State: "NV", Address: "1 Way", Zip: "89501"},
				Capacity: catalog.Capacity{Used: 700, Total: 1000}},
		},
		Customers: []catalog.Customer{
			{ID: "CU1", Name: "Bo", City: "Austin", State: "TX",
				Zipcode: "73301"},
		},
		Employees: []catalog.Employee{
			{ID: "E1", Name: "Cy", DateOfBirth: "1990-01-02", Age: 34},
		},
	}
}

// decimalEqual compares decimals by value so 0.10 equals 0.1.
var decimalEqual = cmp.Comparer(func(a, b decimal.Decimal) bool {
	return a.Equal(b)
})

func TestReplaceSnapshotRoundTrip(t *testing.T) {
	d := testDB(t)
	ctx := context.Background()
	want := sampleDataset()

	require.NoError(t, d.Replace(ctx, want, "seed"))
	got, err := d.Snapshot(ctx)
	require.NoError(t, err)

	if diff := cmp.Diff(want, got, decimalEqual); diff != "" {
		t.Errorf("snapshot mismatch (-want +got):\n%s", diff)
	}
	// Load order survives even though ids sort the other way.
	assert.Equal(t, "P2", got.Products[0].ID)
	assert.Equal(t, "0.1", got.Products[1].Price.String())
}

func TestReplaceSwapsWholeDataset(t *testing.T) {
	d := testDB(t)
	ctx := context.Background()
	require.NoError(t, d.Replace(ctx, sampleDataset(), "first"))

	next := catalog.Dataset{
		Version:  "v1.1.0",
		Products: []catalog.Product{{ID: "P9", Name: "Only"}},
	}
	require.NoError(t, d.Replace(ctx, next, "second"))

	got, err := d.Snapshot(ctx)
	require.NoError(t, err)
	require.Len(t, got.Products, 1)
	assert.Equal(t, "P9", got.Products[0].ID)
	assert.Empty(t, got.Orders)
	assert.Empty(t, got.Warehouses)
	assert.Equal(t, "v1.1.0", got.Version)

	m, err := d.GetMeta(ctx)
	require.NoError(t, err)
	assert.Equal(t, "second", m.Source)
	assert.WithinDuration(t, time.Now(), m.LoadedAt, time.Minute)
}

func TestReplaceRollsBackOnError(t *testing.T) {
	d := testDB(t)
	ctx := context.Background()
	require.NoError(t, d.Replace(ctx, sampleDataset(), "seed"))

	bad := sampleDataset()
	bad.Products = append(bad.Products, bad.Products[0])
	err := d.Replace(ctx, bad, "bad")
	require.Error(t, err)
	assert.ErrorContains(t, err, "inserting products[2]")

	got, err := d.Snapshot(ctx)
	require.NoError(t, err)
	assert.Len(t, got.Products, 2, "old dataset kept")
	m, err := d.GetMeta(ctx)
	require.NoError(t, err)
	assert.Equal(t, "seed", m.Source)
}

func TestSnapshotEmpty(t *testing.T) {
	d := testDB(t)
	got, err := d.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, catalog.Dataset{}, got)

	m, err := d.GetMeta(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Meta{}, m)
}

func TestGetStats(t *testing.T) {
	d := testDB(t)
	ctx := context.Background()
	require.NoError(t, d.Replace(ctx, sampleDataset(), "seed"))

	s, err := d.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, sampleDataset().Counts(), s.Counts)
	assert.Equal(t, "v1.0.0", s.Meta.Version)
	assert.Equal(t, "seed", s.Meta.Source)
}

func TestUpdateRollback(t *testing.T) {
	d := testDB(t)
	ctx := context.Background()
	boom := errors.New("boom")
	err := d.Update(ctx, func(tx *sql.Tx) error {
		_, err := tx.Exec(
			"INSERT INTO meta (key, value) VALUES ('x', 'y')")
		require.NoError(t, err)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	var n int
	require.NoError(t, d.View(ctx, func(tx *sql.Tx) error {
		return tx.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM meta").Scan(&n)
	}))
	assert.Zero(t, n)
}

func TestOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "data.db")
	d, err := Open(path)
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, d.Replace(ctx, sampleDataset(), "file"))
	require.NoError(t, d.Close())

	d, err = Open(path)
	require.NoError(t, err)
	defer d.Close()
	got, err := d.Snapshot(ctx)
	require.NoError(t, err)
	assert.Len(t, got.Products, 2)
	assert.Equal(t, "Desk", got.Products[0].Name)
}

func TestConcurrentReadsDuringReplace(t *testing.T) {
	d := testDB(t)
	ctx := context.Background()
	require.NoError(t, d.Replace(ctx, sampleDataset(), "seed"))

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := range 10 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			ds := sampleDataset()
			if i%2 == 0 {
				ds.Products = ds.Products[:1]
			}
			errs <- d.Replace(ctx, ds, "loop")
		}()
		go func() {
			defer wg.Done()
			ds, err := d.Snapshot(ctx)
			if err == nil && len(ds.Products) == 0 {
				err = errors.New("saw empty products mid-replace")
			}
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}
}
