package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/wesm/inventoryview/internal/catalog"
)

// Stats holds record counts and the metadata of the loaded dataset.
type Stats struct {
	catalog.Counts
	Meta Meta `json:"dataset"`
}

// GetStats counts the records of every collection in one read
// transaction.
func (db *DB) GetStats(ctx context.Context) (Stats, error) {
	const query = `
		SELECT
			(SELECT COUNT(*) FROM products),
			(SELECT COUNT(*) FROM inventory),
			(SELECT COUNT(*) FROM categories),
			(SELECT COUNT(*) FROM suppliers),
			(SELECT COUNT(*) FROM orders),
			(SELECT COUNT(*) FROM warehouses),
			(SELECT COUNT(*) FROM customers),
			(SELECT COUNT(*) FROM employees)`

	var s Stats
	err := db.View(ctx, func(tx *sql.Tx) error {
		c := &s.Counts
		if err := tx.QueryRowContext(ctx, query).Scan(
			&c.Products,
			&c.Inventory,
			&c.Categories,
			&c.Suppliers,
			&c.Orders,
			&c.Warehouses,
			&c.Customers,
			&c.Employees,
		); err != nil {
			return err
		}
		m, err := readMeta(ctx, tx)
		s.Meta = m
		return err
	})
	if err != nil {
		return Stats{}, fmt.Errorf("fetching stats: %w", err)
	}
	return s, nil
}
