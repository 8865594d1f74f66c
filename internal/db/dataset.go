package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/wesm/inventoryview/internal/catalog"
)

// Meta describes the dataset currently loaded.
type Meta struct {
	Version  string    `json:"version"`
	Source   string    `json:"source"`
	LoadedAt time.Time `json:"loaded_at"`
}

var tables = []string{
	"products", "inventory", "categories", "suppliers",
	"orders", "warehouses", "customers", "employees",
}

// Replace swaps the stored dataset for ds in one transaction.
// Readers see either the old dataset or the new one, never a mix.
func (db *DB) Replace(
	ctx context.Context, ds catalog.Dataset, source string,
) error {
	return db.Update(ctx, func(tx *sql.Tx) error {
		for _, t := range tables {
			if _, err := tx.ExecContext(ctx,
				"DELETE FROM "+t); err != nil {
				return fmt.Errorf("clearing %s: %w", t, err)
			}
		}
		if err := insertAll(ctx, tx, ds); err != nil {
			return err
		}
		return writeMeta(ctx, tx, Meta{
			Version:  ds.Version,
			Source:   source,
			LoadedAt: time.Now().UTC(),
		})
	})
}

// insert prepares query once and runs it for each of n rows.
func insert(
	ctx context.Context, tx *sql.Tx, table, query string,
	n int, args func(i int) []any,
) error {
	if n == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("prepare %s: %w", table, err)
	}
	defer stmt.Close()
	for i := range n {
		if _, err := stmt.ExecContext(ctx, args(i)...); err != nil {
			return fmt.Errorf("inserting %s[%d]: %w", table, i, err)
		}
	}
	return nil
}

func insertAll(
	ctx context.Context, tx *sql.Tx, ds catalog.Dataset,
) error {
	steps := []struct {
		table string
		query string
		n     int
		args  func(i int) []any
	}{
		{"products", `INSERT INTO products
			(id, ord, name, category, price, stock)
			VALUES (?, ?, ?, ?, ?, ?)`,
			len(ds.Products), func(i int) []any {
				p := ds.Products[i]
				return []any{p.ID, i, p.Name, p.Category,
					p.Price.String(), p.Stock}
			}},
		{"inventory", `INSERT INTO inventory
			(id, ord, category, quantity, status, last_updated)
			VALUES (?, ?, ?, ?, ?, ?)`,
			len(ds.Inventory), func(i int) []any {
				it := ds.Inventory[i]
				return []any{it.ID, i, it.Category, it.Quantity,
					string(it.Status), it.LastUpdated}
			}},
		{"categories", `INSERT INTO categories
			(id, ord, name, description, items, created_on)
			VALUES (?, ?, ?, ?, ?, ?)`,
			len(ds.Categories), func(i int) []any {
				c := ds.Categories[i]
				return []any{c.ID, i, c.Name, c.Description,
					c.Items, c.CreatedOn}
			}},
		{"suppliers", `INSERT INTO suppliers
			(id, ord, name, city, state, zip, country,
			 active_orders)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			len(ds.Suppliers), func(i int) []any {
				s := ds.Suppliers[i]
				return []any{s.ID, i, s.Name, s.Location.City,
					s.Location.State, s.Location.Zip,
					s.Location.Country, s.ActiveOrders}
			}},
		{"orders", `INSERT INTO orders
			(id, ord, date, status, total)
			VALUES (?, ?, ?, ?, ?)`,
			len(ds.Orders), func(i int) []any {
				o := ds.Orders[i]
				return []any{o.ID, i, o.Date, string(o.Status),
					o.Total.String()}
			}},
		{"warehouses", `INSERT INTO warehouses
			(id, ord, city, state, address, zip, manager, phone,
			 capacity_used, capacity_total)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			len(ds.Warehouses), func(i int) []any {
				w := ds.Warehouses[i]
				return []any{w.ID, i, w.Location.City,
					w.Location.State, w.Location.Address,
					w.Location.Zip, w.Manager, w.Phone,
					w.Capacity.Used, w.Capacity.Total}
			}},
		{"customers", `INSERT INTO customers
			(id, ord, name, city, state, zipcode)
			VALUES (?, ?, ?, ?, ?, ?)`,
			len(ds.Customers), func(i int) []any {
				c := ds.Customers[i]
				return []any{c.ID, i, c.Name, c.City, c.State,
					c.Zipcode}
			}},
		{"employees", `INSERT INTO employees
			(id, ord, name, date_of_birth, age)
			VALUES (?, ?, ?, ?, ?)`,
			len(ds.Employees), func(i int) []any {
				e := ds.Employees[i]
				return []any{e.ID, i, e.Name, e.DateOfBirth, e.Age}
			}},
	}
	for _, s := range steps {
		if err := insert(ctx, tx, s.table, s.query,
			s.n, s.args); err != nil {
			return err
		}
	}
	return nil
}

func writeMeta(ctx context.Context, tx *sql.Tx, m Meta) error {
	values := map[string]string{
		"version":   m.Version,
		"source":    m.Source,
		"loaded_at": m.LoadedAt.Format(time.RFC3339Nano),
	}
	for k, v := range values {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO meta (key, value) VALUES (?, ?)
			 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
			k, v,
		); err != nil {
			return fmt.Errorf("writing meta %s: %w", k, err)
		}
	}
	return nil
}

// GetMeta returns the metadata of the loaded dataset. It is zero
// before the first Replace.
func (db *DB) GetMeta(ctx context.Context) (Meta, error) {
	var m Meta
	err := db.View(ctx, func(tx *sql.Tx) error {
		var err error
		m, err = readMeta(ctx, tx)
		return err
	})
	if err != nil {
		return Meta{}, fmt.Errorf("reading meta: %w", err)
	}
	return m, nil
}

func readMeta(ctx context.Context, tx *sql.Tx) (Meta, error) {
	rows, err := tx.QueryContext(ctx, "SELECT key, value FROM meta")
	if err != nil {
		return Meta{}, fmt.Errorf("querying meta: %w", err)
	}
	defer rows.Close()

	var m Meta
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return Meta{}, fmt.Errorf("scanning meta: %w", err)
		}
		switch k {
		case "version":
			m.Version = v
		case "source":
			m.Source = v
		case "loaded_at":
			t, err := time.Parse(time.RFC3339Nano, v)
			if err != nil {
				return Meta{}, fmt.Errorf("parsing loaded_at: %w", err)
			}
			m.LoadedAt = t
		}
	}
	return m, rows.Err()
}

// Snapshot reads the whole dataset in one read transaction.
// Collections come back in load order.
func (db *DB) Snapshot(ctx context.Context) (catalog.Dataset, error) {
	var ds catalog.Dataset
	err := db.View(ctx, func(tx *sql.Tx) error {
		m, err := readMeta(ctx, tx)
		if err != nil {
			return err
		}
		ds.Version = m.Version
		return errors.Join(
			scanProducts(ctx, tx, &ds),
			scanInventory(ctx, tx, &ds),
			scanCategories(ctx, tx, &ds),
			scanSuppliers(ctx, tx, &ds),
			scanOrders(ctx, tx, &ds),
			scanWarehouses(ctx, tx, &ds),
			scanCustomers(ctx, tx, &ds),
			scanEmployees(ctx, tx, &ds),
		)
	})
	if err != nil {
		return catalog.Dataset{}, fmt.Errorf("reading snapshot: %w", err)
	}
	return ds, nil
}

// scan runs query and calls fn for each row.
func scan(
	ctx context.Context, tx *sql.Tx, table, query string,
	fn func(rows *sql.Rows) error,
) error {
	rows, err := tx.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("querying %s: %w", table, err)
	}
	defer rows.Close()
	for rows.Next() {
		if err := fn(rows); err != nil {
			return fmt.Errorf("scanning %s: %w", table, err)
		}
	}
	return rows.Err()
}

func scanProducts(
	ctx context.Context, tx *sql.Tx, ds *catalog.Dataset,
) error {
	return scan(ctx, tx, "products",
		`SELECT id, name, category, price, stock
		 FROM products ORDER BY ord`,
		func(rows *sql.Rows) error {
			var p catalog.Product
			if err := rows.Scan(&p.ID, &p.Name, &p.Category,
				&p.Price, &p.Stock); err != nil {
				return err
			}
			ds.Products = append(ds.Products, p)
			return nil
		})
}

func scanInventory(
	ctx context.Context, tx *sql.Tx, ds *catalog.Dataset,
) error {
	return scan(ctx, tx, "inventory",
		`SELECT id, category, quantity, status, last_updated
		 FROM inventory ORDER BY ord`,
		func(rows *sql.Rows) error {
			var it catalog.InventoryItem
			if err := rows.Scan(&it.ID, &it.Category, &it.Quantity,
				&it.Status, &it.LastUpdated); err != nil {
				return err
			}
			ds.Inventory = append(ds.Inventory, it)
			return nil
		})
}

func scanCategories(
	ctx context.Context, tx *sql.Tx, ds *catalog.Dataset,
) error {
	return scan(ctx, tx, "categories",
		`SELECT id, name, description, items, created_on
		 FROM categories ORDER BY ord`,
		func(rows *sql.Rows) error {
			var c catalog.Category
			if err := rows.Scan(&c.ID, &c.Name, &c.Description,
				&c.Items, &c.CreatedOn); err != nil {
				return err
			}
			ds.Categories = append(ds.Categories, c)
			return nil
		})
}

func scanSuppliers(
	ctx context.Context, tx *sql.Tx, ds *catalog.Dataset,
) error {
	return scan(ctx, tx, "suppliers",
		`SELECT id, name, city, state, zip, country, active_orders
		 FROM suppliers ORDER BY ord`,
		func(rows *sql.Rows) error {
			var s catalog.Supplier
			if err := rows.Scan(&s.ID, &s.Name, &s.Location.City,
				&s.Location.State, &s.Location.Zip,
				&s.Location.Country, &s.ActiveOrders); err != nil {
				return err
			}
			ds.Suppliers = append(ds.Suppliers, s)
			return nil
		})
}

func scanOrders(
	ctx context.Context, tx *sql.Tx, ds *catalog.Dataset,
) error {
	return scan(ctx, tx, "orders",
		`SELECT id, date, status, total FROM orders ORDER BY ord`,
		func(rows *sql.Rows) error {
			var o catalog.Order
			if err := rows.Scan(&o.ID, &o.Date, &o.Status,
				&o.Total); err != nil {
				return err
			}
			ds.Orders = append(ds.Orders, o)
			return nil
		})
}

func scanWarehouses(
	ctx context.Context, tx *sql.Tx, ds *catalog.Dataset,
) error {
	return scan(ctx, tx, "warehouses",
		`SELECT id, city, state, address, zip, manager, phone,
		        capacity_used, capacity_total
		 FROM warehouses ORDER BY ord`,
		func(rows *sql.Rows) error {
			var w catalog.Warehouse
			if err := rows.Scan(&w.ID, &w.Location.City,
				&w.Location.State, &w.Location.Address,
				&w.Location.Zip, &w.Manager, &w.Phone,
				&w.Capacity.Used, &w.Capacity.Total); err != nil {
				return err
			}
			ds.Warehouses = append(ds.Warehouses, w)
			return nil
		})
}

func scanCustomers(
	ctx context.Context, tx *sql.Tx, ds *catalog.Dataset,
) error {
	return scan(ctx, tx, "customers",
		`SELECT id, name, city, state, zipcode
		 FROM customers ORDER BY ord`,
		func(rows *sql.Rows) error {
			var c catalog.Customer
			if err := rows.Scan(&c.ID, &c.Name, &c.City,
				&c.State, &c.Zipcode); err != nil {
				return err
			}
			ds.Customers = append(ds.Customers, c)
			return nil
		})
}

func scanEmployees(
	ctx context.Context, tx *sql.Tx, ds *catalog.Dataset,
) error {
	return scan(ctx, tx, "employees",
		`SELECT id, name, date_of_birth, age
		 FROM employees ORDER BY ord`,
		func(rows *sql.Rows) error {
			var e catalog.Employee
			if err := rows.Scan(&e.ID, &e.Name, &e.DateOfBirth,
				&e.Age); err != nil {
				return err
			}
			ds.Employees = append(ds.Employees, e)
			return nil
		})
}
