package catalog

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Issue describes a field that Normalize had to repair. Issues are
// warnings: the record is kept with the repaired value.
type Issue struct {
	Collection string `json:"collection"`
	ID         string `json:"id"`
	Field      string `json:"field"`
	Message    string `json:"message"`
}

func (i Issue) String() string {
	return fmt.Sprintf("%s %s: %s %s",
		i.Collection, i.ID, i.Field, i.Message)
}

// Normalize clamps out-of-range values in place so aggregations
// never see negative counts or money. Unknown status strings are
// kept verbatim and reported.
func (d *Dataset) Normalize() []Issue {
	var issues []Issue
	note := func(coll, id, field, msg string) {
		issues = append(issues, Issue{
			Collection: coll, ID: id, Field: field, Message: msg,
		})
	}

	for i := range d.Products {
		p := &d.Products[i]
		if p.Price.IsNegative() {
			note("products", p.ID, "price", "negative, clamped to 0")
			p.Price = decimal.Zero
		}
		if p.Stock < 0 {
			note("products", p.ID, "stock", "negative, clamped to 0")
			p.Stock = 0
		}
	}
	for i := range d.Inventory {
		it := &d.Inventory[i]
		if it.Quantity < 0 {
			note("inventory", it.ID, "quantity",
				"negative, clamped to 0")
			it.Quantity = 0
		}
		if !it.Status.Known() {
			note("inventory", it.ID, "status",
				fmt.Sprintf("unknown value %q", it.Status))
		}
	}
	for i := range d.Categories {
		c := &d.Categories[i]
		if c.Items < 0 {
			note("categories", c.ID, "items", "negative, clamped to 0")
			c.Items = 0
		}
	}
	for i := range d.Suppliers {
		s := &d.Suppliers[i]
		if s.ActiveOrders < 0 {
			note("suppliers", s.ID, "active_orders",
				"negative, clamped to 0")
			s.ActiveOrders = 0
		}
	}
	for i := range d.Orders {
		o := &d.Orders[i]
		if o.Total.IsNegative() {
			note("orders", o.ID, "total", "negative, clamped to 0")
			o.Total = decimal.Zero
		}
		if !o.Status.Known() {
			note("orders", o.ID, "status",
				fmt.Sprintf("unknown value %q", o.Status))
		}
	}
	for i := range d.Warehouses {
		c := &d.Warehouses[i].Capacity
		id := d.Warehouses[i].ID
		if c.Total < 0 {
			note("warehouses", id, "capacity.total",
				"negative, clamped to 0")
			c.Total = 0
		}
		if c.Used < 0 {
			note("warehouses", id, "capacity.used",
				"negative, clamped to 0")
			c.Used = 0
		}
		if c.Used > c.Total {
			note("warehouses", id, "capacity.used",
				"exceeds total, clamped to total")
			c.Used = c.Total
		}
	}
	return issues
}

// Validate returns an error for every record without an id and for
// every repeated id within a collection. Ids key the store tables.
func (d Dataset) Validate() error {
	var errs []error
	seen := map[string]bool{}
	check := func(coll string, i int, id string) {
		if id == "" {
			errs = append(errs,
				fmt.Errorf("%s[%d]: missing id", coll, i))
			return
		}
		if seen[coll+"\x00"+id] {
			errs = append(errs,
				fmt.Errorf("%s[%d]: duplicate id %q", coll, i, id))
			return
		}
		seen[coll+"\x00"+id] = true
	}
	for i, r := range d.Products {
		check("products", i, r.ID)
	}
	for i, r := range d.Inventory {
		check("inventory", i, r.ID)
	}
	for i, r := range d.Categories {
		check("categories", i, r.ID)
	}
	for i, r := range d.Suppliers {
		check("suppliers", i, r.ID)
	}
	for i, r := range d.Orders {
		check("orders", i, r.ID)
	}
	for i, r := range d.Warehouses {
		check("warehouses", i, r.ID)
	}
	for i, r := range d.Customers {
		check("customers", i, r.ID)
	}
	for i, r := range d.Employees {
		check("employees", i, r.ID)
	}
	return errors.Join(errs...)
}
