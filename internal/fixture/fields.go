package fixture

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"

	"github.com/wesm/inventoryview/internal/catalog"
)

// parser reads records field by field and collects an issue for
// every numeric value it had to default.
type parser struct {
	issues []catalog.Issue
}

func (p *parser) note(coll, id, field, msg string) {
	p.issues = append(p.issues, catalog.Issue{
		Collection: coll, ID: id, Field: field, Message: msg,
	})
}

// get returns the first present field among names. Snake case comes
// first; camelCase aliases accept exports from the web console.
func get(v gjson.Result, names ...string) gjson.Result {
	for _, n := range names {
		if r := v.Get(n); r.Exists() {
			return r
		}
	}
	return gjson.Result{}
}

func str(v gjson.Result, names ...string) string {
	return strings.TrimSpace(get(v, names...).String())
}

// maxInteger bounds whole-number fields so the conversion to int
// cannot wrap.
const maxInteger = 1e15

// integer reads a whole number. Numeric strings are accepted;
// anything else, including values beyond maxInteger, is 0.
func (p *parser) integer(
	v gjson.Result, coll, id string, names ...string,
) int {
	r := get(v, names...)
	switch r.Type {
	case gjson.Number:
		if math.Abs(r.Num) < maxInteger {
			return int(math.Round(r.Num))
		}
		p.note(coll, id, names[0], "out of range, using 0")
	case gjson.String:
		d, err := decimal.NewFromString(strings.TrimSpace(r.Str))
		switch {
		case err != nil:
			p.note(coll, id, names[0], "not a number, using 0")
		case d.Abs().LessThan(decimal.NewFromFloat(maxInteger)):
			return int(d.Round(0).IntPart())
		default:
			p.note(coll, id, names[0], "out of range, using 0")
		}
	case gjson.Null:
		if r.Exists() {
			p.note(coll, id, names[0], "null, using 0")
		} else {
			p.note(coll, id, names[0], "missing, using 0")
		}
	default:
		p.note(coll, id, names[0], "not a number, using 0")
	}
	return 0
}

// money reads a decimal amount from its literal text so values
// like 0.1 stay exact.
func (p *parser) money(
	v gjson.Result, coll, id string, names ...string,
) decimal.Decimal {
	r := get(v, names...)
	var text string
	switch r.Type {
	case gjson.Number:
		text = r.Raw
	case gjson.String:
		text = strings.TrimSpace(strings.TrimPrefix(
			strings.TrimSpace(r.Str), "$"))
	case gjson.Null:
		if r.Exists() {
			p.note(coll, id, names[0], "null, using 0")
		} else {
			p.note(coll, id, names[0], "missing, using 0")
		}
		return decimal.Zero
	default:
		p.note(coll, id, names[0], "not a number, using 0")
		return decimal.Zero
	}
	d, err := decimal.NewFromString(text)
	if err != nil {
		p.note(coll, id, names[0], "not a number, using 0")
		return decimal.Zero
	}
	return d
}

func (p *parser) each(
	root gjson.Result, coll string, fn func(v gjson.Result),
) {
	root.Get(coll).ForEach(func(_, v gjson.Result) bool {
		if v.IsObject() {
			fn(v)
		} else {
			p.note(coll, "", "", "skipped non-object entry")
		}
		return true
	})
}

func (p *parser) dataset(root gjson.Result) catalog.Dataset {
	var ds catalog.Dataset

	p.each(root, "products", func(v gjson.Result) {
		id := str(v, "id")
		ds.Products = append(ds.Products, catalog.Product{
			ID:       id,
			Name:     str(v, "name"),
			Category: str(v, "category"),
			Price:    p.money(v, "products", id, "price"),
			Stock:    p.integer(v, "products", id, "stock"),
		})
	})

	p.each(root, "inventory", func(v gjson.Result) {
		id := str(v, "id")
		ds.Inventory = append(ds.Inventory, catalog.InventoryItem{
			ID:       id,
			Category: str(v, "category"),
			Quantity: p.integer(v, "inventory", id, "quantity"),
			Status:   catalog.StockStatus(str(v, "status")),
			LastUpdated: str(v,
				"last_updated", "lastUpdated"),
		})
	})

	p.each(root, "categories", func(v gjson.Result) {
		id := str(v, "id")
		ds.Categories = append(ds.Categories, catalog.Category{
			ID:          id,
			Name:        str(v, "name"),
			Description: str(v, "description"),
			Items:       p.integer(v, "categories", id, "items"),
			CreatedOn:   str(v, "created_on", "createdOn"),
		})
	})

	p.each(root, "suppliers", func(v gjson.Result) {
		id := str(v, "id")
		loc := v.Get("location")
		ds.Suppliers = append(ds.Suppliers, catalog.Supplier{
			ID:   id,
			Name: str(v, "name"),
			Location: catalog.SupplierLocation{
				City:    str(loc, "city"),
				State:   str(loc, "state"),
				Zip:     str(loc, "zip", "zipCode"),
				Country: str(loc, "country"),
			},
			ActiveOrders: p.integer(v, "suppliers", id,
				"active_orders", "activeOrders"),
		})
	})

	p.each(root, "orders", func(v gjson.Result) {
		id := str(v, "id")
		ds.Orders = append(ds.Orders, catalog.Order{
			ID:     id,
			Date:   str(v, "date"),
			Status: catalog.OrderStatus(str(v, "status")),
			Total:  p.money(v, "orders", id, "total"),
		})
	})

	p.each(root, "warehouses", func(v gjson.Result) {
		id := str(v, "id")
		loc := v.Get("location")
		capa := v.Get("capacity")
		ds.Warehouses = append(ds.Warehouses, catalog.Warehouse{
			ID: id,
			Location: catalog.WarehouseLocation{
				City:    str(loc, "city"),
				State:   str(loc, "state"),
				Address: str(loc, "address"),
				Zip:     str(loc, "zip", "zipCode"),
			},
			Manager: str(v, "manager", "managedBy"),
			Phone:   str(v, "phone"),
			Capacity: catalog.Capacity{
				Used: p.integer(capa, "warehouses", id,
					"used"),
				Total: p.integer(capa, "warehouses", id,
					"total"),
			},
		})
	})

	p.each(root, "customers", func(v gjson.Result) {
		ds.Customers = append(ds.Customers, catalog.Customer{
			ID:      str(v, "id"),
			Name:    str(v, "name"),
			City:    str(v, "city"),
			State:   str(v, "state"),
			Zipcode: str(v, "zipcode", "zipCode", "zip"),
		})
	})

	p.each(root, "employees", func(v gjson.Result) {
		id := str(v, "id")
		ds.Employees = append(ds.Employees, catalog.Employee{
			ID:          id,
			Name:        str(v, "name"),
			DateOfBirth: str(v, "date_of_birth", "dateOfBirth"),
			Age:         p.integer(v, "employees", id, "age"),
		})
	})

	return ds
}
