package report

import (
	"math"
	"strings"

	"github.com/wesm/inventoryview/internal/aggregate"
	"github.com/wesm/inventoryview/internal/catalog"
	"github.com/wesm/inventoryview/internal/trend"
)

// SectionCategory is the Report.Category of section reports.
const SectionCategory = "section"

// Sections lists the pages that have a section report.
var Sections = []string{
	"products", "inventory", "categories", "suppliers",
	"orders", "warehouses", "customers",
}

var sectionBuilders = map[string]func(catalog.Dataset) Report{
	"products":   productsSection,
	"inventory":  inventorySection,
	"categories": categoriesSection,
	"suppliers":  suppliersSection,
	"orders":     ordersSection,
	"warehouses": warehousesSection,
	"customers":  customersSection,
}

const noSectionReport = "No report available for this section"

// Section builds the overview report of one page's collection.
// Unknown sections produce a placeholder.
func Section(name string, ds catalog.Dataset) Report {
	build, ok := sectionBuilders[name]
	if !ok {
		r := placeholder(SectionCategory, name)
		r.Title = noSectionReport
		r.Description = ""
		return r
	}
	r := build(ds)
	r.Category = SectionCategory
	r.Type = name
	r.Title = strings.ToUpper(name[:1]) + name[1:] + " Report"
	return r
}

func productsSection(ds catalog.Dataset) Report {
	products := ds.Products
	ranges := aggregate.Bucketize(
		products, aggregate.PriceRanges, productPrice)
	top := aggregate.TopN(products, topStockCount, productStock)

	var byCategory []Table
	for _, g := range aggregate.GroupBy(products, productCategory) {
		byCategory = append(byCategory, Table{
			Title:   g.Key,
			Columns: productColumns,
			Rows:    productRows(g.Members),
		})
	}

	return Report{
		Kind: KindPie,
		Data: Data{
			Buckets: aggregate.CountBy(products, productCategory),
			Metrics: []Metric{
				{Label: "Total Products", Value: float64(len(products))},
				{Label: "Low Stock Items",
					Value: float64(len(aggregate.Filter(products, lowStock)))},
				{Label: "Average Price", Value: avgPrice(products),
					Unit: UnitMoney},
			},
		},
		Panels: []Panel{
			{Title: "Price Ranges", Kind: KindBar, Data: Data{
				Buckets: aggregate.RangeCounts(ranges),
				Ranges:  ranges,
			}},
			{Title: "Top 5 Products by Stock", Kind: KindTable, Data: Data{
				Buckets: stockBuckets(top),
				Tables: []Table{{
					Columns: productColumns,
					Rows:    productRows(top),
				}},
			}},
			{Title: "Products by Category", Kind: KindTable, Data: Data{
				Buckets: aggregate.CountBy(products, productCategory),
				Tables:  byCategory,
			}},
		},
	}
}

// lowStockLimit is the highest stock count that still counts as low.
const lowStockLimit = 20

func lowStock(p catalog.Product) bool { return p.Stock <= lowStockLimit }

func stockBuckets(products []catalog.Product) []aggregate.Bucket {
	out := make([]aggregate.Bucket, len(products))
	for i, p := range products {
		out[i] = aggregate.Bucket{Name: p.Name, Value: float64(p.Stock)}
	}
	return out
}

func inventorySection(ds catalog.Dataset) Report {
	items := ds.Inventory
	status := aggregate.CountOf(items, stockStatusKeys(), itemStatus)
	low, _ := aggregate.Lookup(status, string(catalog.StatusLowStock))
	out, _ := aggregate.Lookup(status, string(catalog.StatusOutOfStock))

	isStatus := func(s catalog.StockStatus) func(catalog.InventoryItem) bool {
		return func(it catalog.InventoryItem) bool { return it.Status == s }
	}

	return Report{
		Kind: KindPie,
		Data: Data{
			Buckets: status,
			Metrics: []Metric{
				{Label: "Total Items", Value: float64(len(items))},
				{Label: "Low Stock", Value: low},
				{Label: "Out of Stock", Value: out},
			},
		},
		Panels: []Panel{
			{Title: "Quantity by Category", Kind: KindBar, Data: Data{
				Buckets: aggregate.SumBy(
					items, itemCategory, itemQuantity),
			}},
			{Title: "Low Stock Items", Kind: KindTable, Data: Data{
				Buckets: []aggregate.Bucket{},
				Tables: []Table{{
					Columns: itemColumns,
					Rows: itemRows(aggregate.Filter(
						items, isStatus(catalog.StatusLowStock))),
				}},
			}},
			{Title: "Out of Stock Items", Kind: KindTable, Data: Data{
				Buckets: []aggregate.Bucket{},
				Tables: []Table{{
					Columns: itemColumns,
					Rows: itemRows(aggregate.Filter(
						items, isStatus(catalog.StatusOutOfStock))),
				}},
			}},
		},
	}
}

func categoriesSection(ds catalog.Dataset) Report {
	cats := ds.Categories
	byItems := aggregate.SortDesc(
		aggregate.SumBy(cats, categoryName, categoryItems))
	total := aggregate.Sum(cats, categoryItems)

	rows := make([][]string, len(cats))
	for i, c := range cats {
		rows[i] = []string{c.Name, c.Description, itoa(c.Items),
			c.CreatedOn}
	}

	// The bar chart shows at most ten categories.
	chart := byItems
	if len(chart) > 10 {
		chart = chart[:10]
	}

	return Report{
		Kind: KindBar,
		Data: Data{
			Buckets: chart,
			Metrics: []Metric{
				{Label: "Total Categories", Value: float64(len(cats))},
				{Label: "Total Items", Value: total},
				{Label: "Average Items",
					Value: math.Round(aggregate.Mean(total, len(cats)))},
			},
		},
		Panels: []Panel{
			{Title: "Item Distribution", Kind: KindPie, Data: Data{
				Buckets: byItems,
			}},
			{Title: "Category Details", Kind: KindTable, Data: Data{
				Buckets: byItems,
				Tables: []Table{{
					Columns: []string{
						"Name", "Description", "Items", "Created On",
					},
					Rows: rows,
				}},
			}},
		},
	}
}

func suppliersSection(ds catalog.Dataset) Report {
	sups := ds.Suppliers
	total := aggregate.Sum(sups, supplierOrders)
	top := aggregate.TopN(sups, topStockCount, supplierOrders)

	topBuckets := make([]aggregate.Bucket, len(top))
	for i, s := range top {
		topBuckets[i] = aggregate.Bucket{
			Name: s.Name, Value: float64(s.ActiveOrders),
		}
	}

	groups := aggregate.SortGroups(
		aggregate.GroupBy(sups, supplierState))
	rows := make([][]string, len(groups))
	for i, g := range groups {
		names := make([]string, len(g.Members))
		for j, s := range g.Members {
			names[j] = s.Name
		}
		rows[i] = []string{
			g.Key, itoa(len(g.Members)),
			itoa(int(aggregate.Sum(g.Members, supplierOrders))),
			strings.Join(names, ", "),
		}
	}

	return Report{
		Kind: KindPie,
		Data: Data{
			Buckets: aggregate.CountBy(sups, supplierState),
			Metrics: []Metric{
				{Label: "Total Suppliers", Value: float64(len(sups))},
				{Label: "Active Orders", Value: total},
				{Label: "Avg. Active Orders",
					Value: round1(aggregate.Mean(total, len(sups)))},
			},
		},
		Panels: []Panel{
			{Title: "Top 5 Suppliers by Active Orders", Kind: KindBar,
				Data: Data{Buckets: topBuckets}},
			{Title: "Suppliers by State", Kind: KindTable, Data: Data{
				Buckets: aggregate.SumBy(
					sups, supplierState, supplierOrders),
				Tables: []Table{{
					Columns: []string{
						"State", "Suppliers", "Active Orders", "Names",
					},
					Rows: rows,
				}},
			}},
		},
	}
}

func ordersSection(ds catalog.Dataset) Report {
	orders := ds.Orders
	rev := aggregate.SumMoney(orders, orderTotal)
	ranges := aggregate.Bucketize(
		orders, aggregate.OrderValueRanges, orderTotalFloat)

	var tables []Table
	all := make([][]string, len(orders))
	for i, o := range orders {
		all[i] = []string{o.ID, o.Date, string(o.Status), money(o.Total)}
	}
	tables = append(tables, Table{
		Title:   "All Orders",
		Columns: []string{"Order ID", "Date", "Status", "Total"},
		Rows:    all,
		Footer:  []string{"Total", "", "", money(rev)},
	})
	for _, st := range orderTotalsByStatus(orders) {
		members := aggregate.Filter(orders, func(o catalog.Order) bool {
			return string(o.Status) == st.Status
		})
		rows := make([][]string, len(members))
		for i, o := range members {
			rows[i] = []string{o.ID, o.Date, money(o.Total)}
		}
		tables = append(tables, Table{
			Title:   st.Status + " Orders",
			Columns: []string{"Order ID", "Date", "Total"},
			Rows:    rows,
			Footer:  []string{"Total", "", money(st.Total)},
		})
	}

	return Report{
		Kind: KindPie,
		Data: Data{
			Buckets: aggregate.CountOf(
				orders, orderStatusKeys(), orderStatus),
			Metrics: []Metric{
				{Label: "Total Orders", Value: float64(len(orders))},
				{Label: "Total Revenue", Value: aggregate.Float(rev),
					Unit: UnitMoney},
				{Label: "Avg. Order Value", Unit: UnitMoney,
					Value: aggregate.Float(
						aggregate.MeanMoney(rev, len(orders)))},
			},
		},
		Panels: []Panel{
			{Title: "Order Value Ranges", Kind: KindBar, Data: Data{
				Buckets: aggregate.RangeCounts(ranges),
				Ranges:  ranges,
			}},
			{Title: "Orders by Status", Kind: KindTable, Data: Data{
				Buckets: aggregate.SumOf(orders, orderStatusKeys(),
					orderStatus, orderTotalFloat),
				Tables: tables,
			}},
		},
	}
}

// Utilization levels of a warehouse.
const (
	LevelLow    = "low"
	LevelMedium = "medium"
	LevelHigh   = "high"
)

// UtilizationLevel grades a utilization percentage: above 80 is
// high, above 60 medium, anything else low.
func UtilizationLevel(pct float64) string {
	switch {
	case pct > 80:
		return LevelHigh
	case pct > 60:
		return LevelMedium
	}
	return LevelLow
}

// utilization is the used share of a warehouse's capacity in
// percent, rounded. Zero capacity is 0% utilized.
func utilization(c catalog.Capacity) float64 {
	return math.Round(aggregate.Percent(
		float64(c.Used), float64(c.Total)))
}

func warehousesSection(ds catalog.Dataset) Report {
	whs := ds.Warehouses
	used := make([]aggregate.Bucket, len(whs))
	points := make([]trend.MultiPoint, len(whs))
	rows := make([][]string, len(whs))
	var capTotal, utilSum float64
	for i, w := range whs {
		c := w.Capacity
		used[i] = aggregate.Bucket{
			Name: w.Location.City, Value: float64(c.Used),
		}
		points[i] = trend.MultiPoint{
			Label: w.Location.City,
			Values: map[string]float64{
				"Used":      float64(c.Used),
				"Available": float64(c.Available()),
			},
		}
		u := utilization(c)
		rows[i] = []string{
			w.Location.City + ", " + w.Location.State,
			itoa(c.Total), itoa(c.Used), itoa(c.Available()),
			FormatValue(u) + "%", UtilizationLevel(u),
		}
		capTotal += float64(c.Total)
		utilSum += aggregate.Percent(float64(c.Used), float64(c.Total))
	}

	return Report{
		Kind: KindBar,
		Data: Data{
			Buckets: used,
			Points:  points,
			Series:  []string{"Used", "Available"},
			Metrics: []Metric{
				{Label: "Total Warehouses", Value: float64(len(whs))},
				{Label: "Total Capacity", Value: capTotal,
					Unit: UnitUnits},
				{Label: "Avg. Utilization", Unit: UnitPercent,
					Value: math.Round(aggregate.Mean(utilSum, len(whs)))},
			},
		},
		Panels: []Panel{
			{Title: "Warehouses by State", Kind: KindPie, Data: Data{
				Buckets: aggregate.CountBy(whs, warehouseState),
			}},
			{Title: "Utilization", Kind: KindTable, Data: Data{
				Buckets: utilizationBuckets(whs),
				Tables: []Table{{
					Columns: []string{
						"Warehouse", "Capacity", "Used",
						"Available", "Utilization", "Level",
					},
					Rows: rows,
				}},
			}},
		},
	}
}

func utilizationBuckets(whs []catalog.Warehouse) []aggregate.Bucket {
	out := make([]aggregate.Bucket, len(whs))
	for i, w := range whs {
		out[i] = aggregate.Bucket{
			Name:  w.Location.City + ", " + w.Location.State,
			Value: utilization(w.Capacity),
		}
	}
	return out
}

func customersSection(ds catalog.Dataset) Report {
	customers := ds.Customers
	byState := aggregate.CountBy(customers, customerState)

	groups := aggregate.SortGroups(
		aggregate.GroupBy(customers, customerState))
	tables := make([]Table, len(groups))
	for i, g := range groups {
		rows := make([][]string, len(g.Members))
		for j, c := range g.Members {
			rows[j] = []string{c.Name, c.City, c.Zipcode}
		}
		tables[i] = Table{
			Title:   g.Key,
			Columns: []string{"Name", "City", "Zipcode"},
			Rows:    rows,
		}
	}

	return Report{
		Kind: KindPie,
		Data: Data{
			Buckets: byState,
			Metrics: []Metric{
				{Label: "Total Customers",
					Value: float64(len(customers))},
				{Label: "States", Value: float64(len(byState))},
				{Label: "Top State",
					Text: aggregate.Largest(byState, "N/A")},
			},
		},
		Panels: []Panel{
			{Title: "Customers per State", Kind: KindBar, Data: Data{
				Buckets: aggregate.SortDesc(byState),
			}},
			{Title: "Customers by State", Kind: KindTable, Data: Data{
				Buckets: aggregate.SortByName(byState),
				Tables:  tables,
			}},
		},
	}
}
