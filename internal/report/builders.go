package report

import (
	"math"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/wesm/inventoryview/internal/aggregate"
	"github.com/wesm/inventoryview/internal/catalog"
	"github.com/wesm/inventoryview/internal/trend"
)

// Field accessors shared by the builders.

func productCategory(p catalog.Product) string { return p.Category }
func productPrice(p catalog.Product) float64   { return aggregate.Float(p.Price) }
func productStock(p catalog.Product) float64   { return float64(p.Stock) }

// stockValue is price times units on hand.
func stockValue(p catalog.Product) decimal.Decimal {
	return p.Price.Mul(decimal.NewFromInt(int64(p.Stock)))
}

func itemCategory(it catalog.InventoryItem) string { return it.Category }
func itemStatus(it catalog.InventoryItem) string   { return string(it.Status) }
func itemQuantity(it catalog.InventoryItem) float64 {
	return float64(it.Quantity)
}

func orderStatus(o catalog.Order) string            { return string(o.Status) }
func orderTotal(o catalog.Order) decimal.Decimal    { return o.Total }
func orderTotalFloat(o catalog.Order) float64       { return aggregate.Float(o.Total) }
func customerState(c catalog.Customer) string       { return c.State }
func supplierState(s catalog.Supplier) string       { return s.Location.State }
func supplierOrders(s catalog.Supplier) float64     { return float64(s.ActiveOrders) }
func warehouseState(w catalog.Warehouse) string     { return w.Location.State }
func categoryItems(c catalog.Category) float64      { return float64(c.Items) }
func categoryName(c catalog.Category) string        { return c.Name }
func completed(o catalog.Order) bool                { return o.Status == catalog.OrderCompleted }
func unsettled(o catalog.Order) bool                { return o.Status != catalog.OrderCompleted }
func lowOrOut(it catalog.InventoryItem) bool {
	return it.Status == catalog.StatusLowStock ||
		it.Status == catalog.StatusOutOfStock
}

func stockStatusKeys() []string {
	keys := make([]string, len(catalog.StockStatuses))
	for i, s := range catalog.StockStatuses {
		keys[i] = string(s)
	}
	return keys
}

func orderStatusKeys() []string {
	keys := make([]string, len(catalog.OrderStatuses))
	for i, s := range catalog.OrderStatuses {
		keys[i] = string(s)
	}
	return keys
}

// Cell formatting.

func money(d decimal.Decimal) string { return "$" + d.StringFixed(2) }
func itoa(n int) string              { return strconv.Itoa(n) }

// round1 rounds to one decimal place for percentages and averages.
func round1(v float64) float64 { return math.Round(v*10) / 10 }

// seriesBuckets extracts one named series of a multi-series trend
// as label/value buckets.
func seriesBuckets(points []trend.MultiPoint, name string) []aggregate.Bucket {
	out := make([]aggregate.Bucket, len(points))
	for i, p := range points {
		out[i] = aggregate.Bucket{Name: p.Label, Value: p.Values[name]}
	}
	return out
}

// trendData generates series over the input's time range. The
// first series is the primary one.
func trendData(in Input, series ...trend.Series) Data {
	points := in.generator().Multi(series, in.timeRange())
	names := make([]string, len(series))
	for i, s := range series {
		names[i] = s.Name
	}
	return Data{
		Buckets: seriesBuckets(points, names[0]),
		Points:  points,
		Series:  names,
	}
}

type statusTotal struct {
	Status string
	Orders int
	Total  decimal.Decimal
}

// orderTotalsByStatus sums order totals per status: known statuses
// first in display order, then any others as found.
func orderTotalsByStatus(orders []catalog.Order) []statusTotal {
	counts := aggregate.CountOf(orders, orderStatusKeys(), orderStatus)
	out := make([]statusTotal, len(counts))
	for i, b := range counts {
		members := aggregate.Filter(orders, func(o catalog.Order) bool {
			return string(o.Status) == b.Name
		})
		out[i] = statusTotal{
			Status: b.Name,
			Orders: int(b.Value),
			Total:  aggregate.SumMoney(members, orderTotal),
		}
	}
	return out
}

// Financial.

func financialOverview(in Input) Data {
	orders := in.Dataset.Orders
	rev := aggregate.SumMoney(orders, orderTotal)
	done := len(aggregate.Filter(orders, completed))

	d := trendData(in, trend.Series{
		Name: "Revenue", Baseline: aggregate.Float(rev), Kind: trend.Amount,
	})
	d.Metrics = []Metric{
		{Label: "Total Revenue", Value: aggregate.Float(rev),
			Unit: UnitMoney},
		{Label: "Orders", Value: float64(len(orders))},
		{Label: "Avg. Order Value", Unit: UnitMoney,
			Value: aggregate.Float(
				aggregate.MeanMoney(rev, len(orders)))},
		{Label: "Completed", Unit: UnitPercent,
			Value: round1(aggregate.Percent(
				float64(done), float64(len(orders))))},
	}
	return d
}

func incomeStatement(in Input) Data {
	totals := orderTotalsByStatus(in.Dataset.Orders)
	buckets := make([]aggregate.Bucket, 0, len(totals))
	rows := make([][]string, 0, len(totals))
	recognized, pending, all := decimal.Zero, decimal.Zero, decimal.Zero
	var n int
	for _, st := range totals {
		buckets = append(buckets, aggregate.Bucket{
			Name: st.Status, Value: aggregate.Float(st.Total),
		})
		rows = append(rows, []string{
			st.Status, itoa(st.Orders), money(st.Total),
		})
		if st.Status == string(catalog.OrderCompleted) {
			recognized = recognized.Add(st.Total)
		} else {
			pending = pending.Add(st.Total)
		}
		all = all.Add(st.Total)
		n += st.Orders
	}
	return Data{
		Buckets: buckets,
		Metrics: []Metric{
			{Label: "Recognized Revenue", Unit: UnitMoney,
				Value: aggregate.Float(recognized)},
			{Label: "Open Revenue", Unit: UnitMoney,
				Value: aggregate.Float(pending)},
			{Label: "Total Booked", Unit: UnitMoney,
				Value: aggregate.Float(all)},
		},
		Tables: []Table{{
			Title:   "Revenue by Order Status",
			Columns: []string{"Status", "Orders", "Revenue"},
			Rows:    rows,
			Footer:  []string{"Total", itoa(n), money(all)},
		}},
	}
}

func balanceSheet(in Input) Data {
	ds := in.Dataset
	inv := aggregate.SumMoney(ds.Products, stockValue)
	recv := aggregate.SumMoney(
		aggregate.Filter(ds.Orders, unsettled), orderTotal)
	total := inv.Add(recv)

	lines := []struct {
		name string
		v    decimal.Decimal
	}{
		{"Inventory", inv},
		{"Receivables", recv},
		{"Total Assets", total},
	}
	buckets := make([]aggregate.Bucket, len(lines))
	rows := make([][]string, len(lines))
	for i, l := range lines {
		buckets[i] = aggregate.Bucket{
			Name: l.name, Value: aggregate.Float(l.v),
		}
		rows[i] = []string{l.name, money(l.v)}
	}
	return Data{
		Buckets: buckets,
		Tables: []Table{{
			Title:   "Balance Sheet Summary",
			Columns: []string{"Line", "Amount"},
			Rows:    rows,
		}},
	}
}

func cashFlow(in Input) Data {
	orders := in.Dataset.Orders
	collected := aggregate.SumMoney(
		aggregate.Filter(orders, completed), orderTotal)
	pend := aggregate.SumMoney(aggregate.Filter(orders, unsettled), orderTotal)
	d := trendData(in,
		trend.Series{Name: "Collected",
			Baseline: aggregate.Float(collected), Kind: trend.Amount},
		trend.Series{Name: "Pending",
			Baseline: aggregate.Float(pend), Kind: trend.Amount},
	)
	d.Metrics = []Metric{
		{Label: "Collected", Value: aggregate.Float(collected),
			Unit: UnitMoney},
		{Label: "Pending", Value: aggregate.Float(pend),
			Unit: UnitMoney},
	}
	return d
}

func salesAnalysis(in Input) Data {
	orders := in.Dataset.Orders
	rev := aggregate.SumMoney(orders, orderTotal)
	ranges := aggregate.Bucketize(
		orders, aggregate.OrderValueRanges, orderTotalFloat)
	return Data{
		Buckets: aggregate.RangeCounts(ranges),
		Ranges:  ranges,
		Metrics: []Metric{
			{Label: "Total Revenue", Value: aggregate.Float(rev),
				Unit: UnitMoney},
			{Label: "Avg. Order Value", Unit: UnitMoney,
				Value: aggregate.Float(
					aggregate.MeanMoney(rev, len(orders)))},
		},
	}
}

// Inventory.

func stockLevels(in Input) Data {
	ds := in.Dataset
	low := len(aggregate.Filter(ds.Inventory, lowOrOut))
	return Data{
		Buckets: aggregate.SumBy(ds.Inventory, itemCategory, itemQuantity),
		Metrics: []Metric{
			{Label: "Total Items", Unit: UnitUnits,
				Value: aggregate.Sum(ds.Inventory, itemQuantity)},
			{Label: "Total Value", Unit: UnitMoney,
				Value: aggregate.Float(
					aggregate.SumMoney(ds.Products, stockValue))},
			{Label: "Low Stock Items", Value: float64(low)},
		},
	}
}

func inventoryCategoryDistribution(in Input) Data {
	cats := in.Dataset.Categories
	return Data{
		Buckets: aggregate.SumBy(cats, categoryName, categoryItems),
		Metrics: []Metric{
			{Label: "Total Items", Unit: UnitUnits,
				Value: aggregate.Sum(cats, categoryItems)},
		},
	}
}

func itemRows(items []catalog.InventoryItem) [][]string {
	rows := make([][]string, len(items))
	for i, it := range items {
		rows[i] = []string{
			it.ID, it.Category, itoa(it.Quantity),
			string(it.Status), it.LastUpdated,
		}
	}
	return rows
}

var itemColumns = []string{
	"Item ID", "Category", "Quantity", "Status", "Last Updated",
}

func lowStockItems(in Input) Data {
	items := in.Dataset.Inventory
	flagged := aggregate.Filter(items, lowOrOut)
	return Data{
		Buckets: aggregate.CountOf(items, stockStatusKeys(), itemStatus),
		Metrics: []Metric{
			{Label: "Needs Replenishment", Value: float64(len(flagged))},
		},
		Tables: []Table{{
			Title:   "Low and Out of Stock Items",
			Columns: itemColumns,
			Rows:    itemRows(flagged),
		}},
	}
}

func inventoryValue(in Input) Data {
	products := in.Dataset.Products
	byCat := aggregate.SumBy(products, productCategory,
		func(p catalog.Product) float64 {
			return aggregate.Float(stockValue(p))
		})
	for i := range byCat {
		byCat[i].Value = aggregate.Round2(byCat[i].Value)
	}
	return Data{
		Buckets: aggregate.SortDesc(byCat),
		Metrics: []Metric{
			{Label: "Total Value", Unit: UnitMoney,
				Value: aggregate.Float(
					aggregate.SumMoney(products, stockValue))},
			{Label: "Units in Stock", Unit: UnitUnits,
				Value: aggregate.Sum(products, productStock)},
		},
	}
}

// Customer.

func customerAcquisition(in Input) Data {
	n := len(in.Dataset.Customers)
	d := trendData(in, trend.Series{
		Name: "New Customers", Baseline: float64(n), Kind: trend.Count,
	})
	d.Metrics = []Metric{{Label: "Total Customers", Value: float64(n)}}
	return d
}

func retentionRate(in Input) Data {
	orders := in.Dataset.Orders
	rate := round1(aggregate.Percent(
		float64(len(aggregate.Filter(orders, completed))),
		float64(len(orders)),
	))
	d := trendData(in, trend.Series{
		Name: "Retention", Baseline: rate, Kind: trend.Percentage,
	})
	d.Metrics = []Metric{
		{Label: "Retention Rate", Value: rate, Unit: UnitPercent},
	}
	return d
}

func lifetimeValue(in Input) Data {
	ds := in.Dataset
	rev := aggregate.SumMoney(ds.Orders, orderTotal)
	n := len(ds.Customers)
	byState := aggregate.CountBy(ds.Customers, customerState)
	for i := range byState {
		share := aggregate.Ratio(byState[i].Value, float64(n))
		byState[i].Value = aggregate.Round2(aggregate.Float(rev) * share)
	}
	return Data{
		Buckets: aggregate.SortDesc(byState),
		Metrics: []Metric{
			{Label: "Avg. Lifetime Value", Unit: UnitMoney,
				Value: aggregate.Float(aggregate.MeanMoney(rev, n))},
			{Label: "Customers", Value: float64(n)},
			{Label: "Total Revenue", Unit: UnitMoney,
				Value: aggregate.Float(rev)},
		},
	}
}

func geographicDistribution(in Input) Data {
	customers := in.Dataset.Customers
	byState := aggregate.SortDesc(
		aggregate.CountBy(customers, customerState))
	return Data{
		Buckets: byState,
		Metrics: []Metric{
			{Label: "Customers", Value: float64(len(customers))},
			{Label: "States", Value: float64(len(byState))},
			{Label: "Top State",
				Text: aggregate.Largest(byState, "N/A")},
		},
	}
}

// Products.

func productCategoryDistribution(in Input) Data {
	products := in.Dataset.Products
	return Data{
		Buckets: aggregate.CountBy(products, productCategory),
		Metrics: []Metric{
			{Label: "Total Products", Value: float64(len(products))},
		},
	}
}

func avgPrice(products []catalog.Product) float64 {
	return aggregate.Float(aggregate.MeanMoney(
		aggregate.SumMoney(products,
			func(p catalog.Product) decimal.Decimal { return p.Price }),
		len(products),
	))
}

func priceRanges(in Input) Data {
	products := in.Dataset.Products
	ranges := aggregate.Bucketize(
		products, aggregate.PriceRanges, productPrice)
	return Data{
		Buckets: aggregate.RangeCounts(ranges),
		Ranges:  ranges,
		Metrics: []Metric{
			{Label: "Average Price", Value: avgPrice(products),
				Unit: UnitMoney},
		},
	}
}

// topStockCount is how many products the top stock views list.
const topStockCount = 5

func productRows(products []catalog.Product) [][]string {
	rows := make([][]string, len(products))
	for i, p := range products {
		rows[i] = []string{
			p.Name, p.Category, money(p.Price), itoa(p.Stock),
		}
	}
	return rows
}

var productColumns = []string{"Name", "Category", "Price", "Stock"}

func topStock(in Input) Data {
	top := aggregate.TopN(in.Dataset.Products, topStockCount, productStock)
	buckets := make([]aggregate.Bucket, len(top))
	for i, p := range top {
		buckets[i] = aggregate.Bucket{Name: p.Name, Value: float64(p.Stock)}
	}
	return Data{
		Buckets: buckets,
		Tables: []Table{{
			Title:   "Top Products by Stock",
			Columns: productColumns,
			Rows:    productRows(top),
		}},
	}
}
