package report

import (
	"errors"
	"fmt"
)

// Builder computes a report's data from its input.
type Builder func(Input) Data

// Entry is one registered report.
type Entry struct {
	Category    string
	Type        string
	Title       string
	Description string
	Kind        Kind
	// Trend marks reports whose data depends on the time range.
	Trend bool
	Build Builder
}

// CategoryInfo titles a registry category.
type CategoryInfo struct {
	Name        string
	Title       string
	Description string
}

type key struct{ category, typ string }

// Registry is the lookup table from (category, type) to report.
// Order of registration is menu order.
type Registry struct {
	categories []CategoryInfo
	entries    []Entry
	index      map[key]int
}

// NewRegistry validates and indexes entries. Every entry's category
// must be listed in categories; pairs must be unique.
func NewRegistry(
	categories []CategoryInfo, entries []Entry,
) (*Registry, error) {
	known := make(map[string]bool, len(categories))
	for _, c := range categories {
		if c.Name == "" {
			return nil, errors.New("category with empty name")
		}
		if known[c.Name] {
			return nil, fmt.Errorf("duplicate category %q", c.Name)
		}
		known[c.Name] = true
	}
	r := &Registry{
		categories: categories,
		entries:    entries,
		index:      make(map[key]int, len(entries)),
	}
	for i, e := range entries {
		k := key{e.Category, e.Type}
		switch {
		case !known[e.Category]:
			return nil, fmt.Errorf(
				"report %s/%s: unknown category", e.Category, e.Type)
		case e.Type == "":
			return nil, fmt.Errorf(
				"report in %s: empty type", e.Category)
		case e.Build == nil:
			return nil, fmt.Errorf(
				"report %s/%s: nil builder", e.Category, e.Type)
		}
		if _, dup := r.index[k]; dup {
			return nil, fmt.Errorf(
				"duplicate report %s/%s", e.Category, e.Type)
		}
		r.index[k] = i
	}
	if len(entries) == 0 {
		return nil, errors.New("registry has no reports")
	}
	return r, nil
}

// Lookup returns the entry for a pair.
func (r *Registry) Lookup(category, typ string) (Entry, bool) {
	i, ok := r.index[key{category, typ}]
	if !ok {
		return Entry{}, false
	}
	return r.entries[i], true
}

// Entries returns all reports in menu order.
func (r *Registry) Entries() []Entry {
	return append([]Entry(nil), r.entries...)
}

// First returns the pair a fresh selection starts at.
func (r *Registry) First() (category, typ string) {
	return r.entries[0].Category, r.entries[0].Type
}

// Build resolves a pair to a report. Unknown pairs produce the
// placeholder report rather than an error.
func (r *Registry) Build(category, typ string, in Input) Report {
	e, ok := r.Lookup(category, typ)
	if !ok {
		return placeholder(category, typ)
	}
	rep := Report{
		Category:    e.Category,
		Type:        e.Type,
		Title:       r.categoryTitle(e.Category) + " - " + e.Title,
		Description: e.Description,
		Kind:        e.Kind,
		Data:        e.Build(in),
	}
	if e.Trend {
		rep.TimeRange = in.timeRange()
	}
	return rep
}

func (r *Registry) categoryTitle(name string) string {
	for _, c := range r.categories {
		if c.Name == name {
			return c.Title
		}
	}
	return name
}

// MenuItem is one report in the navigation menu.
type MenuItem struct {
	Type        string `json:"type"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Kind        Kind   `json:"kind"`
	TimeRange   bool   `json:"time_range"`
}

// MenuCategory groups menu items under a category.
type MenuCategory struct {
	Name        string     `json:"name"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Reports     []MenuItem `json:"reports"`
}

// Menu lists categories and their reports in registration order.
func (r *Registry) Menu() []MenuCategory {
	menu := make([]MenuCategory, 0, len(r.categories))
	pos := make(map[string]int, len(r.categories))
	for _, c := range r.categories {
		pos[c.Name] = len(menu)
		menu = append(menu, MenuCategory{
			Name:        c.Name,
			Title:       c.Title,
			Description: c.Description,
			Reports:     []MenuItem{},
		})
	}
	for _, e := range r.entries {
		m := &menu[pos[e.Category]]
		m.Reports = append(m.Reports, MenuItem{
			Type:        e.Type,
			Title:       e.Title,
			Description: e.Description,
			Kind:        e.Kind,
			TimeRange:   e.Trend,
		})
	}
	return menu
}

// Default returns the built-in report registry.
func Default() *Registry {
	r, err := NewRegistry(defaultCategories, defaultEntries())
	if err != nil {
		panic("report: invalid default registry: " + err.Error())
	}
	return r
}

var defaultCategories = []CategoryInfo{
	{"financial", "Financial Report",
		"Financial performance metrics and analysis."},
	{"inventory", "Inventory Report",
		"Inventory status and distribution analysis."},
	{"customer", "Customer Report",
		"Customer behavior and demographics analysis."},
	{"products", "Product Report",
		"Catalog composition, pricing, and stock."},
}

func defaultEntries() []Entry {
	return []Entry{
		{"financial", "overview", "Overview",
			"Summary of revenue and order volume with a revenue trend.",
			KindBar, true, financialOverview},
		{"financial", "income-statement", "Income Statement",
			"Revenue by order status over the loaded orders.",
			KindTable, false, incomeStatement},
		{"financial", "balance-sheet", "Balance Sheet",
			"Inventory holdings and open receivables.",
			KindTable, false, balanceSheet},
		{"financial", "cash-flow", "Cash Flow",
			"Collected and pending cash over the selected period.",
			KindLine, true, cashFlow},
		{"financial", "sales-analysis", "Sales Analysis",
			"Order counts by order value range.",
			KindBar, false, salesAnalysis},

		{"inventory", "stock-levels", "Stock Levels",
			"Current inventory quantity by category.",
			KindBar, false, stockLevels},
		{"inventory", "category-distribution", "Category Distribution",
			"Distribution of items across categories.",
			KindPie, false, inventoryCategoryDistribution},
		{"inventory", "low-stock-items", "Low Stock Items",
			"Items that are running low and need replenishment.",
			KindTable, false, lowStockItems},
		{"inventory", "inventory-value", "Inventory Value",
			"Value of current product stock by category.",
			KindBar, false, inventoryValue},

		{"customer", "customer-acquisition", "Customer Acquisition",
			"New customers acquired over the selected period.",
			KindLine, true, customerAcquisition},
		{"customer", "retention-rate", "Retention Rate",
			"Share of orders completed over the selected period.",
			KindLine, true, retentionRate},
		{"customer", "lifetime-value", "Lifetime Value",
			"Revenue per customer, apportioned by state.",
			KindBar, false, lifetimeValue},
		{"customer", "geographic-distribution", "Geographic Distribution",
			"Distribution of customers across states.",
			KindPie, false, geographicDistribution},

		{"products", "category-distribution", "Category Distribution",
			"Number of products in each category.",
			KindPie, false, productCategoryDistribution},
		{"products", "price-ranges", "Price Ranges",
			"Number of products in each price range.",
			KindBar, false, priceRanges},
		{"products", "top-stock", "Top Stock",
			"The five products with the most units in stock.",
			KindBar, false, topStock},
	}
}
