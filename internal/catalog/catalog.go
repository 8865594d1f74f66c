// Package catalog defines the entity records the reporting engine
// reads: products, inventory, categories, suppliers, orders,
// warehouses, customers, and employees.
package catalog

import (
	"github.com/shopspring/decimal"
)

// StockStatus is the stock state of an inventory line.
type StockStatus string

const (
	StatusInStock    StockStatus = "In Stock"
	StatusLowStock   StockStatus = "Low Stock"
	StatusOutOfStock StockStatus = "Out of Stock"
)

// StockStatuses lists the known statuses in display order.
var StockStatuses = []StockStatus{
	StatusInStock, StatusLowStock, StatusOutOfStock,
}

// Known reports whether s is one of the declared statuses.
func (s StockStatus) Known() bool {
	switch s {
	case StatusInStock, StatusLowStock, StatusOutOfStock:
		return true
	}
	return false
}

// OrderStatus is the fulfilment state of an order.
type OrderStatus string

const (
	OrderCompleted  OrderStatus = "Completed"
	OrderProcessing OrderStatus = "Processing"
	OrderPending    OrderStatus = "Pending"
)

// OrderStatuses lists the known statuses in display order.
var OrderStatuses = []OrderStatus{
	OrderCompleted, OrderProcessing, OrderPending,
}

// Known reports whether s is one of the declared statuses.
func (s OrderStatus) Known() bool {
	switch s {
	case OrderCompleted, OrderProcessing, OrderPending:
		return true
	}
	return false
}

// Product is a sellable catalog item.
type Product struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Category string          `json:"category"`
	Price    decimal.Decimal `json:"price"`
	Stock    int             `json:"stock"`
}

// InventoryItem is a stock line for one category.
type InventoryItem struct {
	ID          string      `json:"id"`
	Category    string      `json:"category"`
	Quantity    int         `json:"quantity"`
	Status      StockStatus `json:"status"`
	LastUpdated string      `json:"last_updated"`
}

// Category is a product grouping with its item count.
type Category struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Items       int    `json:"items"`
	CreatedOn   string `json:"created_on"`
}

// SupplierLocation is where a supplier operates from.
type SupplierLocation struct {
	City    string `json:"city"`
	State   string `json:"state"`
	Zip     string `json:"zip"`
	Country string `json:"country"`
}

// Supplier provides stock and carries open orders.
type Supplier struct {
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	Location     SupplierLocation `json:"location"`
	ActiveOrders int              `json:"active_orders"`
}

// Order is a customer order.
type Order struct {
	ID     string          `json:"id"`
	Date   string          `json:"date"`
	Status OrderStatus     `json:"status"`
	Total  decimal.Decimal `json:"total"`
}

// WarehouseLocation is the street address of a warehouse.
type WarehouseLocation struct {
	City    string `json:"city"`
	State   string `json:"state"`
	Address string `json:"address"`
	Zip     string `json:"zip"`
}

// Capacity is warehouse space in units. Used never exceeds Total
// after Normalize.
type Capacity struct {
	Used  int `json:"used"`
	Total int `json:"total"`
}

// Available returns the unused capacity.
func (c Capacity) Available() int {
	return c.Total - c.Used
}

// Warehouse is a storage site.
type Warehouse struct {
	ID       string            `json:"id"`
	Location WarehouseLocation `json:"location"`
	Manager  string            `json:"manager"`
	Phone    string            `json:"phone"`
	Capacity Capacity          `json:"capacity"`
}

// Customer is a buyer with a postal location.
type Customer struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	City    string `json:"city"`
	State   string `json:"state"`
	Zipcode string `json:"zipcode"`
}

// Employee is a staff member. Employees are listed but not
// aggregated by any report.
type Employee struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	DateOfBirth string `json:"date_of_birth"`
	Age         int    `json:"age"`
}

// Dataset is the full set of collections a report can draw from.
type Dataset struct {
	Version    string          `json:"version"`
	Products   []Product       `json:"products"`
	Inventory  []InventoryItem `json:"inventory"`
	Categories []Category      `json:"categories"`
	Suppliers  []Supplier      `json:"suppliers"`
	Orders     []Order         `json:"orders"`
	Warehouses []Warehouse     `json:"warehouses"`
	Customers  []Customer      `json:"customers"`
	Employees  []Employee      `json:"employees"`
}

// Counts holds the number of records per collection.
type Counts struct {
	Products   int `json:"products"`
	Inventory  int `json:"inventory"`
	Categories int `json:"categories"`
	Suppliers  int `json:"suppliers"`
	Orders     int `json:"orders"`
	Warehouses int `json:"warehouses"`
	Customers  int `json:"customers"`
	Employees  int `json:"employees"`
}

// Counts returns the record count of every collection.
func (d Dataset) Counts() Counts {
	return Counts{
		Products:   len(d.Products),
		Inventory:  len(d.Inventory),
		Categories: len(d.Categories),
		Suppliers:  len(d.Suppliers),
		Orders:     len(d.Orders),
		Warehouses: len(d.Warehouses),
		Customers:  len(d.Customers),
		Employees:  len(d.Employees),
	}
}

// Total returns the number of records across all collections.
func (c Counts) Total() int {
	return c.Products + c.Inventory + c.Categories + c.Suppliers +
		c.Orders + c.Warehouses + c.Customers + c.Employees
}
