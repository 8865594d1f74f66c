// Command testfixture writes a deterministic inventory dataset for
// end-to-end and load testing, and optionally a SQLite store
// holding it.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wesm/inventoryview/internal/catalog"
	"github.com/wesm/inventoryview/internal/db"
)

type datasetSize struct {
	name       string
	products   int
	orders     int
	customers  int
	warehouses int
}

var scales = map[string]datasetSize{
	"small":  {"small", 20, 15, 20, 5},
	"medium": {"medium", 500, 2000, 800, 25},
	"large":  {"large", 10000, 50000, 20000, 200},
}

var (
	categories = []string{
		"Electronics", "Clothing", "Books", "Home & Garden",
		"Sports", "Toys", "Beauty", "Food", "Automotive", "Office",
	}
	states = []string{
		"California", "Texas", "New York", "Florida", "Illinois",
		"Washington", "Oregon", "Colorado", "Georgia", "Ohio",
	}
	cities = []string{
		"Los Angeles", "Austin", "New York", "Miami", "Chicago",
		"Seattle", "Portland", "Denver", "Atlanta", "Columbus",
	}
)

func main() {
	out := flag.String("out", "", "output dataset path (JSON)")
	dbPath := flag.String("db", "", "also write a SQLite store here")
	scale := flag.String("scale", "small", "small, medium, or large")
	seed := flag.Int64("seed", 1, "random seed")
	flag.Parse()
	if *out == "" {
		fmt.Fprintln(os.Stderr,
			"usage: testfixture -out <path> [-db <path>] [-scale small|medium|large]")
		os.Exit(1)
	}
	size, ok := scales[*scale]
	if !ok {
		log.Fatalf("unknown scale %q", *scale)
	}

	base := time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)
	ds := generate(size, rand.New(rand.NewSource(*seed)), base)

	data, err := json.MarshalIndent(ds, "", "  ")
	if err != nil {
		log.Fatalf("encoding dataset: %v", err)
	}
	if err := os.WriteFile(*out, data, 0o644); err != nil {
		log.Fatalf("writing dataset: %v", err)
	}
	c := ds.Counts()
	fmt.Printf(
		"  %d products, %d orders, %d customers, %d warehouses\n",
		c.Products, c.Orders, c.Customers, c.Warehouses,
	)
	fmt.Printf("Fixture dataset written to %s\n", *out)

	if *dbPath != "" {
		if err := writeStore(*dbPath, ds); err != nil {
			log.Fatalf("writing store: %v", err)
		}
		fmt.Printf("Fixture DB written to %s\n", *dbPath)
	}
}

func writeStore(path string, ds catalog.Dataset) error {
	if err := os.Remove(path); err != nil &&
		!errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing existing db: %w", err)
	}
	database, err := db.Open(path)
	if err != nil {
		return err
	}
	defer database.Close()
	return database.Replace(context.Background(), ds, "testfixture")
}

func cents(rng *rand.Rand, lo, hi int) decimal.Decimal {
	return decimal.New(int64(lo*100+rng.Intn((hi-lo)*100)), -2)
}

func generate(
	size datasetSize, rng *rand.Rand, base time.Time,
) catalog.Dataset {
	ds := catalog.Dataset{Version: "v1.0.0"}

	for i := range size.products {
		ds.Products = append(ds.Products, catalog.Product{
			ID:       fmt.Sprintf("P%05d", i+1),
			Name:     fmt.Sprintf("Product %d", i+1),
			Category: categories[rng.Intn(len(categories))],
			Price:    cents(rng, 5, 1500),
			Stock:    rng.Intn(300),
		})
	}

	for i, name := range categories {
		qty := rng.Intn(500)
		status := catalog.StatusInStock
		switch {
		case qty == 0:
			status = catalog.StatusOutOfStock
		case qty < 50:
			status = catalog.StatusLowStock
		}
		day := base.AddDate(0, 0, -i).Format("2006-01-02")
		ds.Inventory = append(ds.Inventory, catalog.InventoryItem{
			ID:          fmt.Sprintf("I%03d", i+1),
			Category:    name,
			Quantity:    qty,
			Status:      status,
			LastUpdated: day,
		})
		ds.Categories = append(ds.Categories, catalog.Category{
			ID:          fmt.Sprintf("C%03d", i+1),
			Name:        name,
			Description: name + " products",
			Items:       rng.Intn(1000),
			CreatedOn:   base.AddDate(-1, 0, -i).Format("2006-01-02"),
		})
		ds.Suppliers = append(ds.Suppliers, catalog.Supplier{
			ID:   fmt.Sprintf("S%03d", i+1),
			Name: fmt.Sprintf("%s Supply Co.", name),
			Location: catalog.SupplierLocation{
				City: cities[i], State: states[i],
				Zip: fmt.Sprintf("%05d", 10000+i*977), Country: "USA",
			},
			ActiveOrders: rng.Intn(40),
		})
	}

	for i := range size.orders {
		ds.Orders = append(ds.Orders, catalog.Order{
			ID:     fmt.Sprintf("O%06d", i+1),
			Date:   base.Add(-time.Duration(i) * time.Hour).Format("2006-01-02"),
			Status: catalog.OrderStatuses[rng.Intn(len(catalog.OrderStatuses))],
			Total:  cents(rng, 10, 2500),
		})
	}

	for i := range size.warehouses {
		k := i % len(states)
		total := 5000 + rng.Intn(20000)
		ds.Warehouses = append(ds.Warehouses, catalog.Warehouse{
			ID: fmt.Sprintf("W%03d", i+1),
			Location: catalog.WarehouseLocation{
				City: cities[k], State: states[k],
				Address: fmt.Sprintf("%d Industrial Way", 100+i),
				Zip:     fmt.Sprintf("%05d", 20000+i*131),
			},
			Manager:  fmt.Sprintf("Manager %d", i+1),
			Phone:    fmt.Sprintf("(555) 01%02d-%04d", i%100, rng.Intn(10000)),
			Capacity: catalog.Capacity{Used: rng.Intn(total + 1), Total: total},
		})
	}

	for i := range size.customers {
		k := rng.Intn(len(states))
		ds.Customers = append(ds.Customers, catalog.Customer{
			ID:      fmt.Sprintf("U%06d", i+1),
			Name:    fmt.Sprintf("Customer %d", i+1),
			City:    cities[k],
			State:   states[k],
			Zipcode: fmt.Sprintf("%05d", 30000+rng.Intn(60000)),
		})
	}

	for i := range 20 {
		age := 22 + rng.Intn(40)
		ds.Employees = append(ds.Employees, catalog.Employee{
			ID:          fmt.Sprintf("E%03d", i+1),
			Name:        fmt.Sprintf("Employee %d", i+1),
			DateOfBirth: base.AddDate(-age, 0, -i).Format("2006-01-02"),
			Age:         age,
		})
	}
	return ds
}
