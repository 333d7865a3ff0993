// Package catalog holds a seller's own product list. Each session owns one
// Catalog; changes are not visible to other sessions or dashboards.
package catalog

import (
	"errors"
	"slices"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/ariefcatur/sellmate/internal/orders"
)

var (
	ErrProductNotFound = errors.New("catalog: product not found")
	ErrInvalidStatus   = errors.New("catalog: status must be active or sold")
	ErrInvalidPrice    = errors.New("catalog: price must not be negative")
)

type Catalog struct {
	mu       sync.RWMutex
	products []orders.Product
}

func New(seed []orders.Product) *Catalog {
	return &Catalog{products: slices.Clone(seed)}
}

// Seed is the listing every new seller session starts with.
func Seed() []orders.Product {
	return []orders.Product{
		{ID: "1", Name: "Premium Headphones", Price: decimal.RequireFromString("299.99"), Category: "Electronics", Status: orders.StatusActive},
		{ID: "2", Name: "Smartphone XL", Price: decimal.RequireFromString("899.99"), Category: "Electronics", Status: orders.StatusActive},
		{ID: "3", Name: "Designer T-shirt", Price: decimal.RequireFromString("49.99"), Category: "Clothing", Status: orders.StatusSold},
		{ID: "4", Name: "Running Shoes", Price: decimal.RequireFromString("129.99"), Category: "Clothing", Status: orders.StatusSold},
	}
}

func (c *Catalog) List() []orders.Product {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append(make([]orders.Product, 0, len(c.products)), c.products...)
}

// ByStatus is the tab view for one status.
func (c *Catalog) ByStatus(status orders.Status) []orders.Product {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return orders.FilterProducts(c.products, status)
}

func (c *Catalog) Get(id string) (orders.Product, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if i := c.index(id); i >= 0 {
		return c.products[i], nil
	}
	return orders.Product{}, ErrProductNotFound
}

// Edit rewrites price and status in place. No other field changes.
func (c *Catalog) Edit(id string, price decimal.Decimal, status orders.Status) (orders.Product, error) {
	if !status.IsSeller() {
		return orders.Product{}, ErrInvalidStatus
	}
	if price.IsNegative() {
		return orders.Product{}, ErrInvalidPrice
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.index(id)
	if i < 0 {
		return orders.Product{}, ErrProductNotFound
	}
	c.products[i].Price = price
	c.products[i].Status = status
	return c.products[i], nil
}

// Delete removes the product; the rest keep their relative order.
func (c *Catalog) Delete(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.index(id)
	if i < 0 {
		return ErrProductNotFound
	}
	c.products = slices.Delete(c.products, i, i+1)
	return nil
}

func (c *Catalog) index(id string) int {
	return slices.IndexFunc(c.products, func(p orders.Product) bool { return p.ID == id })
}
