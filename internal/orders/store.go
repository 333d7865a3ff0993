package orders

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/shopspring/decimal"
)

var ErrOrderNotFound = errors.New("order not found")

// Store is the shared entity store every dashboard reads from. Adds append
// without dedup or validation; orders can never be updated or removed.
type Store interface {
	ListProducts(ctx context.Context) ([]Product, error)
	AddProduct(ctx context.Context, p Product) error
	ListOrders(ctx context.Context) ([]Order, error)
	AddOrder(ctx context.Context, o Order) error
}

// MemoryStore keeps everything in process memory. Its operations never fail.
type MemoryStore struct {
	mu       sync.RWMutex
	products []Product
	orders   []Order
}

func NewMemoryStore(products []Product, orders []Order) *MemoryStore {
	return &MemoryStore{
		products: slices.Clone(products),
		orders:   slices.Clone(orders),
	}
}

func (s *MemoryStore) ListProducts(context.Context) ([]Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append(make([]Product, 0, len(s.products)), s.products...), nil
}

func (s *MemoryStore) AddProduct(_ context.Context, p Product) error {
	s.mu.Lock()
	s.products = append(s.products, p)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) ListOrders(context.Context) ([]Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append(make([]Order, 0, len(s.orders)), s.orders...), nil
}

func (s *MemoryStore) AddOrder(_ context.Context, o Order) error {
	s.mu.Lock()
	s.orders = append(s.orders, o)
	s.mu.Unlock()
	return nil
}

// FindOrder scans the store for an order id.
func FindOrder(ctx context.Context, s Store, id string) (Order, error) {
	list, err := s.ListOrders(ctx)
	if err != nil {
		return Order{}, err
	}
	for _, o := range list {
		if o.ID == id {
			return o, nil
		}
	}
	return Order{}, ErrOrderNotFound
}

// BuyerSeedOrders is the order history every fresh buyer dashboard starts with.
func BuyerSeedOrders() []Order {
	return []Order{
		{ID: "1", OrderNumber: "ORDER-12345", Date: "2023-10-15", Status: StatusDelivered, Total: decimal.RequireFromString("8399.44"), Items: 2},
		{ID: "2", OrderNumber: "ORDER-12346", Date: "2023-11-02", Status: StatusPending, Total: decimal.RequireFromString("4479.44"), Items: 1},
		{ID: "3", OrderNumber: "ORDER-12347", Date: "2023-11-20", Status: StatusPending, Total: decimal.RequireFromString("16799.44"), Items: 3},
	}
}
