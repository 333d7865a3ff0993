package forms

import (
	"context"
	"strings"
	"time"

	"github.com/ariefcatur/sellmate/internal/orders"
)

type ProductInput struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
	Price       string `json:"price" validate:"required"`
}

// Listing is what one Add Product submission creates.
type Listing struct {
	Product orders.Product `json:"product"`
	Order   orders.Order   `json:"order"`
}

// ProductLister handles the buyer "Add Product" form. Every accepted
// submission adds one active product and one pending order for it.
type ProductLister struct {
	Store       orders.Store
	Delay       time.Duration
	Now         func() time.Time
	OrderNumber func() string
}

func NewProductLister(store orders.Store) *ProductLister {
	return &ProductLister{Store: store, Now: time.Now, OrderNumber: orders.NewOrderNumber}
}

func (l *ProductLister) Submit(ctx context.Context, in ProductInput) (Listing, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Price = strings.TrimSpace(in.Price)

	var listing Listing
	check := func() error {
		if err := Check(in, &MissingInformation); err != nil {
			return err
		}
		price, err := ParsePrice(in.Price)
		if err != nil {
			return &ValidationError{Fields: []string{"price"}, Toast: &InvalidPrice}
		}
		listing = Listing{
			Product: orders.Product{
				ID:          orders.NewID(),
				Name:        in.Name,
				Description: in.Description,
				Price:       price,
				Status:      orders.StatusActive,
			},
			Order: orders.Order{
				ID:          orders.NewID(),
				OrderNumber: l.OrderNumber(),
				Date:        orders.Today(l.Now()),
				Status:      orders.StatusPending,
				Total:       price,
				Items:       1,
				ProductName: in.Name,
			},
		}
		return nil
	}
	commit := func(ctx context.Context) error {
		if err := l.Store.AddProduct(ctx, listing.Product); err != nil {
			return err
		}
		return l.Store.AddOrder(ctx, listing.Order)
	}

	if err := NewSubmission(l.Delay).Submit(ctx, check, commit); err != nil {
		return Listing{}, err
	}
	return listing, nil
}
