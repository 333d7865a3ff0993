package orders

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Repo is the Postgres-backed Store. Rows come back in insertion order via
// the seq column.
type Repo struct{ DB *pgxpool.Pool }

func (r *Repo) ListProducts(ctx context.Context) ([]Product, error) {
	rows, err := r.DB.Query(ctx, `SELECT id, name, description, price::text, category, status
	                              FROM products ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	out := []Product{}
	for rows.Next() {
		var (
			p     Product
			price string
		)
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &price, &p.Category, &p.Status); err != nil {
			return nil, err
		}
		if p.Price, err = decimal.NewFromString(price); err != nil {
			return nil, fmt.Errorf("product %s price: %w", p.ID, err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *Repo) AddProduct(ctx context.Context, p Product) error {
	_, err := r.DB.Exec(ctx, `
		INSERT INTO products(id, name, description, price, category, status)
		VALUES ($1, $2, $3, $4::numeric, $5, $6)`,
		p.ID, p.Name, p.Description, p.Price.String(), p.Category, string(p.Status),
	)
	if err != nil {
		return fmt.Errorf("insert product %s: %w", p.ID, err)
	}
	return nil
}

func (r *Repo) ListOrders(ctx context.Context) ([]Order, error) {
	rows, err := r.DB.Query(ctx, `SELECT id, order_number, day, status, total::text, items, product_name, customer_name
	                              FROM orders ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	out := []Order{}
	for rows.Next() {
		var (
			o     Order
			total string
		)
		if err := rows.Scan(&o.ID, &o.OrderNumber, &o.Date, &o.Status, &total, &o.Items, &o.ProductName, &o.CustomerName); err != nil {
			return nil, err
		}
		if o.Total, err = decimal.NewFromString(total); err != nil {
			return nil, fmt.Errorf("order %s total: %w", o.ID, err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (r *Repo) AddOrder(ctx context.Context, o Order) error {
	_, err := r.DB.Exec(ctx, `
		INSERT INTO orders(id, order_number, day, status, total, items, product_name, customer_name)
		VALUES ($1, $2, $3, $4, $5::numeric, $6, $7, $8)`,
		o.ID, o.OrderNumber, o.Date, string(o.Status), o.Total.String(), o.Items, o.ProductName, o.CustomerName,
	)
	if err != nil {
		return fmt.Errorf("insert order %s: %w", o.ID, err)
	}
	return nil
}

// SeedIfEmpty inserts orders only when the orders table has no rows.
func (r *Repo) SeedIfEmpty(ctx context.Context, orders []Order) error {
	var n int
	if err := r.DB.QueryRow(ctx, `SELECT COUNT(*) FROM orders`).Scan(&n); err != nil {
		return fmt.Errorf("count orders: %w", err)
	}
	if n > 0 {
		return nil
	}
	for _, o := range orders {
		if err := r.AddOrder(ctx, o); err != nil {
			return err
		}
	}
	return nil
}
