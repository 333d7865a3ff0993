// Package dashboard assembles the buyer and seller dashboard views.
package dashboard

import (
	"context"

	"github.com/ariefcatur/sellmate/internal/catalog"
	"github.com/ariefcatur/sellmate/internal/orders"
)

// Card is a quick-action tile. Action names an API operation, Link a route.
type Card struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	Action      string `json:"action,omitempty"`
	Link        string `json:"link,omitempty"`
}

var BuyerCards = []Card{
	{Title: "Add Product", Description: "List a new product for sale", Icon: "package", Action: "addProduct"},
	{Title: "Messages", Description: "Chat with middlemen and sellers", Icon: "message-circle", Link: "/dashboard/buyer/chat"},
	{Title: "Payment Methods", Description: "Manage your payment information", Icon: "credit-card", Link: "/dashboard/buyer/payment-methods"},
}

var SellerCards = []Card{
	{Title: "Products", Description: "Manage your product listings", Icon: "store", Link: "/dashboard/seller/products"},
	{Title: "Sales Analytics", Description: "View your sales performance", Icon: "bar-chart", Link: "/dashboard/seller/analytics"},
	{Title: "Payments", Description: "View and manage your payments", Icon: "credit-card", Link: "/dashboard/seller/payments"},
	{Title: "Messages", Description: "Chat with middlemen and buyers", Icon: "message-circle", Link: "/dashboard/seller/chat"},
}

type BuyerView struct {
	Cards     []Card         `json:"cards"`
	All       []orders.Order `json:"all"`
	Pending   []orders.Order `json:"pending"`
	Delivered []orders.Order `json:"delivered"`
}

type SellerView struct {
	Cards  []Card           `json:"cards"`
	Active []orders.Product `json:"active"`
	Sold   []orders.Product `json:"sold"`
}

// Buyer splits the shared order list into the buyer tabs.
func Buyer(ctx context.Context, store orders.Store) (BuyerView, error) {
	list, err := store.ListOrders(ctx)
	if err != nil {
		return BuyerView{}, err
	}
	if list == nil {
		list = []orders.Order{}
	}
	return BuyerView{
		Cards:     BuyerCards,
		All:       list,
		Pending:   orders.FilterOrders(list, orders.StatusPending),
		Delivered: orders.FilterOrders(list, orders.StatusDelivered),
	}, nil
}

func Seller(c *catalog.Catalog) SellerView {
	return SellerView{
		Cards:  SellerCards,
		Active: c.ByStatus(orders.StatusActive),
		Sold:   c.ByStatus(orders.StatusSold),
	}
}
