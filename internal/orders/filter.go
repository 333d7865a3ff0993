package orders

// FilterOrders returns the orders whose status equals status, in their
// original relative order. The result is never nil.
func FilterOrders(list []Order, status Status) []Order {
	return filter(list, func(o Order) bool { return o.Status == status })
}

// FilterProducts is FilterOrders for products.
func FilterProducts(list []Product, status Status) []Product {
	return filter(list, func(p Product) bool { return p.Status == status })
}

func filter[T any](list []T, keep func(T) bool) []T {
	out := make([]T, 0, len(list))
	for _, v := range list {
		if keep(v) {
			out = append(out, v)
		}
	}
	return out
}
