package dashboard

import (
	"math"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/shopspring/decimal"

	"github.com/ariefcatur/sellmate/internal/orders"
)

const generatedOrders = 15

var (
	feedOrderNumbers = []string{
		"ORDER-12350", "ORDER-12351", "ORDER-12352", "ORDER-12353", "ORDER-12354",
		"ORDER-12355", "ORDER-12356", "ORDER-12357", "ORDER-12358", "ORDER-12359",
	}
	feedCustomers = []string{
		"Alice Lee", "Brian Kim", "Cathy Chen", "David Park", "Ella Cruz",
		"Frank Yu", "Grace Lim", "Henry Tan", "Ivy Ong", "Jackie Wu",
	}
	feedStatuses = []string{string(orders.StatusActive), string(orders.StatusSold)}
)

func sellerSeedOrders() []orders.Order {
	o := func(id, number, customer, date string, status orders.Status, total string) orders.Order {
		return orders.Order{
			ID:           id,
			OrderNumber:  number,
			CustomerName: customer,
			Date:         date,
			Status:       status,
			Total:        decimal.RequireFromString(total),
		}
	}
	return []orders.Order{
		o("1", "ORDER-12348", "Emma Wilson", "2023-09-05", orders.StatusSold, "49.99"),
		o("2", "ORDER-12349", "Robert Davis", "2023-11-15", orders.StatusActive, "129.99"),
		o("3", "ORDER-12345", "John Smith", "2023-10-15", orders.StatusActive, "149.99"),
		o("4", "ORDER-12346", "Sarah Johnson", "2023-11-02", orders.StatusSold, "79.99"),
		o("5", "ORDER-12347", "Michael Brown", "2023-11-20", orders.StatusActive, "299.99"),
	}
}

// RecentOrders builds a seller's recent-orders feed: the five fixed orders
// followed by fifteen generated ones. The same non-zero seed gives the same
// feed; zero picks a random seed.
func RecentOrders(seed uint64) []orders.Order {
	f := gofakeit.New(seed)
	start := time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2023, time.December, 31, 0, 0, 0, 0, time.UTC)

	list := sellerSeedOrders()
	for range generatedOrders {
		total := math.Round(f.Float64Range(20, 520)*100) / 100
		list = append(list, orders.Order{
			ID:           strings.ToLower(f.LetterN(9)),
			OrderNumber:  f.RandomString(feedOrderNumbers),
			CustomerName: f.RandomString(feedCustomers),
			Date:         orders.Today(f.DateRange(start, end)),
			Status:       orders.Status(f.RandomString(feedStatuses)),
			Total:        decimal.NewFromFloat(total).Round(2),
		})
	}
	return list
}
