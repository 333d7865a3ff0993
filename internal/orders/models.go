package orders

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DateLayout is the calendar-day format used for Order.Date.
const DateLayout = "2006-01-02"

type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category,omitempty"`
	Status      Status          `json:"status"`
}

type Order struct {
	ID           string          `json:"id"`
	OrderNumber  string          `json:"orderNumber"`
	Date         string          `json:"date"`
	Status       Status          `json:"status"`
	Total        decimal.Decimal `json:"total"`
	Items        int             `json:"items"`
	ProductName  string          `json:"productName,omitempty"`
	CustomerName string          `json:"customerName,omitempty"`
}

// NewID returns a time-ordered id, so ids sort in creation order.
func NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// NewOrderNumber returns a display label ORDER-NNNNN. Labels are not unique.
func NewOrderNumber() string {
	return fmt.Sprintf("ORDER-%d", 10000+rand.IntN(90000))
}

// Today formats t as an Order.Date value.
func Today(t time.Time) string {
	return t.Format(DateLayout)
}
