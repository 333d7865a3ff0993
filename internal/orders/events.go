package orders

import (
	"encoding/json"
	"time"
)

const (
	EventProductListed        = "ProductListed"
	EventOrderCreated         = "OrderCreated"
	EventApplicationSubmitted = "ApplicationSubmitted"
)

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

// ---- payloads ----

type ProductListedPayload struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Category  string `json:"category,omitempty"`
	Price     string `json:"price"`
}

type OrderCreatedPayload struct {
	OrderID     string `json:"order_id"`
	OrderNumber string `json:"order_number"`
	Date        string `json:"date"`
	Status      Status `json:"status"`
	Total       string `json:"total"`
	Items       int    `json:"items"`
	ProductName string `json:"product_name,omitempty"`
}

type ApplicationSubmittedPayload struct {
	ApplicationID string `json:"application_id"`
	Expertise     string `json:"expertise"`
}
