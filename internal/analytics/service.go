package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/gosimple/slug"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	kafkax "github.com/ariefcatur/sellmate/internal/kafka"
	"github.com/ariefcatur/sellmate/internal/orders"
	"github.com/ariefcatur/sellmate/internal/redisx"
)

const (
	FieldProductsListed = "products_listed"
	FieldOrdersCreated  = "orders_created"
	FieldOrderValue     = "order_value"
	FieldApplications   = "applications_submitted"
	fieldExpertise      = "expertise:"
)

// Service folds marketplace events into daily counters.
type Service struct {
	Counters    redisx.Counters
	Dedup       redisx.Dedup
	ServiceName string
	Log         *zap.Logger
}

// HandleMessage is installed as the consumer handler.
func (s *Service) HandleMessage(ctx context.Context, m kafkago.Message) error {
	var env orders.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		// poison message, commit and move on
		s.Log.Warn("drop undecodable event", zap.String("topic", m.Topic), zap.Int64("offset", m.Offset), zap.Error(err))
		return nil
	}
	return s.Apply(ctx, env)
}

// Emit lets the API process count events itself when Kafka is off.
func (s *Service) Emit(ctx context.Context, _ string, env orders.Envelope) error {
	return s.Apply(ctx, env)
}

func (s *Service) Apply(ctx context.Context, env orders.Envelope) error {
	first, err := s.Dedup.First(ctx, s.ServiceName, env.EventID)
	if err != nil {
		return fmt.Errorf("dedup %s: %w", env.EventID, err)
	}
	if !first {
		return nil
	}
	if err := s.count(ctx, env); err != nil {
		if rerr := s.Dedup.Release(ctx, s.ServiceName, env.EventID); rerr != nil {
			s.Log.Warn("release dedup key", zap.String("event_id", env.EventID), zap.Error(rerr))
		}
		return err
	}
	return nil
}

// count turns env into one batch of counter deltas so an event is either
// fully counted or not at all.
func (s *Service) count(ctx context.Context, env orders.Envelope) error {
	deltas, err := deltasFor(env)
	if err != nil {
		return err
	}
	return s.Counters.AddMany(ctx, orders.Today(env.OccurredAt.UTC()), deltas)
}

func deltasFor(env orders.Envelope) (map[string]decimal.Decimal, error) {
	one := decimal.NewFromInt(1)
	switch env.EventType {
	case orders.EventProductListed:
		return map[string]decimal.Decimal{FieldProductsListed: one}, nil

	case orders.EventOrderCreated:
		p, err := kafkax.UnwrapPayload[orders.OrderCreatedPayload](env.Payload)
		if err != nil {
			return nil, err
		}
		total, err := decimal.NewFromString(p.Total)
		if err != nil {
			return nil, fmt.Errorf("order %s total: %w", p.OrderID, err)
		}
		return map[string]decimal.Decimal{FieldOrdersCreated: one, FieldOrderValue: total}, nil

	case orders.EventApplicationSubmitted:
		p, err := kafkax.UnwrapPayload[orders.ApplicationSubmittedPayload](env.Payload)
		if err != nil {
			return nil, err
		}
		deltas := map[string]decimal.Decimal{FieldApplications: one}
		if tag := slug.Make(p.Expertise); tag != "" {
			deltas[fieldExpertise+tag] = one
		}
		return deltas, nil
	}
	return nil, nil
}

type DayReport struct {
	Date           string           `json:"date"`
	ProductsListed int64            `json:"productsListed"`
	OrdersCreated  int64            `json:"ordersCreated"`
	OrderValue     decimal.Decimal  `json:"orderValue"`
	Applications   int64            `json:"applications"`
	Expertise      map[string]int64 `json:"expertise,omitempty"`
}

type Report struct {
	Days           []DayReport     `json:"days"`
	ProductsListed int64           `json:"productsListed"`
	OrdersCreated  int64           `json:"ordersCreated"`
	OrderValue     decimal.Decimal `json:"orderValue"`
	Applications   int64           `json:"applications"`
}

// Report reads the counters of the last days ending at now, oldest first.
func (s *Service) Report(ctx context.Context, now time.Time, days int) (Report, error) {
	if days <= 0 {
		days = 7
	}
	r := Report{Days: make([]DayReport, 0, days), OrderValue: decimal.Zero}
	for i := days - 1; i >= 0; i-- {
		date := orders.Today(now.UTC().AddDate(0, 0, -i))
		raw, err := s.Counters.Day(ctx, date)
		if err != nil {
			return Report{}, fmt.Errorf("read counters %s: %w", date, err)
		}
		d := parseDay(date, raw)
		r.Days = append(r.Days, d)
		r.ProductsListed += d.ProductsListed
		r.OrdersCreated += d.OrdersCreated
		r.OrderValue = r.OrderValue.Add(d.OrderValue)
		r.Applications += d.Applications
	}
	return r, nil
}

func parseDay(date string, raw map[string]string) DayReport {
	d := DayReport{Date: date, OrderValue: decimal.Zero}
	num := func(s string) int64 {
		v, err := decimal.NewFromString(s)
		if err != nil {
			return 0
		}
		return v.IntPart()
	}
	for k, v := range raw {
		switch k {
		case FieldProductsListed:
			d.ProductsListed = num(v)
		case FieldOrdersCreated:
			d.OrdersCreated = num(v)
		case FieldApplications:
			d.Applications = num(v)
		case FieldOrderValue:
			if amt, err := decimal.NewFromString(v); err == nil {
				d.OrderValue = amt.Round(2)
			}
		default:
			if tag, ok := strings.CutPrefix(k, fieldExpertise); ok {
				if d.Expertise == nil {
					d.Expertise = map[string]int64{}
				}
				d.Expertise[tag] = num(v)
			}
		}
	}
	return d
}

