package analytics

import (
	"context"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	kafkax "github.com/ariefcatur/sellmate/internal/kafka"
	"github.com/ariefcatur/sellmate/internal/orders"
)

// Emitter delivers an envelope to whatever turns it into counters.
type Emitter interface {
	Emit(ctx context.Context, topic string, env orders.Envelope) error
}

type Publisher interface {
	Publish(topic string, key, value []byte, headers ...kafkago.Header)
}

// KafkaEmitter publishes envelopes for the analytics consumer.
type KafkaEmitter struct {
	Producer Publisher
}

func (e KafkaEmitter) Emit(_ context.Context, topic string, env orders.Envelope) error {
	e.Producer.Publish(topic, orders.PartitionKey(env.CorrelationID), kafkax.MustMarshal(env),
		kafkax.EventHeaders(env.EventType, env.EventVersion)...)
	return nil
}

type Subscriber interface {
	Subscribe() (<-chan orders.Change, func())
}

// Tracker turns shared-store changes and application submissions into
// events.
type Tracker struct {
	Emitter Emitter
	Metrics *Metrics
	Service string
	Log     *zap.Logger
	Now     func() time.Time
}

func NewTracker(em Emitter, m *Metrics, service string, log *zap.Logger) *Tracker {
	return &Tracker{Emitter: em, Metrics: m, Service: service, Log: log, Now: time.Now}
}

// Attach subscribes to feed right away and returns the loop that turns its
// changes into events until ctx is done. Changes made after Attach returns
// are never missed.
func (t *Tracker) Attach(feed Subscriber) func(ctx context.Context) {
	changes, cancel := feed.Subscribe()
	return func(ctx context.Context) {
		defer cancel()
		for {
			select {
			case <-ctx.Done():
				return
			case c, ok := <-changes:
				if !ok {
					return
				}
				t.Observe(ctx, c)
			}
		}
	}
}

func (t *Tracker) Observe(ctx context.Context, c orders.Change) {
	switch c.Kind {
	case orders.ProductAdded:
		p := c.Product
		t.emit(ctx, orders.TopicProductListed, orders.EventProductListed, p.ID, orders.ProductListedPayload{
			ProductID: p.ID,
			Name:      p.Name,
			Category:  p.Category,
			Price:     p.Price.StringFixed(2),
		})
	case orders.OrderAdded:
		o := c.Order
		t.emit(ctx, orders.TopicOrderCreated, orders.EventOrderCreated, o.ID, orders.OrderCreatedPayload{
			OrderID:     o.ID,
			OrderNumber: o.OrderNumber,
			Date:        o.Date,
			Status:      o.Status,
			Total:       o.Total.StringFixed(2),
			Items:       o.Items,
			ProductName: o.ProductName,
		})
	}
}

func (t *Tracker) ApplicationSubmitted(ctx context.Context, id, expertise string) {
	t.emit(ctx, orders.TopicApplicationSubmitted, orders.EventApplicationSubmitted, id, orders.ApplicationSubmittedPayload{
		ApplicationID: id,
		Expertise:     expertise,
	})
}

func (t *Tracker) emit(ctx context.Context, topic, eventType, id string, payload any) {
	env := orders.Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    t.Now().UTC(),
		Producer:      t.Service,
		TraceID:       traceID(ctx),
		CorrelationID: id,
		Payload:       kafkax.MustMarshal(payload),
	}
	if t.Metrics != nil {
		t.Metrics.Event(eventType)
	}
	if err := t.Emitter.Emit(ctx, topic, env); err != nil {
		t.Log.Warn("emit event", zap.String("event_type", eventType), zap.String("id", id), zap.Error(err))
	}
}

type traceKey struct{}

// WithTrace tags ctx so events emitted under it carry traceID.
func WithTrace(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceKey{}, traceID)
}

func traceID(ctx context.Context) string {
	s, _ := ctx.Value(traceKey{}).(string)
	return s
}
