package analytics

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	kafkax "github.com/ariefcatur/sellmate/internal/kafka"
	"github.com/ariefcatur/sellmate/internal/orders"
	"github.com/ariefcatur/sellmate/internal/redisx"
)

type recordingEmitter struct {
	mu     sync.Mutex
	topics []string
	envs   []orders.Envelope
}

func (e *recordingEmitter) Emit(_ context.Context, topic string, env orders.Envelope) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.topics = append(e.topics, topic)
	e.envs = append(e.envs, env)
	return nil
}

func (e *recordingEmitter) count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.envs)
}

var fixedNow = time.Date(2024, 5, 10, 9, 30, 0, 0, time.UTC)

func newService() *Service {
	return &Service{
		Counters:    redisx.NewMemoryCounters(),
		Dedup:       redisx.NewMemoryDedup(),
		ServiceName: "analytics-test",
		Log:         zap.NewNop(),
	}
}

func TestTracker_FollowsFeed(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	feed := orders.NewFeed(orders.NewMemoryStore(nil, nil), 8)
	em := &recordingEmitter{}
	tr := NewTracker(em, NewMetrics("test"), "api", zap.NewNop())
	tr.Now = func() time.Time { return fixedNow }

	follow := tr.Attach(feed)
	go follow(ctx)
	require.NoError(t, feed.AddProduct(ctx, orders.Product{ID: "p1", Name: "Lamp", Price: decimal.NewFromInt(5)}))
	require.Eventually(t, func() bool { return em.count() == 1 }, time.Second, 5*time.Millisecond)

	em.mu.Lock()
	defer em.mu.Unlock()
	assert.Equal(t, orders.TopicProductListed, em.topics[0])
	env := em.envs[0]
	assert.Equal(t, orders.EventProductListed, env.EventType)
	assert.Equal(t, "p1", env.CorrelationID)
	assert.Equal(t, "api", env.Producer)
	assert.Equal(t, fixedNow, env.OccurredAt)

	p, err := kafkax.UnwrapPayload[orders.ProductListedPayload](env.Payload)
	require.NoError(t, err)
	assert.Equal(t, "5.00", p.Price)
}

func TestTracker_ApplicationCarriesTrace(t *testing.T) {
	em := &recordingEmitter{}
	tr := NewTracker(em, nil, "api", zap.NewNop())

	tr.ApplicationSubmitted(WithTrace(context.Background(), "req-1"), "app-1", "Electronics")

	require.Len(t, em.envs, 1)
	assert.Equal(t, orders.TopicApplicationSubmitted, em.topics[0])
	assert.Equal(t, "req-1", em.envs[0].TraceID)
}

func envelope(t *testing.T, id, eventType string, payload any) orders.Envelope {
	t.Helper()
	return orders.Envelope{
		EventID:      id,
		EventType:    eventType,
		EventVersion: 1,
		OccurredAt:   fixedNow,
		Payload:      kafkax.MustMarshal(payload),
	}
}

func TestService_CountsAndReports(t *testing.T) {
	ctx := context.Background()
	s := newService()

	require.NoError(t, s.Apply(ctx, envelope(t, "e1", orders.EventProductListed, orders.ProductListedPayload{ProductID: "p"})))
	require.NoError(t, s.Apply(ctx, envelope(t, "e2", orders.EventOrderCreated, orders.OrderCreatedPayload{OrderID: "o1", Total: "10.00"})))
	require.NoError(t, s.Apply(ctx, envelope(t, "e3", orders.EventOrderCreated, orders.OrderCreatedPayload{OrderID: "o2", Total: "4.50"})))
	require.NoError(t, s.Apply(ctx, envelope(t, "e4", orders.EventApplicationSubmitted, orders.ApplicationSubmittedPayload{ApplicationID: "a", Expertise: "Home Goods"})))
	// redelivery
	require.NoError(t, s.Apply(ctx, envelope(t, "e2", orders.EventOrderCreated, orders.OrderCreatedPayload{OrderID: "o1", Total: "10.00"})))

	r, err := s.Report(ctx, fixedNow, 3)
	require.NoError(t, err)
	require.Len(t, r.Days, 3)
	assert.Equal(t, "2024-05-08", r.Days[0].Date)
	today := r.Days[2]
	assert.Equal(t, "2024-05-10", today.Date)
	assert.Equal(t, int64(1), today.ProductsListed)
	assert.Equal(t, int64(2), today.OrdersCreated)
	assert.Equal(t, "14.5", today.OrderValue.String())
	assert.Equal(t, int64(1), today.Applications)
	assert.Equal(t, map[string]int64{"home-goods": 1}, today.Expertise)
	assert.Equal(t, int64(2), r.OrdersCreated)
	assert.True(t, r.OrderValue.Equal(decimal.RequireFromString("14.5")))
}

// flakyCounters fails the next failures batches without writing anything,
// the way a failed Redis transaction does.
type flakyCounters struct {
	redisx.Counters
	failures int
}

func (f *flakyCounters) AddMany(ctx context.Context, day string, deltas map[string]decimal.Decimal) error {
	if f.failures > 0 {
		f.failures--
		return errors.New("redis down")
	}
	return f.Counters.AddMany(ctx, day, deltas)
}

func TestService_FailedWriteIsRetriedOnce(t *testing.T) {
	tests := []struct {
		name  string
		event orders.Envelope
		want  map[string]string
	}{
		{
			name:  "product listed",
			event: envelope(t, "e1", orders.EventProductListed, orders.ProductListedPayload{}),
			want:  map[string]string{FieldProductsListed: "1"},
		},
		{
			name:  "order created",
			event: envelope(t, "e2", orders.EventOrderCreated, orders.OrderCreatedPayload{OrderID: "o1", Total: "10.00"}),
			want:  map[string]string{FieldOrdersCreated: "1", FieldOrderValue: "10"},
		},
		{
			name:  "application submitted",
			event: envelope(t, "e3", orders.EventApplicationSubmitted, orders.ApplicationSubmittedPayload{ApplicationID: "a", Expertise: "Toys"}),
			want:  map[string]string{FieldApplications: "1", "expertise:toys": "1"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			s := newService()
			counters := &flakyCounters{Counters: s.Counters, failures: 1}
			s.Counters = counters

			require.Error(t, s.Apply(ctx, tt.event))
			require.NoError(t, s.Apply(ctx, tt.event))
			// the second delivery is now a duplicate
			require.NoError(t, s.Apply(ctx, tt.event))

			day, err := counters.Day(ctx, "2024-05-10")
			require.NoError(t, err)
			assert.Equal(t, tt.want, day)
		})
	}
}

func TestService_HandleMessage(t *testing.T) {
	s := newService()
	ev := envelope(t, "e9", orders.EventProductListed, orders.ProductListedPayload{})

	require.NoError(t, s.HandleMessage(context.Background(), kafkago.Message{Value: kafkax.MustMarshal(ev)}))
	assert.NoError(t, s.HandleMessage(context.Background(), kafkago.Message{Value: []byte("not json")}))

	day, _ := s.Counters.Day(context.Background(), "2024-05-10")
	assert.Equal(t, "1", day[FieldProductsListed])
}

func TestMetrics_Middleware(t *testing.T) {
	m := NewMetrics("test")
	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/items/{id}", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusTeapot) })
	r.Method(http.MethodGet, "/metrics", m.Handler())

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/items/42", nil))
	m.Rejected("add_product")

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)

	assert.Contains(t, string(body), `test_http_requests_total{method="GET",route="/items/{id}",status="418"} 1`)
	assert.Contains(t, string(body), `test_forms_rejected_total{form="add_product"} 1`)
}
