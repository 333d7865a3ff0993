package orders

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterOrders_PreservesOrder(t *testing.T) {
	list := []Order{
		{ID: "a", Status: StatusPending},
		{ID: "b", Status: StatusDelivered},
		{ID: "c", Status: StatusPending},
		{ID: "d", Status: StatusSold},
		{ID: "e", Status: StatusPending},
	}

	got := FilterOrders(list, StatusPending)

	require.Len(t, got, 3)
	assert.Equal(t, []string{"a", "c", "e"}, []string{got[0].ID, got[1].ID, got[2].ID})
	for _, o := range got {
		assert.Equal(t, StatusPending, o.Status)
	}
}

func TestFilterOrders_EmptyIsNotNil(t *testing.T) {
	got := FilterOrders(nil, StatusDelivered)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestFilterProducts(t *testing.T) {
	list := []Product{
		{ID: "1", Status: StatusActive},
		{ID: "2", Status: StatusSold},
		{ID: "3", Status: StatusActive},
	}
	active := FilterProducts(list, StatusActive)
	sold := FilterProducts(list, StatusSold)

	assert.Equal(t, "1", active[0].ID)
	assert.Equal(t, "3", active[1].ID)
	require.Len(t, sold, 1)
	assert.Equal(t, "2", sold[0].ID)
}

func TestParseStatus(t *testing.T) {
	tests := []struct {
		in     string
		ok     bool
		buyer  bool
		seller bool
	}{
		{"pending", true, true, false},
		{"delivered", true, true, false},
		{"active", true, false, true},
		{"sold", true, false, true},
		{"shipped", false, false, false},
		{"", false, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			st, ok := ParseStatus(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.buyer, st.IsBuyer())
			assert.Equal(t, tt.seller, st.IsSeller())
		})
	}
}

func TestNewOrderNumber_Format(t *testing.T) {
	re := regexp.MustCompile(`^ORDER-[1-9][0-9]{4}$`)
	for i := 0; i < 200; i++ {
		assert.Regexp(t, re, NewOrderNumber())
	}
}

func TestNewID_CreationOrder(t *testing.T) {
	a := NewID()
	time.Sleep(2 * time.Millisecond)
	b := NewID()
	assert.NotEqual(t, a, b)
	assert.Less(t, a, b)
}

func TestMemoryStore_AppendsInOrder(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(nil, BuyerSeedOrders())

	require.NoError(t, s.AddProduct(ctx, Product{ID: "p1", Name: "Lamp"}))
	require.NoError(t, s.AddProduct(ctx, Product{ID: "p1", Name: "Lamp"}))
	require.NoError(t, s.AddOrder(ctx, Order{ID: "4", Status: StatusPending}))

	products, err := s.ListProducts(ctx)
	require.NoError(t, err)
	assert.Len(t, products, 2, "adds are not deduplicated")

	list, err := s.ListOrders(ctx)
	require.NoError(t, err)
	require.Len(t, list, 4)
	assert.Equal(t, "4", list[3].ID)
}

func TestMemoryStore_ListIsACopy(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore([]Product{{ID: "p1", Name: "Lamp"}}, nil)

	list, _ := s.ListProducts(ctx)
	list[0].Name = "changed"

	again, _ := s.ListProducts(ctx)
	assert.Equal(t, "Lamp", again[0].Name)
}

func TestFindOrder(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(nil, BuyerSeedOrders())

	o, err := FindOrder(ctx, s, "2")
	require.NoError(t, err)
	assert.Equal(t, "ORDER-12346", o.OrderNumber)
	assert.True(t, o.Total.Equal(decimal.RequireFromString("4479.44")))

	_, err = FindOrder(ctx, s, "nope")
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestFeed_NotifiesSubscribers(t *testing.T) {
	ctx := context.Background()
	f := NewFeed(NewMemoryStore(nil, nil), 4)

	ch, cancel := f.Subscribe()
	defer cancel()

	require.NoError(t, f.AddProduct(ctx, Product{ID: "p1"}))
	require.NoError(t, f.AddOrder(ctx, Order{ID: "o1"}))

	c1 := <-ch
	assert.Equal(t, ProductAdded, c1.Kind)
	require.NotNil(t, c1.Product)
	assert.Equal(t, "p1", c1.Product.ID)

	c2 := <-ch
	assert.Equal(t, OrderAdded, c2.Kind)
	require.NotNil(t, c2.Order)
	assert.Equal(t, "o1", c2.Order.ID)

	orders, _ := f.ListOrders(ctx)
	assert.Len(t, orders, 1)
}

func TestFeed_FullSubscriberDoesNotBlock(t *testing.T) {
	ctx := context.Background()
	f := NewFeed(NewMemoryStore(nil, nil), 1)
	ch, cancel := f.Subscribe()
	defer cancel()

	for i := 0; i < 5; i++ {
		require.NoError(t, f.AddOrder(ctx, Order{ID: NewID()}))
	}
	assert.Len(t, ch, 1)

	list, _ := f.ListOrders(ctx)
	assert.Len(t, list, 5)
}

func TestFeed_CancelClosesChannel(t *testing.T) {
	f := NewFeed(NewMemoryStore(nil, nil), 1)
	ch, cancel := f.Subscribe()
	cancel()
	cancel()

	_, open := <-ch
	assert.False(t, open)
	require.NoError(t, f.AddOrder(context.Background(), Order{ID: "x"}))
}
