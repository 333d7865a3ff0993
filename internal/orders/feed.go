package orders

import (
	"context"
	"sync"
)

type ChangeKind string

const (
	ProductAdded ChangeKind = "product_added"
	OrderAdded   ChangeKind = "order_added"
)

// Change describes one successful write to the store. Exactly one of
// Product and Order is set.
type Change struct {
	Kind    ChangeKind
	Product *Product
	Order   *Order
}

// Feed wraps a Store and notifies subscribers after every successful add.
// A subscriber whose buffer is full misses the change; writers never block.
type Feed struct {
	Store

	mu   sync.Mutex
	subs map[int]chan Change
	next int
	buf  int
}

func NewFeed(s Store, buf int) *Feed {
	if buf <= 0 {
		buf = 64
	}
	return &Feed{Store: s, subs: map[int]chan Change{}, buf: buf}
}

func (f *Feed) AddProduct(ctx context.Context, p Product) error {
	if err := f.Store.AddProduct(ctx, p); err != nil {
		return err
	}
	f.broadcast(Change{Kind: ProductAdded, Product: &p})
	return nil
}

func (f *Feed) AddOrder(ctx context.Context, o Order) error {
	if err := f.Store.AddOrder(ctx, o); err != nil {
		return err
	}
	f.broadcast(Change{Kind: OrderAdded, Order: &o})
	return nil
}

// Subscribe returns a channel of changes and a cancel func that closes it.
func (f *Feed) Subscribe() (<-chan Change, func()) {
	f.mu.Lock()
	defer f.mu.Unlock()

	id := f.next
	f.next++
	ch := make(chan Change, f.buf)
	f.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.subs, id)
			f.mu.Unlock()
			close(ch)
		})
	}
}

func (f *Feed) broadcast(c Change) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ch := range f.subs {
		select {
		case ch <- c:
		default:
		}
	}
}
