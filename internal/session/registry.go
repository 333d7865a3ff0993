// Package session keeps the per-client workspaces. A workspace holds the
// lists that belong to one client only: the seller catalog, the payment
// book, the middleman form and the recent-orders feed.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ariefcatur/sellmate/internal/auth"
	"github.com/ariefcatur/sellmate/internal/catalog"
	"github.com/ariefcatur/sellmate/internal/dashboard"
	"github.com/ariefcatur/sellmate/internal/forms"
	"github.com/ariefcatur/sellmate/internal/orders"
	"github.com/ariefcatur/sellmate/internal/payments"
)

var ErrNotFound = errors.New("session: not found")

type Workspace struct {
	ID           string
	Name         string
	Role         auth.Role
	Catalog      *catalog.Catalog
	Payments     *payments.Book
	Middleman    *forms.Submission
	RecentOrders []orders.Order

	mu       sync.Mutex
	lastSeen time.Time
}

func (w *Workspace) touch(now time.Time) {
	w.mu.Lock()
	w.lastSeen = now
	w.mu.Unlock()
}

func (w *Workspace) idleSince(now time.Time) time.Duration {
	w.mu.Lock()
	defer w.mu.Unlock()
	return now.Sub(w.lastSeen)
}

type Registry struct {
	TTL   time.Duration
	Delay time.Duration
	Now   func() time.Time

	mu  sync.RWMutex
	all map[string]*Workspace
}

// NewRegistry evicts workspaces idle longer than ttl. delay is the
// artificial latency of the middleman form.
func NewRegistry(ttl, delay time.Duration) *Registry {
	return &Registry{TTL: ttl, Delay: delay, Now: time.Now, all: map[string]*Workspace{}}
}

// Open creates a fresh seeded workspace.
func (r *Registry) Open(name string, role auth.Role) *Workspace {
	w := &Workspace{
		ID:           orders.NewID(),
		Name:         name,
		Role:         role,
		Catalog:      catalog.New(catalog.Seed()),
		Payments:     payments.NewBook(payments.Seed()),
		Middleman:    forms.NewSubmission(r.Delay),
		RecentOrders: dashboard.RecentOrders(0),
		lastSeen:     r.Now(),
	}
	r.mu.Lock()
	r.all[w.ID] = w
	r.mu.Unlock()
	return w
}

func (r *Registry) Get(id string) (*Workspace, error) {
	r.mu.RLock()
	w, ok := r.all[id]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	now := r.Now()
	if r.TTL > 0 && w.idleSince(now) > r.TTL {
		r.mu.Lock()
		delete(r.all, id)
		r.mu.Unlock()
		return nil, ErrNotFound
	}
	w.touch(now)
	return w, nil
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.all)
}

// Sweep drops idle workspaces and returns how many were removed.
func (r *Registry) Sweep() int {
	if r.TTL <= 0 {
		return 0
	}
	now := r.Now()
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, w := range r.all {
		if w.idleSince(now) > r.TTL {
			delete(r.all, id)
			n++
		}
	}
	return n
}

// Run sweeps every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, interval time.Duration, log *zap.Logger) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := r.Sweep(); n > 0 {
				log.Debug("sessions evicted", zap.Int("count", n), zap.Int("open", r.Len()))
			}
		}
	}
}
