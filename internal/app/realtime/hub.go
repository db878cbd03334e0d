// Package realtime keeps every viewer's copy of the order collection current.
package realtime

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/YelzhanWeb/orderboard/internal/adapter/logger"
	"github.com/YelzhanWeb/orderboard/internal/domain"
	"github.com/YelzhanWeb/orderboard/internal/interfaces"
)

// Hub holds the latest snapshot of every order and pushes the full collection to
// subscribers after each accepted change. Snapshots are applied only when their
// revision is newer than the one held, so redelivered or reordered messages are dropped.
type Hub struct {
	mu     sync.Mutex
	orders map[string]*domain.Order
	subs   map[*subscriber]struct{}
	logger logger.Logger
}

type subscriber struct {
	// one slot; a lagging reader only ever sees the latest collection
	ch chan []*domain.Order
}

func NewHub(logger logger.Logger) *Hub {
	return &Hub{
		orders: make(map[string]*domain.Order),
		subs:   make(map[*subscriber]struct{}),
		logger: logger,
	}
}

// Load seeds the hub from the store.
func (h *Hub) Load(ctx context.Context, repo interfaces.OrderRepository) error {
	orders, err := repo.List(ctx, interfaces.ListFilter{})
	if err != nil {
		return fmt.Errorf("failed to load orders: %w", err)
	}
	for _, o := range orders {
		h.PublishOrder(o)
	}
	h.logger.Info("hub_loaded", "Order snapshots loaded", "", map[string]interface{}{"orders": len(orders)})
	return nil
}

// PublishSnapshot makes the hub usable as the local SnapshotPublisher.
func (h *Hub) PublishSnapshot(_ context.Context, msg interfaces.SnapshotMessage) error {
	h.PublishOrder(&msg.Order)
	return nil
}

// PublishOrder applies a snapshot and reports whether it was newer than the one held.
func (h *Hub) PublishOrder(o *domain.Order) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if held, ok := h.orders[o.ID]; ok && held.Revision() >= o.Revision() {
		return false
	}
	h.orders[o.ID] = o.Clone()

	if len(h.subs) > 0 {
		snapshot := h.collectionLocked()
		for sub := range h.subs {
			sub.offer(snapshot)
		}
	}
	return true
}

// Subscribe returns a stream of full collections, newest order first. The current
// collection is delivered immediately. The channel closes when ctx is done.
// Receivers must treat the orders as read-only.
func (h *Hub) Subscribe(ctx context.Context) <-chan []*domain.Order {
	sub := &subscriber{ch: make(chan []*domain.Order, 1)}

	h.mu.Lock()
	h.subs[sub] = struct{}{}
	sub.offer(h.collectionLocked())
	h.mu.Unlock()

	go func() {
		<-ctx.Done()
		h.mu.Lock()
		delete(h.subs, sub)
		close(sub.ch)
		h.mu.Unlock()
	}()

	return sub.ch
}

// Orders returns the current collection, newest first.
func (h *Hub) Orders() []*domain.Order {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.collectionLocked()
}

func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

func (h *Hub) collectionLocked() []*domain.Order {
	out := make([]*domain.Order, 0, len(h.orders))
	for _, o := range h.orders {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// offer replaces whatever the subscriber has not read yet. Called with the hub lock held,
// so the hub is the only sender.
func (s *subscriber) offer(snapshot []*domain.Order) {
	select {
	case <-s.ch:
	default:
	}
	s.ch <- snapshot
}

// Tee publishes every snapshot to all of its publishers.
type Tee []interfaces.SnapshotPublisher

func (t Tee) PublishSnapshot(ctx context.Context, msg interfaces.SnapshotMessage) error {
	var errs []error
	for _, p := range t {
		if err := p.PublishSnapshot(ctx, msg); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
