// Package memory is an in-process order store with the same versioning rules as the
// postgres store. It backs local runs and service tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/YelzhanWeb/orderboard/internal/domain"
	"github.com/YelzhanWeb/orderboard/internal/interfaces"
)

type orderRepository struct {
	mu     sync.RWMutex
	orders map[string]*domain.Order
}

func NewOrderRepository() interfaces.OrderRepository {
	return &orderRepository{orders: make(map[string]*domain.Order)}
}

func (r *orderRepository) Create(ctx context.Context, order *domain.Order) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.orders[order.ID]; ok {
		return fmt.Errorf("order %s already exists", order.ID)
	}

	order.Version = 1
	for i := range order.Items {
		order.Items[i].Version = 1
	}
	r.orders[order.ID] = order.Clone()
	return nil
}

func (r *orderRepository) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored, ok := r.orders[id]
	if !ok {
		return nil, fmt.Errorf("%w: order %s", domain.ErrNotFound, id)
	}
	return stored.Clone(), nil
}

func (r *orderRepository) List(ctx context.Context, filter interfaces.ListFilter) ([]*domain.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.Order, 0, len(r.orders))
	for _, o := range r.orders {
		if !filter.From.IsZero() && o.CreatedAt.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && !o.CreatedAt.Before(filter.To) {
			continue
		}
		out = append(out, o.Clone())
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *orderRepository) UpdateItem(ctx context.Context, orderID string, item *domain.OrderItem, expectedVersion int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.orders[orderID]
	if !ok {
		return fmt.Errorf("%w: order %s", domain.ErrNotFound, orderID)
	}
	idx := stored.Item(item.ID)
	if idx < 0 {
		return fmt.Errorf("%w: item %s in order %s", domain.ErrNotFound, item.ID, orderID)
	}
	if stored.Items[idx].Version != expectedVersion {
		return fmt.Errorf("%w: item %s is at version %d, expected %d",
			domain.ErrVersionConflict, item.ID, stored.Items[idx].Version, expectedVersion)
	}

	item.Version = expectedVersion + 1
	stored.Items[idx] = item.Clone()
	return nil
}

func (r *orderRepository) UpdateOrderState(ctx context.Context, order *domain.Order, expectedVersion int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.orders[order.ID]
	if !ok {
		return fmt.Errorf("%w: order %s", domain.ErrNotFound, order.ID)
	}
	if stored.Version != expectedVersion {
		return fmt.Errorf("%w: order %s is at version %d, expected %d",
			domain.ErrVersionConflict, order.ID, stored.Version, expectedVersion)
	}

	order.Version = expectedVersion + 1
	stored.Status = order.Status
	stored.Paid = order.Paid
	stored.Timestamps = order.Timestamps.Clone()
	stored.Version = order.Version
	return nil
}
