package interfaces

import (
	"context"
	"time"

	"github.com/YelzhanWeb/orderboard/internal/domain"
)

// ListFilter bounds a listing by creation time. Zero values mean unbounded.
type ListFilter struct {
	From time.Time
	To   time.Time
}

// OrderRepository is the durable home of orders. Item rows and the order header are
// versioned independently, so writers touching different items of one order never collide.
type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	FindByID(ctx context.Context, id string) (*domain.Order, error)
	// List returns orders newest first.
	List(ctx context.Context, filter ListFilter) ([]*domain.Order, error)
	// UpdateItem writes one item if its stored version still equals expectedVersion.
	// On success item.Version is advanced.
	UpdateItem(ctx context.Context, orderID string, item *domain.OrderItem, expectedVersion int64) error
	// UpdateOrderState writes status, paid and the order ledger under the same version check.
	UpdateOrderState(ctx context.Context, order *domain.Order, expectedVersion int64) error
}
